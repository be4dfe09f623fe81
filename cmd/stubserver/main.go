package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	h "github.com/gorilla/handlers"
	"github.com/hestiafix/notifysync/internal/bookingstub"
	"github.com/hestiafix/notifysync/internal/config"
	"github.com/hestiafix/notifysync/internal/handlers"
	"github.com/hestiafix/notifysync/internal/middleware"
	"github.com/hestiafix/notifysync/internal/routes"
	"github.com/rs/zerolog"
)

func main() {
	// Set up structured, level-based logging.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.SetFlags(0)
	log.SetOutput(logger)

	cfg := config.Load()
	store := bookingstub.NewStore()

	bookingHandler := handlers.NewBookingHandler(store, logger)
	subscriptionHandler := handlers.NewSubscriptionHandler(store, logger)

	router := routes.NewRouter(bookingHandler, subscriptionHandler)
	loggedRouter := middleware.LoggingMiddleware(logger)(router)
	corsHandler := h.CORS(
		h.AllowedOrigins([]string{"http://localhost:3000"}),
		h.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type"}),
	)(loggedRouter)

	startServer(corsHandler, cfg.ServerPort, logger)
	logger.Info().Msg("Stub server terminated.")
}

// startServer launches the HTTP server and handles graceful shutdown.
func startServer(handler http.Handler, port string, logger zerolog.Logger) {
	server := &http.Server{
		Addr:    ":" + port,
		Handler: handler,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info().Msgf("Stub booking backend listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		logger.Error().Err(err).Msg("Server error occurred")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		logger.Info().Msg("HTTP server shutdown complete.")
	}
}
