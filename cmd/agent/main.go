// The agent wires the notification engine together: it establishes the push
// subscription, attaches the click router and polls the bookings named on
// the command line, turning their lifecycle transitions into notifications.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hestiafix/notifysync/internal/api"
	"github.com/hestiafix/notifysync/internal/clickrouter"
	"github.com/hestiafix/notifysync/internal/config"
	"github.com/hestiafix/notifysync/internal/dispatch"
	"github.com/hestiafix/notifysync/internal/models"
	"github.com/hestiafix/notifysync/internal/poller"
	"github.com/hestiafix/notifysync/internal/subscription"
	"github.com/hestiafix/notifysync/internal/sw"
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
	bookingIDs := os.Args[1:]
	if len(bookingIDs) == 0 {
		logger.Fatal().Msg("Usage: agent <booking-id> [booking-id...]")
	}

	registry := sw.NewLocalRegistry(sw.LocalRegistryConfig{}, logger)
	permission := sw.NewLocalPermission(sw.Permission(cfg.Permission), logger)
	windows := sw.NewLocalWindowClients(logger)
	apiClient := api.NewClient(cfg.APIBaseURL, logger)

	manager := subscription.NewManager(registry, permission, apiClient, subscription.Config{
		VAPIDPublicKey:    cfg.VAPIDPublicKey,
		ServiceWorkerPath: cfg.ServiceWorkerPath,
	}, logger)
	dispatcher := dispatch.NewDispatcher(manager, permission, logger)
	router := clickrouter.NewRouter(windows, logger)
	statusPoller := poller.New(dispatcher, poller.Config{
		Interval:     cfg.PollInterval,
		FetchTimeout: cfg.FetchTimeout,
	}, logger)

	ctx := context.Background()

	// Notification features degrade gracefully: a failed subscription
	// disables push delivery but never blocks status polling.
	if _, err := manager.Subscribe(ctx); err != nil {
		switch {
		case errors.Is(err, subscription.ErrMissingVAPIDKey):
			logger.Error().Msg("VAPID_PUBLIC_KEY is not set; push subscription skipped")
		case errors.Is(err, subscription.ErrPermissionDenied):
			logger.Warn().Msg("notification permission denied; notifications disabled for this session")
		case errors.Is(err, api.ErrPersistFailed):
			logger.Warn().Err(err).Msg("subscription established but not persisted; will remain valid locally")
		default:
			logger.Error().Err(err).Msg("push subscription failed")
		}
	}

	// The click router reacts to every notification the dispatcher shows.
	if reg, err := manager.Initialize(ctx); err == nil {
		detach := router.Attach(reg)
		defer detach()
	}

	for _, id := range bookingIDs {
		id := id
		if snap, err := apiClient.GetBooking(ctx, id); err != nil {
			logger.Warn().Err(err).Str("booking_id", id).Msg("initial booking fetch failed; polling anyway")
		} else {
			dispatcher.SendBookingConfirmation(ctx, snap, snap.ServiceCategoryID)
		}
		statusPoller.Start(id, func(ctx context.Context) (models.BookingSnapshot, error) {
			return apiClient.GetBooking(ctx, id)
		})
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	sig := <-quit
	logger.Info().Msgf("Received signal: %s. Shutting down...", sig)

	statusPoller.StopAll()
	logger.Info().Msg("Agent terminated.")
}
