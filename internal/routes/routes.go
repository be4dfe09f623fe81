package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hestiafix/notifysync/internal/handlers"
)

// NewRouter sets up the stub backend routes
func NewRouter(booking *handlers.BookingHandler, subscription *handlers.SubscriptionHandler) *mux.Router {
	router := mux.NewRouter()

	// Health check route
	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)

	// Contracts consumed by the notification engine
	router.HandleFunc("/api/bookings/{bookingID}", booking.Get).Methods(http.MethodGet)
	router.HandleFunc("/api/save-subscription", subscription.Save).Methods(http.MethodPost)

	// Admin controls for driving booking lifecycle transitions
	router.HandleFunc("/api/bookings", booking.Create).Methods(http.MethodPost)
	router.HandleFunc("/api/bookings/{bookingID}/assign", booking.AssignWorker).Methods(http.MethodPost)
	router.HandleFunc("/api/bookings/{bookingID}/status", booking.SetStatus).Methods(http.MethodPost)

	return router
}
