package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/hestiafix/notifysync/internal/bookingstub"
	"github.com/hestiafix/notifysync/internal/models"
	"github.com/rs/zerolog"
)

type BookingHandler struct {
	store  bookingstub.Store
	logger zerolog.Logger

	// mu guards fetches; the GET response alternates between the two
	// payload shapes the production backend is known to serve, so client
	// normalizers see both continuously.
	mu      sync.Mutex
	fetches map[string]int
}

func NewBookingHandler(store bookingstub.Store, logger zerolog.Logger) *BookingHandler {
	return &BookingHandler{
		store:   store,
		logger:  logger.With().Str("handler", "booking").Logger(),
		fetches: make(map[string]int),
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ServiceCategoryID int       `json:"service_category_id"`
		ScheduledAt       time.Time `json:"scheduled_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	snap := h.store.CreateBooking(bookingstub.CreateBookingParams{
		ServiceCategoryID: body.ServiceCategoryID,
		ScheduledAt:       body.ScheduledAt,
	})
	h.logger.Info().Str("booking_id", snap.ID).Msg("booking created")
	writeJSON(w, http.StatusCreated, snap)
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["bookingID"])
	if id == "" {
		http.Error(w, "Booking ID is required", http.StatusBadRequest)
		return
	}

	snap, ok := h.store.GetBooking(id)
	if !ok {
		http.Error(w, "Booking not found", http.StatusNotFound)
		return
	}

	h.mu.Lock()
	h.fetches[id]++
	wrapped := h.fetches[id]%2 == 0
	h.mu.Unlock()

	if wrapped {
		writeJSON(w, http.StatusOK, map[string]interface{}{"booking": snap})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *BookingHandler) AssignWorker(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["bookingID"])

	var worker models.Worker
	if err := json.NewDecoder(r.Body).Decode(&worker); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(worker.Name) == "" {
		http.Error(w, "Worker name is required", http.StatusBadRequest)
		return
	}

	snap, ok := h.store.AssignWorker(id, worker)
	if !ok {
		http.Error(w, "Booking not found", http.StatusNotFound)
		return
	}
	h.logger.Info().Str("booking_id", id).Str("worker", worker.Name).Msg("worker assigned")
	writeJSON(w, http.StatusOK, snap)
}

func (h *BookingHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["bookingID"])

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	status, ok := models.ParseBookingStatus(body.Status)
	if !ok {
		http.Error(w, "Unknown booking status", http.StatusUnprocessableEntity)
		return
	}

	snap, found := h.store.SetStatus(id, status)
	if !found {
		http.Error(w, "Booking not found", http.StatusNotFound)
		return
	}
	h.logger.Info().Str("booking_id", id).Str("status", string(status)).Msg("booking status updated")
	writeJSON(w, http.StatusOK, snap)
}
