// Package bookingstub is the in-memory store behind the development stub of
// the booking backend. It exists so the agent can be exercised end-to-end
// without the production API.
package bookingstub

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hestiafix/notifysync/internal/models"
)

type Store interface {
	CreateBooking(params CreateBookingParams) models.BookingSnapshot
	GetBooking(id string) (models.BookingSnapshot, bool)
	AssignWorker(id string, worker models.Worker) (models.BookingSnapshot, bool)
	SetStatus(id string, status models.BookingStatus) (models.BookingSnapshot, bool)
	// SaveSubscription stores a subscription keyed by endpoint. It reports
	// whether the endpoint was newly stored.
	SaveSubscription(sub models.Subscription) bool
	Subscriptions() []models.Subscription
}

type CreateBookingParams struct {
	ServiceCategoryID int
	ScheduledAt       time.Time
}

type store struct {
	mu            sync.Mutex
	bookings      map[string]models.BookingSnapshot
	subscriptions map[string]models.Subscription
}

func NewStore() Store {
	return &store{
		bookings:      make(map[string]models.BookingSnapshot),
		subscriptions: make(map[string]models.Subscription),
	}
}

func (s *store) CreateBooking(params CreateBookingParams) models.BookingSnapshot {
	snap := models.BookingSnapshot{
		ID:                uuid.NewString(),
		Status:            models.BookingStatusPending,
		ServiceCategoryID: params.ServiceCategoryID,
		ScheduledAt:       params.ScheduledAt,
	}
	s.mu.Lock()
	s.bookings[snap.ID] = snap
	s.mu.Unlock()
	return snap
}

func (s *store) GetBooking(id string) (models.BookingSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.bookings[id]
	return snap, ok
}

func (s *store) AssignWorker(id string, worker models.Worker) (models.BookingSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.bookings[id]
	if !ok {
		return models.BookingSnapshot{}, false
	}
	snap.Worker = &worker
	snap.Status = models.BookingStatusAssigned
	s.bookings[id] = snap
	return snap, true
}

func (s *store) SetStatus(id string, status models.BookingStatus) (models.BookingSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.bookings[id]
	if !ok {
		return models.BookingSnapshot{}, false
	}
	snap.Status = status
	s.bookings[id] = snap
	return snap, true
}

func (s *store) SaveSubscription(sub models.Subscription) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.subscriptions[sub.Endpoint]
	s.subscriptions[sub.Endpoint] = sub
	return !exists
}

func (s *store) Subscriptions() []models.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Subscription, 0, len(s.subscriptions))
	for _, sub := range s.subscriptions {
		out = append(out, sub)
	}
	return out
}
