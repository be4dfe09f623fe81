package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusAssigned   BookingStatus = "assigned"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

// ErrUnknownShape is returned when a booking payload matches neither of the
// two shapes the backend is known to produce.
var ErrUnknownShape = errors.New("models: unrecognized booking payload shape")

// Terminal reports whether no further lifecycle transitions can follow.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

func ParseBookingStatus(raw string) (BookingStatus, bool) {
	switch BookingStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case BookingStatusPending:
		return BookingStatusPending, true
	case BookingStatusAssigned:
		return BookingStatusAssigned, true
	case BookingStatusInProgress:
		return BookingStatusInProgress, true
	case BookingStatusCompleted:
		return BookingStatusCompleted, true
	case BookingStatusCancelled:
		return BookingStatusCancelled, true
	}
	return "", false
}

type Worker struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// BookingSnapshot is the read-only projection of a booking fetched on each
// poll tick. It is never stored beyond the current and previous tick.
type BookingSnapshot struct {
	ID                string        `json:"id"`
	Status            BookingStatus `json:"status"`
	Worker            *Worker       `json:"worker"`
	ServiceCategoryID int           `json:"service_category_id,omitempty"`
	ScheduledAt       time.Time     `json:"scheduled_at,omitzero"`
}

// NormalizeBookingPayload converts a booking response body into a
// BookingSnapshot. The backend serves two shapes, a flat booking object and
// the same object wrapped under a "booking" key; both are accepted. Anything
// else fails with ErrUnknownShape instead of silently yielding zero fields.
func NormalizeBookingPayload(raw []byte) (BookingSnapshot, error) {
	var envelope struct {
		Booking json.RawMessage `json:"booking"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return BookingSnapshot{}, errors.Wrapf(ErrUnknownShape, "not a JSON object: %v", err)
	}

	body := raw
	if len(envelope.Booking) > 0 && !bytes.Equal(envelope.Booking, []byte("null")) {
		body = envelope.Booking
	}

	var payload struct {
		ID                string    `json:"id"`
		Status            string    `json:"status"`
		Worker            *Worker   `json:"worker"`
		ServiceCategoryID int       `json:"service_category_id"`
		ScheduledAt       time.Time `json:"scheduled_at"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return BookingSnapshot{}, errors.Wrapf(ErrUnknownShape, "booking object: %v", err)
	}
	if payload.ID == "" || payload.Status == "" {
		return BookingSnapshot{}, errors.Wrap(ErrUnknownShape, "missing id or status")
	}
	status, ok := ParseBookingStatus(payload.Status)
	if !ok {
		return BookingSnapshot{}, errors.Wrapf(ErrUnknownShape, "unknown status %q", payload.Status)
	}

	return BookingSnapshot{
		ID:                payload.ID,
		Status:            status,
		Worker:            payload.Worker,
		ServiceCategoryID: payload.ServiceCategoryID,
		ScheduledAt:       payload.ScheduledAt,
	}, nil
}
