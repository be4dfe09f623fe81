// Package dispatch shows notifications through the shared service-worker
// registration and builds the booking-specific payloads. Delivery is
// best-effort: every failure degrades to a false return, never a crash of
// the calling poll loop.
package dispatch

import (
	"context"
	"fmt"

	"github.com/hestiafix/notifysync/internal/models"
	"github.com/hestiafix/notifysync/internal/sw"
	"github.com/rs/zerolog"
)

// RegistrationSource lazily yields the cached service-worker registration.
// The subscription manager satisfies it, so the dispatcher never registers
// a second worker.
type RegistrationSource interface {
	Initialize(ctx context.Context) (sw.Registration, error)
}

type Dispatcher struct {
	source RegistrationSource
	perm   sw.PermissionProvider
	logger zerolog.Logger
}

func NewDispatcher(source RegistrationSource, perm sw.PermissionProvider, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		source: source,
		perm:   perm,
		logger: logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Show displays one notification. It returns false without an error when
// the surface is unsupported, permission is not granted, or the show call
// itself fails; the condition is logged and the caller keeps running.
func (d *Dispatcher) Show(ctx context.Context, req models.NotificationRequest) bool {
	if d.perm.Current() != sw.PermissionGranted {
		d.logger.Debug().Str("tag", req.Tag).Msg("notification skipped, permission not granted")
		return false
	}
	reg, err := d.source.Initialize(ctx)
	if err != nil {
		d.logger.Warn().Err(err).Str("tag", req.Tag).Msg("notification dropped, no service worker registration")
		return false
	}
	if err := reg.ShowNotification(ctx, req); err != nil {
		d.logger.Warn().Err(err).Str("tag", req.Tag).Str("title", req.Title).Msg("failed to show notification")
		return false
	}
	return true
}

// SendBookingConfirmation notifies that a booking was accepted. The tag is
// derived from the booking id, so repeats replace instead of stacking.
func (d *Dispatcher) SendBookingConfirmation(ctx context.Context, snap models.BookingSnapshot, serviceCategoryID int) bool {
	service := ServiceCategoryName(serviceCategoryID)
	when := "soon"
	if !snap.ScheduledAt.IsZero() {
		when = snap.ScheduledAt.Format("Mon, Jan 2 at 3:04 PM")
	}
	return d.Show(ctx, models.NotificationRequest{
		Title:              "Booking Confirmed! 🎉",
		Body:               fmt.Sprintf("Your %s booking is confirmed for %s.", service, when),
		Icon:               defaultIcon,
		Tag:                BookingTag(snap.ID),
		Data:               bookingData(snap.ID),
		Actions:            bookingActions(),
		RequireInteraction: true,
	})
}

// SendWorkerAssigned notifies that a worker was assigned to the booking.
func (d *Dispatcher) SendWorkerAssigned(ctx context.Context, snap models.BookingSnapshot) bool {
	if snap.Worker == nil {
		return false
	}
	body := fmt.Sprintf("%s has been assigned to your booking.", snap.Worker.Name)
	if snap.Worker.Phone != "" {
		body = fmt.Sprintf("%s has been assigned to your booking. Reach them at %s.", snap.Worker.Name, snap.Worker.Phone)
	}
	return d.Show(ctx, models.NotificationRequest{
		Title:              "Worker Assigned",
		Body:               body,
		Icon:               defaultIcon,
		Tag:                BookingTag(snap.ID),
		Data:               bookingData(snap.ID),
		Actions:            bookingActions(),
		RequireInteraction: true,
	})
}

// SendStatusUpdate notifies about a terminal lifecycle transition. Other
// statuses produce no notification and return false.
func (d *Dispatcher) SendStatusUpdate(ctx context.Context, snap models.BookingSnapshot) bool {
	var title, body string
	switch snap.Status {
	case models.BookingStatusCompleted:
		title = "Service Completed"
		body = "Your booking is complete. Thanks for choosing us!"
	case models.BookingStatusCancelled:
		title = "Booking Cancelled"
		body = "Your booking has been cancelled."
	default:
		return false
	}
	return d.Show(ctx, models.NotificationRequest{
		Title:   title,
		Body:    body,
		Icon:    defaultIcon,
		Tag:     BookingTag(snap.ID),
		Data:    bookingData(snap.ID),
		Actions: bookingActions(),
	})
}

const defaultIcon = "/icons/icon-192.png"

// BookingTag derives the per-booking dedup tag: at most one visible
// notification per booking, however often show is invoked.
func BookingTag(bookingID string) string {
	return "booking-" + bookingID
}

func bookingData(bookingID string) models.NotificationData {
	return models.NotificationData{
		URL:       "/booking-status/" + bookingID,
		BookingID: bookingID,
	}
}

func bookingActions() []models.NotificationAction {
	return []models.NotificationAction{
		{Action: "view", Title: "View Booking"},
		{Action: "close", Title: "Dismiss"},
	}
}
