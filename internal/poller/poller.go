// Package poller watches booking resources for worker-assignment and
// lifecycle transitions and converts them into notifications, exactly once
// per meaningful change.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/hestiafix/notifysync/internal/models"
	"github.com/rs/zerolog"
)

const (
	defaultInterval     = 5 * time.Second
	defaultFetchTimeout = 10 * time.Second
)

// FetchFunc retrieves the current snapshot of one booking.
type FetchFunc func(ctx context.Context) (models.BookingSnapshot, error)

// Dispatcher is the notification sink. A false return means the
// notification was not delivered and the transition must be retried.
type Dispatcher interface {
	SendWorkerAssigned(ctx context.Context, snap models.BookingSnapshot) bool
	SendStatusUpdate(ctx context.Context, snap models.BookingSnapshot) bool
}

type Config struct {
	// Interval between poll ticks. Fixed cadence, no backoff: a transient
	// fetch failure must never stop or slow the loop.
	Interval time.Duration
	// FetchTimeout bounds a single fetch so a hung request cannot pin a
	// handle forever.
	FetchTimeout time.Duration
}

// Poller runs one polling state machine per booking id.
type Poller struct {
	dispatcher Dispatcher
	cfg        Config
	logger     zerolog.Logger

	mu      sync.Mutex
	handles map[string]*handle
}

// handle is the per-booking poll state. Ticks carry increasing sequence
// numbers; a fetch resolution is applied only when its sequence exceeds the
// highest applied one, so a slow tick N response cannot clobber tick N+1.
type handle struct {
	bookingID string
	cancel    context.CancelFunc

	mu                 sync.Mutex
	active             bool
	seq                uint64
	appliedSeq         uint64
	workerNotified     bool
	lastNotifiedStatus models.BookingStatus
}

func New(dispatcher Dispatcher, cfg Config, logger zerolog.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	return &Poller{
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger.With().Str("component", "booking_poller").Logger(),
		handles:    make(map[string]*handle),
	}
}

// Start begins polling a booking: one immediate fetch, then a fetch per
// interval. Starting an already-watched booking is a no-op, not a second
// timer. A stopped booking can be started again with a fresh handle.
func (p *Poller) Start(bookingID string, fetch FetchFunc) {
	p.mu.Lock()
	if h, ok := p.handles[bookingID]; ok && h.isActive() {
		p.mu.Unlock()
		p.logger.Debug().Str("booking_id", bookingID).Msg("already polling")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &handle{bookingID: bookingID, cancel: cancel, active: true}
	p.handles[bookingID] = h
	p.mu.Unlock()

	p.logger.Info().Str("booking_id", bookingID).Dur("interval", p.cfg.Interval).Msg("polling started")
	go p.run(ctx, h, fetch)
}

// Stop clears the booking's timer and discards its handle. Safe to call
// repeatedly and for ids that were never started.
func (p *Poller) Stop(bookingID string) {
	p.mu.Lock()
	h, ok := p.handles[bookingID]
	if ok {
		delete(p.handles, bookingID)
	}
	p.mu.Unlock()
	if !ok {
		return
	}
	h.mu.Lock()
	h.active = false
	h.mu.Unlock()
	h.cancel()
	p.logger.Info().Str("booking_id", bookingID).Msg("polling stopped")
}

// StopAll stops every active handle; called on shutdown.
func (p *Poller) StopAll() {
	p.mu.Lock()
	ids := make([]string, 0, len(p.handles))
	for id := range p.handles {
		ids = append(ids, id)
	}
	p.mu.Unlock()
	for _, id := range ids {
		p.Stop(id)
	}
}

// Active reports whether a booking is currently being polled.
func (p *Poller) Active(bookingID string) bool {
	p.mu.Lock()
	h, ok := p.handles[bookingID]
	p.mu.Unlock()
	return ok && h.isActive()
}

func (p *Poller) run(ctx context.Context, h *handle, fetch FetchFunc) {
	p.tick(ctx, h, fetch)
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx, h, fetch)
		}
	}
}

// tick issues the fetch without waiting for it, matching wall-clock
// scheduling: resolution order is not guaranteed, the sequence guard is.
func (p *Poller) tick(ctx context.Context, h *handle, fetch FetchFunc) {
	h.mu.Lock()
	h.seq++
	seq := h.seq
	h.mu.Unlock()

	go func() {
		fctx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
		defer cancel()
		snap, err := fetch(fctx)
		p.apply(h, seq, snap, err)
	}()
}

func (p *Poller) apply(h *handle, seq uint64, snap models.BookingSnapshot, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.active || seq <= h.appliedSeq {
		p.logger.Debug().Str("booking_id", h.bookingID).Uint64("seq", seq).Msg("discarding superseded poll response")
		return
	}
	h.appliedSeq = seq

	if err != nil {
		// Transient failure: skip the tick, keep polling, leave the
		// notified state untouched so the next tick retries the diff.
		p.logger.Warn().Err(err).Str("booking_id", h.bookingID).Msg("booking fetch failed")
		return
	}

	ctx := context.Background()

	if snap.Worker != nil && !h.workerNotified {
		if p.dispatcher.SendWorkerAssigned(ctx, snap) {
			h.workerNotified = true
			p.logger.Info().
				Str("booking_id", h.bookingID).
				Str("worker", snap.Worker.Name).
				Msg("worker assignment notified")
		} else {
			p.logger.Warn().Str("booking_id", h.bookingID).Msg("worker assignment notification not delivered, retrying next tick")
		}
	}

	if snap.Status.Terminal() && h.lastNotifiedStatus != snap.Status {
		if p.dispatcher.SendStatusUpdate(ctx, snap) {
			h.lastNotifiedStatus = snap.Status
			p.logger.Info().
				Str("booking_id", h.bookingID).
				Str("status", string(snap.Status)).
				Msg("status transition notified")
		}
	}
}

func (h *handle) isActive() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}
