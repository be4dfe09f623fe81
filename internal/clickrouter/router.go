// Package clickrouter reacts to notification clicks: the view action (or a
// plain body click) focuses an already-open window for the target URL or
// opens a new one; the close action only dismisses the notification.
//
// Handlers run in the worker context and see nothing but the event payload.
package clickrouter

import (
	"context"

	"github.com/hestiafix/notifysync/internal/sw"
	"github.com/rs/zerolog"
)

const (
	actionView  = "view"
	actionClose = "close"
)

type Router struct {
	clients sw.WindowClients
	logger  zerolog.Logger
}

func NewRouter(clients sw.WindowClients, logger zerolog.Logger) *Router {
	return &Router{
		clients: clients,
		logger:  logger.With().Str("component", "click_router").Logger(),
	}
}

// Attach subscribes the router to a registration's click events and returns
// the detach function, mirroring the poller's start/stop symmetry.
func (r *Router) Attach(reg sw.Registration) (detach func()) {
	return reg.OnNotificationClick(r.Handle)
}

// Handle processes one click event.
func (r *Router) Handle(evt sw.ClickEvent) {
	evt.Close()
	if evt.Action == actionClose {
		return
	}

	target := evt.Notification.Data.URL
	if target == "" {
		target = "/"
	}

	ctx := context.Background()
	windows, err := r.clients.List(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("cannot enumerate window clients")
		windows = nil
	}
	for _, w := range windows {
		if w.URL() == target {
			if err := w.Focus(ctx); err != nil {
				r.logger.Warn().Err(err).Str("url", target).Msg("failed to focus window")
			}
			return
		}
	}

	if _, err := r.clients.OpenWindow(ctx, target); err != nil {
		r.logger.Warn().Err(err).Str("url", target).Msg("failed to open window")
		return
	}
	r.logger.Debug().Str("url", target).Str("action", evt.Action).Msg("opened window for notification click")
}
