package clickrouter_test

import (
	"context"
	"testing"

	"github.com/hestiafix/notifysync/internal/clickrouter"
	"github.com/hestiafix/notifysync/internal/models"
	"github.com/hestiafix/notifysync/internal/sw"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notification(url string) models.NotificationRequest {
	return models.NotificationRequest{
		Title: "Worker Assigned",
		Tag:   "booking-42",
		Data:  models.NotificationData{URL: url, BookingID: "42"},
	}
}

func TestHandle_FocusesExistingWindow(t *testing.T) {
	clients := sw.NewLocalWindowClients(zerolog.Nop())
	ctx := context.Background()
	win, err := clients.OpenWindow(ctx, "/booking-status/42")
	require.NoError(t, err)

	router := clickrouter.NewRouter(clients, zerolog.Nop())
	router.Handle(sw.ClickEvent{Action: "view", Notification: notification("/booking-status/42")})

	local := win.(*sw.LocalWindowClient)
	assert.Equal(t, 1, local.FocusCount())

	// Focus, not a second window.
	windows, err := clients.List(ctx)
	require.NoError(t, err)
	assert.Len(t, windows, 1)
}

func TestHandle_OpensWindowWhenNoneMatches(t *testing.T) {
	clients := sw.NewLocalWindowClients(zerolog.Nop())
	router := clickrouter.NewRouter(clients, zerolog.Nop())

	router.Handle(sw.ClickEvent{Action: "view", Notification: notification("/booking-status/42")})

	windows, err := clients.List(context.Background())
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, "/booking-status/42", windows[0].URL())
}

func TestHandle_BodyClickDefaultsToRoot(t *testing.T) {
	clients := sw.NewLocalWindowClients(zerolog.Nop())
	router := clickrouter.NewRouter(clients, zerolog.Nop())

	router.Handle(sw.ClickEvent{Notification: models.NotificationRequest{Title: "t"}})

	windows, err := clients.List(context.Background())
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, "/", windows[0].URL())
}

func TestHandle_CloseActionDoesNotNavigate(t *testing.T) {
	clients := sw.NewLocalWindowClients(zerolog.Nop())
	router := clickrouter.NewRouter(clients, zerolog.Nop())

	router.Handle(sw.ClickEvent{Action: "close", Notification: notification("/booking-status/42")})

	windows, err := clients.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, windows)
}

func TestAttachAndDetach(t *testing.T) {
	registry := sw.NewLocalRegistry(sw.LocalRegistryConfig{}, zerolog.Nop())
	reg, err := registry.Register(context.Background(), "/service-worker.js")
	require.NoError(t, err)
	local, _ := registry.Registration()

	clients := sw.NewLocalWindowClients(zerolog.Nop())
	router := clickrouter.NewRouter(clients, zerolog.Nop())
	detach := router.Attach(reg)

	ctx := context.Background()
	require.NoError(t, reg.ShowNotification(ctx, notification("/booking-status/42")))
	require.True(t, local.Click("booking-42", "view"))

	// The click closed the notification and opened the target window.
	assert.Empty(t, local.Visible())
	windows, err := clients.List(ctx)
	require.NoError(t, err)
	require.Len(t, windows, 1)

	// After detaching, clicks no longer reach the router.
	detach()
	require.NoError(t, reg.ShowNotification(ctx, notification("/booking-status/43")))
	require.True(t, local.Click("booking-42", "view"))

	windows, err = clients.List(ctx)
	require.NoError(t, err)
	assert.Len(t, windows, 1)
}
