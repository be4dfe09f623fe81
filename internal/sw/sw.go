// Package sw abstracts the service-worker surfaces the notification engine
// consumes: worker registration, the push manager, the permission prompt,
// notification display and window clients. Implementations are injected so
// the engine and its tests never reach for global browser-style state.
package sw

import (
	"context"

	"github.com/hestiafix/notifysync/internal/models"
	"github.com/pkg/errors"
)

var (
	// ErrUnsupported means the runtime offers no service worker or push
	// manager; the condition is permanent for the session.
	ErrUnsupported = errors.New("sw: push messaging is not supported")
	// ErrRegistrationFailed covers a worker script that failed to install.
	// Unlike ErrUnsupported, callers may retry registration.
	ErrRegistrationFailed = errors.New("sw: service worker registration failed")
)

type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// PermissionProvider negotiates notification permission. Request prompts at
// most once; once the user has decided, it keeps returning that decision.
type PermissionProvider interface {
	Current() Permission
	Request(ctx context.Context) (Permission, error)
}

// SubscribeOptions mirror PushManager.subscribe parameters.
type SubscribeOptions struct {
	UserVisibleOnly      bool
	ApplicationServerKey []byte
}

// PushManager creates and recalls the push subscription of a registration.
type PushManager interface {
	// GetSubscription returns the existing subscription, or nil when none
	// has been created yet.
	GetSubscription(ctx context.Context) (*models.Subscription, error)
	Subscribe(ctx context.Context, opts SubscribeOptions) (*models.Subscription, error)
}

// ClickEvent is delivered to click handlers when a shown notification is
// activated. Action is empty for a click on the notification body.
type ClickEvent struct {
	Action       string
	Notification models.NotificationRequest

	close func()
}

// Close dismisses the clicked notification. Safe on a zero-value event.
func (e ClickEvent) Close() {
	if e.close != nil {
		e.close()
	}
}

type ClickHandler func(ClickEvent)

// Registration is the shared, read-mostly handle both the subscription
// manager and the dispatcher operate on. It is obtained once and cached.
type Registration interface {
	ShowNotification(ctx context.Context, req models.NotificationRequest) error
	PushManager() PushManager
	// OnNotificationClick subscribes a handler and returns its detach
	// function, keeping the click router's lifecycle explicit.
	OnNotificationClick(h ClickHandler) (detach func())
}

// Registry registers the worker script and hands out the registration.
type Registry interface {
	Supported() bool
	Register(ctx context.Context, scriptPath string) (Registration, error)
}

// WindowClient is an open window the click router can focus.
type WindowClient interface {
	URL() string
	Focus(ctx context.Context) error
}

// WindowClients enumerates and opens windows from the worker context.
type WindowClients interface {
	List(ctx context.Context) ([]WindowClient, error)
	OpenWindow(ctx context.Context, url string) (WindowClient, error)
}
