// Package subscription owns service-worker registration, permission
// negotiation and push-subscription creation, reuse and persistence.
package subscription

import (
	"context"
	"strings"
	"sync"

	"github.com/hestiafix/notifysync/internal/models"
	"github.com/hestiafix/notifysync/internal/sw"
	"github.com/hestiafix/notifysync/internal/vapid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrPermissionDenied is terminal for the session; the user has to
	// change browser settings before a retry can succeed.
	ErrPermissionDenied = errors.New("subscription: notification permission denied")
	// ErrMissingVAPIDKey is a hard stop: no subscription is attempted.
	ErrMissingVAPIDKey = errors.New("subscription: vapid public key is not configured")
)

// State tracks the manager through its lifecycle.
type State string

const (
	StateUninitialized     State = "uninitialized"
	StateRegistered        State = "registered"
	StatePermissionPending State = "permission_pending"
	StatePermissionGranted State = "permission_granted"
	StatePermissionDenied  State = "permission_denied"
	StateSubscribed        State = "subscribed"
)

// Store persists a subscription server-side.
type Store interface {
	SaveSubscription(ctx context.Context, sub models.Subscription) error
}

type Config struct {
	VAPIDPublicKey    string
	ServiceWorkerPath string
}

type Manager struct {
	registry sw.Registry
	perm     sw.PermissionProvider
	store    Store
	cfg      Config
	logger   zerolog.Logger

	// flight collapses concurrent Initialize calls into one registration.
	flight singleflight.Group

	mu     sync.Mutex
	reg    sw.Registration
	state  State
	denied bool
}

func NewManager(registry sw.Registry, perm sw.PermissionProvider, store Store, cfg Config, logger zerolog.Logger) *Manager {
	if cfg.ServiceWorkerPath == "" {
		cfg.ServiceWorkerPath = "/service-worker.js"
	}
	return &Manager{
		registry: registry,
		perm:     perm,
		store:    store,
		cfg:      cfg,
		logger:   logger.With().Str("component", "subscription_manager").Logger(),
		state:    StateUninitialized,
	}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Initialize registers the worker script at the configured path. It is
// idempotent: the registration is cached and concurrent callers share a
// single in-flight registration.
func (m *Manager) Initialize(ctx context.Context) (sw.Registration, error) {
	m.mu.Lock()
	if m.reg != nil {
		reg := m.reg
		m.mu.Unlock()
		return reg, nil
	}
	m.mu.Unlock()

	v, err, _ := m.flight.Do("register", func() (interface{}, error) {
		if !m.registry.Supported() {
			return nil, errors.Wrap(sw.ErrUnsupported, "initialize")
		}
		reg, err := m.registry.Register(ctx, m.cfg.ServiceWorkerPath)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.reg = reg
		if m.state == StateUninitialized {
			m.state = StateRegistered
		}
		m.mu.Unlock()
		m.logger.Info().Str("script", m.cfg.ServiceWorkerPath).Msg("service worker ready")
		return reg, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(sw.Registration), nil
}

// EnsurePermission resolves notification permission. A denial is remembered
// and short-circuits later calls without re-prompting.
func (m *Manager) EnsurePermission(ctx context.Context) error {
	m.mu.Lock()
	if m.denied {
		m.mu.Unlock()
		return ErrPermissionDenied
	}
	m.mu.Unlock()

	if m.perm.Current() == sw.PermissionGranted {
		m.setState(StatePermissionGranted)
		return nil
	}

	m.setState(StatePermissionPending)
	p, err := m.perm.Request(ctx)
	if err != nil {
		return errors.Wrap(err, "request notification permission")
	}
	if p != sw.PermissionGranted {
		m.mu.Lock()
		m.denied = true
		m.state = StatePermissionDenied
		m.mu.Unlock()
		return ErrPermissionDenied
	}
	m.setState(StatePermissionGranted)
	return nil
}

// Subscribe establishes the push subscription and persists it. An existing
// browser-level subscription is reused rather than duplicated. When only
// persistence fails, the subscription is returned together with an error
// matching api.ErrPersistFailed so the POST can be retried on its own.
func (m *Manager) Subscribe(ctx context.Context) (*models.Subscription, error) {
	key := strings.TrimSpace(m.cfg.VAPIDPublicKey)
	if key == "" {
		return nil, ErrMissingVAPIDKey
	}
	serverKey, err := vapid.Decode(key)
	if err != nil {
		return nil, err
	}

	reg, err := m.Initialize(ctx)
	if err != nil {
		return nil, err
	}
	if err := m.EnsurePermission(ctx); err != nil {
		return nil, err
	}

	pm := reg.PushManager()
	sub, err := pm.GetSubscription(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "check existing push subscription")
	}
	if sub != nil {
		m.logger.Debug().Str("endpoint", sub.Endpoint).Msg("reusing existing push subscription")
	} else {
		sub, err = pm.Subscribe(ctx, sw.SubscribeOptions{
			UserVisibleOnly:      true,
			ApplicationServerKey: serverKey,
		})
		if err != nil {
			return nil, errors.Wrap(err, "create push subscription")
		}
		m.logger.Info().Str("endpoint", sub.Endpoint).Msg("push subscription created")
	}

	if err := m.store.SaveSubscription(ctx, *sub); err != nil {
		m.logger.Warn().Err(err).Msg("subscription not persisted; browser subscription remains valid")
		return sub, err
	}

	m.setState(StateSubscribed)
	return sub, nil
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}
