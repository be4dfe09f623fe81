package sw

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"sync"

	"github.com/google/uuid"
	"github.com/hestiafix/notifysync/internal/models"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const defaultPushEndpoint = "https://push.hestiafix.local/send"

// LocalRegistryConfig tunes the in-process service-worker bridge.
type LocalRegistryConfig struct {
	// PushEndpoint is the base URL minted into emulated subscription
	// endpoints. Defaults to a local placeholder.
	PushEndpoint string
	// Unsupported makes the registry behave like a runtime without push
	// messaging, for exercising the degraded paths.
	Unsupported bool
}

// LocalRegistry is the in-process implementation of Registry used by the
// agent and by tests: one registration per process, a tag-replacing
// notification center and an emulated push manager.
type LocalRegistry struct {
	cfg    LocalRegistryConfig
	logger zerolog.Logger

	mu  sync.Mutex
	reg *LocalRegistration
}

func NewLocalRegistry(cfg LocalRegistryConfig, logger zerolog.Logger) *LocalRegistry {
	if cfg.PushEndpoint == "" {
		cfg.PushEndpoint = defaultPushEndpoint
	}
	return &LocalRegistry{
		cfg:    cfg,
		logger: logger.With().Str("component", "sw_registry").Logger(),
	}
}

func (r *LocalRegistry) Supported() bool {
	return !r.cfg.Unsupported
}

func (r *LocalRegistry) Register(ctx context.Context, scriptPath string) (Registration, error) {
	if !r.Supported() {
		return nil, errors.Wrap(ErrUnsupported, "register")
	}
	if scriptPath == "" {
		return nil, errors.Wrap(ErrRegistrationFailed, "empty worker script path")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reg != nil {
		return r.reg, nil
	}
	r.reg = &LocalRegistration{
		script:       scriptPath,
		pushEndpoint: r.cfg.PushEndpoint,
		logger:       r.logger,
		visible:      make(map[string]models.NotificationRequest),
		handlers:     make(map[int]ClickHandler),
	}
	r.logger.Info().Str("script", scriptPath).Msg("service worker registered")
	return r.reg, nil
}

// Registration returns the registration created by Register, if any. It is a
// concrete accessor for callers that need the simulation-only surface.
func (r *LocalRegistry) Registration() (*LocalRegistration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reg, r.reg != nil
}

type LocalRegistration struct {
	script       string
	pushEndpoint string
	logger       zerolog.Logger

	mu            sync.Mutex
	visible       map[string]models.NotificationRequest
	sub           *models.Subscription
	handlers      map[int]ClickHandler
	nextHandlerID int
}

func (g *LocalRegistration) ShowNotification(ctx context.Context, req models.NotificationRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if req.Title == "" {
		return errors.New("sw: notification title is required")
	}
	key := req.Tag
	if key == "" {
		// Untagged notifications stack instead of replacing.
		key = uuid.NewString()
	}
	g.mu.Lock()
	_, replaced := g.visible[key]
	g.visible[key] = req
	g.mu.Unlock()

	g.logger.Info().
		Str("tag", req.Tag).
		Str("title", req.Title).
		Bool("replaced", replaced).
		Msg("notification shown")
	return nil
}

func (g *LocalRegistration) PushManager() PushManager { return g }

func (g *LocalRegistration) OnNotificationClick(h ClickHandler) func() {
	g.mu.Lock()
	id := g.nextHandlerID
	g.nextHandlerID++
	g.handlers[id] = h
	g.mu.Unlock()
	return func() {
		g.mu.Lock()
		delete(g.handlers, id)
		g.mu.Unlock()
	}
}

func (g *LocalRegistration) GetSubscription(ctx context.Context) (*models.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sub, nil
}

func (g *LocalRegistration) Subscribe(ctx context.Context, opts SubscribeOptions) (*models.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !opts.UserVisibleOnly {
		return nil, errors.New("sw: only user-visible subscriptions are allowed")
	}
	if len(opts.ApplicationServerKey) == 0 {
		return nil, errors.New("sw: application server key is required")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sub != nil {
		return g.sub, nil
	}

	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "generate subscription key pair")
	}
	auth := make([]byte, 16)
	if _, err := rand.Read(auth); err != nil {
		return nil, errors.Wrap(err, "generate auth secret")
	}

	g.sub = &models.Subscription{
		Endpoint: g.pushEndpoint + "/" + uuid.NewString(),
		Keys: models.SubscriptionKeys{
			P256dh: base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
			Auth:   base64.RawURLEncoding.EncodeToString(auth),
		},
	}
	g.logger.Info().Str("endpoint", g.sub.Endpoint).Msg("push subscription created")
	return g.sub, nil
}

// Visible returns the currently displayed notifications, one per tag.
func (g *LocalRegistration) Visible() []models.NotificationRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]models.NotificationRequest, 0, len(g.visible))
	for _, n := range g.visible {
		out = append(out, n)
	}
	return out
}

// Click simulates a user activating the notification with the given tag.
// It reports false when no such notification is visible.
func (g *LocalRegistration) Click(tag, action string) bool {
	g.mu.Lock()
	req, ok := g.visible[tag]
	if !ok {
		g.mu.Unlock()
		return false
	}
	handlers := make([]ClickHandler, 0, len(g.handlers))
	for _, h := range g.handlers {
		handlers = append(handlers, h)
	}
	g.mu.Unlock()

	evt := ClickEvent{
		Action:       action,
		Notification: req,
		close: func() {
			g.mu.Lock()
			delete(g.visible, tag)
			g.mu.Unlock()
		},
	}
	for _, h := range handlers {
		h(evt)
	}
	return true
}
