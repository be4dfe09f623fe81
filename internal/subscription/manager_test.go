package subscription_test

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"

	"github.com/hestiafix/notifysync/internal/api"
	"github.com/hestiafix/notifysync/internal/models"
	"github.com/hestiafix/notifysync/internal/subscription"
	"github.com/hestiafix/notifysync/internal/sw"
	"github.com/hestiafix/notifysync/internal/vapid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVAPIDKey() string {
	raw := make([]byte, 65)
	raw[0] = 0x04
	for i := 1; i < len(raw); i++ {
		raw[i] = byte(i)
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

type fakePushManager struct {
	mu         sync.Mutex
	sub        *models.Subscription
	subscribes int
}

func (f *fakePushManager) GetSubscription(ctx context.Context) (*models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sub, nil
}

func (f *fakePushManager) Subscribe(ctx context.Context, opts sw.SubscribeOptions) (*models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribes++
	if !opts.UserVisibleOnly {
		panic("subscribe must be user visible only")
	}
	f.sub = &models.Subscription{
		Endpoint: "https://push.example.com/send/fixed",
		Keys:     models.SubscriptionKeys{P256dh: "p", Auth: "a"},
	}
	return f.sub, nil
}

type fakeRegistration struct {
	pm *fakePushManager
}

func (f *fakeRegistration) ShowNotification(ctx context.Context, req models.NotificationRequest) error {
	return nil
}
func (f *fakeRegistration) PushManager() sw.PushManager { return f.pm }

func (f *fakeRegistration) OnNotificationClick(sw.ClickHandler) func() { return func() {} }

type fakeRegistry struct {
	mu          sync.Mutex
	unsupported bool
	registers   int
	reg         *fakeRegistration
}

func (f *fakeRegistry) Supported() bool { return !f.unsupported }

func (f *fakeRegistry) Register(ctx context.Context, scriptPath string) (sw.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registers++
	if f.reg == nil {
		f.reg = &fakeRegistration{pm: &fakePushManager{}}
	}
	return f.reg, nil
}

type fakePermission struct {
	answer   sw.Permission
	state    sw.Permission
	requests int
}

func (f *fakePermission) Current() sw.Permission {
	if f.state == "" {
		return sw.PermissionDefault
	}
	return f.state
}

func (f *fakePermission) Request(ctx context.Context) (sw.Permission, error) {
	if f.state != "" && f.state != sw.PermissionDefault {
		return f.state, nil
	}
	f.requests++
	f.state = f.answer
	return f.state, nil
}

type fakeStore struct {
	mu    sync.Mutex
	saves int
	err   error
	last  models.Subscription
}

func (f *fakeStore) SaveSubscription(ctx context.Context, sub models.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	f.last = sub
	return f.err
}

func newManager(registry *fakeRegistry, perm *fakePermission, store *fakeStore, key string) *subscription.Manager {
	return subscription.NewManager(registry, perm, store, subscription.Config{
		VAPIDPublicKey:    key,
		ServiceWorkerPath: "/service-worker.js",
	}, zerolog.Nop())
}

func TestInitialize_Idempotent(t *testing.T) {
	registry := &fakeRegistry{}
	m := newManager(registry, &fakePermission{answer: sw.PermissionGranted}, &fakeStore{}, testVAPIDKey())
	ctx := context.Background()

	first, err := m.Initialize(ctx)
	require.NoError(t, err)
	second, err := m.Initialize(ctx)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, registry.registers)
	assert.Equal(t, subscription.StateRegistered, m.State())
}

func TestInitialize_Unsupported(t *testing.T) {
	m := newManager(&fakeRegistry{unsupported: true}, &fakePermission{answer: sw.PermissionGranted}, &fakeStore{}, testVAPIDKey())

	_, err := m.Initialize(context.Background())
	assert.ErrorIs(t, err, sw.ErrUnsupported)
	assert.Equal(t, subscription.StateUninitialized, m.State())
}

func TestSubscribe_IdempotentAndPersistsPerCall(t *testing.T) {
	registry := &fakeRegistry{}
	store := &fakeStore{}
	m := newManager(registry, &fakePermission{answer: sw.PermissionGranted}, store, testVAPIDKey())
	ctx := context.Background()

	first, err := m.Subscribe(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, subscription.StateSubscribed, m.State())

	second, err := m.Subscribe(ctx)
	require.NoError(t, err)

	// Same browser-level subscription, no duplicate subscribe call, but one
	// persistence POST per Subscribe call.
	assert.Equal(t, first.Endpoint, second.Endpoint)
	assert.Equal(t, 1, registry.reg.pm.subscribes)
	assert.Equal(t, 2, store.saves)
	assert.Equal(t, first.Endpoint, store.last.Endpoint)
}

func TestSubscribe_MissingKeyIsHardStop(t *testing.T) {
	registry := &fakeRegistry{}
	m := newManager(registry, &fakePermission{answer: sw.PermissionGranted}, &fakeStore{}, "")

	_, err := m.Subscribe(context.Background())
	assert.ErrorIs(t, err, subscription.ErrMissingVAPIDKey)
	assert.Equal(t, 0, registry.registers)
}

func TestSubscribe_InvalidKeyFailsBeforeNetwork(t *testing.T) {
	registry := &fakeRegistry{}
	store := &fakeStore{}
	m := newManager(registry, &fakePermission{answer: sw.PermissionGranted}, store, "not!!a!!key")

	_, err := m.Subscribe(context.Background())
	assert.ErrorIs(t, err, vapid.ErrInvalidKey)
	assert.Equal(t, 0, registry.registers)
	assert.Equal(t, 0, store.saves)
}

func TestSubscribe_PermissionDeniedIsTerminal(t *testing.T) {
	perm := &fakePermission{answer: sw.PermissionDenied}
	store := &fakeStore{}
	m := newManager(&fakeRegistry{}, perm, store, testVAPIDKey())
	ctx := context.Background()

	_, err := m.Subscribe(ctx)
	assert.ErrorIs(t, err, subscription.ErrPermissionDenied)
	assert.Equal(t, subscription.StatePermissionDenied, m.State())
	assert.Equal(t, 1, perm.requests)

	// No re-prompt on a later attempt; the denial is cached.
	_, err = m.Subscribe(ctx)
	assert.ErrorIs(t, err, subscription.ErrPermissionDenied)
	assert.Equal(t, 1, perm.requests)
	assert.Equal(t, 0, store.saves)
}

func TestSubscribe_PersistFailureKeepsSubscription(t *testing.T) {
	registry := &fakeRegistry{}
	store := &fakeStore{err: api.ErrPersistFailed}
	m := newManager(registry, &fakePermission{answer: sw.PermissionGranted}, store, testVAPIDKey())
	ctx := context.Background()

	sub, err := m.Subscribe(ctx)
	require.ErrorIs(t, err, api.ErrPersistFailed)
	// The browser-level subscription is established even though the server
	// record is missing.
	require.NotNil(t, sub)
	assert.NotEqual(t, subscription.StateSubscribed, m.State())

	// Retrying persists without creating a second subscription.
	store.mu.Lock()
	store.err = nil
	store.mu.Unlock()
	retried, err := m.Subscribe(ctx)
	require.NoError(t, err)
	assert.Equal(t, sub.Endpoint, retried.Endpoint)
	assert.Equal(t, 1, registry.reg.pm.subscribes)
	assert.Equal(t, subscription.StateSubscribed, m.State())
}
