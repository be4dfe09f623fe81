package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hestiafix/notifysync/internal/api"
	"github.com/hestiafix/notifysync/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBooking_BothShapes(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/bookings/bk-1", r.URL.Path)
		calls++
		w.Header().Set("Content-Type", "application/json")
		if calls == 1 {
			w.Write([]byte(`{"id": "bk-1", "status": "pending", "worker": null}`))
			return
		}
		w.Write([]byte(`{"booking": {"id": "bk-1", "status": "assigned", "worker": {"id": "w-1", "name": "Sam", "phone": ""}}}`))
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, zerolog.Nop())
	ctx := context.Background()

	snap, err := client.GetBooking(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, snap.Status)
	assert.Nil(t, snap.Worker)

	snap, err = client.GetBooking(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusAssigned, snap.Status)
	require.NotNil(t, snap.Worker)
	assert.Equal(t, "Sam", snap.Worker.Name)
}

func TestGetBooking_UnknownShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result": {"id": "bk-1", "status": "pending"}}`))
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, zerolog.Nop())
	_, err := client.GetBooking(context.Background(), "bk-1")
	assert.ErrorIs(t, err, models.ErrUnknownShape)
}

func TestGetBooking_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, zerolog.Nop())
	_, err := client.GetBooking(context.Background(), "bk-1")
	assert.Error(t, err)
}

func TestSaveSubscription_PostsPushSubscriptionJSON(t *testing.T) {
	var received map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/save-subscription", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, zerolog.Nop())
	err := client.SaveSubscription(context.Background(), models.Subscription{
		Endpoint: "https://push.example.com/send/abc",
		Keys:     models.SubscriptionKeys{P256dh: "p", Auth: "a"},
	})
	require.NoError(t, err)

	assert.Equal(t, "https://push.example.com/send/abc", received["endpoint"])
	keys, ok := received["keys"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "p", keys["p256dh"])
	assert.Equal(t, "a", keys["auth"])
}

func TestSaveSubscription_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, zerolog.Nop())
	err := client.SaveSubscription(context.Background(), models.Subscription{Endpoint: "e"})
	assert.ErrorIs(t, err, api.ErrPersistFailed)
}

func TestSaveSubscription_NetworkErrorIsPersistError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := api.NewClient(srv.URL, zerolog.Nop())
	err := client.SaveSubscription(context.Background(), models.Subscription{Endpoint: "e"})
	assert.ErrorIs(t, err, api.ErrPersistFailed)
}
