package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/hestiafix/notifysync/internal/bookingstub"
	"github.com/hestiafix/notifysync/internal/models"
	"github.com/rs/zerolog"
)

type SubscriptionHandler struct {
	store  bookingstub.Store
	logger zerolog.Logger
}

func NewSubscriptionHandler(store bookingstub.Store, logger zerolog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		store:  store,
		logger: logger.With().Str("handler", "subscription").Logger(),
	}
}

// Save accepts a PushSubscriptionJSON body. Re-posting a known endpoint is
// idempotent and still succeeds.
func (h *SubscriptionHandler) Save(w http.ResponseWriter, r *http.Request) {
	var body webpush.Subscription
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.Endpoint) == "" || body.Keys.P256dh == "" || body.Keys.Auth == "" {
		http.Error(w, "Subscription endpoint and keys are required", http.StatusBadRequest)
		return
	}

	created := h.store.SaveSubscription(models.SubscriptionFromWebPush(&body))
	status := http.StatusOK
	if created {
		status = http.StatusCreated
		h.logger.Info().Str("endpoint", body.Endpoint).Msg("subscription stored")
	}
	writeJSON(w, status, map[string]string{"status": "saved"})
}
