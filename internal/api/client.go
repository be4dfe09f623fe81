// Package api is the REST client for the booking backend: the booking
// snapshot fetch the poller runs on, and the subscription persistence call.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hestiafix/notifysync/internal/models"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ErrPersistFailed means the backend did not record the subscription. The
// browser-side subscription is still valid; callers may retry persistence
// without re-subscribing.
var ErrPersistFailed = errors.New("api: failed to persist subscription")

const (
	defaultTimeout = 10 * time.Second
	maxBodySize    = 1 << 20
)

type Client struct {
	baseURL string
	httpc   *http.Client
	logger  zerolog.Logger
}

func NewClient(baseURL string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: defaultTimeout},
		logger:  logger.With().Str("component", "api_client").Logger(),
	}
}

// GetBooking fetches one booking snapshot. The backend serves two payload
// shapes; both are normalized, anything else is rejected loudly.
func (c *Client) GetBooking(ctx context.Context, bookingID string) (models.BookingSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/bookings/"+bookingID, nil)
	if err != nil {
		return models.BookingSnapshot{}, errors.Wrap(err, "build booking request")
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return models.BookingSnapshot{}, errors.Wrapf(err, "fetch booking %s", bookingID)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return models.BookingSnapshot{}, errors.Wrapf(err, "read booking %s response", bookingID)
	}
	if resp.StatusCode != http.StatusOK {
		return models.BookingSnapshot{}, errors.Errorf("fetch booking %s: unexpected status %d", bookingID, resp.StatusCode)
	}
	return models.NormalizeBookingPayload(body)
}

// SaveSubscription POSTs the subscription in PushSubscriptionJSON shape.
// Any failure maps to ErrPersistFailed so callers can tell this apart from
// a failed browser-level subscribe.
func (c *Client) SaveSubscription(ctx context.Context, sub models.Subscription) error {
	payload, err := json.Marshal(sub.ToWebPush())
	if err != nil {
		return errors.Wrap(err, "marshal subscription")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/save-subscription", bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "build save-subscription request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrapf(ErrPersistFailed, "post: %v", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Wrapf(ErrPersistFailed, "unexpected status %d", resp.StatusCode)
	}
	c.logger.Debug().Str("endpoint", sub.Endpoint).Msg("subscription persisted")
	return nil
}
