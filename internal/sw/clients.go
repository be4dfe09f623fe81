package sw

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// LocalWindowClients tracks open windows for the click router. The agent
// seeds it with the windows it considers open; tests drive it directly.
type LocalWindowClients struct {
	logger zerolog.Logger

	mu      sync.Mutex
	windows []*LocalWindowClient
}

func NewLocalWindowClients(logger zerolog.Logger) *LocalWindowClients {
	return &LocalWindowClients{
		logger: logger.With().Str("component", "window_clients").Logger(),
	}
}

func (c *LocalWindowClients) List(ctx context.Context) ([]WindowClient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]WindowClient, len(c.windows))
	for i, w := range c.windows {
		out[i] = w
	}
	return out, nil
}

func (c *LocalWindowClients) OpenWindow(ctx context.Context, url string) (WindowClient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w := &LocalWindowClient{url: url}
	c.mu.Lock()
	c.windows = append(c.windows, w)
	c.mu.Unlock()
	c.logger.Info().Str("url", url).Msg("window opened")
	return w, nil
}

type LocalWindowClient struct {
	mu      sync.Mutex
	url     string
	focused int
}

func (w *LocalWindowClient) URL() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.url
}

func (w *LocalWindowClient) Focus(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	w.focused++
	w.mu.Unlock()
	return nil
}

// FocusCount reports how many times the window was focused.
func (w *LocalWindowClient) FocusCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focused
}
