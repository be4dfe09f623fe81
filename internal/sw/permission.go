package sw

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// LocalPermission models the notification permission prompt: the state
// starts at default, the first Request resolves it to a configured answer
// and every later Request returns the settled state without re-prompting.
type LocalPermission struct {
	logger zerolog.Logger

	mu      sync.Mutex
	state   Permission
	answer  Permission
	prompts int
}

func NewLocalPermission(answer Permission, logger zerolog.Logger) *LocalPermission {
	if answer != PermissionGranted && answer != PermissionDenied {
		answer = PermissionGranted
	}
	return &LocalPermission{
		logger: logger.With().Str("component", "permission").Logger(),
		state:  PermissionDefault,
		answer: answer,
	}
}

func (p *LocalPermission) Current() Permission {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *LocalPermission) Request(ctx context.Context) (Permission, error) {
	if err := ctx.Err(); err != nil {
		return PermissionDefault, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != PermissionDefault {
		return p.state, nil
	}
	p.prompts++
	p.state = p.answer
	p.logger.Info().Str("result", string(p.state)).Msg("notification permission resolved")
	return p.state, nil
}

// Prompts reports how many times the user was actually prompted.
func (p *LocalPermission) Prompts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prompts
}
