package tmux

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

// Inspector reports the window names of every tmux session.
type Inspector struct {
	backend backend
	logger  *zap.Logger
}

// NewInspector creates an inspector over a tmux client
func NewInspector(c *Client, logger *zap.Logger) *Inspector {
	return newInspector(c, logger)
}

func newInspector(b backend, logger *zap.Logger) *Inspector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inspector{backend: b, logger: logger}
}

// ListSessions maps session name to its window names. The error wraps
// domain.ErrCollaboratorUnavailable when tmux cannot be queried.
func (i *Inspector) ListSessions(ctx context.Context) (map[string][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sessions, err := i.backend.Sessions()
	if err != nil {
		return nil, err
	}

	out := make(map[string][]string, len(sessions))
	for _, s := range sessions {
		windows := append([]string(nil), s.Windows...)
		sort.Strings(windows)
		out[s.Name] = windows
		i.logger.Debug("found session", zap.String("session", s.Name), zap.Strings("windows", windows))
	}
	if len(out) == 0 {
		i.logger.Debug("no tmux sessions found")
	}
	return out, nil
}
