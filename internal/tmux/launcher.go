package tmux

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// Launcher starts a worker by typing its command into an existing session,
// the same way an operator would. It does not wait for the worker to come up.
type Launcher struct {
	backend backend
	logger  *zap.Logger
}

// NewLauncher creates a launcher over a tmux client
func NewLauncher(c *Client, logger *zap.Logger) *Launcher {
	return newLauncher(c, logger)
}

func newLauncher(b backend, logger *zap.Logger) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{backend: b, logger: logger}
}

// Launch sends command followed by Enter to session.
func (l *Launcher) Launch(ctx context.Context, session, command string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	session = strings.TrimSpace(session)
	if session == "" {
		return errors.New("session name is required")
	}
	if strings.TrimSpace(command) == "" {
		return errors.New("launch command is required")
	}

	if _, err := l.backend.Command("send-keys", "-t", target(session), command, "C-m"); err != nil {
		return err
	}
	l.logger.Debug("sent launch command", zap.String("session", session), zap.String("command", command))
	return nil
}

// target addresses the active pane of the session by exact name so that
// "mc-1" never resolves to "mc-10".
func target(session string) string {
	return "=" + session + ":"
}
