// Package supervisor finds tmux sessions whose worker has died, restarts them
// one at a time and reports each batch of restarts.
package supervisor

import (
	"context"

	"github.com/vburojevic/mcrevive/internal/domain"
)

// SessionLister lists sessions with their window names.
type SessionLister interface {
	ListSessions(ctx context.Context) (map[string][]string, error)
}

// Launcher starts the worker command inside a session. It returns once the
// command has been issued, not once the worker is up.
type Launcher interface {
	Launch(ctx context.Context, session, command string) error
}

// MissingLog is the persisted set of sessions waiting for a restart.
type MissingLog interface {
	Load() ([]string, error)
	AppendIfAbsent(names ...string) ([]string, error)
	Remove(name string) error
}

// Reporter delivers a restart report.
type Reporter interface {
	Send(ctx context.Context, report domain.RestartReport) error
}
