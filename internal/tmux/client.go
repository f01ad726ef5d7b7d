// Package tmux exposes the two tmux capabilities the supervisor needs: listing
// sessions with their window names, and typing a command into a session.
package tmux

import (
	"fmt"
	"sync"

	"github.com/GianlucaP106/gotmux/gotmux"

	"github.com/vburojevic/mcrevive/internal/domain"
)

// backend is the slice of tmux used by Inspector and Launcher.
type backend interface {
	Sessions() ([]domain.Session, error)
	Command(args ...string) (string, error)
}

// Client talks to the local tmux server through gotmux. The gotmux handle is
// created lazily so a missing tmux binary is reported per call instead of at
// startup.
type Client struct {
	mu   sync.Mutex
	tmux *gotmux.Tmux
}

// NewClient creates a client for the default tmux socket
func NewClient() *Client {
	return &Client{}
}

func (c *Client) handle() (*gotmux.Tmux, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tmux != nil {
		return c.tmux, nil
	}
	t, err := gotmux.DefaultTmux()
	if err != nil {
		return nil, fmt.Errorf("%w: tmux: %v", domain.ErrCollaboratorUnavailable, err)
	}
	c.tmux = t
	return t, nil
}

// Sessions lists every session with its window names.
func (c *Client) Sessions() ([]domain.Session, error) {
	t, err := c.handle()
	if err != nil {
		return nil, err
	}

	sessions, err := t.ListSessions()
	if err != nil {
		return nil, fmt.Errorf("%w: list sessions: %v", domain.ErrCollaboratorUnavailable, err)
	}

	out := make([]domain.Session, 0, len(sessions))
	for _, s := range sessions {
		windows, err := s.ListWindows()
		if err != nil {
			return nil, fmt.Errorf("%w: list windows of %s: %v", domain.ErrCollaboratorUnavailable, s.Name, err)
		}
		names := make([]string, 0, len(windows))
		for _, w := range windows {
			names = append(names, w.Name)
		}
		out = append(out, domain.Session{Name: s.Name, Windows: names})
	}
	return out, nil
}

// Command runs a raw tmux command.
func (c *Client) Command(args ...string) (string, error) {
	t, err := c.handle()
	if err != nil {
		return "", err
	}
	out, err := t.Command(args...)
	if err != nil {
		return out, fmt.Errorf("%w: tmux %s: %v", domain.ErrCollaboratorUnavailable, args[0], err)
	}
	return out, nil
}
