package supervisor

import (
	"context"
	"fmt"
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/vburojevic/mcrevive/internal/domain"
)

// DefaultIdleWindow is the window name tmux gives a session whose only
// process is the login shell.
const DefaultIdleWindow = "bash"

// Detector finds sessions that lost their worker and records them in the
// missing-session log.
type Detector struct {
	sessions   SessionLister
	log        MissingLog
	excluded   domain.ExclusionSet
	idleWindow string
	logger     *zap.Logger
}

// DetectorConfig configures a Detector
type DetectorConfig struct {
	Excluded   domain.ExclusionSet
	IdleWindow string // Default: bash
	Logger     *zap.Logger
}

// NewDetector creates a detector
func NewDetector(sessions SessionLister, log MissingLog, cfg DetectorConfig) *Detector {
	if cfg.IdleWindow == "" {
		cfg.IdleWindow = DefaultIdleWindow
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Detector{
		sessions:   sessions,
		log:        log,
		excluded:   cfg.Excluded,
		idleWindow: cfg.IdleWindow,
		logger:     cfg.Logger,
	}
}

// Detect returns the sessions that are newly missing their worker, sorted by
// name. They are written to the log before Detect returns, so a crash before
// the restart does not lose them.
func (d *Detector) Detect(ctx context.Context) ([]string, error) {
	sessions, err := d.sessions.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	logged, err := d.log.Load()
	if err != nil {
		return nil, err
	}

	names := lo.Keys(sessions)
	sort.Strings(names)

	var missing []string
	for _, name := range names {
		if d.excluded.Contains(name) {
			d.logger.Debug("skipping excluded session", zap.String("session", name))
			continue
		}
		session := domain.Session{Name: name, Windows: sessions[name]}
		if !session.HasWindow(d.idleWindow) || lo.Contains(logged, name) {
			continue
		}
		d.logger.Info("session is missing its worker", zap.String("session", name))
		missing = append(missing, name)
	}
	if len(missing) == 0 {
		return nil, nil
	}

	if _, err := d.log.AppendIfAbsent(missing...); err != nil {
		return nil, fmt.Errorf("record missing sessions: %w", err)
	}
	return missing, nil
}
