package supervisor

import (
	"context"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/vburojevic/mcrevive/internal/domain"
)

// DefaultCooldown is the pause between two consecutive restarts.
const DefaultCooldown = 10 * time.Minute

// Orchestrator drains the missing-session log, restarting one session at a
// time with a cooldown between launches.
type Orchestrator struct {
	log      MissingLog
	launcher Launcher
	command  *CommandTemplate
	excluded domain.ExclusionSet
	cooldown time.Duration
	clock    clock.Clock
	logger   *zap.Logger
}

// OrchestratorConfig configures an Orchestrator
type OrchestratorConfig struct {
	Command  *CommandTemplate
	Excluded domain.ExclusionSet
	Cooldown time.Duration // Default: 10m; negative disables pacing
	Clock    clock.Clock
	Logger   *zap.Logger
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(log MissingLog, launcher Launcher, cfg OrchestratorConfig) (*Orchestrator, error) {
	if cfg.Command == nil {
		return nil, errors.New("launch command template is required")
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Orchestrator{
		log:      log,
		launcher: launcher,
		command:  cfg.Command,
		excluded: cfg.Excluded,
		cooldown: cfg.Cooldown,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
	}, nil
}

// RestartAll restarts every logged session in log order and returns the batch
// of sessions it managed to launch. A session whose launch could not be issued
// stays in the log for the next pass. A started pass always runs to the end;
// the cooldown sleep is not interrupted by ctx.
func (o *Orchestrator) RestartAll(ctx context.Context) (domain.RestartReport, error) {
	pending, err := o.log.Load()
	if err != nil {
		return domain.RestartReport{}, err
	}
	if len(pending) == 0 {
		o.logger.Debug("no sessions pending restart")
		return domain.NewRestartReport(nil), nil
	}

	var restarted []string
	paced := false
	for _, session := range pending {
		if o.excluded.Contains(session) {
			o.logger.Debug("skipping excluded session", zap.String("session", session))
			continue
		}

		if paced && o.cooldown > 0 {
			o.logger.Debug("cooling down before next restart", zap.Duration("cooldown", o.cooldown))
			o.clock.Sleep(o.cooldown)
		}
		paced = false

		if !o.restart(context.WithoutCancel(ctx), session) {
			continue
		}
		restarted = append(restarted, session)
		paced = true

		if err := o.log.Remove(session); err != nil {
			// still in the log, so the next pass launches it again
			o.logger.Error("failed to remove restarted session from log, session will be relaunched",
				zap.String("session", session), zap.Error(err))
		}
	}

	return domain.NewRestartReport(restarted), nil
}

func (o *Orchestrator) restart(ctx context.Context, session string) bool {
	command, err := o.command.Render(session)
	if err != nil {
		o.logger.Error("cannot build launch command", zap.String("session", session), zap.Error(err))
		return false
	}

	o.logger.Info("restarting session", zap.String("session", session))
	if err := o.launcher.Launch(ctx, session, command); err != nil {
		o.logger.Warn("launch failed, keeping session for next pass", zap.String("session", session), zap.Error(err))
		return false
	}
	return true
}
