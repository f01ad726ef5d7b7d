package supervisor

import (
	"context"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/vburojevic/mcrevive/internal/domain"
)

// DefaultInterval is the time between two detection cycles.
const DefaultInterval = 30 * time.Minute

// Loop ties detection, restart and reporting together.
type Loop struct {
	detector       *Detector
	orchestrator   *Orchestrator
	reporter       Reporter
	log            MissingLog
	interval       time.Duration
	recoverOnStart bool
	clock          clock.Clock
	logger         *zap.Logger
}

// LoopConfig configures a Loop
type LoopConfig struct {
	Interval       time.Duration // Default: 30m
	RecoverOnStart bool
	Clock          clock.Clock
	Logger         *zap.Logger
}

// NewLoop creates a loop. log is consulted only by the recovery pass.
func NewLoop(detector *Detector, orchestrator *Orchestrator, reporter Reporter, log MissingLog, cfg LoopConfig) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Loop{
		detector:       detector,
		orchestrator:   orchestrator,
		reporter:       reporter,
		log:            log,
		interval:       cfg.Interval,
		recoverOnStart: cfg.RecoverOnStart,
		clock:          cfg.Clock,
		logger:         cfg.Logger,
	}
}

// Run cycles until ctx is cancelled. Cancellation is observed between cycles
// and while waiting for the next one, never in the middle of a restart pass.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("supervisor started", zap.Duration("interval", l.interval))

	if l.recoverOnStart {
		l.Recover(ctx)
	}

	for {
		if ctx.Err() != nil {
			l.logger.Info("supervisor stopped")
			return nil
		}

		l.RunCycle(ctx)

		l.logger.Debug("sleeping before next check", zap.Duration("interval", l.interval))
		select {
		case <-ctx.Done():
			l.logger.Info("supervisor stopped")
			return nil
		case <-l.clock.After(l.interval):
		}
	}
}

// RunCycle performs one detection and, if anything new went missing, one
// restart pass followed by a report. It returns the batch that was restarted.
func (l *Loop) RunCycle(ctx context.Context) domain.RestartReport {
	l.logger.Debug("starting session check")

	missing, err := l.detector.Detect(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrCollaboratorUnavailable) {
			l.logger.Warn("tmux unavailable, skipping cycle", zap.Error(err))
		} else {
			l.logger.Error("detection failed, skipping cycle", zap.Error(err))
		}
		return domain.NewRestartReport(nil)
	}
	if len(missing) == 0 {
		return domain.NewRestartReport(nil)
	}

	return l.restartAndReport(ctx)
}

// Recover restarts whatever an earlier run left in the log.
func (l *Loop) Recover(ctx context.Context) domain.RestartReport {
	pending, err := l.log.Load()
	if err != nil {
		l.logger.Error("cannot read missing session log", zap.Error(err))
		return domain.NewRestartReport(nil)
	}
	if len(pending) == 0 {
		return domain.NewRestartReport(nil)
	}
	l.logger.Info("recovering sessions left by a previous run", zap.Strings("sessions", pending))
	return l.restartAndReport(ctx)
}

func (l *Loop) restartAndReport(ctx context.Context) domain.RestartReport {
	report, err := l.orchestrator.RestartAll(ctx)
	if err != nil {
		l.logger.Error("restart pass failed", zap.Error(err))
		return domain.NewRestartReport(nil)
	}
	if report.Empty() {
		l.logger.Info("no sessions restarted, skipping report")
		return report
	}

	if err := l.reporter.Send(ctx, report); err != nil {
		l.logger.Warn("restart report dropped", zap.Int("count", report.Count), zap.Error(err))
		return report
	}
	l.logger.Info("restart report sent", zap.Int("count", report.Count), zap.Strings("sessions", report.Names))
	return report
}
