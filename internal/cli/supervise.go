package cli

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vburojevic/mcrevive/internal/domain"
	"github.com/vburojevic/mcrevive/internal/missinglog"
	"github.com/vburojevic/mcrevive/internal/protocol"
	"github.com/vburojevic/mcrevive/internal/supervisor"
	"github.com/vburojevic/mcrevive/internal/tmux"
)

// SuperviseCmd runs the detect/restart/report loop
type SuperviseCmd struct {
	Interval      time.Duration `help:"Time between detection cycles (default from config: 30m)"`
	Cooldown      time.Duration `help:"Pause between consecutive launches (default from config: 10m)"`
	LogFile       string        `name:"log-file" default:"${config_log_file}" help:"Missing-session log file"`
	ReportAddress string        `name:"report-address" default:"${config_report_address}" help:"Report server host:port"`
	Exclude       []string      `help:"Session names never restarted (adds to config)"`
	Once          bool          `help:"Run a single cycle and exit"`
	NoRecover     bool          `name:"no-recover" help:"Skip restarting sessions already in the log at startup"`
}

// Run executes the supervise command
func (c *SuperviseCmd) Run(globals *Globals) error {
	cfg := globals.Config.Supervisor
	logger := globals.logger().With(zap.String("component", "supervisor"))
	defer func() { _ = logger.Sync() }()

	interval := cfg.Interval
	if c.Interval > 0 {
		interval = c.Interval
	}
	cooldown := cfg.Cooldown
	if c.Cooldown != 0 {
		cooldown = c.Cooldown
	}
	logFile := cfg.LogFile
	if c.LogFile != "" {
		logFile = c.LogFile
	}
	reportAddr := globals.Config.Report.Address
	if c.ReportAddress != "" {
		reportAddr = c.ReportAddress
	}
	excluded := domain.NewExclusionSet(append(append([]string{}, cfg.Exclude...), c.Exclude...)...)

	command, err := supervisor.ParseCommandTemplate(cfg.LaunchCommand)
	if err != nil {
		return outputErrorCommon(globals, "INVALID_LAUNCH_COMMAND", err.Error(),
			"supervisor.launch_command must be a template using {{.Session}}")
	}

	lock, err := missinglog.Lock(logFile)
	if err != nil {
		return outputErrorCommon(globals, "LOCK_HELD", err.Error(),
			"stop the other supervisor or point --log-file elsewhere")
	}
	defer func() { _ = lock.Unlock() }()

	log, err := missinglog.New(logFile,
		missinglog.WithExclusions(excluded),
		missinglog.WithLogger(logger.Named("missinglog")))
	if err != nil {
		return outputErrorCommon(globals, "INVALID_LOG_FILE", err.Error())
	}

	client := tmux.NewClient()
	detector := supervisor.NewDetector(tmux.NewInspector(client, logger), log, supervisor.DetectorConfig{
		Excluded:   excluded,
		IdleWindow: cfg.IdleWindow,
		Logger:     logger,
	})
	orchestrator, err := supervisor.NewOrchestrator(log, tmux.NewLauncher(client, logger), supervisor.OrchestratorConfig{
		Command:  command,
		Excluded: excluded,
		Cooldown: cooldown,
		Logger:   logger,
	})
	if err != nil {
		return outputErrorCommon(globals, "INVALID_CONFIG", err.Error())
	}
	reporter := protocol.NewClient(reportAddr, globals.Config.Report.DialTimeout, logger)

	recoverOnStart := cfg.RecoverOnStart && !c.NoRecover
	loop := supervisor.NewLoop(detector, orchestrator, reporter, log, supervisor.LoopConfig{
		Interval:       interval,
		RecoverOnStart: recoverOnStart,
		Logger:         logger,
	})

	ctx, stop := signalContext()
	defer stop()

	logger.Info("supervisor configured",
		zap.Duration("interval", interval),
		zap.Duration("cooldown", cooldown),
		zap.String("log_file", logFile),
		zap.String("report_address", reportAddr),
		zap.Strings("excluded", excluded.Names()),
		zap.String("launch_command", command.String()))

	if c.Once {
		var names []string
		if recoverOnStart {
			names = append(names, loop.Recover(ctx).Names...)
		}
		names = append(names, loop.RunCycle(ctx).Names...)
		report := domain.NewRestartReport(names)
		if globals.Format == "json" {
			return writeJSON(globals, reportOutput(report))
		}
		fmt.Fprintf(globals.Stdout, "Restarted %d session(s)\n", report.Count)
		for _, name := range report.Names {
			fmt.Fprintf(globals.Stdout, "  %s\n", name)
		}
		return nil
	}
	return loop.Run(ctx)
}
