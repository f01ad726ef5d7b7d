package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/vburojevic/mcrevive/internal/config"
	"github.com/vburojevic/mcrevive/internal/logging"
)

// Version and Commit are set at build time with -ldflags.
var (
	Version = "dev"
	Commit  = "none"
)

// CLI is the root command
type CLI struct {
	Format     string `short:"f" enum:"text,json" default:"text" help:"Output format for operator commands (text or json)"`
	Verbose    bool   `short:"v" help:"Enable debug logging"`
	ConfigFile string `name:"config" short:"c" type:"path" placeholder:"FILE" help:"Config file (default: search .mcrevive.yaml, user config dir, /etc/mcrevive)"`
	LogLevel   string `name:"log-level" default:"${config_log_level}" help:"Process log level (debug, info, warn, error)"`

	Supervise SuperviseCmd `cmd:"" help:"Watch tmux sessions and restart clients that exited"`
	Serve     ServeCmd     `cmd:"" help:"Receive restart reports and relay them to chat"`
	Send      SendCmd      `cmd:"" help:"Send a one-off restart report"`
	Pending   PendingCmd   `cmd:"" help:"Inspect or edit the missing-session log"`
	Config    ConfigCmd    `cmd:"" help:"Show or generate configuration"`
	Version   VersionCmd   `cmd:"" help:"Show version information"`
}

// Globals is shared state passed to every command's Run
type Globals struct {
	Format     string
	Verbose    bool
	Config     *config.Config
	ConfigPath string // file cfg was read from, "" for defaults
	Logger     *zap.Logger
	Stdout     io.Writer
	Stderr     io.Writer
}

// NewGlobalsWithConfig builds Globals from parsed flags and loaded config.
// Flags win over the config file for the values they cover.
func NewGlobalsWithConfig(c *CLI, cfg *config.Config) (*Globals, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	logCfg := logging.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	}
	if c.LogLevel != "" {
		logCfg.Level = c.LogLevel
	}
	if c.Verbose {
		logCfg.Level = "debug"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, err
	}
	path := c.ConfigFile
	if path == "" {
		path = config.ConfigFile()
	}
	return &Globals{
		Format:     c.Format,
		Verbose:    c.Verbose,
		Config:     cfg,
		ConfigPath: path,
		Logger:     logger,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}, nil
}

// ConfigVars exposes config values as kong defaults so flags fall back to
// the config file.
func ConfigVars(cfg *config.Config) kong.Vars {
	return kong.Vars{
		"config_log_level":      cfg.Logging.Level,
		"config_log_file":       cfg.Supervisor.LogFile,
		"config_report_address": cfg.Report.Address,
		"config_listen":         cfg.Server.Listen,
		"config_gateway":        cfg.Notify.Gateway,
	}
}

func (g *Globals) logger() *zap.Logger {
	if g == nil || g.Logger == nil {
		return zap.NewNop()
	}
	return g.Logger
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
