package cli

import (
	"fmt"

	"github.com/vburojevic/mcrevive/internal/config"
)

// ConfigCmd groups configuration commands
type ConfigCmd struct {
	Show     ConfigShowCmd     `cmd:"" default:"1" help:"Show the resolved configuration"`
	Path     ConfigPathCmd     `cmd:"" help:"Show which config file is loaded"`
	Generate ConfigGenerateCmd `cmd:"" help:"Print a sample config file"`
}

// ConfigShowCmd prints the resolved configuration
type ConfigShowCmd struct{}

// ConfigPathCmd prints the config file path
type ConfigPathCmd struct{}

// ConfigGenerateCmd prints a sample configuration
type ConfigGenerateCmd struct{}

type setting struct {
	key   string
	value interface{}
}

// settings flattens cfg in file order. Secrets are masked.
func settings(cfg *config.Config) []setting {
	return []setting{
		{"supervisor.interval", cfg.Supervisor.Interval.String()},
		{"supervisor.cooldown", cfg.Supervisor.Cooldown.String()},
		{"supervisor.log_file", cfg.Supervisor.LogFile},
		{"supervisor.idle_window", cfg.Supervisor.IdleWindow},
		{"supervisor.exclude", cfg.Supervisor.Exclude},
		{"supervisor.launch_command", cfg.Supervisor.LaunchCommand},
		{"supervisor.recover_on_start", cfg.Supervisor.RecoverOnStart},
		{"report.address", cfg.Report.Address},
		{"report.dial_timeout", cfg.Report.DialTimeout.String()},
		{"server.listen", cfg.Server.Listen},
		{"server.idle_timeout", cfg.Server.IdleTimeout.String()},
		{"server.read_buffer", cfg.Server.ReadBuffer},
		{"notify.gateway", cfg.Notify.Gateway},
		{"notify.rate_per_second", cfg.Notify.RatePerSecond},
		{"notify.burst", cfg.Notify.Burst},
		{"notify.discord.token", mask(cfg.Notify.Discord.Token)},
		{"notify.discord.channel_id", cfg.Notify.Discord.ChannelID},
		{"notify.webhook.url", mask(cfg.Notify.Webhook.URL)},
		{"notify.webhook.timeout", cfg.Notify.Webhook.Timeout.String()},
		{"logging.level", cfg.Logging.Level},
		{"logging.format", cfg.Logging.Format},
		{"logging.file", cfg.Logging.File},
		{"logging.max_size_mb", cfg.Logging.MaxSizeMB},
		{"logging.max_backups", cfg.Logging.MaxBackups},
		{"logging.max_age_days", cfg.Logging.MaxAgeDays},
	}
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}

// Run executes the config show command
func (c *ConfigShowCmd) Run(globals *Globals) error {
	all := settings(globals.Config)
	if globals.Format == "json" {
		out := map[string]interface{}{
			"type": "config",
			"path": globals.ConfigPath,
		}
		values := make(map[string]interface{}, len(all))
		for _, s := range all {
			values[s.key] = s.value
		}
		out["settings"] = values
		return writeJSON(globals, out)
	}

	fmt.Fprintln(globals.Stdout, heading(globals.Stdout, "Current Configuration:"))
	if path := globals.ConfigPath; path != "" {
		fmt.Fprintf(globals.Stdout, "  (from %s)\n", path)
	}
	for _, s := range all {
		fmt.Fprintf(globals.Stdout, "  %s: %v\n", s.key, s.value)
	}
	return nil
}

// Run executes the config path command
func (c *ConfigPathCmd) Run(globals *Globals) error {
	path := globals.ConfigPath
	if globals.Format == "json" {
		return writeJSON(globals, map[string]interface{}{
			"type":  "config_path",
			"path":  path,
			"found": path != "",
		})
	}
	if path == "" {
		fmt.Fprintln(globals.Stdout, "No configuration file found. Using defaults.")
		fmt.Fprintln(globals.Stdout, "Run 'mcrevive config generate > .mcrevive.yaml' to create one.")
		return nil
	}
	fmt.Fprintf(globals.Stdout, "Config file: %s\n", path)
	return nil
}

const sampleConfig = `# mcrevive configuration file
# Place at ./.mcrevive.yaml, ~/.mcrevive.yaml, <user config dir>/mcrevive/mcrevive.yaml
# or /etc/mcrevive/mcrevive.yaml. Every key can be overridden with MCREVIVE_<SECTION>_<KEY>.

supervisor:
  # Time between detection cycles
  interval: 30m
  # Pause between consecutive client launches
  cooldown: 10m
  # Persisted list of sessions waiting for a restart
  log_file: missing_sessions.txt
  # A session whose only window is this one has lost its client
  idle_window: bash
  # Sessions never restarted
  exclude: [client]
  # Typed into the session; {{.Session}} is the session name
  launch_command: "./MinecraftClient-20241227-281-linux-x64 {{.Session}}"
  # Restart whatever a previous run left in log_file
  recover_on_start: true

report:
  address: 127.0.0.1:5005
  dial_timeout: 10s

server:
  listen: 127.0.0.1:5005
  # 0s waits forever for a silent client
  idle_timeout: 0s
  read_buffer: 1024

notify:
  # log, discord or webhook
  gateway: log
  rate_per_second: 1
  burst: 5
  discord:
    token: ""
    channel_id: ""
  webhook:
    url: ""
    timeout: 10s

logging:
  level: info
  # auto, console or json
  format: auto
  # Empty logs to stderr
  file: ""
  max_size_mb: 10
  max_backups: 5
  max_age_days: 10
`

// Run executes the config generate command
func (c *ConfigGenerateCmd) Run(globals *Globals) error {
	fmt.Fprint(globals.Stdout, sampleConfig)
	return nil
}
