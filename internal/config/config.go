package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Supervisor SupervisorConfig `mapstructure:"supervisor"`
	Report     ReportConfig     `mapstructure:"report"`
	Server     ServerConfig     `mapstructure:"server"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// SupervisorConfig drives detection and restarts
type SupervisorConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	Cooldown       time.Duration `mapstructure:"cooldown"`
	LogFile        string        `mapstructure:"log_file"`
	IdleWindow     string        `mapstructure:"idle_window"`
	Exclude        []string      `mapstructure:"exclude"`
	LaunchCommand  string        `mapstructure:"launch_command"`
	RecoverOnStart bool          `mapstructure:"recover_on_start"`
}

// ReportConfig is where the supervisor sends restart reports
type ReportConfig struct {
	Address     string        `mapstructure:"address"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// ServerConfig configures the report receiver
type ServerConfig struct {
	Listen      string        `mapstructure:"listen"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	ReadBuffer  int           `mapstructure:"read_buffer"`
}

// NotifyConfig selects and configures the chat gateway
type NotifyConfig struct {
	Gateway       string        `mapstructure:"gateway"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
	Discord       DiscordConfig `mapstructure:"discord"`
	Webhook       WebhookConfig `mapstructure:"webhook"`
}

// DiscordConfig holds bot credentials
type DiscordConfig struct {
	Token     string `mapstructure:"token"`
	ChannelID string `mapstructure:"channel_id"`
}

// WebhookConfig holds an incoming webhook URL
type WebhookConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoggingConfig configures process logs
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Supervisor: SupervisorConfig{
			Interval:       30 * time.Minute,
			Cooldown:       10 * time.Minute,
			LogFile:        "missing_sessions.txt",
			IdleWindow:     "bash",
			Exclude:        []string{"client"},
			LaunchCommand:  "./MinecraftClient-20241227-281-linux-x64 {{.Session}}",
			RecoverOnStart: true,
		},
		Report: ReportConfig{
			Address:     "127.0.0.1:5005",
			DialTimeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Listen:     "127.0.0.1:5005",
			ReadBuffer: 1024,
		},
		Notify: NotifyConfig{
			Gateway:       "log",
			RatePerSecond: 1,
			Burst:         5,
			Webhook: WebhookConfig{
				Timeout: 10 * time.Second,
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "auto",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 10,
		},
	}
}

// Load loads configuration from the usual locations and the environment.
func Load() (*Config, error) {
	v := newViper()

	// Add config paths (in order of precedence, lowest first)
	v.SetConfigName("mcrevive")
	v.AddConfigPath("/etc/mcrevive/")
	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, "mcrevive"))
	}
	v.AddConfigPath(".")

	if path := findConfigFile(); path != "" {
		v.SetConfigFile(path)
	}

	// Try to read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return unmarshal(v)
}

// LoadFromFile loads configuration from a specific file, still honoring the
// environment.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return unmarshal(v)
}

// ConfigFile returns the path to the config file Load would read, or ""
func ConfigFile() string {
	if path := findConfigFile(); path != "" {
		return path
	}
	v := viper.New()
	v.SetConfigName("mcrevive")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/mcrevive/")
	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, "mcrevive"))
	}
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err == nil {
		return v.ConfigFileUsed()
	}
	return ""
}

// findConfigFile looks for a dotfile in the current directory, then home.
func findConfigFile() string {
	var dirs []string
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home)
	}
	for _, dir := range dirs {
		for _, name := range []string{".mcrevive.yaml", ".mcrevive.yml"} {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}
	return ""
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix("MCREVIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Every key needs a default for AutomaticEnv to reach it on Unmarshal.
	cfg := Default()
	v.SetDefault("supervisor.interval", cfg.Supervisor.Interval)
	v.SetDefault("supervisor.cooldown", cfg.Supervisor.Cooldown)
	v.SetDefault("supervisor.log_file", cfg.Supervisor.LogFile)
	v.SetDefault("supervisor.idle_window", cfg.Supervisor.IdleWindow)
	v.SetDefault("supervisor.exclude", cfg.Supervisor.Exclude)
	v.SetDefault("supervisor.launch_command", cfg.Supervisor.LaunchCommand)
	v.SetDefault("supervisor.recover_on_start", cfg.Supervisor.RecoverOnStart)
	v.SetDefault("report.address", cfg.Report.Address)
	v.SetDefault("report.dial_timeout", cfg.Report.DialTimeout)
	v.SetDefault("server.listen", cfg.Server.Listen)
	v.SetDefault("server.idle_timeout", cfg.Server.IdleTimeout)
	v.SetDefault("server.read_buffer", cfg.Server.ReadBuffer)
	v.SetDefault("notify.gateway", cfg.Notify.Gateway)
	v.SetDefault("notify.rate_per_second", cfg.Notify.RatePerSecond)
	v.SetDefault("notify.burst", cfg.Notify.Burst)
	v.SetDefault("notify.discord.token", cfg.Notify.Discord.Token)
	v.SetDefault("notify.discord.channel_id", cfg.Notify.Discord.ChannelID)
	v.SetDefault("notify.webhook.url", cfg.Notify.Webhook.URL)
	v.SetDefault("notify.webhook.timeout", cfg.Notify.Webhook.Timeout)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.max_size_mb", cfg.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", cfg.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", cfg.Logging.MaxAgeDays)
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
