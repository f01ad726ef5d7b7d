package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NotNil(t, cfg)
	assert.Equal(t, 30*time.Minute, cfg.Supervisor.Interval)
	assert.Equal(t, 10*time.Minute, cfg.Supervisor.Cooldown)
	assert.Equal(t, "missing_sessions.txt", cfg.Supervisor.LogFile)
	assert.Equal(t, "bash", cfg.Supervisor.IdleWindow)
	assert.Equal(t, []string{"client"}, cfg.Supervisor.Exclude)
	assert.True(t, cfg.Supervisor.RecoverOnStart)
	assert.Equal(t, "127.0.0.1:5005", cfg.Report.Address)
	assert.Equal(t, "127.0.0.1:5005", cfg.Server.Listen)
	assert.Zero(t, cfg.Server.IdleTimeout)
	assert.Equal(t, 1024, cfg.Server.ReadBuffer)
	assert.Equal(t, "log", cfg.Notify.Gateway)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad(t *testing.T) {
	t.Run("returns defaults when no config file exists", func(t *testing.T) {
		tmpDir := t.TempDir()
		t.Setenv("HOME", tmpDir)
		t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, ".config"))
		t.Chdir(tmpDir)

		cfg, err := Load()
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Equal(t, 30*time.Minute, cfg.Supervisor.Interval)
	})

	t.Run("reads dotfile in current directory", func(t *testing.T) {
		tmpDir := t.TempDir()
		t.Setenv("HOME", t.TempDir())
		t.Chdir(tmpDir)

		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".mcrevive.yaml"), []byte("supervisor:\n  cooldown: 90s\n"), 0o644))

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 90*time.Second, cfg.Supervisor.Cooldown)
		// untouched keys keep their defaults
		assert.Equal(t, 30*time.Minute, cfg.Supervisor.Interval)
	})
}

func TestLoadFromFile(t *testing.T) {
	t.Run("returns error for non-existent file", func(t *testing.T) {
		cfg, err := LoadFromFile("/nonexistent/path/config.yaml")
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "bad.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0o644))

		cfg, err := LoadFromFile(configPath)
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("parses all config fields", func(t *testing.T) {
		tmpDir := t.TempDir()
		configContent := `
supervisor:
  interval: 5m
  cooldown: 30s
  log_file: /var/lib/mcrevive/missing.txt
  idle_window: zsh
  exclude: [client, ops]
  launch_command: "./client --session {{.Session}}"
  recover_on_start: false
report:
  address: 10.0.0.2:6000
  dial_timeout: 3s
server:
  listen: 0.0.0.0:6000
  idle_timeout: 2m
  read_buffer: 4096
notify:
  gateway: discord
  rate_per_second: 0.5
  burst: 2
  discord:
    token: abc
    channel_id: "123445534343242"
  webhook:
    url: https://example.invalid/hook
    timeout: 4s
logging:
  level: debug
  format: json
  file: /tmp/mcrevive.log
  max_size_mb: 20
  max_backups: 2
  max_age_days: 3
`
		configPath := filepath.Join(tmpDir, "mcrevive.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))

		cfg, err := LoadFromFile(configPath)
		require.NoError(t, err)

		assert.Equal(t, 5*time.Minute, cfg.Supervisor.Interval)
		assert.Equal(t, 30*time.Second, cfg.Supervisor.Cooldown)
		assert.Equal(t, "/var/lib/mcrevive/missing.txt", cfg.Supervisor.LogFile)
		assert.Equal(t, "zsh", cfg.Supervisor.IdleWindow)
		assert.Equal(t, []string{"client", "ops"}, cfg.Supervisor.Exclude)
		assert.Equal(t, "./client --session {{.Session}}", cfg.Supervisor.LaunchCommand)
		assert.False(t, cfg.Supervisor.RecoverOnStart)
		assert.Equal(t, "10.0.0.2:6000", cfg.Report.Address)
		assert.Equal(t, 3*time.Second, cfg.Report.DialTimeout)
		assert.Equal(t, "0.0.0.0:6000", cfg.Server.Listen)
		assert.Equal(t, 2*time.Minute, cfg.Server.IdleTimeout)
		assert.Equal(t, 4096, cfg.Server.ReadBuffer)
		assert.Equal(t, "discord", cfg.Notify.Gateway)
		assert.Equal(t, 0.5, cfg.Notify.RatePerSecond)
		assert.Equal(t, 2, cfg.Notify.Burst)
		assert.Equal(t, "abc", cfg.Notify.Discord.Token)
		assert.Equal(t, "123445534343242", cfg.Notify.Discord.ChannelID)
		assert.Equal(t, "https://example.invalid/hook", cfg.Notify.Webhook.URL)
		assert.Equal(t, 4*time.Second, cfg.Notify.Webhook.Timeout)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, "json", cfg.Logging.Format)
		assert.Equal(t, "/tmp/mcrevive.log", cfg.Logging.File)
		assert.Equal(t, 20, cfg.Logging.MaxSizeMB)
	})
}

func TestConfigEnvironmentVariables(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "mcrevive.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("notify:\n  gateway: webhook\n"), 0o644))

	t.Setenv("MCREVIVE_NOTIFY_DISCORD_TOKEN", "from-env")
	t.Setenv("MCREVIVE_SUPERVISOR_COOLDOWN", "45s")
	t.Setenv("MCREVIVE_NOTIFY_GATEWAY", "discord")

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Notify.Discord.Token)
	assert.Equal(t, 45*time.Second, cfg.Supervisor.Cooldown)
	// env beats the file
	assert.Equal(t, "discord", cfg.Notify.Gateway)
}

func TestFindConfigFile(t *testing.T) {
	t.Run("finds .mcrevive.yaml in current directory", func(t *testing.T) {
		tmpDir := t.TempDir()
		t.Setenv("HOME", t.TempDir())
		t.Chdir(tmpDir)

		configPath := filepath.Join(tmpDir, ".mcrevive.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("logging:\n  level: warn\n"), 0o644))

		found := findConfigFile()
		// Resolve symlinks for comparison (macOS /var -> /private/var)
		expectedPath, _ := filepath.EvalSymlinks(configPath)
		foundPath, _ := filepath.EvalSymlinks(found)
		assert.Equal(t, expectedPath, foundPath)
	})

	t.Run("prefers .mcrevive.yaml over .mcrevive.yml", func(t *testing.T) {
		tmpDir := t.TempDir()
		t.Setenv("HOME", t.TempDir())
		t.Chdir(tmpDir)

		yamlPath := filepath.Join(tmpDir, ".mcrevive.yaml")
		require.NoError(t, os.WriteFile(yamlPath, []byte("{}"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".mcrevive.yml"), []byte("{}"), 0o644))

		expectedPath, _ := filepath.EvalSymlinks(yamlPath)
		foundPath, _ := filepath.EvalSymlinks(findConfigFile())
		assert.Equal(t, expectedPath, foundPath)
	})

	t.Run("returns empty when nothing exists", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		t.Chdir(t.TempDir())
		assert.Empty(t, findConfigFile())
	})
}
