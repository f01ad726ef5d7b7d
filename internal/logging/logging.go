// Package logging builds the zap logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where and how logs are written.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // auto, console, json
	File       string // empty logs to stderr
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New builds a logger. With auto format, a terminal gets console output and
// everything else gets JSON.
func New(cfg Config) (*zap.Logger, error) {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg Config, stderr *os.File) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil && cfg.Level != "" {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	if cfg.Level == "" {
		level = zapcore.InfoLevel
	}

	var sink io.Writer = stderr
	tty := cfg.File == "" && stderr != nil && isatty.IsTerminal(stderr.Fd())
	if cfg.File != "" {
		sink = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, 10),
			MaxBackups: orDefault(cfg.MaxBackups, 5),
			MaxAge:     orDefault(cfg.MaxAgeDays, 10),
		}
	}

	encoder, err := newEncoder(cfg.Format, tty)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(sink), zap.NewAtomicLevelAt(level))
	return zap.New(core), nil
}

// NewWriter builds a logger on an arbitrary writer, mostly for tests.
func NewWriter(w io.Writer, level zapcore.Level) *zap.Logger {
	enc, _ := newEncoder("json", false)
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), level))
}

func newEncoder(format string, tty bool) (zapcore.Encoder, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "auto":
		if tty {
			return consoleEncoder(), nil
		}
		return jsonEncoder(), nil
	case "console", "text":
		return consoleEncoder(), nil
	case "json":
		return jsonEncoder(), nil
	default:
		return nil, fmt.Errorf("invalid log format %q (want auto, console or json)", format)
	}
}

func jsonEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(cfg)
}

func consoleEncoder() zapcore.Encoder {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	return zapcore.NewConsoleEncoder(cfg)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
