// Package missinglog persists the set of tmux sessions waiting for a restart.
//
// The file holds one session name per line with no header. Every write replaces
// the file through a temporary sibling and a rename, so a crash leaves either
// the old or the new contents on disk and never a torn file.
package missinglog

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/vburojevic/mcrevive/internal/domain"
)

// Log is the persisted missing-session set. It is not safe for concurrent use
// by multiple goroutines; the supervisor drives it from a single loop.
type Log struct {
	path     string
	excluded domain.ExclusionSet
	logger   *zap.Logger
}

// Option configures a Log
type Option func(*Log)

// WithLogger attaches a logger
func WithLogger(l *zap.Logger) Option {
	return func(lg *Log) {
		if l != nil {
			lg.logger = l
		}
	}
}

// WithExclusions drops excluded names on append and on load.
func WithExclusions(set domain.ExclusionSet) Option {
	return func(lg *Log) {
		lg.excluded = set
	}
}

// New creates a Log stored at path. The file does not need to exist.
func New(path string, opts ...Option) (*Log, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("missing session log path is required")
	}
	l := &Log{
		path:   path,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Path returns the file backing the log
func (l *Log) Path() string {
	return l.path
}

// Load returns the persisted names in file order, without duplicates.
// A log that was never written loads as empty.
func (l *Log) Load() ([]string, error) {
	b, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read missing session log: %w", err)
	}

	var names []string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		name := strings.TrimSpace(sc.Text())
		if name == "" || l.excluded.Contains(name) {
			continue
		}
		names = append(names, name)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("parse missing session log: %w", err)
	}
	return lo.Uniq(names), nil
}

// Contains reports whether name is currently logged.
func (l *Log) Contains(name string) (bool, error) {
	names, err := l.Load()
	if err != nil {
		return false, err
	}
	return lo.Contains(names, name), nil
}

// AppendIfAbsent adds every name that is not already logged and not excluded.
// It returns the names that were actually added.
func (l *Log) AppendIfAbsent(names ...string) ([]string, error) {
	current, err := l.Load()
	if err != nil {
		return nil, err
	}

	candidates := lo.Compact(lo.Map(names, func(name string, _ int) string {
		return strings.TrimSpace(name)
	}))
	added := lo.Filter(lo.Uniq(candidates), func(name string, _ int) bool {
		return !l.excluded.Contains(name) && !lo.Contains(current, name)
	})
	if len(added) == 0 {
		return nil, nil
	}

	if err := l.write(append(current, added...)); err != nil {
		return nil, err
	}
	l.logger.Debug("logged missing sessions", zap.Strings("sessions", added))
	return added, nil
}

// Remove deletes name from the log. Removing an absent name is a no-op.
func (l *Log) Remove(name string) error {
	current, err := l.Load()
	if err != nil {
		return err
	}
	if !lo.Contains(current, name) {
		return nil
	}
	if err := l.write(lo.Without(current, name)); err != nil {
		return err
	}
	l.logger.Debug("removed session from log", zap.String("session", name))
	return nil
}

func (l *Log) write(names []string) error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	var buf bytes.Buffer
	for _, name := range names {
		buf.WriteString(name)
		buf.WriteByte('\n')
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(l.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp log: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp log: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp log: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp log: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		return fmt.Errorf("replace missing session log: %w", err)
	}
	return nil
}
