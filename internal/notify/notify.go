// Package notify delivers human-readable messages to a chat channel.
// Delivery is best effort: callers log a failed send and move on.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Gateway sends one message to the configured channel.
type Gateway interface {
	Send(ctx context.Context, text string) error
}

// Closer is implemented by gateways holding a live session.
type Closer interface {
	Close() error
}

// Kind names a supported gateway
type Kind string

const (
	KindLog     Kind = "log"
	KindDiscord Kind = "discord"
	KindWebhook Kind = "webhook"
)

// ParseKind validates a gateway name
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindLog, KindDiscord, KindWebhook:
		return k, nil
	case "":
		return KindLog, nil
	default:
		return "", fmt.Errorf("unknown notification gateway %q (want log, discord or webhook)", s)
	}
}

// Serialized wraps a gateway so concurrent callers send one at a time, paced
// by a token bucket. Messages from one goroutine keep their order.
type Serialized struct {
	mu      sync.Mutex
	next    Gateway
	limiter *rate.Limiter
}

// NewSerialized wraps next. perSecond <= 0 disables pacing.
func NewSerialized(next Gateway, perSecond float64, burst int) *Serialized {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &Serialized{next: next, limiter: rate.NewLimiter(limit, burst)}
}

// Send waits for a token and forwards text.
func (s *Serialized) Send(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("notification rate limit: %w", err)
	}
	return s.next.Send(ctx, text)
}

// Close closes the wrapped gateway if it holds a session.
func (s *Serialized) Close() error {
	if c, ok := s.next.(Closer); ok {
		return c.Close()
	}
	return nil
}

// Log writes notifications to the process log. Used when no chat channel is
// configured.
type Log struct {
	logger *zap.Logger
}

// NewLog creates a log gateway
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

// Send logs text
func (l *Log) Send(_ context.Context, text string) error {
	l.logger.Info("notification", zap.String("text", text))
	return nil
}
