package protocol

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/vburojevic/mcrevive/internal/domain"
)

// DefaultDialTimeout bounds connecting and writing one report.
const DefaultDialTimeout = 10 * time.Second

// Client sends restart reports to a report server. Each Send uses its own
// connection and nothing is retried.
type Client struct {
	addr    string
	timeout time.Duration
	logger  *zap.Logger
}

// NewClient creates a client for addr (host:port)
func NewClient(addr string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{addr: addr, timeout: timeout, logger: logger}
}

// Send writes report and closes the connection. Empty reports are refused
// since the protocol has no empty form. Errors wrap domain.ErrReportDelivery.
func (c *Client) Send(ctx context.Context, report domain.RestartReport) error {
	if report.Empty() {
		return errors.New("refusing to send an empty restart report")
	}

	dialer := net.Dialer{Timeout: c.timeout}
	c.logger.Debug("sending restart report", zap.String("addr", c.addr), zap.Int("count", report.Count))
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", domain.ErrReportDelivery, c.addr, err)
	}
	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrReportDelivery, err)
	}
	if _, err := conn.Write(Encode(report)); err != nil {
		return fmt.Errorf("%w: write to %s: %v", domain.ErrReportDelivery, c.addr, err)
	}
	if err := conn.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", domain.ErrReportDelivery, c.addr, err)
	}
	return nil
}
