package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vburojevic/mcrevive/internal/domain"
	"github.com/vburojevic/mcrevive/internal/protocol"
)

// connSession is the per-connection read state.
type connSession struct {
	conn    net.Conn
	remote  string
	logger  *zap.Logger
	pending []byte // trailing bytes of a rune split across reads
}

// handle runs the read/parse/forward loop for one connection. The socket is
// closed on every return path.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	c := &connSession{
		conn:   conn,
		remote: conn.RemoteAddr().String(),
	}
	c.logger = s.logger.With(zap.String("conn_id", uuid.NewString()), zap.String("remote", c.remote))

	c.logger.Debug("client connected")
	s.notify(ctx, c.logger, connectedMessage(c.remote))

	buf := make([]byte, s.cfg.ReadBuffer)
	for {
		if s.cfg.IdleTimeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
				c.logger.Warn("cannot set read deadline", zap.Error(err))
			}
		}

		n, err := conn.Read(buf)
		if n > 0 {
			if text := c.decode(buf[:n]); text != "" {
				s.process(ctx, c, text)
			}
		}
		if err != nil {
			s.closed(ctx, c, err)
			return
		}
	}
}

// decode turns a chunk into text, holding back an incomplete trailing rune
// until the next read.
func (c *connSession) decode(chunk []byte) string {
	data := append(c.pending, chunk...)
	c.pending = nil

	for i := 1; i < utf8.UTFMax && i <= len(data); i++ {
		start := len(data) - i
		if !utf8.RuneStart(data[start]) {
			continue
		}
		if !utf8.FullRune(data[start:]) {
			c.pending = append([]byte(nil), data[start:]...)
			data = data[:start]
		}
		break
	}
	return strings.ToValidUTF8(string(data), "\uFFFD")
}

// process forwards the raw chunk, then tries to read it as one report.
// A chunk that is not a report is reported and skipped; the connection
// stays open.
func (s *Server) process(ctx context.Context, c *connSession, text string) {
	c.logger.Debug("received chunk", zap.Int("bytes", len(text)))
	s.notify(ctx, c.logger, rawMessage(c.remote, text))

	report, err := protocol.Parse(text)
	if err != nil {
		c.logger.Warn("malformed message", zap.Error(err))
		s.notify(ctx, c.logger, malformedMessage(err))
		return
	}
	if report.Count != len(report.Names) {
		c.logger.Warn("count_mismatch", zap.Int("declared", report.Count), zap.Int("names", len(report.Names)))
	}

	c.logger.Info("forwarding restart report", zap.Int("count", report.Count), zap.Strings("sessions", report.Names))
	s.notify(ctx, c.logger, reportMessage(report))
}

// closed reports why the connection ended.
func (s *Server) closed(ctx context.Context, c *connSession, err error) {
	var ne net.Error
	switch {
	case errors.Is(err, io.EOF):
		c.logger.Debug("client disconnected")
		s.notify(ctx, c.logger, disconnectedMessage(c.remote))
	case errors.Is(err, syscall.ECONNRESET):
		c.logger.Warn("connection reset", zap.Error(fmt.Errorf("%w: %v", domain.ErrConnectionFault, err)))
		s.notify(ctx, c.logger, resetMessage(c.remote))
	case errors.As(err, &ne) && ne.Timeout():
		c.logger.Info("closing idle connection", zap.Duration("idle_timeout", s.cfg.IdleTimeout))
		s.notify(ctx, c.logger, idleMessage(c.remote))
	case errors.Is(err, net.ErrClosed) && ctx.Err() != nil:
		c.logger.Debug("connection closed on shutdown")
		s.notify(ctx, c.logger, disconnectedMessage(c.remote))
	default:
		fault := fmt.Errorf("%w: %v", domain.ErrConnectionFault, err)
		c.logger.Warn("connection fault", zap.Error(fault))
		s.notify(ctx, c.logger, faultMessage(c.remote, fault))
	}
}
