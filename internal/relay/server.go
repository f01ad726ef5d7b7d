// Package relay accepts restart reports over TCP and forwards them to a chat
// channel. Every connection is served by its own goroutine; the only state
// shared between connections is the notification gateway.
package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vburojevic/mcrevive/internal/notify"
)

// DefaultReadBuffer is the largest chunk read from a connection at once.
const DefaultReadBuffer = 1024

// Config configures a Server
type Config struct {
	// Addr is the host:port to listen on.
	Addr string
	// IdleTimeout closes a connection that sends nothing for this long.
	// Zero waits forever.
	IdleTimeout time.Duration
	// ReadBuffer is the read chunk size. Default: 1024.
	ReadBuffer int
	Logger     *zap.Logger
}

// Server is the report receiver.
type Server struct {
	cfg     Config
	gateway notify.Gateway
	logger  *zap.Logger

	mu       sync.Mutex
	listener net.Listener
	ready    chan struct{}
}

// New creates a server that forwards to gateway. gateway must be safe for
// concurrent use; wrap it in notify.Serialized if it is not.
func New(cfg Config, gateway notify.Gateway) *Server {
	if cfg.ReadBuffer <= 0 {
		cfg.ReadBuffer = DefaultReadBuffer
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Server{
		cfg:     cfg,
		gateway: gateway,
		logger:  cfg.Logger,
		ready:   make(chan struct{}),
	}
}

// Listen binds the listening socket. Failing to bind is the one fatal error.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Ready is closed once the server accepts connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Serve accepts connections until ctx is cancelled, then waits for open
// connections to finish. It calls Listen first if needed.
func (s *Server) Serve(ctx context.Context) error {
	if s.Addr() == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	s.logger.Info("report server listening", zap.String("addr", ln.Addr().String()))
	s.notify(ctx, s.logger, onlineMessage())
	close(s.ready)

	g, gctx := errgroup.WithContext(ctx)
	var conns sync.WaitGroup
	open := &connSet{conns: make(map[net.Conn]struct{})}

	g.Go(func() error {
		<-gctx.Done()
		ln.Close()
		// unblock handlers waiting on idle peers
		open.closeAll()
		return nil
	})

	g.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if gctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return nil
				}
				var ne net.Error
				if errors.As(err, &ne) && ne.Timeout() {
					s.logger.Warn("accept timeout", zap.Error(err))
					continue
				}
				s.logger.Error("accept failed", zap.Error(err))
				time.Sleep(50 * time.Millisecond)
				continue
			}

			if !open.add(conn) {
				// accepted while shutting down
				conn.Close()
				return nil
			}
			conns.Add(1)
			go func() {
				defer conns.Done()
				defer open.remove(conn)
				s.handle(gctx, conn)
			}()
		}
	})

	err := g.Wait()
	conns.Wait()
	s.logger.Info("report server stopped")
	return err
}

// notify forwards text to the gateway, logging failures.
func (s *Server) notify(ctx context.Context, logger *zap.Logger, text string) {
	if err := s.gateway.Send(context.WithoutCancel(ctx), text); err != nil {
		logger.Warn("notification failed", zap.Error(err))
	}
}

// connSet tracks open connections so shutdown can close them. Once closeAll
// has run, add refuses new connections, so none can slip in after the sweep.
type connSet struct {
	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	closed bool
}

func (c *connSet) add(conn net.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.conns[conn] = struct{}{}
	return true
}

func (c *connSet) remove(conn net.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.conns, conn)
}

func (c *connSet) closeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for conn := range c.conns {
		conn.Close()
	}
}
