package relay

import (
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vburojevic/mcrevive/internal/domain"
	"github.com/vburojevic/mcrevive/internal/protocol"
)

type fakeGateway struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeGateway) Send(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeGateway) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

func (f *fakeGateway) matching(pred func(string) bool) []string {
	var out []string
	for _, text := range f.all() {
		if pred(text) {
			out = append(out, text)
		}
	}
	return out
}

func (f *fakeGateway) waitFor(t *testing.T, pred func(string) bool, n int) []string {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(f.matching(pred)) >= n
	}, 5*time.Second, 10*time.Millisecond)
	return f.matching(pred)
}

func isReport(text string) bool { return strings.HasPrefix(text, prefixReport) }

func startServer(t *testing.T, cfg Config) (*Server, *fakeGateway, context.CancelFunc, <-chan error) {
	t.Helper()
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:0"
	}
	gw := &fakeGateway{}
	srv := New(cfg, gw)
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	stopped := make(chan struct{})
	go func() {
		done <- srv.Serve(ctx)
		close(stopped)
	}()

	select {
	case <-srv.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("server never became ready")
	}
	t.Cleanup(func() {
		cancel()
		select {
		case <-stopped:
		case <-time.After(5 * time.Second):
		}
	})
	return srv, gw, cancel, done
}

func dial(t *testing.T, srv *Server) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	return conn
}

func TestServerAnnouncesOnlineOnce(t *testing.T) {
	_, gw, _, _ := startServer(t, Config{})

	texts := gw.all()
	require.Len(t, texts, 1)
	assert.Equal(t, onlineMessage(), texts[0])
}

func TestServerForwardsReport(t *testing.T) {
	srv, gw, _, _ := startServer(t, Config{})

	conn := dial(t, srv)
	remote := conn.LocalAddr().String()
	_, err := conn.Write(protocol.Encode(domain.NewRestartReport([]string{"s1", "s2"})))
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	gw.waitFor(t, func(text string) bool { return text == disconnectedMessage(remote) }, 1)

	reports := gw.matching(isReport)
	require.Len(t, reports, 1)
	assert.Equal(t, reportMessage(domain.RestartReport{Count: 2, Names: []string{"s1", "s2"}}), reports[0])

	// per-connection notifications keep their order
	mine := gw.matching(func(text string) bool { return strings.Contains(text, remote) || isReport(text) })
	require.Len(t, mine, 4)
	assert.Equal(t, connectedMessage(remote), mine[0])
	assert.True(t, strings.HasPrefix(mine[1], prefixDebug+" **Got something through TCP**"))
	assert.True(t, isReport(mine[2]))
	assert.Equal(t, disconnectedMessage(remote), mine[3])
}

func TestServerMalformedKeepsConnectionOpen(t *testing.T) {
	srv, gw, _, _ := startServer(t, Config{})

	conn := dial(t, srv)
	defer conn.Close()

	_, err := conn.Write([]byte("hello"))
	require.NoError(t, err)
	gw.waitFor(t, func(text string) bool { return strings.HasPrefix(text, prefixError+" Received malformed message") }, 1)
	assert.Empty(t, gw.matching(isReport))

	// same connection still works
	_, err = conn.Write(protocol.Encode(domain.NewRestartReport([]string{"mc-1"})))
	require.NoError(t, err)
	reports := gw.waitFor(t, isReport, 1)
	assert.Equal(t, reportMessage(domain.RestartReport{Count: 1, Names: []string{"mc-1"}}), reports[0])
	assert.Empty(t, gw.matching(func(text string) bool { return strings.Contains(text, "Client disconnected") }))
}

func TestServerConcurrentClients(t *testing.T) {
	srv, gw, _, _ := startServer(t, Config{})

	batches := [][]string{{"a1", "a2", "a3"}, {"b1", "b2"}}
	var wg sync.WaitGroup
	start := make(chan struct{})
	for _, names := range batches {
		wg.Add(1)
		go func(names []string) {
			defer wg.Done()
			conn, err := net.Dial("tcp", srv.Addr().String())
			if !assert.NoError(t, err) {
				return
			}
			defer conn.Close()
			<-start
			_, err = conn.Write(protocol.Encode(domain.NewRestartReport(names)))
			assert.NoError(t, err)
		}(names)
	}
	close(start)
	wg.Wait()

	gw.waitFor(t, isReport, 2)
	time.Sleep(50 * time.Millisecond)
	reports := gw.matching(isReport)
	require.Len(t, reports, 2)
	assert.ElementsMatch(t, []string{
		reportMessage(domain.NewRestartReport(batches[0])),
		reportMessage(domain.NewRestartReport(batches[1])),
	}, reports)
}

func TestServerIdleTimeout(t *testing.T) {
	srv, gw, _, _ := startServer(t, Config{IdleTimeout: 50 * time.Millisecond})

	conn := dial(t, srv)
	defer conn.Close()
	remote := conn.LocalAddr().String()

	gw.waitFor(t, func(text string) bool { return text == idleMessage(remote) }, 1)
}

func TestServerStopsWithOpenConnections(t *testing.T) {
	srv, _, cancel, done := startServer(t, Config{})

	conn := dial(t, srv)
	defer conn.Close()
	time.Sleep(20 * time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestConnSetRefusesAfterShutdownSweep(t *testing.T) {
	set := &connSet{conns: make(map[net.Conn]struct{})}

	early, earlyPeer := net.Pipe()
	defer earlyPeer.Close()
	require.True(t, set.add(early))

	set.closeAll()

	// a read on a closed pipe end fails at once
	_, err := early.Read(make([]byte, 1))
	require.Error(t, err)

	// a connection accepted after the sweep is refused, not stranded
	late, latePeer := net.Pipe()
	defer late.Close()
	defer latePeer.Close()
	assert.False(t, set.add(late))
	assert.NotContains(t, set.conns, late)
}

func TestListenFailsOnBusyAddress(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	srv := New(Config{Addr: ln.Addr().String()}, &fakeGateway{})
	require.Error(t, srv.Listen())
}

func TestDecodeHoldsBackSplitRune(t *testing.T) {
	c := &connSession{}
	word := []byte("mc-é")

	first := c.decode(word[:len(word)-1])
	assert.Equal(t, "mc-", first)
	assert.Len(t, c.pending, 1)

	second := c.decode(word[len(word)-1:])
	assert.Equal(t, "é", second)
	assert.Empty(t, c.pending)

	assert.Equal(t, "plain", c.decode([]byte("plain")))
}
