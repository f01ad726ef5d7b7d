package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingGateway struct {
	mu       sync.Mutex
	inFlight int32
	overlap  bool
	texts    []string
}

func (r *recordingGateway) Send(_ context.Context, text string) error {
	if atomic.AddInt32(&r.inFlight, 1) > 1 {
		r.overlap = true
	}
	time.Sleep(time.Millisecond)
	r.mu.Lock()
	r.texts = append(r.texts, text)
	r.mu.Unlock()
	atomic.AddInt32(&r.inFlight, -1)
	return nil
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Discord")
	require.NoError(t, err)
	assert.Equal(t, KindDiscord, k)

	k, err = ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindLog, k)

	_, err = ParseKind("slack")
	require.Error(t, err)
}

func TestSerializedNeverOverlapsAndKeepsPerSenderOrder(t *testing.T) {
	rec := &recordingGateway{}
	s := NewSerialized(rec, 0, 1)

	var wg sync.WaitGroup
	for sender := 0; sender < 4; sender++ {
		wg.Add(1)
		go func(sender int) {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				assert.NoError(t, s.Send(context.Background(), fmt.Sprintf("%d-%d", sender, i)))
			}
		}(sender)
	}
	wg.Wait()

	assert.False(t, rec.overlap)
	require.Len(t, rec.texts, 20)

	for sender := 0; sender < 4; sender++ {
		prefix := fmt.Sprintf("%d-", sender)
		var mine []string
		for _, text := range rec.texts {
			if strings.HasPrefix(text, prefix) {
				mine = append(mine, text)
			}
		}
		for i, text := range mine {
			assert.Equal(t, fmt.Sprintf("%d-%d", sender, i), text)
		}
	}
}

func TestSerializedHonorsContext(t *testing.T) {
	s := NewSerialized(&recordingGateway{}, 0.001, 1)
	require.NoError(t, s.Send(context.Background(), "first"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.Error(t, s.Send(ctx, "second"))
}

func TestWebhookPostsContent(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w, err := NewWebhook(srv.URL, time.Second)
	require.NoError(t, err)
	require.NoError(t, w.Send(context.Background(), "hello"))
	assert.Equal(t, "hello", got["content"])
}

func TestWebhookReportsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	w, err := NewWebhook(srv.URL, time.Second)
	require.NoError(t, err)
	err = w.Send(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestNewWebhookRequiresURL(t *testing.T) {
	_, err := NewWebhook(" ", 0)
	require.Error(t, err)
}

func TestNewDiscordValidates(t *testing.T) {
	_, err := NewDiscord("", "123")
	require.Error(t, err)
	_, err = NewDiscord("token", "")
	require.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	got := truncate(strings.Repeat("é", 10), 5)
	assert.Equal(t, 5, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestLogGateway(t *testing.T) {
	require.NoError(t, NewLog(nil).Send(context.Background(), "hi"))
}
