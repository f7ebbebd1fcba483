package stream

import (
	"bufio"
	"bytes"
	"context"
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

// tickSource publishes a numbered frame every interval
type tickSource struct {
	interval time.Duration
	runs     atomic.Int32
	active   atomic.Int32
	overlap  atomic.Bool
}

func (s *tickSource) Run(ctx context.Context, publish func([]byte)) {
	s.runs.Add(1)
	if s.active.Add(1) > 1 {
		s.overlap.Store(true)
	}
	defer s.active.Add(-1)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	n := 0
	for {
		select {
		case <-ticker.C:
			n++
			publish([]byte(`{"n":` + string(rune('0'+n%10)) + `}`))
		case <-ctx.Done():
			return
		}
	}
}

func receive(t *testing.T, frames <-chan []byte) []byte {
	t.Helper()
	select {
	case f := <-frames:
		return f
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return nil
	}
}

func TestHub_FanOut(t *testing.T) {
	src := &tickSource{interval: 5 * time.Millisecond}
	hub := NewHub(context.Background(), src)

	a, detachA := hub.Attach(16)
	b, detachB := hub.Attach(16)
	defer detachA()
	defer detachB()

	assert.NotEmpty(t, receive(t, a))
	assert.NotEmpty(t, receive(t, b))
	assert.Equal(t, int32(1), src.runs.Load(), "one source serves every subscriber")
}

func TestHub_SourceFollowsSubscribers(t *testing.T) {
	src := &tickSource{interval: 5 * time.Millisecond}
	var counts []int
	var mu sync.Mutex
	hub := NewHub(context.Background(), src, WithClientGauge(func(n int) {
		mu.Lock()
		counts = append(counts, n)
		mu.Unlock()
	}))

	assert.Equal(t, int32(0), src.runs.Load())

	frames, detach := hub.Attach(1)
	receive(t, frames)
	detach()
	detach()
	hub.Wait()
	assert.Equal(t, int32(0), src.active.Load(), "source stops with the last subscriber")
	assert.Equal(t, 0, hub.Clients())

	frames, detach = hub.Attach(1)
	receive(t, frames)
	detach()
	hub.Wait()

	assert.Equal(t, int32(2), src.runs.Load())
	assert.False(t, src.overlap.Load())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 0, 1, 0}, counts)
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	src := &tickSource{interval: time.Millisecond}
	hub := NewHub(context.Background(), src)

	_, detachSlow := hub.Attach(1) // never read
	defer detachSlow()
	fast, detachFast := hub.Attach(1)
	defer detachFast()

	for n := 0; n < 5; n++ {
		receive(t, fast)
	}
}

func TestHub_CancelledParent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &tickSource{interval: time.Millisecond}
	hub := NewHub(ctx, src)

	_, detach := hub.Attach(1)
	defer detach()
	cancel()
	hub.Wait()
	assert.Equal(t, int32(0), src.active.Load())
}

func TestWriteEvent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteEvent(&buf, []byte(`{"speed":42}`)))
	assert.Equal(t, "data: {\"speed\":42}\n\n", buf.String())
}

func TestHub_ServeHTTP(t *testing.T) {
	src := &tickSource{interval: 5 * time.Millisecond}
	hub := NewHub(context.Background(), src)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	reader := bufio.NewReader(resp.Body)
	for n := 0; n < 2; n++ {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(line, `data: {"n":`), line)
		blank, err := reader.ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, "\n", blank)
	}
	assert.Equal(t, 1, hub.Clients())

	cancel()
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 5*time.Millisecond)
	hub.Wait()
	assert.Equal(t, int32(0), src.active.Load())
}
