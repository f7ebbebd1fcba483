package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Key    string
}

// fakeSimulator records every request and answers with the configured status
type fakeSimulator struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   map[string]int // keyed by method+path
	body     string
	delay    time.Duration
}

func newFakeSimulator(t *testing.T) (*fakeSimulator, *httptest.Server) {
	sim := &fakeSimulator{status: make(map[string]int)}
	srv := httptest.NewServer(sim)
	t.Cleanup(srv.Close)
	return sim, srv
}

func (s *fakeSimulator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Key:    r.Header.Get(AuthHeader),
	})
	status, ok := s.status[r.Method+" "+r.URL.Path]
	body, delay := s.body, s.delay
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if ok {
		w.WriteHeader(status)
		return
	}
	_, _ = w.Write([]byte(body))
}

func (s *fakeSimulator) Requests() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedRequest(nil), s.requests...)
}

type observedRequest struct {
	op  string
	err error
}

type fakeObserver struct {
	mu       sync.Mutex
	observed []observedRequest
}

func (o *fakeObserver) ObserveRequest(op string, err error, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observed = append(o.observed, observedRequest{op: op, err: err})
}

func TestClient_Requests(t *testing.T) {
	sim, srv := newFakeSimulator(t)
	sim.body = `{"Entries":[]}`
	client := NewClient(srv.URL+"/", "secret", WithSubscriptionID(3))
	ctx := context.Background()

	require.NoError(t, client.DeleteSubscription(ctx))
	require.NoError(t, client.CreateSubscription(ctx, "DriverAid.Data"))
	body, err := client.Poll(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Entries":[]}`, string(body))

	assert.Equal(t, []recordedRequest{
		{Method: http.MethodDelete, Path: "/subscription", Query: "Subscription=3", Key: "secret"},
		{Method: http.MethodPost, Path: "/subscription/DriverAid.Data", Query: "Subscription=3", Key: "secret"},
		{Method: http.MethodGet, Path: "/subscription/", Query: "Subscription=3", Key: "secret"},
	}, sim.Requests())
}

func TestClient_StatusError(t *testing.T) {
	sim, srv := newFakeSimulator(t)
	sim.status["GET /subscription/"] = http.StatusForbidden
	client := NewClient(srv.URL, "wrong")

	_, err := client.Poll(context.Background())
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	assert.Equal(t, "poll", statusErr.Op)
}

func TestClient_Timeout(t *testing.T) {
	sim, srv := newFakeSimulator(t)
	sim.delay = 200 * time.Millisecond
	client := NewClient(srv.URL, "secret", WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := client.Poll(context.Background())
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}

func TestClient_Unreachable(t *testing.T) {
	_, srv := newFakeSimulator(t)
	srv.Close()
	client := NewClient(srv.URL, "secret")

	err := client.DeleteSubscription(context.Background())
	assert.Error(t, err)
}

func TestClient_Observer(t *testing.T) {
	sim, srv := newFakeSimulator(t)
	sim.status["POST /subscription/Bad.Path"] = http.StatusNotFound
	obs := &fakeObserver{}
	client := NewClient(srv.URL, "secret", WithObserver(obs))
	ctx := context.Background()

	_, _ = client.Poll(ctx)
	_ = client.CreateSubscription(ctx, "Bad.Path")

	require.Len(t, obs.observed, 2)
	assert.Equal(t, "poll", obs.observed[0].op)
	assert.NoError(t, obs.observed[0].err)
	assert.Equal(t, "create", obs.observed[1].op)
	assert.Error(t, obs.observed[1].err)
}
