package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// AuthHeader carries the CommAPIKey on every request
const AuthHeader = "DTGCommKey"

// DefaultTimeout bounds each upstream request; it stays below the poll interval
const DefaultTimeout = 400 * time.Millisecond

// Observer is notified after every upstream request
type Observer interface {
	ObserveRequest(op string, err error, elapsed time.Duration)
}

// StatusError is returned when the simulator answers with a non-2xx status
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Client talks to the simulator's subscription API
type Client struct {
	baseURL        string
	apiKey         string
	subscriptionID int
	http           *http.Client
	observer       Observer
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithSubscriptionID selects the upstream subscription set
func WithSubscriptionID(id int) Option {
	return func(c *Client) { c.subscriptionID = id }
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithObserver registers a request observer
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient creates a client for the API at baseURL (e.g. http://localhost:31270)
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		subscriptionID: 1,
		http:           &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DeleteSubscription removes the whole subscription set
func (c *Client) DeleteSubscription(ctx context.Context) error {
	_, err := c.do(ctx, "delete", http.MethodDelete, "/subscription")
	return err
}

// CreateSubscription subscribes to a single path
func (c *Client) CreateSubscription(ctx context.Context, path string) error {
	_, err := c.do(ctx, "create", http.MethodPost, "/subscription/"+url.PathEscape(path))
	return err
}

// Poll fetches the current value of every subscribed path
func (c *Client) Poll(ctx context.Context) ([]byte, error) {
	return c.do(ctx, "poll", http.MethodGet, "/subscription/")
}

func (c *Client) do(ctx context.Context, op, method, path string) ([]byte, error) {
	start := time.Now()
	body, err := c.request(ctx, op, method, path)
	if c.observer != nil {
		c.observer.ObserveRequest(op, err, time.Since(start))
	}
	return body, err
}

func (c *Client) request(ctx context.Context, op, method, path string) ([]byte, error) {
	target := fmt.Sprintf("%s%s?Subscription=%d", c.baseURL, path, c.subscriptionID)

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set(AuthHeader, c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(truncate(string(body), 200))}
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
