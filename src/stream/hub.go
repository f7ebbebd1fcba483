package stream

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
)

// DefaultBuffer is the per-subscriber frame buffer
const DefaultBuffer = 4

// Source produces frames while at least one subscriber is attached.
// Run must return when ctx is cancelled.
type Source interface {
	Run(ctx context.Context, publish func(frame []byte))
}

type subscriber struct {
	id     uint64
	frames chan []byte
}

// Hub fans frames out from a single Source to every attached subscriber.
// The source runs only while the hub has subscribers, so an idle
// dashboard puts no load on the simulator.
type Hub struct {
	ctx    context.Context
	source Source

	mu          sync.Mutex
	subscribers map[uint64]*subscriber
	nextID      uint64
	cancel      context.CancelFunc // cancels the running source, nil when idle
	stopped     chan struct{}      // closed when the last source run returns
	onCount     func(int)
}

// Option configures a Hub
type Option func(*Hub)

// WithClientGauge reports the subscriber count whenever it changes
func WithClientGauge(fn func(int)) Option {
	return func(h *Hub) { h.onCount = fn }
}

// NewHub creates a hub; source runs are children of ctx
func NewHub(ctx context.Context, source Source, opts ...Option) *Hub {
	h := &Hub{
		ctx:         ctx,
		source:      source,
		subscribers: make(map[uint64]*subscriber),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Attach registers a subscriber. The returned channel receives frames
// until detach is called; detach is safe to call more than once.
func (h *Hub) Attach(buffer int) (<-chan []byte, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	h.mu.Lock()
	h.nextID++
	sub := &subscriber{id: h.nextID, frames: make(chan []byte, buffer)}
	h.subscribers[sub.id] = sub
	count := len(h.subscribers)
	if count == 1 {
		h.startLocked()
	}
	h.mu.Unlock()
	h.reportCount(count)

	var once sync.Once
	return sub.frames, func() {
		once.Do(func() { h.detach(sub.id) })
	}
}

func (h *Hub) detach(id uint64) {
	h.mu.Lock()
	delete(h.subscribers, id)
	count := len(h.subscribers)
	if count == 0 && h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	h.mu.Unlock()
	h.reportCount(count)
}

// Clients returns the number of attached subscribers
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Wait blocks until the most recent source run has returned
func (h *Hub) Wait() {
	h.mu.Lock()
	stopped := h.stopped
	h.mu.Unlock()
	if stopped != nil {
		<-stopped
	}
}

func (h *Hub) reportCount(n int) {
	if h.onCount != nil {
		h.onCount(n)
	}
}

// startLocked launches a source run. A new run waits for the previous one
// to return so two runs never poll at the same time. Caller holds h.mu.
func (h *Hub) startLocked() {
	ctx, cancel := context.WithCancel(h.ctx)
	prev := h.stopped
	stopped := make(chan struct{})
	h.cancel = cancel
	h.stopped = stopped

	go func() {
		defer close(stopped)
		if prev != nil {
			// prev was cancelled when its last subscriber left
			<-prev
			if ctx.Err() != nil {
				return
			}
		}
		log.Println("Stream source started")
		h.source.Run(ctx, h.publish)
		log.Println("Stream source stopped")
	}()
}

// publish delivers frame to every subscriber without blocking; a
// subscriber that has fallen behind misses the frame.
func (h *Hub) publish(frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subscribers {
		select {
		case sub.frames <- frame:
		default:
			log.Printf("Warning: subscriber %d channel full, dropping frame\n", sub.id)
		}
	}
}

// ServeHTTP streams frames to a browser as Server-Sent Events
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	frames, detach := h.Attach(DefaultBuffer)
	defer detach()
	log.Printf("Stream client connected from %s (%d clients)\n", r.RemoteAddr, h.Clients())

	for {
		select {
		case frame := <-frames:
			if err := WriteEvent(w, frame); err != nil {
				log.Printf("Stream client %s write failed: %v\n", r.RemoteAddr, err)
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			log.Printf("Stream client %s disconnected\n", r.RemoteAddr)
			return
		}
	}
}

// WriteEvent writes one SSE data event
func WriteEvent(w io.Writer, data []byte) error {
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}
