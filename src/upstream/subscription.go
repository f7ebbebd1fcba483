package upstream

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultCreateDelay spaces out subscription requests so the simulator keeps up
const DefaultCreateDelay = 250 * time.Millisecond

// Subscriber is the part of Client the Manager needs
type Subscriber interface {
	DeleteSubscription(ctx context.Context) error
	CreateSubscription(ctx context.Context, path string) error
}

// Manager owns the upstream subscription set. Subscriptions outlive our
// connections, so the set is torn down and recreated once per process.
type Manager struct {
	client Subscriber
	paths  []string
	delay  time.Duration

	mu      sync.Mutex // held for the whole delete+create batch
	created atomic.Bool
}

// NewManager creates a Manager for the given paths, created in order
func NewManager(client Subscriber, paths []string, delay time.Duration) *Manager {
	return &Manager{
		client: client,
		paths:  append([]string(nil), paths...),
		delay:  delay,
	}
}

// Created reports whether the creation batch has run
func (m *Manager) Created() bool {
	return m.created.Load()
}

// Setup deletes any stale subscription set and creates ours. Only the
// first call does any work; concurrent callers wait for it to finish and
// get nil. The returned paths failed to subscribe.
func (m *Manager) Setup(ctx context.Context) []string {
	if m.created.Load() {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.created.Load() {
		return nil
	}

	_ = m.DeleteExisting(ctx)
	return m.createAllLocked(ctx)
}

// DeleteExisting removes the subscription set. The set may not exist yet,
// so failure is logged and returned but never fatal.
func (m *Manager) DeleteExisting(ctx context.Context) error {
	log.Println("Deleting old subscription...")
	if err := m.client.DeleteSubscription(ctx); err != nil {
		log.Printf("Failed to delete old subscription, old subscription may not exist: %v\n", err)
		return err
	}
	log.Println("Old subscription deleted")
	return nil
}

// CreateAll subscribes to every path once per Manager. Failed paths are
// logged and returned; they are not retried.
func (m *Manager) CreateAll(ctx context.Context) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createAllLocked(ctx)
}

func (m *Manager) createAllLocked(ctx context.Context) []string {
	if m.created.Load() {
		log.Println("Subscriptions already created, skipping")
		return nil
	}

	log.Printf("Creating %d subscriptions...\n", len(m.paths))
	var failed []string
	for i, path := range m.paths {
		if i > 0 && !sleep(ctx, m.delay) {
			// Interrupted before every path was attempted; leave created
			// unset so the next Setup starts over.
			log.Printf("Subscription creation interrupted after %d of %d\n", i, len(m.paths))
			return append(failed, m.paths[i:]...)
		}

		if err := m.client.CreateSubscription(ctx, path); err != nil {
			log.Printf("Failed to create subscription %s: %v\n", path, err)
			failed = append(failed, path)
			continue
		}
		log.Printf("Subscription created for %s\n", path)
	}

	m.created.Store(true)
	if len(failed) > 0 {
		log.Printf("Subscriptions created with %d failures (restart to retry)\n", len(failed))
	} else {
		log.Println("All subscriptions created")
	}
	return failed
}

// sleep waits for d, returning false if ctx ends first
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
