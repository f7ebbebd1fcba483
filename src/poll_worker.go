package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/ryansname/tswdash/src/telemetry"
)

// poller fetches the current subscription values
type poller interface {
	Poll(ctx context.Context) ([]byte, error)
}

// subscriptionSetup ensures the upstream subscription set exists
type subscriptionSetup interface {
	Setup(ctx context.Context) []string
}

// pollWorker polls the simulator on a fixed interval and publishes one
// JSON frame per tick: a normalized record, or an error record.
type pollWorker struct {
	client     poller
	subs       subscriptionSetup
	normalizer *telemetry.Normalizer
	interval   time.Duration
	metrics    *relayMetrics
}

func newPollWorker(
	client poller,
	subs subscriptionSetup,
	units telemetry.UnitSystem,
	interval time.Duration,
	metrics *relayMetrics,
) *pollWorker {
	return &pollWorker{
		client:     client,
		subs:       subs,
		normalizer: telemetry.NewNormalizer(units),
		interval:   interval,
		metrics:    metrics,
	}
}

// Run implements stream.Source. Ticks never overlap: each poll completes
// (bounded by the request timeout) before the next tick is taken.
func (w *pollWorker) Run(ctx context.Context, publish func(frame []byte)) {
	log.Println("Poll worker started")
	defer log.Println("Poll worker stopped")

	if failed := w.subs.Setup(ctx); failed != nil && w.metrics != nil {
		w.metrics.SetFailedPaths(len(failed))
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			frame := w.tick(ctx)
			if ctx.Err() != nil {
				return
			}
			publish(frame)
		case <-ctx.Done():
			return
		}
	}
}

// tick performs one poll and returns the frame to publish
func (w *pollWorker) tick(ctx context.Context) []byte {
	rec, err := w.poll(ctx)
	if w.metrics != nil {
		w.metrics.ObservePoll(err)
	}
	if err != nil {
		return errorFrame(err)
	}

	frame, err := json.Marshal(rec)
	if err != nil {
		return errorFrame(fmt.Errorf("encode record: %w", err))
	}
	return frame
}

func (w *pollWorker) poll(ctx context.Context) (telemetry.Record, error) {
	body, err := w.client.Poll(ctx)
	if err != nil {
		return telemetry.Record{}, err
	}
	resp, err := telemetry.ParseResponse(body)
	if err != nil {
		return telemetry.Record{}, err
	}
	return w.normalizer.Normalize(resp), nil
}

// errorFrame renders a poll failure for downstream clients
func errorFrame(err error) []byte {
	frame, _ := json.Marshal(telemetry.ErrorRecord{
		Error: "Failed to fetch TSW data: " + err.Error(),
	})
	return frame
}
