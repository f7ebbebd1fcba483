package main

import (
	"context"
	"log"
	"time"
)

// SafeGo launches a goroutine with panic recovery and retry logic.
// On panic, retries with exponential backoff (max 10 retries).
// Retry count resets if worker ran for 2+ minutes before failing.
// After exhausting retries, cancels context to trigger shutdown.
func SafeGo(
	ctx context.Context,
	cancel context.CancelFunc,
	name string,
	fn func(ctx context.Context),
) {
	go safeRun(ctx, cancel, name, time.Second, fn)
}

// safeRun is the body of SafeGo with a configurable initial delay
func safeRun(
	ctx context.Context,
	cancel context.CancelFunc,
	name string,
	initialDelay time.Duration,
	fn func(ctx context.Context),
) {
	const maxRetries = 10
	const maxDelay = 10 * time.Minute
	const resetAfter = 2 * time.Minute

	retries := 0
	delay := initialDelay

	for {
		startTime := time.Now()
		var panicValue any

		func() {
			defer func() {
				panicValue = recover()
			}()
			fn(ctx)
		}()

		// Normal return covers both context cancellation and unexpected completion
		if panicValue == nil {
			return
		}

		if time.Since(startTime) >= resetAfter {
			retries = 0
			delay = initialDelay
		}

		retries++
		log.Printf("Panic in %s (attempt %d/%d): %v\n", name, retries, maxRetries, panicValue)

		if retries >= maxRetries {
			log.Printf("%s failed after %d retries, shutting down\n", name, maxRetries)
			cancel()
			return
		}

		log.Printf("%s will retry in %v\n", name, delay)
		select {
		case <-time.After(delay):
			delay = min(delay*2, maxDelay)
		case <-ctx.Done():
			return
		}
	}
}
