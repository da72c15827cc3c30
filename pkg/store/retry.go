package store

import (
	"context"
	"time"
)

// Connection retry settings for the network backends. A server started
// alongside fretsheet (docker compose, CI services) often refuses the first
// ping or two.
const (
	pingAttempts = 3
	pingDelay    = 250 * time.Millisecond
)

// retry runs fn up to attempts times, doubling delay after each failure.
// It returns nil on the first success, the last error once attempts run out,
// or ctx.Err() if ctx ends while waiting.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func(context.Context) error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if lastErr = fn(ctx); lastErr == nil {
			return nil
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}
