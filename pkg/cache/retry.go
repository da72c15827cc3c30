package cache

import (
	"context"
	"errors"
	"time"
)

// transientError marks a backend failure worth another attempt.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as retryable. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err, or anything it wraps, was marked with
// [Transient].
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

var (
	retryAttempts = 3
	retryBase     = 200 * time.Millisecond
)

// withRetry runs fn until it succeeds, fails permanently, or retryAttempts
// is used up. The wait doubles after every transient failure.
func withRetry(ctx context.Context, fn func() error) error {
	delay := retryBase
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil || !IsTransient(err) || attempt == retryAttempts {
			return err
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}
