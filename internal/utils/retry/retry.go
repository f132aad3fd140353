// Package retry re-runs optimistic writes that lost a version race.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/SscSPs/splitledger/internal/apperrors"
)

// Policy bounds OnConflict. Attempts includes the first call.
type Policy struct {
	Attempts int
	Backoff  time.Duration
}

// OnConflict calls fn until it returns something other than
// apperrors.ErrVersionConflict, Attempts runs out, or ctx is done.
// fn must reload whatever state it depends on each time it is called.
func OnConflict(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	if p.Attempts <= 0 {
		p.Attempts = 1
	}
	var err error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		err = fn(ctx)
		if err == nil || !errors.Is(err, apperrors.ErrVersionConflict) {
			return err
		}
		if attempt == p.Attempts {
			break
		}
		if p.Backoff > 0 {
			timer := time.NewTimer(p.Backoff * time.Duration(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return err
}
