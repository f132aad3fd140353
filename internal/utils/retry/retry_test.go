package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/SscSPs/splitledger/internal/apperrors"
)

func TestOnConflict_RetriesVersionConflicts(t *testing.T) {
	calls := 0
	err := OnConflict(context.Background(), Policy{Attempts: 3}, func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("stale: %w", apperrors.ErrVersionConflict)
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestOnConflict_ReturnsLastConflictWhenExhausted(t *testing.T) {
	calls := 0
	err := OnConflict(context.Background(), Policy{Attempts: 2}, func(context.Context) error {
		calls++
		return apperrors.ErrVersionConflict
	})
	assert.ErrorIs(t, err, apperrors.ErrVersionConflict)
	assert.Equal(t, 2, calls)
}

func TestOnConflict_DoesNotRetryOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := OnConflict(context.Background(), Policy{Attempts: 5}, func(context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestOnConflict_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := OnConflict(ctx, Policy{Attempts: 3, Backoff: time.Second}, func(context.Context) error {
		return apperrors.ErrVersionConflict
	})
	assert.ErrorIs(t, err, context.Canceled)
}
