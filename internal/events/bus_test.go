package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryBus_DeliversToAllSubscribers(t *testing.T) {
	bus := NewInMemoryBus(Options{MaxAttempts: 1, Backoff: time.Millisecond})

	var mu sync.Mutex
	seen := map[string]string{}
	for _, name := range []string{"a", "b"} {
		name := name
		bus.SubscribeMemberRemoved(name, func(_ context.Context, evt MemberRemoved) error {
			mu.Lock()
			defer mu.Unlock()
			seen[name] = evt.MemberID
			return nil
		})
	}

	require.NoError(t, bus.PublishMemberRemoved(context.Background(), MemberRemoved{EventID: "e1", GroupID: "g1", MemberID: "bob"}))
	require.NoError(t, bus.Close(context.Background()))

	assert.Equal(t, map[string]string{"a": "bob", "b": "bob"}, seen)
}

func TestInMemoryBus_RetriesUntilSuccess(t *testing.T) {
	bus := NewInMemoryBus(Options{MaxAttempts: 3, Backoff: time.Millisecond})

	var calls int32
	bus.SubscribeMemberRemoved("flaky", func(context.Context, MemberRemoved) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, bus.PublishMemberRemoved(context.Background(), MemberRemoved{EventID: "e1"}))
	require.NoError(t, bus.Close(context.Background()))

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestInMemoryBus_GivesUpAfterMaxAttempts(t *testing.T) {
	bus := NewInMemoryBus(Options{MaxAttempts: 2, Backoff: time.Millisecond})

	var calls int32
	bus.SubscribeMemberRemoved("broken", func(context.Context, MemberRemoved) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("permanent")
	})

	require.NoError(t, bus.PublishMemberRemoved(context.Background(), MemberRemoved{EventID: "e1"}))
	require.NoError(t, bus.Close(context.Background()))

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestInMemoryBus_PublishAfterCloseFails(t *testing.T) {
	bus := NewInMemoryBus(Options{})
	require.NoError(t, bus.Close(context.Background()))

	err := bus.PublishMemberRemoved(context.Background(), MemberRemoved{})
	assert.ErrorIs(t, err, ErrBusClosed)
}

func TestInMemoryBus_DeliveryOutlivesCanceledPublisherContext(t *testing.T) {
	bus := NewInMemoryBus(Options{MaxAttempts: 1})

	var ctxErr error
	bus.SubscribeMemberRemoved("late", func(ctx context.Context, _ MemberRemoved) error {
		time.Sleep(5 * time.Millisecond)
		ctxErr = ctx.Err()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, bus.PublishMemberRemoved(ctx, MemberRemoved{EventID: "e1"}))
	cancel()
	require.NoError(t, bus.Close(context.Background()))

	assert.NoError(t, ctxErr)
}
