package services_test

import (
	"testing"

	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/SscSPs/splitledger/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceSnapshotCache(t *testing.T) {
	newCache := func(t *testing.T) *services.BalanceSnapshotCache {
		c, err := services.NewBalanceSnapshotCache(0)
		require.NoError(t, err)
		return c
	}
	snapshot := &domain.GroupBalanceSnapshot{GroupID: "g1", BaseCurrencyCode: "USD"}

	t.Run("stores and serves", func(t *testing.T) {
		c := newCache(t)
		assert.True(t, c.Store("g1", c.Token("g1"), snapshot))

		got, ok := c.Get("g1")
		require.True(t, ok)
		assert.Same(t, snapshot, got)
	})

	t.Run("invalidate drops the group only", func(t *testing.T) {
		c := newCache(t)
		other := &domain.GroupBalanceSnapshot{GroupID: "g2"}
		require.True(t, c.Store("g1", c.Token("g1"), snapshot))
		require.True(t, c.Store("g2", c.Token("g2"), other))

		c.Invalidate("g1")

		_, ok := c.Get("g1")
		assert.False(t, ok)
		_, ok = c.Get("g2")
		assert.True(t, ok)
	})

	t.Run("rejects a computation that raced with a write", func(t *testing.T) {
		c := newCache(t)
		token := c.Token("g1")
		c.Invalidate("g1")

		assert.False(t, c.Store("g1", token, snapshot))
		_, ok := c.Get("g1")
		assert.False(t, ok)
	})

	t.Run("purge invalidates every group", func(t *testing.T) {
		c := newCache(t)
		token := c.Token("g2")
		require.True(t, c.Store("g1", c.Token("g1"), snapshot))

		c.Purge()

		_, ok := c.Get("g1")
		assert.False(t, ok)
		assert.False(t, c.Store("g2", token, snapshot))
	})
}
