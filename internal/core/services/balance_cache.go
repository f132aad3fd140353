package services

import (
	"sync"

	"github.com/SscSPs/splitledger/internal/core/domain"
	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultBalanceCacheSize = 256

// CacheToken identifies the ledger state a computation started from.
type CacheToken struct {
	epoch      uint64
	generation uint64
}

type cachedSnapshot struct {
	token    CacheToken
	snapshot *domain.GroupBalanceSnapshot
}

// BalanceSnapshotCache keeps computed snapshots per group. Each group has a
// generation that every ledger write bumps; a snapshot computed from an older
// generation is never stored.
type BalanceSnapshotCache struct {
	mu          sync.Mutex
	entries     *lru.Cache[string, cachedSnapshot]
	generations map[string]uint64
	epoch       uint64
}

var _ portssvc.BalanceCache = (*BalanceSnapshotCache)(nil)

// NewBalanceSnapshotCache creates a cache holding up to size groups.
func NewBalanceSnapshotCache(size int) (*BalanceSnapshotCache, error) {
	if size <= 0 {
		size = defaultBalanceCacheSize
	}
	entries, err := lru.New[string, cachedSnapshot](size)
	if err != nil {
		return nil, err
	}
	return &BalanceSnapshotCache{
		entries:     entries,
		generations: make(map[string]uint64),
	}, nil
}

// Token returns the current state marker of groupID.
func (c *BalanceSnapshotCache) Token(groupID string) CacheToken {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheToken{epoch: c.epoch, generation: c.generations[groupID]}
}

// Get returns the snapshot of groupID if one is cached for the current state.
func (c *BalanceSnapshotCache) Get(groupID string) (*domain.GroupBalanceSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries.Get(groupID)
	if !ok {
		return nil, false
	}
	if entry.token != (CacheToken{epoch: c.epoch, generation: c.generations[groupID]}) {
		c.entries.Remove(groupID)
		return nil, false
	}
	return entry.snapshot, true
}

// Store caches snapshot unless the group changed since token was taken.
func (c *BalanceSnapshotCache) Store(groupID string, token CacheToken, snapshot *domain.GroupBalanceSnapshot) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token != (CacheToken{epoch: c.epoch, generation: c.generations[groupID]}) {
		return false
	}
	c.entries.Add(groupID, cachedSnapshot{token: token, snapshot: snapshot})
	return true
}

func (c *BalanceSnapshotCache) Invalidate(groupID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[groupID]++
	c.entries.Remove(groupID)
}

func (c *BalanceSnapshotCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.entries.Purge()
}
