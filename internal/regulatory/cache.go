package regulatory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/moneta-erp/moneta/internal/shared"
)

// SnapshotCache keeps locked snapshots in Redis. Locked periods are
// immutable, so entries never need invalidation; a miss just falls through to
// the repository.
type SnapshotCache struct {
	client *redis.Client
}

// NewSnapshotCache constructs SnapshotCache.
func NewSnapshotCache(client *redis.Client) *SnapshotCache {
	return &SnapshotCache{client: client}
}

func cacheKey(key PeriodKey) string {
	scope := string(shared.ScopeAllBranches)
	if !key.Scope.IsAll() {
		scope = key.Scope.BranchID()
	}
	return fmt.Sprintf("regulatory:period:%s:%d:%d", scope, key.Year, key.Quarter)
}

// Get returns the cached snapshot. Any cache failure reads as a miss.
func (c *SnapshotCache) Get(ctx context.Context, key PeriodKey) (Snapshot, bool) {
	if c == nil || c.client == nil {
		return Snapshot{}, false
	}
	payload, err := c.client.Get(ctx, cacheKey(key)).Bytes()
	if err != nil {
		return Snapshot{}, false
	}
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return Snapshot{}, false
	}
	return snap, true
}

// Put stores the snapshot without expiry. Best-effort: a failed write only
// costs a later repository read.
func (c *SnapshotCache) Put(ctx context.Context, key PeriodKey, snap Snapshot) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return
	}
	c.client.Set(ctx, cacheKey(key), payload, 0)
}
