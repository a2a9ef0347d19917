package regulatory

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/moneta-erp/moneta/internal/shared"
)

func newTestCache(t *testing.T) *SnapshotCache {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewSnapshotCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestSnapshotCacheRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	key := PeriodKey{Scope: shared.ScopeAllBranches, Year: 2025, Quarter: 1}
	snap := Snapshot{
		Rows:        []ReportRow{{CustomerID: "cust-a", CustomerCode: "C001", Name: "Budi Santoso", OperatorID: "OP-7"}},
		CustomerIDs: []string{"cust-a"},
		Summary:     Summary{Total: 1, Individuals: 1},
		LockedBy:    "compliance-1",
		LockedAt:    time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
	}

	_, ok := cache.Get(ctx, key)
	require.False(t, ok)

	cache.Put(ctx, key, snap)
	got, ok := cache.Get(ctx, key)
	require.True(t, ok)
	require.Equal(t, snap, got)

	// A different quarter is a different key.
	_, ok = cache.Get(ctx, PeriodKey{Scope: shared.ScopeAllBranches, Year: 2025, Quarter: 2})
	require.False(t, ok)
}

func TestSnapshotCacheScopesDoNotCollide(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	allKey := PeriodKey{Scope: shared.ScopeAllBranches, Year: 2025, Quarter: 1}
	branchKey := PeriodKey{Scope: shared.ScopeFor("br-1"), Year: 2025, Quarter: 1}

	cache.Put(ctx, allKey, Snapshot{LockedBy: "all"})
	cache.Put(ctx, branchKey, Snapshot{LockedBy: "branch"})

	got, ok := cache.Get(ctx, allKey)
	require.True(t, ok)
	require.Equal(t, "all", got.LockedBy)

	got, ok = cache.Get(ctx, branchKey)
	require.True(t, ok)
	require.Equal(t, "branch", got.LockedBy)
}

func TestNilCacheIsInert(t *testing.T) {
	var cache *SnapshotCache
	ctx := context.Background()
	key := PeriodKey{Scope: shared.ScopeAllBranches, Year: 2025, Quarter: 1}

	cache.Put(ctx, key, Snapshot{})
	_, ok := cache.Get(ctx, key)
	require.False(t, ok)
}
