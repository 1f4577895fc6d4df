package redis

import (
	"context"
	"errors"
	"time"

	"github.com/language-study/study-hub/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT CACHE
// Caches assembled study snapshots per user. Entries carry the 5-minute
// TTL as a backstop; mutations invalidate explicitly so a reload after a
// write always sees fresh data.
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotCache implements progress.SnapshotCache on Redis.
type SnapshotCache struct {
	cache *Cache
}

// NewSnapshotCache creates the cache.
func NewSnapshotCache(cache *Cache) *SnapshotCache {
	return &SnapshotCache{cache: cache}
}

func snapshotKey(uid string) string {
	return PrefixSnapshot + uid
}

// Get returns the cached snapshot, or nil on a miss.
func (s *SnapshotCache) Get(ctx context.Context, uid string) (*progress.Snapshot, error) {
	var snap progress.Snapshot
	err := s.cache.GetJSON(ctx, snapshotKey(uid), &snap)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}

// Set stores the snapshot under its owner's key.
func (s *SnapshotCache) Set(ctx context.Context, snap *progress.Snapshot, ttl time.Duration) error {
	if snap == nil || snap.OwnerUID == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = progress.SnapshotMaxAge
	}
	return s.cache.SetJSON(ctx, snapshotKey(snap.OwnerUID), snap, ttl)
}

// Invalidate drops the owner's cached snapshot.
func (s *SnapshotCache) Invalidate(ctx context.Context, uid string) error {
	return s.cache.Delete(ctx, snapshotKey(uid))
}
