// Package dedup grants at most one click claim per visitor, slug, and time
// window. Redis SETNX is the cross-instance arbiter; when redis is down each
// process falls back to a local map and keeps its own per-window cap, which
// means a click can be counted once per live instance during an outage.
package dedup

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "click:"

// Deduplicator decides whether a click is the first one in its window.
type Deduplicator struct {
	rdb    *redis.Client
	window time.Duration
	log    *zap.Logger

	// fallback holds last-grant timestamps keyed like redis. The LRU bound
	// keeps an extended outage from growing it without limit; eviction only
	// forgets old visitors, it never blocks a grant decision.
	mu       sync.Mutex
	fallback *lru.Cache
	now      func() time.Time
}

func New(rdb *redis.Client, window time.Duration, fallbackSize int, log *zap.Logger) (*Deduplicator, error) {
	fb, err := lru.New(fallbackSize)
	if err != nil {
		return nil, err
	}
	return &Deduplicator{
		rdb:      rdb,
		window:   window,
		log:      log,
		fallback: fb,
		now:      time.Now,
	}, nil
}

// Key builds the claim key for one visitor and slug. The raw IP and user
// agent are kept as-is to match what the analytics consider a visitor.
func Key(ip, userAgent, slug string) string {
	if userAgent == "" {
		userAgent = "unknown"
	}
	return keyPrefix + ip + ":" + userAgent + ":" + slug
}

// TryClaim reports whether this click should be counted. The claim is
// write-once per window: SETNX with TTL means only the first concurrent
// caller across all instances wins. A redis failure degrades to the local
// map for this call only.
func (d *Deduplicator) TryClaim(ctx context.Context, key string) bool {
	ok, err := d.rdb.SetNX(ctx, key, "1", d.window).Result()
	if err == nil {
		return ok
	}

	d.log.Warn("dedup cache unreachable, using local fallback", zap.Error(err))
	return d.claimLocal(key)
}

func (d *Deduplicator) claimLocal(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if v, ok := d.fallback.Get(key); ok {
		if last, ok := v.(time.Time); ok && now.Sub(last) < d.window {
			return false
		}
	}
	d.fallback.Add(key, now)
	return true
}
