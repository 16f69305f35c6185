// Package cache is a cache-aside layer over the link store backed by redis.
// Redis being down never fails a lookup; the store answers instead.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"smartlink/store"
)

const keyPrefix = "link:"

// Source is the backing lookup used on cache miss.
type Source interface {
	FindBySlug(ctx context.Context, slug string) (*store.Link, error)
}

// Links resolves slugs to link records, filling redis on miss.
type Links struct {
	rdb *redis.Client
	src Source
	ttl time.Duration
	log *zap.Logger
}

func New(rdb *redis.Client, src Source, ttl time.Duration, log *zap.Logger) *Links {
	return &Links{rdb: rdb, src: src, ttl: ttl, log: log}
}

func Key(slug string) string { return keyPrefix + slug }

// Resolve returns the link for slug. Cache hits are served without touching
// the store. Misses fill the cache best-effort. Absent slugs are never
// cached, so a freshly created link is visible immediately. Any redis error
// falls through to the store.
func (l *Links) Resolve(ctx context.Context, slug string) (*store.Link, error) {
	key := Key(slug)

	data, err := l.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var link store.Link
		if jerr := json.Unmarshal(data, &link); jerr == nil {
			return &link, nil
		}
		// corrupt entry — evict and fall through to the store
		l.log.Warn("evicting undecodable cache entry", zap.String("key", key))
		l.rdb.Del(ctx, key)
	case errors.Is(err, redis.Nil):
		// miss, fill below
	default:
		l.log.Warn("cache read failed, serving from store", zap.String("slug", slug), zap.Error(err))
		return l.src.FindBySlug(ctx, slug)
	}

	link, err := l.src.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if b, jerr := json.Marshal(link); jerr == nil {
		if serr := l.rdb.Set(ctx, key, b, l.ttl).Err(); serr != nil {
			l.log.Warn("cache fill failed", zap.String("slug", slug), zap.Error(serr))
		}
	}
	return link, nil
}

// RefreshTTL re-arms the expiry of a cached link after its counters changed,
// so the snapshot does not outlive the update by the full TTL. A missing key
// or a redis error is fine; the next Resolve refills.
func (l *Links) RefreshTTL(ctx context.Context, slug string) error {
	return l.rdb.Expire(ctx, Key(slug), l.ttl).Err()
}
