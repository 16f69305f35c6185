package workers

import (
	"context"
	"time"

	"github.com/avast/retry-go"
	"go.uber.org/zap"

	"smartlink/platform"
)

// ClickEvent is one redirect hit, captured after the response was sent.
type ClickEvent struct {
	Key      string // dedup claim key for this visitor+slug
	Slug     string
	Platform platform.Platform
	Time     time.Time
}

// Claimer decides whether an event is the first in its dedup window.
type Claimer interface {
	TryClaim(ctx context.Context, key string) bool
}

// CounterStore applies atomic counter increments.
type CounterStore interface {
	IncrementClicks(ctx context.Context, slug string, p platform.Platform, n int64) error
}

// LinkCache re-arms the cached record's TTL after counters change.
type LinkCache interface {
	RefreshTTL(ctx context.Context, slug string) error
}

// ClickWorker consumes click events on a bounded queue, claims each against
// the deduplicator, and flushes merged per-slug counts to the store. Nothing
// here ever reaches a response path; every failure is logged and dropped.
type ClickWorker struct {
	store         CounterStore
	cache         LinkCache
	dedup         Claimer
	log           *zap.Logger
	in            chan ClickEvent
	batchSize     int
	flushInterval time.Duration
	closed        chan struct{}
}

type countKey struct {
	slug     string
	platform platform.Platform
}

func NewClickWorker(store CounterStore, cache LinkCache, dedup Claimer, log *zap.Logger, batchSize int, flushInterval time.Duration, buffer int) *ClickWorker {
	return &ClickWorker{
		store:         store,
		cache:         cache,
		dedup:         dedup,
		log:           log,
		in:            make(chan ClickEvent, buffer),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		closed:        make(chan struct{}),
	}
}

func (w *ClickWorker) Start() { go w.loop() }

// Stop drains the queue and flushes pending counts before returning.
func (w *ClickWorker) Stop() {
	close(w.in)
	<-w.closed
}

// Enqueue submits an event without blocking. It reports false when the
// buffer is full; the caller logs and moves on, analytics are best-effort.
func (w *ClickWorker) Enqueue(ev ClickEvent) bool {
	select {
	case w.in <- ev:
		return true
	default:
		return false
	}
}

func (w *ClickWorker) loop() {
	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()
	defer close(w.closed)

	counts := make(map[countKey]int64)
	total := 0

	flush := func() {
		if total == 0 {
			return
		}
		toFlush := counts
		counts = make(map[countKey]int64)
		total = 0
		w.flush(toFlush)
	}

	for {
		select {
		case ev, ok := <-w.in:
			if !ok {
				flush()
				return
			}
			if !w.claim(ev) {
				continue
			}
			counts[countKey{ev.Slug, ev.Platform}]++
			total++
			if total >= w.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (w *ClickWorker) claim(ev ClickEvent) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return w.dedup.TryClaim(ctx, ev.Key)
}

// flush writes one atomic increment per (slug, platform) pair and then
// refreshes the cache TTL for every touched slug.
func (w *ClickWorker) flush(rows map[countKey]int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
	defer cancel()

	touched := make(map[string]struct{}, len(rows))
	for k, n := range rows {
		if n <= 0 {
			continue
		}
		err := retry.Do(
			func() error { return w.store.IncrementClicks(ctx, k.slug, k.platform, n) },
			retry.Attempts(3),
			retry.Delay(125*time.Millisecond),
			retry.DelayType(retry.BackOffDelay),
			retry.LastErrorOnly(true),
			retry.OnRetry(func(attempt uint, err error) {
				w.log.Warn("retrying click increment",
					zap.String("slug", k.slug), zap.Uint("attempt", attempt+1), zap.Error(err))
			}),
		)
		if err != nil {
			w.log.Error("click increment failed, dropping count",
				zap.String("slug", k.slug), zap.String("platform", string(k.platform)),
				zap.Int64("count", n), zap.Error(err))
			continue
		}
		touched[k.slug] = struct{}{}
	}

	for slug := range touched {
		if err := w.cache.RefreshTTL(ctx, slug); err != nil {
			w.log.Debug("cache ttl refresh failed", zap.String("slug", slug), zap.Error(err))
		}
	}

	w.log.Debug("click batch flushed", zap.Int("pairs", len(rows)))
}
