package dedup

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const window = time.Minute

func TestKey(t *testing.T) {
	assert.Equal(t, "click:1.2.3.4:curl/8.0:abcd1234", Key("1.2.3.4", "curl/8.0", "abcd1234"))
	assert.Equal(t, "click:1.2.3.4:unknown:abcd1234", Key("1.2.3.4", "", "abcd1234"))
}

func TestTryClaimFirstWins(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	key := Key("1.2.3.4", "ua", "abcd1234")
	mock.ExpectSetNX(key, "1", window).SetVal(true)
	mock.ExpectSetNX(key, "1", window).SetVal(false)

	d, err := New(rdb, window, 16, zap.NewNop())
	require.NoError(t, err)

	assert.True(t, d.TryClaim(context.Background(), key))
	assert.False(t, d.TryClaim(context.Background(), key))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTryClaimFallsBackOnRedisError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	key := Key("1.2.3.4", "ua", "abcd1234")
	mock.ExpectSetNX(key, "1", window).SetErr(errors.New("connection refused"))
	mock.ExpectSetNX(key, "1", window).SetErr(errors.New("connection refused"))

	d, err := New(rdb, window, 16, zap.NewNop())
	require.NoError(t, err)

	assert.True(t, d.TryClaim(context.Background(), key), "first claim during an outage is granted locally")
	assert.False(t, d.TryClaim(context.Background(), key), "second claim in the same window is denied locally")
}

func TestLocalFallbackWindowExpires(t *testing.T) {
	d, err := New(nil, window, 16, zap.NewNop())
	require.NoError(t, err)

	base := time.Now()
	d.now = func() time.Time { return base }

	key := Key("1.2.3.4", "ua", "abcd1234")
	assert.True(t, d.claimLocal(key))
	assert.False(t, d.claimLocal(key))

	d.now = func() time.Time { return base.Add(window + time.Second) }
	assert.True(t, d.claimLocal(key), "an expired local entry grants again")
	assert.False(t, d.claimLocal(key))
}

func TestLocalFallbackDistinctKeys(t *testing.T) {
	d, err := New(nil, window, 16, zap.NewNop())
	require.NoError(t, err)

	assert.True(t, d.claimLocal(Key("1.2.3.4", "ua", "abcd1234")))
	assert.True(t, d.claimLocal(Key("5.6.7.8", "ua", "abcd1234")))
	assert.True(t, d.claimLocal(Key("1.2.3.4", "ua", "other123")))
}

func TestConcurrentClaimsDuringOutage(t *testing.T) {
	// nothing listens here, every redis call fails fast
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { rdb.Close() })

	d, err := New(rdb, window, 1024, zap.NewNop())
	require.NoError(t, err)

	key := Key("1.2.3.4", "ua", "abcd1234")
	const n = 32

	var granted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d.TryClaim(context.Background(), key) {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), granted.Load(), "one instance grants at most one claim per window")
}
