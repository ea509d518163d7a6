package ratelimit

import (
	"context"
	"strconv"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time               { return c.t }
func (c *clock) advance(d time.Duration)      { c.t = c.t.Add(d) }
func (c *clock) field(d time.Duration) string { return strconv.FormatInt(c.t.Add(d).Unix(), 10) }

func hkeys(t *testing.T, m *mr.Miniredis, key string) []string {
	t.Helper()
	keys, err := m.HKeys(key)
	require.NoError(t, err)
	return keys
}

func newLimiter(t *testing.T) (*Limiter, *mr.Miniredis, *clock) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := &clock{t: time.Unix(1_700_000_000, 0)}
	l, err := New(client, DefaultLimit, DefaultWindow, DefaultBucket, WithClock(c.now))
	require.NoError(t, err)
	return l, m, c
}

func TestFirstTouchCreatesSingleBucket(t *testing.T) {
	l, m, c := newLimiter(t)
	ctx := context.Background()

	limited, err := l.ShouldRateLimit(ctx, "rl:user:a@example.com")
	require.NoError(t, err)
	require.False(t, limited)

	require.Equal(t, []string{c.field(0)}, hkeys(t, m, "rl:user:a@example.com"))
	require.Equal(t, "1", m.HGet("rl:user:a@example.com", c.field(0)))
	require.Equal(t, DefaultWindow, m.TTL("rl:user:a@example.com"))
}

func TestLimitBoundary(t *testing.T) {
	l, m, _ := newLimiter(t)
	ctx := context.Background()
	key := "rl:user:b@example.com"

	// The first touch of a key records request 1, so requests 1 through
	// DefaultLimit pass and request DefaultLimit+1 is the first one limited.
	for i := 1; i <= DefaultLimit; i++ {
		limited, err := l.ShouldRateLimit(ctx, key)
		require.NoError(t, err)
		require.False(t, limited, "request %d", i)
	}

	d, err := l.Check(ctx, key)
	require.NoError(t, err)
	require.True(t, d.Limited)
	require.EqualValues(t, DefaultLimit, d.Count)
	require.Equal(t, DefaultWindow, d.RetryAfter)

	// rejected requests are not counted
	limited, err := l.ShouldRateLimit(ctx, key)
	require.NoError(t, err)
	require.True(t, limited)
	require.Len(t, hkeys(t, m, key), 1)
	require.Equal(t, strconv.Itoa(DefaultLimit), m.HGet(key, hkeys(t, m, key)[0]))
}

func TestRequestsShareBucketUntilItAges(t *testing.T) {
	l, m, c := newLimiter(t)
	ctx := context.Background()
	key := "rl:user:c@example.com"
	start := c.field(0)

	_, err := l.ShouldRateLimit(ctx, key)
	require.NoError(t, err)
	c.advance(30 * time.Minute)
	_, err = l.ShouldRateLimit(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "2", m.HGet(key, start))

	c.advance(31 * time.Minute)
	_, err = l.ShouldRateLimit(ctx, key)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{start, c.field(0)}, hkeys(t, m, key))
	require.Equal(t, "1", m.HGet(key, c.field(0)))
}

func TestStaleBucketsArePruned(t *testing.T) {
	l, m, c := newLimiter(t)
	ctx := context.Background()
	key := "rl:user:d@example.com"

	stale := c.field(-4 * time.Hour)
	m.HSet(key, stale, "300")

	d, err := l.Check(ctx, key)
	require.NoError(t, err)
	require.False(t, d.Limited)
	require.EqualValues(t, 1, d.Count)
	require.Equal(t, []string{c.field(0)}, hkeys(t, m, key))
}

func TestWindowSlides(t *testing.T) {
	l, _, c := newLimiter(t)
	ctx := context.Background()
	key := "rl:user:e@example.com"

	for i := 0; i < DefaultLimit; i++ {
		_, err := l.ShouldRateLimit(ctx, key)
		require.NoError(t, err)
	}
	c.advance(2 * time.Hour)
	d, err := l.Check(ctx, key)
	require.NoError(t, err)
	require.True(t, d.Limited)
	require.Equal(t, time.Hour, d.RetryAfter)

	c.advance(time.Hour)
	limited, err := l.ShouldRateLimit(ctx, key)
	require.NoError(t, err)
	require.False(t, limited)
}

func TestKeysAreIndependent(t *testing.T) {
	l, err := New(redis.NewClient(&redis.Options{Addr: mr.RunT(t).Addr()}), 1, time.Hour, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	limited, err := l.ShouldRateLimit(ctx, "rl:ip:10.0.0.1")
	require.NoError(t, err)
	require.False(t, limited)
	limited, err = l.ShouldRateLimit(ctx, "rl:ip:10.0.0.1")
	require.NoError(t, err)
	require.True(t, limited)
	limited, err = l.ShouldRateLimit(ctx, "rl:ip:10.0.0.2")
	require.NoError(t, err)
	require.False(t, limited)
}

func TestCacheErrorIsReturned(t *testing.T) {
	l, m, _ := newLimiter(t)
	m.Close()

	_, err := l.ShouldRateLimit(context.Background(), "rl:user:f@example.com")
	require.Error(t, err)
}

func TestNewValidates(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	_, err := New(nil, 1, time.Hour, time.Minute)
	require.Error(t, err)
	_, err = New(client, 0, time.Hour, time.Minute)
	require.Error(t, err)
	_, err = New(client, 1, time.Hour, 2*time.Hour)
	require.Error(t, err)
}
