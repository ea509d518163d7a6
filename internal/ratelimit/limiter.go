// Package ratelimit implements a sliding-window request limiter kept in Redis.
//
// Each key holds a hash of bucket start (unix seconds) to request count. A
// request is counted against every bucket younger than the window; new
// requests join the newest bucket while it is younger than the bucket size,
// otherwise they open a new bucket. The read, prune, decide and increment
// steps run as one Lua script so concurrent requests cannot overshoot.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultLimit  = 250
	DefaultWindow = 3 * time.Hour
	DefaultBucket = time.Hour
)

// KEYS[1] record key
// ARGV[1] now, ARGV[2] window seconds, ARGV[3] bucket seconds, ARGV[4] limit
// Returns {limited, count, oldest live bucket}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local bucket = tonumber(ARGV[3])
local limit = tonumber(ARGV[4])

if redis.call('EXISTS', key) == 0 then
  redis.call('HSET', key, ARGV[1], '1')
  redis.call('EXPIRE', key, ARGV[2])
  return {0, 1, now}
end

local entries = redis.call('HGETALL', key)
local total = 0
local latest = nil
local latestField = nil
local oldest = now
for i = 1, #entries, 2 do
  local ts = tonumber(entries[i])
  if ts == nil or ts <= now - window then
    redis.call('HDEL', key, entries[i])
  else
    total = total + tonumber(entries[i + 1])
    if latest == nil or ts > latest then
      latest = ts
      latestField = entries[i]
    end
    if ts < oldest then
      oldest = ts
    end
  end
end

if total >= limit then
  redis.call('EXPIRE', key, ARGV[2])
  return {1, total, oldest}
end

if latest ~= nil and latest > now - bucket then
  redis.call('HINCRBY', key, latestField, '1')
else
  redis.call('HSET', key, ARGV[1], '1')
end
redis.call('EXPIRE', key, ARGV[2])
return {0, total + 1, oldest}
`)

// Decision is the outcome of one limiter check.
type Decision struct {
	Limited bool
	// Count is the number of requests in the window, including this one when allowed.
	Count int64
	// RetryAfter is how long until the oldest bucket leaves the window. Zero when allowed.
	RetryAfter time.Duration
}

// Limiter checks keys against a sliding window.
type Limiter struct {
	client redis.Scripter
	limit  int
	window time.Duration
	bucket time.Duration
	now    func() time.Time
}

type Option func(*Limiter)

// WithClock overrides the time source; tests use it to move through buckets.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New returns a limiter allowing limit requests per window, grouped in buckets.
func New(client redis.Scripter, limit int, window, bucket time.Duration, opts ...Option) (*Limiter, error) {
	if client == nil {
		return nil, errors.New("ratelimit: nil redis client")
	}
	if limit <= 0 || window < time.Second || bucket < time.Second || bucket > window {
		return nil, fmt.Errorf("ratelimit: invalid limit=%d window=%s bucket=%s", limit, window, bucket)
	}
	l := &Limiter{client: client, limit: limit, window: window, bucket: bucket, now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l, nil
}

// Check records a request for key unless the key is already at its limit.
func (l *Limiter) Check(ctx context.Context, key string) (Decision, error) {
	now := l.now().Unix()
	res, err := slidingWindow.Run(ctx, l.client, []string{key},
		strconv.FormatInt(now, 10),
		strconv.FormatInt(int64(l.window/time.Second), 10),
		strconv.FormatInt(int64(l.bucket/time.Second), 10),
		strconv.Itoa(l.limit),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: check %s: %w", key, err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("ratelimit: unexpected script reply %v", res)
	}
	d := Decision{Limited: res[0] == 1, Count: res[1]}
	if d.Limited {
		d.RetryAfter = time.Duration(res[2]+int64(l.window/time.Second)-now) * time.Second
		if d.RetryAfter < time.Second {
			d.RetryAfter = time.Second
		}
	}
	return d, nil
}

// ShouldRateLimit reports whether the request identified by key must be rejected.
func (l *Limiter) ShouldRateLimit(ctx context.Context, key string) (bool, error) {
	d, err := l.Check(ctx, key)
	if err != nil {
		return false, err
	}
	return d.Limited, nil
}
