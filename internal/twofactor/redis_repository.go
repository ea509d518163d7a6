package twofactor

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

var incrementAttempts = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'sessionId') ~= ARGV[1] then
  return 0
end
return redis.call('HINCRBY', KEYS[1], 'attempts', '1')
`)

var deleteSession = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'sessionId') ~= ARGV[1] then
  return 0
end
return redis.call('DEL', KEYS[1])
`)

var consumeCode = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'sessionId') ~= ARGV[1] then
  return 0
end
if redis.call('HGET', KEYS[1], 'codeUsed') == '1' then
  return 0
end
redis.call('HSET', KEYS[1], 'codeUsed', '1')
return 1
`)

// redisSession is the hash layout of a session; times are unix seconds.
type redisSession struct {
	SessionID     string `redis:"sessionId"`
	Code          string `redis:"code"`
	Token         string `redis:"token"`
	Attempts      int    `redis:"attempts"`
	CodeUsed      bool   `redis:"codeUsed"`
	CreatedAt     int64  `redis:"createdAt"`
	CodeExpiresAt int64  `redis:"codeExpiresAt"`
	ExpiresAt     int64  `redis:"expiresAt"`
}

// RedisRepository implements Repository with one hash per email under
// "<prefix><email>". The key expires with the session.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository creates a Redis-based session repository. Prefix may be empty.
func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "twofac:"
	}
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) key(email string) string {
	return r.prefix + email
}

func (r *RedisRepository) Save(ctx context.Context, s *Session) error {
	key := r.key(s.Email)
	used := "0"
	if s.CodeUsed {
		used = "1"
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, map[string]interface{}{
			"sessionId":     s.SessionID,
			"code":          s.Code,
			"token":         s.Token,
			"attempts":      s.Attempts,
			"codeUsed":      used,
			"createdAt":     s.CreatedAt.Unix(),
			"codeExpiresAt": s.CodeExpiresAt.Unix(),
			"expiresAt":     s.ExpiresAt.Unix(),
		})
		pipe.ExpireAt(ctx, key, s.ExpiresAt)
		return nil
	})
	return err
}

func (r *RedisRepository) Get(ctx context.Context, email string) (*Session, error) {
	cmd := r.client.HGetAll(ctx, r.key(email))
	fields, err := cmd.Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	var rs redisSession
	if err := cmd.Scan(&rs); err != nil {
		return nil, err
	}
	return &Session{
		Email:         email,
		SessionID:     rs.SessionID,
		Code:          rs.Code,
		Token:         rs.Token,
		Attempts:      rs.Attempts,
		CodeUsed:      rs.CodeUsed,
		CreatedAt:     time.Unix(rs.CreatedAt, 0).UTC(),
		CodeExpiresAt: time.Unix(rs.CodeExpiresAt, 0).UTC(),
		ExpiresAt:     time.Unix(rs.ExpiresAt, 0).UTC(),
	}, nil
}

func (r *RedisRepository) IncrementAttempts(ctx context.Context, email, sessionID string) (int, error) {
	n, err := incrementAttempts.Run(ctx, r.client, []string{r.key(email)}, sessionID).Int()
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *RedisRepository) ConsumeCode(ctx context.Context, email, sessionID string) (bool, error) {
	n, err := consumeCode.Run(ctx, r.client, []string{r.key(email)}, sessionID).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *RedisRepository) Delete(ctx context.Context, email, sessionID string) error {
	return deleteSession.Run(ctx, r.client, []string{r.key(email)}, sessionID).Err()
}
