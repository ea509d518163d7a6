package identity

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRevocationTTL outlives any login token the provider issues.
const DefaultRevocationTTL = 30 * 24 * time.Hour

// RevocationList records, per subject, the instant before which all of the
// subject's tokens are void. Entries live in Redis under "revoked:<uid>".
type RevocationList struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRevocationList(client *redis.Client, ttl time.Duration) *RevocationList {
	if ttl <= 0 {
		ttl = DefaultRevocationTTL
	}
	return &RevocationList{client: client, prefix: "revoked:", ttl: ttl}
}

// Revoke voids every token of uid issued at or before at.
func (l *RevocationList) Revoke(ctx context.Context, uid string, at time.Time) error {
	return l.client.Set(ctx, l.prefix+uid, strconv.FormatInt(at.Unix(), 10), l.ttl).Err()
}

// RevokedAt returns the revocation instant for uid, if any.
func (l *RevocationList) RevokedAt(ctx context.Context, uid string) (time.Time, bool, error) {
	v, err := l.client.Get(ctx, l.prefix+uid).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return time.Unix(v, 0), true, nil
}

// RevocationCheckingVerifier rejects otherwise valid tokens whose subject was
// revoked after the token was issued. Lookup failures reject the token.
type RevocationCheckingVerifier struct {
	next Verifier
	list *RevocationList
}

func NewRevocationCheckingVerifier(next Verifier, list *RevocationList) *RevocationCheckingVerifier {
	return &RevocationCheckingVerifier{next: next, list: list}
}

func (v *RevocationCheckingVerifier) Verify(ctx context.Context, raw string) (*Identity, error) {
	id, err := v.next.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	revokedAt, ok, err := v.list.RevokedAt(ctx, id.UID)
	if err != nil {
		return nil, err
	}
	if ok && !id.IssuedAt.After(revokedAt) {
		return nil, ErrRevoked
	}
	return id, nil
}
