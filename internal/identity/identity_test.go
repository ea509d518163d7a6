package identity

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://id.example.com/realms/community"

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, c jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, c).SignedString(key)
	require.NoError(t, err)
	return s
}

func baseClaims(now time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"iss":     testIssuer,
		"aud":     "community-app",
		"sub":     "uid-1",
		"email":   "ada@example.com",
		"name":    "Ada",
		"picture": "https://example.com/ada.png",
		"iat":     now.Unix(),
		"exp":     now.Add(time.Hour).Unix(),
	}
}

func TestOIDCVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}
	v := &OIDCVerifier{verifier: oidc.NewVerifier(testIssuer, keySet, &oidc.Config{ClientID: "community-app"})}
	ctx := context.Background()
	now := time.Now()

	id, err := v.Verify(ctx, sign(t, jwt.SigningMethodRS256, key, baseClaims(now)))
	require.NoError(t, err)
	require.Equal(t, "uid-1", id.UID)
	require.Equal(t, "ada@example.com", id.Email)
	require.Equal(t, "Ada", id.Name)
	require.Equal(t, now.Unix(), id.IssuedAt.Unix())

	wrongAud := baseClaims(now)
	wrongAud["aud"] = "someone-else"
	_, err = v.Verify(ctx, sign(t, jwt.SigningMethodRS256, key, wrongAud))
	require.ErrorIs(t, err, ErrInvalidToken)

	expired := baseClaims(now.Add(-2 * time.Hour))
	_, err = v.Verify(ctx, sign(t, jwt.SigningMethodRS256, key, expired))
	require.ErrorIs(t, err, ErrInvalidToken)

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	_, err = v.Verify(ctx, sign(t, jwt.SigningMethodRS256, other, baseClaims(now)))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestInsecureVerifier(t *testing.T) {
	v := NewInsecureVerifier()
	ctx := context.Background()
	now := time.Now()

	id, err := v.Verify(ctx, sign(t, jwt.SigningMethodHS256, []byte("any-secret"), baseClaims(now)))
	require.NoError(t, err)
	require.Equal(t, "uid-1", id.UID)
	require.Equal(t, "ada@example.com", id.Email)
	require.Equal(t, "https://example.com/ada.png", id.Picture)

	_, err = v.Verify(ctx, sign(t, jwt.SigningMethodHS256, []byte("x"), baseClaims(now.Add(-3*time.Hour))))
	require.ErrorIs(t, err, ErrInvalidToken)

	noSub := baseClaims(now)
	delete(noSub, "sub")
	_, err = v.Verify(ctx, sign(t, jwt.SigningMethodHS256, []byte("x"), noSub))
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify(ctx, "not-a-jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}

type staticVerifier struct{ id Identity }

func (s staticVerifier) Verify(ctx context.Context, raw string) (*Identity, error) {
	id := s.id
	return &id, nil
}

func TestRevocationCheckingVerifier(t *testing.T) {
	m := mr.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	list := NewRevocationList(client, time.Hour)
	ctx := context.Background()

	issued := time.Unix(1_700_000_000, 0)
	v := NewRevocationCheckingVerifier(staticVerifier{id: Identity{UID: "uid-1", IssuedAt: issued}}, list)

	_, err := v.Verify(ctx, "raw")
	require.NoError(t, err)

	require.NoError(t, list.Revoke(ctx, "uid-1", issued))
	_, err = v.Verify(ctx, "raw")
	require.ErrorIs(t, err, ErrRevoked)

	fresh := NewRevocationCheckingVerifier(staticVerifier{id: Identity{UID: "uid-1", IssuedAt: issued.Add(time.Minute)}}, list)
	_, err = fresh.Verify(ctx, "raw")
	require.NoError(t, err)

	// entries expire with the list TTL
	m.FastForward(2 * time.Hour)
	_, ok, err := list.RevokedAt(ctx, "uid-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRevocationCheckFailsClosed(t *testing.T) {
	m := mr.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	v := NewRevocationCheckingVerifier(staticVerifier{id: Identity{UID: "uid-1"}}, NewRevocationList(client, 0))
	m.Close()

	_, err := v.Verify(context.Background(), "raw")
	require.Error(t, err)
}

func TestKeycloakAdminDeleteAccount(t *testing.T) {
	var deletes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/realms/community/protocol/openid-connect/token":
			require.NoError(t, r.ParseForm())
			require.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"admin-token","token_type":"bearer","expires_in":300}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/admin/realms/community/users/uid-1":
			require.Equal(t, "Bearer admin-token", r.Header.Get("Authorization"))
			deletes.Add(1)
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodDelete && r.URL.Path == "/admin/realms/community/users/uid-gone":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer srv.Close()

	admin := NewKeycloakAdmin(srv.URL+"/", "community", "admin-cli", "secret")
	ctx := context.Background()
	require.NoError(t, admin.DeleteAccount(ctx, "uid-1"))
	require.EqualValues(t, 1, deletes.Load())
	require.NoError(t, admin.DeleteAccount(ctx, "uid-gone"))
	require.Error(t, admin.DeleteAccount(ctx, "uid-other"))
}

type recordingDeleter struct{ uids []string }

func (r *recordingDeleter) DeleteAccount(ctx context.Context, uid string) error {
	r.uids = append(r.uids, uid)
	return nil
}

func TestRevokingDeleter(t *testing.T) {
	m := mr.RunT(t)
	list := NewRevocationList(redis.NewClient(&redis.Options{Addr: m.Addr()}), time.Hour)
	ctx := context.Background()

	upstream := &recordingDeleter{}
	d := NewRevokingDeleter(upstream, list)
	require.NoError(t, d.DeleteAccount(ctx, "uid-9"))
	require.Equal(t, []string{"uid-9"}, upstream.uids)
	_, ok, err := list.RevokedAt(ctx, "uid-9")
	require.NoError(t, err)
	require.True(t, ok)

	localOnly := NewRevokingDeleter(nil, list)
	require.NoError(t, localOnly.DeleteAccount(ctx, "uid-10"))
	_, ok, err = list.RevokedAt(ctx, "uid-10")
	require.NoError(t, err)
	require.True(t, ok)
}
