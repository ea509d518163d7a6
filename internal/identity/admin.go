package identity

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/will-chou/capstone-community/pkg/logger"
	"golang.org/x/oauth2/clientcredentials"
)

// AccountDeleter removes an account at the identity provider.
type AccountDeleter interface {
	DeleteAccount(ctx context.Context, uid string) error
}

// KeycloakAdmin deletes users through the Keycloak admin REST API using a
// service-account client.
type KeycloakAdmin struct {
	baseURL string
	realm   string
	creds   clientcredentials.Config
}

func NewKeycloakAdmin(baseURL, realm, clientID, clientSecret string) *KeycloakAdmin {
	base := strings.TrimRight(baseURL, "/")
	return &KeycloakAdmin{
		baseURL: base,
		realm:   realm,
		creds: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     base + "/realms/" + url.PathEscape(realm) + "/protocol/openid-connect/token",
		},
	}
}

func (k *KeycloakAdmin) DeleteAccount(ctx context.Context, uid string) error {
	endpoint := fmt.Sprintf("%s/admin/realms/%s/users/%s", k.baseURL, url.PathEscape(k.realm), url.PathEscape(uid))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := k.creds.Client(ctx).Do(req)
	if err != nil {
		return fmt.Errorf("keycloak delete user: %w", err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK, http.StatusNotFound:
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("keycloak delete user: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

// RevokingDeleter revokes the subject's outstanding tokens locally and then
// deletes the account upstream when an upstream deleter is configured.
type RevokingDeleter struct {
	upstream    AccountDeleter
	revocations *RevocationList
	now         func() time.Time
}

func NewRevokingDeleter(upstream AccountDeleter, revocations *RevocationList) *RevokingDeleter {
	return &RevokingDeleter{upstream: upstream, revocations: revocations, now: time.Now}
}

func (d *RevokingDeleter) DeleteAccount(ctx context.Context, uid string) error {
	if err := d.revocations.Revoke(ctx, uid, d.now()); err != nil {
		return fmt.Errorf("revoke %s: %w", uid, err)
	}
	if d.upstream == nil {
		logger.Warnf("identity: no provider admin configured; account %s revoked locally only", uid)
		return nil
	}
	return d.upstream.DeleteAccount(ctx, uid)
}
