package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/will-chou/capstone-community/internal/identity"
	"github.com/will-chou/capstone-community/pkg/logger"
	"github.com/will-chou/capstone-community/pkg/metrics"
)

const (
	LoginTokenHeader     = "login_token"
	TwoFactorTokenHeader = "two_fac_token"

	identityKey = "identity"
)

// TwoFactorValidator checks a two-factor token for an email.
type TwoFactorValidator interface {
	Validate(ctx context.Context, email, token string) error
}

func unauthorized(c *gin.Context, stage string) {
	metrics.AuthRejected.WithLabelValues(stage).Inc()
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
}

// IdentityAuth verifies the login token header and stores the Identity on
// the request context.
func IdentityAuth(ver identity.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(LoginTokenHeader)
		if raw == "" {
			unauthorized(c, "identity")
			return
		}
		id, err := ver.Verify(c.Request.Context(), raw)
		if err != nil {
			logger.Debugf("identity token rejected: %v", err)
			unauthorized(c, "identity")
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// TwoFactorAuth requires a valid two-factor token for the identity set by
// IdentityAuth.
func TwoFactorAuth(v TwoFactorValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			unauthorized(c, "two_factor")
			return
		}
		token := c.GetHeader(TwoFactorTokenHeader)
		if token == "" {
			unauthorized(c, "two_factor")
			return
		}
		if err := v.Validate(c.Request.Context(), id.Email, token); err != nil {
			logger.Debugf("two-factor token rejected for %s: %v", id.Email, err)
			unauthorized(c, "two_factor")
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the verified identity of the request, if any.
func IdentityFrom(c *gin.Context) (*identity.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*identity.Identity)
	return id, ok && id != nil
}

// SetIdentity attaches id to the request; used by tests and internal callers.
func SetIdentity(c *gin.Context, id *identity.Identity) {
	c.Set(identityKey, id)
}
