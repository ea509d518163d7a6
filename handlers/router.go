package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/will-chou/capstone-community/internal/config"
	"github.com/will-chou/capstone-community/internal/events"
	"github.com/will-chou/capstone-community/internal/identity"
	"github.com/will-chou/capstone-community/internal/users"
	"github.com/will-chou/capstone-community/pkg/middleware"
)

// API bundles what the /api routes need. IPLimiter may be nil.
type API struct {
	Verifier    identity.Verifier
	TwoFactor   TwoFactor
	Users       *users.Service
	Events      *events.Service
	Deleter     identity.AccountDeleter
	UserLimiter middleware.Checker
	IPLimiter   middleware.Checker
	Nearby      config.NearbyConfig
}

// RegisterAPI mounts /api. Every route passes the identity stage; everything
// outside /api/auth also needs a two-factor token and is rate limited per user.
func RegisterAPI(r *gin.Engine, a API) {
	api := r.Group("/api", middleware.IdentityAuth(a.Verifier))

	auth := api.Group("/auth")
	if a.IPLimiter != nil {
		auth.Use(middleware.IPRateLimitMiddleware(a.IPLimiter))
	}
	NewAuthHandler(a.Users, a.TwoFactor, a.Deleter).Register(auth)

	protected := api.Group("", middleware.TwoFactorAuth(a.TwoFactor), middleware.UserRateLimitMiddleware(a.UserLimiter))
	NewEventsHandler(a.Events, a.Nearby).Register(protected.Group("/events"))
	NewUsersHandler(a.Users, a.Events).Register(protected.Group("/users"))
}
