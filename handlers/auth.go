package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/will-chou/capstone-community/internal/identity"
	"github.com/will-chou/capstone-community/internal/twofactor"
	"github.com/will-chou/capstone-community/internal/users"
	"github.com/will-chou/capstone-community/pkg/logger"
	"github.com/will-chou/capstone-community/pkg/middleware"
)

// TwoFactor is the session service behind the auth and protected routes.
type TwoFactor interface {
	Init(ctx context.Context, email string) (string, error)
	Complete(ctx context.Context, email, sessionID, code string) (string, error)
	Validate(ctx context.Context, email, token string) error
}

type registerRequest struct {
	Phone flexString `json:"phone"`
}

type complete2facRequest struct {
	SessionID string     `json:"sessionId"`
	Code      flexString `json:"code"`
}

// AuthHandler holds dependencies of the /api/auth routes. All of them run
// after IdentityAuth only.
type AuthHandler struct {
	usersSvc  *users.Service
	twoFactor TwoFactor
	deleter   identity.AccountDeleter
}

func NewAuthHandler(u *users.Service, tf TwoFactor, d identity.AccountDeleter) *AuthHandler {
	return &AuthHandler{usersSvc: u, twoFactor: tf, deleter: d}
}

// Register routes on the /api/auth group
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/register", h.RegisterUser)
	rg.GET("/init2facSession", h.Init2fac)
	rg.POST("/complete2fac", h.Complete2fac)
}

// RegisterUser records the caller's phone. An invalid phone deletes the
// freshly created provider account so the client can start over.
func (h *AuthHandler) RegisterUser(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)
	var req registerRequest
	_ = c.ShouldBindJSON(&req)
	phone := string(req.Phone)

	if !users.ValidPhone(phone) {
		if h.deleter != nil {
			if err := h.deleter.DeleteAccount(c.Request.Context(), id.UID); err != nil {
				logger.Errorf("failed to delete account %s after invalid phone: %v", id.UID, err)
			}
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid phone number"})
		return
	}

	_, err := h.usersSvc.Register(c.Request.Context(), users.Profile{
		Email:   id.Email,
		Phone:   phone,
		Name:    id.Name,
		Picture: id.Picture,
	})
	switch {
	case errors.Is(err, users.ErrNoEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid token"})
		return
	case err != nil:
		logger.Errorf("register %s: %v", id.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "success"})
}

// Init2fac starts a new one-time-code session and texts the code.
func (h *AuthHandler) Init2fac(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)
	sessionID, err := h.twoFactor.Init(c.Request.Context(), id.Email)
	switch {
	case errors.Is(err, twofactor.ErrDelivery):
		logger.Errorf("init2fac %s: %v", id.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	case err != nil:
		logger.Warnf("init2fac %s: %v", id.Email, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": sessionID})
}

// Complete2fac exchanges a correct code for the two-factor token.
func (h *AuthHandler) Complete2fac(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)
	var req complete2facRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionID == "" || req.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	token, err := h.twoFactor.Complete(c.Request.Context(), id.Email, req.SessionID, string(req.Code))
	switch {
	case errors.Is(err, twofactor.ErrNoSession):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No session found"})
		return
	case errors.Is(err, twofactor.ErrIncorrectCode):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect code"})
		return
	case err != nil:
		logger.Errorf("complete2fac %s: %v", id.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
