package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/will-chou/capstone-community/internal/events"
	"github.com/will-chou/capstone-community/internal/users"
	"github.com/will-chou/capstone-community/pkg/logger"
	"github.com/will-chou/capstone-community/pkg/middleware"
)

// UsersHandler serves /api/users.
type UsersHandler struct {
	usersSvc  *users.Service
	eventsSvc *events.Service
}

func NewUsersHandler(u *users.Service, e *events.Service) *UsersHandler {
	return &UsersHandler{usersSvc: u, eventsSvc: e}
}

func (h *UsersHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/me", h.Me)
}

// Me returns the caller's metadata and newest events.
func (h *UsersHandler) Me(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)
	u, err := h.usersSvc.Get(c.Request.Context(), id.Email)
	switch {
	case errors.Is(err, users.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	case err != nil:
		logger.Errorf("get user %s: %v", id.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	entries, err := h.eventsSvc.Recent(c.Request.Context(), id.Email)
	if err != nil {
		logger.Errorf("recent events of %s: %v", id.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"userData": u, "userEntries": entries})
}
