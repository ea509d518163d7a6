package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/will-chou/capstone-community/internal/config"
	"github.com/will-chou/capstone-community/internal/events"
	"github.com/will-chou/capstone-community/internal/geo"
	"github.com/will-chou/capstone-community/pkg/logger"
	"github.com/will-chou/capstone-community/pkg/middleware"
)

type postEventRequest struct {
	Lat       *float64          `json:"lat"`
	Lng       *float64          `json:"lng"`
	EventData *events.EventData `json:"eventData"`
}

// EventsHandler serves /api/events.
type EventsHandler struct {
	svc    *events.Service
	nearby config.NearbyConfig
}

func NewEventsHandler(svc *events.Service, nearby config.NearbyConfig) *EventsHandler {
	return &EventsHandler{svc: svc, nearby: nearby}
}

func (h *EventsHandler) Register(rg *gin.RouterGroup) {
	rg.POST("", h.Post)
	rg.GET("/nearby", h.Nearby)
	rg.GET("/categories", h.Categories)
}

func (h *EventsHandler) Post(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)
	var req postEventRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Lat == nil || req.Lng == nil || req.EventData == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient info"})
		return
	}
	e, err := h.svc.Post(c.Request.Context(), id.Email, geo.Point{Lat: *req.Lat, Lng: *req.Lng}, *req.EventData)
	if err != nil {
		if status, msg, ok := eventValidationError(err); ok {
			c.JSON(status, gin.H{"error": msg})
			return
		}
		logger.Errorf("post event for %s: %v", id.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": e.ID})
}

func (h *EventsHandler) Nearby(c *gin.Context) {
	latStr, lngStr := c.Query("lat"), c.Query("lng")
	if latStr == "" || lngStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient info"})
		return
	}
	lat, errLat := strconv.ParseFloat(latStr, 64)
	lng, errLng := strconv.ParseFloat(lngStr, 64)
	if errLat != nil || errLng != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location"})
		return
	}

	radius := h.nearby.DefaultRadiusMeters
	if r := c.Query("radius"); r != "" {
		miles, err := strconv.ParseFloat(r, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location"})
			return
		}
		if miles <= 0 || (h.nearby.MaxRadiusMiles > 0 && miles > h.nearby.MaxRadiusMiles) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid radius"})
			return
		}
		radius = geo.MilesToMeters(miles)
	}

	category, err := events.ParseCategory(c.Query("category"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
		return
	}

	entries, err := h.svc.Nearby(c.Request.Context(), geo.Point{Lat: lat, Lng: lng}, radius, category)
	if err != nil {
		if status, msg, ok := eventValidationError(err); ok {
			c.JSON(status, gin.H{"error": msg})
			return
		}
		logger.Errorf("nearby query (%f,%f r=%f): %v", lat, lng, radius, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *EventsHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, events.Categories())
}

func eventValidationError(err error) (int, string, bool) {
	switch {
	case errors.Is(err, geo.ErrInvalidLocation):
		return http.StatusBadRequest, "Invalid location", true
	case errors.Is(err, events.ErrInvalidCategory):
		return http.StatusBadRequest, "Invalid category", true
	}
	return 0, "", false
}
