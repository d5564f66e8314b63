package handler

import (
	"errors"
	"net/http"

	"kindred/internal/domain"
	"kindred/internal/middleware"
	"kindred/internal/repository"
	"kindred/internal/service"

	"github.com/gin-gonic/gin"
)

type LocationHandler struct {
	svc     *service.LocationService
	locRepo *repository.LocationRepository
}

func NewLocationHandler(svc *service.LocationService, locRepo *repository.LocationRepository) *LocationHandler {
	return &LocationHandler{svc: svc, locRepo: locRepo}
}

type SubmitLocationRequest struct {
	DeviceUUID   string   `json:"device_uuid" binding:"required"`
	Latitude     *float64 `json:"latitude" binding:"required"`
	Longitude    *float64 `json:"longitude" binding:"required"`
	BatteryLevel *int     `json:"battery_level"`
}

// SubmitLocation is the GPS ingress. The response is sent as soon as the
// sample is durable; fan-out and alerting happen off this request.
func (h *LocationHandler) SubmitLocation(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req SubmitLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.svc.SubmitLocation(userID, req.DeviceUUID, *req.Latitude, *req.Longitude, req.BatteryLevel)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "submit failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *LocationHandler) GetMyLocation(c *gin.Context) {
	userID := middleware.GetUserID(c)
	sample, err := h.locRepo.LatestForUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if sample == nil {
		c.JSON(http.StatusOK, gin.H{"latitude": nil, "longitude": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"latitude":    sample.Latitude,
		"longitude":   sample.Longitude,
		"captured_at": sample.CapturedAt,
	})
}
