package handler

import (
	"net/http"
	"strconv"

	"kindred/internal/middleware"
	"kindred/internal/models"
	"kindred/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeviceHandler struct {
	deviceRepo *repository.DeviceRepository
}

func NewDeviceHandler(deviceRepo *repository.DeviceRepository) *DeviceHandler {
	return &DeviceHandler{deviceRepo: deviceRepo}
}

// Register issues a stable external UUID for a new GPS source.
func (h *DeviceHandler) Register(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Name string `json:"name" binding:"max=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d := &models.Device{
		UserID:   userID,
		UUID:     uuid.NewString(),
		Name:     req.Name,
		IsActive: true,
	}
	if err := h.deviceRepo.Create(d); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "device registration failed"})
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *DeviceHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	list, err := h.deviceRepo.ListByUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"devices": list})
}

// Deactivate retires a device; its samples remain.
func (h *DeviceHandler) Deactivate(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device id"})
		return
	}
	if err := h.deviceRepo.Deactivate(uint(id), userID); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "deactivate failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
