package handler

import (
	"net/http"
	"strconv"
	"time"

	"kindred/internal/events"
	"kindred/internal/middleware"
	"kindred/internal/models"
	"kindred/internal/repository"
	"kindred/internal/service"
	"kindred/pkg/geo"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SightingHandler struct {
	sightingRepo *repository.SightingRepository
	userRepo     *repository.UserRepository
	relRepo      *repository.RelationshipRepository
	bus          service.EventPublisher
}

func NewSightingHandler(sightingRepo *repository.SightingRepository, userRepo *repository.UserRepository, relRepo *repository.RelationshipRepository, bus service.EventPublisher) *SightingHandler {
	return &SightingHandler{sightingRepo: sightingRepo, userRepo: userRepo, relRepo: relRepo, bus: bus}
}

type SightingRequest struct {
	SubjectID uint     `json:"subject_id" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Found     bool     `json:"found"`
	Note      string   `json:"note" binding:"max=2000"`
}

// Report files a sighting of a subject at the reporter's current position.
// The SightingReported event (and FoundReportFiled when found=true) is
// published only after the report row is durable.
func (h *SightingHandler) Report(c *gin.Context) {
	reporterID := middleware.GetUserID(c)
	var req SightingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !geo.ValidCoordinate(*req.Latitude, *req.Longitude) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates out of range"})
		return
	}
	if req.SubjectID == reporterID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot report yourself"})
		return
	}
	if _, err := h.userRepo.GetByID(req.SubjectID); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "subject not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	report := &models.SightingReport{
		ReporterID: reporterID,
		SubjectID:  req.SubjectID,
		Latitude:   *req.Latitude,
		Longitude:  *req.Longitude,
		Found:      req.Found,
		Note:       req.Note,
	}
	if err := h.sightingRepo.Create(report); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report failed"})
		return
	}
	h.bus.Publish(events.SightingReported{
		ReporterID: reporterID,
		SubjectID:  req.SubjectID,
		Latitude:   *req.Latitude,
		Longitude:  *req.Longitude,
		At:         time.Now(),
	})
	if req.Found {
		h.bus.Publish(events.FoundReportFiled{
			ReporterID: reporterID,
			SubjectID:  req.SubjectID,
			Latitude:   *req.Latitude,
			Longitude:  *req.Longitude,
		})
	}
	c.JSON(http.StatusCreated, report)
}

// ListForSubject returns recent sightings of a subject to that subject's
// guardians. Callers without an edge to the subject get nothing.
func (h *SightingHandler) ListForSubject(c *gin.Context) {
	userID := middleware.GetUserID(c)
	subjectID, _ := strconv.ParseUint(c.Param("subject_id"), 10, 64)
	if subjectID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subject id"})
		return
	}
	related, err := h.relRepo.AreRelated(userID, uint(subjectID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if !related {
		c.JSON(http.StatusForbidden, gin.H{"error": "not in subject's circle"})
		return
	}
	list, err := h.sightingRepo.ListForSubject(uint(subjectID), 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sightings": list})
}
