package handler

import (
	"net/http"
	"strconv"

	"kindred/internal/domain"
	"kindred/internal/events"
	"kindred/internal/middleware"
	"kindred/internal/models"
	"kindred/internal/repository"
	"kindred/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RelationshipHandler exposes the invitation workflow and the resulting
// visibility edges. Events are published only after the repository call
// (and its transaction) has returned.
type RelationshipHandler struct {
	invRepo *repository.InvitationRepository
	relRepo *repository.RelationshipRepository
	bus     service.EventPublisher
}

func NewRelationshipHandler(invRepo *repository.InvitationRepository, relRepo *repository.RelationshipRepository, bus service.EventPublisher) *RelationshipHandler {
	return &RelationshipHandler{invRepo: invRepo, relRepo: relRepo, bus: bus}
}

type InviteRequest struct {
	Email string `json:"email" binding:"required,email"`
	Label string `json:"label" binding:"max=50"`
}

func (h *RelationshipHandler) Invite(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Email == middleware.GetEmail(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot invite yourself"})
		return
	}
	inv := &models.Invitation{
		InviterID:    userID,
		InviteeEmail: req.Email,
		Label:        req.Label,
	}
	if err := h.invRepo.Create(inv); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invite failed"})
		return
	}
	h.bus.Publish(events.InvitationCreated{
		InvitationID: inv.ID,
		InviterID:    inv.InviterID,
		InviteeEmail: inv.InviteeEmail,
	})
	c.JSON(http.StatusCreated, inv)
}

func (h *RelationshipHandler) ListInvitations(c *gin.Context) {
	email := middleware.GetEmail(c)
	list, err := h.invRepo.ListForEmail(email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invitations": list})
}

type RespondRequest struct {
	Accept bool   `json:"accept"`
	Label  string `json:"label" binding:"max=50"` // invitee's label for the inviter
}

func (h *RelationshipHandler) Respond(c *gin.Context) {
	userID := middleware.GetUserID(c)
	email := middleware.GetEmail(c)
	invID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	inv, err := h.invRepo.GetByID(uint(invID))
	if err != nil || inv == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "invitation not found"})
		return
	}
	if inv.InviteeEmail != email {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your invitation"})
		return
	}
	if req.Accept {
		err = h.invRepo.Accept(inv, userID, req.Label)
	} else {
		err = h.invRepo.Reject(inv.ID)
	}
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusConflict, gin.H{"error": "invitation already responded"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "respond failed"})
		return
	}
	h.bus.Publish(events.InvitationResponded{
		InvitationID: inv.ID,
		InviterID:    inv.InviterID,
		InviteeID:    userID,
		Accepted:     req.Accept,
	})
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Labels returns the suggested relationship labels; the column is free text,
// these only seed the client's picker.
func (h *RelationshipHandler) Labels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"labels": domain.RelationshipLabels})
}

// ListCircle returns who the caller can see.
func (h *RelationshipHandler) ListCircle(c *gin.Context) {
	userID := middleware.GetUserID(c)
	edges, err := h.relRepo.CircleOf(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"circle": edges})
}

// Remove deletes the visibility edges between the caller and another user,
// both directions at once.
func (h *RelationshipHandler) Remove(c *gin.Context) {
	userID := middleware.GetUserID(c)
	otherID, _ := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if otherID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if err := h.relRepo.RemovePair(userID, uint(otherID)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "remove failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
