package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"kindred/internal/domain"
	"kindred/internal/events"
	"kindred/internal/metrics"
	"kindred/internal/models"

	"gorm.io/gorm"
)

type NotificationStore interface {
	Create(n *models.Notification) error
}

type UserSource interface {
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
}

type PushGateway interface {
	SendToUser(ctx context.Context, fcmToken string, notifType, title, body string, data map[string]interface{}) error
}

// NotificationService consumes domain events off the bus workers and delivers
// them through the push gateway. Every handler runs after the originating
// transaction committed (the bus only sees post-commit publishes), so a push
// never references state a concurrent reader cannot observe. Delivery is
// best-effort: failures are logged and counted, never retried, and the
// originating write is long since durable either way.
type NotificationService struct {
	repo    NotificationStore
	users   UserSource
	graph   ViewerResolver
	gateway PushGateway
}

func NewNotificationService(repo NotificationStore, users UserSource, graph ViewerResolver, gateway PushGateway) *NotificationService {
	return &NotificationService{repo: repo, users: users, graph: graph, gateway: gateway}
}

func (s *NotificationService) Notify(userID uint, notifType, title, body string, data map[string]interface{}) {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	if err := s.repo.Create(&models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   dataJSON,
	}); err != nil {
		log.Printf("[notify] persist %s for user %d: %v", notifType, userID, err)
		return
	}
	s.sendPush(userID, notifType, title, body, data)
}

func (s *NotificationService) sendPush(userID uint, notifType, title, body string, data map[string]interface{}) {
	if s.gateway == nil {
		return
	}
	u, err := s.users.GetByID(userID)
	if err != nil || u == nil || u.FCMToken == "" {
		return
	}
	if err := s.gateway.SendToUser(context.Background(), u.FCMToken, notifType, title, body, data); err != nil {
		metrics.PushFailures.Inc()
		log.Printf("[notify] %v: push %s to user %d: %v", domain.ErrDelivery, notifType, userID, err)
	}
}

// HandleAlertRaised notifies every guardian of the subject that a reporter is
// nearby. The reporter is identified only by distance, not by name.
func (s *NotificationService) HandleAlertRaised(e events.Event) {
	ev, ok := e.(events.AlertRaised)
	if !ok {
		return
	}
	subject, err := s.users.GetByID(ev.SubjectID)
	if err != nil {
		log.Printf("[notify] alert subject %d: %v", ev.SubjectID, err)
		return
	}
	viewers, err := s.graph.ViewersOf(ev.SubjectID)
	if err != nil {
		log.Printf("[notify] alert viewers of %d: %v", ev.SubjectID, err)
		return
	}
	body := fmt.Sprintf("Someone reported %s about %.1f km from their last known location", subject.Name, ev.DistanceKm)
	data := map[string]interface{}{"subject_id": ev.SubjectID, "distance_km": ev.DistanceKm}
	for _, viewerID := range viewers {
		s.Notify(viewerID, domain.NotifProximityAlert, "Proximity alert", body, data)
	}
}

// HandleFoundReport notifies the guardians that the subject was reported found.
func (s *NotificationService) HandleFoundReport(e events.Event) {
	ev, ok := e.(events.FoundReportFiled)
	if !ok {
		return
	}
	subject, err := s.users.GetByID(ev.SubjectID)
	if err != nil {
		log.Printf("[notify] found-report subject %d: %v", ev.SubjectID, err)
		return
	}
	viewers, err := s.graph.ViewersOf(ev.SubjectID)
	if err != nil {
		log.Printf("[notify] found-report viewers of %d: %v", ev.SubjectID, err)
		return
	}
	data := map[string]interface{}{"subject_id": ev.SubjectID, "lat": ev.Latitude, "lng": ev.Longitude}
	for _, viewerID := range viewers {
		s.Notify(viewerID, domain.NotifFoundReport, "Found report", subject.Name+" has been reported found", data)
	}
}

// HandleInvitationCreated notifies the invitee, if they already have an account.
func (s *NotificationService) HandleInvitationCreated(e events.Event) {
	ev, ok := e.(events.InvitationCreated)
	if !ok {
		return
	}
	invitee, err := s.users.GetByEmail(ev.InviteeEmail)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Printf("[notify] invitee lookup %s: %v", ev.InviteeEmail, err)
		}
		return
	}
	inviter, err := s.users.GetByID(ev.InviterID)
	if err != nil {
		log.Printf("[notify] inviter %d: %v", ev.InviterID, err)
		return
	}
	s.Notify(invitee.ID, domain.NotifInvitationReceived, "Circle invitation",
		inviter.Name+" invited you to share locations",
		map[string]interface{}{"invitation_id": ev.InvitationID})
}

// HandleInvitationResponded notifies the inviter of the outcome.
func (s *NotificationService) HandleInvitationResponded(e events.Event) {
	ev, ok := e.(events.InvitationResponded)
	if !ok {
		return
	}
	invitee, err := s.users.GetByID(ev.InviteeID)
	if err != nil {
		log.Printf("[notify] invitee %d: %v", ev.InviteeID, err)
		return
	}
	if ev.Accepted {
		s.Notify(ev.InviterID, domain.NotifInvitationAccepted, "Invitation accepted",
			invitee.Name+" accepted your invitation", map[string]interface{}{"invitation_id": ev.InvitationID})
	} else {
		s.Notify(ev.InviterID, domain.NotifInvitationRejected, "Invitation declined",
			invitee.Name+" declined your invitation", nil)
	}
}
