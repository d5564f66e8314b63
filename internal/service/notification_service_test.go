package service

import (
	"context"
	"errors"
	"testing"

	"kindred/internal/domain"
	"kindred/internal/events"
	"kindred/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeNotifStore struct {
	created []*models.Notification
	err     error
}

func (s *fakeNotifStore) Create(n *models.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, n)
	return nil
}

type fakeUsers struct {
	byID    map[uint]*models.User
	byEmail map[string]*models.User
}

func (f *fakeUsers) GetByID(id uint) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) GetByEmail(email string) (*models.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type pushCall struct {
	token     string
	notifType string
}

type fakeGateway struct {
	calls   []pushCall
	failFor map[string]bool
}

func (g *fakeGateway) SendToUser(_ context.Context, token, notifType, _, _ string, _ map[string]interface{}) error {
	g.calls = append(g.calls, pushCall{token: token, notifType: notifType})
	if g.failFor[token] {
		return errors.New("gateway unreachable")
	}
	return nil
}

func newDispatcher() (*NotificationService, *fakeNotifStore, *fakeGateway) {
	users := &fakeUsers{
		byID: map[uint]*models.User{
			1:   {ID: 1, Name: "Appa", Email: "appa@example.com", FCMToken: "tok-1"},
			2:   {ID: 2, Name: "Eomma", Email: "eomma@example.com", FCMToken: "tok-2"},
			3:   {ID: 3, Name: "Harabeoji", Email: "gp@example.com"}, // no token
			100: {ID: 100, Name: "Mina", Email: "mina@example.com"},
		},
	}
	users.byEmail = map[string]*models.User{}
	for _, u := range users.byID {
		users.byEmail[u.Email] = u
	}
	graph := &fakeResolver{viewers: map[uint][]uint{100: {1, 2, 3}}}
	store := &fakeNotifStore{}
	gateway := &fakeGateway{failFor: map[string]bool{}}
	return NewNotificationService(store, users, graph, gateway), store, gateway
}

func TestAlertNotifiesEveryGuardian(t *testing.T) {
	svc, store, gateway := newDispatcher()

	svc.HandleAlertRaised(events.AlertRaised{ReporterID: 9, SubjectID: 100, DistanceKm: 0.3})

	require.Len(t, store.created, 3)
	for _, n := range store.created {
		assert.Equal(t, domain.NotifProximityAlert, n.Type)
		assert.Contains(t, n.Body, "Mina")
	}
	// Push goes only to guardians with a registered token.
	require.Len(t, gateway.calls, 2)
	assert.ElementsMatch(t, []pushCall{
		{token: "tok-1", notifType: domain.NotifProximityAlert},
		{token: "tok-2", notifType: domain.NotifProximityAlert},
	}, gateway.calls)
}

func TestPushFailureDoesNotStopOtherDeliveries(t *testing.T) {
	svc, store, gateway := newDispatcher()
	gateway.failFor["tok-1"] = true

	svc.HandleAlertRaised(events.AlertRaised{ReporterID: 9, SubjectID: 100, DistanceKm: 0.2})

	// The failed push is logged and counted; rows are still persisted for all.
	assert.Len(t, store.created, 3)
	assert.Len(t, gateway.calls, 2)
}

func TestFoundReportNotifiesGuardians(t *testing.T) {
	svc, store, _ := newDispatcher()

	svc.HandleFoundReport(events.FoundReportFiled{ReporterID: 9, SubjectID: 100, Latitude: 37.5, Longitude: 127.0})

	require.Len(t, store.created, 3)
	assert.Equal(t, domain.NotifFoundReport, store.created[0].Type)
	assert.Contains(t, store.created[0].Body, "found")
}

func TestInvitationCreatedNotifiesRegisteredInvitee(t *testing.T) {
	svc, store, _ := newDispatcher()

	svc.HandleInvitationCreated(events.InvitationCreated{InvitationID: 5, InviterID: 1, InviteeEmail: "eomma@example.com"})

	require.Len(t, store.created, 1)
	assert.Equal(t, uint(2), store.created[0].UserID)
	assert.Equal(t, domain.NotifInvitationReceived, store.created[0].Type)
	assert.Contains(t, store.created[0].Body, "Appa")
}

func TestInvitationCreatedUnknownInviteeIsSilent(t *testing.T) {
	svc, store, gateway := newDispatcher()

	svc.HandleInvitationCreated(events.InvitationCreated{InvitationID: 5, InviterID: 1, InviteeEmail: "nobody@example.com"})

	assert.Empty(t, store.created)
	assert.Empty(t, gateway.calls)
}

func TestInvitationRespondedNotifiesInviter(t *testing.T) {
	svc, store, _ := newDispatcher()

	svc.HandleInvitationResponded(events.InvitationResponded{InvitationID: 5, InviterID: 1, InviteeID: 2, Accepted: true})
	require.Len(t, store.created, 1)
	assert.Equal(t, uint(1), store.created[0].UserID)
	assert.Equal(t, domain.NotifInvitationAccepted, store.created[0].Type)

	svc.HandleInvitationResponded(events.InvitationResponded{InvitationID: 6, InviterID: 1, InviteeID: 2, Accepted: false})
	require.Len(t, store.created, 2)
	assert.Equal(t, domain.NotifInvitationRejected, store.created[1].Type)
}

func TestNilGatewayIsTolerated(t *testing.T) {
	svc, store, _ := newDispatcher()
	svc.gateway = nil

	svc.HandleAlertRaised(events.AlertRaised{ReporterID: 9, SubjectID: 100, DistanceKm: 0.2})
	assert.Len(t, store.created, 3)
}
