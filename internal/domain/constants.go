package domain

const (
	InvitationStatusPending  = "PENDING"
	InvitationStatusAccepted = "ACCEPTED"
	InvitationStatusRejected = "REJECTED"
)

const (
	NotifInvitationReceived = "INVITATION_RECEIVED"
	NotifInvitationAccepted = "INVITATION_ACCEPTED"
	NotifInvitationRejected = "INVITATION_REJECTED"
	NotifProximityAlert     = "PROXIMITY_ALERT"
	NotifFoundReport        = "FOUND_REPORT"
)

// Relationship label suggestions shown to the inviter; the column itself is free text.
var RelationshipLabels = []string{"Parent", "Child", "Spouse", "Sibling", "Guardian", "Caregiver"}
