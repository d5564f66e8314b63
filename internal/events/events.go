package events

import "time"

// Event kinds. Services publish these strictly after the transaction that
// produced the underlying state has committed.
const (
	KindLocationChanged     = "location.changed"
	KindSightingReported    = "sighting.reported"
	KindAlertRaised         = "alert.raised"
	KindInvitationCreated   = "invitation.created"
	KindInvitationResponded = "invitation.responded"
	KindFoundReportFiled    = "found.reported"
)

type Event interface {
	Kind() string
}

// LocationChanged fires after a new sample for the subject is durable.
type LocationChanged struct {
	SubjectID uint
}

func (LocationChanged) Kind() string { return KindLocationChanged }

// SightingReported carries a reporter's position and the sighted subject.
type SightingReported struct {
	ReporterID uint
	SubjectID  uint
	Latitude   float64
	Longitude  float64
	At         time.Time
}

func (SightingReported) Kind() string { return KindSightingReported }

// AlertRaised is emitted at most once per (reporter, subject) suppression window.
type AlertRaised struct {
	ReporterID uint
	SubjectID  uint
	DistanceKm float64
	At         time.Time
}

func (AlertRaised) Kind() string { return KindAlertRaised }

type InvitationCreated struct {
	InvitationID uint
	InviterID    uint
	InviteeEmail string
}

func (InvitationCreated) Kind() string { return KindInvitationCreated }

type InvitationResponded struct {
	InvitationID uint
	InviterID    uint
	InviteeID    uint
	Accepted     bool
}

func (InvitationResponded) Kind() string { return KindInvitationResponded }

type FoundReportFiled struct {
	ReporterID uint
	SubjectID  uint
	Latitude   float64
	Longitude  float64
}

func (FoundReportFiled) Kind() string { return KindFoundReportFiled }
