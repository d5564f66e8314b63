package stream

import (
	"encoding/json"
	"time"
)

type EventType string

const (
	TypeInitial   EventType = "INITIAL"
	TypeUpdate    EventType = "UPDATE"
	TypeHeartbeat EventType = "HEARTBEAT"
)

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SubjectStatus is one row of a viewer's snapshot.
type SubjectStatus struct {
	SubjectID         uint     `json:"subject_id"`
	Name              string   `json:"name"`
	RelationshipLabel string   `json:"relationship_label"`
	BatteryLevel      *int     `json:"battery_level"`
	DistanceKm        *float64 `json:"distance_km"`
	Location          Location `json:"location"`
}

// Event is one frame on the subscriber stream. Payload is null for HEARTBEAT
// and a non-null (possibly empty) array for INITIAL and UPDATE.
type Event struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   []SubjectStatus `json:"payload"`
}

func Initial(snapshot []SubjectStatus) Event {
	if snapshot == nil {
		snapshot = []SubjectStatus{}
	}
	return Event{Type: TypeInitial, Timestamp: time.Now(), Payload: snapshot}
}

func Update(snapshot []SubjectStatus) Event {
	if snapshot == nil {
		snapshot = []SubjectStatus{}
	}
	return Event{Type: TypeUpdate, Timestamp: time.Now(), Payload: snapshot}
}

func Heartbeat() Event {
	return Event{Type: TypeHeartbeat, Timestamp: time.Now(), Payload: nil}
}

func (e Event) marshal() []byte {
	data, _ := json.Marshal(e)
	return data
}
