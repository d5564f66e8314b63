package service

import (
	"log"
	"time"

	"kindred/internal/events"
	"kindred/internal/metrics"
	"kindred/internal/models"
	"kindred/pkg/geo"
)

type RelationshipGraph interface {
	AreRelated(a, b uint) (bool, error)
}

type AlertStore interface {
	TryFire(reporterID, subjectID uint, now time.Time, window time.Duration) (bool, error)
}

type LastLocationSource interface {
	LatestForUser(userID uint) (*models.LocationSample, error)
}

// AlertService turns a sighting into at most one AlertRaised per
// (reporter, subject) suppression window. The distance gate compares the
// reporter's position against the subject's last known area; the suppression
// decision is delegated to the AlertStore's atomic check-and-update, so N
// concurrent duplicates of the same sighting cannot double-fire.
type AlertService struct {
	graph     RelationshipGraph
	locations LastLocationSource
	alerts    AlertStore
	bus       EventPublisher

	thresholdM float64
	window     time.Duration
	now        func() time.Time
}

func NewAlertService(graph RelationshipGraph, locations LastLocationSource, alerts AlertStore, bus EventPublisher, thresholdM float64, window time.Duration) *AlertService {
	return &AlertService{
		graph:      graph,
		locations:  locations,
		alerts:     alerts,
		bus:        bus,
		thresholdM: thresholdM,
		window:     window,
		now:        time.Now,
	}
}

func (s *AlertService) HandleSighting(e events.Event) {
	ev, ok := e.(events.SightingReported)
	if !ok {
		return
	}
	// Related users share location live; proximity alerts are for strangers.
	related, err := s.graph.AreRelated(ev.ReporterID, ev.SubjectID)
	if err != nil {
		log.Printf("[alert] relationship check (%d,%d): %v", ev.ReporterID, ev.SubjectID, err)
		return
	}
	if related {
		return
	}
	last, err := s.locations.LatestForUser(ev.SubjectID)
	if err != nil {
		log.Printf("[alert] last location of %d: %v", ev.SubjectID, err)
		return
	}
	if last == nil {
		// No known area for the subject; nothing to measure against.
		return
	}
	distM := geo.HaversineM(ev.Latitude, ev.Longitude, last.Latitude, last.Longitude)
	if distM > s.thresholdM {
		return
	}
	fired, err := s.alerts.TryFire(ev.ReporterID, ev.SubjectID, s.now(), s.window)
	if err != nil {
		log.Printf("[alert] suppression check (%d,%d): %v", ev.ReporterID, ev.SubjectID, err)
		return
	}
	if !fired {
		metrics.AlertsSuppressed.Inc()
		return
	}
	metrics.AlertsFired.Inc()
	s.bus.Publish(events.AlertRaised{
		ReporterID: ev.ReporterID,
		SubjectID:  ev.SubjectID,
		DistanceKm: distM / 1000,
		At:         s.now(),
	})
}
