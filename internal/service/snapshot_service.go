package service

import (
	"kindred/internal/models"
	"kindred/internal/stream"
	"kindred/pkg/geo"
)

type CircleSource interface {
	CircleOf(viewerID uint) ([]models.Relationship, error)
}

// SnapshotService builds the full visible-location list for a viewer. Every
// UPDATE is a full replace of the previous snapshot; there is no incremental
// diffing. Subjects without any sample yet are omitted.
type SnapshotService struct {
	circle    CircleSource
	locations LastLocationSource
}

func NewSnapshotService(circle CircleSource, locations LastLocationSource) *SnapshotService {
	return &SnapshotService{circle: circle, locations: locations}
}

func (s *SnapshotService) Snapshot(viewerID uint) ([]stream.SubjectStatus, error) {
	edges, err := s.circle.CircleOf(viewerID)
	if err != nil {
		return nil, err
	}
	viewerLoc, err := s.locations.LatestForUser(viewerID)
	if err != nil {
		return nil, err
	}
	snapshot := make([]stream.SubjectStatus, 0, len(edges))
	for _, edge := range edges {
		sample, err := s.locations.LatestForUser(edge.SubjectID)
		if err != nil {
			return nil, err
		}
		if sample == nil {
			continue
		}
		status := stream.SubjectStatus{
			SubjectID:         edge.SubjectID,
			Name:              edge.Subject.Name,
			RelationshipLabel: edge.Label,
			BatteryLevel:      sample.Device.BatteryLevel,
			Location:          stream.Location{Lat: sample.Latitude, Lng: sample.Longitude},
		}
		if viewerLoc != nil {
			d := geo.HaversineKm(viewerLoc.Latitude, viewerLoc.Longitude, sample.Latitude, sample.Longitude)
			rounded := float64(int(d*100+0.5)) / 100
			status.DistanceKm = &rounded
		}
		snapshot = append(snapshot, status)
	}
	return snapshot, nil
}
