package service

import (
	"errors"
	"testing"

	"kindred/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCircle struct {
	edges map[uint][]models.Relationship
	err   error
}

func (f *fakeCircle) CircleOf(viewerID uint) ([]models.Relationship, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.edges[viewerID], nil
}

func edge(subjectID uint, name, label string) models.Relationship {
	return models.Relationship{
		SubjectID: subjectID,
		Label:     label,
		Subject:   models.User{ID: subjectID, Name: name},
	}
}

func TestSnapshotRecomputesDistanceFromViewerLocation(t *testing.T) {
	battery := 63
	circle := &fakeCircle{edges: map[uint][]models.Relationship{
		1: {edge(100, "Mina", "Child")},
	}}
	locations := &fakeLocations{samples: map[uint]*models.LocationSample{
		1:   {Latitude: subjectLat, Longitude: subjectLng},
		100: {Latitude: nearLat, Longitude: nearLng, Device: models.Device{BatteryLevel: &battery}},
	}}
	svc := NewSnapshotService(circle, locations)

	snap, err := svc.Snapshot(1)
	require.NoError(t, err)
	require.Len(t, snap, 1)
	st := snap[0]
	assert.Equal(t, uint(100), st.SubjectID)
	assert.Equal(t, "Mina", st.Name)
	assert.Equal(t, "Child", st.RelationshipLabel)
	require.NotNil(t, st.BatteryLevel)
	assert.Equal(t, 63, *st.BatteryLevel)
	assert.Equal(t, nearLat, st.Location.Lat)
	assert.Equal(t, nearLng, st.Location.Lng)
	// ~300 m between the two fixes, rounded to two decimals.
	require.NotNil(t, st.DistanceKm)
	assert.Equal(t, 0.3, *st.DistanceKm)
}

func TestSnapshotOmitsSubjectsWithoutSamples(t *testing.T) {
	circle := &fakeCircle{edges: map[uint][]models.Relationship{
		1: {edge(100, "Mina", "Child"), edge(200, "Harabeoji", "Parent")},
	}}
	locations := &fakeLocations{samples: map[uint]*models.LocationSample{
		100: {Latitude: subjectLat, Longitude: subjectLng},
		// no sample for 200
	}}
	svc := NewSnapshotService(circle, locations)

	snap, err := svc.Snapshot(1)
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.Equal(t, uint(100), snap[0].SubjectID)
}

func TestSnapshotDistanceNilWithoutViewerLocation(t *testing.T) {
	circle := &fakeCircle{edges: map[uint][]models.Relationship{
		1: {edge(100, "Mina", "Child")},
	}}
	locations := &fakeLocations{samples: map[uint]*models.LocationSample{
		100: {Latitude: subjectLat, Longitude: subjectLng},
		// viewer 1 has never submitted a fix
	}}
	svc := NewSnapshotService(circle, locations)

	snap, err := svc.Snapshot(1)
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.Nil(t, snap[0].DistanceKm)
	assert.Equal(t, subjectLat, snap[0].Location.Lat)
}

func TestSnapshotEmptyCircle(t *testing.T) {
	svc := NewSnapshotService(&fakeCircle{edges: map[uint][]models.Relationship{}}, &fakeLocations{})
	snap, err := svc.Snapshot(1)
	require.NoError(t, err)
	assert.NotNil(t, snap)
	assert.Empty(t, snap)
}

func TestSnapshotCircleErrorPropagates(t *testing.T) {
	svc := NewSnapshotService(&fakeCircle{err: errors.New("db down")}, &fakeLocations{})
	_, err := svc.Snapshot(1)
	assert.Error(t, err)
}
