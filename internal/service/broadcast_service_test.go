package service

import (
	"errors"
	"sync"
	"testing"

	"kindred/internal/events"
	"kindred/internal/stream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	viewers map[uint][]uint
}

func (f *fakeResolver) ViewersOf(subjectID uint) ([]uint, error) {
	return f.viewers[subjectID], nil
}

type sentEvent struct {
	viewerID uint
	ev       stream.Event
}

type fakeBroadcaster struct {
	mu        sync.Mutex
	connected map[uint]bool
	sent      []sentEvent
}

func (f *fakeBroadcaster) HasConnection(viewerID uint) bool {
	return f.connected[viewerID]
}

func (f *fakeBroadcaster) Broadcast(viewerID uint, ev stream.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEvent{viewerID: viewerID, ev: ev})
}

type fakeSnapshots struct {
	mu       sync.Mutex
	byViewer map[uint][]stream.SubjectStatus
	failFor  map[uint]bool
	computed []uint
}

func (f *fakeSnapshots) Snapshot(viewerID uint) ([]stream.SubjectStatus, error) {
	f.mu.Lock()
	f.computed = append(f.computed, viewerID)
	f.mu.Unlock()
	if f.failFor[viewerID] {
		return nil, errors.New("snapshot query failed")
	}
	return f.byViewer[viewerID], nil
}

func TestFanOutToConnectedViewers(t *testing.T) {
	km := 1.2
	graph := &fakeResolver{viewers: map[uint][]uint{100: {1, 2}}}
	reg := &fakeBroadcaster{connected: map[uint]bool{1: true, 2: true}}
	snaps := &fakeSnapshots{byViewer: map[uint][]stream.SubjectStatus{
		1: {{SubjectID: 100, Name: "Mina", RelationshipLabel: "Child", DistanceKm: &km,
			Location: stream.Location{Lat: 37.5665, Lng: 126.9780}}},
		2: {{SubjectID: 100, Name: "Mina", RelationshipLabel: "Child",
			Location: stream.Location{Lat: 37.5665, Lng: 126.9780}}},
	}}
	svc := NewBroadcastService(graph, reg, snaps)

	svc.HandleLocationChanged(events.LocationChanged{SubjectID: 100})

	require.Len(t, reg.sent, 2)
	for _, s := range reg.sent {
		assert.Equal(t, stream.TypeUpdate, s.ev.Type)
		require.Len(t, s.ev.Payload, 1)
		assert.Equal(t, uint(100), s.ev.Payload[0].SubjectID)
		assert.Equal(t, 37.5665, s.ev.Payload[0].Location.Lat)
	}
	// Each connected viewer got exactly one freshly computed snapshot.
	assert.ElementsMatch(t, []uint{1, 2}, snaps.computed)
}

func TestDisconnectedViewerSkipsSnapshotWork(t *testing.T) {
	graph := &fakeResolver{viewers: map[uint][]uint{100: {1, 2}}}
	reg := &fakeBroadcaster{connected: map[uint]bool{1: true}} // viewer 2 offline
	snaps := &fakeSnapshots{byViewer: map[uint][]stream.SubjectStatus{}}
	svc := NewBroadcastService(graph, reg, snaps)

	svc.HandleLocationChanged(events.LocationChanged{SubjectID: 100})

	// The short-circuit means viewer 2's snapshot is never computed.
	assert.Equal(t, []uint{1}, snaps.computed)
	require.Len(t, reg.sent, 1)
	assert.Equal(t, uint(1), reg.sent[0].viewerID)
}

func TestNoViewersIsNoOp(t *testing.T) {
	graph := &fakeResolver{viewers: map[uint][]uint{}}
	reg := &fakeBroadcaster{connected: map[uint]bool{}}
	snaps := &fakeSnapshots{}
	svc := NewBroadcastService(graph, reg, snaps)

	svc.HandleLocationChanged(events.LocationChanged{SubjectID: 100})
	assert.Empty(t, snaps.computed)
	assert.Empty(t, reg.sent)
}

func TestOneViewerFailureDoesNotBlockOthers(t *testing.T) {
	graph := &fakeResolver{viewers: map[uint][]uint{100: {1, 2, 3}}}
	reg := &fakeBroadcaster{connected: map[uint]bool{1: true, 2: true, 3: true}}
	snaps := &fakeSnapshots{
		byViewer: map[uint][]stream.SubjectStatus{},
		failFor:  map[uint]bool{2: true},
	}
	svc := NewBroadcastService(graph, reg, snaps)

	svc.HandleLocationChanged(events.LocationChanged{SubjectID: 100})

	var delivered []uint
	for _, s := range reg.sent {
		delivered = append(delivered, s.viewerID)
	}
	assert.ElementsMatch(t, []uint{1, 3}, delivered)
}

func TestIgnoresForeignEventKinds(t *testing.T) {
	graph := &fakeResolver{viewers: map[uint][]uint{100: {1}}}
	reg := &fakeBroadcaster{connected: map[uint]bool{1: true}}
	snaps := &fakeSnapshots{}
	svc := NewBroadcastService(graph, reg, snaps)

	svc.HandleLocationChanged(events.AlertRaised{SubjectID: 100})
	assert.Empty(t, snaps.computed)
	assert.Empty(t, reg.sent)
}
