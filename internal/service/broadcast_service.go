package service

import (
	"log"

	"kindred/internal/events"
	"kindred/internal/stream"
)

type ViewerResolver interface {
	ViewersOf(subjectID uint) ([]uint, error)
}

type Broadcaster interface {
	HasConnection(viewerID uint) bool
	Broadcast(viewerID uint, ev stream.Event)
}

type SnapshotBuilder interface {
	Snapshot(viewerID uint) ([]stream.SubjectStatus, error)
}

// BroadcastService fans a LocationChanged event out to every connected viewer
// of the subject. It runs on the event bus workers, never on the ingesting
// request. Per-viewer failures are logged and isolated.
type BroadcastService struct {
	graph     ViewerResolver
	registry  Broadcaster
	snapshots SnapshotBuilder
}

func NewBroadcastService(graph ViewerResolver, registry Broadcaster, snapshots SnapshotBuilder) *BroadcastService {
	return &BroadcastService{graph: graph, registry: registry, snapshots: snapshots}
}

func (s *BroadcastService) HandleLocationChanged(e events.Event) {
	ev, ok := e.(events.LocationChanged)
	if !ok {
		return
	}
	viewers, err := s.graph.ViewersOf(ev.SubjectID)
	if err != nil {
		log.Printf("[broadcast] resolving viewers of %d: %v", ev.SubjectID, err)
		return
	}
	for _, viewerID := range viewers {
		// Skip before any snapshot work: no connection, no query.
		if !s.registry.HasConnection(viewerID) {
			continue
		}
		snapshot, err := s.snapshots.Snapshot(viewerID)
		if err != nil {
			log.Printf("[broadcast] snapshot for viewer %d: %v", viewerID, err)
			continue
		}
		s.registry.Broadcast(viewerID, stream.Update(snapshot))
	}
}
