package stream

import (
	"log"
	"sync"
	"time"

	"kindred/internal/metrics"
)

// sendBuffer is the per-connection frame backlog; a client that falls this far
// behind is treated as gone and its handle is dropped.
const sendBuffer = 64

// Conn is one live subscriber handle. Frames are pushed into a buffered
// channel drained by the transport's write pump; the registry never blocks on
// a slow client.
type Conn struct {
	viewerID uint
	send     chan []byte

	mu     sync.Mutex
	closed bool
}

func (c *Conn) ViewerID() uint        { return c.viewerID }
func (c *Conn) Frames() <-chan []byte { return c.send }

// deliver enqueues a frame without blocking. False means the handle is dead
// (closed, or its buffer is full because the client stopped reading).
func (c *Conn) deliver(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// close is idempotent; closing the send channel signals end-of-stream to the
// write pump.
func (c *Conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// SnapshotFunc computes the full visible-location snapshot for a viewer.
type SnapshotFunc func(viewerID uint) ([]SubjectStatus, error)

// Registry owns every live subscriber connection, bucketed per viewer. Each
// bucket has its own mutex so operations on different viewers never contend;
// register, broadcast and deregister for one viewer serialize on the bucket,
// which is what guarantees a handle registered before a broadcast either
// receives it or was already closed.
type Registry struct {
	snapshot          SnapshotFunc
	heartbeatInterval time.Duration

	mu      sync.RWMutex // guards the bucket map, not deliveries
	buckets map[uint]*bucket

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{} // non-nil once Run has started
}

type bucket struct {
	mu    sync.Mutex
	conns map[*Conn]struct{}
}

func NewRegistry(snapshot SnapshotFunc, heartbeatInterval time.Duration) *Registry {
	// A non-positive interval would panic the ticker in Run.
	if heartbeatInterval <= 0 {
		heartbeatInterval = 30 * time.Second
	}
	return &Registry{
		snapshot:          snapshot,
		heartbeatInterval: heartbeatInterval,
		buckets:           make(map[uint]*bucket),
		stop:              make(chan struct{}),
	}
}

// Register creates a live handle for the viewer and enqueues the INITIAL
// snapshot before the handle becomes visible to broadcasts, so the first frame
// a client sees is always INITIAL.
func (r *Registry) Register(viewerID uint) (*Conn, error) {
	snapshot, err := r.snapshot(viewerID)
	if err != nil {
		return nil, err
	}
	c := &Conn{
		viewerID: viewerID,
		send:     make(chan []byte, sendBuffer),
	}
	b := r.bucket(viewerID)
	b.mu.Lock()
	c.deliver(Initial(snapshot).marshal())
	b.conns[c] = struct{}{}
	b.mu.Unlock()
	return c, nil
}

// Deregister removes the handle; idempotent and safe to call concurrently
// with an in-flight broadcast. Once it returns, the handle receives nothing.
func (r *Registry) Deregister(c *Conn) {
	if c == nil {
		return
	}
	r.mu.RLock()
	b := r.buckets[c.viewerID]
	r.mu.RUnlock()
	if b == nil {
		c.close()
		return
	}
	b.mu.Lock()
	delete(b.conns, c)
	c.close()
	b.mu.Unlock()
}

// HasConnection is the O(1) short-circuit used by the broadcast dispatcher to
// skip snapshot recomputation for absent viewers.
func (r *Registry) HasConnection(viewerID uint) bool {
	r.mu.RLock()
	b := r.buckets[viewerID]
	r.mu.RUnlock()
	if b == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.conns) > 0
}

// Broadcast delivers the event to every live handle for the viewer. A dead
// handle is removed silently; one client being gone never raises to the
// caller or blocks the others.
func (r *Registry) Broadcast(viewerID uint, ev Event) {
	r.mu.RLock()
	b := r.buckets[viewerID]
	r.mu.RUnlock()
	if b == nil {
		return
	}
	data := ev.marshal()
	b.mu.Lock()
	for c := range b.conns {
		if !c.deliver(data) {
			delete(b.conns, c)
			c.close()
			metrics.HandlesDropped.Inc()
			continue
		}
		if ev.Type == TypeUpdate {
			metrics.BroadcastsSent.Inc()
		}
	}
	b.mu.Unlock()
}

// Heartbeat sends a payload-less keep-alive frame to the viewer's handles.
func (r *Registry) Heartbeat(viewerID uint) {
	r.Broadcast(viewerID, Heartbeat())
}

// Run drives the heartbeat ticker until Shutdown. Call in a goroutine.
func (r *Registry) Run() {
	r.mu.Lock()
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()
	defer close(done)
	ticker := time.NewTicker(r.heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			for _, id := range r.viewerIDs() {
				r.Heartbeat(id)
			}
		case <-r.stop:
			return
		}
	}
}

// Shutdown stops the heartbeat loop and closes every handle, signaling
// end-of-stream to all clients.
func (r *Registry) Shutdown() {
	r.stopOnce.Do(func() { close(r.stop) })
	r.mu.RLock()
	done := r.done
	r.mu.RUnlock()
	if done != nil {
		<-done
	}
	r.mu.Lock()
	buckets := r.buckets
	r.buckets = make(map[uint]*bucket)
	r.mu.Unlock()
	n := 0
	for _, b := range buckets {
		b.mu.Lock()
		for c := range b.conns {
			c.close()
			n++
		}
		b.conns = make(map[*Conn]struct{})
		b.mu.Unlock()
	}
	if n > 0 {
		log.Printf("[stream] closed %d connection(s) on shutdown", n)
	}
}

func (r *Registry) bucket(viewerID uint) *bucket {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.buckets[viewerID]
	if b == nil {
		b = &bucket{conns: make(map[*Conn]struct{})}
		r.buckets[viewerID] = b
	}
	return b
}

func (r *Registry) viewerIDs() []uint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]uint, 0, len(r.buckets))
	for id := range r.buckets {
		ids = append(ids, id)
	}
	return ids
}
