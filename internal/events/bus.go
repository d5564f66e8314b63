package events

import (
	"log"
	"sync"

	"kindred/internal/metrics"
)

type Handler func(Event)

// Bus is an in-process typed event bus. Synchronous handlers run inline on the
// publishing goroutine; async handlers run on a bounded worker pool so the
// request path returns as soon as its transaction commits. Handlers must
// tolerate arbitrary interleaving; the bus guarantees nothing beyond
// per-publish ordering of the sync phase before the async enqueue.
type Bus struct {
	mu      sync.RWMutex
	sync    map[string][]Handler
	async   map[string][]Handler
	queue   chan Event
	wg      sync.WaitGroup
	stopped bool
}

func NewBus(workers, queueSize int) *Bus {
	if workers < 1 {
		workers = 1
	}
	b := &Bus{
		sync:  make(map[string][]Handler),
		async: make(map[string][]Handler),
		queue: make(chan Event, queueSize),
	}
	b.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go b.worker()
	}
	return b
}

// Subscribe registers a handler that runs inline during Publish.
func (b *Bus) Subscribe(kind string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sync[kind] = append(b.sync[kind], h)
}

// SubscribeAsync registers a handler drained by the worker pool.
func (b *Bus) SubscribeAsync(kind string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.async[kind] = append(b.async[kind], h)
}

// Publish runs sync handlers, then queues the event for async handlers.
// A full or stopped queue drops the event; async delivery is best-effort.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := b.sync[e.Kind()]
	hasAsync := len(b.async[e.Kind()]) > 0
	b.mu.RUnlock()
	for _, h := range handlers {
		b.invoke(h, e)
	}
	if !hasAsync {
		return
	}
	// The read lock excludes Stop, so the queue cannot close mid-send.
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.stopped {
		metrics.EventsDropped.Inc()
		return
	}
	select {
	case b.queue <- e:
	default:
		metrics.EventsDropped.Inc()
		log.Printf("[events] queue full, dropping %s", e.Kind())
	}
}

func (b *Bus) worker() {
	defer b.wg.Done()
	for e := range b.queue {
		b.mu.RLock()
		handlers := b.async[e.Kind()]
		b.mu.RUnlock()
		for _, h := range handlers {
			b.invoke(h, e)
		}
	}
}

// invoke isolates handler panics so one bad consumer cannot kill a worker.
func (b *Bus) invoke(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[events] handler panic on %s: %v", e.Kind(), r)
		}
	}()
	h(e)
}

// Stop drains queued events and waits for the workers to finish.
func (b *Bus) Stop() {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.stopped = true
	b.mu.Unlock()
	close(b.queue)
	b.wg.Wait()
}
