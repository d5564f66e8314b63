package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BroadcastsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kindred_broadcasts_total",
		Help: "UPDATE frames fanned out to viewer connections.",
	})
	HandlesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kindred_dropped_handles_total",
		Help: "Subscriber handles removed after a delivery failure.",
	})
	AlertsFired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kindred_alerts_fired_total",
		Help: "Proximity alerts raised (post-suppression).",
	})
	AlertsSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kindred_alerts_suppressed_total",
		Help: "Qualifying proximity triggers suppressed by the window.",
	})
	PushFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kindred_push_failures_total",
		Help: "Push-gateway deliveries that failed (not retried).",
	})
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kindred_events_dropped_total",
		Help: "Domain events dropped because the async queue was full or stopped.",
	})
)
