package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BroadcastsTotal counts created broadcast messages.
	BroadcastsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "message_center",
		Name:      "broadcasts_total",
		Help:      "Broadcast messages created.",
	})

	// BroadcastAudienceSize observes how many recipients each broadcast targeted.
	BroadcastAudienceSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "message_center",
		Name:      "broadcast_audience_size",
		Help:      "Resolved audience size per broadcast.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	// PushEventsTotal counts push gateway emits by event name and outcome.
	PushEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "message_center",
		Name:      "push_events_total",
		Help:      "Push gateway emits.",
	}, []string{"event", "outcome"})

	// SurfaceMutationsTotal counts per-recipient state transitions by surface and operation.
	SurfaceMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "message_center",
		Name:      "surface_mutations_total",
		Help:      "Per-recipient state transitions.",
	}, []string{"surface", "op"})
)
