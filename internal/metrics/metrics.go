package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "eventhub"

var (
	ModeTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "seatsync",
		Name:      "mode_transitions_total",
		Help:      "Watch session connection mode changes, by target mode.",
	}, []string{"mode"})

	PollRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "seatsync",
		Name:      "poll_requests_total",
		Help:      "Status poll attempts, by result.",
	}, []string{"result"})

	LiveErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "seatsync",
		Name:      "live_errors_total",
		Help:      "Live subscription errors, by whether the session had confirmed.",
	}, []string{"phase"})

	ActiveWatchers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "seatsync",
		Name:      "active_watchers",
		Help:      "Watch sessions currently running.",
	})

	StatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "status_changes_total",
		Help:      "Event lifecycle updates applied, by new status.",
	}, []string{"status"})

	SeatAdjustments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "seat_adjustments_total",
		Help:      "Seat count changes, by direction and result.",
	}, []string{"direction", "result"})

	SyncFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "sync_failures_total",
		Help:      "Best-effort propagation failures after a write, by target.",
	}, []string{"target"})

	StatusCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "status_cache_lookups_total",
		Help:      "Status cache reads, by hit or miss.",
	}, []string{"result"})
)
