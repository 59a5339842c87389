package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Realtime metrics for monitoring the persistent-connection layer
var (
	// Connection lifecycle metrics
	RealtimeConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_connections_active",
		Help: "Current number of registered WebSocket connections",
	})

	RealtimeConnectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_connections_total",
		Help: "Total number of WebSocket connections",
	}, []string{"status"}) // "accepted", "replaced", "rejected"

	RealtimeDisconnectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_disconnections_total",
		Help: "Total number of WebSocket disconnections",
	}, []string{"reason"})

	// Egress metrics
	RealtimeEventsPushedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_events_pushed_total",
		Help: "Total number of events pushed to clients",
	}, []string{"event"})

	RealtimeEventsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_events_dropped_total",
		Help: "Total number of events dropped due to a slow client",
	}, []string{"event"})

	// Call metrics
	RealtimeCallsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_calls_active",
		Help: "Current number of non-terminal calls in the overlay",
	})

	RealtimeCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_calls_total",
		Help: "Total number of calls by terminal outcome",
	}, []string{"outcome"}) // "completed", "rejected", "missed"

	RealtimeCallExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "realtime_call_expired_total",
		Help: "Total number of calls swept to missed by the ring-timeout sweeper",
	})

	// Signaling metrics
	RealtimeSignalsRelayedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_signals_relayed_total",
		Help: "Total number of signaling payloads relayed between call parties",
	}, []string{"signal_type", "status"}) // status: "ok", "unauthorized", "invalid", "peer_gone"

	// Fan-out metrics
	RealtimeFanoutPersistedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_fanout_persisted_total",
		Help: "Total number of fan-out records persisted",
	}, []string{"kind", "status"}) // kind: "message", "notification"

	RealtimeFanoutDeliveredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_fanout_delivered_total",
		Help: "Total number of fan-out events delivered",
	}, []string{"kind", "mode"}) // mode: "live", "offline"

	// Presence metrics
	RealtimePresenceTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_presence_transitions_total",
		Help: "Total number of online/offline transitions announced",
	}, []string{"direction"}) // "online", "offline"
)
