package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the room coordination engine.
//
// Naming convention: namespace_subsystem_name
// - namespace: listenroom (application-level grouping)
// - subsystem: websocket, room, queue, youtube, bus (feature-level grouping)
// - name: specific metric (connections_active, operations_total, etc.)
//
// Metric Types:
// - Gauge: Current state (connections, rooms, participants)
// - Counter: Cumulative events (messages processed, errors)
// - Histogram: Latency distributions (processing time)

var (
	// ActiveWebSocketConnections tracks the current number of active WebSocket connections (Gauge - current state)
	ActiveWebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "listenroom",
		Subsystem: "websocket",
		Name:      "connections_active",
		Help:      "Current number of active WebSocket connections",
	})

	// ActiveRooms tracks the current number of active rooms (Gauge - current state)
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "listenroom",
		Subsystem: "room",
		Name:      "rooms_active",
		Help:      "Current number of active rooms",
	})

	// RoomParticipants tracks the number of participants in each room (GaugeVec with room_id label - current state per room)
	RoomParticipants = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "listenroom",
		Subsystem: "room",
		Name:      "participants_count",
		Help:      "Number of participants in each room",
	}, []string{"room_id"})

	// InboundMessages tracks the total number of inbound WebSocket messages processed (CounterVec - cumulative)
	InboundMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "listenroom",
		Subsystem: "websocket",
		Name:      "inbound_messages_total",
		Help:      "Total inbound messages processed",
	}, []string{"type", "status"})

	// QueueOperations tracks queue mutations by kind (CounterVec - cumulative)
	QueueOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "listenroom",
		Subsystem: "queue",
		Name:      "operations_total",
		Help:      "Total queue mutations by kind",
	}, []string{"operation"})

	// YoutubeResolveDuration tracks the time spent resolving YouTube oEmbed metadata (Histogram - latency distribution)
	YoutubeResolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "listenroom",
		Subsystem: "youtube",
		Name:      "resolve_duration_seconds",
		Help:      "Time spent resolving YouTube metadata",
		Buckets:   prometheus.DefBuckets,
	})

	// CircuitBreakerState tracks the current state of the circuit breaker (GaugeVec)
	// 0: Closed (Healthy), 1: Open (Failure), 2: Half-Open (Recovering)
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "listenroom",
		Subsystem: "circuit_breaker",
		Name:      "state",
		Help:      "Current state of the circuit breaker (0: Closed, 1: Open, 2: Half-Open)",
	}, []string{"service"})

	// CircuitBreakerFailures tracks the total number of requests rejected by the circuit breaker
	CircuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "listenroom",
		Subsystem: "circuit_breaker",
		Name:      "failures_total",
		Help:      "Total requests rejected by the circuit breaker",
	}, []string{"service"})

	// BusOperationsTotal tracks the total number of cross-instance bus operations (CounterVec)
	BusOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "listenroom",
		Subsystem: "bus",
		Name:      "operations_total",
		Help:      "Total number of cross-instance bus operations",
	}, []string{"operation", "status"})

	// BusOperationDuration tracks the duration of cross-instance bus operations (HistogramVec)
	BusOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "listenroom",
		Subsystem: "bus",
		Name:      "operation_duration_seconds",
		Help:      "Duration of cross-instance bus operations",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
)

func IncConnection() {
	ActiveWebSocketConnections.Inc()
}

func DecConnection() {
	ActiveWebSocketConnections.Dec()
}
