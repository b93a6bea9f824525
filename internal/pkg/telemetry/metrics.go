package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Data freshness
	MetricSyncLag         = "sync.event_lag_seconds"
	MetricPositionLatency = "realtime.position_latency"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricSeatBookings   = "business.seats_booked"
	MetricBusChanges     = "business.bus_changes_decided"
	MetricVisitApprovals = "business.visits_approved"
)
