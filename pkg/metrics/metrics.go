package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Calendar fetch metrics
	FetchesTotal   *prometheus.CounterVec
	FetchLatency   prometheus.Histogram
	StaleFetches   prometheus.Counter
	RealtimeEvents *prometheus.CounterVec

	// Booking metrics
	ConflictChecks *prometheus.CounterVec
	BookingsTotal  *prometheus.CounterVec

	// Websocket metrics
	ConnectedClients prometheus.Gauge
	DroppedMessages  prometheus.Counter
}

var (
	defaultOnce sync.Once
	defaultSet  *Metrics
)

// Default returns the process-wide metric set, registering it on the
// default Prometheus registry on first use.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultSet = NewMetrics("vetdesk", "calendar")
	})
	return defaultSet
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace, subsystem string) *Metrics {
	return &Metrics{
		FetchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "fetches_total",
			Help:      "Total number of appointment fetches by status",
		}, []string{"status"}),
		FetchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "fetch_duration_seconds",
			Help:      "Time spent fetching the visible appointment range",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		StaleFetches: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stale_fetches_total",
			Help:      "Fetch responses discarded because a newer request was dispatched",
		}),
		RealtimeEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "realtime_events_total",
			Help:      "Realtime change events merged into the working set",
		}, []string{"type"}),
		ConflictChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "conflict_checks_total",
			Help:      "Booking conflict checks by result",
		}, []string{"result"}),
		BookingsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		ConnectedClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "websocket_clients",
			Help:      "Currently connected dashboard clients",
		}),
		DroppedMessages: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "websocket_dropped_messages_total",
			Help:      "Messages dropped because a client send buffer was full",
		}),
	}
}
