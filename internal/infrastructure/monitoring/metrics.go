package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Command metrics
	CommandsTotal   *prometheus.CounterVec
	RecordingsTotal prometheus.Counter
	SchedulerState  prometheus.Gauge

	// Stage metrics
	StageTasks    *prometheus.CounterVec
	StageFailures *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec

	// Ring pool metrics, sampled by the status poller
	PoolDepth      *prometheus.GaugeVec
	PoolPublished  *prometheus.GaugeVec
	PoolOverwrites *prometheus.GaugeVec
	PoolClaimed    *prometheus.GaugeVec
	PoolSkipped    *prometheus.GaugeVec

	// Writer metrics, sampled by the status poller
	SpectraWritten prometheus.Gauge
	SpectraDropped prometheus.Gauge
	SpectraBytes   prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	registry *prometheus.Registry

	// Snapshot for JSON API - track current values
	snapshot Snapshot

	mu sync.RWMutex
}

// Snapshot holds current metric values for the JSON status API
type Snapshot struct {
	TotalRequests  int64   `json:"total_requests"`
	TotalErrors    int64   `json:"total_errors"`
	TotalDuration  float64 `json:"-"`
	RequestCount   int64   `json:"-"`
	Commands       int64   `json:"commands"`
	Recordings     int64   `json:"recordings"`
	WSConnections  int64   `json:"ws_connections"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
	SchedulerState string  `json:"scheduler_state"`
}

// NewMetrics creates a metrics collector backed by its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		startTime: time.Now(),
		registry:  registry,

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spectracore_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spectracore_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		// Command metrics
		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spectracore_commands_total",
				Help: "Total number of commands processed, by kind",
			},
			[]string{"kind"},
		),
		RecordingsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "spectracore_recordings_total",
				Help: "Total number of recordings started",
			},
		),
		SchedulerState: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "spectracore_scheduler_state",
				Help: "Scheduler state: 0 idle, 1 pending, 2 recording until off, 3 recording until time",
			},
		),

		// Stage metrics
		StageTasks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spectracore_stage_tasks_total",
				Help: "Total number of tasks executed per stage",
			},
			[]string{"stage"},
		),
		StageFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spectracore_stage_failures_total",
				Help: "Total number of failed tasks per stage",
			},
			[]string{"stage"},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spectracore_stage_task_duration_seconds",
				Help:    "Task duration per stage in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"stage"},
		),

		// Ring pool metrics
		PoolDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "spectracore_pool_depth",
				Help: "Buffers waiting per pool consumer",
			},
			[]string{"pool", "consumer"},
		),
		PoolPublished: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "spectracore_pool_published",
				Help: "Buffers published per pool since start",
			},
			[]string{"pool"},
		),
		PoolOverwrites: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "spectracore_pool_overwrites",
				Help: "Buffers reclaimed from lagging consumers per pool",
			},
			[]string{"pool"},
		),
		PoolClaimed: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "spectracore_pool_claimed",
				Help: "Buffers a consumer reserved and processed",
			},
			[]string{"pool", "consumer"},
		),
		PoolSkipped: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "spectracore_pool_skipped",
				Help: "Buffers a consumer lost to overwrites",
			},
			[]string{"pool", "consumer"},
		),

		// Writer metrics
		SpectraWritten: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "spectracore_spectra_written",
				Help: "Spectra landed on disk since start",
			},
		),
		SpectraDropped: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "spectracore_spectra_dropped",
				Help: "Spectra discarded outside a scan since start",
			},
		),
		SpectraBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "spectracore_spectra_bytes",
				Help: "Bytes landed on disk since start",
			},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "spectracore_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spectracore_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		// System metrics
		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "spectracore_uptime_seconds",
				Help: "Process uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if len(status) > 0 && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordCommand records a processed command by kind
func (m *Metrics) RecordCommand(kind string) {
	m.CommandsTotal.WithLabelValues(kind).Inc()

	m.mu.Lock()
	m.snapshot.Commands++
	m.mu.Unlock()
}

// RecordRecording records a recording start
func (m *Metrics) RecordRecording() {
	m.RecordingsTotal.Inc()

	m.mu.Lock()
	m.snapshot.Recordings++
	m.mu.Unlock()
}

// SetSchedulerState records the scheduler state for scraping and status
func (m *Metrics) SetSchedulerState(code int, name string) {
	m.SchedulerState.Set(float64(code))

	m.mu.Lock()
	m.snapshot.SchedulerState = name
	m.mu.Unlock()
}

// RecordStageTask records one stage task execution
func (m *Metrics) RecordStageTask(stage string, duration time.Duration, failed bool) {
	m.StageTasks.WithLabelValues(stage).Inc()
	m.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if failed {
		m.StageFailures.WithLabelValues(stage).Inc()
	}
}

// SetPoolDepth samples one consumer's queue depth
func (m *Metrics) SetPoolDepth(pool, consumer string, depth int) {
	m.PoolDepth.WithLabelValues(pool, consumer).Set(float64(depth))
}

// SetPoolCounters samples pool-wide production counters
func (m *Metrics) SetPoolCounters(pool string, published, overwrites uint64) {
	m.PoolPublished.WithLabelValues(pool).Set(float64(published))
	m.PoolOverwrites.WithLabelValues(pool).Set(float64(overwrites))
}

// SetConsumerCounters samples one consumer's reserve outcomes: buffers it
// claimed and buffers it lost to overwrites
func (m *Metrics) SetConsumerCounters(pool, consumer string, claimed, skipped uint64) {
	m.PoolClaimed.WithLabelValues(pool, consumer).Set(float64(claimed))
	m.PoolSkipped.WithLabelValues(pool, consumer).Set(float64(skipped))
}

// SetWriterCounters samples writer output counters
func (m *Metrics) SetWriterCounters(written, dropped uint64, bytes int64) {
	m.SpectraWritten.Set(float64(written))
	m.SpectraDropped.Set(float64(dropped))
	m.SpectraBytes.Set(float64(bytes))
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()

	m.mu.Lock()
	m.snapshot.WSConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()

	m.mu.Lock()
	m.snapshot.WSConnections--
	m.mu.Unlock()
}
