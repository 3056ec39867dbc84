package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns the Prometheus scrape handler for this collector's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// GetSnapshot returns current metric values for the JSON status API
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := m.snapshot
	snap.UptimeSeconds = time.Since(m.startTime).Seconds()
	return snap
}

// AvgRequestDuration returns the mean HTTP request duration in seconds
func (m *Metrics) AvgRequestDuration() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.snapshot.RequestCount == 0 {
		return 0
	}
	return m.snapshot.TotalDuration / float64(m.snapshot.RequestCount)
}
