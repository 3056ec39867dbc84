package server

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/SpectraCore/internal/infrastructure/config"
	"github.com/GriffinCanCode/SpectraCore/internal/providers/transform"
)

// testConfig shrinks the pipeline so construction stays cheap.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Port = "0"
	cfg.Logging.Level = "error"
	cfg.Transform.FFTSize = 1024
	cfg.Transform.Averages = 4
	cfg.Transform.Workers = 1
	cfg.Transform.Cores = nil
	cfg.Pools.SourceBuffers = 2
	cfg.Pools.SinkBuffers = 2
	cfg.Writer.RootDir = t.TempDir()
	cfg.Scheduler.TickPeriod = 10 * time.Millisecond
	cfg.Scheduler.Grace = time.Millisecond
	cfg.RateLimit.Enabled = false
	return cfg
}

func TestNewServerBuildsPipeline(t *testing.T) {
	s, err := NewServer(testConfig(t))
	require.NoError(t, err)
	defer s.Close()

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	require.Equal(t, 200, rec.Code)

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest("GET", "/status", nil))
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"idle"`)

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "spectracore_")
}

func TestNewServerRejectsBadDigitizer(t *testing.T) {
	cfg := testConfig(t)
	cfg.Digitizer.SampleRate = -1

	_, err := NewServer(cfg)
	require.ErrorContains(t, err, "digitizer")
}

func TestServerLifecycle(t *testing.T) {
	s, err := NewServer(testConfig(t))
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run() }()

	require.Eventually(t, func() bool {
		for _, st := range s.stages {
			if !st.Running() {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)

	require.NoError(t, s.Close())

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}

func TestSampleFeedsGauges(t *testing.T) {
	s, err := NewServer(testConfig(t))
	require.NoError(t, err)
	defer s.Close()

	s.sample()

	depth := s.metrics.PoolDepth.WithLabelValues("source", transform.ConsumerID)
	assert.Equal(t, float64(0), testutil.ToFloat64(depth))
	published := s.metrics.PoolPublished.WithLabelValues("sink")
	assert.Equal(t, float64(0), testutil.ToFloat64(published))
}
