package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, 131072, cfg.Transform.FFTSize)
	assert.Equal(t, 256, cfg.Transform.Averages)
	assert.Equal(t, float64(80), cfg.Transform.SwitchingFrequency)
	assert.Equal(t, 32, cfg.Pools.SourceBuffers)
	assert.Equal(t, 16, cfg.Pools.SinkBuffers)
	assert.Equal(t, []int{1, 2, 3}, cfg.Transform.Cores)
	assert.Equal(t, 3, cfg.Transform.Workers)
	assert.Equal(t, 1, cfg.Writer.Workers)
	assert.Equal(t, time.Second, cfg.Scheduler.TickPeriod)
	assert.Equal(t, 100, cfg.Handoff.ReserveAttempts)
	assert.Equal(t, 500*time.Microsecond, cfg.Handoff.ReserveDelay)

	// Blanking derives from the sample rate when left unset.
	assert.InDelta(t, 20.0/64e6, cfg.Transform.BlankingPeriod, 1e-15)

	require.NoError(t, cfg.Validate())
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("FFT_SIZE", "1024")
	t.Setenv("SAMPLE_RATE", "1e6")
	t.Setenv("TONE_FREQUENCY", "1e5")
	t.Setenv("TRANSFORM_CORES", "7,8")
	t.Setenv("TICK_PERIOD", "250ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1024, cfg.Transform.FFTSize)
	assert.Equal(t, float64(1e6), cfg.Digitizer.SampleRate)
	assert.Equal(t, []int{7, 8}, cfg.Transform.Cores)
	assert.Equal(t, 250*time.Millisecond, cfg.Scheduler.TickPeriod)
	assert.InDelta(t, 20.0/1e6, cfg.Transform.BlankingPeriod, 1e-15)
}

func TestLoadOverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spectra.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
transform:
  fft_size: 4096
  averages: 8
writer:
  compress: true
`), 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("FFT_SIZE", "2048")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4096, cfg.Transform.FFTSize, "file values win over environment")
	assert.Equal(t, 8, cfg.Transform.Averages)
	assert.True(t, cfg.Writer.Compress)
	assert.Equal(t, 32, cfg.Pools.SourceBuffers, "untouched values keep defaults")
}

func TestLoadOverlaysTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spectra.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[digitizer]
sample_rate = 2e6
tone_frequency = 1e5

[scheduler]
tick_period = "100ms"
`), 0o644))

	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, float64(2e6), cfg.Digitizer.SampleRate)
	assert.Equal(t, 100*time.Millisecond, cfg.Scheduler.TickPeriod)
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spectra.ini")
	require.NoError(t, os.WriteFile(path, []byte("x=y"), 0o644))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"zero sample rate", func(c *Config) { c.Digitizer.SampleRate = 0 }},
		{"tone beyond nyquist", func(c *Config) { c.Digitizer.ToneFrequency = c.Digitizer.SampleRate }},
		{"tiny fft", func(c *Config) { c.Transform.FFTSize = 1 }},
		{"zero averages", func(c *Config) { c.Transform.Averages = 0 }},
		{"negative blanking", func(c *Config) { c.Transform.BlankingPeriod = -1 }},
		{"bad sideband", func(c *Config) { c.Transform.Sideband = "USB" }},
		{"one-buffer pool", func(c *Config) { c.Pools.SourceBuffers = 1 }},
		{"no data dir", func(c *Config) { c.Writer.RootDir = "" }},
		{"zero tick", func(c *Config) { c.Scheduler.TickPeriod = 0 }},
		{"zero reserve delay", func(c *Config) { c.Handoff.ReserveDelay = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mod(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadSurfacesValidationErrors(t *testing.T) {
	t.Setenv("FFT_SIZE", "1")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOrDefaultFallsBack(t *testing.T) {
	t.Setenv("FFT_SIZE", "1")

	cfg := LoadOrDefault()
	assert.Equal(t, 131072, cfg.Transform.FFTSize)
}
