package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Logging   LogConfig       `yaml:"logging" toml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
	Pools     PoolsConfig     `yaml:"pools" toml:"pools"`
	Digitizer DigitizerConfig `yaml:"digitizer" toml:"digitizer"`
	Transform TransformConfig `yaml:"transform" toml:"transform"`
	Writer    WriterConfig    `yaml:"writer" toml:"writer"`
	Scheduler SchedulerConfig `yaml:"scheduler" toml:"scheduler"`
	Command   CommandConfig   `yaml:"command" toml:"command"`
	Handoff   HandoffConfig   `yaml:"handoff" toml:"handoff"`
	MQTT      MQTTConfig      `yaml:"mqtt" toml:"mqtt"`
	Webhook   WebhookConfig   `yaml:"webhook" toml:"webhook"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000" yaml:"port" toml:"port"`
	Host string `envconfig:"HOST" default:"0.0.0.0" yaml:"host" toml:"host"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" yaml:"burst" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled" toml:"enabled"`
}

// PoolsConfig sizes the sample and spectrum ring pools.
type PoolsConfig struct {
	SourceBuffers int  `envconfig:"SOURCE_POOL_BUFFERS" default:"32" yaml:"source_buffers" toml:"source_buffers"`
	SinkBuffers   int  `envconfig:"SINK_POOL_BUFFERS" default:"16" yaml:"sink_buffers" toml:"sink_buffers"`
	Mapped        bool `envconfig:"POOL_MAPPED" default:"false" yaml:"mapped" toml:"mapped"`
}

// DigitizerConfig shapes the synthetic sample stream.
type DigitizerConfig struct {
	SampleRate     float64 `envconfig:"SAMPLE_RATE" default:"64e6" yaml:"sample_rate" toml:"sample_rate"`
	ToneFrequency  float64 `envconfig:"TONE_FREQUENCY" default:"1e7" yaml:"tone_frequency" toml:"tone_frequency"`
	ToneAmplitude  float64 `envconfig:"TONE_AMPLITUDE" default:"512" yaml:"tone_amplitude" toml:"tone_amplitude"`
	NoiseAmplitude float64 `envconfig:"NOISE_AMPLITUDE" default:"64" yaml:"noise_amplitude" toml:"noise_amplitude"`
	Offset         float64 `envconfig:"SAMPLE_OFFSET" default:"2048" yaml:"offset" toml:"offset"`
	Pace           bool    `envconfig:"DIGITIZER_PACE" default:"true" yaml:"pace" toml:"pace"`
	Seed           uint64  `envconfig:"DIGITIZER_SEED" default:"0" yaml:"seed" toml:"seed"`
}

// TransformConfig controls spectral processing.
type TransformConfig struct {
	FFTSize            int     `envconfig:"FFT_SIZE" default:"131072" yaml:"fft_size" toml:"fft_size"`
	Averages           int     `envconfig:"AVERAGES" default:"256" yaml:"averages" toml:"averages"`
	SwitchingFrequency float64 `envconfig:"SWITCHING_FREQUENCY" default:"80" yaml:"switching_frequency" toml:"switching_frequency"`
	BlankingPeriod     float64 `envconfig:"BLANKING_PERIOD" default:"0" yaml:"blanking_period" toml:"blanking_period"`
	Sideband           string  `envconfig:"SIDEBAND" default:"U" yaml:"sideband" toml:"sideband"`
	Polarization       string  `envconfig:"POLARIZATION" default:"X" yaml:"polarization" toml:"polarization"`
	Workers            int     `envconfig:"TRANSFORM_WORKERS" default:"3" yaml:"workers" toml:"workers"`
	Cores              []int   `envconfig:"TRANSFORM_CORES" default:"1,2,3" yaml:"cores" toml:"cores"`
}

// WriterConfig controls how spectra are landed on disk.
type WriterConfig struct {
	RootDir  string `envconfig:"DATA_DIR" default:"./data" yaml:"root_dir" toml:"root_dir"`
	Compress bool   `envconfig:"COMPRESS_SPECTRA" default:"false" yaml:"compress" toml:"compress"`
	Workers  int    `envconfig:"WRITER_WORKERS" default:"1" yaml:"workers" toml:"workers"`
	Cores    []int  `envconfig:"WRITER_CORES" yaml:"cores" toml:"cores"`
}

// SchedulerConfig paces the command loop.
type SchedulerConfig struct {
	TickPeriod time.Duration `envconfig:"TICK_PERIOD" default:"1s" yaml:"tick_period" toml:"tick_period"`
	Grace      time.Duration `envconfig:"SHUTDOWN_GRACE" default:"1s" yaml:"grace" toml:"grace"`
}

// CommandConfig bounds the inbound command queue.
type CommandConfig struct {
	QueueDepth int `envconfig:"COMMAND_QUEUE_DEPTH" default:"64" yaml:"queue_depth" toml:"queue_depth"`
}

// HandoffConfig tunes consumer reserve waits on the ring pools.
type HandoffConfig struct {
	ReserveAttempts int           `envconfig:"RESERVE_ATTEMPTS" default:"100" yaml:"reserve_attempts" toml:"reserve_attempts"`
	ReserveDelay    time.Duration `envconfig:"RESERVE_DELAY" default:"500us" yaml:"reserve_delay" toml:"reserve_delay"`
}

// MQTTConfig connects the command ingress to a broker. An empty broker
// disables MQTT.
type MQTTConfig struct {
	Broker   string `envconfig:"MQTT_BROKER" default:"" yaml:"broker" toml:"broker"`
	Topic    string `envconfig:"MQTT_TOPIC" default:"spectra/commands" yaml:"topic" toml:"topic"`
	ClientID string `envconfig:"MQTT_CLIENT_ID" default:"spectracore" yaml:"client_id" toml:"client_id"`
	Username string `envconfig:"MQTT_USERNAME" default:"" yaml:"username" toml:"username"`
	Password string `envconfig:"MQTT_PASSWORD" default:"" yaml:"password" toml:"password"`
}

// WebhookConfig points scan notifications at an operator endpoint. An
// empty URL disables delivery.
type WebhookConfig struct {
	URL     string        `envconfig:"WEBHOOK_URL" default:"" yaml:"url" toml:"url"`
	Timeout time.Duration `envconfig:"WEBHOOK_TIMEOUT" default:"10s" yaml:"timeout" toml:"timeout"`
	Retries int           `envconfig:"WEBHOOK_RETRIES" default:"3" yaml:"retries" toml:"retries"`
}

// Load reads configuration from the environment, then overlays the file
// named by CONFIG_FILE when set. File values win over environment values.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return nil, err
		}
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration or falls back to defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns the built-in configuration, independent of the
// environment.
func Default() *Config {
	cfg := Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Pools: PoolsConfig{
			SourceBuffers: 32,
			SinkBuffers:   16,
		},
		Digitizer: DigitizerConfig{
			SampleRate:     64e6,
			ToneFrequency:  1e7,
			ToneAmplitude:  512,
			NoiseAmplitude: 64,
			Offset:         2048,
			Pace:           true,
		},
		Transform: TransformConfig{
			FFTSize:            131072,
			Averages:           256,
			SwitchingFrequency: 80,
			Sideband:           "U",
			Polarization:       "X",
			Workers:            3,
			Cores:              []int{1, 2, 3},
		},
		Writer: WriterConfig{
			RootDir: "./data",
			Workers: 1,
		},
		Scheduler: SchedulerConfig{
			TickPeriod: time.Second,
			Grace:      time.Second,
		},
		Command: CommandConfig{
			QueueDepth: 64,
		},
		Handoff: HandoffConfig{
			ReserveAttempts: 100,
			ReserveDelay:    500 * time.Microsecond,
		},
		MQTT: MQTTConfig{
			Topic:    "spectra/commands",
			ClientID: "spectracore",
		},
		Webhook: WebhookConfig{
			Timeout: 10 * time.Second,
			Retries: 3,
		},
	}
	cfg.normalize()
	return &cfg
}

func overlayFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
	return nil
}

// normalize fills derived values and clamps worker counts.
func (c *Config) normalize() {
	// Blanking defaults to 20 sample periods on either flank of the
	// switching edge.
	if c.Transform.BlankingPeriod == 0 && c.Digitizer.SampleRate > 0 {
		c.Transform.BlankingPeriod = 20.0 / c.Digitizer.SampleRate
	}
	if c.Transform.Workers < 1 {
		c.Transform.Workers = 1
	}
	if c.Writer.Workers < 1 {
		c.Writer.Workers = 1
	}
	if c.Command.QueueDepth < 1 {
		c.Command.QueueDepth = 64
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Digitizer.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %v", c.Digitizer.SampleRate)
	}
	if c.Digitizer.ToneFrequency < 0 || c.Digitizer.ToneFrequency > c.Digitizer.SampleRate/2 {
		return fmt.Errorf("tone frequency %v outside [0, rate/2]", c.Digitizer.ToneFrequency)
	}
	if c.Transform.FFTSize < 2 {
		return fmt.Errorf("fft size must be at least 2, got %d", c.Transform.FFTSize)
	}
	if c.Transform.Averages < 1 {
		return fmt.Errorf("averages must be at least 1, got %d", c.Transform.Averages)
	}
	if c.Transform.BlankingPeriod < 0 {
		return fmt.Errorf("blanking period must not be negative, got %v", c.Transform.BlankingPeriod)
	}
	if len(c.Transform.Sideband) != 1 || len(c.Transform.Polarization) != 1 {
		return fmt.Errorf("sideband and polarization must be single characters")
	}
	if c.Pools.SourceBuffers < 2 || c.Pools.SinkBuffers < 2 {
		return fmt.Errorf("pools need at least 2 buffers, got %d source and %d sink",
			c.Pools.SourceBuffers, c.Pools.SinkBuffers)
	}
	if c.Writer.RootDir == "" {
		return fmt.Errorf("writer root directory required")
	}
	if c.Scheduler.TickPeriod <= 0 {
		return fmt.Errorf("tick period must be positive, got %v", c.Scheduler.TickPeriod)
	}
	if c.Handoff.ReserveAttempts < 1 || c.Handoff.ReserveDelay <= 0 {
		return fmt.Errorf("reserve wait needs positive attempts and delay")
	}
	return nil
}
