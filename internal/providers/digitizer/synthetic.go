package digitizer

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/SpectraCore/internal/domain/ring"
)

// Config describes the synthetic front end.
type Config struct {
	// SampleRate in samples per second.
	SampleRate float64
	// ToneFrequency of the injected line, Hz.
	ToneFrequency float64
	// ToneAmplitude in counts.
	ToneAmplitude float64
	// NoiseAmplitude bounds the uniform dither, in counts.
	NoiseAmplitude float64
	// Offset is the mid-scale count every sample centers on.
	Offset float64
	// Pace makes the producer sleep one buffer-duration per buffer so the
	// stream approximates wall-clock rate.
	Pace bool
	// Seed for the dither generator; zero seeds from the clock.
	Seed uint64
}

// DefaultConfig models a 12-bit front end sampling at 64 MS/s with a line
// at 10 MHz.
func DefaultConfig() Config {
	return Config{
		SampleRate:     64e6,
		ToneFrequency:  10e6,
		ToneAmplitude:  512,
		NoiseAmplitude: 64,
		Offset:         2048,
	}
}

// Synthetic is a software Digitizer producing a tone in dither.
type Synthetic struct {
	cfg  Config
	log  *zap.Logger
	pool *ring.Pool[uint16]

	mu          sync.Mutex
	initialized bool
	running     bool
	rng         *rand.Rand

	drain atomic.Bool
	halt  atomic.Bool
	wg    sync.WaitGroup

	buffers atomic.Uint64
	epochs  atomic.Uint64
}

// NewSynthetic creates an uninitialized synthetic digitizer.
func NewSynthetic(cfg Config, log *zap.Logger) *Synthetic {
	return &Synthetic{cfg: cfg, log: log}
}

// Initialize validates the configuration. It stands in for the hardware
// probe a real front end performs.
func (s *Synthetic) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %v", ErrBadConfig, s.cfg.SampleRate)
	}
	if s.cfg.ToneFrequency < 0 || s.cfg.ToneFrequency > s.cfg.SampleRate/2 {
		return fmt.Errorf("%w: tone %v outside Nyquist band", ErrBadConfig, s.cfg.ToneFrequency)
	}
	seed := s.cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	s.rng = rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
	s.initialized = true
	s.log.Info("synthetic digitizer ready",
		zap.Float64("sample_rate", s.cfg.SampleRate),
		zap.Float64("tone_hz", s.cfg.ToneFrequency),
		zap.Bool("pace", s.cfg.Pace))
	return nil
}

// SetBufferPool hands the digitizer its source pool.
func (s *Synthetic) SetBufferPool(pool *ring.Pool[uint16]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pool = pool
}

// SamplingFrequency returns the configured rate.
func (s *Synthetic) SamplingFrequency() float64 {
	return s.cfg.SampleRate
}

// Acquire begins a new acquisition epoch. It is a no-op while production is
// already running or after StopProduction.
func (s *Synthetic) Acquire() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case !s.initialized:
		s.log.Error("acquire refused", zap.Error(ErrNotInitialized))
		return
	case s.pool == nil:
		s.log.Error("acquire refused", zap.Error(ErrNoBufferPool))
		return
	}
	if s.running || s.halt.Load() {
		return
	}
	s.drain.Store(false)
	s.running = true
	s.epochs.Add(1)
	s.wg.Add(1)
	go s.produce(time.Now().Unix())
}

// StopAfterNextBuffer asks the producer to finish and publish the buffer in
// flight, then stop. Production can be restarted with Acquire.
func (s *Synthetic) StopAfterNextBuffer() {
	s.drain.Store(true)
}

// StopProduction halts the producer unconditionally and waits for it to
// exit. The digitizer cannot be restarted afterwards.
func (s *Synthetic) StopProduction() {
	s.halt.Store(true)
	s.wg.Wait()
}

// Running reports whether an acquisition epoch is in progress.
func (s *Synthetic) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Buffers returns the total buffers published across all epochs.
func (s *Synthetic) Buffers() uint64 {
	return s.buffers.Load()
}

func (s *Synthetic) produce(startSecond int64) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.log.Info("acquisition epoch started", zap.Int64("start_second", startSecond))

	omega := 2 * math.Pi * s.cfg.ToneFrequency / s.cfg.SampleRate
	var index uint64
	var pace time.Duration
	if s.cfg.Pace {
		pace = time.Duration(float64(s.pool.Capacity()) / s.cfg.SampleRate * float64(time.Second))
	}

	for !s.halt.Load() {
		b := s.pool.Checkout()
		s.fill(b, startSecond, index, omega)
		index += uint64(len(b.Data))
		s.pool.Publish(b)
		s.buffers.Add(1)

		if s.drain.Load() {
			s.log.Info("acquisition epoch drained",
				zap.Int64("start_second", startSecond),
				zap.Uint64("samples", index))
			return
		}
		if pace > 0 {
			time.Sleep(pace)
		}
	}
}

func (s *Synthetic) fill(b *ring.Buffer[uint16], startSecond int64, index uint64, omega float64) {
	for i := range b.Data {
		v := s.cfg.Offset + s.cfg.ToneAmplitude*math.Sin(omega*float64(index+uint64(i)))
		if s.cfg.NoiseAmplitude > 0 {
			v += (s.rng.Float64()*2 - 1) * s.cfg.NoiseAmplitude
		}
		switch {
		case v < 0:
			v = 0
		case v > math.MaxUint16:
			v = math.MaxUint16
		}
		b.Data[i] = uint16(v)
	}
	b.Meta.AcquisitionStartSecond = startSecond
	b.Meta.LeadingSampleIndex = index
	b.Meta.SampleRate = s.cfg.SampleRate
	b.Meta.ValidLength = len(b.Data)
}
