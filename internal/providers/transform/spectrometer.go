package transform

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/GriffinCanCode/SpectraCore/internal/domain/ring"
)

// ConsumerID is the spectrometer's identity on the source pool.
const ConsumerID = "spectrometer"

// ErrBadConfig reports an unusable spectrometer configuration.
var ErrBadConfig = errors.New("invalid spectrometer configuration")

// Config fixes the spectral geometry and the calibration timing.
type Config struct {
	// FFTSize is the segment length in samples; one spectrum of
	// FFTSize/2+1 bins is produced per segment.
	FFTSize int
	// Averages caps how many segment spectra fold into one sink buffer.
	Averages int
	// SampleRate in samples per second.
	SampleRate float64
	// SwitchingFrequency of the calibration source, Hz. Zero disables
	// accumulation statistics.
	SwitchingFrequency float64
	// BlankingPeriod is the settling window excluded after each switch
	// edge, in seconds.
	BlankingPeriod float64
	// SampleOffset is subtracted from every raw count before transforming.
	SampleOffset float64
	// Sideband and Polarization tag the receiver chain this spectrometer
	// serves.
	Sideband     byte
	Polarization byte
	// Wait is the source reserve policy; zero uses ring.DefaultWait.
	Wait ring.Wait
	// IdleSleep bounds the worker's idle nap.
	IdleSleep time.Duration
}

type workspace struct {
	fft    *fourier.FFT
	in     []float64
	coeff  []complex128
	acc    []float64
	accums []ring.Accumulation
}

// Spectrometer consumes raw sample buffers and produces spectrum buffers.
// It implements the stage worker contract.
type Spectrometer struct {
	cfg      Config
	log      *zap.Logger
	source   *ring.Pool[uint16]
	sink     *ring.Pool[float32]
	consumer int
	bins     int

	workspaces sync.Pool
	processed  atomic.Uint64
	skipped    atomic.Uint64
}

// New validates the configuration and registers the spectrometer on its
// source pool. Registration happens here, before any worker runs.
func New(cfg Config, source *ring.Pool[uint16], sink *ring.Pool[float32], log *zap.Logger) (*Spectrometer, error) {
	if cfg.FFTSize < 2 {
		return nil, fmt.Errorf("%w: fft size %d", ErrBadConfig, cfg.FFTSize)
	}
	if cfg.Averages < 1 {
		return nil, fmt.Errorf("%w: averages %d", ErrBadConfig, cfg.Averages)
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %v", ErrBadConfig, cfg.SampleRate)
	}
	if cfg.BlankingPeriod < 0 {
		return nil, fmt.Errorf("%w: blanking period %v", ErrBadConfig, cfg.BlankingPeriod)
	}
	bins := cfg.FFTSize/2 + 1
	if sink.Capacity() < bins {
		return nil, fmt.Errorf("%w: sink capacity %d below %d bins", ErrBadConfig, sink.Capacity(), bins)
	}
	if cfg.Wait == (ring.Wait{}) {
		cfg.Wait = ring.DefaultWait()
	}
	if cfg.IdleSleep <= 0 {
		cfg.IdleSleep = 100 * time.Microsecond
	}

	sp := &Spectrometer{
		cfg:      cfg,
		log:      log,
		source:   source,
		sink:     sink,
		consumer: source.RegisterConsumer(ConsumerID),
		bins:     bins,
	}
	sp.workspaces.New = func() any {
		return &workspace{
			fft:   fourier.NewFFT(cfg.FFTSize),
			in:    make([]float64, cfg.FFTSize),
			coeff: make([]complex128, bins),
			acc:   make([]float64, bins),
		}
	}
	return sp, nil
}

// WorkPresent reports unconsumed source buffers.
func (sp *Spectrometer) WorkPresent() bool {
	return sp.source.Depth(sp.consumer) > 0
}

// Idle naps between polls.
func (sp *Spectrometer) Idle() {
	time.Sleep(sp.cfg.IdleSleep)
}

// Processed returns how many spectra buffers have been published.
func (sp *Spectrometer) Processed() uint64 {
	return sp.processed.Load()
}

// ExecuteTask transforms one source buffer into one published spectrum
// buffer. A reserve miss is absence of work, not an error.
func (sp *Spectrometer) ExecuteTask() error {
	src, res := sp.source.Reserve(sp.consumer, sp.cfg.Wait)
	if res != ring.ResultSuccess {
		return nil
	}

	nseg := src.Meta.ValidLength / sp.cfg.FFTSize
	if nseg == 0 {
		meta := src.Meta
		sp.source.Release(sp.consumer, src)
		sp.skipped.Add(1)
		sp.log.Warn("buffer shorter than one segment, skipping",
			zap.Int("valid_length", meta.ValidLength),
			zap.Int("fft_size", sp.cfg.FFTSize))
		return nil
	}
	if nseg > sp.cfg.Averages {
		nseg = sp.cfg.Averages
	}

	ws := sp.workspaces.Get().(*workspace)
	defer sp.workspaces.Put(ws)

	for i := range ws.acc {
		ws.acc[i] = 0
	}
	samples := src.Data[:src.Meta.ValidLength]
	for seg := 0; seg < nseg; seg++ {
		chunk := samples[seg*sp.cfg.FFTSize : (seg+1)*sp.cfg.FFTSize]
		for i, v := range chunk {
			ws.in[i] = float64(v) - sp.cfg.SampleOffset
		}
		coeff := ws.fft.Coefficients(ws.coeff, ws.in)
		for k, c := range coeff {
			re, im := real(c), imag(c)
			ws.acc[k] += re*re + im*im
		}
	}
	ws.accums = sp.appendAccumulations(ws.accums[:0], samples, src.Meta.LeadingSampleIndex)

	meta := src.Meta
	sp.source.Release(sp.consumer, src)

	dst := sp.sink.Checkout()
	scale := 1 / float64(nseg)
	for k := 0; k < sp.bins; k++ {
		dst.Data[k] = float32(ws.acc[k] * scale)
	}
	dst.Meta.AcquisitionStartSecond = meta.AcquisitionStartSecond
	dst.Meta.LeadingSampleIndex = meta.LeadingSampleIndex
	dst.Meta.SampleRate = meta.SampleRate
	dst.Meta.ValidLength = sp.bins
	dst.Meta.SpectraAveraged = nseg
	dst.Meta.Sideband = sp.cfg.Sideband
	dst.Meta.Polarization = sp.cfg.Polarization
	dst.Meta.Accumulations = append(dst.Meta.Accumulations[:0], ws.accums...)
	sp.sink.Publish(dst)

	sp.processed.Add(1)
	return nil
}
