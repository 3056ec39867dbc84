package writer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/SpectraCore/internal/domain/ring"
	"github.com/GriffinCanCode/SpectraCore/internal/domain/scheduler"
	"github.com/GriffinCanCode/SpectraCore/internal/shared/paths"
	"github.com/GriffinCanCode/SpectraCore/internal/shared/utils"
)

// ConsumerID names the writer's cursor on the spectrum pool.
const ConsumerID = "writer"

var (
	ErrBadConfig  = errors.New("writer: bad config")
	ErrScanActive = errors.New("writer: scan already active")
	ErrNoScan     = errors.New("writer: no active scan")
)

// Config controls where and how spectra are landed.
type Config struct {
	// RootDir is the directory scans are written under. Required.
	RootDir string

	// Compress lands .spec files zstd-compressed as .spec.zst.
	Compress bool

	// SwitchingFrequency and BlankingPeriod are recorded in .npow headers
	// so the statistics can be interpreted offline.
	SwitchingFrequency float64
	BlankingPeriod     float64

	// Wait bounds how long a reserve spins before reporting an empty pool.
	Wait ring.Wait

	// Grace bounds the drain at scan close; EndScan waits at most twice
	// this long for queued spectra.
	Grace time.Duration

	// IdleSleep is how long the stage parks between polls when the pool
	// is empty.
	IdleSleep time.Duration
}

type scanState struct {
	session scheduler.Session
	dir     string
	skipped uint64
	files   int
	bytes   int64
	spectra uint64
	entries []string
}

// Writer consumes spectrum buffers from a ring pool and persists each one
// under the active scan's directory. It is both a stage runner and the
// scheduler's sink.
type Writer struct {
	cfg      Config
	log      *zap.Logger
	pool     *ring.Pool[float32]
	consumer int

	mu   sync.Mutex
	scan *scanState

	inflight atomic.Int64
	written  atomic.Uint64
	bytes    atomic.Int64
	dropped  atomic.Uint64
	failures atomic.Uint64
}

// Stats is a point-in-time view of writer activity.
type Stats struct {
	Written  uint64 `json:"written"`
	Bytes    int64  `json:"bytes"`
	Dropped  uint64 `json:"dropped"`
	Failures uint64 `json:"failures"`
	Active   bool   `json:"active"`
}

func New(cfg Config, pool *ring.Pool[float32], log *zap.Logger) (*Writer, error) {
	if cfg.RootDir == "" {
		return nil, fmt.Errorf("%w: root directory required", ErrBadConfig)
	}
	if err := os.MkdirAll(cfg.RootDir, 0o755); err != nil {
		return nil, fmt.Errorf("create root directory: %w", err)
	}
	if cfg.Wait == (ring.Wait{}) {
		cfg.Wait = ring.DefaultWait()
	}
	if cfg.Grace <= 0 {
		cfg.Grace = time.Second
	}
	if cfg.IdleSleep <= 0 {
		cfg.IdleSleep = 10 * time.Microsecond
	}

	return &Writer{
		cfg:      cfg,
		log:      log,
		pool:     pool,
		consumer: pool.RegisterConsumer(ConsumerID),
	}, nil
}

// WorkPresent reports whether spectra are queued for writing.
func (w *Writer) WorkPresent() bool {
	return w.pool.Depth(w.consumer) > 0
}

// Idle parks the worker briefly while the pool is empty.
func (w *Writer) Idle() {
	time.Sleep(w.cfg.IdleSleep)
}

// ExecuteTask lands the next queued spectrum. Buffers that arrive outside
// a scan are consumed and dropped so the pool never backs up.
func (w *Writer) ExecuteTask() error {
	w.inflight.Add(1)
	defer w.inflight.Add(-1)

	b, res := w.pool.Reserve(w.consumer, w.cfg.Wait)
	if res != ring.ResultSuccess {
		return nil
	}
	defer w.pool.Release(w.consumer, b)

	w.mu.Lock()
	scan := w.scan
	w.mu.Unlock()
	if scan == nil {
		w.dropped.Add(1)
		return nil
	}

	if b.Meta.LeadingSampleIndex == 0 {
		w.log.Info("new acquisition",
			zap.String("scan_id", scan.session.ID),
			zap.Int64("start_second", b.Meta.AcquisitionStartSecond))
	}

	files, n, entries, err := w.writeBuffer(scan, b)
	if err != nil {
		w.failures.Add(1)
		return err
	}

	w.mu.Lock()
	if w.scan == scan {
		scan.files += files
		scan.bytes += n
		scan.spectra++
		scan.entries = append(scan.entries, entries...)
	}
	w.mu.Unlock()
	w.written.Add(1)
	w.bytes.Add(n)
	return nil
}

// BeginScan creates the scan directory and arms the writer.
func (w *Writer) BeginScan(sess scheduler.Session) error {
	dir := filepath.Join(w.cfg.RootDir, sess.Dir())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create scan directory: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.scan != nil {
		return ErrScanActive
	}
	w.scan = &scanState{session: sess, dir: dir, skipped: w.consumerSkipped()}

	w.log.Info("scan opened",
		zap.String("scan_id", sess.ID),
		zap.String("directory", dir))
	return nil
}

// EndScan drains queued spectra, writes the scan summary, and reports what
// was written.
func (w *Writer) EndScan(sess scheduler.Session) (scheduler.ScanReport, error) {
	w.drain()

	w.mu.Lock()
	scan := w.scan
	w.scan = nil
	w.mu.Unlock()
	if scan == nil {
		return scheduler.ScanReport{}, ErrNoScan
	}

	report := scheduler.ScanReport{
		ScanID:    scan.session.ID,
		Directory: scan.dir,
		Files:     scan.files,
		Bytes:     scan.bytes,
		Spectra:   scan.spectra,
		Dropped:   w.consumerSkipped() - scan.skipped,
	}
	var manifest string
	if len(scan.entries) > 0 {
		manifest = utils.DefaultHasher().HashFields(scan.entries...)
	}
	if err := w.writeMeta(scan.dir, sess, report, manifest); err != nil {
		return report, err
	}

	w.log.Info("scan closed",
		zap.String("scan_id", report.ScanID),
		zap.Int("files", report.Files),
		zap.Int64("bytes", report.Bytes),
		zap.Uint64("spectra", report.Spectra))
	return report, nil
}

// Stats captures current writer counters.
func (w *Writer) Stats() Stats {
	w.mu.Lock()
	active := w.scan != nil
	w.mu.Unlock()
	return Stats{
		Written:  w.written.Load(),
		Bytes:    w.bytes.Load(),
		Dropped:  w.dropped.Load(),
		Failures: w.failures.Load(),
		Active:   active,
	}
}

// drain waits for queued and in-flight spectra to settle, bounded by twice
// the configured grace.
func (w *Writer) drain() {
	deadline := time.Now().Add(2 * w.cfg.Grace)
	for time.Now().Before(deadline) {
		if w.pool.Depth(w.consumer) == 0 && w.inflight.Load() == 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	w.log.Warn("scan close timed out with spectra still queued",
		zap.Int("depth", w.pool.Depth(w.consumer)))
}

func (w *Writer) writeBuffer(scan *scanState, b *ring.Buffer[float32]) (int, int64, []string, error) {
	name := paths.SpectrumFile(b.Meta.AcquisitionStartSecond, b.Meta.LeadingSampleIndex, w.cfg.Compress)
	n, err := w.writeFile(filepath.Join(scan.dir, name), w.cfg.Compress, func(out io.Writer) error {
		return encodeSpectrum(out, b)
	})
	if err != nil {
		return 0, 0, nil, err
	}
	files, total := 1, n
	entries := []string{fmt.Sprintf("%s:%d", name, n)}

	if len(b.Meta.Accumulations) > 0 {
		name := paths.NoisePowerFile(b.Meta.AcquisitionStartSecond, b.Meta.LeadingSampleIndex,
			b.Meta.Sideband, b.Meta.Polarization)
		n, err := w.writeFile(filepath.Join(scan.dir, name), false, func(out io.Writer) error {
			return w.encodeNoisePower(out, scan.session, b)
		})
		if err != nil {
			return files, total, entries, err
		}
		files++
		total += n
		entries = append(entries, fmt.Sprintf("%s:%d", name, n))
	}
	return files, total, entries, nil
}

func (w *Writer) writeFile(path string, compress bool, encode func(io.Writer) error) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}

	var out io.Writer = f
	var zw *zstd.Encoder
	if compress {
		if zw, err = zstd.NewWriter(f); err != nil {
			f.Close()
			return 0, err
		}
		out = zw
	}

	err = encode(out)
	if zw != nil {
		if cerr := zw.Close(); err == nil {
			err = cerr
		}
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (w *Writer) writeMeta(dir string, sess scheduler.Session, report scheduler.ScanReport, manifest string) error {
	m := Meta{
		ScanID:      report.ScanID,
		Experiment:  sess.Experiment,
		Source:      sess.Source,
		Scan:        sess.Scan,
		StartSecond: sess.StartSecond,
		EndSecond:   sess.EndSecond,
		Files:       report.Files,
		Bytes:       report.Bytes,
		Spectra:     report.Spectra,
		Dropped:     report.Dropped,
		Manifest:    manifest,
		ClosedAt:    time.Now().UTC(),
	}
	data, err := sonic.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, paths.MetaFile), data, 0o644)
}

func (w *Writer) consumerSkipped() uint64 {
	s := w.pool.Stats()
	if w.consumer < len(s.Consumers) {
		return s.Consumers[w.consumer].Skipped
	}
	return 0
}
