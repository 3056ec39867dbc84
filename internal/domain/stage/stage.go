package stage

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrAlreadyRunning is returned by Start when the stage has live workers.
var ErrAlreadyRunning = errors.New("stage already running")

// Runner is the work contract a stage drives. WorkPresent gates ExecuteTask;
// Idle must block for a short, bounded interval when no work exists so the
// loop never spins hot.
type Runner interface {
	WorkPresent() bool
	ExecuteTask() error
	Idle()
}

// Config describes a worker group.
type Config struct {
	Name    string
	Workers int
	Cores   []int // optional; worker i pins to Cores[i%len(Cores)]
}

// Stage runs a fixed group of workers over a single Runner.
type Stage struct {
	name    string
	workers int
	cores   []int
	runner  Runner
	log     *zap.Logger
	observe func(time.Duration, error)

	running atomic.Bool
	halt    atomic.Bool
	wg      sync.WaitGroup

	tasks atomic.Uint64
	fails atomic.Uint64
	idles atomic.Uint64
}

// New creates a stage; Workers below 1 is clamped to 1.
func New(cfg Config, r Runner, log *zap.Logger) *Stage {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Stage{
		name:    cfg.Name,
		workers: workers,
		cores:   cfg.Cores,
		runner:  r,
		log:     log,
	}
}

// WithObserver registers a callback invoked after every task with its
// duration and result. Must be set before Start.
func (s *Stage) WithObserver(fn func(time.Duration, error)) *Stage {
	s.observe = fn
	return s
}

// Start spawns the worker group.
func (s *Stage) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	s.halt.Store(false)
	s.wg.Add(s.workers)
	for i := 0; i < s.workers; i++ {
		go s.worker(i)
	}
	s.log.Info("stage started",
		zap.String("stage", s.name),
		zap.Int("workers", s.workers),
		zap.Ints("cores", s.cores))
	return nil
}

// Stop raises the halt flag and joins all workers. A task already in
// progress runs to completion before its worker exits. Safe to call more
// than once and before Start.
func (s *Stage) Stop() {
	if !s.running.Load() {
		return
	}
	s.halt.Store(true)
	s.wg.Wait()
	s.running.Store(false)
	s.log.Info("stage stopped",
		zap.String("stage", s.name),
		zap.Uint64("tasks", s.tasks.Load()),
		zap.Uint64("failures", s.fails.Load()))
}

func (s *Stage) worker(id int) {
	defer s.wg.Done()

	if len(s.cores) > 0 {
		core := s.cores[id%len(s.cores)]
		runtime.LockOSThread()
		if err := pin(core); err != nil {
			s.log.Warn("processor pinning unavailable",
				zap.String("stage", s.name),
				zap.Int("worker", id),
				zap.Int("core", core),
				zap.Error(err))
		} else {
			s.log.Debug("worker pinned",
				zap.String("stage", s.name),
				zap.Int("worker", id),
				zap.Int("core", core))
		}
	}

	for !s.halt.Load() {
		if !s.runner.WorkPresent() {
			s.idles.Add(1)
			s.runner.Idle()
			continue
		}
		start := time.Now()
		err := s.runner.ExecuteTask()
		s.tasks.Add(1)
		if err != nil {
			s.fails.Add(1)
			s.log.Error("task failed",
				zap.String("stage", s.name),
				zap.Int("worker", id),
				zap.Error(err))
		}
		if s.observe != nil {
			s.observe(time.Since(start), err)
		}
	}
}

// Name returns the stage name.
func (s *Stage) Name() string {
	return s.name
}

// Running reports whether the worker group is live.
func (s *Stage) Running() bool {
	return s.running.Load()
}

// Stats is a point-in-time counter snapshot.
type Stats struct {
	Name     string `json:"name"`
	Workers  int    `json:"workers"`
	Running  bool   `json:"running"`
	Tasks    uint64 `json:"tasks"`
	Failures uint64 `json:"failures"`
	Idles    uint64 `json:"idles"`
}

// Stats snapshots the stage counters.
func (s *Stage) Stats() Stats {
	return Stats{
		Name:     s.name,
		Workers:  s.workers,
		Running:  s.running.Load(),
		Tasks:    s.tasks.Load(),
		Failures: s.fails.Load(),
		Idles:    s.idles.Load(),
	}
}
