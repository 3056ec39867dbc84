package scheduler

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/SpectraCore/internal/domain/command"
	"github.com/GriffinCanCode/SpectraCore/internal/domain/stage"
	"github.com/GriffinCanCode/SpectraCore/internal/shared/id"
)

// stopCommand is dispatched through the normal command path when a timed
// window lapses or the process shuts down while recording.
const stopCommand = "record=off"

// MessageSource is the queue-pop contract of an ingress listener.
type MessageSource interface {
	HasMessage() bool
	PopMessage() (command.Entry, bool)
}

// Source drives sample production. Acquire begins producing into the source
// pool; StopAfterNextBuffer lets the buffer in flight finish before
// production halts; StopProduction halts unconditionally at teardown.
type Source interface {
	Acquire()
	StopAfterNextBuffer()
	StopProduction()
}

// Sink prepares and finalizes per-scan persistence.
type Sink interface {
	BeginScan(Session) error
	EndScan(Session) (ScanReport, error)
}

// Notifier is told when a finished scan's data is durable. Implementations
// must not block the control loop.
type Notifier interface {
	ScanComplete(Session, ScanReport)
}

// Hooks are optional observation points wired by the composition root so
// this package stays free of metrics plumbing.
type Hooks struct {
	OnCommand func(command.Kind)
	OnState   func(State)
}

// Config tunes the control loop.
type Config struct {
	// TickPeriod is the control loop interval. Defaults to one second;
	// the tolerance band in Classify assumes it stays there.
	TickPeriod time.Duration
	// Grace is the drain delay inserted between teardown steps.
	Grace time.Duration
}

// Deps are the collaborators the scheduler drives. Stages are ordered
// source-most first: they start in reverse so every consumer is live before
// its producer, and stop in order so upstream output ceases first.
type Deps struct {
	Log      *zap.Logger
	Messages MessageSource
	Source   Source
	Sink     Sink
	Stages   []*stage.Stage
	Notifier Notifier
	IDs      *id.Generator
	Hooks    Hooks
	// Clock returns the current epoch second; nil uses the wall clock.
	Clock func() int64
}

// Scheduler owns the pipeline lifecycle: it starts the stages, runs the
// 1 Hz control loop, and tears everything down in pipeline order.
type Scheduler struct {
	cfg   Config
	log   *zap.Logger
	msgs  MessageSource
	src   Source
	sink  Sink
	stags []*stage.Stage
	notif Notifier
	ids   *id.Generator
	hooks Hooks
	now   func() int64

	mu      sync.Mutex
	state   State
	session Session

	recordings atomic.Uint64
	started    atomic.Bool
	stopping   atomic.Bool
	stop       chan struct{}
	done       chan struct{}
}

// New creates a scheduler. Zero Config fields get one-second defaults.
func New(cfg Config, d Deps) *Scheduler {
	if cfg.TickPeriod <= 0 {
		cfg.TickPeriod = time.Second
	}
	if cfg.Grace <= 0 {
		cfg.Grace = time.Second
	}
	ids := d.IDs
	if ids == nil {
		ids = id.Default()
	}
	now := d.Clock
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}
	return &Scheduler{
		cfg:   cfg,
		log:   d.Log,
		msgs:  d.Messages,
		src:   d.Source,
		sink:  d.Sink,
		stags: d.Stages,
		notif: d.Notifier,
		ids:   ids,
		hooks: d.Hooks,
		now:   now,
		state: StateIdle,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Start launches the worker stages sink-most first and then the control
// loop. Stages idle until a command starts production.
func (s *Scheduler) Start() error {
	for i := len(s.stags) - 1; i >= 0; i-- {
		if err := s.stags[i].Start(); err != nil {
			return err
		}
	}
	s.started.Store(true)
	go s.run()
	return nil
}

func (s *Scheduler) run() {
	defer close(s.done)
	s.log.Info("scheduler running", zap.Duration("tick_period", s.cfg.TickPeriod))

	ticker := time.NewTicker(s.cfg.TickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick pops at most one queued command, then evaluates the stored window
// against the clock.
func (s *Scheduler) tick() {
	if e, ok := s.msgs.PopMessage(); ok {
		s.dispatchEntry(e)
	}
	s.step(Event{Kind: EventTick, Now: s.now()})
}

func (s *Scheduler) dispatchEntry(e command.Entry) {
	cmd := command.Parse(e.Raw)
	s.log.Info("command received",
		zap.String("command_id", e.ID),
		zap.String("origin", e.Origin),
		zap.String("kind", cmd.Kind.String()),
		zap.String("raw", e.Raw))
	s.dispatch(cmd)
}

func (s *Scheduler) dispatch(cmd command.Command) {
	if s.hooks.OnCommand != nil {
		s.hooks.OnCommand(cmd.Kind)
	}
	if cmd.Kind == command.Unknown {
		s.log.Warn("ignoring malformed command", zap.String("raw", cmd.Raw))
	}
	s.step(Event{Kind: EventCommand, Cmd: cmd, Now: s.now()})
}

// step runs one event through the pure transition and interprets its
// effects. The lock covers only the state swap, never the effects.
func (s *Scheduler) step(ev Event) {
	s.mu.Lock()
	prevState, prevSession := s.state, s.session
	nextState, nextSession, effects := Transition(prevState, prevSession, ev)
	s.state, s.session = nextState, nextSession
	s.mu.Unlock()

	if nextState != prevState {
		s.log.Info("recording state changed",
			zap.String("from", prevState.String()),
			zap.String("to", nextState.String()))
		if s.hooks.OnState != nil {
			s.hooks.OnState(nextState)
		}
	}

	for _, eff := range effects {
		switch eff {
		case EffectStartRecording:
			s.startRecording()
		case EffectStopRecording:
			s.stopRecording(prevSession)
		case EffectSynthesizeStop:
			s.log.Info("recording window elapsed, synthesizing stop")
			s.dispatch(command.Parse(stopCommand))
		}
	}
}

func (s *Scheduler) startRecording() {
	s.mu.Lock()
	s.session.ID = s.ids.Scan().String()
	sess := s.session
	s.mu.Unlock()

	s.recordings.Add(1)
	if err := s.sink.BeginScan(sess); err != nil {
		s.log.Error("scan setup failed",
			zap.String("scan_id", sess.ID),
			zap.String("directory", sess.Dir()),
			zap.Error(err))
	}
	s.src.Acquire()
	s.log.Info("acquisition started",
		zap.String("scan_id", sess.ID),
		zap.String("experiment", sess.Experiment),
		zap.String("source", sess.Source),
		zap.String("scan", sess.Scan),
		zap.Int64("end_second", sess.EndSecond))
}

func (s *Scheduler) stopRecording(sess Session) {
	s.src.StopAfterNextBuffer()

	report, err := s.sink.EndScan(sess)
	if err != nil {
		s.log.Error("scan finalize failed",
			zap.String("scan_id", sess.ID),
			zap.Error(err))
		return
	}
	s.log.Info("acquisition stopped",
		zap.String("scan_id", sess.ID),
		zap.String("directory", report.Directory),
		zap.Int("files", report.Files),
		zap.Int64("bytes", report.Bytes),
		zap.Uint64("spectra", report.Spectra))

	if s.notif != nil {
		s.notif.ScanComplete(sess, report)
	}
}

// Shutdown stops the control loop, synthesizes a stop for any active
// recording, and halts production and stages source-most first with a
// grace delay between each step so in-flight buffers drain. Safe to call
// once from any goroutine; later calls return immediately.
func (s *Scheduler) Shutdown() {
	if !s.stopping.CompareAndSwap(false, true) {
		return
	}
	close(s.stop)
	if s.started.Load() {
		<-s.done
	}

	s.step(Event{Kind: EventShutdown, Now: s.now()})

	time.Sleep(s.cfg.Grace)
	s.src.StopProduction()

	for _, st := range s.stags {
		time.Sleep(s.cfg.Grace)
		st.Stop()
	}
	s.log.Info("scheduler stopped", zap.Uint64("recordings", s.recordings.Load()))
}

// State returns the current machine state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Session returns the active or pending session; zero when idle.
func (s *Scheduler) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Recordings returns how many acquisitions have been started.
func (s *Scheduler) Recordings() uint64 {
	return s.recordings.Load()
}
