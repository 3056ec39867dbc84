package scheduler

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/SpectraCore/internal/domain/command"
	"github.com/GriffinCanCode/SpectraCore/internal/domain/stage"
)

// journal records calls across all fakes so cross-collaborator ordering
// can be asserted.
type journal struct {
	mu     sync.Mutex
	events []string
}

func (j *journal) add(e string) {
	j.mu.Lock()
	j.events = append(j.events, e)
	j.mu.Unlock()
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.events...)
}

type fakeSource struct{ j *journal }

func (f *fakeSource) Acquire()             { f.j.add("acquire") }
func (f *fakeSource) StopAfterNextBuffer() { f.j.add("stop_after_next") }
func (f *fakeSource) StopProduction()      { f.j.add("stop_production") }

type fakeSink struct {
	j        *journal
	beginErr error

	mu    sync.Mutex
	begun []Session
	ended []Session
}

func (f *fakeSink) BeginScan(s Session) error {
	f.mu.Lock()
	f.begun = append(f.begun, s)
	f.mu.Unlock()
	f.j.add("begin_scan")
	return f.beginErr
}

func (f *fakeSink) EndScan(s Session) (ScanReport, error) {
	f.mu.Lock()
	f.ended = append(f.ended, s)
	f.mu.Unlock()
	f.j.add("end_scan")
	return ScanReport{ScanID: s.ID, Directory: s.Dir(), Files: 2, Spectra: 10}, nil
}

type fakeNotifier struct {
	j *journal

	mu      sync.Mutex
	reports []ScanReport
}

func (f *fakeNotifier) ScanComplete(_ Session, r ScanReport) {
	f.mu.Lock()
	f.reports = append(f.reports, r)
	f.mu.Unlock()
	f.j.add("notify")
}

type idleRunner struct{}

func (idleRunner) WorkPresent() bool { return false }
func (idleRunner) ExecuteTask() error {
	return nil
}
func (idleRunner) Idle() { time.Sleep(time.Millisecond) }

type harness struct {
	j     *journal
	src   *fakeSource
	sink  *fakeSink
	notif *fakeNotifier
	queue *command.Queue
	clock *atomic.Int64
	sched *Scheduler
}

func newHarness(stages ...*stage.Stage) *harness {
	j := &journal{}
	h := &harness{
		j:     j,
		src:   &fakeSource{j: j},
		sink:  &fakeSink{j: j},
		notif: &fakeNotifier{j: j},
		queue: command.NewQueue(16, zap.NewNop()),
		clock: &atomic.Int64{},
	}
	h.clock.Store(1000)
	h.sched = New(
		Config{TickPeriod: 5 * time.Millisecond, Grace: time.Millisecond},
		Deps{
			Log:      zap.NewNop(),
			Messages: h.queue,
			Source:   h.src,
			Sink:     h.sink,
			Stages:   stages,
			Notifier: h.notif,
			Clock:    h.clock.Load,
		},
	)
	return h
}

func (h *harness) push(t *testing.T, raw string) {
	t.Helper()
	_, ok := h.queue.Push(raw, "test")
	require.True(t, ok)
}

func TestSchedulerManualRecordingLifecycle(t *testing.T) {
	h := newHarness()

	h.push(t, "record=on:ExpA:SrcB:ScanC")
	h.sched.tick()

	assert.Equal(t, StateRecordingUntilOff, h.sched.State())
	sess := h.sched.Session()
	assert.True(t, strings.HasPrefix(sess.ID, "scan_"), "scan ID minted at start: %s", sess.ID)
	assert.Equal(t, "ExpA", sess.Experiment)
	assert.Equal(t, []string{"begin_scan", "acquire"}, h.j.list(), "sink must be ready before production starts")

	h.push(t, "record=off")
	h.sched.tick()

	assert.Equal(t, StateIdle, h.sched.State())
	assert.Equal(t, Session{}, h.sched.Session())
	assert.Equal(t,
		[]string{"begin_scan", "acquire", "stop_after_next", "end_scan", "notify"},
		h.j.list())

	require.Len(t, h.sink.ended, 1)
	assert.Equal(t, sess.ID, h.sink.ended[0].ID)
	require.Len(t, h.notif.reports, 1)
	assert.Equal(t, sess.ID, h.notif.reports[0].ScanID)
	assert.Equal(t, uint64(1), h.sched.Recordings())
}

func TestSchedulerTimedRecordingLifecycle(t *testing.T) {
	h := newHarness()

	h.push(t, "record=set:ExpA:SrcB:ScanC:1005:10")
	h.sched.tick()
	assert.Equal(t, StatePending, h.sched.State())
	assert.Empty(t, h.j.list(), "no acquisition before the start time")

	h.clock.Store(1002)
	h.sched.tick()
	assert.Equal(t, StatePending, h.sched.State())

	h.clock.Store(1004)
	h.sched.tick()
	assert.Equal(t, StateRecordingUntilTime, h.sched.State())
	assert.Equal(t, []string{"begin_scan", "acquire"}, h.j.list())

	h.clock.Store(1010)
	h.sched.tick()
	assert.Equal(t, StateRecordingUntilTime, h.sched.State())

	h.clock.Store(1016)
	h.sched.tick()
	assert.Equal(t, StateIdle, h.sched.State())
	assert.Equal(t,
		[]string{"begin_scan", "acquire", "stop_after_next", "end_scan", "notify"},
		h.j.list())
	assert.Equal(t, uint64(1), h.sched.Recordings())
}

func TestSchedulerPopsOneCommandPerTick(t *testing.T) {
	h := newHarness()

	h.push(t, "record=on:E:S:C")
	h.push(t, "record=off")
	require.Equal(t, 2, h.queue.Len())

	h.sched.tick()
	assert.Equal(t, StateRecordingUntilOff, h.sched.State())
	assert.Equal(t, 1, h.queue.Len())

	h.sched.tick()
	assert.Equal(t, StateIdle, h.sched.State())
	assert.Equal(t, 0, h.queue.Len())
}

func TestSchedulerIgnoresMalformedCommands(t *testing.T) {
	h := newHarness()

	for _, raw := range []string{"gibberish", "record=on:a:b", "record=off:extra"} {
		h.push(t, raw)
		h.sched.tick()
	}

	assert.Equal(t, StateIdle, h.sched.State())
	assert.Empty(t, h.j.list())
}

func TestSchedulerRecordsDespiteScanSetupFailure(t *testing.T) {
	h := newHarness()
	h.sink.beginErr = errors.New("mkdir failed")

	h.push(t, "record=on:E:S:C")
	h.sched.tick()

	assert.Equal(t, StateRecordingUntilOff, h.sched.State())
	assert.Contains(t, h.j.list(), "acquire", "acquisition proceeds, writer drops until rescued")
}

func TestSchedulerShutdownStopsActiveRecording(t *testing.T) {
	h := newHarness()

	h.push(t, "record=on:E:S:C")
	h.sched.tick()
	require.Equal(t, StateRecordingUntilOff, h.sched.State())

	h.sched.Shutdown()

	assert.Equal(t, StateIdle, h.sched.State())
	events := h.j.list()
	assert.Equal(t,
		[]string{"begin_scan", "acquire", "stop_after_next", "end_scan", "notify", "stop_production"},
		events, "recording finalized before production is killed")
}

func TestSchedulerShutdownIsIdempotent(t *testing.T) {
	h := newHarness()

	h.sched.Shutdown()
	h.sched.Shutdown()

	assert.Equal(t, []string{"stop_production"}, h.j.list())
}

func TestSchedulerRunLoopWithStages(t *testing.T) {
	transform := stage.New(stage.Config{Name: "transform", Workers: 2}, idleRunner{}, zap.NewNop())
	writer := stage.New(stage.Config{Name: "writer", Workers: 1}, idleRunner{}, zap.NewNop())
	h := newHarness(transform, writer)

	require.NoError(t, h.sched.Start())
	assert.True(t, transform.Running())
	assert.True(t, writer.Running())

	h.push(t, "record=on:ExpA:SrcB:ScanC")
	deadline := time.Now().Add(2 * time.Second)
	for h.sched.State() != StateRecordingUntilOff && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, StateRecordingUntilOff, h.sched.State())

	h.sched.Shutdown()

	assert.Equal(t, StateIdle, h.sched.State())
	assert.False(t, transform.Running())
	assert.False(t, writer.Running())
	assert.Contains(t, h.j.list(), "stop_production")
}
