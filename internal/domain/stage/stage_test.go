package stage

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingRunner struct {
	remaining atomic.Int64
	executed  atomic.Int64
	idled     atomic.Int64
	err       error
}

func (r *countingRunner) WorkPresent() bool {
	return r.remaining.Load() > 0
}

func (r *countingRunner) ExecuteTask() error {
	for {
		n := r.remaining.Load()
		if n <= 0 {
			return nil
		}
		if r.remaining.CompareAndSwap(n, n-1) {
			break
		}
	}
	r.executed.Add(1)
	return r.err
}

func (r *countingRunner) Idle() {
	r.idled.Add(1)
	time.Sleep(time.Millisecond)
}

type slowRunner struct {
	started  chan struct{}
	claimed  atomic.Bool
	finished atomic.Bool
}

func (r *slowRunner) WorkPresent() bool {
	return r.claimed.CompareAndSwap(false, true)
}

func (r *slowRunner) ExecuteTask() error {
	close(r.started)
	time.Sleep(100 * time.Millisecond)
	r.finished.Store(true)
	return nil
}

func (r *slowRunner) Idle() {
	time.Sleep(time.Millisecond)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestStageRunsAllTasks(t *testing.T) {
	r := &countingRunner{}
	r.remaining.Store(50)

	s := New(Config{Name: "transform", Workers: 4}, r, zap.NewNop())
	require.NoError(t, s.Start())

	waitFor(t, func() bool { return r.executed.Load() == 50 })
	s.Stop()

	assert.Equal(t, int64(50), r.executed.Load())
	assert.Equal(t, int64(0), r.remaining.Load())
	assert.False(t, s.Running())
}

func TestStageIdlesWithoutWork(t *testing.T) {
	r := &countingRunner{}

	s := New(Config{Name: "writer", Workers: 2}, r, zap.NewNop())
	require.NoError(t, s.Start())

	waitFor(t, func() bool { return r.idled.Load() > 2 })
	s.Stop()

	assert.Zero(t, r.executed.Load())
	assert.Zero(t, s.Stats().Tasks)
}

func TestStopCompletesInFlightTask(t *testing.T) {
	r := &slowRunner{started: make(chan struct{})}

	s := New(Config{Name: "writer", Workers: 1}, r, zap.NewNop())
	require.NoError(t, s.Start())

	<-r.started
	s.Stop()

	assert.True(t, r.finished.Load(), "stop must wait for the running task")
	assert.False(t, s.Running())
}

func TestStageStartTwice(t *testing.T) {
	r := &countingRunner{}

	s := New(Config{Name: "transform", Workers: 1}, r, zap.NewNop())
	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), ErrAlreadyRunning)

	s.Stop()
	require.NoError(t, s.Start(), "stage should be restartable after stop")
	s.Stop()
}

func TestStageStopIsIdempotent(t *testing.T) {
	r := &countingRunner{}
	s := New(Config{Name: "transform", Workers: 1}, r, zap.NewNop())

	s.Stop()

	require.NoError(t, s.Start())
	s.Stop()
	s.Stop()
	assert.False(t, s.Running())
}

func TestStageObserverSeesResults(t *testing.T) {
	boom := errors.New("short write")
	r := &countingRunner{err: boom}
	r.remaining.Store(3)

	var observed atomic.Int64
	s := New(Config{Name: "writer", Workers: 1}, r, zap.NewNop()).
		WithObserver(func(d time.Duration, err error) {
			if errors.Is(err, boom) {
				observed.Add(1)
			}
		})
	require.NoError(t, s.Start())

	waitFor(t, func() bool { return observed.Load() == 3 })
	s.Stop()

	st := s.Stats()
	assert.Equal(t, uint64(3), st.Failures)
	assert.GreaterOrEqual(t, st.Tasks, uint64(3))
}

func TestStageClampsWorkerCount(t *testing.T) {
	s := New(Config{Name: "transform"}, &countingRunner{}, zap.NewNop())
	assert.Equal(t, 1, s.Stats().Workers)
}
