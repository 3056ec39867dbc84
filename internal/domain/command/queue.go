package command

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultQueueDepth bounds how many commands may wait for the scheduler.
const DefaultQueueDepth = 64

// Entry is one queued command line with its ingress provenance.
type Entry struct {
	ID       string    `json:"id"`
	Raw      string    `json:"raw"`
	Origin   string    `json:"origin"`
	Received time.Time `json:"received"`
}

// QueueStats is a point-in-time counter snapshot.
type QueueStats struct {
	Depth    int    `json:"depth"`
	Received uint64 `json:"received"`
	Dropped  uint64 `json:"dropped"`
	Popped   uint64 `json:"popped"`
}

// Queue is the bounded hand-off between ingress listeners and the control
// loop. When full, the incoming entry is dropped rather than blocking the
// pusher or evicting queued work.
type Queue struct {
	ch  chan Entry
	log *zap.Logger

	received atomic.Uint64
	dropped  atomic.Uint64
	popped   atomic.Uint64
}

// NewQueue creates a queue; depth below 1 uses DefaultQueueDepth.
func NewQueue(depth int, log *zap.Logger) *Queue {
	if depth < 1 {
		depth = DefaultQueueDepth
	}
	return &Queue{
		ch:  make(chan Entry, depth),
		log: log,
	}
}

// Push enqueues a raw command line. It never blocks; the returned flag is
// false when the queue was full and the entry was dropped.
func (q *Queue) Push(raw, origin string) (Entry, bool) {
	e := Entry{
		ID:       uuid.New().String(),
		Raw:      raw,
		Origin:   origin,
		Received: time.Now(),
	}
	q.received.Add(1)
	select {
	case q.ch <- e:
		q.log.Debug("command queued",
			zap.String("command_id", e.ID),
			zap.String("origin", origin),
			zap.String("raw", raw))
		return e, true
	default:
		q.dropped.Add(1)
		q.log.Warn("command queue full, dropping",
			zap.String("origin", origin),
			zap.String("raw", raw))
		return Entry{}, false
	}
}

// HasMessage reports whether a command is waiting.
func (q *Queue) HasMessage() bool {
	return len(q.ch) > 0
}

// PopMessage dequeues the oldest command without blocking; the flag is
// false when the queue is empty.
func (q *Queue) PopMessage() (Entry, bool) {
	select {
	case e := <-q.ch:
		q.popped.Add(1)
		return e, true
	default:
		return Entry{}, false
	}
}

// Len returns the number of waiting commands.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Stats snapshots the queue counters.
func (q *Queue) Stats() QueueStats {
	return QueueStats{
		Depth:    len(q.ch),
		Received: q.received.Load(),
		Dropped:  q.dropped.Load(),
		Popped:   q.popped.Load(),
	}
}
