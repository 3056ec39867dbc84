package ring

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"
)

// Payload constrains pool element types to fixed-size numeric values so the
// ring storage can live in a single allocator-provided region.
type Payload interface {
	~uint8 | ~int8 | ~uint16 | ~int16 | ~uint32 | ~int32 | ~uint64 | ~int64 | ~float32 | ~float64
}

// Buffer is one slot of a pool: a typed payload backed by the pool's shared
// storage plus its metadata. The slot lock is managed by the pool; callers
// touch Data and Meta only between Checkout and Publish (producer) or
// Reserve and Release (consumer).
type Buffer[T Payload] struct {
	mu     sync.Mutex
	seq    uint64
	ticket uint64
	Data   []T
	Meta   Metadata
}

// cursor tracks one registered consumer's position in the ring.
type cursor struct {
	claimed  atomic.Uint64
	released atomic.Uint64
	skipped  atomic.Uint64
}

// Pool is a fixed-capacity ring of typed buffers with a stealing producer
// and independently trailing registered consumers.
type Pool[T Payload] struct {
	name     string
	capacity int
	alloc    Allocator
	backing  []byte
	bufs     []Buffer[T]

	reg     *Registry
	regMu   sync.Mutex
	cursors []*cursor

	tickets    atomic.Uint64 // write slots handed out
	published  atomic.Uint64 // buffers visible to consumers
	overwrites atomic.Uint64
}

// NewPool preallocates a ring of buffers, each holding capacity elements,
// through the given allocator. Allocation failure is fatal to construction;
// no partially initialized pool is returned.
func NewPool[T Payload](name string, buffers, capacity int, alloc Allocator) (*Pool[T], error) {
	if buffers <= 0 || capacity <= 0 {
		return nil, fmt.Errorf("pool %q: %w: %d buffers x %d elements", name, ErrBadGeometry, buffers, capacity)
	}

	var zero T
	elem := int(unsafe.Sizeof(zero))
	backing, err := alloc.Allocate(buffers, capacity*elem)
	if err != nil {
		return nil, fmt.Errorf("pool %q: %w: %w", name, ErrAllocation, err)
	}

	data := unsafe.Slice((*T)(unsafe.Pointer(&backing[0])), buffers*capacity)
	p := &Pool[T]{
		name:     name,
		capacity: capacity,
		alloc:    alloc,
		backing:  backing,
		bufs:     make([]Buffer[T], buffers),
		reg:      NewRegistry(),
	}
	for i := range p.bufs {
		p.bufs[i].Data = data[i*capacity : (i+1)*capacity : (i+1)*capacity]
	}
	return p, nil
}

// Name returns the pool name.
func (p *Pool[T]) Name() string { return p.name }

// Buffers returns the number of ring slots.
func (p *Pool[T]) Buffers() int { return len(p.bufs) }

// Capacity returns the element capacity of each buffer.
func (p *Pool[T]) Capacity() int { return p.capacity }

// RegisterConsumer assigns id the next sequential consumer index, or returns
// the existing index if id is already registered. Must complete before any
// stage starts.
func (p *Pool[T]) RegisterConsumer(id string) int {
	p.regMu.Lock()
	defer p.regMu.Unlock()

	idx := p.reg.Register(id)
	for len(p.cursors) <= idx {
		p.cursors = append(p.cursors, &cursor{})
	}
	return idx
}

// Consumers returns the number of registered consumers.
func (p *Pool[T]) Consumers() int { return p.reg.Count() }

// Depth returns the number of published buffers the consumer has not yet
// claimed, clamped to the ring length. This is the sole work-present signal
// for stage workers.
func (p *Pool[T]) Depth(consumer int) int {
	c := p.cursors[consumer]
	d := p.published.Load() - c.claimed.Load()
	if d > uint64(len(p.bufs)) {
		d = uint64(len(p.bufs))
	}
	return int(d)
}

// Checkout hands out the next write slot with its lock held. When the ring
// is full the slot still holding the oldest unconsumed buffer is reclaimed;
// lagging consumers discover the loss through their clamped cursors.
func (p *Pool[T]) Checkout() *Buffer[T] {
	t := p.tickets.Add(1)
	b := &p.bufs[(t-1)%uint64(len(p.bufs))]
	b.mu.Lock()
	b.seq = 0
	b.ticket = t
	b.Meta = Metadata{Accumulations: b.Meta.Accumulations[:0]}
	return b
}

// Publish releases the checked-out buffer and makes it visible to all
// registered consumers in production order. It never blocks on consumers.
func (p *Pool[T]) Publish(b *Buffer[T]) {
	t := b.ticket
	b.seq = t
	b.mu.Unlock()

	// Earlier tickets publish first so consumers see an unbroken sequence.
	for !p.published.CompareAndSwap(t-1, t) {
		runtime.Gosched()
	}

	if t > uint64(len(p.bufs)) {
		for _, c := range p.cursors {
			if t-c.claimed.Load() > uint64(len(p.bufs)) {
				p.overwrites.Add(1)
				break
			}
		}
	}
}

// Reserve claims the consumer's next unread buffer and returns it with its
// lock held. The wait policy bounds the retry loop; the lock is never held
// across retries. A consumer that fell a full ring behind is clamped to the
// oldest buffer still live.
func (p *Pool[T]) Reserve(consumer int, w Wait) (*Buffer[T], Result) {
	c := p.cursors[consumer]
	size := uint64(len(p.bufs))

	for attempt := 0; ; attempt++ {
		for {
			pub := p.published.Load()
			claimed := c.claimed.Load()
			if pub-claimed > size {
				oldest := pub - size
				if c.claimed.CompareAndSwap(claimed, oldest) {
					c.skipped.Add(oldest - claimed)
				}
				continue
			}
			if pub == claimed {
				break
			}
			next := claimed + 1
			if !c.claimed.CompareAndSwap(claimed, next) {
				continue
			}
			b := &p.bufs[(next-1)%size]
			b.mu.Lock()
			if b.seq != next {
				// Overwritten between claim and lock.
				b.mu.Unlock()
				c.skipped.Add(1)
				continue
			}
			return b, ResultSuccess
		}
		if w.Attempts <= 0 {
			return nil, ResultNoBufferAvailable
		}
		if attempt+1 >= w.Attempts {
			return nil, ResultTimeout
		}
		time.Sleep(w.Delay)
	}
}

// Release unlocks a reserved buffer and advances the consumer's cursor.
func (p *Pool[T]) Release(consumer int, b *Buffer[T]) {
	s := b.seq
	b.mu.Unlock()

	c := p.cursors[consumer]
	for {
		r := c.released.Load()
		if s <= r || c.released.CompareAndSwap(r, s) {
			return
		}
	}
}

// ConsumerStats is a point-in-time view of one consumer's cursor.
type ConsumerStats struct {
	ID       string `json:"id"`
	Depth    int    `json:"depth"`
	Claimed  uint64 `json:"claimed"`
	Released uint64 `json:"released"`
	Skipped  uint64 `json:"skipped"`
}

// Stats is a point-in-time view of pool activity.
type Stats struct {
	Name       string          `json:"name"`
	Buffers    int             `json:"buffers"`
	Capacity   int             `json:"capacity"`
	Published  uint64          `json:"published"`
	Overwrites uint64          `json:"overwrites"`
	Consumers  []ConsumerStats `json:"consumers"`
}

// Stats captures current pool counters.
func (p *Pool[T]) Stats() Stats {
	ids := p.reg.IDs()
	s := Stats{
		Name:       p.name,
		Buffers:    len(p.bufs),
		Capacity:   p.capacity,
		Published:  p.published.Load(),
		Overwrites: p.overwrites.Load(),
		Consumers:  make([]ConsumerStats, len(ids)),
	}
	for i, id := range ids {
		c := p.cursors[i]
		s.Consumers[i] = ConsumerStats{
			ID:       id,
			Depth:    p.Depth(i),
			Claimed:  c.claimed.Load(),
			Released: c.released.Load(),
			Skipped:  c.skipped.Load(),
		}
	}
	return s
}

// Close releases the backing storage. The pool must be idle: callers stop
// every producing and consuming stage first.
func (p *Pool[T]) Close() error {
	if p.backing == nil {
		return nil
	}
	backing := p.backing
	p.backing = nil
	return p.alloc.Release(backing)
}
