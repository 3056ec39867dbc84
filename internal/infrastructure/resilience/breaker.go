package resilience

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrCircuitOpen = errors.New("circuit breaker is open")
	ErrProbeLimit  = errors.New("half-open probe limit reached")
)

// State is the circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings tunes when a breaker trips and recovers.
type Settings struct {
	// TripAfter is the consecutive-failure count that opens the breaker.
	TripAfter uint32

	// Probes is how many calls may test the waters while half-open; that
	// many consecutive successes close the breaker again.
	Probes uint32

	// Interval is the cyclic period over which closed-state counts are
	// cleared, so stale failures do not accumulate toward a trip.
	Interval time.Duration

	// Cooldown is how long the breaker stays open before allowing probes.
	Cooldown time.Duration

	// OnStateChange, when set, observes every transition.
	OnStateChange func(name string, from, to State)
}

// Counts holds breaker call statistics for the current window.
type Counts struct {
	Requests             uint32
	Successes            uint32
	Failures             uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// Breaker fails fast once a downstream dependency keeps erroring, then
// probes it periodically until it recovers.
type Breaker struct {
	name     string
	settings Settings

	mu     sync.Mutex
	state  State
	counts Counts
	expiry time.Time
}

func New(name string, settings Settings) *Breaker {
	if settings.TripAfter == 0 {
		settings.TripAfter = 5
	}
	if settings.Probes == 0 {
		settings.Probes = 1
	}
	if settings.Interval == 0 {
		settings.Interval = time.Minute
	}
	if settings.Cooldown == 0 {
		settings.Cooldown = time.Minute
	}

	return &Breaker{
		name:     name,
		settings: settings,
		state:    StateClosed,
		expiry:   time.Now().Add(settings.Interval),
	}
}

func (b *Breaker) Name() string {
	return b.name
}

// State reports the current state, advancing open to half-open when the
// cooldown has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, _ := b.currentState(time.Now())
	return state
}

// Counts returns a copy of the current window's statistics.
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.counts
}

// Do runs fn unless the breaker rejects it. A panic in fn counts as a
// failure before propagating.
func (b *Breaker) Do(fn func() error) error {
	generation, err := b.admit()
	if err != nil {
		return err
	}

	defer func() {
		if e := recover(); e != nil {
			b.settle(generation, false)
			panic(e)
		}
	}()

	err = fn()
	b.settle(generation, err == nil)
	return err
}

func (b *Breaker) admit() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	state, generation := b.currentState(now)

	if state == StateOpen {
		return generation, ErrCircuitOpen
	}
	if state == StateHalfOpen && b.counts.Requests >= b.settings.Probes {
		return generation, ErrProbeLimit
	}

	b.counts.Requests++
	return generation, nil
}

// settle records an outcome, ignoring calls admitted under a previous
// generation so stragglers cannot flip fresh state.
func (b *Breaker) settle(admitted uint64, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	state, generation := b.currentState(now)
	if generation != admitted {
		return
	}

	if success {
		b.onSuccess(state, now)
	} else {
		b.onFailure(state, now)
	}
}

func (b *Breaker) onSuccess(state State, now time.Time) {
	switch state {
	case StateClosed:
		b.counts.Successes++
		b.counts.ConsecutiveSuccesses++
		b.counts.ConsecutiveFailures = 0
	case StateHalfOpen:
		b.counts.Successes++
		b.counts.ConsecutiveSuccesses++
		b.counts.ConsecutiveFailures = 0
		if b.counts.ConsecutiveSuccesses >= b.settings.Probes {
			b.setState(StateClosed, now)
		}
	}
}

func (b *Breaker) onFailure(state State, now time.Time) {
	switch state {
	case StateClosed:
		b.counts.Failures++
		b.counts.ConsecutiveFailures++
		b.counts.ConsecutiveSuccesses = 0
		if b.counts.ConsecutiveFailures >= b.settings.TripAfter {
			b.setState(StateOpen, now)
		}
	case StateHalfOpen:
		b.setState(StateOpen, now)
	}
}

// currentState must be called with the lock held. The generation is keyed
// to the expiry so every state change invalidates in-flight outcomes.
func (b *Breaker) currentState(now time.Time) (State, uint64) {
	switch b.state {
	case StateClosed:
		if !b.expiry.IsZero() && b.expiry.Before(now) {
			b.counts = Counts{}
			b.expiry = now.Add(b.settings.Interval)
		}
	case StateOpen:
		if b.expiry.Before(now) {
			b.setState(StateHalfOpen, now)
		}
	}

	return b.state, uint64(b.expiry.UnixNano())
}

func (b *Breaker) setState(state State, now time.Time) {
	if b.state == state {
		return
	}

	prev := b.state
	b.state = state
	b.counts = Counts{}

	switch state {
	case StateClosed:
		b.expiry = now.Add(b.settings.Interval)
	case StateOpen:
		b.expiry = now.Add(b.settings.Cooldown)
	case StateHalfOpen:
		b.expiry = time.Time{}
	}

	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, prev, state)
	}
}
