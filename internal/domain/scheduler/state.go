package scheduler

// State is the recording state machine position.
type State int

const (
	StateIdle State = iota
	StatePending
	StateRecordingUntilOff
	StateRecordingUntilTime
)

// String returns the status label for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateRecordingUntilOff:
		return "recording_until_off"
	case StateRecordingUntilTime:
		return "recording_until_time"
	default:
		return "unknown"
	}
}

// TimeState places a stored timestamp relative to the current wall clock.
type TimeState int

const (
	TimeBefore TimeState = iota
	TimePending
	TimeAfter
)

// Classify compares then against now with a one-second inclusive tolerance
// band: anything within one second of now is TimePending, absorbing tick
// jitter rather than classifying strictly past or future.
func Classify(then, now int64) TimeState {
	switch {
	case then < now-1:
		return TimeBefore
	case then > now+1:
		return TimeAfter
	default:
		return TimePending
	}
}

// reached reports whether a stored timestamp is due: at or within tolerance
// of now, or already past.
func reached(then, now int64) bool {
	ts := Classify(then, now)
	return ts == TimeBefore || ts == TimePending
}
