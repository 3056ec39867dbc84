package ring

import "time"

// Result reports the outcome of a Reserve attempt.
type Result int

const (
	ResultSuccess Result = iota
	ResultNoBufferAvailable
	ResultTimeout
)

// String returns the string representation of the result.
func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultNoBufferAvailable:
		return "no_buffer_available"
	case ResultTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Wait is the consumer handoff policy: Reserve retries up to Attempts times
// with a fixed Delay between attempts before reporting Timeout. Attempts <= 0
// disables retrying, so an empty pool reports NoBufferAvailable immediately.
type Wait struct {
	Attempts int
	Delay    time.Duration
}

// DefaultWait bounds a reserve at 100 attempts half a millisecond apart.
func DefaultWait() Wait {
	return Wait{Attempts: 100, Delay: 500 * time.Microsecond}
}
