package digitizer

import (
	"errors"

	"github.com/GriffinCanCode/SpectraCore/internal/domain/ring"
)

// Setup and runtime failures.
var (
	ErrNotInitialized = errors.New("digitizer not initialized")
	ErrNoBufferPool   = errors.New("digitizer has no buffer pool")
	ErrBadConfig      = errors.New("invalid digitizer configuration")
)

// Digitizer is the sample-source contract the pipeline is built against.
// Initialize must succeed and SetBufferPool must be called before the first
// Acquire; both happen once during setup.
type Digitizer interface {
	Initialize() error
	SetBufferPool(pool *ring.Pool[uint16])
	Acquire()
	StopAfterNextBuffer()
	StopProduction()
	SamplingFrequency() float64
}
