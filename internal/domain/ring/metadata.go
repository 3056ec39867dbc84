package ring

// Accumulation state flags.
const (
	StateOnSource uint32 = 1 << iota
	StateOffSource
)

// Accumulation holds the noise-power statistics folded over one switching
// half-cycle: the sum and sum of squares of the centered samples between the
// Begin and End sample indices, excluding blanked samples.
type Accumulation struct {
	Sum        float64
	SumSquared float64
	Count      float64
	State      uint32
	Begin      uint64
	End        uint64
}

// Metadata describes the payload carried by a buffer. The producing stage
// fills it under the buffer lock; consumers treat it as read-only.
type Metadata struct {
	AcquisitionStartSecond int64
	LeadingSampleIndex     uint64
	SampleRate             float64
	ValidLength            int
	SpectraAveraged        int
	Sideband               byte
	Polarization           byte
	Accumulations          []Accumulation
}
