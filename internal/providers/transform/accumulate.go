package transform

import (
	"math"

	"github.com/GriffinCanCode/SpectraCore/internal/domain/ring"
)

// appendAccumulations folds samples into per-half-cycle calibration
// statistics. Sample indices are absolute within the acquisition, so the
// switching phase stays aligned across buffer boundaries. Samples within
// the blanking window after a switch edge are excluded.
func (sp *Spectrometer) appendAccumulations(dst []ring.Accumulation, data []uint16, leading uint64) []ring.Accumulation {
	if sp.cfg.SwitchingFrequency <= 0 {
		return dst
	}
	half := sp.cfg.SampleRate / (2 * sp.cfg.SwitchingFrequency)
	blank := sp.cfg.BlankingPeriod * sp.cfg.SampleRate

	current := uint64(math.MaxUint64)
	for i, raw := range data {
		n := leading + uint64(i)
		h := uint64(float64(n) / half)
		into := float64(n) - float64(h)*half
		if into < blank {
			continue
		}
		if h != current {
			state := ring.StateOnSource
			if h%2 == 1 {
				state = ring.StateOffSource
			}
			dst = append(dst, ring.Accumulation{State: state, Begin: n})
			current = h
		}
		x := float64(raw) - sp.cfg.SampleOffset
		a := &dst[len(dst)-1]
		a.Sum += x
		a.SumSquared += x * x
		a.Count++
		a.End = n
	}
	return dst
}
