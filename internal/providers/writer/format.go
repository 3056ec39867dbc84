package writer

import (
	"encoding/binary"
	"io"
	"time"

	"github.com/GriffinCanCode/SpectraCore/internal/domain/ring"
	"github.com/GriffinCanCode/SpectraCore/internal/domain/scheduler"
)

const formatVersion uint32 = 1

var (
	specMagic = [4]byte{'S', 'P', 'E', 'C'}
	npowMagic = [4]byte{'N', 'P', 'O', 'W'}
)

// specHeader leads every .spec file, little-endian.
type specHeader struct {
	Magic           [4]byte
	Version         uint32
	StartSecond     int64
	SampleRate      float64
	LeadingSample   uint64
	SampleLength    uint64
	SpectraAveraged uint32
	SpectrumLength  uint32
}

// npowHeader leads every .npow file, little-endian, followed by
// AccumulationCount packed ring.Accumulation records.
type npowHeader struct {
	Magic              [4]byte
	Version            uint32
	Sideband           byte
	Polarization       byte
	_                  [2]byte
	StartSecond        int64
	SampleRate         float64
	LeadingSample      uint64
	SampleLength       uint64
	AccumulationCount  uint64
	SwitchingFrequency float64
	BlankingPeriod     float64
	Experiment         [32]byte
	Source             [32]byte
	Scan               [32]byte
}

// accumulationTotals closes out a .spec file with the on and off source
// statistics folded over the whole buffer.
type accumulationTotals struct {
	OnSum        float64
	OnSumSquared float64
	OnCount      float64

	OffSum        float64
	OffSumSquared float64
	OffCount      float64
}

// Meta is the scan summary serialized into paths.MetaFile when the scan
// closes.
type Meta struct {
	ScanID      string    `json:"scan_id"`
	Experiment  string    `json:"experiment"`
	Source      string    `json:"source"`
	Scan        string    `json:"scan"`
	StartSecond int64     `json:"start_second"`
	EndSecond   int64     `json:"end_second"`
	Files       int       `json:"files"`
	Bytes       int64     `json:"bytes"`
	Spectra     uint64    `json:"spectra"`
	Dropped     uint64    `json:"dropped"`
	Manifest    string    `json:"manifest,omitempty"`
	ClosedAt    time.Time `json:"closed_at"`
}

// sampleLength reports how many raw samples were folded into one spectrum
// buffer: segments averaged times the transform length behind each one.
func sampleLength(m ring.Metadata) uint64 {
	if m.ValidLength < 2 {
		return 0
	}
	return uint64(m.SpectraAveraged) * uint64(2*(m.ValidLength-1))
}

func foldTotals(accs []ring.Accumulation) accumulationTotals {
	var t accumulationTotals
	for _, a := range accs {
		switch a.State {
		case ring.StateOnSource:
			t.OnSum += a.Sum
			t.OnSumSquared += a.SumSquared
			t.OnCount += a.Count
		case ring.StateOffSource:
			t.OffSum += a.Sum
			t.OffSumSquared += a.SumSquared
			t.OffCount += a.Count
		}
	}
	return t
}

func encodeSpectrum(out io.Writer, b *ring.Buffer[float32]) error {
	hdr := specHeader{
		Magic:           specMagic,
		Version:         formatVersion,
		StartSecond:     b.Meta.AcquisitionStartSecond,
		SampleRate:      b.Meta.SampleRate,
		LeadingSample:   b.Meta.LeadingSampleIndex,
		SampleLength:    sampleLength(b.Meta),
		SpectraAveraged: uint32(b.Meta.SpectraAveraged),
		SpectrumLength:  uint32(b.Meta.ValidLength),
	}
	if err := binary.Write(out, binary.LittleEndian, hdr); err != nil {
		return err
	}
	if err := binary.Write(out, binary.LittleEndian, b.Data[:b.Meta.ValidLength]); err != nil {
		return err
	}
	return binary.Write(out, binary.LittleEndian, foldTotals(b.Meta.Accumulations))
}

func (w *Writer) encodeNoisePower(out io.Writer, sess scheduler.Session, b *ring.Buffer[float32]) error {
	hdr := npowHeader{
		Magic:              npowMagic,
		Version:            formatVersion,
		Sideband:           b.Meta.Sideband,
		Polarization:       b.Meta.Polarization,
		StartSecond:        b.Meta.AcquisitionStartSecond,
		SampleRate:         b.Meta.SampleRate,
		LeadingSample:      b.Meta.LeadingSampleIndex,
		SampleLength:       sampleLength(b.Meta),
		AccumulationCount:  uint64(len(b.Meta.Accumulations)),
		SwitchingFrequency: w.cfg.SwitchingFrequency,
		BlankingPeriod:     w.cfg.BlankingPeriod,
		Experiment:         label(sess.Experiment),
		Source:             label(sess.Source),
		Scan:               label(sess.Scan),
	}
	if err := binary.Write(out, binary.LittleEndian, hdr); err != nil {
		return err
	}
	return binary.Write(out, binary.LittleEndian, b.Meta.Accumulations)
}

func label(s string) [32]byte {
	var out [32]byte
	copy(out[:], s)
	return out
}
