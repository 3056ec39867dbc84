package paths

import (
	"fmt"
	"strings"
)

// MetaFile is the JSON scan summary written when a scan closes.
const MetaFile = "meta-data.json"

// Patterns matching the data files in a scan directory, in doublestar
// syntax.
const (
	SpectrumPattern   = "*.{spec,spec.zst}"
	NoisePowerPattern = "*.npow"
)

// ScanDir composes the directory name recordings land under for the
// given naming fields.
func ScanDir(experiment, source, scan string) string {
	return experiment + "_" + source + "_" + scan
}

// SplitScanDir recovers the naming fields from a scan directory name.
// Experiment and source never carry underscores; anything past the
// second separator belongs to the scan label.
func SplitScanDir(name string) (experiment, source, scan string) {
	parts := strings.SplitN(name, "_", 3)
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return parts[0], parts[1], parts[2]
}

// SpectrumFile names one landed spectrum by its position in the sample
// stream.
func SpectrumFile(startSecond int64, leadingSample uint64, compressed bool) string {
	name := fmt.Sprintf("%d_%d.spec", startSecond, leadingSample)
	if compressed {
		name += ".zst"
	}
	return name
}

// NoisePowerFile names the switching statistics landed beside a spectrum.
func NoisePowerFile(startSecond int64, leadingSample uint64, sideband, polarization byte) string {
	return fmt.Sprintf("%d_%d_%c%c.npow", startSecond, leadingSample, sideband, polarization)
}
