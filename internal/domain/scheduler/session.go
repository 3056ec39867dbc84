package scheduler

import "github.com/GriffinCanCode/SpectraCore/internal/shared/paths"

// Fallback names used when a command carries empty naming fields.
const (
	DefaultExperiment = "ExpX"
	DefaultSource     = "SrcX"
	DefaultScan       = "ScnX"
)

// Session is the metadata of an active or pending recording window. It is
// written only on a transition out of Idle and cleared on the way back. ID
// is minted when acquisition actually starts, so a Pending session has none.
type Session struct {
	ID          string `json:"id,omitempty"`
	Experiment  string `json:"experiment"`
	Source      string `json:"source"`
	Scan        string `json:"scan"`
	StartSecond int64  `json:"start_second"`
	EndSecond   int64  `json:"end_second,omitempty"`
}

// Dir returns the scan directory name derived from the naming fields.
func (s Session) Dir() string {
	return paths.ScanDir(s.Experiment, s.Source, s.Scan)
}

// ScanReport summarizes what the persistence sink made durable for one
// finished scan.
type ScanReport struct {
	ScanID    string `json:"scan_id"`
	Directory string `json:"directory"`
	Files     int    `json:"files"`
	Bytes     int64  `json:"bytes"`
	Spectra   uint64 `json:"spectra"`
	Dropped   uint64 `json:"dropped"`
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func named(experiment, source, scan string) Session {
	return Session{
		Experiment: orDefault(experiment, DefaultExperiment),
		Source:     orDefault(source, DefaultSource),
		Scan:       orDefault(scan, DefaultScan),
	}
}
