// Package inventory summarizes recorded scan directories for the API.
package inventory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/bytedance/sonic"
	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/SpectraCore/internal/providers/writer"
	"github.com/GriffinCanCode/SpectraCore/internal/shared/paths"
)

var (
	ErrBadName  = errors.New("inventory: bad scan name")
	ErrNotFound = errors.New("inventory: scan not found")
)

// Scan summarizes one recorded scan directory.
type Scan struct {
	Name       string       `json:"name"`
	Directory  string       `json:"directory"`
	Experiment string       `json:"experiment"`
	Source     string       `json:"source"`
	Scan       string       `json:"scan"`
	Spectra    int          `json:"spectra"`
	NoisePower int          `json:"noise_power"`
	Files      int          `json:"files"`
	Bytes      int64        `json:"bytes"`
	Meta       *writer.Meta `json:"meta,omitempty"`
}

// Inventory lists recorded scans under a root directory.
type Inventory struct {
	root string
	log  *zap.Logger
}

func New(root string, log *zap.Logger) *Inventory {
	return &Inventory{root: root, log: log}
}

// Scans summarizes every scan directory under the root, sorted by name.
// A root that does not exist yet reads as empty.
func (inv *Inventory) Scans() ([]Scan, error) {
	entries, err := os.ReadDir(inv.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read recording root: %w", err)
	}

	scans := make([]Scan, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		s, err := inv.describe(e.Name())
		if err != nil {
			inv.log.Warn("skipping unreadable scan directory",
				zap.String("directory", e.Name()),
				zap.Error(err))
			continue
		}
		scans = append(scans, s)
	}
	sort.Slice(scans, func(i, j int) bool { return scans[i].Name < scans[j].Name })
	return scans, nil
}

// Lookup summarizes a single scan directory by name.
func (inv *Inventory) Lookup(name string) (Scan, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return Scan{}, ErrBadName
	}
	info, err := os.Stat(filepath.Join(inv.root, name))
	if err != nil || !info.IsDir() {
		return Scan{}, ErrNotFound
	}
	return inv.describe(name)
}

func (inv *Inventory) describe(name string) (Scan, error) {
	dir := filepath.Join(inv.root, name)
	s := Scan{Name: name, Directory: dir}
	s.Experiment, s.Source, s.Scan = paths.SplitScanDir(name)

	// fastwalk dispatches callbacks from multiple goroutines.
	var mu sync.Mutex
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		base := filepath.Base(p)
		spec, _ := doublestar.Match(paths.SpectrumPattern, base)
		npow, _ := doublestar.Match(paths.NoisePowerPattern, base)

		mu.Lock()
		defer mu.Unlock()
		s.Files++
		s.Bytes += info.Size()
		switch {
		case spec:
			s.Spectra++
		case npow:
			s.NoisePower++
		}
		return nil
	})
	if err != nil {
		return Scan{}, err
	}

	s.Meta = inv.readMeta(dir)
	return s, nil
}

func (inv *Inventory) readMeta(dir string) *writer.Meta {
	data, err := os.ReadFile(filepath.Join(dir, paths.MetaFile))
	if err != nil {
		return nil
	}
	var m writer.Meta
	if err := sonic.Unmarshal(data, &m); err != nil {
		inv.log.Warn("unreadable scan summary",
			zap.String("directory", dir),
			zap.Error(err))
		return nil
	}
	return &m
}
