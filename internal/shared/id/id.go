// Package id provides centralized ID generation for the pipeline.
//
// This package offers type-safe ULID generation with:
//   - Lexicographic sortability: scan IDs sort by start time on disk and in logs
//   - Prefixed types: Type-specific prefixes for debugging (scan_*, req_*, cmd_*)
//   - Type safety: Separate types prevent ID misuse
//   - Performance: ~2μs per ULID, safe for the 1 Hz control path
//
// Design Principles:
//   - ULIDs only: Single ID format across the whole system
//   - K-sortable: Timeline queries without timestamps
//   - Debuggable: Prefixes make logs readable
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ============================================================================
// Type-Safe ID Wrappers
// ============================================================================

// ScanID identifies one recording scan
type ScanID string

// RequestID identifies an API request
type RequestID string

// CommandID identifies a queued control command
type CommandID string

// ============================================================================
// ID Prefixes (for debugging and type identification)
// ============================================================================

const (
	ScanPrefix    = "scan"
	RequestPrefix = "req"
	CommandPrefix = "cmd"
)

// ============================================================================
// ULID Generator
// ============================================================================

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	// Default generator with cryptographically secure entropy
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator
func NewGenerator() *Generator {
	return &Generator{
		entropy: rand.Reader,
	}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source
// Useful for testing with deterministic entropy
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// Scan generates a new scan ID from this generator
func (g *Generator) Scan() ScanID {
	return ScanID(g.GenerateWithPrefix(ScanPrefix))
}

// ============================================================================
// Typed ID Generators
// ============================================================================

// NewScanID generates a new scan ID
func NewScanID() ScanID {
	return ScanID(Default().GenerateWithPrefix(ScanPrefix))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewCommandID generates a new command ID
func NewCommandID() CommandID {
	return CommandID(Default().GenerateWithPrefix(CommandPrefix))
}

// ============================================================================
// Type Conversion and Validation
// ============================================================================

// String methods for ID types
func (id ScanID) String() string    { return string(id) }
func (id RequestID) String() string { return string(id) }
func (id CommandID) String() string { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Parse parses a ULID string
func Parse(id string) (ulid.ULID, error) {
	return ulid.Parse(id)
}

// Timestamp extracts the timestamp from a ULID
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
