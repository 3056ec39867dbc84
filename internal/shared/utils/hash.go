package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// HashAlgorithm selects the digest a Hasher computes.
type HashAlgorithm string

const (
	SHA256 HashAlgorithm = "sha256"
)

// Hasher folds fields into a hex digest. The writer uses it to fingerprint
// a closed scan's file set so copies can be verified offline.
type Hasher struct {
	algorithm HashAlgorithm
}

// NewHasher creates a hasher with the specified algorithm.
func NewHasher(algorithm HashAlgorithm) *Hasher {
	return &Hasher{algorithm: algorithm}
}

// DefaultHasher returns a sha256 hasher.
func DefaultHasher() *Hasher {
	return NewHasher(SHA256)
}

// Hash computes the hex digest of data.
func (h *Hasher) Hash(data []byte) string {
	switch h.algorithm {
	case SHA256:
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:])
	default:
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:])
	}
}

// HashString computes the hex digest of a string.
func (h *Hasher) HashString(s string) string {
	return h.Hash([]byte(s))
}

// HashFields digests multiple fields as one value. Fields are sorted first,
// so the digest does not depend on enumeration order.
func (h *Hasher) HashFields(fields ...string) string {
	sorted := make([]string, len(fields))
	copy(sorted, fields)
	sort.Strings(sorted)

	return h.HashString(strings.Join(sorted, "|"))
}
