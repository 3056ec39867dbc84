package ring

import (
	"errors"
	"fmt"

	"github.com/edsrzf/mmap-go"
)

var (
	ErrAllocation  = errors.New("backing storage allocation failed")
	ErrBadGeometry = errors.New("invalid pool geometry")
)

// Allocator obtains and releases the contiguous backing store for a pool's
// buffer payloads. Allocate returns at least buffers*bufferBytes bytes.
type Allocator interface {
	Allocate(buffers, bufferBytes int) ([]byte, error)
	Release(backing []byte) error
}

// Heap allocates backing storage on the Go heap.
type Heap struct{}

// Allocate returns a heap-backed byte slice.
func (Heap) Allocate(buffers, bufferBytes int) ([]byte, error) {
	if buffers <= 0 || bufferBytes <= 0 {
		return nil, fmt.Errorf("%w: %d buffers x %d bytes", ErrBadGeometry, buffers, bufferBytes)
	}
	return make([]byte, buffers*bufferBytes), nil
}

// Release is a no-op; the garbage collector reclaims heap backing.
func (Heap) Release([]byte) error { return nil }

// Mapped allocates backing storage in an anonymous memory mapping, keeping
// large sample rings off the garbage-collected heap. Release must not be
// called while any stage can still touch the pool.
type Mapped struct{}

// Allocate maps an anonymous region of buffers*bufferBytes bytes.
func (Mapped) Allocate(buffers, bufferBytes int) ([]byte, error) {
	if buffers <= 0 || bufferBytes <= 0 {
		return nil, fmt.Errorf("%w: %d buffers x %d bytes", ErrBadGeometry, buffers, bufferBytes)
	}
	m, err := mmap.MapRegion(nil, buffers*bufferBytes, mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		return nil, fmt.Errorf("map %d bytes: %w", buffers*bufferBytes, err)
	}
	return m, nil
}

// Release unmaps the region.
func (Mapped) Release(backing []byte) error {
	if backing == nil {
		return nil
	}
	m := mmap.MMap(backing)
	return m.Unmap()
}
