package ring

import "sync"

// Registry assigns stable sequential indices to consumer identities.
// Indices follow first-registration order and never change for the life of
// the process; registering the same identity again returns its existing
// index. Registration happens during pipeline setup, before any stage runs.
type Registry struct {
	mu    sync.Mutex
	index map[string]int
	order []string
}

// NewRegistry creates an empty consumer registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register returns the index for id, assigning the next sequential index on
// first registration.
func (r *Registry) Register(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if idx, ok := r.index[id]; ok {
		return idx
	}
	idx := len(r.order)
	r.index[id] = idx
	r.order = append(r.order, id)
	return idx
}

// Index looks up the index assigned to id.
func (r *Registry) Index(id string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.index[id]
	return idx, ok
}

// Count returns the number of registered consumers.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.order)
}

// IDs returns the registered identities in index order.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
