//go:build linux

package stage

import "golang.org/x/sys/unix"

// pin binds the calling thread to a single processor. The caller must have
// locked the goroutine to its OS thread first.
func pin(core int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(core)
	return unix.SchedSetaffinity(0, &set)
}
