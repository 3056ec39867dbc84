//go:build !linux

package stage

import "errors"

// pin is unsupported off linux; workers run unpinned.
func pin(int) error {
	return errors.New("processor affinity not supported on this platform")
}
