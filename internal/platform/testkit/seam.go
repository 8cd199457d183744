package testkit

import (
	"sync"
	"testing"
)

// seamMu serializes tests that swap package-level seams or reset singletons
var seamMu sync.Mutex

// Swap replaces a package-level variable for the duration of the test and restores it on cleanup
func Swap[T any](t *testing.T, target *T, replacement T) {
	t.Helper()
	orig := *target
	*target = replacement
	t.Cleanup(func() { *target = orig })
}

// Serial runs the rest of the test under a process-wide lock. Tests that
// reset shared client contexts must call it, concurrent resets are unsupported
func Serial(t *testing.T) {
	t.Helper()
	seamMu.Lock()
	t.Cleanup(seamMu.Unlock)
}
