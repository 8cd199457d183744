// Package clienttest holds helpers for the client's own test suites: resetting
// the shared client state between cases and branching on the Hadoop version
// found on the machine
package clienttest

import (
	"testing"

	"dfsclient/internal/client/fscontext"
	"dfsclient/internal/client/hdfs"
	"dfsclient/internal/client/lineage"
	"dfsclient/internal/platform/testkit"
)

// Resetter covers the process-wide file system and lineage contexts, in that
// order, then the file system initialization flag
func Resetter() *testkit.Resetter {
	return testkit.NewResetter(
		[]testkit.Resettable{fscontext.Instance(), lineage.Instance()},
		hdfs.Flag,
	)
}

// ResetClient returns the shared client state to its initial form. Failures
// are setup errors; contexts after the failing one are left untouched
func ResetClient() error { return Resetter().ResetClient() }

// MustResetClient is ResetClient for use in t.Cleanup
func MustResetClient(t testing.TB) {
	t.Helper()
	Resetter().MustResetClient(t)
}
