// Package testkit provides helpers for the client test suites: seam swapping,
// serialization of tests that touch process-wide state, resetting shared
// client contexts and probing dependency versions
package testkit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	perr "dfsclient/internal/platform/errors"
)

// MustContain asserts that haystack contains needle. If not, writes haystack to a temp file for debugging
func MustContain(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		tmpfile := filepath.Join(t.TempDir(), "must_contain_output.txt")
		_ = os.WriteFile(tmpfile, []byte(haystack), 0o600)
		t.Fatalf("expected output to contain %q\n\nfull output written to %s", needle, tmpfile)
	}
}

// MustCode asserts that err is a project error carrying code
func MustCode(t *testing.T, err error, code perr.ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if got := perr.CodeOf(err); got != code {
		t.Fatalf("expected %s error, got %s: %v", code, got, err)
	}
}
