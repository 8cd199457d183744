package testkit

import (
	"fmt"
	"testing"

	perr "dfsclient/internal/platform/errors"
)

// Resettable is a process-wide context that can return itself to its
// freshly constructed state
type Resettable interface {
	Name() string
	Reset() error
}

// Reinitializable is implemented by components guarding a one-shot
// initialization; ResetForTesting clears the guard so the next use re-runs it
type Reinitializable interface {
	ResetForTesting()
}

// Resetter returns a fixed set of shared client contexts to their initial
// state between test cases
type Resetter struct {
	contexts []Resettable
	flags    []Reinitializable
}

// NewResetter builds a Resetter over contexts, reset in order, followed by flags
func NewResetter(contexts []Resettable, flags ...Reinitializable) *Resetter {
	return &Resetter{contexts: contexts, flags: flags}
}

// ResetClient resets every context then clears every initialization flag.
// The first failure aborts the sequence and is returned as a setup error;
// nothing already reset is rolled back
func (r *Resetter) ResetClient() (err error) {
	op := "reset"
	defer func() {
		if rec := recover(); rec != nil {
			err = perr.Setup(perr.Newf(perr.ErrorCodePanic, "panic: %v", rec), op)
		}
	}()

	for i, c := range r.contexts {
		if c == nil {
			return perr.Setup(perr.NotFoundf("missing context at position %d", i), op)
		}
		op = c.Name()
		if err := c.Reset(); err != nil {
			return perr.Setup(err, op)
		}
	}
	for i, f := range r.flags {
		if f == nil {
			return perr.Setup(perr.NotFoundf("missing flag owner at position %d", i), "reset-flags")
		}
		op = fmt.Sprintf("%T", f)
		f.ResetForTesting()
	}
	return nil
}

// MustResetClient resets and fails the test on error, suitable for t.Cleanup
func (r *Resetter) MustResetClient(t testing.TB) {
	t.Helper()
	if err := r.ResetClient(); err != nil {
		t.Fatalf("reset client: %v", err)
	}
}

// IsSetupError reports whether err came from a failed reset
func IsSetupError(err error) bool { return perr.IsCode(err, perr.ErrorCodeSetup) }
