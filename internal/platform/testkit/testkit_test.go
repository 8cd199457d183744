package testkit

import (
	stderrs "errors"
	"testing"

	perr "dfsclient/internal/platform/errors"
)

func TestMustContain(t *testing.T) {
	t.Parallel()

	MustContain(t, "file-system-context lineage-context", "lineage")
}

func TestMustCode(t *testing.T) {
	t.Parallel()

	MustCode(t, perr.NotFoundf("missing"), perr.ErrorCodeNotFound)
	MustCode(t, perr.Setup(stderrs.New("x"), "op"), perr.ErrorCodeSetup)
}
