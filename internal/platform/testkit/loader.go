package testkit

import (
	"errors"
	"io/fs"
	"net/url"
	"path/filepath"
	"strings"

	perr "dfsclient/internal/platform/errors"

	"golang.org/x/text/unicode/norm"
)

// Loader locates a named dependency artifact and reports where it lives as a
// URL string, typically file:///path/to/name-1.2.3.jar
type Loader interface {
	Locate(name string) (string, error)
}

// WrappingLoader is a Loader that stands in front of another one (a test
// double, a recording proxy) and does not expose real artifact locations
type WrappingLoader interface {
	Loader
	Parent() Loader
}

// ResolveLoader returns the loader that should be used to inspect artifacts.
// A WrappingLoader is replaced by its parent, one level only; a nil parent is
// returned as is
func ResolveLoader(l Loader) Loader {
	if w, ok := l.(WrappingLoader); ok {
		return w.Parent()
	}
	return l
}

// DirLoader finds artifacts below Root by file or directory name.
// "hadoop-common" matches hadoop-common-2.7.3.jar and hadoop-common-2.7.3/
// but not classifier jars such as hadoop-common-2.7.3-tests.jar
type DirLoader struct {
	Root string
}

var errStopWalk = errors.New("stop")

// Locate walks Root in lexical order and returns the first artifact whose
// name is name-<version>, classifier jars excluded, as a file URL
func (d DirLoader) Locate(name string) (string, error) {
	if strings.TrimSpace(d.Root) == "" {
		return "", perr.InvalidArgf("dir loader: empty root")
	}
	root, err := filepath.Abs(d.Root)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeInvalidArgument, "dir loader: resolve root")
	}
	want := norm.NFC.String(name) + "-"

	var found string
	walkErr := filepath.WalkDir(root, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		// macOS hands back decomposed names; compare composed forms
		if strings.HasPrefix(norm.NFC.String(de.Name()), want) {
			found = path
			return errStopWalk
		}
		return nil
	})
	if walkErr != nil && !errors.Is(walkErr, errStopWalk) {
		return "", perr.Wrapf(walkErr, perr.ErrorCodeNotFound, "dir loader: walk %s", root)
	}
	if found == "" {
		return "", perr.NotFoundf("dir loader: no artifact %q under %s", name, root)
	}
	return FileURL(found), nil
}

// classifiers mark secondary jars published next to an artifact
var classifiers = []string{"-tests", "-test-sources", "-sources", "-javadoc"}

// isArtifact reports whether base is prefix followed by a version starting
// with a digit, and is not a classifier jar
func isArtifact(base, prefix string) bool {
	rest, ok := strings.CutPrefix(base, prefix)
	if !ok || rest == "" || rest[0] < '0' || rest[0] > '9' {
		return false
	}
	stem := strings.TrimSuffix(rest, ".jar")
	for _, c := range classifiers {
		if strings.HasSuffix(stem, c) {
			return false
		}
	}
	return true
}

// StaticLoader maps artifact names to fixed locations
type StaticLoader map[string]string

// Locate returns the configured location for name
func (s StaticLoader) Locate(name string) (string, error) {
	loc, ok := s[name]
	if !ok {
		return "", perr.NotFoundf("static loader: no artifact %q", name)
	}
	return loc, nil
}

// FileURL renders an absolute local path as a file URL
func FileURL(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}
