package testkit

import (
	"net/url"
	"path/filepath"
	"strings"

	perr "dfsclient/internal/platform/errors"
)

// Probe reports the version of a dependency from the name of the artifact it
// was loaded from. The loader is supplied by the caller
type Probe struct {
	Loader   Loader
	Artifact string
}

// Version locates the artifact and parses the version token out of its name.
// Nothing is cached; every call goes back to the loader
func (p Probe) Version() (string, error) {
	l := ResolveLoader(p.Loader)
	if l == nil {
		return "", perr.VersionResolution(nil, "unable to find %s: no loader", p.Artifact)
	}
	loc, err := l.Locate(p.Artifact)
	if err != nil {
		return "", perr.VersionResolution(err, "unable to find %s", p.Artifact)
	}
	path, err := LocalPath(loc)
	if err != nil {
		return "", err
	}
	return ArtifactVersion(filepath.Base(path)), nil
}

// LocalPath converts an artifact location into a local filesystem path.
// Accepted forms are file URLs without host, query or fragment, and bare
// absolute paths
func LocalPath(loc string) (string, error) {
	u, err := url.Parse(loc)
	if err != nil {
		return "", perr.VersionResolution(err, "malformed artifact location %q", loc)
	}
	switch u.Scheme {
	case "file":
		if u.Opaque != "" || (u.Host != "" && u.Host != "localhost") || u.RawQuery != "" || u.Fragment != "" || u.Path == "" {
			return "", perr.VersionResolution(nil, "artifact location %q is not a local path", loc)
		}
		return filepath.FromSlash(u.Path), nil
	case "":
		if !filepath.IsAbs(loc) {
			return "", perr.VersionResolution(nil, "artifact location %q is not absolute", loc)
		}
		return loc, nil
	default:
		return "", perr.VersionResolution(nil, "artifact location %q has unsupported scheme %q", loc, u.Scheme)
	}
}

// ArtifactVersion extracts the version token from an artifact name of the
// form name-version.ext: the text after the last '-' up to the last '.'.
// A name without '-' degrades to stripping the extension, so hadoop.jar
// yields "hadoop"
func ArtifactVersion(name string) string {
	parts := strings.Split(name, "-")
	for len(parts) > 1 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	last := parts[len(parts)-1]
	if i := strings.LastIndex(last, "."); i >= 0 {
		return last[:i]
	}
	return last
}

// IsMajor reports whether version belongs to the given major line by plain
// prefix match. "10.0" matches major "1"
func IsMajor(version, major string) bool {
	return strings.HasPrefix(version, major)
}

// IsVersionResolutionError reports whether err came from a failed probe
func IsVersionResolutionError(err error) bool {
	return perr.IsCode(err, perr.ErrorCodeVersionResolution)
}
