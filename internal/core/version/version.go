// Package version provides information about the build version of the client.
package version

// BuildInfo holds version information about the client build.
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info returns the build information. The version, commit, and date variables
// are set at build time with
// -ldflags "-X dfsclient/internal/core/version.version=v0.1.0 -X dfsclient/internal/core/version.commit=abcd"
func Info() BuildInfo {
	return BuildInfo{
		Service: "dfsclient",
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

// String renders the build as "dfsclient v0.1.0 (abcd, 2026-01-02)"
func (b BuildInfo) String() string {
	return b.Service + " " + b.Version + " (" + b.Commit + ", " + b.Date + ")"
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
