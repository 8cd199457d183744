// Command dfs-version prints the client build and the Hadoop version found
// under DFS_HADOOP_HOME, the way the client test suites detect it
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"dfsclient/internal/client/clienttest"
	"dfsclient/internal/core/version"
	"dfsclient/internal/platform/config"
	"dfsclient/internal/platform/logger"
	"dfsclient/internal/platform/testkit"
)

type report struct {
	Build  version.BuildInfo `json:"build"`
	Hadoop string            `json:"hadoop"`
	Major  string            `json:"major"`
	Home   string            `json:"home"`
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("dfs-version", flag.ContinueOnError)
	var (
		fHome     = fs.String("hadoop-home", config.New().MayString(clienttest.HadoopHomeEnv, clienttest.DefaultHadoopHome), "directory holding the Hadoop jars")
		fArtifact = fs.String("artifact", clienttest.HadoopArtifact, "artifact whose name carries the version")
		fJSON     = fs.Bool("json", false, "print a JSON report")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	probe := testkit.Probe{Loader: testkit.DirLoader{Root: *fHome}, Artifact: *fArtifact}
	v, err := probe.Version()
	if err != nil {
		return err
	}

	r := report{Build: version.Info(), Hadoop: v, Major: majorOf(v), Home: *fHome}
	if *fJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	_, err = fmt.Fprintf(stdout, "%s\nhadoop %s (%s)\n", r.Build, r.Hadoop, r.Major)
	return err
}

func majorOf(v string) string {
	switch {
	case testkit.IsMajor(v, "1"):
		return "1.x"
	case testkit.IsMajor(v, "2"):
		return "2.x"
	default:
		return "other"
	}
}

func main() {
	l := logger.Named("dfs-version")
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		l.Error().Err(err).Msg("version probe failed")
		os.Exit(1)
	}
}
