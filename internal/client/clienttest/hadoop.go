package clienttest

import (
	"testing"

	"dfsclient/internal/platform/config"
	"dfsclient/internal/platform/testkit"
)

const (
	// HadoopArtifact is the artifact whose name carries the Hadoop version
	HadoopArtifact = "hadoop-common"

	// HadoopHomeEnv points at the directory holding the Hadoop jars
	HadoopHomeEnv     = "DFS_HADOOP_HOME"
	DefaultHadoopHome = "/usr/lib/hadoop"
)

// DefaultLoader finds artifacts under DFS_HADOOP_HOME
func DefaultLoader() testkit.Loader {
	return testkit.DirLoader{Root: config.New().MayString(HadoopHomeEnv, DefaultHadoopHome)}
}

// seam
var newLoader = DefaultLoader

// HadoopVersion reports the version of the hadoop-common artifact, such as
// "2.7.3". It is looked up on every call
func HadoopVersion() (string, error) {
	return testkit.Probe{Loader: newLoader(), Artifact: HadoopArtifact}.Version()
}

// IsHadoop1x reports whether the Hadoop version starts with "1"
func IsHadoop1x(t testing.TB) bool {
	t.Helper()
	return isMajor(t, "1")
}

// IsHadoop2x reports whether the Hadoop version starts with "2"
func IsHadoop2x(t testing.TB) bool {
	t.Helper()
	return isMajor(t, "2")
}

func isMajor(t testing.TB, major string) bool {
	t.Helper()
	v, err := HadoopVersion()
	if err != nil {
		t.Fatalf("hadoop version: %v", err)
		return false
	}
	return testkit.IsMajor(v, major)
}
