package ch

import (
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// BuildClientInfo describes this process to the server, shown in
// system.query_log. name defaults to dfsclient
func BuildClientInfo(name, tag string) clickhouse.ClientInfo {
	if strings.TrimSpace(name) == "" {
		name = "dfsclient"
	}
	host, _ := os.Hostname()

	type kv = struct{ Name, Version string }
	products := []kv{
		{Name: strings.TrimSpace(name), Version: orUnknown(tag)},
		{Name: "go", Version: runtime.Version()},
		{Name: "commit", Version: vcsShortSHA()},
		{Name: "host", Version: orUnknown(host)},
	}
	return clickhouse.ClientInfo{Products: products}
}

func vcsShortSHA() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				return s.Value[:7]
			}
		}
	}
	return "unknown"
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown"
	}
	return s
}
