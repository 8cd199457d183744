// Package config handles client configuration via environment variables
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"dfsclient/internal/platform/logger"
)

// Source resolves a fully-qualified key, reporting whether it was set
type Source func(key string) (string, bool)

// Conf is a namespaced view over a key/value source (e.g., "DFS_FS_", "DFS_LINEAGE_")
// Use New() for the process environment, or FromMap for fixed values in tests
type Conf struct {
	prefix string
	src    Source
}

// New creates a root Conf (no prefix) over the process environment
func New() Conf { return Conf{src: os.LookupEnv} }

// FromMap creates a root Conf over a fixed map, keys are fully-qualified
func FromMap(m map[string]string) Conf {
	return Conf{src: func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}}
}

// Prefix creates a child Conf with an additional prefix, e.g. cfg.Prefix("FS_")
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p, src: c.src} }

// key composes the fully-qualified name
func (c Conf) key(k string) string { return c.prefix + k }

// lookup returns the trimmed value for key; a zero Conf reads the environment
func (c Conf) lookup(key string) string {
	src := c.src
	if src == nil {
		src = os.LookupEnv
	}
	v, _ := src(c.key(key))
	return strings.TrimSpace(v)
}

// MayString returns the value or def if missing/empty
func (c Conf) MayString(key, def string) string {
	if v := c.lookup(key); v != "" {
		return v
	}
	return def
}

// MayInt returns the value or def if missing/empty; logs and returns def if invalid
func (c Conf) MayInt(key string, def int) int {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Int("default", def).Msg("invalid int; using default")
	return def
}

// MayBool returns the value or def if missing/empty; logs and returns def if invalid
func (c Conf) MayBool(key string, def bool) bool {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Bool("default", def).Msg("invalid bool; using default")
	return def
}

// MayDuration returns the value or def if missing/empty; logs and returns def if invalid
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Dur("default", def).Msg("invalid duration; using default")
	return def
}
