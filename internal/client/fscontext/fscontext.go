// Package fscontext holds the process-wide file system context: master
// address, metadata store settings and the lazily opened metadata store
package fscontext

import (
	"context"
	"math"
	"sync"
	"time"

	"dfsclient/internal/platform/config"
	perr "dfsclient/internal/platform/errors"
	"dfsclient/internal/platform/logger"
	"dfsclient/internal/platform/store"
	"dfsclient/internal/platform/validate"

	"github.com/google/uuid"
)

// Name identifies the context in logs and reset errors
const Name = "file-system-context"

// EnvPrefix namespaces the context's environment keys
const EnvPrefix = "DFS_FS_"

// Config is the file system context configuration
type Config struct {
	MasterURL string `env:"MASTER_URL" validate:"required,url"`
	MetaDBURL string `env:"META_DB_URL" validate:"omitempty,url"`
	MaxConns  int32  `env:"MAX_CONNS" validate:"gte=0"`
	LogSQL    bool   `env:"LOG_SQL"`
	// PingTimeout bounds each metadata store readiness ping, 0 uses the store default
	PingTimeout time.Duration `env:"PING_TIMEOUT" validate:"gte=0"`
}

// ConfigFrom reads Config from c, prefixed with EnvPrefix
func ConfigFrom(c config.Conf) Config {
	fc := c.Prefix(EnvPrefix)
	return Config{
		MasterURL: fc.MayString("MASTER_URL", ""),
		MetaDBURL: fc.MayString("META_DB_URL", ""),
		MaxConns:  maxConns(fc),
		LogSQL:    fc.MayBool("LOG_SQL", false),

		PingTimeout: fc.MayDuration("PING_TIMEOUT", 0),
	}
}

// maxConns reads MAX_CONNS as an int32. Out of range values become -1 so
// validation rejects them instead of the conversion wrapping
func maxConns(fc config.Conf) int32 {
	n := fc.MayInt("MAX_CONNS", 0)
	if n < math.MinInt32 || n > math.MaxInt32 {
		logger.Named("fscontext").Warn().Int("value", n).Msg("MAX_CONNS out of range")
		return -1
	}
	return int32(n)
}

// Opener opens the metadata store
type Opener func(ctx context.Context, cfg store.Config, opts ...store.Option) (*store.Store, error)

// seam
var openStore Opener = store.Open

// Context caches configuration and the metadata store for every file system
// handle in the process
type Context struct {
	mu    sync.Mutex
	load  func() Config
	open  Opener
	log   *logger.Logger
	cfg   Config
	gen   uuid.UUID
	st    *store.Store
	dirty bool
}

// Option configures a Context
type Option func(*Context)

// WithSource re-reads configuration from c on construction and on every Reset
func WithSource(c config.Conf) Option {
	return func(x *Context) { x.load = func() Config { return ConfigFrom(c) } }
}

// WithStoreOpener replaces the function used to open the metadata store
func WithStoreOpener(fn Opener) Option {
	return func(x *Context) { x.open = fn }
}

// WithLogger sets the context logger
func WithLogger(l *logger.Logger) Option {
	return func(x *Context) { x.log = l }
}

// New builds a Context. cfg is the construction-time configuration that Reset
// returns to unless WithSource is given
func New(cfg Config, opts ...Option) *Context {
	x := &Context{load: func() Config { return cfg }}
	for _, o := range opts {
		o(x)
	}
	if x.log == nil {
		x.log = logger.Named("fscontext")
	}
	x.cfg = x.load()
	x.gen = uuid.New()
	return x
}

var (
	instOnce sync.Once
	inst     *Context
)

// Instance returns the process-wide Context built from the environment on
// first use
func Instance() *Context {
	instOnce.Do(func() {
		inst = New(Config{}, WithSource(config.New()))
	})
	return inst
}

// Name implements testkit.Resettable
func (x *Context) Name() string { return Name }

// Config returns the current configuration
func (x *Context) Config() Config {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.cfg
}

// Generation identifies the current state, it changes on every Reset
func (x *Context) Generation() uuid.UUID {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.gen
}

// Configure validates and installs cfg, dropping a store opened under the
// previous configuration
func (x *Context) Configure(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		return perr.WithOp(err, Name)
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	err := x.closeLocked()
	x.cfg = cfg
	x.dirty = true
	return err
}

// Store returns the metadata store, opening it on first use. PG is enabled
// only when a metadata database URL is configured
func (x *Context) Store(ctx context.Context) (*store.Store, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.st != nil {
		return x.st, nil
	}
	if err := validate.Struct(x.cfg); err != nil {
		return nil, perr.WithOp(err, Name)
	}

	open := x.open
	if open == nil {
		open = openStore
	}
	st, err := open(ctx, store.Config{
		AppName: "dfsclient",
		PG: store.PGConfig{
			Enabled:     x.cfg.MetaDBURL != "",
			URL:         x.cfg.MetaDBURL,
			MaxConns:    x.cfg.MaxConns,
			LogSQL:      x.cfg.LogSQL,
			PingTimeout: x.cfg.PingTimeout,
		},
	}, store.WithLogger(*x.log))
	if err != nil {
		return nil, perr.WithOp(err, Name)
	}
	x.st = st
	x.dirty = true
	x.log.Debug().Str("generation", x.gen.String()).Bool("metadata", st.PG != nil).Msg("store opened")
	return st, nil
}

// Reset closes the cached store and returns the context to its
// construction-time state under a new generation. A close failure is
// returned after the state has been reset
func (x *Context) Reset() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	err := x.closeLocked()
	x.cfg = x.load()
	x.gen = uuid.New()
	x.dirty = false
	x.log.Debug().Str("generation", x.gen.String()).Msg("context reset")
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "close store")
	}
	return nil
}

// Dirty reports whether the context was used since construction or the last Reset
func (x *Context) Dirty() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.dirty
}

func (x *Context) closeLocked() error {
	if x.st == nil {
		return nil
	}
	err := x.st.Close()
	x.st = nil
	return err
}
