// Package lineage records which inputs produced which outputs for a client
// job. Records go to a clickhouse table through the store layer
package lineage

import (
	"context"
	"sync"

	"dfsclient/internal/core/version"
	"dfsclient/internal/platform/config"
	perr "dfsclient/internal/platform/errors"
	"dfsclient/internal/platform/logger"
	"dfsclient/internal/platform/store"
	"dfsclient/internal/platform/validate"

	"github.com/google/uuid"
)

// Name identifies the context in logs and reset errors
const Name = "lineage-context"

// EnvPrefix namespaces the context's environment keys
const EnvPrefix = "DFS_LINEAGE_"

// DefaultTable is used when DFS_LINEAGE_TABLE is unset
const DefaultTable = "dfs_lineage"

// Config is the lineage context configuration
type Config struct {
	Enabled       bool   `env:"ENABLED"`
	ClickhouseURL string `env:"CH_URL" validate:"required_if=Enabled true"`
	Table         string `env:"TABLE" validate:"required,sqlident"`
}

// ConfigFrom reads Config from c, prefixed with EnvPrefix
func ConfigFrom(c config.Conf) Config {
	lc := c.Prefix(EnvPrefix)
	return Config{
		Enabled:       lc.MayBool("ENABLED", false),
		ClickhouseURL: lc.MayString("CH_URL", ""),
		Table:         lc.MayString("TABLE", DefaultTable),
	}
}

// Opener opens the lineage store
type Opener func(ctx context.Context, cfg store.Config, opts ...store.Option) (*store.Store, error)

// seam
var openStore Opener = store.Open

// Context caches the lineage configuration and client for the process
type Context struct {
	mu     sync.Mutex
	load   func() Config
	open   Opener
	log    *logger.Logger
	cfg    Config
	gen    uuid.UUID
	st     *store.Store
	client *Client
}

// Option configures a Context
type Option func(*Context)

// WithSource re-reads configuration from c on construction and on every Reset
func WithSource(c config.Conf) Option {
	return func(x *Context) { x.load = func() Config { return ConfigFrom(c) } }
}

// WithStoreOpener replaces the function used to open the lineage store
func WithStoreOpener(fn Opener) Option {
	return func(x *Context) { x.open = fn }
}

// WithLogger sets the context logger
func WithLogger(l *logger.Logger) Option {
	return func(x *Context) { x.log = l }
}

// New builds a Context around the construction-time configuration cfg
func New(cfg Config, opts ...Option) *Context {
	x := &Context{load: func() Config { return cfg }}
	for _, o := range opts {
		o(x)
	}
	if x.log == nil {
		x.log = logger.Named("lineage")
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

// Client returns the lineage client, opening the store on first use
func (x *Context) Client(ctx context.Context) (*Client, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.client != nil {
		return x.client, nil
	}
	if !x.cfg.Enabled {
		return nil, perr.WithOp(perr.Unavailablef("lineage disabled"), Name)
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
		CH: store.CHConfig{
			Enabled:    true,
			URL:        x.cfg.ClickhouseURL,
			ClientName: "dfsclient",
			ClientTag:  version.Info().Version,
		},
	}, store.WithLogger(*x.log))
	if err != nil {
		return nil, perr.WithOp(err, Name)
	}
	if st.CH == nil {
		_ = st.Close()
		return nil, perr.WithOp(perr.Unavailablef("store opened without clickhouse"), Name)
	}
	x.st = st
	x.client = &Client{ch: st.CH, table: x.cfg.Table, log: x.log}
	x.log.Debug().Str("generation", x.gen.String()).Str("table", x.cfg.Table).Msg("lineage client opened")
	return x.client, nil
}

// Reset drops the client, closes the store and reloads configuration under a
// new generation. A close failure is returned after the state has been reset
func (x *Context) Reset() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	var err error
	if x.st != nil {
		err = x.st.Close()
	}
	x.st = nil
	x.client = nil
	x.cfg = x.load()
	x.gen = uuid.New()
	x.log.Debug().Str("generation", x.gen.String()).Msg("context reset")
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "close store")
	}
	return nil
}
