package fscontext

import (
	"context"
	"errors"
	"testing"
	"time"

	"dfsclient/internal/platform/config"
	perr "dfsclient/internal/platform/errors"
	"dfsclient/internal/platform/store"
	kit "dfsclient/internal/platform/testkit"
)

type closer struct {
	store.Querier
	closed int
	err    error
}

func (c *closer) Close() error { c.closed++; return c.err }

func countingOpener(calls *int, got *store.Config, pg store.Querier) Opener {
	return func(_ context.Context, cfg store.Config, _ ...store.Option) (*store.Store, error) {
		*calls++
		*got = cfg
		return &store.Store{PG: pg}, nil
	}
}

func TestConfigFrom_ReadsPrefixedKeys(t *testing.T) {
	t.Parallel()

	cfg := ConfigFrom(config.FromMap(map[string]string{
		"DFS_FS_MASTER_URL":   "dfs://master:8020",
		"DFS_FS_META_DB_URL":  "postgres://u@db/meta",
		"DFS_FS_MAX_CONNS":    "4",
		"DFS_FS_LOG_SQL":      "true",
		"DFS_FS_PING_TIMEOUT": "750ms",
		"MASTER_URL":          "dfs://wrong:1",
	}))
	want := Config{
		MasterURL:   "dfs://master:8020",
		MetaDBURL:   "postgres://u@db/meta",
		MaxConns:    4,
		LogSQL:      true,
		PingTimeout: 750 * time.Millisecond,
	}
	if cfg != want {
		t.Fatalf("ConfigFrom = %+v, want %+v", cfg, want)
	}
}

func TestConfigFrom_MaxConnsOutOfRange(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want int32
	}{
		{"4294967297", -1},
		{"-4294967297", -1},
		{"2147483647", 2147483647},
		{"-3", -3},
	}
	for _, c := range cases {
		cfg := ConfigFrom(config.FromMap(map[string]string{
			"DFS_FS_MASTER_URL": "dfs://master:8020",
			"DFS_FS_MAX_CONNS":  c.raw,
		}))
		if cfg.MaxConns != c.want {
			t.Fatalf("MAX_CONNS=%s -> %d, want %d", c.raw, cfg.MaxConns, c.want)
		}
	}

	x := New(Config{}, WithSource(config.FromMap(map[string]string{
		"DFS_FS_MASTER_URL": "dfs://master:8020",
		"DFS_FS_MAX_CONNS":  "4294967297",
	})), WithStoreOpener(func(context.Context, store.Config, ...store.Option) (*store.Store, error) {
		t.Fatalf("opener must not run with an out of range MAX_CONNS")
		return nil, nil
	}))
	_, err := x.Store(context.Background())
	kit.MustCode(t, err, perr.ErrorCodeValidation)
	if e, _ := perr.As(err); e.Field() != "MAX_CONNS" {
		t.Fatalf("field = %q, want MAX_CONNS", e.Field())
	}
}

func TestStore_OpensOnce_WithPGWhenConfigured(t *testing.T) {
	t.Parallel()

	var calls int
	var got store.Config
	x := New(Config{MasterURL: "dfs://master:8020", MetaDBURL: "postgres://u@db/meta", MaxConns: 3, PingTimeout: time.Second},
		WithStoreOpener(countingOpener(&calls, &got, &closer{})))

	s1, err := x.Store(context.Background())
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	s2, _ := x.Store(context.Background())
	if s1 != s2 || calls != 1 {
		t.Fatalf("store should be cached, calls=%d", calls)
	}
	if !got.PG.Enabled || got.PG.URL != "postgres://u@db/meta" || got.PG.MaxConns != 3 || got.PG.PingTimeout != time.Second {
		t.Fatalf("pg config: %+v", got.PG)
	}
	if got.CH.Enabled {
		t.Fatalf("clickhouse should stay disabled")
	}
	if !x.Dirty() {
		t.Fatalf("context should be dirty after opening a store")
	}
}

func TestStore_NoMetaDB_DisablesPG(t *testing.T) {
	t.Parallel()

	var calls int
	var got store.Config
	x := New(Config{MasterURL: "dfs://master:8020"}, WithStoreOpener(countingOpener(&calls, &got, nil)))
	if _, err := x.Store(context.Background()); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if got.PG.Enabled {
		t.Fatalf("pg should be disabled without META_DB_URL")
	}
}

func TestStore_InvalidConfig(t *testing.T) {
	t.Parallel()

	var calls int
	var got store.Config
	x := New(Config{}, WithStoreOpener(countingOpener(&calls, &got, nil)))
	_, err := x.Store(context.Background())
	kit.MustCode(t, err, perr.ErrorCodeValidation)
	if e, ok := perr.As(err); !ok || e.Field() != "MASTER_URL" || e.Op() != Name {
		t.Fatalf("want field MASTER_URL op %s, got %v", Name, err)
	}
	if calls != 0 {
		t.Fatalf("opener must not run on invalid config")
	}
}

func TestStore_OpenError(t *testing.T) {
	t.Parallel()

	x := New(Config{MasterURL: "dfs://m:1"}, WithStoreOpener(func(context.Context, store.Config, ...store.Option) (*store.Store, error) {
		return nil, perr.Unavailablef("pg down")
	}))
	_, err := x.Store(context.Background())
	kit.MustCode(t, err, perr.ErrorCodeUnavailable)
	if x.Dirty() {
		t.Fatalf("failed open should leave the context clean")
	}
}

func TestReset_ClosesStore_RestoresConfig_NewGeneration(t *testing.T) {
	t.Parallel()

	pg := &closer{}
	var calls int
	var got store.Config
	initial := Config{MasterURL: "dfs://master:8020", MetaDBURL: "postgres://u@db/meta"}
	x := New(initial, WithStoreOpener(countingOpener(&calls, &got, pg)))
	gen := x.Generation()

	if _, err := x.Store(context.Background()); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := x.Configure(Config{MasterURL: "dfs://other:9000"}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if pg.closed != 1 {
		t.Fatalf("Configure should close the old store")
	}

	if err := x.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if x.Config() != initial {
		t.Fatalf("config after reset = %+v", x.Config())
	}
	if x.Generation() == gen {
		t.Fatalf("generation should change on reset")
	}
	if x.Dirty() {
		t.Fatalf("context should be clean after reset")
	}

	// idempotent
	gen2 := x.Generation()
	if err := x.Reset(); err != nil {
		t.Fatalf("second Reset: %v", err)
	}
	if x.Generation() == gen2 || x.Config() != initial {
		t.Fatalf("second reset state mismatch")
	}

	// reopening after reset hits the opener again
	if _, err := x.Store(context.Background()); err != nil || calls != 2 {
		t.Fatalf("reopen: calls=%d err=%v", calls, err)
	}
}

func TestReset_ReportsCloseError_ButStillResets(t *testing.T) {
	t.Parallel()

	pg := &closer{err: errors.New("close boom")}
	var calls int
	var got store.Config
	x := New(Config{MasterURL: "dfs://m:1", MetaDBURL: "postgres://db/x"}, WithStoreOpener(countingOpener(&calls, &got, pg)))
	if _, err := x.Store(context.Background()); err != nil {
		t.Fatalf("Store: %v", err)
	}

	err := x.Reset()
	kit.MustCode(t, err, perr.ErrorCodeUnavailable)
	if x.Dirty() {
		t.Fatalf("state should be reset even when close fails")
	}
	if err := x.Reset(); err != nil {
		t.Fatalf("store already dropped, second Reset should succeed: %v", err)
	}
}

func TestReset_WithSource_RereadsEnvironment(t *testing.T) {
	t.Parallel()

	env := map[string]string{"DFS_FS_MASTER_URL": "dfs://a:1"}
	x := New(Config{}, WithSource(config.FromMap(env)))
	if x.Config().MasterURL != "dfs://a:1" {
		t.Fatalf("initial: %+v", x.Config())
	}
	env["DFS_FS_MASTER_URL"] = "dfs://b:2"
	if err := x.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if x.Config().MasterURL != "dfs://b:2" {
		t.Fatalf("after reset: %+v", x.Config())
	}
}

func TestConfigure_RejectsInvalid(t *testing.T) {
	t.Parallel()

	x := New(Config{MasterURL: "dfs://m:1"})
	err := x.Configure(Config{MasterURL: "not a url"})
	kit.MustCode(t, err, perr.ErrorCodeValidation)
	if x.Config().MasterURL != "dfs://m:1" {
		t.Fatalf("invalid Configure must not change state")
	}
}

func TestInstance_Singleton(t *testing.T) {
	kit.Serial(t)

	if Instance() != Instance() {
		t.Fatalf("Instance should return the same context")
	}
	if Instance().Name() != "file-system-context" {
		t.Fatalf("Name = %q", Instance().Name())
	}
}
