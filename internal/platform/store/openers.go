package store

import (
	"context"
	"time"

	perr "dfsclient/internal/platform/errors"
	chx "dfsclient/internal/platform/store/ch"
	"dfsclient/internal/platform/store/pg"
)

// seams
var (
	openPool     = pg.Open
	pingPool     = func(ctx context.Context, p *pg.PG) error { return p.Pool.Ping(ctx) }
	openCHConn   = chx.Open
	backoffStart = 150 * time.Millisecond
)

const backoffCeiling = 2 * time.Second

// openPG opens the pool and publishes the adapter only once a ping succeeds
func openPG(ctx context.Context, cfg Config, s *Store) (Querier, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(s.Log)
	}

	p, err := openPool(ctx, pg.Config{
		URL:      cfg.PG.URL,
		MaxConns: cfg.PG.MaxConns,
		SlowMs:   cfg.PG.SlowQueryMs,
		AppName:  cfg.AppName,
	}, tracer, nil)
	if err != nil {
		return nil, err
	}

	attempts := cfg.PG.retries()
	var lastErr error
	backoff := backoffStart
	for i := 0; i < attempts; i++ {
		toCtx, cancel := context.WithTimeout(ctx, cfg.PG.pingTimeout())
		lastErr = pingPool(toCtx, p) // pool directly, no trace line
		cancel()
		if lastErr == nil {
			return newPGAdapter(p), nil
		}
		s.Log.Debug().Err(lastErr).Int("attempt", i+1).Int("max", attempts).Msg("postgres not ready")
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			p.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, backoffCeiling)
	}

	p.Close()
	return nil, perr.Wrapf(lastErr, perr.ErrorCodeUnavailable, "postgres ping failed after %d attempts", attempts)
}

func openCH(ctx context.Context, cfg Config, _ *Store) (Clickhouse, error) {
	c, err := openCHConn(ctx, chx.Config{
		URL:        cfg.CH.URL,
		ClientName: cfg.CH.ClientName,
		ClientTag:  cfg.CH.ClientTag,
	})
	if err != nil {
		return nil, err
	}
	return newCHAdapter(c), nil
}
