// Package store provides a unified interface to the optional metadata and
// lineage backends used by the client contexts
package store

import (
	"context"
	"errors"

	perr "dfsclient/internal/platform/errors"
	"dfsclient/internal/platform/logger"
)

// Store is the facade for optional backends
// zero value is safe but does nothing
type Store struct {
	// Log is the logger used by subclients
	// zero means a no op zerolog logger
	Log logger.Logger

	// PG is the postgres metadata seam, nil when disabled
	PG Querier

	// CH is the clickhouse lineage seam, nil when disabled
	CH Clickhouse
}

// Row exposes the minimal scan contract a single row needs
type Row interface {
	Scan(dest ...any) error
}

// Rows exposes the minimal iteration and scan for a result set
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
	Columns() []string
}

// CommandTag is a tiny interface to inspect command results
type CommandTag interface {
	String() string
	RowsAffected() int64
}

// Querier is the read and write surface callers use for sql
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// Clickhouse is a tiny seam for columnar writes and queries
type Clickhouse interface {
	Insert(ctx context.Context, table string, rows [][]any) error
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Close() error
}

// Pinger is any seam that can report readiness
type Pinger interface{ Ping(context.Context) error }

// Open constructs a Store with the requested backends
// backends not enabled in cfg remain nil on the Store
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}
	s.Log = s.Log.With().Str("app", cfg.AppName).Logger()

	if cfg.PG.Enabled {
		q, err := openPG(ctx, cfg, s)
		if err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "store: open postgres")
		}
		s.PG = q
	}

	if cfg.CH.Enabled {
		c, err := openCH(ctx, cfg, s)
		if err != nil {
			_ = s.Close()
			return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "store: open clickhouse")
		}
		s.CH = c
	}

	s.Log.Debug().Bool("pg", s.PG != nil).Bool("ch", s.CH != nil).Msg("store opened")
	return s, nil
}

// Guard pings every configured backend that can report readiness
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return perr.New(perr.ErrorCodeUnavailable, "nil store")
	}
	var errs []error
	if p, ok := s.PG.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, perr.Wrap(err, perr.ErrorCodeUnavailable, "pg"))
		}
	}
	if p, ok := s.CH.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, perr.Wrap(err, perr.ErrorCodeUnavailable, "ch"))
		}
	}
	return errors.Join(errs...)
}

// Close closes all initialized backends, nil backends are ignored.
// The Store must not be used afterwards
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.CH != nil {
		if err := s.CH.Close(); err != nil {
			errs = append(errs, err)
		}
		s.CH = nil
	}
	if c, ok := s.PG.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.PG = nil
	return errors.Join(errs...)
}
