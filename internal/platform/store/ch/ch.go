// Package ch provides a clickhouse client over clickhouse-go
package ch

import (
	"context"
	"errors"
	"strings"

	perr "dfsclient/internal/platform/errors"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Config configures clickhouse client
type Config struct {
	URL        string
	ClientName string
	ClientTag  string
}

// Rows is the result set returned by Query
type Rows = driver.Rows

// CH wraps a native clickhouse connection
type CH struct {
	Conn driver.Conn
}

// seam
var openConn = clickhouse.Open

// Open parses the DSN and opens a native connection.
// clickhouse.Open does not dial; use Ping to check reachability
func Open(_ context.Context, cfg Config) (*CH, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, perr.InvalidArgf("ch: empty url")
	}
	opts, err := clickhouse.ParseDSN(cfg.URL)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "ch: parse dsn")
	}
	opts.ClientInfo = BuildClientInfo(cfg.ClientName, cfg.ClientTag)

	conn, err := openConn(opts)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "ch: open")
	}
	return &CH{Conn: conn}, nil
}

// Insert appends rows to table in a single batch. Each row carries the
// table's columns in order
func (c *CH) Insert(ctx context.Context, table string, rows [][]any) error {
	if c == nil || c.Conn == nil {
		return perr.New(perr.ErrorCodeUnavailable, "ch: not open")
	}
	if len(rows) == 0 {
		return nil
	}
	b, err := c.Conn.PrepareBatch(ctx, "INSERT INTO "+table)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "ch: prepare insert into %s", table)
	}
	for i, r := range rows {
		if err := b.Append(r...); err != nil {
			return errors.Join(
				perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "ch: append row %d", i),
				b.Abort(),
			)
		}
	}
	if err := b.Send(); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "ch: send batch to %s", table)
	}
	return nil
}

// Query runs a query and returns driver rows, callers must Close them
func (c *CH) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	if c == nil || c.Conn == nil {
		return nil, perr.New(perr.ErrorCodeUnavailable, "ch: not open")
	}
	rs, err := c.Conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "ch: query")
	}
	return rs, nil
}

// Ping checks the server is reachable
func (c *CH) Ping(ctx context.Context) error {
	if c == nil || c.Conn == nil {
		return perr.New(perr.ErrorCodeUnavailable, "ch: not open")
	}
	return c.Conn.Ping(ctx)
}

// Close closes the connection, nil safe
func (c *CH) Close() error {
	if c == nil || c.Conn == nil {
		return nil
	}
	return c.Conn.Close()
}
