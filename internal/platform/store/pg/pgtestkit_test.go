package pg

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// openForTest opens cfg and closes the pool on test cleanup
func openForTest(t *testing.T, cfg Config, mut func(*pgxpool.Config)) *PG {
	t.Helper()
	client, err := Open(context.Background(), cfg, nil, mut)
	if err != nil {
		t.Fatalf("open %s: %v", cfg.URL, err)
	}
	t.Cleanup(client.Close)
	return client
}

// session pins one pooled connection for the test, temp tables and
// session settings only live there
func session(ctx context.Context, t *testing.T, p *PG) *pgxpool.Conn {
	t.Helper()
	conn, err := p.Pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	t.Cleanup(conn.Release)
	return conn
}
