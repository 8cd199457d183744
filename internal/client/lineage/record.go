package lineage

import (
	"context"
	"fmt"
	"time"

	perr "dfsclient/internal/platform/errors"
	"dfsclient/internal/platform/logger"
	"dfsclient/internal/platform/store"
	"dfsclient/internal/platform/validate"

	"github.com/google/uuid"
)

// Lineage is one job run and the paths it read and wrote
type Lineage struct {
	ID        uuid.UUID
	Job       string   `validate:"required"`
	Inputs    []string `validate:"required,min=1,dive,required"`
	Outputs   []string `validate:"dive,required"`
	CreatedAt time.Time
}

// Client writes and reads lineage records
type Client struct {
	ch    store.Clickhouse
	table string
	log   *logger.Logger
}

// seams
var (
	now   = time.Now
	newID = uuid.New
)

// Record validates l, assigns it an id and inserts it. CreatedAt defaults to now
func (c *Client) Record(ctx context.Context, l Lineage) (uuid.UUID, error) {
	if err := validate.Struct(l); err != nil {
		return uuid.Nil, err
	}
	id := newID()
	at := l.CreatedAt
	if at.IsZero() {
		at = now()
	}
	outputs := l.Outputs
	if outputs == nil {
		outputs = []string{}
	}
	row := []any{id, l.Job, l.Inputs, outputs, at.UTC()}
	if err := c.ch.Insert(ctx, c.table, [][]any{row}); err != nil {
		return uuid.Nil, perr.WithOp(err, "lineage.record")
	}
	c.log.Debug().Str("id", id.String()).Str("job", l.Job).Int("inputs", len(l.Inputs)).Msg("lineage recorded")
	return id, nil
}

// Recent returns up to limit records for job, newest first
func (c *Client) Recent(ctx context.Context, job string, limit int) ([]Lineage, error) {
	if job == "" {
		return nil, perr.InvalidArgf("lineage: empty job")
	}
	if limit <= 0 {
		limit = 10
	}
	q := fmt.Sprintf("SELECT id, job, inputs, outputs, created_at FROM %s WHERE job = ? ORDER BY created_at DESC LIMIT %d", c.table, limit)
	rows, err := c.ch.Query(ctx, q, job)
	if err != nil {
		return nil, perr.WithOp(err, "lineage.recent")
	}
	defer rows.Close()

	var out []Lineage
	for rows.Next() {
		var l Lineage
		if err := rows.Scan(&l.ID, &l.Job, &l.Inputs, &l.Outputs, &l.CreatedAt); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeDB, "lineage: scan")
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "lineage: rows")
	}
	return out, nil
}
