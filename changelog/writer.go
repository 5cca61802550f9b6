package changelog

import (
	"context"
	"fmt"
	"time"

	"github.com/airagroup/dobee/dialect"
	"github.com/airagroup/dobee/dialect/sql"
	"github.com/airagroup/dobee/entity"
	"github.com/airagroup/dobee/schema"
)

// Record is a version about to be appended.
type Record struct {
	Action      Action
	EntityClass string
	EntityID    any
	Blame       any
	Data        entity.Snapshot
}

// Writer appends records to the log table.
type Writer struct {
	ex    dialect.ExecQuerier
	table string
	now   func() time.Time
}

// NewWriter returns a writer on table. now defaults to time.Now.
func NewWriter(ex dialect.ExecQuerier, table string, now func() time.Time) *Writer {
	if table == "" {
		table = DefaultTable
	}
	if now == nil {
		now = time.Now
	}
	return &Writer{ex: ex, table: table, now: now}
}

// Table returns the log table name.
func (w *Writer) Table() string { return w.table }

// Append stores r as the next version of its entity instance. The first
// version is 0. Reading the last version and inserting the new one are two
// statements; concurrent writers of one instance need an outer transaction.
func (w *Writer) Append(ctx context.Context, r Record) (*Version, error) {
	id := schema.KeyString(r.EntityID)
	rows, err := sql.QueryRows(ctx, w.ex,
		"SELECT version FROM `"+w.table+"` WHERE entity_class = ? AND entity_id = ? ORDER BY version DESC LIMIT 0,1",
		[]any{r.EntityClass, id})
	if err != nil {
		return nil, fmt.Errorf("dobee/changelog: read version: %w", err)
	}
	var number int64
	if len(rows) > 0 {
		last, err := schema.ToInt64(rows[0]["version"])
		if err != nil {
			return nil, fmt.Errorf("dobee/changelog: read version: %w", err)
		}
		number = last + 1
	}
	data, err := Encode(r.Data)
	if err != nil {
		return nil, err
	}
	at := w.now().UTC().Truncate(time.Second)
	res, err := sql.ExecResult(ctx, w.ex,
		"INSERT INTO `"+w.table+"` (`action_type`, `blame`, `entity_class`, `entity_id`, `version`, `logged_at`, `data`) VALUES (?, ?, ?, ?, ?, ?, ?)",
		[]any{string(r.Action), r.Blame, r.EntityClass, id, number, schema.FormatDatetime(at), data})
	if err != nil {
		return nil, fmt.Errorf("dobee/changelog: append %s %s: %w", r.EntityClass, id, err)
	}
	v := &Version{
		EntityClass: r.EntityClass,
		EntityID:    id,
		Number:      number,
		Action:      r.Action,
		RawBlame:    r.Blame,
		LoggedAt:    at,
		Data:        r.Data,
	}
	if n, err := res.LastInsertId(); err == nil {
		v.ID = n
	}
	return v, nil
}
