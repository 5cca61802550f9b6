package provider

import (
	"context"

	"github.com/airagroup/dobee/dialect/sql"
	"github.com/airagroup/dobee/entity"
	"github.com/airagroup/dobee/query"
	"github.com/airagroup/dobee/schema"
)

// FetchOneRow returns the first row of name matching opts, restricted to
// pk when it is not nil. No match returns a nil row and no error.
func (p *Provider) FetchOneRow(ctx context.Context, name string, pk any, opts *query.Options) (sql.Row, error) {
	st, err := p.builder.FetchOne(name, pk, opts)
	if err != nil {
		return nil, err
	}
	rows, err := p.rows(ctx, st)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// FetchRows returns the rows of name matching opts.
func (p *Provider) FetchRows(ctx context.Context, name string, opts *query.Options) ([]sql.Row, error) {
	st, err := p.builder.Fetch(name, opts)
	if err != nil {
		return nil, err
	}
	rows, err := p.rows(ctx, st)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []sql.Row{}
	}
	return rows, nil
}

// FetchOne returns the hydrated entity of name with primary key pk, or
// the first match of opts when pk is nil. No match returns nil, nil.
func (p *Provider) FetchOne(ctx context.Context, name string, pk any, opts *query.Options) (entity.Entity, error) {
	row, err := p.FetchOneRow(ctx, name, pk, opts)
	if err != nil {
		return nil, err
	}
	return p.Hydrate(name, row)
}

// Fetch returns the hydrated entities of name matching opts, one per
// primary key in the order keys first appear. Joins repeating a row keep
// the position of its first occurrence and the values of its last.
func (p *Provider) Fetch(ctx context.Context, name string, opts *query.Options) ([]entity.Entity, error) {
	rows, err := p.FetchRows(ctx, name, opts)
	if err != nil {
		return nil, err
	}
	var (
		out  = make([]entity.Entity, 0, len(rows))
		seen = make(map[string]int, len(rows))
	)
	for _, row := range rows {
		e, err := p.Hydrate(name, row)
		if err != nil {
			return nil, err
		}
		k := schema.KeyString(e.EntityBase().PrimaryKey())
		if i, ok := seen[k]; ok && k != "" {
			out[i] = e
			continue
		}
		seen[k] = len(out)
		out = append(out, e)
	}
	return out, nil
}

// FetchBlame returns the actor entity stored under key for the audit
// configuration of name. Entities without an audit target resolve to nil.
func (p *Provider) FetchBlame(ctx context.Context, name string, key any) (entity.Entity, error) {
	b := p.model.Blameable(name)
	if b == nil || b.TargetEntity == "" || key == nil {
		return nil, nil
	}
	return p.FetchOne(ctx, b.TargetEntity, key, nil)
}
