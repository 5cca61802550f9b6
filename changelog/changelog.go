package changelog

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/airagroup/dobee/dialect"
	"github.com/airagroup/dobee/dialect/sql"
	"github.com/airagroup/dobee/entity"
	"github.com/airagroup/dobee/schema"
)

// Changelog reads the history of one entity instance. Results are
// memoized per Changelog; it issues no query until asked.
type Changelog struct {
	ex         dialect.ExecQuerier
	table      string
	entityName string
	entityID   string
	blame      BlameFunc

	mu       sync.Mutex
	versions []*Version
	byID     map[int64]*Version
	byTime   map[string]*Version
}

// New returns the changelog of the instance of entityName keyed by
// entityID. blame may be nil.
func New(ex dialect.ExecQuerier, table, entityName string, entityID any, blame BlameFunc) *Changelog {
	if table == "" {
		table = DefaultTable
	}
	return &Changelog{
		ex:         ex,
		table:      table,
		entityName: entityName,
		entityID:   schema.KeyString(entityID),
		blame:      blame,
		byID:       make(map[int64]*Version),
		byTime:     make(map[string]*Version),
	}
}

// Of returns the changelog attached to e on hydration, or nil.
func Of(e entity.Entity) *Changelog {
	if e == nil {
		return nil
	}
	c, _ := e.EntityBase().History().(*Changelog)
	return c
}

// EntityName returns the entity the changelog belongs to.
func (c *Changelog) EntityName() string { return c.entityName }

// EntityID returns the instance key the changelog belongs to.
func (c *Changelog) EntityID() string { return c.entityID }

// Version returns the record with the given id, or nil.
func (c *Changelog) Version(ctx context.Context, id int64) (*Version, error) {
	c.mu.Lock()
	v, ok := c.byID[id]
	c.mu.Unlock()
	if ok {
		return v, nil
	}
	vs, err := c.query(ctx, "SELECT * FROM `"+c.table+"` WHERE entity_class = ? AND entity_id = ? AND id = ? LIMIT 0,1", id)
	if err != nil || len(vs) == 0 {
		return nil, err
	}
	c.mu.Lock()
	c.byID[id] = vs[0]
	c.mu.Unlock()
	return vs[0], nil
}

// Versions returns every record, newest first. The slice is the caller's
// to modify.
func (c *Changelog) Versions(ctx context.Context) ([]*Version, error) {
	c.mu.Lock()
	if c.versions != nil {
		vs := slices.Clone(c.versions)
		c.mu.Unlock()
		return vs, nil
	}
	c.mu.Unlock()
	vs, err := c.query(ctx, "SELECT * FROM `"+c.table+"` WHERE entity_class = ? AND entity_id = ? ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	if vs == nil {
		vs = []*Version{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions = vs
	for _, v := range vs {
		c.byID[v.ID] = v
	}
	return slices.Clone(vs), nil
}

// VersionAt returns the most recent record logged at exactly t, to the
// second, or nil.
func (c *Changelog) VersionAt(ctx context.Context, t time.Time) (*Version, error) {
	at := schema.FormatDatetime(t)
	c.mu.Lock()
	v, ok := c.byTime[at]
	c.mu.Unlock()
	if ok {
		return v, nil
	}
	vs, err := c.query(ctx, "SELECT * FROM `"+c.table+"` WHERE entity_class = ? AND entity_id = ? AND logged_at = ? ORDER BY id DESC LIMIT 0,1", at)
	if err != nil || len(vs) == 0 {
		return nil, err
	}
	c.mu.Lock()
	c.byTime[at] = vs[0]
	c.mu.Unlock()
	return vs[0], nil
}

// Push records a version appended after the changelog was read, so memoized
// results stay complete.
func (c *Changelog) Push(v *Version) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[v.ID] = v
	if c.versions != nil {
		c.versions = append([]*Version{v}, c.versions...)
	}
}

func (c *Changelog) query(ctx context.Context, query string, extra ...any) ([]*Version, error) {
	args := append([]any{c.entityName, c.entityID}, extra...)
	rows, err := sql.QueryRows(ctx, c.ex, query, args)
	if err != nil {
		return nil, err
	}
	vs := make([]*Version, 0, len(rows))
	for _, row := range rows {
		v, err := scanVersion(row, c.blame)
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	return vs, nil
}
