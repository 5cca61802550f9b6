// Package provider is the entry point of the mapper. A Provider fetches rows
// through the query builder, hydrates them into registered entity types with
// lazy relation proxies, and saves or deletes entities, synchronizing link
// tables and appending version records on the way.
//
// A save issues several statements and is not atomic. Callers that need
// atomicity build a Provider over a dialect.Tx.
package provider

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/airagroup/dobee"
	"github.com/airagroup/dobee/changelog"
	"github.com/airagroup/dobee/dialect"
	"github.com/airagroup/dobee/dialect/sql"
	"github.com/airagroup/dobee/entity"
	"github.com/airagroup/dobee/naming"
	"github.com/airagroup/dobee/query"
	"github.com/airagroup/dobee/relation"
	"github.com/airagroup/dobee/schema"
)

// Provider maps the entities of one model onto one execution port. It is
// safe for concurrent use; per-instance state lives on the entities.
type Provider struct {
	ex        dialect.ExecQuerier
	model     *schema.Model
	resolver  *relation.Resolver
	builder   *query.Builder
	writer    *changelog.Writer
	factories map[string]entity.Factory
	stats     *sql.QueryStats

	logger   *slog.Logger
	now      func() time.Time
	prefix   string
	logTable string
	debug    bool
	slow     time.Duration
	pending  []entity.Factory
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// WithEntities registers the entity types rows are hydrated into.
func WithEntities(factories ...entity.Factory) Option {
	return func(p *Provider) { p.pending = append(p.pending, factories...) }
}

// WithClock sets the clock version records are stamped with.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// WithPrefix sets the entity table prefix.
func WithPrefix(prefix string) Option {
	return func(p *Provider) { p.prefix = prefix }
}

// WithLogTable sets the table version records are stored in.
func WithLogTable(table string) Option {
	return func(p *Provider) { p.logTable = table }
}

// WithDebug logs every statement at debug level.
func WithDebug() Option {
	return func(p *Provider) { p.debug = true }
}

// WithSlowQueryThreshold counts statements and warns about the ones
// slower than d.
func WithSlowQueryThreshold(d time.Duration) Option {
	return func(p *Provider) { p.slow = d }
}

// New returns a provider for model executing through ex. Every registered
// entity type must be declared by the model and expose an accessor for each
// of its properties besides the primary key.
func New(ex dialect.ExecQuerier, model *schema.Model, opts ...Option) (*Provider, error) {
	p := &Provider{
		ex:        ex,
		model:     model,
		factories: make(map[string]entity.Factory),
		logger:    slog.Default(),
		now:       time.Now,
		prefix:    naming.DefaultPrefix,
		logTable:  changelog.DefaultTable,
	}
	for _, opt := range opts {
		opt(p)
	}
	if drv, ok := p.ex.(dialect.Driver); ok {
		if p.debug {
			drv = sql.NewDebugDriver(drv, p.logger)
		}
		if p.slow > 0 {
			sd := sql.NewStatsDriver(drv, sql.WithSlowThreshold(p.slow), sql.WithSlowQueryLog(p.logger))
			p.stats = sd.QueryStats()
			drv = sd
		}
		p.ex = drv
	}
	for _, f := range p.pending {
		if err := p.register(f); err != nil {
			return nil, err
		}
	}
	p.pending = nil
	p.resolver = relation.NewResolver(model, p.prefix)
	p.builder = query.NewBuilder(p.resolver)
	p.writer = changelog.NewWriter(p.ex, p.logTable, p.now)
	return p, nil
}

func (p *Provider) register(f entity.Factory) error {
	e := f()
	name := e.EntityName()
	if !p.model.Exists(name) {
		return dobee.NewUnknownEntityError(name)
	}
	props, err := p.model.Properties(name)
	if err != nil {
		return err
	}
	pk := p.model.PrimaryKey(name)
	for _, prop := range props {
		if prop.Name != pk && !e.Accessors().Has(prop.Name) {
			return fmt.Errorf("dobee/provider: %s.%s has no accessor: %w", name, prop.Name, dobee.ErrInvalidPropertyType)
		}
	}
	p.factories[name] = f
	return nil
}

// Model returns the entity model.
func (p *Provider) Model() *schema.Model { return p.model }

// Builder returns the statement builder.
func (p *Provider) Builder() *query.Builder { return p.builder }

// EntityExists reports whether the model declares name.
func (p *Provider) EntityExists(name string) bool { return p.model.Exists(name) }

// QueryStats returns the statement counters, nil unless a slow query
// threshold was set.
func (p *Provider) QueryStats() *sql.QueryStats { return p.stats }

// Execute runs a statement returning rows.
func (p *Provider) Execute(ctx context.Context, query string, args ...any) ([]sql.Row, error) {
	return sql.QueryRows(ctx, p.ex, query, args)
}

// Exec runs a statement returning no rows.
func (p *Provider) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return sql.ExecResult(ctx, p.ex, query, args)
}

// Close closes the execution port when it owns a connection.
func (p *Provider) Close() error {
	if c, ok := p.ex.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (p *Provider) rows(ctx context.Context, st *query.Statement) ([]sql.Row, error) {
	return sql.QueryRows(ctx, p.ex, st.SQL, st.Args())
}

func (p *Provider) exec(ctx context.Context, st *query.Statement) (sql.Result, error) {
	return sql.ExecResult(ctx, p.ex, st.SQL, st.Args())
}
