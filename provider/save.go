package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/airagroup/dobee"
	"github.com/airagroup/dobee/changelog"
	"github.com/airagroup/dobee/entity"
	"github.com/airagroup/dobee/naming"
	"github.com/airagroup/dobee/query"
	"github.com/airagroup/dobee/relation"
	"github.com/airagroup/dobee/schema"
)

// SaveOption configures one save.
type SaveOption func(*saveOptions)

type saveOptions struct {
	skipLog bool
}

// WithoutLog saves without appending a version record.
func WithoutLog() SaveOption {
	return func(o *saveOptions) { o.skipLog = true }
}

// Save inserts e when it has no primary key and updates it otherwise, then
// synchronizes the many-to-many links it owns and logs a create or update
// record when the entity is loggable. A generated key is set on e.
//
// Related entities are referenced by key; save them before e.
func (p *Provider) Save(ctx context.Context, e entity.Entity, opts ...SaveOption) error {
	var o saveOptions
	for _, opt := range opts {
		opt(&o)
	}
	_, err := p.save(ctx, e, !o.skipLog)
	return err
}

func (p *Provider) save(ctx context.Context, e entity.Entity, log bool) (bool, error) {
	name := e.EntityName()
	if !p.model.Exists(name) {
		return false, dobee.NewUnknownEntityError(name)
	}
	var (
		base   = e.EntityBase()
		logger = p.logger.With("entity", name, "op", uuid.NewString())
		action = changelog.ActionUpdate
	)
	if err := p.stamp(ctx, e, name); err != nil {
		return false, err
	}
	body, err := p.body(ctx, e, name)
	if err != nil {
		return false, err
	}
	if base.IsNew() {
		action = changelog.ActionCreate
		res, err := p.exec(ctx, p.builder.Insert(name, body))
		if err != nil {
			return false, fmt.Errorf("dobee/provider: insert %s: %w", name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return false, fmt.Errorf("dobee/provider: insert %s: last insert id: %w", name, err)
		}
		key, err := p.key(name, id)
		if err != nil {
			return false, err
		}
		base.SetPrimaryKey(key)
		if p.model.IsLoggable(name) && base.History() == nil {
			base.SetHistory(changelog.New(p.ex, p.logTable, name, key, p.blameFunc(name)))
		}
		logger.DebugContext(ctx, "insert", "id", key)
	} else if len(body) > 0 {
		st, err := p.builder.Update(name, body, base.PrimaryKey())
		if err != nil {
			return false, err
		}
		if _, err := p.exec(ctx, st); err != nil {
			return false, fmt.Errorf("dobee/provider: update %s %v: %w", name, base.PrimaryKey(), err)
		}
		logger.DebugContext(ctx, "update", "id", base.PrimaryKey())
	}
	if err := p.syncLinks(ctx, e, name, logger); err != nil {
		return false, err
	}
	if !log {
		return false, nil
	}
	return p.Log(ctx, action, e)
}

// Delete removes e. Entities implementing entity.SoftDeleter are flagged
// and saved instead, logging an update. Otherwise the row is deleted by
// primary key and a delete record is logged. The result reports whether a
// record was logged. Deleting an entity that was never saved does nothing.
func (p *Provider) Delete(ctx context.Context, e entity.Entity) (bool, error) {
	name := e.EntityName()
	if !p.model.Exists(name) {
		return false, dobee.NewUnknownEntityError(name)
	}
	base := e.EntityBase()
	if base.IsNew() {
		return false, nil
	}
	if sd, ok := e.(entity.SoftDeleter); ok {
		sd.SoftDelete()
		return p.save(ctx, e, true)
	}
	st, err := p.builder.Delete(name, base.PrimaryKey())
	if err != nil {
		return false, err
	}
	if _, err := p.exec(ctx, st); err != nil {
		return false, fmt.Errorf("dobee/provider: delete %s %v: %w", name, base.PrimaryKey(), err)
	}
	p.logger.DebugContext(ctx, "delete", "entity", name, "id", base.PrimaryKey())
	return p.Log(ctx, changelog.ActionDelete, e)
}

// Log appends a version record of e. It reports false and writes nothing
// when the entity is not loggable.
func (p *Provider) Log(ctx context.Context, action changelog.Action, e entity.Entity) (bool, error) {
	name := e.EntityName()
	if !p.model.IsLoggable(name) {
		return false, nil
	}
	data, err := p.snapshot(ctx, e, name)
	if err != nil {
		return false, err
	}
	v, err := p.writer.Append(ctx, changelog.Record{
		Action:      action,
		EntityClass: name,
		EntityID:    e.EntityBase().PrimaryKey(),
		Blame:       p.actor(ctx, e, name),
		Data:        data,
	})
	if err != nil {
		return false, err
	}
	v.Blame = p.blameFunc(name)(v.RawBlame)
	if c := changelog.Of(e); c != nil {
		c.Push(v)
	}
	p.logger.DebugContext(ctx, "log", "entity", name, "id", v.EntityID, "action", action, "version", v.Number)
	return true, nil
}

// stamp sets the audit property of e to the actor of ctx when it holds no
// actor yet.
func (p *Provider) stamp(ctx context.Context, e entity.Entity, name string) error {
	b := p.model.Blameable(name)
	if b == nil {
		return nil
	}
	actor, ok := ActorFrom(ctx)
	if !ok {
		return nil
	}
	if cur, _ := e.Accessors().Get(e, b.Property); !unset(cur, b.NullValue) {
		return nil
	}
	if err := e.Accessors().Set(e, b.Property, actor); err != nil {
		return err
	}
	e.EntityBase().SetBlame(p.blameProxy(b.TargetEntity, b.NullValue, actor))
	return nil
}

// actor returns the actor a version record is blamed on: the one of ctx,
// or else the audit property of e.
func (p *Provider) actor(ctx context.Context, e entity.Entity, name string) any {
	if actor, ok := ActorFrom(ctx); ok {
		return actor
	}
	b := p.model.Blameable(name)
	if b == nil {
		return nil
	}
	v, _ := e.Accessors().Get(e, b.Property)
	if unset(v, b.NullValue) {
		return nil
	}
	return v
}

// body returns the column assignments written for e: its properties but
// the primary key, the foreign keys of owned to-one relations and the
// soft-delete flag.
func (p *Provider) body(ctx context.Context, e entity.Entity, name string) ([]query.Assignment, error) {
	props, err := p.model.Properties(name)
	if err != nil {
		return nil, err
	}
	var (
		pk   = p.model.PrimaryKey(name)
		base = e.EntityBase()
		body = make([]query.Assignment, 0, len(props)+2)
	)
	for _, prop := range props {
		if prop.Name == pk {
			continue
		}
		v, ok := e.Accessors().Get(e, prop.Name)
		if !ok {
			return nil, fmt.Errorf("dobee/provider: %s.%s has no accessor: %w", name, prop.Name, dobee.ErrInvalidPropertyType)
		}
		if t, ok := v.(time.Time); ok && t.IsZero() {
			v = nil
		}
		a, err := p.builder.Assign(name, prop.Name, v)
		if err != nil {
			return nil, err
		}
		body = append(body, a)
	}
	for _, rel := range p.model.Relations(name, true, true) {
		var o *entity.One
		switch rel.Cardinality {
		case schema.ManyToOne, schema.OneToOneOwning:
			o = base.One(rel.Target)
		case schema.SelfManyToOne, schema.SelfOneToMany:
			o = base.One(relation.ParentHandle(rel.Target))
		default:
			continue
		}
		fk, err := p.foreignKey(ctx, rel.Target, o)
		if err != nil {
			return nil, err
		}
		body = append(body, fk...)
	}
	if p.model.IsSoftDeletable(name) && !p.model.HasProperty(name, query.DeletedColumn) {
		var flag int64
		if sd, ok := e.(entity.SoftDeleter); ok && sd.IsDeleted() {
			flag = 1
		}
		body = append(body, query.Assignment{Column: query.DeletedColumn, Type: schema.BindInt, Value: flag})
	}
	return body, nil
}

// foreignKey returns the key column of a to-one relation, plus the
// discriminator column when the target is abstract. An unset relation
// writes NULL.
func (p *Provider) foreignKey(ctx context.Context, target string, o *entity.One) ([]query.Assignment, error) {
	key, err := p.key(target, o.Key())
	if err != nil {
		return nil, fmt.Errorf("dobee/provider: %s key: %w", target, err)
	}
	out := []query.Assignment{{Column: naming.ForeignKey(target), Type: p.keyType(target), Value: key}}
	if p.model.IsAbstract(target) {
		var class any
		if key != nil {
			concrete := o.Target()
			if o.Loaded() {
				if v, _ := o.Resolve(ctx); v != nil {
					concrete = v.EntityName()
				}
			}
			class = p.model.Class(concrete)
		}
		out = append(out, query.Assignment{Column: naming.Discriminator(target), Type: schema.BindString, Value: class})
	}
	return out, nil
}

// syncLinks brings the link rows of every many-to-many relation e owns in
// line with its collections. Collections never loaded nor assigned are
// left alone.
func (p *Provider) syncLinks(ctx context.Context, e entity.Entity, name string, logger *slog.Logger) error {
	var (
		base = e.EntityBase()
		id   = base.PrimaryKey()
	)
	for _, plan := range p.resolver.LinkPlans(name) {
		m := base.Many(plan.Handle)
		if !m.Touched() {
			continue
		}
		desired, err := m.Keys(ctx)
		if err != nil {
			return fmt.Errorf("dobee/provider: link %s: %w", plan.Table, err)
		}
		rows, err := p.rows(ctx, p.builder.LinkSelect(plan, id))
		if err != nil {
			return fmt.Errorf("dobee/provider: link %s: %w", plan.Table, err)
		}
		current := make([]any, 0, len(rows))
		for _, row := range rows {
			current = append(current, row[plan.RelatedColumn])
		}
		remove, add := relation.Diff(current, desired)
		for _, k := range remove {
			if _, err := p.exec(ctx, p.builder.LinkDelete(plan, id, k)); err != nil {
				return fmt.Errorf("dobee/provider: unlink %s: %w", plan.Table, err)
			}
		}
		for _, k := range add {
			if _, err := p.exec(ctx, p.builder.LinkInsert(plan, id, k)); err != nil {
				return fmt.Errorf("dobee/provider: link %s: %w", plan.Table, err)
			}
		}
		logger.DebugContext(ctx, "link sync", "table", plan.Table, "removed", len(remove), "added", len(add))
	}
	return nil
}

// snapshot returns the versioned state of e: its own description when it
// implements entity.Snapshotter, otherwise its primary key, accessor
// values and relation handles.
func (p *Provider) snapshot(ctx context.Context, e entity.Entity, name string) (entity.Snapshot, error) {
	b := entity.NewSnapshotBuilder(ctx)
	if s, ok := e.(entity.Snapshotter); ok {
		if err := s.Snapshot(ctx, b); err != nil {
			return nil, fmt.Errorf("dobee/provider: snapshot %s: %w", name, err)
		}
		return b.Build()
	}
	base := e.EntityBase()
	b.Scalar(p.model.PrimaryKey(name), base.PrimaryKey())
	acc := e.Accessors()
	for _, prop := range acc.Names() {
		v, _ := acc.Get(e, prop)
		if t, ok := v.(time.Time); ok {
			v = nil
			if !t.IsZero() {
				v = schema.FormatDatetime(t)
			}
		}
		b.Scalar(prop, v)
	}
	for _, rel := range p.model.Relations(name, false, true) {
		for _, h := range relation.Handles(rel) {
			if h.Many {
				b.Many(h.Name, h.Target, base.Many(h.Name))
			} else {
				b.One(h.Name, h.Target, base.One(h.Name))
			}
		}
	}
	return b.Build()
}
