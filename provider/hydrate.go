package provider

import (
	"context"
	"fmt"

	"github.com/airagroup/dobee"
	"github.com/airagroup/dobee/changelog"
	"github.com/airagroup/dobee/dialect/sql"
	"github.com/airagroup/dobee/entity"
	"github.com/airagroup/dobee/naming"
	"github.com/airagroup/dobee/query"
	"github.com/airagroup/dobee/relation"
	"github.com/airagroup/dobee/schema"
)

// ownerAlias joins the entity a collection belongs to. "order" would need
// quoting in the where clause.
const ownerAlias = "owner"

// Hydrate builds an instance of name from row. A nil row gives a nil
// entity. Columns map to properties by their lower camel name; relations
// get lazy proxies and no statement is executed.
func (p *Provider) Hydrate(name string, row sql.Row) (entity.Entity, error) {
	if row == nil {
		return nil, nil
	}
	f, ok := p.factories[name]
	if !ok {
		return nil, dobee.NewUnknownEntityError(name)
	}
	var (
		e    = f()
		base = e.EntityBase()
		acc  = e.Accessors()
		pk   = p.model.PrimaryKey(name)
	)
	for col, v := range row {
		prop := naming.LowerCamelize(col)
		if prop == pk {
			key, err := p.key(name, v)
			if err != nil {
				return nil, fmt.Errorf("dobee/provider: hydrate %s: primary key: %w", name, err)
			}
			base.SetPrimaryKey(key)
			continue
		}
		if !p.model.HasProperty(name, prop) || !acc.Has(prop) {
			continue
		}
		if err := acc.Set(e, prop, v); err != nil {
			return nil, fmt.Errorf("dobee/provider: hydrate: %w", err)
		}
	}
	id := base.PrimaryKey()
	if sd, ok := e.(entity.SoftDeleter); ok && p.model.IsSoftDeletable(name) {
		if deleted, _ := entity.Convert[bool](row[query.DeletedColumn]); deleted {
			sd.SoftDelete()
		}
	}
	if p.model.IsLoggable(name) {
		base.SetHistory(changelog.New(p.ex, p.logTable, name, id, p.blameFunc(name)))
	}
	if b := p.model.Blameable(name); b != nil {
		if raw, ok := row[naming.Column(b.Property)]; ok {
			if o := p.blameProxy(b.TargetEntity, b.NullValue, raw); o != nil {
				base.SetBlame(o)
			}
		}
	}
	for _, rel := range p.model.Relations(name, false, true) {
		if err := p.attach(base, name, id, rel, row); err != nil {
			return nil, fmt.Errorf("dobee/provider: hydrate %s.%s: %w", name, rel.Target, err)
		}
	}
	return e, nil
}

// attach stores the lazy proxies of one relation on base.
func (p *Provider) attach(base *entity.Base, name string, id any, rel schema.Relation, row sql.Row) error {
	hs := relation.Handles(rel)
	switch rel.Cardinality {
	case schema.ManyToOne, schema.OneToOneOwning:
		o, err := p.refProxy(rel.Target, row)
		if err != nil {
			return err
		}
		base.SetOne(hs[0].Name, o)
	case schema.OneToOne:
		opts := &query.Options{Where: p.backRef(name, rel, id)}
		target := rel.Target
		base.SetOne(hs[0].Name, entity.NewOne(target, nil, func(ctx context.Context) (entity.Entity, error) {
			if id == nil {
				return nil, nil
			}
			return p.FetchOne(ctx, target, nil, opts)
		}))
	case schema.OneToMany:
		base.SetMany(hs[0].Name, p.manyProxy(rel.Target, id, &query.Options{
			Where: p.backRef(name, rel, id),
			Order: p.defaultOrder(rel.Target),
		}))
	case schema.ManyToMany, schema.ManyToManyOwning:
		base.SetMany(hs[0].Name, p.manyProxy(rel.Target, id, p.linkedBy(rel, query.RootAlias+"."+rel.Owner, id)))
	case schema.SelfManyToMany:
		// Masters link to the instance, slaves are linked from it.
		for _, h := range hs {
			ref := query.RootAlias + "." + rel.Owner
			if h.Role == relation.RoleMaster {
				ref = naming.OwningMarker + ref
			}
			base.SetMany(h.Name, p.manyProxy(rel.Target, id, p.linkedBy(rel, ref, id)))
		}
	case schema.SelfManyToOne, schema.SelfOneToMany:
		o, err := p.refProxy(rel.Target, row)
		if err != nil {
			return err
		}
		base.SetOne(hs[0].Name, o)
		base.SetMany(hs[1].Name, p.manyProxy(rel.Target, id, &query.Options{
			Where: p.backRef(name, rel, id),
			Order: p.defaultOrder(rel.Target),
		}))
	}
	return nil
}

// refProxy returns the proxy of the entity a foreign key column of row
// points to. Abstract targets are resolved to the concrete entity named by
// the discriminator column.
func (p *Provider) refProxy(target string, row sql.Row) (*entity.One, error) {
	fk := row[naming.ForeignKey(target)]
	if fk == nil {
		return entity.OneOf(target, nil), nil
	}
	concrete := target
	if p.model.IsAbstract(target) {
		if class, _ := entity.Convert[string](row[naming.Discriminator(target)]); class != "" {
			concrete = p.model.EntityFromClass(class)
		}
	}
	key, err := p.key(concrete, fk)
	if err != nil {
		return nil, err
	}
	return entity.NewOne(concrete, key, func(ctx context.Context) (entity.Entity, error) {
		return p.FetchOne(ctx, concrete, key, nil)
	}), nil
}

// backRef matches the rows of the related entity whose foreign key points
// back to the instance. Relations inherited from an ancestor also match
// the discriminator.
func (p *Provider) backRef(name string, rel schema.Relation, id any) []query.Condition {
	conds := []query.Condition{
		query.Where(query.RootAlias+"."+naming.ForeignKey(rel.Owner), "=", id).WithType(string(p.keyType(name))),
	}
	if rel.Owner != name {
		conds = append(conds, query.Where(query.RootAlias+"."+naming.Discriminator(rel.Owner), "=", p.model.Class(name)).
			WithType(string(schema.BindString)))
	}
	return conds
}

// linkedBy matches the related rows linked to the instance, joining the
// link table from the related entity through ref.
func (p *Provider) linkedBy(rel schema.Relation, ref string, id any) *query.Options {
	return &query.Options{
		LeftJoin: []query.JoinRef{{Ref: ref, Alias: ownerAlias}},
		Where:    []query.Condition{query.Where(ownerAlias+"."+p.model.PrimaryKey(rel.Owner), "=", id)},
		Order:    p.defaultOrder(rel.Target),
	}
}

func (p *Provider) manyProxy(target string, id any, opts *query.Options) *entity.Many {
	return entity.NewMany(target, func(ctx context.Context) ([]entity.Entity, error) {
		if id == nil {
			return nil, nil
		}
		return p.Fetch(ctx, target, opts)
	})
}

func (p *Provider) defaultOrder(name string) []query.OrderBy {
	o := p.model.DefaultOrder(name)
	return []query.OrderBy{{Property: query.RootAlias + "." + o.Property, Direction: o.Direction}}
}

// blameFunc resolves the actor keys stored on version records of name.
func (p *Provider) blameFunc(name string) changelog.BlameFunc {
	var target string
	var null any
	if b := p.model.Blameable(name); b != nil {
		target, null = b.TargetEntity, b.NullValue
	}
	return func(raw any) *entity.One {
		return p.blameProxy(target, null, raw)
	}
}

// blameProxy returns the proxy of the actor stored as raw, nil when raw
// means "no actor".
func (p *Provider) blameProxy(target string, null, raw any) *entity.One {
	if unset(raw, null) {
		return nil
	}
	if target == "" {
		return entity.NewOne("", raw, nil)
	}
	return entity.NewOne(target, raw, func(ctx context.Context) (entity.Entity, error) {
		return p.FetchOne(ctx, target, raw, nil)
	})
}

// key normalizes a primary key of name to its bound representation.
func (p *Provider) key(name string, v any) (any, error) {
	return p.keyType(name).Value(v)
}

func (p *Provider) keyType(name string) schema.BindType {
	t, err := p.model.BindType(name, p.model.PrimaryKey(name))
	if err != nil {
		return schema.BindInt
	}
	return t
}

// unset reports whether v holds no value or the null sentinel.
func unset(v, null any) bool {
	k := schema.KeyString(v)
	return k == "" || (null != nil && k == schema.KeyString(null))
}
