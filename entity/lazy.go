package entity

import (
	"context"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/airagroup/dobee/schema"
)

// OneLoader loads the target of a to-one relation.
type OneLoader func(context.Context) (Entity, error)

// ManyLoader loads the members of a collection, in fetch order.
type ManyLoader func(context.Context) ([]Entity, error)

// One is a lazy to-one relation. The loader runs on first Resolve and its
// result is kept; concurrent first calls share one load. A One never writes.
type One struct {
	target string
	key    any
	load   OneLoader

	group  singleflight.Group
	mu     sync.Mutex
	loaded bool
	value  Entity
}

// NewOne returns a proxy for the target entity stored under key.
func NewOne(target string, key any, load OneLoader) *One {
	return &One{target: target, key: key, load: load}
}

// OneOf returns a resolved proxy holding e. A nil e unsets the relation.
func OneOf(target string, e Entity) *One {
	return &One{target: target, loaded: true, value: e}
}

// Target returns the related entity name.
func (o *One) Target() string {
	if o == nil {
		return ""
	}
	return o.target
}

// Key returns the primary key of the related entity without loading it.
func (o *One) Key() any {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.loaded {
		return PrimaryKey(o.value)
	}
	return o.key
}

// Loaded reports whether the target is in memory.
func (o *One) Loaded() bool {
	if o == nil {
		return false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.loaded
}

// Resolve returns the related entity, loading it on first use. A proxy
// without loader, or a loader finding no row, resolves to nil.
func (o *One) Resolve(ctx context.Context) (Entity, error) {
	if o == nil {
		return nil, nil
	}
	o.mu.Lock()
	if o.loaded || o.load == nil {
		v := o.value
		o.mu.Unlock()
		return v, nil
	}
	o.mu.Unlock()
	v, err, _ := o.group.Do("", func() (any, error) {
		e, err := o.load(ctx)
		if err != nil {
			return nil, err
		}
		o.mu.Lock()
		o.value, o.loaded = e, true
		o.mu.Unlock()
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	e, _ := v.(Entity)
	return e, nil
}

// Many is a lazy collection relation. Members keep fetch order and are
// addressed by primary key. Mutations load the collection first so the
// in-memory set stays complete.
type Many struct {
	target string
	load   ManyLoader

	group   singleflight.Group
	mu      sync.Mutex
	loaded  bool
	touched bool
	items   []Entity
}

// NewMany returns a collection proxy loaded by load.
func NewMany(target string, load ManyLoader) *Many {
	return &Many{target: target, load: load}
}

// ManyOf returns a resolved collection holding items.
func ManyOf(target string, items ...Entity) *Many {
	return &Many{target: target, loaded: true, touched: true, items: slices.Clone(items)}
}

// Target returns the member entity name.
func (m *Many) Target() string {
	if m == nil {
		return ""
	}
	return m.target
}

// Loaded reports whether the members are in memory.
func (m *Many) Loaded() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

// Touched reports whether the collection was loaded or assigned. An
// untouched collection cannot differ from what is stored.
func (m *Many) Touched() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded || m.touched
}

// Resolve returns the members, loading them on first use.
func (m *Many) Resolve(ctx context.Context) ([]Entity, error) {
	if m == nil {
		return nil, nil
	}
	if err := m.ensure(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.items), nil
}

func (m *Many) ensure(ctx context.Context) error {
	m.mu.Lock()
	if m.loaded || m.load == nil {
		m.loaded = true
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()
	_, err, _ := m.group.Do("", func() (any, error) {
		items, err := m.load(ctx)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		if !m.loaded {
			m.items, m.loaded = items, true
		}
		m.mu.Unlock()
		return nil, nil
	})
	return err
}

// Get returns the member with the given primary key, or nil.
func (m *Many) Get(ctx context.Context, key any) (Entity, error) {
	items, err := m.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	k := schema.KeyString(key)
	for _, e := range items {
		if pk := PrimaryKey(e); pk != nil && schema.KeyString(pk) == k {
			return e, nil
		}
	}
	return nil, nil
}

// Keys returns the primary keys of the stored members, in order. Members
// that were never saved have no key and are skipped.
func (m *Many) Keys(ctx context.Context) ([]any, error) {
	items, err := m.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]any, 0, len(items))
	for _, e := range items {
		if pk := PrimaryKey(e); pk != nil {
			keys = append(keys, pk)
		}
	}
	return keys, nil
}

// Add appends members not already present.
func (m *Many) Add(ctx context.Context, items ...Entity) error {
	if err := m.ensure(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range items {
		if !slices.ContainsFunc(m.items, same(e)) {
			m.items = append(m.items, e)
		}
	}
	m.touched = true
	return nil
}

// Remove drops the members with the given primary keys.
func (m *Many) Remove(ctx context.Context, keys ...any) error {
	if err := m.ensure(ctx); err != nil {
		return err
	}
	drop := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		drop[schema.KeyString(k)] = struct{}{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = slices.DeleteFunc(m.items, func(e Entity) bool {
		pk := PrimaryKey(e)
		if pk == nil {
			return false
		}
		_, ok := drop[schema.KeyString(pk)]
		return ok
	})
	m.touched = true
	return nil
}

// Set replaces the members without loading the stored ones.
func (m *Many) Set(items ...Entity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items, m.loaded, m.touched = slices.Clone(items), true, true
}

// same matches e by identity, or by primary key once stored.
func same(e Entity) func(Entity) bool {
	pk := PrimaryKey(e)
	return func(x Entity) bool {
		if x == e {
			return true
		}
		xk := PrimaryKey(x)
		return pk != nil && xk != nil && schema.KeyString(pk) == schema.KeyString(xk)
	}
}
