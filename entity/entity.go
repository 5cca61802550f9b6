// Package entity defines the runtime side of mapped entities: the state
// every instance carries, the static accessor tables the mapper reads and
// writes scalar properties through, the snapshot capability used for
// versioning and the lazy proxies relations are exposed through.
package entity

import (
	"maps"
	"slices"
)

// Entity is implemented by every mapped type. Types usually embed Base and
// return a package level accessor table.
type Entity interface {
	// EntityName returns the model name of the entity, e.g. "order".
	EntityName() string
	// Accessors returns the static accessor table of the type.
	Accessors() *Accessors
	// EntityBase returns the mapper state of the instance.
	EntityBase() *Base
}

// Factory returns a new, empty instance of one entity type.
type Factory func() Entity

// SoftDeleter is implemented by entities that are flagged instead of
// removed. Deleting such an entity calls SoftDelete and saves it.
type SoftDeleter interface {
	SoftDelete()
	IsDeleted() bool
}

// Base holds the mapper state of an instance. The zero value is a new,
// transient instance.
type Base struct {
	key       any
	relations map[string]any
	blame     *One
	history   any
}

// EntityBase returns b. Embedding Base provides it to the outer type.
func (b *Base) EntityBase() *Base { return b }

// PrimaryKey returns the primary key, nil while the instance is transient.
func (b *Base) PrimaryKey() any { return b.key }

// SetPrimaryKey sets the primary key.
func (b *Base) SetPrimaryKey(key any) { b.key = key }

// IsNew reports whether the instance has never been stored.
func (b *Base) IsNew() bool { return b.key == nil }

// One returns the to-one handle stored under name, or nil.
func (b *Base) One(name string) *One {
	o, _ := b.relations[name].(*One)
	return o
}

// SetOne stores a to-one handle. A nil handle unsets the relation.
func (b *Base) SetOne(name string, o *One) { b.set(name, o) }

// Many returns the collection handle stored under name, or nil.
func (b *Base) Many(name string) *Many {
	m, _ := b.relations[name].(*Many)
	return m
}

// SetMany stores a collection handle.
func (b *Base) SetMany(name string, m *Many) { b.set(name, m) }

func (b *Base) set(name string, h any) {
	if b.relations == nil {
		b.relations = make(map[string]any)
	}
	b.relations[name] = h
}

// Handles returns the names of the stored relation handles, sorted.
func (b *Base) Handles() []string {
	return slices.Sorted(maps.Keys(b.relations))
}

// Blame returns the proxy of the actor responsible for the last write.
func (b *Base) Blame() *One { return b.blame }

// SetBlame sets the blame proxy.
func (b *Base) SetBlame(o *One) { b.blame = o }

// History returns the version history handle attached on hydration.
func (b *Base) History() any { return b.history }

// SetHistory attaches a version history handle.
func (b *Base) SetHistory(h any) { b.history = h }

// PrimaryKey returns the primary key of e, nil for a nil entity.
func PrimaryKey(e Entity) any {
	if e == nil {
		return nil
	}
	return e.EntityBase().PrimaryKey()
}
