package schema

import (
	"fmt"
	"strings"

	"github.com/airagroup/dobee"
	"github.com/airagroup/dobee/naming"
)

// DefaultPrimaryKey is used when an entity does not name its primary key.
const DefaultPrimaryKey = "id"

// Blameable configures audit tracking of the acting user.
type Blameable struct {
	Property     string // Property stamped with the actor on save.
	TargetEntity string // Entity the actor key refers to, optional.
	NullValue    any    // Sentinel meaning "no actor", besides nil.
}

// Order is a default sort specification.
type Order struct {
	Property  string
	Direction string
}

// Entity is the declaration of one mapped entity.
type Entity struct {
	Name          string
	PrimaryKey    string
	Properties    []Property
	Relations     []Relation
	Extends       string
	Abstract      bool
	SoftDeletable bool
	Loggable      bool
	Blameable     *Blameable
	DefaultOrder  *Order
}

// Property returns the property declared directly on the entity.
func (e *Entity) Property(name string) (Property, bool) {
	for _, p := range e.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Relation returns the relation declared directly on the entity.
func (e *Entity) Relation(target string) (Relation, bool) {
	for _, r := range e.Relations {
		if r.Target == target {
			return r, true
		}
	}
	return Relation{}, false
}

// Model is a validated, read-only set of entity declarations.
// It is safe for concurrent use.
type Model struct {
	namespace string
	entities  map[string]*Entity
	names     []string
}

// NewModel validates the given declarations and returns the model. The
// namespace qualifies discriminator values, it may be empty.
func NewModel(namespace string, entities ...*Entity) (*Model, error) {
	m := &Model{
		namespace: namespace,
		entities:  make(map[string]*Entity, len(entities)),
	}
	for _, e := range entities {
		if e.Name == "" {
			return nil, fmt.Errorf("dobee/schema: entity without a name")
		}
		if _, ok := m.entities[e.Name]; ok {
			return nil, fmt.Errorf("dobee/schema: entity %q declared twice", e.Name)
		}
		if e.PrimaryKey == "" {
			e.PrimaryKey = DefaultPrimaryKey
		}
		for i := range e.Relations {
			e.Relations[i].Owner = e.Name
		}
		m.entities[e.Name] = e
		m.names = append(m.names, e.Name)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// MustNewModel is like NewModel but panics on error.
func MustNewModel(namespace string, entities ...*Entity) *Model {
	m, err := NewModel(namespace, entities...)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Model) validate() error {
	for _, name := range m.names {
		e := m.entities[name]
		if err := m.validateChain(e); err != nil {
			return err
		}
		for _, p := range e.Properties {
			if !p.Type.Valid() {
				return dobee.NewInvalidPropertyTypeError(e.Name, p.Name, string(p.Type))
			}
		}
		if _, ok := m.lookupProperty(e.Name, e.PrimaryKey); !ok {
			return fmt.Errorf("dobee/schema: entity %q does not declare its primary key %q", e.Name, e.PrimaryKey)
		}
		if b := e.Blameable; b != nil {
			if _, ok := m.lookupProperty(e.Name, b.Property); !ok {
				return fmt.Errorf("dobee/schema: entity %q: blameable property %q is not declared", e.Name, b.Property)
			}
			if b.TargetEntity != "" && !m.Exists(b.TargetEntity) {
				return dobee.NewUnknownEntityError(b.TargetEntity)
			}
		}
		seen := make(map[string]struct{}, len(e.Relations))
		for _, r := range e.Relations {
			if _, ok := seen[r.Target]; ok {
				return dobee.NewRelationError(e.Name, r.Target, "declared twice")
			}
			seen[r.Target] = struct{}{}
			if err := m.validateRelation(e, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Model) validateChain(e *Entity) error {
	seen := map[string]struct{}{e.Name: {}}
	for cur := e; cur.Extends != ""; {
		parent, ok := m.entities[cur.Extends]
		if !ok {
			return dobee.NewUnknownEntityError(cur.Extends)
		}
		if _, ok := seen[parent.Name]; ok {
			return fmt.Errorf("dobee/schema: inheritance cycle through %q", parent.Name)
		}
		seen[parent.Name] = struct{}{}
		cur = parent
	}
	return nil
}

func (m *Model) validateRelation(e *Entity, r Relation) error {
	if r.Cardinality == Unknown {
		return dobee.NewRelationError(e.Name, r.Target, "unknown cardinality")
	}
	target, ok := m.entities[r.Target]
	if !ok {
		return dobee.NewRelationError(e.Name, r.Target, "related entity is not declared")
	}
	if r.Cardinality.IsSelf() {
		if r.Target != e.Name {
			return dobee.NewRelationError(e.Name, r.Target, r.Cardinality.String()+" must point to the declaring entity")
		}
		return nil
	}
	back, ok := target.Relation(e.Name)
	if !ok {
		return nil
	}
	if back.Cardinality != r.Cardinality.Inverse() {
		return dobee.NewRelationError(e.Name, r.Target,
			fmt.Sprintf("%s does not match %s declared on %q", r.Cardinality, back.Cardinality, r.Target))
	}
	return nil
}

// Namespace returns the discriminator namespace.
func (m *Model) Namespace() string { return m.namespace }

// Names returns the entity names in declaration order.
func (m *Model) Names() []string { return append([]string(nil), m.names...) }

// Exists reports whether the entity is declared.
func (m *Model) Exists(name string) bool {
	_, ok := m.entities[name]
	return ok
}

// Entity returns the declaration of an entity.
func (m *Model) Entity(name string) (*Entity, error) {
	e, ok := m.entities[name]
	if !ok {
		return nil, dobee.NewUnknownEntityError(name)
	}
	return e, nil
}

// Parent returns the entity the given one extends, or "".
func (m *Model) Parent(name string) string {
	if e, ok := m.entities[name]; ok {
		return e.Extends
	}
	return ""
}

// chain returns the entity followed by its ancestors.
func (m *Model) chain(name string) []*Entity {
	var out []*Entity
	for e, ok := m.entities[name]; ok; e, ok = m.entities[e.Extends] {
		out = append(out, e)
	}
	return out
}

// Properties returns the properties of an entity, inherited ones first.
func (m *Model) Properties(name string) ([]Property, error) {
	if !m.Exists(name) {
		return nil, dobee.NewUnknownEntityError(name)
	}
	chain := m.chain(name)
	var out []Property
	for i := len(chain) - 1; i >= 0; i-- {
		out = append(out, chain[i].Properties...)
	}
	return out, nil
}

func (m *Model) lookupProperty(entity, property string) (Property, bool) {
	for _, e := range m.chain(entity) {
		if p, ok := e.Property(property); ok {
			return p, true
		}
	}
	return Property{}, false
}

// HasProperty reports whether the entity or one of its ancestors declares the property.
func (m *Model) HasProperty(entity, property string) bool {
	_, ok := m.lookupProperty(entity, property)
	return ok
}

// PropertyType returns the declared type of a property, following the
// inheritance chain.
func (m *Model) PropertyType(entity, property string) (PropertyType, error) {
	if !m.Exists(entity) {
		return "", dobee.NewUnknownEntityError(entity)
	}
	p, ok := m.lookupProperty(entity, property)
	if !ok {
		return "", dobee.NewInvalidPropertyTypeError(entity, property, "undeclared")
	}
	return p.Type, nil
}

// BindType returns the placeholder type code of a property.
func (m *Model) BindType(entity, property string) (BindType, error) {
	t, err := m.PropertyType(entity, property)
	if err != nil {
		return "", err
	}
	return t.BindType()
}

// PrimaryKey returns the primary key property of an entity.
func (m *Model) PrimaryKey(name string) string {
	if e, ok := m.entities[name]; ok {
		return e.PrimaryKey
	}
	return DefaultPrimaryKey
}

// Relations returns the relations of an entity. With ownedOnly only the
// relations the entity writes on save are returned; with inherited the
// relations of its ancestors are appended.
func (m *Model) Relations(name string, ownedOnly, inherited bool) []Relation {
	chain := m.chain(name)
	if !inherited && len(chain) > 1 {
		chain = chain[:1]
	}
	var out []Relation
	for _, e := range chain {
		for _, r := range e.Relations {
			if ownedOnly && !r.Cardinality.Owned() {
				continue
			}
			out = append(out, r)
		}
	}
	return out
}

// Relation returns the relation from entity to target, walking up the
// inheritance chain. The returned relation's Owner is the declaring entity.
func (m *Model) Relation(entity, target string) (Relation, error) {
	if !m.Exists(entity) {
		return Relation{}, dobee.NewUnknownEntityError(entity)
	}
	for _, e := range m.chain(entity) {
		if r, ok := e.Relation(target); ok {
			return r, nil
		}
	}
	return Relation{}, dobee.NewRelationError(entity, target, "relation is not declared")
}

// IsLoggable reports whether saves of the entity are versioned.
func (m *Model) IsLoggable(name string) bool {
	for _, e := range m.chain(name) {
		if e.Loggable {
			return true
		}
	}
	return false
}

// IsSoftDeletable reports whether the entity's table carries a deleted flag.
func (m *Model) IsSoftDeletable(name string) bool {
	for _, e := range m.chain(name) {
		if e.SoftDeletable {
			return true
		}
	}
	return false
}

// IsAbstract reports whether the entity is only stored through its subtypes.
func (m *Model) IsAbstract(name string) bool {
	e, ok := m.entities[name]
	return ok && e.Abstract
}

// Blameable returns the audit configuration of an entity, or nil.
func (m *Model) Blameable(name string) *Blameable {
	for _, e := range m.chain(name) {
		if e.Blameable != nil {
			return e.Blameable
		}
	}
	return nil
}

// DefaultOrder returns the default sort of an entity: its declared order,
// or the primary key ascending.
func (m *Model) DefaultOrder(name string) Order {
	for _, e := range m.chain(name) {
		if e.DefaultOrder != nil {
			o := *e.DefaultOrder
			if o.Direction == "" {
				o.Direction = "asc"
			}
			return o
		}
	}
	return Order{Property: m.PrimaryKey(name), Direction: "asc"}
}

// Class returns the discriminator value stored for an entity.
func (m *Model) Class(name string) string {
	if m.namespace == "" {
		return name
	}
	return m.namespace + `\` + naming.UpperFirst(name)
}

// EntityFromClass maps a discriminator value back to the entity name.
func (m *Model) EntityFromClass(class string) string {
	if i := strings.LastIndexAny(class, `\.`); i >= 0 {
		class = class[i+1:]
	}
	return naming.LowerFirst(class)
}
