package relation

import (
	"github.com/airagroup/dobee/naming"
	"github.com/airagroup/dobee/schema"
)

// Handle names a relation slot on an entity instance.
type Handle struct {
	Name     string
	Target   string
	Many     bool
	Role     Role
	Relation schema.Relation
}

// Handles returns the instance slots a relation is exposed through:
//
//	to-one                 customer
//	to-many                items
//	self many-to-many      masterTags, slaveTags
//	self tree              parentCategory, categories
func Handles(rel schema.Relation) []Handle {
	plural := naming.Pluralize(rel.Target)
	switch rel.Cardinality {
	case schema.OneToOne, schema.OneToOneOwning, schema.ManyToOne:
		return []Handle{{Name: rel.Target, Target: rel.Target, Relation: rel}}
	case schema.OneToMany, schema.ManyToMany, schema.ManyToManyOwning:
		return []Handle{{Name: plural, Target: rel.Target, Many: true, Relation: rel}}
	case schema.SelfManyToMany:
		return []Handle{
			{Name: MasterHandle(rel.Target), Target: rel.Target, Many: true, Role: RoleMaster, Relation: rel},
			{Name: SlaveHandle(rel.Target), Target: rel.Target, Many: true, Role: RoleSlave, Relation: rel},
		}
	case schema.SelfManyToOne, schema.SelfOneToMany:
		return []Handle{
			{Name: ParentHandle(rel.Target), Target: rel.Target, Relation: rel},
			{Name: plural, Target: rel.Target, Many: true, Relation: rel},
		}
	default:
		return nil
	}
}

// MasterHandle names the collection of entities linking to an instance.
func MasterHandle(target string) string {
	return "master" + naming.UpperFirst(naming.Pluralize(target))
}

// SlaveHandle names the collection of entities an instance links to.
func SlaveHandle(target string) string {
	return "slave" + naming.UpperFirst(naming.Pluralize(target))
}

// ParentHandle names the parent slot of a self-referencing tree.
func ParentHandle(target string) string {
	return "parent" + naming.UpperFirst(target)
}

// LinkPlan describes how the link rows of one many-to-many relation are
// written when the owning entity is saved.
type LinkPlan struct {
	Relation      schema.Relation
	Table         string
	OwnerColumn   string
	RelatedColumn string
	Handle        string // Collection holding the desired set.
}

// LinkPlans returns a plan for every many-to-many relation the entity owns,
// inherited ones included. Self-referencing links are written from the
// slave collection, the owner taking the master role.
func (r *Resolver) LinkPlans(entity string) []LinkPlan {
	var plans []LinkPlan
	for _, rel := range r.model.Relations(entity, true, true) {
		switch rel.Cardinality {
		case schema.SelfManyToMany:
			plans = append(plans, LinkPlan{
				Relation:      rel,
				Table:         naming.LinkTable(r.prefix, rel.Owner, rel.Target),
				OwnerColumn:   LinkColumn(RoleMaster, rel.Owner),
				RelatedColumn: LinkColumn(RoleSlave, rel.Target),
				Handle:        SlaveHandle(rel.Target),
			})
		case schema.ManyToManyOwning:
			plans = append(plans, LinkPlan{
				Relation:      rel,
				Table:         naming.LinkTable(r.prefix, rel.Owner, rel.Target),
				OwnerColumn:   naming.ForeignKey(rel.Owner),
				RelatedColumn: naming.ForeignKey(rel.Target),
				Handle:        naming.Pluralize(rel.Target),
			})
		}
	}
	return plans
}

// Diff compares the keys currently linked with the desired keys and returns
// the keys to unlink and the keys to link. Keys compare by value, so 5 and
// int64(5) and "5" are the same key. Both results keep input order.
func Diff(current, desired []any) (remove, add []any) {
	want := make(map[string]struct{}, len(desired))
	for _, k := range desired {
		want[schema.KeyString(k)] = struct{}{}
	}
	have := make(map[string]struct{}, len(current))
	for _, k := range current {
		s := schema.KeyString(k)
		have[s] = struct{}{}
		if _, ok := want[s]; !ok {
			remove = append(remove, k)
		}
	}
	for _, k := range desired {
		s := schema.KeyString(k)
		if _, ok := have[s]; ok {
			continue
		}
		have[s] = struct{}{}
		add = append(add, k)
	}
	return remove, add
}
