// Package relation resolves relations declared in the entity model into
// join shapes, link tables and link table synchronization plans.
package relation

import (
	"strings"

	"github.com/airagroup/dobee/naming"
	"github.com/airagroup/dobee/schema"
)

// Role distinguishes the two sides of a self-referencing many-to-many link.
type Role int

// Link roles.
const (
	RoleNone   Role = iota
	RoleMaster      // the row holding the link
	RoleSlave       // the row being linked
)

// Resolver maps relations of a model to SQL join fragments and link tables.
// It is read-only and safe for concurrent use.
type Resolver struct {
	model  *schema.Model
	prefix string
}

// NewResolver returns a resolver for the model using the given table prefix.
func NewResolver(model *schema.Model, prefix string) *Resolver {
	return &Resolver{model: model, prefix: prefix}
}

// Model returns the model of the resolver.
func (r *Resolver) Model() *schema.Model { return r.model }

// Prefix returns the table prefix.
func (r *Resolver) Prefix() string { return r.prefix }

// Table returns the table of an entity.
func (r *Resolver) Table(entity string) string {
	return naming.Table(r.prefix, entity)
}

// Owning reports whether a reference is joined from the owning side. The
// owning marker on the reference forces it; otherwise the cardinality decides.
func Owning(c schema.Cardinality, ref naming.Ref) bool {
	return ref.Owning || c.Owning()
}

// JoinSpec describes one relation join.
type JoinSpec struct {
	Entity string     // Entity the owner alias stands for.
	Ref    naming.Ref // Relation reference, its Alias is the owner alias.
	Alias  string     // Alias of the joined table.
	Left   bool       // Render a LEFT JOIN.
}

// Join renders a relation join. It returns the fragment, the parameters it
// binds (discriminator values) and the joined entity.
//
// Many-to-many relations join the link table first. Owning sides join the
// related table on the owner's foreign key. Other sides join the related
// table on its foreign key back to the owner, restricted by the
// discriminator when the relation is inherited from an ancestor.
func (r *Resolver) Join(spec JoinSpec) (string, []any, string, error) {
	rel, err := r.model.Relation(spec.Entity, spec.Ref.Property)
	if err != nil {
		return "", nil, "", err
	}
	var (
		b         strings.Builder
		args      []any
		kw        = " JOIN "
		related   = rel.Target
		declaring = rel.Owner
		owner     = naming.Underscore(ownerAlias(spec.Ref))
		alias     = naming.Underscore(spec.Alias)
		ownerPK   = naming.Column(r.model.PrimaryKey(spec.Entity))
		relatedPK = naming.Column(r.model.PrimaryKey(related))
		owning    = Owning(rel.Cardinality, spec.Ref)
	)
	if spec.Left {
		kw = " LEFT JOIN "
	}
	switch {
	case rel.Cardinality.IsManyToMany():
		link, ownerCol, relatedCol := r.linkColumns(rel, owning)
		b.WriteString(kw + link + " `" + link + "` ON " + owner + "." + ownerPK + " = " + link + "." + ownerCol)
		b.WriteString(kw + r.Table(related) + " `" + alias + "` ON " + link + "." + relatedCol + " = " + alias + "." + relatedPK)
	case owning:
		b.WriteString(kw + r.Table(related) + " `" + alias + "` ON " + owner + "." + naming.ForeignKey(related) + " = " + alias + "." + relatedPK)
	default:
		b.WriteString(kw + r.Table(related) + " `" + alias + "` ON (" + alias + "." + naming.ForeignKey(declaring) + " = " + owner + "." + ownerPK)
		if declaring != spec.Entity {
			b.WriteString(" AND " + alias + "." + naming.Discriminator(declaring) + " = ?")
			args = append(args, r.model.Class(spec.Entity))
		}
		b.WriteString(")")
	}
	return b.String(), args, related, nil
}

// PlainJoinSpec describes a join on caller supplied key columns.
type PlainJoinSpec struct {
	Ref        naming.Ref
	Alias      string
	EntityKey  string // Column on the owner alias.
	RelatedKey string // Column on the joined table.
	Left       bool
}

// PlainJoin renders a join that does not consult the declared relations.
// The joined entity is the reference's property.
func (r *Resolver) PlainJoin(spec PlainJoinSpec) (string, string) {
	kw := " JOIN "
	if spec.Left {
		kw = " LEFT JOIN "
	}
	alias := naming.Underscore(spec.Alias)
	return kw + r.Table(spec.Ref.Property) + " `" + alias + "` ON " +
		naming.Underscore(ownerAlias(spec.Ref)) + "." + naming.Column(spec.EntityKey) + " = " +
		alias + "." + naming.Column(spec.RelatedKey), spec.Ref.Property
}

// linkColumns returns the link table of a many-to-many relation and the
// columns pointing at the owner side and the related side of the join.
func (r *Resolver) linkColumns(rel schema.Relation, owning bool) (table, ownerCol, relatedCol string) {
	declaring, related := rel.Owner, rel.Target
	if rel.Cardinality == schema.SelfManyToMany {
		table = naming.LinkTable(r.prefix, declaring, related)
		master, slave := LinkColumn(RoleMaster, declaring), LinkColumn(RoleSlave, related)
		if owning {
			return table, master, slave
		}
		return table, LinkColumn(RoleSlave, declaring), LinkColumn(RoleMaster, related)
	}
	if owning {
		table = naming.LinkTable(r.prefix, declaring, related)
	} else {
		table = naming.LinkTable(r.prefix, related, declaring)
	}
	return table, naming.ForeignKey(declaring), naming.ForeignKey(related)
}

// LinkColumn returns the link table column of an entity in the given role.
func LinkColumn(role Role, entity string) string {
	switch role {
	case RoleMaster:
		return "master_" + naming.ForeignKey(entity)
	case RoleSlave:
		return "slave_" + naming.ForeignKey(entity)
	default:
		return naming.ForeignKey(entity)
	}
}

func ownerAlias(ref naming.Ref) string {
	if ref.Alias == "" {
		return "this"
	}
	return ref.Alias
}
