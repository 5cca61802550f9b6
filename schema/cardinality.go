package schema

import (
	"strings"

	"github.com/airagroup/dobee"
)

// Cardinality is the kind of a relation as seen from the declaring entity.
type Cardinality int

// Relation kinds.
const (
	Unknown          Cardinality = iota // unknown
	OneToOne                            // one-to-one, the related entity holds the key
	OneToOneOwning                      // one-to-one, this entity holds the key
	ManyToOne                           // many-to-one, this entity holds the key
	OneToMany                           // one-to-many, the related entity holds the key
	ManyToMany                          // many-to-many, the related entity owns the link table
	ManyToManyOwning                    // many-to-many, this entity owns the link table
	SelfManyToMany                      // many-to-many with itself through master and slave roles
	SelfManyToOne                       // tree parent, this entity holds the parent key
	SelfOneToMany                       // tree children, declared with the parent key on this entity
)

var cardinalityNames = [...]string{
	Unknown:          "UNKNOWN",
	OneToOne:         "ONE_TO_ONE",
	OneToOneOwning:   "<<ONE_TO_ONE",
	ManyToOne:        "MANY_TO_ONE",
	OneToMany:        "ONE_TO_MANY",
	ManyToMany:       "MANY_TO_MANY",
	ManyToManyOwning: "<<MANY_TO_MANY",
	SelfManyToMany:   "SELF::MANY_TO_MANY",
	SelfManyToOne:    "SELF::MANY_TO_ONE",
	SelfOneToMany:    "SELF::ONE_TO_MANY",
}

// String returns the model literal of the cardinality.
func (c Cardinality) String() string {
	if c < 0 || int(c) >= len(cardinalityNames) {
		return cardinalityNames[Unknown]
	}
	return cardinalityNames[c]
}

// ParseCardinality parses a model literal such as "<<MANY_TO_MANY".
func ParseCardinality(s string) (Cardinality, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for c, name := range cardinalityNames {
		if c != int(Unknown) && name == s {
			return Cardinality(c), nil
		}
	}
	return Unknown, dobee.NewRelationError("", "", "unknown cardinality "+s)
}

// OwnsForeignKey reports whether the declaring entity's table holds the
// foreign key column of the relation.
func (c Cardinality) OwnsForeignKey() bool {
	switch c {
	case OneToOneOwning, ManyToOne, SelfManyToOne, SelfOneToMany:
		return true
	}
	return false
}

// Owning reports whether a join from the declaring entity starts on the
// owning side. A reference carrying the owning marker overrides it.
func (c Cardinality) Owning() bool {
	switch c {
	case OneToOneOwning, ManyToOne, ManyToManyOwning:
		return true
	}
	return false
}

// Owned reports whether the declaring entity writes the relation on save,
// either as a foreign key column or as link table rows.
func (c Cardinality) Owned() bool {
	return c.OwnsForeignKey() || c == ManyToManyOwning || c == SelfManyToMany
}

// IsManyToMany reports whether the relation goes through a link table.
func (c Cardinality) IsManyToMany() bool {
	switch c {
	case ManyToMany, ManyToManyOwning, SelfManyToMany:
		return true
	}
	return false
}

// IsSelf reports whether the relation points back to the declaring entity.
func (c Cardinality) IsSelf() bool {
	switch c {
	case SelfManyToMany, SelfManyToOne, SelfOneToMany:
		return true
	}
	return false
}

// Inverse returns the cardinality the related entity must declare back.
func (c Cardinality) Inverse() Cardinality {
	switch c {
	case OneToOne:
		return OneToOneOwning
	case OneToOneOwning:
		return OneToOne
	case ManyToOne:
		return OneToMany
	case OneToMany:
		return ManyToOne
	case ManyToMany:
		return ManyToManyOwning
	case ManyToManyOwning:
		return ManyToMany
	case SelfManyToMany, SelfManyToOne, SelfOneToMany:
		return c
	default:
		return Unknown
	}
}

// Relation is a relation declared by an entity.
type Relation struct {
	Target      string      // Related entity name.
	Cardinality Cardinality // Kind as seen from Owner.
	Owner       string      // Declaring entity; differs from the queried entity for inherited relations.
}
