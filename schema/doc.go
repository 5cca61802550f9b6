// Package schema holds the static entity model the engine maps against.
//
// A Model is built once, either in Go with NewModel or from a YAML document
// with Load, and is read-only afterwards. Construction validates the whole
// model: property types, primary keys, inheritance chains and the agreement
// of both sides of every relation. Every later lookup is therefore free of
// configuration errors except for names that are not declared at all.
//
// # Model file
//
//	namespace: App\Entity
//	entities:
//	  order:
//	    loggable: true
//	    properties:
//	      id: int
//	      total: int
//	      updatedBy: int
//	    relations:
//	      item: ONE_TO_MANY
//	      tag: <<MANY_TO_MANY
//	    blameable:
//	      property: updatedBy
//	      targetEntity: user
//	      nullValue: 0
//	  item:
//	    properties:
//	      id: int
//	      title: string
//	    relations:
//	      order: MANY_TO_ONE
//
// # Cardinalities
//
// Relations use one of the literals ONE_TO_ONE, <<ONE_TO_ONE, MANY_TO_ONE,
// ONE_TO_MANY, MANY_TO_MANY, <<MANY_TO_MANY, SELF::MANY_TO_MANY,
// SELF::MANY_TO_ONE and SELF::ONE_TO_MANY. The "<<" marker names the side
// that owns the foreign key or the link table.
package schema
