package query

// Options is the option bag accepted by fetch operations. The zero value
// selects every row of the entity.
type Options struct {
	// Select replaces the default "this.*" projection.
	Select string `json:"select,omitempty" yaml:"select,omitempty"`
	// Join and LeftJoin join declared relations, in order. Later joins may
	// start from the alias of an earlier one.
	Join     []JoinRef `json:"join,omitempty" yaml:"join,omitempty"`
	LeftJoin []JoinRef `json:"leftJoin,omitempty" yaml:"leftJoin,omitempty"`
	// PlainJoin and PlainLeftJoin join on explicit key columns.
	PlainJoin     []PlainJoin `json:"plainJoin,omitempty" yaml:"plainJoin,omitempty"`
	PlainLeftJoin []PlainJoin `json:"plainLeftJoin,omitempty" yaml:"plainLeftJoin,omitempty"`
	// Where conditions are ANDed.
	Where []Condition `json:"where,omitempty" yaml:"where,omitempty"`
	Order []OrderBy   `json:"order,omitempty" yaml:"order,omitempty"`
	Limit *Limit      `json:"limit,omitempty" yaml:"limit,omitempty"`
	// ShowDeleted selects soft-deleted rows instead of live ones.
	ShowDeleted bool `json:"showDeleted,omitempty" yaml:"showDeleted,omitempty"`
}

// JoinRef joins the relation named by Ref ("this.item", "<<this.tag",
// "o.item~second") under Alias.
type JoinRef struct {
	Ref   string `json:"ref" yaml:"ref"`
	Alias string `json:"alias" yaml:"alias"`
}

// PlainJoin joins the entity named by Ref under Alias on
// owner.EntityKey = alias.RelatedKey.
type PlainJoin struct {
	Ref        string `json:"ref" yaml:"ref"`
	Alias      string `json:"alias" yaml:"alias"`
	EntityKey  string `json:"entityKey" yaml:"entityKey"`
	RelatedKey string `json:"relatedKey" yaml:"relatedKey"`
}

// Condition is one where entry.
//
// Property may list alternatives separated by "|", which are ORed inside
// one parenthesised clause. Operator, Type and a string Value are split the
// same way and matched to the alternatives by position; a single entry
// applies to all of them. A native list Value is used as the operand list
// of in, nin and between, or per alternative when it holds lists itself.
type Condition struct {
	Property string `json:"property" yaml:"property"`
	Operator string `json:"operator" yaml:"operator"`
	Value    any    `json:"value,omitempty" yaml:"value,omitempty"`
	// Type overrides the placeholder type: i, d, s or a property type name.
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
}

// Where returns a condition.
func Where(property, operator string, value any) Condition {
	return Condition{Property: property, Operator: operator, Value: value}
}

// WithType returns the condition with an explicit placeholder type.
func (c Condition) WithType(t string) Condition {
	c.Type = t
	return c
}

// OrderBy sorts by Property. Direction "desc" sorts descending, anything
// else ascending.
type OrderBy struct {
	Property  string `json:"property" yaml:"property"`
	Direction string `json:"direction,omitempty" yaml:"direction,omitempty"`
}

// Asc returns an ascending order.
func Asc(property string) OrderBy { return OrderBy{Property: property, Direction: "asc"} }

// Desc returns a descending order.
func Desc(property string) OrderBy { return OrderBy{Property: property, Direction: "desc"} }

// Limit restricts the result window.
type Limit struct {
	FirstResult int `json:"firstResult" yaml:"firstResult"`
	MaxResults  int `json:"maxResults" yaml:"maxResults"`
}
