package query

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/airagroup/dobee/naming"
	"github.com/airagroup/dobee/relation"
	"github.com/airagroup/dobee/schema"
)

// Param is one bound placeholder value.
type Param struct {
	Type  schema.BindType
	Value any
}

// Params are the placeholder values of a statement, in placeholder order.
type Params []Param

// Add appends a parameter.
func (p *Params) Add(t schema.BindType, v any) {
	*p = append(*p, Param{Type: t, Value: v})
}

// Args returns the values to pass to the driver.
func (p Params) Args() []any {
	args := make([]any, len(p))
	for i := range p {
		args[i] = p[i].Value
	}
	return args
}

// Types returns the placeholder type codes, "iss" style.
func (p Params) Types() string {
	var b strings.Builder
	for i := range p {
		b.WriteString(string(p[i].Type))
	}
	return b.String()
}

// Statement is a rendered SQL statement with its parameters.
type Statement struct {
	SQL    string
	Params Params
}

// Args returns the driver arguments of the statement.
func (s *Statement) Args() []any { return s.Params.Args() }

// String formats the statement for logs and the command line.
func (s *Statement) String() string {
	if len(s.Params) == 0 {
		return s.SQL
	}
	return fmt.Sprintf("%s %v", s.SQL, s.Params.Args())
}

// Assignment sets one column on insert or update. A nil Value writes NULL.
type Assignment struct {
	Column string
	Type   schema.BindType
	Value  any
}

// Assign returns the assignment of a declared property, converting v to
// the property's bound representation.
func (b *Builder) Assign(entity, property string, v any) (Assignment, error) {
	pt, err := b.model.PropertyType(entity, property)
	if err != nil {
		return Assignment{}, err
	}
	t, err := pt.BindType()
	if err != nil {
		return Assignment{}, err
	}
	v, err = pt.Value(v)
	if err != nil {
		return Assignment{}, fmt.Errorf("dobee/query: %s.%s: %w", entity, property, err)
	}
	return Assignment{Column: naming.Column(property), Type: t, Value: v}, nil
}

// Insert renders "INSERT INTO <table> (`a`, `b`) VALUES (?, NULL)".
func (b *Builder) Insert(entity string, body []Assignment) *Statement {
	st := &Statement{}
	cols := make([]string, len(body))
	vals := make([]string, len(body))
	for i, a := range body {
		cols[i] = quote(a.Column)
		vals[i] = st.bind(a)
	}
	st.SQL = "INSERT INTO " + b.resolver.Table(entity) + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(vals, ", ") + ")"
	return st
}

// Update renders "UPDATE <table> SET `a` = ? WHERE `pk` = ?".
func (b *Builder) Update(entity string, body []Assignment, pk any) (*Statement, error) {
	st := &Statement{}
	sets := make([]string, len(body))
	for i, a := range body {
		sets[i] = quote(a.Column) + " = " + st.bind(a)
	}
	where, err := b.primaryKey(entity, pk, &st.Params)
	if err != nil {
		return nil, err
	}
	st.SQL = "UPDATE " + b.resolver.Table(entity) + " SET " + strings.Join(sets, ", ") + where
	return st, nil
}

// Delete renders "DELETE FROM <table> WHERE `pk` = ?".
func (b *Builder) Delete(entity string, pk any) (*Statement, error) {
	st := &Statement{}
	where, err := b.primaryKey(entity, pk, &st.Params)
	if err != nil {
		return nil, err
	}
	st.SQL = "DELETE FROM " + b.resolver.Table(entity) + where
	return st, nil
}

func (b *Builder) primaryKey(entity string, pk any, params *Params) (string, error) {
	key := b.model.PrimaryKey(entity)
	a, err := b.Assign(entity, key, pk)
	if err != nil {
		return "", err
	}
	params.Add(a.Type, a.Value)
	return " WHERE " + quote(a.Column) + " = ?", nil
}

// LinkSelect renders the statement reading the keys currently linked to
// owner through plan.
func (b *Builder) LinkSelect(plan relation.LinkPlan, owner any) *Statement {
	st := &Statement{SQL: "SELECT " + quote(plan.RelatedColumn) + " FROM " + plan.Table + " WHERE " + quote(plan.OwnerColumn) + " = ?"}
	st.Params.Add(b.keyType(plan.Relation.Owner), owner)
	return st
}

// LinkDelete renders the statement removing one link row.
func (b *Builder) LinkDelete(plan relation.LinkPlan, owner, related any) *Statement {
	st := &Statement{SQL: "DELETE FROM " + plan.Table + " WHERE " + quote(plan.OwnerColumn) + " = ? AND " + quote(plan.RelatedColumn) + " = ?"}
	st.Params.Add(b.keyType(plan.Relation.Owner), owner)
	st.Params.Add(b.keyType(plan.Relation.Target), related)
	return st
}

// LinkInsert renders the statement adding one link row.
func (b *Builder) LinkInsert(plan relation.LinkPlan, owner, related any) *Statement {
	st := &Statement{SQL: "INSERT INTO " + plan.Table + " (" + quote(plan.OwnerColumn) + ", " + quote(plan.RelatedColumn) + ") VALUES (?, ?)"}
	st.Params.Add(b.keyType(plan.Relation.Owner), owner)
	st.Params.Add(b.keyType(plan.Relation.Target), related)
	return st
}

func (b *Builder) keyType(entity string) schema.BindType {
	t, err := b.model.BindType(entity, b.model.PrimaryKey(entity))
	if err != nil {
		return schema.BindInt
	}
	return t
}

func (s *Statement) bind(a Assignment) string {
	if a.Value == nil {
		return "NULL"
	}
	s.Params.Add(a.Type, a.Value)
	return "?"
}

func quote(column string) string { return "`" + column + "`" }

// asList reports whether v is a list of operands. Byte slices are values.
func asList(v any) ([]any, bool) {
	switch v := v.(type) {
	case []any:
		return v, true
	case []byte:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
