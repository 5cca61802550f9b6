// Package query builds the SQL statements of the data mapper from an entity
// name and an option bag: selection, relation and plain joins, typed where
// predicates, ordering and pagination, plus the write statements used on save.
package query

import (
	"fmt"
	"strings"

	"github.com/airagroup/dobee"
	"github.com/airagroup/dobee/naming"
	"github.com/airagroup/dobee/relation"
	"github.com/airagroup/dobee/schema"
)

// RootAlias is the alias of the fetched entity in every select statement.
const RootAlias = "this"

// DeletedColumn is the soft-delete flag column.
const DeletedColumn = "deleted"

// Builder renders statements for the entities of a model. It holds no
// per-statement state and is safe for concurrent use.
type Builder struct {
	model    *schema.Model
	resolver *relation.Resolver
}

// NewBuilder returns a builder rendering joins through r.
func NewBuilder(r *relation.Resolver) *Builder {
	return &Builder{model: r.Model(), resolver: r}
}

// Model returns the model the builder renders for.
func (b *Builder) Model() *schema.Model { return b.model }

// Resolver returns the relation resolver of the builder.
func (b *Builder) Resolver() *relation.Resolver { return b.resolver }

// Select renders "SELECT <projection> FROM <table> this".
func (b *Builder) Select(entity string, opts *Options) string {
	projection := RootAlias + ".*"
	if opts != nil && opts.Select != "" {
		projection = opts.Select
	}
	return "SELECT " + projection + " FROM " + b.resolver.Table(entity) + " " + RootAlias
}

// scope maps query aliases to the entity they stand for.
type scope map[string]string

func (b *Builder) scope(entity string, opts *Options) scope {
	s := scope{RootAlias: entity}
	if opts == nil {
		return s
	}
	for _, js := range [][]JoinRef{opts.Join, opts.LeftJoin} {
		for _, j := range js {
			s[naming.Underscore(j.Alias)] = naming.ParseRef(j.Ref).Property
		}
	}
	for _, js := range [][]PlainJoin{opts.PlainJoin, opts.PlainLeftJoin} {
		for _, j := range js {
			s[naming.Underscore(j.Alias)] = naming.ParseRef(j.Ref).Property
		}
	}
	return s
}

// entity returns the entity an alias stands for. Unknown aliases are taken
// as entity names.
func (s scope) entity(alias string) string {
	if alias == "" {
		return s[RootAlias]
	}
	if e, ok := s[naming.Underscore(alias)]; ok {
		return e
	}
	return alias
}

// Joins renders the relation joins, then the left joins, then the plain
// joins of opts. Discriminator values are appended to params.
func (b *Builder) Joins(entity string, opts *Options, params *Params) (string, error) {
	if opts == nil {
		return "", nil
	}
	var (
		sb    strings.Builder
		scope = b.scope(entity, opts)
	)
	for _, group := range []struct {
		joins []JoinRef
		left  bool
	}{{opts.Join, false}, {opts.LeftJoin, true}} {
		for _, j := range group.joins {
			ref := naming.ParseRef(j.Ref)
			frag, args, _, err := b.resolver.Join(relation.JoinSpec{
				Entity: scope.entity(ref.Alias),
				Ref:    ref,
				Alias:  j.Alias,
				Left:   group.left,
			})
			if err != nil {
				return "", fmt.Errorf("dobee/query: join %q: %w", j.Ref, err)
			}
			sb.WriteString(frag)
			for _, a := range args {
				params.Add(schema.BindString, a)
			}
		}
	}
	for _, group := range []struct {
		joins []PlainJoin
		left  bool
	}{{opts.PlainJoin, false}, {opts.PlainLeftJoin, true}} {
		for _, j := range group.joins {
			frag, _ := b.resolver.PlainJoin(relation.PlainJoinSpec{
				Ref:        naming.ParseRef(j.Ref),
				Alias:      j.Alias,
				EntityKey:  j.EntityKey,
				RelatedKey: j.RelatedKey,
				Left:       group.left,
			})
			sb.WriteString(frag)
		}
	}
	return sb.String(), nil
}

// Where renders the where clause of opts and appends its parameters.
// Every condition is validated before anything is appended, so a failing
// condition leaves params untouched.
func (b *Builder) Where(entity string, opts *Options, params *Params) (string, error) {
	if opts == nil || len(opts.Where) == 0 {
		return "", nil
	}
	var (
		scope   = b.scope(entity, opts)
		clauses = make([]string, 0, len(opts.Where))
		bound   Params
	)
	for _, c := range opts.Where {
		if c.Property == "" {
			continue
		}
		clause, err := b.condition(scope, c, &bound)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	*params = append(*params, bound...)
	return " WHERE " + strings.Join(clauses, " AND "), nil
}

// condition renders one parenthesised group of ORed alternatives.
func (b *Builder) condition(scope scope, c Condition, params *Params) (string, error) {
	var (
		properties = strings.Split(c.Property, "|")
		operators  = strings.Split(c.Operator, "|")
		types      []string
		values     []any
		native     bool
	)
	if c.Type != "" {
		types = strings.Split(c.Type, "|")
	}
	switch v := c.Value.(type) {
	case string:
		values = splitAny(v)
	case nil:
	default:
		if list, ok := asList(v); ok {
			values, native = list, true
		} else {
			values = []any{v}
		}
	}
	parts := make([]string, 0, len(properties))
	for i, property := range properties {
		op, err := ParseOperator(pick(operators, i))
		if err != nil {
			return "", err
		}
		// Operand list of set and range operators, a single value otherwise.
		operands := values
		if native && i < len(values) {
			if nested, ok := asList(values[i]); ok {
				operands = nested
			}
		}
		var args []any
		switch {
		case op == OpBetween:
			if len(operands) < 2 {
				return "", dobee.NewOperandError("between", property, 2, len(operands))
			}
			args = operands[:2]
		case op.IsSet():
			args = operands
		case op.Binds():
			args = []any{pickAny(values, i)}
		}
		column := property
		if strings.Index(property, "(") <= 0 {
			column = naming.Underscore(property)
		}
		frag := op.Fragment(len(args))
		if op.IsSet() && len(args) == 0 {
			// Nothing is in the empty set and everything is outside of it.
			if op == OpIn {
				parts = append(parts, "0 = 1")
			} else {
				parts = append(parts, "1 = 1")
			}
			continue
		}
		parts = append(parts, column+" "+frag)
		if !strings.Contains(frag, "?") {
			continue
		}
		bind, err := b.bindType(scope, property, pick(types, i))
		if err != nil {
			return "", err
		}
		for _, a := range args {
			v, err := bind.conv(a)
			if err != nil {
				return "", fmt.Errorf("dobee/query: where %q: %w", property, err)
			}
			params.Add(bind.typ, v)
		}
	}
	return "(" + strings.Join(parts, " OR ") + ")", nil
}

type binding struct {
	typ  schema.BindType
	conv func(any) (any, error)
}

// bindType resolves the placeholder type of a where property: the explicit
// override when given, the declared property type otherwise.
func (b *Builder) bindType(scope scope, property, override string) (binding, error) {
	if override != "" {
		t, err := schema.ParseBindType(override)
		if err != nil {
			return binding{}, err
		}
		conv := t.Value
		if pt, err := schema.ParsePropertyType(override); err == nil {
			conv = pt.Value
		}
		return binding{typ: t, conv: conv}, nil
	}
	entity := scope.entity("")
	if strings.IndexByte(property, '.') > 0 {
		entity = scope.entity(naming.Strip(property, false))
	}
	name := naming.Strip(property, true)
	pt, err := b.model.PropertyType(entity, name)
	if err != nil {
		return binding{}, err
	}
	t, err := pt.BindType()
	if err != nil {
		return binding{}, dobee.NewInvalidPropertyTypeError(entity, name, string(pt))
	}
	return binding{typ: t, conv: pt.Value}, nil
}

// OrderBy renders the order clause of opts.
func (b *Builder) OrderBy(opts *Options) string {
	if opts == nil || len(opts.Order) == 0 {
		return ""
	}
	clauses := make([]string, 0, len(opts.Order))
	for _, o := range opts.Order {
		clauses = append(clauses, naming.Underscore(o.Property)+" "+Direction(o.Direction))
	}
	return " ORDER BY " + strings.Join(clauses, ", ")
}

// Direction normalizes an order direction token.
func Direction(tok string) string {
	if strings.EqualFold(strings.TrimSpace(tok), "desc") {
		return "DESC"
	}
	return "ASC"
}

// Limit renders the limit clause of opts.
func (b *Builder) Limit(opts *Options) string {
	if opts == nil || opts.Limit == nil {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d,%d", opts.Limit.FirstResult, opts.Limit.MaxResults)
}

// Fetch renders the select statement returning every row of entity
// matching opts.
func (b *Builder) Fetch(entity string, opts *Options) (*Statement, error) {
	return b.fetch(entity, nil, opts, false)
}

// FetchOne renders the select statement returning at most one row of
// entity. A non-nil pk restricts it to that primary key. The limit of opts
// is ignored.
func (b *Builder) FetchOne(entity string, pk any, opts *Options) (*Statement, error) {
	return b.fetch(entity, pk, opts, true)
}

func (b *Builder) fetch(entity string, pk any, opts *Options, one bool) (*Statement, error) {
	if !b.model.Exists(entity) {
		return nil, dobee.NewUnknownEntityError(entity)
	}
	st := &Statement{}
	join, err := b.Joins(entity, opts, &st.Params)
	if err != nil {
		return nil, err
	}
	where, err := b.Where(entity, opts, &st.Params)
	if err != nil {
		return nil, err
	}
	if one && pk != nil {
		key := b.model.PrimaryKey(entity)
		pt, err := b.model.PropertyType(entity, key)
		if err != nil {
			return nil, err
		}
		t, _ := pt.BindType()
		v, err := pt.Value(pk)
		if err != nil {
			return nil, fmt.Errorf("dobee/query: primary key of %s: %w", entity, err)
		}
		where = and(where) + " " + RootAlias + ".`" + naming.Column(key) + "` = ?"
		st.Params.Add(t, v)
	}
	if b.model.IsSoftDeletable(entity) {
		flag := "0"
		if opts != nil && opts.ShowDeleted {
			flag = "1"
		}
		where = and(where) + " " + RootAlias + ".`" + DeletedColumn + "` = " + flag
	}
	limit := " LIMIT 0,1"
	if !one {
		limit = b.Limit(opts)
	}
	st.SQL = b.Select(entity, opts) + join + where + b.OrderBy(opts) + limit
	return st, nil
}

func and(where string) string {
	if where == "" {
		return " WHERE"
	}
	return where + " AND"
}

// pick returns s[i], or s[0] when s holds a single entry to broadcast.
func pick(s []string, i int) string {
	switch {
	case len(s) == 0:
		return ""
	case len(s) == 1:
		return s[0]
	case i < len(s):
		return s[i]
	default:
		return ""
	}
}

func pickAny(s []any, i int) any {
	switch {
	case len(s) == 1:
		return s[0]
	case i < len(s):
		return s[i]
	default:
		return nil
	}
}

func splitAny(s string) []any {
	parts := strings.Split(s, "|")
	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out
}
