package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airagroup/dobee"
	"github.com/airagroup/dobee/internal/testmodel"
	"github.com/airagroup/dobee/naming"
	"github.com/airagroup/dobee/relation"
	"github.com/airagroup/dobee/schema"
)

func newBuilder() *Builder {
	return NewBuilder(relation.NewResolver(testmodel.Model(), naming.DefaultPrefix))
}

func TestParseOperator(t *testing.T) {
	for tok, want := range map[string]string{
		"=":       "= ?",
		"EQ":      "= ?",
		"neq":     "!= ?",
		"gt":      "> ?",
		">=":      ">= ?",
		"Lt":      "< ?",
		"<=":      "<= ?",
		"%%":      "LIKE ?",
		"like":    "LIKE ?",
		"null":    "IS NULL",
		"0":       "IS NULL",
		"!0":      "IS NOT NULL",
		"NN":      "IS NOT NULL",
		"between": "BETWEEN ? AND ?",
	} {
		op, err := ParseOperator(tok)
		require.NoError(t, err, tok)
		assert.Equal(t, want, op.Fragment(0), tok)
	}
	op, err := ParseOperator("~")
	require.NoError(t, err)
	assert.Equal(t, "IN(?,?,?)", op.Fragment(3))
	op, err = ParseOperator("nin")
	require.NoError(t, err)
	assert.Equal(t, "NOT IN(?)", op.Fragment(1))

	_, err = ParseOperator("bogus")
	require.Error(t, err)
	assert.True(t, dobee.IsUnknownOperation(err))
}

func TestSelect(t *testing.T) {
	b := newBuilder()
	assert.Equal(t, "SELECT this.* FROM dobee_item this", b.Select("item", nil))
	assert.Equal(t, "SELECT COUNT(*) AS n FROM dobee_order this", b.Select("order", &Options{Select: "COUNT(*) AS n"}))
}

func TestWhere(t *testing.T) {
	b := newBuilder()
	tests := []struct {
		name   string
		entity string
		where  []Condition
		want   string
		params Params
	}{
		{
			name:   "Equal",
			entity: "item",
			where:  []Condition{Where("this.title", "=", "lamp")},
			want:   " WHERE (this.title = ?)",
			params: Params{{schema.BindString, "lamp"}},
		},
		{
			name:   "Between",
			entity: "order",
			where:  []Condition{Where("this.total", "between", []int{10, 20})},
			want:   " WHERE (this.total BETWEEN ? AND ?)",
			params: Params{{schema.BindInt, int64(10)}, {schema.BindInt, int64(20)}},
		},
		{
			name:   "In",
			entity: "order",
			where:  []Condition{Where("this.id", "in", []any{1, 2, 3})},
			want:   " WHERE (this.id IN(?,?,?))",
			params: Params{{schema.BindInt, int64(1)}, {schema.BindInt, int64(2)}, {schema.BindInt, int64(3)}},
		},
		{
			name:   "InFromString",
			entity: "order",
			where:  []Condition{Where("this.id", "~", "4|5")},
			want:   " WHERE (this.id IN(?,?))",
			params: Params{{schema.BindInt, int64(4)}, {schema.BindInt, int64(5)}},
		},
		{
			name:   "EmptyIn",
			entity: "order",
			where:  []Condition{Where("this.id", "in", []int{}), Where("this.id", "nin", []int{})},
			want:   " WHERE (0 = 1) AND (1 = 1)",
		},
		{
			name:   "OrGroup",
			entity: "item",
			where:  []Condition{Where("this.title|this.price", "like|>", "%lamp%|9.5")},
			want:   " WHERE (this.title LIKE ? OR this.price > ?)",
			params: Params{{schema.BindString, "%lamp%"}, {schema.BindFloat, 9.5}},
		},
		{
			name:   "Broadcast",
			entity: "item",
			where:  []Condition{Where("this.title|this.title", "%%", "%a%")},
			want:   " WHERE (this.title LIKE ? OR this.title LIKE ?)",
			params: Params{{schema.BindString, "%a%"}, {schema.BindString, "%a%"}},
		},
		{
			name:   "NestedLists",
			entity: "order",
			where:  []Condition{Where("this.id|this.total", "in|between", []any{[]int{1, 2}, []int{5, 9}})},
			want:   " WHERE (this.id IN(?,?) OR this.total BETWEEN ? AND ?)",
			params: Params{{schema.BindInt, int64(1)}, {schema.BindInt, int64(2)}, {schema.BindInt, int64(5)}, {schema.BindInt, int64(9)}},
		},
		{
			name:   "AndedGroups",
			entity: "item",
			where: []Condition{
				Where("this.active", "=", true),
				Where("this.title", "nn", nil),
			},
			want:   " WHERE (this.active = ?) AND (this.title IS NOT NULL)",
			params: Params{{schema.BindInt, int64(1)}},
		},
		{
			name:   "Underscored",
			entity: "order",
			where:  []Condition{Where("this.placedAt", ">=", time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC))},
			want:   " WHERE (this.placed_at >= ?)",
			params: Params{{schema.BindString, "2024-05-01 08:30:00"}},
		},
		{
			name:   "TypeOverride",
			entity: "order",
			where:  []Condition{Where("YEAR(this.placed_at)", "=", "2024").WithType("i")},
			want:   " WHERE (YEAR(this.placed_at) = ?)",
			params: Params{{schema.BindInt, int64(2024)}},
		},
		{
			name:   "InheritedProperty",
			entity: "dog",
			where:  []Condition{Where("this.name", "=", "rex")},
			want:   " WHERE (this.name = ?)",
			params: Params{{schema.BindString, "rex"}},
		},
		{
			name:   "BareProperty",
			entity: "item",
			where:  []Condition{Where("price", "<", 3)},
			want:   " WHERE (price < ?)",
			params: Params{{schema.BindFloat, float64(3)}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var params Params
			got, err := b.Where(tt.entity, &Options{Where: tt.where}, &params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestWhereJoinedAlias(t *testing.T) {
	b := newBuilder()
	opts := &Options{
		Join:  []JoinRef{{Ref: "this.order", Alias: "o"}},
		Where: []Condition{Where("o.total", ">", 100)},
	}
	var params Params
	got, err := b.Where("item", opts, &params)
	require.NoError(t, err)
	assert.Equal(t, " WHERE (o.total > ?)", got)
	assert.Equal(t, Params{{schema.BindInt, int64(100)}}, params)
}

func TestWhereErrors(t *testing.T) {
	b := newBuilder()

	var params Params
	_, err := b.Where("item", &Options{Where: []Condition{
		Where("this.title", "=", "a"),
		Where("this.title", "bogus", "b"),
	}}, &params)
	require.Error(t, err)
	assert.True(t, dobee.IsUnknownOperation(err))
	assert.Empty(t, params)

	_, err = b.Where("item", &Options{Where: []Condition{Where("this.title", "=", "a").WithType("x")}}, &params)
	assert.True(t, dobee.IsInvalidPropertyType(err))

	_, err = b.Where("item", &Options{Where: []Condition{Where("this.weight", "=", 1)}}, &params)
	assert.True(t, dobee.IsInvalidPropertyType(err))

	_, err = b.Where("order", &Options{Where: []Condition{Where("this.total", "between", []int{1})}}, &params)
	require.Error(t, err)
	assert.True(t, dobee.IsOperandError(err))
	assert.True(t, dobee.IsConfigError(err))
	var oe *dobee.OperandError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, 2, oe.Want)
	assert.Equal(t, 1, oe.Got)
}

func TestOrderByAndLimit(t *testing.T) {
	b := newBuilder()
	opts := &Options{
		Order: []OrderBy{Desc("this.placedAt"), {Property: "this.total", Direction: "DESC"}, {Property: "this.id", Direction: "sideways"}},
		Limit: &Limit{FirstResult: 20, MaxResults: 10},
	}
	assert.Equal(t, " ORDER BY this.placed_at DESC, this.total DESC, this.id ASC", b.OrderBy(opts))
	assert.Equal(t, " LIMIT 20,10", b.Limit(opts))
	assert.Empty(t, b.OrderBy(nil))
	assert.Empty(t, b.Limit(&Options{}))
}

func TestJoins(t *testing.T) {
	b := newBuilder()
	opts := &Options{
		Join:          []JoinRef{{Ref: "this.order", Alias: "o"}},
		LeftJoin:      []JoinRef{{Ref: "o.customer", Alias: "c"}},
		PlainLeftJoin: []PlainJoin{{Ref: "o.user", Alias: "editor", EntityKey: "updatedBy", RelatedKey: "id"}},
	}
	var params Params
	got, err := b.Joins("item", opts, &params)
	require.NoError(t, err)
	assert.Equal(t, " JOIN dobee_order `o` ON this.order_id = o.id"+
		" LEFT JOIN dobee_customer `c` ON o.customer_id = c.id"+
		" LEFT JOIN dobee_user `editor` ON o.updated_by = editor.id", got)
	assert.Empty(t, params)

	_, err = b.Joins("item", &Options{Join: []JoinRef{{Ref: "this.tag", Alias: "t"}}}, &params)
	assert.True(t, dobee.IsRelationError(err))
}

func TestFetch(t *testing.T) {
	b := newBuilder()

	st, err := b.Fetch("item", nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT this.* FROM dobee_item this", st.SQL)
	assert.Empty(t, st.Params)

	st, err = b.Fetch("order", &Options{
		Where: []Condition{Where("this.total", ">", 10)},
		Order: []OrderBy{Asc("this.id")},
		Limit: &Limit{MaxResults: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT this.* FROM dobee_order this WHERE (this.total > ?) AND this.`deleted` = 0 ORDER BY this.id ASC LIMIT 0,5", st.SQL)
	assert.Equal(t, []any{int64(10)}, st.Args())
	assert.Equal(t, "i", st.Params.Types())

	st, err = b.Fetch("order", &Options{ShowDeleted: true})
	require.NoError(t, err)
	assert.Equal(t, "SELECT this.* FROM dobee_order this WHERE this.`deleted` = 1", st.SQL)

	st, err = b.Fetch("dog", &Options{LeftJoin: []JoinRef{{Ref: "this.toy", Alias: "toy"}}, Where: []Condition{Where("toy.label", "=", "ball")}})
	require.NoError(t, err)
	assert.Equal(t, "SELECT this.* FROM dobee_dog this LEFT JOIN dobee_toy `toy` ON (toy.animal_id = this.id AND toy.animal_class = ?) WHERE (toy.label = ?)", st.SQL)
	assert.Equal(t, []any{`App\Entity\Dog`, "ball"}, st.Args())

	_, err = b.Fetch("ghost", nil)
	assert.True(t, dobee.IsUnknownEntity(err))
}

func TestFetchOne(t *testing.T) {
	b := newBuilder()

	st, err := b.FetchOne("order", 7, &Options{
		Where: []Condition{Where("this.total", ">", 10)},
		Limit: &Limit{FirstResult: 3, MaxResults: 9},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT this.* FROM dobee_order this WHERE (this.total > ?) AND this.`id` = ? AND this.`deleted` = 0 LIMIT 0,1", st.SQL)
	assert.Equal(t, []any{int64(10), int64(7)}, st.Args())

	st, err = b.FetchOne("item", "12", nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT this.* FROM dobee_item this WHERE this.`id` = ? LIMIT 0,1", st.SQL)
	assert.Equal(t, []any{int64(12)}, st.Args())

	st, err = b.FetchOne("item", nil, &Options{Order: []OrderBy{Desc("this.price")}})
	require.NoError(t, err)
	assert.Equal(t, "SELECT this.* FROM dobee_item this ORDER BY this.price DESC LIMIT 0,1", st.SQL)
}

func TestWriteStatements(t *testing.T) {
	b := newBuilder()

	title, err := b.Assign("item", "title", "lamp")
	require.NoError(t, err)
	active, err := b.Assign("item", "active", false)
	require.NoError(t, err)
	body := []Assignment{title, active, {Column: "order_id", Type: schema.BindInt}}

	st := b.Insert("item", body)
	assert.Equal(t, "INSERT INTO dobee_item (`title`, `active`, `order_id`) VALUES (?, ?, NULL)", st.SQL)
	assert.Equal(t, []any{"lamp", int64(0)}, st.Args())

	up, err := b.Update("item", body, 4)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE dobee_item SET `title` = ?, `active` = ?, `order_id` = NULL WHERE `id` = ?", up.SQL)
	assert.Equal(t, []any{"lamp", int64(0), int64(4)}, up.Args())
	assert.Equal(t, "iii", Params{{schema.BindInt, 1}, {schema.BindInt, 2}, {schema.BindInt, 3}}.Types())

	del, err := b.Delete("item", 4)
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM dobee_item WHERE `id` = ?", del.SQL)
	assert.Equal(t, []any{int64(4)}, del.Args())

	_, err = b.Assign("item", "weight", 1)
	assert.True(t, dobee.IsInvalidPropertyType(err))
}

func TestLinkStatements(t *testing.T) {
	b := newBuilder()
	plan := b.Resolver().LinkPlans("order")[0]

	assert.Equal(t, "SELECT `tag_id` FROM dobee_order_mtm_tag WHERE `order_id` = ?", b.LinkSelect(plan, 1).SQL)

	del := b.LinkDelete(plan, 1, 2)
	assert.Equal(t, "DELETE FROM dobee_order_mtm_tag WHERE `order_id` = ? AND `tag_id` = ?", del.SQL)
	assert.Equal(t, []any{1, 2}, del.Args())

	ins := b.LinkInsert(plan, 1, 3)
	assert.Equal(t, "INSERT INTO dobee_order_mtm_tag (`order_id`, `tag_id`) VALUES (?, ?)", ins.SQL)
	assert.Equal(t, "ii", ins.Params.Types())
}
