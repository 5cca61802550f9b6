package changelog

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airagroup/dobee"
	"github.com/airagroup/dobee/dialect"
	"github.com/airagroup/dobee/dialect/sql"
	"github.com/airagroup/dobee/entity"
)

func newMock(t *testing.T) (*sql.Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sql.OpenDB(dialect.MySQL, db), mock
}

var columns = []string{"id", "action_type", "blame", "entity_class", "entity_id", "version", "logged_at", "data"}

func mustEncode(t *testing.T, s entity.Snapshot) []byte {
	t.Helper()
	b, err := Encode(s)
	require.NoError(t, err)
	return b
}

func TestCodec(t *testing.T) {
	b, err := Encode(entity.Snapshot{
		"total":    int64(100),
		"note":     "fragile",
		"price":    9.5,
		"customer": entity.Ref{Entity: "customer", ID: int64(2)},
		"items":    entity.Ref{Entity: "item", ID: []any{int64(3), int64(5)}},
		"tags":     entity.Ref{Entity: "tag", ID: []any{}},
		"extra":    map[string]any{"a": 1},
	})
	require.NoError(t, err)

	s, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, entity.Snapshot{
		"total":    int64(100),
		"note":     "fragile",
		"price":    9.5,
		"customer": entity.Ref{Entity: "customer", ID: int64(2)},
		"items":    entity.Ref{Entity: "item", ID: []any{int64(3), int64(5)}},
		"tags":     entity.Ref{Entity: "tag", ID: []any{}},
		"extra":    map[string]any{"a": int64(1)},
	}, s)

	s, err = Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, s)

	_, err = Decode([]byte{0xc1})
	assert.Error(t, err)
}

func TestWriterAppend(t *testing.T) {
	drv, mock := newMock(t)
	at := time.Date(2024, 5, 1, 8, 30, 0, 500, time.UTC)
	w := NewWriter(drv, "", func() time.Time { return at })
	assert.Equal(t, DefaultTable, w.Table())

	data := entity.Snapshot{"total": int64(100), "items": entity.Ref{Entity: "item", ID: []any{}}}
	mock.ExpectQuery("SELECT version FROM `log_storage` WHERE entity_class = ? AND entity_id = ? ORDER BY version DESC LIMIT 0,1").
		WithArgs("order", "7").
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectExec("INSERT INTO `log_storage` (`action_type`, `blame`, `entity_class`, `entity_id`, `version`, `logged_at`, `data`) VALUES (?, ?, ?, ?, ?, ?, ?)").
		WithArgs("create", int64(3), "order", "7", int64(0), "2024-05-01 08:30:00", mustEncode(t, data)).
		WillReturnResult(sqlmock.NewResult(11, 1))

	v, err := w.Append(context.Background(), Record{Action: ActionCreate, EntityClass: "order", EntityID: int64(7), Blame: int64(3), Data: data})
	require.NoError(t, err)
	assert.Equal(t, int64(11), v.ID)
	assert.Equal(t, int64(0), v.Number)
	assert.Equal(t, "7", v.EntityID)
	assert.Equal(t, at.Truncate(time.Second), v.LoggedAt)

	mock.ExpectQuery("SELECT version FROM `log_storage` WHERE entity_class = ? AND entity_id = ? ORDER BY version DESC LIMIT 0,1").
		WithArgs("order", "7").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow([]byte("4")))
	mock.ExpectExec("INSERT INTO `log_storage` (`action_type`, `blame`, `entity_class`, `entity_id`, `version`, `logged_at`, `data`) VALUES (?, ?, ?, ?, ?, ?, ?)").
		WithArgs("update", nil, "order", "7", int64(5), "2024-05-01 08:30:00", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(12, 1))

	v, err = w.Append(context.Background(), Record{Action: ActionUpdate, EntityClass: "order", EntityID: "7"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.Number)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWriterAppendZone(t *testing.T) {
	drv, mock := newMock(t)
	cest := time.FixedZone("CEST", 2*60*60)
	at := time.Date(2024, 5, 1, 10, 30, 0, 0, cest)
	w := NewWriter(drv, "", func() time.Time { return at })

	mock.ExpectQuery("SELECT version FROM `log_storage` WHERE entity_class = ? AND entity_id = ? ORDER BY version DESC LIMIT 0,1").
		WithArgs("order", "7").
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectExec("INSERT INTO `log_storage` (`action_type`, `blame`, `entity_class`, `entity_id`, `version`, `logged_at`, `data`) VALUES (?, ?, ?, ?, ?, ?, ?)").
		WithArgs("create", nil, "order", "7", int64(0), "2024-05-01 08:30:00", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(11, 1))
	v, err := w.Append(context.Background(), Record{Action: ActionCreate, EntityClass: "order", EntityID: int64(7)})
	require.NoError(t, err)
	assert.True(t, at.Equal(v.LoggedAt))

	// The stored record reads back as the same instant.
	c := New(drv, "", "order", int64(7), nil)
	mock.ExpectQuery("SELECT * FROM `log_storage` WHERE entity_class = ? AND entity_id = ? AND logged_at = ? ORDER BY id DESC LIMIT 0,1").
		WithArgs("order", "7", "2024-05-01 08:30:00").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(int64(11), "create", nil, "order", "7", int64(0), "2024-05-01 08:30:00", nil))
	stored, err := c.VersionAt(context.Background(), at)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, v.LoggedAt, stored.LoggedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWriterAppendError(t *testing.T) {
	drv, mock := newMock(t)
	w := NewWriter(drv, "audit_log", nil)
	mock.ExpectQuery("SELECT version FROM `audit_log` WHERE entity_class = ? AND entity_id = ? ORDER BY version DESC LIMIT 0,1").
		WithArgs("order", "1").
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectExec("INSERT INTO `audit_log` (`action_type`, `blame`, `entity_class`, `entity_id`, `version`, `logged_at`, `data`) VALUES (?, ?, ?, ?, ?, ?, ?)").
		WillReturnError(assert.AnError)

	_, err := w.Append(context.Background(), Record{Action: ActionDelete, EntityClass: "order", EntityID: 1})
	require.Error(t, err)
	assert.True(t, dobee.IsDatabaseError(err))
}

func TestChangelog(t *testing.T) {
	drv, mock := newMock(t)
	var blamed []any
	c := New(drv, "", "order", int64(7), func(raw any) *entity.One {
		blamed = append(blamed, raw)
		return entity.NewOne("user", raw, nil)
	})
	assert.Equal(t, "order", c.EntityName())
	assert.Equal(t, "7", c.EntityID())

	v0 := mustEncode(t, entity.Snapshot{"total": int64(100)})
	v1 := mustEncode(t, entity.Snapshot{"total": int64(150)})
	mock.ExpectQuery("SELECT * FROM `log_storage` WHERE entity_class = ? AND entity_id = ? ORDER BY id DESC").
		WithArgs("order", "7").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(int64(21), "update", int64(3), "order", "7", int64(1), "2024-05-02 10:00:00", v1).
			AddRow(int64(20), "create", nil, "order", "7", int64(0), "2024-05-01 08:30:00", v0))

	ctx := context.Background()
	vs, err := c.Versions(ctx)
	require.NoError(t, err)
	require.Len(t, vs, 2)
	assert.Equal(t, int64(21), vs[0].ID)
	assert.Equal(t, ActionUpdate, vs[0].Action)
	assert.Equal(t, int64(1), vs[0].Number)
	assert.Equal(t, entity.Snapshot{"total": int64(150)}, vs[0].Data)
	assert.Equal(t, time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC), vs[0].LoggedAt)
	assert.Equal(t, int64(3), vs[0].Blame.Key())
	assert.Nil(t, vs[1].Blame)
	assert.Equal(t, []any{int64(3)}, blamed)

	// Served from memory.
	again, err := c.Versions(ctx)
	require.NoError(t, err)
	assert.Equal(t, vs, again)
	again[0] = nil
	again, err = c.Versions(ctx)
	require.NoError(t, err)
	assert.Same(t, vs[0], again[0])
	v, err := c.Version(ctx, 20)
	require.NoError(t, err)
	assert.Same(t, vs[1], v)

	mock.ExpectQuery("SELECT * FROM `log_storage` WHERE entity_class = ? AND entity_id = ? AND id = ? LIMIT 0,1").
		WithArgs("order", "7", int64(99)).
		WillReturnRows(sqlmock.NewRows(columns))
	v, err = c.Version(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, v)

	at := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT * FROM `log_storage` WHERE entity_class = ? AND entity_id = ? AND logged_at = ? ORDER BY id DESC LIMIT 0,1").
		WithArgs("order", "7", "2024-05-01 08:30:00").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(int64(20), "create", nil, "order", "7", int64(0), "2024-05-01 08:30:00", v0))
	v, err = c.VersionAt(ctx, at)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, int64(0), v.Number)
	v2, err := c.VersionAt(ctx, at)
	require.NoError(t, err)
	assert.Same(t, v, v2)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOf(t *testing.T) {
	e := &holder{}
	assert.Nil(t, Of(e))
	c := New(nil, "", "order", 1, nil)
	e.SetHistory(c)
	assert.Same(t, c, Of(e))
	assert.Nil(t, Of(nil))
}

type holder struct{ entity.Base }

func (*holder) EntityName() string { return "order" }

func (*holder) Accessors() *entity.Accessors { return entity.NewAccessors() }
