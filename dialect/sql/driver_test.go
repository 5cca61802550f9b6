package sql

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airagroup/dobee"
	"github.com/airagroup/dobee/dialect"
)

func TestOpenDB(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
	}{
		{"MySQL", dialect.MySQL},
		{"SQLite", dialect.SQLite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, _, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			drv := OpenDB(tt.dialect, db)
			assert.Equal(t, tt.dialect, drv.Dialect())
			assert.Same(t, db, drv.DB())
		})
	}
}

func TestConnQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(dialect.MySQL, db)

	mock.ExpectQuery("SELECT this.\\* FROM dobee_item this").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "price"}).
			AddRow(int64(1), []byte("pen"), 1.5).
			AddRow(int64(2), "cup", nil))

	rows, err := QueryRows(context.Background(), drv, "SELECT this.* FROM dobee_item this WHERE (this.order_id = ?)", []any{int64(1)})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{"id": int64(1), "title": "pen", "price": 1.5}, rows[0])
	assert.Equal(t, Row{"id": int64(2), "title": "cup", "price": nil}, rows[1])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConnExec(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(dialect.MySQL, db)

	mock.ExpectExec("INSERT INTO dobee_item").
		WithArgs("pen").
		WillReturnResult(sqlmock.NewResult(42, 1))
	res, err := ExecResult(context.Background(), drv, "INSERT INTO dobee_item (`title`) VALUES (?)", []any{"pen"})
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	mock.ExpectExec("DELETE FROM dobee_item").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, drv.Exec(context.Background(), "DELETE FROM dobee_item WHERE `id` = ?", []any{1}, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConnInvalidArgs(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(dialect.MySQL, db)

	err = drv.Exec(context.Background(), "SELECT 1", "bad", nil)
	assert.ErrorContains(t, err, "expect []any for args")
	err = drv.Query(context.Background(), "SELECT 1", []any{}, new(int))
	assert.ErrorContains(t, err, "expect *sql.Rows")
	err = drv.Exec(context.Background(), "SELECT 1", []any{}, new(int))
	assert.ErrorContains(t, err, "expect *sql.Result")
}

func TestDatabaseErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(dialect.MySQL, db)

	mock.ExpectExec("INSERT INTO dobee_tag").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'x' for key 'label'"})
	err = drv.Exec(context.Background(), "INSERT INTO dobee_tag (`label`) VALUES (?)", []any{"x"}, nil)
	require.Error(t, err)

	var dbErr *dobee.DatabaseError
	require.True(t, errors.As(err, &dbErr))
	assert.Equal(t, 1062, dbErr.Code)
	assert.Equal(t, "Duplicate entry 'x' for key 'label'", dbErr.Message)
	assert.Equal(t, "INSERT INTO dobee_tag (`label`) VALUES (?)", dbErr.Query)
	assert.True(t, IsUniqueConstraintError(err))
	assert.True(t, IsConstraintError(err))
	assert.False(t, IsForeignKeyConstraintError(err))

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("table missing"))
	_, err = QueryRows(context.Background(), drv, "SELECT this.* FROM dobee_ghost this", nil)
	require.True(t, errors.As(err, &dbErr))
	assert.Equal(t, 0, dbErr.Code)
	assert.Equal(t, "table missing", dbErr.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, WrapError("q", nil))

	err := WrapError("q", context.Canceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, dobee.IsDatabaseError(err))

	err = WrapError("q", mysql.ErrInvalidConn)
	assert.True(t, dobee.IsConnectionError(err))

	err = WrapError("q", &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"})
	assert.True(t, IsForeignKeyConstraintError(err))
	err = WrapError("q", &mysql.MySQLError{Number: 3819, Message: "Check constraint violated"})
	assert.True(t, IsCheckConstraintError(err))
}

func TestStatsDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var slow []string
	drv := NewStatsDriver(OpenDB(dialect.MySQL, db),
		WithSlowThreshold(0),
		WithSlowQueryHook(func(_ context.Context, query string, _ []any, _ time.Duration) {
			slow = append(slow, query)
		}),
	)
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("UPDATE dobee_item").WillReturnError(errors.New("boom"))

	_, err = QueryRows(context.Background(), drv, "SELECT 1", nil)
	require.NoError(t, err)
	require.Error(t, drv.Exec(context.Background(), "UPDATE dobee_item SET `title` = ?", []any{"x"}, nil))

	s := drv.QueryStats().Snapshot()
	assert.Equal(t, int64(1), s.Queries)
	assert.Equal(t, int64(1), s.Execs)
	assert.Equal(t, int64(1), s.Errors)
	assert.Equal(t, int64(2), s.Slow)
	assert.Equal(t, []string{"SELECT 1", "UPDATE dobee_item SET `title` = ?"}, slow)
	assert.Contains(t, s.String(), "queries=1 execs=1")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDebugDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	drv := NewDebugDriver(OpenDB(dialect.MySQL, db), logger)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM dobee_item").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := drv.Tx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Exec(context.Background(), "DELETE FROM dobee_item WHERE `id` = ?", []any{1}, nil))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())

	out := buf.String()
	assert.Contains(t, out, "begin transaction")
	assert.Contains(t, out, "tx exec")
	assert.Contains(t, out, "commit transaction")
}
