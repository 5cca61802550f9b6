package sql

import (
	"context"
	"fmt"

	"github.com/airagroup/dobee/dialect"
)

// Row is one result row keyed by column name.
type Row map[string]any

// ScanRows reads all rows into column-keyed maps and closes them. Text
// columns delivered as []byte are returned as strings.
func ScanRows(rows ColumnScanner) ([]Row, error) {
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: columns: %w", err)
	}
	var out []Row
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("dialect/sql: scan: %w", err)
		}
		row := make(Row, len(columns))
		for i, c := range columns {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dialect/sql: rows: %w", err)
	}
	return out, nil
}

// QueryRows runs a query on the execution port and scans all rows.
func QueryRows(ctx context.Context, ex dialect.ExecQuerier, query string, args []any) ([]Row, error) {
	if args == nil {
		args = []any{}
	}
	rows := &Rows{}
	if err := ex.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	return ScanRows(rows)
}

// ExecResult runs a statement on the execution port and returns its result.
func ExecResult(ctx context.Context, ex dialect.ExecQuerier, query string, args []any) (Result, error) {
	if args == nil {
		args = []any{}
	}
	var res Result
	if err := ex.Exec(ctx, query, args, &res); err != nil {
		return nil, err
	}
	return res, nil
}
