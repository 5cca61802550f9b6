// Package dialect defines the execution port the engine talks to.
//
// Statements are plain SQL text with positional "?" placeholders. The
// engine only needs two operations:
//
//	type ExecQuerier interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	}
//
// Both a Driver and a Tx satisfy ExecQuerier, so a provider built over a
// transaction runs a whole save inside it:
//
//	tx, err := drv.Tx(ctx)
//	if err != nil {
//	    return err
//	}
//	p, err := provider.New(tx, model, provider.WithEntities(models.Factories()...))
//	...
//	return tx.Commit()
//
// MySQL is the target dialect. The generated statements also run on SQLite,
// which is used as an embedded backend in tests.
//
// The dialect/sql package implements the port on top of database/sql.
package dialect
