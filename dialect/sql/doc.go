// Package sql implements the dialect execution port on top of database/sql.
//
// Statements run through Conn.Exec and Conn.Query. Engine failures come back
// as *dobee.DatabaseError carrying the engine's error code and message (the
// MySQL error number for the MySQL driver), broken connections as
// *dobee.ConnectionError:
//
//	drv, err := sql.Connect(ctx, dialect.MySQL, dsn)
//	if err != nil {
//	    return err // *dobee.ConnectionError
//	}
//	rows, err := sql.QueryRows(ctx, drv, "SELECT this.* FROM dobee_order this", nil)
//
// StatsDriver and DebugDriver wrap any dialect.Driver with statement
// statistics, slow statement logging and per-statement debug logging.
package sql
