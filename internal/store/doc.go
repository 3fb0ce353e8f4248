// Package store provides pooled PostgreSQL access to an ORD database.
//
// The database must have the RDKit cartridge installed; see package querysql
// for the schema and function contract the compiled statements rely on.
//
// # Connections
//
// Callers acquire a connection per statement and release it when done:
//
//	conn, err := pool.Acquire(ctx)
//	if err != nil {
//	    return ClassifyError(OpAcquire, err, "")
//	}
//	defer conn.Release()
//
// A checked-out connection is used by one caller at a time. Cancelling ctx
// aborts the in-flight statement.
//
// # Error classification
//
// ClassifyError sorts driver failures into two kinds:
//   - the store is unreachable or out of capacity: *query.UnavailableError
//   - the store rejected the statement: EXECUTION *query.Error
//
// Context cancellation is passed through unchanged.
package store
