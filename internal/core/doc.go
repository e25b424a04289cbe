// Package core provides lazy, pull-based pipelines over relational rows.
//
// The package streams records from a row store without materializing the
// result set, regroups them into batches, filters them, paginates them on
// demand and aggregates over them incrementally. It is independent of any
// specific database driver: drivers plug in through [Provider], [Conn] and
// [Cursor].
//
// # Streams
//
// Every pipeline stage is a [Stream]: a single-pass iterator driven by the
// caller. Nothing advances a stream except a call to Next, and each call
// advances the underlying cursor by at most one row:
//
//	rows, err := core.NewRowStream(provider, core.Query{SQL: "SELECT * FROM user_data"})
//	if err != nil {
//	    return err
//	}
//	defer rows.Close()
//
//	for rows.Next(ctx) {
//	    fmt.Println(rows.Value())
//	}
//	return rows.Err()
//
// [All] adapts any stream to a range-over-func sequence that closes the
// stream when the loop ends, including on break:
//
//	for rec, err := range core.All(ctx, rows) {
//	    ...
//	}
//
// # Composition
//
//	Provider -> RowStream -> BatchStream -> FilterStream
//	Provider -> RowStream -> FieldValues -> Average
//	Provider -> Paginator -> PageStream
//
// Closing the outermost stage closes everything beneath it.
//
// # Resource Lifetime
//
// A [RowStream] opens its connection on the first call to Next and releases
// the cursor and connection exactly once: when the result set is exhausted,
// when an error terminates the stream, or when Close is called, whichever
// comes first. A [Paginator] holds a connection only for the duration of a
// single Fetch.
//
// # Error Handling
//
// Fatal errors terminate a stream and are reported by Err:
//
//   - [ConnectionError]: the connection could not be established or was lost
//   - [DataSourceError]: query execution or cursor iteration failed
//   - [ErrInvalidArgument]: rejected before any connection is opened
//
// [ConversionError] is never fatal. Filtering and aggregation skip the
// offending record, log a warning and continue.
//
// Technical errors are mapped to short user-facing messages with [MapError].
package core
