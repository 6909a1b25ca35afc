// Package pushdown serves Arrow tables over Arrow Flight to the DuckDB
// Airport extension, pushing DuckDB's filters down into the table scans.
//
// The filter pushdown pipeline lives in subpackages:
//   - expr: the filter expression tree and its scalar values
//   - translate: the translator from expr trees to a target expression
//     algebra, parameterised by a Builder
//   - dataset: an Arrow expression algebra with a vectorized evaluator
//   - filter: the DuckDB filter JSON parser and a DuckDB SQL builder
//   - scan: per-conjunct pushdown planning and filtered record readers
//   - catalog: table references, tables and in-memory catalogs
//   - flight: the Flight RPC handlers
//
// This package wires them into a gRPC server.
//
// # Quick Start
//
//	rec := buildUsers() // arrow.RecordBatch with columns id, name
//	users, err := catalog.NewMemoryTable("users", "", rec.Schema(), nil, rec)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cat, err := pushdown.NewCatalogBuilder("demo").
//	    Schema("main").
//	        Table(users).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	config := pushdown.ServerConfig{Catalog: cat}
//	grpcServer := grpc.NewServer(pushdown.ServerOptions(config)...)
//	if err := pushdown.NewServer(grpcServer, config); err != nil {
//	    log.Fatal(err)
//	}
//	lis, _ := net.Listen("tcp", ":50051")
//	grpcServer.Serve(lis)
//
// # Filter Pushdown
//
// A DoGet ticket carries the filter JSON DuckDB produced for the query.
// The server splits the filters into top-level conjuncts and translates each
// one into a dataset.Expression. Conjuncts that do not translate (unknown
// functions, LIKE, casts, arithmetic...) are logged at Debug level and left
// to DuckDB, which re-applies every filter on its side. Dropping a conjunct
// therefore only widens the scan.
//
// Tables receive the pushed filter in catalog.ScanOptions. A table that
// implements catalog.FilteringTable applies it itself; the output of any
// other table is filtered by the server before streaming.
//
// # Logging
//
// The package logs through log/slog. Set ServerConfig.Logger, or
// ServerConfig.LogLevel for a text logger on stderr; otherwise
// slog.Default() is used.
//
// # Memory Management
//
// Arrow uses manual reference counting. Callers MUST call Release() on:
//   - RecordReaders returned by scan functions
//   - Records and Arrays created during processing
package pushdown
