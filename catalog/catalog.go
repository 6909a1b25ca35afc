// Package catalog provides the tables a pushdown server scans.
//
// Catalogs hold schemas, schemas hold tables. Tables are addressed with a
// TableReference, which may be bare ("users"), partial ("main.users") or
// full ("db.main.users"); Resolve fills in the missing parts.
//
// All interfaces are goroutine-safe and support context-based cancellation.
package catalog

import (
	"context"
	"errors"
	"fmt"
)

// Catalog represents the top-level metadata container.
// All methods MUST be goroutine-safe.
type Catalog interface {
	// Name returns the catalog name used by full table references.
	Name() string

	// Schemas returns all schemas visible in this catalog.
	// Returns empty slice (not nil) if no schemas available.
	Schemas(ctx context.Context) ([]Schema, error)

	// Schema returns a specific schema by name.
	// Returns (nil, nil) if schema doesn't exist (not an error).
	Schema(ctx context.Context, name string) (Schema, error)
}

// Schema represents a database schema containing tables.
// Implementations MUST be goroutine-safe.
type Schema interface {
	// Name returns the schema name (e.g., "main").
	Name() string

	// Comment returns optional schema documentation.
	Comment() string

	// Tables returns all tables in this schema.
	// Returns empty slice (not nil) if no tables available.
	Tables(ctx context.Context) ([]Table, error)

	// Table returns a specific table by name.
	// Returns (nil, nil) if table doesn't exist (not an error).
	Table(ctx context.Context, name string) (Table, error)
}

// DefaultSchema is the schema bare table references resolve against.
const DefaultSchema = "main"

var (
	// ErrNotFound is returned by Resolve when the schema or table does not exist.
	ErrNotFound = errors.New("catalog entity not found")

	// ErrCatalogMismatch is returned by Resolve for a full reference naming
	// another catalog.
	ErrCatalogMismatch = errors.New("catalog name mismatch")
)

// Resolve looks up the table ref points to. A bare reference resolves
// against defaultSchema, or DefaultSchema when defaultSchema is empty.
func Resolve(ctx context.Context, cat Catalog, ref TableReference, defaultSchema string) (Table, error) {
	if ref.IsFull() && ref.Catalog() != cat.Name() {
		return nil, fmt.Errorf("%w: expected %q, got %q", ErrCatalogMismatch, cat.Name(), ref.Catalog())
	}

	schemaName := ref.Schema()
	if ref.IsBare() {
		schemaName = defaultSchema
		if schemaName == "" {
			schemaName = DefaultSchema
		}
	}

	schema, err := cat.Schema(ctx, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to get schema %q: %w", schemaName, err)
	}
	if schema == nil {
		return nil, fmt.Errorf("%w: schema %s", ErrNotFound, schemaName)
	}

	table, err := schema.Table(ctx, ref.Table())
	if err != nil {
		return nil, fmt.Errorf("failed to get table %s: %w", ref, err)
	}
	if table == nil {
		return nil, fmt.Errorf("%w: table %s.%s", ErrNotFound, schemaName, ref.Table())
	}
	return table, nil
}
