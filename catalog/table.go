package catalog

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/hugr-lab/pushdown-go/dataset"
	"github.com/hugr-lab/pushdown-go/expr"
)

// Table represents a queryable table with fixed schema.
// Implementations MUST be goroutine-safe.
type Table interface {
	// Name returns the table name (e.g., "users", "orders").
	// MUST return non-empty string.
	Name() string

	// Comment returns optional table documentation.
	Comment() string

	// ArrowSchema returns the schema describing table columns.
	// If columns is non-empty, returns the projection to those columns.
	ArrowSchema(columns []string) *arrow.Schema

	// Scan executes a scan operation and returns a RecordReader.
	// Context allows cancellation; implementation MUST respect ctx.Done().
	// Caller MUST call reader.Release() to free memory.
	// Returned RecordReader schema MUST match ArrowSchema(nil).
	Scan(ctx context.Context, opts *ScanOptions) (array.RecordReader, error)
}

// FilteringTable is implemented by tables whose Scan drops every row
// ScanOptions.Filter rejects. Servers do not filter the output of such
// tables again.
type FilteringTable interface {
	Table
	AppliesFilter() bool
}

// ScanOptions provides options for table scans.
type ScanOptions struct {
	// Columns to return. If nil/empty, return all columns.
	// A hint only: the reader still returns the full schema.
	Columns []string

	// Filter is the pushed-down predicate. Rows for which it is false or
	// NULL may be dropped. Nil means no filtering.
	Filter dataset.Expression

	// Predicates are the conjuncts Filter was built from, for tables that
	// push them further (e.g. into SQL with filter.EncodeFilters).
	Predicates []expr.Expr

	// BatchSize is hint for RecordReader batch size.
	// If 0, implementation chooses default.
	BatchSize int
}

// ScanFunc is the signature of a table scan.
type ScanFunc func(ctx context.Context, opts *ScanOptions) (array.RecordReader, error)

// ProjectSchema returns schema restricted to columns, in column order.
// Unknown columns are skipped; nil or empty columns return schema itself.
func ProjectSchema(schema *arrow.Schema, columns []string) *arrow.Schema {
	if len(columns) == 0 || schema == nil {
		return schema
	}
	fields := make([]arrow.Field, 0, len(columns))
	for _, name := range columns {
		for _, idx := range schema.FieldIndices(name) {
			fields = append(fields, schema.Field(idx))
		}
	}
	md := schema.Metadata()
	return arrow.NewSchema(fields, &md)
}

// FuncTable is a table backed by a ScanFunc.
type FuncTable struct {
	name     string
	comment  string
	schema   *arrow.Schema
	scanFunc ScanFunc
}

// NewFuncTable returns a table whose Scan calls scanFunc.
func NewFuncTable(name, comment string, schema *arrow.Schema, scanFunc ScanFunc) *FuncTable {
	return &FuncTable{
		name:     name,
		comment:  comment,
		schema:   schema,
		scanFunc: scanFunc,
	}
}

func (t *FuncTable) Name() string    { return t.name }
func (t *FuncTable) Comment() string { return t.comment }

func (t *FuncTable) ArrowSchema(columns []string) *arrow.Schema {
	return ProjectSchema(t.schema, columns)
}

func (t *FuncTable) Scan(ctx context.Context, opts *ScanOptions) (array.RecordReader, error) {
	return t.scanFunc(ctx, opts)
}
