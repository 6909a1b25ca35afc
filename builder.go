package pushdown

import (
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/pushdown-go/catalog"
)

// SimpleTableDef defines a table with fixed schema.
// Used with SchemaBuilder.SimpleTable().
type SimpleTableDef struct {
	// Name is the table name (e.g., "users", "orders").
	// REQUIRED: MUST be non-empty and unique within schema.
	Name string

	// Comment is optional table documentation.
	Comment string

	// Schema is the Arrow schema describing table columns.
	// REQUIRED: MUST NOT be nil.
	Schema *arrow.Schema

	// ScanFunc provides table data as RecordReader. It receives the pushed
	// filter in ScanOptions; the server applies the filter to its output.
	// REQUIRED: MUST NOT be nil.
	ScanFunc catalog.ScanFunc
}

// CatalogBuilder builds in-memory catalogs using fluent API.
// Not thread-safe - use only during initialization.
type CatalogBuilder struct {
	name    string
	schemas []*schemaBuilder
	built   bool
}

// NewCatalogBuilder creates a builder for a catalog called name.
//
//	cat, err := pushdown.NewCatalogBuilder("shop").
//	    Schema("main").
//	        SimpleTable(pushdown.SimpleTableDef{...}).
//	        Table(itemsTable).
//	    Build()
func NewCatalogBuilder(name string) *CatalogBuilder {
	return &CatalogBuilder{name: name}
}

// Schema starts defining a new schema.
// Schema name MUST be non-empty and unique within catalog.
func (cb *CatalogBuilder) Schema(name string) *SchemaBuilder {
	sb := &schemaBuilder{name: name, catalogBuilder: cb}
	cb.schemas = append(cb.schemas, sb)
	return &SchemaBuilder{builder: sb}
}

// Build validates the definitions and returns the catalog.
// Can only be called once.
func (cb *CatalogBuilder) Build() (*catalog.MemoryCatalog, error) {
	if cb.built {
		return nil, errors.New("catalog already built")
	}

	seenSchemas := make(map[string]bool)
	for _, sb := range cb.schemas {
		if sb.name == "" {
			return nil, errors.New("schema name cannot be empty")
		}
		if seenSchemas[sb.name] {
			return nil, fmt.Errorf("duplicate schema name: %s", sb.name)
		}
		seenSchemas[sb.name] = true

		seenTables := make(map[string]bool)
		for _, table := range sb.tables {
			if table == nil {
				return nil, fmt.Errorf("nil table in schema %s", sb.name)
			}
			if table.Name() == "" {
				return nil, fmt.Errorf("table name cannot be empty in schema %s", sb.name)
			}
			if seenTables[table.Name()] {
				return nil, fmt.Errorf("duplicate table name %s in schema %s", table.Name(), sb.name)
			}
			seenTables[table.Name()] = true

			if table.ArrowSchema(nil) == nil {
				return nil, fmt.Errorf("table %s.%s has nil schema", sb.name, table.Name())
			}
		}
		for _, def := range sb.defs {
			if def.ScanFunc == nil {
				return nil, fmt.Errorf("table %s.%s has nil scan function", sb.name, def.Name)
			}
		}
	}

	cb.built = true

	cat := catalog.NewMemoryCatalog(cb.name)
	for _, sb := range cb.schemas {
		cat.AddSchema(sb.name, sb.comment)
		for _, table := range sb.tables {
			cat.AddTable(sb.name, table)
		}
	}
	return cat, nil
}

// SchemaBuilder builds a schema within a catalog.
// Not thread-safe - use only during initialization.
type SchemaBuilder struct {
	builder *schemaBuilder
}

type schemaBuilder struct {
	name           string
	comment        string
	tables         []catalog.Table
	defs           []SimpleTableDef
	catalogBuilder *CatalogBuilder
}

// Comment sets optional schema documentation.
func (sb *SchemaBuilder) Comment(comment string) *SchemaBuilder {
	sb.builder.comment = comment
	return sb
}

// SimpleTable adds a table backed by def.ScanFunc.
func (sb *SchemaBuilder) SimpleTable(def SimpleTableDef) *SchemaBuilder {
	sb.builder.defs = append(sb.builder.defs, def)
	sb.builder.tables = append(sb.builder.tables,
		catalog.NewFuncTable(def.Name, def.Comment, def.Schema, def.ScanFunc))
	return sb
}

// Table adds an existing table, e.g. a *catalog.MemoryTable.
func (sb *SchemaBuilder) Table(table catalog.Table) *SchemaBuilder {
	sb.builder.tables = append(sb.builder.tables, table)
	return sb
}

// Schema starts a new schema definition (returns to CatalogBuilder).
// Allows chaining: Schema("a").Table(...).Schema("b").Table(...)
func (sb *SchemaBuilder) Schema(name string) *SchemaBuilder {
	return sb.builder.catalogBuilder.Schema(name)
}

// Build finalizes the catalog (returns to CatalogBuilder).
func (sb *SchemaBuilder) Build() (*catalog.MemoryCatalog, error) {
	return sb.builder.catalogBuilder.Build()
}
