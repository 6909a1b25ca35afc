package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/pushdown-go/scan"
)

// MemoryCatalog is a catalog held in memory. Schemas and tables can be added
// at any time; lookups are safe for concurrent use.
type MemoryCatalog struct {
	name string

	mu      sync.RWMutex
	schemas map[string]*memorySchema
}

// NewMemoryCatalog returns an empty catalog.
func NewMemoryCatalog(name string) *MemoryCatalog {
	return &MemoryCatalog{
		name:    name,
		schemas: make(map[string]*memorySchema),
	}
}

func (c *MemoryCatalog) Name() string { return c.name }

// AddSchema adds an empty schema, or updates the comment of an existing one.
func (c *MemoryCatalog) AddSchema(name, comment string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.schemas[name]; ok {
		s.comment = comment
		return
	}
	c.schemas[name] = &memorySchema{name: name, comment: comment, tables: make(map[string]Table)}
}

// AddTable adds t to the named schema, creating the schema if needed.
// A table of the same name is replaced.
func (c *MemoryCatalog) AddTable(schema string, t Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.schemas[schema]
	if !ok {
		s = &memorySchema{name: schema, tables: make(map[string]Table)}
		c.schemas[schema] = s
	}
	s.mu.Lock()
	s.tables[t.Name()] = t
	s.mu.Unlock()
}

// Table resolves ref against the catalog, with bare references looked up in
// DefaultSchema.
func (c *MemoryCatalog) Table(ctx context.Context, ref TableReference) (Table, error) {
	return Resolve(ctx, c, ref, DefaultSchema)
}

func (c *MemoryCatalog) Schemas(ctx context.Context) ([]Schema, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Schema, 0, len(c.schemas))
	for _, s := range c.schemas {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result, nil
}

func (c *MemoryCatalog) Schema(ctx context.Context, name string) (Schema, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.schemas[name]
	if !ok {
		return nil, nil
	}
	return s, nil
}

type memorySchema struct {
	name    string
	comment string

	mu     sync.RWMutex
	tables map[string]Table
}

func (s *memorySchema) Name() string    { return s.name }
func (s *memorySchema) Comment() string { return s.comment }

func (s *memorySchema) Tables(ctx context.Context) ([]Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]Table, 0, len(s.tables))
	for _, t := range s.tables {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result, nil
}

func (s *memorySchema) Table(ctx context.Context, name string) (Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	if !ok {
		return nil, nil
	}
	return t, nil
}

// MemoryTable serves record batches held in memory and applies the pushed
// filter itself.
type MemoryTable struct {
	name    string
	comment string
	schema  *arrow.Schema
	records []arrow.RecordBatch
	mem     memory.Allocator
}

var _ FilteringTable = (*MemoryTable)(nil)

// NewMemoryTable returns a table over records, which must all have schema.
// The table retains the records; call Release when it is no longer used.
// A nil mem uses memory.DefaultAllocator for filtered output.
func NewMemoryTable(name, comment string, schema *arrow.Schema, mem memory.Allocator, records ...arrow.RecordBatch) (*MemoryTable, error) {
	for i, rec := range records {
		if !rec.Schema().Equal(schema) {
			return nil, fmt.Errorf("record %d does not match schema of table %s", i, name)
		}
	}
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	for _, rec := range records {
		rec.Retain()
	}
	return &MemoryTable{
		name:    name,
		comment: comment,
		schema:  schema,
		records: records,
		mem:     mem,
	}, nil
}

func (t *MemoryTable) Name() string    { return t.name }
func (t *MemoryTable) Comment() string { return t.comment }

func (t *MemoryTable) ArrowSchema(columns []string) *arrow.Schema {
	return ProjectSchema(t.schema, columns)
}

func (t *MemoryTable) AppliesFilter() bool { return true }

// Scan returns the stored batches with opts.Filter applied.
func (t *MemoryTable) Scan(ctx context.Context, opts *ScanOptions) (array.RecordReader, error) {
	rdr, err := array.NewRecordReader(t.schema, t.records)
	if err != nil {
		return nil, fmt.Errorf("failed to create reader for table %s: %w", t.name, err)
	}
	if opts == nil || opts.Filter == nil {
		return rdr, nil
	}
	return scan.NewFilterReader(ctx, t.mem, rdr, opts.Filter), nil
}

// Release drops the table's references to its records.
func (t *MemoryTable) Release() {
	for _, rec := range t.records {
		rec.Release()
	}
	t.records = nil
}
