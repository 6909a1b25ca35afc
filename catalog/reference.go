package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// TableReference names a table, optionally qualified by schema and catalog.
// The zero value is invalid. TableReference is comparable and can be used as
// a map key.
type TableReference struct {
	catalog string
	schema  string
	table   string
	parts   int
}

// Bare returns an unqualified reference.
func Bare(table string) TableReference {
	return TableReference{table: table, parts: 1}
}

// Partial returns a schema-qualified reference.
func Partial(schema, table string) TableReference {
	return TableReference{schema: schema, table: table, parts: 2}
}

// Full returns a catalog- and schema-qualified reference.
func Full(catalog, schema, table string) TableReference {
	return TableReference{catalog: catalog, schema: schema, table: table, parts: 3}
}

// ErrInvalidReference is returned by ParseTableReference for malformed input.
var ErrInvalidReference = errors.New("invalid table reference")

// ParseTableReference parses "table", "schema.table" or
// "catalog.schema.table". Parts may be double-quoted to keep dots and case;
// unquoted parts are lower-cased.
func ParseTableReference(s string) (TableReference, error) {
	parts, err := splitIdentifiers(s)
	if err != nil {
		return TableReference{}, err
	}
	switch len(parts) {
	case 1:
		return Bare(parts[0]), nil
	case 2:
		return Partial(parts[0], parts[1]), nil
	case 3:
		return Full(parts[0], parts[1], parts[2]), nil
	}
	return TableReference{}, fmt.Errorf("%w: too many parts in %q", ErrInvalidReference, s)
}

func splitIdentifiers(s string) ([]string, error) {
	var parts []string
	var cur strings.Builder
	quoted, inQuotes, empty := false, false, true

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuotes && c == '"':
			if i+1 < len(s) && s[i+1] == '"' {
				cur.WriteByte('"')
				i++
				continue
			}
			inQuotes = false
		case inQuotes:
			cur.WriteByte(c)
		case c == '"':
			if !empty {
				return nil, fmt.Errorf("%w: unexpected quote in %q", ErrInvalidReference, s)
			}
			inQuotes, quoted, empty = true, true, false
		case c == '.':
			if empty {
				return nil, fmt.Errorf("%w: empty part in %q", ErrInvalidReference, s)
			}
			parts = append(parts, part(cur.String(), quoted))
			cur.Reset()
			quoted, empty = false, true
		default:
			if quoted {
				return nil, fmt.Errorf("%w: text after quoted part in %q", ErrInvalidReference, s)
			}
			cur.WriteByte(c)
			empty = false
		}
	}
	if inQuotes {
		return nil, fmt.Errorf("%w: unterminated quote in %q", ErrInvalidReference, s)
	}
	if empty {
		return nil, fmt.Errorf("%w: empty part in %q", ErrInvalidReference, s)
	}
	return append(parts, part(cur.String(), quoted)), nil
}

func part(s string, quoted bool) string {
	if quoted {
		return s
	}
	return strings.ToLower(s)
}

// Table returns the table name.
func (r TableReference) Table() string { return r.table }

// Schema returns the schema name, or "" for a bare reference.
func (r TableReference) Schema() string { return r.schema }

// Catalog returns the catalog name, or "" unless the reference is full.
func (r TableReference) Catalog() string { return r.catalog }

func (r TableReference) IsBare() bool    { return r.parts == 1 }
func (r TableReference) IsPartial() bool { return r.parts == 2 }
func (r TableReference) IsFull() bool    { return r.parts == 3 }

// String renders the reference in a form ParseTableReference reads back,
// quoting parts that are not plain lower-case identifiers.
func (r TableReference) String() string {
	switch r.parts {
	case 2:
		return quoteIdent(r.schema) + "." + quoteIdent(r.table)
	case 3:
		return quoteIdent(r.catalog) + "." + quoteIdent(r.schema) + "." + quoteIdent(r.table)
	}
	return quoteIdent(r.table)
}

func quoteIdent(s string) string {
	plain := s != ""
	for i := 0; i < len(s) && plain; i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
			plain = i > 0
		default:
			plain = false
		}
	}
	if plain {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
