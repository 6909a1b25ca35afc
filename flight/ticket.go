package flight

import (
	"fmt"

	"github.com/hugr-lab/pushdown-go/catalog"
	"github.com/hugr-lab/pushdown-go/internal/msgpack"
	"github.com/hugr-lab/pushdown-go/internal/serialize"
)

// TicketData represents the decoded content of a Flight ticket.
// Tickets are opaque MessagePack payloads naming the table to scan and
// the filters to push into the scan.
type TicketData struct {
	// Catalog is the catalog name (optional). Requires Schema.
	Catalog string `msgpack:"catalog,omitempty"`

	// Schema is the schema name (optional). Bare table names resolve
	// against catalog.DefaultSchema.
	Schema string `msgpack:"schema,omitempty"`

	// Table is the table name (required).
	Table string `msgpack:"table"`

	// Filters is DuckDB Airport filter pushdown JSON (optional).
	Filters []byte `msgpack:"filters,omitempty"`

	// Compressed reports whether Filters is ZStandard-compressed.
	// DecodeTicket always returns uncompressed filters.
	Compressed bool `msgpack:"compressed,omitempty"`

	// Columns to project (optional, nil means all columns)
	Columns []string `msgpack:"columns,omitempty"`
}

// Reference returns the table reference the ticket names.
func (td *TicketData) Reference() catalog.TableReference {
	switch {
	case td.Catalog != "":
		return catalog.Full(td.Catalog, td.Schema, td.Table)
	case td.Schema != "":
		return catalog.Partial(td.Schema, td.Table)
	}
	return catalog.Bare(td.Table)
}

func (td *TicketData) validate() error {
	if td.Table == "" {
		return fmt.Errorf("%w: table name cannot be empty", ErrInvalidTicket)
	}
	if td.Catalog != "" && td.Schema == "" {
		return fmt.Errorf("%w: catalog %q given without schema", ErrInvalidTicket, td.Catalog)
	}
	return nil
}

// EncodeTicket creates an opaque ticket from td. With compress set the
// filter JSON is ZStandard-compressed; td itself is not modified.
func EncodeTicket(td *TicketData, compress bool) ([]byte, error) {
	if td == nil {
		return nil, fmt.Errorf("%w: nil ticket data", ErrInvalidTicket)
	}
	if err := td.validate(); err != nil {
		return nil, err
	}

	out := *td
	out.Compressed = false
	if compress && len(td.Filters) > 0 {
		filters, err := serialize.Compress(td.Filters)
		if err != nil {
			return nil, fmt.Errorf("failed to compress filters: %w", err)
		}
		out.Filters = filters
		out.Compressed = true
	}

	data, err := msgpack.Encode(&out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ticket: %w", err)
	}
	return data, nil
}

// DecodeTicket parses an opaque ticket and decompresses its filters.
// Returns an error wrapping ErrInvalidTicket if the ticket cannot be used.
func DecodeTicket(ticketBytes []byte) (*TicketData, error) {
	if len(ticketBytes) == 0 {
		return nil, fmt.Errorf("%w: ticket cannot be empty", ErrInvalidTicket)
	}

	var td TicketData
	if err := msgpack.Decode(ticketBytes, &td); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTicket, err)
	}
	if err := td.validate(); err != nil {
		return nil, err
	}

	if td.Compressed {
		filters, err := serialize.Decompress(td.Filters)
		if err != nil {
			return nil, fmt.Errorf("%w: filters: %w", ErrInvalidTicket, err)
		}
		td.Filters = filters
		td.Compressed = false
	}
	return &td, nil
}
