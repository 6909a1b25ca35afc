package flight

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/pushdown-go/catalog"
	"github.com/hugr-lab/pushdown-go/internal/recovery"
)

// GetFlightInfo returns the schema of a table and a ticket to scan it.
//
// A PATH descriptor names the table with one to three elements
// ([table], [schema, table] or [catalog, schema, table]). A CMD descriptor
// carries an encoded ticket, which lets clients attach filters and a
// projection; the ticket is returned as is.
func (s *Server) GetFlightInfo(ctx context.Context, desc *flight.FlightDescriptor) (*flight.FlightInfo, error) {
	ctx = EnrichContext(ctx)
	logger := s.logger.With(requestAttrs(ctx)...)

	logger.Debug("GetFlightInfo called",
		"type", desc.GetType(),
		"path_length", len(desc.GetPath()),
	)

	var (
		td     *TicketData
		ticket []byte
		err    error
	)
	switch desc.GetType() {
	case flight.DescriptorPATH:
		td, err = ticketFromPath(desc.GetPath())
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		ticket, err = EncodeTicket(td, false)
		if err != nil {
			logger.Error("Failed to encode ticket", "error", err)
			return nil, status.Errorf(codes.Internal, "failed to encode ticket: %v", err)
		}
	case flight.DescriptorCMD:
		ticket = desc.GetCmd()
		td, err = DecodeTicket(ticket)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "%v", err)
		}
	default:
		return nil, status.Error(codes.InvalidArgument, "descriptor must be PATH or CMD type")
	}

	ref := td.Reference()
	table, err := recovery.RecoverToValue(logger, "Resolve", func() (catalog.Table, error) {
		return catalog.Resolve(ctx, s.catalog, ref, "")
	})
	if err != nil {
		logger.Error("Failed to resolve table", "table", ref.String(), "error", err)
		return nil, lookupStatus(err)
	}

	// DoGet streams the full schema; Columns is a scan hint only.
	arrowSchema := table.ArrowSchema(nil)
	if arrowSchema == nil {
		logger.Error("Table returned nil Arrow schema", "table", ref.String())
		return nil, status.Errorf(codes.Internal, "table %s has nil Arrow schema", ref)
	}

	logger.Debug("GetFlightInfo successful",
		"table", ref.String(),
		"num_fields", arrowSchema.NumFields(),
	)

	return &flight.FlightInfo{
		Schema:           flight.SerializeSchema(arrowSchema, s.allocator),
		FlightDescriptor: desc,
		Endpoint: []*flight.FlightEndpoint{
			{Ticket: &flight.Ticket{Ticket: ticket}},
		},
		TotalRecords: -1,
		TotalBytes:   -1,
	}, nil
}

func ticketFromPath(path []string) (*TicketData, error) {
	switch len(path) {
	case 1:
		return &TicketData{Table: path[0]}, nil
	case 2:
		return &TicketData{Schema: path[0], Table: path[1]}, nil
	case 3:
		return &TicketData{Catalog: path[0], Schema: path[1], Table: path[2]}, nil
	}
	return nil, fmt.Errorf("path must contain 1 to 3 elements: [[catalog,] [schema,] table], got %d", len(path))
}
