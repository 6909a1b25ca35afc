package flight

import (
	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ListFlights sends one FlightInfo per table, with a ticket that scans the
// table unfiltered. A non-empty criteria expression restricts the listing
// to the schema it names.
func (s *Server) ListFlights(criteria *flight.Criteria, stream flight.FlightService_ListFlightsServer) error {
	ctx := EnrichContext(stream.Context())
	logger := s.logger.With(requestAttrs(ctx)...)
	only := string(criteria.GetExpression())

	logger.Debug("ListFlights called", "schema", only)

	schemas, err := s.catalog.Schemas(ctx)
	if err != nil {
		logger.Error("Failed to list schemas", "error", err)
		return status.Errorf(codes.Internal, "failed to list schemas: %v", err)
	}

	sent := 0
	for _, schema := range schemas {
		if only != "" && schema.Name() != only {
			continue
		}
		tables, err := schema.Tables(ctx)
		if err != nil {
			logger.Error("Failed to list tables", "schema", schema.Name(), "error", err)
			return status.Errorf(codes.Internal, "failed to list tables of %s: %v", schema.Name(), err)
		}

		for _, table := range tables {
			td := &TicketData{Catalog: s.catalog.Name(), Schema: schema.Name(), Table: table.Name()}
			ticket, err := EncodeTicket(td, false)
			if err != nil {
				return status.Errorf(codes.Internal, "failed to encode ticket: %v", err)
			}

			info := &flight.FlightInfo{
				FlightDescriptor: &flight.FlightDescriptor{
					Type: flight.DescriptorPATH,
					Path: []string{schema.Name(), table.Name()},
				},
				Endpoint: []*flight.FlightEndpoint{
					{Ticket: &flight.Ticket{Ticket: ticket}},
				},
				TotalRecords: -1,
				TotalBytes:   -1,
			}
			if arrowSchema := table.ArrowSchema(nil); arrowSchema != nil {
				info.Schema = flight.SerializeSchema(arrowSchema, s.allocator)
			}

			if err := stream.Send(info); err != nil {
				logger.Error("Failed to send FlightInfo", "error", err)
				return status.Errorf(codes.Internal, "failed to send flight info: %v", err)
			}
			sent++
		}
	}

	logger.Debug("ListFlights completed successfully", "flights", sent)
	return nil
}
