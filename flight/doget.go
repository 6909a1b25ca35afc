package flight

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/pushdown-go/catalog"
	"github.com/hugr-lab/pushdown-go/dataset"
	"github.com/hugr-lab/pushdown-go/filter"
	"github.com/hugr-lab/pushdown-go/internal/recovery"
	"github.com/hugr-lab/pushdown-go/scan"
)

// DoGet streams the rows of a table that survive the ticket's filters.
//
// The handler:
//  1. Decodes the ticket (EncodeTicket) and resolves the table it names
//  2. Parses the filter JSON, plans which conjuncts are pushed given the
//     table schema and checks the pushed columns exist
//  3. Calls the table's Scan with the pushed filter
//  4. Validates the RecordReader schema matches table schema
//  5. Applies the pushed filter unless the table applies it itself
//  6. Streams record batches using Arrow IPC format
//
// Conjuncts that cannot be pushed are left to the client.
func (s *Server) DoGet(ticket *flight.Ticket, stream flight.FlightService_DoGetServer) error {
	ctx := EnrichContext(stream.Context())
	logger := s.logger.With(requestAttrs(ctx)...)

	logger.Debug("DoGet called", "ticket_size", len(ticket.GetTicket()))

	td, err := DecodeTicket(ticket.GetTicket())
	if err != nil {
		logger.Error("Failed to decode ticket", "error", err)
		return status.Errorf(codes.InvalidArgument, "%v", err)
	}
	ref := td.Reference()
	logger = logger.With("table", ref.String())

	table, err := recovery.RecoverToValue(logger, "Resolve", func() (catalog.Table, error) {
		return catalog.Resolve(ctx, s.catalog, ref, "")
	})
	if err != nil {
		logger.Error("Failed to resolve table", "error", err)
		return lookupStatus(err)
	}

	fullSchema := table.ArrowSchema(nil)
	if fullSchema == nil {
		logger.Error("Table returned nil Arrow schema")
		return status.Errorf(codes.Internal, "table %s has nil Arrow schema", ref)
	}

	opts, err := s.scanOptions(td, fullSchema, logger)
	if err != nil {
		return err
	}
	if opts.Filter != nil {
		for _, name := range dataset.FieldNames(opts.Filter) {
			if !fullSchema.HasField(name) {
				logger.Error("Filter references unknown column", "column", name)
				return status.Errorf(codes.InvalidArgument, "filter references unknown column %q of table %s", name, ref)
			}
		}
	}

	reader, err := recovery.RecoverToValue(logger, "Scan", func() (array.RecordReader, error) {
		return table.Scan(ctx, opts)
	})
	if err != nil {
		logger.Error("Table scan failed", "error", err)
		return status.Errorf(codes.Internal, "table scan failed: %v", err)
	}
	if reader == nil {
		logger.Error("Table scan returned nil reader")
		return status.Errorf(codes.Internal, "table %s returned nil reader", ref)
	}

	if !fullSchema.Equal(reader.Schema()) {
		logger.Error("RecordReader schema does not match table schema",
			"table_schema_fields", fullSchema.NumFields(),
			"reader_schema_fields", reader.Schema().NumFields(),
		)
		recovery.Recover(logger, "Release", reader.Release)
		return status.Errorf(codes.Internal,
			"schema mismatch: table has %d fields, reader has %d fields",
			fullSchema.NumFields(), reader.Schema().NumFields())
	}

	if ft, ok := table.(catalog.FilteringTable); !ok || !ft.AppliesFilter() {
		reader = scan.NewFilterReader(ctx, s.allocator, reader, opts.Filter)
	}
	defer recovery.Recover(logger, "Release", reader.Release)

	return s.streamRecords(ctx, logger, fullSchema, reader, stream)
}

// scanOptions parses the ticket's filters and plans their pushdown against
// the table schema.
func (s *Server) scanOptions(td *TicketData, schema *arrow.Schema, logger *slog.Logger) (*catalog.ScanOptions, error) {
	opts := &catalog.ScanOptions{Columns: td.Columns}
	if len(td.Filters) == 0 {
		return opts, nil
	}

	fp, err := filter.Parse(td.Filters)
	if err != nil {
		logger.Error("Failed to parse filters", "error", err)
		return nil, status.Errorf(codes.InvalidArgument, "invalid filters: %v", err)
	}

	plan := s.planner.PlanTable(schema, fp.Filters)
	opts.Filter = plan.Filter
	opts.Predicates = plan.Pushed

	logger.Debug("Filters planned",
		"pushed", len(plan.Pushed),
		"residual", len(plan.Residual),
	)
	return opts, nil
}

func (s *Server) streamRecords(ctx context.Context, logger *slog.Logger, schema *arrow.Schema, reader array.RecordReader, stream flight.FlightService_DoGetServer) error {
	writer := flight.NewRecordWriter(stream, ipc.WithSchema(schema), ipc.WithAllocator(s.allocator))
	defer writer.Close()

	batchCount := 0
	totalRows := int64(0)

	for reader.Next() {
		select {
		case <-ctx.Done():
			logger.Debug("DoGet cancelled by client",
				"batches_sent", batchCount,
				"rows_sent", totalRows,
			)
			return status.Error(codes.Canceled, "request cancelled")
		default:
		}

		record := reader.RecordBatch()
		batchCount++
		totalRows += record.NumRows()

		if err := writer.Write(record); err != nil {
			logger.Error("Failed to write record batch",
				"batch", batchCount,
				"error", err,
			)
			return status.Errorf(codes.Internal, "failed to write batch %d: %v", batchCount, err)
		}
	}

	if err := reader.Err(); err != nil && !errors.Is(err, io.EOF) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			logger.Debug("DoGet cancelled by client",
				"batches_sent", batchCount,
				"rows_sent", totalRows,
			)
			return status.Error(codes.Canceled, "request cancelled")
		}
		logger.Error("RecordReader error during iteration",
			"batch", batchCount,
			"error", err,
		)
		return status.Errorf(codes.Internal, "scan error after batch %d: %v", batchCount, err)
	}

	logger.Debug("DoGet completed successfully",
		"batches_sent", batchCount,
		"total_rows", totalRows,
	)
	return nil
}
