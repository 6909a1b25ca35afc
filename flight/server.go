// Package flight serves catalog tables over Arrow Flight with filter
// pushdown.
//
// A DoGet ticket names a table and may carry DuckDB Airport filter JSON.
// The server parses the filters, pushes what it can into the table scan and
// streams the surviving rows.
package flight

import (
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc"

	"github.com/hugr-lab/pushdown-go/catalog"
	"github.com/hugr-lab/pushdown-go/scan"
)

// Server implements the Flight service handlers.
// Embeds BaseFlightServer for forward compatibility with protocol changes.
type Server struct {
	flight.BaseFlightServer

	catalog   catalog.Catalog
	allocator memory.Allocator
	logger    *slog.Logger
	planner   *scan.Planner
}

// NewServer creates a Flight server over cat. A nil planner plans with
// scan.NewPlanner(logger).
func NewServer(cat catalog.Catalog, allocator memory.Allocator, logger *slog.Logger, planner *scan.Planner) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if allocator == nil {
		allocator = memory.DefaultAllocator
	}
	if planner == nil {
		planner = scan.NewPlanner(logger)
	}
	return &Server{
		catalog:   cat,
		allocator: allocator,
		logger:    logger,
		planner:   planner,
	}
}

// RegisterFlightServer registers the Flight service on the provided gRPC server.
func RegisterFlightServer(grpcServer *grpc.Server, flightServer *Server) {
	flight.RegisterFlightServiceServer(grpcServer, flightServer)
}
