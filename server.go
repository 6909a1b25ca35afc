package pushdown

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"google.golang.org/grpc"

	"github.com/hugr-lab/pushdown-go/flight"
	"github.com/hugr-lab/pushdown-go/scan"
)

// NewServer registers the Flight service handlers on the provided gRPC server.
//
// The function:
//  1. Validates the ServerConfig
//  2. Creates the Flight service with a filter planner
//  3. Registers it on grpcServer
//
// Does NOT start the gRPC server - user controls lifecycle via grpcServer.Serve().
// Create grpcServer with ServerOptions to get authentication and request
// metadata logging:
//
//	grpcServer := grpc.NewServer(pushdown.ServerOptions(config)...)
//	if err := pushdown.NewServer(grpcServer, config); err != nil {
//	    log.Fatal(err)
//	}
//	lis, _ := net.Listen("tcp", ":50051")
//	grpcServer.Serve(lis)
func NewServer(grpcServer *grpc.Server, config ServerConfig) error {
	if err := validateConfig(config); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	logger := configLogger(config)
	planner := scan.NewPlanner(logger)
	planner.MaxDepth = config.MaxFilterDepth

	flightServer := flight.NewServer(config.Catalog, config.Allocator, logger, planner)
	flight.RegisterFlightServer(grpcServer, flightServer)

	logger.Info("Pushdown Flight server registered",
		"catalog", config.Catalog.Name(),
		"has_auth", config.Auth != nil,
		"max_message_size", config.MaxMessageSize,
		"max_filter_depth", config.MaxFilterDepth,
	)
	return nil
}

// validateConfig checks that required ServerConfig fields are valid.
func validateConfig(config ServerConfig) error {
	if config.Catalog == nil {
		return errors.New("catalog is required")
	}
	if config.MaxMessageSize < 0 {
		return fmt.Errorf("max message size must be non-negative, got %d", config.MaxMessageSize)
	}
	if config.MaxFilterDepth < 0 {
		return fmt.Errorf("max filter depth must be non-negative, got %d", config.MaxFilterDepth)
	}
	return nil
}

func configLogger(config ServerConfig) *slog.Logger {
	switch {
	case config.Logger != nil:
		return config.Logger
	case config.LogLevel != nil:
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: *config.LogLevel}))
	}
	return slog.Default()
}

// ServerOptions returns gRPC server options for config: interceptors that
// record request metadata and, when config.Auth is set, authenticate
// requests, plus the message size limits.
//
//	opts := pushdown.ServerOptions(config)
//	grpcServer := grpc.NewServer(opts...)
//	pushdown.NewServer(grpcServer, config)
func ServerOptions(config ServerConfig) []grpc.ServerOption {
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(flight.UnaryServerInterceptor(config.Auth)),
		grpc.ChainStreamInterceptor(flight.StreamServerInterceptor(config.Auth)),
	}

	if config.MaxMessageSize > 0 {
		opts = append(opts,
			grpc.MaxRecvMsgSize(config.MaxMessageSize),
			grpc.MaxSendMsgSize(config.MaxMessageSize),
		)
	}
	return opts
}
