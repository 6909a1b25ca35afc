package pushdown

import (
	"errors"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/pushdown-go/auth"
	"github.com/hugr-lab/pushdown-go/catalog"
)

// ServerConfig contains configuration for the pushdown Flight server.
type ServerConfig struct {
	// Catalog provides the schemas and tables served.
	// REQUIRED: MUST NOT be nil.
	Catalog catalog.Catalog

	// Auth provides authentication logic.
	// OPTIONAL: If nil, no authentication (all requests allowed).
	// Enforced by the interceptors ServerOptions installs.
	Auth auth.Authenticator

	// Allocator for Arrow memory management.
	// OPTIONAL: Uses memory.DefaultAllocator if nil.
	Allocator memory.Allocator

	// Logger for internal logging.
	// OPTIONAL: Uses slog.Default() if nil.
	// If LogLevel is also set, LogLevel is ignored (use pre-configured logger).
	Logger *slog.Logger

	// LogLevel creates a text logger on stderr with that level when Logger
	// is nil.
	// OPTIONAL: If nil, uses slog.Default().
	LogLevel *slog.Level

	// MaxMessageSize sets maximum gRPC message size in bytes.
	// OPTIONAL: If 0, uses gRPC default (4MB).
	// Recommended: 16MB for large Arrow batches.
	MaxMessageSize int

	// MaxFilterDepth bounds the height of a pushed-down filter conjunct.
	// Deeper conjuncts are left to the client.
	// OPTIONAL: If 0, there is no bound.
	MaxFilterDepth int
}

// Standard errors returned by pushdown package.
var (
	// ErrUnauthorized indicates authentication failed.
	// Return this from Authenticator.Authenticate() for invalid tokens.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidConfig indicates ServerConfig validation failed.
	ErrInvalidConfig = errors.New("invalid server config")
)
