package flight

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/pushdown-go/catalog"
)

// ErrInvalidTicket is returned by EncodeTicket and DecodeTicket for
// malformed tickets.
var ErrInvalidTicket = errors.New("invalid ticket")

// lookupStatus maps a table lookup error to a gRPC status.
func lookupStatus(err error) error {
	switch {
	case errors.Is(err, catalog.ErrCatalogMismatch):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	}
	return status.Errorf(codes.Internal, "table lookup failed: %v", err)
}
