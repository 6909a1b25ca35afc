// Package recovery keeps panics in user-provided tables from crashing the
// server.
package recovery

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// ErrPanic wraps the error returned for a recovered panic.
var ErrPanic = errors.New("panic recovered")

// RecoverToValue calls fn and converts a panic into an error wrapping
// ErrPanic.
//
//	reader, err := recovery.RecoverToValue(logger, "Scan", func() (array.RecordReader, error) {
//	    return table.Scan(ctx, opts)
//	})
func RecoverToValue[T any](logger *slog.Logger, operation string, fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic recovered",
				"operation", operation,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			var zero T
			result = zero
			err = fmt.Errorf("%w: %s: %v", ErrPanic, operation, r)
		}
	}()

	return fn()
}

// Recover calls fn and logs a panic instead of propagating it.
// Use for cleanup where errors can't be returned.
func Recover(logger *slog.Logger, operation string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic recovered in cleanup",
				"operation", operation,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()

	fn()
}
