package scan

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"golang.org/x/sync/errgroup"

	"github.com/hugr-lab/pushdown-go/dataset"
)

// Collect drains readers concurrently, applying filter to every batch, and
// returns the surviving batches in partition order. Collect releases the
// readers; the caller releases the returned batches.
//
// The first failing partition cancels the others and nothing is returned.
func Collect(ctx context.Context, mem memory.Allocator, filter dataset.Expression, readers ...array.RecordReader) ([]arrow.RecordBatch, error) {
	parts := make([][]arrow.RecordBatch, len(readers))

	g, gctx := errgroup.WithContext(ctx)
	for i, rdr := range readers {
		g.Go(func() error {
			fr := NewFilterReader(gctx, mem, rdr, filter)
			defer fr.Release()

			for fr.Next() {
				rec := fr.RecordBatch()
				rec.Retain()
				parts[i] = append(parts[i], rec)
			}
			if err := fr.Err(); err != nil {
				return fmt.Errorf("partition %d: %w", i, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, part := range parts {
			for _, rec := range part {
				rec.Release()
			}
		}
		return nil, err
	}

	var out []arrow.RecordBatch
	for _, part := range parts {
		out = append(out, part...)
	}
	return out, nil
}
