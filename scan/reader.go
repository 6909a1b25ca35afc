package scan

import (
	"context"
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/pushdown-go/dataset"
)

// NewFilterReader returns a reader yielding the rows of input for which
// filter is true. Batches left empty by the filter are skipped. Iteration
// stops with ctx.Err() once ctx is done.
//
// The returned reader owns input and releases it. A nil filter returns input
// unchanged.
func NewFilterReader(ctx context.Context, mem memory.Allocator, input array.RecordReader, filter dataset.Expression) array.RecordReader {
	if filter == nil {
		return input
	}
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	return &filterReader{
		refs:   1,
		ctx:    ctx,
		mem:    mem,
		input:  input,
		filter: filter,
	}
}

type filterReader struct {
	refs    int64
	ctx     context.Context
	mem     memory.Allocator
	input   array.RecordReader
	filter  dataset.Expression
	current arrow.RecordBatch
	err     error
}

func (r *filterReader) Schema() *arrow.Schema { return r.input.Schema() }

func (r *filterReader) Next() bool {
	if r.current != nil {
		r.current.Release()
		r.current = nil
	}
	if r.err != nil {
		return false
	}

	for {
		if err := r.ctx.Err(); err != nil {
			r.err = err
			return false
		}
		if !r.input.Next() {
			return false
		}

		out, err := dataset.Filter(r.ctx, r.mem, r.input.RecordBatch(), r.filter)
		if err != nil {
			r.err = err
			return false
		}
		if out.NumRows() == 0 {
			out.Release()
			continue
		}
		r.current = out
		return true
	}
}

func (r *filterReader) RecordBatch() arrow.RecordBatch { return r.current }

func (r *filterReader) Record() arrow.RecordBatch { return r.current }

func (r *filterReader) Err() error {
	if r.err != nil {
		return r.err
	}
	return r.input.Err()
}

func (r *filterReader) Retain() {
	atomic.AddInt64(&r.refs, 1)
}

func (r *filterReader) Release() {
	if atomic.AddInt64(&r.refs, -1) != 0 {
		return
	}
	if r.current != nil {
		r.current.Release()
		r.current = nil
	}
	r.input.Release()
}
