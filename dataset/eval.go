package dataset

import (
	"context"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/arrow/scalar"
)

// ErrNotBoolean is returned when a filter expression does not produce a
// boolean result.
var ErrNotBoolean = errors.New("dataset: expression is not boolean")

type evaluator struct {
	ctx context.Context
	mem memory.Allocator
	rec arrow.RecordBatch
}

// Evaluate computes e over every row of rec with the Arrow compute kernels.
// Null results are kept as nulls in the returned mask. The caller releases
// the mask.
func Evaluate(ctx context.Context, mem memory.Allocator, rec arrow.RecordBatch, e Expression) (*array.Boolean, error) {
	ev := &evaluator{ctx: compute.WithAllocator(ctx, mem), mem: mem, rec: rec}
	out, err := ev.eval(e)
	if err != nil {
		return nil, err
	}
	defer out.Release()

	switch d := out.(type) {
	case *compute.ArrayDatum:
		arr := d.MakeArray()
		mask, ok := arr.(*array.Boolean)
		if !ok {
			arr.Release()
			return nil, fmt.Errorf("%w: %s is %s", ErrNotBoolean, e, d.Type())
		}
		return mask, nil
	case *compute.ScalarDatum:
		if d.Type().ID() != arrow.BOOL {
			return nil, fmt.Errorf("%w: %s is %s", ErrNotBoolean, e, d.Type())
		}
		arr, err := scalar.MakeArrayFromScalar(d.Value, int(rec.NumRows()), mem)
		if err != nil {
			return nil, err
		}
		return arr.(*array.Boolean), nil
	}
	return nil, fmt.Errorf("%w: %s produced %s", ErrNotBoolean, e, out.Kind())
}

// Filter returns the rows of rec for which e is true. Rows where e is
// false or null are dropped. The caller releases the result.
func Filter(ctx context.Context, mem memory.Allocator, rec arrow.RecordBatch, e Expression) (arrow.RecordBatch, error) {
	mask, err := Evaluate(ctx, mem, rec, e)
	if err != nil {
		return nil, err
	}
	defer mask.Release()

	if mask.NullN() == 0 && countTrue(mask) == mask.Len() {
		rec.Retain()
		return rec, nil
	}
	ctx = compute.WithAllocator(ctx, mem)
	return compute.FilterRecordBatch(ctx, rec, mask, compute.DefaultFilterOptions())
}

func countTrue(mask *array.Boolean) int {
	n := 0
	for i := 0; i < mask.Len(); i++ {
		if mask.IsValid(i) && mask.Value(i) {
			n++
		}
	}
	return n
}

// eval returns a datum the caller releases.
func (ev *evaluator) eval(e Expression) (compute.Datum, error) {
	switch n := e.(type) {
	case *fieldRef:
		return ev.field(n.name)
	case *literal:
		return compute.NewDatum(n.scalar), nil
	case *call:
		return ev.call(n)
	case nil:
		return nil, errors.New("dataset: nil expression")
	}
	return nil, fmt.Errorf("dataset: unknown expression %T", e)
}

func (ev *evaluator) field(name string) (compute.Datum, error) {
	idx := ev.rec.Schema().FieldIndices(name)
	switch len(idx) {
	case 0:
		return nil, fmt.Errorf("dataset: field %q not found", name)
	case 1:
		return compute.NewDatum(ev.rec.Column(idx[0])), nil
	}
	return nil, fmt.Errorf("dataset: field %q is ambiguous", name)
}

func (ev *evaluator) call(c *call) (compute.Datum, error) {
	args := make([]compute.Datum, 0, len(c.args))
	defer func() {
		for _, a := range args {
			a.Release()
		}
	}()
	for _, a := range c.args {
		d, err := ev.eval(a)
		if err != nil {
			return nil, err
		}
		args = append(args, d)
	}

	switch c.fn {
	case fnIsValid:
		return ev.nullTest("is_not_null", args[0])
	case fnIsNull:
		return ev.isNull(args[0], c.nanIsNull)
	case fnIsIn:
		if c.valueSet == nil {
			return compute.NewDatum(false), nil
		}
		opts := &compute.SetOptions{
			ValueSet:     compute.NewDatumWithoutOwning(c.valueSet),
			NullBehavior: compute.NullMatchingMatch,
		}
		return ev.exec(fnIsIn, opts, args...)
	}

	name := c.fn
	if k, ok := kernels[name]; ok {
		name = k
	}
	return ev.exec(name, nil, args...)
}

// isNull ORs is_nan into is_null for floating point inputs.
func (ev *evaluator) isNull(arg compute.Datum, nanIsNull bool) (compute.Datum, error) {
	nulls, err := ev.nullTest(fnIsNull, arg)
	if err != nil || !nanIsNull {
		return nulls, err
	}
	typed, ok := arg.(compute.ArrayLikeDatum)
	if !ok || !arrow.IsFloating(typed.Type().ID()) {
		return nulls, nil
	}
	defer nulls.Release()

	nans, err := ev.exec("is_nan", nil, arg)
	if err != nil {
		return nil, err
	}
	defer nans.Release()
	return ev.exec(fnOr, nil, nulls, nans)
}

// nullTest evaluates is_null or is_not_null. The compute dispatch for these
// functions reads a second argument type when the input is decimal, so
// decimal inputs are answered from the validity bitmap.
func (ev *evaluator) nullTest(fn string, arg compute.Datum) (compute.Datum, error) {
	typed, ok := arg.(compute.ArrayLikeDatum)
	if !ok || !arrow.IsDecimal(typed.Type().ID()) {
		return ev.exec(fn, nil, arg)
	}
	want := fn == fnIsNull
	switch d := arg.(type) {
	case *compute.ScalarDatum:
		return compute.NewDatum(d.Value.IsValid() != want), nil
	case *compute.ArrayDatum:
		arr := d.MakeArray()
		defer arr.Release()

		b := array.NewBooleanBuilder(ev.mem)
		defer b.Release()
		b.Reserve(arr.Len())
		for i := 0; i < arr.Len(); i++ {
			b.UnsafeAppend(arr.IsNull(i) == want)
		}
		out := b.NewBooleanArray()
		defer out.Release()
		return compute.NewDatum(out), nil
	}
	return nil, fmt.Errorf("dataset: %s: unsupported input %s", fn, arg.Kind())
}

func (ev *evaluator) exec(name string, opts compute.FunctionOptions, args ...compute.Datum) (compute.Datum, error) {
	out, err := compute.CallFunction(ev.ctx, name, opts, args...)
	if err != nil {
		return nil, fmt.Errorf("dataset: %s: %w", name, err)
	}
	return out, nil
}
