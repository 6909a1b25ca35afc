package translate

import "github.com/hugr-lab/pushdown-go/expr"

// extractScalarList converts IN list members to plain Go values for
// Builder.IsIn. The whole list fails on the first member that is not a
// literal or whose kind has no plain value.
//
// This path is narrower than Builder.Literal: NULL, binary, temporal, decimal
// and other kinds are rejected here even when the builder could materialize
// them as standalone literals.
func extractScalarList(list []expr.Expr) ([]any, error) {
	values := make([]any, 0, len(list))
	for _, e := range list {
		lit, ok := e.(*expr.Literal)
		if !ok {
			return nil, &Error{Kind: NonLiteralListElement, Detail: expr.Describe(e)}
		}
		v, ok := scalarToGo(lit.Value)
		if !ok {
			return nil, &Error{Kind: UnsupportedScalar, Detail: lit.Value.String()}
		}
		values = append(values, v)
	}
	return values, nil
}

// scalarToGo returns the Go value of a non-null boolean, integer, float or
// string scalar.
func scalarToGo(v expr.ScalarValue) (any, bool) {
	if v.IsNull() {
		return nil, false
	}
	switch v.Kind() {
	case expr.KindBoolean:
		return v.Bool(), true
	case expr.KindInt8:
		return int8(v.Int64()), true
	case expr.KindInt16:
		return int16(v.Int64()), true
	case expr.KindInt32:
		return int32(v.Int64()), true
	case expr.KindInt64:
		return v.Int64(), true
	case expr.KindUint8:
		return uint8(v.Uint64()), true
	case expr.KindUint16:
		return uint16(v.Uint64()), true
	case expr.KindUint32:
		return uint32(v.Uint64()), true
	case expr.KindUint64:
		return v.Uint64(), true
	case expr.KindFloat32:
		return float32(v.Float64()), true
	case expr.KindFloat64:
		return v.Float64(), true
	case expr.KindUtf8:
		return v.Str(), true
	default:
		return nil, false
	}
}
