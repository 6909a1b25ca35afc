package dataset

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/arrow/scalar"

	"github.com/hugr-lab/pushdown-go/expr"
	"github.com/hugr-lab/pushdown-go/translate"
)

// Builder constructs dataset expressions for the translate package.
// The zero value is ready to use.
type Builder struct{}

var _ translate.Builder[Expression] = Builder{}

func (Builder) Field(name string) Expression { return Field(name) }

func (Builder) Literal(v expr.ScalarValue) (Expression, error) {
	s, err := ScalarToArrow(v)
	if err != nil {
		return nil, err
	}
	return Scalar(s)
}

func (Builder) Eq(l, r Expression) Expression  { return Equal(l, r) }
func (Builder) Ne(l, r Expression) Expression  { return NotEqual(l, r) }
func (Builder) Lt(l, r Expression) Expression  { return Less(l, r) }
func (Builder) Le(l, r Expression) Expression  { return LessEqual(l, r) }
func (Builder) Gt(l, r Expression) Expression  { return Greater(l, r) }
func (Builder) Ge(l, r Expression) Expression  { return GreaterEqual(l, r) }
func (Builder) And(l, r Expression) Expression { return And(l, r) }
func (Builder) Or(l, r Expression) Expression  { return Or(l, r) }

func (Builder) Invert(e Expression) Expression  { return Invert(e) }
func (Builder) IsValid(e Expression) Expression { return IsValid(e) }

func (Builder) IsNull(e Expression, nanIsNull bool) Expression { return IsNull(e, nanIsNull) }

func (Builder) IsIn(e Expression, values []any) (Expression, error) {
	return IsIn(e, values...)
}

// ScalarToArrow materializes a scalar value as an Arrow scalar.
// NULL and unrecognized kinds fail with translate.ErrUnsupportedScalar.
func ScalarToArrow(v expr.ScalarValue) (scalar.Scalar, error) {
	if v.IsNull() {
		return nil, fmt.Errorf("%w: %s", translate.ErrUnsupportedScalar, v)
	}
	switch v.Kind() {
	case expr.KindBoolean:
		return scalar.NewBooleanScalar(v.Bool()), nil
	case expr.KindInt8:
		return scalar.NewInt8Scalar(int8(v.Int64())), nil
	case expr.KindInt16:
		return scalar.NewInt16Scalar(int16(v.Int64())), nil
	case expr.KindInt32:
		return scalar.NewInt32Scalar(int32(v.Int64())), nil
	case expr.KindInt64:
		return scalar.NewInt64Scalar(v.Int64()), nil
	case expr.KindUint8:
		return scalar.NewUint8Scalar(uint8(v.Uint64())), nil
	case expr.KindUint16:
		return scalar.NewUint16Scalar(uint16(v.Uint64())), nil
	case expr.KindUint32:
		return scalar.NewUint32Scalar(uint32(v.Uint64())), nil
	case expr.KindUint64:
		return scalar.NewUint64Scalar(v.Uint64()), nil
	case expr.KindFloat32:
		return scalar.NewFloat32Scalar(float32(v.Float64())), nil
	case expr.KindFloat64:
		return scalar.NewFloat64Scalar(v.Float64()), nil
	case expr.KindUtf8:
		return scalar.NewStringScalar(v.Str()), nil
	case expr.KindBinary:
		return scalar.NewBinaryScalar(memory.NewBufferBytes(v.Bytes()), arrow.BinaryTypes.Binary), nil
	case expr.KindDate32:
		return scalar.NewDate32Scalar(arrow.Date32(v.Int64())), nil
	case expr.KindTimestamp:
		typ := &arrow.TimestampType{Unit: arrowTimeUnit(v.TimeUnit()), TimeZone: v.Timezone()}
		return scalar.NewTimestampScalar(arrow.Timestamp(v.Int64()), typ), nil
	case expr.KindDecimal:
		if err := expr.CheckDecimal(v.Str(), v.Precision(), v.Scale()); err != nil {
			return nil, fmt.Errorf("%w: %w", translate.ErrUnsupportedScalar, err)
		}
		num, err := decimal128.FromString(v.Str(), v.Precision(), v.Scale())
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", translate.ErrUnsupportedScalar, v, err)
		}
		typ := &arrow.Decimal128Type{Precision: v.Precision(), Scale: v.Scale()}
		return scalar.NewDecimal128Scalar(num, typ), nil
	}
	return nil, fmt.Errorf("%w: %s", translate.ErrUnsupportedScalar, v)
}

func arrowTimeUnit(u expr.TimeUnit) arrow.TimeUnit {
	switch u {
	case expr.Second:
		return arrow.Second
	case expr.Millisecond:
		return arrow.Millisecond
	case expr.Microsecond:
		return arrow.Microsecond
	}
	return arrow.Nanosecond
}
