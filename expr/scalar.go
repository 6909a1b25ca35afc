package expr

import (
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies the type of a ScalarValue.
type Kind int

const (
	KindNull Kind = iota
	KindBoolean
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindUtf8
	KindBinary
	KindDate32
	KindTimestamp
	KindDecimal
	// KindOther covers types the tree can carry but nothing here interprets
	// (intervals, UUIDs, nested values, ...).
	KindOther
)

var kindNames = [...]string{
	KindNull:      "Null",
	KindBoolean:   "Boolean",
	KindInt8:      "Int8",
	KindInt16:     "Int16",
	KindInt32:     "Int32",
	KindInt64:     "Int64",
	KindUint8:     "UInt8",
	KindUint16:    "UInt16",
	KindUint32:    "UInt32",
	KindUint64:    "UInt64",
	KindFloat32:   "Float32",
	KindFloat64:   "Float64",
	KindUtf8:      "Utf8",
	KindBinary:    "Binary",
	KindDate32:    "Date32",
	KindTimestamp: "Timestamp",
	KindDecimal:   "Decimal",
	KindOther:     "Other",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// IsSigned reports whether k is a signed integer kind.
func (k Kind) IsSigned() bool {
	return k >= KindInt8 && k <= KindInt64
}

// IsUnsigned reports whether k is an unsigned integer kind.
func (k Kind) IsUnsigned() bool {
	return k >= KindUint8 && k <= KindUint64
}

// IsFloat reports whether k is a floating-point kind.
func (k Kind) IsFloat() bool {
	return k == KindFloat32 || k == KindFloat64
}

// TimeUnit is the resolution of a timestamp scalar.
type TimeUnit int

const (
	Second TimeUnit = iota
	Millisecond
	Microsecond
	Nanosecond
)

func (u TimeUnit) String() string {
	switch u {
	case Second:
		return "s"
	case Millisecond:
		return "ms"
	case Microsecond:
		return "us"
	case Nanosecond:
		return "ns"
	}
	return "unit(" + strconv.Itoa(int(u)) + ")"
}

// ScalarValue is a typed constant. A value may be valid or a typed null
// (e.g. an Int32 NULL); the zero ScalarValue is an untyped NULL.
//
// Only the payload field matching the kind is meaningful.
type ScalarValue struct {
	kind  Kind
	valid bool

	i int64
	u uint64
	f float64
	s string
	b []byte

	unit     TimeUnit
	timezone string

	precision int32
	scale     int32
	typeName  string
}

// Null returns an untyped NULL.
func Null() ScalarValue { return ScalarValue{} }

// NullOf returns a typed NULL of kind k.
func NullOf(k Kind) ScalarValue { return ScalarValue{kind: k} }

// Bool returns a boolean scalar.
func Bool(v bool) ScalarValue {
	s := ScalarValue{kind: KindBoolean, valid: true}
	if v {
		s.i = 1
	}
	return s
}

// Int8 returns a signed 8-bit integer scalar.
func Int8(v int8) ScalarValue { return ScalarValue{kind: KindInt8, valid: true, i: int64(v)} }

// Int16 returns a signed 16-bit integer scalar.
func Int16(v int16) ScalarValue { return ScalarValue{kind: KindInt16, valid: true, i: int64(v)} }

// Int32 returns a signed 32-bit integer scalar.
func Int32(v int32) ScalarValue { return ScalarValue{kind: KindInt32, valid: true, i: int64(v)} }

// Int64 returns a signed 64-bit integer scalar.
func Int64(v int64) ScalarValue { return ScalarValue{kind: KindInt64, valid: true, i: v} }

// Uint8 returns an unsigned 8-bit integer scalar.
func Uint8(v uint8) ScalarValue { return ScalarValue{kind: KindUint8, valid: true, u: uint64(v)} }

// Uint16 returns an unsigned 16-bit integer scalar.
func Uint16(v uint16) ScalarValue { return ScalarValue{kind: KindUint16, valid: true, u: uint64(v)} }

// Uint32 returns an unsigned 32-bit integer scalar.
func Uint32(v uint32) ScalarValue { return ScalarValue{kind: KindUint32, valid: true, u: uint64(v)} }

// Uint64 returns an unsigned 64-bit integer scalar.
func Uint64(v uint64) ScalarValue { return ScalarValue{kind: KindUint64, valid: true, u: v} }

// Float32 returns a single precision scalar. NaN and infinities are kept.
func Float32(v float32) ScalarValue { return ScalarValue{kind: KindFloat32, valid: true, f: float64(v)} }

// Float64 returns a double precision scalar. NaN and infinities are kept.
func Float64(v float64) ScalarValue { return ScalarValue{kind: KindFloat64, valid: true, f: v} }

// Utf8 returns a string scalar.
func Utf8(v string) ScalarValue { return ScalarValue{kind: KindUtf8, valid: true, s: v} }

// Blob returns a byte-string scalar. The slice is not copied.
func Blob(v []byte) ScalarValue { return ScalarValue{kind: KindBinary, valid: true, b: v} }

// Date32 returns a date scalar holding days since the Unix epoch.
func Date32(days int32) ScalarValue {
	return ScalarValue{kind: KindDate32, valid: true, i: int64(days)}
}

// Timestamp returns a timestamp scalar of v units since the Unix epoch.
// An empty timezone means a naive (zone-less) timestamp.
func Timestamp(v int64, unit TimeUnit, timezone string) ScalarValue {
	return ScalarValue{kind: KindTimestamp, valid: true, i: v, unit: unit, timezone: timezone}
}

// Decimal returns a fixed-point scalar from its decimal text (e.g. "12.50").
// The text is not checked; see CheckDecimal.
func Decimal(text string, precision, scale int32) ScalarValue {
	return ScalarValue{kind: KindDecimal, valid: true, s: text, precision: precision, scale: scale}
}

// MaxDecimalPrecision is the widest DECIMAL carried as a 128-bit integer.
const MaxDecimalPrecision = 38

// ErrInvalidDecimal reports decimal text that is not a plain fixed-point
// number fitting its precision and scale.
var ErrInvalidDecimal = errors.New("expr: invalid decimal")

var decimalPattern = regexp.MustCompile(`^[+-]?([0-9]+)(?:\.([0-9]+))?$`)

// CheckDecimal validates text such as "-12.50" against DECIMAL(precision,
// scale). Only an optional sign, digits and one decimal point are accepted;
// fractional digits beyond scale are an error, not rounded.
func CheckDecimal(text string, precision, scale int32) error {
	if precision < 1 || precision > MaxDecimalPrecision || scale < 0 || scale > precision {
		return fmt.Errorf("%w: DECIMAL(%d, %d)", ErrInvalidDecimal, precision, scale)
	}
	m := decimalPattern.FindStringSubmatch(text)
	if m == nil {
		return fmt.Errorf("%w: %q", ErrInvalidDecimal, text)
	}
	intDigits := strings.TrimLeft(m[1], "0")
	if len(m[2]) > int(scale) || len(intDigits) > int(precision-scale) {
		return fmt.Errorf("%w: %q does not fit DECIMAL(%d, %d)", ErrInvalidDecimal, text, precision, scale)
	}
	return nil
}

// Other returns a scalar of a type this package does not model.
// typeName names the source type, text is its rendering.
func Other(typeName, text string) ScalarValue {
	return ScalarValue{kind: KindOther, valid: true, s: text, typeName: typeName}
}

// Kind returns the scalar's kind. Untyped NULL reports KindNull.
func (s ScalarValue) Kind() Kind { return s.kind }

// IsNull reports whether the scalar is a (typed or untyped) NULL.
func (s ScalarValue) IsNull() bool { return !s.valid }

// Bool returns the value of a Boolean scalar.
func (s ScalarValue) Bool() bool { return s.i != 0 }

// Int64 returns the value of a signed integer, Date32 or Timestamp scalar.
func (s ScalarValue) Int64() int64 { return s.i }

// Uint64 returns the value of an unsigned integer scalar.
func (s ScalarValue) Uint64() uint64 { return s.u }

// Float64 returns the value of a floating-point scalar.
func (s ScalarValue) Float64() float64 { return s.f }

// Str returns the text of a Utf8, Decimal or Other scalar.
func (s ScalarValue) Str() string { return s.s }

// Bytes returns the value of a Binary scalar.
func (s ScalarValue) Bytes() []byte { return s.b }

// TimeUnit returns the unit of a Timestamp scalar.
func (s ScalarValue) TimeUnit() TimeUnit { return s.unit }

// Timezone returns the zone of a Timestamp scalar.
func (s ScalarValue) Timezone() string { return s.timezone }

// Precision returns the precision of a Decimal scalar.
func (s ScalarValue) Precision() int32 { return s.precision }

// Scale returns the scale of a Decimal scalar.
func (s ScalarValue) Scale() int32 { return s.scale }

// TypeName returns the source type name of an Other scalar, or the kind name.
func (s ScalarValue) TypeName() string {
	if s.kind == KindOther && s.typeName != "" {
		return s.typeName
	}
	return s.kind.String()
}

// String renders the scalar as Kind(value), e.g. Int32(30) or Utf8(NULL).
func (s ScalarValue) String() string {
	if s.kind == KindNull {
		return "NULL"
	}
	if !s.valid {
		return s.TypeName() + "(NULL)"
	}
	return s.TypeName() + "(" + s.text() + ")"
}

// text renders the payload without the kind prefix.
func (s ScalarValue) text() string {
	switch {
	case s.kind == KindBoolean:
		return strconv.FormatBool(s.Bool())
	case s.kind.IsSigned(), s.kind == KindDate32:
		return strconv.FormatInt(s.i, 10)
	case s.kind.IsUnsigned():
		return strconv.FormatUint(s.u, 10)
	case s.kind == KindFloat32:
		return strconv.FormatFloat(s.f, 'g', -1, 32)
	case s.kind == KindFloat64:
		return strconv.FormatFloat(s.f, 'g', -1, 64)
	case s.kind == KindUtf8:
		return strconv.Quote(s.s)
	case s.kind == KindBinary:
		return "0x" + hex.EncodeToString(s.b)
	case s.kind == KindTimestamp:
		if s.timezone != "" {
			return fmt.Sprintf("%d%s, %s", s.i, s.unit, s.timezone)
		}
		return strconv.FormatInt(s.i, 10) + s.unit.String()
	case s.kind == KindDecimal:
		return fmt.Sprintf("%s, %d, %d", s.s, s.precision, s.scale)
	default:
		return s.s
	}
}
