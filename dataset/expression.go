package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/arrow/scalar"
)

// Expression is a filter expression over the columns of an Arrow record
// batch. It is immutable and safe for concurrent use.
//
// Expressions are built with the package-level constructors or with a
// Builder, and are evaluated with Evaluate or Filter.
type Expression interface {
	// String renders the expression in Arrow dataset notation,
	// for example "((a > 30) and is_valid(b))".
	String() string

	expression()
}

// Compute function names used by call nodes.
const (
	fnEqual        = "equal"
	fnNotEqual     = "not_equal"
	fnLess         = "less"
	fnLessEqual    = "less_equal"
	fnGreater      = "greater"
	fnGreaterEqual = "greater_equal"
	fnAnd          = "and_kleene"
	fnOr           = "or_kleene"
	fnInvert       = "invert"
	fnIsValid      = "is_valid"
	fnIsNull       = "is_null"
	fnIsIn         = "is_in"
)

// kernels maps call names that differ from their compute function.
var kernels = map[string]string{
	fnInvert: "not",
}

var infix = map[string]string{
	fnEqual:        "==",
	fnNotEqual:     "!=",
	fnLess:         "<",
	fnLessEqual:    "<=",
	fnGreater:      ">",
	fnGreaterEqual: ">=",
	fnAnd:          "and",
	fnOr:           "or",
}

type fieldRef struct {
	name string
}

func (*fieldRef) expression() {}

func (f *fieldRef) String() string { return f.name }

type literal struct {
	scalar scalar.Scalar
}

func (*literal) expression() {}

func (l *literal) String() string { return scalarString(l.scalar) }

func scalarString(s scalar.Scalar) string {
	switch x := s.(type) {
	case *scalar.String:
		return strconv.Quote(string(x.Value.Bytes()))
	case *scalar.Binary:
		return fmt.Sprintf("%q", x.Value.Bytes())
	case *scalar.Boolean, *scalar.Float32, *scalar.Float64:
		return s.String()
	}
	if arrow.IsInteger(s.DataType().ID()) {
		return s.String()
	}
	return s.DataType().String() + "(" + s.String() + ")"
}

type call struct {
	fn   string
	args []Expression

	nanIsNull bool        // is_null
	valueSet  arrow.Array // is_in, nil when empty
}

func (*call) expression() {}

func (c *call) String() string {
	if op, ok := infix[c.fn]; ok {
		return "(" + c.args[0].String() + " " + op + " " + c.args[1].String() + ")"
	}
	switch c.fn {
	case fnIsNull:
		return "is_null(" + c.args[0].String() + ", {nan_is_null=" + strconv.FormatBool(c.nanIsNull) + "})"
	case fnIsIn:
		vals := "[]"
		if c.valueSet != nil {
			vals = c.valueSet.DataType().String() + c.valueSet.String()
		}
		return "is_in(" + c.args[0].String() + ", {value_set=" + vals + ", skip_nulls=false})"
	}
	return c.fn + "(" + c.args[0].String() + ")"
}

// Field references the column with the given name.
func Field(name string) Expression {
	return &fieldRef{name: name}
}

// Scalar wraps a valid Arrow scalar as a literal.
func Scalar(s scalar.Scalar) (Expression, error) {
	if s == nil || !s.IsValid() {
		return nil, errors.New("dataset: literal must be a valid scalar")
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	return &literal{scalar: s}, nil
}

func binary(fn string, left, right Expression) Expression {
	return &call{fn: fn, args: []Expression{left, right}}
}

// Equal compares left == right. Comparisons with a null operand are null.
func Equal(left, right Expression) Expression { return binary(fnEqual, left, right) }

// NotEqual compares left != right.
func NotEqual(left, right Expression) Expression { return binary(fnNotEqual, left, right) }

// Less compares left < right.
func Less(left, right Expression) Expression { return binary(fnLess, left, right) }

// LessEqual compares left <= right.
func LessEqual(left, right Expression) Expression { return binary(fnLessEqual, left, right) }

// Greater compares left > right.
func Greater(left, right Expression) Expression { return binary(fnGreater, left, right) }

// GreaterEqual compares left >= right.
func GreaterEqual(left, right Expression) Expression { return binary(fnGreaterEqual, left, right) }

// And is the Kleene conjunction: false wins over null.
func And(left, right Expression) Expression { return binary(fnAnd, left, right) }

// Or is the Kleene disjunction: true wins over null.
func Or(left, right Expression) Expression { return binary(fnOr, left, right) }

// Invert is boolean negation; null stays null.
func Invert(e Expression) Expression {
	return &call{fn: fnInvert, args: []Expression{e}}
}

// IsValid is true for non-null values.
func IsValid(e Expression) Expression {
	return &call{fn: fnIsValid, args: []Expression{e}}
}

// IsNull is true for null values, and for NaN when nanIsNull is set.
func IsNull(e Expression, nanIsNull bool) Expression {
	return &call{fn: fnIsNull, args: []Expression{e}, nanIsNull: nanIsNull}
}

// IsIn tests membership in a set of plain Go values (bool, integers,
// floats, string, []byte). A null input yields false, never null.
//
// Members of different numeric types are widened to a common type.
func IsIn(e Expression, values ...any) (Expression, error) {
	set, err := valueSet(values)
	if err != nil {
		return nil, err
	}
	return &call{fn: fnIsIn, args: []Expression{e}, valueSet: set}, nil
}

// valueSet builds the is_in lookup array. It is allocated from the Go heap
// and lives as long as the expression.
func valueSet(values []any) (arrow.Array, error) {
	if len(values) == 0 {
		return nil, nil
	}
	scalars := make([]scalar.Scalar, len(values))
	for i, v := range values {
		switch x := v.(type) {
		case bool, int8, int16, int32, int64, uint8, uint16, uint32, uint64,
			float32, float64, string, []byte:
		case int:
			v = int64(x)
		default:
			return nil, fmt.Errorf("dataset: unsupported set value of type %T", v)
		}
		scalars[i] = scalar.MakeScalar(v)
	}

	typ := commonSetType(scalars)
	if typ == nil {
		return nil, fmt.Errorf("dataset: set values of mixed types %s and others", scalars[0].DataType())
	}
	for i, sc := range scalars {
		if arrow.TypeEqual(sc.DataType(), typ) {
			continue
		}
		if u, ok := sc.(*scalar.Uint64); ok && typ.ID() == arrow.INT64 && u.Value > math.MaxInt64 {
			return nil, fmt.Errorf("dataset: set value %d overflows int64", u.Value)
		}
		cast, err := sc.CastTo(typ)
		if err != nil {
			return nil, fmt.Errorf("dataset: set value %s: %w", sc, err)
		}
		scalars[i] = cast
	}

	b := array.NewBuilder(memory.DefaultAllocator, typ)
	defer b.Release()
	if err := scalar.AppendSlice(b, scalars); err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	return b.NewArray(), nil
}

// commonSetType returns the type every member can be represented as, or
// nil when numeric and non-numeric members are mixed.
func commonSetType(scalars []scalar.Scalar) arrow.DataType {
	first := scalars[0].DataType()
	same := true
	var sawFloat, sawSigned, sawOther bool
	for _, sc := range scalars {
		dt := sc.DataType()
		if !arrow.TypeEqual(dt, first) {
			same = false
		}
		switch {
		case arrow.IsFloating(dt.ID()):
			sawFloat = true
		case arrow.IsSignedInteger(dt.ID()):
			sawSigned = true
		case arrow.IsUnsignedInteger(dt.ID()):
		default:
			sawOther = true
		}
	}
	switch {
	case same:
		return first
	case sawOther:
		return nil
	case sawFloat:
		return arrow.PrimitiveTypes.Float64
	case sawSigned:
		return arrow.PrimitiveTypes.Int64
	}
	return arrow.PrimitiveTypes.Uint64
}

// Equivalent reports whether a and b describe the same computation.
func Equivalent(a, b Expression) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}

// FieldNames returns the distinct column names referenced by e in first
// appearance order.
func FieldNames(e Expression) []string {
	var names []string
	seen := map[string]bool{}
	var walk func(Expression)
	walk = func(e Expression) {
		switch n := e.(type) {
		case *fieldRef:
			if !seen[n.name] {
				seen[n.name] = true
				names = append(names, n.name)
			}
		case *call:
			for _, a := range n.args {
				walk(a)
			}
		}
	}
	walk(e)
	return names
}
