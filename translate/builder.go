package translate

import "github.com/hugr-lab/pushdown-go/expr"

// Builder constructs expressions of a target algebra with handle type E.
//
// Handles are opaque to the translator: it only passes them back into the
// builder. Method names follow the Arrow dataset expression API (field,
// operator.eq/ne/lt/le/gt/ge/and_/or_, invert, is_valid, is_null, isin).
type Builder[E any] interface {
	// Field references a column by name.
	Field(name string) E

	// Literal materializes a scalar constant. Implementations return an error
	// wrapping ErrUnsupportedScalar for NULL or kinds they cannot represent.
	Literal(v expr.ScalarValue) (E, error)

	Eq(left, right E) E
	Ne(left, right E) E
	Lt(left, right E) E
	Le(left, right E) E
	Gt(left, right E) E
	Ge(left, right E) E
	And(left, right E) E
	Or(left, right E) E

	// Invert is logical negation.
	Invert(e E) E

	// IsValid is true where e is not null.
	IsValid(e E) E

	// IsNull is true where e is null, and also where e is NaN if nanIsNull is set.
	IsNull(e E, nanIsNull bool) E

	// IsIn tests membership of e in values. values holds plain Go values:
	// bool, int8..int64, uint8..uint64, float32, float64 or string.
	IsIn(e E, values []any) (E, error)
}
