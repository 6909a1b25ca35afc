package translate

import "errors"

// ErrorKind classifies translation failures.
type ErrorKind int

const (
	// UnsupportedOperator: a binary operator outside eq/ne/lt/le/gt/ge/and/or.
	UnsupportedOperator ErrorKind = iota + 1
	// UnsupportedExpression: an expression variant with no translation.
	UnsupportedExpression
	// UnsupportedScalar: a literal kind (or NULL) the relevant path cannot carry.
	UnsupportedScalar
	// NonLiteralListElement: an IN list member that is not a literal.
	NonLiteralListElement
	// Materialization: any other failure reported by the builder.
	Materialization
)

// Sentinel errors matched by *Error through errors.Is.
var (
	ErrUnsupportedOperator   = errors.New("unsupported operator")
	ErrUnsupportedExpression = errors.New("unsupported expression")
	ErrUnsupportedScalar     = errors.New("unsupported scalar")
	ErrNonLiteralListElement = errors.New("non-literal list element")
	ErrMaterialization       = errors.New("materialization failed")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case UnsupportedOperator:
		return ErrUnsupportedOperator
	case UnsupportedExpression:
		return ErrUnsupportedExpression
	case UnsupportedScalar:
		return ErrUnsupportedScalar
	case NonLiteralListElement:
		return ErrNonLiteralListElement
	case Materialization:
		return ErrMaterialization
	}
	return nil
}

func (k ErrorKind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return "unknown error kind"
}

// Error is returned for every translation failure.
type Error struct {
	Kind ErrorKind

	// Detail describes the offending construct (operator, expression or scalar).
	Detail string

	// Err is the underlying builder error, if any.
	Err error
}

func (e *Error) Error() string {
	msg := "translate: " + e.Kind.String()
	if e.Detail != "" {
		msg += " " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying builder error.
func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel error of the kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// KindOf returns the kind of a translation error, or 0 if err is not one.
func KindOf(err error) ErrorKind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return 0
}
