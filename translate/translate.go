package translate

import (
	"errors"

	"github.com/hugr-lab/pushdown-go/expr"
)

// nanIsNull is passed to Builder.IsNull for every IS NULL predicate.
// NaN is a value, not a null, matching Arrow's is_null default.
const nanIsNull = false

// Translator converts expr trees into target expressions built by a Builder.
type Translator[E any] struct {
	builder Builder[E]
}

// New returns a Translator over b.
func New[E any](b Builder[E]) *Translator[E] {
	return &Translator[E]{builder: b}
}

// Translate converts e with a one-off Translator over b.
func Translate[E any](b Builder[E], e expr.Expr) (E, error) {
	return New(b).Translate(e)
}

// Translate converts e into a target expression.
// Any unsupported construct in the tree fails the whole call.
func (t *Translator[E]) Translate(e expr.Expr) (E, error) {
	var zero E
	b := t.builder

	switch n := e.(type) {
	case *expr.Column:
		return b.Field(n.Name), nil

	case *expr.Literal:
		return t.literal(n)

	case *expr.BinaryExpr:
		// Resolve the operator first so an unsupported one builds nothing.
		sym, err := OperatorSymbol(n.Op)
		if err != nil {
			return zero, err
		}
		left, err := t.Translate(n.Left)
		if err != nil {
			return zero, err
		}
		right, err := t.Translate(n.Right)
		if err != nil {
			return zero, err
		}
		return apply(b, sym, left, right), nil

	case *expr.Not:
		inner, err := t.Translate(n.Expr)
		if err != nil {
			return zero, err
		}
		return b.Invert(inner), nil

	case *expr.IsNotNull:
		inner, err := t.Translate(n.Expr)
		if err != nil {
			return zero, err
		}
		return b.IsValid(inner), nil

	case *expr.IsNull:
		inner, err := t.Translate(n.Expr)
		if err != nil {
			return zero, err
		}
		return b.IsNull(inner, nanIsNull), nil

	case *expr.Between:
		return t.between(n)

	case *expr.InList:
		return t.inList(n)

	case nil:
		return zero, &Error{Kind: UnsupportedExpression, Detail: "<nil>"}

	default:
		return zero, &Error{Kind: UnsupportedExpression, Detail: e.String()}
	}
}

func (t *Translator[E]) literal(l *expr.Literal) (E, error) {
	v, err := t.builder.Literal(l.Value)
	if err != nil {
		var zero E
		return zero, materializationError(l.Value, err)
	}
	return v, nil
}

// between builds low <= e AND e <= high; the target algebra has no between.
func (t *Translator[E]) between(n *expr.Between) (E, error) {
	var zero E
	b := t.builder

	value, err := t.Translate(n.Expr)
	if err != nil {
		return zero, err
	}
	low, err := t.Translate(n.Low)
	if err != nil {
		return zero, err
	}
	high, err := t.Translate(n.High)
	if err != nil {
		return zero, err
	}

	out := b.And(b.Le(low, value), b.Le(value, high))
	if n.Negated {
		out = b.Invert(out)
	}
	return out, nil
}

func (t *Translator[E]) inList(n *expr.InList) (E, error) {
	var zero E
	b := t.builder

	value, err := t.Translate(n.Expr)
	if err != nil {
		return zero, err
	}
	values, err := extractScalarList(n.List)
	if err != nil {
		return zero, err
	}

	out, err := b.IsIn(value, values)
	if err != nil {
		return zero, &Error{Kind: Materialization, Detail: n.String(), Err: err}
	}
	if n.Negated {
		out = b.Invert(out)
	}
	return out, nil
}

// materializationError classifies a Builder.Literal failure.
func materializationError(v expr.ScalarValue, err error) error {
	var te *Error
	if errors.As(err, &te) {
		return err
	}
	kind := Materialization
	if errors.Is(err, ErrUnsupportedScalar) {
		kind = UnsupportedScalar
	}
	return &Error{Kind: kind, Detail: v.String(), Err: err}
}
