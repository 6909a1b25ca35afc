// Package translate converts filter expression trees (package expr) into a
// target expression algebra for predicate pushdown.
//
// The target algebra is abstracted by Builder, a fixed set of construction
// operations modelled on Arrow dataset expressions: field references,
// literals, the comparison and logical operators, invert, is_valid, is_null
// and isin. Translator walks the source tree recursively and calls the
// builder for each node.
//
// # Supported Expressions
//
//	Column(name)               Field(name)
//	Literal(v)                 Literal(v)
//	l <op> r                   Eq/Ne/Lt/Le/Gt/Ge/And/Or(l, r)
//	NOT e                      Invert(e)
//	e IS NOT NULL              IsValid(e)
//	e IS NULL                  IsNull(e, nanIsNull=false)
//	e BETWEEN lo AND hi        And(Le(lo, e), Le(e, hi))      (Invert if negated)
//	e IN (v1, v2, ...)         IsIn(e, [v1, v2, ...])         (Invert if negated)
//
// Anything else fails. Failures are terminal for the whole call: there is no
// partial result and no fallback. A caller that wants to push down part of a
// predicate should split it into conjuncts (expr.SplitConjunction) and
// translate each one separately, evaluating the rest after the scan.
//
// # Errors
//
// All failures are *Error values carrying a Kind. Use errors.Is with the
// sentinel errors (ErrUnsupportedOperator, ErrUnsupportedExpression,
// ErrUnsupportedScalar, ErrNonLiteralListElement, ErrMaterialization) or
// KindOf to classify them.
//
// # Concurrency
//
// Translation holds no state between calls. A Translator is safe for
// concurrent use when its Builder is.
package translate
