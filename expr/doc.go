// Package expr defines the logical filter expression tree handed to pushdown.
//
// The tree is produced by a query planner (or by a frontend such as
// filter.Parse) and consumed read-only by translators. Expr is a sealed
// interface: only types in this package implement it, so consumers can use
// exhaustive type switches.
//
// # Variants
//
//   - Column: a field reference
//   - Literal: a typed scalar constant (see ScalarValue)
//   - BinaryExpr: comparison, logical and arithmetic operators
//   - Not, IsNull, IsNotNull: unary predicates
//   - Between: low <= expr <= high, optionally negated
//   - InList: set membership against a list of expressions, optionally negated
//   - Like, Cast, ScalarFunction, Opaque: representable but not pushed down
//
// # Building Trees
//
//	e := expr.And(
//	    expr.Binary(expr.Col("age"), expr.OpGt, expr.Lit(expr.Int32(30))),
//	    &expr.IsNotNull{Expr: expr.Col("name")},
//	)
//
// Every Expr implements fmt.Stringer, producing a SQL-like rendering used in
// diagnostics and error messages.
package expr
