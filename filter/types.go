package filter

import (
	"fmt"

	"github.com/hugr-lab/pushdown-go/expr"
)

// ExpressionClass identifies the category of a serialized DuckDB expression.
type ExpressionClass string

const (
	ClassBoundCase        ExpressionClass = "BOUND_CASE"
	ClassBoundCast        ExpressionClass = "BOUND_CAST"
	ClassBoundColumnRef   ExpressionClass = "BOUND_COLUMN_REF"
	ClassBoundComparison  ExpressionClass = "BOUND_COMPARISON"
	ClassBoundConjunction ExpressionClass = "BOUND_CONJUNCTION"
	ClassBoundConstant    ExpressionClass = "BOUND_CONSTANT"
	ClassBoundFunction    ExpressionClass = "BOUND_FUNCTION"
	ClassBoundOperator    ExpressionClass = "BOUND_OPERATOR"
	ClassBoundBetween     ExpressionClass = "BOUND_BETWEEN"
)

// ExpressionType identifies the specific operation of a serialized expression.
type ExpressionType string

const (
	TypeCompareEqual              ExpressionType = "COMPARE_EQUAL"
	TypeCompareNotEqual           ExpressionType = "COMPARE_NOTEQUAL"
	TypeCompareLessThan           ExpressionType = "COMPARE_LESSTHAN"
	TypeCompareGreaterThan        ExpressionType = "COMPARE_GREATERTHAN"
	TypeCompareLessThanOrEqual    ExpressionType = "COMPARE_LESSTHANOREQUALTO"
	TypeCompareGreaterThanOrEqual ExpressionType = "COMPARE_GREATERTHANOREQUALTO"
	TypeCompareIn                 ExpressionType = "COMPARE_IN"
	TypeCompareNotIn              ExpressionType = "COMPARE_NOT_IN"
	TypeCompareDistinctFrom       ExpressionType = "COMPARE_DISTINCT_FROM"
	TypeCompareNotDistinctFrom    ExpressionType = "COMPARE_NOT_DISTINCT_FROM"
	TypeCompareBetween            ExpressionType = "COMPARE_BETWEEN"
	TypeCompareNotBetween         ExpressionType = "COMPARE_NOT_BETWEEN"

	TypeConjunctionAnd ExpressionType = "CONJUNCTION_AND"
	TypeConjunctionOr  ExpressionType = "CONJUNCTION_OR"

	TypeOperatorNot       ExpressionType = "OPERATOR_NOT"
	TypeOperatorIsNull    ExpressionType = "OPERATOR_IS_NULL"
	TypeOperatorIsNotNull ExpressionType = "OPERATOR_IS_NOT_NULL"
	TypeOperatorNullIf    ExpressionType = "OPERATOR_NULLIF"
	TypeOperatorCoalesce  ExpressionType = "OPERATOR_COALESCE"
)

// comparisonOperators maps binary comparison types to IR operators.
var comparisonOperators = map[ExpressionType]expr.Operator{
	TypeCompareEqual:              expr.OpEq,
	TypeCompareNotEqual:           expr.OpNotEq,
	TypeCompareLessThan:           expr.OpLt,
	TypeCompareGreaterThan:        expr.OpGt,
	TypeCompareLessThanOrEqual:    expr.OpLtEq,
	TypeCompareGreaterThanOrEqual: expr.OpGtEq,
	TypeCompareDistinctFrom:       expr.OpIsDistinctFrom,
	TypeCompareNotDistinctFrom:    expr.OpIsNotDistinctFrom,
}

// operatorFunctions maps DuckDB operator functions to IR binary operators.
var operatorFunctions = map[string]expr.Operator{
	"+":   expr.OpPlus,
	"-":   expr.OpMinus,
	"*":   expr.OpMultiply,
	"/":   expr.OpDivide,
	"%":   expr.OpModulo,
	"&":   expr.OpBitwiseAnd,
	"|":   expr.OpBitwiseOr,
	"xor": expr.OpBitwiseXor,
	"||":  expr.OpStringConcat,
}

// FilterPushdown is the parsed form of DuckDB filter pushdown JSON.
type FilterPushdown struct {
	// Filters are implicitly AND'ed together.
	Filters []expr.Expr

	// ColumnBindings maps column binding indices to column names.
	ColumnBindings []string
}

// Conjuncts flattens all filters into their top-level AND conjuncts.
func (fp *FilterPushdown) Conjuncts() []expr.Expr {
	if fp == nil {
		return nil
	}
	var out []expr.Expr
	for _, f := range fp.Filters {
		out = append(out, expr.SplitConjunction(f)...)
	}
	return out
}

// ColumnBindingError indicates a column reference whose binding index is
// outside column_binding_names_by_index.
type ColumnBindingError struct {
	Index int
	Max   int
}

func (e *ColumnBindingError) Error() string {
	return fmt.Sprintf("invalid column binding index: %d (max: %d)", e.Index, e.Max-1)
}
