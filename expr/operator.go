package expr

// Operator identifies the operation of a BinaryExpr.
type Operator int

const (
	OpEq Operator = iota
	OpNotEq
	OpLt
	OpLtEq
	OpGt
	OpGtEq
	OpAnd
	OpOr

	// Arithmetic and other operators. Valid in the tree, not pushed down.
	OpPlus
	OpMinus
	OpMultiply
	OpDivide
	OpModulo
	OpIsDistinctFrom
	OpIsNotDistinctFrom
	OpLikeMatch
	OpNotLikeMatch
	OpBitwiseAnd
	OpBitwiseOr
	OpBitwiseXor
	OpStringConcat
)

var operatorNames = map[Operator]string{
	OpEq:                "=",
	OpNotEq:             "!=",
	OpLt:                "<",
	OpLtEq:              "<=",
	OpGt:                ">",
	OpGtEq:              ">=",
	OpAnd:               "AND",
	OpOr:                "OR",
	OpPlus:              "+",
	OpMinus:             "-",
	OpMultiply:          "*",
	OpDivide:            "/",
	OpModulo:            "%",
	OpIsDistinctFrom:    "IS DISTINCT FROM",
	OpIsNotDistinctFrom: "IS NOT DISTINCT FROM",
	OpLikeMatch:         "~~",
	OpNotLikeMatch:      "!~~",
	OpBitwiseAnd:        "&",
	OpBitwiseOr:         "|",
	OpBitwiseXor:        "BIT_XOR",
	OpStringConcat:      "||",
}

// String returns the SQL spelling of the operator.
func (op Operator) String() string {
	if name, ok := operatorNames[op]; ok {
		return name
	}
	return "UNKNOWN_OPERATOR"
}

// IsComparison reports whether op compares two values.
func (op Operator) IsComparison() bool {
	switch op {
	case OpEq, OpNotEq, OpLt, OpLtEq, OpGt, OpGtEq:
		return true
	}
	return false
}

// IsLogical reports whether op combines two boolean expressions.
func (op Operator) IsLogical() bool {
	return op == OpAnd || op == OpOr
}
