package translate

import "github.com/hugr-lab/pushdown-go/expr"

// Symbol names a binary builder operation.
type Symbol string

const (
	SymbolEq  Symbol = "eq"
	SymbolNe  Symbol = "ne"
	SymbolLt  Symbol = "lt"
	SymbolLe  Symbol = "le"
	SymbolGt  Symbol = "gt"
	SymbolGe  Symbol = "ge"
	SymbolAnd Symbol = "and_"
	SymbolOr  Symbol = "or_"
)

// operatorSymbols is the complete set of pushable binary operators.
var operatorSymbols = map[expr.Operator]Symbol{
	expr.OpEq:    SymbolEq,
	expr.OpNotEq: SymbolNe,
	expr.OpLt:    SymbolLt,
	expr.OpLtEq:  SymbolLe,
	expr.OpGt:    SymbolGt,
	expr.OpGtEq:  SymbolGe,
	expr.OpAnd:   SymbolAnd,
	expr.OpOr:    SymbolOr,
}

// OperatorSymbol returns the builder symbol for op.
// It fails with ErrUnsupportedOperator for operators outside the pushable set.
func OperatorSymbol(op expr.Operator) (Symbol, error) {
	sym, ok := operatorSymbols[op]
	if !ok {
		return "", &Error{Kind: UnsupportedOperator, Detail: op.String()}
	}
	return sym, nil
}

// apply calls the builder operation named by sym.
// sym always comes from operatorSymbols.
func apply[E any](b Builder[E], sym Symbol, left, right E) E {
	switch sym {
	case SymbolEq:
		return b.Eq(left, right)
	case SymbolNe:
		return b.Ne(left, right)
	case SymbolLt:
		return b.Lt(left, right)
	case SymbolLe:
		return b.Le(left, right)
	case SymbolGt:
		return b.Gt(left, right)
	case SymbolGe:
		return b.Ge(left, right)
	case SymbolAnd:
		return b.And(left, right)
	case SymbolOr:
		return b.Or(left, right)
	}
	panic("translate: unknown operator symbol " + string(sym))
}
