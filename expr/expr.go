package expr

import "strings"

// Expr is a node of a logical filter expression tree.
// Trees are immutable once built; children are exclusively owned by their parent.
type Expr interface {
	// String renders the expression in a SQL-like form for diagnostics.
	String() string

	// exprMarker prevents implementations outside this package.
	exprMarker()
}

// Column references a field of the scanned relation.
type Column struct {
	// Relation optionally qualifies the column (e.g. a table alias).
	// Translators use Name only.
	Relation string
	Name     string
}

// Literal is a typed constant.
type Literal struct {
	Value ScalarValue
}

// BinaryExpr applies Op to Left and Right.
type BinaryExpr struct {
	Left  Expr
	Op    Operator
	Right Expr
}

// Not negates a boolean expression.
type Not struct {
	Expr Expr
}

// IsNull is true when Expr evaluates to NULL.
type IsNull struct {
	Expr Expr
}

// IsNotNull is true when Expr evaluates to a non-NULL value.
type IsNotNull struct {
	Expr Expr
}

// Between is Low <= Expr <= High; Negated inverts the result.
type Between struct {
	Expr    Expr
	Negated bool
	Low     Expr
	High    Expr
}

// InList tests membership of Expr in List; Negated inverts the result.
type InList struct {
	Expr    Expr
	List    []Expr
	Negated bool
}

// Like matches Expr against a SQL LIKE pattern.
type Like struct {
	Expr            Expr
	Pattern         Expr
	Negated         bool
	CaseInsensitive bool
}

// Cast converts Expr to the named type.
type Cast struct {
	Expr     Expr
	TypeName string
}

// ScalarFunction is a call to a named scalar function.
type ScalarFunction struct {
	Name string
	Args []Expr
}

// Opaque stands in for an expression a frontend could not model.
// Class and Type carry the frontend's own identifiers.
type Opaque struct {
	Class string
	Type  string
}

func (*Column) exprMarker()         {}
func (*Literal) exprMarker()        {}
func (*BinaryExpr) exprMarker()     {}
func (*Not) exprMarker()            {}
func (*IsNull) exprMarker()         {}
func (*IsNotNull) exprMarker()      {}
func (*Between) exprMarker()        {}
func (*InList) exprMarker()         {}
func (*Like) exprMarker()           {}
func (*Cast) exprMarker()           {}
func (*ScalarFunction) exprMarker() {}
func (*Opaque) exprMarker()         {}

func (c *Column) String() string {
	if c.Relation != "" {
		return c.Relation + "." + c.Name
	}
	return c.Name
}

func (l *Literal) String() string {
	v := l.Value
	if v.IsNull() {
		return "NULL"
	}
	switch v.Kind() {
	case KindUtf8:
		return "'" + strings.ReplaceAll(v.Str(), "'", "''") + "'"
	case KindDecimal, KindOther:
		return v.Str()
	case KindBoolean, KindFloat32, KindFloat64:
		return v.text()
	}
	if v.Kind().IsSigned() || v.Kind().IsUnsigned() {
		return v.text()
	}
	return v.String()
}

func (b *BinaryExpr) String() string {
	return "(" + Describe(b.Left) + " " + b.Op.String() + " " + Describe(b.Right) + ")"
}

func (n *Not) String() string { return "NOT " + Describe(n.Expr) }

func (n *IsNull) String() string { return Describe(n.Expr) + " IS NULL" }

func (n *IsNotNull) String() string { return Describe(n.Expr) + " IS NOT NULL" }

func (b *Between) String() string {
	op := " BETWEEN "
	if b.Negated {
		op = " NOT BETWEEN "
	}
	return Describe(b.Expr) + op + Describe(b.Low) + " AND " + Describe(b.High)
}

func (in *InList) String() string {
	op := " IN ("
	if in.Negated {
		op = " NOT IN ("
	}
	return Describe(in.Expr) + op + joinExprs(in.List) + ")"
}

func (l *Like) String() string {
	op := " LIKE "
	if l.CaseInsensitive {
		op = " ILIKE "
	}
	if l.Negated {
		op = " NOT" + op
	}
	return Describe(l.Expr) + op + Describe(l.Pattern)
}

func (c *Cast) String() string {
	return "CAST(" + Describe(c.Expr) + " AS " + c.TypeName + ")"
}

func (f *ScalarFunction) String() string {
	return f.Name + "(" + joinExprs(f.Args) + ")"
}

func (o *Opaque) String() string {
	if o.Type == "" || o.Type == o.Class {
		return "<" + o.Class + ">"
	}
	return "<" + o.Class + ":" + o.Type + ">"
}

// Describe renders e, tolerating nil children in malformed trees.
func Describe(e Expr) string {
	if e == nil {
		return "<nil>"
	}
	return e.String()
}

func joinExprs(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = Describe(e)
	}
	return strings.Join(parts, ", ")
}

// Col returns a column reference.
func Col(name string) *Column { return &Column{Name: name} }

// Lit returns a literal.
func Lit(v ScalarValue) *Literal { return &Literal{Value: v} }

// Binary returns left op right.
func Binary(left Expr, op Operator, right Expr) *BinaryExpr {
	return &BinaryExpr{Left: left, Op: op, Right: right}
}

// And folds exprs into a left-deep conjunction. It returns nil for no input
// and the single element for one.
func And(exprs ...Expr) Expr { return fold(OpAnd, exprs) }

// Or folds exprs into a left-deep disjunction.
func Or(exprs ...Expr) Expr { return fold(OpOr, exprs) }

func fold(op Operator, exprs []Expr) Expr {
	if len(exprs) == 0 {
		return nil
	}
	out := exprs[0]
	for _, e := range exprs[1:] {
		out = Binary(out, op, e)
	}
	return out
}

// SplitConjunction flattens nested AND expressions into their conjuncts,
// left to right. Non-AND expressions are returned as a single element.
func SplitConjunction(e Expr) []Expr {
	if e == nil {
		return nil
	}
	return splitConjunction(e, nil)
}

func splitConjunction(e Expr, out []Expr) []Expr {
	if b, ok := e.(*BinaryExpr); ok && b.Op == OpAnd {
		out = splitConjunction(b.Left, out)
		return splitConjunction(b.Right, out)
	}
	return append(out, e)
}

// Depth returns the height of the tree rooted at e.
// Callers bounding translation cost can reject deep trees up front.
func Depth(e Expr) int {
	if e == nil {
		return 0
	}
	deepest := 0
	for _, c := range children(e) {
		if d := Depth(c); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}

func children(e Expr) []Expr {
	switch n := e.(type) {
	case *BinaryExpr:
		return []Expr{n.Left, n.Right}
	case *Not:
		return []Expr{n.Expr}
	case *IsNull:
		return []Expr{n.Expr}
	case *IsNotNull:
		return []Expr{n.Expr}
	case *Between:
		return []Expr{n.Expr, n.Low, n.High}
	case *InList:
		return append([]Expr{n.Expr}, n.List...)
	case *Like:
		return []Expr{n.Expr, n.Pattern}
	case *Cast:
		return []Expr{n.Expr}
	case *ScalarFunction:
		return n.Args
	}
	return nil
}
