package expr

import (
	"errors"
	"math"
	"testing"
)

func TestExprString(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"column", Col("age"), "age"},
		{"qualified column", &Column{Relation: "t", Name: "age"}, "t.age"},
		{"int literal", Lit(Int32(30)), "30"},
		{"string literal", Lit(Utf8("O'Brien")), "'O''Brien'"},
		{"null literal", Lit(Null()), "NULL"},
		{"typed null", Lit(NullOf(KindInt64)), "NULL"},
		{"bool literal", Lit(Bool(false)), "false"},
		{"float literal", Lit(Float64(1.5)), "1.5"},
		{"binary", Binary(Col("a"), OpGtEq, Lit(Int64(1))), "(a >= 1)"},
		{"not", &Not{Expr: Col("flag")}, "NOT flag"},
		{"is null", &IsNull{Expr: Col("a")}, "a IS NULL"},
		{"is not null", &IsNotNull{Expr: Col("a")}, "a IS NOT NULL"},
		{
			"between",
			&Between{Expr: Col("x"), Low: Lit(Int32(1)), High: Lit(Int32(10))},
			"x BETWEEN 1 AND 10",
		},
		{
			"not between",
			&Between{Expr: Col("x"), Negated: true, Low: Lit(Int32(1)), High: Lit(Int32(10))},
			"x NOT BETWEEN 1 AND 10",
		},
		{
			"in list",
			&InList{Expr: Col("x"), List: []Expr{Lit(Int32(1)), Lit(Int32(2))}},
			"x IN (1, 2)",
		},
		{
			"not in list",
			&InList{Expr: Col("x"), List: []Expr{Lit(Utf8("a"))}, Negated: true},
			"x NOT IN ('a')",
		},
		{"ilike", &Like{Expr: Col("s"), Pattern: Lit(Utf8("a%")), CaseInsensitive: true}, "s ILIKE 'a%'"},
		{"cast", &Cast{Expr: Col("s"), TypeName: "INTEGER"}, "CAST(s AS INTEGER)"},
		{"function", &ScalarFunction{Name: "lower", Args: []Expr{Col("s")}}, "lower(s)"},
		{"opaque", &Opaque{Class: "BOUND_WINDOW"}, "<BOUND_WINDOW>"},
		{"unsupported operator", Binary(Col("a"), OpBitwiseXor, Col("b")), "(a BIT_XOR b)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.expr.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAndOr(t *testing.T) {
	a, b, c := Col("a"), Col("b"), Col("c")

	if And() != nil {
		t.Error("And() should be nil")
	}
	if got := And(a); got != Expr(a) {
		t.Errorf("And(a) = %v, want a", got)
	}
	if got := And(a, b, c).String(); got != "((a AND b) AND c)" {
		t.Errorf("And(a, b, c) = %s", got)
	}
	if got := Or(a, b).String(); got != "(a OR b)" {
		t.Errorf("Or(a, b) = %s", got)
	}
}

func TestSplitConjunction(t *testing.T) {
	a := Binary(Col("a"), OpEq, Lit(Int32(1)))
	b := Binary(Col("b"), OpEq, Lit(Int32(2)))
	c := Or(Col("c"), Col("d"))

	tests := []struct {
		name string
		in   Expr
		want int
	}{
		{"nil", nil, 0},
		{"single", a, 1},
		{"left deep", And(a, b, c), 3},
		{"right deep", Binary(a, OpAnd, Binary(b, OpAnd, c)), 3},
		{"or is atomic", c, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitConjunction(tt.in)
			if len(got) != tt.want {
				t.Fatalf("got %d conjuncts, want %d", len(got), tt.want)
			}
		})
	}

	parts := SplitConjunction(And(a, b, c))
	if parts[0] != Expr(a) || parts[1] != Expr(b) || parts[2] != c {
		t.Error("conjuncts are not in left-to-right order")
	}
}

func TestDepth(t *testing.T) {
	tests := []struct {
		name string
		in   Expr
		want int
	}{
		{"nil", nil, 0},
		{"leaf", Col("a"), 1},
		{"binary", Binary(Col("a"), OpEq, Lit(Int32(1))), 2},
		{"not binary", &Not{Expr: Binary(Col("a"), OpEq, Lit(Int32(1)))}, 3},
		{"in list", &InList{Expr: Col("a"), List: []Expr{Lit(Int32(1))}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Depth(tt.in); got != tt.want {
				t.Errorf("Depth = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScalarValue(t *testing.T) {
	tests := []struct {
		name string
		v    ScalarValue
		want string
	}{
		{"null", Null(), "NULL"},
		{"typed null", NullOf(KindUtf8), "Utf8(NULL)"},
		{"int32", Int32(30), "Int32(30)"},
		{"uint8", Uint8(255), "UInt8(255)"},
		{"float32", Float32(0.5), "Float32(0.5)"},
		{"nan", Float64(math.NaN()), "Float64(NaN)"},
		{"utf8", Utf8("x"), `Utf8("x")`},
		{"binary", Blob([]byte{0xde, 0xad}), "Binary(0xdead)"},
		{"date", Date32(19000), "Date32(19000)"},
		{"timestamp", Timestamp(5, Millisecond, ""), "Timestamp(5ms)"},
		{"decimal", Decimal("1.25", 10, 2), "Decimal(1.25, 10, 2)"},
		{"other", Other("INTERVAL", "1 day"), "INTERVAL(1 day)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}

	if !Int8(-3).Kind().IsSigned() || Int8(-3).Int64() != -3 {
		t.Error("Int8 accessors")
	}
	if !Uint64(math.MaxUint64).Kind().IsUnsigned() || Uint64(math.MaxUint64).Uint64() != math.MaxUint64 {
		t.Error("Uint64 accessors")
	}
	if Null().Kind() != KindNull || !Null().IsNull() {
		t.Error("Null accessors")
	}
}

func TestCheckDecimal(t *testing.T) {
	valid := []struct {
		text             string
		precision, scale int32
	}{
		{"12.50", 10, 2},
		{"-0.5", 3, 1},
		{"+7", 1, 0},
		{"0012.5", 3, 1},
		{"99999999999999999999999999999999999999", 38, 0},
	}
	for _, tt := range valid {
		if err := CheckDecimal(tt.text, tt.precision, tt.scale); err != nil {
			t.Errorf("CheckDecimal(%q, %d, %d) = %v", tt.text, tt.precision, tt.scale, err)
		}
	}

	invalid := []struct {
		text             string
		precision, scale int32
	}{
		{"+-5", 10, 0},
		{"1) OR (1=1", 10, 0},
		{"1e5", 10, 0},
		{"Inf", 10, 0},
		{"12.", 10, 2},
		{".5", 10, 2},
		{"", 10, 2},
		{"1.234", 10, 2},
		{"123", 4, 2},
		{"1", 0, 0},
		{"1", 39, 0},
		{"1", 5, 6},
	}
	for _, tt := range invalid {
		err := CheckDecimal(tt.text, tt.precision, tt.scale)
		if !errors.Is(err, ErrInvalidDecimal) {
			t.Errorf("CheckDecimal(%q, %d, %d) = %v, want ErrInvalidDecimal", tt.text, tt.precision, tt.scale, err)
		}
	}
}
