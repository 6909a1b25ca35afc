package filter

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/hugr-lab/pushdown-go/expr"
)

func column(index int) string {
	return fmt.Sprintf(`{
		"expression_class": "BOUND_COLUMN_REF",
		"type": "BOUND_COLUMN_REF",
		"alias": "",
		"return_type": {"id": "INTEGER", "type_info": null},
		"binding": {"table_index": 0, "column_index": %d},
		"depth": 0
	}`, index)
}

func constant(typeID, value string) string {
	return fmt.Sprintf(`{
		"expression_class": "BOUND_CONSTANT",
		"type": "VALUE_CONSTANT",
		"alias": "",
		"value": {"type": {"id": %q, "type_info": null}, "is_null": false, "value": %s}
	}`, typeID, value)
}

func comparison(typ, left, right string) string {
	return fmt.Sprintf(`{
		"expression_class": "BOUND_COMPARISON",
		"type": %q,
		"alias": "",
		"left": %s,
		"right": %s
	}`, typ, left, right)
}

func conjunction(typ string, children ...string) string {
	return fmt.Sprintf(`{
		"expression_class": "BOUND_CONJUNCTION",
		"type": %q,
		"alias": "",
		"children": [%s]
	}`, typ, strings.Join(children, ","))
}

func operator(typ string, children ...string) string {
	return fmt.Sprintf(`{
		"expression_class": "BOUND_OPERATOR",
		"type": %q,
		"alias": "",
		"return_type": {"id": "BOOLEAN", "type_info": null},
		"children": [%s]
	}`, typ, strings.Join(children, ","))
}

func function(name string, children ...string) string {
	return fmt.Sprintf(`{
		"expression_class": "BOUND_FUNCTION",
		"type": "BOUND_FUNCTION",
		"alias": "",
		"return_type": {"id": "BOOLEAN", "type_info": null},
		"children": [%s],
		"name": %q,
		"catalog_name": "",
		"schema_name": "",
		"has_serialize": false,
		"is_operator": false
	}`, strings.Join(children, ","), name)
}

func between(typ string, lowerInclusive, upperInclusive bool, input, lower, upper string) string {
	return fmt.Sprintf(`{
		"expression_class": "BOUND_BETWEEN",
		"type": %q,
		"alias": "",
		"input": %s,
		"lower": %s,
		"upper": %s,
		"lower_inclusive": %t,
		"upper_inclusive": %t
	}`, typ, input, lower, upper, lowerInclusive, upperInclusive)
}

func pushdown(bindings []string, filters ...string) []byte {
	quoted := make([]string, len(bindings))
	for i, b := range bindings {
		quoted[i] = fmt.Sprintf("%q", b)
	}
	return []byte(fmt.Sprintf(`{"filters": [%s], "column_binding_names_by_index": [%s]}`,
		strings.Join(filters, ","), strings.Join(quoted, ",")))
}

func TestParseEmpty(t *testing.T) {
	for _, data := range [][]byte{nil, {}} {
		fp, err := Parse(data)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(fp.Filters) != 0 {
			t.Errorf("expected 0 filters, got %d", len(fp.Filters))
		}
		if fp.Conjuncts() != nil {
			t.Errorf("expected no conjuncts, got %v", fp.Conjuncts())
		}
	}
}

func TestParse(t *testing.T) {
	bindings := []string{"id", "name", "price"}
	caseExpr := `{
		"expression_class": "BOUND_CASE",
		"type": "CASE_EXPR",
		"alias": "",
		"return_type": {"id": "VARCHAR", "type_info": null},
		"case_checks": [],
		"else_expr": null
	}`
	cast := fmt.Sprintf(`{
		"expression_class": "BOUND_CAST",
		"type": "CAST",
		"alias": "",
		"child": %s,
		"return_type": {"id": "DECIMAL", "type_info": {"type": "DECIMAL_TYPE_INFO", "width": 10, "scale": 2}},
		"try_cast": false
	}`, column(2))
	listValue := function("list_value", constant("INTEGER", "1"), constant("INTEGER", "2"), constant("INTEGER", "3"))

	tests := []struct {
		name   string
		filter string
		want   string
	}{
		{
			name:   "equality",
			filter: comparison("COMPARE_EQUAL", column(0), constant("INTEGER", "42")),
			want:   "(id = 42)",
		},
		{
			name:   "not equal",
			filter: comparison("COMPARE_NOTEQUAL", column(1), constant("VARCHAR", `"bob"`)),
			want:   "(name != 'bob')",
		},
		{
			name:   "greater or equal",
			filter: comparison("COMPARE_GREATERTHANOREQUALTO", column(0), constant("BIGINT", "7")),
			want:   "(id >= 7)",
		},
		{
			name:   "distinct from",
			filter: comparison("COMPARE_DISTINCT_FROM", column(0), constant("INTEGER", "1")),
			want:   "(id IS DISTINCT FROM 1)",
		},
		{
			name: "and",
			filter: conjunction("CONJUNCTION_AND",
				comparison("COMPARE_EQUAL", column(1), constant("VARCHAR", `"active"`)),
				comparison("COMPARE_GREATERTHAN", column(0), constant("INTEGER", "18")),
				operator("OPERATOR_IS_NOT_NULL", column(2))),
			want: "(((name = 'active') AND (id > 18)) AND price IS NOT NULL)",
		},
		{
			name: "or",
			filter: conjunction("CONJUNCTION_OR",
				comparison("COMPARE_LESSTHAN", column(0), constant("INTEGER", "1")),
				comparison("COMPARE_LESSTHANOREQUALTO", column(0), constant("INTEGER", "-5"))),
			want: "((id < 1) OR (id <= -5))",
		},
		{
			name:   "in list",
			filter: comparison("COMPARE_IN", column(0), listValue),
			want:   "id IN (1, 2, 3)",
		},
		{
			name:   "not in list",
			filter: comparison("COMPARE_NOT_IN", column(0), listValue),
			want:   "id NOT IN (1, 2, 3)",
		},
		{
			name:   "in operator",
			filter: operator("COMPARE_IN", column(1), constant("VARCHAR", `"a"`), constant("VARCHAR", `"b"`)),
			want:   "name IN ('a', 'b')",
		},
		{
			name:   "is null",
			filter: operator("OPERATOR_IS_NULL", column(2)),
			want:   "price IS NULL",
		},
		{
			name:   "not",
			filter: operator("OPERATOR_NOT", comparison("COMPARE_EQUAL", column(0), constant("INTEGER", "1"))),
			want:   "NOT (id = 1)",
		},
		{
			name:   "coalesce",
			filter: comparison("COMPARE_EQUAL", operator("OPERATOR_COALESCE", column(0), constant("INTEGER", "0")), constant("INTEGER", "1")),
			want:   "(coalesce(id, 0) = 1)",
		},
		{
			name:   "between",
			filter: between("COMPARE_BETWEEN", true, true, column(2), constant("INTEGER", "100"), constant("INTEGER", "500")),
			want:   "price BETWEEN 100 AND 500",
		},
		{
			name:   "not between",
			filter: between("COMPARE_NOT_BETWEEN", true, true, column(2), constant("INTEGER", "100"), constant("INTEGER", "500")),
			want:   "price NOT BETWEEN 100 AND 500",
		},
		{
			name:   "half open between",
			filter: between("COMPARE_BETWEEN", true, false, column(2), constant("INTEGER", "100"), constant("INTEGER", "500")),
			want:   "((price >= 100) AND (price < 500))",
		},
		{
			name:   "like",
			filter: function("~~", column(1), constant("VARCHAR", `"a%"`)),
			want:   "name LIKE 'a%'",
		},
		{
			name:   "not ilike",
			filter: function("!~~*", column(1), constant("VARCHAR", `"a%"`)),
			want:   "name NOT ILIKE 'a%'",
		},
		{
			name:   "function",
			filter: comparison("COMPARE_EQUAL", function("lower", column(1)), constant("VARCHAR", `"john"`)),
			want:   "(lower(name) = 'john')",
		},
		{
			name:   "arithmetic",
			filter: comparison("COMPARE_GREATERTHAN", function("+", column(0), constant("INTEGER", "1")), constant("INTEGER", "10")),
			want:   "((id + 1) > 10)",
		},
		{
			name:   "cast",
			filter: comparison("COMPARE_GREATERTHAN", cast, constant("INTEGER", "10")),
			want:   "(CAST(price AS DECIMAL(10, 2)) > 10)",
		},
		{
			name:   "case is opaque",
			filter: comparison("COMPARE_EQUAL", caseExpr, constant("VARCHAR", `"positive"`)),
			want:   "(<BOUND_CASE:CASE_EXPR> = 'positive')",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp, err := Parse(pushdown(bindings, tt.filter))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if len(fp.Filters) != 1 {
				t.Fatalf("expected 1 filter, got %d", len(fp.Filters))
			}
			if got := fp.Filters[0].String(); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseTypedTree(t *testing.T) {
	data := pushdown([]string{"id"}, comparison("COMPARE_EQUAL", column(0), constant("INTEGER", "42")))
	fp, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(fp.ColumnBindings) != 1 {
		t.Errorf("expected 1 column binding, got %d", len(fp.ColumnBindings))
	}

	b, ok := fp.Filters[0].(*expr.BinaryExpr)
	if !ok {
		t.Fatalf("expected BinaryExpr, got %T", fp.Filters[0])
	}
	if b.Op != expr.OpEq {
		t.Errorf("expected =, got %s", b.Op)
	}
	if col, ok := b.Left.(*expr.Column); !ok || col.Name != "id" {
		t.Errorf("expected column id, got %v", b.Left)
	}
	lit, ok := b.Right.(*expr.Literal)
	if !ok {
		t.Fatalf("expected Literal, got %T", b.Right)
	}
	if lit.Value.Kind() != expr.KindInt32 || lit.Value.Int64() != 42 {
		t.Errorf("expected Int32(42), got %s", lit.Value)
	}
}

func TestParseConjuncts(t *testing.T) {
	data := pushdown([]string{"a", "b"},
		conjunction("CONJUNCTION_AND",
			comparison("COMPARE_EQUAL", column(0), constant("INTEGER", "1")),
			comparison("COMPARE_EQUAL", column(1), constant("INTEGER", "2"))),
		operator("OPERATOR_IS_NULL", column(1)),
	)
	fp, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	conjuncts := fp.Conjuncts()
	want := []string{"(a = 1)", "(b = 2)", "b IS NULL"}
	if len(conjuncts) != len(want) {
		t.Fatalf("expected %d conjuncts, got %d", len(want), len(conjuncts))
	}
	for i, c := range conjuncts {
		if c.String() != want[i] {
			t.Errorf("conjunct %d: got %s, want %s", i, c, want[i])
		}
	}
}

func TestParseValues(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"boolean", `{"type": {"id": "BOOLEAN"}, "is_null": false, "value": true}`, "Boolean(true)"},
		{"tinyint", `{"type": {"id": "TINYINT"}, "is_null": false, "value": -3}`, "Int8(-3)"},
		{"ubigint", `{"type": {"id": "UBIGINT"}, "is_null": false, "value": 18446744073709551615}`, "UInt64(18446744073709551615)"},
		{"alias", `{"type": {"id": "INT8"}, "is_null": false, "value": 9}`, "Int64(9)"},
		{"hugeint", `{"type": {"id": "HUGEINT"}, "is_null": false, "value": {"upper": 1, "lower": 0}}`, "Decimal(18446744073709551616, 38, 0)"},
		{"hugeint wider than decimal", `{"type": {"id": "HUGEINT"}, "is_null": false, "value": {"upper": 9223372036854775807, "lower": 0}}`, "HUGEINT(170141183460469231713240559642174554112)"},
		{"negative hugeint", `{"type": {"id": "HUGEINT"}, "is_null": false, "value": {"upper": -1, "lower": 18446744073709551615}}`, "Decimal(-1, 38, 0)"},
		{"double", `{"type": {"id": "DOUBLE"}, "is_null": false, "value": 2.5}`, "Float64(2.5)"},
		{"float infinity", `{"type": {"id": "FLOAT"}, "is_null": false, "value": "-inf"}`, "Float32(-Inf)"},
		{"decimal string", `{"type": {"id": "DECIMAL", "type_info": {"type": "DECIMAL_TYPE_INFO", "width": 10, "scale": 2}}, "is_null": false, "value": "123.45"}`, "Decimal(123.45, 10, 2)"},
		{"decimal number", `{"type": {"id": "DECIMAL", "type_info": null}, "is_null": false, "value": 1.5}`, "Decimal(1.5, 18, 3)"},
		{"varchar", `{"type": {"id": "VARCHAR"}, "is_null": false, "value": "it's"}`, `Utf8("it's")`},
		{"varchar base64", `{"type": {"id": "VARCHAR"}, "is_null": false, "value": {"base64": "aGk="}}`, `Utf8("hi")`},
		{"blob", `{"type": {"id": "BLOB"}, "is_null": false, "value": {"base64": "AAH/"}}`, "Binary(0x0001ff)"},
		{"date", `{"type": {"id": "DATE"}, "is_null": false, "value": 19000}`, "Date32(19000)"},
		{"smallint bounds", `{"type": {"id": "SMALLINT"}, "is_null": false, "value": -32768}`, "Int16(-32768)"},
		{"uinteger bounds", `{"type": {"id": "UINTEGER"}, "is_null": false, "value": 4294967295}`, "UInt32(4294967295)"},
		{"timestamp", `{"type": {"id": "TIMESTAMP"}, "is_null": false, "value": 1000000}`, "Timestamp(1000000us)"},
		{"timestamp ms", `{"type": {"id": "TIMESTAMP_MS"}, "is_null": false, "value": 5}`, "Timestamp(5ms)"},
		{"timestamp tz", `{"type": {"id": "TIMESTAMP WITH TIME ZONE"}, "is_null": false, "value": 7}`, "Timestamp(7us, UTC)"},
		{"time", `{"type": {"id": "TIME"}, "is_null": false, "value": 45296000001}`, "TIME(12:34:56.000001)"},
		{"interval", `{"type": {"id": "INTERVAL"}, "is_null": false, "value": {"months": 14, "days": 3, "micros": 0}}`, "INTERVAL(1 years 2 months 3 days)"},
		{"uuid", `{"type": {"id": "UUID"}, "is_null": false, "value": "5f0e7a7c-0000-4000-8000-000000000000"}`, "UUID(5f0e7a7c-0000-4000-8000-000000000000)"},
		{"list", `{"type": {"id": "LIST"}, "is_null": false, "value": [1,2]}`, "LIST([1,2])"},
		{"typed null", `{"type": {"id": "INTEGER"}, "is_null": true}`, "Int32(NULL)"},
		{"sql null", `{"type": {"id": "SQLNULL"}, "is_null": true}`, "NULL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := parseValue([]byte(tt.value))
			if err != nil {
				t.Fatalf("parseValue failed: %v", err)
			}
			if got := v.String(); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseNaN(t *testing.T) {
	v, err := parseValue([]byte(`{"type": {"id": "DOUBLE"}, "is_null": false, "value": "nan"}`))
	if err != nil {
		t.Fatalf("parseValue failed: %v", err)
	}
	if v.Kind() != expr.KindFloat64 || !math.IsNaN(v.Float64()) {
		t.Errorf("expected Float64 NaN, got %s", v)
	}
}

func TestParseErrors(t *testing.T) {
	t.Run("malformed json", func(t *testing.T) {
		_, err := Parse([]byte(`{invalid json`))
		if err == nil {
			t.Fatal("expected error for malformed JSON")
		}
	})

	t.Run("invalid column binding", func(t *testing.T) {
		data := pushdown([]string{"id"}, comparison("COMPARE_EQUAL", column(5), constant("INTEGER", "1")))
		_, err := Parse(data)
		var bindErr *ColumnBindingError
		if !errors.As(err, &bindErr) {
			t.Fatalf("expected ColumnBindingError, got %v", err)
		}
		if bindErr.Index != 5 || bindErr.Max != 1 {
			t.Errorf("unexpected binding error %+v", bindErr)
		}
		if !strings.Contains(err.Error(), "error parsing filter 0") {
			t.Errorf("expected filter position in %q", err)
		}
		if !strings.Contains(err.Error(), "invalid column binding index: 5 (max: 0)") {
			t.Errorf("unexpected message %q", err)
		}
	})

	t.Run("bad constant", func(t *testing.T) {
		data := pushdown([]string{"id"}, comparison("COMPARE_EQUAL", column(0), constant("INTEGER", `"x"`)))
		if _, err := Parse(data); err == nil {
			t.Fatal("expected error for non-numeric INTEGER constant")
		}
	})
}

func TestLogicalTypeKind(t *testing.T) {
	tests := []struct {
		id   LogicalTypeID
		want expr.Kind
	}{
		{TypeIDBoolean, expr.KindBoolean},
		{TypeIDSmallInt, expr.KindInt16},
		{TypeIDUInteger, expr.KindUint32},
		{TypeIDChar, expr.KindUtf8},
		{TypeIDTimestampNs, expr.KindTimestamp},
		{TypeIDUHugeInt, expr.KindDecimal},
		{TypeIDStruct, expr.KindOther},
		{TypeIDSQLNull, expr.KindNull},
	}
	for _, tt := range tests {
		if got := (LogicalType{ID: tt.id}).Kind(); got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.id, got, tt.want)
		}
	}
	if got := LogicalTypeID("TIMESTAMPTZ").Normalize(); got != TypeIDTimestampTZ {
		t.Errorf("Normalize: got %s", got)
	}
}

func TestParseValuesOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"tinyint", `{"type": {"id": "TINYINT"}, "is_null": false, "value": 300}`},
		{"negative tinyint", `{"type": {"id": "TINYINT"}, "is_null": false, "value": -129}`},
		{"smallint", `{"type": {"id": "SMALLINT"}, "is_null": false, "value": 32768}`},
		{"integer", `{"type": {"id": "INTEGER"}, "is_null": false, "value": 2147483648}`},
		{"utinyint", `{"type": {"id": "UTINYINT"}, "is_null": false, "value": 256}`},
		{"usmallint", `{"type": {"id": "USMALLINT"}, "is_null": false, "value": 65536}`},
		{"uinteger", `{"type": {"id": "UINTEGER"}, "is_null": false, "value": 4294967296}`},
		{"date", `{"type": {"id": "DATE"}, "is_null": false, "value": 4294967296}`},
		{"decimal injection", `{"type": {"id": "DECIMAL", "type_info": {"type": "DECIMAL_TYPE_INFO", "width": 10, "scale": 0}}, "is_null": false, "value": "1) OR (1=1"}`},
		{"decimal sign", `{"type": {"id": "DECIMAL", "type_info": {"type": "DECIMAL_TYPE_INFO", "width": 10, "scale": 0}}, "is_null": false, "value": "+-5"}`},
		{"decimal exponent", `{"type": {"id": "DECIMAL", "type_info": null}, "is_null": false, "value": 1e5}`},
		{"decimal scale", `{"type": {"id": "DECIMAL", "type_info": {"type": "DECIMAL_TYPE_INFO", "width": 10, "scale": 2}}, "is_null": false, "value": "1.234"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := parseValue([]byte(tt.value))
			if err == nil {
				t.Fatalf("expected error, got %s", v)
			}
		})
	}

	t.Run("decimal text never reaches SQL", func(t *testing.T) {
		price := `{"expression_class": "BOUND_COLUMN_REF", "type": "BOUND_COLUMN_REF", "alias": "",
			"return_type": {"id": "DECIMAL", "type_info": {"type": "DECIMAL_TYPE_INFO", "width": 18, "scale": 2}},
			"binding": {"table_index": 0, "column_index": 0}, "depth": 0}`
		injected := `{"expression_class": "BOUND_CONSTANT", "type": "VALUE_CONSTANT", "alias": "",
			"value": {"type": {"id": "DECIMAL", "type_info": {"type": "DECIMAL_TYPE_INFO", "width": 18, "scale": 2}},
			"is_null": false, "value": "1) OR (1=1"}}`
		fp, err := Parse(pushdown([]string{"price"}, comparison("COMPARE_EQUAL", price, injected)))
		if err == nil {
			sql, _ := EncodeFilters(fp, nil)
			t.Fatalf("expected parse error, got WHERE %s", sql)
		}
	})

	t.Run("whole filter fails", func(t *testing.T) {
		data := pushdown([]string{"id"}, comparison("COMPARE_EQUAL", column(0), constant("TINYINT", "300")))
		if _, err := Parse(data); err == nil {
			t.Fatal("expected error for TINYINT constant 300")
		}
	})
}
