package filter

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/hugr-lab/pushdown-go/expr"
)

// Parse parses filter pushdown JSON from the DuckDB Airport extension into
// expression trees. Empty input yields an empty FilterPushdown.
//
// Expressions the IR cannot represent become *expr.Opaque nodes rather than
// errors, so a single exotic predicate does not fail the whole parse.
// Malformed JSON and column references outside the binding list are errors.
func Parse(data []byte) (*FilterPushdown, error) {
	if len(data) == 0 {
		return &FilterPushdown{}, nil
	}

	var raw rawFilterPushdown
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("filter: invalid JSON: %w", err)
	}

	p := &parser{bindings: raw.ColumnBindings}
	fp := &FilterPushdown{
		ColumnBindings: raw.ColumnBindings,
		Filters:        make([]expr.Expr, 0, len(raw.Filters)),
	}
	for i, rawExpr := range raw.Filters {
		e, err := p.expression(rawExpr)
		if err != nil {
			return nil, fmt.Errorf("filter: error parsing filter %d: %w", i, err)
		}
		fp.Filters = append(fp.Filters, e)
	}
	return fp, nil
}

type rawFilterPushdown struct {
	Filters        []json.RawMessage `json:"filters"`
	ColumnBindings []string          `json:"column_binding_names_by_index"`
}

// rawExpression carries the union of fields used by the supported classes.
// Each class reads only its own fields.
type rawExpression struct {
	ExpressionClass ExpressionClass   `json:"expression_class"`
	Type            ExpressionType    `json:"type"`
	Left            json.RawMessage   `json:"left"`
	Right           json.RawMessage   `json:"right"`
	Children        []json.RawMessage `json:"children"`
	Value           json.RawMessage   `json:"value"`
	Binding         struct {
		TableIndex  int `json:"table_index"`
		ColumnIndex int `json:"column_index"`
	} `json:"binding"`
	ReturnType     json.RawMessage `json:"return_type"`
	Name           string          `json:"name"`
	IsOperator     bool            `json:"is_operator"`
	Child          json.RawMessage `json:"child"`
	TryCast        bool            `json:"try_cast"`
	Input          json.RawMessage `json:"input"`
	Lower          json.RawMessage `json:"lower"`
	Upper          json.RawMessage `json:"upper"`
	LowerInclusive bool            `json:"lower_inclusive"`
	UpperInclusive bool            `json:"upper_inclusive"`
}

type parser struct {
	bindings []string
}

func (p *parser) expression(data json.RawMessage) (expr.Expr, error) {
	var raw rawExpression
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid expression: %w", err)
	}

	switch raw.ExpressionClass {
	case ClassBoundColumnRef:
		return p.columnRef(&raw)
	case ClassBoundConstant:
		v, err := parseValue(raw.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid constant: %w", err)
		}
		return expr.Lit(v), nil
	case ClassBoundComparison:
		return p.comparison(&raw)
	case ClassBoundConjunction:
		return p.conjunction(&raw)
	case ClassBoundBetween:
		return p.between(&raw)
	case ClassBoundOperator:
		return p.operator(&raw)
	case ClassBoundFunction:
		return p.function(&raw)
	case ClassBoundCast:
		return p.cast(&raw)
	}
	return opaque(&raw), nil
}

func opaque(raw *rawExpression) *expr.Opaque {
	return &expr.Opaque{Class: string(raw.ExpressionClass), Type: string(raw.Type)}
}

func (p *parser) columnRef(raw *rawExpression) (expr.Expr, error) {
	idx := raw.Binding.ColumnIndex
	if idx < 0 || idx >= len(p.bindings) {
		return nil, &ColumnBindingError{Index: idx, Max: len(p.bindings)}
	}
	return expr.Col(p.bindings[idx]), nil
}

func (p *parser) list(items []json.RawMessage) ([]expr.Expr, error) {
	out := make([]expr.Expr, 0, len(items))
	for i, item := range items {
		e, err := p.expression(item)
		if err != nil {
			return nil, fmt.Errorf("invalid child %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (p *parser) comparison(raw *rawExpression) (expr.Expr, error) {
	left, err := p.expression(raw.Left)
	if err != nil {
		return nil, fmt.Errorf("invalid left operand: %w", err)
	}

	switch raw.Type {
	case TypeCompareIn, TypeCompareNotIn:
		// The right side is a list_value function call holding the members.
		var rhs rawExpression
		if err := json.Unmarshal(raw.Right, &rhs); err != nil {
			return nil, fmt.Errorf("invalid right operand: %w", err)
		}
		if rhs.ExpressionClass != ClassBoundFunction {
			return opaque(raw), nil
		}
		members, err := p.list(rhs.Children)
		if err != nil {
			return nil, fmt.Errorf("invalid right operand: %w", err)
		}
		return &expr.InList{Expr: left, List: members, Negated: raw.Type == TypeCompareNotIn}, nil
	}

	right, err := p.expression(raw.Right)
	if err != nil {
		return nil, fmt.Errorf("invalid right operand: %w", err)
	}
	op, ok := comparisonOperators[raw.Type]
	if !ok {
		return opaque(raw), nil
	}
	return expr.Binary(left, op, right), nil
}

func (p *parser) conjunction(raw *rawExpression) (expr.Expr, error) {
	children, err := p.list(raw.Children)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return opaque(raw), nil
	}
	switch raw.Type {
	case TypeConjunctionAnd:
		return expr.And(children...), nil
	case TypeConjunctionOr:
		return expr.Or(children...), nil
	}
	return opaque(raw), nil
}

// between keeps inclusive ranges as Between and spells other bounds out as
// a conjunction of comparisons.
func (p *parser) between(raw *rawExpression) (expr.Expr, error) {
	input, err := p.expression(raw.Input)
	if err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	lower, err := p.expression(raw.Lower)
	if err != nil {
		return nil, fmt.Errorf("invalid lower bound: %w", err)
	}
	upper, err := p.expression(raw.Upper)
	if err != nil {
		return nil, fmt.Errorf("invalid upper bound: %w", err)
	}

	negated := raw.Type == TypeCompareNotBetween
	if raw.LowerInclusive && raw.UpperInclusive {
		return &expr.Between{Expr: input, Negated: negated, Low: lower, High: upper}, nil
	}

	lowOp, highOp := expr.OpGt, expr.OpLt
	if raw.LowerInclusive {
		lowOp = expr.OpGtEq
	}
	if raw.UpperInclusive {
		highOp = expr.OpLtEq
	}
	out := expr.And(expr.Binary(input, lowOp, lower), expr.Binary(input, highOp, upper))
	if negated {
		out = &expr.Not{Expr: out}
	}
	return out, nil
}

func (p *parser) operator(raw *rawExpression) (expr.Expr, error) {
	children, err := p.list(raw.Children)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return opaque(raw), nil
	}

	switch raw.Type {
	case TypeOperatorIsNull:
		return &expr.IsNull{Expr: children[0]}, nil
	case TypeOperatorIsNotNull:
		return &expr.IsNotNull{Expr: children[0]}, nil
	case TypeOperatorNot:
		return &expr.Not{Expr: children[0]}, nil
	case TypeCompareIn, TypeCompareNotIn:
		// children[0] is the tested value, the rest are the members.
		if len(children) < 2 {
			return opaque(raw), nil
		}
		return &expr.InList{Expr: children[0], List: children[1:], Negated: raw.Type == TypeCompareNotIn}, nil
	case TypeOperatorCoalesce:
		return &expr.ScalarFunction{Name: "coalesce", Args: children}, nil
	case TypeOperatorNullIf:
		return &expr.ScalarFunction{Name: "nullif", Args: children}, nil
	}
	return opaque(raw), nil
}

func (p *parser) function(raw *rawExpression) (expr.Expr, error) {
	args, err := p.list(raw.Children)
	if err != nil {
		return nil, err
	}
	name := strings.ToLower(raw.Name)

	if len(args) == 2 {
		switch name {
		case "~~", "like":
			return &expr.Like{Expr: args[0], Pattern: args[1]}, nil
		case "!~~", "not_like":
			return &expr.Like{Expr: args[0], Pattern: args[1], Negated: true}, nil
		case "~~*", "ilike":
			return &expr.Like{Expr: args[0], Pattern: args[1], CaseInsensitive: true}, nil
		case "!~~*", "not_ilike":
			return &expr.Like{Expr: args[0], Pattern: args[1], Negated: true, CaseInsensitive: true}, nil
		}
		if op, ok := operatorFunctions[name]; ok {
			return expr.Binary(args[0], op, args[1]), nil
		}
	}
	return &expr.ScalarFunction{Name: raw.Name, Args: args}, nil
}

func (p *parser) cast(raw *rawExpression) (expr.Expr, error) {
	child, err := p.expression(raw.Child)
	if err != nil {
		return nil, fmt.Errorf("invalid child: %w", err)
	}
	lt, err := parseLogicalType(raw.ReturnType)
	if err != nil {
		return nil, fmt.Errorf("invalid return type: %w", err)
	}
	return &expr.Cast{Expr: child, TypeName: lt.SQLName()}, nil
}

// parseLogicalType parses a serialized LogicalType.
func parseLogicalType(data json.RawMessage) (LogicalType, error) {
	if len(data) == 0 || string(data) == "null" {
		return LogicalType{}, nil
	}

	var raw struct {
		ID       string `json:"id"`
		TypeInfo *struct {
			Type string `json:"type"`
			DecimalTypeInfo
		} `json:"type_info"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return LogicalType{}, fmt.Errorf("invalid logical type: %w", err)
	}

	lt := LogicalType{ID: LogicalTypeID(strings.ToUpper(raw.ID)).Normalize()}
	if raw.TypeInfo != nil && raw.TypeInfo.Type == "DECIMAL_TYPE_INFO" {
		info := raw.TypeInfo.DecimalTypeInfo
		lt.Decimal = &info
	}
	return lt, nil
}

// parseValue parses a serialized constant into a scalar of the matching kind.
func parseValue(data json.RawMessage) (expr.ScalarValue, error) {
	if len(data) == 0 || string(data) == "null" {
		return expr.Null(), nil
	}

	var raw struct {
		Type   json.RawMessage `json:"type"`
		IsNull bool            `json:"is_null"`
		Value  json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return expr.ScalarValue{}, fmt.Errorf("invalid value: %w", err)
	}

	lt, err := parseLogicalType(raw.Type)
	if err != nil {
		return expr.ScalarValue{}, fmt.Errorf("invalid value type: %w", err)
	}
	if raw.IsNull || len(raw.Value) == 0 || string(raw.Value) == "null" {
		return expr.NullOf(lt.Kind()), nil
	}

	v, err := parseValueData(raw.Value, lt)
	if err != nil {
		return expr.ScalarValue{}, fmt.Errorf("invalid %s value: %w", lt.ID, err)
	}
	return v, nil
}

func parseValueData(data json.RawMessage, lt LogicalType) (expr.ScalarValue, error) {
	switch lt.ID {
	case TypeIDBoolean:
		var v bool
		err := json.Unmarshal(data, &v)
		return expr.Bool(v), err

	case TypeIDTinyInt, TypeIDSmallInt, TypeIDInteger, TypeIDBigInt:
		var v int64
		if err := json.Unmarshal(data, &v); err != nil {
			return expr.ScalarValue{}, err
		}
		return signed(lt.ID, v)

	case TypeIDUTinyInt, TypeIDUSmallInt, TypeIDUInteger, TypeIDUBigInt:
		var v uint64
		if err := json.Unmarshal(data, &v); err != nil {
			return expr.ScalarValue{}, err
		}
		return unsigned(lt.ID, v)

	case TypeIDHugeInt:
		var v HugeInt
		if err := json.Unmarshal(data, &v); err != nil {
			return expr.ScalarValue{}, err
		}
		n := new(big.Int).Lsh(big.NewInt(v.Upper), 64)
		n.Or(n, new(big.Int).SetUint64(v.Lower))
		return hugeInt(lt.ID, n), nil

	case TypeIDUHugeInt:
		var v UHugeInt
		if err := json.Unmarshal(data, &v); err != nil {
			return expr.ScalarValue{}, err
		}
		n := new(big.Int).Lsh(new(big.Int).SetUint64(v.Upper), 64)
		n.Or(n, new(big.Int).SetUint64(v.Lower))
		return hugeInt(lt.ID, n), nil

	case TypeIDFloat, TypeIDDouble:
		f, err := parseFloat(data)
		if err != nil {
			return expr.ScalarValue{}, err
		}
		if lt.ID == TypeIDFloat {
			return expr.Float32(float32(f)), nil
		}
		return expr.Float64(f), nil

	case TypeIDDecimal:
		text, err := decimalText(data)
		if err != nil {
			return expr.ScalarValue{}, err
		}
		var width, scale int32 = 18, 3
		if lt.Decimal != nil {
			width, scale = lt.Decimal.Width, lt.Decimal.Scale
		}
		if err := expr.CheckDecimal(text, width, scale); err != nil {
			return expr.ScalarValue{}, err
		}
		return expr.Decimal(text, width, scale), nil

	case TypeIDVarchar, TypeIDChar:
		b, err := stringData(data)
		return expr.Utf8(string(b)), err

	case TypeIDBlob:
		b, err := stringData(data)
		return expr.Blob(b), err

	case TypeIDDate:
		var v int64
		if err := json.Unmarshal(data, &v); err != nil {
			return expr.ScalarValue{}, err
		}
		if v < math.MinInt32 || v > math.MaxInt32 {
			return expr.ScalarValue{}, fmt.Errorf("%d days out of range", v)
		}
		return expr.Date32(int32(v)), nil

	case TypeIDTimestamp, TypeIDTimestampTZ, TypeIDTimestampMs, TypeIDTimestampNs, TypeIDTimestampSec:
		var v int64
		if err := json.Unmarshal(data, &v); err != nil {
			return expr.ScalarValue{}, err
		}
		tz := ""
		if lt.ID == TypeIDTimestampTZ {
			tz = "UTC"
		}
		return expr.Timestamp(v, lt.timeUnit(), tz), nil

	case TypeIDTime, TypeIDTimeTZ:
		var v int64
		if err := json.Unmarshal(data, &v); err != nil {
			return expr.ScalarValue{}, err
		}
		return expr.Other(lt.SQLName(), formatTimeOfDay(v)), nil

	case TypeIDInterval:
		var v Interval
		if err := json.Unmarshal(data, &v); err != nil {
			return expr.ScalarValue{}, err
		}
		return expr.Other(string(TypeIDInterval), formatInterval(v)), nil

	case TypeIDUUID:
		var s string
		err := json.Unmarshal(data, &s)
		return expr.Other(string(TypeIDUUID), s), err
	}

	// Nested and unknown types keep their JSON text.
	return expr.Other(lt.SQLName(), string(data)), nil
}

func signed(id LogicalTypeID, v int64) (expr.ScalarValue, error) {
	var lo, hi int64
	switch id {
	case TypeIDTinyInt:
		lo, hi = math.MinInt8, math.MaxInt8
	case TypeIDSmallInt:
		lo, hi = math.MinInt16, math.MaxInt16
	case TypeIDInteger:
		lo, hi = math.MinInt32, math.MaxInt32
	default:
		return expr.Int64(v), nil
	}
	if v < lo || v > hi {
		return expr.ScalarValue{}, fmt.Errorf("%d out of range", v)
	}
	switch id {
	case TypeIDTinyInt:
		return expr.Int8(int8(v)), nil
	case TypeIDSmallInt:
		return expr.Int16(int16(v)), nil
	}
	return expr.Int32(int32(v)), nil
}

func unsigned(id LogicalTypeID, v uint64) (expr.ScalarValue, error) {
	var hi uint64
	switch id {
	case TypeIDUTinyInt:
		hi = math.MaxUint8
	case TypeIDUSmallInt:
		hi = math.MaxUint16
	case TypeIDUInteger:
		hi = math.MaxUint32
	default:
		return expr.Uint64(v), nil
	}
	if v > hi {
		return expr.ScalarValue{}, fmt.Errorf("%d out of range", v)
	}
	switch id {
	case TypeIDUTinyInt:
		return expr.Uint8(uint8(v)), nil
	case TypeIDUSmallInt:
		return expr.Uint16(uint16(v)), nil
	}
	return expr.Uint32(uint32(v)), nil
}

// hugeInt carries a 128-bit integer as DECIMAL(38, 0). The few values
// wider than 38 digits stay opaque and are never pushed down.
func hugeInt(id LogicalTypeID, n *big.Int) expr.ScalarValue {
	text := n.String()
	if expr.CheckDecimal(text, expr.MaxDecimalPrecision, 0) != nil {
		return expr.Other(string(id), text)
	}
	return expr.Decimal(text, expr.MaxDecimalPrecision, 0)
}

// parseFloat accepts JSON numbers and the strings DuckDB uses for
// non-finite values ("nan", "inf", "-inf").
func parseFloat(data json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(s, 64)
}

// decimalText returns decimal values as text; DuckDB sends either a string
// or a JSON number.
func decimalText(data json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// stringData decodes a plain JSON string or a {"base64": ...} object.
func stringData(data json.RawMessage) ([]byte, error) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return []byte(s), nil
	}
	var b64 base64String
	if err := json.Unmarshal(data, &b64); err != nil {
		return nil, err
	}
	if b64.Base64 == "" {
		return nil, errors.New("missing base64 payload")
	}
	decoded, err := base64.StdEncoding.DecodeString(b64.Base64)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	return decoded, nil
}

// formatTimeOfDay renders microseconds since midnight as HH:MM:SS[.ffffff].
func formatTimeOfDay(micros int64) string {
	hours := micros / 3600000000
	micros %= 3600000000
	mins := micros / 60000000
	micros %= 60000000
	secs := micros / 1000000
	micros %= 1000000
	if micros > 0 {
		return fmt.Sprintf("%02d:%02d:%02d.%06d", hours, mins, secs, micros)
	}
	return fmt.Sprintf("%02d:%02d:%02d", hours, mins, secs)
}

// formatInterval renders an interval in DuckDB's textual input form.
func formatInterval(v Interval) string {
	var parts []string
	if v.Months != 0 {
		if years := v.Months / 12; years != 0 {
			parts = append(parts, fmt.Sprintf("%d years", years))
		}
		if months := v.Months % 12; months != 0 {
			parts = append(parts, fmt.Sprintf("%d months", months))
		}
	}
	if v.Days != 0 {
		parts = append(parts, fmt.Sprintf("%d days", v.Days))
	}
	if v.Micros != 0 {
		parts = append(parts, fmt.Sprintf("%d microseconds", v.Micros))
	}
	if len(parts) == 0 {
		return "0 seconds"
	}
	return strings.Join(parts, " ")
}
