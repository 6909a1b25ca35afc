package filter

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/hugr-lab/pushdown-go/expr"
	"github.com/hugr-lab/pushdown-go/translate"
)

// SQLBuilder renders pushed-down predicates as DuckDB SQL. It implements
// translate.Builder, so every predicate it renders has the same semantics
// as its Arrow counterpart built by dataset.Builder.
//
// SQLBuilder is immutable and safe for concurrent use.
type SQLBuilder struct {
	opts EncoderOptions
}

var _ translate.Builder[string] = (*SQLBuilder)(nil)

// NewSQLBuilder returns a builder. A nil opts uses the defaults.
func NewSQLBuilder(opts *EncoderOptions) *SQLBuilder {
	b := &SQLBuilder{}
	if opts != nil {
		b.opts = *opts
	}
	return b
}

func (b *SQLBuilder) Field(name string) string {
	if sql, ok := b.opts.ColumnExpressions[name]; ok {
		return "(" + sql + ")"
	}
	if mapped, ok := b.opts.ColumnMapping[name]; ok {
		name = mapped
	}
	return quoteIdentifier(name)
}

func (b *SQLBuilder) Literal(v expr.ScalarValue) (string, error) {
	if v.IsNull() {
		return "", fmt.Errorf("%w: %s", translate.ErrUnsupportedScalar, v)
	}
	switch v.Kind() {
	case expr.KindBoolean:
		if v.Bool() {
			return "TRUE", nil
		}
		return "FALSE", nil
	case expr.KindInt8, expr.KindInt16, expr.KindInt32, expr.KindInt64:
		return strconv.FormatInt(v.Int64(), 10), nil
	case expr.KindUint8, expr.KindUint16, expr.KindUint32, expr.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10), nil
	case expr.KindFloat32:
		return formatFloat(v.Float64(), 32, "FLOAT"), nil
	case expr.KindFloat64:
		return formatFloat(v.Float64(), 64, "DOUBLE"), nil
	case expr.KindUtf8:
		return quoteLiteral(v.Str()), nil
	case expr.KindBinary:
		return formatBlob(v.Bytes()), nil
	case expr.KindDate32:
		t := time.Unix(v.Int64()*86400, 0).UTC()
		return "DATE '" + t.Format("2006-01-02") + "'", nil
	case expr.KindTimestamp:
		return formatTimestamp(v), nil
	case expr.KindDecimal:
		if err := expr.CheckDecimal(v.Str(), v.Precision(), v.Scale()); err != nil {
			return "", fmt.Errorf("%w: %w", translate.ErrUnsupportedScalar, err)
		}
		return fmt.Sprintf("CAST(%s AS DECIMAL(%d, %d))", quoteLiteral(v.Str()), v.Precision(), v.Scale()), nil
	case expr.KindOther:
		switch v.TypeName() {
		case "TIME", "TIME WITH TIME ZONE", "INTERVAL", "UUID":
			return "CAST(" + quoteLiteral(v.Str()) + " AS " + v.TypeName() + ")", nil
		}
	}
	return "", fmt.Errorf("%w: %s", translate.ErrUnsupportedScalar, v)
}

func binary(l, op, r string) string { return "(" + l + " " + op + " " + r + ")" }

func (b *SQLBuilder) Eq(l, r string) string  { return binary(l, "=", r) }
func (b *SQLBuilder) Ne(l, r string) string  { return binary(l, "<>", r) }
func (b *SQLBuilder) Lt(l, r string) string  { return binary(l, "<", r) }
func (b *SQLBuilder) Le(l, r string) string  { return binary(l, "<=", r) }
func (b *SQLBuilder) Gt(l, r string) string  { return binary(l, ">", r) }
func (b *SQLBuilder) Ge(l, r string) string  { return binary(l, ">=", r) }
func (b *SQLBuilder) And(l, r string) string { return binary(l, "AND", r) }
func (b *SQLBuilder) Or(l, r string) string  { return binary(l, "OR", r) }

func (b *SQLBuilder) Invert(e string) string { return "(NOT " + e + ")" }

func (b *SQLBuilder) IsValid(e string) string { return "(" + e + " IS NOT NULL)" }

func (b *SQLBuilder) IsNull(e string, nanIsNull bool) string {
	if nanIsNull {
		return "(" + e + " IS NULL OR isnan(" + e + "))"
	}
	return "(" + e + " IS NULL)"
}

// IsIn renders membership that is false, not NULL, for a NULL input.
func (b *SQLBuilder) IsIn(e string, values []any) (string, error) {
	if len(values) == 0 {
		return "FALSE", nil
	}
	items := make([]string, len(values))
	for i, v := range values {
		s, err := formatGoValue(v)
		if err != nil {
			return "", err
		}
		items[i] = s
	}
	return "COALESCE(" + e + " IN (" + strings.Join(items, ", ") + "), FALSE)", nil
}

func formatGoValue(v any) (string, error) {
	switch x := v.(type) {
	case bool:
		if x {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int8, int16, int32, int64, int, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", x), nil
	case float32:
		return formatFloat(float64(x), 32, "FLOAT"), nil
	case float64:
		return formatFloat(x, 64, "DOUBLE"), nil
	case string:
		return quoteLiteral(x), nil
	}
	return "", fmt.Errorf("filter: cannot render %T as SQL", v)
}

func formatFloat(f float64, bits int, typeName string) string {
	switch {
	case math.IsNaN(f):
		return "CAST('NaN' AS " + typeName + ")"
	case math.IsInf(f, 1):
		return "CAST('Infinity' AS " + typeName + ")"
	case math.IsInf(f, -1):
		return "CAST('-Infinity' AS " + typeName + ")"
	}
	return "CAST(" + strconv.FormatFloat(f, 'g', -1, bits) + " AS " + typeName + ")"
}

func formatBlob(b []byte) string {
	var sb strings.Builder
	sb.WriteString("'")
	enc := hex.EncodeToString(b)
	for i := 0; i < len(enc); i += 2 {
		sb.WriteString(`\x`)
		sb.WriteString(enc[i : i+2])
	}
	sb.WriteString("'::BLOB")
	return sb.String()
}

func formatTimestamp(v expr.ScalarValue) string {
	n := v.Int64()
	var t time.Time
	var typeName, layout string
	switch v.TimeUnit() {
	case expr.Second:
		t, typeName, layout = time.Unix(n, 0), "TIMESTAMP_S", "2006-01-02 15:04:05"
	case expr.Millisecond:
		t, typeName, layout = time.UnixMilli(n), "TIMESTAMP_MS", "2006-01-02 15:04:05.000"
	case expr.Nanosecond:
		t, typeName, layout = time.Unix(0, n), "TIMESTAMP_NS", "2006-01-02 15:04:05.000000000"
	default:
		t, typeName, layout = time.UnixMicro(n), "TIMESTAMP", "2006-01-02 15:04:05.000000"
	}
	if v.Timezone() != "" {
		return "CAST('" + t.UTC().Format(layout) + "+00' AS TIMESTAMPTZ)"
	}
	return "CAST('" + t.UTC().Format(layout) + "' AS " + typeName + ")"
}

// EncodeFilters renders the pushable conjuncts of fp as a WHERE clause body
// (without the WHERE keyword). Conjuncts that do not translate are returned
// as the residual; the clause is empty when nothing translates.
//
// Dropping a conjunct only widens the result, which is safe because DuckDB
// re-applies its filters client-side.
func EncodeFilters(fp *FilterPushdown, opts *EncoderOptions) (string, []expr.Expr) {
	b := NewSQLBuilder(opts)
	t := translate.New[string](b)

	var parts []string
	var residual []expr.Expr
	for _, c := range fp.Conjuncts() {
		sql, err := t.Translate(c)
		if err != nil {
			residual = append(residual, c)
			continue
		}
		parts = append(parts, sql)
	}
	return strings.Join(parts, " AND "), residual
}
