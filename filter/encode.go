package filter

import "strings"

// EncoderOptions configures SQL rendering.
type EncoderOptions struct {
	// ColumnMapping maps DuckDB column names to backend names.
	// OPTIONAL: columns not in the map keep their names.
	ColumnMapping map[string]string

	// ColumnExpressions replaces column names with SQL expressions, e.g.
	// computed columns. OPTIONAL: takes precedence over ColumnMapping.
	ColumnExpressions map[string]string
}

func escapeString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// quoteLiteral returns a SQL string literal.
func quoteLiteral(s string) string {
	return "'" + escapeString(s) + "'"
}

// quoteIdentifier double-quotes name when it is not a plain identifier.
func quoteIdentifier(name string) string {
	if needsQuoting(name) {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
	return name
}

func needsQuoting(name string) bool {
	if name == "" {
		return true
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return true
			}
		default:
			// Upper case letters are folded by DuckDB unless quoted.
			return true
		}
	}
	return reservedWords[strings.ToUpper(name)]
}

// reservedWords is a subset of DuckDB keywords that cannot be bare
// identifiers.
var reservedWords = map[string]bool{
	"ALL": true, "AND": true, "ANY": true, "ARRAY": true, "AS": true, "ASC": true,
	"BETWEEN": true, "BOTH": true, "CASE": true, "CAST": true, "CHECK": true,
	"COLLATE": true, "COLUMN": true, "CONSTRAINT": true, "CREATE": true,
	"DATE": true, "DEFAULT": true, "DESC": true, "DISTINCT": true, "DO": true,
	"ELSE": true, "END": true, "EXCEPT": true, "EXISTS": true, "FALSE": true,
	"FETCH": true, "FOR": true, "FOREIGN": true, "FROM": true, "GROUP": true,
	"HAVING": true, "IN": true, "INTERSECT": true, "INTERVAL": true, "INTO": true,
	"IS": true, "JOIN": true, "LIKE": true, "LIMIT": true, "NOT": true,
	"NULL": true, "OFFSET": true, "ON": true, "OR": true, "ORDER": true,
	"PRIMARY": true, "REFERENCES": true, "SELECT": true, "TABLE": true,
	"THEN": true, "TIME": true, "TIMESTAMP": true, "TO": true, "TRUE": true,
	"UNION": true, "UNIQUE": true, "USING": true, "WHEN": true, "WHERE": true,
	"WINDOW": true, "WITH": true,
}
