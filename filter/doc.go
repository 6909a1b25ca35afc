// Package filter parses DuckDB Airport filter pushdown JSON into expr trees
// and renders pushable predicates back to DuckDB SQL.
//
// # Parsing
//
// Parse filter JSON received with a scan request:
//
//	fp, err := filter.Parse(data)
//	if err != nil {
//	    return err // malformed JSON or a bad column binding
//	}
//	for _, c := range fp.Conjuncts() {
//	    fmt.Println(c)
//	}
//
// Expressions without an IR counterpart (CASE, window functions, ...) are
// kept as *expr.Opaque nodes. They never fail the parse; they simply do not
// translate.
//
// # SQL
//
// EncodeFilters renders each top-level conjunct through translate with a
// SQLBuilder and returns the rest as the residual:
//
//	where, residual := filter.EncodeFilters(fp, &filter.EncoderOptions{
//	    ColumnMapping: map[string]string{"user_id": "uid"},
//	    ColumnExpressions: map[string]string{
//	        "full_name": "first_name || ' ' || last_name",
//	    },
//	})
//	if where != "" {
//	    query := "SELECT * FROM t WHERE " + where
//	}
//
// The SQL produced for a predicate keeps the same rows as the Arrow
// expression dataset.Builder produces for it, NULL handling included.
// Dropping a conjunct only widens the result; DuckDB re-applies its filters
// client-side.
package filter
