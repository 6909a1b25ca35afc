package scan

import (
	"log/slog"
	"math"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/pushdown-go/dataset"
	"github.com/hugr-lab/pushdown-go/expr"
	"github.com/hugr-lab/pushdown-go/translate"
)

// Planner decides which filters are pushed into a scan.
// A Planner is safe for concurrent use.
type Planner struct {
	// Logger receives a Debug record for each conjunct left unpushed.
	// OPTIONAL: Uses slog.Default() if nil.
	Logger *slog.Logger

	// MaxDepth bounds the height of a pushed conjunct. Deeper conjuncts are
	// left to the engine.
	// OPTIONAL: 0 means no bound.
	MaxDepth int
}

// NewPlanner returns a Planner that logs to logger.
func NewPlanner(logger *slog.Logger) *Planner {
	return &Planner{Logger: logger}
}

// Plan is the outcome of planning a set of filters.
type Plan struct {
	// Filter is the conjunction of all pushed conjuncts, or nil if none
	// could be pushed.
	Filter dataset.Expression

	// Pushed holds the conjuncts Filter was built from, in input order.
	Pushed []expr.Expr

	// Residual holds the conjuncts that were not pushed.
	Residual []expr.Expr
}

// Plan translates the top-level conjuncts of filters independently.
// Translation failures never surface to the caller: the failing conjunct
// lands in Plan.Residual.
//
// Plan knows no column types; conjuncts comparing a NaN literal are still
// kept back. Use PlanTable when the table schema is known.
func (p *Planner) Plan(filters []expr.Expr) *Plan {
	return p.PlanTable(nil, filters)
}

// PlanTable is Plan for a table with the given schema. Comparisons,
// BETWEEN and IN over a floating point column or a NaN literal stay
// residual: DuckDB sorts NaN above every number and treats NaN = NaN as
// true, while a pushed filter follows IEEE 754 and would drop those rows.
func (p *Planner) PlanTable(schema *arrow.Schema, filters []expr.Expr) *Plan {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	t := translate.New[dataset.Expression](dataset.Builder{})
	plan := &Plan{}
	for _, f := range filters {
		for _, c := range expr.SplitConjunction(f) {
			if p.MaxDepth > 0 {
				if d := expr.Depth(c); d > p.MaxDepth {
					logger.Debug("Filter not pushed down: too deep",
						"conjunct", c.String(),
						"depth", d,
						"max_depth", p.MaxDepth,
					)
					plan.Residual = append(plan.Residual, c)
					continue
				}
			}

			if nanOrdered(schema, c) {
				logger.Debug("Filter not pushed down: NaN ordering",
					"conjunct", c.String(),
				)
				plan.Residual = append(plan.Residual, c)
				continue
			}

			pushed, err := t.Translate(c)
			if err != nil {
				logger.Debug("Filter not pushed down",
					"conjunct", c.String(),
					"kind", translate.KindOf(err).String(),
					"error", err,
				)
				plan.Residual = append(plan.Residual, c)
				continue
			}

			plan.Pushed = append(plan.Pushed, c)
			if plan.Filter == nil {
				plan.Filter = pushed
			} else {
				plan.Filter = dataset.And(plan.Filter, pushed)
			}
		}
	}

	logger.Debug("Filter pushdown planned",
		"pushed", len(plan.Pushed),
		"residual", len(plan.Residual),
	)
	return plan
}

// nanOrdered reports whether e orders or matches values that may be NaN.
func nanOrdered(schema *arrow.Schema, e expr.Expr) bool {
	switch n := e.(type) {
	case *expr.BinaryExpr:
		if n.Op.IsComparison() && (floating(schema, n.Left) || floating(schema, n.Right)) {
			return true
		}
		return nanOrdered(schema, n.Left) || nanOrdered(schema, n.Right)
	case *expr.Not:
		return nanOrdered(schema, n.Expr)
	case *expr.Between:
		return floating(schema, n.Expr) || floating(schema, n.Low) || floating(schema, n.High)
	case *expr.InList:
		if floating(schema, n.Expr) {
			return true
		}
		for _, v := range n.List {
			if floating(schema, v) {
				return true
			}
		}
	}
	return false
}

// floating reports whether e is a floating point column of schema or a
// NaN literal.
func floating(schema *arrow.Schema, e expr.Expr) bool {
	switch n := e.(type) {
	case *expr.Column:
		if schema == nil {
			return false
		}
		idx := schema.FieldIndices(n.Name)
		return len(idx) == 1 && arrow.IsFloating(schema.Field(idx[0]).Type.ID())
	case *expr.Literal:
		return n.Value.Kind().IsFloat() && !n.Value.IsNull() && math.IsNaN(n.Value.Float64())
	}
	return false
}
