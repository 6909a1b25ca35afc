// Package scan is the data-source side of filter pushdown.
//
// A Planner splits the engine's filters into top-level conjuncts, translates
// each into a dataset.Expression and combines the ones that translate into a
// single pushed filter. Conjuncts that do not translate stay with the engine
// as the residual; the engine re-applies every filter anyway, so dropping one
// never changes query results.
//
//	plan := scan.NewPlanner(logger).Plan(fp.Filters)
//	reader = scan.NewFilterReader(ctx, mem, reader, plan.Filter)
//	defer reader.Release()
//
// Collect drains several partition readers concurrently.
package scan
