// Package dataset is an Arrow-native filter expression algebra.
//
// Expressions reference columns by name, carry literals as Arrow scalars,
// and combine them with the compute functions equal, not_equal, less,
// less_equal, greater, greater_equal, and_kleene, or_kleene, invert,
// is_valid, is_null and is_in. Builder implements translate.Builder so
// expr trees can be converted directly:
//
//	filter, err := translate.Translate[dataset.Expression](dataset.Builder{}, e)
//	if err != nil {
//		return err
//	}
//	out, err := dataset.Filter(ctx, mem, batch, filter)
//
// # Null semantics
//
// Comparisons with a null operand are null. and_kleene and or_kleene follow
// three-valued logic. is_in returns false for a null input. Filter keeps only
// rows whose mask is true.
//
// Evaluation runs on the arrow/compute kernels, which promote mixed operands
// to a common type. Decimals compare exactly at a common scale; dates compare
// with timestamps at the finer unit.
//
// Floating point comparisons follow IEEE 754: NaN is unequal to every value.
package dataset
