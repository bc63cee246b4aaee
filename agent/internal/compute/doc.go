// Package compute derives the integrity ratio from summed skeleton results.
//
// ratio.go provides the pure Ratio(a, b) function (b/a, or 0 when a is 0) and
// FormatRatio, which renders the value the way earlier summary files did so
// old and new summaries stay comparable.
//
// tally.go provides Tally, the running per-container totals kept by a
// summary session. Its pooled ratio is computed over the summed columns of
// every aggregated unit, not as a mean of per-unit ratios.
package compute
