// Package results reads the per-unit skeleton results file written by the
// image-analysis host.
//
// Read(r) parses comma-separated rows after a single header row and returns
// Sums: the totals of column 0 (MetricA) and column 1 (MetricB) over every
// row where both fields parse as numbers. Rows that fail to parse, including
// rows with CSV syntax errors or fewer than two fields, are reported as
// RowWarning values and left out of both sums. Only errors from the
// underlying reader are returned.
//
// ReadFile(path) opens the file, calls Read and always closes the handle.
package results
