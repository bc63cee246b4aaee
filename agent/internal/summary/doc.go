// Package summary maintains the cumulative per-container summary file.
//
// Each processed unit contributes two appends, kept as separate steps:
//
//	CopySection(summary, label, results)  blank-line separator, "Results for <label>:",
//	                                      then the results file bytes verbatim
//	Aggregate(results, summary, label)    sums columns 0 and 1, appends
//	                                      "<label>,<ratio>", deletes the results file
//
// A missing results file is not an error: Aggregate logs it and returns a
// Result with Missing set, without writing or deleting anything. Rows that do
// not parse are logged and excluded from the sums. Failures to append to the
// summary or to delete the results file are returned to the caller.
//
// Session ties both steps to one container. It owns the summary path,
// resets the file on Start, and keeps a compute.Tally of every unit. The
// summary file is append-only; callers must not share it between sessions.
package summary
