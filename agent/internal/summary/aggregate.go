package summary

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/skelstat/skelstat/agent/internal/compute"
	"github.com/skelstat/skelstat/agent/internal/results"
)

// removeFile deletes the consumed results file. Replaced in tests.
var removeFile = os.Remove

// Result is the outcome of aggregating one unit.
type Result struct {
	// Label identifies the unit inside the summary file.
	Label string

	// Missing is true when the results file did not exist. Nothing was
	// written or deleted in that case.
	Missing bool

	Sums  results.Sums
	Ratio float64
}

// Aggregate sums the first two columns of the results file at resultsPath,
// appends the ratio row to summaryPath and then removes resultsPath.
//
// label is the first field of the ratio row; empty selects
// compute.DefaultLabel.
func Aggregate(resultsPath, summaryPath, label string) (Result, error) {
	if label == "" {
		label = compute.DefaultLabel
	}
	if resultsPath == "" {
		slog.Info("summary: no results to analyze")
		return Result{Missing: true}, nil
	}

	sums, err := results.ReadFile(resultsPath)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("summary: results file missing, skipping", "path", resultsPath)
		return Result{Missing: true}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("summary: %w", err)
	}
	for _, w := range sums.Warnings {
		slog.Warn("summary: non-numeric data found in results",
			"path", resultsPath, "line", w.Line, "reason", w.Reason)
	}

	res := Result{
		Sums:  sums,
		Ratio: compute.Ratio(sums.MetricA, sums.MetricB),
	}
	if err := appendRow(summaryPath, []string{label, compute.FormatResult(sums.MetricA, res.Ratio)}); err != nil {
		return res, err
	}

	if err := removeFile(resultsPath); err != nil {
		return res, fmt.Errorf("summary: remove results file: %w", err)
	}
	return res, nil
}

// CopySection appends the raw contents of the results file to the summary,
// preceded by a blank line and a "Results for <label>:" heading.
func CopySection(summaryPath, label, resultsPath string) error {
	src, err := os.Open(resultsPath)
	if err != nil {
		return fmt.Errorf("summary: open results file: %w", err)
	}
	defer src.Close()

	dst, err := openAppend(summaryPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.WriteString(dst, "\n\nResults for "+label+":\n"); err != nil {
		return fmt.Errorf("summary: write section header: %w", err)
	}
	lw := &lastByteWriter{w: dst}
	if _, err := io.Copy(lw, src); err != nil {
		return fmt.Errorf("summary: copy results: %w", err)
	}
	if lw.n > 0 && lw.last != '\n' {
		if _, err := io.WriteString(dst, "\n"); err != nil {
			return fmt.Errorf("summary: copy results: %w", err)
		}
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("summary: copy results: %w", err)
	}
	return nil
}

func appendRow(path string, row []string) error {
	f, err := openAppend(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		return fmt.Errorf("summary: append ratio: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("summary: append ratio: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("summary: append ratio: %w", err)
	}
	return nil
}

func openAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("summary: open summary file: %w", err)
	}
	return f, nil
}

// lastByteWriter remembers the final byte written through it.
type lastByteWriter struct {
	w    io.Writer
	n    int64
	last byte
}

func (l *lastByteWriter) Write(p []byte) (int, error) {
	n, err := l.w.Write(p)
	if n > 0 {
		l.n += int64(n)
		l.last = p[n-1]
	}
	return n, err
}
