package results

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// RowWarning describes one data row that was left out of the sums.
type RowWarning struct {
	// Line is the 1-based line number in the results file.
	Line   int
	Reason string
}

func (w RowWarning) String() string {
	return fmt.Sprintf("line %d: %s", w.Line, w.Reason)
}

// Sums is the parsed content of one per-unit results file.
type Sums struct {
	// Header is the first row as read, nil for an empty file.
	Header []string

	// MetricA and MetricB are the totals of columns 0 and 1.
	MetricA float64
	MetricB float64

	// Rows counts data rows that contributed to the sums.
	Rows int

	// Skipped counts data rows excluded from the sums.
	Skipped  int
	Warnings []RowWarning
}

// Read parses a results table from r. The header row is consumed and kept in
// Sums.Header; it never contributes to the totals.
func Read(r io.Reader) (Sums, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	var s Sums
	first := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return s, nil
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return s, fmt.Errorf("results: read: %w", err)
			}
			if first {
				first = false
				continue
			}
			s.skip(perr.Line, perr.Err.Error())
			continue
		}

		line, _ := cr.FieldPos(0)
		if first {
			first = false
			s.Header = append([]string(nil), rec...)
			continue
		}
		s.add(line, rec)
	}
}

// ReadFile opens path and parses it with Read.
func ReadFile(path string) (Sums, error) {
	f, err := os.Open(path)
	if err != nil {
		return Sums{}, fmt.Errorf("results: open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

func (s *Sums) add(line int, rec []string) {
	if len(rec) < 2 {
		s.skip(line, fmt.Sprintf("expected at least 2 fields, got %d", len(rec)))
		return
	}
	a, err := parseField(rec[0])
	if err != nil {
		s.skip(line, fmt.Sprintf("field 0: %v", err))
		return
	}
	b, err := parseField(rec[1])
	if err != nil {
		s.skip(line, fmt.Sprintf("field 1: %v", err))
		return
	}
	s.MetricA += a
	s.MetricB += b
	s.Rows++
}

func (s *Sums) skip(line int, reason string) {
	s.Skipped++
	s.Warnings = append(s.Warnings, RowWarning{Line: line, Reason: reason})
}

func parseField(v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		var nerr *strconv.NumError
		if errors.As(err, &nerr) {
			return 0, fmt.Errorf("%q: %v", v, nerr.Err)
		}
		return 0, err
	}
	return f, nil
}
