package summary

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeFile creates name under dir with content and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

func assertGone(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("%s still exists (stat err = %v)", filepath.Base(path), err)
	}
}

func TestAggregate_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	unit := writeFile(t, dir, "unit.csv", "metric_a,metric_b\n1.0,2.0\n3.0,4.0\n")
	sum := writeFile(t, dir, "stats.csv", "")

	res, err := Aggregate(unit, sum, "")
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if res.Sums.MetricA != 4 || res.Sums.MetricB != 6 {
		t.Errorf("sums: got a=%v b=%v, want 4 and 6", res.Sums.MetricA, res.Sums.MetricB)
	}
	if got := readFile(t, sum); got != "Integrity (J/B),1.5\n" {
		t.Errorf("summary: got %q", got)
	}
	assertGone(t, unit)
}

func TestAggregate_Ratios(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		ratio float64
		line  string
	}{
		{"two rows", "a,b\n2,4\n3,5\n", 1.8, "Integrity (J/B),1.8\n"},
		{"zero denominator", "a,b\n0,4\n0,5\n", 0, "Integrity (J/B),0\n"},
		{"all malformed", "a,b\nx,y\n", 0, "Integrity (J/B),0\n"},
		{"header only", "a,b\n", 0, "Integrity (J/B),0\n"},
		{"malformed row tolerated", "a,b\n2,4\nx,y\n", 2, "Integrity (J/B),2.0\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			unit := writeFile(t, dir, "unit.csv", tc.body)
			sum := writeFile(t, dir, "stats.csv", "")

			res, err := Aggregate(unit, sum, "")
			if err != nil {
				t.Fatalf("Aggregate() error = %v", err)
			}
			if math.Abs(res.Ratio-tc.ratio) > 1e-12 {
				t.Errorf("Ratio: got %v, want %v", res.Ratio, tc.ratio)
			}
			if got := readFile(t, sum); got != tc.line {
				t.Errorf("summary: got %q, want %q", got, tc.line)
			}
			assertGone(t, unit)
		})
	}
}

func TestAggregate_MalformedRowCounted(t *testing.T) {
	dir := t.TempDir()
	unit := writeFile(t, dir, "unit.csv", "a,b\n2,4\nx,y\n")
	sum := writeFile(t, dir, "stats.csv", "")

	res, err := Aggregate(unit, sum, "")
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if res.Sums.MetricA != 2 || res.Sums.MetricB != 4 {
		t.Errorf("sums: got a=%v b=%v, want 2 and 4", res.Sums.MetricA, res.Sums.MetricB)
	}
	if res.Sums.Skipped != 1 {
		t.Errorf("Skipped: got %d, want 1", res.Sums.Skipped)
	}
}

func TestAggregate_MissingIsNoop(t *testing.T) {
	dir := t.TempDir()
	unit := writeFile(t, dir, "unit.csv", "a,b\n1,2\n")
	sum := writeFile(t, dir, "stats.csv", "previous\n")

	if _, err := Aggregate(unit, sum, ""); err != nil {
		t.Fatalf("first Aggregate() error = %v", err)
	}
	before := readFile(t, sum)

	res, err := Aggregate(unit, sum, "")
	if err != nil {
		t.Fatalf("second Aggregate() error = %v", err)
	}
	if !res.Missing {
		t.Error("second call: Missing = false, want true")
	}
	if after := readFile(t, sum); after != before {
		t.Errorf("summary changed by no-op call: %q -> %q", before, after)
	}
}

func TestAggregate_EmptyPath(t *testing.T) {
	res, err := Aggregate("", filepath.Join(t.TempDir(), "stats.csv"), "")
	if err != nil || !res.Missing {
		t.Fatalf("Aggregate(\"\") = %+v, %v; want Missing and nil error", res, err)
	}
}

func TestAggregate_CustomLabel(t *testing.T) {
	dir := t.TempDir()
	unit := writeFile(t, dir, "unit.csv", "a,b\n4,1\n")
	sum := writeFile(t, dir, "stats.csv", "")

	if _, err := Aggregate(unit, sum, "J/B, pooled"); err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if got := readFile(t, sum); got != "\"J/B, pooled\",0.25\n" {
		t.Errorf("summary: got %q", got)
	}
}

func TestAggregate_SummaryUnwritable(t *testing.T) {
	dir := t.TempDir()
	unit := writeFile(t, dir, "unit.csv", "a,b\n1,2\n")
	// A directory cannot be opened for append.
	sum := filepath.Join(dir, "stats.csv")
	if err := os.Mkdir(sum, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	_, err := Aggregate(unit, sum, "")
	if err == nil {
		t.Fatal("expected error appending to a directory, got nil")
	}
	if !strings.Contains(err.Error(), "summary:") {
		t.Errorf("error not prefixed: %v", err)
	}
	if _, statErr := os.Stat(unit); statErr != nil {
		t.Errorf("results file removed despite failed append: %v", statErr)
	}
}

func TestAggregate_RemoveFailure(t *testing.T) {
	dir := t.TempDir()
	unit := writeFile(t, dir, "unit.csv", "a,b\n2,4\n")
	sum := writeFile(t, dir, "stats.csv", "")

	orig := removeFile
	removeFile = func(string) error { return fs.ErrPermission }
	defer func() { removeFile = orig }()

	res, err := Aggregate(unit, sum, "")
	if err == nil {
		t.Fatal("expected error when the results file cannot be removed, got nil")
	}
	if !errors.Is(err, fs.ErrPermission) {
		t.Errorf("error does not wrap fs.ErrPermission: %v", err)
	}
	if !strings.HasPrefix(err.Error(), "summary: remove results file:") {
		t.Errorf("error not prefixed: %v", err)
	}
	// The ratio row was written before the delete was attempted.
	if res.Ratio != 2 {
		t.Errorf("Ratio: got %v, want 2", res.Ratio)
	}
	b, readErr := os.ReadFile(sum)
	if readErr != nil {
		t.Fatalf("read summary: %v", readErr)
	}
	if got, want := string(b), "Integrity (J/B),2.0\n"; got != want {
		t.Errorf("summary: got %q, want %q", got, want)
	}
}

func TestCopySection(t *testing.T) {
	dir := t.TempDir()
	unit := writeFile(t, dir, "unit.csv", "a,b\n1,2\n")
	sum := writeFile(t, dir, "stats.csv", "")

	if err := CopySection(sum, "run1_series_1_slice_4", unit); err != nil {
		t.Fatalf("CopySection() error = %v", err)
	}
	want := "\n\nResults for run1_series_1_slice_4:\na,b\n1,2\n"
	if got := readFile(t, sum); got != want {
		t.Errorf("summary: got %q, want %q", got, want)
	}
	if _, err := os.Stat(unit); err != nil {
		t.Errorf("CopySection must not remove the results file: %v", err)
	}
}

func TestCopySection_AddsMissingNewline(t *testing.T) {
	dir := t.TempDir()
	unit := writeFile(t, dir, "unit.csv", "a,b\n1,2")
	sum := writeFile(t, dir, "stats.csv", "")

	if err := CopySection(sum, "u", unit); err != nil {
		t.Fatalf("CopySection() error = %v", err)
	}
	if _, err := Aggregate(unit, sum, ""); err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	want := "\n\nResults for u:\na,b\n1,2\nIntegrity (J/B),2.0\n"
	if got := readFile(t, sum); got != want {
		t.Errorf("summary: got %q, want %q", got, want)
	}
}

func TestCopySection_MissingResults(t *testing.T) {
	dir := t.TempDir()
	sum := writeFile(t, dir, "stats.csv", "")
	err := CopySection(sum, "u", filepath.Join(dir, "nope.csv"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("CopySection() error = %v, want fs.ErrNotExist", err)
	}
	if got := readFile(t, sum); got != "" {
		t.Errorf("summary written despite missing results: %q", got)
	}
}
