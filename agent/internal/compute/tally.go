package compute

import (
	"sync"

	"github.com/skelstat/skelstat/agent/internal/results"
)

// Totals is a point-in-time copy of a Tally.
type Totals struct {
	Units       int     // units whose ratio was appended
	Missing     int     // units skipped because the results file was absent
	Failed      int     // units that hit an I/O failure
	RowsSummed  int
	RowsSkipped int
	MetricA     float64
	MetricB     float64
	Ratio       float64 // pooled MetricB / MetricA across all units
}

// Tally accumulates per-unit sums for one container.
//
// All exported methods are safe for concurrent use.
type Tally struct {
	mu sync.Mutex
	t  Totals
}

// Add records one aggregated unit.
func (t *Tally) Add(s results.Sums) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.t.Units++
	t.t.RowsSummed += s.Rows
	t.t.RowsSkipped += s.Skipped
	t.t.MetricA += s.MetricA
	t.t.MetricB += s.MetricB
	t.t.Ratio = Ratio(t.t.MetricA, t.t.MetricB)
}

// AddMissing records a unit whose results file did not exist.
func (t *Tally) AddMissing() {
	t.mu.Lock()
	t.t.Missing++
	t.mu.Unlock()
}

// AddFailed records a unit that could not be aggregated.
func (t *Tally) AddFailed() {
	t.mu.Lock()
	t.t.Failed++
	t.mu.Unlock()
}

// Snapshot returns the current totals.
func (t *Tally) Snapshot() Totals {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.t
}
