package summary

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/skelstat/skelstat/agent/internal/compute"
	"github.com/skelstat/skelstat/pkg/types"
)

// Options tune file naming for a Session. Zero values select the defaults.
type Options struct {
	ResultsSuffix string
	SummarySuffix string
	RatioLabel    string
}

// Session aggregates every unit of one container into its summary file.
//
// ProcessUnit serialises callers, so the summary is only ever appended to by
// one unit at a time and in call order.
type Session struct {
	container types.Container
	opts      Options
	path      string

	mu    sync.Mutex
	tally compute.Tally
}

// NewSession returns a Session for c. It does not touch the filesystem.
func NewSession(c types.Container, opts Options) *Session {
	return &Session{
		container: c,
		opts:      opts,
		path:      c.SummaryPath(opts.SummarySuffix),
	}
}

// Container returns the container this session writes for.
func (s *Session) Container() types.Container { return s.container }

// Path returns the summary file path.
func (s *Session) Path() string { return s.path }

// Start discards any previous summary for the container and creates an
// empty file in its place.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("summary: reset %s: %w", s.path, err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("summary: create %s: %w", s.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("summary: create %s: %w", s.path, err)
	}
	slog.Info("summary: started", "container", s.container.Base, "path", s.path)
	return nil
}

// ProcessUnit copies the unit's results section into the summary and then
// appends its ratio. A missing results file skips both steps.
func (s *Session) ProcessUnit(u types.Unit) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	label := u.Label()
	resultsPath := u.ResultsPath(s.opts.ResultsSuffix)

	if _, err := os.Stat(resultsPath); errors.Is(err, fs.ErrNotExist) {
		slog.Info("summary: results file missing, skipping unit",
			"unit", label, "path", resultsPath)
		s.tally.AddMissing()
		return Result{Label: label, Missing: true}, nil
	}

	if err := CopySection(s.path, label, resultsPath); err != nil {
		s.tally.AddFailed()
		return Result{Label: label}, err
	}

	res, err := Aggregate(resultsPath, s.path, s.opts.RatioLabel)
	res.Label = label
	switch {
	case err != nil:
		s.tally.AddFailed()
		return res, err
	case res.Missing:
		s.tally.AddMissing()
	default:
		s.tally.Add(res.Sums)
		slog.Info("summary: unit aggregated",
			"unit", label,
			"rows", res.Sums.Rows,
			"skipped", res.Sums.Skipped,
			"ratio", res.Ratio,
		)
	}
	return res, nil
}

// Totals returns the container-level totals recorded so far.
func (s *Session) Totals() compute.Totals {
	return s.tally.Snapshot()
}
