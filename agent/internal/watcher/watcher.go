package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/skelstat/skelstat/agent/internal/compute"
	"github.com/skelstat/skelstat/agent/internal/summary"
	"github.com/skelstat/skelstat/pkg/types"
)

// minTick bounds how often pending files are checked.
const minTick = 10 * time.Millisecond

// Recorder receives the outcome of every processed unit.
type Recorder interface {
	Record(container string, res summary.Result, err error, totals compute.Totals)
}

// Options configure a Watcher.
type Options struct {
	// Dir is the directory the host writes results files into.
	Dir string

	// Naming controls results/summary suffixes and the ratio label.
	Naming summary.Options

	// SettleDelay is the quiet period required before a file is processed.
	SettleDelay time.Duration

	// StartSuffix names the marker file (<container><suffix>) the host drops
	// when a container is processed from scratch. Its arrival resets the
	// container's summary. Empty selects types.DefaultStartSuffix.
	StartSuffix string

	// AfterUnit, if set, runs on the watcher goroutine after each unit.
	AfterUnit func()
}

// Watcher aggregates results files as they appear in a directory.
type Watcher struct {
	opts     Options
	rec      Recorder
	sessions map[string]*summary.Session
	pending  map[string]time.Time
	now      func() time.Time // injectable for deterministic tests
}

// New returns a Watcher. rec may be nil.
func New(opts Options, rec Recorder) *Watcher {
	return &Watcher{
		opts:     opts,
		rec:      rec,
		sessions: make(map[string]*summary.Session),
		pending:  make(map[string]time.Time),
		now:      time.Now,
	}
}

// Run watches the directory until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.opts.Dir); err != nil {
		return fmt.Errorf("watcher: watch %s: %w", w.opts.Dir, err)
	}
	if err := w.scan(); err != nil {
		return err
	}

	slog.Info("watcher: watching for results", "dir", w.opts.Dir,
		"suffix", w.opts.Naming.ResultsSuffix, "settle_delay", w.opts.SettleDelay)

	tick := w.opts.SettleDelay / 2
	if tick < minTick {
		tick = minTick
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.matches(event.Name) {
				continue
			}
			switch {
			case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
				w.pending[event.Name] = w.now()
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				delete(w.pending, event.Name)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher: fsnotify error", "err", err)

		case <-ticker.C:
			w.flush(w.now())
		}
	}
}

// ProcessFile aggregates one results file immediately. It returns false when
// the name does not follow the results naming contract.
func (w *Watcher) ProcessFile(path string) (summary.Result, bool, error) {
	u, ok := types.ParseResultsName(filepath.Dir(path), filepath.Base(path), w.opts.Naming.ResultsSuffix)
	if !ok {
		return summary.Result{}, false, nil
	}

	s := w.session(u.Container)
	res, err := s.ProcessUnit(u)
	w.record(u.Container, res, err, s.Totals())
	return res, true, err
}

// StartContainer handles a start marker: the container's summary is reset,
// its totals start from zero and the marker is removed. It returns false when
// the name is not a start marker. On failure the marker is left in place.
func (w *Watcher) StartContainer(path string) (bool, error) {
	c, ok := types.ParseStartName(filepath.Dir(path), filepath.Base(path), w.opts.StartSuffix)
	if !ok {
		return false, nil
	}

	s := summary.NewSession(c, w.opts.Naming)
	if err := s.Start(); err != nil {
		return true, err
	}
	w.sessions[c.Base] = s
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return true, fmt.Errorf("watcher: remove start marker: %w", err)
	}
	return true, nil
}

// Totals returns the running totals for a container base name. It must not
// be called while Run is active.
func (w *Watcher) Totals(base string) (compute.Totals, bool) {
	s, ok := w.sessions[base]
	if !ok {
		return compute.Totals{}, false
	}
	return s.Totals(), true
}

// scan marks every matching file already in the directory as pending.
func (w *Watcher) scan() error {
	entries, err := os.ReadDir(w.opts.Dir)
	if err != nil {
		return fmt.Errorf("watcher: scan %s: %w", w.opts.Dir, err)
	}
	now := w.now()
	for _, e := range entries {
		path := filepath.Join(w.opts.Dir, e.Name())
		if e.Type().IsRegular() && w.matches(path) {
			w.pending[path] = now
		}
	}
	if n := len(w.pending); n > 0 {
		slog.Info("watcher: found results from before start", "count", n)
	}
	return nil
}

// pendingFile is a settled file with the key it is processed in.
type pendingFile struct {
	path  string
	base  string
	start bool
	unit  types.Unit
}

// flush processes every pending file that has been quiet long enough. Files
// run per container, a start marker first and then units in series/slice
// order.
func (w *Watcher) flush(now time.Time) {
	var ready []pendingFile
	for path, last := range w.pending {
		if now.Sub(last) < w.opts.SettleDelay {
			continue
		}
		if f, ok := w.classify(path); ok {
			ready = append(ready, f)
		}
	}
	sort.Slice(ready, func(i, j int) bool {
		a, b := ready[i], ready[j]
		switch {
		case a.base != b.base:
			return a.base < b.base
		case a.start != b.start:
			return a.start
		case a.unit.Series != b.unit.Series:
			return a.unit.Series < b.unit.Series
		case a.unit.Slice != b.unit.Slice:
			return a.unit.Slice < b.unit.Slice
		}
		return a.path < b.path
	})

	for _, f := range ready {
		delete(w.pending, f.path)
		if f.start {
			if _, err := w.StartContainer(f.path); err != nil {
				slog.Error("watcher: container start failed", "path", f.path, "err", err)
				continue
			}
			slog.Info("watcher: container started", "container", f.base)
			continue
		}
		res, _, err := w.ProcessFile(f.path)
		if err != nil {
			slog.Error("watcher: unit failed", "path", f.path, "err", err)
			continue
		}
		if res.Missing {
			slog.Debug("watcher: results file vanished before processing", "path", f.path)
		}
	}
}

// session returns the container's session, creating it on first sight. An
// existing summary is appended to, never reset.
func (w *Watcher) session(c types.Container) *summary.Session {
	if s, ok := w.sessions[c.Base]; ok {
		return s
	}
	s := summary.NewSession(c, w.opts.Naming)
	w.sessions[c.Base] = s
	return s
}

func (w *Watcher) record(c types.Container, res summary.Result, err error, totals compute.Totals) {
	if w.rec != nil {
		w.rec.Record(c.Base, res, err, totals)
	}
	if w.opts.AfterUnit != nil {
		w.opts.AfterUnit()
	}
}

func (w *Watcher) classify(path string) (pendingFile, bool) {
	dir, name := filepath.Dir(path), filepath.Base(path)
	if u, ok := types.ParseResultsName(dir, name, w.opts.Naming.ResultsSuffix); ok {
		return pendingFile{path: path, base: u.Container.Base, unit: u}, true
	}
	if c, ok := types.ParseStartName(dir, name, w.opts.StartSuffix); ok {
		return pendingFile{path: path, base: c.Base, start: true}, true
	}
	return pendingFile{}, false
}

func (w *Watcher) matches(path string) bool {
	_, ok := w.classify(path)
	return ok
}
