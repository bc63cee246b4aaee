package types

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Default file name suffixes used by the host workflow.
const (
	DefaultResultsSuffix = "_skeleton_results.csv"
	DefaultSummarySuffix = "_stats.csv"
	DefaultStartSuffix   = "_start"
)

// Container identifies one multi-series image container (e.g. run1.lif).
type Container struct {
	// Dir is the directory holding the container and all derived files.
	Dir string
	// Base is the container file name without its extension.
	Base string
}

// NewContainer derives a Container from the path of the image file.
func NewContainer(path string) Container {
	name := filepath.Base(path)
	return Container{
		Dir:  filepath.Dir(path),
		Base: strings.TrimSuffix(name, filepath.Ext(name)),
	}
}

// SummaryPath returns the path of the container's cumulative summary file.
// An empty suffix selects DefaultSummarySuffix.
func (c Container) SummaryPath(suffix string) string {
	if suffix == "" {
		suffix = DefaultSummarySuffix
	}
	return filepath.Join(c.Dir, c.Base+suffix)
}

// StartPath returns the marker file whose appearance tells the watcher that
// processing of the container is starting over. An empty suffix selects
// DefaultStartSuffix.
func (c Container) StartPath(suffix string) string {
	if suffix == "" {
		suffix = DefaultStartSuffix
	}
	return filepath.Join(c.Dir, c.Base+suffix)
}

// Unit is one processed series/slice of a container.
type Unit struct {
	Container Container
	// Series is the 1-based series number within the container.
	Series int
	// Slice is the 1-based z slice selected for processing.
	Slice int
}

// Label is the name shared by every file produced for the unit.
func (u Unit) Label() string {
	return fmt.Sprintf("%s_series_%d_slice_%d", u.Container.Base, u.Series, u.Slice)
}

// ResultsPath returns where the host writes the unit's skeleton results.
// An empty suffix selects DefaultResultsSuffix.
func (u Unit) ResultsPath(suffix string) string {
	if suffix == "" {
		suffix = DefaultResultsSuffix
	}
	return u.path(suffix)
}

// Image outputs written by the host for each unit.
func (u Unit) CropPath() string      { return u.path(".tif") }
func (u Unit) BinaryPath() string    { return u.path("_binary.tif") }
func (u Unit) TaggedPath() string    { return u.path("_tagged.tif") }
func (u Unit) ProcessedPath() string { return u.path("_processed.tif") }

func (u Unit) path(suffix string) string {
	return filepath.Join(u.Container.Dir, u.Label()+suffix)
}

var labelPattern = regexp.MustCompile(`^(.+)_series_(\d+)_slice_(\d+)$`)

// ParseResultsName maps a results file name inside dir back to its Unit.
// It returns false when name does not follow the results naming contract.
func ParseResultsName(dir, name, suffix string) (Unit, bool) {
	if suffix == "" {
		suffix = DefaultResultsSuffix
	}
	if !strings.HasSuffix(name, suffix) {
		return Unit{}, false
	}
	m := labelPattern.FindStringSubmatch(strings.TrimSuffix(name, suffix))
	if m == nil {
		return Unit{}, false
	}
	series, err := strconv.Atoi(m[2])
	if err != nil || series < 1 {
		return Unit{}, false
	}
	slice, err := strconv.Atoi(m[3])
	if err != nil || slice < 1 {
		return Unit{}, false
	}
	return Unit{
		Container: Container{Dir: dir, Base: m[1]},
		Series:    series,
		Slice:     slice,
	}, true
}

// ParseStartName maps a start marker name inside dir back to its Container.
// Names that carry a unit label are rejected so a marker can never be
// confused with a per-unit file.
func ParseStartName(dir, name, suffix string) (Container, bool) {
	if suffix == "" {
		suffix = DefaultStartSuffix
	}
	base := strings.TrimSuffix(name, suffix)
	if base == name || base == "" || labelPattern.MatchString(base) {
		return Container{}, false
	}
	return Container{Dir: dir, Base: base}, true
}
