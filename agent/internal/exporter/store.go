package exporter

import (
	"sort"
	"sync"
	"time"

	"github.com/skelstat/skelstat/agent/internal/compute"
	"github.com/skelstat/skelstat/agent/internal/summary"
)

// UnitEntry is the latest outcome recorded for one unit.
type UnitEntry struct {
	Container string
	Unit      string
	Result    summary.Result
	Err       string // non-empty when the unit failed
	UpdatedAt time.Time
}

// ContainerEntry holds the running totals for one container.
type ContainerEntry struct {
	Container string
	Totals    compute.Totals
	UpdatedAt time.Time
}

// Store is a thread-safe in-memory record of aggregation outcomes.
type Store struct {
	mu         sync.RWMutex
	units      map[string]*UnitEntry
	containers map[string]*ContainerEntry
	now        func() time.Time // injectable for deterministic tests
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		units:      make(map[string]*UnitEntry),
		containers: make(map[string]*ContainerEntry),
		now:        time.Now,
	}
}

// Record stores the outcome of one unit and the container totals after it.
// A later outcome for the same unit replaces the earlier one.
func (s *Store) Record(container string, res summary.Result, err error, totals compute.Totals) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()

	e := &UnitEntry{
		Container: container,
		Unit:      res.Label,
		Result:    res,
		UpdatedAt: now,
	}
	if err != nil {
		e.Err = err.Error()
	}
	s.units[res.Label] = e
	s.containers[container] = &ContainerEntry{
		Container: container,
		Totals:    totals,
		UpdatedAt: now,
	}
}

// Units returns a copy of every unit entry ordered by container then unit.
func (s *Store) Units() []UnitEntry {
	s.mu.RLock()
	out := make([]UnitEntry, 0, len(s.units))
	for _, e := range s.units {
		out = append(out, *e)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Container != out[j].Container {
			return out[i].Container < out[j].Container
		}
		return out[i].Unit < out[j].Unit
	})
	return out
}

// Containers returns a copy of every container entry ordered by name.
func (s *Store) Containers() []ContainerEntry {
	s.mu.RLock()
	out := make([]ContainerEntry, 0, len(s.containers))
	for _, e := range s.containers {
		out = append(out, *e)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Container < out[j].Container })
	return out
}
