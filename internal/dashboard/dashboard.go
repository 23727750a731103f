// Package dashboard owns the mutable state of one dashboard instance: the
// loaded dataset, the current filter state, and the published aggregation
// outputs. All mutation funnels through Apply, which refreshes every output
// in registry order under the state lock.
package dashboard

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/incident.report/internal/agg"
	"github.com/banshee-data/incident.report/internal/filter"
	"github.com/banshee-data/incident.report/internal/gtd"
)

// Command is a state mutation request. Commands are validated against the
// current state before anything is touched; a rejected command leaves the
// filters and every published output exactly as they were.
type Command interface {
	apply(s *State) error
}

// FilterChanged patches the filter state with the non-nil fields of Update.
type FilterChanged struct {
	Update filter.Update
}

// ResetRequested restores the dataset-derived filter defaults.
type ResetRequested struct{}

// State is the single authority over filters and published outputs.
type State struct {
	mu sync.Mutex

	ds      *gtd.Dataset
	filters filter.State

	order   []string
	outputs map[string]agg.Result

	lastRefresh   time.Time
	refreshCount  int
	lastRefreshID string
}

// New builds the state around a loaded dataset and publishes the initial
// outputs for the default filters.
func New(ds *gtd.Dataset) *State {
	s := &State{
		ds:      ds,
		filters: filter.Defaults(ds),
	}
	for _, e := range agg.Registry() {
		s.order = append(s.order, e.Name)
	}
	s.mu.Lock()
	s.refreshLocked()
	s.mu.Unlock()
	return s
}

// Dataset returns the loaded dataset. It is immutable after load.
func (s *State) Dataset() *gtd.Dataset { return s.ds }

// Filters returns a copy of the current filter state.
func (s *State) Filters() filter.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters.Clone()
}

// Names returns the published output names in registry order.
func (s *State) Names() []string {
	return append([]string(nil), s.order...)
}

// Output returns one published output by name.
func (s *State) Output(name string) (agg.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.outputs[name]
	return res, ok
}

// Outputs returns the full published output map.
func (s *State) Outputs() map[string]agg.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]agg.Result, len(s.outputs))
	for k, v := range s.outputs {
		out[k] = v
	}
	return out
}

// Apply runs one command and, if it is accepted, refreshes every output.
func (s *State) Apply(cmd Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := cmd.apply(s); err != nil {
		return err
	}
	s.refreshLocked()
	return nil
}

func (c FilterChanged) apply(s *State) error {
	if err := c.Update.Apply(s.ds, &s.filters); err != nil {
		return fmt.Errorf("filter update rejected: %w", err)
	}
	return nil
}

func (ResetRequested) apply(s *State) error {
	s.filters = filter.Defaults(s.ds)
	return nil
}

// refreshLocked applies the filter engine once and reruns every registry
// entry, swapping the whole output map in one step. Callers hold mu.
func (s *State) refreshLocked() {
	runID := uuid.New().String()
	start := time.Now()

	sub := filter.Apply(s.ds, &s.filters)
	sel := agg.Selectors{
		TimelineMetric:  s.filters.TimelineMetric,
		HighlightRegion: s.filters.HighlightRegion,
		HotspotRegion:   s.filters.HotspotRegion,
	}

	next := make(map[string]agg.Result, len(s.order))
	for _, e := range agg.Registry() {
		next[e.Name] = e.Fn(sub, sel)
	}
	s.outputs = next

	s.lastRefresh = time.Now()
	s.refreshCount++
	s.lastRefreshID = runID
	log.Printf("refresh %s: %d/%d rows, %d outputs in %s",
		runID, len(sub.Rows), len(s.ds.Incidents), len(next), time.Since(start).Round(time.Microsecond))
}

// Stats reports refresh bookkeeping for the status endpoint.
func (s *State) Stats() (count int, last time.Time, lastID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCount, s.lastRefresh, s.lastRefreshID
}
