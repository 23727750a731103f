// Package filter holds the dashboard filter state and the pure engine that
// slices the dataset with it.
package filter

import (
	"github.com/banshee-data/incident.report/internal/gtd"
)

// Selector values shared by the ternary filters and the presentation
// selectors.
const (
	All             = "All"
	NoneHighlighted = "None"

	MetricIncidents  = "Incidents"
	MetricFatalities = "Fatalities"
	MetricWounded    = "Wounded"
	MetricCasualties = "Casualties"
)

// TimelineMetrics is the valid timeline metric domain, in display order.
var TimelineMetrics = []string{MetricIncidents, MetricFatalities, MetricWounded, MetricCasualties}

// State is the full set of filter parameters plus the presentation-only
// selectors. It is owned by the orchestrator; the aggregation layer reads it
// through Selectors and never mutates it.
type State struct {
	YearLo, YearHi int

	// Selection sets. An empty list applies no restriction; see the Open
	// Question note in DESIGN.md.
	Regions     []string
	AttackTypes []string
	TargetTypes []string

	FatalityLo, FatalityHi float64
	CasualtyLo, CasualtyHi float64

	Outcome string // All | Successful | Failed
	Suicide string // All | Suicide | Non-suicide

	// Presentation-only selectors.
	TimelineMetric  string
	HighlightRegion string
	HotspotRegion   string
}

// Defaults computes the startup filter state from the dataset's observed
// bounds: the year window opens at 1990 (or the dataset start if later), the
// selection sets cover the full domains, and the numeric ranges cap at the
// 95th percentile.
func Defaults(ds *gtd.Dataset) State {
	m := &ds.Meta
	yearLo := m.YearMin
	if yearLo < 1990 && m.YearMax >= 1990 {
		yearLo = 1990
	}
	hotspot := All
	if len(m.HotspotRegions) > 0 {
		hotspot = m.HotspotRegions[0]
	}
	return State{
		YearLo:          yearLo,
		YearHi:          m.YearMax,
		Regions:         append([]string(nil), m.Regions...),
		AttackTypes:     append([]string(nil), m.AttackTypes...),
		TargetTypes:     append([]string(nil), m.TargetTypes...),
		FatalityLo:      0,
		FatalityHi:      float64(int(m.FatalityQ95)),
		CasualtyLo:      0,
		CasualtyHi:      float64(int(m.CasualtyQ95)),
		Outcome:         All,
		Suicide:         All,
		TimelineMetric:  MetricIncidents,
		HighlightRegion: NoneHighlighted,
		HotspotRegion:   hotspot,
	}
}

// Clone returns a deep copy of the state.
func (s *State) Clone() State {
	out := *s
	out.Regions = append([]string(nil), s.Regions...)
	out.AttackTypes = append([]string(nil), s.AttackTypes...)
	out.TargetTypes = append([]string(nil), s.TargetTypes...)
	return out
}
