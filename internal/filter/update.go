package filter

import (
	"fmt"

	"github.com/banshee-data/incident.report/internal/gtd"
)

// Update is a partial filter patch. Fields left nil keep their current
// values, so a control surface can send just the parameter that changed.
type Update struct {
	YearLo *int `json:"year_lo,omitempty"`
	YearHi *int `json:"year_hi,omitempty"`

	Regions     *[]string `json:"regions,omitempty"`
	AttackTypes *[]string `json:"attack_types,omitempty"`
	TargetTypes *[]string `json:"target_types,omitempty"`

	FatalityLo *float64 `json:"fatality_lo,omitempty"`
	FatalityHi *float64 `json:"fatality_hi,omitempty"`
	CasualtyLo *float64 `json:"casualty_lo,omitempty"`
	CasualtyHi *float64 `json:"casualty_hi,omitempty"`

	Outcome *string `json:"outcome,omitempty"`
	Suicide *string `json:"suicide,omitempty"`

	TimelineMetric  *string `json:"timeline_metric,omitempty"`
	HighlightRegion *string `json:"highlight_region,omitempty"`
	HotspotRegion   *string `json:"hotspot_region,omitempty"`
}

// Validate checks the patch against the current state and the dataset's
// domains before anything is mutated, so a rejected command leaves no trace.
func (u *Update) Validate(ds *gtd.Dataset, current *State) error {
	next := current.Clone()
	u.applyTo(&next)

	if next.YearLo > next.YearHi {
		return fmt.Errorf("year range [%d,%d] is inverted", next.YearLo, next.YearHi)
	}
	if next.FatalityLo > next.FatalityHi {
		return fmt.Errorf("fatality range [%g,%g] is inverted", next.FatalityLo, next.FatalityHi)
	}
	if next.CasualtyLo > next.CasualtyHi {
		return fmt.Errorf("casualty range [%g,%g] is inverted", next.CasualtyLo, next.CasualtyHi)
	}
	switch next.Outcome {
	case All, gtd.OutcomeSuccessful, gtd.OutcomeFailed:
	default:
		return fmt.Errorf("unknown outcome selector %q", next.Outcome)
	}
	switch next.Suicide {
	case All, gtd.SuicideLabel, gtd.NonSuicideLabel:
	default:
		return fmt.Errorf("unknown suicide selector %q", next.Suicide)
	}
	if !contains(TimelineMetrics, next.TimelineMetric) {
		return fmt.Errorf("unknown timeline metric %q", next.TimelineMetric)
	}
	if next.HighlightRegion != NoneHighlighted && !contains(ds.Meta.Regions, next.HighlightRegion) {
		return fmt.Errorf("unknown highlight region %q", next.HighlightRegion)
	}
	if next.HotspotRegion != All && !contains(ds.Meta.Regions, next.HotspotRegion) {
		return fmt.Errorf("unknown hotspot region %q", next.HotspotRegion)
	}
	return nil
}

// Apply validates the patch and then mutates the state. The state is
// untouched on error.
func (u *Update) Apply(ds *gtd.Dataset, st *State) error {
	if err := u.Validate(ds, st); err != nil {
		return err
	}
	u.applyTo(st)
	return nil
}

func (u *Update) applyTo(st *State) {
	if u.YearLo != nil {
		st.YearLo = *u.YearLo
	}
	if u.YearHi != nil {
		st.YearHi = *u.YearHi
	}
	if u.Regions != nil {
		st.Regions = append([]string(nil), (*u.Regions)...)
	}
	if u.AttackTypes != nil {
		st.AttackTypes = append([]string(nil), (*u.AttackTypes)...)
	}
	if u.TargetTypes != nil {
		st.TargetTypes = append([]string(nil), (*u.TargetTypes)...)
	}
	if u.FatalityLo != nil {
		st.FatalityLo = *u.FatalityLo
	}
	if u.FatalityHi != nil {
		st.FatalityHi = *u.FatalityHi
	}
	if u.CasualtyLo != nil {
		st.CasualtyLo = *u.CasualtyLo
	}
	if u.CasualtyHi != nil {
		st.CasualtyHi = *u.CasualtyHi
	}
	if u.Outcome != nil {
		st.Outcome = *u.Outcome
	}
	if u.Suicide != nil {
		st.Suicide = *u.Suicide
	}
	if u.TimelineMetric != nil {
		st.TimelineMetric = *u.TimelineMetric
	}
	if u.HighlightRegion != nil {
		st.HighlightRegion = *u.HighlightRegion
	}
	if u.HotspotRegion != nil {
		st.HotspotRegion = *u.HotspotRegion
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
