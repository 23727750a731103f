package filter

import "github.com/banshee-data/incident.report/internal/gtd"

// Apply slices the dataset with the given state and returns the matching
// subset. It is a pure function: the dataset is never mutated and every
// predicate is a commutative conjunction, so evaluation order is free. The
// returned subset may be empty; that is a valid input to every aggregation.
func Apply(ds *gtd.Dataset, st *State) *gtd.Subset {
	regions := asSet(st.Regions)
	attacks := asSet(st.AttackTypes)
	targets := asSet(st.TargetTypes)

	sub := &gtd.Subset{DS: ds}
	for i := range ds.Incidents {
		r := &ds.Incidents[i]
		if r.Year < st.YearLo || r.Year > st.YearHi {
			continue
		}
		if regions != nil && !regions[r.Region] {
			continue
		}
		if attacks != nil && !attacks[r.AttackType] {
			continue
		}
		if targets != nil && !targets[r.TargetType] {
			continue
		}
		if r.Kills < st.FatalityLo || r.Kills > st.FatalityHi {
			continue
		}
		if r.Casualties < st.CasualtyLo || r.Casualties > st.CasualtyHi {
			continue
		}
		if st.Outcome != All && r.OutcomeLabel() != st.Outcome {
			continue
		}
		if st.Suicide != All && r.SuicideFlag() != st.Suicide {
			continue
		}
		sub.Rows = append(sub.Rows, *r)
	}
	return sub
}

// asSet returns nil for an empty selection, which Apply treats as "no
// restriction".
func asSet(vals []string) map[string]bool {
	if len(vals) == 0 {
		return nil
	}
	set := make(map[string]bool, len(vals))
	for _, v := range vals {
		set[v] = true
	}
	return set
}
