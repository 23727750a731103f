package agg

import (
	"github.com/banshee-data/incident.report/internal/gtd"
	"github.com/banshee-data/incident.report/internal/tabular"
)

// Seasonality counts incidents per calendar month over the fixed Jan–Dec
// axis, zero-filling quiet months.
func Seasonality(s *gtd.Subset, _ Selectors) Result {
	src := tabular.New("month", "incidents")
	if s.Empty() {
		return Result{Source: src, XFactors: append([]string(nil), gtd.MonthOrder...)}
	}

	counts := countBy(s.Rows, func(r *gtd.Incident) string { return r.MonthName })
	incidents := make([]int, len(gtd.MonthOrder))
	for i, m := range gtd.MonthOrder {
		incidents[i] = counts[m]
	}

	src.SetColumn("month", tabular.Strings(gtd.MonthOrder))
	src.SetColumn("incidents", tabular.Ints(incidents))
	return Result{Source: src, XFactors: append([]string(nil), gtd.MonthOrder...)}
}

// PeriodView totals events and casualties per historical period over the
// fixed period axis. Rows outside the period bins are excluded, and both
// axis ceilings carry ten percent headroom with a floor of one.
func PeriodView(s *gtd.Subset, _ Selectors) Result {
	src := tabular.New("period", "events", "casualties")
	stats := map[string]*groupStat{}
	for i := range s.Rows {
		if s.Rows[i].Period == "" {
			continue
		}
		g := stats[s.Rows[i].Period]
		if g == nil {
			g = &groupStat{}
			stats[s.Rows[i].Period] = g
		}
		g.add(&s.Rows[i])
	}
	if len(stats) == 0 {
		return Result{Source: src, Ranges: map[string]Range{
			"events":     {Lo: 0, Hi: 1},
			"casualties": {Lo: 0, Hi: 1},
		}}
	}

	events := make([]int, len(gtd.PeriodLabels))
	casualties := make([]float64, len(gtd.PeriodLabels))
	maxEvents, maxCasualties := 0.0, 0.0
	for i, p := range gtd.PeriodLabels {
		if g := stats[p]; g != nil {
			events[i] = g.incidents
			casualties[i] = g.casualties
		}
		if float64(events[i]) > maxEvents {
			maxEvents = float64(events[i])
		}
		if casualties[i] > maxCasualties {
			maxCasualties = casualties[i]
		}
	}

	src.SetColumn("period", tabular.Strings(gtd.PeriodLabels))
	src.SetColumn("events", tabular.Ints(events))
	src.SetColumn("casualties", tabular.Floats(casualties))
	return Result{Source: src, Ranges: map[string]Range{
		"events":     {Lo: 0, Hi: floorOne(maxEvents * 1.1)},
		"casualties": {Lo: 0, Hi: floorOne(maxCasualties * 1.1)},
	}}
}

// TargetSeverity splits killed and wounded totals across the pinned top
// target types, zero-filling types absent from the subset.
func TargetSeverity(s *gtd.Subset, _ Selectors) Result {
	src := tabular.New("target", "killed", "wounded")
	if s.Empty() {
		return Result{Source: src, XFactors: []string{}}
	}

	stats := statBy(s.Rows, func(r *gtd.Incident) string { return r.TargetType })
	targets := s.DS.Meta.TopTargetTypes
	killed := make([]float64, len(targets))
	wounded := make([]float64, len(targets))
	for i, t := range targets {
		if g := stats[t]; g != nil {
			killed[i] = g.kills
			wounded[i] = g.wounds
		}
	}

	src.SetColumn("target", tabular.Strings(targets))
	src.SetColumn("killed", tabular.Floats(killed))
	src.SetColumn("wounded", tabular.Floats(wounded))
	return Result{Source: src, XFactors: append([]string(nil), targets...)}
}
