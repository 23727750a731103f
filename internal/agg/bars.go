package agg

import (
	"fmt"
	"sort"

	"github.com/banshee-data/incident.report/internal/gtd"
	"github.com/banshee-data/incident.report/internal/tabular"
)

func reversed(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

// barColumns fills the three standard bar columns from ranked group stats.
func barColumns(src *tabular.Source, label string, keys []string, stats map[string]*groupStat) {
	incidents := make([]int, len(keys))
	casualties := make([]float64, len(keys))
	for i, k := range keys {
		incidents[i] = stats[k].incidents
		casualties[i] = stats[k].casualties
	}
	src.SetColumn(label, tabular.Strings(keys))
	src.SetColumn("incidents", tabular.Ints(incidents))
	src.SetColumn("casualties", tabular.Floats(casualties))
}

// CountryBar ranks the twelve highest-casualty countries. The factor order is
// reversed so the heaviest country sits at the top of a horizontal bar.
func CountryBar(s *gtd.Subset, _ Selectors) Result {
	src := tabular.New("country", "incidents", "casualties")
	if s.Empty() {
		return Result{Source: src, YFactors: []string{}}
	}
	stats := statBy(s.Rows, func(r *gtd.Incident) string { return r.Country })
	keys := rankedKeys(stats, func(g *groupStat) float64 { return g.casualties }, 12)
	barColumns(src, "country", keys, stats)
	return Result{Source: src, YFactors: reversed(keys)}
}

// AttackBar counts every attack type present, busiest first.
func AttackBar(s *gtd.Subset, _ Selectors) Result {
	src := tabular.New("attack", "incidents", "casualties")
	if s.Empty() {
		return Result{Source: src, XFactors: []string{}}
	}
	stats := statBy(s.Rows, func(r *gtd.Incident) string { return r.AttackType })
	keys := rankedKeys(stats, func(g *groupStat) float64 { return float64(g.incidents) }, 0)
	barColumns(src, "attack", keys, stats)
	return Result{Source: src, XFactors: keys}
}

// TargetBar ranks the twelve highest-casualty target types.
func TargetBar(s *gtd.Subset, _ Selectors) Result {
	src := tabular.New("target", "incidents", "casualties")
	if s.Empty() {
		return Result{Source: src, YFactors: []string{}}
	}
	stats := statBy(s.Rows, func(r *gtd.Incident) string { return r.TargetType })
	keys := rankedKeys(stats, func(g *groupStat) float64 { return g.casualties }, 12)
	barColumns(src, "target", keys, stats)
	return Result{Source: src, YFactors: reversed(keys)}
}

// WeaponBar counts the ten most used weapon types.
func WeaponBar(s *gtd.Subset, _ Selectors) Result {
	src := tabular.New("weapon", "incidents", "casualties")
	if s.Empty() {
		return Result{Source: src, XFactors: []string{}}
	}
	stats := statBy(s.Rows, func(r *gtd.Incident) string { return r.WeaponType })
	keys := rankedKeys(stats, func(g *groupStat) float64 { return float64(g.incidents) }, 10)
	barColumns(src, "weapon", keys, stats)
	return Result{Source: src, XFactors: keys}
}

// Hotspots ranks the ten busiest cities of the focus region, with an average
// casualty label offset just past the bar end.
func Hotspots(s *gtd.Subset, sel Selectors) Result {
	src := tabular.New("city", "events", "avg_casualties", "label_x", "label_text")
	focus := make([]gtd.Incident, 0)
	for i := range s.Rows {
		if s.Rows[i].Region == sel.HotspotRegion {
			focus = append(focus, s.Rows[i])
		}
	}
	if len(focus) == 0 {
		return Result{Source: src, YFactors: []string{}}
	}

	stats := statBy(focus, func(r *gtd.Incident) string { return r.City })
	keys := rankedKeys(stats, func(g *groupStat) float64 { return float64(g.incidents) }, 10)

	maxEvents := 1.0
	for _, k := range keys {
		if float64(stats[k].incidents) > maxEvents {
			maxEvents = float64(stats[k].incidents)
		}
	}
	events := make([]int, len(keys))
	avg := make([]float64, len(keys))
	labelX := make([]float64, len(keys))
	labelText := make([]string, len(keys))
	for i, k := range keys {
		g := stats[k]
		events[i] = g.incidents
		avg[i] = g.casualties / float64(g.incidents)
		labelX[i] = float64(g.incidents) + maxEvents*0.02
		labelText[i] = fmt.Sprintf("%.1f avg casualties", avg[i])
	}

	src.SetColumn("city", tabular.Strings(keys))
	src.SetColumn("events", tabular.Ints(events))
	src.SetColumn("avg_casualties", tabular.Floats(avg))
	src.SetColumn("label_x", tabular.Floats(labelX))
	src.SetColumn("label_text", tabular.Strings(labelText))
	return Result{Source: src, YFactors: reversed(keys)}
}

// CircleView sizes the ten busiest attack types by their casualty totals.
func CircleView(s *gtd.Subset, _ Selectors) Result {
	src := tabular.New("category", "incidents", "casualties", "size", "color")
	if s.Empty() {
		return Result{Source: src}
	}
	stats := statBy(s.Rows, func(r *gtd.Incident) string { return r.AttackType })
	keys := rankedKeys(stats, func(g *groupStat) float64 { return float64(g.incidents) }, 10)

	maxCasualty := 1.0
	for _, k := range keys {
		if stats[k].casualties > maxCasualty {
			maxCasualty = stats[k].casualties
		}
	}
	incidents := make([]int, len(keys))
	casualties := make([]float64, len(keys))
	sizes := make([]float64, len(keys))
	colors := make([]string, len(keys))
	for i, k := range keys {
		g := stats[k]
		incidents[i] = g.incidents
		casualties[i] = g.casualties
		sizes[i] = interp(g.casualties, 0, maxCasualty, 15, 60)
		colors[i] = attackColor(s.DS, k)
	}

	src.SetColumn("category", tabular.Strings(keys))
	src.SetColumn("incidents", tabular.Ints(incidents))
	src.SetColumn("casualties", tabular.Floats(casualties))
	src.SetColumn("size", tabular.Floats(sizes))
	src.SetColumn("color", tabular.Strings(colors))
	return Result{Source: src}
}

// AttackLethality plots every attack type by count against average casualties
// per event, sized by that average.
func AttackLethality(s *gtd.Subset, _ Selectors) Result {
	src := tabular.New("attack", "incidents", "casualties", "avg", "size", "color")
	if s.Empty() {
		return Result{Source: src}
	}
	stats := statBy(s.Rows, func(r *gtd.Incident) string { return r.AttackType })
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	maxAvg := 1.0
	avg := make([]float64, len(keys))
	for i, k := range keys {
		avg[i] = stats[k].casualties / float64(stats[k].incidents)
		if avg[i] > maxAvg {
			maxAvg = avg[i]
		}
	}
	incidents := make([]int, len(keys))
	casualties := make([]float64, len(keys))
	sizes := make([]float64, len(keys))
	colors := make([]string, len(keys))
	for i, k := range keys {
		incidents[i] = stats[k].incidents
		casualties[i] = stats[k].casualties
		sizes[i] = interp(avg[i], 0, maxAvg, 10, 50)
		colors[i] = attackColor(s.DS, k)
	}

	src.SetColumn("attack", tabular.Strings(keys))
	src.SetColumn("incidents", tabular.Ints(incidents))
	src.SetColumn("casualties", tabular.Floats(casualties))
	src.SetColumn("avg", tabular.Floats(avg))
	src.SetColumn("size", tabular.Floats(sizes))
	src.SetColumn("color", tabular.Strings(colors))
	return Result{Source: src}
}

// TacticSuccess ranks attack types by their success rate.
func TacticSuccess(s *gtd.Subset, _ Selectors) Result {
	src := tabular.New("attack", "rate", "color")
	if s.Empty() {
		return Result{Source: src, YFactors: []string{}}
	}
	totals := countBy(s.Rows, func(r *gtd.Incident) string { return r.AttackType })
	successes := map[string]int{}
	for i := range s.Rows {
		if s.Rows[i].Success {
			successes[s.Rows[i].AttackType]++
		}
	}
	rates := map[string]float64{}
	for k, n := range totals {
		rates[k] = float64(successes[k]) / float64(n)
	}
	keys := make([]string, 0, len(rates))
	for k := range rates {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if rates[keys[i]] != rates[keys[j]] {
			return rates[keys[i]] > rates[keys[j]]
		}
		return keys[i] < keys[j]
	})

	rate := make([]float64, len(keys))
	colors := make([]string, len(keys))
	for i, k := range keys {
		rate[i] = rates[k]
		colors[i] = attackColor(s.DS, k)
	}

	src.SetColumn("attack", tabular.Strings(keys))
	src.SetColumn("rate", tabular.Floats(rate))
	src.SetColumn("color", tabular.Strings(colors))
	return Result{Source: src, YFactors: keys}
}

// attackColor is the shared category colour lookup with a neutral fallback
// for types outside the coloured domain.
func attackColor(ds *gtd.Dataset, attack string) string {
	if c, ok := ds.Meta.AttackColors[attack]; ok {
		return c
	}
	return "#888888"
}
