package agg

import (
	"fmt"
	"sort"

	"github.com/banshee-data/incident.report/internal/filter"
	"github.com/banshee-data/incident.report/internal/gtd"
	"github.com/banshee-data/incident.report/internal/tabular"
)

// yearStats groups the subset by year, ascending.
func yearStats(rows []gtd.Incident) (years []int, stats map[int]*groupStat) {
	stats = map[int]*groupStat{}
	for i := range rows {
		r := &rows[i]
		g := stats[r.Year]
		if g == nil {
			g = &groupStat{}
			stats[r.Year] = g
		}
		g.add(r)
	}
	years = make([]int, 0, len(stats))
	for y := range stats {
		years = append(years, y)
	}
	sort.Ints(years)
	return years, stats
}

func metricOf(g *groupStat, metric string) float64 {
	switch metric {
	case filter.MetricFatalities:
		return g.kills
	case filter.MetricWounded:
		return g.wounds
	case filter.MetricCasualties:
		return g.casualties
	default:
		return float64(g.incidents)
	}
}

// Timeline is the per-year series of every headline measure plus the
// currently selected metric column.
func Timeline(s *gtd.Subset, sel Selectors) Result {
	src := tabular.New("year", "incidents", "fatalities", "wounded", "casualties", "metric")
	if s.Empty() {
		return Result{Source: src}
	}

	years, stats := yearStats(s.Rows)
	n := len(years)
	incidents := make([]int, n)
	fatalities := make([]float64, n)
	wounded := make([]float64, n)
	casualties := make([]float64, n)
	metric := make([]float64, n)
	for i, y := range years {
		g := stats[y]
		incidents[i] = g.incidents
		fatalities[i] = g.kills
		wounded[i] = g.wounds
		casualties[i] = g.casualties
		metric[i] = metricOf(g, sel.TimelineMetric)
	}

	src.SetColumn("year", tabular.Ints(years))
	src.SetColumn("incidents", tabular.Ints(incidents))
	src.SetColumn("fatalities", tabular.Floats(fatalities))
	src.SetColumn("wounded", tabular.Floats(wounded))
	src.SetColumn("casualties", tabular.Floats(casualties))
	src.SetColumn("metric", tabular.Floats(metric))
	return Result{Source: src}
}

// TimelineEvents overlays the eight highest-casualty events on the timeline,
// anchored at their year's metric value.
func TimelineEvents(s *gtd.Subset, sel Selectors) Result {
	src := tabular.New("year", "metric", "text")
	if s.Empty() {
		return Result{Source: src}
	}

	_, stats := yearStats(s.Rows)

	top := topByCasualties(s.Rows, 8)
	years := make([]int, len(top))
	metric := make([]float64, len(top))
	texts := make([]string, len(top))
	for i, r := range top {
		years[i] = r.Year
		if g := stats[r.Year]; g != nil {
			metric[i] = metricOf(g, sel.TimelineMetric)
		}
		texts[i] = fmt.Sprintf("%s · %s (%d)", r.Country, r.City, int(r.Casualties))
	}

	src.SetColumn("year", tabular.Ints(years))
	src.SetColumn("metric", tabular.Floats(metric))
	src.SetColumn("text", tabular.Strings(texts))
	return Result{Source: src}
}

// topByCasualties returns the n highest-casualty rows, ties broken by event
// id so repeated refreshes yield the same order.
func topByCasualties(rows []gtd.Incident, n int) []gtd.Incident {
	sorted := append([]gtd.Incident(nil), rows...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Casualties != sorted[j].Casualties {
			return sorted[i].Casualties > sorted[j].Casualties
		}
		return sorted[i].EventID < sorted[j].EventID
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// SuicideTrend is the per-year share of suicide attacks.
func SuicideTrend(s *gtd.Subset, _ Selectors) Result {
	src := tabular.New("year", "rate")
	if s.Empty() {
		return Result{Source: src}
	}

	years, stats := yearStats(s.Rows)
	suicides := map[int]int{}
	for i := range s.Rows {
		if s.Rows[i].Suicide {
			suicides[s.Rows[i].Year]++
		}
	}
	rates := make([]float64, len(years))
	for i, y := range years {
		rates[i] = float64(suicides[y]) / float64(stats[y].incidents)
	}

	src.SetColumn("year", tabular.Ints(years))
	src.SetColumn("rate", tabular.Floats(rates))
	return Result{
		Source: src,
		Ranges: map[string]Range{"x": {Lo: float64(years[0]), Hi: float64(years[len(years)-1])}},
	}
}

// OrgSplit splits each year's incidents into named-organization and
// unaffiliated counts.
func OrgSplit(s *gtd.Subset, _ Selectors) Result {
	src := tabular.New("year", "organized", "unorganized")
	if s.Empty() {
		return Result{Source: src}
	}

	years, stats := yearStats(s.Rows)
	organized := map[int]int{}
	for i := range s.Rows {
		if s.Rows[i].Group != gtd.UnknownGroup {
			organized[s.Rows[i].Year]++
		}
	}
	org := make([]int, len(years))
	unorg := make([]int, len(years))
	for i, y := range years {
		org[i] = organized[y]
		unorg[i] = stats[y].incidents - organized[y]
	}

	src.SetColumn("year", tabular.Ints(years))
	src.SetColumn("organized", tabular.Ints(org))
	src.SetColumn("unorganized", tabular.Ints(unorg))
	return Result{Source: src}
}

// SeverityDual pairs the per-year incident count with the average casualties
// per event.
func SeverityDual(s *gtd.Subset, _ Selectors) Result {
	src := tabular.New("year", "incidents", "avg_casualties")
	if s.Empty() {
		return Result{Source: src}
	}

	years, stats := yearStats(s.Rows)
	incidents := make([]int, len(years))
	avg := make([]float64, len(years))
	maxAvg := 0.0
	for i, y := range years {
		g := stats[y]
		incidents[i] = g.incidents
		avg[i] = g.casualties / float64(g.incidents)
		if avg[i] > maxAvg {
			maxAvg = avg[i]
		}
	}

	src.SetColumn("year", tabular.Ints(years))
	src.SetColumn("incidents", tabular.Ints(incidents))
	src.SetColumn("avg_casualties", tabular.Floats(avg))
	return Result{
		Source: src,
		Ranges: map[string]Range{"avg": {Lo: 0, Hi: maxAvg * 1.2}},
	}
}
