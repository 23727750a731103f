package agg

import (
	"sort"
	"strconv"

	"github.com/banshee-data/incident.report/internal/filter"
	"github.com/banshee-data/incident.report/internal/gtd"
	"github.com/banshee-data/incident.report/internal/palette"
	"github.com/banshee-data/incident.report/internal/tabular"
)

// yearCategoryCounts pivots the subset into per-year counts for a pinned
// category order, zero-filling absent pairs. Years come back ascending.
func yearCategoryCounts(rows []gtd.Incident, categories []string, key func(*gtd.Incident) string) (years []int, counts map[int][]float64) {
	keep := map[string]int{}
	for i, c := range categories {
		keep[c] = i
	}
	counts = map[int][]float64{}
	for i := range rows {
		idx, ok := keep[key(&rows[i])]
		if !ok {
			continue
		}
		row := counts[rows[i].Year]
		if row == nil {
			row = make([]float64, len(categories))
			counts[rows[i].Year] = row
		}
		row[idx]++
	}
	years = make([]int, 0, len(counts))
	for y := range counts {
		years = append(years, y)
	}
	sort.Ints(years)
	return years, counts
}

// shareRows normalises each pivot row by its total, floored at one.
func shareRows(years []int, counts map[int][]float64) {
	for _, y := range years {
		row := counts[y]
		total := 0.0
		for _, v := range row {
			total += v
		}
		total = floorOne(total)
		for i := range row {
			row[i] /= total
		}
	}
}

// pivotSource lays a year pivot out as one column per category.
func pivotSource(years []int, counts map[int][]float64, categories []string) *tabular.Source {
	names := append([]string{"year"}, categories...)
	src := tabular.New(names...)
	src.SetColumn("year", tabular.Ints(years))
	for i, c := range categories {
		col := make([]float64, len(years))
		for j, y := range years {
			col[j] = counts[y][i]
		}
		src.SetColumn(c, tabular.Floats(col))
	}
	return src
}

// RegionStack is the per-year incident count pivot over the full region
// domain, ready for stacked rendering.
func RegionStack(s *gtd.Subset, _ Selectors) Result {
	regions := s.DS.Meta.Regions
	if s.Empty() {
		return Result{Source: tabular.New(append([]string{"year"}, regions...)...)}
	}
	years, counts := yearCategoryCounts(s.Rows, regions, func(r *gtd.Incident) string { return r.Region })
	return Result{Source: pivotSource(years, counts, regions)}
}

// RegionHighlight lifts one region's series out of the stack. It is empty
// whenever no region is highlighted.
func RegionHighlight(s *gtd.Subset, sel Selectors) Result {
	src := tabular.New("year", "value")
	if s.Empty() || sel.HighlightRegion == filter.NoneHighlighted {
		return Result{Source: src}
	}

	counts := map[int]float64{}
	seen := false
	for i := range s.Rows {
		if s.Rows[i].Region == sel.HighlightRegion {
			counts[s.Rows[i].Year]++
			seen = true
		}
	}
	if !seen {
		return Result{Source: src}
	}
	// The stack's year axis, so the overlay lines up even on zero years.
	years := sortedYears(s.Rows)
	values := make([]float64, len(years))
	for i, y := range years {
		values[i] = counts[y]
	}

	src.SetColumn("year", tabular.Ints(years))
	src.SetColumn("value", tabular.Floats(values))
	return Result{Source: src}
}

// RegionTrend is the multi-line casualty series of the four heaviest
// regions, one row per region.
func RegionTrend(s *gtd.Subset, _ Selectors) Result {
	src := tabular.New("xs", "ys", "legend", "color")
	if s.Empty() {
		return Result{Source: src}
	}

	totals := statBy(s.Rows, func(r *gtd.Incident) string { return r.Region })
	selected := rankedKeys(totals, func(g *groupStat) float64 { return g.casualties }, 4)

	xs := make([]any, len(selected))
	ys := make([]any, len(selected))
	legends := make([]string, len(selected))
	colors := make([]string, len(selected))
	for i, region := range selected {
		byYear := map[int]float64{}
		for j := range s.Rows {
			if s.Rows[j].Region == region {
				byYear[s.Rows[j].Year] += s.Rows[j].Casualties
			}
		}
		years := make([]int, 0, len(byYear))
		for y := range byYear {
			years = append(years, y)
		}
		sort.Ints(years)
		values := make([]float64, len(years))
		for j, y := range years {
			values[j] = byYear[y]
		}
		xs[i] = years
		ys[i] = values
		legends[i] = region
		colors[i] = palette.Category10[i%len(palette.Category10)]
	}

	src.SetColumn("xs", xs)
	src.SetColumn("ys", ys)
	src.SetColumn("legend", tabular.Strings(legends))
	src.SetColumn("color", tabular.Strings(colors))
	return Result{Source: src}
}

// WeaponShare is each pinned top weapon's share of the yearly total.
func WeaponShare(s *gtd.Subset, _ Selectors) Result {
	weapons := s.DS.Meta.TopWeaponTypes
	years, counts := yearCategoryCounts(s.Rows, weapons, func(r *gtd.Incident) string { return r.WeaponType })
	if len(years) == 0 {
		return Result{Source: tabular.New(append([]string{"year"}, weapons...)...)}
	}
	shareRows(years, counts)
	return Result{Source: pivotSource(years, counts, weapons)}
}

// OrgTrend is the yearly incident count of the pinned most active groups.
func OrgTrend(s *gtd.Subset, _ Selectors) Result {
	orgs := s.DS.Meta.TopOrgs
	years, counts := yearCategoryCounts(s.Rows, orgs, func(r *gtd.Incident) string { return r.Group })
	if len(years) == 0 {
		return Result{Source: tabular.New(append([]string{"year"}, orgs...)...)}
	}
	return Result{Source: pivotSource(years, counts, orgs)}
}

// AttackShare is each pinned top attack type's share of the yearly total.
func AttackShare(s *gtd.Subset, _ Selectors) Result {
	attacks := s.DS.Meta.TopAttackTypes
	years, counts := yearCategoryCounts(s.Rows, attacks, func(r *gtd.Incident) string { return r.AttackType })
	if len(years) == 0 {
		return Result{Source: tabular.New(append([]string{"year"}, attacks...)...)}
	}
	shareRows(years, counts)
	return Result{Source: pivotSource(years, counts, attacks)}
}

// TargetPercent is each pinned top target type's share of the yearly total.
func TargetPercent(s *gtd.Subset, _ Selectors) Result {
	targets := s.DS.Meta.TopTargetTypes
	years, counts := yearCategoryCounts(s.Rows, targets, func(r *gtd.Incident) string { return r.TargetType })
	if len(years) == 0 {
		return Result{Source: tabular.New(append([]string{"year"}, targets...)...)}
	}
	shareRows(years, counts)
	return Result{Source: pivotSource(years, counts, targets)}
}

// RegionShare is each region's share of incidents per decade over the full
// region domain.
func RegionShare(s *gtd.Subset, _ Selectors) Result {
	regions := s.DS.Meta.Regions
	names := append([]string{"decade"}, regions...)
	src := tabular.New(names...)
	if s.Empty() {
		return Result{Source: src, XFactors: []string{}}
	}

	idx := map[string]int{}
	for i, r := range regions {
		idx[r] = i
	}
	counts := map[int][]float64{}
	for i := range s.Rows {
		row := counts[s.Rows[i].Decade]
		if row == nil {
			row = make([]float64, len(regions))
			counts[s.Rows[i].Decade] = row
		}
		row[idx[s.Rows[i].Region]]++
	}
	decades := make([]int, 0, len(counts))
	for d := range counts {
		decades = append(decades, d)
	}
	sort.Ints(decades)

	labels := make([]string, len(decades))
	for i, d := range decades {
		labels[i] = strconv.Itoa(d)
		row := counts[d]
		total := 0.0
		for _, v := range row {
			total += v
		}
		total = floorOne(total)
		for j := range row {
			row[j] /= total
		}
	}

	src.SetColumn("decade", tabular.Strings(labels))
	for i, r := range regions {
		col := make([]float64, len(decades))
		for j, d := range decades {
			col[j] = counts[d][i]
		}
		src.SetColumn(r, tabular.Floats(col))
	}
	return Result{Source: src, XFactors: labels}
}
