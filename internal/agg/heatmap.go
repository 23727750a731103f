package agg

import (
	"sort"
	"strconv"

	"github.com/banshee-data/incident.report/internal/gtd"
	"github.com/banshee-data/incident.report/internal/tabular"
)

// Heatmap totals casualties per region and decade, colouring each cell on
// the value ramp.
func Heatmap(s *gtd.Subset, _ Selectors) Result {
	src := tabular.New("decade", "region", "casualties", "color")
	if s.Empty() {
		return Result{Source: src, XFactors: []string{}, YFactors: []string{}}
	}

	type cell struct {
		region string
		decade int
	}
	totals := map[cell]float64{}
	for i := range s.Rows {
		totals[cell{s.Rows[i].Region, s.Rows[i].Decade}] += s.Rows[i].Casualties
	}
	cells := make([]cell, 0, len(totals))
	for c := range totals {
		cells = append(cells, c)
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].region != cells[j].region {
			return cells[i].region < cells[j].region
		}
		return cells[i].decade < cells[j].decade
	})

	decades := make([]string, len(cells))
	regions := make([]string, len(cells))
	casualties := make([]float64, len(cells))
	decadeSet := map[string]bool{}
	regionSet := map[string]bool{}
	for i, c := range cells {
		decades[i] = strconv.Itoa(c.decade)
		regions[i] = c.region
		casualties[i] = totals[c]
		decadeSet[decades[i]] = true
		regionSet[c.region] = true
	}

	src.SetColumn("decade", tabular.Strings(decades))
	src.SetColumn("region", tabular.Strings(regions))
	src.SetColumn("casualties", tabular.Floats(casualties))
	src.SetColumn("color", tabular.Strings(valueRamp(casualties)))
	return Result{
		Source:   src,
		XFactors: sortedSet(decadeSet),
		YFactors: sortedSet(regionSet),
	}
}

// AttackTargetMatrix counts incidents for every observed attack and target
// type pairing. The colour ceiling travels with the result so a sparse
// subset still maps onto the full ramp.
func AttackTargetMatrix(s *gtd.Subset, _ Selectors) Result {
	src := tabular.New("attack", "target", "incidents")
	if s.Empty() {
		return Result{
			Source: src, XFactors: []string{}, YFactors: []string{},
			Ranges: map[string]Range{"color": {Lo: 0, Hi: 1}},
		}
	}

	type pair struct{ attack, target string }
	counts := map[pair]int{}
	for i := range s.Rows {
		counts[pair{s.Rows[i].AttackType, s.Rows[i].TargetType}]++
	}
	pairs := make([]pair, 0, len(counts))
	for p := range counts {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].attack != pairs[j].attack {
			return pairs[i].attack < pairs[j].attack
		}
		return pairs[i].target < pairs[j].target
	})

	attacks := make([]string, len(pairs))
	targets := make([]string, len(pairs))
	incidents := make([]int, len(pairs))
	attackSet := map[string]bool{}
	targetSet := map[string]bool{}
	maxCount := 1.0
	for i, p := range pairs {
		attacks[i] = p.attack
		targets[i] = p.target
		incidents[i] = counts[p]
		attackSet[p.attack] = true
		targetSet[p.target] = true
		if float64(counts[p]) > maxCount {
			maxCount = float64(counts[p])
		}
	}

	src.SetColumn("attack", tabular.Strings(attacks))
	src.SetColumn("target", tabular.Strings(targets))
	src.SetColumn("incidents", tabular.Ints(incidents))
	return Result{
		Source:   src,
		XFactors: sortedSet(targetSet),
		YFactors: reversed(sortedSet(attackSet)),
		Ranges:   map[string]Range{"color": {Lo: 0, Hi: maxCount}},
	}
}

// AttackRegion reduces each (year, region) cell to its dominant attack type,
// with opacity scaled to the dominant count.
func AttackRegion(s *gtd.Subset, _ Selectors) Result {
	src := tabular.New("year", "region", "attack", "incidents", "color", "alpha")
	if s.Empty() {
		return Result{Source: src, YFactors: []string{}}
	}

	type cell struct {
		year   int
		region string
	}
	counts := map[cell]map[string]int{}
	for i := range s.Rows {
		c := cell{s.Rows[i].Year, s.Rows[i].Region}
		if counts[c] == nil {
			counts[c] = map[string]int{}
		}
		counts[c][s.Rows[i].AttackType]++
	}

	cells := make([]cell, 0, len(counts))
	for c := range counts {
		cells = append(cells, c)
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].year != cells[j].year {
			return cells[i].year < cells[j].year
		}
		return cells[i].region < cells[j].region
	})

	years := make([]int, len(cells))
	regions := make([]string, len(cells))
	attacks := make([]string, len(cells))
	incidents := make([]float64, len(cells))
	colors := make([]string, len(cells))
	regionSet := map[string]bool{}
	minInc, maxInc := 0.0, 0.0
	for i, c := range cells {
		attack, n := dominantAttack(counts[c])
		years[i] = c.year
		regions[i] = c.region
		attacks[i] = attack
		incidents[i] = float64(n)
		colors[i] = attackColor(s.DS, attack)
		regionSet[c.region] = true
		if i == 0 || incidents[i] < minInc {
			minInc = incidents[i]
		}
		if incidents[i] > maxInc {
			maxInc = incidents[i]
		}
	}
	alpha := make([]float64, len(cells))
	for i := range alpha {
		if minInc == maxInc {
			alpha[i] = 0.8
		} else {
			alpha[i] = interp(incidents[i], minInc, maxInc, 0.4, 0.95)
		}
	}

	src.SetColumn("year", tabular.Ints(years))
	src.SetColumn("region", tabular.Strings(regions))
	src.SetColumn("attack", tabular.Strings(attacks))
	src.SetColumn("incidents", tabular.Floats(incidents))
	src.SetColumn("color", tabular.Strings(colors))
	src.SetColumn("alpha", tabular.Floats(alpha))
	return Result{
		Source:   src,
		YFactors: sortedSet(regionSet),
		Ranges: map[string]Range{
			"x": {Lo: float64(years[0] - 1), Hi: float64(years[len(years)-1] + 1)},
		},
	}
}

// dominantAttack picks the highest-count attack type of a cell, lowest label
// on ties.
func dominantAttack(counts map[string]int) (string, int) {
	best, bestN := "", -1
	for attack, n := range counts {
		if n > bestN || (n == bestN && attack < best) {
			best, bestN = attack, n
		}
	}
	return best, bestN
}

func sortedSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
