package agg

import (
	"sort"

	"github.com/banshee-data/incident.report/internal/gtd"
	"github.com/banshee-data/incident.report/internal/palette"
)

// groupStat accumulates the per-group measures every categorical view needs.
type groupStat struct {
	incidents  int
	kills      float64
	wounds     float64
	casualties float64
	yearMin    int
	yearMax    int
}

func (g *groupStat) add(r *gtd.Incident) {
	g.incidents++
	g.kills += r.Kills
	g.wounds += r.Wounds
	g.casualties += r.Casualties
	if g.incidents == 1 || r.Year < g.yearMin {
		g.yearMin = r.Year
	}
	if g.incidents == 1 || r.Year > g.yearMax {
		g.yearMax = r.Year
	}
}

// statBy groups the subset rows by a string key and accumulates group stats.
func statBy(rows []gtd.Incident, key func(*gtd.Incident) string) map[string]*groupStat {
	out := map[string]*groupStat{}
	for i := range rows {
		k := key(&rows[i])
		g := out[k]
		if g == nil {
			g = &groupStat{}
			out[k] = g
		}
		g.add(&rows[i])
	}
	return out
}

// countBy groups the subset rows by a string key and counts them.
func countBy(rows []gtd.Incident, key func(*gtd.Incident) string) map[string]int {
	out := map[string]int{}
	for i := range rows {
		out[key(&rows[i])]++
	}
	return out
}

// rankedKeys orders group labels by descending rank value, ascending label on
// ties, and truncates to n (n <= 0 keeps all).
func rankedKeys(stats map[string]*groupStat, rank func(*groupStat) float64, n int) []string {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := rank(stats[keys[i]]), rank(stats[keys[j]])
		if ri != rj {
			return ri > rj
		}
		return keys[i] < keys[j]
	})
	if n > 0 && len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// rankedCountKeys is rankedKeys for plain count maps.
func rankedCountKeys(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if n > 0 && len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// sortedYears returns the ascending distinct years of the subset.
func sortedYears(rows []gtd.Incident) []int {
	set := map[int]bool{}
	for i := range rows {
		set[rows[i].Year] = true
	}
	years := make([]int, 0, len(set))
	for y := range set {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// interp linearly maps v from [lo,hi] to [outLo,outHi], clamping outside the
// input range.
func interp(v, lo, hi, outLo, outHi float64) float64 {
	if hi <= lo {
		return outLo
	}
	if v <= lo {
		return outLo
	}
	if v >= hi {
		return outHi
	}
	return outLo + (v-lo)/(hi-lo)*(outHi-outLo)
}

// valueRamp maps numeric values onto the 256-entry colour ramp by linear
// value-to-index scaling. A collapsed value range gets the fixed fallback
// colour so there is no divide by zero.
func valueRamp(values []float64) []string {
	if len(values) == 0 {
		return []string{}
	}
	vmin, vmax := values[0], values[0]
	for _, v := range values[1:] {
		if v < vmin {
			vmin = v
		}
		if v > vmax {
			vmax = v
		}
	}
	out := make([]string, len(values))
	if vmin == vmax {
		for i := range out {
			out[i] = palette.SingleValueFallback
		}
		return out
	}
	n := len(palette.Ramp256)
	for i, v := range values {
		idx := int((v - vmin) / (vmax - vmin) * float64(n-1))
		out[i] = palette.Ramp256[idx]
	}
	return out
}

// floorOne floors a denominator at 1, the shared guard against zero totals.
func floorOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
