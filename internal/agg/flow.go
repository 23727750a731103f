package agg

import (
	"fmt"
	"sort"

	"github.com/banshee-data/incident.report/internal/gtd"
	"github.com/banshee-data/incident.report/internal/palette"
	"github.com/banshee-data/incident.report/internal/tabular"
)

// Sankey layout constants. Columns sit at x 0, 1 and 2 with nodes spread
// vertically by nodeGap.
const (
	nodeGap    = 1.8
	curveSteps = 25
)

// smoothCurve samples a straight line from (x0,y0) to (x1,y1) with a
// quadratic vertical bump, so parallel flows fan apart.
func smoothCurve(x0, y0, x1, y1, offset float64) ([]float64, []float64) {
	xs := make([]float64, curveSteps)
	ys := make([]float64, curveSteps)
	for i := 0; i < curveSteps; i++ {
		t := float64(i) / float64(curveSteps-1)
		xs[i] = x0 + (x1-x0)*t
		ys[i] = y0 + (y1-y0)*t + offset*t*(1-t)
	}
	return xs, ys
}

// columnPositions spreads n nodes over the column, a single node at zero.
func columnPositions(n int) []float64 {
	ys := make([]float64, n)
	for i := range ys {
		ys[i] = float64(i) * nodeGap
	}
	return ys
}

// sankeyDomains picks this subset's flow domains: its five busiest attack
// and target types plus the fixed outcome pair.
func sankeyDomains(s *gtd.Subset) (attacks, targets, outcomes []string) {
	attackCounts := countBy(s.Rows, func(r *gtd.Incident) string { return r.AttackType })
	targetCounts := countBy(s.Rows, func(r *gtd.Incident) string { return r.TargetType })
	attacks = rankedCountKeys(attackCounts, 5)
	targets = rankedCountKeys(targetCounts, 5)
	outcomes = []string{gtd.OutcomeSuccessful, gtd.OutcomeFailed}
	return attacks, targets, outcomes
}

// SankeyNodes lays the attack, target and outcome columns out with their
// per-node incident totals.
func SankeyNodes(s *gtd.Subset, _ Selectors) Result {
	src := tabular.New("x", "y", "name", "color", "type", "value")
	if s.Empty() {
		return Result{Source: src, Ranges: map[string]Range{"y": {Lo: -nodeGap, Hi: nodeGap}}}
	}

	attacks, targets, outcomes := sankeyDomains(s)
	attackCounts := countBy(s.Rows, func(r *gtd.Incident) string { return r.AttackType })
	targetCounts := countBy(s.Rows, func(r *gtd.Incident) string { return r.TargetType })
	outcomeCounts := countBy(s.Rows, func(r *gtd.Incident) string { return r.OutcomeLabel() })

	var xs, ys []float64
	var names, colors, types []string
	var values []int
	addColumn := func(x float64, labels []string, counts map[string]int, kind string, colorBase int) {
		pos := columnPositions(len(labels))
		for i, label := range labels {
			xs = append(xs, x)
			ys = append(ys, pos[i])
			names = append(names, label)
			colors = append(colors, palette.Category20[(i+colorBase)%len(palette.Category20)])
			types = append(types, kind)
			values = append(values, counts[label])
		}
	}
	addColumn(0, attacks, attackCounts, "Attack", 0)
	addColumn(1, targets, targetCounts, "Target", 5)
	addColumn(2, outcomes, outcomeCounts, "Outcome", 10)

	yLo, yHi := ys[0], ys[0]
	for _, y := range ys[1:] {
		if y < yLo {
			yLo = y
		}
		if y > yHi {
			yHi = y
		}
	}

	src.SetColumn("x", tabular.Floats(xs))
	src.SetColumn("y", tabular.Floats(ys))
	src.SetColumn("name", tabular.Strings(names))
	src.SetColumn("color", tabular.Strings(colors))
	src.SetColumn("type", tabular.Strings(types))
	src.SetColumn("value", tabular.Ints(values))
	return Result{Source: src, Ranges: map[string]Range{"y": {Lo: yLo - nodeGap, Hi: yHi + nodeGap}}}
}

// SankeyEdges draws the attack→target and target→outcome flows as bumped
// curves whose widths scale with each stage's heaviest flow.
func SankeyEdges(s *gtd.Subset, _ Selectors) Result {
	src := tabular.New("xs", "ys", "line_width", "color", "label", "incidents")
	if s.Empty() {
		return Result{Source: src}
	}

	attacks, targets, outcomes := sankeyDomains(s)
	attackIdx := indexOf(attacks)
	targetIdx := indexOf(targets)
	outcomeIdx := indexOf(outcomes)
	attackY := columnPositions(len(attacks))
	targetY := columnPositions(len(targets))
	outcomeY := columnPositions(len(outcomes))

	type flow struct {
		from, to string
		n        int
	}
	collect := func(counts map[[2]string]int) []flow {
		flows := make([]flow, 0, len(counts))
		for k, n := range counts {
			flows = append(flows, flow{k[0], k[1], n})
		}
		sort.Slice(flows, func(i, j int) bool {
			if flows[i].from != flows[j].from {
				return flows[i].from < flows[j].from
			}
			return flows[i].to < flows[j].to
		})
		return flows
	}

	attackTarget := map[[2]string]int{}
	targetOutcome := map[[2]string]int{}
	for i := range s.Rows {
		r := &s.Rows[i]
		if _, ok := attackIdx[r.AttackType]; ok {
			if _, ok := targetIdx[r.TargetType]; ok {
				attackTarget[[2]string{r.AttackType, r.TargetType}]++
			}
		}
		if _, ok := targetIdx[r.TargetType]; ok {
			targetOutcome[[2]string{r.TargetType, r.OutcomeLabel()}]++
		}
	}

	xsCol, ysCol := []any{}, []any{}
	widths := []float64{}
	colors, labels := []string{}, []string{}
	incidents := []int{}

	maxVal := maxFlow(attackTarget)
	for _, f := range collect(attackTarget) {
		ia, it := attackIdx[f.from], targetIdx[f.to]
		offset := (float64(it) - float64(len(targets))/2) * 0.35
		cx, cy := smoothCurve(0, attackY[ia], 1, targetY[it], offset)
		xsCol = append(xsCol, cx)
		ysCol = append(ysCol, cy)
		widths = append(widths, 2+10*float64(f.n)/maxVal)
		colors = append(colors, palette.Category20[ia%len(palette.Category20)])
		labels = append(labels, fmt.Sprintf("%s → %s", f.from, f.to))
		incidents = append(incidents, f.n)
	}

	maxVal = maxFlow(targetOutcome)
	for _, f := range collect(targetOutcome) {
		it, io := targetIdx[f.from], outcomeIdx[f.to]
		offset := (float64(io) - float64(len(outcomes))/2) * 0.45
		cx, cy := smoothCurve(1, targetY[it], 2, outcomeY[io], offset)
		xsCol = append(xsCol, cx)
		ysCol = append(ysCol, cy)
		widths = append(widths, 2+10*float64(f.n)/maxVal)
		colors = append(colors, palette.Category20[(io+10)%len(palette.Category20)])
		labels = append(labels, fmt.Sprintf("%s → %s", f.from, f.to))
		incidents = append(incidents, f.n)
	}

	src.SetColumn("xs", xsCol)
	src.SetColumn("ys", ysCol)
	src.SetColumn("line_width", tabular.Floats(widths))
	src.SetColumn("color", tabular.Strings(colors))
	src.SetColumn("label", tabular.Strings(labels))
	src.SetColumn("incidents", tabular.Ints(incidents))
	return Result{Source: src}
}

func indexOf(labels []string) map[string]int {
	out := make(map[string]int, len(labels))
	for i, l := range labels {
		out[l] = i
	}
	return out
}

func maxFlow(counts map[[2]string]int) float64 {
	max := 1.0
	for _, n := range counts {
		if float64(n) > max {
			max = float64(n)
		}
	}
	return max
}
