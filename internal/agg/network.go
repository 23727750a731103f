package agg

import (
	"math"
	"sort"
	"sync"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/graph/layout"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/incident.report/internal/gtd"
	"github.com/banshee-data/incident.report/internal/tabular"
)

const (
	orgNodeColor    = "#1d3557"
	regionNodeColor = "#e76f51"
	networkEdgeCol  = "#94a3b8"

	// Layout coordinates are rescaled so the widest axis spans this.
	networkScale = 1.8
	layoutSeed   = 42
)

// orgGraph is the bipartite organisation/region graph of the subset rows
// attributed to the pinned top organisations.
type orgGraph struct {
	orgs    []string
	regions []string

	// node ids: orgs first, then regions
	id map[string]int64

	edges     [][2]string // ORG, REG pairs, sorted
	edgeCount map[[2]string]int

	orgTotals    map[string]int
	regionTotals map[string]int

	x, y map[int64]float64
}

func buildOrgGraph(s *gtd.Subset) *orgGraph {
	g := &orgGraph{
		orgs:         s.DS.Meta.TopOrgs,
		id:           map[string]int64{},
		edgeCount:    map[[2]string]int{},
		orgTotals:    map[string]int{},
		regionTotals: map[string]int{},
	}

	pinned := indexOf(g.orgs)
	regionSet := map[string]bool{}
	for i := range s.Rows {
		r := &s.Rows[i]
		if _, ok := pinned[r.Group]; !ok {
			continue
		}
		regionSet[r.Region] = true
		g.edgeCount[[2]string{r.Group, r.Region}]++
		g.orgTotals[r.Group]++
		g.regionTotals[r.Region]++
	}
	if len(regionSet) == 0 {
		return nil
	}
	g.regions = sortedSet(regionSet)

	next := int64(0)
	for _, org := range g.orgs {
		g.id[orgID(org)] = next
		next++
	}
	for _, region := range g.regions {
		g.id[regionID(region)] = next
		next++
	}

	g.edges = make([][2]string, 0, len(g.edgeCount))
	for e := range g.edgeCount {
		g.edges = append(g.edges, e)
	}
	sort.Slice(g.edges, func(i, j int) bool {
		if g.edges[i][0] != g.edges[j][0] {
			return g.edges[i][0] < g.edges[j][0]
		}
		return g.edges[i][1] < g.edges[j][1]
	})

	g.place()
	return g
}

func orgID(org string) string       { return "ORG:" + org }
func regionID(region string) string { return "REG:" + region }

// orgLayoutCache holds the laid-out graph of the most recent subset, so the
// node and edge views published from one refresh share a single layout.
var orgLayoutCache struct {
	mu     sync.Mutex
	subset *gtd.Subset
	graph  *orgGraph
}

func orgGraphFor(s *gtd.Subset) *orgGraph {
	orgLayoutCache.mu.Lock()
	defer orgLayoutCache.mu.Unlock()
	if orgLayoutCache.subset != s {
		orgLayoutCache.subset = s
		orgLayoutCache.graph = buildOrgGraph(s)
	}
	return orgLayoutCache.graph
}

// nodeCoords is the coordinate store handed to the optimizer. It is seeded
// before the first update so initial positions are assigned in node id order
// rather than graph iteration order, which is what keeps the layout identical
// across runs.
type nodeCoords map[int64]r2.Vec

func (c nodeCoords) IsInitialized() bool          { return len(c) != 0 }
func (c nodeCoords) SetCoord2(id int64, v r2.Vec) { c[id] = v }
func (c nodeCoords) Coord2(id int64) r2.Vec       { return c[id] }

// place runs a seeded force-directed layout and rescales the coordinates to
// the fixed span, so the same subset always lays out identically.
func (g *orgGraph) place() {
	ids := make([]int64, 0, len(g.id))
	for _, id := range g.id {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	wg := simple.NewWeightedUndirectedGraph(0, 0)
	for _, id := range ids {
		wg.AddNode(simple.Node(id))
	}
	maxVal := 1.0
	for _, n := range g.edgeCount {
		if float64(n) > maxVal {
			maxVal = float64(n)
		}
	}
	for _, e := range g.edges {
		w := 2 + 8*float64(g.edgeCount[e])/maxVal
		wg.SetWeightedEdge(simple.WeightedEdge{
			F: simple.Node(g.id[orgID(e[0])]),
			T: simple.Node(g.id[regionID(e[1])]),
			W: w,
		})
	}

	lay := nodeCoords{}
	rnd := rand.New(rand.NewSource(layoutSeed))
	for _, id := range ids {
		lay.SetCoord2(id, r2.Vec{X: rnd.Float64(), Y: rnd.Float64()})
	}
	eades := layout.EadesR2{
		Repulsion: 1,
		Rate:      0.1,
		Theta:     0.1,
		Updates:   100,
		Src:       rand.NewSource(layoutSeed),
	}
	for eades.Update(wg, lay) {
	}

	g.x = map[int64]float64{}
	g.y = map[int64]float64{}
	span := 0.0
	for _, id := range ids {
		v := lay.Coord2(id)
		g.x[id], g.y[id] = v.X, v.Y
		span = math.Max(span, math.Max(math.Abs(v.X), math.Abs(v.Y)))
	}
	if span == 0 {
		return
	}
	for id := range g.x {
		g.x[id] = g.x[id] / span * networkScale
		g.y[id] = g.y[id] / span * networkScale
	}
}

// OrgNetworkNodes publishes the laid-out organisation and region nodes.
func OrgNetworkNodes(s *gtd.Subset, _ Selectors) Result {
	src := tabular.New("index", "x", "y", "color", "label", "type", "value")
	if s.Empty() {
		return Result{Source: src}
	}
	g := orgGraphFor(s)
	if g == nil {
		return Result{Source: src}
	}

	n := len(g.orgs) + len(g.regions)
	index := make([]string, 0, n)
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	colors := make([]string, 0, n)
	labels := make([]string, 0, n)
	types := make([]string, 0, n)
	values := make([]int, 0, n)
	for _, org := range g.orgs {
		id := g.id[orgID(org)]
		index = append(index, orgID(org))
		xs = append(xs, g.x[id])
		ys = append(ys, g.y[id])
		colors = append(colors, orgNodeColor)
		labels = append(labels, org)
		types = append(types, "Organization")
		values = append(values, g.orgTotals[org])
	}
	for _, region := range g.regions {
		id := g.id[regionID(region)]
		index = append(index, regionID(region))
		xs = append(xs, g.x[id])
		ys = append(ys, g.y[id])
		colors = append(colors, regionNodeColor)
		labels = append(labels, region)
		types = append(types, "Region")
		values = append(values, g.regionTotals[region])
	}

	src.SetColumn("index", tabular.Strings(index))
	src.SetColumn("x", tabular.Floats(xs))
	src.SetColumn("y", tabular.Floats(ys))
	src.SetColumn("color", tabular.Strings(colors))
	src.SetColumn("label", tabular.Strings(labels))
	src.SetColumn("type", tabular.Strings(types))
	src.SetColumn("value", tabular.Ints(values))
	return Result{Source: src}
}

// OrgNetworkEdges publishes the organisation→region links with widths scaled
// to the heaviest link.
func OrgNetworkEdges(s *gtd.Subset, _ Selectors) Result {
	src := tabular.New("start", "end", "xs", "ys", "line_width", "line_color")
	if s.Empty() {
		return Result{Source: src}
	}
	g := orgGraphFor(s)
	if g == nil {
		return Result{Source: src}
	}

	maxVal := 1.0
	for _, n := range g.edgeCount {
		if float64(n) > maxVal {
			maxVal = float64(n)
		}
	}
	starts := make([]string, len(g.edges))
	ends := make([]string, len(g.edges))
	xs := make([]any, len(g.edges))
	ys := make([]any, len(g.edges))
	widths := make([]float64, len(g.edges))
	colors := make([]string, len(g.edges))
	for i, e := range g.edges {
		from, to := g.id[orgID(e[0])], g.id[regionID(e[1])]
		starts[i] = orgID(e[0])
		ends[i] = regionID(e[1])
		xs[i] = []float64{g.x[from], g.x[to]}
		ys[i] = []float64{g.y[from], g.y[to]}
		widths[i] = 2 + 8*float64(g.edgeCount[e])/maxVal
		colors[i] = networkEdgeCol
	}

	src.SetColumn("start", tabular.Strings(starts))
	src.SetColumn("end", tabular.Strings(ends))
	src.SetColumn("xs", xs)
	src.SetColumn("ys", ys)
	src.SetColumn("line_width", tabular.Floats(widths))
	src.SetColumn("line_color", tabular.Strings(colors))
	return Result{Source: src}
}
