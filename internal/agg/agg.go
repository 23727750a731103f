// Package agg contains the aggregation registry: one pure function per
// dashboard view, each mapping the filtered subset (plus the presentation
// selectors) to one named tabular source with its axis metadata.
package agg

import (
	"github.com/banshee-data/incident.report/internal/gtd"
	"github.com/banshee-data/incident.report/internal/tabular"
)

// Selectors are the presentation-only inputs some aggregations consume in
// addition to the subset. They are read-only snapshots of the filter state.
type Selectors struct {
	TimelineMetric  string
	HighlightRegion string
	HotspotRegion   string
}

// Range is a numeric axis hint published alongside a source.
type Range struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// Result is one aggregation output: the tabular source plus the ordered
// category domains and numeric ranges the rendering surface needs for its
// axes. Factor slices are nil when the view has no categorical axis.
type Result struct {
	Source   *tabular.Source  `json:"source"`
	XFactors []string         `json:"x_factors,omitempty"`
	YFactors []string         `json:"y_factors,omitempty"`
	Ranges   map[string]Range `json:"ranges,omitempty"`
}

// Func is the uniform aggregation contract. Implementations never fail:
// empty or degenerate subsets produce well-formed empty or zero-filled
// results.
type Func func(*gtd.Subset, Selectors) Result

// Entry pairs an output slot name with its aggregation.
type Entry struct {
	Name string
	Fn   Func
}

// Registry returns the aggregation entries in the fixed refresh order. The
// order only matters for observable publish order on the rendering surface;
// the outputs themselves are independent.
func Registry() []Entry {
	return []Entry{
		{"map", Map},
		{"timeline", Timeline},
		{"timeline_events", TimelineEvents},
		{"country", CountryBar},
		{"attack", AttackBar},
		{"target", TargetBar},
		{"season", Seasonality},
		{"heatmap", Heatmap},
		{"region_stack", RegionStack},
		{"region_highlight", RegionHighlight},
		{"region_trend", RegionTrend},
		{"weapon", WeaponBar},
		{"period", PeriodView},
		{"hotspot", Hotspots},
		{"attack_target", AttackTargetMatrix},
		{"weapon_share", WeaponShare},
		{"org_trend", OrgTrend},
		{"target_severity", TargetSeverity},
		{"success_split", SuccessSplit},
		{"boxplot", Boxplot},
		{"scatter", SeverityScatter},
		{"circle", CircleView},
		{"attack_region", AttackRegion},
		{"suicide_trend", SuicideTrend},
		{"tactic_success", TacticSuccess},
		{"region_share", RegionShare},
		{"attack_share", AttackShare},
		{"attack_lethality", AttackLethality},
		{"target_percent", TargetPercent},
		{"sankey_nodes", SankeyNodes},
		{"sankey_edges", SankeyEdges},
		{"org_network_nodes", OrgNetworkNodes},
		{"org_network_edges", OrgNetworkEdges},
		{"org_split", OrgSplit},
		{"severity_dual", SeverityDual},
		{"table", TopEventsTable},
		{"summary", Summary},
	}
}
