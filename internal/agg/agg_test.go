package agg

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/incident.report/internal/filter"
	"github.com/banshee-data/incident.report/internal/gtd"
)

func fptr(v float64) *float64 { return &v }

// testDataset mirrors the three-record scenario used by the filter tests:
// two MENA 1995 events and one South Asia 2000 event.
func testDataset(t *testing.T) *gtd.Dataset {
	t.Helper()
	ds, err := gtd.FromRecords([]gtd.Incident{
		{EventID: 1, Year: 1995, Month: 1, Day: 1, Country: "Iraq", Region: "Middle East & North Africa", ProvState: "Baghdad", City: "Baghdad", Latitude: fptr(33.3), Longitude: fptr(44.4), AttackType: "Bombing/Explosion", TargetType: "Police", WeaponType: "Explosives", Group: "Group A", Kills: 2, Wounds: 1, Success: true},
		{EventID: 2, Year: 1995, Month: 2, Day: 2, Country: "Iraq", Region: "Middle East & North Africa", ProvState: "Nineveh", City: "Mosul", Latitude: fptr(36.3), Longitude: fptr(43.1), AttackType: "Armed Assault", TargetType: "Military", WeaponType: "Firearms", Group: gtd.UnknownGroup},
		{EventID: 3, Year: 2000, Month: 3, Day: 3, Country: "India", Region: "South Asia", ProvState: "Punjab", City: "Amritsar", Latitude: fptr(31.6), Longitude: fptr(74.9), AttackType: "Bombing/Explosion", TargetType: "Police", WeaponType: "Explosives", Group: "Group B", Kills: 5, Wounds: 5, Success: true, Suicide: true},
	})
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	return ds
}

func fullSubset(ds *gtd.Dataset) *gtd.Subset {
	return &gtd.Subset{DS: ds, Rows: ds.Incidents}
}

func emptySubset(ds *gtd.Dataset) *gtd.Subset {
	return &gtd.Subset{DS: ds, Rows: nil}
}

func defaultSelectors(ds *gtd.Dataset) Selectors {
	st := filter.Defaults(ds)
	return Selectors{
		TimelineMetric:  st.TimelineMetric,
		HighlightRegion: st.HighlightRegion,
		HotspotRegion:   st.HotspotRegion,
	}
}

func TestRegistryNamesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, e := range Registry() {
		if seen[e.Name] {
			t.Errorf("duplicate registry name %q", e.Name)
		}
		seen[e.Name] = true
		if e.Fn == nil {
			t.Errorf("registry entry %q has no function", e.Name)
		}
	}
}

// Every aggregation must yield a validated source for an empty subset, never
// an error or panic.
func TestEmptySubsetIsWellFormed(t *testing.T) {
	ds := testDataset(t)
	sub := emptySubset(ds)
	sel := defaultSelectors(ds)

	for _, e := range Registry() {
		res := e.Fn(sub, sel)
		if res.Source == nil {
			t.Errorf("%s: nil source on empty subset", e.Name)
			continue
		}
		if err := res.Source.Validate(); err != nil {
			t.Errorf("%s: invalid empty source: %v", e.Name, err)
		}
	}
}

func TestEverySourceValidatesOnFullSubset(t *testing.T) {
	ds := testDataset(t)
	sub := fullSubset(ds)
	sel := defaultSelectors(ds)

	for _, e := range Registry() {
		res := e.Fn(sub, sel)
		if err := res.Source.Validate(); err != nil {
			t.Errorf("%s: invalid source: %v", e.Name, err)
		}
	}
}

// Aggregations are pure: the same subset yields byte-identical output.
func TestAggregationsAreDeterministic(t *testing.T) {
	ds := testDataset(t)
	sub := fullSubset(ds)
	sel := defaultSelectors(ds)

	for _, e := range Registry() {
		a, err := json.Marshal(e.Fn(sub, sel))
		if err != nil {
			t.Fatalf("%s: marshal: %v", e.Name, err)
		}
		b, err := json.Marshal(e.Fn(sub, sel))
		if err != nil {
			t.Fatalf("%s: marshal: %v", e.Name, err)
		}
		if diff := cmp.Diff(string(a), string(b)); diff != "" {
			t.Errorf("%s: output not deterministic (-first +second):\n%s", e.Name, diff)
		}
	}
}

func TestCountryBarScenario(t *testing.T) {
	ds := testDataset(t)
	res := CountryBar(fullSubset(ds), defaultSelectors(ds))

	countries := res.Source.Column("country")
	casualties := res.Source.Column("casualties")
	if len(countries) != 2 {
		t.Fatalf("got %d countries, want 2", len(countries))
	}
	// India carries 10 casualties, Iraq 3.
	if countries[0] != "India" || countries[1] != "Iraq" {
		t.Errorf("unexpected ranking: %v", countries)
	}
	if casualties[1] != 3.0 {
		t.Errorf("Iraq casualties = %v, want 3", casualties[1])
	}
	if len(res.YFactors) != 2 || res.YFactors[0] != "Iraq" {
		t.Errorf("YFactors should be reversed ranking, got %v", res.YFactors)
	}
}

func TestSeasonalityZeroFillsQuietMonths(t *testing.T) {
	ds := testDataset(t)
	res := Seasonality(fullSubset(ds), defaultSelectors(ds))

	months := res.Source.Column("month")
	incidents := res.Source.Column("incidents")
	if len(months) != 12 {
		t.Fatalf("got %d months, want 12", len(months))
	}
	want := map[string]int{"Jan": 1, "Feb": 1, "Mar": 1}
	for i, m := range months {
		if got := incidents[i].(int); got != want[m.(string)] {
			t.Errorf("%v: got %d incidents, want %d", m, got, want[m.(string)])
		}
	}
}

func TestMercatorRoundTrip(t *testing.T) {
	coords := [][2]float64{{0, 0}, {33.3, 44.4}, {-45.0, 170.5}, {60.1, -150.2}}
	for _, c := range coords {
		x, y := Mercator(c[0], c[1])
		lat, lon := MercatorInverse(x, y)
		if math.Abs(lat-c[0]) > 1e-9 || math.Abs(lon-c[1]) > 1e-9 {
			t.Errorf("round trip (%v,%v) -> (%v,%v)", c[0], c[1], lat, lon)
		}
	}
}

func TestMapHighlightAlpha(t *testing.T) {
	ds := testDataset(t)
	sel := defaultSelectors(ds)
	sel.HighlightRegion = "South Asia"

	res := Map(fullSubset(ds), sel)
	regions := res.Source.Column("region_txt")
	alphas := res.Source.Column("alpha")
	for i, r := range regions {
		want := 0.2
		if r == "South Asia" {
			want = 0.85
		}
		if alphas[i].(float64) != want {
			t.Errorf("row %d (%v): alpha = %v, want %v", i, r, alphas[i], want)
		}
	}
}

func TestWeaponShareRowsSumToOne(t *testing.T) {
	ds := testDataset(t)
	res := WeaponShare(fullSubset(ds), defaultSelectors(ds))

	years := res.Source.Column("year")
	if len(years) == 0 {
		t.Fatal("expected at least one year")
	}
	for i := range years {
		total := 0.0
		for _, w := range ds.Meta.TopWeaponTypes {
			total += res.Source.Column(w)[i].(float64)
		}
		if math.Abs(total-1.0) > 1e-9 {
			t.Errorf("year %v: shares sum to %v, want 1", years[i], total)
		}
	}
}

func TestBoxplotQuartileOrdering(t *testing.T) {
	rows := make([]gtd.Incident, 0, 8)
	kills := []float64{0, 1, 2, 3, 4, 5, 6, 100}
	for i, k := range kills {
		rows = append(rows, gtd.Incident{
			EventID: int64(i + 1), Year: 1995, Month: 1, Day: 1,
			Country: "Iraq", Region: "Middle East & North Africa", City: "Baghdad",
			AttackType: "Bombing/Explosion", TargetType: "Police", WeaponType: "Explosives",
			Group: gtd.UnknownGroup, Kills: k,
		})
	}
	ds, err := gtd.FromRecords(rows)
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}

	res := Boxplot(fullSubset(ds), defaultSelectors(ds))
	if res.Source.Len() != 1 {
		t.Fatalf("got %d boxes, want 1", res.Source.Len())
	}
	q1 := res.Source.Column("q1")[0].(float64)
	q2 := res.Source.Column("q2")[0].(float64)
	q3 := res.Source.Column("q3")[0].(float64)
	lower := res.Source.Column("lower")[0].(float64)
	upper := res.Source.Column("upper")[0].(float64)

	if !(lower <= q1 && q1 <= q2 && q2 <= q3 && q3 <= upper) {
		t.Errorf("quartile ordering violated: lower=%v q1=%v q2=%v q3=%v upper=%v", lower, q1, q2, q3, upper)
	}
	if lower < 0 {
		t.Errorf("lower whisker %v below observed minimum 0", lower)
	}
	if upper > 100 {
		t.Errorf("upper whisker %v above observed maximum 100", upper)
	}
	// The 100-kill outlier must be clamped out of the whisker.
	if upper == 100 {
		t.Errorf("upper whisker should exclude the outlier, got %v", upper)
	}
}

func TestSuccessSplitAnglesCoverTheCircle(t *testing.T) {
	ds := testDataset(t)
	res := SuccessSplit(fullSubset(ds), defaultSelectors(ds))

	angles := res.Source.Column("angle")
	total := 0.0
	for _, a := range angles {
		total += a.(float64)
	}
	if math.Abs(total-2*math.Pi) > 1e-9 {
		t.Errorf("angles sum to %v, want 2π", total)
	}
	categories := res.Source.Column("category")
	if categories[0] != gtd.OutcomeSuccessful || categories[1] != gtd.OutcomeFailed {
		t.Errorf("unexpected category order: %v", categories)
	}
}

func TestTopEventsTableRanksByCasualties(t *testing.T) {
	ds := testDataset(t)
	res := TopEventsTable(fullSubset(ds), defaultSelectors(ds))

	casualties := res.Source.Column("casualties")
	if len(casualties) != 3 {
		t.Fatalf("got %d rows, want 3", len(casualties))
	}
	prev := math.Inf(1)
	for i, c := range casualties {
		v := c.(float64)
		if v > prev {
			t.Errorf("row %d: casualties %v out of descending order", i, v)
		}
		prev = v
	}
	if d := res.Source.Column("event_date")[0]; d != "2000-03-03" {
		t.Errorf("top event date = %v, want 2000-03-03", d)
	}
}

func TestSummaryKeepsShapeOnEmptySubset(t *testing.T) {
	ds := testDataset(t)
	res := Summary(emptySubset(ds), defaultSelectors(ds))

	labels := res.Source.Column("label")
	values := res.Source.Column("value")
	if len(labels) != 8 || len(values) != 8 {
		t.Fatalf("summary shape: %d labels, %d values, want 8 each", len(labels), len(values))
	}
	if values[0] != "0" {
		t.Errorf("incident count = %v, want 0", values[0])
	}
}

func TestHotspotsFollowFocusRegion(t *testing.T) {
	ds := testDataset(t)
	sel := defaultSelectors(ds)
	sel.HotspotRegion = "South Asia"

	res := Hotspots(fullSubset(ds), sel)
	cities := res.Source.Column("city")
	if len(cities) != 1 || cities[0] != "Amritsar" {
		t.Errorf("got cities %v, want [Amritsar]", cities)
	}

	sel.HotspotRegion = "Oceania"
	res = Hotspots(fullSubset(ds), sel)
	if res.Source.Len() != 0 {
		t.Errorf("absent focus region should produce an empty source, got %d rows", res.Source.Len())
	}
}

func TestOrgNetworkLayoutIsStable(t *testing.T) {
	ds := testDataset(t)
	sel := defaultSelectors(ds)

	// Distinct subsets over the same rows must lay out identically; the
	// seeded initial positions are what pin the optimizer down.
	first, err := json.Marshal(OrgNetworkNodes(fullSubset(ds), sel))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := json.Marshal(OrgNetworkNodes(fullSubset(ds), sel))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if diff := cmp.Diff(string(first), string(second)); diff != "" {
		t.Errorf("layout differs between runs (-first +second):\n%s", diff)
	}
}

func TestOrgNetworkEdgesMeetTheirNodes(t *testing.T) {
	ds := testDataset(t)
	sub := fullSubset(ds)
	sel := defaultSelectors(ds)

	nodes := OrgNetworkNodes(sub, sel)
	edges := OrgNetworkEdges(sub, sel)
	if edges.Source.Len() == 0 {
		t.Fatal("expected at least one organisation edge")
	}

	pos := map[string][2]float64{}
	index := nodes.Source.Column("index")
	xs := nodes.Source.Column("x")
	ys := nodes.Source.Column("y")
	for i := range index {
		pos[index[i].(string)] = [2]float64{xs[i].(float64), ys[i].(float64)}
	}

	starts := edges.Source.Column("start")
	ends := edges.Source.Column("end")
	exs := edges.Source.Column("xs")
	eys := edges.Source.Column("ys")
	for i := range starts {
		segX := exs[i].([]float64)
		segY := eys[i].([]float64)
		from, okFrom := pos[starts[i].(string)]
		to, okTo := pos[ends[i].(string)]
		if !okFrom || !okTo {
			t.Fatalf("edge %d references unknown node %q or %q", i, starts[i], ends[i])
		}
		if segX[0] != from[0] || segY[0] != from[1] {
			t.Errorf("edge %d start (%v,%v) != node %q (%v,%v)", i, segX[0], segY[0], starts[i], from[0], from[1])
		}
		if segX[1] != to[0] || segY[1] != to[1] {
			t.Errorf("edge %d end (%v,%v) != node %q (%v,%v)", i, segX[1], segY[1], ends[i], to[0], to[1])
		}
	}
}

func TestPeriodViewRangesHaveHeadroom(t *testing.T) {
	ds := testDataset(t)
	res := PeriodView(fullSubset(ds), defaultSelectors(ds))

	events, ok := res.Ranges["events"]
	if !ok {
		t.Fatal("missing events range")
	}
	// All three events fall in the 1992–2001 period, so the ceiling is 3 * 1.1.
	if math.Abs(events.Hi-3.3) > 1e-9 {
		t.Errorf("events ceiling = %v, want 3.3", events.Hi)
	}
}
