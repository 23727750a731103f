package dashboard

import (
	"testing"

	"github.com/banshee-data/incident.report/internal/filter"
	"github.com/banshee-data/incident.report/internal/gtd"
)

func testDataset(t *testing.T) *gtd.Dataset {
	t.Helper()
	ds, err := gtd.FromRecords([]gtd.Incident{
		{EventID: 1, Year: 1995, Month: 1, Day: 1, Country: "Iraq", Region: "Middle East & North Africa", City: "Baghdad", AttackType: "Bombing/Explosion", TargetType: "Police", WeaponType: "Explosives", Group: "Group A", Kills: 2, Wounds: 1, Success: true},
		{EventID: 2, Year: 1995, Month: 2, Day: 2, Country: "Iraq", Region: "Middle East & North Africa", City: "Mosul", AttackType: "Armed Assault", TargetType: "Military", WeaponType: "Firearms", Group: gtd.UnknownGroup},
		{EventID: 3, Year: 2000, Month: 3, Day: 3, Country: "India", Region: "South Asia", City: "Amritsar", AttackType: "Bombing/Explosion", TargetType: "Police", WeaponType: "Explosives", Group: "Group B", Kills: 5, Wounds: 5, Success: true, Suicide: true},
	})
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	return ds
}

func TestNewPublishesEveryOutput(t *testing.T) {
	st := New(testDataset(t))

	names := st.Names()
	if len(names) == 0 {
		t.Fatal("no outputs published")
	}
	for _, name := range names {
		res, ok := st.Output(name)
		if !ok {
			t.Errorf("output %q missing after initial refresh", name)
			continue
		}
		if res.Source == nil {
			t.Errorf("output %q has nil source", name)
		}
	}
	if names[0] != "map" || names[len(names)-1] != "summary" {
		t.Errorf("unexpected output order: first %q, last %q", names[0], names[len(names)-1])
	}
}

func TestFilterChangedRefreshesOutputs(t *testing.T) {
	st := New(testDataset(t))

	// Widen the numeric caps past the defaults' 95th-percentile ceiling so
	// the high-casualty South Asia event stays in range.
	region := []string{"South Asia"}
	hi := 100.0
	err := st.Apply(FilterChanged{Update: filter.Update{Regions: &region, FatalityHi: &hi, CasualtyHi: &hi}})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if got := st.Filters().Regions; len(got) != 1 || got[0] != "South Asia" {
		t.Errorf("filter state not updated: %v", got)
	}
	res, _ := st.Output("country")
	countries := res.Source.Column("country")
	if len(countries) != 1 || countries[0] != "India" {
		t.Errorf("country output not refreshed: %v", countries)
	}
}

func TestRejectedCommandLeavesStateUntouched(t *testing.T) {
	st := New(testDataset(t))
	before := st.Filters()
	beforeCount, _, _ := st.Stats()

	bad := 2005 // beyond YearHi, inverting the range
	err := st.Apply(FilterChanged{Update: filter.Update{YearLo: &bad}})
	if err == nil {
		t.Fatal("expected rejection for inverted year range")
	}

	after := st.Filters()
	if after.YearLo != before.YearLo {
		t.Errorf("YearLo mutated by rejected command: %d -> %d", before.YearLo, after.YearLo)
	}
	afterCount, _, _ := st.Stats()
	if afterCount != beforeCount {
		t.Errorf("rejected command triggered a refresh: %d -> %d", beforeCount, afterCount)
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	ds := testDataset(t)
	st := New(ds)

	region := []string{"South Asia"}
	if err := st.Apply(FilterChanged{Update: filter.Update{Regions: &region}}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := st.Apply(ResetRequested{}); err != nil {
		t.Fatalf("reset: %v", err)
	}

	want := filter.Defaults(ds)
	got := st.Filters()
	if len(got.Regions) != len(want.Regions) {
		t.Errorf("regions not restored: got %v, want %v", got.Regions, want.Regions)
	}
	if got.YearLo != want.YearLo || got.YearHi != want.YearHi {
		t.Errorf("year range not restored: got [%d,%d], want [%d,%d]", got.YearLo, got.YearHi, want.YearLo, want.YearHi)
	}
}
