package gtd

import "testing"

func TestEnrichDerivedColumns(t *testing.T) {
	tests := []struct {
		name       string
		in         Incident
		casualties float64
		decade     int
		period     string
		monthName  string
		recent     bool
		dateOK     bool
	}{
		{
			name:       "zero month and day coerced to 1",
			in:         Incident{Year: 1995, Month: 0, Day: 0, Kills: 2, Wounds: 1},
			casualties: 3, decade: 1990, period: "Post-Cold War & 9/11 (1992-2001)",
			monthName: "Jan", recent: false, dateOK: true,
		},
		{
			name:       "recent flag from threshold year",
			in:         Incident{Year: 2008, Month: 6, Day: 15},
			casualties: 0, decade: 2000, period: "Early War on Terror (2002-2010)",
			monthName: "Jun", recent: true, dateOK: true,
		},
		{
			name:       "year before first period bin",
			in:         Incident{Year: 1969, Month: 12, Day: 31, Kills: 1},
			casualties: 1, decade: 1960, period: "",
			monthName: "Dec", recent: false, dateOK: true,
		},
		{
			name:       "invalid calendar date coerced to null",
			in:         Incident{Year: 2011, Month: 2, Day: 30},
			casualties: 0, decade: 2010, period: "Arab Spring / ISIS (2011-2017)",
			monthName: "Feb", recent: true, dateOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := []Incident{tt.in}
			enrich(rows)
			r := rows[0]
			if r.Casualties != tt.casualties {
				t.Errorf("Casualties = %v, want %v", r.Casualties, tt.casualties)
			}
			if r.Decade != tt.decade {
				t.Errorf("Decade = %d, want %d", r.Decade, tt.decade)
			}
			if r.Period != tt.period {
				t.Errorf("Period = %q, want %q", r.Period, tt.period)
			}
			if r.MonthName != tt.monthName {
				t.Errorf("MonthName = %q, want %q", r.MonthName, tt.monthName)
			}
			if r.Recent != tt.recent {
				t.Errorf("Recent = %v, want %v", r.Recent, tt.recent)
			}
			if got := !r.EventDate.IsZero(); got != tt.dateOK {
				t.Errorf("EventDate valid = %v, want %v", got, tt.dateOK)
			}
			if r.Month < 1 || r.Month > 12 || r.Day < 1 || r.Day > 31 {
				t.Errorf("month/day out of calendar range: %d/%d", r.Month, r.Day)
			}
		})
	}
}

func TestBuildMetaDomainsAndTopK(t *testing.T) {
	rows := []Incident{
		{Year: 1995, Region: "Middle East & North Africa", AttackType: "Bombing", TargetType: "Police", WeaponType: "Explosives", Group: "Group A", Kills: 2, Wounds: 1},
		{Year: 1995, Region: "Middle East & North Africa", AttackType: "Bombing", TargetType: "Military", WeaponType: "Explosives", Group: UnknownGroup},
		{Year: 2000, Region: "South Asia", AttackType: "Armed Assault", TargetType: "Police", WeaponType: "Firearms", Group: "Group B", Kills: 5, Wounds: 5},
	}
	enrich(rows)
	m := buildMeta(rows)

	if m.YearMin != 1995 || m.YearMax != 2000 {
		t.Errorf("year bounds = [%d,%d], want [1995,2000]", m.YearMin, m.YearMax)
	}
	wantRegions := []string{"Middle East & North Africa", "South Asia"}
	if len(m.Regions) != 2 || m.Regions[0] != wantRegions[0] || m.Regions[1] != wantRegions[1] {
		t.Errorf("Regions = %v, want %v", m.Regions, wantRegions)
	}
	// Unknown group is excluded from the org ranking.
	for _, org := range m.TopOrgs {
		if org == UnknownGroup {
			t.Errorf("TopOrgs contains %q", UnknownGroup)
		}
	}
	if m.TopWeaponTypes[0] != "Explosives" {
		t.Errorf("TopWeaponTypes[0] = %q, want Explosives", m.TopWeaponTypes[0])
	}
	// Both fixture regions are focus regions, kept in priority order.
	wantHotspots := []string{"Middle East & North Africa", "South Asia"}
	if len(m.HotspotRegions) != 2 || m.HotspotRegions[0] != wantHotspots[0] || m.HotspotRegions[1] != wantHotspots[1] {
		t.Errorf("HotspotRegions = %v, want %v", m.HotspotRegions, wantHotspots)
	}
	if m.MaxCasualties != 10 {
		t.Errorf("MaxCasualties = %v, want 10", m.MaxCasualties)
	}
	for _, region := range m.Regions {
		if m.RegionColors[region] == "" {
			t.Errorf("no colour assigned to region %q", region)
		}
	}
}

func TestCasualtiesNeverNegative(t *testing.T) {
	rows := []Incident{
		{Year: 1990},
		{Year: 1991, Kills: 3},
		{Year: 1992, Wounds: 7},
	}
	enrich(rows)
	for _, r := range rows {
		if r.Kills < 0 || r.Wounds < 0 || r.Casualties < 0 {
			t.Errorf("negative counts after enrich: %+v", r)
		}
		if r.Casualties != r.Kills+r.Wounds {
			t.Errorf("Casualties = %v, want %v", r.Casualties, r.Kills+r.Wounds)
		}
	}
}

func TestAbbrevRegion(t *testing.T) {
	tests := []struct {
		region string
		want   string
	}{
		{"Middle East & North Africa", "MENA"},
		{"South Asia", "SA"},
		{"Some New Region", "SNR"},
	}
	for _, tt := range tests {
		if got := AbbrevRegion(tt.region); got != tt.want {
			t.Errorf("AbbrevRegion(%q) = %q, want %q", tt.region, got, tt.want)
		}
	}
}
