// Package gtd loads the Global Terrorism Database extract and exposes the
// enriched in-memory dataset the aggregation layer reads.
package gtd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/incident.report/internal/palette"
)

// MonthOrder is the fixed categorical month domain, January through December.
var MonthOrder = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Historical era buckets. A year y falls in period i when
// periodBins[i] < y <= periodBins[i+1].
var (
	periodBins   = []int{1969, 1991, 2001, 2010, 2017}
	PeriodLabels = []string{
		"Late Cold War (1970-1991)",
		"Post-Cold War & 9/11 (1992-2001)",
		"Early War on Terror (2002-2010)",
		"Arab Spring / ISIS (2011-2017)",
	}
)

// FocusRegions are the preferred hotspot focus choices, in priority order.
var FocusRegions = []string{"Middle East & North Africa", "South Asia", "Sub-Saharan Africa", "South America"}

// RecentYearThreshold marks the start of the "recent" era.
const RecentYearThreshold = 2008

// RegionAbbrev maps full region names to short axis labels.
var RegionAbbrev = map[string]string{
	"Middle East & North Africa":  "MENA",
	"South Asia":                  "SA",
	"Sub-Saharan Africa":          "SSA",
	"South America":               "SAM",
	"Central America & Caribbean": "CAC",
	"Southeast Asia":              "SEA",
	"Western Europe":              "WEU",
	"Eastern Europe":              "EEU",
	"North America":               "NAM",
	"East Asia":                   "EAS",
	"Central Asia":                "CA",
	"Australasia & Oceania":       "AUS",
}

// AbbrevRegion returns the short label for a region, falling back to the
// initials of its words.
func AbbrevRegion(region string) string {
	if abbr, ok := RegionAbbrev[region]; ok {
		return abbr
	}
	var b strings.Builder
	for _, word := range strings.Fields(region) {
		r := []rune(word)
		if len(r) > 0 {
			b.WriteString(strings.ToUpper(string(r[0])))
		}
	}
	return b.String()
}

// Sentinel labels substituted for missing categorical values at load time.
// Every grouping column is guaranteed non-empty after normalisation.
const (
	UnknownRegion  = "Unknown region"
	UnknownAttack  = "Unknown attack"
	UnknownTarget  = "Unknown target"
	UnknownCountry = "Unknown country"
	UnknownCity    = "Unknown city"
	UnknownWeapon  = "Unknown weapon"
	UnknownGroup   = "Unknown group"
)

// Outcome and suicide flag labels.
const (
	OutcomeSuccessful = "Successful"
	OutcomeFailed     = "Failed"
	SuicideLabel      = "Suicide"
	NonSuicideLabel   = "Non-suicide"
)

// Incident is one event row from the source dataset, with derived attributes
// filled in by enrich.
type Incident struct {
	EventID int64
	Year    int
	Month   int
	Day     int

	Country    string
	Region     string
	ProvState  string
	City       string
	Latitude   *float64
	Longitude  *float64
	Success    bool
	Suicide    bool
	AttackType string
	TargetType string
	WeaponType string
	Group      string
	Kills      float64
	Wounds     float64

	// Derived at load time.
	EventDate  time.Time // zero when the calendar date is invalid
	Casualties float64
	Decade     int
	Period     string // "" for years outside the period bins
	MonthName  string
	Recent     bool
}

// OutcomeLabel returns the categorical outcome flag for the record.
func (in *Incident) OutcomeLabel() string {
	if in.Success {
		return OutcomeSuccessful
	}
	return OutcomeFailed
}

// SuicideFlag returns the categorical suicide flag for the record.
func (in *Incident) SuicideFlag() string {
	if in.Suicide {
		return SuicideLabel
	}
	return NonSuicideLabel
}

// HasCoordinates reports whether both latitude and longitude are present.
func (in *Incident) HasCoordinates() bool {
	return in.Latitude != nil && in.Longitude != nil
}

// Meta holds dataset-level facts computed once at load: observed categorical
// domains, pinned top-K category lists, and the observed bounds the filter
// defaults derive from.
type Meta struct {
	YearMin, YearMax int

	Regions     []string // sorted observed region domain
	AttackTypes []string // sorted observed attack-type domain
	TargetTypes []string // sorted observed target-type domain

	HotspotRegions []string // focus regions present in the data, fallback first 5

	TopWeaponTypes []string // 5 most frequent weapon types
	TopOrgs        []string // 5 most active named groups
	TopTargetTypes []string // 8 most frequent target types
	TopAttackTypes []string // 6 most frequent attack types

	MaxKills      float64
	MaxCasualties float64
	FatalityQ95   float64 // 95th percentile of per-event kills
	CasualtyQ95   float64 // 95th percentile of per-event casualties

	RegionColors map[string]string
	AttackColors map[string]string
}

// Dataset is the enriched record set plus its metadata. It is immutable after
// Load returns and shared read-only by every aggregation.
type Dataset struct {
	Incidents []Incident
	Meta      Meta
}

// FromRecords builds a Dataset from in-memory records, running the same
// enrichment and metadata derivation as Load. Useful for tests and for
// embedding small fixture datasets.
func FromRecords(rows []Incident) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no records", ErrDataUnavailable)
	}
	copied := append([]Incident(nil), rows...)
	enrich(copied)
	return &Dataset{Incidents: copied, Meta: buildMeta(copied)}, nil
}

// enrich fills in the derived attributes of each record in place.
func enrich(rows []Incident) {
	for i := range rows {
		r := &rows[i]
		if r.Month == 0 {
			r.Month = 1
		}
		if r.Day == 0 {
			r.Day = 1
		}
		r.Casualties = r.Kills + r.Wounds
		r.Decade = (r.Year / 10) * 10
		r.Recent = r.Year >= RecentYearThreshold
		r.Period = periodFor(r.Year)

		m := r.Month
		if m < 1 {
			m = 1
		}
		if m > 12 {
			m = 12
		}
		r.MonthName = MonthOrder[m-1]

		d := time.Date(r.Year, time.Month(m), r.Day, 0, 0, 0, 0, time.UTC)
		// Reject dates that normalised away (e.g. Feb 30), matching the
		// coerce-to-null behaviour of the source pipeline.
		if d.Year() == r.Year && int(d.Month()) == m && d.Day() == r.Day {
			r.EventDate = d
		} else {
			r.EventDate = time.Time{}
		}
	}
}

func periodFor(year int) string {
	for i := 0; i < len(periodBins)-1; i++ {
		if year > periodBins[i] && year <= periodBins[i+1] {
			return PeriodLabels[i]
		}
	}
	return ""
}

// buildMeta derives the dataset-level metadata from the enriched rows.
func buildMeta(rows []Incident) Meta {
	var m Meta
	if len(rows) == 0 {
		return m
	}

	m.YearMin, m.YearMax = rows[0].Year, rows[0].Year
	regionSet := map[string]bool{}
	attackSet := map[string]bool{}
	targetSet := map[string]bool{}
	weaponCounts := map[string]int{}
	orgCounts := map[string]int{}
	targetCounts := map[string]int{}
	attackCounts := map[string]int{}
	kills := make([]float64, 0, len(rows))
	casualties := make([]float64, 0, len(rows))

	for i := range rows {
		r := &rows[i]
		if r.Year < m.YearMin {
			m.YearMin = r.Year
		}
		if r.Year > m.YearMax {
			m.YearMax = r.Year
		}
		regionSet[r.Region] = true
		attackSet[r.AttackType] = true
		targetSet[r.TargetType] = true
		weaponCounts[r.WeaponType]++
		targetCounts[r.TargetType]++
		attackCounts[r.AttackType]++
		if r.Group != UnknownGroup {
			orgCounts[r.Group]++
		}
		if r.Kills > m.MaxKills {
			m.MaxKills = r.Kills
		}
		if r.Casualties > m.MaxCasualties {
			m.MaxCasualties = r.Casualties
		}
		kills = append(kills, r.Kills)
		casualties = append(casualties, r.Casualties)
	}

	m.Regions = sortedKeys(regionSet)
	m.AttackTypes = sortedKeys(attackSet)
	m.TargetTypes = sortedKeys(targetSet)

	for _, region := range FocusRegions {
		if regionSet[region] {
			m.HotspotRegions = append(m.HotspotRegions, region)
		}
	}
	if len(m.HotspotRegions) == 0 {
		n := len(m.Regions)
		if n > 5 {
			n = 5
		}
		m.HotspotRegions = append([]string(nil), m.Regions[:n]...)
	}

	m.TopWeaponTypes = topKByCount(weaponCounts, 5, UnknownWeapon)
	m.TopOrgs = topKByCount(orgCounts, 5, UnknownGroup)
	m.TopTargetTypes = topKByCount(targetCounts, 8, UnknownTarget)
	m.TopAttackTypes = topKByCount(attackCounts, 6, UnknownAttack)

	sort.Float64s(kills)
	sort.Float64s(casualties)
	m.FatalityQ95 = stat.Quantile(0.95, stat.LinInterp, kills, nil)
	m.CasualtyQ95 = stat.Quantile(0.95, stat.LinInterp, casualties, nil)

	m.RegionColors = categoryColors(m.Regions)
	m.AttackColors = categoryColors(m.AttackTypes)
	return m
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// topKByCount ranks labels by descending count, ascending label on ties, and
// truncates to k. An empty count map yields the single fallback label so the
// pinned domains downstream are never empty.
func topKByCount(counts map[string]int, k int, fallback string) []string {
	if len(counts) == 0 {
		return []string{fallback}
	}
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return labels[i] < labels[j]
	})
	if len(labels) > k {
		labels = labels[:k]
	}
	return labels
}

// categoryColors assigns each label a stable colour by cycling the 20-colour
// categorical palette over the sorted domain.
func categoryColors(labels []string) map[string]string {
	out := make(map[string]string, len(labels))
	for i, label := range labels {
		out[label] = palette.Category20[i%len(palette.Category20)]
	}
	return out
}

// Subset is the set of incident records satisfying the active filter state.
// It keeps a pointer back to the dataset so aggregations can reach the pinned
// category domains and colour maps.
type Subset struct {
	DS   *Dataset
	Rows []Incident
}

// Empty reports whether the subset has no rows.
func (s *Subset) Empty() bool { return len(s.Rows) == 0 }
