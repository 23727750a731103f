package agg

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/incident.report/internal/gtd"
	"github.com/banshee-data/incident.report/internal/tabular"
)

// Boxplot computes the five-number fatality summary per region. Whiskers are
// clamped to the observed extremes, labels are the region abbreviations, and
// boxes are ordered by the full region name.
func Boxplot(s *gtd.Subset, _ Selectors) Result {
	src := tabular.New("region", "region_full", "q1", "q2", "q3", "lower", "upper")
	if s.Empty() {
		return Result{Source: src, XFactors: []string{}}
	}

	byRegion := map[string][]float64{}
	for i := range s.Rows {
		v := s.Rows[i].Kills
		if math.IsInf(v, 0) || math.IsNaN(v) {
			continue
		}
		byRegion[s.Rows[i].Region] = append(byRegion[s.Rows[i].Region], v)
	}
	regions := make([]string, 0, len(byRegion))
	for r := range byRegion {
		regions = append(regions, r)
	}
	sort.Strings(regions)
	if len(regions) == 0 {
		return Result{Source: src, XFactors: []string{}}
	}

	abbrevs := make([]string, len(regions))
	q1s := make([]float64, len(regions))
	q2s := make([]float64, len(regions))
	q3s := make([]float64, len(regions))
	lowers := make([]float64, len(regions))
	uppers := make([]float64, len(regions))
	for i, r := range regions {
		values := byRegion[r]
		sort.Float64s(values)
		q1 := stat.Quantile(0.25, stat.LinInterp, values, nil)
		q2 := stat.Quantile(0.5, stat.LinInterp, values, nil)
		q3 := stat.Quantile(0.75, stat.LinInterp, values, nil)
		iqr := q3 - q1
		lower := math.Max(values[0], q1-1.5*iqr)
		upper := math.Min(values[len(values)-1], q3+1.5*iqr)

		abbrevs[i] = gtd.AbbrevRegion(r)
		q1s[i], q2s[i], q3s[i] = q1, q2, q3
		lowers[i], uppers[i] = lower, upper
	}

	src.SetColumn("region", tabular.Strings(abbrevs))
	src.SetColumn("region_full", tabular.Strings(regions))
	src.SetColumn("q1", tabular.Floats(q1s))
	src.SetColumn("q2", tabular.Floats(q2s))
	src.SetColumn("q3", tabular.Floats(q3s))
	src.SetColumn("lower", tabular.Floats(lowers))
	src.SetColumn("upper", tabular.Floats(uppers))
	return Result{Source: src, XFactors: abbrevs}
}

// SeverityScatter plots the five hundred highest-casualty events, sized by
// casualties within the visible range.
func SeverityScatter(s *gtd.Subset, _ Selectors) Result {
	src := tabular.New("fatalities", "wounded", "casualties", "country", "city", "year", "attacktype", "size")
	if s.Empty() {
		return Result{Source: src}
	}

	top := topByCasualties(s.Rows, 500)
	minC, maxC := top[len(top)-1].Casualties, top[0].Casualties

	fatalities := make([]float64, len(top))
	wounded := make([]float64, len(top))
	casualties := make([]float64, len(top))
	countries := make([]string, len(top))
	cities := make([]string, len(top))
	years := make([]int, len(top))
	attacks := make([]string, len(top))
	sizes := make([]float64, len(top))
	for i, r := range top {
		fatalities[i] = r.Kills
		wounded[i] = r.Wounds
		casualties[i] = r.Casualties
		countries[i] = r.Country
		cities[i] = r.City
		years[i] = r.Year
		attacks[i] = r.AttackType
		if maxC == minC {
			sizes[i] = 15
		} else {
			sizes[i] = interp(r.Casualties, minC, maxC, 8, 35)
		}
	}

	src.SetColumn("fatalities", tabular.Floats(fatalities))
	src.SetColumn("wounded", tabular.Floats(wounded))
	src.SetColumn("casualties", tabular.Floats(casualties))
	src.SetColumn("country", tabular.Strings(countries))
	src.SetColumn("city", tabular.Strings(cities))
	src.SetColumn("year", tabular.Ints(years))
	src.SetColumn("attacktype", tabular.Strings(attacks))
	src.SetColumn("size", tabular.Floats(sizes))
	return Result{Source: src}
}

var successSplitColors = []string{"#2a9d8f", "#e76f51"}

// SuccessSplit carves the outcome split into wedge angles with mid-wedge
// label anchors at a fixed radius.
func SuccessSplit(s *gtd.Subset, _ Selectors) Result {
	src := tabular.New("category", "angle", "color", "label", "incidents", "percent", "label_x", "label_y", "label_short")
	if s.Empty() {
		return Result{Source: src}
	}

	counts := [2]int{}
	for i := range s.Rows {
		if s.Rows[i].Success {
			counts[0]++
		} else {
			counts[1]++
		}
	}
	total := counts[0] + counts[1]

	categories := []string{gtd.OutcomeSuccessful, gtd.OutcomeFailed}
	angles := make([]float64, 2)
	labels := make([]string, 2)
	incidents := make([]int, 2)
	percents := make([]float64, 2)
	labelX := make([]float64, 2)
	labelY := make([]float64, 2)
	labelShort := make([]string, 2)

	const labelRadius = 0.45
	start := 0.0
	for i, n := range counts {
		share := float64(n) / float64(total)
		angles[i] = share * 2 * math.Pi
		labels[i] = fmt.Sprintf("%s: %d (%.1f%%)", categories[i], n, share*100)
		incidents[i] = n
		percents[i] = share * 100
		mid := start + angles[i]/2
		labelX[i] = math.Cos(mid) * labelRadius
		labelY[i] = math.Sin(mid) * labelRadius
		labelShort[i] = fmt.Sprintf("%s\n%.1f%%", categories[i], share*100)
		start += angles[i]
	}

	src.SetColumn("category", tabular.Strings(categories))
	src.SetColumn("angle", tabular.Floats(angles))
	src.SetColumn("color", tabular.Strings(successSplitColors))
	src.SetColumn("label", tabular.Strings(labels))
	src.SetColumn("incidents", tabular.Ints(incidents))
	src.SetColumn("percent", tabular.Floats(percents))
	src.SetColumn("label_x", tabular.Floats(labelX))
	src.SetColumn("label_y", tabular.Floats(labelY))
	src.SetColumn("label_short", tabular.Strings(labelShort))
	return Result{Source: src}
}

// TopEventsTable lists the twenty-five highest-casualty events with their
// formatted dates.
func TopEventsTable(s *gtd.Subset, _ Selectors) Result {
	src := tabular.New("event_date", "country", "city", "attacktype", "targtype", "fatalities", "wounded", "casualties")
	if s.Empty() {
		return Result{Source: src}
	}

	top := topByCasualties(s.Rows, 25)
	dates := make([]string, len(top))
	countries := make([]string, len(top))
	cities := make([]string, len(top))
	attacks := make([]string, len(top))
	targets := make([]string, len(top))
	fatalities := make([]float64, len(top))
	wounded := make([]float64, len(top))
	casualties := make([]float64, len(top))
	for i, r := range top {
		if r.EventDate.IsZero() {
			dates[i] = "Unknown"
		} else {
			dates[i] = r.EventDate.Format("2006-01-02")
		}
		countries[i] = r.Country
		cities[i] = r.City
		attacks[i] = r.AttackType
		targets[i] = r.TargetType
		fatalities[i] = r.Kills
		wounded[i] = r.Wounds
		casualties[i] = r.Casualties
	}

	src.SetColumn("event_date", tabular.Strings(dates))
	src.SetColumn("country", tabular.Strings(countries))
	src.SetColumn("city", tabular.Strings(cities))
	src.SetColumn("attacktype", tabular.Strings(attacks))
	src.SetColumn("targtype", tabular.Strings(targets))
	src.SetColumn("fatalities", tabular.Floats(fatalities))
	src.SetColumn("wounded", tabular.Floats(wounded))
	src.SetColumn("casualties", tabular.Floats(casualties))
	return Result{Source: src}
}

// Summary is the headline metric card strip. It is the one view that keeps
// its shape on an empty subset, publishing zeros instead of empty columns.
func Summary(s *gtd.Subset, _ Selectors) Result {
	src := tabular.New("label", "value")

	var kills, wounds float64
	var successes, suicides int
	for i := range s.Rows {
		kills += s.Rows[i].Kills
		wounds += s.Rows[i].Wounds
		if s.Rows[i].Success {
			successes++
		}
		if s.Rows[i].Suicide {
			suicides++
		}
	}
	n := len(s.Rows)
	successRate, suicideRate, avgKills, avgWounds := 0.0, 0.0, 0.0, 0.0
	if n > 0 {
		successRate = float64(successes) / float64(n)
		suicideRate = float64(suicides) / float64(n)
		avgKills = kills / float64(n)
		avgWounds = wounds / float64(n)
	}

	labels := []string{
		"Incidents", "Fatalities", "Wounded", "Casualties",
		"Success rate", "Suicide share", "Avg killed/event", "Avg wounded/event",
	}
	values := []string{
		fmt.Sprintf("%d", n),
		fmt.Sprintf("%d", int(kills)),
		fmt.Sprintf("%d", int(wounds)),
		fmt.Sprintf("%d", int(kills)+int(wounds)),
		fmt.Sprintf("%.1f%%", successRate*100),
		fmt.Sprintf("%.1f%%", suicideRate*100),
		fmt.Sprintf("%.2f", avgKills),
		fmt.Sprintf("%.2f", avgWounds),
	}

	src.SetColumn("label", tabular.Strings(labels))
	src.SetColumn("value", tabular.Strings(values))
	return Result{Source: src}
}
