package agg

import (
	"fmt"
	"sort"

	"github.com/banshee-data/incident.report/internal/filter"
	"github.com/banshee-data/incident.report/internal/gtd"
	"github.com/banshee-data/incident.report/internal/tabular"
)

var mapColumns = []string{
	"mercator_x", "mercator_y",
	"country_txt", "region_txt", "provstate", "city",
	"latitude", "longitude",
	"incidents", "fatalities", "wounded", "casualties",
	"year_min", "year_max", "years",
	"size", "color", "alpha",
}

type mapKey struct {
	country, region, provstate, city string
	lat, lon                         float64
}

// Map groups geolocated rows by place, projects coordinates onto the Web
// Mercator plane, and derives marker size, colour, and highlight alpha.
func Map(s *gtd.Subset, sel Selectors) Result {
	src := tabular.New(mapColumns...)

	groups := map[mapKey]*groupStat{}
	for i := range s.Rows {
		r := &s.Rows[i]
		if !r.HasCoordinates() {
			continue
		}
		k := mapKey{r.Country, r.Region, r.ProvState, r.City, *r.Latitude, *r.Longitude}
		g := groups[k]
		if g == nil {
			g = &groupStat{}
			groups[k] = g
		}
		g.add(r)
	}
	if len(groups) == 0 {
		return Result{Source: src}
	}

	keys := make([]mapKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	// Rank by total casualties descending; break ties by place so refreshes
	// are order-stable.
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := groups[keys[i]].casualties, groups[keys[j]].casualties
		if ci != cj {
			return ci > cj
		}
		if keys[i].country != keys[j].country {
			return keys[i].country < keys[j].country
		}
		if keys[i].city != keys[j].city {
			return keys[i].city < keys[j].city
		}
		return keys[i].lat < keys[j].lat
	})

	n := len(keys)
	xs := make([]float64, n)
	ys := make([]float64, n)
	countries := make([]string, n)
	regions := make([]string, n)
	provs := make([]string, n)
	cities := make([]string, n)
	lats := make([]float64, n)
	lons := make([]float64, n)
	incidents := make([]int, n)
	fatalities := make([]float64, n)
	wounded := make([]float64, n)
	casualties := make([]float64, n)
	yearMin := make([]int, n)
	yearMax := make([]int, n)
	years := make([]string, n)

	maxCasualty := 1.0
	for i, k := range keys {
		g := groups[k]
		xs[i], ys[i] = Mercator(k.lat, k.lon)
		countries[i] = k.country
		regions[i] = k.region
		provs[i] = k.provstate
		cities[i] = k.city
		lats[i] = k.lat
		lons[i] = k.lon
		incidents[i] = g.incidents
		fatalities[i] = g.kills
		wounded[i] = g.wounds
		casualties[i] = g.casualties
		yearMin[i] = g.yearMin
		yearMax[i] = g.yearMax
		if g.yearMin == g.yearMax {
			years[i] = fmt.Sprintf("%d", g.yearMin)
		} else {
			years[i] = fmt.Sprintf("%d–%d", g.yearMin, g.yearMax)
		}
		if g.casualties > maxCasualty {
			maxCasualty = g.casualties
		}
	}

	sizes := make([]float64, n)
	alphas := make([]float64, n)
	for i := range keys {
		sizes[i] = interp(casualties[i], 0, maxCasualty, 6, 36)
		if sel.HighlightRegion != filter.NoneHighlighted {
			if regions[i] == sel.HighlightRegion {
				alphas[i] = 0.85
			} else {
				alphas[i] = 0.2
			}
		} else {
			alphas[i] = 0.55
		}
	}

	src.SetColumn("mercator_x", tabular.Floats(xs))
	src.SetColumn("mercator_y", tabular.Floats(ys))
	src.SetColumn("country_txt", tabular.Strings(countries))
	src.SetColumn("region_txt", tabular.Strings(regions))
	src.SetColumn("provstate", tabular.Strings(provs))
	src.SetColumn("city", tabular.Strings(cities))
	src.SetColumn("latitude", tabular.Floats(lats))
	src.SetColumn("longitude", tabular.Floats(lons))
	src.SetColumn("incidents", tabular.Ints(incidents))
	src.SetColumn("fatalities", tabular.Floats(fatalities))
	src.SetColumn("wounded", tabular.Floats(wounded))
	src.SetColumn("casualties", tabular.Floats(casualties))
	src.SetColumn("year_min", tabular.Ints(yearMin))
	src.SetColumn("year_max", tabular.Ints(yearMax))
	src.SetColumn("years", tabular.Strings(years))
	src.SetColumn("size", tabular.Floats(sizes))
	src.SetColumn("color", tabular.Strings(valueRamp(casualties)))
	src.SetColumn("alpha", tabular.Floats(alphas))
	return Result{Source: src}
}
