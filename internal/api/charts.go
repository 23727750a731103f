package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Debugging-only chart endpoints (no auth). They render the published
// tabular sources as standalone HTML pages so the pipeline can be inspected
// without the real rendering surface.

func floatColumn(vals []interface{}) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		switch t := v.(type) {
		case float64:
			out[i] = t
		case int:
			out[i] = float64(t)
		}
	}
	return out
}

func stringColumn(vals []interface{}) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = fmt.Sprint(v)
	}
	return out
}

func (s *Server) renderChart(w http.ResponseWriter, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// chartMap plots the grouped incident places on the Mercator plane, coloured
// by total casualties.
func (s *Server) chartMap(w http.ResponseWriter, r *http.Request) {
	res, ok := s.state.Output("map")
	if !ok {
		s.writeJSONError(w, http.StatusNotFound, "map source not published")
		return
	}

	xs := floatColumn(res.Source.Column("mercator_x"))
	ys := floatColumn(res.Source.Column("mercator_y"))
	casualties := floatColumn(res.Source.Column("casualties"))

	maxCasualties := 1.0
	data := make([]opts.ScatterData, len(xs))
	for i := range xs {
		if casualties[i] > maxCasualties {
			maxCasualties = casualties[i]
		}
		data[i] = opts.ScatterData{Value: []interface{}{xs[i], ys[i], casualties[i]}}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Incident Map (Mercator)", Theme: "dark", Width: "1200px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: "Incidents by Place", Subtitle: fmt.Sprintf("places=%d", len(data))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxCasualties),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#31688e", "#35b779", "#fde725"}},
		}),
	)
	scatter.AddSeries("places", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	s.renderChart(w, scatter.Render)
}

// chartTimeline renders the yearly measure series as lines.
func (s *Server) chartTimeline(w http.ResponseWriter, r *http.Request) {
	res, ok := s.state.Output("timeline")
	if !ok {
		s.writeJSONError(w, http.StatusNotFound, "timeline source not published")
		return
	}

	years := stringColumn(res.Source.Column("year"))
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Incidents Over Time", Theme: "dark", Width: "1200px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Incidents Over Time"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(years)
	for _, series := range []string{"incidents", "fatalities", "wounded"} {
		vals := floatColumn(res.Source.Column(series))
		data := make([]opts.LineData, len(vals))
		for i, v := range vals {
			data[i] = opts.LineData{Value: v}
		}
		line.AddSeries(series, data)
	}
	s.renderChart(w, line.Render)
}

// chartSeason renders the month-of-year bar.
func (s *Server) chartSeason(w http.ResponseWriter, r *http.Request) {
	res, ok := s.state.Output("season")
	if !ok {
		s.writeJSONError(w, http.StatusNotFound, "season source not published")
		return
	}

	months := stringColumn(res.Source.Column("month"))
	vals := floatColumn(res.Source.Column("incidents"))
	data := make([]opts.BarData, len(vals))
	for i, v := range vals {
		data[i] = opts.BarData{Value: v}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Seasonality", Theme: "dark", Width: "900px", Height: "450px"}),
		charts.WithTitleOpts(opts.Title{Title: "Incidents by Month"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(months)
	bar.AddSeries("incidents", data)
	s.renderChart(w, bar.Render)
}

// chartOutcome renders the outcome split as a pie.
func (s *Server) chartOutcome(w http.ResponseWriter, r *http.Request) {
	res, ok := s.state.Output("success_split")
	if !ok {
		s.writeJSONError(w, http.StatusNotFound, "success_split source not published")
		return
	}

	categories := stringColumn(res.Source.Column("category"))
	counts := floatColumn(res.Source.Column("incidents"))
	data := make([]opts.PieData, len(categories))
	for i := range categories {
		data[i] = opts.PieData{Name: categories[i], Value: counts[i]}
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Outcome Split", Theme: "dark", Width: "600px", Height: "450px"}),
		charts.WithTitleOpts(opts.Title{Title: "Attack Outcomes"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	pie.AddSeries("outcome", data)
	s.renderChart(w, pie.Render)
}

// debugDashboard is a plain iframe index over the debug charts.
func (s *Server) debugDashboard(w http.ResponseWriter, r *http.Request) {
	const page = `<!DOCTYPE html>
<html>
<head><title>Incident Dashboard Debug Charts</title>
<style>body{background:#111;color:#eee;font-family:sans-serif}iframe{border:0;background:#111;margin:8px}</style>
</head>
<body>
<h2>Debug charts</h2>
<iframe src="/debug/charts/map" width="1220" height="720"></iframe>
<iframe src="/debug/charts/timeline" width="1220" height="520"></iframe>
<iframe src="/debug/charts/season" width="920" height="470"></iframe>
<iframe src="/debug/charts/outcome" width="620" height="470"></iframe>
</body>
</html>`
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprint(w, page)
}
