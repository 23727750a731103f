package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/incident.report/internal/dashboard"
	"github.com/banshee-data/incident.report/internal/filter"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Server exposes the dashboard state over HTTP: the published tabular
// sources, the filter state, and the mutation endpoints.
type Server struct {
	state *dashboard.State
}

func NewServer(state *dashboard.State) *Server {
	return &Server{state: state}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	default:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	}
}

// LoggingMiddleware logs method, path, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sources", s.listSources)
	mux.HandleFunc("/api/sources/", s.showSource)
	mux.HandleFunc("/api/filters", s.filters)
	mux.HandleFunc("/api/reset", s.reset)
	mux.HandleFunc("/api/summary", s.showSummary)
	mux.HandleFunc("/api/status", s.showStatus)
	mux.HandleFunc("/debug/charts", s.debugDashboard)
	mux.HandleFunc("/debug/charts/map", s.chartMap)
	mux.HandleFunc("/debug/charts/timeline", s.chartTimeline)
	mux.HandleFunc("/debug/charts/season", s.chartSeason)
	mux.HandleFunc("/debug/charts/outcome", s.chartOutcome)
	return mux
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode json response: %v", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) listSources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"sources": s.state.Names(),
	})
}

func (s *Server) showSource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/api/sources/")
	res, ok := s.state.Output(name)
	if !ok {
		s.writeJSONError(w, http.StatusNotFound, "unknown source "+strconv.Quote(name))
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// filterView is the wire shape of the filter state, matching the field
// names accepted by the PATCH body.
type filterView struct {
	YearLo int `json:"year_lo"`
	YearHi int `json:"year_hi"`

	Regions     []string `json:"regions"`
	AttackTypes []string `json:"attack_types"`
	TargetTypes []string `json:"target_types"`

	FatalityLo float64 `json:"fatality_lo"`
	FatalityHi float64 `json:"fatality_hi"`
	CasualtyLo float64 `json:"casualty_lo"`
	CasualtyHi float64 `json:"casualty_hi"`

	Outcome string `json:"outcome"`
	Suicide string `json:"suicide"`

	TimelineMetric  string `json:"timeline_metric"`
	HighlightRegion string `json:"highlight_region"`
	HotspotRegion   string `json:"hotspot_region"`
}

func viewOf(st filter.State) filterView {
	return filterView{
		YearLo: st.YearLo, YearHi: st.YearHi,
		Regions: st.Regions, AttackTypes: st.AttackTypes, TargetTypes: st.TargetTypes,
		FatalityLo: st.FatalityLo, FatalityHi: st.FatalityHi,
		CasualtyLo: st.CasualtyLo, CasualtyHi: st.CasualtyHi,
		Outcome: st.Outcome, Suicide: st.Suicide,
		TimelineMetric:  st.TimelineMetric,
		HighlightRegion: st.HighlightRegion,
		HotspotRegion:   st.HotspotRegion,
	}
}

func (s *Server) filters(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, viewOf(s.state.Filters()))
	case http.MethodPost:
		var u filter.Update
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&u); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "invalid filter patch: "+err.Error())
			return
		}
		if err := s.state.Apply(dashboard.FilterChanged{Update: u}); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, viewOf(s.state.Filters()))
	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.state.Apply(dashboard.ResetRequested{}); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, viewOf(s.state.Filters()))
}

func (s *Server) showSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	res, ok := s.state.Output("summary")
	if !ok {
		s.writeJSONError(w, http.StatusNotFound, "summary not published")
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) showStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	count, last, lastID := s.state.Stats()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"incidents":       len(s.state.Dataset().Incidents),
		"refresh_count":   count,
		"last_refresh":    last,
		"last_refresh_id": lastID,
	})
}
