package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/incident.report/internal/dashboard"
	"github.com/banshee-data/incident.report/internal/gtd"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	ds, err := gtd.FromRecords([]gtd.Incident{
		{EventID: 1, Year: 1995, Month: 1, Day: 1, Country: "Iraq", Region: "Middle East & North Africa", City: "Baghdad", AttackType: "Bombing/Explosion", TargetType: "Police", WeaponType: "Explosives", Group: "Group A", Kills: 2, Wounds: 1, Success: true},
		{EventID: 2, Year: 1995, Month: 2, Day: 2, Country: "Iraq", Region: "Middle East & North Africa", City: "Mosul", AttackType: "Armed Assault", TargetType: "Military", WeaponType: "Firearms", Group: gtd.UnknownGroup},
		{EventID: 3, Year: 2000, Month: 3, Day: 3, Country: "India", Region: "South Asia", City: "Amritsar", AttackType: "Bombing/Explosion", TargetType: "Police", WeaponType: "Explosives", Group: "Group B", Kills: 5, Wounds: 5, Success: true, Suicide: true},
	})
	require.NoError(t, err)
	return NewServer(dashboard.New(ds))
}

func TestListSources(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sources", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Sources []string `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Sources)
	require.Equal(t, "map", body.Sources[0])
	require.Contains(t, body.Sources, "sankey_edges")
}

func TestShowSource(t *testing.T) {
	srv := testServer(t)

	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sources/country", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Source map[string][]interface{} `json:"source"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body.Source, "country")
	require.Contains(t, body.Source, "casualties")

	rec = httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sources/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFilterPatchRoundTrip(t *testing.T) {
	srv := testServer(t)

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"regions":["South Asia"],"fatality_hi":100,"casualty_hi":100}`)
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/filters", body))
	require.Equal(t, http.StatusOK, rec.Code)

	var view struct {
		Regions []string `json:"regions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, []string{"South Asia"}, view.Regions)

	// The published outputs must reflect the new subset.
	rec = httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sources/country", nil))
	var out struct {
		Source map[string][]interface{} `json:"source"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, []interface{}{"India"}, out.Source["country"])
}

func TestFilterPatchRejectsUnknownField(t *testing.T) {
	srv := testServer(t)

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"bogus_field":true}`)
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/filters", body))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFilterPatchRejectsInvertedRange(t *testing.T) {
	srv := testServer(t)
	before := srv.state.Filters()

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"year_lo":2005}`)
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/filters", body))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	require.Equal(t, before.YearLo, srv.state.Filters().YearLo)
}

func TestReset(t *testing.T) {
	srv := testServer(t)

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"regions":["South Asia"]}`)
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/filters", body))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reset", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var view struct {
		Regions []string `json:"regions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Regions, 2)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := testServer(t)
	mux := srv.ServeMux()

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodDelete, "/api/sources"},
		{http.MethodPost, "/api/sources/country"},
		{http.MethodGet, "/api/reset"},
		{http.MethodPut, "/api/filters"},
	} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: got %d, want 405", tc.method, tc.path, rec.Code)
		}
	}
}

func TestDebugChartsRender(t *testing.T) {
	srv := testServer(t)
	mux := srv.ServeMux()

	for _, path := range []string{
		"/debug/charts",
		"/debug/charts/map",
		"/debug/charts/timeline",
		"/debug/charts/season",
		"/debug/charts/outcome",
	} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: got %d, want 200", path, rec.Code)
			continue
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("%s: content type %q", path, ct)
		}
	}
}
