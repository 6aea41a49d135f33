package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripweaver/planner"
)

func testServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	cfg := planner.DefaultConfig()
	srv := New(cfg)
	t.Cleanup(func() { srv.bus.Close() })
	return srv, srv.Router()
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func fullInput(level int) planner.Input {
	return planner.Input{
		AutomationLevel: level,
		Preferences: planner.Preferences{
			Origin:      "Porto",
			Destination: "Lisbon",
			StartDate:   "2026-10-01",
			EndDate:     "2026-10-05",
			Travelers:   2,
			Budget:      3000,
		},
	}
}

func createTrip(t *testing.T, handler http.Handler, input planner.Input) planner.Result {
	rec := doJSON(t, handler, "POST", "/api/v1/trips", input)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var result planner.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}

func TestCreateAndGetTrip(t *testing.T) {
	_, handler := testServer(t)

	result := createTrip(t, handler, fullInput(2))
	require.True(t, result.Success)
	require.NotEmpty(t, result.ExecutionID)

	rec := doJSON(t, handler, "GET", "/api/v1/trips/"+result.ExecutionID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Session planner.Session `json:"session"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, result.ExecutionID, body.Session.ID)
	assert.Equal(t, planner.StepCartReview, body.Session.CurrentStep)
	assert.NotEmpty(t, body.Session.Cart.Flights, "level 2 preselects")
}

func TestGetUnknownTrip(t *testing.T) {
	_, handler := testServer(t)
	rec := doJSON(t, handler, "GET", "/api/v1/trips/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTrips(t *testing.T) {
	_, handler := testServer(t)
	createTrip(t, handler, fullInput(1))
	createTrip(t, handler, fullInput(2))

	rec := doJSON(t, handler, "GET", "/api/v1/trips", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Trips []tripSummary `json:"trips"`
		Count int           `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "Lisbon", body.Trips[0].Destination)
}

func TestResumeFlow(t *testing.T) {
	_, handler := testServer(t)

	input := planner.Input{
		AutomationLevel: 1,
		Preferences:     planner.Preferences{Destination: "Lisbon"},
	}
	result := createTrip(t, handler, input)
	require.True(t, result.Success)

	// Resuming with the remaining fields completes the search.
	rec := doJSON(t, handler, "POST", "/api/v1/trips/"+result.ExecutionID+"/resume", planner.Preferences{
		StartDate: "2026-10-01",
		EndDate:   "2026-10-05",
		Travelers: 2,
		Budget:    3000,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// A second resume conflicts: the trip is no longer awaiting info.
	rec = doJSON(t, handler, "POST", "/api/v1/trips/"+result.ExecutionID+"/resume", planner.Preferences{})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestConfirmBooksTrip(t *testing.T) {
	srv, handler := testServer(t)
	srv.engine.Booking().SetSleep(func(context.Context, time.Duration) error { return nil })

	result := createTrip(t, handler, fullInput(2))
	rec := doJSON(t, handler, "POST", "/api/v1/trips/"+result.ExecutionID+"/confirm", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var confirmed planner.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &confirmed))
	assert.True(t, confirmed.Success)
}

func TestModifyCategory(t *testing.T) {
	_, handler := testServer(t)
	result := createTrip(t, handler, fullInput(2))

	rec := doJSON(t, handler, "POST", "/api/v1/trips/"+result.ExecutionID+"/modify",
		map[string]string{"category": "hotels"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, handler, "POST", "/api/v1/trips/"+result.ExecutionID+"/modify",
		map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSnapshotsAndBacktrack(t *testing.T) {
	_, handler := testServer(t)
	result := createTrip(t, handler, fullInput(2))

	rec := doJSON(t, handler, "GET", "/api/v1/trips/"+result.ExecutionID+"/snapshots", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snaps struct {
		History []planner.BacktrackPoint `json:"history"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snaps))
	require.NotEmpty(t, snaps.History)

	rec = doJSON(t, handler, "POST", "/api/v1/trips/"+result.ExecutionID+"/backtrack",
		map[string]string{"snapshotId": snaps.History[0].SnapshotID})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, "POST", "/api/v1/trips/"+result.ExecutionID+"/backtrack",
		map[string]string{"snapshotId": "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportImportRoundTrip(t *testing.T) {
	_, handler := testServer(t)
	result := createTrip(t, handler, fullInput(2))

	rec := doJSON(t, handler, "GET", "/api/v1/trips/"+result.ExecutionID+"/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var exported map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &exported))
	assert.Contains(t, exported, "_metadata")

	// Import into a fresh server.
	_, handler2 := testServer(t)
	rec = doJSON(t, handler2, "POST", "/api/v1/trips/import", exported)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, handler2, "GET", "/api/v1/trips/"+result.ExecutionID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEventsEndpoint(t *testing.T) {
	_, handler := testServer(t)
	result := createTrip(t, handler, fullInput(2))

	rec := doJSON(t, handler, "GET", "/api/v1/trips/"+result.ExecutionID+"/events", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Events []planner.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Events)
	assert.Equal(t, "session_started", body.Events[0].Type)
}

func TestHealth(t *testing.T) {
	_, handler := testServer(t)
	rec := doJSON(t, handler, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestTemplateLifecycle(t *testing.T) {
	_, handler := testServer(t)
	result := createTrip(t, handler, fullInput(2))

	rec := doJSON(t, handler, "POST", "/api/v1/trips/"+result.ExecutionID+"/template",
		map[string]string{"name": "lisbon-standard"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var tmpl planner.TripTemplate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tmpl))
	assert.Equal(t, "lisbon-standard", tmpl.Name)
	assert.Equal(t, "Lisbon", tmpl.Destination)
	require.NotEmpty(t, tmpl.ID)

	rec = doJSON(t, handler, "GET", "/api/v1/templates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Templates []planner.TripTemplate `json:"templates"`
		Count     int                    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Equal(t, 1, listed.Count)

	// A new trip from the template inherits destination and profile but
	// takes its dates and budget from the request.
	rec = doJSON(t, handler, "POST", "/api/v1/templates/"+tmpl.ID+"/trips", planner.Input{
		Preferences: planner.Preferences{
			StartDate: "2027-03-10",
			EndDate:   "2027-03-14",
			Budget:    2500,
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var fromTmpl planner.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fromTmpl))
	require.True(t, fromTmpl.Success)

	rec = doJSON(t, handler, "GET", "/api/v1/trips/"+fromTmpl.ExecutionID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Session planner.Session `json:"session"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Lisbon", body.Session.Preferences.Destination)
	assert.Equal(t, "2027-03-10", body.Session.Preferences.StartDate)
	assert.Equal(t, 2500.0, body.Session.Preferences.Budget)
	assert.Equal(t, 2, body.Session.AutomationLevel, "level inherited from template")
}

func TestCreateFromUnknownTemplate(t *testing.T) {
	_, handler := testServer(t)
	rec := doJSON(t, handler, "POST", "/api/v1/templates/ghost/trips", fullInput(1))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
