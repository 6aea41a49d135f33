package client

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripweaver/planner"
	"tripweaver/server"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	srv := server.New(planner.DefaultConfig())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return NewClient(ts.URL)
}

func TestClientTripLifecycle(t *testing.T) {
	c := testClient(t)
	require.NoError(t, c.Health())

	result, err := c.CreateTrip(planner.Input{
		AutomationLevel: 2,
		Preferences: planner.Preferences{
			Origin:      "Porto",
			Destination: "Lisbon",
			StartDate:   "2026-10-01",
			EndDate:     "2026-10-05",
			Travelers:   2,
			Budget:      3000,
		},
	})
	require.NoError(t, err)
	require.True(t, result.Success)

	trips, err := c.ListTrips()
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, "Lisbon", trips[0].Destination)

	detail, err := c.GetTrip(result.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, planner.StepCartReview, detail.Session.CurrentStep)

	events, err := c.GetEvents(result.ExecutionID)
	require.NoError(t, err)
	assert.NotEmpty(t, events)

	history, err := c.GetSnapshots(result.ExecutionID)
	require.NoError(t, err)
	require.NotEmpty(t, history)

	_, err = c.BacktrackTrip(result.ExecutionID, history[0].SnapshotID)
	assert.NoError(t, err)
}

func TestClientExportImport(t *testing.T) {
	c := testClient(t)
	result, err := c.CreateTrip(planner.Input{
		AutomationLevel: 1,
		Preferences: planner.Preferences{
			Destination: "Lisbon",
			StartDate:   "2026-10-01",
			EndDate:     "2026-10-05",
			Travelers:   2,
			Budget:      3000,
		},
	})
	require.NoError(t, err)

	exported, err := c.ExportTrip(result.ExecutionID)
	require.NoError(t, err)
	assert.Contains(t, exported, "_metadata")

	other := testClient(t)
	id, err := other.ImportTrip(exported)
	require.NoError(t, err)
	assert.Equal(t, result.ExecutionID, id)
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	c := testClient(t)
	_, err := c.GetTrip("ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
