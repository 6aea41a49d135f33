package client

import (
	"time"

	"tripweaver/planner"
)

// TripSummary is one row in the trip listing.
type TripSummary struct {
	ID              string       `json:"id"`
	Destination     string       `json:"destination"`
	CurrentStep     planner.Step `json:"currentStep"`
	AutomationLevel int          `json:"automationLevel"`
	TotalCost       float64      `json:"totalCost"`
	Created         time.Time    `json:"created"`
}

// TripDetail is the full state of one trip.
type TripDetail struct {
	Session planner.Session `json:"session"`
	Result  planner.Result  `json:"result"`
}

// CreateTrip starts a new planning run.
func (c *Client) CreateTrip(input planner.Input) (planner.Result, error) {
	var result planner.Result
	err := c.Request("POST", "/api/v1/trips", input, &result)
	return result, err
}

// ListTrips retrieves all hosted trips.
func (c *Client) ListTrips() ([]TripSummary, error) {
	var body struct {
		Trips []TripSummary `json:"trips"`
	}
	if err := c.Request("GET", "/api/v1/trips", nil, &body); err != nil {
		return nil, err
	}
	return body.Trips, nil
}

// GetTrip retrieves one trip's session and last result.
func (c *Client) GetTrip(id string) (TripDetail, error) {
	var detail TripDetail
	err := c.Request("GET", "/api/v1/trips/"+id, nil, &detail)
	return detail, err
}

// ResumeTrip supplies missing preferences to a suspended trip.
func (c *Client) ResumeTrip(id string, prefs planner.Preferences) (planner.Result, error) {
	var result planner.Result
	err := c.Request("POST", "/api/v1/trips/"+id+"/resume", prefs, &result)
	return result, err
}

// ConfirmTrip confirms the cart and runs booking.
func (c *Client) ConfirmTrip(id string) (planner.Result, error) {
	var result planner.Result
	err := c.Request("POST", "/api/v1/trips/"+id+"/confirm", nil, &result)
	return result, err
}

// ModifyTrip reruns one category's search.
func (c *Client) ModifyTrip(id string, category planner.Category) (planner.Result, error) {
	var result planner.Result
	err := c.Request("POST", "/api/v1/trips/"+id+"/modify",
		map[string]planner.Category{"category": category}, &result)
	return result, err
}

// BacktrackTrip restores an earlier snapshot.
func (c *Client) BacktrackTrip(id, snapshotID string) (planner.Result, error) {
	var result planner.Result
	err := c.Request("POST", "/api/v1/trips/"+id+"/backtrack",
		map[string]string{"snapshotId": snapshotID}, &result)
	return result, err
}

// GetEvents retrieves a trip's progress events.
func (c *Client) GetEvents(id string) ([]planner.Event, error) {
	var body struct {
		Events []planner.Event `json:"events"`
	}
	if err := c.Request("GET", "/api/v1/trips/"+id+"/events", nil, &body); err != nil {
		return nil, err
	}
	return body.Events, nil
}

// GetSnapshots retrieves a trip's backtrack history.
func (c *Client) GetSnapshots(id string) ([]planner.BacktrackPointView, error) {
	var body struct {
		History []planner.BacktrackPointView `json:"history"`
	}
	if err := c.Request("GET", "/api/v1/trips/"+id+"/snapshots", nil, &body); err != nil {
		return nil, err
	}
	return body.History, nil
}

// ExportTrip downloads a trip's serialized state.
func (c *Client) ExportTrip(id string) (map[string]any, error) {
	var exported map[string]any
	err := c.Request("GET", "/api/v1/trips/"+id+"/export", nil, &exported)
	return exported, err
}

// ImportTrip uploads a serialized trip.
func (c *Client) ImportTrip(data map[string]any) (string, error) {
	var body struct {
		ID string `json:"id"`
	}
	err := c.Request("POST", "/api/v1/trips/import", data, &body)
	return body.ID, err
}

// Health checks server liveness.
func (c *Client) Health() error {
	return c.Request("GET", "/health", nil, nil)
}
