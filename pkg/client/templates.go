package client

import "tripweaver/planner"

// SaveTemplate distills a trip into a named reusable template.
func (c *Client) SaveTemplate(tripID, name string) (planner.TripTemplate, error) {
	var tmpl planner.TripTemplate
	err := c.Request("POST", "/api/v1/trips/"+tripID+"/template", map[string]string{"name": name}, &tmpl)
	return tmpl, err
}

// ListTemplates retrieves all saved templates.
func (c *Client) ListTemplates() ([]planner.TripTemplate, error) {
	var body struct {
		Templates []planner.TripTemplate `json:"templates"`
	}
	if err := c.Request("GET", "/api/v1/templates", nil, &body); err != nil {
		return nil, err
	}
	return body.Templates, nil
}

// CreateTripFromTemplate starts a new trip seeded from a template. Fields
// set in the input override the template's.
func (c *Client) CreateTripFromTemplate(templateID string, input planner.Input) (planner.Result, error) {
	var result planner.Result
	err := c.Request("POST", "/api/v1/templates/"+templateID+"/trips", input, &result)
	return result, err
}
