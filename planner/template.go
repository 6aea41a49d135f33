package planner

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// BudgetRange buckets a total budget for template matching.
type BudgetRange string

const (
	RangeBudget   BudgetRange = "budget"
	RangeMidRange BudgetRange = "mid_range"
	RangePremium  BudgetRange = "premium"
	RangeLuxury   BudgetRange = "luxury"
)

// CategorizeBudget buckets a budget: under $1000, under $3000, under
// $7000, and everything above.
func CategorizeBudget(budget float64) BudgetRange {
	switch {
	case budget < 1000:
		return RangeBudget
	case budget < 3000:
		return RangeMidRange
	case budget < 7000:
		return RangePremium
	default:
		return RangeLuxury
	}
}

// FlightProfile captures what the traveler ended up choosing.
type FlightProfile struct {
	PreferredAirline string `json:"preferredAirline,omitempty" yaml:"preferredAirline,omitempty"`
	Cabin            string `json:"cabin,omitempty" yaml:"cabin,omitempty"`
	Nonstop          bool   `json:"nonstop,omitempty" yaml:"nonstop,omitempty"`
}

type HotelProfile struct {
	PreferredRating    float64  `json:"preferredRating,omitempty" yaml:"preferredRating,omitempty"`
	PreferredAmenities []string `json:"preferredAmenities,omitempty" yaml:"preferredAmenities,omitempty"`
}

type ActivityProfile struct {
	PreferredCategories []string `json:"preferredCategories,omitempty" yaml:"preferredCategories,omitempty"`
	ActivityCount       int      `json:"activityCount,omitempty" yaml:"activityCount,omitempty"`
	BudgetPerActivity   float64  `json:"budgetPerActivity,omitempty" yaml:"budgetPerActivity,omitempty"`
}

// TripTemplate is a reusable plan distilled from a finished (or nearly
// finished) session: the shape of the trip without its dates.
type TripTemplate struct {
	ID              string          `json:"id" yaml:"id"`
	Name            string          `json:"name" yaml:"name"`
	Description     string          `json:"description" yaml:"description"`
	CreatedAt       time.Time       `json:"createdAt" yaml:"createdAt"`
	Destination     string          `json:"destination" yaml:"destination"`
	Travelers       int             `json:"travelers" yaml:"travelers"`
	TravelStyle     string          `json:"travelStyle,omitempty" yaml:"travelStyle,omitempty"`
	BudgetRange     BudgetRange     `json:"budgetRange" yaml:"budgetRange"`
	Interests       []string        `json:"interests,omitempty" yaml:"interests,omitempty"`
	Flight          FlightProfile   `json:"flight" yaml:"flight"`
	Hotel           HotelProfile    `json:"hotel" yaml:"hotel"`
	Activities      ActivityProfile `json:"activities" yaml:"activities"`
	AutomationLevel int             `json:"automationLevel" yaml:"automationLevel"`
	TotalCost       float64         `json:"totalCost" yaml:"totalCost"`
	BudgetStatus    BudgetStatus    `json:"budgetStatus" yaml:"budgetStatus"`
}

// TemplateStore keeps saved templates in memory, keyed by id.
type TemplateStore struct {
	mu        sync.RWMutex
	templates map[string]TripTemplate
}

func NewTemplateStore() *TemplateStore {
	return &TemplateStore{templates: make(map[string]TripTemplate)}
}

// Save distills the session into a named template and stores it.
func (ts *TemplateStore) Save(s *Session, name string) TripTemplate {
	tmpl := TripTemplate{
		ID:              uuid.New().String(),
		Name:            name,
		Description:     fmt.Sprintf("Trip template for %s", s.Preferences.Destination),
		CreatedAt:       time.Now(),
		Destination:     s.Preferences.Destination,
		Travelers:       s.Preferences.Travelers,
		TravelStyle:     s.Preferences.TravelStyle,
		BudgetRange:     CategorizeBudget(s.Preferences.Budget),
		Interests:       append([]string(nil), s.Preferences.Interests...),
		Flight:          extractFlightProfile(s.Cart),
		Hotel:           extractHotelProfile(s.Cart),
		Activities:      extractActivityProfile(s.Cart),
		AutomationLevel: s.AutomationLevel,
		TotalCost:       s.Cart.TotalCost,
		BudgetStatus:    BudgetCompliance(s.Cart.TotalCost, s.Preferences.Budget).Status,
	}

	ts.mu.Lock()
	ts.templates[tmpl.ID] = tmpl
	ts.mu.Unlock()

	sessionLogger(s).Info("trip template saved", "template_id", tmpl.ID, "name", name)
	return tmpl
}

// Get looks up a template by id.
func (ts *TemplateStore) Get(id string) (TripTemplate, bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	tmpl, ok := ts.templates[id]
	return tmpl, ok
}

// List returns all stored templates in unspecified order.
func (ts *TemplateStore) List() []TripTemplate {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	out := make([]TripTemplate, 0, len(ts.templates))
	for _, tmpl := range ts.templates {
		out = append(out, tmpl)
	}
	return out
}

// Apply merges a template into preferences, filling only fields the
// traveler has not already set. Dates are never taken from a template.
func (tmpl TripTemplate) Apply(prefs Preferences) Preferences {
	if prefs.Destination == "" {
		prefs.Destination = tmpl.Destination
	}
	if prefs.Travelers == 0 {
		prefs.Travelers = tmpl.Travelers
	}
	if prefs.TravelStyle == "" {
		prefs.TravelStyle = tmpl.TravelStyle
	}
	if len(prefs.Interests) == 0 {
		prefs.Interests = append([]string(nil), tmpl.Interests...)
	}
	if len(prefs.FlightPrefs.PreferredAirlines) == 0 && tmpl.Flight.PreferredAirline != "" {
		prefs.FlightPrefs.PreferredAirlines = []string{tmpl.Flight.PreferredAirline}
	}
	if prefs.FlightPrefs.Cabin == "" {
		prefs.FlightPrefs.Cabin = tmpl.Flight.Cabin
	}
	if !prefs.FlightPrefs.NonstopOnly {
		prefs.FlightPrefs.NonstopOnly = tmpl.Flight.Nonstop
	}
	if len(prefs.HotelAmenities) == 0 {
		prefs.HotelAmenities = append([]string(nil), tmpl.Hotel.PreferredAmenities...)
	}
	return prefs
}

func extractFlightProfile(cart Cart) FlightProfile {
	if len(cart.Flights) == 0 {
		return FlightProfile{}
	}
	flight := cart.Flights[0]
	return FlightProfile{
		PreferredAirline: flight.Airline,
		Cabin:            flight.Cabin,
		Nonstop:          flight.Stops == 0,
	}
}

func extractHotelProfile(cart Cart) HotelProfile {
	if len(cart.Hotels) == 0 {
		return HotelProfile{}
	}
	hotel := cart.Hotels[0]
	return HotelProfile{
		PreferredRating:    hotel.Rating,
		PreferredAmenities: append([]string(nil), hotel.Amenities...),
	}
}

func extractActivityProfile(cart Cart) ActivityProfile {
	if len(cart.Activities) == 0 {
		return ActivityProfile{}
	}
	var categories []string
	var total float64
	for _, activity := range cart.Activities {
		categories = append(categories, activity.Categories...)
		total += activity.Price
	}
	return ActivityProfile{
		PreferredCategories: categories,
		ActivityCount:       len(cart.Activities),
		BudgetPerActivity:   total / float64(len(cart.Activities)),
	}
}
