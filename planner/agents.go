package planner

import (
	"context"
	"math"
)

// Budget shares per category. The shares are fixed, not configuration.
const (
	flightBudgetShare   = 0.40
	hotelBudgetShare    = 0.35
	activityBudgetShare = 0.25
)

// BudgetAllocation is the per-category split of the total trip budget.
type BudgetAllocation struct {
	Flights    float64 `json:"flights" yaml:"flights"`
	Hotels     float64 `json:"hotels" yaml:"hotels"`
	Activities float64 `json:"activities" yaml:"activities"`
	Total      float64 `json:"total" yaml:"total"`
}

// DistributeBudget splits the total budget 40/35/25 across categories.
func DistributeBudget(total float64) BudgetAllocation {
	return BudgetAllocation{
		Flights:    total * flightBudgetShare,
		Hotels:     total * hotelBudgetShare,
		Activities: total * activityBudgetShare,
		Total:      total,
	}
}

// AgentContext is the read-only shared context every search agent
// receives. Agents must not mutate it.
type AgentContext struct {
	Origin          string
	Destination     string
	StartDate       string
	EndDate         string
	Travelers       int
	Budget          float64
	Allocation      BudgetAllocation
	AutomationLevel int
	Interests       []string
	FlightPrefs     FlightPreferences
	HotelAmenities  []string
	ParallelMode    bool
}

// FlightContext is the arrival information a chosen flight contributes to
// downstream hotel search and filtering.
type FlightContext struct {
	ArrivalAirport  string `json:"arrivalAirport"`
	ArrivalTime     string `json:"arrivalTime"`
	ArrivalDate     string `json:"arrivalDate"`
	DestinationCity string `json:"destinationCity"`
}

// HotelContext is the location information a chosen hotel contributes to
// downstream activity search and filtering.
type HotelContext struct {
	HotelName string   `json:"hotelName"`
	Location  string   `json:"location"`
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	Amenities []string `json:"amenities"`
}

// PriorContext carries enrichment from an earlier category's result into a
// sequential rerun. Both fields are nil on a fully parallel first pass.
type PriorContext struct {
	Flight *FlightContext
	Hotel  *HotelContext
}

// SearchResult is one agent's raw candidates. Only the slice matching the
// agent's category is populated.
type SearchResult struct {
	Flights    []Flight
	Hotels     []Hotel
	Activities []Activity
}

// Count returns the number of candidates in the result.
func (r SearchResult) Count() int {
	return len(r.Flights) + len(r.Hotels) + len(r.Activities)
}

// SearchAgent wraps one category's search collaborator.
//
// SearchIndependent is the only call shape used inside the fully parallel
// coordinator pass, where cross-agent context cannot exist yet.
// SearchEnriched is used by sequential per-category reruns, where a prior
// category's result is available.
type SearchAgent interface {
	Category() Category
	SearchIndependent(ctx context.Context, sc AgentContext) (SearchResult, error)
	SearchEnriched(ctx context.Context, sc AgentContext, prior PriorContext) (SearchResult, error)
}

// ExtractFlightContext reads the most recent flight_arrival communication,
// falling back to the selected flight in the cart.
func ExtractFlightContext(s *Session) *FlightContext {
	for i := len(s.AgentCommunications) - 1; i >= 0; i-- {
		comm := s.AgentCommunications[i]
		if comm.From == string(CategoryFlights) && comm.ContextType == ContextFlightArrival {
			return &FlightContext{
				ArrivalAirport:  stringFrom(comm.Context, "arrivalAirport"),
				ArrivalTime:     stringFrom(comm.Context, "arrivalTime"),
				ArrivalDate:     stringFrom(comm.Context, "arrivalDate"),
				DestinationCity: stringFrom(comm.Context, "destinationCity"),
			}
		}
	}
	if len(s.Cart.Flights) > 0 {
		flight := s.Cart.Flights[0]
		return &FlightContext{
			ArrivalAirport:  flight.DestinationAirport,
			ArrivalTime:     flight.ArrivalTime,
			ArrivalDate:     flight.ArrivalDate,
			DestinationCity: s.Preferences.Destination,
		}
	}
	return nil
}

// ExtractHotelContext reads the most recent hotel_location communication,
// falling back to the selected hotel in the cart.
func ExtractHotelContext(s *Session) *HotelContext {
	for i := len(s.AgentCommunications) - 1; i >= 0; i-- {
		comm := s.AgentCommunications[i]
		if comm.From == string(CategoryHotels) && comm.ContextType == ContextHotelLocation {
			return &HotelContext{
				HotelName: stringFrom(comm.Context, "hotelName"),
				Location:  stringFrom(comm.Context, "location"),
				Lat:       floatFrom(comm.Context, "lat"),
				Lon:       floatFrom(comm.Context, "lon"),
				Amenities: stringsFrom(comm.Context, "amenities"),
			}
		}
	}
	if len(s.Cart.Hotels) > 0 {
		hotel := s.Cart.Hotels[0]
		return &HotelContext{
			HotelName: hotel.Name,
			Location:  hotel.Location,
			Lat:       hotel.Lat,
			Lon:       hotel.Lon,
			Amenities: hotel.Amenities,
		}
	}
	return nil
}

// FlightArrivalCommunication builds the flight agent's message to the
// hotel agent after a flight is selected.
func FlightArrivalCommunication(flight Flight, destination string) AgentCommunication {
	return AgentCommunication{
		From:        string(CategoryFlights),
		To:          string(CategoryHotels),
		Message:     "Flight selected - arriving at " + flight.DestinationAirport + " on " + flight.ArrivalDate,
		ContextType: ContextFlightArrival,
		Context: map[string]any{
			"arrivalAirport":  flight.DestinationAirport,
			"arrivalTime":     flight.ArrivalTime,
			"arrivalDate":     flight.ArrivalDate,
			"destinationCity": destination,
		},
	}
}

// HotelLocationCommunication builds the hotel agent's message to the
// activities agent after a hotel is selected.
func HotelLocationCommunication(hotel Hotel) AgentCommunication {
	return AgentCommunication{
		From:        string(CategoryHotels),
		To:          string(CategoryActivities),
		Message:     "Hotel selected - " + hotel.Name + " in " + hotel.Location,
		ContextType: ContextHotelLocation,
		Context: map[string]any{
			"hotelName": hotel.Name,
			"location":  hotel.Location,
			"lat":       hotel.Lat,
			"lon":       hotel.Lon,
			"amenities": hotel.Amenities,
		},
	}
}

func stringFrom(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func floatFrom(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func stringsFrom(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// distanceKM approximates the distance between two coordinates. Candidate
// coordinates are synthetic offsets around a city center, so a flat
// approximation is sufficient.
func distanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	const kmPerDegree = 111.0
	dLat := (lat2 - lat1) * kmPerDegree
	dLon := (lon2 - lon1) * kmPerDegree
	return math.Sqrt(dLat*dLat + dLon*dLon)
}
