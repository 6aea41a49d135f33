package planner

import (
	"fmt"
)

// BudgetStatus classifies total cost against the trip budget. The
// thresholds are exact and not configurable.
type BudgetStatus string

const (
	BudgetWithin            BudgetStatus = "within_budget"
	BudgetSlightlyOver      BudgetStatus = "slightly_over"
	BudgetModeratelyOver    BudgetStatus = "moderately_over"
	BudgetSignificantlyOver BudgetStatus = "significantly_over"
)

// BudgetAnalysis is the result of a compliance check.
type BudgetAnalysis struct {
	Status     BudgetStatus `json:"status" yaml:"status"`
	Message    string       `json:"message" yaml:"message"`
	TotalCost  float64      `json:"totalCost" yaml:"totalCost"`
	Budget     float64      `json:"budget" yaml:"budget"`
	Difference float64      `json:"difference" yaml:"difference"`
}

// BudgetCompliance classifies a total cost: within budget, then 5% and
// 15% tolerance bands, then significantly over.
func BudgetCompliance(totalCost, budget float64) BudgetAnalysis {
	analysis := BudgetAnalysis{
		TotalCost:  totalCost,
		Budget:     budget,
		Difference: totalCost - budget,
	}
	switch {
	case totalCost <= budget:
		analysis.Status = BudgetWithin
		analysis.Message = fmt.Sprintf("Within budget - $%.2f remaining", budget-totalCost)
	case totalCost <= budget*1.05:
		analysis.Status = BudgetSlightlyOver
		analysis.Message = fmt.Sprintf("Slightly over budget by $%.2f", totalCost-budget)
	case totalCost <= budget*1.15:
		analysis.Status = BudgetModeratelyOver
		analysis.Message = fmt.Sprintf("Moderately over budget by $%.2f", totalCost-budget)
	default:
		analysis.Status = BudgetSignificantlyOver
		analysis.Message = fmt.Sprintf("Significantly over budget by $%.2f", totalCost-budget)
	}
	return analysis
}

// CartValidation is the outcome of a completeness/consistency check.
type CartValidation struct {
	Valid     bool     `json:"valid" yaml:"valid"`
	Issues    []string `json:"issues" yaml:"issues"`
	ItemCount int      `json:"itemCount" yaml:"itemCount"`
}

// ValidateCart flags empty requested categories, items missing required
// fields, and hotel check-in dates that disagree with the flight arrival.
func ValidateCart(cart Cart, components ComponentsNeeded) CartValidation {
	var issues []string

	if components.Flights && len(cart.Flights) == 0 {
		issues = append(issues, "No flights selected")
	}
	if components.Hotels && len(cart.Hotels) == 0 {
		issues = append(issues, "No accommodation selected")
	}
	if components.Activities && len(cart.Activities) == 0 {
		issues = append(issues, "No activities selected")
	}

	for i, flight := range cart.Flights {
		if flight.Airline == "" || flight.Price <= 0 {
			issues = append(issues, fmt.Sprintf("Flight %d missing required information", i+1))
		}
	}
	for i, hotel := range cart.Hotels {
		if hotel.Name == "" || hotel.TotalCost <= 0 {
			issues = append(issues, fmt.Sprintf("Hotel %d missing required information", i+1))
		}
	}
	for i, activity := range cart.Activities {
		if activity.Name == "" || activity.Price <= 0 {
			issues = append(issues, fmt.Sprintf("Activity %d missing required information", i+1))
		}
	}

	if len(cart.Flights) > 0 && len(cart.Hotels) > 0 {
		arrival := cart.Flights[0].ArrivalDate
		checkIn := cart.Hotels[0].CheckInDate
		if arrival != "" && checkIn != "" && arrival != checkIn {
			issues = append(issues, "Hotel check-in date doesn't match flight arrival")
		}
	}

	return CartValidation{
		Valid:     len(issues) == 0,
		Issues:    issues,
		ItemCount: len(cart.Flights) + len(cart.Hotels) + len(cart.Activities),
	}
}

// CalculateTotalCost sums flight prices, hotel totals and activity prices.
func CalculateTotalCost(cart Cart) float64 {
	total := 0.0
	for _, flight := range cart.Flights {
		total += flight.Price
	}
	for _, hotel := range cart.Hotels {
		total += hotel.TotalCost
	}
	for _, activity := range cart.Activities {
		total += activity.Price
	}
	return total
}

// RebuildDependencies recomputes the causal edges between cart items from
// scratch. Called after every cart mutation; never patched incrementally,
// so stale edges cannot survive an item swap.
func RebuildDependencies(cart Cart) map[string]CartDependency {
	deps := map[string]CartDependency{}

	if len(cart.Flights) > 0 && len(cart.Hotels) > 0 {
		flightID := cart.Flights[0].FlightNumber
		for _, hotel := range cart.Hotels {
			deps["hotel_"+hotel.Name] = CartDependency{
				DependsOn:    "flight_" + flightID,
				Relationship: RelationArrivalLocation,
				Description:  "Hotel location depends on flight arrival",
			}
		}
	}

	if len(cart.Hotels) > 0 && len(cart.Activities) > 0 {
		hotelID := cart.Hotels[0].Name
		for _, activity := range cart.Activities {
			deps["activity_"+activity.Name] = CartDependency{
				DependsOn:    "hotel_" + hotelID,
				Relationship: RelationProximity,
				Description:  "Activity location influenced by hotel location",
			}
		}
	}

	return deps
}

// finalizeCartChange runs the invariants every mutation must uphold:
// version bump, cost recompute, dependency rebuild.
func (s *Session) finalizeCartChange() {
	s.Cart.Version++
	s.CartVersion = s.Cart.Version
	s.Cart.TotalCost = CalculateTotalCost(s.Cart)
	s.CartDependencies = RebuildDependencies(s.Cart)
}

// SelectFlight replaces the cart's flight selection.
func (s *Session) SelectFlight(flight Flight) {
	s.Cart.Flights = []Flight{flight}
	s.finalizeCartChange()
}

// SelectHotel replaces the cart's hotel selection.
func (s *Session) SelectHotel(hotel Hotel) {
	s.Cart.Hotels = []Hotel{hotel}
	s.finalizeCartChange()
}

// AddActivity appends an activity selection.
func (s *Session) AddActivity(activity Activity) {
	s.Cart.Activities = append(s.Cart.Activities, activity)
	s.finalizeCartChange()
}

// SetActivities replaces the cart's activity selections.
func (s *Session) SetActivities(activities []Activity) {
	s.Cart.Activities = activities
	s.finalizeCartChange()
}

// ModifyFlight swaps the flight with the given flight number.
func (s *Session) ModifyFlight(flightNumber string, replacement Flight) bool {
	for i, flight := range s.Cart.Flights {
		if flight.FlightNumber == flightNumber {
			s.Cart.Flights[i] = replacement
			s.finalizeCartChange()
			return true
		}
	}
	return false
}

// ModifyHotel swaps the hotel with the given name.
func (s *Session) ModifyHotel(name string, replacement Hotel) bool {
	for i, hotel := range s.Cart.Hotels {
		if hotel.Name == name {
			s.Cart.Hotels[i] = replacement
			s.finalizeCartChange()
			return true
		}
	}
	return false
}

// RemoveActivity removes the activity with the given name.
func (s *Session) RemoveActivity(name string) bool {
	for i, activity := range s.Cart.Activities {
		if activity.Name == name {
			s.Cart.Activities = append(s.Cart.Activities[:i], s.Cart.Activities[i+1:]...)
			s.finalizeCartChange()
			return true
		}
	}
	return false
}

// CartSummary is the presentation form of a cart for UI events.
type CartSummary struct {
	Flights        []map[string]any `json:"flights" yaml:"flights"`
	Hotels         []map[string]any `json:"hotels" yaml:"hotels"`
	Activities     []map[string]any `json:"activities" yaml:"activities"`
	TotalCost      float64          `json:"totalCost" yaml:"totalCost"`
	BudgetAnalysis BudgetAnalysis   `json:"budgetAnalysis" yaml:"budgetAnalysis"`
	Version        int              `json:"version" yaml:"version"`
}

// SummarizeCart builds the UI summary for cart events.
func SummarizeCart(cart Cart, analysis BudgetAnalysis) CartSummary {
	summary := CartSummary{
		TotalCost:      cart.TotalCost,
		BudgetAnalysis: analysis,
		Version:        cart.Version,
	}
	for _, flight := range cart.Flights {
		summary.Flights = append(summary.Flights, map[string]any{
			"airline":       flight.Airline,
			"route":         flight.DepartureAirport + " -> " + flight.DestinationAirport,
			"price":         flight.Price,
			"departureTime": flight.DepartureTime,
		})
	}
	for _, hotel := range cart.Hotels {
		summary.Hotels = append(summary.Hotels, map[string]any{
			"name":      hotel.Name,
			"location":  hotel.Location,
			"totalCost": hotel.TotalCost,
			"rating":    hotel.Rating,
		})
	}
	for _, activity := range cart.Activities {
		summary.Activities = append(summary.Activities, map[string]any{
			"name":     activity.Name,
			"price":    activity.Price,
			"rating":   activity.Rating,
			"duration": activity.DurationHours,
		})
	}
	return summary
}
