package planner

import (
	"context"
	"fmt"
	"time"
)

// FlightSearchAgent generates flight candidates from a simulated inventory.
// Prices scale with the flight budget allocation so candidate sets stay
// meaningful across wildly different trip budgets.
type FlightSearchAgent struct {
	delay time.Duration
}

// NewFlightSearchAgent builds the agent. delay simulates provider latency
// and may be zero.
func NewFlightSearchAgent(delay time.Duration) *FlightSearchAgent {
	return &FlightSearchAgent{delay: delay}
}

func (a *FlightSearchAgent) Category() Category { return CategoryFlights }

var flightInventory = []struct {
	airline   string
	departure string
	arrival   string
	duration  float64
	stops     int
	rating    float64
}{
	{"SkyWings Airlines", "08:00", "14:30", 6.5, 0, 4.2},
	{"Pacific Express", "10:15", "17:00", 6.75, 0, 4.0},
	{"Global Airways", "13:30", "20:15", 6.75, 0, 4.4},
	{"Budget Air", "06:45", "15:30", 8.75, 1, 3.6},
	{"Trans Continental", "16:00", "01:15", 9.25, 1, 3.9},
}

func (a *FlightSearchAgent) SearchIndependent(ctx context.Context, sc AgentContext) (SearchResult, error) {
	if a.delay > 0 {
		if err := sleepCtx(ctx, a.delay); err != nil {
			return SearchResult{}, err
		}
	}

	origin := airportCode(sc.Origin)
	dest := airportCode(sc.Destination)
	base := sc.Allocation.Flights * 0.75

	flights := make([]Flight, 0, len(flightInventory))
	for i, tmpl := range flightInventory {
		flights = append(flights, Flight{
			ID:                 fmt.Sprintf("FL-%d", i+1),
			Airline:            tmpl.airline,
			FlightNumber:       fmt.Sprintf("%s%d", airlineCode(tmpl.airline), 100+i*11),
			DepartureAirport:   origin,
			DestinationAirport: dest,
			DepartureTime:      tmpl.departure,
			ArrivalTime:        tmpl.arrival,
			ArrivalDate:        sc.StartDate,
			DurationHours:      tmpl.duration,
			Stops:              tmpl.stops,
			Cabin:              cabinOrDefault(sc.FlightPrefs.Cabin),
			Price:              base + float64(i)*50,
			Rating:             tmpl.rating,
		})
	}
	return SearchResult{Flights: flights}, nil
}

// SearchEnriched is identical to the independent search for flights; no
// earlier category exists to enrich from.
func (a *FlightSearchAgent) SearchEnriched(ctx context.Context, sc AgentContext, _ PriorContext) (SearchResult, error) {
	return a.SearchIndependent(ctx, sc)
}

func cabinOrDefault(cabin string) string {
	if cabin == "" {
		return "economy"
	}
	return cabin
}

// airportCode derives a plausible IATA-style code from a city name.
func airportCode(city string) string {
	letters := make([]rune, 0, 3)
	for _, r := range city {
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		if r >= 'A' && r <= 'Z' {
			letters = append(letters, r)
		}
		if len(letters) == 3 {
			break
		}
	}
	for len(letters) < 3 {
		letters = append(letters, 'X')
	}
	return string(letters)
}

func airlineCode(airline string) string {
	initials := make([]rune, 0, 2)
	prevSpace := true
	for _, r := range airline {
		if prevSpace && r != ' ' {
			initials = append(initials, r)
		}
		prevSpace = r == ' '
		if len(initials) == 2 {
			break
		}
	}
	return string(initials)
}
