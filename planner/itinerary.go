package planner

import (
	"context"
	"fmt"
	"time"
)

// Itinerary is the structured day-by-day trip plan produced after booking.
type Itinerary struct {
	Destination string         `json:"destination" yaml:"destination"`
	StartDate   string         `json:"startDate" yaml:"startDate"`
	EndDate     string         `json:"endDate" yaml:"endDate"`
	Travelers   int            `json:"travelers" yaml:"travelers"`
	TotalCost   float64        `json:"totalCost" yaml:"totalCost"`
	Days        []ItineraryDay `json:"days" yaml:"days"`
	Notes       []string       `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// ItineraryDay is one day's schedule.
type ItineraryDay struct {
	Date    string   `json:"date" yaml:"date"`
	DayNum  int      `json:"dayNum" yaml:"dayNum"`
	Entries []string `json:"entries" yaml:"entries"`
}

// defaultItineraryGenerator lays flights on the first and last days and
// spreads booked activities across the days in between.
type defaultItineraryGenerator struct{}

func (defaultItineraryGenerator) Generate(_ context.Context, s *Session, bookings []BookingOutcome) (Itinerary, error) {
	prefs := s.Preferences
	it := Itinerary{
		Destination: prefs.Destination,
		StartDate:   prefs.StartDate,
		EndDate:     prefs.EndDate,
		Travelers:   prefs.Travelers,
		TotalCost:   CalculateTotalCost(s.Cart),
	}

	start, err := time.Parse("2006-01-02", prefs.StartDate)
	if err != nil {
		return it, fmt.Errorf("parse start date: %w", err)
	}
	end, err := time.Parse("2006-01-02", prefs.EndDate)
	if err != nil {
		return it, fmt.Errorf("parse end date: %w", err)
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days < 1 {
		days = 1
	}

	for i := 0; i < days; i++ {
		it.Days = append(it.Days, ItineraryDay{
			Date:   start.AddDate(0, 0, i).Format("2006-01-02"),
			DayNum: i + 1,
		})
	}

	if len(s.Cart.Flights) > 0 {
		flight := s.Cart.Flights[0]
		it.Days[0].Entries = append(it.Days[0].Entries,
			fmt.Sprintf("%s: %s %s departs %s, arrives %s at %s",
				flight.DepartureTime, flight.Airline, flight.FlightNumber,
				flight.DepartureAirport, flight.DestinationAirport, flight.ArrivalTime))
	}
	if len(s.Cart.Hotels) > 0 {
		hotel := s.Cart.Hotels[0]
		it.Days[0].Entries = append(it.Days[0].Entries,
			fmt.Sprintf("%s: check in at %s, %s", hotel.CheckInTime, hotel.Name, hotel.Location))
		it.Days[len(it.Days)-1].Entries = append(it.Days[len(it.Days)-1].Entries,
			fmt.Sprintf("Check out of %s", hotel.Name))
	}

	// Activities fill the middle days, one per day, round-robin when the
	// trip is shorter than the activity list.
	for i, activity := range s.Cart.Activities {
		dayIdx := 0
		if days > 2 {
			dayIdx = 1 + i%(days-2)
		}
		it.Days[dayIdx].Entries = append(it.Days[dayIdx].Entries,
			fmt.Sprintf("%s (%.1fh, $%.2f)", activity.Name, activity.DurationHours, activity.Price))
	}

	for _, outcome := range bookings {
		if outcome.Method == MethodManualRequired {
			it.Notes = append(it.Notes,
				fmt.Sprintf("%s requires manual booking: %s", outcome.Item.Name, outcome.SuggestedActions[0]))
		}
	}
	return it, nil
}
