package planner

import (
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Per-stage output caps.
const (
	maxFilteredFlights    = 5
	maxFilteredHotels     = 5
	maxFilteredActivities = 10
)

// Context-proximity cutoffs in kilometers.
const (
	maxAirportDistanceKM = 50
	maxHotelProximityKM  = 20
)

// FilterFlights applies the flight budget allocation and the user's
// explicit flight preferences, returning at most 5 candidates sorted by
// price ascending with rating breaking ties. The input is not mutated.
func FilterFlights(flights []Flight, prefs FlightPreferences, alloc BudgetAllocation) []Flight {
	filtered := make([]Flight, 0, len(flights))
	for _, flight := range flights {
		if flight.Price > alloc.Flights {
			continue
		}
		if len(prefs.PreferredAirlines) > 0 && !slices.Contains(prefs.PreferredAirlines, flight.Airline) {
			continue
		}
		if prefs.NonstopOnly && flight.Stops > 0 {
			continue
		}
		if prefs.Cabin != "" && flight.Cabin != "" && flight.Cabin != prefs.Cabin {
			continue
		}
		filtered = append(filtered, flight)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Price != filtered[j].Price {
			return filtered[i].Price < filtered[j].Price
		}
		return filtered[i].Rating > filtered[j].Rating
	})

	return capSlice(filtered, maxFilteredFlights)
}

// FilterHotels applies the hotel budget allocation and, when flight
// context exists, arrival proximity and a check-in compatibility flag.
// Returns at most 5 candidates sorted by airport distance then rating.
// The input is not mutated; compatibility flags are set on copies.
func FilterHotels(hotels []Hotel, fc *FlightContext, alloc BudgetAllocation) []Hotel {
	filtered := make([]Hotel, 0, len(hotels))
	for _, hotel := range hotels {
		if hotel.TotalCost > alloc.Hotels {
			continue
		}
		if fc != nil {
			if fc.ArrivalAirport != "" && hotel.AirportDistanceKM > maxAirportDistanceKM {
				continue
			}
			if fc.ArrivalTime != "" {
				hotel.ArrivalCompatible = parseHour(hotel.CheckInTime) <= parseHour(fc.ArrivalTime)
			}
		}
		filtered = append(filtered, hotel)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].AirportDistanceKM != filtered[j].AirportDistanceKM {
			return filtered[i].AirportDistanceKM < filtered[j].AirportDistanceKM
		}
		return filtered[i].Rating > filtered[j].Rating
	})

	return capSlice(filtered, maxFilteredHotels)
}

// FilterActivities applies the activity budget allocation, hotel proximity
// when hotel context exists, and interest-tag overlap when the user named
// interests. Returns at most 10 candidates sorted by rating then price.
func FilterActivities(activities []Activity, hc *HotelContext, interests []string, alloc BudgetAllocation) []Activity {
	filtered := make([]Activity, 0, len(activities))
	for _, activity := range activities {
		if activity.Price > alloc.Activities {
			continue
		}
		if hc != nil {
			dist := distanceKM(hc.Lat, hc.Lon, activity.Lat, activity.Lon)
			if dist > maxHotelProximityKM {
				continue
			}
			activity.DistanceToHotelKM = dist
		}
		if len(interests) > 0 && !tagsOverlap(interests, activity.Categories) {
			continue
		}
		filtered = append(filtered, activity)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Rating != filtered[j].Rating {
			return filtered[i].Rating > filtered[j].Rating
		}
		return filtered[i].Price < filtered[j].Price
	})

	return capSlice(filtered, maxFilteredActivities)
}

// ApplyProgressiveFilter runs the three stages in order against a
// session's raw candidates: flights first, then hotels against the flight
// context, then activities against the hotel context.
func ApplyProgressiveFilter(s *Session, raw CandidateSet) CandidateSet {
	alloc := DistributeBudget(s.Preferences.Budget)

	var out CandidateSet
	if raw.Flights != nil {
		out.Flights = FilterFlights(raw.Flights, s.Preferences.FlightPrefs, alloc)
	}
	if raw.Hotels != nil {
		fc := ExtractFlightContext(s)
		if fc == nil && len(out.Flights) > 0 {
			best := out.Flights[0]
			fc = &FlightContext{
				ArrivalAirport:  best.DestinationAirport,
				ArrivalTime:     best.ArrivalTime,
				ArrivalDate:     best.ArrivalDate,
				DestinationCity: s.Preferences.Destination,
			}
		}
		out.Hotels = FilterHotels(raw.Hotels, fc, alloc)
	}
	if raw.Activities != nil {
		hc := ExtractHotelContext(s)
		if hc == nil && len(out.Hotels) > 0 {
			best := out.Hotels[0]
			hc = &HotelContext{
				HotelName: best.Name,
				Location:  best.Location,
				Lat:       best.Lat,
				Lon:       best.Lon,
				Amenities: best.Amenities,
			}
		}
		out.Activities = FilterActivities(raw.Activities, hc, s.Preferences.Interests, alloc)
	}
	return out
}

func tagsOverlap(interests, categories []string) bool {
	for _, interest := range interests {
		for _, category := range categories {
			if strings.EqualFold(interest, category) {
				return true
			}
		}
	}
	return false
}

// parseHour extracts the hour from "15:04" or "3:04 PM" style strings.
// Unparseable input defaults to 15:00, the common hotel check-in hour.
func parseHour(clock string) int {
	clock = strings.TrimSpace(clock)
	if clock == "" {
		return 15
	}
	upper := strings.ToUpper(clock)
	pm := strings.HasSuffix(upper, "PM")
	am := strings.HasSuffix(upper, "AM")
	upper = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(upper, "PM"), "AM"))

	head, _, found := strings.Cut(upper, ":")
	if !found {
		head = upper
	}
	hour, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 15
	}
	if pm && hour < 12 {
		hour += 12
	}
	if am && hour == 12 {
		hour = 0
	}
	return hour
}

func capSlice[T any](items []T, max int) []T {
	if len(items) > max {
		return items[:max]
	}
	return items
}
