package planner

import (
	"slices"
	"sort"
)

// Scoring normalization ceilings, taken from observed market ranges.
const (
	flightPriceCeiling   = 2000.0
	flightDurationCeil   = 20.0
	flightStopsCeil      = 3.0
	hotelPriceCeiling    = 500.0
	activityPriceCeiling = 300.0
	airportDistanceCeil  = 100.0
)

// PrioritizeFlights computes a weighted priority score in [0,1] for each
// flight and returns them sorted by score descending, price ascending on
// ties. The input slice is not mutated.
func PrioritizeFlights(flights []Flight, prefs Preferences) []Flight {
	scored := make([]Flight, len(flights))
	copy(scored, flights)

	for i := range scored {
		flight := &scored[i]
		score := clamp01(1.0-flight.Price/flightPriceCeiling) * 0.3
		score += clamp01(1.0-flight.DurationHours/flightDurationCeil) * 0.2
		score += clamp01(1.0-float64(flight.Stops)/flightStopsCeil) * 0.2
		score += clamp01(flight.Rating/5.0) * 0.2
		if slices.Contains(prefs.FlightPrefs.PreferredAirlines, flight.Airline) {
			score += 0.1
		}
		flight.PriorityScore = clamp01(score)
	}

	sortByScore(scored, func(f Flight) (float64, float64) { return f.PriorityScore, f.Price })
	return scored
}

// PrioritizeHotels scores hotels on price, rating, location, amenity match
// and airport distance. Sorted by score descending, price ascending.
func PrioritizeHotels(hotels []Hotel, prefs Preferences) []Hotel {
	scored := make([]Hotel, len(hotels))
	copy(scored, hotels)

	for i := range scored {
		hotel := &scored[i]
		score := clamp01(1.0-hotel.TotalCost/hotelPriceCeiling) * 0.25
		score += clamp01(hotel.Rating/5.0) * 0.3
		score += clamp01(hotel.LocationScore) * 0.2
		score += amenityMatch(prefs.HotelAmenities, hotel.Amenities) * 0.15
		score += clamp01(1.0-hotel.AirportDistanceKM/airportDistanceCeil) * 0.1
		hotel.PriorityScore = clamp01(score)
	}

	sortByScore(scored, func(h Hotel) (float64, float64) { return h.PriorityScore, h.TotalCost })
	return scored
}

// PrioritizeActivities scores activities on interest match, rating, price
// and popularity. Sorted by score descending, price ascending.
func PrioritizeActivities(activities []Activity, prefs Preferences) []Activity {
	scored := make([]Activity, len(activities))
	copy(scored, activities)

	for i := range scored {
		activity := &scored[i]
		score := interestMatch(prefs.Interests, activity.Categories) * 0.4
		score += clamp01(activity.Rating/5.0) * 0.3
		score += clamp01(1.0-activity.Price/activityPriceCeiling) * 0.2
		score += clamp01(activity.PopularityScore) * 0.1
		activity.PriorityScore = clamp01(score)
	}

	sortByScore(scored, func(a Activity) (float64, float64) { return a.PriorityScore, a.Price })
	return scored
}

// amenityMatch is the fraction of desired amenities the hotel offers.
func amenityMatch(desired, offered []string) float64 {
	if len(desired) == 0 {
		return 0
	}
	matched := 0
	for _, want := range desired {
		if slices.Contains(offered, want) {
			matched++
		}
	}
	return float64(matched) / float64(len(desired))
}

// interestMatch is the fraction of user interests the activity covers.
func interestMatch(interests, categories []string) float64 {
	if len(interests) == 0 {
		return 0
	}
	matched := 0
	for _, interest := range interests {
		for _, category := range categories {
			if interest == category {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(interests))
}

func sortByScore[T any](items []T, key func(T) (score, price float64)) {
	sort.SliceStable(items, func(i, j int) bool {
		si, pi := key(items[i])
		sj, pj := key(items[j])
		if si != sj {
			return si > sj
		}
		return pi < pj
	})
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
