package planner

import "sort"

// Combination generator bounds.
const (
	combinationFlightPool = 3
	combinationHotelPool  = 3
	maxComboActivities    = 3
	maxCombinations       = 5
	comboProximityKM      = 25.0
)

// Combination is a scored bundle of one flight, one hotel and a subset of
// activities. Ephemeral: produced by aggregation, never stored on the
// session beyond the current pass.
type Combination struct {
	Flight             Flight     `json:"flight" yaml:"flight"`
	Hotel              Hotel      `json:"hotel" yaml:"hotel"`
	Activities         []Activity `json:"activities" yaml:"activities"`
	TotalCost          float64    `json:"totalCost" yaml:"totalCost"`
	CompatibilityScore float64    `json:"compatibilityScore" yaml:"compatibilityScore"`
	BudgetRemaining    float64    `json:"budgetRemaining" yaml:"budgetRemaining"`
}

// GenerateCombinations pairs the top-3 scored flights with the top-3
// scored hotels, greedily fills each pair with nearby activities under the
// activity allocation, and returns at most 5 combinations sorted by
// compatibility descending then total cost ascending.
func GenerateCombinations(flights []Flight, hotels []Hotel, activities []Activity, budget float64) []Combination {
	topFlights := capSlice(flights, combinationFlightPool)
	topHotels := capSlice(hotels, combinationHotelPool)
	alloc := DistributeBudget(budget)

	combinations := make([]Combination, 0, len(topFlights)*len(topHotels))
	for _, flight := range topFlights {
		for _, hotel := range topHotels {
			selected := selectComboActivities(hotel, activities, alloc.Activities)

			total := flight.Price + hotel.TotalCost
			for _, activity := range selected {
				total += activity.Price
			}

			combinations = append(combinations, Combination{
				Flight:             flight,
				Hotel:              hotel,
				Activities:         selected,
				TotalCost:          total,
				CompatibilityScore: compatibilityScore(flight, hotel, budget),
				BudgetRemaining:    budget - total,
			})
		}
	}

	sort.SliceStable(combinations, func(i, j int) bool {
		if combinations[i].CompatibilityScore != combinations[j].CompatibilityScore {
			return combinations[i].CompatibilityScore > combinations[j].CompatibilityScore
		}
		return combinations[i].TotalCost < combinations[j].TotalCost
	})

	return capSlice(combinations, maxCombinations)
}

// compatibilityScore rates a flight/hotel pair on airport proximity,
// arrival-vs-check-in timing and combined budget efficiency. Capped at 1.
func compatibilityScore(flight Flight, hotel Hotel, budget float64) float64 {
	score := clamp01(1.0-hotel.AirportDistanceKM/airportDistanceCeil) * 0.4

	if flight.ArrivalTime != "" && hotel.CheckInTime != "" {
		if parseHour(flight.ArrivalTime) <= parseHour(hotel.CheckInTime) {
			score += 0.3
		} else {
			// late arrival penalty
			score += 0.1
		}
	}

	if budget > 0 {
		combined := flight.Price + hotel.TotalCost
		score += clamp01(1.0-combined/budget) * 0.3
	}

	return clamp01(score)
}

// selectComboActivities greedily picks up to 3 activities within 25km of
// the hotel that fit the activity budget, best rated and nearest first.
func selectComboActivities(hotel Hotel, activities []Activity, activityBudget float64) []Activity {
	nearby := make([]Activity, 0, len(activities))
	for _, activity := range activities {
		dist := distanceKM(hotel.Lat, hotel.Lon, activity.Lat, activity.Lon)
		if dist > comboProximityKM {
			continue
		}
		activity.DistanceToHotelKM = dist
		nearby = append(nearby, activity)
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		if nearby[i].Rating != nearby[j].Rating {
			return nearby[i].Rating > nearby[j].Rating
		}
		return nearby[i].DistanceToHotelKM < nearby[j].DistanceToHotelKM
	})

	selected := make([]Activity, 0, maxComboActivities)
	spent := 0.0
	for _, activity := range nearby {
		if spent+activity.Price > activityBudget {
			continue
		}
		selected = append(selected, activity)
		spent += activity.Price
		if len(selected) >= maxComboActivities {
			break
		}
	}
	return selected
}

// AggregateResults prioritizes each category and generates combinations,
// producing the presentation-ready bundle for the automation branch.
func AggregateResults(filtered CandidateSet, prefs Preferences) *AggregatedResults {
	flights := PrioritizeFlights(filtered.Flights, prefs)
	hotels := PrioritizeHotels(filtered.Hotels, prefs)
	activities := PrioritizeActivities(filtered.Activities, prefs)

	return &AggregatedResults{
		Flights:      flights,
		Hotels:       hotels,
		Activities:   activities,
		Combinations: GenerateCombinations(flights, hotels, activities, prefs.Budget),
	}
}
