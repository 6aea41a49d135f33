package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrioritizeFlightsOrdering(t *testing.T) {
	prefs := Preferences{FlightPrefs: FlightPreferences{PreferredAirlines: []string{"Global Airways"}}}
	flights := []Flight{
		{ID: "cheap", Airline: "Budget Air", Price: 200, DurationHours: 9, Stops: 1, Rating: 3.6},
		{ID: "preferred", Airline: "Global Airways", Price: 500, DurationHours: 7, Stops: 0, Rating: 4.4},
	}

	scored := PrioritizeFlights(flights, prefs)
	require.Len(t, scored, 2)
	for _, flight := range scored {
		assert.Greater(t, flight.PriorityScore, 0.0)
		assert.LessOrEqual(t, flight.PriorityScore, 1.0)
	}
	assert.Equal(t, "preferred", scored[0].ID, "airline bonus lifts the preferred carrier")
	assert.Zero(t, flights[0].PriorityScore, "input not mutated")
}

func TestPrioritizeHotelsAmenityMatch(t *testing.T) {
	prefs := Preferences{HotelAmenities: []string{"pool", "spa"}}
	hotels := []Hotel{
		{ID: "bare", TotalCost: 300, Rating: 4.0, AirportDistanceKM: 10},
		{ID: "full", TotalCost: 300, Rating: 4.0, AirportDistanceKM: 10, Amenities: []string{"pool", "spa", "wifi"}},
	}
	scored := PrioritizeHotels(hotels, prefs)
	assert.Equal(t, "full", scored[0].ID)
	assert.InDelta(t, 0.15, scored[0].PriorityScore-scored[1].PriorityScore, 1e-9)
}

func TestPrioritizeActivitiesInterestWeight(t *testing.T) {
	prefs := Preferences{Interests: []string{"food"}}
	activities := []Activity{
		{ID: "match", Price: 50, Rating: 4.0, Categories: []string{"food"}},
		{ID: "other", Price: 50, Rating: 4.0, Categories: []string{"nature"}},
	}
	scored := PrioritizeActivities(activities, prefs)
	assert.Equal(t, "match", scored[0].ID)
	assert.InDelta(t, 0.4, scored[0].PriorityScore-scored[1].PriorityScore, 1e-9)
}

func TestGenerateCombinationsBounds(t *testing.T) {
	budget := 3000.0
	flights := []Flight{
		{ID: "A", Airline: "SkyWings Airlines", Price: 300, ArrivalTime: "14:00"},
		{ID: "B", Airline: "Pacific Express", Price: 400, ArrivalTime: "12:00"},
		{ID: "C", Airline: "Global Airways", Price: 500, ArrivalTime: "10:00"},
	}
	hotels := []Hotel{
		{ID: "X", Name: "X", PricePerNight: 100, Nights: 3, TotalCost: 300, CheckInTime: "15:00", AirportDistanceKM: 5},
		{ID: "Y", Name: "Y", PricePerNight: 150, Nights: 3, TotalCost: 450, CheckInTime: "15:00", AirportDistanceKM: 10},
		{ID: "Z", Name: "Z", PricePerNight: 200, Nights: 3, TotalCost: 600, CheckInTime: "15:00", AirportDistanceKM: 15},
	}

	combos := GenerateCombinations(flights, hotels, nil, budget)

	require.NotEmpty(t, combos)
	assert.LessOrEqual(t, len(combos), 5, "at most five combinations returned from nine pairs")

	seen := map[string]bool{}
	for _, combo := range combos {
		key := combo.Flight.ID + "/" + combo.Hotel.ID
		assert.False(t, seen[key], "no duplicate pair")
		seen[key] = true
		assert.Equal(t, combo.Flight.Price+combo.Hotel.TotalCost, combo.TotalCost)
		assert.Equal(t, budget-combo.TotalCost, combo.BudgetRemaining)
	}

	for i := 1; i < len(combos); i++ {
		prev, cur := combos[i-1], combos[i]
		if prev.CompatibilityScore == cur.CompatibilityScore {
			assert.LessOrEqual(t, prev.TotalCost, cur.TotalCost, "cost breaks compatibility ties")
		} else {
			assert.Greater(t, prev.CompatibilityScore, cur.CompatibilityScore)
		}
	}
}

func TestGenerateCombinationsUsesTopThreePools(t *testing.T) {
	flights := make([]Flight, 5)
	for i := range flights {
		flights[i] = Flight{ID: string(rune('A' + i)), Price: float64(300 + i*50)}
	}
	hotels := make([]Hotel, 4)
	for i := range hotels {
		hotels[i] = Hotel{ID: string(rune('W' + i)), Name: string(rune('W' + i)), TotalCost: float64(200 + i*50)}
	}

	combos := GenerateCombinations(flights, hotels, nil, 5000)
	assert.Len(t, combos, 5)
	for _, combo := range combos {
		assert.NotEqual(t, "D", combo.Flight.ID, "fourth-ranked flight stays out of the pool")
		assert.NotEqual(t, "E", combo.Flight.ID)
		assert.NotEqual(t, "Z", combo.Hotel.ID, "fourth-ranked hotel stays out of the pool")
	}
}

func TestSelectComboActivitiesGreedyUnderBudget(t *testing.T) {
	hotel := Hotel{Lat: 38.7, Lon: -9.1}
	activities := []Activity{
		{Name: "top", Lat: 38.7, Lon: -9.1, Price: 200, Rating: 4.8},
		{Name: "mid", Lat: 38.71, Lon: -9.1, Price: 150, Rating: 4.5},
		{Name: "low", Lat: 38.7, Lon: -9.12, Price: 100, Rating: 4.0},
		{Name: "far", Lat: 40.0, Lon: -9.1, Price: 10, Rating: 5.0},
	}

	selected := selectComboActivities(hotel, activities, 380)
	require.Len(t, selected, 2)
	assert.Equal(t, "top", selected[0].Name)
	assert.Equal(t, "mid", selected[1].Name)
}

func TestAggregateResultsBuildsCombinations(t *testing.T) {
	prefs := Preferences{Destination: "Lisbon", Budget: 3000, Interests: []string{"food"}}
	filtered := CandidateSet{
		Flights:    []Flight{{ID: "f1", Price: 400, Rating: 4.0, ArrivalTime: "16:00"}},
		Hotels:     []Hotel{{ID: "h1", Name: "Lisbon Grand Hotel", TotalCost: 800, Rating: 4.5, CheckInTime: "15:00", Lat: 38.7, Lon: -9.1}},
		Activities: []Activity{{ID: "a1", Name: "Street Food Tasting", Price: 60, Rating: 4.4, Lat: 38.71, Lon: -9.1, Categories: []string{"food"}}},
	}

	agg := AggregateResults(filtered, prefs)
	require.NotNil(t, agg)
	require.Len(t, agg.Combinations, 1)
	combo := agg.Combinations[0]
	assert.Equal(t, "f1", combo.Flight.ID)
	require.Len(t, combo.Activities, 1)
	assert.Equal(t, 1260.0, combo.TotalCost)
	assert.Greater(t, combo.CompatibilityScore, 0.0)
}
