package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetComplianceThresholds(t *testing.T) {
	tests := []struct {
		name     string
		cost     float64
		expected BudgetStatus
	}{
		{"exactly at budget", 1000, BudgetWithin},
		{"within 5 percent", 1040, BudgetSlightlyOver},
		{"within 15 percent", 1140, BudgetModeratelyOver},
		{"beyond 15 percent", 1200, BudgetSignificantlyOver},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := BudgetCompliance(tt.cost, 1000)
			assert.Equal(t, tt.expected, analysis.Status)
			assert.Equal(t, tt.cost-1000, analysis.Difference)
		})
	}
}

func TestBudgetComplianceBoundaries(t *testing.T) {
	assert.Equal(t, BudgetSlightlyOver, BudgetCompliance(1050, 1000).Status)
	assert.Equal(t, BudgetModeratelyOver, BudgetCompliance(1149, 1000).Status)
	assert.Equal(t, BudgetSignificantlyOver, BudgetCompliance(1151, 1000).Status)
}

func TestNewCartNilVersusEmpty(t *testing.T) {
	cart := NewCart(ComponentsNeeded{Flights: true, Hotels: true})
	assert.NotNil(t, cart.Flights)
	assert.Empty(t, cart.Flights)
	assert.NotNil(t, cart.Hotels)
	assert.Nil(t, cart.Activities, "unrequested category stays nil")
}

func TestValidateCartFlagsEmptyRequestedCategories(t *testing.T) {
	cart := NewCart(AllComponents())
	validation := ValidateCart(cart, AllComponents())
	require.False(t, validation.Valid)
	assert.Len(t, validation.Issues, 3)
	assert.Zero(t, validation.ItemCount)
}

func TestValidateCartCheckInMismatch(t *testing.T) {
	cart := Cart{
		Flights: []Flight{{Airline: "SkyWings Airlines", FlightNumber: "SA100", Price: 320, ArrivalDate: "2026-10-01"}},
		Hotels:  []Hotel{{Name: "Lisbon Grand Hotel", TotalCost: 450, CheckInDate: "2026-10-02"}},
	}
	validation := ValidateCart(cart, ComponentsNeeded{Flights: true, Hotels: true})
	require.False(t, validation.Valid)
	assert.Contains(t, validation.Issues[0], "check-in date")
}

func TestCalculateTotalCost(t *testing.T) {
	cart := Cart{
		Flights:    []Flight{{Price: 300}},
		Hotels:     []Hotel{{TotalCost: 450}},
		Activities: []Activity{{Price: 40}, {Price: 60}},
	}
	assert.Equal(t, 850.0, CalculateTotalCost(cart))
}

func TestCartMutationsBumpVersionAndRebuildDependencies(t *testing.T) {
	s := NewSession(Preferences{Destination: "Lisbon", Budget: 2000}, 2, AllComponents())
	require.Equal(t, 1, s.Cart.Version)

	s.SelectFlight(Flight{FlightNumber: "SA100", Airline: "SkyWings Airlines", Price: 320, ArrivalDate: "2026-10-01"})
	assert.Equal(t, 2, s.Cart.Version)
	assert.Equal(t, 320.0, s.Cart.TotalCost)
	assert.Empty(t, s.CartDependencies)

	s.SelectHotel(Hotel{Name: "Lisbon Grand Hotel", TotalCost: 450, CheckInDate: "2026-10-01"})
	assert.Equal(t, 3, s.Cart.Version)
	dep, ok := s.CartDependencies["hotel_Lisbon Grand Hotel"]
	require.True(t, ok)
	assert.Equal(t, "flight_SA100", dep.DependsOn)
	assert.Equal(t, RelationArrivalLocation, dep.Relationship)

	s.AddActivity(Activity{Name: "Historic Walking Tour", Price: 45})
	assert.Equal(t, 4, s.Cart.Version)
	actDep, ok := s.CartDependencies["activity_Historic Walking Tour"]
	require.True(t, ok)
	assert.Equal(t, "hotel_Lisbon Grand Hotel", actDep.DependsOn)
	assert.Equal(t, RelationProximity, actDep.Relationship)
	assert.Equal(t, 815.0, s.Cart.TotalCost)

	// Removing the hotel drops both the hotel edge and the activity edge.
	s.Cart.Hotels = nil
	s.finalizeCartChange()
	assert.Empty(t, s.CartDependencies)
}

func TestModifyAndRemove(t *testing.T) {
	s := NewSession(Preferences{Destination: "Lisbon", Budget: 2000}, 2, AllComponents())
	s.SelectFlight(Flight{FlightNumber: "SA100", Airline: "SkyWings Airlines", Price: 320})
	v := s.Cart.Version

	require.True(t, s.ModifyFlight("SA100", Flight{FlightNumber: "PE211", Airline: "Pacific Express", Price: 280}))
	assert.Equal(t, v+1, s.Cart.Version)
	assert.Equal(t, 280.0, s.Cart.TotalCost)
	assert.False(t, s.ModifyFlight("SA100", Flight{}), "old flight number no longer present")

	s.AddActivity(Activity{Name: "Cooking Class", Price: 80})
	require.True(t, s.RemoveActivity("Cooking Class"))
	assert.False(t, s.RemoveActivity("Cooking Class"))
	assert.Equal(t, 280.0, s.Cart.TotalCost)
}
