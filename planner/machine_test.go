package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine(layers []BookingLayer) *Engine {
	e := NewEngine(EngineOptions{Layers: layers})
	e.Booking().SetSleep(noSleep)
	return e
}

func fullPreferences() Preferences {
	return Preferences{
		Origin:           "Porto",
		Destination:      "Lisbon",
		StartDate:        "2026-10-01",
		EndDate:          "2026-10-05",
		Travelers:        2,
		Budget:           3000,
		Interests:        []string{"food", "cultural"},
		PaymentMethod:    "visa",
		PassportVerified: true,
	}
}

func TestRunSuspendsOnMissingPreferences(t *testing.T) {
	e := testEngine(nil)
	result := e.Run(context.Background(), Input{
		Preferences:     Preferences{Destination: "Lisbon"},
		AutomationLevel: 2,
	})

	require.True(t, result.Success, "missing information is recoverable, not an error")
	assert.Equal(t, StepAwaitingInfo, result.Session.CurrentStep)

	data := result.Data.(map[string]any)
	assert.Equal(t, "awaiting_information", data["status"])
	missing := data["missing"].([]string)
	assert.ElementsMatch(t, []string{"startDate", "endDate", "travelers", "budget"}, missing)
}

func TestResumeContinuesAfterInformationSupplied(t *testing.T) {
	e := testEngine(nil)
	result := e.Run(context.Background(), Input{
		Preferences:     Preferences{Destination: "Lisbon"},
		AutomationLevel: 1,
	})
	require.Equal(t, StepAwaitingInfo, result.Session.CurrentStep)

	resumed := e.Resume(context.Background(), result.Session, Preferences{
		StartDate: "2026-10-01",
		EndDate:   "2026-10-05",
		Travelers: 2,
		Budget:    3000,
	})
	require.True(t, resumed.Success)
	assert.Equal(t, StepCartReview, resumed.Session.CurrentStep)
}

func TestLevelOneStopsAtReviewWithoutSelections(t *testing.T) {
	e := testEngine(nil)
	result := e.Run(context.Background(), Input{Preferences: fullPreferences(), AutomationLevel: 1})

	require.True(t, result.Success)
	s := result.Session
	assert.Equal(t, StepCartReview, s.CurrentStep)
	assert.Empty(t, s.Cart.Flights, "level 1 never auto-selects")
	require.NotNil(t, s.Aggregated)
	assert.NotEmpty(t, s.Aggregated.Flights)
	assert.NotEmpty(t, s.Aggregated.Combinations)
}

func TestLevelTwoStagesRecommendations(t *testing.T) {
	e := testEngine(nil)
	result := e.Run(context.Background(), Input{Preferences: fullPreferences(), AutomationLevel: 2})

	require.True(t, result.Success)
	s := result.Session
	assert.Equal(t, StepCartReview, s.CurrentStep)
	require.Len(t, s.Cart.Flights, 1, "level 2 preselects the recommended flight")
	require.Len(t, s.Cart.Hotels, 1)
	assert.NotEmpty(t, s.Cart.Activities)
	assert.Greater(t, s.Cart.TotalCost, 0.0)
	assert.NotEmpty(t, s.CartDependencies)
	assert.NotEmpty(t, s.AgentCommunications, "selections publish cross-agent context")
}

func TestLevelThreeBooksThroughCompletion(t *testing.T) {
	e := testEngine([]BookingLayer{&stubLayer{method: MethodPrimaryAPI}})
	result := e.Run(context.Background(), Input{Preferences: fullPreferences(), AutomationLevel: 3})

	require.True(t, result.Success)
	s := result.Session
	assert.Equal(t, StepComplete, s.CurrentStep)

	data := result.Data.(map[string]any)
	bookings := data["bookings"].([]BookingOutcome)
	require.NotEmpty(t, bookings)
	for _, outcome := range bookings {
		assert.Equal(t, BookingSucceeded, outcome.Status)
	}
	itinerary := data["itinerary"].(Itinerary)
	assert.Equal(t, "Lisbon", itinerary.Destination)
	assert.Len(t, itinerary.Days, 5)

	numbers := data["confirmationNumbers"].(map[string]any)
	assert.NotEqual(t, "N/A", numbers["flights"])
	assert.NotEqual(t, "N/A", numbers["hotels"])
}

func TestLevelFourCheckpointBlocksUnverifiedUser(t *testing.T) {
	prefs := fullPreferences()
	prefs.PaymentMethod = ""
	prefs.PassportVerified = false

	e := testEngine([]BookingLayer{&stubLayer{method: MethodPrimaryAPI}})
	result := e.Run(context.Background(), Input{Preferences: prefs, AutomationLevel: 4})

	require.True(t, result.Success)
	s := result.Session
	assert.Equal(t, StepCartReview, s.CurrentStep, "checkpoint returns the cart for review")

	blocked := false
	for _, ev := range s.Events {
		if ev.Type == "safety_checkpoint_failed" {
			blocked = true
		}
	}
	assert.True(t, blocked)
}

func TestLevelThreeSkipsCheckpoint(t *testing.T) {
	// The same unverified user books straight through at level 3.
	prefs := fullPreferences()
	prefs.PaymentMethod = ""
	prefs.PassportVerified = false

	e := testEngine([]BookingLayer{&stubLayer{method: MethodPrimaryAPI}})
	result := e.Run(context.Background(), Input{Preferences: prefs, AutomationLevel: 3})

	require.True(t, result.Success)
	assert.Equal(t, StepComplete, result.Session.CurrentStep)
}

func TestModifyCategoryRerunsOneAgentEnriched(t *testing.T) {
	e := testEngine(nil)
	result := e.Run(context.Background(), Input{Preferences: fullPreferences(), AutomationLevel: 2})
	require.True(t, result.Success)
	s := result.Session
	commsBefore := len(s.AgentCommunications)

	modified := e.ModifyCategory(context.Background(), s, CategoryHotels)
	require.True(t, modified.Success)
	assert.Equal(t, StepCartReview, s.CurrentStep)
	assert.NotEmpty(t, s.Filtered.Hotels)
	assert.GreaterOrEqual(t, len(s.AgentCommunications), commsBefore)
}

func TestModifyUnrequestedCategoryFails(t *testing.T) {
	e := testEngine(nil)
	result := e.Run(context.Background(), Input{
		Preferences:     fullPreferences(),
		AutomationLevel: 1,
		Components:      ComponentsNeeded{Flights: true},
	})
	require.True(t, result.Success)

	modified := e.ModifyCategory(context.Background(), result.Session, CategoryHotels)
	assert.False(t, modified.Success)
}

func TestBacktrackRestoresEarlierCart(t *testing.T) {
	e := testEngine(nil)
	result := e.Run(context.Background(), Input{Preferences: fullPreferences(), AutomationLevel: 2})
	require.True(t, result.Success)
	s := result.Session
	require.NotEmpty(t, s.BacktrackHistory)

	searchPoint := s.BacktrackHistory[1] // search_complete, before auto-selection
	require.Equal(t, "search_complete", searchPoint.Label)

	require.NotEmpty(t, s.Cart.Flights)
	back := e.Backtrack(s, searchPoint.SnapshotID)
	require.True(t, back.Success)
	assert.Empty(t, s.Cart.Flights, "selection undone")
	assert.Len(t, s.BacktrackHistory, 2, "later points pruned")
}

func TestComponentsDefaultToAll(t *testing.T) {
	e := testEngine(nil)
	result := e.Run(context.Background(), Input{Preferences: fullPreferences(), AutomationLevel: 1})
	require.True(t, result.Success)
	assert.Equal(t, AllComponents(), result.Session.Components)
}

func TestPartialComponentsSearchOnlyRequested(t *testing.T) {
	e := testEngine(nil)
	result := e.Run(context.Background(), Input{
		Preferences:     fullPreferences(),
		AutomationLevel: 2,
		Components:      ComponentsNeeded{Hotels: true, Activities: true},
	})
	require.True(t, result.Success)
	s := result.Session

	assert.Nil(t, s.Cart.Flights, "flights never requested")
	assert.NotEmpty(t, s.Cart.Hotels)
	_, tracked := s.AgentStatus[CategoryFlights]
	assert.False(t, tracked)
}

func TestConversationalInputMarked(t *testing.T) {
	e := testEngine(nil)
	result := e.Run(context.Background(), Input{Message: "I want a foodie weekend somewhere warm"})

	require.True(t, result.Success)
	s := result.Session
	assert.Equal(t, StepAwaitingInfo, s.CurrentStep)
	assert.Equal(t, "conversational", s.Preferences.InputType)
	assert.Equal(t, "I want a foodie weekend somewhere warm", s.Preferences.InitialMessage)
	require.NotEmpty(t, s.Messages)
	assert.Equal(t, "user", s.Messages[0].Role)
}

func TestConfirmRefusedWhileAwaitingInformation(t *testing.T) {
	e := testEngine(nil)
	result := e.Run(context.Background(), Input{
		Preferences:     Preferences{Destination: "Lisbon"},
		AutomationLevel: 2,
	})
	require.Equal(t, StepAwaitingInfo, result.Session.CurrentStep)

	confirmed := e.Confirm(context.Background(), result.Session)
	assert.False(t, confirmed.Success)
	assert.Contains(t, confirmed.Error, "missing required preferences")
	assert.Equal(t, StepAwaitingInfo, result.Session.CurrentStep, "session stays resumable")

	resumed := e.Resume(context.Background(), result.Session, fullPreferences())
	require.True(t, resumed.Success)
	assert.Equal(t, StepCartReview, result.Session.CurrentStep)
}
