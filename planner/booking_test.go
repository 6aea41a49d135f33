package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLayer struct {
	method BookingMethod
	calls  int
	fail   bool
}

func (l *stubLayer) Method() BookingMethod { return l.method }

func (l *stubLayer) Book(_ context.Context, item BookingItem) (BookingResult, error) {
	l.calls++
	if l.fail {
		return BookingResult{}, errors.New("provider unavailable")
	}
	return BookingResult{
		Success:            true,
		ConfirmationNumber: string(l.method) + "-OK",
		BookingReference:   "REF-1",
		Price:              item.Price,
	}, nil
}

func noSleep(context.Context, time.Duration) error { return nil }

func bookingSession(level int) *Session {
	s := NewSession(Preferences{
		Destination: "Lisbon",
		Budget:      2000,
	}, level, AllComponents())
	s.SelectFlight(Flight{FlightNumber: "SA100", Airline: "SkyWings Airlines", Price: 400})
	return s
}

func TestEscalationFallsBackToSecondary(t *testing.T) {
	primary := &stubLayer{method: MethodPrimaryAPI, fail: true}
	secondary := &stubLayer{method: MethodSecondaryAPI}
	engine := NewEscalationEngine([]BookingLayer{primary, secondary}, DefaultRetryPolicy(), nil)
	engine.SetSleep(noSleep)

	s := bookingSession(2)
	outcome, err := engine.BookItem(context.Background(), s, BookingItem{
		Type: CategoryFlights, Name: "SkyWings Airlines SA100", Price: 400,
	})
	require.NoError(t, err)

	assert.Equal(t, BookingSucceeded, outcome.Status)
	assert.Equal(t, MethodSecondaryAPI, outcome.Method)
	assert.Equal(t, 3, primary.calls, "primary gets the full retry budget before escalation")
	assert.Equal(t, 1, secondary.calls)
	assert.Equal(t, 4, outcome.Attempts)
	assert.Equal(t, "secondary_api-OK", outcome.Confirmation)
}

func TestPrimarySuccessNeedsNoEscalation(t *testing.T) {
	primary := &stubLayer{method: MethodPrimaryAPI}
	secondary := &stubLayer{method: MethodSecondaryAPI}
	engine := NewEscalationEngine([]BookingLayer{primary, secondary}, DefaultRetryPolicy(), nil)
	engine.SetSleep(noSleep)

	outcome, err := engine.BookItem(context.Background(), bookingSession(2), BookingItem{Name: "x", Price: 1})
	require.NoError(t, err)
	assert.Equal(t, MethodPrimaryAPI, outcome.Method)
	assert.Equal(t, 1, outcome.Attempts)
	assert.Zero(t, secondary.calls)
}

func TestVoiceLayerGatedByAutomationLevel(t *testing.T) {
	voice := &stubLayer{method: MethodVoiceCalling}
	failing := []BookingLayer{
		&stubLayer{method: MethodPrimaryAPI, fail: true},
		&stubLayer{method: MethodSecondaryAPI, fail: true},
		&stubLayer{method: MethodBrowserAutomation, fail: true},
		voice,
	}

	engine := NewEscalationEngine(failing, DefaultRetryPolicy(), nil)
	engine.SetSleep(noSleep)

	outcome, err := engine.BookItem(context.Background(), bookingSession(2), BookingItem{Type: CategoryHotels, Name: "h", Price: 1})
	require.NoError(t, err)
	assert.Equal(t, BookingFailed, outcome.Status)
	assert.Equal(t, MethodManualRequired, outcome.Method)
	assert.Zero(t, voice.calls, "voice calling skipped below level 3")
	assert.NotEmpty(t, outcome.SuggestedActions)

	outcome, err = engine.BookItem(context.Background(), bookingSession(3), BookingItem{Type: CategoryHotels, Name: "h", Price: 1})
	require.NoError(t, err)
	assert.Equal(t, BookingSucceeded, outcome.Status)
	assert.Equal(t, MethodVoiceCalling, outcome.Method)
	assert.Equal(t, 1, voice.calls)
}

func TestManualRequiredDoesNotStopCart(t *testing.T) {
	engine := NewEscalationEngine([]BookingLayer{
		&stubLayer{method: MethodPrimaryAPI, fail: true},
	}, DefaultRetryPolicy(), nil)
	engine.SetSleep(noSleep)

	s := bookingSession(2)
	s.SelectHotel(Hotel{Name: "Lisbon Grand Hotel", TotalCost: 600, Nights: 3, CheckInDate: "2026-10-01"})
	outcomes, err := engine.BookCart(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	for _, outcome := range outcomes {
		assert.Equal(t, BookingStatus("failed"), outcome.Status)
		assert.Equal(t, BookingMethod("manual_required"), outcome.Method)
		assert.NotEmpty(t, outcome.SuggestedActions)
	}
}

func TestRetryPolicyDelaysDouble(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, time.Second, p.DelayFor(1))
	assert.Equal(t, 2*time.Second, p.DelayFor(2))
	assert.Equal(t, 4*time.Second, p.DelayFor(3))
}

func TestSafetyCheckpointOnlyAtFullAutomation(t *testing.T) {
	s := bookingSession(3)
	// Flight at 80% of the budget trips the ceiling at level 4 only.
	s.SelectFlight(Flight{FlightNumber: "GA122", Airline: "Global Airways", Price: 1600})
	s.Preferences.PaymentMethod = "visa"
	s.Preferences.PassportVerified = true

	assert.NoError(t, SafetyCheckpoint(s))

	s.AutomationLevel = 4
	err := SafetyCheckpoint(s)
	require.Error(t, err)
	var checkpoint *SafetyCheckpointError
	require.ErrorAs(t, err, &checkpoint)
	assert.Len(t, checkpoint.Issues, 1)
	assert.Contains(t, checkpoint.Issues[0], "70%")
}

func TestSafetyCheckpointCollectsAllIssues(t *testing.T) {
	s := bookingSession(4)
	s.SelectFlight(Flight{FlightNumber: "GA122", Airline: "Global Airways", Price: 1600})
	s.SelectHotel(Hotel{Name: "Lisbon Resort", TotalCost: 1300, CheckInDate: "2026-10-01"})

	err := SafetyCheckpoint(s)
	require.Error(t, err)
	var checkpoint *SafetyCheckpointError
	require.ErrorAs(t, err, &checkpoint)
	// 2900 total > 2400 ceiling, flight > 70%, hotel > 60%, no payment
	// method, passport unverified.
	assert.Len(t, checkpoint.Issues, 5)
}

func TestConfirmationNumbersGroupByCategory(t *testing.T) {
	outcomes := []BookingOutcome{
		{Item: BookingItem{Type: CategoryFlights, Name: "SA100"}, Status: BookingSucceeded, Confirmation: "PRIM-000001"},
		{Item: BookingItem{Type: CategoryHotels, Name: "Grand"}, Status: BookingFailed, Method: MethodManualRequired},
		{Item: BookingItem{Type: CategoryActivities, Name: "Tour"}, Status: BookingSucceeded, Confirmation: "SEC-000002"},
		{Item: BookingItem{Type: CategoryActivities, Name: "Museum"}, Status: BookingSucceeded, Confirmation: "PRIM-000003"},
	}

	numbers := ConfirmationNumbers(outcomes)

	assert.Equal(t, "PRIM-000001", numbers["flights"])
	assert.Equal(t, "N/A", numbers["hotels"], "manual-required items report N/A")
	assert.Equal(t, []string{"SEC-000002", "PRIM-000003"}, numbers["activities"])
}

func TestConfirmationNumbersEmptyOutcomes(t *testing.T) {
	numbers := ConfirmationNumbers(nil)
	assert.Equal(t, "N/A", numbers["flights"])
	assert.Equal(t, "N/A", numbers["hotels"])
	assert.Empty(t, numbers["activities"])
}
