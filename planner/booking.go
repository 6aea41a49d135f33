package planner

import (
	"context"
	"fmt"
	"time"
)

// BookingMethod identifies one escalation layer.
type BookingMethod string

const (
	MethodPrimaryAPI        BookingMethod = "primary_api"
	MethodSecondaryAPI      BookingMethod = "secondary_api"
	MethodBrowserAutomation BookingMethod = "browser_automation"
	MethodVoiceCalling      BookingMethod = "voice_calling"
	MethodManualRequired    BookingMethod = "manual_required"
)

// escalationOrder is the fixed layer sequence. Voice calling is skipped
// below automation level 3; manual_required is terminal, not a layer.
var escalationOrder = []BookingMethod{
	MethodPrimaryAPI,
	MethodSecondaryAPI,
	MethodBrowserAutomation,
	MethodVoiceCalling,
}

// minVoiceAutomationLevel gates the voice calling layer.
const minVoiceAutomationLevel = 3

// BookingItem is one cart item submitted for booking.
type BookingItem struct {
	Type        Category `json:"type" yaml:"type"`
	Name        string   `json:"name" yaml:"name"`
	Price       float64  `json:"price" yaml:"price"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// BookingResult is one layer's response for one item.
type BookingResult struct {
	Success            bool    `json:"success" yaml:"success"`
	ConfirmationNumber string  `json:"confirmationNumber,omitempty" yaml:"confirmationNumber,omitempty"`
	BookingReference   string  `json:"bookingReference,omitempty" yaml:"bookingReference,omitempty"`
	Price              float64 `json:"price,omitempty" yaml:"price,omitempty"`
}

// BookingLayer is one booking channel. Implementations must be safe for
// repeated calls on the same item; the engine retries the primary layer.
type BookingLayer interface {
	Method() BookingMethod
	Book(ctx context.Context, item BookingItem) (BookingResult, error)
}

// RetryPolicy controls primary-layer retries with exponential backoff.
type RetryPolicy struct {
	MaxAttempts       int
	InitialDelay      time.Duration
	BackoffMultiplier float64
}

// DefaultRetryPolicy retries the primary layer three times total, backing
// off 1s then 2s between attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       3,
		InitialDelay:      time.Second,
		BackoffMultiplier: 2.0,
	}
}

// DelayFor returns the backoff delay before the given retry. attempt is
// 1-based; the delay doubles after each failure.
func (p RetryPolicy) DelayFor(attempt int) time.Duration {
	delay := p.InitialDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * p.BackoffMultiplier)
	}
	return delay
}

// BookingStatus is the terminal state of one item's escalation.
type BookingStatus string

const (
	BookingSucceeded BookingStatus = "success"
	BookingFailed    BookingStatus = "failed"
)

// BookingOutcome is the result of escalating one item through the layers.
type BookingOutcome struct {
	Item             BookingItem   `json:"item" yaml:"item"`
	Status           BookingStatus `json:"status" yaml:"status"`
	Method           BookingMethod `json:"method" yaml:"method"`
	Confirmation     string        `json:"confirmation,omitempty" yaml:"confirmation,omitempty"`
	Reference        string        `json:"reference,omitempty" yaml:"reference,omitempty"`
	Attempts         int           `json:"attempts" yaml:"attempts"`
	SuggestedActions []string      `json:"suggestedActions,omitempty" yaml:"suggestedActions,omitempty"`
}

// EscalationEngine escalates each booking item through the layers in order
// until one succeeds or all are exhausted.
type EscalationEngine struct {
	layers  map[BookingMethod]BookingLayer
	policy  RetryPolicy
	emitter Emitter
	sleep   func(context.Context, time.Duration) error
}

// NewEscalationEngine builds an engine over the given layers. Missing
// layers are skipped during escalation.
func NewEscalationEngine(layers []BookingLayer, policy RetryPolicy, emitter Emitter) *EscalationEngine {
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy()
	}
	if emitter == nil {
		emitter = NoopEmitter{}
	}
	byMethod := make(map[BookingMethod]BookingLayer, len(layers))
	for _, layer := range layers {
		byMethod[layer.Method()] = layer
	}
	return &EscalationEngine{
		layers:  byMethod,
		policy:  policy,
		emitter: emitter,
		sleep:   sleepCtx,
	}
}

// SetSleep overrides the backoff sleep. Tests use this to run without
// real delays.
func (e *EscalationEngine) SetSleep(fn func(context.Context, time.Duration) error) {
	if fn != nil {
		e.sleep = fn
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// BookItem escalates a single item. The primary layer gets the full retry
// budget; every other layer gets one attempt. Voice calling is skipped
// below the automation threshold. Exhausting all layers yields a
// manual_required outcome with actions the user can take by hand.
func (e *EscalationEngine) BookItem(ctx context.Context, s *Session, item BookingItem) (BookingOutcome, error) {
	outcome := BookingOutcome{Item: item}

	for _, method := range escalationOrder {
		if method == MethodVoiceCalling && s.AutomationLevel < minVoiceAutomationLevel {
			continue
		}
		layer, ok := e.layers[method]
		if !ok {
			continue
		}

		attempts := 1
		if method == MethodPrimaryAPI {
			attempts = e.policy.MaxAttempts
		}

		var lastErr error
		for attempt := 1; attempt <= attempts; attempt++ {
			if attempt > 1 {
				if err := e.sleep(ctx, e.policy.DelayFor(attempt-1)); err != nil {
					return outcome, err
				}
			}
			outcome.Attempts++

			result, err := layer.Book(ctx, item)
			if err == nil && result.Success {
				outcome.Status = BookingSucceeded
				outcome.Method = method
				outcome.Confirmation = result.ConfirmationNumber
				outcome.Reference = result.BookingReference
				e.emit(s, Event{
					Type:    "booking_item_complete",
					Section: SectionBooking,
					Message: fmt.Sprintf("%s booked via %s", item.Name, method),
					Data: map[string]any{
						"item":         item.Name,
						"method":       string(method),
						"confirmation": result.ConfirmationNumber,
						"attempts":     outcome.Attempts,
					},
				})
				return outcome, nil
			}
			if err == nil {
				err = fmt.Errorf("booking declined")
			}
			lastErr = &BookingLayerError{Method: method, Err: err}
			sessionLogger(s).Warn("booking attempt failed",
				"item", item.Name,
				"method", string(method),
				"attempt", attempt,
				"error", err.Error())
		}

		e.emit(s, Event{
			Type:    "booking_escalation",
			Section: SectionBooking,
			Message: fmt.Sprintf("%s failed via %s, escalating", item.Name, method),
			Data: map[string]any{
				"item":   item.Name,
				"method": string(method),
				"error":  lastErr.Error(),
			},
		})
	}

	outcome.Status = BookingFailed
	outcome.Method = MethodManualRequired
	outcome.SuggestedActions = manualActions(item)
	e.emit(s, Event{
		Type:    "booking_manual_required",
		Section: SectionBooking,
		Message: fmt.Sprintf("All automated booking channels failed for %s", item.Name),
		Data: map[string]any{
			"item":             item.Name,
			"suggestedActions": outcome.SuggestedActions,
		},
	})
	return outcome, nil
}

// BookCart escalates every cart item in order: flights, hotels, then
// activities. A manual_required item does not stop the remaining items.
func (e *EscalationEngine) BookCart(ctx context.Context, s *Session) ([]BookingOutcome, error) {
	items := cartBookingItems(s.Cart)
	outcomes := make([]BookingOutcome, 0, len(items))
	for i, item := range items {
		e.emit(s, Event{
			Type:     "booking_progress",
			Section:  SectionBooking,
			Message:  fmt.Sprintf("Booking %s (%d of %d)", item.Name, i+1, len(items)),
			Progress: i * 100 / len(items),
		})
		outcome, err := e.BookItem(ctx, s, item)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, outcome)
	}
	e.emit(s, Event{
		Type:     "booking_progress",
		Section:  SectionBooking,
		Message:  "Booking pass complete",
		Progress: 100,
	})
	return outcomes, nil
}

func (e *EscalationEngine) emit(s *Session, ev Event) {
	ev.Timestamp = time.Now()
	s.recordEvent(ev)
	e.emitter.Emit(s.ID, ev)
}

// ConfirmationNumbers groups outcome confirmations per category: one
// number for the flight and the hotel, a list for activities. Items that
// ended manual-required report "N/A".
func ConfirmationNumbers(outcomes []BookingOutcome) map[string]any {
	numbers := map[string]any{
		"flights":    "N/A",
		"hotels":     "N/A",
		"activities": []string{},
	}
	activities := []string{}
	for _, outcome := range outcomes {
		confirmation := outcome.Confirmation
		if confirmation == "" {
			confirmation = "N/A"
		}
		switch outcome.Item.Type {
		case CategoryFlights:
			numbers["flights"] = confirmation
		case CategoryHotels:
			numbers["hotels"] = confirmation
		case CategoryActivities:
			activities = append(activities, confirmation)
		}
	}
	numbers["activities"] = activities
	return numbers
}

func cartBookingItems(cart Cart) []BookingItem {
	var items []BookingItem
	for _, flight := range cart.Flights {
		items = append(items, BookingItem{
			Type:        CategoryFlights,
			Name:        flight.Airline + " " + flight.FlightNumber,
			Price:       flight.Price,
			Description: flight.DepartureAirport + " to " + flight.DestinationAirport,
		})
	}
	for _, hotel := range cart.Hotels {
		items = append(items, BookingItem{
			Type:        CategoryHotels,
			Name:        hotel.Name,
			Price:       hotel.TotalCost,
			Description: fmt.Sprintf("%d nights, check-in %s", hotel.Nights, hotel.CheckInDate),
		})
	}
	for _, activity := range cart.Activities {
		items = append(items, BookingItem{
			Type:        CategoryActivities,
			Name:        activity.Name,
			Price:       activity.Price,
			Description: activity.Description,
		})
	}
	return items
}

func manualActions(item BookingItem) []string {
	switch item.Type {
	case CategoryFlights:
		return []string{
			"Call the airline reservation desk directly",
			"Book through the airline's website",
			"Contact a travel agent",
		}
	case CategoryHotels:
		return []string{
			"Call the hotel front desk to reserve",
			"Book through the hotel's website",
			"Try an alternative booking site",
		}
	default:
		return []string{
			"Book at the venue on arrival",
			"Check the provider's website for online tickets",
		}
	}
}

// Safety checkpoint thresholds, applied only at full automation.
const (
	checkpointBudgetCeiling = 1.2
	checkpointFlightShare   = 0.7
	checkpointHotelShare    = 0.6
)

// SafetyCheckpoint verifies a cart before unattended booking. Only
// automation level 4 is checked; lower levels have a human in the loop
// and pass unconditionally.
func SafetyCheckpoint(s *Session) error {
	if s.AutomationLevel < 4 {
		return nil
	}

	var issues []string
	budget := s.Preferences.Budget
	total := CalculateTotalCost(s.Cart)

	if budget > 0 && total > budget*checkpointBudgetCeiling {
		issues = append(issues, fmt.Sprintf("Total cost $%.2f exceeds 120%% of budget $%.2f", total, budget))
	}
	if budget > 0 {
		for _, flight := range s.Cart.Flights {
			if flight.Price > budget*checkpointFlightShare {
				issues = append(issues, fmt.Sprintf("Flight cost $%.2f exceeds 70%% of budget", flight.Price))
				break
			}
		}
		for _, hotel := range s.Cart.Hotels {
			if hotel.TotalCost > budget*checkpointHotelShare {
				issues = append(issues, fmt.Sprintf("Hotel cost $%.2f exceeds 60%% of budget", hotel.TotalCost))
				break
			}
		}
	}
	if s.Preferences.PaymentMethod == "" {
		issues = append(issues, "No payment method on file")
	}
	if !s.Preferences.PassportVerified {
		issues = append(issues, "Passport not verified")
	}

	if len(issues) > 0 {
		return &SafetyCheckpointError{Issues: issues}
	}
	return nil
}
