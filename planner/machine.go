package planner

import (
	"context"
	"fmt"
	"time"
)

// Input starts or resumes an orchestration run.
type Input struct {
	Preferences     Preferences      `json:"preferences" yaml:"preferences"`
	Message         string           `json:"message,omitempty" yaml:"message,omitempty"`
	AutomationLevel int              `json:"automationLevel" yaml:"automationLevel"`
	Components      ComponentsNeeded `json:"componentsNeeded" yaml:"componentsNeeded"`
}

// Result is the structured envelope every orchestration entry point
// returns, success or not.
type Result struct {
	Success       bool     `json:"success"`
	Data          any      `json:"data,omitempty"`
	ExecutionID   string   `json:"executionId"`
	ExecutionTime float64  `json:"executionTime"`
	StepCount     int      `json:"stepCount,omitempty"`
	Error         string   `json:"error,omitempty"`
	Session       *Session `json:"-"`
}

// PreferenceExtractor turns a free-form user message into structured
// preference updates. The default keeps the structured input untouched.
type PreferenceExtractor interface {
	Extract(ctx context.Context, message string, current Preferences) (Preferences, error)
}

// passthroughExtractor returns preferences unchanged; structured input is
// already authoritative.
type passthroughExtractor struct{}

func (passthroughExtractor) Extract(_ context.Context, _ string, current Preferences) (Preferences, error) {
	return current, nil
}

// ItineraryGenerator renders the final day-by-day plan.
type ItineraryGenerator interface {
	Generate(ctx context.Context, s *Session, bookings []BookingOutcome) (Itinerary, error)
}

// Engine drives a session through the conversation state machine.
type Engine struct {
	coordinator *Coordinator
	booking     *EscalationEngine
	snapshots   *SnapshotManager
	emitter     Emitter
	extractor   PreferenceExtractor
	itinerary   ItineraryGenerator
}

// EngineOptions configures optional collaborators.
type EngineOptions struct {
	Agents       []SearchAgent
	Layers       []BookingLayer
	RetryPolicy  RetryPolicy
	Emitter      Emitter
	Extractor    PreferenceExtractor
	Itinerary    ItineraryGenerator
	AgentTimeout time.Duration
}

// NewEngine wires the orchestration engine. Zero-value options get the
// default simulated agents and booking layers.
func NewEngine(opts EngineOptions) *Engine {
	if opts.Emitter == nil {
		opts.Emitter = NoopEmitter{}
	}
	if opts.Agents == nil {
		opts.Agents = []SearchAgent{
			NewFlightSearchAgent(0),
			NewHotelSearchAgent(0),
			NewActivitySearchAgent(0),
		}
	}
	if opts.Layers == nil {
		opts.Layers = DefaultBookingLayers(time.Now().UnixNano())
	}
	if opts.Extractor == nil {
		opts.Extractor = passthroughExtractor{}
	}
	if opts.Itinerary == nil {
		opts.Itinerary = defaultItineraryGenerator{}
	}
	return &Engine{
		coordinator: NewCoordinator(opts.Agents, opts.AgentTimeout, opts.Emitter),
		booking:     NewEscalationEngine(opts.Layers, opts.RetryPolicy, opts.Emitter),
		snapshots:   NewSnapshotManager(),
		emitter:     opts.Emitter,
		extractor:   opts.Extractor,
		itinerary:   opts.Itinerary,
	}
}

// Booking exposes the escalation engine, mainly so callers can swap the
// backoff sleep in tests.
func (e *Engine) Booking() *EscalationEngine { return e.booking }

// Snapshots exposes the snapshot manager.
func (e *Engine) Snapshots() *SnapshotManager { return e.snapshots }

// requiredPreferences are the fields the orchestrator cannot proceed
// without.
func missingPreferences(p Preferences) []string {
	var missing []string
	if p.Destination == "" {
		missing = append(missing, "destination")
	}
	if p.StartDate == "" {
		missing = append(missing, "startDate")
	}
	if p.EndDate == "" {
		missing = append(missing, "endDate")
	}
	if p.Travelers <= 0 {
		missing = append(missing, "travelers")
	}
	if p.Budget <= 0 {
		missing = append(missing, "budget")
	}
	return missing
}

// Run executes a fresh orchestration from the welcome step. Missing
// required preferences suspend the session at awaiting_information
// rather than failing the run.
func (e *Engine) Run(ctx context.Context, input Input) Result {
	start := time.Now()

	level := input.AutomationLevel
	if level < 1 {
		level = 1
	}
	if level > 4 {
		level = 4
	}
	components := input.Components
	if !components.Flights && !components.Hotels && !components.Activities {
		components = AllComponents()
	}

	s := NewSession(input.Preferences, level, components)
	log := sessionLogger(s)
	log.Info("orchestration started", "automation_level", level)

	s.CurrentStep = StepWelcome
	e.emit(s, Event{Type: "session_started", Section: SectionGeneral,
		Message: "Trip planning started"})
	if input.Message != "" {
		s.AddMessage("user", input.Message)
		if s.Preferences.InputType == "" && s.Preferences.Destination == "" {
			s.Preferences.InputType = "conversational"
			s.Preferences.InitialMessage = input.Message
		}
	}

	s.CurrentStep = StepCollectPreferences
	prefs, err := e.extractor.Extract(ctx, input.Message, s.Preferences)
	if err != nil {
		return e.fail(s, start, fmt.Errorf("preference extraction: %w", err))
	}
	s.Preferences = prefs

	return e.advance(ctx, s, start)
}

// Resume continues a session suspended at awaiting_information with the
// newly supplied preferences merged in.
func (e *Engine) Resume(ctx context.Context, s *Session, updates Preferences) Result {
	start := time.Now()
	mergePreferences(&s.Preferences, updates)
	return e.advance(ctx, s, start)
}

// advance runs the orchestrator gate and, when preferences are complete,
// the search pipeline and automation-level branch.
func (e *Engine) advance(ctx context.Context, s *Session, start time.Time) Result {
	s.CurrentStep = StepOrchestrator
	if missing := missingPreferences(s.Preferences); len(missing) > 0 {
		s.CurrentStep = StepAwaitingInfo
		e.emit(s, Event{
			Type:    "missing_information",
			Section: SectionGeneral,
			Message: "More information needed before searching",
			Data:    map[string]any{"missing": missing},
		})
		sessionLogger(s).Info("awaiting information", "missing", missing)
		return Result{
			Success:       true,
			Data:          map[string]any{"status": "awaiting_information", "missing": missing},
			ExecutionID:   s.ID,
			ExecutionTime: time.Since(start).Seconds(),
			StepCount:     s.stepCount(),
			Session:       s,
		}
	}

	e.snapshots.Save(s, "preferences_collected")

	if err := e.searchPipeline(ctx, s); err != nil {
		return e.fail(s, start, err)
	}

	return e.levelBranch(ctx, s, start)
}

// searchPipeline runs parallel search, progressive filtering and results
// aggregation, snapshotting after each stage.
func (e *Engine) searchPipeline(ctx context.Context, s *Session) error {
	s.CurrentStep = StepParallelSearch
	categories := s.Components.Requested()
	coord := e.coordinator.Run(ctx, s, categories)
	if len(coord.Errors) == len(categories) {
		return fmt.Errorf("all search agents failed: %v", coord.Errors)
	}
	s.Candidates = coord.Candidates
	e.snapshots.Save(s, "search_complete")

	s.CurrentStep = StepProgressiveFilter
	s.Filtered = ApplyProgressiveFilter(s, s.Candidates)
	e.emit(s, Event{
		Type:    "filter_complete",
		Section: SectionGeneral,
		Message: "Candidates filtered",
		Data: map[string]any{
			"flights":    len(s.Filtered.Flights),
			"hotels":     len(s.Filtered.Hotels),
			"activities": len(s.Filtered.Activities),
		},
	})

	s.CurrentStep = StepResultsAggregation
	s.Aggregated = AggregateResults(s.Filtered, s.Preferences)
	e.emit(s, Event{
		Type:    "results_ready",
		Section: SectionGeneral,
		Message: fmt.Sprintf("%d trip combinations prepared", len(s.Aggregated.Combinations)),
	})
	e.snapshots.Save(s, "results_aggregated")
	return nil
}

// levelBranch applies the automation level: levels 1 and 2 stop at cart
// review, level 3 continues through booking after showing the plan, level
// 4 books unattended behind the safety checkpoint.
func (e *Engine) levelBranch(ctx context.Context, s *Session, start time.Time) Result {
	switch s.AutomationLevel {
	case 1:
		s.CurrentStep = StepLevel1
		s.CurrentStep = StepCartReview
		return e.reviewResult(s, start, "candidates ready for manual selection")
	case 2:
		s.CurrentStep = StepLevel2
		e.autoSelect(s)
		s.CurrentStep = StepCartReview
		return e.reviewResult(s, start, "recommended selections staged for review")
	case 3:
		s.CurrentStep = StepLevel3
		e.autoSelect(s)
		s.CurrentStep = StepCartReview
		return e.Confirm(ctx, s)
	default:
		s.CurrentStep = StepLevel4
		e.autoSelect(s)
		if err := SafetyCheckpoint(s); err != nil {
			s.CurrentStep = StepCartReview
			e.emit(s, Event{
				Type:    "safety_checkpoint_failed",
				Section: SectionCart,
				Message: "Unattended booking blocked, review required",
				Data:    map[string]any{"issues": err.(*SafetyCheckpointError).Issues},
			})
			return e.reviewResult(s, start, "safety checkpoint requires review")
		}
		return e.Confirm(ctx, s)
	}
}

// autoSelect fills the cart from the best combination, falling back to the
// top-ranked candidate per requested category.
func (e *Engine) autoSelect(s *Session) {
	agg := s.Aggregated
	if agg == nil {
		return
	}

	var flight *Flight
	var hotel *Hotel
	var activities []Activity
	if len(agg.Combinations) > 0 {
		combo := agg.Combinations[0]
		flight, hotel = &combo.Flight, &combo.Hotel
		activities = combo.Activities
	} else {
		if len(agg.Flights) > 0 {
			flight = &agg.Flights[0]
		}
		if len(agg.Hotels) > 0 {
			hotel = &agg.Hotels[0]
		}
		if len(agg.Activities) > 0 {
			n := len(agg.Activities)
			if n > maxComboActivities {
				n = maxComboActivities
			}
			activities = agg.Activities[:n]
		}
	}

	if s.Components.Flights && flight != nil {
		s.SelectFlight(*flight)
		s.RecordCommunication(FlightArrivalCommunication(*flight, s.Preferences.Destination))
	}
	if s.Components.Hotels && hotel != nil {
		s.SelectHotel(*hotel)
		s.RecordCommunication(HotelLocationCommunication(*hotel))
	}
	if s.Components.Activities && len(activities) > 0 {
		s.SetActivities(append([]Activity{}, activities...))
	}

	analysis := BudgetCompliance(s.Cart.TotalCost, s.Preferences.Budget)
	e.emit(s, Event{
		Type:    "cart_updated",
		Section: SectionCart,
		Message: analysis.Message,
		Data:    SummarizeCart(s.Cart, analysis),
	})
}

// reviewResult snapshots the cart and returns a review-stage envelope.
func (e *Engine) reviewResult(s *Session, start time.Time, note string) Result {
	e.snapshots.Save(s, "cart_review")
	validation := ValidateCart(s.Cart, s.Components)
	analysis := BudgetCompliance(CalculateTotalCost(s.Cart), s.Preferences.Budget)
	return Result{
		Success:     true,
		ExecutionID: s.ID,
		Data: map[string]any{
			"status":          string(s.CurrentStep),
			"note":            note,
			"results":         s.Aggregated,
			"cart":            SummarizeCart(s.Cart, analysis),
			"cartValidation":  validation,
			"backtrackPoints": e.snapshots.DescribeHistory(s, time.Now()),
		},
		ExecutionTime: time.Since(start).Seconds(),
		StepCount:     s.stepCount(),
		Session:       s,
	}
}

// Confirm proceeds from cart review through booking, itinerary generation
// and completion.
func (e *Engine) Confirm(ctx context.Context, s *Session) Result {
	start := time.Now()

	if missing := missingPreferences(s.Preferences); len(missing) > 0 {
		err := &MissingPreferenceError{Missing: missing}
		s.CurrentStep = StepAwaitingInfo
		e.emit(s, Event{
			Type:    "missing_information",
			Section: SectionGeneral,
			Message: err.Error(),
			Data:    map[string]any{"missing": missing},
		})
		return Result{
			Success:       false,
			Error:         err.Error(),
			ExecutionID:   s.ID,
			Data:          map[string]any{"status": string(StepAwaitingInfo), "missing": missing},
			ExecutionTime: time.Since(start).Seconds(),
			StepCount:     s.stepCount(),
			Session:       s,
		}
	}

	s.CurrentStep = StepConfirm
	validation := ValidateCart(s.Cart, s.Components)
	if !validation.Valid {
		return e.fail(s, start, &CartValidationError{Issues: validation.Issues})
	}
	analysis := BudgetCompliance(CalculateTotalCost(s.Cart), s.Preferences.Budget)
	e.emit(s, Event{
		Type:    "booking_confirmed",
		Section: SectionCart,
		Message: "Selections confirmed, starting booking",
		Data:    SummarizeCart(s.Cart, analysis),
	})
	e.snapshots.Save(s, "pre_booking")

	s.CurrentStep = StepBookingExecution
	outcomes, err := e.booking.BookCart(ctx, s)
	if err != nil {
		return e.fail(s, start, err)
	}

	s.CurrentStep = StepItinerary
	itinerary, err := e.itinerary.Generate(ctx, s, outcomes)
	if err != nil {
		return e.fail(s, start, err)
	}

	s.CurrentStep = StepComplete
	e.emit(s, Event{
		Type:    "trip_complete",
		Section: SectionGeneral,
		Message: "Trip planning complete",
	})
	sessionLogger(s).Info("orchestration complete",
		"bookings", len(outcomes),
		"total_cost", s.Cart.TotalCost)

	return Result{
		Success:     true,
		ExecutionID: s.ID,
		Data: map[string]any{
			"status":              string(StepComplete),
			"bookings":            outcomes,
			"confirmationNumbers": ConfirmationNumbers(outcomes),
			"itinerary":           itinerary,
			"cart":                SummarizeCart(s.Cart, analysis),
		},
		ExecutionTime: time.Since(start).Seconds(),
		StepCount:     s.stepCount(),
		Session:       s,
	}
}

// ModifyCategory backtracks one category: it reruns that category's search
// with the cross-agent context the other selections already provide, then
// returns the session to cart review.
func (e *Engine) ModifyCategory(ctx context.Context, s *Session, category Category) Result {
	start := time.Now()

	if !s.Components.Includes(category) {
		return e.fail(s, start, fmt.Errorf("category %s was not requested", category))
	}

	switch category {
	case CategoryFlights:
		s.CurrentStep = StepModifyFlights
	case CategoryHotels:
		s.CurrentStep = StepModifyHotels
	case CategoryActivities:
		s.CurrentStep = StepModifyActivities
	}
	e.emit(s, Event{
		Type:    "modification_started",
		Section: sectionFor(category),
		Message: fmt.Sprintf("Searching replacement %s", category),
	})

	coord := e.coordinator.Run(ctx, s, []Category{category})
	if err, ok := coord.Errors[category]; ok {
		return e.fail(s, start, err)
	}
	mergeCandidates(&s.Candidates, category, SearchResult{
		Flights:    coord.Candidates.Flights,
		Hotels:     coord.Candidates.Hotels,
		Activities: coord.Candidates.Activities,
	})
	s.Filtered = ApplyProgressiveFilter(s, s.Candidates)
	s.Aggregated = AggregateResults(s.Filtered, s.Preferences)

	s.CurrentStep = StepCartReview
	return e.reviewResult(s, start, fmt.Sprintf("updated %s options ready", category))
}

// Backtrack restores a saved snapshot and prunes later history.
func (e *Engine) Backtrack(s *Session, snapshotID string) Result {
	start := time.Now()
	if err := e.snapshots.BacktrackTo(s, snapshotID); err != nil {
		return e.fail(s, start, err)
	}
	e.emit(s, Event{
		Type:    "backtrack_complete",
		Section: SectionGeneral,
		Message: "Returned to earlier planning state",
		Data:    map[string]any{"snapshotId": snapshotID, "step": string(s.CurrentStep)},
	})
	return Result{
		Success:       true,
		ExecutionID:   s.ID,
		Data:          map[string]any{"status": string(s.CurrentStep)},
		ExecutionTime: time.Since(start).Seconds(),
		Session:       s,
	}
}

func (e *Engine) fail(s *Session, start time.Time, err error) Result {
	s.CurrentStep = StepError
	sessionLogger(s).Error("orchestration failed", "error", err.Error())
	e.emit(s, Event{
		Type:    "orchestration_error",
		Section: SectionGeneral,
		Message: err.Error(),
	})
	return Result{
		Success:       false,
		Error:         err.Error(),
		ExecutionID:   s.ID,
		ExecutionTime: time.Since(start).Seconds(),
		StepCount:     s.stepCount(),
		Session:       s,
	}
}

func (e *Engine) emit(s *Session, ev Event) {
	ev.Timestamp = time.Now()
	s.recordEvent(ev)
	e.emitter.Emit(s.ID, ev)
}

func (s *Session) stepCount() int {
	return len(s.Events)
}

func mergePreferences(dst *Preferences, src Preferences) {
	if src.Origin != "" {
		dst.Origin = src.Origin
	}
	if src.Destination != "" {
		dst.Destination = src.Destination
	}
	if src.StartDate != "" {
		dst.StartDate = src.StartDate
	}
	if src.EndDate != "" {
		dst.EndDate = src.EndDate
	}
	if src.Travelers > 0 {
		dst.Travelers = src.Travelers
	}
	if src.Budget > 0 {
		dst.Budget = src.Budget
	}
	if src.TravelStyle != "" {
		dst.TravelStyle = src.TravelStyle
	}
	if len(src.Interests) > 0 {
		dst.Interests = src.Interests
	}
	if len(src.FlightPrefs.PreferredAirlines) > 0 || src.FlightPrefs.NonstopOnly || src.FlightPrefs.Cabin != "" {
		dst.FlightPrefs = src.FlightPrefs
	}
	if len(src.HotelAmenities) > 0 {
		dst.HotelAmenities = src.HotelAmenities
	}
	if src.PaymentMethod != "" {
		dst.PaymentMethod = src.PaymentMethod
	}
	if src.PassportVerified {
		dst.PassportVerified = true
	}
}
