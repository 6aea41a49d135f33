package planner

import (
	"context"
	"fmt"
	"time"
)

// defaultAgentTimeout bounds one search agent call.
const defaultAgentTimeout = 30 * time.Second

// CoordinationResult is the fan-in product of one coordinator pass.
type CoordinationResult struct {
	Candidates      CandidateSet
	Errors          map[Category]error
	StartTime       time.Time
	FirstResultTime time.Time
	CompletionTime  time.Time
	Durations       map[Category]time.Duration
}

// Duration is the wall-clock span of the whole coordination phase. It is
// bounded by the slowest agent, not the sum of all agents.
func (r CoordinationResult) Duration() time.Duration {
	return r.CompletionTime.Sub(r.StartTime)
}

// Coordinator fans out one search task per requested category and joins
// on all of them. A failing agent never cancels its siblings.
type Coordinator struct {
	agents  map[Category]SearchAgent
	timeout time.Duration
	emitter Emitter
}

// NewCoordinator builds a coordinator over the given agents.
func NewCoordinator(agents []SearchAgent, timeout time.Duration, emitter Emitter) *Coordinator {
	if timeout <= 0 {
		timeout = defaultAgentTimeout
	}
	if emitter == nil {
		emitter = NoopEmitter{}
	}
	byCategory := make(map[Category]SearchAgent, len(agents))
	for _, agent := range agents {
		byCategory[agent.Category()] = agent
	}
	return &Coordinator{agents: byCategory, timeout: timeout, emitter: emitter}
}

type searchOutcome struct {
	category Category
	result   SearchResult
	err      error
	duration time.Duration
}

// Run searches the given categories concurrently against a read-only copy
// of the session's shared context. Per-agent prior context is computed
// once at launch: on a full parallel pass nothing has produced context yet
// and every agent runs independent; on a single-category rerun after
// backtracking the prior category's context exists and the agent runs
// enriched. The call blocks until every launched task has finished,
// successfully or not, and only then mutates the session.
func (c *Coordinator) Run(ctx context.Context, s *Session, categories []Category) CoordinationResult {
	result := CoordinationResult{
		Errors:    map[Category]error{},
		StartTime: time.Now(),
		Durations: map[Category]time.Duration{},
	}

	shared := c.sharedContext(s, len(categories) > 1)
	prior := PriorContext{
		Flight: ExtractFlightContext(s),
		Hotel:  ExtractHotelContext(s),
	}

	outcomes := make(chan searchOutcome, len(categories))
	launched := 0
	for _, category := range categories {
		agent, ok := c.agents[category]
		if !ok {
			result.Errors[category] = &AgentError{Category: category, Err: fmt.Errorf("no agent registered")}
			s.AgentStatus[category] = AgentFailed
			continue
		}
		s.AgentStatus[category] = AgentWorking
		launched++

		go func(category Category, agent SearchAgent) {
			started := time.Now()
			agentCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			res, err := c.search(agentCtx, agent, shared, prior)
			outcomes <- searchOutcome{
				category: category,
				result:   res,
				err:      err,
				duration: time.Since(started),
			}
		}(category, agent)
	}

	for i := 0; i < launched; i++ {
		outcome := <-outcomes
		result.Durations[outcome.category] = outcome.duration
		if result.FirstResultTime.IsZero() {
			result.FirstResultTime = time.Now()
		}

		if outcome.err != nil {
			agentErr := &AgentError{Category: outcome.category, Err: outcome.err}
			result.Errors[outcome.category] = agentErr
			s.AgentStatus[outcome.category] = AgentFailed
			sessionLogger(s).Error("search agent failed", "category", string(outcome.category), "error", outcome.err)
			c.emit(s, Event{
				Type:    "parallel_agent_error",
				Message: fmt.Sprintf("%s search failed: %v", outcome.category, outcome.err),
				Section: sectionFor(outcome.category),
			})
			continue
		}

		s.AgentStatus[outcome.category] = AgentComplete
		mergeCandidates(&result.Candidates, outcome.category, outcome.result)
		c.emit(s, Event{
			Type:    "parallel_agent_complete",
			Message: fmt.Sprintf("%s search completed", outcome.category),
			Section: sectionFor(outcome.category),
			Data:    map[string]any{"resultsCount": outcome.result.Count()},
		})
	}

	result.CompletionTime = time.Now()
	return result
}

func (c *Coordinator) sharedContext(s *Session, parallel bool) AgentContext {
	prefs := s.Preferences
	return AgentContext{
		Origin:          prefs.Origin,
		Destination:     prefs.Destination,
		StartDate:       prefs.StartDate,
		EndDate:         prefs.EndDate,
		Travelers:       prefs.Travelers,
		Budget:          prefs.Budget,
		Allocation:      DistributeBudget(prefs.Budget),
		AutomationLevel: s.AutomationLevel,
		Interests:       append([]string(nil), prefs.Interests...),
		FlightPrefs:     prefs.FlightPrefs,
		HotelAmenities:  append([]string(nil), prefs.HotelAmenities...),
		ParallelMode:    parallel,
	}
}

// search picks the call shape: enriched when the prior category's context
// already exists, independent otherwise. Flights never have a prior.
func (c *Coordinator) search(ctx context.Context, agent SearchAgent, shared AgentContext, prior PriorContext) (SearchResult, error) {
	switch agent.Category() {
	case CategoryHotels:
		if prior.Flight != nil {
			return agent.SearchEnriched(ctx, shared, PriorContext{Flight: prior.Flight})
		}
	case CategoryActivities:
		if prior.Hotel != nil {
			return agent.SearchEnriched(ctx, shared, PriorContext{Hotel: prior.Hotel})
		}
	}
	return agent.SearchIndependent(ctx, shared)
}

func (c *Coordinator) emit(s *Session, ev Event) {
	ev.Timestamp = time.Now()
	s.recordEvent(ev)
	c.emitter.Emit(s.ID, ev)
}

func mergeCandidates(set *CandidateSet, category Category, result SearchResult) {
	switch category {
	case CategoryFlights:
		set.Flights = result.Flights
	case CategoryHotels:
		set.Hotels = result.Hotels
	case CategoryActivities:
		set.Activities = result.Activities
	}
}

func sectionFor(category Category) string {
	switch category {
	case CategoryFlights:
		return SectionFlights
	case CategoryHotels:
		return SectionAccommodation
	case CategoryActivities:
		return SectionActivities
	}
	return SectionGeneral
}
