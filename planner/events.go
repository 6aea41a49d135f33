package planner

import (
	"time"

	"tripweaver/planner/pubsub"
)

// Event is one structured progress update sent to the UI sink.
type Event struct {
	Type      string    `json:"type" yaml:"type"`
	Message   string    `json:"message" yaml:"message"`
	Section   string    `json:"section,omitempty" yaml:"section,omitempty"`
	Data      any       `json:"data,omitempty" yaml:"data,omitempty"`
	Progress  int       `json:"progress,omitempty" yaml:"progress,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// UI sections events can target.
const (
	SectionFlights       = "flights"
	SectionAccommodation = "accommodation"
	SectionActivities    = "activities"
	SectionCart          = "cart"
	SectionBooking       = "booking"
	SectionGeneral       = "general"
)

// maxRetainedEvents bounds per-session event replay history.
const maxRetainedEvents = 50

// Emitter delivers events for a session. Implementations must be
// fire-and-forget: emission never blocks orchestration.
type Emitter interface {
	Emit(sessionID string, ev Event)
}

// EventTopic returns the pub/sub topic carrying a session's events.
func EventTopic(sessionID string) string {
	return "trip.events." + sessionID
}

// BusEmitter publishes events to the session's topic on an in-process bus.
type BusEmitter struct {
	bus pubsub.PubSub
}

// NewBusEmitter wraps a pub/sub bus as an Emitter.
func NewBusEmitter(bus pubsub.PubSub) *BusEmitter {
	return &BusEmitter{bus: bus}
}

func (e *BusEmitter) Emit(sessionID string, ev Event) {
	if e.bus == nil {
		return
	}
	err := e.bus.Publish(EventTopic(sessionID), &pubsub.Message{
		Payload:   ev,
		Timestamp: ev.Timestamp,
	})
	if err != nil {
		logger.Error("event publish failed", "session_id", sessionID, "type", ev.Type, "error", err)
	}
}

// NoopEmitter discards events.
type NoopEmitter struct{}

func (NoopEmitter) Emit(string, Event) {}

// recordEvent appends to the session's bounded replay log.
func (s *Session) recordEvent(ev Event) {
	s.Events = append(s.Events, ev)
	if len(s.Events) > maxRetainedEvents {
		s.Events = s.Events[len(s.Events)-maxRetainedEvents:]
	}
}
