package planner

import (
	"time"

	"github.com/google/uuid"
)

// Step identifies a conversation state machine step.
type Step string

const (
	StepWelcome            Step = "welcome"
	StepCollectPreferences Step = "collect_preferences"
	StepOrchestrator       Step = "orchestrator"
	StepAwaitingInfo       Step = "awaiting_information"
	StepParallelSearch     Step = "parallel_search"
	StepProgressiveFilter  Step = "progressive_filter"
	StepResultsAggregation Step = "results_aggregation"
	StepLevel1             Step = "level_1"
	StepLevel2             Step = "level_2"
	StepLevel3             Step = "level_3"
	StepLevel4             Step = "level_4"
	StepCartReview         Step = "cart_review"
	StepModifyFlights      Step = "modify_flights"
	StepModifyHotels       Step = "modify_hotels"
	StepModifyActivities   Step = "modify_activities"
	StepConfirm            Step = "confirm"
	StepBookingExecution   Step = "booking_execution"
	StepItinerary          Step = "itinerary_generation"
	StepComplete           Step = "complete"
	StepError              Step = "error"
)

// Category identifies a search/booking category.
type Category string

const (
	CategoryFlights    Category = "flights"
	CategoryHotels     Category = "hotels"
	CategoryActivities Category = "activities"
)

// AllCategories in pipeline order: flights feed hotels feed activities.
var AllCategories = []Category{CategoryFlights, CategoryHotels, CategoryActivities}

// AgentState tracks one search agent's progress within a session.
type AgentState string

const (
	AgentPending  AgentState = "pending"
	AgentWorking  AgentState = "working"
	AgentComplete AgentState = "complete"
	AgentFailed   AgentState = "error"
)

// ComponentsNeeded records which trip components the user asked for.
type ComponentsNeeded struct {
	Flights    bool `json:"flights" yaml:"flights"`
	Hotels     bool `json:"hotels" yaml:"hotels"`
	Activities bool `json:"activities" yaml:"activities"`
}

// AllComponents requests every category.
func AllComponents() ComponentsNeeded {
	return ComponentsNeeded{Flights: true, Hotels: true, Activities: true}
}

// Requested returns the requested categories in pipeline order.
func (c ComponentsNeeded) Requested() []Category {
	var cats []Category
	if c.Flights {
		cats = append(cats, CategoryFlights)
	}
	if c.Hotels {
		cats = append(cats, CategoryHotels)
	}
	if c.Activities {
		cats = append(cats, CategoryActivities)
	}
	return cats
}

// Includes reports whether the category was requested.
func (c ComponentsNeeded) Includes(cat Category) bool {
	switch cat {
	case CategoryFlights:
		return c.Flights
	case CategoryHotels:
		return c.Hotels
	case CategoryActivities:
		return c.Activities
	}
	return false
}

// FlightPreferences are explicit flight constraints supplied by the user.
type FlightPreferences struct {
	PreferredAirlines []string `json:"preferredAirlines,omitempty" yaml:"preferredAirlines,omitempty"`
	NonstopOnly       bool     `json:"nonstopOnly,omitempty" yaml:"nonstopOnly,omitempty"`
	Cabin             string   `json:"cabin,omitempty" yaml:"cabin,omitempty"`
}

// Preferences holds everything the user told us about the trip.
type Preferences struct {
	Origin           string            `json:"origin,omitempty" yaml:"origin,omitempty"`
	Destination      string            `json:"destination" yaml:"destination"`
	StartDate        string            `json:"startDate" yaml:"startDate"`
	EndDate          string            `json:"endDate" yaml:"endDate"`
	Travelers        int               `json:"travelers" yaml:"travelers"`
	Budget           float64           `json:"budget" yaml:"budget"`
	TravelStyle      string            `json:"travelStyle,omitempty" yaml:"travelStyle,omitempty"`
	Interests        []string          `json:"interests,omitempty" yaml:"interests,omitempty"`
	FlightPrefs      FlightPreferences `json:"flightPreferences,omitempty" yaml:"flightPreferences,omitempty"`
	HotelAmenities   []string          `json:"hotelAmenities,omitempty" yaml:"hotelAmenities,omitempty"`
	PaymentMethod    string            `json:"paymentMethod,omitempty" yaml:"paymentMethod,omitempty"`
	PassportVerified bool              `json:"passportVerified,omitempty" yaml:"passportVerified,omitempty"`
	InputType        string            `json:"inputType,omitempty" yaml:"inputType,omitempty"`
	InitialMessage   string            `json:"initialMessage,omitempty" yaml:"initialMessage,omitempty"`
}

// Flight is one flight candidate or selection.
type Flight struct {
	ID                 string  `json:"id" yaml:"id"`
	Airline            string  `json:"airline" yaml:"airline"`
	FlightNumber       string  `json:"flightNumber" yaml:"flightNumber"`
	DepartureAirport   string  `json:"departureAirport" yaml:"departureAirport"`
	DestinationAirport string  `json:"destinationAirport" yaml:"destinationAirport"`
	DepartureTime      string  `json:"departureTime" yaml:"departureTime"`
	ArrivalTime        string  `json:"arrivalTime" yaml:"arrivalTime"`
	ArrivalDate        string  `json:"arrivalDate" yaml:"arrivalDate"`
	DurationHours      float64 `json:"durationHours" yaml:"durationHours"`
	Stops              int     `json:"stops" yaml:"stops"`
	Cabin              string  `json:"cabin,omitempty" yaml:"cabin,omitempty"`
	Price              float64 `json:"price" yaml:"price"`
	Rating             float64 `json:"rating" yaml:"rating"`
	PriorityScore      float64 `json:"priorityScore,omitempty" yaml:"priorityScore,omitempty"`
}

// Hotel is one lodging candidate or selection.
type Hotel struct {
	ID                string   `json:"id" yaml:"id"`
	Name              string   `json:"name" yaml:"name"`
	Location          string   `json:"location" yaml:"location"`
	Lat               float64  `json:"lat,omitempty" yaml:"lat,omitempty"`
	Lon               float64  `json:"lon,omitempty" yaml:"lon,omitempty"`
	CheckInDate       string   `json:"checkInDate" yaml:"checkInDate"`
	CheckOutDate      string   `json:"checkOutDate" yaml:"checkOutDate"`
	CheckInTime       string   `json:"checkInTime,omitempty" yaml:"checkInTime,omitempty"`
	PricePerNight     float64  `json:"pricePerNight" yaml:"pricePerNight"`
	Nights            int      `json:"nights" yaml:"nights"`
	TotalCost         float64  `json:"totalCost" yaml:"totalCost"`
	Rating            float64  `json:"rating" yaml:"rating"`
	AirportDistanceKM float64  `json:"airportDistanceKm" yaml:"airportDistanceKm"`
	LocationScore     float64  `json:"locationScore,omitempty" yaml:"locationScore,omitempty"`
	Amenities         []string `json:"amenities,omitempty" yaml:"amenities,omitempty"`
	ArrivalCompatible bool     `json:"arrivalCompatible,omitempty" yaml:"arrivalCompatible,omitempty"`
	PriorityScore     float64  `json:"priorityScore,omitempty" yaml:"priorityScore,omitempty"`
}

// Activity is one activity candidate or selection.
type Activity struct {
	ID                string   `json:"id" yaml:"id"`
	Name              string   `json:"name" yaml:"name"`
	Description       string   `json:"description,omitempty" yaml:"description,omitempty"`
	Lat               float64  `json:"lat,omitempty" yaml:"lat,omitempty"`
	Lon               float64  `json:"lon,omitempty" yaml:"lon,omitempty"`
	Price             float64  `json:"price" yaml:"price"`
	Rating            float64  `json:"rating" yaml:"rating"`
	DurationHours     float64  `json:"durationHours,omitempty" yaml:"durationHours,omitempty"`
	Categories        []string `json:"categories,omitempty" yaml:"categories,omitempty"`
	PopularityScore   float64  `json:"popularityScore,omitempty" yaml:"popularityScore,omitempty"`
	DistanceToHotelKM float64  `json:"distanceToHotelKm,omitempty" yaml:"distanceToHotelKm,omitempty"`
	PriorityScore     float64  `json:"priorityScore,omitempty" yaml:"priorityScore,omitempty"`
}

// Cart holds the current selections. A nil category slice means the
// component was not requested; an empty slice means requested but nothing
// chosen yet.
type Cart struct {
	Flights    []Flight   `json:"flights" yaml:"flights"`
	Hotels     []Hotel    `json:"hotels" yaml:"hotels"`
	Activities []Activity `json:"activities" yaml:"activities"`
	TotalCost  float64    `json:"totalCost" yaml:"totalCost"`
	Version    int        `json:"version" yaml:"version"`
}

// NewCart initializes category slices for the requested components only.
func NewCart(components ComponentsNeeded) Cart {
	cart := Cart{Version: 1}
	if components.Flights {
		cart.Flights = []Flight{}
	}
	if components.Hotels {
		cart.Hotels = []Hotel{}
	}
	if components.Activities {
		cart.Activities = []Activity{}
	}
	return cart
}

// Message is one entry in the session's conversation log.
type Message struct {
	Role      string    `json:"role" yaml:"role"`
	Content   string    `json:"content" yaml:"content"`
	Step      Step      `json:"step,omitempty" yaml:"step,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Cross-agent context types carried in AgentCommunication records.
const (
	ContextFlightArrival = "flight_arrival"
	ContextHotelLocation = "hotel_location"
)

// AgentCommunication is an append-only cross-agent context message.
// Consumers read the most recent matching entry and never mutate it.
type AgentCommunication struct {
	From        string         `json:"from" yaml:"from"`
	To          string         `json:"to" yaml:"to"`
	Message     string         `json:"message" yaml:"message"`
	Context     map[string]any `json:"context" yaml:"context"`
	ContextType string         `json:"contextType" yaml:"contextType"`
	Timestamp   time.Time      `json:"timestamp" yaml:"timestamp"`
}

// Dependency relationships between cart items.
const (
	RelationArrivalLocation = "arrival_location"
	RelationProximity       = "proximity"
)

// CartDependency records that one cart item causally depends on another.
type CartDependency struct {
	DependsOn    string `json:"dependsOn" yaml:"dependsOn"`
	Relationship string `json:"relationship" yaml:"relationship"`
	Description  string `json:"description" yaml:"description"`
}

// BacktrackPoint is one entry in the bounded backtrack history.
type BacktrackPoint struct {
	SnapshotID string    `json:"snapshotId" yaml:"snapshotId"`
	Label      string    `json:"label" yaml:"label"`
	Step       Step      `json:"step" yaml:"step"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
}

// Snapshot is an immutable point-in-time copy of session state, created
// and destroyed only by the SnapshotManager.
type Snapshot struct {
	ID                  string                  `json:"id" yaml:"id"`
	Timestamp           time.Time               `json:"timestamp" yaml:"timestamp"`
	Label               string                  `json:"label" yaml:"label"`
	Step                Step                    `json:"step" yaml:"step"`
	Preferences         Preferences             `json:"preferences" yaml:"preferences"`
	Cart                Cart                    `json:"cart" yaml:"cart"`
	AgentStatus         map[Category]AgentState `json:"agentStatus" yaml:"agentStatus"`
	AgentCommunications []AgentCommunication    `json:"agentCommunications" yaml:"agentCommunications"`
	AutomationLevel     int                     `json:"automationLevel" yaml:"automationLevel"`
	CartVersion         int                     `json:"cartVersion" yaml:"cartVersion"`
}

// Session is the complete state of one trip-planning conversation. It is
// exclusively owned by a single orchestration run; no two stages mutate it
// concurrently.
type Session struct {
	ID                  string                    `json:"id" yaml:"id"`
	CurrentStep         Step                      `json:"currentStep" yaml:"currentStep"`
	AutomationLevel     int                       `json:"automationLevel" yaml:"automationLevel"`
	Preferences         Preferences               `json:"preferences" yaml:"preferences"`
	Components          ComponentsNeeded          `json:"componentsNeeded" yaml:"componentsNeeded"`
	Messages            []Message                 `json:"messages" yaml:"messages"`
	AgentStatus         map[Category]AgentState   `json:"agentStatus" yaml:"agentStatus"`
	Cart                Cart                      `json:"cart" yaml:"cart"`
	CartVersion         int                       `json:"cartVersion" yaml:"cartVersion"`
	CartDependencies    map[string]CartDependency `json:"cartDependencies" yaml:"cartDependencies"`
	BacktrackHistory    []BacktrackPoint          `json:"backtrackHistory" yaml:"backtrackHistory"`
	Snapshots           map[string]*Snapshot      `json:"snapshots" yaml:"snapshots"`
	AgentCommunications []AgentCommunication      `json:"agentCommunications" yaml:"agentCommunications"`
	Events              []Event                   `json:"events" yaml:"events"`

	// Working results for the current search pass. Not part of the
	// snapshot surface; rebuilt on every coordinator run.
	Candidates CandidateSet       `json:"candidates,omitempty" yaml:"candidates,omitempty"`
	Filtered   CandidateSet       `json:"filtered,omitempty" yaml:"filtered,omitempty"`
	Aggregated *AggregatedResults `json:"aggregated,omitempty" yaml:"aggregated,omitempty"`
}

// CandidateSet groups raw or filtered candidates per category.
type CandidateSet struct {
	Flights    []Flight   `json:"flights,omitempty" yaml:"flights,omitempty"`
	Hotels     []Hotel    `json:"hotels,omitempty" yaml:"hotels,omitempty"`
	Activities []Activity `json:"activities,omitempty" yaml:"activities,omitempty"`
}

// AggregatedResults is the prioritized output of the results aggregation
// stage, ready for the automation-level branch.
type AggregatedResults struct {
	Flights      []Flight      `json:"flights" yaml:"flights"`
	Hotels       []Hotel       `json:"hotels" yaml:"hotels"`
	Activities   []Activity    `json:"activities" yaml:"activities"`
	Combinations []Combination `json:"combinations" yaml:"combinations"`
}

// NewSession creates a session for the given input with all bookkeeping
// structures initialized.
func NewSession(prefs Preferences, automationLevel int, components ComponentsNeeded) *Session {
	status := make(map[Category]AgentState)
	for _, cat := range components.Requested() {
		status[cat] = AgentPending
	}
	return &Session{
		ID:                  uuid.New().String(),
		CurrentStep:         StepWelcome,
		AutomationLevel:     automationLevel,
		Preferences:         prefs,
		Components:          components,
		Messages:            []Message{},
		AgentStatus:         status,
		Cart:                NewCart(components),
		CartVersion:         1,
		CartDependencies:    map[string]CartDependency{},
		BacktrackHistory:    []BacktrackPoint{},
		Snapshots:           map[string]*Snapshot{},
		AgentCommunications: []AgentCommunication{},
		Events:              []Event{},
	}
}

// AddMessage appends to the conversation log.
func (s *Session) AddMessage(role, content string) {
	s.Messages = append(s.Messages, Message{
		Role:      role,
		Content:   content,
		Step:      s.CurrentStep,
		Timestamp: time.Now(),
	})
}

// RecordCommunication appends a cross-agent context message.
func (s *Session) RecordCommunication(comm AgentCommunication) {
	if comm.Timestamp.IsZero() {
		comm.Timestamp = time.Now()
	}
	s.AgentCommunications = append(s.AgentCommunications, comm)
}
