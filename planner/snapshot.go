package planner

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mohae/deepcopy"
)

// maxBacktrackHistory bounds the snapshot history. Saving beyond the bound
// evicts the oldest entry and its snapshot together.
const maxBacktrackHistory = 10

// SnapshotManager owns the session's snapshot map and backtrack history.
// All snapshot creation, restoration and eviction goes through it.
type SnapshotManager struct{}

// NewSnapshotManager returns a manager. It carries no state of its own;
// everything lives on the session so it survives serialization.
func NewSnapshotManager() *SnapshotManager {
	return &SnapshotManager{}
}

// Save deep-copies the restorable session state into a new snapshot and
// appends a backtrack point. Evicts the oldest snapshot once the history
// exceeds its bound, keeping the history and the snapshot map in step.
func (m *SnapshotManager) Save(s *Session, label string) *Snapshot {
	snap := &Snapshot{
		ID:                  uuid.New().String(),
		Timestamp:           time.Now(),
		Label:               label,
		Step:                s.CurrentStep,
		Preferences:         deepcopy.Copy(s.Preferences).(Preferences),
		Cart:                deepcopy.Copy(s.Cart).(Cart),
		AutomationLevel:     s.AutomationLevel,
		CartVersion:         s.CartVersion,
		AgentStatus:         make(map[Category]AgentState, len(s.AgentStatus)),
		AgentCommunications: make([]AgentCommunication, 0, len(s.AgentCommunications)),
	}
	for cat, state := range s.AgentStatus {
		snap.AgentStatus[cat] = state
	}
	for _, comm := range s.AgentCommunications {
		snap.AgentCommunications = append(snap.AgentCommunications, deepcopy.Copy(comm).(AgentCommunication))
	}

	s.Snapshots[snap.ID] = snap
	s.BacktrackHistory = append(s.BacktrackHistory, BacktrackPoint{
		SnapshotID: snap.ID,
		Label:      label,
		Step:       s.CurrentStep,
		Timestamp:  snap.Timestamp,
	})

	for len(s.BacktrackHistory) > maxBacktrackHistory {
		evicted := s.BacktrackHistory[0]
		s.BacktrackHistory = s.BacktrackHistory[1:]
		delete(s.Snapshots, evicted.SnapshotID)
	}

	sessionLogger(s).Debug("snapshot saved",
		"snapshot_id", snap.ID,
		"label", label,
		"history_len", len(s.BacktrackHistory))
	return snap
}

// Restore copies a snapshot's state back onto the session. The snapshot
// itself is never mutated; restored state is deep-copied out so a later
// restore of the same snapshot sees the original.
func (m *SnapshotManager) Restore(s *Session, snapshotID string) error {
	snap, ok := s.Snapshots[snapshotID]
	if !ok {
		return ErrSnapshotNotFound
	}

	s.Preferences = deepcopy.Copy(snap.Preferences).(Preferences)
	s.Cart = deepcopy.Copy(snap.Cart).(Cart)
	s.AutomationLevel = snap.AutomationLevel
	s.CartVersion = snap.CartVersion
	s.CurrentStep = snap.Step

	s.AgentStatus = make(map[Category]AgentState, len(snap.AgentStatus))
	for cat, state := range snap.AgentStatus {
		s.AgentStatus[cat] = state
	}
	s.AgentCommunications = make([]AgentCommunication, 0, len(snap.AgentCommunications))
	for _, comm := range snap.AgentCommunications {
		s.AgentCommunications = append(s.AgentCommunications, deepcopy.Copy(comm).(AgentCommunication))
	}
	s.CartDependencies = RebuildDependencies(s.Cart)

	sessionLogger(s).Info("snapshot restored",
		"snapshot_id", snapshotID,
		"label", snap.Label,
		"restored_step", string(snap.Step))
	return nil
}

// BacktrackTo restores a snapshot and discards everything recorded after
// it: later snapshots, later backtrack points, and later events. The
// restored point itself stays available for repeated backtracking.
func (m *SnapshotManager) BacktrackTo(s *Session, snapshotID string) error {
	snap, ok := s.Snapshots[snapshotID]
	if !ok {
		return ErrSnapshotNotFound
	}
	if err := m.Restore(s, snapshotID); err != nil {
		return err
	}

	cutoff := snap.Timestamp

	kept := s.BacktrackHistory[:0]
	for _, point := range s.BacktrackHistory {
		if point.Timestamp.After(cutoff) {
			delete(s.Snapshots, point.SnapshotID)
			continue
		}
		kept = append(kept, point)
	}
	s.BacktrackHistory = kept

	keptEvents := s.Events[:0]
	for _, ev := range s.Events {
		if ev.Timestamp.After(cutoff) {
			continue
		}
		keptEvents = append(keptEvents, ev)
	}
	s.Events = keptEvents

	return nil
}

// History lists the backtrack points oldest first.
func (m *SnapshotManager) History(s *Session) []BacktrackPoint {
	out := make([]BacktrackPoint, len(s.BacktrackHistory))
	copy(out, s.BacktrackHistory)
	return out
}

// BacktrackPointView is the user-facing form of a backtrack point.
type BacktrackPointView struct {
	SnapshotID  string    `json:"snapshotId" yaml:"snapshotId"`
	Label       string    `json:"label" yaml:"label"`
	Description string    `json:"description" yaml:"description"`
	Step        Step      `json:"step" yaml:"step"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
	TimeAgo     string    `json:"timeAgo" yaml:"timeAgo"`
	CanReturn   bool      `json:"canReturn" yaml:"canReturn"`
}

// DescribeHistory lists the backtrack points oldest first with a
// human-readable description and relative age per point.
func (m *SnapshotManager) DescribeHistory(s *Session, now time.Time) []BacktrackPointView {
	views := make([]BacktrackPointView, 0, len(s.BacktrackHistory))
	for _, point := range s.BacktrackHistory {
		snap, ok := s.Snapshots[point.SnapshotID]
		if !ok {
			continue
		}
		views = append(views, BacktrackPointView{
			SnapshotID:  point.SnapshotID,
			Label:       point.Label,
			Description: describeSnapshot(snap),
			Step:        point.Step,
			Timestamp:   point.Timestamp,
			TimeAgo:     formatTimeAgo(now, point.Timestamp),
			CanReturn:   true,
		})
	}
	return views
}

func describeSnapshot(snap *Snapshot) string {
	switch snap.Label {
	case "preferences_collected":
		dest := snap.Preferences.Destination
		if dest == "" {
			dest = "your trip"
		}
		return fmt.Sprintf("After collecting preferences for %s", dest)
	case "search_complete":
		if len(snap.Cart.Flights) > 0 {
			return fmt.Sprintf("After selecting %s flight", snap.Cart.Flights[0].Airline)
		}
		return "After the parallel search pass"
	case "results_aggregated":
		return "After ranking and combining results"
	case "cart_review":
		return fmt.Sprintf("Cart review - Total: $%.2f", snap.Cart.TotalCost)
	case "pre_booking":
		return fmt.Sprintf("Ready to book - Total: $%.2f", snap.Cart.TotalCost)
	default:
		return fmt.Sprintf("Step: %s", strings.ReplaceAll(snap.Label, "_", " "))
	}
}

func formatTimeAgo(now, t time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return pluralAgo(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return pluralAgo(int(diff.Hours()), "hour")
	default:
		return pluralAgo(int(diff.Hours()/24), "day")
	}
}

func pluralAgo(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
