package planner

import (
	"encoding/json"
	"fmt"
	"time"
)

// serializationVersion tags exported sessions for forward compatibility.
const serializationVersion = "1.0"

// ExportSession renders the session as a plain map with a _metadata
// envelope, suitable for JSON or YAML persistence.
func ExportSession(s *Session) (map[string]any, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	out["_metadata"] = map[string]any{
		"serializedAt": time.Now().UTC().Format(time.RFC3339),
		"version":      serializationVersion,
	}
	return out, nil
}

// ImportSession rebuilds a session from an exported map and validates the
// structural invariants a restored session must satisfy.
func ImportSession(data map[string]any) (*Session, error) {
	meta, ok := data["_metadata"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("missing _metadata envelope")
	}
	if v, _ := meta["version"].(string); v != serializationVersion {
		return nil, fmt.Errorf("unsupported serialization version %q", v)
	}

	body := make(map[string]any, len(data))
	for k, v := range data {
		if k == "_metadata" {
			continue
		}
		body[k] = v
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("re-encode session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	if err := validateImported(&s); err != nil {
		return nil, err
	}
	if s.AgentStatus == nil {
		s.AgentStatus = map[Category]AgentState{}
	}
	if s.Snapshots == nil {
		s.Snapshots = map[string]*Snapshot{}
	}
	if s.CartDependencies == nil {
		s.CartDependencies = map[string]CartDependency{}
	}
	return &s, nil
}

func validateImported(s *Session) error {
	if s.ID == "" {
		return fmt.Errorf("imported session has no id")
	}
	if s.AutomationLevel < 1 || s.AutomationLevel > 4 {
		return fmt.Errorf("automation level %d out of range", s.AutomationLevel)
	}
	if len(s.BacktrackHistory) > maxBacktrackHistory {
		return fmt.Errorf("backtrack history length %d exceeds bound %d",
			len(s.BacktrackHistory), maxBacktrackHistory)
	}
	for _, point := range s.BacktrackHistory {
		if _, ok := s.Snapshots[point.SnapshotID]; !ok {
			return fmt.Errorf("backtrack point %s references missing snapshot", point.SnapshotID)
		}
	}
	return nil
}
