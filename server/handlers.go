package server

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"

	"tripweaver/planner"
)

func (s *Server) setupRoutes() {
	s.router.Use(corsMiddleware)

	api := s.router.PathPrefix("/api/v1").Subrouter()

	trips := api.PathPrefix("/trips").Subrouter()
	trips.HandleFunc("", s.createTrip).Methods("POST")
	trips.HandleFunc("", s.listTrips).Methods("GET")
	trips.HandleFunc("", s.handleOptions).Methods("OPTIONS")
	trips.HandleFunc("/import", s.importTrip).Methods("POST", "OPTIONS")
	trips.HandleFunc("/{id}", s.getTrip).Methods("GET")
	trips.HandleFunc("/{id}", s.handleOptions).Methods("OPTIONS")
	trips.HandleFunc("/{id}/resume", s.resumeTrip).Methods("POST")
	trips.HandleFunc("/{id}/confirm", s.confirmTrip).Methods("POST")
	trips.HandleFunc("/{id}/modify", s.modifyTrip).Methods("POST")
	trips.HandleFunc("/{id}/backtrack", s.backtrackTrip).Methods("POST")
	trips.HandleFunc("/{id}/events", s.getTripEvents).Methods("GET")
	trips.HandleFunc("/{id}/snapshots", s.getTripSnapshots).Methods("GET")
	trips.HandleFunc("/{id}/export", s.exportTrip).Methods("GET")
	trips.HandleFunc("/{id}/template", s.saveTemplate).Methods("POST")

	api.HandleFunc("/templates", s.listTemplates).Methods("GET")
	api.HandleFunc("/templates/{id}/trips", s.createTripFromTemplate).Methods("POST")

	s.router.HandleFunc("/health", s.getHealth).Methods("GET")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (s *Server) trip(w http.ResponseWriter, r *http.Request) *tripExecution {
	id := mux.Vars(r)["id"]
	s.tripsMu.RLock()
	exec, ok := s.trips[id]
	s.tripsMu.RUnlock()
	if !ok {
		http.Error(w, "Trip not found", http.StatusNotFound)
		return nil
	}
	return exec
}

func (s *Server) store(session *planner.Session, result planner.Result) *tripExecution {
	exec := &tripExecution{session: session, result: result, created: time.Now()}
	s.tripsMu.Lock()
	s.trips[session.ID] = exec
	s.tripsMu.Unlock()
	return exec
}

func (s *Server) createTrip(w http.ResponseWriter, r *http.Request) {
	var input planner.Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result := s.engine.Run(r.Context(), input)
	if result.Session != nil {
		s.store(result.Session, result)
	}

	status := http.StatusCreated
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

type tripSummary struct {
	ID              string       `json:"id"`
	Destination     string       `json:"destination"`
	CurrentStep     planner.Step `json:"currentStep"`
	AutomationLevel int          `json:"automationLevel"`
	TotalCost       float64      `json:"totalCost"`
	Created         time.Time    `json:"created"`
}

func (s *Server) listTrips(w http.ResponseWriter, _ *http.Request) {
	s.tripsMu.RLock()
	summaries := make([]tripSummary, 0, len(s.trips))
	for _, exec := range s.trips {
		exec.mu.Lock()
		summaries = append(summaries, tripSummary{
			ID:              exec.session.ID,
			Destination:     exec.session.Preferences.Destination,
			CurrentStep:     exec.session.CurrentStep,
			AutomationLevel: exec.session.AutomationLevel,
			TotalCost:       exec.session.Cart.TotalCost,
			Created:         exec.created,
		})
		exec.mu.Unlock()
	}
	s.tripsMu.RUnlock()

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Created.Before(summaries[j].Created)
	})
	writeJSON(w, http.StatusOK, map[string]any{"trips": summaries, "count": len(summaries)})
}

func (s *Server) getTrip(w http.ResponseWriter, r *http.Request) {
	exec := s.trip(w, r)
	if exec == nil {
		return
	}
	exec.mu.Lock()
	defer exec.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"session": exec.session,
		"result":  exec.result,
	})
}

func (s *Server) resumeTrip(w http.ResponseWriter, r *http.Request) {
	exec := s.trip(w, r)
	if exec == nil {
		return
	}
	var prefs planner.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	exec.mu.Lock()
	defer exec.mu.Unlock()
	if exec.session.CurrentStep != planner.StepAwaitingInfo {
		http.Error(w, "Trip is not awaiting information", http.StatusConflict)
		return
	}
	exec.result = s.engine.Resume(r.Context(), exec.session, prefs)
	writeJSON(w, http.StatusOK, exec.result)
}

func (s *Server) confirmTrip(w http.ResponseWriter, r *http.Request) {
	exec := s.trip(w, r)
	if exec == nil {
		return
	}
	exec.mu.Lock()
	defer exec.mu.Unlock()
	exec.result = s.engine.Confirm(r.Context(), exec.session)

	status := http.StatusOK
	if !exec.result.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, exec.result)
}

func (s *Server) modifyTrip(w http.ResponseWriter, r *http.Request) {
	exec := s.trip(w, r)
	if exec == nil {
		return
	}
	var req struct {
		Category planner.Category `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Category == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	exec.mu.Lock()
	defer exec.mu.Unlock()
	exec.result = s.engine.ModifyCategory(r.Context(), exec.session, req.Category)

	status := http.StatusOK
	if !exec.result.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, exec.result)
}

func (s *Server) backtrackTrip(w http.ResponseWriter, r *http.Request) {
	exec := s.trip(w, r)
	if exec == nil {
		return
	}
	var req struct {
		SnapshotID string `json:"snapshotId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SnapshotID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	exec.mu.Lock()
	defer exec.mu.Unlock()
	exec.result = s.engine.Backtrack(exec.session, req.SnapshotID)
	status := http.StatusOK
	if !exec.result.Success {
		status = http.StatusNotFound
	}
	writeJSON(w, status, exec.result)
}

func (s *Server) getTripEvents(w http.ResponseWriter, r *http.Request) {
	exec := s.trip(w, r)
	if exec == nil {
		return
	}
	exec.mu.Lock()
	events := make([]planner.Event, len(exec.session.Events))
	copy(events, exec.session.Events)
	exec.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}

func (s *Server) getTripSnapshots(w http.ResponseWriter, r *http.Request) {
	exec := s.trip(w, r)
	if exec == nil {
		return
	}
	exec.mu.Lock()
	history := s.engine.Snapshots().DescribeHistory(exec.session, time.Now())
	exec.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"history": history, "count": len(history)})
}

func (s *Server) exportTrip(w http.ResponseWriter, r *http.Request) {
	exec := s.trip(w, r)
	if exec == nil {
		return
	}
	exec.mu.Lock()
	exported, err := planner.ExportSession(exec.session)
	exec.mu.Unlock()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, exported)
}

func (s *Server) importTrip(w http.ResponseWriter, r *http.Request) {
	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	session, err := planner.ImportSession(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.store(session, planner.Result{Success: true, ExecutionID: session.ID, Session: session})
	writeJSON(w, http.StatusCreated, map[string]any{"id": session.ID, "currentStep": session.CurrentStep})
}

func (s *Server) saveTemplate(w http.ResponseWriter, r *http.Request) {
	exec := s.trip(w, r)
	if exec == nil {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	exec.mu.Lock()
	tmpl := s.templates.Save(exec.session, req.Name)
	exec.mu.Unlock()
	writeJSON(w, http.StatusCreated, tmpl)
}

func (s *Server) listTemplates(w http.ResponseWriter, _ *http.Request) {
	templates := s.templates.List()
	sort.Slice(templates, func(i, j int) bool {
		return templates[i].CreatedAt.Before(templates[j].CreatedAt)
	})
	writeJSON(w, http.StatusOK, map[string]any{"templates": templates, "count": len(templates)})
}

func (s *Server) createTripFromTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, ok := s.templates.Get(mux.Vars(r)["id"])
	if !ok {
		http.Error(w, "Template not found", http.StatusNotFound)
		return
	}
	var input planner.Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	input.Preferences = tmpl.Apply(input.Preferences)
	if input.AutomationLevel == 0 {
		input.AutomationLevel = tmpl.AutomationLevel
	}

	result := s.engine.Run(r.Context(), input)
	if result.Session != nil {
		s.store(result.Session, result)
	}

	status := http.StatusCreated
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

func (s *Server) getHealth(w http.ResponseWriter, _ *http.Request) {
	s.tripsMu.RLock()
	count := len(s.trips)
	s.tripsMu.RUnlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"trips":  count,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
