package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"tripweaver/planner"
	"tripweaver/planner/pubsub"
)

// Server hosts the trip planning engine behind a REST API.
type Server struct {
	config     planner.Config
	engine     *planner.Engine
	bus        *pubsub.InMemoryPubSub
	templates  *planner.TemplateStore
	trips      map[string]*tripExecution
	tripsMu    sync.RWMutex
	router     *mux.Router
	routesOnce sync.Once
	httpServer *http.Server
	logger     *slog.Logger
}

// tripExecution is one hosted planning session. Operations on a single
// trip are serialized; different trips run independently.
type tripExecution struct {
	mu      sync.Mutex
	session *planner.Session
	result  planner.Result
	created time.Time
}

// New creates a server around a fresh engine.
func New(config planner.Config) *Server {
	bus := pubsub.NewInMemoryPubSub()

	level := slog.LevelInfo
	if config.Server.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	planner.SetLogger(logger)

	engine := planner.NewEngine(planner.EngineOptions{
		Emitter:      planner.NewBusEmitter(bus),
		RetryPolicy:  config.RetryPolicy(),
		AgentTimeout: config.AgentTimeout(),
		Agents: []planner.SearchAgent{
			planner.NewFlightSearchAgent(time.Duration(config.Agents.DelayMillis) * time.Millisecond),
			planner.NewHotelSearchAgent(time.Duration(config.Agents.DelayMillis) * time.Millisecond),
			planner.NewActivitySearchAgent(time.Duration(config.Agents.DelayMillis) * time.Millisecond),
		},
	})

	return &Server{
		config:    config,
		engine:    engine,
		bus:       bus,
		templates: planner.NewTemplateStore(),
		trips:     make(map[string]*tripExecution),
		router:    mux.NewRouter(),
		logger:    logger,
	}
}

// Router returns the configured handler, for tests and embedding.
func (s *Server) Router() http.Handler {
	s.routesOnce.Do(s.setupRoutes)
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM.
func (s *Server) Start() error {
	s.routesOnce.Do(s.setupRoutes)

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-stop
		s.logger.Info("shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info("server starting", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// Shutdown stops the HTTP listener and the event bus.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.bus.Close(); err != nil {
		s.logger.Error("bus close error", "error", err.Error())
	}
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Accept, Origin")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleOptions(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
