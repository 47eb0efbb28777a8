// Package server exposes the agent over HTTP: a WebSocket chat endpoint
// where one connection drives one conversation, plus health and metrics.
package server

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/echoforge/echoforge/agent"
)

// Server serves conversations over WebSocket.
type Server struct {
	agent    *agent.Agent
	upgrader websocket.Upgrader
	registry *prometheus.Registry

	started   prometheus.Counter
	completed prometheus.Counter
	active    prometheus.Gauge
}

// New creates a server around the agent.
func New(a *agent.Agent) *Server {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Server{
		agent:    a,
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		started: factory.NewCounter(prometheus.CounterOpts{
			Name: "echoforge_conversations_started_total",
			Help: "Conversations opened over the WebSocket endpoint.",
		}),
		completed: factory.NewCounter(prometheus.CounterOpts{
			Name: "echoforge_conversations_completed_total",
			Help: "Conversations that ran through to the goodbye message.",
		}),
		active: factory.NewGauge(prometheus.GaugeOpts{
			Name: "echoforge_active_connections",
			Help: "Currently open chat connections.",
		}),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	r.Get("/ws", s.handleChat)

	return r
}

// handleChat upgrades the connection and runs one conversation over it.
// A dropped connection leaves the thread suspended in the checkpoint
// store; only a run that reaches the goodbye counts as completed.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[SERVER] Upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	s.active.Inc()
	defer s.active.Dec()
	s.started.Inc()

	io := &socketIO{conn: conn}
	if err := s.agent.Chat(r.Context(), io); err != nil {
		log.Printf("[SERVER] Conversation failed: %v", err)
		return
	}
	if !io.dropped {
		s.completed.Inc()
	}
}
