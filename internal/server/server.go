package server

import (
	"fmt"
	"net/http"

	logger "github.com/chi-middleware/logrus-logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"convene/internal/handlers"
	"convene/internal/handlers/session"
	"convene/internal/middleware"
	"convene/internal/orchestrator"
	"convene/internal/registry"
	"convene/internal/rooms"
	"convene/internal/ws"
)

type Server struct {
	Addr         string
	JWTSecret    string
	JWTTTLHrs    int
	Registry     *registry.Registry
	Orchestrator *orchestrator.Orchestrator
	Tracker      *rooms.Tracker
	Hubs         *ws.Hubs
	Log          *logrus.Logger
}

func NewServer(addr, jwtSecret string, jwtTTL int, reg *registry.Registry, orc *orchestrator.Orchestrator, tracker *rooms.Tracker, hubs *ws.Hubs, log *logrus.Logger) *Server {
	return &Server{
		Addr:         addr,
		JWTSecret:    jwtSecret,
		JWTTTLHrs:    jwtTTL,
		Registry:     reg,
		Orchestrator: orc,
		Tracker:      tracker,
		Hubs:         hubs,
		Log:          log,
	}
}

func HandlerFunc(h http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r)
	}
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	// middlewares
	r.Use(logger.Logger("router", s.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintln(w, "Welcome to convene API! Server is running....")
	})
	r.Get("/health", handlers.HealthCheck)
	r.Get("/stats", HandlerFunc(&session.StatsHandler{Tracker: s.Tracker}))

	r.Route("/sessions", func(r chi.Router) {
		// public
		r.Post("/", HandlerFunc(&session.CreateSessionHandler{
			Registry:     s.Registry,
			Orchestrator: s.Orchestrator,
			JWTSecret:    s.JWTSecret,
			JWTTTLHrs:    s.JWTTTLHrs,
		}))
		r.Post("/{code}/join", HandlerFunc(&session.JoinSessionHandler{Registry: s.Registry}))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", HandlerFunc(&session.GetSessionHandler{Registry: s.Registry}))
			r.Get("/participants/{participantID}/room", HandlerFunc(&session.ParticipantRoomHandler{Registry: s.Registry}))

			// host-only: allocation authority lives behind the host token
			r.Group(func(r chi.Router) {
				r.Use(middleware.AuthHost(s.JWTSecret))
				r.Post("/assign", HandlerFunc(&session.AssignRoomsHandler{Registry: s.Registry}))
				r.Post("/reassign", HandlerFunc(&session.ReassignRoomsHandler{Registry: s.Registry}))
				r.Delete("/rooms", HandlerFunc(&session.ReleaseRoomsHandler{Registry: s.Registry}))
				r.Post("/start", HandlerFunc(&session.StartSessionHandler{Orchestrator: s.Orchestrator}))
				r.Post("/advance", HandlerFunc(&session.AdvanceSubstageHandler{Orchestrator: s.Orchestrator}))
				r.Post("/advance-phase", HandlerFunc(&session.AdvancePhaseHandler{Orchestrator: s.Orchestrator}))
				r.Post("/jump", HandlerFunc(&session.JumpHandler{Orchestrator: s.Orchestrator}))
				r.Delete("/", HandlerFunc(&session.EndSessionHandler{Registry: s.Registry}))
			})
		})
	})

	// WebSocket subscription endpoint (public)
	r.Get("/ws", HandlerFunc(&handlers.WSHandler{Registry: s.Registry, Hubs: s.Hubs}))

	return r
}

func (s *Server) Run() error {
	s.Log.Infof("Server running on %s", s.Addr)
	return http.ListenAndServe(s.Addr, s.Router())
}
