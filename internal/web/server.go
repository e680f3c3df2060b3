// Package web exposes the checkpoint API: enrollment sessions, staff
// administration, verification and check-in history.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/aliyuchatgptt/falgates/internal/config"
	"github.com/aliyuchatgptt/falgates/internal/enrollment"
	"github.com/aliyuchatgptt/falgates/internal/recognition"
	"github.com/aliyuchatgptt/falgates/internal/similarity"
	"github.com/aliyuchatgptt/falgates/internal/store"
	"github.com/aliyuchatgptt/falgates/internal/verify"
	"github.com/aliyuchatgptt/falgates/internal/web/middleware"
)

// Deps carries the wired application services the handlers work against.
type Deps struct {
	Config       *config.Config
	StaffStore   store.StaffStore
	Settings     *config.SettingsService
	Gate         *enrollment.Gate
	Enroller     *enrollment.Enroller
	Orchestrator *verify.Orchestrator
	Recorder     *verify.Recorder
	Searcher     recognition.Searcher // optional
	Index        *similarity.Index    // optional
}

// Server is the HTTP front of the checkpoint system.
type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server
}

// NewServer builds the router, middleware stack and HTTP server.
func NewServer(deps Deps) *Server {
	r := chi.NewRouter()

	s := &Server{
		config: deps.Config,
		router: r,
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(2 * time.Minute))
	r.Use(middleware.CORS())

	s.setupRoutes(deps)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", deps.Config.Server.Host, deps.Config.Server.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // verification scans block on sequential oracle calls
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
