package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"quantbin/app"
	"quantbin/ports"
)

// Server exposes the evaluation service over HTTP.
type Server struct {
	router  *chi.Mux
	service *app.EvaluationService
	store   ports.SummaryStorePort // optional; nil disables GET /summary
	port    string
}

// Config holds HTTP server configuration
type Config struct {
	Port string
}

// NewServer creates the HTTP server around an evaluation service.
func NewServer(config Config, service *app.EvaluationService, store ports.SummaryStorePort) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		service: service,
		store:   store,
		port:    config.Port,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(120 * time.Second))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/evaluate/jaccard", s.handleEvaluateJaccard)
	s.router.Post("/evaluate/bounds", s.handleEvaluateBounds)
	s.router.Post("/evaluate/errors", s.handleEvaluateErrors)
	s.router.Post("/evaluate", s.handleEvaluateAll)
	s.router.Get("/summary", s.handleSummary)
}

// Handler returns the underlying HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[API] listening on :%s", s.port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
