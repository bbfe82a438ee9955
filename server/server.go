// Package server exposes the accounts, the profile and the chat backend over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/etnz/networth"
	"github.com/etnz/networth/chat"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Config holds server configuration
type Config struct {
	Addr     string
	Log      zerolog.Logger
	Accounts *networth.Store
	Profile  *networth.ProfileStore
	// Backend answers POST /chat. The route is not served when nil.
	Backend chat.Backend
	// ChatLimit bounds the rate of POST /chat requests, no limit when nil.
	ChatLimit *rate.Limiter
}

// Server represents the HTTP server
type Server struct {
	router  *chi.Mux
	server  *http.Server
	log     zerolog.Logger
	store   *networth.Store
	profile *networth.ProfileStore
	backend chat.Backend
	limit   *rate.Limiter
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		log:     cfg.Log.With().Str("component", "server").Logger(),
		store:   cfg.Accounts,
		profile: cfg.Profile,
		backend: cfg.Backend,
		limit:   cfg.ChatLimit,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:        cfg.Addr,
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/types", s.handleTypes)
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", s.handleListAccounts)
			r.Post("/", s.handleAddAccount)
			r.Get("/{id}", s.handleGetAccount)
			r.Put("/{id}", s.handleEditAccount)
			r.Delete("/{id}", s.handleRemoveAccount)
		})
		r.Get("/networth", s.handleNetWorth)
		r.Get("/profile", s.handleGetProfile)
		r.Put("/profile", s.handleSetProfile)
		r.Delete("/profile", s.handleClearProfile)
	})

	if s.backend != nil {
		s.router.With(s.rateLimitMiddleware).Post("/chat", s.handleChat)
	}
}

// ServeHTTP serves the API routes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limit != nil && !s.limit.Allow() {
			s.log.Warn().Str("path", r.URL.Path).Msg("Rate limit exceeded")
			s.writeError(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
			return
		}
		next.ServeHTTP(w, r)
	})
}
