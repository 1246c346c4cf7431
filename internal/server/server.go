package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/atelierhq/atelier/internal/analytics"
	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/handler"
	"github.com/atelierhq/atelier/internal/metrics"
	"github.com/atelierhq/atelier/internal/openapi"
	"github.com/atelierhq/atelier/internal/server/middleware"
	"github.com/atelierhq/atelier/internal/service"
)

// Config holds the runtime settings for the HTTP server.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	BaseURL         string
	CookieSecure    bool
	EnableMetrics   bool
	Version         string
}

// DefaultConfig returns sensible local-development settings.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ShutdownTimeout: 10 * time.Second,
		CORSOrigins:     []string{"*"},
		EnableMetrics:   true,
		Version:         "dev",
	}
}

// Server is the agency site backend: the public marketing API plus the
// guarded back office.
type Server struct {
	cfg     Config
	log     *slog.Logger
	store   *config.Store
	auth    *service.AuthService
	tracker *analytics.Tracker
	router  chi.Router
	http    *http.Server
}

// New wires handlers and middleware into the router.
func New(cfg Config, log *slog.Logger, store *config.Store, auth *service.AuthService, tracker *analytics.Tracker) *Server {
	s := &Server{
		cfg:     cfg,
		log:     log,
		store:   store,
		auth:    auth,
		tracker: tracker,
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.log))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))
	if s.cfg.EnableMetrics {
		r.Use(metrics.Middleware)
	}

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Get("/openapi.json", s.handleOpenAPI)
	if s.cfg.EnableMetrics {
		r.Handle("/metrics", metrics.Handler())
	}

	authH := handler.NewAuthHandler(s.store, s.auth, s.cfg.CookieSecure)
	projectH := handler.NewProjectHandler(s.store)
	contactH := handler.NewContactHandler(s.store)
	seoH := handler.NewSEOHandler(s.store)
	analyticsH := handler.NewAnalyticsHandler(s.store, s.tracker)

	r.Route("/api", func(r chi.Router) {
		// Public marketing site surface. GETs feed the view counters.
		r.Group(func(r chi.Router) {
			r.Use(s.tracker.Middleware)
			r.Get("/projects", projectH.ListPublic)
			r.Get("/projects/{projectID}", projectH.GetPublic)
			r.Get("/seo/{page}", seoH.GetPage)
		})
		r.With(middleware.RateLimitByIP(5, time.Minute)).
			Post("/contact", contactH.Submit)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/registration-status", authH.RegistrationStatus)
			// Credential endpoints are rate limited; everything else in
			// this subtree sits behind the guard.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimitByIP(10, time.Minute))
				r.Post("/register", authH.Register)
				r.Post("/login", authH.Login)
			})
			r.Post("/logout", authH.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(s.auth))
				r.Get("/verify", authH.Verify)

				r.Get("/projects", projectH.List)
				r.Post("/projects", projectH.Create)
				r.Put("/projects/{projectID}", projectH.Update)
				r.Delete("/projects/{projectID}", projectH.Delete)
				r.Post("/projects/bulk-delete", projectH.BulkDelete)
				r.Post("/projects/bulk-publish", projectH.BulkPublish)

				r.Get("/contacts", contactH.List)
				r.Post("/contacts/{messageID}/read", contactH.MarkRead)
				r.Delete("/contacts/{messageID}", contactH.Delete)

				r.Get("/seo", seoH.List)
				r.Put("/seo/{page}", seoH.Upsert)

				r.Get("/analytics/summary", analyticsH.Summary)
			})
		})
	})

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": s.cfg.Version,
	})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	doc := openapi.Generate(s.cfg.BaseURL, s.cfg.Version)
	raw, err := doc.MarshalJSON()
	if err != nil {
		http.Error(w, "failed to render spec", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe runs the server until ctx is done or SIGINT/SIGTERM
// arrives, then drains connections within the shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.tracker.Start()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.tracker.Shutdown(shutdownCtx)
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
