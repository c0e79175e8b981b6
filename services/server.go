package services

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"

	"perfreview/repository"
)

// Server holds all server dependencies
type Server struct {
	config              *Config
	repo                *repository.GORMRepository
	rawDB               *gorm.DB
	identityService     *IdentityService
	authzService        *AuthorizationService
	evaluationService   *EvaluationService
	projectService      *ProjectService
	criteriaService     *CriteriaService
	peerReviewService   *PeerReviewService
	authService         *AuthService
	authEndpoints       *AuthEndpoints
	evaluationEndpoints *EvaluationEndpoints
	projectEndpoints    *ProjectEndpoints
	criteriaEndpoints   *CriteriaEndpoints
	peerReviewEndpoints *PeerReviewEndpoints
}

// NewServer creates a new server instance
func NewServer(config *Config) *Server {
	return &Server{
		config: config,
	}
}

// SetDatabase sets the database connection
func (s *Server) SetDatabase(repo *repository.GORMRepository, rawDB *gorm.DB) {
	s.repo = repo
	s.rawDB = rawDB
}

// InitializeServices initializes all server services
func (s *Server) InitializeServices() error {
	if s.repo == nil {
		slog.Warn("Database not configured, running without persistence")
		return nil
	}

	s.identityService = NewIdentityService(s.repo, s.repo)
	s.authzService = NewAuthorizationService(s.repo)
	s.evaluationService = NewEvaluationService(s.repo, s.repo, s.repo, s.identityService, s.authzService)
	s.projectService = NewProjectService(s.repo, s.repo, s.identityService)
	s.criteriaService = NewCriteriaService(s.repo)
	s.peerReviewService = NewPeerReviewService(s.repo, s.repo)
	slog.Info("Domain services initialized")

	if s.config.JWT.Secret != "" || s.config.Auth.DevHeader {
		s.authService = NewAuthService(s.repo, s.repo, s.identityService, s.config.JWT.Secret, s.config.Auth.DevHeader)
		s.authEndpoints = NewAuthEndpoints(s.authService)
		slog.Info("Authentication service initialized", "dev_header", s.config.Auth.DevHeader)
	}

	s.evaluationEndpoints = NewEvaluationEndpoints(s.evaluationService)
	s.projectEndpoints = NewProjectEndpoints(s.projectService, s.identityService)
	s.criteriaEndpoints = NewCriteriaEndpoints(s.criteriaService)
	s.peerReviewEndpoints = NewPeerReviewEndpoints(s.peerReviewService)

	return nil
}

// SetupRoutes configures all HTTP routes
func (s *Server) SetupRoutes() *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)

	// Health endpoint
	r.Get("/health", s.healthHandler)

	// API route group
	r.Route("/api", func(r chi.Router) {
		r.Get("/", s.apiHandler)

		// Authentication routes (public/protected split handled inside)
		if s.authEndpoints != nil {
			s.authEndpoints.RegisterRoutes(r)
		}

		// Domain routes (protected)
		if s.authService != nil {
			r.Group(func(r chi.Router) {
				r.Use(s.authService.Middleware)
				if s.evaluationEndpoints != nil {
					s.evaluationEndpoints.RegisterRoutes(r)
				}
				if s.projectEndpoints != nil {
					s.projectEndpoints.RegisterRoutes(r)
				}
				if s.criteriaEndpoints != nil {
					s.criteriaEndpoints.RegisterRoutes(r)
				}
				if s.peerReviewEndpoints != nil {
					s.peerReviewEndpoints.RegisterRoutes(r)
				}
			})
		}
	})

	return r
}

// Start starts the HTTP server
func (s *Server) Start() {
	port := s.config.Server.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: s.SetupRoutes(),
	}

	// Graceful shutdown
	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}

// corsMiddleware reflects allowed origins for browser clients. Requests
// without an Origin header pass through untouched.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && originAllowed(origin, s.config.Server.AllowedOrigins) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-User")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// originAllowed validates a browser origin against the configured allow list
func originAllowed(origin, allowedOriginsStr string) bool {
	// If no allowed origins are configured, deny all requests for security
	if allowedOriginsStr == "" {
		slog.Warn("Cross-origin request rejected: no allowed origins configured", "origin", origin)
		return false
	}

	// Parse allowed origins (comma-separated list)
	allowedOrigins := strings.Split(allowedOriginsStr, ",")

	// Trim whitespace from origins
	for i := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
	}

	// Check if origin is in allowed list
	for _, allowed := range allowedOrigins {
		if allowed == origin {
			return true
		}
	}

	slog.Warn("Cross-origin request rejected: origin not allowed", "origin", origin, "allowed_origins", allowedOriginsStr)
	return false
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "not configured"

	if s.rawDB != nil {
		if sqlDB, err := s.rawDB.DB(); err == nil {
			if err := sqlDB.Ping(); err != nil {
				dbStatus = "down"
				status = "degraded"
			} else {
				dbStatus = "up"
			}
		} else {
			dbStatus = "down"
			status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"` + status + `","database":"` + dbStatus + `"}`))

	slog.Info("Health check", "status", status, "database", dbStatus)
}

func (s *Server) apiHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message":"Performance review API","version":"1.0.0"}`))
}
