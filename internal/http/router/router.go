package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/medosmotr/examination-api/internal/auth"
	"github.com/medosmotr/examination-api/internal/config"
	"github.com/medosmotr/examination-api/internal/database"
	"github.com/medosmotr/examination-api/internal/domain"
	"github.com/medosmotr/examination-api/internal/http/handler"
	"github.com/medosmotr/examination-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/medosmotr/examination-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg                   *config.Config
	logger                *zap.Logger
	db                    *gorm.DB
	authMiddleware        *auth.Middleware
	rateLimiter           *middleware.RateLimiter
	auditMiddleware       *middleware.AuditMiddleware
	authHandler           *handler.AuthHandler
	employeeHandler       *handler.EmployeeHandler
	routeSheetHandler     *handler.RouteSheetHandler
	recommendationHandler *handler.RecommendationHandler
	healthPlanHandler     *handler.HealthPlanHandler
	doctorHandler         *handler.DoctorHandler
	documentHandler       *handler.DocumentHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	auditMiddleware *middleware.AuditMiddleware,
	authHandler *handler.AuthHandler,
	employeeHandler *handler.EmployeeHandler,
	routeSheetHandler *handler.RouteSheetHandler,
	recommendationHandler *handler.RecommendationHandler,
	healthPlanHandler *handler.HealthPlanHandler,
	doctorHandler *handler.DoctorHandler,
	documentHandler *handler.DocumentHandler,
) *Router {
	return &Router{
		cfg:                   cfg,
		logger:                logger,
		db:                    db,
		authMiddleware:        authMiddleware,
		rateLimiter:           rateLimiter,
		auditMiddleware:       auditMiddleware,
		authHandler:           authHandler,
		employeeHandler:       employeeHandler,
		routeSheetHandler:     routeSheetHandler,
		recommendationHandler: recommendationHandler,
		healthPlanHandler:     healthPlanHandler,
		doctorHandler:         doctorHandler,
		documentHandler:       documentHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP) // Apply IP-based rate limiting globally

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with detailed stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
				"max_idle_closed":      stats.MaxIdleClosed,
				"max_lifetime_closed":  stats.MaxLifetimeClosed,
			},
		})
	})

	// Combined readiness check (checks all dependencies)
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if allHealthy {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "healthy",
				"checks": checks,
			})
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"checks": checks,
			})
		}
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Registration funnel (no auth, or token optional)
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.OptionalAuthenticate)

			r.With(rt.rateLimiter.LimitChallenge).Post("/auth/challenge", rt.authHandler.SendChallenge)
			r.Post("/auth/verify", rt.authHandler.VerifyChallenge)
			r.Post("/auth/login", rt.authHandler.Login)
			r.Get("/auth/next-step", rt.authHandler.NextStep)
		})

		// Authenticated funnel steps and account management
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(rt.auditMiddleware.Audit)

			r.Get("/auth/me", rt.authHandler.Me)
			r.Post("/auth/password", rt.authHandler.SetPassword)
			r.Post("/auth/role", rt.authHandler.AssignRole)
			r.Post("/auth/register", rt.authHandler.CompleteRegistration)
			r.Post("/auth/subrole", rt.authHandler.SelectSubRole)
			r.Put("/auth/organization", rt.authHandler.UpdateOrganization)
		})

		// Employer workspace
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(rt.authMiddleware.RequireRegistered)
			r.Use(rt.authMiddleware.RequireRole(domain.UserRoleEmployer))
			r.Use(rt.auditMiddleware.Audit)

			r.Route("/employees", func(r chi.Router) {
				r.Get("/", rt.employeeHandler.List)
				r.Post("/", rt.employeeHandler.Create)
				r.Post("/import", rt.employeeHandler.Import)
				r.Get("/export", rt.employeeHandler.Export)
				r.Get("/{id}", rt.employeeHandler.Get)
				r.Put("/{id}", rt.employeeHandler.Update)
				r.Delete("/{id}", rt.employeeHandler.Delete)
			})

			r.Route("/health-plans", func(r chi.Router) {
				r.Get("/", rt.healthPlanHandler.List)
				r.Post("/", rt.healthPlanHandler.Create)
				r.Get("/{id}", rt.healthPlanHandler.Get)
				r.Put("/{id}", rt.healthPlanHandler.Update)
				r.Delete("/{id}", rt.healthPlanHandler.Delete)
				r.Post("/{id}/submit", rt.healthPlanHandler.Submit)
				r.Post("/{id}/approve", rt.healthPlanHandler.Approve)
			})
		})

		// Clinic workspace
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(rt.authMiddleware.RequireRegistered)
			r.Use(rt.authMiddleware.RequireRole(domain.UserRoleClinic))
			r.Use(rt.auditMiddleware.Audit)

			r.Route("/route-sheets", func(r chi.Router) {
				r.Get("/", rt.routeSheetHandler.List)
				r.Post("/", rt.routeSheetHandler.Generate)
				r.Get("/{id}", rt.routeSheetHandler.Get)
				r.Delete("/{id}", rt.routeSheetHandler.Delete)
				r.Post("/{id}/services/{serviceId}/complete", rt.routeSheetHandler.CompleteService)
			})

			r.Route("/recommendations", func(r chi.Router) {
				r.Get("/", rt.recommendationHandler.List)
				r.Post("/", rt.recommendationHandler.Create)
				r.Get("/{id}", rt.recommendationHandler.Get)
				r.Put("/{id}", rt.recommendationHandler.Update)
				r.Delete("/{id}", rt.recommendationHandler.Delete)
				r.Post("/{id}/transition", rt.recommendationHandler.Transition)
			})

			r.Route("/doctors", func(r chi.Router) {
				r.Get("/", rt.doctorHandler.List)
				r.Post("/", rt.doctorHandler.Create)
				r.Get("/{id}", rt.doctorHandler.Get)
				r.Put("/{id}", rt.doctorHandler.Update)
				r.Delete("/{id}", rt.doctorHandler.Delete)
			})
		})

		// Documents (both roles, scoped by entity ownership in the service layer)
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(rt.authMiddleware.RequireRegistered)
			r.Use(rt.auditMiddleware.Audit)

			r.Route("/documents", func(r chi.Router) {
				r.Get("/", rt.documentHandler.ListByEntity)
				r.Post("/", rt.documentHandler.Generate)
				r.Get("/{id}/download", rt.documentHandler.Download)
			})
		})
	})

	return r
}
