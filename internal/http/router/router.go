package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"github.com/wondrlab/crosssell-api/internal/auth"
	"github.com/wondrlab/crosssell-api/internal/config"
	"github.com/wondrlab/crosssell-api/internal/csvtransform"
	"github.com/wondrlab/crosssell-api/internal/database"
	"github.com/wondrlab/crosssell-api/internal/http/handler"
	"github.com/wondrlab/crosssell-api/internal/http/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/wondrlab/crosssell-api/docs" // Import generated swagger docs
)

const healthCheckTimeout = 3 * time.Second

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Client       *handler.ClientHandler
	Catalog      *handler.CatalogHandler
	Opportunity  *handler.OpportunityHandler
	Task         *handler.TaskHandler
	Admin        *handler.AdminHandler
	Notification *handler.NotificationHandler
	Lookup       *handler.LookupHandler
	Import       *handler.ImportHandler
}

type Router struct {
	cfg            *config.Config
	logger         *zap.Logger
	db             *gorm.DB
	authMiddleware *auth.Middleware
	rateLimiter    *middleware.RateLimiter
	h              Handlers
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:            cfg,
		logger:         logger,
		db:             db,
		authMiddleware: authMiddleware,
		rateLimiter:    rateLimiter,
		h:              handlers,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Liveness
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Readiness
	r.Get("/health/db", rt.databaseHealth)

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/login", rt.h.Auth.Login)
		r.Post("/auth/register", rt.h.Auth.Register)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(middleware.TagUser)
			r.Use(rt.rateLimiter.Limit)

			r.Get("/auth/me", rt.h.Auth.Me)
			r.Get("/lookups", rt.h.Lookup.Get)

			r.Route("/users", func(r chi.Router) {
				r.Use(rt.authMiddleware.RequireAdmin)
				r.Get("/", rt.h.User.List)
				r.Post("/", rt.h.User.Create)
				r.Get("/{id}", rt.h.User.GetByID)
				r.Put("/{id}", rt.h.User.Update)
				r.Delete("/{id}", rt.h.User.Delete)
			})

			r.Route("/clients", func(r chi.Router) {
				rt.mountCSV(r, csvtransform.EntityClients)
				r.Get("/", rt.h.Client.List)
				r.Post("/", rt.h.Client.Create)
				r.Get("/{id}", rt.h.Client.GetByID)
				r.Put("/{id}", rt.h.Client.Update)
				r.Delete("/{id}", rt.h.Client.Delete)
				r.Patch("/{id}/status", rt.h.Client.UpdateStatus)
			})

			r.Route("/services", func(r chi.Router) {
				rt.mountCSV(r, csvtransform.EntityServices)
				r.Get("/", rt.h.Catalog.List)
				r.Post("/", rt.h.Catalog.Create)
				r.Get("/{id}", rt.h.Catalog.GetByID)
				r.Put("/{id}", rt.h.Catalog.Update)
				r.Delete("/{id}", rt.h.Catalog.Delete)
				r.Patch("/{id}/status", rt.h.Catalog.UpdateStatus)
			})

			r.Route("/opportunities", func(r chi.Router) {
				rt.mountCSV(r, csvtransform.EntityOpportunities)
				r.Get("/matrix", rt.h.Opportunity.Matrix)
				r.Post("/matrix", rt.h.Opportunity.CreateFromCell)
				r.Get("/matrix/export", rt.h.Opportunity.ExportMatrix)
				r.Get("/", rt.h.Opportunity.List)
				r.Post("/", rt.h.Opportunity.Create)
				r.Get("/{id}", rt.h.Opportunity.GetByID)
				r.Put("/{id}", rt.h.Opportunity.Update)
				r.Delete("/{id}", rt.h.Opportunity.Delete)
				r.Patch("/{id}/status", rt.h.Opportunity.UpdateStatus)
			})

			r.Route("/tasks", func(r chi.Router) {
				rt.mountCSV(r, csvtransform.EntityTasks)
				r.Get("/", rt.h.Task.List)
				r.Post("/", rt.h.Task.Create)
				r.Get("/{id}", rt.h.Task.GetByID)
				r.Put("/{id}", rt.h.Task.Update)
				r.Delete("/{id}", rt.h.Task.Delete)
				r.Patch("/{id}/status", rt.h.Task.UpdateStatus)
			})

			// Reference tables. Reads are open, writes need admin.
			r.Route("/admin", func(r chi.Router) {
				r.Get("/business-units", rt.h.Admin.ListBusinessUnits)
				r.Get("/business-units/{id}", rt.h.Admin.GetBusinessUnit)
				r.Get("/industries", rt.h.Admin.ListIndustries)
				r.Get("/industries/{id}", rt.h.Admin.GetIndustry)

				r.Group(func(r chi.Router) {
					r.Use(rt.authMiddleware.RequireAdmin)
					r.Post("/business-units", rt.h.Admin.CreateBusinessUnit)
					r.Put("/business-units/{id}", rt.h.Admin.UpdateBusinessUnit)
					r.Patch("/business-units/{id}/status", rt.h.Admin.UpdateBusinessUnitStatus)
					r.Delete("/business-units/{id}", rt.h.Admin.DeleteBusinessUnit)
					r.Post("/industries", rt.h.Admin.CreateIndustry)
					r.Put("/industries/{id}", rt.h.Admin.UpdateIndustry)
					r.Patch("/industries/{id}/status", rt.h.Admin.UpdateIndustryStatus)
					r.Delete("/industries/{id}", rt.h.Admin.DeleteIndustry)
				})
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", rt.h.Notification.List)
				r.Delete("/", rt.h.Notification.DeleteMany)
				r.Get("/count", rt.h.Notification.Count)
				r.Put("/read-all", rt.h.Notification.MarkAllAsRead)
				r.With(rt.authMiddleware.RequireAdmin).Post("/cleanup", rt.h.Notification.Cleanup)
				r.Put("/{id}/read", rt.h.Notification.MarkAsRead)
				r.Delete("/{id}", rt.h.Notification.Delete)
			})
		})
	})

	return r
}

// mountCSV adds the import, export and template routes of one entity
func (rt *Router) mountCSV(r chi.Router, entity csvtransform.Entity) {
	r.Post("/import", rt.h.Import.Import(entity))
	r.Get("/import/template", rt.h.Import.Template(entity))
	r.Get("/export", rt.h.Import.Export(entity))
}

func (rt *Router) databaseHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := database.HealthCheck(r.Context(), rt.db, healthCheckTimeout); err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "unhealthy",
			"error":   err.Error(),
			"service": "database",
		})
		return
	}

	response := map[string]interface{}{
		"status":  "healthy",
		"service": "database",
	}
	if sqlDB, err := rt.db.DB(); err == nil {
		stats := sqlDB.Stats()
		response["stats"] = map[string]interface{}{
			"max_open_connections": stats.MaxOpenConnections,
			"open_connections":     stats.OpenConnections,
			"in_use":               stats.InUse,
			"idle":                 stats.Idle,
			"wait_count":           stats.WaitCount,
			"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
		}
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}
