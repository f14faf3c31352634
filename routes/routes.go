package routes

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/estimate-api/app"
	"github.com/upb/estimate-api/handlers"
	"github.com/upb/estimate-api/middleware"
	"github.com/upb/estimate-api/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()
	logger := deps.Logger.Named("http")

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger, deps.Metrics))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Timeout(deps.Config.Server.RequestTimeout))

	// CORS middleware
	r.Use(cors.Handler(corsOptions(deps.Config.Server.AllowedOrigins)))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteStatus(w, http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteStatus(w, http.StatusMethodNotAllowed)
	})

	// Health check endpoints
	health := handlers.NewHealthHandler(deps.DB.DB, logger)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	sessions := handlers.NewSessionHandler(logger)
	estimates := handlers.NewEstimateHandler(deps.EstimateService, deps.Logger.Named("estimate"))

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/hello", sessions.HandleHello)

		r.With(deps.AuthGate.Require(middleware.RequireUser)).
			Get("/init-session", sessions.HandleInitSession)

		// Estimate reports (admin only). The gate is attached per route so
		// unknown paths fall through to NotFound without authentication.
		r.Route("/estimate", func(r chi.Router) {
			admin := r.With(deps.AuthGate.Require(middleware.RequireAdmin))
			admin.Get("/recent-estimates", estimates.HandleRecentEstimates)
			admin.Get("/recently-received", estimates.HandleRecentlyReceived)
			admin.Get("/active-contracts", estimates.HandleActiveContracts)
			admin.Get("/search", estimates.HandleSearch)
			admin.Get("/customer/{id}", estimates.HandleCustomer)
			admin.Get("/job/{id}", estimates.HandleJob)
		})
	})

	return r
}

// corsOptions allows only the configured origins. With no origins every
// cross-origin request is refused, and credentials are never shared with
// wildcard patterns.
func corsOptions(origins []string) cors.Options {
	opts := cors.Options{
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}
	if len(origins) == 0 {
		opts.AllowOriginFunc = func(*http.Request, string) bool { return false }
		return opts
	}

	opts.AllowedOrigins = origins
	opts.AllowCredentials = true
	for _, o := range origins {
		if strings.Contains(o, "*") {
			opts.AllowCredentials = false
			break
		}
	}
	return opts
}
