package server

import (
	"net/http"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/server/handlers"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/server/middleware"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/server/response"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()
	h := handlers.New(s.client, s.config.MaxUploadSize)

	s.registerRoutes(mux, h)
	return s.applyMiddleware(mux)
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) {
	prefix := s.config.PathPrefix

	// Favicon handler (return 204 No Content to avoid 404 logs)
	mux.HandleFunc("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET "+prefix+"/health", h.HandleHealth)
	mux.HandleFunc("GET "+prefix+"/sources", h.HandleSources)

	// Bulk workflow
	mux.HandleFunc("POST "+prefix+"/upload/postcodes/{state}", h.HandleUploadPostcodes)
	mux.HandleFunc("GET "+prefix+"/postcodes/{state}", h.HandleGetPostcodes)
	mux.HandleFunc("POST "+prefix+"/sync/all/{state}", h.HandleSyncAll)

	// Single source syncs
	mux.HandleFunc("POST "+prefix+"/sync/{source}", h.HandleSyncSource)
	mux.HandleFunc("POST "+prefix+"/sync/{source}/{state}", h.HandleSyncSource)
	mux.HandleFunc("POST "+prefix+"/sync/{source}/{state}/{postcode}", h.HandleSyncSource)

	mux.HandleFunc("GET "+prefix+"/lookup/abn/{abn}", h.HandleLookupABN)

	if s.config.MetricsEnabled && s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Not found")
	})
}

// applyMiddleware wraps handler with middleware chain.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cfg := s.config

	if cfg.RateLimit > 0 {
		handler = middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimit, s.logger))(handler)
	}

	if cfg.AuthEnabled {
		authConfig := middleware.DefaultAuthConfig()
		authConfig.Enabled = true
		authConfig.APIKey = cfg.APIKey
		if cfg.AuthHeader != "" {
			authConfig.HeaderName = cfg.AuthHeader
		}
		handler = middleware.Auth(authConfig, s.logger)(handler)
	}

	if cfg.CORSEnabled {
		corsConfig := middleware.DefaultCORSConfig()
		if len(cfg.CORSOrigins) > 0 {
			corsConfig.AllowedOrigins = cfg.CORSOrigins
		} else {
			corsConfig.AllowAll = true
		}
		handler = middleware.CORS(corsConfig)(handler)
	}

	var rec middleware.Recorder
	if s.metrics != nil {
		rec = s.metrics
	}
	return middleware.Chain(
		middleware.Recovery(s.logger),
		middleware.RequestID,
		middleware.Logger(s.logger, rec),
	)(handler)
}
