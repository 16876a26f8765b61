package main

import (
	"log"
	"net/http"

	httphandlers "marketplace/internal/interfaces/http"
	"marketplace/internal/shared/config"
	"marketplace/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", httphandlers.HandleHealth(deps.Health))

	deps.ProductHandler.Register(mux)
	deps.ItemHandler.Register(mux)
	deps.ListingHandler.Register(mux)
	deps.AuthHandler.Register(mux)

	// Apply global middleware, innermost first. Tracing sits on the mux to
	// see the matched pattern; Logging sits inside RequestID and Identify
	// to see their values.
	handler := middleware.Tracing(mux)
	handler = middleware.Logging(handler)
	handler = middleware.Identify(deps.JWT)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.CORS(cfg.Server.AllowedHosts)(handler)

	// Apply security middleware when TLS is enabled
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(middleware.SecureCookies(handler))
		log.Println("TLS security middleware enabled (HSTS + SecureCookies)")
	}

	if cfg.Telemetry.Enabled {
		handler = middleware.Telemetry(cfg.Telemetry.ServiceName, handler)
	}

	return handler
}
