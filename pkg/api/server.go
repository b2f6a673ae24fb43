/*
Beluga dictionary engine REST API

A thin HTTP surface over a Bookshelf: register/remove dictionaries,
prefix search, exact entry lookup with redirect chasing, resource
retrieval, and cache resizing.

Version: 1.0.0
Host: localhost:8080
BasePath: /api/v1

SecurityDefinitions:
  - ApiKeyAuth:
    type: apiKey
    in: header
    name: X-API-Key

swagger:meta
*/
package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ssargent/beluga/pkg/bookshelf"
	httpSwagger "github.com/swaggo/http-swagger"
)

// StartServer starts the HTTP server with all routes configured.
func StartServer(shelf *bookshelf.Bookshelf, config ServerConfig) error {
	metrics := NewMetrics()
	server := NewServer(shelf, config, metrics)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(metrics.InstrumentAuthMiddleware(apiKeyMiddleware(config.APIKey)))

		r.Get("/health", metrics.InstrumentHandler("GET", "/api/v1/health", server.handleHealth))

		r.Post("/dictionaries", metrics.InstrumentHandler("POST", "/api/v1/dictionaries", server.handleAddDictionary))
		r.Delete("/dictionaries/{handle}", metrics.InstrumentHandler("DELETE", "/api/v1/dictionaries/{handle}", server.handleRemoveDictionary))
		r.Get("/dictionaries/{handle}/search", metrics.InstrumentHandler("GET", "/api/v1/dictionaries/{handle}/search", server.handleSearch))
		r.Get("/dictionaries/{handle}/entry", metrics.InstrumentHandler("GET", "/api/v1/dictionaries/{handle}/entry", server.handleSearchEntry))
		r.Get("/dictionaries/{handle}/resource", metrics.InstrumentHandler("GET", "/api/v1/dictionaries/{handle}/resource", server.handleSearchResource))
		r.Get("/dictionaries/{handle}/static", metrics.InstrumentHandler("GET", "/api/v1/dictionaries/{handle}/static", server.handleStaticFiles))

		r.Post("/cache/resize", metrics.InstrumentHandler("POST", "/api/v1/cache/resize", server.handleResizeCache))
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", config.Port)),
	))

	addr := fmt.Sprintf("%s:%d", config.Bind, config.Port)
	fmt.Printf("Starting beluga REST API server on %s\n", addr)
	fmt.Printf("Metrics available at: http://%s/metrics\n", addr)
	return http.ListenAndServe(addr, r)
}
