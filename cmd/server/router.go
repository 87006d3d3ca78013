package main

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jacklvd/NEU-scheduler/internal/handlers"
	"github.com/jacklvd/NEU-scheduler/internal/middleware"
)

// newRouter mounts every route and wraps the router in the outer middleware chain.
func newRouter(app *application) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Metrics)
	r.Use(middleware.BearerToken)

	graphiQL := !app.Config.IsProduction()
	gql := middleware.RateLimitMiddleware(app.APILimiter, app.Proxies, "graphql", app.Logger)(handlers.NewGraphQLHandler(app.Schema, graphiQL))
	if graphiQL {
		r.Handle("/graphql", gql).Methods(http.MethodPost, http.MethodGet)
	} else {
		r.Handle("/graphql", gql).Methods(http.MethodPost)
	}

	// --- Operational routes ---
	r.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)
	r.HandleFunc("/api/health", handlers.APIHealth(time.Now)).Methods(http.MethodGet)
	r.HandleFunc("/api/log", handlers.NewLogHandler(app.Logger).LogFrontendEvent).Methods(http.MethodPost)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	withCORS := cors.Handler(cors.Options{
		AllowedOrigins:   app.Config.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Origin"},
		AllowCredentials: true,
		MaxAge:           86400,
	})

	var h http.Handler = r
	h = withCORS(h)
	h = middleware.NewLoggingMiddleware(app.Logger)(h)
	h = middleware.NewRecoverPanic(app.Logger)(h)
	return h
}
