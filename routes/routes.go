package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/catalog-assistant/app"
	"github.com/upb/catalog-assistant/handlers"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	chatHandler := handlers.NewChatHandler(deps.Responder, deps.Logger)
	corpusHandler := handlers.NewCorpusHandler(deps.Corpus, deps.Config.Vector, deps.Logger)
	healthHandler := handlers.NewHealthHandler(deps.DB.DB, deps.Corpus, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)

	// Chat endpoints
	r.Post("/chat", chatHandler.HandleChat)
	r.Route("/chat/{threadID}", func(r chi.Router) {
		r.Post("/", chatHandler.HandleChatThread)
		r.Get("/history", chatHandler.HandleHistory)
	})

	// Operational endpoints
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/corpus/stats", corpusHandler.HandleStats)
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
