package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	appai "github.com/bryanwahyu/policylens/internal/application/ai"
	appclauses "github.com/bryanwahyu/policylens/internal/application/clauses"
	appinsights "github.com/bryanwahyu/policylens/internal/application/insights"
	apppolicies "github.com/bryanwahyu/policylens/internal/application/policies"
	appsessions "github.com/bryanwahyu/policylens/internal/application/sessions"
	appusers "github.com/bryanwahyu/policylens/internal/application/users"
	"github.com/bryanwahyu/policylens/internal/domain/documents"
	"github.com/bryanwahyu/policylens/internal/infra/auth"
	"github.com/bryanwahyu/policylens/internal/middleware"
)

// Deps is everything the router needs. Google may be nil (OAuth disabled).
type Deps struct {
	Users    *appusers.Service
	Policies *apppolicies.Service
	Clauses  *appclauses.Service
	Insights *appinsights.Service
	Sessions *appsessions.Service
	AI       *appai.Gateway
	PDF      documents.Extractor

	Auth   *auth.Manager
	State  *auth.StateSigner
	Google *auth.Google

	Options Options
}

type Options struct {
	AllowedOrigins []string
	AdminKey       string
	RateCapacity   int
	RateRefill     float64
	UploadMaxBytes int64
	CallbackURL    string // absolute, or a path resolved against the request host
	RequiredHealth map[string]middleware.HealthChecker
	OptionalHealth map[string]middleware.HealthChecker
}

type Router struct {
	Deps
}

func NewRouter(d Deps) http.Handler {
	r := &Router{Deps: d}
	mux := chi.NewRouter()

	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(chimw.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Options.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization", "X-API-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	mux.Use(middleware.LoadUser(d.Auth, d.Users))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)

	mux.Get("/health", middleware.HealthHandler(d.Options.RequiredHealth, d.Options.OptionalHealth))
	mux.Get("/health/live", middleware.LivenessHandler)
	mux.With(middleware.APIKeyAuth(d.Options.AdminKey)).Get("/metrics", middleware.MetricsHandler)

	limit := middleware.RateLimitMiddleware(d.Options.RateCapacity, d.Options.RateRefill)

	mux.Route("/api", func(rt chi.Router) {
		// ==== auth ====
		rt.Get("/auth/google", r.wrap("Failed to start Google login", r.handleGoogleStart))
		rt.Get("/auth/google/callback", r.handleGoogleCallback)
		rt.With(limit).Post("/auth/register", r.wrap("Failed to register", r.handleRegister))
		rt.With(limit).Post("/auth/login", r.wrap("Failed to log in", r.handleLogin))
		rt.Post("/auth/logout", r.wrap("Failed to log out", r.handleLogout))
		rt.Get("/user", r.wrap("Failed to fetch user", r.handleCurrentUser))

		// ==== policy analyses ====
		rt.Post("/analyses", r.wrap("Failed to create analysis", r.handleCreateAnalysis))
		rt.Group(func(owner chi.Router) {
			owner.Use(middleware.RequireUser)
			owner.Get("/analyses", r.wrap("Failed to fetch analyses", r.handleListAnalyses))
			owner.Get("/analyses/{id}", r.wrap("Failed to fetch analysis", r.handleGetAnalysis))
			owner.Delete("/analyses/{id}", r.wrap("Failed to delete analysis", r.handleDeleteAnalysis))
			owner.Post("/analyses/{id}/export", r.wrap("Failed to export analysis", r.handleExportAnalysis))
		})

		// ==== clauses ====
		rt.Post("/clauses/explain", r.wrap("Failed to process clause", r.handleExplainClause))
		rt.Get("/clauses/top", r.wrap("Failed to fetch clauses", r.handleTopClauses))

		// ==== insights ====
		rt.Post("/insights", r.wrap("Failed to create insight", r.handleCreateInsight))
		rt.Get("/insights/{category}", r.wrap("Failed to fetch insights", r.handleListInsights))

		// ==== sessions ====
		rt.Post("/session", r.wrap("Failed to manage session", r.handleSession))
		rt.Post("/session/cleanup", r.wrap("Failed to cleanup sessions", r.handleSessionCleanup))
		rt.Patch("/session/{id}", r.wrap("Failed to update session", r.handleSessionActivity))

		// ==== ai + upload ====
		rt.Group(func(ai chi.Router) {
			ai.Use(limit)
			ai.Post("/ai/analyze", r.wrap("Failed to analyze policy", r.handleAIAnalyze))
			ai.Post("/ai/chat", r.wrap("Failed to answer question", r.handleAIChat))
			ai.Post("/upload/pdf", r.wrap("Failed to process PDF", r.handleUploadPDF))
		})
	})

	return mux
}
