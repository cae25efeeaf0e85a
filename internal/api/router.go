package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/hugh/meetly/internal/api/handlers"
	"github.com/hugh/meetly/internal/api/middleware"
	"github.com/hugh/meetly/internal/auth"
	"github.com/hugh/meetly/internal/stream"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB              *gorm.DB
	Redis           *redis.Client
	Logger          *slog.Logger
	JWTService      *auth.JWTService
	AuthService     *auth.Service
	StreamService   stream.Service
	StreamAPISecret string
	AsynqClient     *asynq.Client
	AllowedOrigins  []string // CORS allowed origins
	RateLimitReqs   int      // Rate limit requests per window
	RateLimitSecs   int      // Rate limit window in seconds
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	// Rate limiting - applied globally to prevent abuse
	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
	}

	// CORS - restrict to configured origins, or allow all in development
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		// Default to localhost for development - configure in production
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService)
	agentHandler := handlers.NewAgentHandler(cfg.DB)
	meetingHandler := handlers.NewMeetingHandler(cfg.DB, cfg.StreamService)
	webhookHandler := handlers.NewWebhookHandler(cfg.DB, cfg.StreamAPISecret, cfg.AsynqClient, cfg.Logger)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)

		// Webhook endpoint, authenticated by signature rather than JWT
		r.Post("/webhooks/stream", webhookHandler.HandleStream)

		// Agent reads are currently public.
		// TODO: require auth on agent reads once clients send tokens here.
		r.Get("/agents", agentHandler.List)
		r.Get("/agents/{id}", agentHandler.Get)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService))

			// User endpoints
			r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
				userID := middleware.GetUserID(r.Context())
				user, err := cfg.AuthService.GetUserByID(r.Context(), userID)
				if err != nil {
					http.Error(w, "User not found", http.StatusNotFound)
					return
				}
				writeJSON(w, http.StatusOK, user)
			})

			// Agents endpoints
			r.Post("/agents", agentHandler.Create)

			// Meetings endpoints
			r.Route("/meetings", func(r chi.Router) {
				r.Get("/", meetingHandler.List)
				r.Post("/", meetingHandler.Create)
				r.Post("/token", meetingHandler.GenerateToken)
				r.Get("/{id}", meetingHandler.Get)
				r.Put("/{id}", meetingHandler.Update)
				r.Delete("/{id}", meetingHandler.Delete)
			})
		})
	})

	return &Router{r}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
