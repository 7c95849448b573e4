package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/infrawatch/auth-service/internal/api/handlers"
	"github.com/infrawatch/auth-service/internal/api/middleware"
	"github.com/infrawatch/auth-service/internal/config"
	"github.com/infrawatch/auth-service/internal/repository"
	"github.com/infrawatch/auth-service/internal/service"
	"github.com/infrawatch/auth-service/internal/token"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// route is one registered operation. The public flag is the single source of
// truth for whether the auth guard wraps the handler.
type route struct {
	method  string
	pattern string
	handler http.HandlerFunc
	public  bool
}

func NewRouter(services *service.Services, repos *repository.Repositories, codec *token.Codec, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           int((10 * time.Minute).Seconds()),
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Method("GET", "/metrics", promhttp.Handler())

	authHandler := handlers.NewAuthHandler(services.Token, services.Verification)
	guard := middleware.Auth(codec, repos.User)

	routes := []route{
		{method: "POST", pattern: "/auth/login", handler: authHandler.Login, public: true},
		{method: "POST", pattern: "/auth/register", handler: authHandler.Register, public: true},
		{method: "POST", pattern: "/auth/refresh", handler: authHandler.Refresh, public: true},
		{method: "POST", pattern: "/auth/verify-code", handler: authHandler.VerifyCode, public: true},
		{method: "POST", pattern: "/auth/resend-code", handler: authHandler.ResendCode, public: true},
		{method: "GET", pattern: "/auth/me", handler: authHandler.Me},
		{method: "POST", pattern: "/auth/logout", handler: authHandler.Logout},
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.Limit(100, time.Minute))

		for _, rt := range routes {
			var h http.Handler = rt.handler
			if !rt.public {
				h = guard(h)
			}
			r.Method(rt.method, rt.pattern, h)
		}
	})

	return r
}
