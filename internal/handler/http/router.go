package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/StoreRatingsGo/pkg/health"
	"github.com/utafrali/StoreRatingsGo/pkg/middleware"

	"github.com/utafrali/StoreRatingsGo/internal/service"
)

// RouterDeps bundles everything the router needs.
type RouterDeps struct {
	Accounts      *service.AccountService
	Stores        *service.StoreService
	Ratings       *service.RatingService
	Stats         *service.StatsService
	HealthHandler *health.Handler
	Logger        *slog.Logger
	CORS          CORSConfig
	// Tracing toggles the per-request span middleware.
	Tracing bool
}

// NewRouter creates the chi router with all routes registered.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(CORS(deps.CORS))
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogging(deps.Logger))
	if deps.Tracing {
		r.Use(middleware.Tracing("storeratings"))
	}
	r.Use(middleware.PrometheusMetrics("storeratings"))

	r.Get("/health/live", deps.HealthHandler.LivenessHandler())
	r.Get("/health/ready", deps.HealthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	authHandler := NewAuthHandler(deps.Accounts, deps.Logger)
	accountHandler := NewAccountHandler(deps.Accounts, deps.Logger)
	storeHandler := NewStoreHandler(deps.Stores, deps.Logger)
	ratingHandler := NewRatingHandler(deps.Ratings, deps.Logger)
	statsHandler := NewStatsHandler(deps.Stats, deps.Logger)

	// The validator checks that the token parses AND its session is still
	// live, so logout takes effect immediately.
	validate := func(ctx context.Context, token string) (*middleware.Claims, error) {
		principal, err := deps.Accounts.CurrentSession(ctx, token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			AccountID: principal.AccountID,
			Email:     principal.Email,
			Role:      principal.Role,
		}, nil
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(validate))
				r.Post("/logout", authHandler.Logout)
				r.Get("/session", authHandler.Session)
				r.Post("/change-password", authHandler.ChangePassword)
			})
		})

		r.Route("/stores", func(r chi.Router) {
			// Browsing the registry is public. The {id} segment of the
			// lookup route also accepts a slug.
			r.Get("/", storeHandler.List)
			r.Get("/{id}", storeHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(validate))
				r.Post("/", storeHandler.Create)
				r.Get("/{id}/dashboard", storeHandler.Dashboard)
				r.Post("/{id}/ratings", ratingHandler.Submit)
				r.Get("/{id}/ratings/me", ratingHandler.GetOwn)
				r.Delete("/{id}/ratings/{accountId}", ratingHandler.Delete)
			})
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Use(middleware.Auth(validate))
			r.Post("/", accountHandler.Create)
			r.Get("/", accountHandler.List)
			r.Get("/{id}", accountHandler.Get)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(validate))
			r.Get("/stats", statsHandler.Get)
		})
	})

	return r
}
