package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kennytong915/Japan-Ramen-Database/internal/domain"
	"github.com/kennytong915/Japan-Ramen-Database/internal/ratelimit"
	"github.com/kennytong915/Japan-Ramen-Database/internal/service"
	"github.com/kennytong915/Japan-Ramen-Database/pkg/health"
	"github.com/kennytong915/Japan-Ramen-Database/pkg/middleware"
)

// RouterConfig holds the handler-level settings the router needs.
type RouterConfig struct {
	MaxPhotos         int
	PprofEnabled      bool
	PprofAllowedCIDRs []string
}

// NewRouter creates a chi router with all directory routes registered.
// Write endpoints for comments sit behind the per-IP rate limiter, and
// moderation endpoints require the admin role.
func NewRouter(
	commentService *service.CommentService,
	userService *service.UserService,
	restaurantService *service.RestaurantService,
	validateToken middleware.TokenValidator,
	limiter *ratelimit.Limiter,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("ramen-directory"))

	// Health and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if cfg.PprofEnabled {
		middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)
	}

	authRequired := middleware.Auth(validateToken)
	rateLimited := RateLimit(limiter, logger)

	commentHandler := NewCommentHandler(commentService, cfg.MaxPhotos, logger)
	userHandler := NewUserHandler(userService, logger)
	restaurantHandler := NewRestaurantHandler(restaurantService, logger)

	// Auth endpoints. Login stays unthrottled; the failed-attempt lockout
	// covers brute forcing.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.With(rateLimited).Post("/register", userHandler.Register)
		r.Post("/login", userHandler.Login)
	})

	// Restaurant endpoints, with comments and photos nested per restaurant
	r.Route("/api/v1/restaurants", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.With(middleware.CacheControl(60)).Get("/ranking", restaurantHandler.Ranking)

		r.Route("/{restaurantId}", func(r chi.Router) {
			r.Get("/", restaurantHandler.GetRestaurant)
			r.Get("/comments", commentHandler.ListComments)
			r.With(middleware.CacheControl(60)).Get("/photos", commentHandler.RestaurantPhotos)
			r.Get("/photos/latest", commentHandler.LatestPhoto)

			r.Group(func(r chi.Router) {
				r.Use(authRequired)

				r.Get("/comments/eligibility", commentHandler.Eligibility)
				r.With(rateLimited).Post("/comments", commentHandler.CreateComment)
			})
		})
	})

	// Comment endpoints
	r.Route("/api/v1/comments", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/{id}", commentHandler.GetComment)
		// Reporting is open to unauthenticated visitors but rate limited.
		r.With(rateLimited).Post("/{id}/report", commentHandler.ReportComment)

		r.Group(func(r chi.Router) {
			r.Use(authRequired)

			r.With(rateLimited).Put("/{id}", commentHandler.UpdateComment)
			r.Delete("/{id}", commentHandler.DeleteComment)
			r.With(rateLimited).Post("/{id}/photos", commentHandler.AttachPhotos)
		})
	})

	// Current user endpoints
	r.Route("/api/v1/users/me", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(authRequired)

		r.Get("/", userHandler.Me)
		r.Get("/comments", commentHandler.ListMyComments)
	})

	// Moderation endpoints (admin only)
	r.Route("/api/v1/moderation/comments", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(authRequired)
		r.Use(middleware.RequireRole(domain.RoleAdmin))

		r.Get("/", commentHandler.ListReported)
		r.Post("/{id}/review", commentHandler.ReviewComment)
	})

	return r
}
