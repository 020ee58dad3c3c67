package http

import (
	"net/http"

	"github.com/atcloud/message-center/internal/application/bell"
	"github.com/atcloud/message-center/internal/application/fanout"
	"github.com/atcloud/message-center/internal/application/push"
	"github.com/atcloud/message-center/internal/application/system"
	"github.com/atcloud/message-center/internal/config"
	"github.com/atcloud/message-center/internal/domain"
	jwtinfra "github.com/atcloud/message-center/internal/infrastructure/jwt"
	"github.com/atcloud/message-center/internal/infrastructure/sse"
	"github.com/atcloud/message-center/internal/transport/http/handler"
	appmiddleware "github.com/atcloud/message-center/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	MessageRepo MessageRepository
	UserRepo    UserRepository
	Hub         *sse.Hub
	Gateway     push.Gateway
	JWTProvider *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 2 broadcasts/second, burst of 5 — a runaway admin script should not
	// be able to fan out to the whole user base in a tight loop.
	broadcastRL := appmiddleware.NewRateLimiter(rate.Limit(2), 5)

	fanoutSvc := fanout.NewService(deps.MessageRepo, deps.UserRepo, deps.Gateway)
	bellSvc := bell.NewService(deps.MessageRepo, deps.Gateway)
	systemSvc := system.NewService(deps.MessageRepo, deps.Gateway)

	healthH := handler.NewHealthHandler()
	bellH := handler.NewBellHandler(bellSvc)
	systemH := handler.NewSystemHandler(systemSvc)
	broadcastH := handler.NewBroadcastHandler(fanoutSvc)
	streamH := handler.NewStreamHandler(deps.Hub)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.Get("/test", healthH.Test)
		r.Post("/test", healthH.Test)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			// Bell surface (transient alert feed)
			r.Get("/alerts", bellH.List)
			r.Put("/alerts/read-all", bellH.MarkAllRead)
			r.Put("/alerts/{id}/read", bellH.MarkRead)
			r.Delete("/alerts/{id}", bellH.Remove)

			// System surface (persistent inbox)
			r.Get("/messages", systemH.List)
			r.Put("/messages/read-all", systemH.MarkAllRead)
			r.Put("/messages/{id}/read", systemH.MarkRead)
			r.Delete("/messages/{id}", systemH.Delete)
			r.Delete("/messages", systemH.DeleteAll)

			// Real-time stream
			r.Get("/stream", streamH.Stream)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.With(broadcastRL.Limit).Post("/broadcasts", broadcastH.Create)
				r.Post("/broadcasts/{id}/recipients", broadcastH.AppendRecipients)
				r.Delete("/broadcasts/{id}", broadcastH.Deactivate)
			})
		})
	})

	return r
}
