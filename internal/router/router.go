package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vidtube/internal/config"
	"vidtube/internal/handler"
	"vidtube/internal/middleware"
)

type Handlers struct {
	Auth *handler.AuthHandler
	User *handler.UserHandler

	// Health reports backing-store readiness; nil means always healthy.
	Health func(ctx context.Context) error
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, handlers Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if handlers.Health != nil {
			if err := handlers.Health(req.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("unavailable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1/users", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Post("/register", handlers.Auth.Register)
		api.Post("/login", handlers.Auth.Login)
		api.Post("/refresh-token", handlers.Auth.Refresh)

		api.With(authMiddleware.RequireAuth).Post("/logout", handlers.Auth.Logout)
		api.With(authMiddleware.RequireAuth).Post("/change-password", handlers.Auth.ChangePassword)
		api.With(authMiddleware.RequireAuth).Get("/current-user", handlers.User.Me)
		api.With(authMiddleware.RequireAuth).Patch("/update-account", handlers.User.UpdateAccount)
		api.With(authMiddleware.RequireAuth).Patch("/avatar", handlers.User.UpdateAvatar)
		api.With(authMiddleware.RequireAuth).Patch("/cover-image", handlers.User.UpdateCoverImage)
		api.With(authMiddleware.OptionalAuth).Get("/c/{username}", handlers.User.ChannelProfile)
		api.With(authMiddleware.RequireAuth).Get("/history", handlers.User.WatchHistory)
	})

	return r
}
