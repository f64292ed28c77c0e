package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-user-auth/internal/config"
	"go-user-auth/internal/handler"
	"go-user-auth/internal/middleware"
)

type Handlers struct {
	Auth   *handler.AuthHandler
	User   *handler.UserHandler
	Health *handler.HealthHandler
}

func New(cfg *config.Config, adminGate *middleware.AdminGate, handlers Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.Get("/health", handlers.Health.Check)

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", handlers.Auth.Login)
			auth.Get("/token", handlers.Auth.Token)
			// Logout is reachable both ways so stale clients can always
			// drop their session.
			auth.Get("/logout", handlers.Auth.Logout)
			auth.Post("/logout", handlers.Auth.Logout)
		})

		api.Route("/users", func(users chi.Router) {
			users.Use(adminGate.RequireAdmin)
			users.Get("/all", handlers.User.List)
			users.Get("/{id}", handlers.User.Get)
			users.Post("/add", handlers.User.Add)
			users.Put("/update", handlers.User.Update)
			users.Delete("/delete/{id}", handlers.User.Delete)
		})
	})

	return r
}
