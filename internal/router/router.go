package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	appMiddleware "user-account-service/app/middleware"
	"user-account-service/internal/api/account"
)

// Config contains dependencies needed for the router setup.
type Config struct {
	AccountHandler *account.AccountHandler

	// Production disables the profiler console; the /debug path answers 403.
	Production bool
}

// SetupRouter wires the HTTP surface. Server-wide middleware (request ID,
// logging, recoverer) is applied by main before mounting this router.
//
// Access policy is permissive: every account endpoint is reachable without
// authentication. Only the profiler console is gated, by deployment mode.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/register", cfg.AccountHandler.Register)
		r.Post("/login", cfg.AccountHandler.Login)

		r.Get("/", cfg.AccountHandler.ListAll)
		r.Get("/active", cfg.AccountHandler.ListActive)
		r.Get("/search", cfg.AccountHandler.Search)
		r.Get("/username/{username}", cfg.AccountHandler.GetByUsername)
		r.Get("/{id}", cfg.AccountHandler.GetByID)

		r.Put("/{id}", cfg.AccountHandler.UpdateProfile)
		r.Patch("/{id}/deactivate", cfg.AccountHandler.Deactivate)
		r.Patch("/{id}/activate", cfg.AccountHandler.Activate)
		r.Patch("/{id}/password", cfg.AccountHandler.ChangePassword)
		r.Delete("/{id}", cfg.AccountHandler.Delete)
	})

	r.Route("/debug", func(r chi.Router) {
		r.Use(appMiddleware.BlockInProduction(cfg.Production))
		r.Mount("/", middleware.Profiler())
	})

	return r
}
