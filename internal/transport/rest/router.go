package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/mission-management/internal/auth"
	"github.com/frahmantamala/mission-management/internal/mission"
	"github.com/frahmantamala/mission-management/internal/transport/middleware"
	"github.com/frahmantamala/mission-management/internal/transport/swagger"
	"github.com/frahmantamala/mission-management/internal/user"
)

// RegisterAllRoutes wires every handler onto the router. Registration and
// login stay public; everything else sits behind the auth middleware.
func RegisterAllRoutes(router *chi.Mux, db *sql.DB, allowedOrigins string, authHandler *auth.Handler, userHandler *user.Handler, missionHandler *mission.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if authHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", authHandler.Login)
				sr.Post("/refresh", authHandler.RefreshToken)
				sr.Post("/logout", authHandler.Logout)
			})
		}

		if userHandler != nil {
			userHandler.RegisterPublicRoutes(r)
		}

		if authHandler != nil {
			r.Group(func(pr chi.Router) {
				pr.Use(authHandler.AuthMiddleware)

				if userHandler != nil {
					userHandler.RegisterRoutes(pr)
				}
				if missionHandler != nil {
					missionHandler.RegisterRoutes(pr)
				}
			})
		}
	})
}
