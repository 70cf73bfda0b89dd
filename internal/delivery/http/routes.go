package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/caten-app/backend/internal/middleware"
)

func NewRouter(handler *Handler, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.DeviceIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(rateLimiter.Limit)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		// Public: these exchange credentials, they are not gated by them.
		r.Post("/google", handler.GoogleLogin)
		r.Post("/refresh", handler.RefreshToken)

		// The gate every other endpoint passes: authenticated caller or
		// metered anonymous device.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.UserOrDevice)
			r.Get("/session", handler.GetSession)
		})

		// Requires a currently valid access token.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireUser)
			r.Post("/logout", handler.Logout)
			r.Get("/profile", handler.GetProfile)
			r.Get("/logins", handler.GetLoginHistory)
		})
	})

	return r
}
