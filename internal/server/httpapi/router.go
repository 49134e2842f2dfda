package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/channelauth/internal/logging"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the API under /api/v1/users.
func NewRouter(h *Handler, tokens AccessVerifier, log logging.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(requestLogger(log))
	r.Use(chiMiddleware.Recoverer)

	r.Get("/healthz", Health)

	required := Authenticate(tokens, log, true)
	optional := Authenticate(tokens, log, false)

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/refresh-token", h.Refresh)

		r.With(optional).Get("/c/{username}", h.ChannelProfile)

		r.Group(func(r chi.Router) {
			r.Use(required)

			r.Post("/logout", h.Logout)
			r.Post("/change-password", h.ChangePassword)
			r.Get("/current-user", h.CurrentUser)
			r.Patch("/update-account", h.UpdateAccount)
			r.Patch("/avatar", h.UpdateAvatar)
			r.Patch("/cover-image", h.UpdateCoverImage)
			r.Post("/c/{username}/subscription", h.Subscribe)
			r.Delete("/c/{username}/subscription", h.Unsubscribe)
		})
	})

	return r
}
