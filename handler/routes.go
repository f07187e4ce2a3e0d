package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pgalanos/crm-api/auth"
	"go.uber.org/zap"
)

// Routes mounts the API surface. The paths and verbs are the contract the
// mobile client ships with and must not change.
func Routes(r chi.Router, tokens *auth.Authenticator, log *zap.SugaredLogger, ah *AuthHandler, ch *CustomerHandler, lh *LeadHandler) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", ah.Register)
		r.Post("/auth/login", ah.Login)

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(tokens, log))

			r.Route("/customers", func(r chi.Router) {
				r.Get("/", ch.List)
				r.Post("/", ch.Create)
				r.Put("/{id}", ch.Update)
				r.Patch("/{id}", ch.Update)
				r.Delete("/{id}", ch.Delete)
			})

			r.Route("/leads", func(r chi.Router) {
				r.Get("/", lh.List)
				r.Get("/count", lh.Count)
				r.Post("/", lh.Create)
				r.Put("/{id}", lh.Update)
				r.Delete("/{id}", lh.Delete)
			})
		})
	})
}

// NewRouter builds a standalone router with the full API surface mounted.
// cmd/servid adds its middleware stack on top of this.
func NewRouter(tokens *auth.Authenticator, log *zap.SugaredLogger, ah *AuthHandler, ch *CustomerHandler, lh *LeadHandler) http.Handler {
	r := chi.NewRouter()
	Routes(r, tokens, log, ah, ch, lh)
	return r
}
