package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chetan-code/taskflow/internal/authgate"
)

// NewRouter wires every route. sessionMW attaches the session store; the
// gated group additionally runs the auth gate.
func NewRouter(h *Handler, sessionMW func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Healthz)

	r.Group(func(r chi.Router) {
		r.Use(sessionMW)

		//redirect any root to login
		r.Get("/", HomeRedirect)
		r.Get("/login", h.LoginPage)
		r.Post("/login", h.Login)
		r.Get("/signup", h.SignupPage)
		r.Post("/signup", h.Signup)
		r.Get("/auth/{provider}", h.BeginAuth)
		r.Get("/auth/{provider}/callback", h.AuthCallback)
		r.Post("/logout", h.Logout)

		//we will protect them - only a signed in identity can access these routes
		r.Group(func(r chi.Router) {
			r.Use(authgate.Middleware("/login"))
			r.Get("/dashboard", h.Dashboard)
			r.Post("/dashboard/tasks/{id}/status", h.UpdateStatus)
			r.Get("/add-task", h.AddTaskPage)
			r.Post("/add-task", h.AddTask)
		})
	})

	return r
}
