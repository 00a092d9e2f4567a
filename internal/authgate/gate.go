// Package authgate admits a request to a protected page only when a session
// identity is present.
package authgate

import (
	"log/slog"
	"net/http"

	"github.com/chetan-code/taskflow/internal/session"
)

type State int

const (
	// Pending: the session store has not finished rehydrating.
	Pending State = iota
	Denied
	Granted
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Denied:
		return "denied"
	case Granted:
		return "granted"
	}
	return "unknown"
}

// Evaluate derives the gate state from the store. Pending wins over
// identity presence.
func Evaluate(s *session.Store) State {
	if s.Initializing() {
		return Pending
	}
	if _, ok := s.Identity(); !ok {
		return Denied
	}
	return Granted
}

// Middleware wraps handlers that require a signed-in identity. Denied requests
// go to loginPath.
func Middleware(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// keep gated pages out of the back/forward cache
			w.Header().Set("Cache-Control", "no-store")

			switch Evaluate(session.MustFromContext(r.Context())) {
			case Pending:
				w.WriteHeader(http.StatusNoContent)
			case Denied:
				slog.DebugContext(r.Context(), "auth_gate_denied", "path", r.URL.Path)
				redirect(w, r, loginPath)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// htmx follows HX-Redirect with a full navigation instead of swapping a 303 body
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", to)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}
