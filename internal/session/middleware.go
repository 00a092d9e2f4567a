package session

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
)

// we are doing this to avoid collision with libraries
type contextKey struct{}

// WithStore attaches s to ctx.
func WithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func FromContext(ctx context.Context) (*Store, bool) {
	s, ok := ctx.Value(contextKey{}).(*Store)
	return s, ok && s != nil
}

// MustFromContext panics when no Provider sits above the caller.
func MustFromContext(ctx context.Context) *Store {
	s, ok := FromContext(ctx)
	if !ok {
		panic("session: store used outside session.Provider")
	}
	return s
}

// Provider loads the named gorilla session for every request and attaches a
// rehydrated Store to the request context.
func Provider(store sessions.Store, name string, opts ...Option) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// New instead of Get keeps the session out of gorilla's request registry
			gs, err := store.New(r, name)
			if err != nil {
				// tampered or rotated-secret cookie, start from an empty session
				slog.WarnContext(r.Context(), "session_cookie_invalid", "error", err)
			}
			if gs == nil {
				http.Error(w, "Session unavailable", http.StatusInternalServerError)
				return
			}

			s, err := Open(r.Context(), NewCookieKV(gs, r, w), opts...)
			if err != nil {
				slog.ErrorContext(r.Context(), "session_rehydrate_failed", "error", err)
			}
			next.ServeHTTP(w, r.WithContext(WithStore(r.Context(), s)))
		})
	}
}
