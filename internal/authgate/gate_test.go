package authgate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chetan-code/taskflow/internal/models"
	"github.com/chetan-code/taskflow/internal/session"
)

var ada = models.Identity{ID: "uid-ada", Email: "ada@example.com"}

func signedIn(t *testing.T) *session.Store {
	t.Helper()
	s := session.New(session.NewMemoryKV())
	if err := s.Establish(ada, "tok"); err != nil {
		t.Fatalf("establish: %v", err)
	}
	return s
}

func signedOut(t *testing.T) *session.Store {
	t.Helper()
	s, err := session.Open(context.Background(), session.NewMemoryKV())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func TestEvaluate(t *testing.T) {
	// pending even though an identity is stored, rehydrate has not run
	kv := session.NewMemoryKV()
	if err := session.New(kv).Establish(ada, "tok"); err != nil {
		t.Fatalf("establish: %v", err)
	}
	pending := session.New(kv)

	tests := []struct {
		name  string
		store *session.Store
		want  State
	}{
		{"pending", pending, Pending},
		{"denied", signedOut(t), Denied},
		{"granted", signedIn(t), Granted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.store); got != tt.want {
				t.Errorf("Evaluate = %v, want %v", got, tt.want)
			}
		})
	}
}

func serve(store *session.Store, htmx bool) (*httptest.ResponseRecorder, bool) {
	called := false
	h := Middleware("/login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Write([]byte("protected"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	req = req.WithContext(session.WithStore(req.Context(), store))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, called
}

func TestMiddlewarePendingNeverRedirects(t *testing.T) {
	rec, called := serve(session.New(session.NewMemoryKV()), false)
	if called {
		t.Error("protected handler ran while pending")
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "" {
		t.Errorf("unexpected redirect to %q", loc)
	}
}

func TestMiddlewareDeniedRedirectsToLogin(t *testing.T) {
	rec, called := serve(signedOut(t), false)
	if called {
		t.Error("protected handler ran while denied")
	}
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Errorf("got %d to %q", rec.Code, rec.Header().Get("Location"))
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("expected no-store on denied response")
	}

	rec, _ = serve(signedOut(t), true)
	if rec.Header().Get("HX-Redirect") != "/login" {
		t.Errorf("htmx redirect = %q", rec.Header().Get("HX-Redirect"))
	}
}

func TestMiddlewareGranted(t *testing.T) {
	rec, called := serve(signedIn(t), false)
	if !called || rec.Body.String() != "protected" {
		t.Fatalf("protected handler not served: %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("expected no-store on gated page")
	}
}

func TestMiddlewareAfterSignOut(t *testing.T) {
	s := signedIn(t)
	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	rec, called := serve(s, false)
	if called || rec.Code != http.StatusSeeOther {
		t.Errorf("expected redirect after sign-out, got %d", rec.Code)
	}
}
