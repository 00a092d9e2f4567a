package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/chetan-code/taskflow/internal/identity"
	"github.com/chetan-code/taskflow/internal/models"
	"github.com/chetan-code/taskflow/internal/session"
)

const (
	invalidLoginNotice   = "Invalid email or password."
	loginFailedNotice    = "Sign in failed. Please try again."
	providerFailedNotice = "Sign in with Google failed. Please try again."
	signupFailedNotice   = "Sign up failed. Please try again."
	registeredInfo       = "Account created. Please log in."
	sessionFailedNotice  = "Could not start your session. Please try again."
)

func (h *Handler) loginPage(notice, email string) authPage {
	return authPage{
		Title:           "Log in",
		Email:           email,
		Notice:          notice,
		ProviderEnabled: h.provider != nil,
	}
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	//already signed in, nothing to do here
	if _, ok := session.MustFromContext(r.Context()).Identity(); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	data := h.loginPage("", "")
	if r.URL.Query().Get("registered") != "" {
		data.Info = registeredInfo
	}
	h.render(w, r, http.StatusOK, pageLogin, "layout", data)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	id, token, err := h.auth.Authenticate(r.Context(), email, r.PostFormValue("password"))
	if errors.Is(err, identity.ErrInvalidCredentials) {
		slog.Info("login_rejected", "ip", r.RemoteAddr)
		h.render(w, r, http.StatusUnauthorized, pageLogin, "layout", h.loginPage(invalidLoginNotice, email))
		return
	}
	if err != nil {
		slog.Error("login_failed", "error", err)
		h.render(w, r, http.StatusBadGateway, pageLogin, "layout", h.loginPage(loginFailedNotice, email))
		return
	}

	if err := establish(r, id, token); err != nil {
		h.render(w, r, http.StatusInternalServerError, pageLogin, "layout", h.loginPage(sessionFailedNotice, email))
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) SignupPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageSignup, "layout", authPage{Title: "Sign up"})
}

// Signup only enforces what the identity service enforces.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	_, err := h.auth.Register(r.Context(), email, r.PostFormValue("password"))
	if err == nil {
		http.Redirect(w, r, "/login?registered=1", http.StatusSeeOther)
		return
	}

	status, notice := http.StatusUnprocessableEntity, ""
	switch {
	case errors.Is(err, identity.ErrEmailInUse),
		errors.Is(err, identity.ErrInvalidEmail),
		errors.Is(err, identity.ErrWeakPassword):
		notice = sentence(err.Error())
	default:
		slog.Error("signup_failed", "error", err)
		status, notice = http.StatusBadGateway, signupFailedNotice
	}
	h.render(w, r, status, pageSignup, "layout", authPage{Title: "Sign up", Email: email, Notice: notice})
}

func (h *Handler) BeginAuth(w http.ResponseWriter, r *http.Request) {
	if !h.providerMatches(r) {
		http.NotFound(w, r)
		return
	}
	h.provider.BeginAuth(w, r)
}

func (h *Handler) AuthCallback(w http.ResponseWriter, r *http.Request) {
	if !h.providerMatches(r) {
		http.NotFound(w, r)
		return
	}

	user, err := h.provider.CompleteAuth(w, r)
	if err != nil {
		slog.Error("provider_auth_failed", "provider", h.provider.Name(), "error", err)
		h.render(w, r, http.StatusUnauthorized, pageLogin, "layout", h.loginPage(providerFailedNotice, ""))
		return
	}

	//auth success - issue jwt and keep it in the session
	id, token, err := h.auth.AuthenticateViaProvider(r.Context(), user)
	if err != nil {
		slog.Error("provider_sign_in_failed", "provider", h.provider.Name(), "error", err)
		h.render(w, r, http.StatusUnauthorized, pageLogin, "layout", h.loginPage(providerFailedNotice, ""))
		return
	}
	if err := establish(r, id, token); err != nil {
		h.render(w, r, http.StatusInternalServerError, pageLogin, "layout", h.loginPage(sessionFailedNotice, ""))
		return
	}

	s := session.MustFromContext(r.Context())
	if err := s.SetDisplay(id.DisplayName, id.PhotoURL); err != nil {
		slog.Error("session_display_save_failed", "uid", id.ID, "error", err)
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	s := session.MustFromContext(r.Context())
	if id, ok := s.Identity(); ok {
		h.auth.SignOut(r.Context(), id)
	}

	// clear session token, user and cached profile fields
	if err := s.Clear(); err != nil {
		slog.Error("session_clear_failed", "error", err)
	}

	//clear gothic session
	if h.provider != nil {
		if err := h.provider.Logout(w, r); err != nil {
			slog.Error("provider_logout_failed", "error", err)
		}
	}
	redirect(w, r, "/login")
}

func (h *Handler) providerMatches(r *http.Request) bool {
	return h.provider != nil && chi.URLParam(r, "provider") == h.provider.Name()
}

func establish(r *http.Request, id models.Identity, token string) error {
	if err := session.MustFromContext(r.Context()).Establish(id, token); err != nil {
		slog.Error("session_establish_failed", "uid", id.ID, "error", err)
		return err
	}
	return nil
}

// sentence capitalizes an error message for display.
func sentence(msg string) string {
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}
