package identity

import (
	"net/http"

	gcontext "github.com/gorilla/context"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
)

// Provider runs a delegated sign-in round trip with a third-party identity
// provider.
type Provider interface {
	Name() string
	BeginAuth(w http.ResponseWriter, r *http.Request)
	CompleteAuth(w http.ResponseWriter, r *http.Request) (goth.User, error)
	Logout(w http.ResponseWriter, r *http.Request) error
}

// GothicProvider drives one goth provider through gothic's handlers. gothic
// reads its cookie through the gorilla registry, a global map keyed by
// request, so every method clears it on the way out.
type GothicProvider struct {
	name string
}

/*
gothic will create temp cookie using the store it will keep it for sometime
and when user complete login it will compare state to make sure login
process was completed from this app only (cross site request forgery)
*/
func UseGoogle(clientID, secret, callbackURL string, store sessions.Store) *GothicProvider {
	goth.UseProviders(
		google.New(clientID, secret, callbackURL, "email", "profile"),
	)
	gothic.Store = store
	return &GothicProvider{name: "google"}
}

func (p *GothicProvider) Name() string { return p.name }

func (p *GothicProvider) BeginAuth(w http.ResponseWriter, r *http.Request) {
	defer gcontext.Clear(r)
	gothic.BeginAuthHandler(w, p.withProvider(r))
}

func (p *GothicProvider) CompleteAuth(w http.ResponseWriter, r *http.Request) (goth.User, error) {
	defer gcontext.Clear(r)
	return gothic.CompleteUserAuth(w, p.withProvider(r))
}

func (p *GothicProvider) Logout(w http.ResponseWriter, r *http.Request) error {
	defer gcontext.Clear(r)
	return gothic.Logout(w, p.withProvider(r))
}

// gothic looks for the provider query param by default, force ours
func (p *GothicProvider) withProvider(r *http.Request) *http.Request {
	q := r.URL.Query()
	q.Set("provider", p.name)
	r.URL.RawQuery = q.Encode()
	return r
}
