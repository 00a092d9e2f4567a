package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/markbates/goth"
	"golang.org/x/crypto/bcrypt"

	"github.com/chetan-code/taskflow/internal/models"
	"github.com/chetan-code/taskflow/internal/repository"
)

// fakeAccounts is an in-memory AccountStore.
type fakeAccounts struct {
	mu      sync.Mutex
	byEmail map[string]models.Account
	findErr error
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byEmail: make(map[string]models.Account)}
}

func (f *fakeAccounts) Create(ctx context.Context, acct models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[acct.Email]; ok {
		return repository.ErrAlreadyExists
	}
	f.byEmail[acct.Email] = acct
	return nil
}

func (f *fakeAccounts) FindByEmail(ctx context.Context, email string) (models.Account, error) {
	if f.findErr != nil {
		return models.Account{}, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	acct, ok := f.byEmail[email]
	if !ok {
		return models.Account{}, repository.ErrNotFound
	}
	return acct, nil
}

var testNow = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *fakeAccounts) {
	t.Helper()
	accounts := newFakeAccounts()
	svc := NewService(accounts, []byte("test-secret"), time.Hour)
	svc.hashCost = bcrypt.MinCost
	svc.now = func() time.Time { return testNow }
	return svc, accounts
}

func TestRegisterThenAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, accounts := newTestService(t)

	registered, err := svc.Register(ctx, "  Ada@Example.com ", "hunter22")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if registered.ID == "" || registered.Email != "ada@example.com" {
		t.Fatalf("unexpected identity %+v", registered)
	}
	if accounts.byEmail["ada@example.com"].PasswordHash == "hunter22" {
		t.Fatal("password stored in clear text")
	}

	id, token, err := svc.Authenticate(ctx, "ada@example.com", "hunter22")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if id.ID != registered.ID || id.Provider != models.ProviderPassword {
		t.Errorf("unexpected identity %+v", id)
	}

	current, err := svc.CurrentIdentity(token)
	if err != nil {
		t.Fatalf("current identity: %v", err)
	}
	if current.ID != id.ID || current.Email != id.Email {
		t.Errorf("token resolved to %+v, want %+v", current, id)
	}
}

func TestRegisterPolicy(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	if _, err := svc.Register(ctx, "not-an-email", "hunter22"); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := svc.Register(ctx, "Ada <ada@example.com>", "hunter22"); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("expected ErrInvalidEmail for display-name form, got %v", err)
	}
	if _, err := svc.Register(ctx, "ada@example.com", "12345"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("expected ErrWeakPassword, got %v", err)
	}
	if _, err := svc.Register(ctx, "ada@example.com", "123456"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, "ADA@example.com", "123456"); !errors.Is(err, ErrEmailInUse) {
		t.Errorf("expected ErrEmailInUse, got %v", err)
	}
}

func TestAuthenticateFailures(t *testing.T) {
	ctx := context.Background()
	svc, accounts := newTestService(t)
	if _, err := svc.Register(ctx, "ada@example.com", "hunter22"); err != nil {
		t.Fatalf("register: %v", err)
	}

	tests := []struct {
		name, email, password string
	}{
		{"wrong password", "ada@example.com", "nope-nope"},
		{"unknown email", "bob@example.com", "hunter22"},
		{"malformed email", "ada", "hunter22"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Authenticate(ctx, tt.email, tt.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}

	accounts.findErr = errors.New("db down")
	_, _, err := svc.Authenticate(ctx, "ada@example.com", "hunter22")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected backend failure to surface, got %v", err)
	}
}

func TestAuthenticateViaProvider(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	user := goth.User{
		Provider:  "google",
		UserID:    "1234567890",
		Email:     "Grace@Example.com",
		NickName:  "grace",
		AvatarURL: "https://example.com/g.png",
	}
	first, token, err := svc.AuthenticateViaProvider(ctx, user)
	if err != nil {
		t.Fatalf("authenticate via provider: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}
	if first.DisplayName != "grace" || first.PhotoURL != user.AvatarURL || first.Email != "grace@example.com" {
		t.Errorf("unexpected identity %+v", first)
	}

	user.Name = "Grace Hopper"
	second, _, err := svc.AuthenticateViaProvider(ctx, user)
	if err != nil {
		t.Fatalf("authenticate via provider: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("provider identity not stable: %q vs %q", first.ID, second.ID)
	}
	if second.DisplayName != "Grace Hopper" {
		t.Errorf("display name = %q", second.DisplayName)
	}

	if _, _, err := svc.AuthenticateViaProvider(ctx, goth.User{Provider: "google"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestCurrentIdentityRejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	if _, err := svc.Register(ctx, "ada@example.com", "hunter22"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, token, err := svc.Authenticate(ctx, "ada@example.com", "hunter22")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	if _, err := svc.CurrentIdentity("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for garbage, got %v", err)
	}

	other := NewService(newFakeAccounts(), []byte("other-secret"), time.Hour)
	other.now = svc.now
	if _, err := other.CurrentIdentity(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for foreign secret, got %v", err)
	}

	svc.now = func() time.Time { return testNow.Add(2 * time.Hour) }
	if _, err := svc.CurrentIdentity(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestOnIdentityChange(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	if _, err := svc.Register(ctx, "ada@example.com", "hunter22"); err != nil {
		t.Fatalf("register: %v", err)
	}

	type event struct {
		uid      string
		signedIn bool
	}
	var events []event
	cancel := svc.OnIdentityChange(func(id models.Identity, signedIn bool) {
		events = append(events, event{id.ID, signedIn})
	})

	id, _, err := svc.Authenticate(ctx, "ada@example.com", "hunter22")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	// failed attempts do not notify
	_, _, _ = svc.Authenticate(ctx, "ada@example.com", "wrong-pass")
	svc.SignOut(ctx, id)

	cancel()
	if _, _, err := svc.Authenticate(ctx, "ada@example.com", "hunter22"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	want := []event{{id.ID, true}, {id.ID, false}}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
}

func TestProviderUserIDIsDeterministic(t *testing.T) {
	a := ProviderUserID("google", "42")
	if a != ProviderUserID("google", "42") {
		t.Error("expected same id for same provider account")
	}
	if a == ProviderUserID("github", "42") {
		t.Error("expected different ids across providers")
	}
}
