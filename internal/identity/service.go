// Package identity authenticates users and issues credential tokens.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/markbates/goth"
	"golang.org/x/crypto/bcrypt"

	"github.com/chetan-code/taskflow/internal/models"
	"github.com/chetan-code/taskflow/internal/repository"
)

// MinPasswordLength is the only password policy enforced.
const MinPasswordLength = 6

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailInUse         = errors.New("email address is already in use")
	ErrInvalidEmail       = errors.New("email address is badly formatted")
	ErrWeakPassword       = fmt.Errorf("password should be at least %d characters", MinPasswordLength)
	ErrInvalidToken       = errors.New("invalid credential token")
)

// AccountStore persists email/password accounts.
type AccountStore interface {
	Create(ctx context.Context, acct models.Account) error
	FindByEmail(ctx context.Context, email string) (models.Account, error)
}

// ChangeFunc observes sign-in (signedIn true) and sign-out events.
type ChangeFunc func(id models.Identity, signedIn bool)

type Service struct {
	accounts AccountStore
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
	hashCost int

	mu        sync.Mutex
	listeners map[int]ChangeFunc
	nextID    int
}

type Option func(*Service)

// WithHashCost sets the bcrypt cost of new password hashes.
func WithHashCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.hashCost = cost
		}
	}
}

func NewService(accounts AccountStore, secret []byte, ttl time.Duration, opts ...Option) *Service {
	s := &Service{
		accounts:  accounts,
		secret:    secret,
		ttl:       ttl,
		now:       time.Now,
		hashCost:  bcrypt.DefaultCost,
		listeners: make(map[int]ChangeFunc),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an email/password account. It does not sign the user in.
func (s *Service) Register(ctx context.Context, email, password string) (models.Identity, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return models.Identity{}, err
	}
	if len(password) < MinPasswordLength {
		return models.Identity{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return models.Identity{}, fmt.Errorf("hash password: %w", err)
	}
	acct := models.Account{
		UserID:       uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	}
	err = s.accounts.Create(ctx, acct)
	if errors.Is(err, repository.ErrAlreadyExists) {
		return models.Identity{}, ErrEmailInUse
	}
	if err != nil {
		return models.Identity{}, fmt.Errorf("create account: %w", err)
	}

	slog.Info("account_registered", "uid", acct.UserID)
	return acct.Identity(), nil
}

// Authenticate exchanges email and password for an identity and token.
func (s *Service) Authenticate(ctx context.Context, email, password string) (models.Identity, string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return models.Identity{}, "", ErrInvalidCredentials
	}

	acct, err := s.accounts.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Identity{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return models.Identity{}, "", fmt.Errorf("find account: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		return models.Identity{}, "", ErrInvalidCredentials
	}

	return s.signIn(acct.Identity())
}

// AuthenticateViaProvider signs in the user returned by a provider round
// trip. The identity id is stable for a given provider account.
func (s *Service) AuthenticateViaProvider(ctx context.Context, user goth.User) (models.Identity, string, error) {
	if user.UserID == "" || user.Provider == "" {
		return models.Identity{}, "", ErrInvalidCredentials
	}
	name := user.Name
	if name == "" {
		name = user.NickName
	}
	id := models.Identity{
		ID:          ProviderUserID(user.Provider, user.UserID),
		DisplayName: name,
		Email:       strings.ToLower(strings.TrimSpace(user.Email)),
		PhotoURL:    user.AvatarURL,
		Provider:    user.Provider,
	}
	return s.signIn(id)
}

// SignOut ends the identity's session. Tokens are stateless, so this only
// notifies listeners.
func (s *Service) SignOut(ctx context.Context, id models.Identity) {
	slog.Info("identity_signed_out", "uid", id.ID)
	s.notify(id, false)
}

// CurrentIdentity resolves the identity a credential token was issued for.
func (s *Service) CurrentIdentity(token string) (models.Identity, error) {
	claims, err := VerifyToken(s.secret, token, s.now)
	if err != nil {
		return models.Identity{}, err
	}
	return models.Identity{
		ID:          claims.UserID,
		DisplayName: claims.Name,
		Email:       claims.Email,
	}, nil
}

// OnIdentityChange registers fn and returns a func that removes it.
func (s *Service) OnIdentityChange(fn ChangeFunc) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Service) signIn(id models.Identity) (models.Identity, string, error) {
	token, err := GenerateJWT(s.secret, id, s.now(), s.ttl)
	if err != nil {
		return models.Identity{}, "", fmt.Errorf("generate token: %w", err)
	}
	slog.Info("identity_signed_in", "uid", id.ID, "provider", id.Provider)
	s.notify(id, true)
	return id, token, nil
}

func (s *Service) notify(id models.Identity, signedIn bool) {
	s.mu.Lock()
	keys := make([]int, 0, len(s.listeners))
	for k := range s.listeners {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	fns := make([]ChangeFunc, 0, len(keys))
	for _, k := range keys {
		fns = append(fns, s.listeners[k])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(id, signedIn)
	}
}

// ProviderUserID maps a provider account onto a stable identity id.
func ProviderUserID(provider, providerUserID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:taskflow:"+provider+":"+providerUserID)).String()
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
