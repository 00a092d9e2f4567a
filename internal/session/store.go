// Package session holds the signed-in identity for one request, backed by a
// durable key-value store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chetan-code/taskflow/internal/models"
)

const (
	KeyToken       = "token"
	KeyUser        = "user"
	KeyProfileName = "ProfileName"
	KeyPhoto       = "Photo"
)

// Verifier resolves the identity a credential token belongs to.
type Verifier interface {
	CurrentIdentity(token string) (models.Identity, error)
}

type Option func(*Store)

// WithVerifier makes rehydration drop tokens the verifier rejects.
func WithVerifier(v Verifier) Option {
	return func(s *Store) { s.verifier = v }
}

// Store is the authentication state of one request. The zero value is not
// usable; build it with New or Open.
type Store struct {
	kv       KV
	verifier Verifier

	initializing bool
	identity     *models.Identity
	token        string
	profileName  string
	photo        string
}

// New returns a store that reports Initializing until Rehydrate runs.
func New(kv KV, opts ...Option) *Store {
	s := &Store{kv: kv, initializing: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open builds a store and rehydrates it from kv.
func Open(ctx context.Context, kv KV, opts ...Option) (*Store, error) {
	s := New(kv, opts...)
	err := s.Rehydrate(ctx)
	return s, err
}

// Rehydrate restores a previously established identity. Missing values leave
// the store signed out; corrupt or rejected values are removed. Initializing
// is false afterwards in every case.
func (s *Store) Rehydrate(ctx context.Context) error {
	defer func() { s.initializing = false }()

	s.profileName, _ = s.kv.Get(KeyProfileName)
	s.photo, _ = s.kv.Get(KeyPhoto)

	token, hasToken := s.kv.Get(KeyToken)
	raw, hasUser := s.kv.Get(KeyUser)
	if !hasToken || !hasUser || token == "" {
		return nil
	}

	var id models.Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil || id.ID == "" {
		slog.WarnContext(ctx, "session_user_corrupt", "error", err)
		return s.Clear()
	}

	if s.verifier != nil {
		current, err := s.verifier.CurrentIdentity(token)
		if err == nil && current.ID != id.ID {
			err = errors.New("token subject does not match stored user")
		}
		if err != nil {
			slog.InfoContext(ctx, "session_token_rejected", "uid", id.ID, "error", err)
			return s.Clear()
		}
	}

	s.identity = &id
	s.token = token
	return nil
}

// Establish records a signed-in identity and its credential token.
func (s *Store) Establish(id models.Identity, token string) error {
	if id.ID == "" || token == "" {
		return errors.New("session: identity and token are required")
	}
	raw, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}

	s.kv.Set(KeyToken, token)
	s.kv.Set(KeyUser, string(raw))
	s.identity = &id
	s.token = token
	s.initializing = false
	return s.kv.Save()
}

// SetDisplay caches the profile name and photo shown in page headers.
func (s *Store) SetDisplay(name, photo string) error {
	s.profileName = name
	s.photo = photo
	if name != "" {
		s.kv.Set(KeyProfileName, name)
	} else {
		s.kv.Remove(KeyProfileName)
	}
	if photo != "" {
		s.kv.Set(KeyPhoto, photo)
	} else {
		s.kv.Remove(KeyPhoto)
	}
	return s.kv.Save()
}

// Clear forgets the identity, token and cached display fields.
func (s *Store) Clear() error {
	s.identity = nil
	s.token = ""
	s.profileName = ""
	s.photo = ""
	s.kv.Remove(KeyToken, KeyUser, KeyProfileName, KeyPhoto)
	return s.kv.Save()
}

func (s *Store) Initializing() bool { return s.initializing }

// Identity returns the signed-in identity, if any.
func (s *Store) Identity() (models.Identity, bool) {
	if s.identity == nil {
		return models.Identity{}, false
	}
	return *s.identity, true
}

func (s *Store) Token() string { return s.token }

func (s *Store) Photo() string {
	if s.photo != "" {
		return s.photo
	}
	if s.identity != nil {
		return s.identity.PhotoURL
	}
	return ""
}

// DisplayName picks the best name to greet the user with.
func (s *Store) DisplayName() string {
	if s.profileName != "" {
		return s.profileName
	}
	if s.identity != nil {
		if s.identity.DisplayName != "" {
			return s.identity.DisplayName
		}
		if name := s.identity.EmailName(); name != "" {
			return name
		}
	}
	return "User"
}
