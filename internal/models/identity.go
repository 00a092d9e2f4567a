package models

import "strings"

// ProviderPassword marks identities created by email/password sign-in.
const ProviderPassword = "password"

// Identity represent the authenticated person
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photo_url,omitempty"`
	Provider    string `json:"provider"`
}

// EmailName returns the local part of the e-mail address.
func (i Identity) EmailName() string {
	name, _, _ := strings.Cut(i.Email, "@")
	return name
}

// Account is the stored record of an email/password user.
type Account struct {
	UserID       string `json:"uid"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	DisplayName  string `json:"displayName,omitempty"`
}

// Identity returns the public identity of the account.
func (a Account) Identity() Identity {
	return Identity{
		ID:          a.UserID,
		DisplayName: a.DisplayName,
		Email:       a.Email,
		Provider:    ProviderPassword,
	}
}
