package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chetan-code/taskflow/internal/models"
)

// AccountPartition holds email/password accounts keyed by normalized email.
const AccountPartition = "accounts"

type AccountRepo struct {
	docs *DocumentRepo
}

func NewAccountRepo(docs *DocumentRepo) *AccountRepo {
	return &AccountRepo{docs: docs}
}

// Create fails with ErrAlreadyExists when the email is taken.
func (r *AccountRepo) Create(ctx context.Context, acct models.Account) error {
	return r.docs.Create(ctx, AccountPartition, acct.Email, acct)
}

func (r *AccountRepo) FindByEmail(ctx context.Context, email string) (models.Account, error) {
	doc, err := r.docs.Get(ctx, AccountPartition, email)
	if err != nil {
		return models.Account{}, err
	}
	var acct models.Account
	if err := json.Unmarshal(doc.Body, &acct); err != nil {
		return models.Account{}, fmt.Errorf("decode account: %w", err)
	}
	return acct, nil
}
