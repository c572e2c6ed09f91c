package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/store"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type mngr struct {
	db             *bun.DB
	accounts       accounts.Accounts
	passwordResets repository.Repository[*accounts.PasswordReset]
}

// NewRepositoryManager wires every repository over one database
// handle.
func NewRepositoryManager(db *bun.DB, logger store.Logger) accounts.RepositoryManager {
	return &mngr{
		db:             db,
		accounts:       NewAccountsRepository(db, logger),
		passwordResets: NewPasswordResetsRepository(db),
	}
}

// NewPasswordResetsRepository builds the password reset repository.
func NewPasswordResetsRepository(db *bun.DB) repository.Repository[*accounts.PasswordReset] {
	return repository.NewRepository[*accounts.PasswordReset](db, repository.ModelHandlers[*accounts.PasswordReset]{
		NewRecord: func() *accounts.PasswordReset { return &accounts.PasswordReset{} },
		GetID: func(r *accounts.PasswordReset) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *accounts.PasswordReset, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
	})
}

func (m mngr) Validate() error {
	if m.accounts == nil {
		return errors.New("repository accounts should be initialized")
	}

	if m.passwordResets == nil {
		return errors.New("repository passwordResets should be initialized")
	}

	return nil
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Accounts() accounts.Accounts {
	return m.accounts
}

func (m mngr) PasswordResets() repository.Repository[*accounts.PasswordReset] {
	return m.passwordResets
}
