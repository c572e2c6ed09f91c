// Package repository wires the concrete Bun-backed repositories for
// the accounts domain and exposes them behind one manager.
package repository

import (
	"context"

	"github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/store"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var markAccountVerifiedSQL = `UPDATE "accounts" AS "acc"
SET
	"is_verified" = TRUE,
	"verification_code" = NULL,
	"verification_code_expires" = NULL
WHERE
	"acc"."deleted_at" IS NULL
AND (
	"acc"."id" = ?
) RETURNING *;`

var resetAccountPasswordSQL = `UPDATE "accounts" AS "acc"
SET
	"is_verified" = TRUE,
	"password_hash" = ?
WHERE
	"acc"."deleted_at" IS NULL
AND (
	"acc"."id" = ?
) RETURNING *;`

type accountsRepo struct {
	service *store.Service[*accounts.Account]
}

var _ accounts.Accounts = (*accountsRepo)(nil)

// NewAccountsRepository builds the account repository over the generic
// store and service layers.
func NewAccountsRepository(db *bun.DB, logger store.Logger) accounts.Accounts {
	s := store.New[*accounts.Account](db, store.ModelHandlers[*accounts.Account]{
		NewRecord: func() *accounts.Account { return &accounts.Account{} },
		GetID: func(a *accounts.Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *accounts.Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
	})

	return &accountsRepo{
		service: store.NewService(s, "accounts", logger),
	}
}

func (r *accountsRepo) GetByID(ctx context.Context, id string) (*accounts.Account, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, store.NewRecordNotFound().WithMetadata(map[string]any{
			"id": id,
		})
	}
	return r.service.GetByID(ctx, uid)
}

// GetByEmail looks an account up by its login key. A missing email is
// a normal outcome and returns (nil, nil); the caller decides whether
// absence is an error.
func (r *accountsRepo) GetByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	record, err := r.service.Find(ctx, store.SelectBy("email", email))
	if err != nil {
		if store.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

func (r *accountsRepo) Create(ctx context.Context, record *accounts.Account) (*accounts.Account, error) {
	return r.service.Create(ctx, record)
}

func (r *accountsRepo) CreateTx(ctx context.Context, tx bun.IDB, record *accounts.Account) (*accounts.Account, error) {
	return r.service.CreateTx(ctx, tx, record)
}

func (r *accountsRepo) Update(ctx context.Context, id string, record *accounts.Account) (*accounts.Account, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, store.NewRecordNotFound().WithMetadata(map[string]any{
			"id": id,
		})
	}
	return r.service.Update(ctx, uid, record)
}

// MarkVerified flips the account to verified and clears the
// verification code and its expiry in one statement. The ORM update
// path skips zero values, so clearing columns goes through raw SQL.
func (r *accountsRepo) MarkVerified(ctx context.Context, id string) (*accounts.Account, error) {
	res, err := r.service.Store().Raw(ctx, markAccountVerifiedSQL, id)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, store.NewRecordNotFound().WithMetadata(map[string]any{
			"id": id,
		})
	}

	return res[0], nil
}

// ResetPasswordTx swaps the stored hash for an already-hashed value.
// Completing a reset also proves email ownership, so the account is
// marked verified.
func (r *accountsRepo) ResetPasswordTx(ctx context.Context, tx bun.IDB, id string, passwordHash string) error {
	res, err := r.service.Store().RawTx(ctx, tx, resetAccountPasswordSQL, passwordHash, id)
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return store.NewRecordNotFound().WithMetadata(map[string]any{
			"id": id,
		})
	}

	return nil
}
