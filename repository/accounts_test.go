package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/repository"
	"github.com/goliatone/go-accounts/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const sqliteCreateAccounts = `CREATE TABLE accounts (
    id TEXT NOT NULL PRIMARY KEY,
    first_name TEXT,
    last_name TEXT,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    is_verified BOOLEAN NOT NULL DEFAULT FALSE,
    verification_code TEXT,
    verification_code_expires TIMESTAMP,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    deleted_at TIMESTAMP
);`

const sqliteCreatePasswordResets = `CREATE TABLE password_resets (
    id TEXT NOT NULL PRIMARY KEY,
    account_id TEXT NOT NULL,
    status TEXT NOT NULL,
    email TEXT NOT NULL,
    reseted_at TIMESTAMP,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    deleted_at TIMESTAMP
);`

func setupManager(t *testing.T) (accounts.RepositoryManager, func()) {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = bunDB.Exec(sqliteCreateAccounts)
	require.NoError(t, err)
	_, err = bunDB.Exec(sqliteCreatePasswordResets)
	require.NoError(t, err)

	cleanup := func() {
		_ = bunDB.Close()
		_ = db.Close()
	}

	return repository.NewRepositoryManager(bunDB, nil), cleanup
}

func seedAccount(t *testing.T, repo accounts.Accounts, email string) *accounts.Account {
	t.Helper()

	code := "a-verification-code"
	expires := time.Now().Add(24 * time.Hour)

	created, err := repo.Create(context.Background(), &accounts.Account{
		FirstName:               "Test",
		LastName:                "Account",
		Email:                   email,
		PasswordHash:            "$2a$10$notarealhashnotarealhashnotarea",
		VerificationCode:        &code,
		VerificationCodeExpires: &expires,
	})
	require.NoError(t, err)
	return created
}

func TestAccountsCreateAndGetByEmail(t *testing.T) {
	mgr, cleanup := setupManager(t)
	defer cleanup()

	ctx := context.Background()
	created := seedAccount(t, mgr.Accounts(), "peperone@example.com")

	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.False(t, created.IsVerified)
	require.NotNil(t, created.VerificationCode)

	found, err := mgr.Accounts().GetByEmail(ctx, "peperone@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
}

func TestAccountsGetByEmailAbsent(t *testing.T) {
	mgr, cleanup := setupManager(t)
	defer cleanup()

	found, err := mgr.Accounts().GetByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err, "an absent email is a normal outcome, not an error")
	assert.Nil(t, found)
}

func TestAccountsGetByIDBadID(t *testing.T) {
	mgr, cleanup := setupManager(t)
	defer cleanup()

	_, err := mgr.Accounts().GetByID(context.Background(), "not-a-uuid")
	require.Error(t, err)
	assert.True(t, store.IsRecordNotFound(err))
}

func TestAccountsDuplicateEmail(t *testing.T) {
	mgr, cleanup := setupManager(t)
	defer cleanup()

	seedAccount(t, mgr.Accounts(), "dup@example.com")

	_, err := mgr.Accounts().Create(context.Background(), &accounts.Account{
		Email:        "dup@example.com",
		PasswordHash: "$2a$10$notarealhashnotarealhashnotarea",
	})
	require.Error(t, err)
	assert.True(t, store.IsUniqueViolation(err))
}

func TestAccountsMarkVerified(t *testing.T) {
	mgr, cleanup := setupManager(t)
	defer cleanup()

	ctx := context.Background()
	created := seedAccount(t, mgr.Accounts(), "verify@example.com")

	updated, err := mgr.Accounts().MarkVerified(ctx, created.ID.String())
	require.NoError(t, err)

	assert.True(t, updated.IsVerified)
	assert.Nil(t, updated.VerificationCode, "the code must be cleared on verification")
	assert.Nil(t, updated.VerificationCodeExpires)
}

func TestAccountsMarkVerifiedMissing(t *testing.T) {
	mgr, cleanup := setupManager(t)
	defer cleanup()

	_, err := mgr.Accounts().MarkVerified(context.Background(), uuid.New().String())
	require.Error(t, err)
	assert.True(t, store.IsRecordNotFound(err))
}

func TestAccountsResetPasswordTx(t *testing.T) {
	mgr, cleanup := setupManager(t)
	defer cleanup()

	ctx := context.Background()
	created := seedAccount(t, mgr.Accounts(), "reset@example.com")

	err := mgr.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return mgr.Accounts().ResetPasswordTx(ctx, tx, created.ID.String(), "$2a$10$replacementhashreplacementhash0")
	})
	require.NoError(t, err)

	found, err := mgr.Accounts().GetByEmail(ctx, "reset@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "$2a$10$replacementhashreplacementhash0", found.PasswordHash)
	assert.True(t, found.IsVerified, "completing a reset proves email ownership")
}

func TestPasswordResetsRepository(t *testing.T) {
	mgr, cleanup := setupManager(t)
	defer cleanup()

	ctx := context.Background()
	account := seedAccount(t, mgr.Accounts(), "pwdreset@example.com")

	created, err := mgr.PasswordResets().Create(ctx, &accounts.PasswordReset{
		AccountID: &account.ID,
		Email:     account.Email,
		Status:    accounts.ResetRequestedStatus,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	found, err := mgr.PasswordResets().GetByID(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, accounts.ResetRequestedStatus, found.Status)
	assert.Equal(t, account.Email, found.Email)
}

func TestRepositoryManagerValidate(t *testing.T) {
	mgr, cleanup := setupManager(t)
	defer cleanup()

	v, ok := mgr.(interface{ Validate() error })
	require.True(t, ok)
	assert.NoError(t, v.Validate())
}
