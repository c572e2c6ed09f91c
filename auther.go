package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// RegisterPayload carries the fields needed to create an account.
type RegisterPayload struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	UseHashid bool   `json:"-"`
}

// RegisterResult is the register success payload.
type RegisterResult struct {
	Message string         `json:"message"`
	Account *PublicAccount `json:"account"`
}

// VerifyEmailResult is the verification success payload.
type VerifyEmailResult struct {
	Message string         `json:"message"`
	Account *PublicAccount `json:"account"`
}

// LoginResult is the login success payload.
type LoginResult struct {
	AccessToken string         `json:"access_token"`
	Account     *PublicAccount `json:"account"`
}

// Auther orchestrates registration, email verification, and login.
// All persistence goes through the repository manager; password
// hashing and token issuance are invoked as primitives.
type Auther struct {
	repo         RepositoryManager
	tokenService TokenService
	logger       Logger
	clock        Clock
}

// NewAuther returns the authentication service.
func NewAuther(repo RepositoryManager, tokenService TokenService) *Auther {
	return &Auther{
		repo:         repo,
		tokenService: tokenService,
		logger:       defLogger{},
		clock:        time.Now,
	}
}

// WithLogger replaces the default logger.
func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// WithClock replaces the time source, mostly for tests.
func (s *Auther) WithClock(clock Clock) *Auther {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// Register creates an unverified account with a fresh verification
// code. The pre-check on email is advisory only: a racing duplicate is
// caught by the store's unique constraint, which stays authoritative.
func (s *Auther) Register(ctx context.Context, payload RegisterPayload) (*RegisterResult, error) {
	existing, err := s.repo.Accounts().GetByEmail(ctx, payload.Email)
	if err != nil {
		s.logger.Error("Register lookup error: %v", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing account")
	}

	if existing != nil {
		return nil, ErrDuplicateAccount
	}

	code, err := NewVerificationCode()
	if err != nil {
		return nil, err
	}

	ttl, err := time.ParseDuration(VerificationCodeTTL)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "invalid verification code TTL")
	}
	expires := s.clock().Add(ttl)

	account := &Account{}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// Hashing happens exactly once, right before the insert. The
		// generic update path never re-hashes.
		hash, err := HashPassword(payload.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
		}

		account.FirstName = payload.FirstName
		account.LastName = payload.LastName
		account.Email = payload.Email
		account.PasswordHash = hash
		account.VerificationCode = &code
		account.VerificationCodeExpires = &expires

		if payload.UseHashid {
			if id, err := hashid.NewUUID(payload.Email); err == nil {
				account.ID = id
			}
		}

		account, err = s.repo.Accounts().CreateTx(ctx, tx, account)
		return err
	})

	if err != nil {
		if isUniqueConflict(err) {
			return nil, ErrDuplicateAccount
		}

		s.logger.Error("Register create error: %v", err)

		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "account registration failed")
	}

	return &RegisterResult{
		Message: "Registration successful. Please check your email for verification.",
		Account: account.AsPublic(),
	}, nil
}

// VerifyEmail consumes a verification code and moves the account to
// the verified state. The transition is one-way: a second call fails
// with ErrAlreadyVerified.
func (s *Auther) VerifyEmail(ctx context.Context, email, code string) (*VerifyEmailResult, error) {
	account, err := s.repo.Accounts().GetByEmail(ctx, email)
	if err != nil {
		s.logger.Error("VerifyEmail lookup error: %v", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for verification")
	}

	if account == nil {
		return nil, goerrors.New("account not found", goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound)
	}

	if account.IsVerified {
		return nil, ErrAlreadyVerified
	}

	// A missing, mismatched, or expired code all collapse into the
	// same error so the response leaks nothing about which check
	// failed.
	if account.VerificationCode == nil || account.VerificationCodeExpires == nil {
		return nil, ErrInvalidOrExpiredCode
	}

	if !VerificationCodesMatch(*account.VerificationCode, code) {
		return nil, ErrInvalidOrExpiredCode
	}

	if s.clock().After(*account.VerificationCodeExpires) {
		return nil, ErrInvalidOrExpiredCode
	}

	updated, err := s.repo.Accounts().MarkVerified(ctx, account.ID.String())
	if err != nil {
		s.logger.Error("VerifyEmail update error: %v", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark account as verified")
	}

	return &VerifyEmailResult{
		Message: "Email verified successfully",
		Account: updated.AsPublic(),
	}, nil
}

// Login checks the password, gates on the verified state, and issues a
// signed token. Unknown email and password mismatch return the same
// error; verification state is only revealed after the password
// matched.
func (s *Auther) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	account, err := s.repo.Accounts().GetByEmail(ctx, email)
	if err != nil {
		s.logger.Error("Login lookup error: %v", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for login")
	}

	if account == nil {
		return nil, ErrInvalidCredentials
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !account.IsVerified {
		return nil, ErrNotVerified
	}

	token, err := s.tokenService.Generate(NewIdentityFromAccount(account))
	if err != nil {
		s.logger.Error("Login token generation error: %v", err)
		return nil, err
	}

	return &LoginResult{
		AccessToken: token,
		Account:     account.AsPublic(),
	}, nil
}

// GetProfile returns the redacted view for an already-authenticated
// account reference.
func (s *Auther) GetProfile(ctx context.Context, id string) (*PublicAccount, error) {
	account, err := s.repo.Accounts().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return account.AsPublic(), nil
}

func isUniqueConflict(err error) bool {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryConflict {
		return true
	}
	return false
}
