package accounts

import (
	goerrors "github.com/goliatone/go-errors"
)

// Stable text codes so transports can map failures without parsing
// messages.
const (
	TextCodeDuplicateAccount     = "DUPLICATE_ACCOUNT"
	TextCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	TextCodeNotVerified          = "NOT_VERIFIED"
	TextCodeAlreadyVerified      = "ALREADY_VERIFIED"
	TextCodeInvalidOrExpiredCode = "INVALID_OR_EXPIRED_CODE"
	TextCodeTokenExpired         = "TOKEN_EXPIRED"
	TextCodeTokenMalformed       = "TOKEN_MALFORMED"
)

// ErrDuplicateAccount is returned when a registration email already
// exists, either from the pre-check or from the store's unique
// constraint.
var ErrDuplicateAccount = goerrors.New("email already registered", goerrors.CategoryConflict).
	WithCode(goerrors.CodeConflict).
	WithTextCode(TextCodeDuplicateAccount)

// ErrInvalidCredentials covers both unknown email and password
// mismatch. The causes are merged so the error cannot be used to
// enumerate accounts.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCredentials)

// ErrNotVerified is returned on login when the password matched but
// the email has not been verified yet.
var ErrNotVerified = goerrors.New("please verify your email first", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeNotVerified)

// ErrAlreadyVerified is returned when verification is attempted on an
// account that already completed it.
var ErrAlreadyVerified = goerrors.New("email already verified", goerrors.CategoryConflict).
	WithCode(goerrors.CodeConflict).
	WithTextCode(TextCodeAlreadyVerified)

// ErrInvalidOrExpiredCode covers a missing, mismatched, or expired
// verification code. The sub-cause is deliberately not exposed.
var ErrInvalidOrExpiredCode = goerrors.New("invalid or expired verification code", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(TextCodeInvalidOrExpiredCode)

// ErrTokenExpired is returned when validating a JWT past its expiry.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed is returned when a JWT cannot be parsed or fails
// signature checks.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// ErrNoEmptyString rejects empty secrets before hashing.
var ErrNoEmptyString = goerrors.New("value should not be an empty string", goerrors.CategoryBadInput)

// ErrMismatchedHashAndPassword is the internal bcrypt mismatch error.
var ErrMismatchedHashAndPassword = goerrors.New("password does not match", goerrors.CategoryAuth)

func hasTextCode(err error, code string) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// IsDuplicateAccount reports whether err is a duplicate registration.
func IsDuplicateAccount(err error) bool {
	return hasTextCode(err, TextCodeDuplicateAccount)
}

// IsInvalidCredentials reports whether err is a credential failure.
func IsInvalidCredentials(err error) bool {
	return hasTextCode(err, TextCodeInvalidCredentials)
}

// IsNotVerified reports whether err is the unverified-login rejection.
func IsNotVerified(err error) bool {
	return hasTextCode(err, TextCodeNotVerified)
}

// IsAlreadyVerified reports whether err is a repeat verification.
func IsAlreadyVerified(err error) bool {
	return hasTextCode(err, TextCodeAlreadyVerified)
}

// IsInvalidOrExpiredCode reports whether err is a code validation
// failure.
func IsInvalidOrExpiredCode(err error) bool {
	return hasTextCode(err, TextCodeInvalidOrExpiredCode)
}
