package accounts

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"

	"github.com/goliatone/go-errors"
)

// VerificationCodeTTL is how long a verification code stays valid
// after issuance.
const VerificationCodeTTL = "24h"

// verificationCodeBytes gives 256 bits of entropy, hex encoded to a
// fixed 64 character token.
const verificationCodeBytes = 32

// NewVerificationCode returns a cryptographically random, fixed-length
// verification code.
func NewVerificationCode() (string, error) {
	buf := make([]byte, verificationCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate verification code")
	}
	return hex.EncodeToString(buf), nil
}

// VerificationCodesMatch compares codes in constant time.
func VerificationCodesMatch(stored, provided string) bool {
	if len(stored) != len(provided) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(provided)) == 1
}
