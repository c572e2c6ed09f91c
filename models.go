package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the persisted identity record, keyed by email.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`

	ID                      uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FirstName               string     `bun:"first_name" json:"first_name,omitempty"`
	LastName                string     `bun:"last_name" json:"last_name,omitempty"`
	Email                   string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash            string     `bun:"password_hash,notnull" json:"-"`
	IsVerified              bool       `bun:"is_verified" json:"is_verified"`
	VerificationCode        *string    `bun:"verification_code" json:"-"`
	VerificationCodeExpires *time.Time `bun:"verification_code_expires,nullzero" json:"-"`
	CreatedAt               *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt               *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt               *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// HasActiveVerificationCode reports whether the account holds a code
// that is still inside its expiry window at the given instant.
func (a *Account) HasActiveVerificationCode(now time.Time) bool {
	if a.VerificationCode == nil || a.VerificationCodeExpires == nil {
		return false
	}
	return !now.After(*a.VerificationCodeExpires)
}

// PublicAccount is the redacted account view: no password hash, no
// verification code. Every external payload uses this shape.
type PublicAccount struct {
	ID         uuid.UUID  `json:"id"`
	FirstName  string     `json:"first_name,omitempty"`
	LastName   string     `json:"last_name,omitempty"`
	Email      string     `json:"email"`
	IsVerified bool       `json:"is_verified"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

// AsPublic returns the redacted view of the account.
func (a *Account) AsPublic() *PublicAccount {
	if a == nil {
		return nil
	}
	return &PublicAccount{
		ID:         a.ID,
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Email:      a.Email,
		IsVerified: a.IsVerified,
		CreatedAt:  a.CreatedAt,
	}
}

const (
	// ResetRequestedStatus marks a reset that is waiting to be consumed
	ResetRequestedStatus = "requested"
	// ResetChangedStatus marks a consumed reset
	ResetChangedStatus = "changed"
	// ResetExpiredStatus marks a reset that aged out
	ResetExpiredStatus = "expired"
)

// PasswordReset tracks a password reset request for an account.
type PasswordReset struct {
	bun.BaseModel `bun:"table:password_resets,alias:pwdr"`

	ID        uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AccountID *uuid.UUID `bun:"account_id,notnull" json:"account_id,omitempty"`
	Account   *Account   `bun:"rel:has-one,join:account_id=id" json:"account,omitempty"`
	Status    string     `bun:"status,notnull" json:"status,omitempty"`
	Email     string     `bun:"email,notnull" json:"email,omitempty"`
	ResetedAt *time.Time `bun:"reseted_at,nullzero" json:"reseted_at,omitempty"`
	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// MarkPasswordAsReseted builds the update record that closes a reset.
func MarkPasswordAsReseted(id uuid.UUID) *PasswordReset {
	r := &PasswordReset{}
	r.ID = id
	r.Status = ResetChangedStatus
	n := time.Now()
	r.ResetedAt = &n
	return r
}
