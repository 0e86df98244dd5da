package domain

import (
	"context"
	"time"
)

// User represents a registered account. IsPremium is the sole
// authorization signal for the gated search feature.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	IsPremium    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateEmail(ctx context.Context, id int64, email string) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	// SetPremiumByEmail flips the premium flag for the account with the
	// given email in a single atomic UPDATE. It reports whether a row
	// matched; a miss is not an error.
	SetPremiumByEmail(ctx context.Context, email string) (bool, error)
}
