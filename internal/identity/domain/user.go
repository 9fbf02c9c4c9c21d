package identity

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when a user does not exist.
var ErrNotFound = errors.New("identity: user not found")

// ErrEmailTaken is returned when the email is already registered.
var ErrEmailTaken = errors.New("identity: email already registered")

// ErrInvalidEmail is returned when the email fails basic validation.
var ErrInvalidEmail = errors.New("identity: invalid email")

// User is a registered account. PasswordHash holds a bcrypt hash and
// never leaves the identity context.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks the user's fields.
func (u *User) Validate() error {
	if err := ValidateEmail(u.Email); err != nil {
		return err
	}
	if u.PasswordHash == "" {
		return errors.New("identity: empty password hash")
	}
	return nil
}

// ValidateEmail performs a minimal sanity check; real validation is the
// mail server's job.
func ValidateEmail(email string) error {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return ErrInvalidEmail
	}
	return nil
}

// Repository persists users.
type Repository interface {
	Save(ctx context.Context, u *User) error
	Get(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
}
