package company

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a company is not found for the caller.
	ErrNotFound = errors.New("company: not found")
	// ErrINNConflict is returned when another company already uses the INN.
	ErrINNConflict = errors.New("company: inn already registered")
)

// Company represents a client company billed for fulfillment services.
type Company struct {
	ID            string
	UserID        string
	Name          string
	INN           string
	LegalAddress  string
	ContactPerson string
	Email         string
	Phone         string
	WBAPIKey      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks company invariants.
func (c Company) Validate() error {
	if c.UserID == "" {
		return errors.New("company: empty user id")
	}
	if c.Name == "" {
		return errors.New("company: empty name")
	}
	if !validINN(c.INN) {
		return errors.New("company: inn must be 10 to 12 digits")
	}
	return nil
}

// validINN accepts the tax number formats in use, 10 to 12 digits.
func validINN(inn string) bool {
	if len(inn) < 10 || len(inn) > 12 {
		return false
	}
	for _, r := range inn {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Repository manages company persistence. Lookups are scoped by user id;
// FindByINN is global because the INN is unique across all accounts.
type Repository interface {
	Save(ctx context.Context, c *Company) error
	Get(ctx context.Context, id, userID string) (*Company, error)
	ListByUser(ctx context.Context, userID string) ([]*Company, error)
	FindByINN(ctx context.Context, inn string) (*Company, error)
	Delete(ctx context.Context, id, userID string) error
}
