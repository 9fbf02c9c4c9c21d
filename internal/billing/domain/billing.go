package billing

import (
	"strings"
	"time"
)

// Billing record statuses. GENERATED is set by the calculation workflow;
// the remaining transitions are operator-driven.
const (
	StatusDraft     = "DRAFT"
	StatusGenerated = "GENERATED"
	StatusSent      = "SENT"
	StatusPaid      = "PAID"
	StatusCancelled = "CANCELLED"
)

// Billing is one billing record for a company and period. MarketplaceData
// and Calculations hold serialized JSON blobs exactly as produced at
// generation time; they are replaced wholesale on regeneration, never
// patched.
type Billing struct {
	ID              string
	CompanyID       string
	UserID          string
	PeriodStart     time.Time
	PeriodEnd       time.Time
	Status          string
	TotalAmount     float64
	MarketplaceData string
	Calculations    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Config is a company's billing configuration: the priced service list the
// calculator runs over.
type Config struct {
	ID        string
	CompanyID string
	UserID    string
	Services  []ServiceDefinition
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidStatus reports whether s is a known billing status.
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusGenerated, StatusSent, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// Validate checks billing record invariants.
func (b Billing) Validate() error {
	if strings.TrimSpace(b.CompanyID) == "" {
		return ErrEmptyCompanyID
	}
	if strings.TrimSpace(b.UserID) == "" {
		return ErrEmptyUserID
	}
	if b.PeriodStart.IsZero() || b.PeriodEnd.IsZero() {
		return ErrInvalidPeriod
	}
	if !b.PeriodEnd.After(b.PeriodStart) {
		return ErrInvalidPeriod
	}
	if !ValidStatus(b.Status) {
		return ErrInvalidStatus
	}
	return nil
}

// Validate checks config invariants including every service definition.
func (c Config) Validate() error {
	if strings.TrimSpace(c.CompanyID) == "" {
		return ErrEmptyCompanyID
	}
	seen := make(map[string]struct{}, len(c.Services))
	for _, svc := range c.Services {
		if err := svc.Validate(); err != nil {
			return err
		}
		if _, dup := seen[svc.ID]; dup {
			return ErrDuplicateService
		}
		seen[svc.ID] = struct{}{}
	}
	return nil
}
