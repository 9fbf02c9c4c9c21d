package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	company "fulfillment-billing/internal/company/domain"
)

// KeyValidator probes a marketplace API key.
type KeyValidator func(ctx context.Context, apiKey string) (bool, error)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// CreateCompanyInput carries the writable company fields.
type CreateCompanyInput struct {
	Name          string
	INN           string
	LegalAddress  string
	ContactPerson string
	Email         string
	Phone         string
	WBAPIKey      string
}

// CompanyService handles company use cases. Every operation is scoped by
// the calling user's id.
type CompanyService struct {
	repo        company.Repository
	validateKey KeyValidator
	clock       Clock
}

// NewCompanyService constructs the service.
func NewCompanyService(repo company.Repository, validateKey KeyValidator, clock Clock) (*CompanyService, error) {
	if repo == nil {
		return nil, errors.New("company service: nil repository")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &CompanyService{repo: repo, validateKey: validateKey, clock: clock}, nil
}

// Create registers a company for the user. The INN must not be in use by
// any account.
func (s *CompanyService) Create(ctx context.Context, userID string, input CreateCompanyInput) (*company.Company, error) {
	c := &company.Company{
		ID:            uuid.NewString(),
		UserID:        userID,
		Name:          input.Name,
		INN:           input.INN,
		LegalAddress:  input.LegalAddress,
		ContactPerson: input.ContactPerson,
		Email:         input.Email,
		Phone:         input.Phone,
		WBAPIKey:      input.WBAPIKey,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByINN(ctx, c.INN)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, company.ErrINNConflict
	}

	now := s.clock.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update replaces the writable fields of an owned company.
func (s *CompanyService) Update(ctx context.Context, userID, companyID string, input CreateCompanyInput) (*company.Company, error) {
	c, err := s.getOwned(ctx, companyID, userID)
	if err != nil {
		return nil, err
	}

	if input.INN != c.INN {
		existing, err := s.repo.FindByINN(ctx, input.INN)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != c.ID {
			return nil, company.ErrINNConflict
		}
	}

	c.Name = input.Name
	c.INN = input.INN
	c.LegalAddress = input.LegalAddress
	c.ContactPerson = input.ContactPerson
	c.Email = input.Email
	c.Phone = input.Phone
	// API responses never echo the stored key, so an empty value on
	// update means "keep the current one".
	if input.WBAPIKey != "" {
		c.WBAPIKey = input.WBAPIKey
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.UpdatedAt = s.clock.Now().UTC()

	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns an owned company.
func (s *CompanyService) Get(ctx context.Context, userID, companyID string) (*company.Company, error) {
	return s.getOwned(ctx, companyID, userID)
}

// List returns the user's companies.
func (s *CompanyService) List(ctx context.Context, userID string) ([]*company.Company, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Delete removes an owned company.
func (s *CompanyService) Delete(ctx context.Context, userID, companyID string) error {
	return s.repo.Delete(ctx, companyID, userID)
}

// ValidateKey probes the marketplace key stored on an owned company.
func (s *CompanyService) ValidateKey(ctx context.Context, userID, companyID string) (bool, error) {
	c, err := s.getOwned(ctx, companyID, userID)
	if err != nil {
		return false, err
	}
	if s.validateKey == nil {
		return false, errors.New("company service: no key validator configured")
	}
	return s.validateKey(ctx, c.WBAPIKey)
}

func (s *CompanyService) getOwned(ctx context.Context, companyID, userID string) (*company.Company, error) {
	if companyID == "" || userID == "" {
		return nil, company.ErrNotFound
	}
	c, err := s.repo.Get(ctx, companyID, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, company.ErrNotFound
	}
	return c, nil
}
