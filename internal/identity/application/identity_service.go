package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"fulfillment-billing/internal/auth"
	identity "fulfillment-billing/internal/identity/domain"
	"fulfillment-billing/internal/observability/metrics"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Session is the result of a successful register or login.
type Session struct {
	Token string
	User  *identity.User
}

// IdentityService handles registration and login.
type IdentityService struct {
	users  identity.Repository
	secret []byte
	clock  Clock
}

// NewIdentityService constructs the service.
func NewIdentityService(users identity.Repository, secret []byte, clock Clock) (*IdentityService, error) {
	if users == nil {
		return nil, errors.New("identity service: nil user repository")
	}
	if len(secret) == 0 {
		return nil, errors.New("identity service: empty token secret")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &IdentityService{users: users, secret: secret, clock: clock}, nil
}

// Register creates an account and returns a signed session. New
// accounts always get the user role; admins are promoted out of band.
func (s *IdentityService) Register(ctx context.Context, email, name, password string) (*Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := identity.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, err
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, identity.ErrEmailTaken
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	u := &identity.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		Role:         string(auth.RoleUser),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Save(ctx, u); err != nil {
		return nil, err
	}
	return s.session(u, now)
}

// Login verifies credentials and returns a signed session.
func (s *IdentityService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		metrics.IncAuthFailure("unknown_email")
		return nil, auth.ErrInvalidCredentials
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		metrics.IncAuthFailure("bad_password")
		return nil, err
	}
	return s.session(u, s.clock.Now().UTC())
}

// Me returns the account behind an authenticated user id.
func (s *IdentityService) Me(ctx context.Context, userID string) (*identity.User, error) {
	if userID == "" {
		return nil, identity.ErrNotFound
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, identity.ErrNotFound
	}
	return u, nil
}

func (s *IdentityService) session(u *identity.User, now time.Time) (*Session, error) {
	role, ok := auth.NormalizeRole(u.Role)
	if !ok {
		role = auth.RoleUser
	}
	token, err := auth.IssueJWT(u.ID, role, s.secret, now)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: u}, nil
}
