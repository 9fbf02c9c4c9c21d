package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fulfillment-billing/internal/auth"
	identity "fulfillment-billing/internal/identity/domain"
)

type memoryUserRepo struct {
	mu    sync.Mutex
	users map[string]*identity.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[string]*identity.User)}
}

func (r *memoryUserRepo) Save(_ context.Context, u *identity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *u
	r.users[u.ID] = &clone
	return nil
}

func (r *memoryUserRepo) Get(_ context.Context, id string) (*identity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.users[id]
	if u == nil {
		return nil, nil
	}
	clone := *u
	return &clone, nil
}

func (r *memoryUserRepo) FindByEmail(_ context.Context, email string) (*identity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

var testSecret = []byte("integration-test-secret")

func newTestIdentityService(t *testing.T) *IdentityService {
	t.Helper()
	svc, err := NewIdentityService(newMemoryUserRepo(), testSecret, nil)
	if err != nil {
		t.Fatalf("new identity service: %v", err)
	}
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestIdentityService(t)

	session, err := svc.Register(context.Background(), "Ops@Example.COM", "Ops Lead", "s3cret-pass")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if session.User.Email != "ops@example.com" {
		t.Fatalf("expected lowercased email, got %s", session.User.Email)
	}
	if session.User.Role != string(auth.RoleUser) {
		t.Fatalf("expected user role, got %s", session.User.Role)
	}
	if session.User.PasswordHash == "s3cret-pass" {
		t.Fatal("password stored in clear")
	}

	claims, err := auth.ParseJWT(session.Token, testSecret)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != session.User.ID {
		t.Fatalf("token user %s, want %s", claims.UserID, session.User.ID)
	}

	login, err := svc.Login(context.Background(), "ops@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.User.ID != session.User.ID {
		t.Fatal("login resolved a different account")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestIdentityService(t)

	if _, err := svc.Register(context.Background(), "ops@example.com", "", "s3cret-pass"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(context.Background(), "OPS@example.com", "", "other-pass-123"); !errors.Is(err, identity.ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}
}

func TestRegisterWeakPassword(t *testing.T) {
	svc := newTestIdentityService(t)

	if _, err := svc.Register(context.Background(), "ops@example.com", "", "short"); !errors.Is(err, auth.ErrWeakPassword) {
		t.Fatalf("expected weak password error, got %v", err)
	}
}

func TestRegisterBadEmail(t *testing.T) {
	svc := newTestIdentityService(t)

	if _, err := svc.Register(context.Background(), "not-an-email", "", "s3cret-pass"); !errors.Is(err, identity.ErrInvalidEmail) {
		t.Fatalf("expected invalid email, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestIdentityService(t)

	if _, err := svc.Register(context.Background(), "ops@example.com", "", "s3cret-pass"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Login(context.Background(), "ops@example.com", "wrong-pass-123"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "nobody@example.com", "s3cret-pass"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}
}

func TestMe(t *testing.T) {
	svc := newTestIdentityService(t)

	session, err := svc.Register(context.Background(), "ops@example.com", "Ops", "s3cret-pass")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	u, err := svc.Me(context.Background(), session.User.ID)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if u.Email != "ops@example.com" || u.Name != "Ops" {
		t.Fatalf("unexpected account %+v", u)
	}
	if _, err := svc.Me(context.Background(), "missing"); !errors.Is(err, identity.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if u.CreatedAt.After(time.Now().Add(time.Minute)) {
		t.Fatal("created timestamp in the future")
	}
}
