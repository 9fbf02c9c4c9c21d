package postgres

import (
	"context"
	"database/sql"
	"errors"

	identity "fulfillment-billing/internal/identity/domain"
)

const userColumns = `id, email, name, role, password_hash, created_at, updated_at`

// UserRepository persists users. Emails are stored lowercased and
// backed by a unique index.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository constructs a repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Save upserts a user.
func (r *UserRepository) Save(ctx context.Context, u *identity.User) error {
	if r == nil || r.db == nil {
		return errors.New("user repo: nil db")
	}
	if u == nil {
		return identity.ErrNotFound
	}
	if err := u.Validate(); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (
	id, email, name, role, password_hash, created_at, updated_at
) VALUES (
	$1,LOWER($2),$3,$4,$5,$6,$7
)
ON CONFLICT (id)
DO UPDATE SET
	email = EXCLUDED.email,
	name = EXCLUDED.name,
	role = EXCLUDED.role,
	password_hash = EXCLUDED.password_hash,
	updated_at = EXCLUDED.updated_at`,
		u.ID, u.Email, u.Name, u.Role, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	)
	return err
}

// Get fetches a user by id.
func (r *UserRepository) Get(ctx context.Context, id string) (*identity.User, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("user repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+userColumns+`
FROM users
WHERE id = $1
LIMIT 1`, id)
	return scanUser(row)
}

// FindByEmail fetches a user by email, case-insensitively.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("user repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+userColumns+`
FROM users
WHERE email = LOWER($1)
LIMIT 1`, email)
	return scanUser(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*identity.User, error) {
	var u identity.User
	var name sql.NullString
	err := row.Scan(
		&u.ID,
		&u.Email,
		&name,
		&u.Role,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if name.Valid {
		u.Name = name.String
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}
