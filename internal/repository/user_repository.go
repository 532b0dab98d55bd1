package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/campus-events/gatepass/internal/model"
)

// UserRepo is the read side of the identity collaborator. The core trusts
// the verified identity from the JWT and only consults this repository to
// confirm the user row exists and to read its role.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// GetByID fetches a user by id. Returns ErrNotFound when no row exists.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	const q = `SELECT id, name, email, password_hash, role, is_active, created_at
	           FROM users WHERE id = ? LIMIT 1`
	var u model.User
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &u, nil
}

// GetByEmail fetches a user by normalized email. Returns ErrNotFound when
// no row exists. Used by the seed tooling, not by the request path.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	const q = `SELECT id, name, email, password_hash, role, is_active, created_at
	           FROM users WHERE email = ? LIMIT 1`
	var u model.User
	err := r.db.QueryRowContext(ctx, q, email).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// Create inserts a user row and returns its ID. Only the seed command uses
// this; the service itself never creates identities.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (uint64, error) {
	const q = `INSERT INTO users (name, email, password_hash, role, is_active) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		u.Name, strings.ToLower(strings.TrimSpace(u.Email)), u.PasswordHash, u.Role, u.IsActive)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}
