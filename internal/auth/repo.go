package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/klarity-app/klarity/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, user *User) error
	SyncProfile(ctx context.Context, id, name, image string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{db: pool}
}

const userColumns = `id, email, name, image, COALESCE(password_hash, ''), email_verified, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Image, &u.PasswordHash, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

// FindByID fetches a user by id.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// Create inserts a new user record. A taken email maps to ErrDuplicate.
func (r *PGRepository) Create(ctx context.Context, user *User) error {
	query := `INSERT INTO users (id, email, name, image, password_hash, email_verified, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)`
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	_, err := r.db.Exec(ctx, query, user.ID, user.Email, user.Name, user.Image, user.PasswordHash, user.EmailVerified, now, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.ErrDuplicate
		}
		return err
	}
	return nil
}

// SyncProfile refreshes the provider-owned profile fields.
func (r *PGRepository) SyncProfile(ctx context.Context, id, name, image string) error {
	query := `UPDATE users SET name = $1, image = $2, updated_at = $3 WHERE id = $4`
	_, err := r.db.Exec(ctx, query, name, image, time.Now().UTC(), id)
	return err
}

var _ Repository = (*PGRepository)(nil)
