package repository

import (
	"context"
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"user-account-backend/internal/user/domain"
)

const userColumns = `id, email, username, password_hash, avatar, role, is_verified, created_at, updated_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmailOrUsername returns the user whose email or username equals the
// given value, or nil if not found.
func (r *PostgresRepository) GetByEmailOrUsername(ctx context.Context, emailOrUsername string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 OR username = $1`, emailOrUsername)
	return scanUser(row)
}

// List returns all users ordered by id.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Create inserts a new user with role "user", an unverified email, and a
// content-addressed gravatar avatar. Returns ErrDuplicate when the email or
// username is already taken.
func (r *PostgresRepository) Create(ctx context.Context, email, username, passwordHash string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO users (email, username, password_hash, avatar, role, is_verified)
		 VALUES ($1, $2, $3, $4, 'user', FALSE)
		 RETURNING `+userColumns,
		email, username, passwordHash, avatarURL(email))
	u, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	if u == nil {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

// UpdatePassword replaces the password hash for the user with the given email.
func (r *PostgresRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE email = $1`,
		email, passwordHash)
	return err
}

// SetVerified sets the email-verified flag for the user with the given email.
func (r *PostgresRepository) SetVerified(ctx context.Context, email string, verified bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_verified = $2, updated_at = NOW() WHERE email = $1`,
		email, verified)
	return err
}

// avatarURL computes a deterministic gravatar URL from an email hash.
// Content addressing only; not security-relevant.
func avatarURL(email string) string {
	sum := md5.Sum([]byte(email))
	return fmt.Sprintf("https://gravatar.com/avatar/%s?s=200&d=retro", hex.EncodeToString(sum[:]))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Avatar, &u.Role, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
