package repository

import (
	"context"
	"database/sql"
	"errors"

	"user-account-backend/internal/session/domain"
)

const sessionColumns = `id, user_id, token, ip, user_agent, os, browser, expires_in, created_at, updated_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the session and returns it with generated id and timestamps.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO sessions (user_id, token, ip, user_agent, os, browser, expires_in)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+sessionColumns,
		s.UserID, s.Token, s.IP, s.UserAgent, s.OS, s.Browser, s.ExpiresIn)
	return scanSession(row)
}

// CountByUser returns the number of sessions the user currently has.
func (r *PostgresRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

// GetByToken returns the session holding the given refresh token, or nil if
// not found. It returns an error only for database failures.
func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE token = $1`, token)
	return scanSession(row)
}

// ListByUser returns all sessions for the user ordered by creation time.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateToken rewrites token and expiry in place for the row matching both
// userID and oldToken. The two-column match makes rotation a compare-and-swap:
// of two concurrent refreshes only one finds the old token, the other sees
// false.
func (r *PostgresRepository) UpdateToken(ctx context.Context, userID int64, oldToken, newToken string, expiresIn int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET token = $3, expires_in = $4, updated_at = NOW()
		 WHERE user_id = $1 AND token = $2`,
		userID, oldToken, newToken, expiresIn)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteByUserAndToken removes the session matching user and token.
// Deleting a non-existent session is not an error.
func (r *PostgresRepository) DeleteByUserAndToken(ctx context.Context, userID int64, token string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id = $1 AND token = $2`, userID, token)
	return err
}

// DeleteAllByUser removes every session for the user.
func (r *PostgresRepository) DeleteAllByUser(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}

// DeleteByUserAndID removes the session with the given id if it belongs to the user.
func (r *PostgresRepository) DeleteByUserAndID(ctx context.Context, userID, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id = $1 AND id = $2`, userID, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var s domain.Session
	err := row.Scan(&s.ID, &s.UserID, &s.Token, &s.IP, &s.UserAgent, &s.OS, &s.Browser, &s.ExpiresIn, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}
