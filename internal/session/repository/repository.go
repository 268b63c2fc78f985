package repository

import (
	"context"

	"user-account-backend/internal/session/domain"
)

// Repository defines persistence for sessions. Writes are single-row or
// single-user-scoped statements; each is independently atomic.
type Repository interface {
	Create(ctx context.Context, s *domain.Session) (*domain.Session, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
	GetByToken(ctx context.Context, token string) (*domain.Session, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.Session, error)
	// UpdateToken rotates the refresh token in place. Both userID and
	// oldToken must match the row; the returned bool reports whether a row
	// was rotated, so a concurrent rotation loses cleanly.
	UpdateToken(ctx context.Context, userID int64, oldToken, newToken string, expiresIn int64) (bool, error)
	DeleteByUserAndToken(ctx context.Context, userID int64, token string) error
	DeleteAllByUser(ctx context.Context, userID int64) error
	DeleteByUserAndID(ctx context.Context, userID, id int64) error
}
