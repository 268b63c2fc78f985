// Package service enforces session lifecycle policy on top of the repository,
// most importantly the concurrent-session cap.
package service

import (
	"context"

	"user-account-backend/internal/session/domain"
	"user-account-backend/internal/session/repository"
)

// MaxSessionsPerUser caps live sessions per user. Logging in with the cap
// already reached signs the user out everywhere before the new session is
// created.
const MaxSessionsPerUser = 5

// Service wraps the session repository with the cap policy.
type Service struct {
	repo repository.Repository
}

// NewService returns a Service backed by repo.
func NewService(repo repository.Repository) *Service {
	return &Service{repo: repo}
}

// Create inserts a session, first clearing all of the user's sessions when
// the cap is reached. The count-then-clear-then-insert sequence is not atomic
// across concurrent logins; the cap can be transiently exceeded.
func (s *Service) Create(ctx context.Context, sess *domain.Session) (*domain.Session, error) {
	count, err := s.repo.CountByUser(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if count >= MaxSessionsPerUser {
		if err := s.repo.DeleteAllByUser(ctx, sess.UserID); err != nil {
			return nil, err
		}
	}
	return s.repo.Create(ctx, sess)
}

// FindByToken returns the session holding token, or nil when unknown.
func (s *Service) FindByToken(ctx context.Context, token string) (*domain.Session, error) {
	return s.repo.GetByToken(ctx, token)
}

// FindAllByUser returns every session the user currently has.
func (s *Service) FindAllByUser(ctx context.Context, userID int64) ([]*domain.Session, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Rotate swaps the refresh token and renews expiry on the row matching
// (userID, oldToken). Returns false when no row matched, i.e. the old token
// was already rotated or deleted.
func (s *Service) Rotate(ctx context.Context, userID int64, oldToken, newToken string, expiresIn int64) (bool, error) {
	return s.repo.UpdateToken(ctx, userID, oldToken, newToken, expiresIn)
}

// ClearByToken deletes the session matching user and token. Idempotent.
func (s *Service) ClearByToken(ctx context.Context, userID int64, token string) error {
	return s.repo.DeleteByUserAndToken(ctx, userID, token)
}

// ClearAll deletes every session for the user.
func (s *Service) ClearAll(ctx context.Context, userID int64) error {
	return s.repo.DeleteAllByUser(ctx, userID)
}

// ClearByID deletes the user's session with the given id. Idempotent.
func (s *Service) ClearByID(ctx context.Context, userID, id int64) error {
	return s.repo.DeleteByUserAndID(ctx, userID, id)
}
