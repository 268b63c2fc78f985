package repository

import (
	"context"
	"errors"

	"user-account-backend/internal/user/domain"
)

// ErrDuplicate is returned by Create when the email or username is already
// taken (Postgres unique violation). Handlers map it to 409.
var ErrDuplicate = errors.New("email or username already taken")

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmailOrUsername(ctx context.Context, emailOrUsername string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Create(ctx context.Context, email, username, passwordHash string) (*domain.User, error)
	UpdatePassword(ctx context.Context, email, passwordHash string) error
	SetVerified(ctx context.Context, email string, verified bool) error
}
