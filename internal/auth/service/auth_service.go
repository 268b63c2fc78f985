package service

import (
	"context"
	"errors"
	"time"

	"user-account-backend/internal/events"
	"user-account-backend/internal/mail"
	"user-account-backend/internal/security"
	sessiondomain "user-account-backend/internal/session/domain"
	userdomain "user-account-backend/internal/user/domain"
	userrepo "user-account-backend/internal/user/repository"
	"user-account-backend/internal/useragent"
)

// Sentinel errors for the auth service; handlers map them to HTTP statuses
// and stable codes.
var (
	ErrInvalidCredentials = errors.New("invalid email/username or password")
	ErrAccountExists      = errors.New("email or username already registered")
	ErrUnauthorized       = errors.New("unknown or rotated refresh token")
	ErrRefreshExpired     = errors.New("refresh token expired")
	ErrUserNotFound       = errors.New("no account for that email or username")
	ErrAlreadyVerified    = errors.New("email already verified")
)

// sessionTTL is the refresh-token lifetime: each login or rotation renews the
// session for 7 days (604800 seconds).
const sessionTTL = 7 * 24 * time.Hour

// UserDirectory is the minimal user store needed by the auth service.
type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*userdomain.User, error)
	GetByEmailOrUsername(ctx context.Context, emailOrUsername string) (*userdomain.User, error)
	Create(ctx context.Context, email, username, passwordHash string) (*userdomain.User, error)
	UpdatePassword(ctx context.Context, email, passwordHash string) error
	SetVerified(ctx context.Context, email string, verified bool) error
}

// Sessions is the minimal session store needed by the auth service.
// Create is expected to enforce the per-user session cap.
type Sessions interface {
	Create(ctx context.Context, s *sessiondomain.Session) (*sessiondomain.Session, error)
	FindByToken(ctx context.Context, token string) (*sessiondomain.Session, error)
	Rotate(ctx context.Context, userID int64, oldToken, newToken string, expiresIn int64) (bool, error)
	ClearByToken(ctx context.Context, userID int64, token string) error
	ClearAll(ctx context.Context, userID int64) error
}

// AuthService coordinates registration, login, refresh-token rotation, and
// the verification/reset mail flows.
type AuthService struct {
	users    UserDirectory
	sessions Sessions
	notifier mail.Notifier
	producer events.Producer
	hasher   *security.Hasher
	tokens   *security.TokenProvider
	links    *security.LinkTokenCodec
	now      func() time.Time
}

// NewAuthService returns an AuthService with the given dependencies.
// notifier and producer may be nil; mail and events are then skipped.
// now may be nil; time.Now is used.
func NewAuthService(
	users UserDirectory,
	sessions Sessions,
	notifier mail.Notifier,
	producer events.Producer,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	links *security.LinkTokenCodec,
	now func() time.Time,
) *AuthService {
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		notifier: notifier,
		producer: producer,
		hasher:   hasher,
		tokens:   tokens,
		links:    links,
		now:      now,
	}
}

// Register hashes the password, creates the user, and fires off the
// verification mail without waiting for it. Returns ErrAccountExists when the
// email or username is taken.
func (s *AuthService) Register(ctx context.Context, email, username, password string) (*userdomain.User, error) {
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	user, err := s.users.Create(ctx, email, username, hashed)
	if err != nil {
		if errors.Is(err, userrepo.ErrDuplicate) {
			return nil, ErrAccountExists
		}
		return nil, err
	}

	s.sendVerification(user)
	events.EmitAsync(s.producer, &events.Event{
		Type: events.TypeUserRegistered, UserID: user.ID, At: s.now().UTC(),
	})
	return user, nil
}

// Login verifies credentials, creates a session bound to the client's device,
// and returns a fresh token pair. The session expires in 7 days.
func (s *AuthService) Login(ctx context.Context, ip, userAgent, emailOrUsername, password string) (security.TokenPair, error) {
	user, err := s.users.GetByEmailOrUsername(ctx, emailOrUsername)
	if err != nil {
		return security.TokenPair{}, err
	}
	if user == nil {
		return security.TokenPair{}, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		return security.TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(claimsFor(user))
	if err != nil {
		return security.TokenPair{}, err
	}

	device := useragent.Parse(userAgent)
	_, err = s.sessions.Create(ctx, &sessiondomain.Session{
		UserID:    user.ID,
		Token:     pair.RefreshToken,
		IP:        ip,
		UserAgent: userAgent,
		OS:        device.OS,
		Browser:   device.Browser(),
		ExpiresIn: s.now().Unix() + int64(sessionTTL/time.Second),
	})
	if err != nil {
		return security.TokenPair{}, err
	}

	events.EmitAsync(s.producer, &events.Event{
		Type: events.TypeUserLogin, UserID: user.ID, IP: ip, At: s.now().UTC(),
	})
	return pair, nil
}

// Logout deletes the session matching (userID, refreshToken). Idempotent:
// deleting a non-existent session is not an error.
func (s *AuthService) Logout(ctx context.Context, userID int64, refreshToken string) error {
	return s.sessions.ClearByToken(ctx, userID, refreshToken)
}

// Refresh rotates the refresh token: the old token becomes invalid the moment
// the session row is rewritten with the new one. An expired session is
// deleted as a side effect and reported as ErrRefreshExpired; an unknown or
// concurrently-rotated token as ErrUnauthorized.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (security.TokenPair, error) {
	sess, err := s.sessions.FindByToken(ctx, refreshToken)
	if err != nil {
		return security.TokenPair{}, err
	}
	if sess == nil {
		return security.TokenPair{}, ErrUnauthorized
	}

	if s.now().Unix() > sess.ExpiresIn {
		if err := s.sessions.ClearByToken(ctx, sess.UserID, refreshToken); err != nil {
			return security.TokenPair{}, err
		}
		return security.TokenPair{}, ErrRefreshExpired
	}

	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return security.TokenPair{}, err
	}
	if user == nil {
		return security.TokenPair{}, ErrUnauthorized
	}

	pair, err := s.tokens.IssuePair(claimsFor(user))
	if err != nil {
		return security.TokenPair{}, err
	}
	rotated, err := s.sessions.Rotate(ctx, sess.UserID, refreshToken, pair.RefreshToken,
		s.now().Unix()+int64(sessionTTL/time.Second))
	if err != nil {
		return security.TokenPair{}, err
	}
	if !rotated {
		// A concurrent refresh won the rotation; this caller's token is gone.
		return security.TokenPair{}, ErrUnauthorized
	}
	return pair, nil
}

// Forgot issues a reset token for the account and fires off the reset mail.
// Returns ErrUserNotFound when no account matches.
func (s *AuthService) Forgot(ctx context.Context, emailOrUsername string) error {
	user, err := s.users.GetByEmailOrUsername(ctx, emailOrUsername)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	token, err := s.links.Issue(security.PurposeResetPassword, user.Email, user.ID)
	if err != nil {
		return err
	}
	if s.notifier != nil {
		email, username := user.Email, user.Username
		mail.SendAsync("reset password", func(ctx context.Context) error {
			return s.notifier.SendResetPassword(ctx, email, username, token)
		})
	}
	return nil
}

// Reset verifies the reset token, replaces the password, and clears every
// session for the user so all devices must log in again. A token for an
// account that no longer exists is a silent no-op.
func (s *AuthService) Reset(ctx context.Context, token, password string) error {
	email, _, err := s.links.Verify(security.PurposeResetPassword, token)
	if err != nil {
		return err
	}
	user, err := s.users.GetByEmailOrUsername(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.Email, hashed); err != nil {
		return err
	}
	if err := s.sessions.ClearAll(ctx, user.ID); err != nil {
		return err
	}

	if s.notifier != nil {
		email, username := user.Email, user.Username
		mail.SendAsync("password changed", func(ctx context.Context) error {
			return s.notifier.SendPasswordChanged(ctx, email, username)
		})
	}
	events.EmitAsync(s.producer, &events.Event{
		Type: events.TypePasswordChanged, UserID: user.ID, At: s.now().UTC(),
	})
	return nil
}

// VerifyEmail verifies the email token and marks the account verified. A
// token for an account that no longer exists is a silent no-op.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	email, _, err := s.links.Verify(security.PurposeVerifyEmail, token)
	if err != nil {
		return err
	}
	user, err := s.users.GetByEmailOrUsername(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}
	return s.users.SetVerified(ctx, user.Email, true)
}

// ResendVerification re-issues and re-sends the verification mail. Returns
// ErrUserNotFound for unknown accounts and ErrAlreadyVerified for accounts
// that no longer need it.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.GetByEmailOrUsername(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}
	s.sendVerification(user)
	return nil
}

// sendVerification issues a verify-email token and fires off the mail.
// Best-effort: issue or send failures only reach the log.
func (s *AuthService) sendVerification(user *userdomain.User) {
	if s.notifier == nil {
		return
	}
	token, err := s.links.Issue(security.PurposeVerifyEmail, user.Email, user.ID)
	if err != nil {
		return
	}
	email, username := user.Email, user.Username
	mail.SendAsync("verification", func(ctx context.Context) error {
		return s.notifier.SendVerification(ctx, email, username, token)
	})
}

func claimsFor(user *userdomain.User) security.Claims {
	return security.Claims{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		Role:     string(user.Role),
	}
}
