package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned when an access token is malformed, has a bad
// signature, or is expired.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the identity claim set embedded in access tokens.
type Claims struct {
	UserID   int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// TokenPair is an access/refresh token pair returned to a client. Neither
// token is persisted here; the refresh token is stored as Session.Token by
// the auth service.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type accessClaims struct {
	jwt.RegisteredClaims
	Claims
}

// TokenProvider issues and validates HS256 access tokens and mints opaque
// refresh tokens. The refresh token carries no claims: its validity is
// decided solely by the session row it is stored on.
type TokenProvider struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

// NewTokenProvider returns a TokenProvider signing with secret. accessTTL
// bounds the access token lifetime. now may be nil; time.Now is used.
func NewTokenProvider(secret string, accessTTL time.Duration, now func() time.Time) *TokenProvider {
	if now == nil {
		now = time.Now
	}
	return &TokenProvider{secret: []byte(secret), accessTTL: accessTTL, now: now}
}

// IssueAccess signs a short-lived access token embedding claims.
func (p *TokenProvider) IssueAccess(c Claims) (string, error) {
	issued := p.now().UTC()
	ac := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(p.accessTTL)),
		},
		Claims: c,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, ac).SignedString(p.secret)
}

// NewRefreshToken mints a new opaque refresh token (UUID v4, 122 bits of
// entropy). Never derived from user data.
func (p *TokenProvider) NewRefreshToken() string {
	return uuid.NewString()
}

// IssuePair issues an access token for claims together with a fresh refresh
// token. Persisting the refresh token is the caller's responsibility.
func (p *TokenProvider) IssuePair(c Claims) (TokenPair, error) {
	access, err := p.IssueAccess(c)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: p.NewRefreshToken()}, nil
}

// ValidateAccess parses and validates an access token (signature, exp).
// Returns the embedded claims or ErrInvalidToken.
func (p *TokenProvider) ValidateAccess(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil {
		return nil, ErrInvalidToken
	}
	ac, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	c := ac.Claims
	return &c, nil
}
