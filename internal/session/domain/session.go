package domain

import "time"

// Session binds one refresh token to a user and the device that logged in.
// The session row is the sole source of truth for refresh-token validity.
// Token is sensitive and never serialized back to clients.
type Session struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Token     string    `json:"-"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"userAgent"`
	OS        string    `json:"os"`
	Browser   string    `json:"browser"`
	ExpiresIn int64     `json:"expiresIn"` // absolute expiry, Unix seconds
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
