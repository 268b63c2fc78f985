package middleware

import (
	"github.com/gin-gonic/gin"
)

// identityKey is the gin context key the auth middleware stores the caller's
// identity under.
const identityKey = "auth.identity"

// Identity is the authenticated caller extracted from a valid access token.
type Identity struct {
	UserID   int64
	Email    string
	Username string
	Role     string
}

// SetIdentity stores the caller's identity on the request context.
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
}

// GetIdentity returns the caller's identity, or false when the request was
// not authenticated.
func GetIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}
