package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"user-account-backend/internal/security"
)

func newAuthedRouter(tokens *security.TokenProvider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", RequireAuth(tokens), func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "identity missing"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"username": id.Username})
	})
	return r
}

func TestRequireAuth_ValidToken(t *testing.T) {
	tokens := security.NewTokenProvider("access-secret", 15*time.Minute, nil)
	r := newAuthedRouter(tokens)

	access, err := tokens.IssueAccess(security.Claims{UserID: 1, Email: "a@x.com", Username: "alice", Role: "user"})
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestRequireAuth_MissingOrBadToken(t *testing.T) {
	tokens := security.NewTokenProvider("access-secret", 15*time.Minute, nil)
	r := newAuthedRouter(tokens)

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
		})
	}
}

func TestExtractBearer(t *testing.T) {
	if got := extractBearer("Bearer tok"); got != "tok" {
		t.Errorf("got %q", got)
	}
	if got := extractBearer("bearer tok"); got != "tok" {
		t.Errorf("case-insensitive prefix: got %q", got)
	}
	if got := extractBearer("tok"); got != "" {
		t.Errorf("missing prefix should yield empty, got %q", got)
	}
}
