package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"user-account-backend/internal/auth/service"
	"user-account-backend/internal/security"
	"user-account-backend/internal/server/middleware"
	sessiondomain "user-account-backend/internal/session/domain"
	userdomain "user-account-backend/internal/user/domain"
	userrepo "user-account-backend/internal/user/repository"
)

type fakeUsers struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*userdomain.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{nextID: 1, users: map[int64]*userdomain.User{}}
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*userdomain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUsers) GetByEmailOrUsername(_ context.Context, emailOrUsername string) (*userdomain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == emailOrUsername || u.Username == emailOrUsername {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) Create(_ context.Context, email, username, passwordHash string) (*userdomain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email || u.Username == username {
			return nil, userrepo.ErrDuplicate
		}
	}
	u := &userdomain.User{
		ID:           f.nextID,
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         "user",
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	f.users[u.ID] = u
	f.nextID++
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, email, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			u.PasswordHash = passwordHash
		}
	}
	return nil
}

func (f *fakeUsers) SetVerified(_ context.Context, email string, verified bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			u.IsVerified = verified
		}
	}
	return nil
}

type fakeSessions struct {
	mu       sync.Mutex
	nextID   int64
	sessions map[int64]*sessiondomain.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{nextID: 1, sessions: map[int64]*sessiondomain.Session{}}
}

func (f *fakeSessions) Create(_ context.Context, s *sessiondomain.Session) (*sessiondomain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	cp.ID = f.nextID
	f.sessions[cp.ID] = &cp
	f.nextID++
	out := cp
	return &out, nil
}

func (f *fakeSessions) FindByToken(_ context.Context, token string) (*sessiondomain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.Token == token {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeSessions) Rotate(_ context.Context, userID int64, oldToken, newToken string, expiresIn int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.UserID == userID && s.Token == oldToken {
			s.Token = newToken
			s.ExpiresIn = expiresIn
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSessions) ClearByToken(_ context.Context, userID int64, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, s := range f.sessions {
		if s.UserID == userID && s.Token == token {
			delete(f.sessions, id)
		}
	}
	return nil
}

func (f *fakeSessions) ClearAll(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, id)
		}
	}
	return nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := security.NewTokenProvider("access-secret", 15*time.Minute, nil)
	links := security.NewLinkTokenCodec("email-secret", time.Hour, "reset-secret", time.Hour, nil)
	auth := service.NewAuthService(
		newFakeUsers(), newFakeSessions(), nil, nil,
		security.NewHasher(4), tokens, links, nil,
	)

	r := gin.New()
	v1 := r.Group("/api/v1")
	NewHandler(auth).Register(v1, middleware.RequireAuth(tokens))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string, mod func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if mod != nil {
		mod(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func register(t *testing.T, r *gin.Engine, email, username, password string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"username":%q,"password":%q}`, email, username, password)
	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", body, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
}

func login(t *testing.T, r *gin.Engine, emailOrUsername, password string) (security.TokenPair, *http.Cookie) {
	t.Helper()
	body := fmt.Sprintf(`{"emailOrUsername":%q,"password":%q}`, emailOrUsername, password)
	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var pair security.TokenPair
	if err := json.Unmarshal(w.Body.Bytes(), &pair); err != nil {
		t.Fatalf("login response: %v", err)
	}
	cookie := findCookie(w.Result().Cookies(), "refreshToken")
	if cookie == nil {
		t.Fatal("login should set the refreshToken cookie")
	}
	return pair, cookie
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body: %v", err)
	}
	return body.Code
}

func TestRegister_DuplicateConflict(t *testing.T) {
	r := newTestRouter(t)
	register(t, r, "ann@example.com", "ann", "password1")

	body := `{"email":"ann@example.com","username":"other","password":"password1"}`
	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", body, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d, want %d", w.Code, http.StatusConflict)
	}
	if code := errorCode(t, w); code != "REGISTER_ERROR" {
		t.Errorf("code = %q, want REGISTER_ERROR", code)
	}
}

func TestRegister_InvalidBody(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", `{"email":"not-an-email"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestLogin_SetsRefreshCookie(t *testing.T) {
	r := newTestRouter(t)
	register(t, r, "ann@example.com", "ann", "password1")

	pair, cookie := login(t, r, "ann@example.com", "password1")
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("login should return both tokens")
	}
	if cookie.Value != pair.RefreshToken {
		t.Error("cookie value should match the refresh token")
	}
	if cookie.Path != "/api/v1/auth" {
		t.Errorf("cookie path = %q, want /api/v1/auth", cookie.Path)
	}
	if !cookie.HttpOnly {
		t.Error("refresh cookie should be HTTP-only")
	}
	if cookie.MaxAge != 604800 {
		t.Errorf("cookie max-age = %d, want 604800", cookie.MaxAge)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	r := newTestRouter(t)
	register(t, r, "ann@example.com", "ann", "password1")

	body := `{"emailOrUsername":"ann@example.com","password":"wrong-pass"}`
	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", body, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if code := errorCode(t, w); code != "LOGIN_ERROR" {
		t.Errorf("code = %q, want LOGIN_ERROR", code)
	}
}

func TestRefresh_RotatesCookie(t *testing.T) {
	r := newTestRouter(t)
	register(t, r, "ann@example.com", "ann", "password1")
	pair, cookie := login(t, r, "ann@example.com", "password1")

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/refresh", "", func(req *http.Request) {
		req.AddCookie(cookie)
	})
	if w.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	rotated := findCookie(w.Result().Cookies(), "refreshToken")
	if rotated == nil {
		t.Fatal("refresh should set a new refreshToken cookie")
	}
	if rotated.Value == pair.RefreshToken {
		t.Error("refresh should rotate the refresh token")
	}

	// The old token is gone after rotation.
	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/refresh", "", func(req *http.Request) {
		req.AddCookie(cookie)
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("stale refresh status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRefresh_MissingCookie(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/refresh", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRefresh_UnknownToken(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/refresh", "", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "not-a-session"})
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestLogout(t *testing.T) {
	r := newTestRouter(t)
	register(t, r, "ann@example.com", "ann", "password1")
	pair, cookie := login(t, r, "ann@example.com", "password1")

	// No bearer token: the middleware rejects it.
	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/logout", "", func(req *http.Request) {
		req.AddCookie(cookie)
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("logout without bearer status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	// Bearer but no cookie.
	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/logout", "", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("logout without cookie status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	// Both present.
	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/logout", "", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		req.AddCookie(cookie)
	})
	if w.Code != http.StatusOK {
		t.Fatalf("logout status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	cleared := findCookie(w.Result().Cookies(), "refreshToken")
	if cleared == nil || cleared.Value != "" || cleared.MaxAge >= 0 {
		t.Error("logout should clear the refresh cookie")
	}

	// The session is gone: the old refresh token no longer works.
	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/refresh", "", func(req *http.Request) {
		req.AddCookie(cookie)
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("refresh after logout status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestForgot_UnknownAccount(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/forgot", `{"emailOrUsername":"ghost@example.com"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestReset_InvalidToken(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/reset", `{"token":"garbage","password":"newpass1"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if code := errorCode(t, w); code != "TOKEN_INVALID" {
		t.Errorf("code = %q, want TOKEN_INVALID", code)
	}
}

func TestVerifyEmail_InvalidToken(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register/verify", `{"token":"garbage"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if code := errorCode(t, w); code != "TOKEN_INVALID" {
		t.Errorf("code = %q, want TOKEN_INVALID", code)
	}
}

func TestResendVerification_UnknownEmail(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register/verify/resend", `{"email":"ghost@example.com"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestLogin_ResponseHidesPasswordHash(t *testing.T) {
	r := newTestRouter(t)
	body := `{"email":"ann@example.com","username":"ann","password":"password1"}`
	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", body, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, want %d", w.Code, http.StatusCreated)
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Error("register response should not expose the password hash")
	}
}
