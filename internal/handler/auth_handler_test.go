package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/newsdeck/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	signUpFn            func(ctx context.Context, email, password, displayName string) (*model.Session, *model.User, error)
	loginFn             func(ctx context.Context, email, password string) (*model.Session, *model.User, error)
	logoutFn            func(ctx context.Context, sessionID string) error
	getCurrentUserFn    func(ctx context.Context, sessionID string) (*model.User, error)
	updateDisplayNameFn func(ctx context.Context, userID, displayName string) error
}

func (m *mockAuthService) SignUp(ctx context.Context, email, password, displayName string) (*model.Session, *model.User, error) {
	if m.signUpFn != nil {
		return m.signUpFn(ctx, email, password, displayName)
	}
	return &model.Session{ID: "session-1", UserID: "user-1"}, &model.User{ID: "user-1"}, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*model.Session, *model.User, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return &model.Session{ID: "session-1", UserID: "user-1"}, &model.User{ID: "user-1"}, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

func (m *mockAuthService) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if m.getCurrentUserFn != nil {
		return m.getCurrentUserFn(ctx, sessionID)
	}
	return nil, nil
}

func (m *mockAuthService) UpdateDisplayName(ctx context.Context, userID, displayName string) error {
	if m.updateDisplayNameFn != nil {
		return m.updateDisplayNameFn(ctx, userID, displayName)
	}
	return nil
}

var _ AuthServiceInterface = (*mockAuthService)(nil)

func testAuthConfig() AuthHandlerConfig {
	return AuthHandlerConfig{CookieSecure: false, SessionMaxAge: 86400}
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// --- テスト ---

func TestSignUp_Success_SetsSessionCookie(t *testing.T) {
	svc := &mockAuthService{
		signUpFn: func(ctx context.Context, email, password, displayName string) (*model.Session, *model.User, error) {
			return &model.Session{ID: "new-session", UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)},
				&model.User{ID: "user-1", Email: email, DisplayName: displayName, Role: model.RoleUser},
				nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	body := `{"email":"new@example.com","password":"secret123","display_name":"New User"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.SignUp(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}

	cookie := findCookie(rec, "session_id")
	if cookie == nil {
		t.Fatal("expected session cookie to be set")
	}
	if cookie.Value != "new-session" || !cookie.HttpOnly {
		t.Errorf("cookie = %+v, want HttpOnly session cookie", cookie)
	}

	var resp map[string]any
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp["role"] != "user" {
		t.Errorf("role in response = %v, want user", resp["role"])
	}
	if _, ok := resp["password_hash"]; ok {
		t.Error("response must not contain the password hash")
	}
}

func TestSignUp_DuplicateEmail_Returns409(t *testing.T) {
	svc := &mockAuthService{
		signUpFn: func(ctx context.Context, email, password, displayName string) (*model.Session, *model.User, error) {
			return nil, nil, model.NewEmailTakenError()
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(`{"email":"taken@example.com","password":"secret123"}`))
	rec := httptest.NewRecorder()

	h.SignUp(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestLogin_InvalidCredentials_Returns401(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*model.Session, *model.User, error) {
			return nil, nil, model.NewAuthFailedError()
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@example.com","password":"wrong"}`))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if findCookie(rec, "session_id") != nil {
		t.Error("failed login must not set a session cookie")
	}
}

func TestLogin_InvalidBody_Returns400(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{broken`))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestLogout_ClearsSessionCookie(t *testing.T) {
	var loggedOut string
	svc := &mockAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			loggedOut = sessionID
			return nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "session-42"})
	rec := httptest.NewRecorder()

	h.Logout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if loggedOut != "session-42" {
		t.Errorf("logged out session = %q, want %q", loggedOut, "session-42")
	}

	cookie := findCookie(rec, "session_id")
	if cookie == nil || cookie.MaxAge != -1 {
		t.Error("expected session cookie to be cleared")
	}
}

func TestMe_NoCookie_Returns401(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()

	h.Me(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestMe_ValidSession_ReturnsProfile(t *testing.T) {
	svc := &mockAuthService{
		getCurrentUserFn: func(ctx context.Context, sessionID string) (*model.User, error) {
			return &model.User{ID: "user-1", Email: "me@example.com", DisplayName: "Me", Role: model.RoleAdmin}, nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "session-1"})
	rec := httptest.NewRecorder()

	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp userResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Email != "me@example.com" || resp.Role != "admin" {
		t.Errorf("response = %+v", resp)
	}
}
