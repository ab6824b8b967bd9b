package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func testRateLimiterConfig(burst int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(1), // 1 req/sec
		GeneralBurst:    burst,
		AdminWriteRate:  rate.Limit(1),
		AdminWriteBurst: burst,
		CleanupInterval: time.Minute,
	}
}

func doRequest(handler http.Handler, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/articles", nil)
	req = req.WithContext(ContextWithUserID(req.Context(), userID))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// --- テスト ---

func TestGeneralMiddleware_WithinBurst_AllowsRequests(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(3))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		if rec := doRequest(handler, "user-1"); rec.Code != http.StatusOK {
			t.Fatalf("request #%d status = %d, want %d", i+1, rec.Code, http.StatusOK)
		}
	}
}

func TestGeneralMiddleware_ExceedsBurst_Returns429(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	if rec := doRequest(handler, "user-1"); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec := doRequest(handler, "user-1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on 429 response")
	}
}

func TestGeneralMiddleware_LimitsArePerUser(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	doRequest(handler, "user-1")

	// 別ユーザーは影響を受けない
	if rec := doRequest(handler, "user-2"); rec.Code != http.StatusOK {
		t.Errorf("other user's request status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestGeneralMiddleware_MissingUser_Returns401(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/articles", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAdminWriteMiddleware_IsIndependentFromGeneral(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1))
	defer rl.Stop()

	general := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	adminWrite := rl.AdminWriteMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// 一般リミットを使い切っても管理系書き込みリミットには影響しない
	doRequest(general, "user-1")
	if rec := doRequest(general, "user-1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("general limit should be exhausted, got %d", rec.Code)
	}

	if rec := doRequest(adminWrite, "user-1"); rec.Code != http.StatusOK {
		t.Errorf("admin write status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRateLimiter_TracksLimiterEntriesPerUser(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(10))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	doRequest(handler, "user-1")
	doRequest(handler, "user-2")
	doRequest(handler, "user-1")

	if got := rl.GeneralLimiterCount(); got != 2 {
		t.Errorf("limiter entry count = %d, want 2", got)
	}
}
