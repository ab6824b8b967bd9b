package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/newsdeck/internal/middleware"
	"github.com/hitoshi/newsdeck/internal/model"
)

// --- モック定義 ---

type mockBookmarkService struct {
	toggleFn       func(ctx context.Context, userID, articleID string) (bool, error)
	listIDsFn      func(ctx context.Context, userID string) ([]string, error)
	listArticlesFn func(ctx context.Context, userID string) ([]*model.Article, error)
}

func (m *mockBookmarkService) Toggle(ctx context.Context, userID, articleID string) (bool, error) {
	if m.toggleFn != nil {
		return m.toggleFn(ctx, userID, articleID)
	}
	return false, nil
}

func (m *mockBookmarkService) ListIDs(ctx context.Context, userID string) ([]string, error) {
	if m.listIDsFn != nil {
		return m.listIDsFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockBookmarkService) ListArticles(ctx context.Context, userID string) ([]*model.Article, error) {
	if m.listArticlesFn != nil {
		return m.listArticlesFn(ctx, userID)
	}
	return nil, nil
}

var _ BookmarkServiceInterface = (*mockBookmarkService)(nil)

type recordingToggleRecorder struct {
	results []bool
}

func (r *recordingToggleRecorder) RecordBookmarkToggle(bookmarked bool) {
	r.results = append(r.results, bookmarked)
}

func authedRequest(method, target, userID string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(middleware.ContextWithUserID(req.Context(), userID))
}

// --- テスト ---

func TestToggle_ReturnsNewBookmarkState(t *testing.T) {
	var gotUserID, gotArticleID string
	svc := &mockBookmarkService{
		toggleFn: func(ctx context.Context, userID, articleID string) (bool, error) {
			gotUserID = userID
			gotArticleID = articleID
			return true, nil
		},
	}
	recorder := &recordingToggleRecorder{}
	h := NewBookmarkHandler(svc, recorder)

	req := withURLParam(authedRequest(http.MethodPost, "/api/bookmarks/a1/toggle", "user-1"), "articleID", "a1")
	rec := httptest.NewRecorder()

	h.Toggle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotUserID != "user-1" || gotArticleID != "a1" {
		t.Errorf("service called with (%q, %q)", gotUserID, gotArticleID)
	}

	var resp toggleResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.ArticleID != "a1" || !resp.Bookmarked {
		t.Errorf("response = %+v", resp)
	}

	if len(recorder.results) != 1 || !recorder.results[0] {
		t.Errorf("recorded toggle results = %v, want [true]", recorder.results)
	}
}

func TestToggle_WithoutAuthenticatedUser_Returns401(t *testing.T) {
	h := NewBookmarkHandler(&mockBookmarkService{}, nil)

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/bookmarks/a1/toggle", nil), "articleID", "a1")
	rec := httptest.NewRecorder()

	h.Toggle(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestToggle_UnknownArticle_Returns404(t *testing.T) {
	svc := &mockBookmarkService{
		toggleFn: func(ctx context.Context, userID, articleID string) (bool, error) {
			return false, model.NewArticleNotFoundError(articleID)
		},
	}
	h := NewBookmarkHandler(svc, nil)

	req := withURLParam(authedRequest(http.MethodPost, "/api/bookmarks/missing/toggle", "user-1"), "articleID", "missing")
	rec := httptest.NewRecorder()

	h.Toggle(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestListIDs_NilResult_ReturnsEmptyArray(t *testing.T) {
	h := NewBookmarkHandler(&mockBookmarkService{}, nil)

	req := authedRequest(http.MethodGet, "/api/bookmarks/ids", "user-1")
	rec := httptest.NewRecorder()

	h.ListIDs(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp map[string]json.RawMessage
	json.NewDecoder(rec.Body).Decode(&resp)
	if string(resp["article_ids"]) != "[]" {
		t.Errorf("article_ids = %s, want []", resp["article_ids"])
	}
}

func TestListArticles_ReturnsBookmarkedArticles(t *testing.T) {
	svc := &mockBookmarkService{
		listArticlesFn: func(ctx context.Context, userID string) ([]*model.Article, error) {
			return []*model.Article{{ID: "a1"}, {ID: "a2"}}, nil
		},
	}
	h := NewBookmarkHandler(svc, nil)

	req := authedRequest(http.MethodGet, "/api/bookmarks", "user-1")
	rec := httptest.NewRecorder()

	h.ListArticles(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp articleListResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if len(resp.Articles) != 2 {
		t.Errorf("articles = %+v, want 2 entries", resp.Articles)
	}
}
