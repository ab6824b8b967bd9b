package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/newsdeck/internal/middleware"
	"github.com/hitoshi/newsdeck/internal/model"
)

// BookmarkServiceInterface はブックマークハンドラーが必要とするサービスインターフェース。
type BookmarkServiceInterface interface {
	// Toggle はブックマーク状態を反転し、反転後の状態を返す。
	Toggle(ctx context.Context, userID, articleID string) (bool, error)
	// ListIDs はブックマーク記事ID一覧を追加日時降順で返す。
	ListIDs(ctx context.Context, userID string) ([]string, error)
	// ListArticles はブックマーク済み記事の本体一覧を返す。
	ListArticles(ctx context.Context, userID string) ([]*model.Article, error)
}

// BookmarkToggleRecorder はトグル結果のメトリクス記録を受け取る。
// metrics.MetricsCollectorの部分集合として定義する。
type BookmarkToggleRecorder interface {
	RecordBookmarkToggle(bookmarked bool)
}

// BookmarkHandler はブックマーク管理のHTTPハンドラー。
type BookmarkHandler struct {
	service  BookmarkServiceInterface
	recorder BookmarkToggleRecorder // nilの場合は記録しない
}

// NewBookmarkHandler はBookmarkHandlerを生成する。
func NewBookmarkHandler(service BookmarkServiceInterface, recorder BookmarkToggleRecorder) *BookmarkHandler {
	return &BookmarkHandler{
		service:  service,
		recorder: recorder,
	}
}

// toggleResponse はトグル後のブックマーク状態のレスポンス。
type toggleResponse struct {
	ArticleID  string `json:"article_id"`
	Bookmarked bool   `json:"bookmarked"`
}

// bookmarkIDsResponse はブックマーク記事ID一覧のレスポンス。
type bookmarkIDsResponse struct {
	ArticleIDs []string `json:"article_ids"`
}

// Toggle は記事のブックマーク状態を反転する。
// POST /api/bookmarks/{articleID}/toggle
func (h *BookmarkHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	articleID := chi.URLParam(r, "articleID")

	bookmarked, err := h.service.Toggle(r.Context(), userID, articleID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.recorder != nil {
		h.recorder.RecordBookmarkToggle(bookmarked)
	}

	writeJSON(w, http.StatusOK, toggleResponse{
		ArticleID:  articleID,
		Bookmarked: bookmarked,
	})
}

// ListIDs はブックマーク記事IDの一覧を取得する。
// GET /api/bookmarks/ids
func (h *BookmarkHandler) ListIDs(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	ids, err := h.service.ListIDs(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}

	writeJSON(w, http.StatusOK, bookmarkIDsResponse{ArticleIDs: ids})
}

// ListArticles はブックマーク済み記事の一覧を取得する。
// 削除済み記事は結果から除外される。
// GET /api/bookmarks
func (h *BookmarkHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	articles, err := h.service.ListArticles(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toArticleListResponse(articles))
}
