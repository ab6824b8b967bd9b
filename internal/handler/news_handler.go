package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/newsdeck/internal/model"
)

// NewsServiceInterface は記事閲覧ハンドラーが必要とするサービスインターフェース。
type NewsServiceInterface interface {
	// BreakingNews は速報フラグ付きの記事を最大5件返す。
	BreakingNews(ctx context.Context) ([]*model.Article, error)
	// ListByCategory は指定カテゴリの記事を返す。"all"は全記事を意味する。
	ListByCategory(ctx context.Context, category string) ([]*model.Article, error)
	// Search は検索語への部分一致で記事を検索する。
	Search(ctx context.Context, term string) ([]*model.Article, error)
	// GetArticle は記事詳細を返す。見つからない場合はnilを返す。
	GetArticle(ctx context.Context, id string) (*model.Article, error)
	// ListCategories は全カテゴリを名前昇順で返す。
	ListCategories(ctx context.Context) ([]*model.Category, error)
}

// SummarizerInterface は記事のAI要約インターフェース。
// 失敗時は固定の説明文字列に縮退するため、エラーを返さない。
type SummarizerInterface interface {
	Summarize(ctx context.Context, articleContent string) string
}

// NewsHandler は記事・カテゴリ閲覧のHTTPハンドラー。
type NewsHandler struct {
	service    NewsServiceInterface
	summarizer SummarizerInterface
}

// NewNewsHandler はNewsHandlerを生成する。
func NewNewsHandler(service NewsServiceInterface, summarizer SummarizerInterface) *NewsHandler {
	return &NewsHandler{
		service:    service,
		summarizer: summarizer,
	}
}

// --- レスポンス型 ---

// articleResponse は記事のレスポンス。
type articleResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"` // サニタイズ済みHTML
	ImageURL       string    `json:"image_url"`
	Category       string    `json:"category"`
	AuthorName     string    `json:"author_name"`
	AuthorImageURL string    `json:"author_image_url"`
	IsBreaking     bool      `json:"is_breaking"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// articleListResponse は記事一覧のレスポンス。
type articleListResponse struct {
	Articles []articleResponse `json:"articles"`
}

// categoryResponse はカテゴリのレスポンス。
type categoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// categoryListResponse はカテゴリ一覧のレスポンス。
type categoryListResponse struct {
	Categories []categoryResponse `json:"categories"`
}

// summaryResponse はAI要約のレスポンス。
type summaryResponse struct {
	ArticleID string `json:"article_id"`
	Summary   string `json:"summary"`
}

func toArticleResponse(article *model.Article) articleResponse {
	return articleResponse{
		ID:             article.ID,
		Title:          article.Title,
		Content:        article.Content,
		ImageURL:       article.ImageURL,
		Category:       article.Category,
		AuthorName:     article.AuthorName,
		AuthorImageURL: article.AuthorImageURL,
		IsBreaking:     article.IsBreaking,
		CreatedAt:      article.CreatedAt,
		UpdatedAt:      article.UpdatedAt,
	}
}

func toArticleListResponse(articles []*model.Article) articleListResponse {
	results := make([]articleResponse, len(articles))
	for i, article := range articles {
		results[i] = toArticleResponse(article)
	}
	return articleListResponse{Articles: results}
}

// ListBreaking は速報記事の一覧を取得する。
// GET /api/articles/breaking
func (h *NewsHandler) ListBreaking(w http.ResponseWriter, r *http.Request) {
	articles, err := h.service.BreakingNews(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toArticleListResponse(articles))
}

// ListArticles はカテゴリフィルタ付きの記事一覧を取得する。
// categoryパラメータ省略時および"all"（大文字小文字不問）は全記事を返す。
// GET /api/articles?category=xxx
func (h *NewsHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	articles, err := h.service.ListByCategory(r.Context(), category)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toArticleListResponse(articles))
}

// SearchArticles は記事を検索する。空の検索語は空の結果を返す。
// GET /api/articles/search?q=xxx
func (h *NewsHandler) SearchArticles(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")

	articles, err := h.service.Search(r.Context(), term)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toArticleListResponse(articles))
}

// GetArticle は記事詳細を取得する。
// GET /api/articles/{id}
func (h *NewsHandler) GetArticle(w http.ResponseWriter, r *http.Request) {
	articleID := chi.URLParam(r, "id")

	article, err := h.service.GetArticle(r.Context(), articleID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if article == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewArticleNotFoundError(articleID))
		return
	}

	writeJSON(w, http.StatusOK, toArticleResponse(article))
}

// SummarizeArticle は記事のAI要約を取得する。
// 要約の取得に失敗しても200で固定の説明文を返す（エラーにしない）。
// GET /api/articles/{id}/summary
func (h *NewsHandler) SummarizeArticle(w http.ResponseWriter, r *http.Request) {
	articleID := chi.URLParam(r, "id")

	article, err := h.service.GetArticle(r.Context(), articleID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if article == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewArticleNotFoundError(articleID))
		return
	}

	summary := h.summarizer.Summarize(r.Context(), article.Content)

	writeJSON(w, http.StatusOK, summaryResponse{
		ArticleID: article.ID,
		Summary:   summary,
	})
}

// ListCategories はカテゴリ一覧を取得する。
// GET /api/categories
func (h *NewsHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]categoryResponse, len(categories))
	for i, category := range categories {
		results[i] = categoryResponse{
			ID:   category.ID,
			Name: category.Name,
		}
	}
	writeJSON(w, http.StatusOK, categoryListResponse{Categories: results})
}
