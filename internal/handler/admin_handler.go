package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/newsdeck/internal/model"
	"github.com/hitoshi/newsdeck/internal/news"
)

// maxUploadMemory はmultipartフォーム解析時のメモリ上限。
const maxUploadMemory = 32 << 20 // 32MiB

// AdminNewsServiceInterface は管理ハンドラーが必要とする記事・カテゴリ管理サービスインターフェース。
type AdminNewsServiceInterface interface {
	CreateArticle(ctx context.Context, input news.ArticleInput) (*model.Article, error)
	UpdateArticle(ctx context.Context, id string, input news.ArticleInput) (*model.Article, error)
	DeleteArticle(ctx context.Context, id string) error
	CreateCategory(ctx context.Context, name string) (*model.Category, error)
	RenameCategory(ctx context.Context, id, name string) error
	DeleteCategory(ctx context.Context, id string) error
	// UploadImage は画像を保存して公開URLを返す。失敗時は記事の保存を中断すること。
	UploadImage(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
	// ImportImage は外部URLの画像をSSRF防止付きで取り込み、公開URLを返す。
	ImportImage(ctx context.Context, rawURL string) (string, error)
}

// SettingsServiceInterface はアプリ設定サービスのインターフェース。
type SettingsServiceInterface interface {
	Get(ctx context.Context) (model.AppSettings, error)
	Update(ctx context.Context, patch model.AppSettingsPatch) (model.AppSettings, error)
}

// AdminHandler は管理画面向けのHTTPハンドラー。
// AdminMiddlewareの後段に配置されることを前提とする。
type AdminHandler struct {
	newsService     AdminNewsServiceInterface
	settingsService SettingsServiceInterface
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(newsService AdminNewsServiceInterface, settingsService SettingsServiceInterface) *AdminHandler {
	return &AdminHandler{
		newsService:     newsService,
		settingsService: settingsService,
	}
}

// --- リクエスト/レスポンス型 ---

// articleRequest は記事の作成・更新リクエストのボディ。
type articleRequest struct {
	Title          string `json:"title"`
	Content        string `json:"content"`
	ImageURL       string `json:"image_url"`
	Category       string `json:"category"`
	AuthorName     string `json:"author_name"`
	AuthorImageURL string `json:"author_image_url"`
	IsBreaking     bool   `json:"is_breaking"`
}

func (req articleRequest) toInput() news.ArticleInput {
	return news.ArticleInput{
		Title:          req.Title,
		Content:        req.Content,
		ImageURL:       req.ImageURL,
		Category:       req.Category,
		AuthorName:     req.AuthorName,
		AuthorImageURL: req.AuthorImageURL,
		IsBreaking:     req.IsBreaking,
	}
}

// categoryRequest はカテゴリの作成・改名リクエストのボディ。
type categoryRequest struct {
	Name string `json:"name"`
}

// settingsRequest はログイン表示設定の部分更新リクエストのボディ。
// 省略されたフィールドは変更しない。
type settingsRequest struct {
	ShowGoogleLogin *bool `json:"show_google_login,omitempty"`
	ShowAppleLogin  *bool `json:"show_apple_login,omitempty"`
}

// settingsResponse はログイン表示設定のレスポンス。
type settingsResponse struct {
	ShowGoogleLogin bool `json:"show_google_login"`
	ShowAppleLogin  bool `json:"show_apple_login"`
}

// imageImportRequest は画像URL取り込みリクエストのボディ。
type imageImportRequest struct {
	URL string `json:"url"`
}

// imageResponse は画像保存結果のレスポンス。
type imageResponse struct {
	URL string `json:"url"`
}

// --- 記事管理 ---

// CreateArticle は記事を作成する。
// POST /api/admin/articles
func (h *AdminHandler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	article, err := h.newsService.CreateArticle(r.Context(), req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toArticleResponse(article))
}

// UpdateArticle は記事を更新する。IDは不変。
// PUT /api/admin/articles/{id}
func (h *AdminHandler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	articleID := chi.URLParam(r, "id")

	var req articleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	article, err := h.newsService.UpdateArticle(r.Context(), articleID, req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toArticleResponse(article))
}

// DeleteArticle は記事を削除する。
// DELETE /api/admin/articles/{id}
func (h *AdminHandler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	if err := h.newsService.DeleteArticle(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- カテゴリ管理 ---

// CreateCategory はカテゴリを作成する。
// POST /api/admin/categories
func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	category, err := h.newsService.CreateCategory(r.Context(), req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, categoryResponse{
		ID:   category.ID,
		Name: category.Name,
	})
}

// RenameCategory はカテゴリ名を変更する。
// PATCH /api/admin/categories/{id}
func (h *AdminHandler) RenameCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "id")

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	if err := h.newsService.RenameCategory(r.Context(), categoryID, req.Name); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, categoryResponse{
		ID:   categoryID,
		Name: req.Name,
	})
}

// DeleteCategory はカテゴリを削除する。
// DELETE /api/admin/categories/{id}
func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.newsService.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- 設定管理 ---

// GetSettings は現在のログイン表示設定を返す。
// GET /api/admin/settings
func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsService.Get(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, settingsResponse{
		ShowGoogleLogin: settings.ShowGoogleLogin,
		ShowAppleLogin:  settings.ShowAppleLogin,
	})
}

// UpdateSettings はログイン表示設定を部分更新する。
// PATCH /api/admin/settings
func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	if req.ShowGoogleLogin == nil && req.ShowAppleLogin == nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("更新するフィールドを指定してください"))
		return
	}

	settings, err := h.settingsService.Update(r.Context(), model.AppSettingsPatch{
		ShowGoogleLogin: req.ShowGoogleLogin,
		ShowAppleLogin:  req.ShowAppleLogin,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, settingsResponse{
		ShowGoogleLogin: settings.ShowGoogleLogin,
		ShowAppleLogin:  settings.ShowAppleLogin,
	})
}

// --- 画像管理 ---

// UploadImage はmultipartフォームの画像ファイルを保存し、公開URLを返す。
// POST /api/admin/images
func (h *AdminHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("multipartフォームの解析に失敗しました"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("imageフィールドにファイルを指定してください"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := h.newsService.UploadImage(r.Context(), header.Filename, contentType, file)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, imageResponse{URL: url})
}

// ImportImage は外部URLの画像を取り込み、公開URLを返す。
// POST /api/admin/images/import
func (h *AdminHandler) ImportImage(w http.ResponseWriter, r *http.Request) {
	var req imageImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	url, err := h.newsService.ImportImage(r.Context(), req.URL)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, imageResponse{URL: url})
}
