// Package news は記事とカテゴリの閲覧・検索・管理のドメインロジックを提供する。
package news

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/newsdeck/internal/model"
	"github.com/hitoshi/newsdeck/internal/repository"
	"github.com/hitoshi/newsdeck/internal/security"
)

// breakingNewsLimit は速報一覧の最大件数。
const breakingNewsLimit = 5

// maxImportImageSize はURL取り込みで許容する画像の最大バイト数。
const maxImportImageSize = 10 << 20 // 10MiB

// importFetchTimeout は画像取り込みのフェッチタイムアウト。
const importFetchTimeout = 15 * time.Second

// ImageStore は画像の保存先インターフェース。
// 保存後に公開取得用のURLを返す。
type ImageStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// Sanitizer は記事HTMLコンテンツのサニタイズインターフェース。
type Sanitizer interface {
	Sanitize(rawHTML string) string
}

// Service は記事・カテゴリ管理のサービス層。
type Service struct {
	articleRepo  repository.ArticleRepository
	categoryRepo repository.CategoryRepository
	imageStore   ImageStore
	sanitizer    Sanitizer
	ssrfGuard    security.SSRFGuardService
}

// NewService はServiceを生成する。
func NewService(
	articleRepo repository.ArticleRepository,
	categoryRepo repository.CategoryRepository,
	imageStore ImageStore,
	sanitizer Sanitizer,
	ssrfGuard security.SSRFGuardService,
) *Service {
	return &Service{
		articleRepo:  articleRepo,
		categoryRepo: categoryRepo,
		imageStore:   imageStore,
		sanitizer:    sanitizer,
		ssrfGuard:    ssrfGuard,
	}
}

// --- 閲覧系 ---

// BreakingNews は速報フラグ付きの記事を最大5件返す。
func (s *Service) BreakingNews(ctx context.Context) ([]*model.Article, error) {
	articles, err := s.articleRepo.ListBreaking(ctx, breakingNewsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list breaking news: %w", err)
	}
	return articles, nil
}

// ListByCategory は指定カテゴリの記事をcreated_at降順で返す。
// カテゴリ"All"（大文字小文字不問）は全記事を意味する。
func (s *Service) ListByCategory(ctx context.Context, category string) ([]*model.Article, error) {
	if strings.EqualFold(category, model.CategoryAll) || category == "" {
		articles, err := s.articleRepo.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list articles: %w", err)
		}
		return articles, nil
	}

	articles, err := s.articleRepo.ListByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles by category: %w", err)
	}
	return articles, nil
}

// Search はタイトルまたはカテゴリ名への部分一致（大文字小文字不問）で記事を検索する。
// 空の検索語にはクエリを発行せず空の結果を返す。
func (s *Service) Search(ctx context.Context, term string) ([]*model.Article, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []*model.Article{}, nil
	}

	articles, err := s.articleRepo.Search(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("failed to search articles: %w", err)
	}
	return articles, nil
}

// GetArticle は記事詳細を返す。見つからない場合はnilを返す。
func (s *Service) GetArticle(ctx context.Context, id string) (*model.Article, error) {
	article, err := s.articleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return article, nil
}

// ListCategories は全カテゴリを名前昇順で返す。
func (s *Service) ListCategories(ctx context.Context) ([]*model.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// --- 管理系: 記事 ---

// ArticleInput は記事の作成・更新入力。
type ArticleInput struct {
	Title          string
	Content        string // 未サニタイズのHTML
	ImageURL       string
	Category       string
	AuthorName     string
	AuthorImageURL string
	IsBreaking     bool
}

// validateArticleInput は記事入力の共通検証を行う。
func (s *Service) validateArticleInput(ctx context.Context, input ArticleInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return model.NewInvalidRequestError("タイトルを入力してください")
	}
	if strings.TrimSpace(input.Category) == "" {
		return model.NewInvalidRequestError("カテゴリを指定してください")
	}

	exists, err := s.categoryRepo.ExistsByName(ctx, input.Category)
	if err != nil {
		return fmt.Errorf("failed to check category: %w", err)
	}
	if !exists {
		return model.NewCategoryNotFoundError(input.Category)
	}

	return nil
}

// CreateArticle は記事を作成する。
// カテゴリは登録済みカテゴリ名を参照していなければならない。
// コンテンツHTMLはサニタイズした上で永続化する。
func (s *Service) CreateArticle(ctx context.Context, input ArticleInput) (*model.Article, error) {
	if err := s.validateArticleInput(ctx, input); err != nil {
		return nil, err
	}

	now := time.Now()
	article := &model.Article{
		ID:             uuid.New().String(),
		Title:          strings.TrimSpace(input.Title),
		Content:        s.sanitizer.Sanitize(input.Content),
		ImageURL:       input.ImageURL,
		Category:       input.Category,
		AuthorName:     input.AuthorName,
		AuthorImageURL: input.AuthorImageURL,
		IsBreaking:     input.IsBreaking,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.articleRepo.Create(ctx, article); err != nil {
		return nil, fmt.Errorf("failed to create article: %w", err)
	}

	slog.Info("article created",
		slog.String("article_id", article.ID),
		slog.String("category", article.Category),
		slog.Bool("is_breaking", article.IsBreaking),
	)

	return article, nil
}

// UpdateArticle は記事を更新する。IDは不変。
func (s *Service) UpdateArticle(ctx context.Context, id string, input ArticleInput) (*model.Article, error) {
	existing, err := s.articleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find article: %w", err)
	}
	if existing == nil {
		return nil, model.NewArticleNotFoundError(id)
	}

	if err := s.validateArticleInput(ctx, input); err != nil {
		return nil, err
	}

	existing.Title = strings.TrimSpace(input.Title)
	existing.Content = s.sanitizer.Sanitize(input.Content)
	existing.ImageURL = input.ImageURL
	existing.Category = input.Category
	existing.AuthorName = input.AuthorName
	existing.AuthorImageURL = input.AuthorImageURL
	existing.IsBreaking = input.IsBreaking
	existing.UpdatedAt = time.Now()

	if err := s.articleRepo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update article: %w", err)
	}

	return existing, nil
}

// DeleteArticle は記事を削除する。
func (s *Service) DeleteArticle(ctx context.Context, id string) error {
	if err := s.articleRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}
	slog.Info("article deleted", slog.String("article_id", id))
	return nil
}

// --- 管理系: カテゴリ ---

// CreateCategory はカテゴリを作成する。
func (s *Service) CreateCategory(ctx context.Context, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.NewInvalidRequestError("カテゴリ名を入力してください")
	}

	category := &model.Category{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now(),
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return category, nil
}

// RenameCategory はカテゴリ名を変更する。
// 既存記事のカテゴリ名参照は追従しない（元仕様どおり）。
func (s *Service) RenameCategory(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.NewInvalidRequestError("カテゴリ名を入力してください")
	}

	if err := s.categoryRepo.UpdateName(ctx, id, name); err != nil {
		return fmt.Errorf("failed to rename category: %w", err)
	}
	return nil
}

// DeleteCategory はカテゴリを削除する。
// 記事が参照しているカテゴリは削除できない。
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find category: %w", err)
	}
	if category == nil {
		return model.NewCategoryNotFoundError(id)
	}

	count, err := s.articleRepo.CountByCategory(ctx, category.Name)
	if err != nil {
		return fmt.Errorf("failed to count articles in category: %w", err)
	}
	if count > 0 {
		return model.NewCategoryInUseError(category.Name)
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

// --- 管理系: 画像 ---

// UploadImage は画像ファイルをオブジェクトストレージに保存し、公開URLを返す。
// キーは `articles/<unix時刻>_<ファイル名>` の形式。
// アップロード失敗時はエラーを返し、呼び出し側は記事の保存を中断すること。
func (s *Service) UploadImage(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	key := fmt.Sprintf("articles/%d_%s", time.Now().Unix(), sanitizeFilename(filename))

	url, err := s.imageStore.Upload(ctx, key, contentType, body)
	if err != nil {
		slog.Error("image upload failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return "", model.NewUploadFailedError()
	}

	slog.Info("image uploaded", slog.String("key", key))
	return url, nil
}

// ImportImage は外部URLの画像を取得してオブジェクトストレージへ保存し、公開URLを返す。
// 取得はSSRF防止機能付きクライアントで行い、プライベートネットワークへの
// アクセスはブロックされる。
func (s *Service) ImportImage(ctx context.Context, rawURL string) (string, error) {
	if err := s.ssrfGuard.ValidateURL(rawURL); err != nil {
		return "", model.NewInvalidImageURLError(err.Error())
	}

	client := s.ssrfGuard.NewSafeClient(importFetchTimeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", model.NewInvalidImageURLError(err.Error())
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", model.NewInvalidImageURLError("取得に失敗しました")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", model.NewInvalidImageURLError(fmt.Sprintf("ステータス %d が返されました", resp.StatusCode))
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", model.NewInvalidImageURLError("画像ではないコンテンツです")
	}

	limited := io.LimitReader(resp.Body, maxImportImageSize)
	return s.UploadImage(ctx, filenameFromURL(rawURL), contentType, limited)
}

// sanitizeFilename はストレージキーに使えない文字を除去する。
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "image"
	}
	replacer := strings.NewReplacer("/", "_", "\\", "_", " ", "_", "?", "_", "#", "_")
	return replacer.Replace(name)
}

// filenameFromURL はURLのパス末尾からファイル名を推測する。
func filenameFromURL(rawURL string) string {
	trimmed := strings.SplitN(rawURL, "?", 2)[0]
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 || idx == len(trimmed)-1 {
		return "image"
	}
	return trimmed[idx+1:]
}
