// Package bookmark はブックマーク集合のトグルと一覧取得を提供する。
//
// トグルは「最新の集合を読み直してから、サーバー側の原子的な集合演算で
// 追加または削除する」という契約を持つ。クライアント側のキャッシュに
// 対してトグルしてはならない。集合の変更はユーザートピックへ通知され、
// 同一アカウントの他セッションはライブ購読経由で収束する。
package bookmark

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/newsdeck/internal/model"
	"github.com/hitoshi/newsdeck/internal/repository"
)

// Service はブックマーク管理のサービス層。
type Service struct {
	bookmarkRepo repository.BookmarkRepository
	articleRepo  repository.ArticleRepository
}

// NewService はServiceを生成する。
func NewService(bookmarkRepo repository.BookmarkRepository, articleRepo repository.ArticleRepository) *Service {
	return &Service{
		bookmarkRepo: bookmarkRepo,
		articleRepo:  articleRepo,
	}
}

// Toggle は指定記事のブックマーク状態を反転し、反転後の状態を返す。
// 直前に永続層から読み直したメンバーシップに基づいて追加/削除を決定し、
// 書き込みはサーバー側の原子的な集合演算で行う。
// 2回連続で呼ぶと集合は元のメンバーシップに戻る（対合）。
func (s *Service) Toggle(ctx context.Context, userID, articleID string) (bookmarked bool, err error) {
	if userID == "" {
		return false, model.NewUnauthorizedError()
	}
	if articleID == "" {
		return false, model.NewInvalidRequestError("記事IDを指定してください")
	}

	// キャッシュではなく最新状態を読み直す
	exists, err := s.bookmarkRepo.Contains(ctx, userID, articleID)
	if err != nil {
		return false, fmt.Errorf("failed to read bookmark state: %w", err)
	}

	if exists {
		if err := s.bookmarkRepo.Remove(ctx, userID, articleID); err != nil {
			return false, fmt.Errorf("failed to remove bookmark: %w", err)
		}
		slog.Info("bookmark removed",
			slog.String("user_id", userID),
			slog.String("article_id", articleID),
		)
		return false, nil
	}

	// 記事の存在しないIDをブックマークさせない
	article, err := s.articleRepo.FindByID(ctx, articleID)
	if err != nil {
		return false, fmt.Errorf("failed to find article: %w", err)
	}
	if article == nil {
		return false, model.NewArticleNotFoundError(articleID)
	}

	if err := s.bookmarkRepo.Add(ctx, userID, articleID); err != nil {
		return false, fmt.Errorf("failed to add bookmark: %w", err)
	}
	slog.Info("bookmark added",
		slog.String("user_id", userID),
		slog.String("article_id", articleID),
	)
	return true, nil
}

// ListIDs はユーザーのブックマーク記事ID一覧を返す。
func (s *Service) ListIDs(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, model.NewUnauthorizedError()
	}
	ids, err := s.bookmarkRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmark IDs: %w", err)
	}
	return ids, nil
}

// ListArticles はブックマーク済み記事の本体一覧を返す。
// 削除済み記事のIDは結果から黙って除外される。
func (s *Service) ListArticles(ctx context.Context, userID string) ([]*model.Article, error) {
	ids, err := s.ListIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Article{}, nil
	}

	articles, err := s.articleRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarked articles: %w", err)
	}
	return articles, nil
}
