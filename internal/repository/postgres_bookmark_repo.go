package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/newsdeck/internal/realtime"
)

// PostgresBookmarkRepo はPostgreSQLを使用したブックマークリポジトリ。
// ブックマーク集合は(user_id, article_id)を主キーとするテーブルで保持する。
// INSERT ON CONFLICT / DELETE はサーバー側で原子的に実行されるため、
// 同一アカウントの複数セッションからの同時トグルでも重複や欠落は発生しない。
type PostgresBookmarkRepo struct {
	db *sql.DB
}

// NewPostgresBookmarkRepo はPostgresBookmarkRepoを生成する。
func NewPostgresBookmarkRepo(db *sql.DB) *PostgresBookmarkRepo {
	return &PostgresBookmarkRepo{db: db}
}

// ListByUserID はユーザーのブックマーク記事ID一覧を追加日時降順で返す。
func (r *PostgresBookmarkRepo) ListByUserID(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT article_id FROM bookmarks WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookmarks: %w", err)
	}

	return ids, nil
}

// Contains は指定記事がブックマーク済みかを返す。
func (r *PostgresBookmarkRepo) Contains(ctx context.Context, userID, articleID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM bookmarks WHERE user_id = $1 AND article_id = $2)`,
		userID, articleID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check bookmark: %w", err)
	}
	return exists, nil
}

// Add は記事IDを集合に追加する。既に存在する場合は何もしない（冪等）。
func (r *PostgresBookmarkRepo) Add(ctx context.Context, userID, articleID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bookmarks (user_id, article_id, created_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_id, article_id) DO NOTHING`,
		userID, articleID,
	)
	if err != nil {
		return fmt.Errorf("failed to add bookmark: %w", err)
	}

	notifyChange(ctx, r.db, realtime.UserTopic(userID), realtime.KindUpdated, articleID)
	return nil
}

// Remove は記事IDを集合から削除する。存在しない場合は何もしない（冪等）。
func (r *PostgresBookmarkRepo) Remove(ctx context.Context, userID, articleID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE user_id = $1 AND article_id = $2`,
		userID, articleID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove bookmark: %w", err)
	}

	notifyChange(ctx, r.db, realtime.UserTopic(userID), realtime.KindUpdated, articleID)
	return nil
}

// compile-time interface check
var _ BookmarkRepository = (*PostgresBookmarkRepo)(nil)
