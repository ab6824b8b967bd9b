package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/hitoshi/newsdeck/internal/model"
	"github.com/hitoshi/newsdeck/internal/realtime"
)

// PostgresArticleRepo はPostgreSQLを使用した記事リポジトリ。
type PostgresArticleRepo struct {
	db *sql.DB
}

// NewPostgresArticleRepo はPostgresArticleRepoを生成する。
func NewPostgresArticleRepo(db *sql.DB) *PostgresArticleRepo {
	return &PostgresArticleRepo{db: db}
}

const articleColumns = `id, title, content, image_url, category, author_name, author_image_url, is_breaking, created_at, updated_at`

func scanArticles(rows *sql.Rows) ([]*model.Article, error) {
	articles := []*model.Article{}
	for rows.Next() {
		a := &model.Article{}
		err := rows.Scan(
			&a.ID, &a.Title, &a.Content, &a.ImageURL, &a.Category,
			&a.AuthorName, &a.AuthorImageURL, &a.IsBreaking,
			&a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate articles: %w", err)
	}
	return articles, nil
}

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *PostgresArticleRepo) FindByID(ctx context.Context, id string) (*model.Article, error) {
	a := &model.Article{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id = $1`,
		id,
	).Scan(
		&a.ID, &a.Title, &a.Content, &a.ImageURL, &a.Category,
		&a.AuthorName, &a.AuthorImageURL, &a.IsBreaking,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find article by ID: %w", err)
	}
	return a, nil
}

// ListAll は全記事をcreated_at降順で返す。
func (r *PostgresArticleRepo) ListAll(ctx context.Context) ([]*model.Article, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()
	return scanArticles(rows)
}

// ListByCategory は指定カテゴリの記事をcreated_at降順で返す。
func (r *PostgresArticleRepo) ListByCategory(ctx context.Context, category string) ([]*model.Article, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE category = $1 ORDER BY created_at DESC`,
		category,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles by category: %w", err)
	}
	defer rows.Close()
	return scanArticles(rows)
}

// ListBreaking は速報フラグ付きの記事を最大limit件返す。
func (r *PostgresArticleRepo) ListBreaking(ctx context.Context, limit int) ([]*model.Article, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE is_breaking = true
		 ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list breaking articles: %w", err)
	}
	defer rows.Close()
	return scanArticles(rows)
}

// ListByIDs は指定ID群の記事を返す。存在しないIDは黙って読み飛ばす。
// 結果の順序はidsの順序に従う。
func (r *PostgresArticleRepo) ListByIDs(ctx context.Context, ids []string) ([]*model.Article, error) {
	if len(ids) == 0 {
		return []*model.Article{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles by IDs: %w", err)
	}
	defer rows.Close()

	articles, err := scanArticles(rows)
	if err != nil {
		return nil, err
	}

	// idsの順序を維持して並べ直す
	byID := make(map[string]*model.Article, len(articles))
	for _, a := range articles {
		byID[a.ID] = a
	}
	ordered := make([]*model.Article, 0, len(articles))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			ordered = append(ordered, a)
		}
	}
	return ordered, nil
}

// Search はタイトルまたはカテゴリ名に部分一致する記事を
// 大文字小文字を区別せずに検索し、created_at降順で返す。
func (r *PostgresArticleRepo) Search(ctx context.Context, term string) ([]*model.Article, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles
		 WHERE title ILIKE '%' || $1 || '%' OR category ILIKE '%' || $1 || '%'
		 ORDER BY created_at DESC`,
		term,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search articles: %w", err)
	}
	defer rows.Close()
	return scanArticles(rows)
}

// CountByCategory は指定カテゴリに属する記事数を返す。
func (r *PostgresArticleRepo) CountByCategory(ctx context.Context, category string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM articles WHERE category = $1`,
		category,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles by category: %w", err)
	}
	return count, nil
}

// Create は記事を作成する。
func (r *PostgresArticleRepo) Create(ctx context.Context, article *model.Article) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO articles (id, title, content, image_url, category, author_name, author_image_url, is_breaking, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		article.ID, article.Title, article.Content, article.ImageURL, article.Category,
		article.AuthorName, article.AuthorImageURL, article.IsBreaking,
		article.CreatedAt, article.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert article: %w", err)
	}

	notifyChange(ctx, r.db, realtime.TopicArticles, realtime.KindCreated, article.ID)
	return nil
}

// Update は記事を更新する。
func (r *PostgresArticleRepo) Update(ctx context.Context, article *model.Article) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE articles
		 SET title = $2, content = $3, image_url = $4, category = $5,
		     author_name = $6, author_image_url = $7, is_breaking = $8, updated_at = now()
		 WHERE id = $1`,
		article.ID, article.Title, article.Content, article.ImageURL, article.Category,
		article.AuthorName, article.AuthorImageURL, article.IsBreaking,
	)
	if err != nil {
		return fmt.Errorf("failed to update article: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("article not found: %s", article.ID)
	}

	notifyChange(ctx, r.db, realtime.TopicArticles, realtime.KindUpdated, article.ID)
	return nil
}

// Delete は指定IDの記事を削除する。
// 関連するbookmarksはCASCADE削除される。
func (r *PostgresArticleRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM articles WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("article not found: %s", id)
	}

	notifyChange(ctx, r.db, realtime.TopicArticles, realtime.KindDeleted, id)
	return nil
}

// compile-time interface check
var _ ArticleRepository = (*PostgresArticleRepo)(nil)
