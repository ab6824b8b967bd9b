// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/newsdeck/internal/model"
)

// UserRepository はユーザープロフィールの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザープロフィールを作成する。
	// メールアドレス重複時はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// UpdateDisplayName は表示名を更新する。
	UpdateDisplayName(ctx context.Context, id, displayName string) error

	// UpdateRole はユーザーの権限を更新する。
	UpdateRole(ctx context.Context, id string, role model.Role) error
}

// BookmarkRepository はユーザーごとのブックマーク集合の永続化インターフェース。
// 集合への追加・削除はサーバー側の原子的な集合演算として実装されること。
// クライアント側での全体読み出し→書き戻しは行わない。
type BookmarkRepository interface {
	// ListByUserID はユーザーのブックマーク記事ID一覧を追加日時降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]string, error)

	// Contains は指定記事がブックマーク済みかを返す。
	Contains(ctx context.Context, userID, articleID string) (bool, error)

	// Add は記事IDを集合に追加する。既に存在する場合は何もしない（冪等）。
	Add(ctx context.Context, userID, articleID string) error

	// Remove は記事IDを集合から削除する。存在しない場合は何もしない（冪等）。
	Remove(ctx context.Context, userID, articleID string) error
}

// ArticleRepository は記事データの永続化インターフェース。
// 一覧系はすべてcreated_at降順で返す。
type ArticleRepository interface {
	// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Article, error)

	// ListAll は全記事をcreated_at降順で返す。
	ListAll(ctx context.Context) ([]*model.Article, error)

	// ListByCategory は指定カテゴリの記事をcreated_at降順で返す。
	ListByCategory(ctx context.Context, category string) ([]*model.Article, error)

	// ListBreaking は速報フラグ付きの記事を最大limit件返す。
	ListBreaking(ctx context.Context, limit int) ([]*model.Article, error)

	// ListByIDs は指定ID群の記事を返す。存在しないIDは黙って読み飛ばす。
	// 結果の順序はidsの順序に従う。
	ListByIDs(ctx context.Context, ids []string) ([]*model.Article, error)

	// Search はタイトルまたはカテゴリ名に部分一致する記事を
	// 大文字小文字を区別せずに検索し、created_at降順で返す。
	Search(ctx context.Context, term string) ([]*model.Article, error)

	// CountByCategory は指定カテゴリに属する記事数を返す。
	CountByCategory(ctx context.Context, category string) (int, error)

	// Create は記事を作成する。
	Create(ctx context.Context, article *model.Article) error

	// Update は記事を更新する。
	Update(ctx context.Context, article *model.Article) error

	// Delete は指定IDの記事を削除する。
	Delete(ctx context.Context, id string) error
}

// CategoryRepository はカテゴリデータの永続化インターフェース。
type CategoryRepository interface {
	// List は全カテゴリを名前昇順で返す。
	List(ctx context.Context) ([]*model.Category, error)

	// FindByID は指定IDのカテゴリを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Category, error)

	// ExistsByName は指定名のカテゴリが存在するかを返す。
	ExistsByName(ctx context.Context, name string) (bool, error)

	// Create はカテゴリを作成する。
	Create(ctx context.Context, category *model.Category) error

	// UpdateName はカテゴリ名を更新する。
	UpdateName(ctx context.Context, id, name string) error

	// Delete は指定IDのカテゴリを削除する。
	Delete(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// SettingsRepository はアプリ設定シングルトンの永続化インターフェース。
type SettingsRepository interface {
	// Get は設定を取得する。レコードが存在しない場合はnilを返す
	// （デフォルト値への解釈はサービス層が行う）。
	Get(ctx context.Context) (*model.AppSettings, error)

	// Upsert は設定を部分更新する。レコードが存在しない場合は
	// デフォルト値にパッチを適用した上で作成する。
	Upsert(ctx context.Context, patch model.AppSettingsPatch) error
}
