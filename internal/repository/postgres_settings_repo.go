package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/newsdeck/internal/model"
	"github.com/hitoshi/newsdeck/internal/realtime"
)

// settingsRowID はアプリ設定シングルトンの固定行ID。
const settingsRowID = "login_options"

// PostgresSettingsRepo はPostgreSQLを使用したアプリ設定リポジトリ。
// 設定は固定IDの1行のみを持つシングルトンとして保持する。
type PostgresSettingsRepo struct {
	db *sql.DB
}

// NewPostgresSettingsRepo はPostgresSettingsRepoを生成する。
func NewPostgresSettingsRepo(db *sql.DB) *PostgresSettingsRepo {
	return &PostgresSettingsRepo{db: db}
}

// Get は設定を取得する。レコードが存在しない場合はnilを返す。
func (r *PostgresSettingsRepo) Get(ctx context.Context) (*model.AppSettings, error) {
	s := &model.AppSettings{}
	err := r.db.QueryRowContext(ctx,
		`SELECT show_google_login, show_apple_login FROM app_settings WHERE id = $1`,
		settingsRowID,
	).Scan(&s.ShowGoogleLogin, &s.ShowAppleLogin)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return s, nil
}

// Upsert は設定を部分更新する。レコードが存在しない場合は
// デフォルト値にパッチを適用した上で作成する。
// 行ロックを取った上で更新するため、同時更新でも取りこぼしは発生しない。
func (r *PostgresSettingsRepo) Upsert(ctx context.Context, patch model.AppSettingsPatch) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current := model.DefaultAppSettings()
	err = tx.QueryRowContext(ctx,
		`SELECT show_google_login, show_apple_login FROM app_settings WHERE id = $1 FOR UPDATE`,
		settingsRowID,
	).Scan(&current.ShowGoogleLogin, &current.ShowAppleLogin)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to lock settings row: %w", err)
	}

	if patch.ShowGoogleLogin != nil {
		current.ShowGoogleLogin = *patch.ShowGoogleLogin
	}
	if patch.ShowAppleLogin != nil {
		current.ShowAppleLogin = *patch.ShowAppleLogin
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO app_settings (id, show_google_login, show_apple_login, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (id) DO UPDATE
		 SET show_google_login = EXCLUDED.show_google_login,
		     show_apple_login = EXCLUDED.show_apple_login,
		     updated_at = now()`,
		settingsRowID, current.ShowGoogleLogin, current.ShowAppleLogin,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert settings: %w", err)
	}

	// トランザクション内で通知することで、コミット時に配送される
	notifyChange(ctx, tx, realtime.TopicSettings, realtime.KindUpdated, settingsRowID)

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settings update: %w", err)
	}

	return nil
}

// compile-time interface check
var _ SettingsRepository = (*PostgresSettingsRepo)(nil)
