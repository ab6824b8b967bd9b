// Package settings はログイン画面表示設定シングルトンの読み書きを提供する。
package settings

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/newsdeck/internal/model"
	"github.com/hitoshi/newsdeck/internal/repository"
)

// Service はアプリ設定のサービス層。
type Service struct {
	repo repository.SettingsRepository
}

// NewService はServiceを生成する。
func NewService(repo repository.SettingsRepository) *Service {
	return &Service{repo: repo}
}

// Get は現在の設定を返す。
// 設定レコードが存在しない場合は両トグルtrueのデフォルトを返す。
func (s *Service) Get(ctx context.Context) (model.AppSettings, error) {
	stored, err := s.repo.Get(ctx)
	if err != nil {
		return model.DefaultAppSettings(), fmt.Errorf("failed to get settings: %w", err)
	}
	if stored == nil {
		return model.DefaultAppSettings(), nil
	}
	return *stored, nil
}

// Update は設定を部分更新する。nilフィールドは変更しない。
// 初回更新時にレコードが暗黙的に作成される。
func (s *Service) Update(ctx context.Context, patch model.AppSettingsPatch) (model.AppSettings, error) {
	if err := s.repo.Upsert(ctx, patch); err != nil {
		return model.DefaultAppSettings(), fmt.Errorf("failed to update settings: %w", err)
	}

	slog.Info("app settings updated")

	return s.Get(ctx)
}
