// Package auth はメール+パスワード認証、プロフィール解決、セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/newsdeck/internal/model"
	"github.com/hitoshi/newsdeck/internal/repository"
)

// ProviderIdentity は認証レイヤーが確認済みのアイデンティティ情報を表す。
// プロフィール文書が存在しない場合のプロフィール合成に使用する。
type ProviderIdentity struct {
	Email        string
	DisplayName  string
	AvatarURL    string
	PasswordHash string
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// SignUp はメール+パスワードで新規ユーザーを登録し、セッションを発行する。
// プロフィールはデフォルト権限(user)・空のブックマーク集合で合成される。
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (*model.Session, *model.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, nil, model.NewInvalidRequestError("メールアドレスを入力してください")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, nil, model.NewInvalidRequestError("パスワードは6文字以上で入力してください")
	}

	user, err := s.ResolveProfile(ctx, ProviderIdentity{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, nil, err
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("new user signed up",
		slog.String("user_id", user.ID),
	)

	return session, user, nil
}

// Login はメール+パスワードで認証し、セッションを発行する。
// 失敗理由（メール未登録/パスワード不一致）は区別せず同一のエラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*model.Session, *model.User, error) {
	email = normalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !VerifyPassword(user.PasswordHash, password) {
		return nil, nil, model.NewAuthFailedError()
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
	)

	return session, user, nil
}

// ResolveProfile は確認済みアイデンティティに対応するプロフィールを返す。
// プロフィール文書が存在しない場合は、デフォルト権限(user)と
// 空のブックマーク集合を持つプロフィールを合成して永続化する。
// 既にプロフィールが存在するメールアドレスでの登録は重複エラーになる。
func (s *Service) ResolveProfile(ctx context.Context, ident ProviderIdentity) (*model.User, error) {
	existing, err := s.userRepo.FindByEmail(ctx, ident.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	if existing != nil {
		if ident.PasswordHash != "" {
			// パスワード登録経路での重複はエラー
			return nil, model.NewEmailTakenError()
		}
		return existing, nil
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        ident.Email,
		DisplayName:  ident.DisplayName,
		AvatarURL:    ident.AvatarURL,
		Role:         model.RoleUser,
		PasswordHash: ident.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if err == repository.ErrDuplicateEmail {
			return nil, model.NewEmailTakenError()
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	slog.Info("profile synthesized for new identity",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// GetCurrentUser はセッションから現在のユーザーを取得する。
// セッションまたはプロフィールの解決に失敗した場合はエラーを返す
// （失効側に倒す。期限切れの認証状態を見せ続けない）。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session not found or expired")
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}

	return user, nil
}

// UpdateDisplayName は現在のユーザーの表示名を更新する。
func (s *Service) UpdateDisplayName(ctx context.Context, userID, displayName string) error {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return model.NewInvalidRequestError("表示名を入力してください")
	}

	if err := s.userRepo.UpdateDisplayName(ctx, userID, displayName); err != nil {
		return fmt.Errorf("failed to update display name: %w", err)
	}
	return nil
}

// EnsureAdmin は指定メールアドレスの登録済みユーザーを管理者に昇格する。
// 起動時の管理者ブートストラップ用。未登録のメールアドレスは何もしない
// （登録後の次回起動時に昇格される）。既に管理者の場合も何もしない。
func (s *Service) EnsureAdmin(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find admin candidate: %w", err)
	}
	if user == nil {
		slog.Info("admin bootstrap: user not registered yet",
			slog.String("email", email),
		)
		return nil
	}
	if user.Role == model.RoleAdmin {
		return nil
	}

	if err := s.userRepo.UpdateRole(ctx, user.ID, model.RoleAdmin); err != nil {
		return fmt.Errorf("failed to promote user to admin: %w", err)
	}

	slog.Info("admin bootstrap: user promoted to admin",
		slog.String("user_id", user.ID),
	)
	return nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// normalizeEmail はメールアドレスを比較用に正規化する。
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
