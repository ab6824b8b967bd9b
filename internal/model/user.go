// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限種別を表す閉じた列挙型。
// 文字列比較を散在させず、境界ごとにswitchで網羅的に処理する。
type Role string

const (
	// RoleUser は一般ユーザー権限。
	RoleUser Role = "user"
	// RoleAdmin は管理者権限。管理画面APIへのアクセスを許可する。
	RoleAdmin Role = "admin"
)

// ParseRole は文字列をRoleに変換する。
// 未知の値はRoleUserにフォールバックする（権限は常に閉じる方向へ）。
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

// User はサービス利用ユーザーのプロフィールを表す。
// ブックマーク集合は別テーブル（bookmarks）で保持し、Userには載せない。
type User struct {
	ID           string
	Email        string
	DisplayName  string
	AvatarURL    string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
