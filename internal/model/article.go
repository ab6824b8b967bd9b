// Package model はドメインモデルを定義する。
package model

import "time"

// Article はニュース記事を表す。
type Article struct {
	ID             string
	Title          string
	Content        string // サニタイズ済みHTML
	ImageURL       string
	Category       string
	AuthorName     string
	AuthorImageURL string
	IsBreaking     bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Category は記事カテゴリを表す。
// 記事はカテゴリ名で参照する（IDではなく名前参照）。
type Category struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// CategoryAll はカテゴリフィルタで全件を意味する特別値。
// 大文字小文字を区別せずに比較する。
const CategoryAll = "all"
