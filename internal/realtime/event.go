// Package realtime はライブ購読（live subscription）の基盤を提供する。
// PostgreSQLのLISTEN/NOTIFYで書き込みイベントを受信し、
// トピックごとの購読者チャンネルへファンアウトする。
package realtime

import "encoding/json"

// Channel はNOTIFYに使用するPostgreSQLチャンネル名。
// 単一チャンネルに集約することで、コミット順の通知順序を
// トピック単位で保証する（チャンネルをまたぐ順序は保証しない）。
const Channel = "newsdeck_changes"

// 公開コレクションのトピック名
const (
	// TopicArticles は記事コレクションの変更トピック。
	TopicArticles = "articles"
	// TopicCategories はカテゴリコレクションの変更トピック。
	TopicCategories = "categories"
	// TopicSettings はアプリ設定シングルトンの変更トピック。
	TopicSettings = "settings"
)

// UserTopic は指定ユーザーのプロフィール文書（ブックマーク集合を含む）の
// 変更トピック名を返す。
func UserTopic(userID string) string {
	return "user:" + userID
}

// Event はコレクションの変更通知を表す。
// NOTIFYペイロードとしてJSONで送受信される。
type Event struct {
	Topic string `json:"topic"`
	Kind  string `json:"kind"` // created, updated, deleted
	ID    string `json:"id,omitempty"`
}

// 変更種別
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

// Encode はEventをNOTIFYペイロード文字列に変換する。
func (e Event) Encode() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeEvent はNOTIFYペイロード文字列からEventを復元する。
func DecodeEvent(payload string) (Event, error) {
	var e Event
	err := json.Unmarshal([]byte(payload), &e)
	return e, err
}
