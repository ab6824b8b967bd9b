package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/hitoshi/newsdeck/internal/realtime"
)

// execer はpg_notifyの発行に必要な最小インターフェース。
// *sql.DBと*sql.Txの両方が満たす。
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// notifyChange は書き込み成功後に変更イベントをNOTIFYする。
// トランザクション内で呼ばれた場合、通知はコミット時に配送されるため
// コミット順とトピック内の通知順序が一致する。
// 通知の失敗は書き込み自体を失敗させない（ログのみ。購読側は再接続時に再取得する）。
func notifyChange(ctx context.Context, db execer, topic, kind, id string) {
	payload, err := realtime.Event{Topic: topic, Kind: kind, ID: id}.Encode()
	if err != nil {
		slog.Error("failed to encode change event",
			slog.String("topic", topic),
			slog.String("error", err.Error()),
		)
		return
	}

	if _, err := db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, realtime.Channel, payload); err != nil {
		slog.Warn("failed to notify change event",
			slog.String("topic", topic),
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
	}
}
