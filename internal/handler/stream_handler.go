package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/newsdeck/internal/middleware"
	"github.com/hitoshi/newsdeck/internal/model"
	"github.com/hitoshi/newsdeck/internal/realtime"
)

// heartbeatInterval はSSE接続維持用コメントの送信間隔。
// プロキシのアイドルタイムアウトより短くする。
const heartbeatInterval = 30 * time.Second

// Subscriber はトピック購読の開始インターフェース。
// realtime.Hubが実装する。
type Subscriber interface {
	Subscribe(topic string) *realtime.Subscription
}

// StreamHandler はServer-Sent Eventsによるライブ購読のHTTPハンドラー。
//
// クライアントはトピックを1つ指定して接続し、該当コレクションの変更通知を
// 受信する。通知は「変わった」ことだけを伝える軽量イベントであり、
// クライアントは通常のREST APIで最新状態を再取得する。
// 購読は接続の切断で自動的に解除される。
type StreamHandler struct {
	subscriber Subscriber
}

// NewStreamHandler はStreamHandlerを生成する。
func NewStreamHandler(subscriber Subscriber) *StreamHandler {
	return &StreamHandler{subscriber: subscriber}
}

// Stream はトピックのライブ購読を開始する。
// topic=articles|categories|settings は共有コレクション、
// topic=bookmarks は認証ユーザー自身のプロフィール変更（ブックマーク集合を含む）。
// GET /api/stream?topic=xxx
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	topic, apiErr := h.resolveTopic(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
			Code:     "STREAMING_UNSUPPORTED",
			Message:  "ストリーミングに対応していません。",
			Category: "system",
			Action:   "通常のAPIで再取得してください。",
		})
		return
	}

	sub := h.subscriber.Subscribe(topic)
	defer sub.Cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// 接続確立を即座にクライアントへ伝える
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			// クライアント切断で購読解除
			return

		case event, ok := <-sub.C:
			if !ok {
				// Hubのクローズ（シャットダウン）
				return
			}
			payload, err := event.Encode()
			if err != nil {
				slog.Error("failed to encode stream event",
					slog.String("topic", event.Topic),
					slog.String("error", err.Error()),
				)
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", payload)
			flusher.Flush()

		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}

// resolveTopic はクエリパラメータから購読トピックを解決する。
// bookmarksトピックはコンテキストの認証ユーザーIDに束縛され、
// 他ユーザーのプロフィール変更は購読できない。
func (h *StreamHandler) resolveTopic(r *http.Request) (string, *model.APIError) {
	switch topic := r.URL.Query().Get("topic"); topic {
	case realtime.TopicArticles, realtime.TopicCategories, realtime.TopicSettings:
		return topic, nil
	case "bookmarks":
		userID, err := middleware.UserIDFromContext(r.Context())
		if err != nil {
			return "", model.NewUnauthorizedError()
		}
		return realtime.UserTopic(userID), nil
	default:
		return "", model.NewInvalidRequestError("topicにはarticles, categories, settings, bookmarksのいずれかを指定してください")
	}
}
