package realtime

import (
	"log/slog"
	"sync"
)

// subscriberBuffer は購読者チャンネルのバッファサイズ。
// 消費が追いつかない購読者にはイベントを配送せずスキップする
// （SSE側は再接続時に最新状態を再取得するため、欠落は収束を妨げない）。
const subscriberBuffer = 16

// Subscription は1つのライブ購読を表す。
// C からイベントを受信し、不要になったら必ずCancelを呼ぶこと。
// Cancelを呼ばずに放置された購読はリークであり欠陥である。
type Subscription struct {
	// C はイベント受信チャンネル。Cancel後はクローズされる。
	C <-chan Event

	cancelOnce sync.Once
	cancel     func()
}

// Cancel は購読を解除する。複数回呼んでも安全。
func (s *Subscription) Cancel() {
	s.cancelOnce.Do(s.cancel)
}

// EventRecorder は配送・破棄イベントのメトリクス記録を受け取る。
// metrics.MetricsCollectorの部分集合として定義する。
type EventRecorder interface {
	RecordEventPublished(topic string)
	RecordEventDropped(topic string)
}

// Hub はトピックごとの購読レジストリ。
// Publishは単一のディスパッチ元（PGListener）から呼ばれる想定で、
// その場合トピック内のイベント順序は受信順（=コミット順）に保たれる。
// トピックをまたぐ順序は保証しない。
type Hub struct {
	mu       sync.RWMutex
	topics   map[string]map[uint64]chan Event
	nextID   uint64
	closed   bool
	recorder EventRecorder // nilの場合は記録しない
}

// NewHub はHubを生成する。
func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]map[uint64]chan Event),
	}
}

// SetRecorder はメトリクス記録先を設定する。Subscribe/Publish開始前に呼ぶこと。
func (h *Hub) SetRecorder(recorder EventRecorder) {
	h.recorder = recorder
}

// Subscribe は指定トピックの購読を開始する。
// 返されたSubscriptionは呼び出し側がライフサイクルを管理する。
// ビューの破棄時・認証状態の遷移時には必ずCancelすること。
func (h *Hub) Subscribe(topic string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)

	if h.closed {
		close(ch)
		return &Subscription{C: ch, cancel: func() {}}
	}

	h.nextID++
	id := h.nextID

	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[uint64]chan Event)
		h.topics[topic] = subs
	}
	subs[id] = ch

	return &Subscription{
		C: ch,
		cancel: func() {
			h.unsubscribe(topic, id)
		},
	}
}

// unsubscribe は購読をレジストリから外し、チャンネルをクローズする。
func (h *Hub) unsubscribe(topic string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.topics[topic]
	if !ok {
		return
	}
	ch, ok := subs[id]
	if !ok {
		return
	}
	delete(subs, id)
	if len(subs) == 0 {
		delete(h.topics, topic)
	}
	close(ch)
}

// Publish はイベントをトピックの全購読者に配送する。
// バッファが満杯の購読者へはブロックせずスキップする。
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}

	for _, ch := range h.topics[event.Topic] {
		select {
		case ch <- event:
			if h.recorder != nil {
				h.recorder.RecordEventPublished(event.Topic)
			}
		default:
			slog.Warn("slow realtime subscriber, dropping event",
				slog.String("topic", event.Topic),
				slog.String("kind", event.Kind),
			)
			if h.recorder != nil {
				h.recorder.RecordEventDropped(event.Topic)
			}
		}
	}
}

// SubscriberCount は指定トピックの現在の購読者数を返す。
// テストおよびメトリクス用。
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Close は全購読をクローズし、以降のSubscribe/Publishを無効化する。
// アプリケーション終了時に呼ぶ。
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for topic, subs := range h.topics {
		for id, ch := range subs {
			delete(subs, id)
			close(ch)
		}
		delete(h.topics, topic)
	}
}
