package realtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// PGListener はPostgreSQLのLISTEN/NOTIFYを購読し、
// 受信したイベントをHubへファンアウトする。
// 単一のゴルーチンで順次Publishするため、トピック内の配送順序は
// NOTIFYの配送順（=コミット順）と一致する。
type PGListener struct {
	listener *pq.Listener
	hub      *Hub
	logger   *slog.Logger
}

// NewPGListener はPGListenerを生成する。
// 接続断時はpq.Listenerが指数バックオフで自動再接続する。
func NewPGListener(databaseURL string, hub *Hub, logger *slog.Logger) *PGListener {
	listener := pq.NewListener(databaseURL, 10*time.Second, time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				logger.Error("postgres listener event",
					slog.Int("event_type", int(ev)),
					slog.String("error", err.Error()),
				)
			}
		},
	)

	return &PGListener{
		listener: listener,
		hub:      hub,
		logger:   logger,
	}
}

// Run はNOTIFYチャンネルの購読を開始し、ctxがキャンセルされるまで
// イベントをHubへ配送し続ける（ブロッキング）。
func (p *PGListener) Run(ctx context.Context) error {
	if err := p.listener.Listen(Channel); err != nil {
		return err
	}
	defer p.listener.Close()

	p.logger.Info("realtime listener started",
		slog.String("channel", Channel),
	)

	// 長時間NOTIFYが来ない場合に接続の生存確認を行う
	pingInterval := 90 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("realtime listener stopped")
			return nil

		case n := <-p.listener.Notify:
			// 再接続直後はnilが配送されることがある。
			// 再接続中に取りこぼした可能性があるため、購読側の
			// 再取得に任せてここでは何もしない。
			if n == nil {
				continue
			}

			event, err := DecodeEvent(n.Extra)
			if err != nil {
				p.logger.Warn("failed to decode notify payload",
					slog.String("payload", n.Extra),
					slog.String("error", err.Error()),
				)
				continue
			}

			p.hub.Publish(event)

		case <-time.After(pingInterval):
			if err := p.listener.Ping(); err != nil {
				p.logger.Error("realtime listener ping failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
