// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordSummarizeOutcome(outcome string)
	RecordBookmarkToggle(bookmarked bool)
	RecordEventPublished(topic string)
	RecordEventDropped(topic string)
	RecordImageUpload(success bool)
}

// 要約呼び出しの結果ラベル。
const (
	SummarizeOutcomeSuccess      = "success"
	SummarizeOutcomeNoCredential = "no_credential"
	SummarizeOutcomeFallback     = "fallback"
)

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus      *prometheus.CounterVec
	requestLatency  prometheus.Histogram
	summarizeTotal  *prometheus.CounterVec
	bookmarkToggle  *prometheus.CounterVec
	eventsPublished *prometheus.CounterVec
	eventsDropped   *prometheus.CounterVec
	imageUploads    *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsdeck_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "newsdeck_request_latency_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		summarizeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsdeck_summarize_total",
			Help: "AI要約呼び出しの結果別の合計数",
		}, []string{"outcome"}),
		bookmarkToggle: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsdeck_bookmark_toggle_total",
			Help: "ブックマークトグルの結果別の合計数",
		}, []string{"result"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsdeck_realtime_events_published_total",
			Help: "トピック別の配信イベント数",
		}, []string{"topic"}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsdeck_realtime_events_dropped_total",
			Help: "購読者のバッファ溢れにより破棄されたイベント数",
		}, []string{"topic"}),
		imageUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsdeck_image_uploads_total",
			Help: "画像アップロードの結果別の合計数",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.summarizeTotal,
		c.bookmarkToggle,
		c.eventsPublished,
		c.eventsDropped,
		c.imageUploads,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordSummarizeOutcome はAI要約呼び出しの結果を記録する。
func (c *Collector) RecordSummarizeOutcome(outcome string) {
	c.summarizeTotal.WithLabelValues(outcome).Inc()
}

// RecordBookmarkToggle はブックマークトグルの結果を記録する。
func (c *Collector) RecordBookmarkToggle(bookmarked bool) {
	result := "removed"
	if bookmarked {
		result = "added"
	}
	c.bookmarkToggle.WithLabelValues(result).Inc()
}

// RecordEventPublished は配信されたイベントを記録する。
func (c *Collector) RecordEventPublished(topic string) {
	c.eventsPublished.WithLabelValues(topic).Inc()
}

// RecordEventDropped は破棄されたイベントを記録する。
func (c *Collector) RecordEventDropped(topic string) {
	c.eventsDropped.WithLabelValues(topic).Inc()
}

// RecordImageUpload は画像アップロードの結果を記録する。
func (c *Collector) RecordImageUpload(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.imageUploads.WithLabelValues(result).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
