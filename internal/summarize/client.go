// Package summarize は生成AIエンドポイントによる記事要約を提供する。
// Gemini APIのgenerateContentを1リクエスト/1レスポンスで呼び出す。
// 認証情報が未設定の場合や呼び出しに失敗した場合は、例外を伝播させず
// 固定の説明文字列に縮退する。
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

const (
	// defaultEndpoint はGemini generateContent APIのエンドポイント。
	defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent"

	// maxResponseSize はAPIレスポンスの最大読み取りバイト数。
	maxResponseSize = 1 << 20 // 1MiB
)

// 縮退時の固定メッセージ。APIエラーとしてではなく要約結果として返す。
const (
	// FallbackNoCredential はAPIキー未設定時に返す固定文字列。
	FallbackNoCredential = "AI要約を利用するにはAPIキーの設定が必要です。管理者にお問い合わせください。"
	// FallbackUnavailable は呼び出し失敗時に返す固定文字列。
	FallbackUnavailable = "申し訳ありません。現在記事を要約できません。しばらく待ってから再度お試しください。"
)

// 呼び出し結果のメトリクスラベル。
const (
	outcomeSuccess      = "success"
	outcomeNoCredential = "no_credential"
	outcomeFallback     = "fallback"
)

// OutcomeRecorder は要約呼び出し結果のメトリクス記録を受け取る。
// metrics.MetricsCollectorの部分集合として定義する。
type OutcomeRecorder interface {
	RecordSummarizeOutcome(outcome string)
}

// Client はGemini APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	endpoint   string          // テスト用にエンドポイントを差し替え可能
	recorder   OutcomeRecorder // nilの場合は記録しない
}

// NewClient はClientの新しいインスタンスを生成する。
// apiKeyは空でもよい（その場合Summarizeは固定メッセージに縮退する）。
func NewClient(httpClient *http.Client, logger *slog.Logger, apiKey string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     apiKey,
		endpoint:   defaultEndpoint,
	}
}

// SetRecorder はメトリクス記録先を設定する。
func (c *Client) SetRecorder(recorder OutcomeRecorder) {
	c.recorder = recorder
}

// record は呼び出し結果を記録する。
func (c *Client) record(outcome string) {
	if c.recorder != nil {
		c.recorder.RecordSummarizeOutcome(outcome)
	}
}

// --- リクエスト/レスポンス型（Gemini API） ---

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Summarize は記事本文の要約文字列を返す。
// この関数はエラーを返さない: 失敗はすべて固定メッセージへの縮退として扱う。
func (c *Client) Summarize(ctx context.Context, articleContent string) string {
	summary, outcome := c.summarize(ctx, articleContent)
	c.record(outcome)
	return summary
}

// summarize は要約本体。結果文字列とメトリクスラベルを返す。
func (c *Client) summarize(ctx context.Context, articleContent string) (string, string) {
	if c.apiKey == "" {
		return FallbackNoCredential, outcomeNoCredential
	}

	// HTMLタグを除去したプレーンテキストをプロンプトに使用する
	prompt := fmt.Sprintf(
		"次のニュース記事を、簡潔な3つの箇条書きで要約してください:\n\n---\n\n%s",
		ExtractText(articleContent),
	)

	reqBody, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		c.logger.Error("failed to marshal summarize request",
			slog.String("error", err.Error()),
		)
		return FallbackUnavailable, outcomeFallback
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		c.logger.Error("failed to create summarize request",
			slog.String("error", err.Error()),
		)
		return FallbackUnavailable, outcomeFallback
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("summarize API call failed",
			slog.String("error", err.Error()),
		)
		return FallbackUnavailable, outcomeFallback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("summarize API returned error status",
			slog.Int("http_status", resp.StatusCode),
		)
		return FallbackUnavailable, outcomeFallback
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.logger.Error("failed to read summarize response",
			slog.String("error", err.Error()),
		)
		return FallbackUnavailable, outcomeFallback
	}

	var result generateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.Error("failed to parse summarize response",
			slog.String("error", err.Error()),
		)
		return FallbackUnavailable, outcomeFallback
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		c.logger.Warn("summarize API returned no candidates")
		return FallbackUnavailable, outcomeFallback
	}

	summary := strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text)
	if summary == "" {
		return FallbackUnavailable, outcomeFallback
	}
	return summary, outcomeSuccess
}

// ExtractText はHTMLからタグを除去したプレーンテキストを返す。
// パースに失敗した場合は入力をそのまま返す。
func ExtractText(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			case "p", "br", "li", "h2", "h3", "blockquote":
				sb.WriteString("\n")
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return strings.TrimSpace(sb.String())
}
