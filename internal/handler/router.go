package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/newsdeck/internal/middleware"
)

// Pinger はヘルスチェックに使用するDB疎通確認のインターフェース。
// *sql.DBが実装する。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	UserFinder        middleware.UserFinder
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter
	MetricsRecorder   middleware.HTTPMetricsRecorder // nil可
	MetricsHandler    http.Handler                   // /metrics用。nil可

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 記事・カテゴリ閲覧
	NewsService NewsServiceInterface
	Summarizer  SummarizerInterface

	// ブックマーク
	BookmarkService BookmarkServiceInterface
	ToggleRecorder  BookmarkToggleRecorder // nil可

	// 管理
	AdminNewsService AdminNewsServiceInterface
	SettingsService  SettingsServiceInterface

	// ライブ購読
	Subscriber Subscriber

	// ヘルスチェック
	DB Pinger
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics → CSRF
//	→ （認証ルートのみ）Session → RateLimit(General) → （管理ルートのみ）Admin
//
// 認証エンドポイント（/auth/*）とログイン表示設定はミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	if deps.MetricsRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.MetricsRecorder))
	}
	r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	newsHandler := NewNewsHandler(deps.NewsService, deps.Summarizer)
	bookmarkHandler := NewBookmarkHandler(deps.BookmarkService, deps.ToggleRecorder)
	adminHandler := NewAdminHandler(deps.AdminNewsService, deps.SettingsService)
	settingsHandler := NewSettingsHandler(deps.SettingsService)
	streamHandler := NewStreamHandler(deps.Subscriber)

	// --- 認証不要のルート ---

	r.Get("/health", newHealthHandler(deps.DB))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Handle("/csrf", middleware.NewCSRFTokenHandler(deps.CSRFConfig))
		r.Post("/signup", authHandler.SignUp)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
		r.Patch("/me", authHandler.UpdateMe)
	})

	// ログイン画面のレンダリングに必要なため認証不要
	r.Get("/api/settings/login-options", settingsHandler.GetLoginOptions)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 記事閲覧
		r.Route("/api/articles", func(r chi.Router) {
			r.Get("/", newsHandler.ListArticles)
			r.Get("/breaking", newsHandler.ListBreaking)
			r.Get("/search", newsHandler.SearchArticles)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", newsHandler.GetArticle)
				r.Get("/summary", newsHandler.SummarizeArticle)
			})
		})

		// カテゴリ閲覧
		r.Get("/api/categories", newsHandler.ListCategories)

		// ブックマーク管理
		r.Route("/api/bookmarks", func(r chi.Router) {
			r.Get("/", bookmarkHandler.ListArticles)
			r.Get("/ids", bookmarkHandler.ListIDs)
			r.Post("/{articleID}/toggle", bookmarkHandler.Toggle)
		})

		// ライブ購読（SSE）
		r.Get("/api/stream", streamHandler.Stream)

		// 管理ルート: Admin → 書き込みはRateLimit(AdminWrite)を追加
		r.Route("/api/admin", func(r chi.Router) {
			r.Use(middleware.NewAdminMiddleware(deps.UserFinder))

			r.Route("/articles", func(r chi.Router) {
				r.With(deps.RateLimiter.AdminWriteMiddleware()).Post("/", adminHandler.CreateArticle)

				r.Route("/{id}", func(r chi.Router) {
					r.With(deps.RateLimiter.AdminWriteMiddleware()).Put("/", adminHandler.UpdateArticle)
					r.With(deps.RateLimiter.AdminWriteMiddleware()).Delete("/", adminHandler.DeleteArticle)
				})
			})

			r.Route("/categories", func(r chi.Router) {
				r.With(deps.RateLimiter.AdminWriteMiddleware()).Post("/", adminHandler.CreateCategory)

				r.Route("/{id}", func(r chi.Router) {
					r.With(deps.RateLimiter.AdminWriteMiddleware()).Patch("/", adminHandler.RenameCategory)
					r.With(deps.RateLimiter.AdminWriteMiddleware()).Delete("/", adminHandler.DeleteCategory)
				})
			})

			r.Route("/settings", func(r chi.Router) {
				r.Get("/", adminHandler.GetSettings)
				r.With(deps.RateLimiter.AdminWriteMiddleware()).Patch("/", adminHandler.UpdateSettings)
			})

			r.Route("/images", func(r chi.Router) {
				r.With(deps.RateLimiter.AdminWriteMiddleware()).Post("/", adminHandler.UploadImage)
				r.With(deps.RateLimiter.AdminWriteMiddleware()).Post("/import", adminHandler.ImportImage)
			})
		})
	})

	return r
}

// newHealthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
func newHealthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
