// Package app はアプリケーションの初期化・ワイヤリング・起動を提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/newsdeck/internal/auth"
	"github.com/hitoshi/newsdeck/internal/bookmark"
	"github.com/hitoshi/newsdeck/internal/config"
	"github.com/hitoshi/newsdeck/internal/database"
	"github.com/hitoshi/newsdeck/internal/handler"
	"github.com/hitoshi/newsdeck/internal/logger"
	"github.com/hitoshi/newsdeck/internal/metrics"
	"github.com/hitoshi/newsdeck/internal/middleware"
	"github.com/hitoshi/newsdeck/internal/news"
	"github.com/hitoshi/newsdeck/internal/realtime"
	"github.com/hitoshi/newsdeck/internal/repository"
	"github.com/hitoshi/newsdeck/internal/security"
	"github.com/hitoshi/newsdeck/internal/seed"
	"github.com/hitoshi/newsdeck/internal/settings"
	"github.com/hitoshi/newsdeck/internal/storage"
	"github.com/hitoshi/newsdeck/internal/summarize"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandSeed:
		return runSeed(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 3. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	articleRepo := repository.NewPostgresArticleRepo(db)
	categoryRepo := repository.NewPostgresCategoryRepo(db)
	bookmarkRepo := repository.NewPostgresBookmarkRepo(db)
	settingsRepo := repository.NewPostgresSettingsRepo(db)

	// 4. ライブ購読基盤の初期化
	hub := realtime.NewHub()
	hub.SetRecorder(collector)
	defer hub.Close()

	pgListener := realtime.NewPGListener(cfg.DatabaseURL, hub, slog.Default())

	listenerCtx, cancelListener := context.WithCancel(context.Background())
	defer cancelListener()

	go func() {
		if err := pgListener.Run(listenerCtx); err != nil && listenerCtx.Err() == nil {
			slog.Error("realtime listener stopped", slog.String("error", err.Error()))
		}
	}()

	// 5. 外部サービスクライアントの初期化
	imageStore, err := storage.NewS3ImageStore(context.Background(), storage.Config{
		Endpoint:     cfg.StorageEndpoint,
		Region:       cfg.StorageRegion,
		Bucket:       cfg.StorageBucket,
		AccessKey:    cfg.StorageAccessKey,
		SecretKey:    cfg.StorageSecretKey,
		PublicBase:   cfg.StoragePublicBase,
		UsePathStyle: cfg.StorageUsePathStyle,
	})
	if err != nil {
		return fmt.Errorf("failed to init image store: %w", err)
	}
	imageStore.SetRecorder(collector)

	summarizer := summarize.NewClient(
		&http.Client{Timeout: cfg.SummarizeTimeout},
		slog.Default(),
		cfg.GeminiAPIKey,
	)
	summarizer.SetRecorder(collector)

	// 6. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	// 7. ドメインサービスの初期化
	authService := auth.NewService(
		userRepo, sessionRepo,
		auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge},
	)
	// ADMIN_EMAIL設定時は該当ユーザーを管理者へ昇格する（未登録ならスキップ）
	if cfg.AdminEmail != "" {
		bootstrapCtx, cancelBootstrap := context.WithTimeout(context.Background(), 10*time.Second)
		if err := authService.EnsureAdmin(bootstrapCtx, cfg.AdminEmail); err != nil {
			cancelBootstrap()
			return fmt.Errorf("admin bootstrap failed: %w", err)
		}
		cancelBootstrap()
	}

	newsService := news.NewService(articleRepo, categoryRepo, imageStore, sanitizer, ssrfGuard)
	bookmarkService := bookmark.NewService(bookmarkRepo, articleRepo)
	settingsService := settings.NewService(settingsRepo)

	// 8. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(rateLimiterConfig(cfg))
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		Logger: slog.Default(),

		SessionFinder:     sessionRepo,
		UserFinder:        userRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		RateLimiter:     rateLimiter,
		MetricsRecorder: collector,
		MetricsHandler:  metrics.Handler(registry),

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		NewsService: newsService,
		Summarizer:  summarizer,

		BookmarkService: bookmarkService,
		ToggleRecorder:  collector,

		AdminNewsService: newsService,
		SettingsService:  settingsService,

		Subscriber: hub,

		DB: db,
	}

	router := handler.NewRouter(deps)

	// 9. HTTPサーバーの起動
	server := &http.Server{
		Addr:        ":" + cfg.ServerPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// SSEストリーミングを切断しないよう、書き込みタイムアウトは設けない
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	// 先にライブ購読を止め、SSE接続を終了させる
	cancelListener()
	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// rateLimiterConfig は設定値からレート制限設定を組み立てる。
// 設定はreq/min単位、rate.Limitはreq/sec単位。
func rateLimiterConfig(cfg *config.Config) middleware.RateLimiterConfig {
	limiterCfg := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitGeneral > 0 {
		limiterCfg.GeneralRate = rateLimitPerMinute(cfg.RateLimitGeneral)
		limiterCfg.GeneralBurst = cfg.RateLimitGeneral
	}
	if cfg.RateLimitAdminWrite > 0 {
		limiterCfg.AdminWriteRate = rateLimitPerMinute(cfg.RateLimitAdminWrite)
		limiterCfg.AdminWriteBurst = cfg.RateLimitAdminWrite
	}
	return limiterCfg
}

// rateLimitPerMinute はreq/minをrate.Limit（req/sec）に変換する。
func rateLimitPerMinute(perMinute int) rate.Limit {
	return rate.Limit(float64(perMinute) / 60.0)
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runSeed は開発・デモ用の初期データを投入する。
// 既にデータが存在する場合は何もしない（冪等）。
func runSeed(cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	seeder := seed.NewSeeder(
		repository.NewPostgresArticleRepo(db),
		repository.NewPostgresCategoryRepo(db),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := seeder.Run(ctx); err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	slog.Info("seed completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
