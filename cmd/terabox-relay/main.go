package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/vertextoedge/terabox-relay/internal/adapter/filesystem"
	"github.com/vertextoedge/terabox-relay/internal/adapter/shortener"
	"github.com/vertextoedge/terabox-relay/internal/adapter/sqlite"
	"github.com/vertextoedge/terabox-relay/internal/adapter/terabox"
	"github.com/vertextoedge/terabox-relay/internal/config"
	"github.com/vertextoedge/terabox-relay/internal/domain"
	"github.com/vertextoedge/terabox-relay/internal/logger"
	"github.com/vertextoedge/terabox-relay/internal/service/bot"
	"github.com/vertextoedge/terabox-relay/internal/service/delivery"
	"github.com/vertextoedge/terabox-relay/internal/service/maintenance"
	"github.com/vertextoedge/terabox-relay/internal/service/relay"
	"github.com/vertextoedge/terabox-relay/internal/service/server"
	"github.com/vertextoedge/terabox-relay/internal/service/transfer"
	"github.com/vertextoedge/terabox-relay/internal/urlmatch"
	"github.com/vertextoedge/terabox-relay/internal/util/ratelimiter"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "Path to optional YAML configuration file")
	envFile := flag.String("env", ".env", "Path to optional .env file")
	flag.Parse()

	// A missing .env is fine; the environment may already be set
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	zapLogger := logger.GetZapLogger()
	zapLogger.Info("starting terabox-relay",
		zap.String("version", version),
		zap.Int64("owner_id", cfg.Telegram.OwnerID),
		logger.Secret("terabox_cookie", cfg.Terabox.Cookie),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	fsManager, err := filesystem.NewManager(cfg.Transfer.TmpDir)
	if err != nil {
		zapLogger.Fatal("failed to create temp directory", zap.Error(err), zap.String("path", cfg.Transfer.TmpDir))
	}

	defaults := domain.Settings{
		AutoMirror: cfg.Settings.AutoMirror,
		AutoShort:  cfg.Settings.AutoShort,
	}
	store, err := sqlite.Open(cfg.Database.Path, defaults)
	if err != nil {
		zapLogger.Fatal("failed to open database", zap.Error(err), zap.String("path", cfg.Database.Path))
	}
	defer store.Close()

	// Pipeline
	matcher := urlmatch.New(cfg.Terabox.AllowedDomains)
	resolver := terabox.NewResolver(terabox.Config{
		BaseURL: cfg.Terabox.BaseURL,
		Cookie:  cfg.Terabox.Cookie,
		Timeout: cfg.Terabox.GetRequestTimeout(),
	}, matcher, zapLogger)

	maxBytes := cfg.Transfer.GetMaxFileBytes()
	limiter := ratelimiter.NewWindow(cfg.RateLimit.Limit, cfg.RateLimit.GetWindow())
	pool := transfer.NewPool(cfg.Transfer.MaxConcurrent)
	engine := transfer.NewEngine(transfer.Config{
		ChunkSize:        cfg.Transfer.GetChunkSize(),
		ProgressInterval: cfg.Transfer.GetProgressInterval(),
		MaxBytes:         maxBytes,
	}, zapLogger)
	space := delivery.NewSpaceManager(fsManager, cfg.Transfer.GetDiskReserveBytes())
	gate := delivery.NewGate(maxBytes, space, zapLogger)

	relayService := relay.New(relay.Config{
		OwnerID:         cfg.Telegram.OwnerID,
		DefaultSettings: defaults,
	}, relay.Deps{
		Matcher:   matcher,
		Limiter:   limiter,
		Resolver:  resolver,
		Gate:      gate,
		Pool:      pool,
		Engine:    engine,
		FS:        fsManager,
		Store:     store,
		Shortener: shortener.NewTinyURL(""),
	}, zapLogger)

	// Telegram
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		zapLogger.Fatal("failed to connect to Telegram", zap.Error(err))
	}
	api.Debug = cfg.Telegram.Debug
	zapLogger.Info("authorized on Telegram", zap.String("bot", api.Self.UserName))

	botCfg := bot.DefaultConfig()
	botCfg.OwnerID = cfg.Telegram.OwnerID
	botCfg.Limits = bot.Limits{
		MaxFileBytes:  maxBytes,
		RateLimit:     cfg.RateLimit.Limit,
		RateWindow:    cfg.RateLimit.GetWindow(),
		MaxConcurrent: cfg.Transfer.MaxConcurrent,
	}
	botCfg.DefaultSettings = defaults
	botService := bot.New(botCfg, api, relayService, store, zapLogger)

	maintenanceCfg := maintenance.DefaultConfig()
	maintenanceCfg.TempFileMaxAge = cfg.Transfer.GetTempFileMaxAge()
	maintenanceService := maintenance.New(maintenanceCfg, fsManager, limiter, zapLogger)

	var httpServer *server.Server
	if cfg.HTTP.BindAddr != "" {
		httpServer = server.New(&server.Config{
			BindAddr:      cfg.HTTP.BindAddr,
			AdminUsername: cfg.HTTP.AdminUsername,
			AdminPassword: cfg.HTTP.AdminPassword,
			ReadTimeout:   cfg.HTTP.GetReadTimeout(),
			WriteTimeout:  cfg.HTTP.GetWriteTimeout(),
			IdleTimeout:   cfg.HTTP.GetIdleTimeout(),
		}, store, relayService, fsManager, zapLogger)

		go func() {
			if err := httpServer.Start(); err != nil {
				zapLogger.Error("HTTP server failed", zap.Error(err))
			}
		}()
	}

	go func() {
		if err := maintenanceService.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Error("maintenance service stopped with error", zap.Error(err))
		}
	}()

	botDone := make(chan struct{})
	go func() {
		defer close(botDone)
		if err := botService.Start(ctx); err != nil {
			zapLogger.Error("bot stopped with error", zap.Error(err))
		}
	}()

	zapLogger.Info("application started successfully",
		zap.String("tmp_dir", cfg.Transfer.TmpDir),
		zap.String("http_addr", cfg.HTTP.BindAddr),
		zap.Int("max_concurrent", cfg.Transfer.MaxConcurrent),
	)

	<-ctx.Done()
	zapLogger.Info("shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	botService.Stop()
	maintenanceService.Stop()

	// In-flight relays see the cancelled context and clean up their temp files
	select {
	case <-botDone:
	case <-shutdownCtx.Done():
		zapLogger.Warn("timed out waiting for in-flight messages")
	}

	if httpServer != nil {
		if err := httpServer.Stop(shutdownCtx); err != nil {
			zapLogger.Error("failed to stop HTTP server gracefully", zap.Error(err))
		}
	}

	zapLogger.Info("application stopped successfully")
}
