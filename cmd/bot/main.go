package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"reelgrab/internal/api"
	"reelgrab/internal/api/handler"
	"reelgrab/internal/bot"
	"reelgrab/internal/config"
	"reelgrab/internal/downloader"
	"reelgrab/internal/resolver"
	"reelgrab/internal/service"
	"reelgrab/internal/trending"
	"reelgrab/internal/urlcache"
	"reelgrab/internal/worker"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("reelgrab %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting reelgrab",
		"version", Version,
		"build_time", BuildTime,
	)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Ensure the transient download directory exists
	if err := os.MkdirAll(cfg.Storage.DownloadDir, 0755); err != nil {
		logger.Error("failed to create download directory", "error", err)
		os.Exit(1)
	}

	// Resolution pipeline: direct fetch feeds the alternative resolvers,
	// the orchestrator arbitrates primary vs alternative.
	direct := downloader.NewDirect(cfg.Download, cfg.Storage, logger)
	primary := resolver.NewPrimary(cfg.Download, cfg.Storage, logger)
	instagram := resolver.NewInstagram(cfg.Download, direct, logger)
	tiktok := resolver.NewTikTok(cfg.Download, direct, logger)
	downloads := service.NewDownloadService(primary, instagram, tiktok, logger)

	trends := trending.NewClient(cfg.Trending, cfg.Download.UserAgent, logger)
	cache := urlcache.New(cfg.Trending.CacheSize, cfg.Trending.CacheTTL)

	// Worker pool for all network-bound work
	pool := worker.NewPool(
		worker.Config{
			Workers:   cfg.Worker.Count,
			QueueSize: cfg.Worker.QueueSize,
		},
		logger,
	)
	pool.Start()

	// Telegram transport
	tg, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Error("failed to connect to Telegram", "error", err)
		os.Exit(1)
	}
	tg.Debug = cfg.Telegram.Debug
	logger.Info("authorized on Telegram", "username", tg.Self.UserName)

	b := bot.New(tg, downloads, trends, cache, pool, cfg.Trending.DefaultRegion, logger)

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = cfg.Telegram.PollTimeout
	updates := tg.GetUpdatesChan(updateCfg)

	botDone := make(chan struct{})
	go func() {
		defer close(botDone)
		b.Run(updates)
	}()

	// Liveness HTTP server
	healthHandler := handler.NewHealthHandler(pool)
	router := api.NewRouter(healthHandler)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	// Stop polling; Run returns once the channel drains.
	tg.StopReceivingUpdates()
	<-botDone

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// Let in-flight downloads finish.
	if err := pool.Stop(25 * time.Second); err != nil {
		logger.Error("worker pool shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
