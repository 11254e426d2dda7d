package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ndanilin/coindash_bot/config"
	"github.com/ndanilin/coindash_bot/data"
	"github.com/ndanilin/coindash_bot/data/cache"
	"github.com/ndanilin/coindash_bot/data/repository/postgres"
	"github.com/ndanilin/coindash_bot/data/session"
	"github.com/ndanilin/coindash_bot/internal/externalApi/cloudStorageApi/googleDriveApi"
	"github.com/ndanilin/coindash_bot/internal/externalApi/coingeckoApi"
	"github.com/ndanilin/coindash_bot/internal/reportGenerator/xlsxGenerator"
	"github.com/ndanilin/coindash_bot/internal/scheduler"
	"github.com/ndanilin/coindash_bot/internal/service/dashboardService"
	"github.com/ndanilin/coindash_bot/internal/tgbot"
	"github.com/ndanilin/coindash_bot/internal/transport/telegram"
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	slog.Debug("config", slog.Any("cfg", cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgClient := data.NewPostgresClient(cfg)
	defer pgClient.Close()

	pgRepo := postgres.NewPostgres(cfg, pgClient)

	redisClient := data.NewRedisClient(cfg)
	defer redisClient.Close()

	redisCache := cache.NewRedisCache(redisClient, cfg)
	redisSession := session.NewRedisSession(redisClient, cfg)

	geckoApi := coingeckoApi.New(cfg)

	reportGenerator := xlsxGenerator.New()

	googleCloudStorage := googleDriveApi.New(ctx, cfg)

	dashboardSrv := dashboardService.New(cfg, pgRepo, redisCache, geckoApi, reportGenerator, googleCloudStorage)

	tgController := telegram.NewController(cfg, dashboardSrv, redisSession)

	tgBot := tgbot.New(cfg, tgController, redisSession)
	dashboardSrv.SetNotifier(tgBot)
	tgBot.Start()
	defer tgBot.Stop()

	sched := scheduler.New()
	sched.NewIntervalJob("check price alerts", dashboardSrv.CheckPriceAlerts, cfg.Jobs.CheckAlertsInterval, false)
	sched.NewIntervalJob("warm prices cache", dashboardSrv.WarmPricesCache, cfg.Jobs.WarmPricesCacheInterval, true)
	sched.NewCrontabJob("cleanup drive reports", dashboardSrv.CleanupDriveReports, cfg.Jobs.DriveCleanupCrontab, false)
	sched.Start()
	defer sched.Stop()

	// Waiting interruption signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-interrupt
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}
