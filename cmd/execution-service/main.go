package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"kabu-advisor/internal/executor/config"
	"kabu-advisor/internal/executor/delivery/consumer"
	"kabu-advisor/internal/executor/repository"
	"kabu-advisor/internal/executor/service"
	"kabu-advisor/internal/executor/strategy"
	"kabu-advisor/internal/rules"
	"kabu-advisor/pkg/logger"
	"kabu-advisor/pkg/postgres"
	"kabu-advisor/pkg/redis"
	"kabu-advisor/pkg/telegram"

	"github.com/spf13/cobra"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the execution service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Execution Service", logger.Field("name", cfg.App.Name))

	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()

	var notifier telegram.Notifier = telegram.NoopNotifier{}
	if cfg.Telegram.Enabled {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
		}
	}

	// Repositories
	batchRunRepo := repository.NewBatchRunRepository(db.DB)
	judgmentRepo := repository.NewJudgmentRepository(db.DB)
	stocksRepo := repository.NewStocksRepository(db.DB)
	marketDataRepo := repository.NewMarketDataRepository(db.DB)
	intradayRepo := repository.NewIntradayQuoteRepository(db.DB, cfg.Quickstart.QuoteReadsPerMin)
	candidateRepo := repository.NewQsCandidateRepository(db.DB)
	snapshotRepo := repository.NewQsSnapshotRepository(db.DB)
	signalRepo := repository.NewQsOrderSignalRepository(db.DB)
	positionRepo := repository.NewQsPositionRepository(db.DB)

	// Services
	orchestrator := rules.NewOrchestrator(cfg.Rules)
	judgmentSvc := service.NewJudgmentService(cfg, appLogger, orchestrator,
		batchRunRepo, judgmentRepo, stocksRepo, marketDataRepo)
	positionSvc := service.NewPositionService(cfg, appLogger, positionRepo, signalRepo, stocksRepo, notifier)

	// Tick strategies
	registry := strategy.NewRegistry(
		strategy.NewJudgmentBatchStrategy(judgmentSvc),
		strategy.NewCandidateScanStrategy(cfg, appLogger, stocksRepo, marketDataRepo, intradayRepo, candidateRepo),
		strategy.NewSurvivalTestStrategy(cfg, appLogger, candidateRepo, snapshotRepo, intradayRepo, marketDataRepo, redisClient),
		strategy.NewEntrySignalStrategy(cfg, appLogger, candidateRepo, signalRepo, positionSvc),
		strategy.NewExitSignalStrategy(cfg, appLogger, positionRepo, signalRepo, intradayRepo, positionSvc),
	)

	executorSvc := service.NewExecutorService(appLogger, redisClient, registry)
	redisConsumer := consumer.New(appLogger, redisClient, executorSvc)

	appLogger.Info("Execution service started. Waiting for ticks...")
	if err := redisConsumer.Start(ctx); err != nil && err != context.Canceled {
		appLogger.Error("Consumer stopped", logger.ErrorField(err))
	}

	appLogger.Info("Execution service stopped.")
}

func main() {
	rootCmd := &cobra.Command{Use: "execution-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-executor.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing execution-service CLI: %s\n", err)
		os.Exit(1)
	}
}
