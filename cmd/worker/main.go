package main

import (
	"Next_Express/config"
	"Next_Express/internal/metrics"
	"Next_Express/internal/mq"
	"Next_Express/internal/storage"
	"Next_Express/internal/worker"
	"Next_Express/utils"
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

func main() {
	config.InitConfig()
	logger, err := utils.InitLogger(config.AppConfig.AppEnv, config.AppConfig.LogLevel)
	if err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if !mq.Enabled() {
		logger.Fatal("RABBITMQ_URL is not set, nothing to consume")
	}
	if config.StorageConfigInstance.Driver == config.StoreDriverMemory {
		logger.Fatal("cleanup worker needs a shared object store (s3 or minio)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.Init()
	if err := storage.InitStore(ctx, logger, m); err != nil {
		logger.Fatal("init object store failed", zap.Error(err))
	}

	client, err := mq.Dial()
	if err != nil {
		logger.Fatal("dial rabbitmq failed", zap.Error(err))
	}
	defer client.Close()

	c := config.AppConfig
	w := worker.NewCleanupWorker(storage.Default, client, worker.Options{
		Prefetch:    c.RabbitMQPrefetch,
		Concurrency: c.CleanupWorkerConcurrency,
		Rate:        c.CleanupRate,
		Burst:       c.CleanupBurst,
		RetryMax:    c.CleanupRetryMax,
		RetryDelays: c.CleanupRetryDelays,
	}, logger, m)

	logger.Info("cleanup worker started")
	if err := worker.Run(ctx, client, w); err != nil {
		logger.Fatal("cleanup worker stopped", zap.Error(err))
	}
}
