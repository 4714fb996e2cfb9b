package main

import (
	"Next_Express/config"
	"Next_Express/internal/handler"
	"Next_Express/internal/metrics"
	"Next_Express/internal/mq"
	"Next_Express/internal/repo"
	"Next_Express/internal/service"
	"Next_Express/internal/storage"
	"Next_Express/internal/task"
	"Next_Express/router"
	"Next_Express/utils"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	backendRelational = "relational"
	backendKeyValue   = "keyvalue"
	emailHoldTTL      = 30 * time.Second
)

// relationalStores opens the SQL database, or serves the demo dataset from
// memory when none is configured.
func relationalStores(logger *zap.Logger, m *metrics.Registry) (repo.UserRepository, repo.FileRepository) {
	if !config.AppConfig.RelationalConfigured() {
		logger.Warn("relational database not configured, serving demo data from memory")
		return repo.NewMemoryUserRepository(repo.SequentialIDs(2), repo.RelationalDemoUsers(time.Now().UTC())...),
			repo.NewMemoryFileRepository(repo.SequentialIDs(0))
	}
	if err := repo.InitDB(logger); err != nil {
		logger.Fatal("init relational database failed", zap.Error(err))
	}
	if sqlDB, err := repo.Db.DB(); err == nil {
		m.TrackDB(backendRelational, sqlDB.Stats)
	}
	return repo.NewGormUserRepository(repo.Db), repo.NewGormFileRepository(repo.Db)
}

// keyValueStores connects to DynamoDB, or serves the demo dataset from memory
// when neither credentials nor a local endpoint are configured.
func keyValueStores(ctx context.Context, logger *zap.Logger) (repo.UserRepository, repo.FileRepository) {
	if !config.AppConfig.DynamoConfigured() {
		logger.Warn("dynamodb not configured, serving demo data from memory")
		return repo.NewMemoryUserRepository(uuid.NewString, repo.KeyValueDemoUsers(time.Now().UTC())...),
			repo.NewMemoryFileRepository(uuid.NewString)
	}
	if err := repo.InitDynamo(ctx, logger); err != nil {
		logger.Fatal("init dynamodb failed", zap.Error(err))
	}
	c := config.AppConfig
	return repo.NewDynamoUserRepository(repo.Dynamo, c.DynamoUsersTable, c.DynamoEmailIndex),
		repo.NewDynamoFileRepository(repo.Dynamo, c.DynamoFilesTable)
}

func buildBackend(name string, users repo.UserRepository, files repo.FileRepository, deps service.Deps, logger *zap.Logger, m *metrics.Registry) (router.Backend, []handler.Check) {
	if repo.Redis != nil {
		deps.Guard = repo.NewEmailGuard(repo.Redis, name, emailHoldTTL)
	}
	userSvc := service.NewUserService(name, users, deps)
	fileSvc := service.NewFileService(name, files, deps)
	maxUpload := config.AppConfig.MaxUploadBytes
	backend := router.Backend{
		Users: handler.NewUserHandler(userSvc, logger, m, maxUpload),
		Files: handler.NewFileHandler(fileSvc, logger, m, maxUpload),
	}
	checks := []handler.Check{
		{Name: name + ".users", Ping: userSvc.Ping},
		{Name: name + ".files", Ping: fileSvc.Ping},
	}
	return backend, checks
}

// main initializes services and starts the HTTP server.
func main() {
	config.InitConfig()
	logger, err := utils.InitLogger(config.AppConfig.AppEnv, config.AppConfig.LogLevel)
	if err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	if config.AppConfig.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.Init()
	if err := storage.InitStore(ctx, logger, m); err != nil {
		logger.Fatal("init object store failed", zap.Error(err))
	}
	bucket := config.StorageConfigInstance.Bucket

	deps := service.Deps{
		Store:        storage.Default,
		Bucket:       bucket,
		SignedURLTTL: config.AppConfig.SignedURLTTL,
		Logger:       logger,
		Metrics:      m,
	}
	checks := []handler.Check{
		{Name: "object_store", Ping: func(ctx context.Context) error { return storage.Default.Ping(ctx, bucket) }},
	}

	if config.AppConfig.RedisConfigured() {
		if err := repo.InitRedis(ctx, logger); err != nil {
			logger.Warn("redis unavailable, running without url cache and email reservations", zap.Error(err))
		} else {
			deps.Cache = utils.NewRedisCache(repo.Redis)
			checks = append(checks, handler.Check{Name: "redis", Ping: func(ctx context.Context) error {
				return repo.Redis.Ping(ctx).Err()
			}})
		}
	}
	if mq.Enabled() {
		deps.Queue = task.NewQueuePublisher(func() (task.Publisher, error) { return mq.GetPublisher() })
		defer mq.ClosePublisher()
	}

	relUsers, relFiles := relationalStores(logger, m)
	kvUsers, kvFiles := keyValueStores(ctx, logger)
	relational, relChecks := buildBackend(backendRelational, relUsers, relFiles, deps, logger, m)
	keyValue, kvChecks := buildBackend(backendKeyValue, kvUsers, kvFiles, deps, logger, m)
	checks = append(checks, relChecks...)
	checks = append(checks, kvChecks...)

	r := router.InitRouter(router.Options{
		Relational:   relational,
		KeyValue:     keyValue,
		Blobs:        handler.NewBlobHandler(storage.Default, bucket, logger, m),
		Health:       handler.NewHealthHandler(logger, checks...),
		Metrics:      m,
		Logger:       logger,
		AuthRequired: config.AppConfig.AuthRequired,
		CORSOrigins:  config.AppConfig.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + config.AppConfig.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("http server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown failed", zap.Error(err))
	}
}
