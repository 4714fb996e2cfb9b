package main

import (
	"Next_Express/config"
	"Next_Express/internal/repo"
	"Next_Express/utils"
	"context"
	"log"
	"time"

	"go.uber.org/zap"
)

// main creates the DynamoDB tables the key-value backend expects.
func main() {
	config.InitConfig()
	logger, err := utils.InitLogger(config.AppConfig.AppEnv, config.AppConfig.LogLevel)
	if err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := repo.InitDynamo(ctx, logger); err != nil {
		logger.Fatal("init dynamodb failed", zap.Error(err))
	}
	c := config.AppConfig
	created, err := repo.EnsureTables(ctx, repo.Dynamo, repo.TableSpec{
		UsersTable: c.DynamoUsersTable,
		FilesTable: c.DynamoFilesTable,
		EmailIndex: c.DynamoEmailIndex,
	}, logger)
	if err != nil {
		logger.Fatal("create tables failed", zap.Error(err))
	}
	logger.Info("dynamodb tables ready", zap.Strings("created", created))
}
