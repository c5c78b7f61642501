package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/yesglobal/registration/api/internal/config"
	mongodoc "github.com/yesglobal/registration/api/internal/infrastructure/mongo"
	"github.com/yesglobal/registration/api/internal/logger"
	"github.com/yesglobal/registration/api/internal/server"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.MongoURI).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("connect mongodb: %w", err)
	}

	if err := mongodoc.EnsureIndexes(ctx, client.Database(cfg.MongoDatabase), cfg.ApplicationCollection, cfg.FailedNotificationCollection); err != nil {
		zl.Warn("ensure indexes", zap.Error(err))
	}

	deps := server.Dependencies{Mongo: client, Logger: zl}

	if cfg.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			zl.Warn("redis unreachable at startup", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		deps.Redis = rdb
	}

	if cfg.UploadBucket != "" || cfg.AdmissionsEmail != "" {
		awsCfg, err := loadAWSConfig(ctx, cfg.AWSRegion)
		if err != nil {
			return err
		}
		deps.AWS = &awsCfg
	}

	zl.Info("starting registration api",
		zap.String("addr", cfg.Addr),
		zap.String("database", cfg.MongoDatabase),
		zap.Bool("redisSessions", deps.Redis != nil),
		zap.Bool("uploads", cfg.UploadBucket != ""),
		zap.Int("qualifyingCountries", len(cfg.QualifyingCountries)),
		zap.Int("pid", os.Getpid()),
	)

	return server.New(cfg, deps).Run()
}

func loadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}
