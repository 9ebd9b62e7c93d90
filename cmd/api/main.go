package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sellerkit/inventory-backend/internal/config"
	"github.com/sellerkit/inventory-backend/internal/logging"
	"github.com/sellerkit/inventory-backend/internal/repository/minio"
	"github.com/sellerkit/inventory-backend/internal/repository/ports"
	"github.com/sellerkit/inventory-backend/internal/repository/postgres"
	"github.com/sellerkit/inventory-backend/internal/repository/redis"
	"github.com/sellerkit/inventory-backend/internal/service"
	transport "github.com/sellerkit/inventory-backend/internal/transport/http"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New("api", cfg.LogstashTCPAddr)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	db, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.Migrate(db, cfg.MigrationsDir); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	queue, err := redis.NewTaskQueue(redis.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Queue:    cfg.QueueName,
	})
	if err != nil {
		logger.Fatal("redis connection failed", zap.Error(err))
	}
	defer queue.Close()

	var storage ports.ObjectStorage
	if cfg.MinIOEndpoint != "" {
		client, err := minio.NewClient(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOUseSSL)
		if err != nil {
			logger.Fatal("minio connection failed", zap.Error(err))
		}
		storage = minio.NewStorage(client)
	}

	uploadRepo := postgres.NewUploadRepo(db)
	listingRepo := postgres.NewListingRepo(db)
	duplicateRepo := postgres.NewDuplicateRepo(db)
	changeRepo := postgres.NewIdentifierChangeRepo(db)
	txRunner := postgres.NewTxRunner(db)

	uploadSvc := service.NewUploadService(uploadRepo, listingRepo, queue, storage, logger, service.UploadServiceConfig{
		UploadDir:      cfg.UploadDir,
		Bucket:         cfg.MinIOBucketReports,
		MaxUploadBytes: cfg.MaxUploadBytes,
		TaskName:       cfg.TaskName,
	})
	duplicateSvc := service.NewDuplicateService(duplicateRepo, listingRepo, txRunner, logger)
	changeSvc := service.NewIdentifierChangeService(changeRepo)

	e := transport.NewRouter(cfg.AllowOrigins, logger)
	transport.RegisterUploads(e, uploadSvc, cfg.MaxUploadBytes)
	transport.RegisterDuplicates(e, duplicateSvc)
	transport.RegisterIdentifierChanges(e, changeSvc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()
	logger.Info("api listening", zap.String("port", cfg.Port))

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}
