package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/sellerkit/inventory-backend/internal/config"
	"github.com/sellerkit/inventory-backend/internal/logging"
	"github.com/sellerkit/inventory-backend/internal/repository/postgres"
	"github.com/sellerkit/inventory-backend/internal/repository/redis"
	"github.com/sellerkit/inventory-backend/internal/service"
	"github.com/sellerkit/inventory-backend/internal/worker"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New("worker", cfg.LogstashTCPAddr)
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

	ingestSvc := service.NewIngestService(
		postgres.NewUploadRepo(db),
		postgres.NewListingRepo(db),
		postgres.NewDuplicateRepo(db),
		postgres.NewIdentifierChangeRepo(db),
		logger,
		cfg.ProgressChunkSize,
	)

	consumer := worker.NewConsumer(queue, logger)
	consumer.Register(cfg.TaskName, worker.ProcessListingsHandler(ingestSvc))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer.Start(ctx)
	<-ctx.Done()
	consumer.Stop()
}
