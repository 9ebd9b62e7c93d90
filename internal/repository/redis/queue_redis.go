// Package redis implements the task-queue bridge between the web tier and
// the worker pool on a Redis list. The message format is celery-compatible
// so either side can be swapped for the original worker fleet.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sellerkit/inventory-backend/internal/repository/ports"
)

const dequeueBlock = 5 * time.Second

type Config struct {
	Addr     string
	Password string
	DB       int
	Queue    string
}

type TaskQueue struct {
	rdb   *redis.Client
	queue string
}

// NewTaskQueue connects to Redis and verifies the connection with a bounded
// ping.
func NewTaskQueue(cfg Config) (*TaskQueue, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}

	return &TaskQueue{rdb: rdb, queue: cfg.Queue}, nil
}

func (q *TaskQueue) Enqueue(ctx context.Context, msg ports.TaskMessage) error {
	if msg.Kwargs == nil {
		msg.Kwargs = map[string]any{}
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := q.rdb.RPush(ctx, q.queue, data).Err(); err != nil {
		return fmt.Errorf("enqueue to %s: %w", q.queue, err)
	}
	return nil
}

func (q *TaskQueue) Dequeue(ctx context.Context) (*ports.TaskMessage, error) {
	res, err := q.rdb.BLPop(ctx, dequeueBlock, q.queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	// BLPOP returns [key, value].
	if len(res) < 2 {
		return nil, nil
	}
	var msg ports.TaskMessage
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		return nil, fmt.Errorf("decoding task message: %w", err)
	}
	return &msg, nil
}

func (q *TaskQueue) Close() error {
	return q.rdb.Close()
}
