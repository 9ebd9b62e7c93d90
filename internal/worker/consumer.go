package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/sellerkit/inventory-backend/internal/repository/ports"
)

// HandlerFunc processes one dequeued task. A returned error is logged and
// the message is dropped; the upload row carries the durable failure state.
type HandlerFunc func(ctx context.Context, msg ports.TaskMessage) error

// Consumer drains the task queue and dispatches messages by task name.
type Consumer struct {
	queue    ports.TaskQueue
	logger   *zap.Logger
	handlers map[string]HandlerFunc
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

func NewConsumer(queue ports.TaskQueue, logger *zap.Logger) *Consumer {
	return &Consumer{
		queue:    queue,
		logger:   logger,
		handlers: make(map[string]HandlerFunc),
	}
}

// Register binds a handler to a task name. Not safe to call after Start.
func (c *Consumer) Register(taskName string, handler HandlerFunc) {
	c.handlers[taskName] = handler
}

// Start begins consuming in a background goroutine.
func (c *Consumer) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.consumeLoop(ctx)

	c.logger.Info("task consumer started")
}

// Stop cancels the consume loop and waits for the in-flight task to finish.
func (c *Consumer) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	c.logger.Info("task consumer stopped")
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			msg, err := c.queue.Dequeue(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				c.logger.Error("dequeue failed", zap.Error(err))
				continue
			}
			if msg == nil {
				continue
			}
			c.dispatch(ctx, *msg)
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, msg ports.TaskMessage) {
	log := c.logger.With(
		zap.String("task_id", msg.ID),
		zap.String("task", msg.Task),
	)

	handler, ok := c.handlers[msg.Task]
	if !ok {
		log.Warn("no handler registered for task")
		return
	}

	if err := handler(ctx, msg); err != nil {
		log.Error("task failed", zap.Error(err))
		return
	}
	log.Info("task completed")
}
