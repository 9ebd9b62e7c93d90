package ports

import "context"

// TaskMessage is the wire contract between the web tier and the worker pool.
// The shape is celery-compatible: positional args carry the stored file path
// and the upload id.
type TaskMessage struct {
	ID     string         `json:"id"`
	Task   string         `json:"task"`
	Args   []string       `json:"args"`
	Kwargs map[string]any `json:"kwargs"`
}

type TaskQueue interface {
	// Enqueue pushes exactly one message onto the durable queue. A failure
	// must be surfaced to the caller; uploads are never left silently
	// pending.
	Enqueue(ctx context.Context, msg TaskMessage) error
	// Dequeue blocks up to the implementation's poll window and returns the
	// next message, or nil when the window elapsed with an empty queue.
	Dequeue(ctx context.Context) (*TaskMessage, error)
}
