package worker

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sellerkit/inventory-backend/internal/repository/ports"
	"github.com/sellerkit/inventory-backend/internal/service"
)

// ProcessListingsHandler adapts the ingest service to the task message
// contract: args[0] is the stored file path, args[1] the upload id.
func ProcessListingsHandler(svc *service.IngestService) HandlerFunc {
	return func(ctx context.Context, msg ports.TaskMessage) error {
		if len(msg.Args) < 2 {
			return fmt.Errorf("task %s: expected 2 args, got %d", msg.ID, len(msg.Args))
		}
		fileID, err := uuid.Parse(msg.Args[1])
		if err != nil {
			return fmt.Errorf("task %s: invalid file id %q: %w", msg.ID, msg.Args[1], err)
		}
		return svc.ProcessFile(ctx, msg.Args[0], fileID)
	}
}
