package ports

import "context"

// TxRunner executes fn inside one database transaction. Repositories called
// with the context passed to fn participate in that transaction; any error
// from fn rolls the whole transaction back.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
