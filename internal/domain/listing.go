package domain

import (
	"time"

	"github.com/google/uuid"
)

// SKUField is the business-key column every report row must carry. The
// listings table enforces uniqueness on it.
const SKUField = "seller-sku"

// Listing is one canonical record keyed by seller SKU. All report columns
// besides the SKU are kept as an opaque coerced payload.
type Listing struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	SellerSKU string     `db:"seller_sku" json:"seller_sku"`
	Data      RowPayload `db:"data" json:"data"`
	FileID    *uuid.UUID `db:"file_id" json:"file_id,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}
