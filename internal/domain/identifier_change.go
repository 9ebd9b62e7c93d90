package domain

import (
	"time"

	"github.com/google/uuid"
)

type IdentifierChangeType string

const (
	IdentifierChangeNew      IdentifierChangeType = "new"
	IdentifierChangeModified IdentifierChangeType = "modified"
)

type IdentifierType string

const (
	IdentifierASIN  IdentifierType = "ASIN"
	IdentifierUPC   IdentifierType = "UPC"
	IdentifierEAN   IdentifierType = "EAN"
	IdentifierFNSKU IdentifierType = "FNSKU"
)

// IdentifierChange is one audit entry recording that a product identifier
// appeared for the first time or changed value during an ingestion run.
type IdentifierChange struct {
	ID             uuid.UUID            `db:"id" json:"id"`
	SellerSKU      string               `db:"seller_sku" json:"seller_sku"`
	ChangeType     IdentifierChangeType `db:"change_type" json:"change_type"`
	IdentifierType IdentifierType       `db:"identifier_type" json:"identifier_type"`
	OldValue       *string              `db:"old_value" json:"old_value,omitempty"`
	NewValue       string               `db:"new_value" json:"new_value"`
	FileID         *uuid.UUID           `db:"file_id" json:"file_id,omitempty"`
	CreatedAt      time.Time            `db:"created_at" json:"created_at"`
}

// IdentifierChangeFilter narrows identifier-change listings.
type IdentifierChangeFilter struct {
	SellerSKU string
	Limit     int
	Offset    int
}
