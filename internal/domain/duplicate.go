package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

type IssueStatus string

const (
	IssueStatusPending  IssueStatus = "pending"
	IssueStatusResolved IssueStatus = "resolved"
)

// DuplicateCandidate is one source-file row contributing to a duplicate
// group. RowIndex is the 1-based position among the file's data rows and is
// stable for the life of the issue.
type DuplicateCandidate struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	IssueID    uuid.UUID  `db:"issue_id" json:"issue_id"`
	SellerSKU  string     `db:"seller_sku" json:"seller_sku"`
	RowIndex   int        `db:"row_index" json:"row_index"`
	Payload    RowPayload `db:"payload" json:"payload"`
	ObservedAt *time.Time `db:"observed_at" json:"observed_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// DuplicateIssue is a persisted batch of conflicting rows from one file,
// awaiting a per-key resolution decision. It resolves exactly once and is
// never revived to pending.
type DuplicateIssue struct {
	ID          uuid.UUID     `db:"id" json:"id"`
	FileID      uuid.UUID     `db:"file_id" json:"file_id"`
	Status      IssueStatus   `db:"status" json:"status"`
	Notes       *string       `db:"notes" json:"notes,omitempty"`
	Resolutions ResolutionMap `db:"resolutions" json:"resolutions,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
	ResolvedAt  *time.Time    `db:"resolved_at" json:"resolved_at,omitempty"`

	// Items groups candidates by seller SKU in file order. Populated on
	// detail reads only.
	Items map[string][]DuplicateCandidate `db:"-" json:"duplicate_items,omitempty"`
}

// IssueSummary is the list-view projection of an issue.
type IssueSummary struct {
	ID             uuid.UUID   `db:"id" json:"id"`
	FileID         uuid.UUID   `db:"file_id" json:"file_id"`
	Filename       string      `db:"filename" json:"filename"`
	Status         IssueStatus `db:"status" json:"status"`
	DuplicateKeys  int         `db:"duplicate_keys" json:"duplicate_keys"`
	CandidateCount int         `db:"candidate_count" json:"candidate_count"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
}

type ResolutionType string

const (
	ResolutionKeepNewest ResolutionType = "keep_newest"
	ResolutionKeepOne    ResolutionType = "keep_one"
	ResolutionMerge      ResolutionType = "merge"
	ResolutionRename     ResolutionType = "rename"
)

// RenameTarget assigns a new seller SKU to the candidate at RowIndex.
type RenameTarget struct {
	RowIndex int    `json:"row_index"`
	NewSKU   string `json:"new_sku"`
}

// Resolution is the user-chosen strategy for one duplicate key.
type Resolution struct {
	Type ResolutionType `json:"resolution_type"`

	// RowIndex selects the surviving candidate for keep_one.
	RowIndex int `json:"row_index,omitempty"`

	// FieldSelections maps a field name to the row index of the candidate
	// supplying its value for merge. Unassigned fields fall back to the
	// first candidate in file order.
	FieldSelections map[string]int `json:"field_selections,omitempty"`

	// Renames lists the surviving candidates and their new SKUs for rename.
	Renames []RenameTarget `json:"renames,omitempty"`
}

// ResolutionMap holds the per-key resolutions applied to an issue.
type ResolutionMap map[string]Resolution

func (m ResolutionMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (m *ResolutionMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("resolutions must be []byte")
	}
	return json.Unmarshal(bytes, m)
}
