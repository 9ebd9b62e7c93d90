package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sellerkit/inventory-backend/internal/domain"
	"github.com/sellerkit/inventory-backend/internal/repository/ports"
)

func testLogger() *zap.Logger { return zap.NewNop() }

// memoryUploadRepo mirrors the postgres repository's state-machine guards:
// only pending files can move to processing and only live files accept a
// terminal stamp.
type memoryUploadRepo struct {
	mu    sync.Mutex
	files map[uuid.UUID]*domain.UploadedFile
}

func newMemoryUploadRepo() *memoryUploadRepo {
	return &memoryUploadRepo{files: make(map[uuid.UUID]*domain.UploadedFile)}
}

func (r *memoryUploadRepo) Create(_ context.Context, file *domain.UploadedFile) (*domain.UploadedFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *file
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.files[file.ID] = &stored
	clone := stored
	return &clone, nil
}

func (r *memoryUploadRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.UploadedFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	file, ok := r.files[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *file
	return &clone, nil
}

func (r *memoryUploadRepo) MarkProcessing(_ context.Context, id uuid.UUID, totalRows int) (*domain.UploadedFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	file, ok := r.files[id]
	if !ok || file.Status != domain.UploadStatusPending {
		return nil, sql.ErrNoRows
	}
	file.Status = domain.UploadStatusProcessing
	file.TotalRows = totalRows
	file.UpdatedAt = time.Now()
	clone := *file
	return &clone, nil
}

func (r *memoryUploadRepo) UpdateProgress(_ context.Context, id uuid.UUID, processedRows int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	file, ok := r.files[id]
	if !ok || file.Status != domain.UploadStatusProcessing {
		return nil
	}
	if processedRows > file.TotalRows {
		processedRows = file.TotalRows
	}
	file.ProcessedRows = processedRows
	return nil
}

func (r *memoryUploadRepo) MarkCompleted(_ context.Context, id uuid.UUID, processedRows int, rowErrors domain.RowErrorList) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	file, ok := r.files[id]
	if !ok {
		return sql.ErrNoRows
	}
	now := time.Now()
	file.Status = domain.UploadStatusCompleted
	file.ProcessedRows = processedRows
	file.RowErrors = rowErrors
	file.UpdatedAt = now
	file.CompletedAt = &now
	return nil
}

func (r *memoryUploadRepo) MarkError(_ context.Context, id uuid.UUID, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	file, ok := r.files[id]
	if !ok || file.Status.Terminal() {
		return nil
	}
	file.Status = domain.UploadStatusError
	file.ErrorMessage = &message
	file.UpdatedAt = time.Now()
	return nil
}

type memoryListingRepo struct {
	mu       sync.Mutex
	listings map[string]*domain.Listing
}

func newMemoryListingRepo() *memoryListingRepo {
	return &memoryListingRepo{listings: make(map[string]*domain.Listing)}
}

func (r *memoryListingRepo) FindBySKU(_ context.Context, sku string) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	listing, ok := r.listings[sku]
	if !ok {
		return nil, nil
	}
	clone := *listing
	clone.Data = listing.Data.Clone()
	return &clone, nil
}

func (r *memoryListingRepo) Upsert(_ context.Context, sku string, payload domain.RowPayload, fileID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.listings[sku]
	if !ok {
		r.listings[sku] = &domain.Listing{
			ID:        uuid.New(),
			SellerSKU: sku,
			Data:      payload.Clone(),
			FileID:    &fileID,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		return nil
	}
	// Field-level merge, matching the jsonb || semantics.
	for field, value := range payload {
		existing.Data[field] = value
	}
	existing.FileID = &fileID
	existing.UpdatedAt = time.Now()
	return nil
}

func (r *memoryListingRepo) ExistingSKUs(_ context.Context, skus []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, sku := range skus {
		if _, ok := r.listings[sku]; ok {
			out = append(out, sku)
		}
	}
	return out, nil
}

func (r *memoryListingRepo) CountByFile(_ context.Context, fileID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, listing := range r.listings {
		if listing.FileID != nil && *listing.FileID == fileID {
			count++
		}
	}
	return count, nil
}

func (r *memoryListingRepo) snapshot() map[string]*domain.Listing {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := make(map[string]*domain.Listing, len(r.listings))
	for sku, listing := range r.listings {
		clone := *listing
		clone.Data = listing.Data.Clone()
		copied[sku] = &clone
	}
	return copied
}

func (r *memoryListingRepo) restore(snapshot map[string]*domain.Listing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listings = snapshot
}

type memoryDuplicateRepo struct {
	mu         sync.Mutex
	issues     map[uuid.UUID]*domain.DuplicateIssue
	candidates map[uuid.UUID][]domain.DuplicateCandidate
}

func newMemoryDuplicateRepo() *memoryDuplicateRepo {
	return &memoryDuplicateRepo{
		issues:     make(map[uuid.UUID]*domain.DuplicateIssue),
		candidates: make(map[uuid.UUID][]domain.DuplicateCandidate),
	}
}

func (r *memoryDuplicateRepo) CreateIssue(_ context.Context, issue *domain.DuplicateIssue, candidates []domain.DuplicateCandidate) (*domain.DuplicateIssue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *issue
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.issues[issue.ID] = &stored

	withIssue := make([]domain.DuplicateCandidate, len(candidates))
	for i, cand := range candidates {
		cand.IssueID = issue.ID
		withIssue[i] = cand
	}
	r.candidates[issue.ID] = withIssue
	clone := stored
	return &clone, nil
}

func (r *memoryDuplicateRepo) ListByStatus(_ context.Context, status domain.IssueStatus) ([]domain.IssueSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.IssueSummary
	for id, issue := range r.issues {
		if issue.Status != status {
			continue
		}
		keys := make(map[string]bool)
		for _, cand := range r.candidates[id] {
			keys[cand.SellerSKU] = true
		}
		out = append(out, domain.IssueSummary{
			ID:             id,
			FileID:         issue.FileID,
			Status:         issue.Status,
			DuplicateKeys:  len(keys),
			CandidateCount: len(r.candidates[id]),
			CreatedAt:      issue.CreatedAt,
		})
	}
	return out, nil
}

func (r *memoryDuplicateRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.DuplicateIssue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.issues[id]
	if !ok {
		return nil, nil
	}
	clone := *issue
	clone.Items = make(map[string][]domain.DuplicateCandidate)
	for _, cand := range r.candidates[id] {
		clone.Items[cand.SellerSKU] = append(clone.Items[cand.SellerSKU], cand)
	}
	return &clone, nil
}

func (r *memoryDuplicateRepo) MarkResolved(_ context.Context, id uuid.UUID, resolutions domain.ResolutionMap, notes *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.issues[id]
	if !ok || issue.Status != domain.IssueStatusPending {
		return sql.ErrNoRows
	}
	now := time.Now()
	issue.Status = domain.IssueStatusResolved
	issue.Resolutions = resolutions
	issue.Notes = notes
	issue.UpdatedAt = now
	issue.ResolvedAt = &now
	return nil
}

type memoryChangeRepo struct {
	mu      sync.Mutex
	changes []domain.IdentifierChange
}

func newMemoryChangeRepo() *memoryChangeRepo { return &memoryChangeRepo{} }

func (r *memoryChangeRepo) InsertBatch(_ context.Context, changes []domain.IdentifierChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, change := range changes {
		if change.ID == uuid.Nil {
			change.ID = uuid.New()
		}
		change.CreatedAt = time.Now()
		r.changes = append(r.changes, change)
	}
	return nil
}

func (r *memoryChangeRepo) List(_ context.Context, filter domain.IdentifierChangeFilter) ([]domain.IdentifierChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.IdentifierChange
	for _, change := range r.changes {
		if filter.SellerSKU != "" && change.SellerSKU != filter.SellerSKU {
			continue
		}
		out = append(out, change)
	}
	return out, nil
}

// memoryQueue collects enqueued messages; set failNext to simulate a broker
// outage on the next Enqueue.
type memoryQueue struct {
	mu       sync.Mutex
	messages []ports.TaskMessage
	failNext bool
}

func (q *memoryQueue) Enqueue(_ context.Context, msg ports.TaskMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failNext {
		q.failNext = false
		return errors.New("broker unavailable")
	}
	q.messages = append(q.messages, msg)
	return nil
}

func (q *memoryQueue) Dequeue(_ context.Context) (*ports.TaskMessage, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.messages) == 0 {
		return nil, nil
	}
	msg := q.messages[0]
	q.messages = q.messages[1:]
	return &msg, nil
}

type noopStorage struct{}

func (noopStorage) Upload(_ context.Context, _, objectName, _ string, reader io.Reader, _ int64) (string, error) {
	_, _ = io.Copy(io.Discard, reader)
	return objectName, nil
}

// memoryTxRunner gives the duplicate-resolution tests real rollback
// semantics: listing writes made inside a failing fn are restored.
type memoryTxRunner struct {
	listings *memoryListingRepo
}

func (t *memoryTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snapshot := t.listings.snapshot()
	if err := fn(ctx); err != nil {
		t.listings.restore(snapshot)
		return err
	}
	return nil
}
