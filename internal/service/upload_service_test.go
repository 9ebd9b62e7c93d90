package service

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sellerkit/inventory-backend/internal/domain"
)

type uploadFixture struct {
	uploads  *memoryUploadRepo
	listings *memoryListingRepo
	queue    *memoryQueue
	svc      *UploadService
}

func newUploadFixture(t *testing.T) *uploadFixture {
	t.Helper()
	f := &uploadFixture{
		uploads:  newMemoryUploadRepo(),
		listings: newMemoryListingRepo(),
		queue:    &memoryQueue{},
	}
	f.svc = NewUploadService(f.uploads, f.listings, f.queue, noopStorage{}, testLogger(), UploadServiceConfig{
		UploadDir:      t.TempDir(),
		Bucket:         "seller-reports",
		MaxUploadBytes: 1024,
		TaskName:       "process_listings_report",
	})
	return f
}

func TestIntakeAcceptsReportAndEnqueuesTask(t *testing.T) {
	f := newUploadFixture(t)
	contents := []byte("seller-sku\tquantity\nA\t5\nB\t2\n")

	file, err := f.svc.Intake(context.Background(), "inventory.txt", "text/tab-separated-values", contents)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if file.Status != domain.UploadStatusPending {
		t.Fatalf("expected pending, got %s", file.Status)
	}
	if file.TotalRows != 2 {
		t.Fatalf("expected estimated 2 rows, got %d", file.TotalRows)
	}
	if _, err := os.Stat(file.StoragePath); err != nil {
		t.Fatalf("stored file missing: %v", err)
	}

	if len(f.queue.messages) != 1 {
		t.Fatalf("expected 1 enqueued task, got %d", len(f.queue.messages))
	}
	msg := f.queue.messages[0]
	if msg.Task != "process_listings_report" {
		t.Fatalf("unexpected task name %q", msg.Task)
	}
	if len(msg.Args) != 2 || msg.Args[0] != file.StoragePath || msg.Args[1] != file.ID.String() {
		t.Fatalf("expected args [path, id], got %v", msg.Args)
	}
	if msg.Kwargs == nil {
		t.Fatalf("kwargs must be present, even when empty")
	}
}

func TestIntakeRejectsBadInput(t *testing.T) {
	f := newUploadFixture(t)

	if _, err := f.svc.Intake(context.Background(), "inventory.txt", "", nil); !errors.Is(err, ErrEmptyUpload) {
		t.Fatalf("expected ErrEmptyUpload, got %v", err)
	}
	if _, err := f.svc.Intake(context.Background(), "inventory.xlsx", "", []byte("data")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}

	big := make([]byte, 2048)
	if _, err := f.svc.Intake(context.Background(), "inventory.txt", "", big); !errors.Is(err, ErrUploadTooLarge) {
		t.Fatalf("expected ErrUploadTooLarge, got %v", err)
	}
	if len(f.queue.messages) != 0 {
		t.Fatalf("rejected uploads must not enqueue tasks")
	}
}

func TestIntakeEnqueueFailureMarksUploadError(t *testing.T) {
	f := newUploadFixture(t)
	f.queue.failNext = true

	_, err := f.svc.Intake(context.Background(), "inventory.txt", "", []byte("seller-sku\nA\n"))
	if !errors.Is(err, ErrEnqueueFailed) {
		t.Fatalf("expected ErrEnqueueFailed, got %v", err)
	}

	// The record must not be stranded pending.
	var stranded int
	for id := range f.uploads.files {
		file, _ := f.uploads.FindByID(context.Background(), id)
		if file.Status != domain.UploadStatusError {
			stranded++
		}
	}
	if stranded != 0 {
		t.Fatalf("expected the upload marked error, %d records left live", stranded)
	}
}

func TestStatusReportsProgressAndListings(t *testing.T) {
	f := newUploadFixture(t)
	file, err := f.svc.Intake(context.Background(), "inventory.txt", "", []byte("seller-sku\tquantity\nA\t5\nB\t2\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.uploads.MarkProcessing(context.Background(), file.ID, 2); err != nil {
		t.Fatalf("mark processing: %v", err)
	}
	if err := f.uploads.UpdateProgress(context.Background(), file.ID, 1); err != nil {
		t.Fatalf("update progress: %v", err)
	}
	if err := f.listings.Upsert(context.Background(), "A", domain.RowPayload{}, file.ID); err != nil {
		t.Fatalf("seeding listing: %v", err)
	}

	report, err := f.svc.Status(context.Background(), file.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Status != domain.UploadStatusProcessing {
		t.Fatalf("expected processing, got %s", report.Status)
	}
	if report.Progress != 50 {
		t.Fatalf("expected 50%% progress, got %d", report.Progress)
	}
	if report.ListingsCount != 1 {
		t.Fatalf("expected 1 listing, got %d", report.ListingsCount)
	}
}

func TestStatusUnknownFile(t *testing.T) {
	f := newUploadFixture(t)
	if _, err := f.svc.Status(context.Background(), uuid.New()); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}

func TestPollReturnsOnTerminalState(t *testing.T) {
	f := newUploadFixture(t)
	file, err := f.svc.Intake(context.Background(), "inventory.txt", "", []byte("seller-sku\nA\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.uploads.MarkProcessing(context.Background(), file.ID, 1); err != nil {
		t.Fatalf("mark processing: %v", err)
	}
	if err := f.uploads.MarkCompleted(context.Background(), file.ID, 1, nil); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	report, err := f.svc.Poll(context.Background(), file.ID, time.Millisecond, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Status != domain.UploadStatusCompleted {
		t.Fatalf("expected completed, got %s", report.Status)
	}
}

func TestPollExhaustsAttempts(t *testing.T) {
	f := newUploadFixture(t)
	file, err := f.svc.Intake(context.Background(), "inventory.txt", "", []byte("seller-sku\nA\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report, err := f.svc.Poll(context.Background(), file.ID, time.Millisecond, 2)
	if !errors.Is(err, ErrPollExhausted) {
		t.Fatalf("expected ErrPollExhausted, got %v", err)
	}
	if report == nil || report.Status != domain.UploadStatusPending {
		t.Fatalf("exhausted poll must still return the last snapshot")
	}
}
