package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sellerkit/inventory-backend/internal/domain"
	"github.com/sellerkit/inventory-backend/internal/service"
	"github.com/sellerkit/inventory-backend/internal/util"
)

func TestDuplicateWriteErrorStatusCodes(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{service.ErrInvalidResolution, http.StatusBadRequest},
		{service.ErrInvalidStatus, http.StatusBadRequest},
		{service.ErrIssueNotFound, http.StatusNotFound},
		{service.ErrIssueResolved, http.StatusConflict},
	}

	e := echo.New()
	handler := &DuplicateHandler{}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := handler.writeError(c, tc.err); err != nil {
			t.Fatalf("%v: unexpected error: %v", tc.err, err)
		}
		if rec.Code != tc.want {
			t.Fatalf("%v: expected status %d, got %d", tc.err, tc.want, rec.Code)
		}
	}
}

func TestBuildIssueDetailGroupsCandidates(t *testing.T) {
	observedAt := time.Now()
	notes := "reviewed"
	resolvedAt := time.Now()
	issue := &domain.DuplicateIssue{
		ID:         uuid.New(),
		FileID:     uuid.New(),
		Status:     domain.IssueStatusResolved,
		Notes:      &notes,
		ResolvedAt: &resolvedAt,
		Resolutions: domain.ResolutionMap{
			"A": {Type: domain.ResolutionKeepNewest},
		},
		Items: map[string][]domain.DuplicateCandidate{
			"A": {
				{ID: uuid.New(), RowIndex: 1, Payload: domain.RowPayload{}, ObservedAt: &observedAt},
				{ID: uuid.New(), RowIndex: 3, Payload: domain.RowPayload{}},
			},
		},
	}

	resp := buildIssueDetail(issue)

	items, ok := resp["duplicateItems"].(map[string][]util.Envelope)
	if !ok {
		t.Fatalf("unexpected duplicateItems type %T", resp["duplicateItems"])
	}
	candidates := items["A"]
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates for A, got %d", len(candidates))
	}
	if candidates[0]["rowIndex"] != 1 || candidates[1]["rowIndex"] != 3 {
		t.Fatalf("expected file-order row indexes, got %v and %v", candidates[0]["rowIndex"], candidates[1]["rowIndex"])
	}
	if _, ok := candidates[0]["observedAt"]; !ok {
		t.Fatalf("expected observedAt on timestamped candidate")
	}
	if _, ok := candidates[1]["observedAt"]; ok {
		t.Fatalf("observedAt must be omitted when unset")
	}

	if resp["notes"] != notes {
		t.Fatalf("expected notes carried through")
	}
	if _, ok := resp["resolvedAt"]; !ok {
		t.Fatalf("expected resolvedAt on resolved issue")
	}
	if _, ok := resp["resolutions"]; !ok {
		t.Fatalf("expected resolutions on resolved issue")
	}
}

func TestResolveRejectsMalformedIssueID(t *testing.T) {
	e := echo.New()
	e.Validator = &requestValidator{validate: validator.New()}
	handler := &DuplicateHandler{}

	body := `{"issueId": "not-a-uuid", "resolutions": {"A": {"resolution_type": "keep_newest"}}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/duplicates/resolve", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.resolve(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestResolveRequiresResolutions(t *testing.T) {
	e := echo.New()
	e.Validator = &requestValidator{validate: validator.New()}
	handler := &DuplicateHandler{}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/duplicates/resolve",
		strings.NewReader(`{"issueId": "`+uuid.NewString()+`"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.resolve(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
