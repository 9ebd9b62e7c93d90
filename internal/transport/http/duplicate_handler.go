package http

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sellerkit/inventory-backend/internal/domain"
	"github.com/sellerkit/inventory-backend/internal/service"
	"github.com/sellerkit/inventory-backend/internal/util"
)

type DuplicateHandler struct {
	service *service.DuplicateService
}

func RegisterDuplicates(e *echo.Echo, svc *service.DuplicateService) {
	handler := &DuplicateHandler{service: svc}

	group := e.Group("/api/v1/duplicates")
	group.GET("", handler.list)
	group.GET("/:id", handler.get)
	group.POST("/resolve", handler.resolve)
}

type resolveRequest struct {
	IssueID     string               `json:"issueId" validate:"required,uuid"`
	Resolutions domain.ResolutionMap `json:"resolutions" validate:"required"`
	Notes       *string              `json:"notes"`
}

func (h *DuplicateHandler) list(c echo.Context) error {
	status := domain.IssueStatus(c.QueryParam("status"))
	issues, err := h.service.ListIssues(c.Request().Context(), status)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, util.Envelope{
		"success": true,
		"issues":  buildIssueSummaries(issues),
	})
}

func (h *DuplicateHandler) get(c echo.Context) error {
	issueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid issue id"))
	}

	issue, err := h.service.GetIssue(c.Request().Context(), issueID)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, util.Envelope{
		"success": true,
		"issue":   buildIssueDetail(issue),
	})
}

func (h *DuplicateHandler) resolve(c echo.Context) error {
	var req resolveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("issueId and resolutions are required"))
	}

	issueID, err := uuid.Parse(req.IssueID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid issue id"))
	}

	issue, err := h.service.ResolveIssue(c.Request().Context(), issueID, req.Resolutions, req.Notes)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, util.Envelope{
		"success": true,
		"issue":   buildIssueDetail(issue),
	})
}

func (h *DuplicateHandler) writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidResolution), errors.Is(err, service.ErrInvalidStatus):
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	case errors.Is(err, service.ErrIssueNotFound):
		return c.JSON(http.StatusNotFound, util.Error(err.Error()))
	case errors.Is(err, service.ErrIssueResolved):
		return c.JSON(http.StatusConflict, util.Error(err.Error()))
	default:
		return c.JSON(http.StatusInternalServerError, util.Error("internal error"))
	}
}

func buildIssueSummaries(issues []domain.IssueSummary) []util.Envelope {
	resp := make([]util.Envelope, 0, len(issues))
	for _, issue := range issues {
		resp = append(resp, util.Envelope{
			"id":             issue.ID,
			"fileId":         issue.FileID,
			"filename":       issue.Filename,
			"status":         issue.Status,
			"duplicateKeys":  issue.DuplicateKeys,
			"candidateCount": issue.CandidateCount,
			"createdAt":      issue.CreatedAt,
		})
	}
	return resp
}

func buildIssueDetail(issue *domain.DuplicateIssue) util.Envelope {
	items := make(map[string][]util.Envelope, len(issue.Items))
	for sku, candidates := range issue.Items {
		rows := make([]util.Envelope, 0, len(candidates))
		for _, cand := range candidates {
			row := util.Envelope{
				"id":       cand.ID,
				"rowIndex": cand.RowIndex,
				"payload":  cand.Payload,
			}
			if cand.ObservedAt != nil {
				row["observedAt"] = *cand.ObservedAt
			}
			rows = append(rows, row)
		}
		items[sku] = rows
	}

	resp := util.Envelope{
		"id":             issue.ID,
		"fileId":         issue.FileID,
		"status":         issue.Status,
		"duplicateItems": items,
		"createdAt":      issue.CreatedAt,
		"updatedAt":      issue.UpdatedAt,
	}
	if issue.Notes != nil {
		resp["notes"] = *issue.Notes
	}
	if issue.ResolvedAt != nil {
		resp["resolvedAt"] = *issue.ResolvedAt
	}
	if len(issue.Resolutions) > 0 {
		resp["resolutions"] = issue.Resolutions
	}
	return resp
}
