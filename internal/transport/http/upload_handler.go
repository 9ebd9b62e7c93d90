package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sellerkit/inventory-backend/internal/service"
	"github.com/sellerkit/inventory-backend/internal/util"
)

type UploadHandler struct {
	service       *service.UploadService
	maxUploadSize int64
}

func RegisterUploads(e *echo.Echo, svc *service.UploadService, maxUpload int64) {
	handler := &UploadHandler{
		service:       svc,
		maxUploadSize: maxUpload,
	}

	group := e.Group("/api/v1/listings")
	group.POST("/upload", handler.create)
	group.GET("/upload/status/:id", handler.status)
}

func (h *UploadHandler) create(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("report file is required"))
	}

	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("unable to read upload"))
	}
	defer src.Close()

	limit := h.maxUploadSize
	if limit <= 0 {
		limit = 50 * 1024 * 1024
	}

	contents, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("failed reading upload"))
	}
	if int64(len(contents)) > limit {
		return c.JSON(http.StatusRequestEntityTooLarge, util.Error("upload exceeds size limit"))
	}

	mimeType := file.Header.Get(echo.HeaderContentType)
	upload, err := h.service.Intake(c.Request().Context(), file.Filename, mimeType, contents)
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(http.StatusAccepted, util.Envelope{
		"success": true,
		"fileId":  upload.ID,
		"status":  upload.Status,
		"message": "report accepted for processing",
	})
}

func (h *UploadHandler) status(c echo.Context) error {
	fileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid file id"))
	}

	report, err := h.service.Status(c.Request().Context(), fileID)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, buildStatusReport(report))
}

func (h *UploadHandler) writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrEmptyUpload):
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	case errors.Is(err, service.ErrUnsupportedFormat):
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	case errors.Is(err, service.ErrUploadTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, util.Error(err.Error()))
	case errors.Is(err, service.ErrFileNotFound):
		return c.JSON(http.StatusNotFound, util.Error(err.Error()))
	case errors.Is(err, service.ErrEnqueueFailed):
		return c.JSON(http.StatusServiceUnavailable, util.Error(err.Error()))
	default:
		return c.JSON(http.StatusInternalServerError, util.Error("internal error"))
	}
}

func buildStatusReport(report *service.StatusReport) util.Envelope {
	resp := util.Envelope{
		"success":       true,
		"fileId":        report.FileID,
		"filename":      report.Filename,
		"status":        report.Status,
		"processedRows": report.ProcessedRows,
		"totalRows":     report.TotalRows,
		"progress":      report.Progress,
		"listingsCount": report.ListingsCount,
		"createdAt":     report.CreatedAt,
		"updatedAt":     report.UpdatedAt,
	}
	if report.CompletedAt != nil {
		resp["completedAt"] = *report.CompletedAt
	}
	if report.ErrorMessage != nil {
		resp["errorMessage"] = *report.ErrorMessage
	}
	if len(report.RowErrors) > 0 {
		rows := make([]util.Envelope, 0, len(report.RowErrors))
		for _, rowErr := range report.RowErrors {
			rows = append(rows, util.Envelope{
				"rowIndex": rowErr.RowIndex,
				"message":  rowErr.Message,
			})
		}
		resp["rowErrors"] = rows
	}
	return resp
}
