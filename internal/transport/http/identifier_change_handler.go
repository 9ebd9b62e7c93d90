package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sellerkit/inventory-backend/internal/domain"
	"github.com/sellerkit/inventory-backend/internal/service"
	"github.com/sellerkit/inventory-backend/internal/util"
)

type IdentifierChangeHandler struct {
	service *service.IdentifierChangeService
}

func RegisterIdentifierChanges(e *echo.Echo, svc *service.IdentifierChangeService) {
	handler := &IdentifierChangeHandler{service: svc}
	e.GET("/api/v1/identifier-changes", handler.list)
}

func (h *IdentifierChangeHandler) list(c echo.Context) error {
	filter := domain.IdentifierChangeFilter{
		SellerSKU: strings.TrimSpace(c.QueryParam("sku")),
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return c.JSON(http.StatusBadRequest, util.Error("invalid limit"))
		}
		filter.Limit = limit
	}
	if raw := c.QueryParam("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return c.JSON(http.StatusBadRequest, util.Error("invalid offset"))
		}
		filter.Offset = offset
	}

	changes, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("internal error"))
	}

	resp := make([]util.Envelope, 0, len(changes))
	for _, change := range changes {
		item := util.Envelope{
			"id":             change.ID,
			"sellerSku":      change.SellerSKU,
			"changeType":     change.ChangeType,
			"identifierType": change.IdentifierType,
			"newValue":       change.NewValue,
			"createdAt":      change.CreatedAt,
		}
		if change.OldValue != nil {
			item["oldValue"] = *change.OldValue
		}
		if change.FileID != nil {
			item["fileId"] = *change.FileID
		}
		resp = append(resp, item)
	}
	return c.JSON(http.StatusOK, util.Envelope{
		"success": true,
		"changes": resp,
	})
}
