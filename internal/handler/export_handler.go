package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-center-api/internal/models"
	"github.com/noah-isme/edu-center-api/internal/service"
	"github.com/noah-isme/edu-center-api/pkg/export"
	"github.com/noah-isme/edu-center-api/pkg/response"
)

type financeExporter interface {
	Export(ctx context.Context, filter models.LedgerFilter, kind string, format export.Format) (*service.ExportResult, error)
}

// ExportHandler streams ledger exports.
type ExportHandler struct {
	service financeExporter
}

// NewExportHandler constructs an ExportHandler.
func NewExportHandler(svc financeExporter) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Finance godoc
// @Summary Export a ledger
// @Tags Finance
// @Produce text/csv,application/pdf,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param kind query string true "expenses or income"
// @Param format query string false "csv, pdf or xlsx"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /finance/export [get]
func (h *ExportHandler) Finance(c *gin.Context) {
	filter, err := ledgerFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	kind := strings.ToLower(strings.TrimSpace(c.Query("kind")))
	format := export.Format(strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", string(export.FormatCSV)))))

	result, err := h.service.Export(c.Request.Context(), filter, kind, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
