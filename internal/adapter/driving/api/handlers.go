package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lhtools/tb-pivot-export-go/internal/adapter/driven/thingsboard"
	"github.com/lhtools/tb-pivot-export-go/internal/application/usecase"
	"github.com/lhtools/tb-pivot-export-go/internal/shared/types"
)

// ErrorResponse is the error envelope every non-2xx answer uses.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine code plus a human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ReportRequest is the POST /api/v1/reports body: the widget payload plus
// server-side export options.
type ReportRequest struct {
	types.WidgetPayload

	ReportName string   `json:"reportName"`
	ReportType []string `json:"reportType"`
	Dir        string   `json:"dir"`
	Order      string   `json:"order"`
}

// ReportResponse lists what one report run produced.
type ReportResponse struct {
	ReportID string   `json:"report_id"`
	Files    []string `json:"files"`
}

// ReportHandler handles report generation requests.
type ReportHandler struct {
	uc      *usecase.ExportUseCase
	console types.ConsoleInterface
}

// NewReportHandler creates a new report handler.
func NewReportHandler(uc *usecase.ExportUseCase, console types.ConsoleInterface) *ReportHandler {
	return &ReportHandler{uc: uc, console: console}
}

// CreateReport handles POST /api/v1/reports.
func (h *ReportHandler) CreateReport(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	exportReq, err := h.uc.BuildRequest(&req.WidgetPayload, req.Order)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{Code: payloadErrorCode(err), Message: err.Error()},
		})
		return
	}

	reportID := uuid.NewString()
	h.console.LogInfo("Report %s: %d entities, %d keys", reportID, len(exportReq.Entities), len(exportReq.Keys))

	tables, err := h.uc.BuildTables(c.Request.Context(), exportReq)
	if err != nil {
		status := http.StatusBadGateway
		code := "FETCH_ERROR"
		var apiErr *thingsboard.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			status = http.StatusUnauthorized
			code = "UPSTREAM_AUTH_FAILED"
		}
		h.console.LogError("Report %s failed: %v", reportID, err)
		c.JSON(status, ErrorResponse{
			Error: ErrorDetail{Code: code, Message: err.Error()},
		})
		return
	}

	args := &types.CLIArgs{
		ReportName: req.ReportName,
		ReportType: req.ReportType,
		Dir:        req.Dir,
	}
	files, err := h.uc.WriteReports(tables, args)
	if err != nil {
		h.console.LogError("Report %s failed: %v", reportID, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{Code: "EXPORT_ERROR", Message: err.Error()},
		})
		return
	}

	c.JSON(http.StatusOK, ReportResponse{ReportID: reportID, Files: files})
}

// payloadErrorCode maps validation sentinels to stable API codes.
func payloadErrorCode(err error) string {
	switch {
	case errors.Is(err, types.ErrMissingTimeRange):
		return "MISSING_TIME_RANGE"
	case errors.Is(err, types.ErrNoEntities):
		return "NO_ENTITIES"
	case errors.Is(err, types.ErrNoKeys):
		return "NO_KEYS"
	case errors.Is(err, types.ErrBadTimezone):
		return "BAD_TIMEZONE"
	case strings.Contains(err.Error(), "reportConfig"):
		return "BAD_REPORT_CONFIG"
	}
	return "INVALID_PAYLOAD"
}
