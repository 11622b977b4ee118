package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"face-attendance/internal/dto"
	"face-attendance/internal/service"
	pkgerrors "face-attendance/pkg/errors"
	"face-attendance/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler 报表模块 HTTP 处理器
type ReportHandler struct {
	reportSvc       service.ReportService
	exportSvc       service.ExportService
	notificationSvc service.NotificationService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(
	reportSvc service.ReportService,
	exportSvc service.ExportService,
	notificationSvc service.NotificationService,
) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc, exportSvc: exportSvc, notificationSvc: notificationSvc}
}

// Daily 日报
// GET /api/v1/reports/daily?date=2024-03-01
func (h *ReportHandler) Daily(c *gin.Context) {
	var req dto.DailyReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "日期格式应为 YYYY-MM-DD")
		return
	}

	report, err := h.reportSvc.Daily(c.Request.Context(), &req)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, report)
}

// Range 区间报表
// GET /api/v1/reports/range?start=&end=&employee_id=
func (h *ReportHandler) Range(c *gin.Context) {
	var req dto.RangeReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "start 与 end 不能为空")
		return
	}

	report, err := h.reportSvc.Range(c.Request.Context(), &req)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, report)
}

// Export 导出区间报表为 Excel
// GET /api/v1/reports/export?start=&end=&employee_id=
func (h *ReportHandler) Export(c *gin.Context) {
	var req dto.RangeReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "start 与 end 不能为空")
		return
	}

	buf, filename, err := h.exportSvc.ExportRange(c.Request.Context(), &req)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.Attachment(c, filename, xlsxContentType, buf.Bytes())
}

// SendDaily 发送日报邮件
// POST /api/v1/reports/daily/send?date=2024-03-01
func (h *ReportHandler) SendDaily(c *gin.Context) {
	var req dto.DailyReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "日期格式应为 YYYY-MM-DD")
		return
	}

	result, err := h.notificationSvc.SendDailyReport(c.Request.Context(), &req)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, result)
}

// handleReportError 统一处理报表模块业务错误
func (h *ReportHandler) handleReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidReportDate):
		response.BadRequest(c, 15001, "日期格式应为 YYYY-MM-DD")
	case errors.Is(err, service.ErrInvalidTimeBound), errors.Is(err, service.ErrInvalidTimeRange):
		response.BadRequest(c, 15002, pkgerrors.MessageOf(err))
	case errors.Is(err, service.ErrEmployeeNotFound):
		response.NotFound(c, 12001, "员工不存在")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		respondByKind(c, err)
	}
}
