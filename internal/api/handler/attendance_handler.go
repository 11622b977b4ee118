package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"face-attendance/internal/dto"
	"face-attendance/internal/service"
	pkgerrors "face-attendance/pkg/errors"
	"face-attendance/pkg/response"
)

// AttendanceHandler 考勤账本 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// Check 打卡，未指定类型时由账本推断
// POST /api/v1/attendance
func (h *AttendanceHandler) Check(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	record, err := h.attendanceSvc.Check(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.Created(c, record)
}

// Amend 修改考勤记录
// PUT /api/v1/attendance/:id
func (h *AttendanceHandler) Amend(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "记录ID不能为空")
		return
	}

	var req dto.AmendAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.attendanceSvc.Amend(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// List 查询账本
// GET /api/v1/attendance
func (h *AttendanceHandler) List(c *gin.Context) {
	var req dto.AttendanceListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	records, err := h.attendanceSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": records})
}

// ListByEmployee 查询单个员工的账本
// GET /api/v1/attendance/employee/:employeeId
func (h *AttendanceHandler) ListByEmployee(c *gin.Context) {
	employeeID := c.Param("employeeId")
	if employeeID == "" {
		response.BadRequest(c, 10001, "工号不能为空")
		return
	}

	var req dto.DateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	records, err := h.attendanceSvc.ListByEmployee(c.Request.Context(), employeeID, &req)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": records})
}

// Status 员工当前在岗状态
// GET /api/v1/attendance/status/:employeeId
func (h *AttendanceHandler) Status(c *gin.Context) {
	employeeID := c.Param("employeeId")
	if employeeID == "" {
		response.BadRequest(c, 10001, "工号不能为空")
		return
	}

	status, err := h.attendanceSvc.Status(c.Request.Context(), employeeID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, status)
}

// handleAttendanceError 统一处理考勤模块业务错误
func (h *AttendanceHandler) handleAttendanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmployeeNotFound):
		response.NotFound(c, 12001, "员工不存在")
	case errors.Is(err, service.ErrRecordNotFound):
		response.NotFound(c, 14001, "考勤记录不存在")
	case errors.Is(err, service.ErrInvalidAttendanceType), errors.Is(err, service.ErrInvalidVerification):
		response.BadRequest(c, 14002, pkgerrors.MessageOf(err))
	case errors.Is(err, service.ErrEmployeeInactive):
		response.BadRequest(c, 14003, "员工已停用")
	case errors.Is(err, service.ErrInvalidTimeBound), errors.Is(err, service.ErrInvalidTimeRange):
		response.BadRequest(c, 14004, pkgerrors.MessageOf(err))
	case errors.Is(err, service.ErrLedgerContention):
		response.Conflict(c, 14005, "打卡请求冲突过多，请稍后重试")
	case errors.Is(err, service.ErrTimestampInFuture):
		response.BadRequest(c, 14006, "考勤时间不能晚于当前时间")
	case errors.Is(err, service.ErrBackfillRequiresType):
		response.BadRequest(c, 14007, "补录时间早于最近一条记录，需显式指定考勤类型")
	default:
		respondByKind(c, err)
	}
}
