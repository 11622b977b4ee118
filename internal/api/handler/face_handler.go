package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"face-attendance/internal/dto"
	"face-attendance/internal/service"
	"face-attendance/pkg/response"
)

// FaceHandler 人脸模块 HTTP 处理器
type FaceHandler struct {
	faceSvc     service.FaceService
	employeeSvc service.EmployeeService
}

// NewFaceHandler 创建 FaceHandler
func NewFaceHandler(faceSvc service.FaceService, employeeSvc service.EmployeeService) *FaceHandler {
	return &FaceHandler{faceSvc: faceSvc, employeeSvc: employeeSvc}
}

// Register 录入（替换）员工人脸模板
// POST /api/v1/face/register/:employeeId
func (h *FaceHandler) Register(c *gin.Context) {
	employeeID := c.Param("employeeId")
	if employeeID == "" {
		response.BadRequest(c, 10001, "工号不能为空")
		return
	}

	var req dto.RegisterFaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	employee, err := h.employeeSvc.EnrollTemplate(c.Request.Context(), employeeID, req.FaceData)
	if err != nil {
		h.handleFaceError(c, err)
		return
	}

	response.OK(c, employee)
}

// Recognize 识别人脸，不写入考勤
// POST /api/v1/face/recognize
func (h *FaceHandler) Recognize(c *gin.Context) {
	var req dto.RecognizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.faceSvc.RecognizeResponse(c.Request.Context(), &req)
	if err != nil {
		h.handleFaceError(c, err)
		return
	}

	response.OK(c, result)
}

// Check 识别人脸并打卡
// POST /api/v1/face/check
func (h *FaceHandler) Check(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.FaceCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.faceSvc.RecognizeAndCheck(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleFaceError(c, err)
		return
	}

	response.OK(c, result)
}

// handleFaceError 统一处理人脸模块业务错误
func (h *FaceHandler) handleFaceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrFaceRecognitionDisabled):
		response.BadRequest(c, 13001, "人脸识别已停用")
	case errors.Is(err, service.ErrInvalidFaceSample), errors.Is(err, service.ErrInvalidTemplate):
		response.BadRequest(c, 13002, "人脸样本不能为空")
	case errors.Is(err, service.ErrEmployeeNotFound):
		response.NotFound(c, 12001, "员工不存在")
	case errors.Is(err, service.ErrEmployeeInactive):
		response.BadRequest(c, 14003, "员工已停用")
	case errors.Is(err, service.ErrLedgerContention):
		response.Conflict(c, 14005, "打卡请求冲突过多，请稍后重试")
	default:
		respondByKind(c, err)
	}
}
