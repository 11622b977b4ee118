package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"face-attendance/internal/dto"
	"face-attendance/internal/service"
	"face-attendance/pkg/response"
)

// SettingHandler 系统设置 HTTP 处理器
type SettingHandler struct {
	settingSvc service.SettingService
}

// NewSettingHandler 创建 SettingHandler
func NewSettingHandler(settingSvc service.SettingService) *SettingHandler {
	return &SettingHandler{settingSvc: settingSvc}
}

// ListSettings 按分类分组的设置值
// GET /api/v1/settings?category=
func (h *SettingHandler) ListSettings(c *gin.Context) {
	var req dto.SettingListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	settings, err := h.settingSvc.List(c.Request.Context(), req.Category)
	if err != nil {
		h.handleSettingError(c, err)
		return
	}

	response.OK(c, settings)
}

// GetSetting 单个设置
// GET /api/v1/settings/:name
func (h *SettingHandler) GetSetting(c *gin.Context) {
	setting, err := h.settingSvc.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.handleSettingError(c, err)
		return
	}

	response.OK(c, setting)
}

// UpsertSetting 新建或覆盖设置值
// PUT /api/v1/settings/:name
func (h *SettingHandler) UpsertSetting(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpsertSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 17002, "设置值仅支持布尔、数字或字符串")
		return
	}

	setting, err := h.settingSvc.Upsert(c.Request.Context(), c.Param("name"), &req, callerID)
	if err != nil {
		h.handleSettingError(c, err)
		return
	}

	response.OK(c, setting)
}

// InitializeDefaults 补齐缺失的默认设置
// POST /api/v1/settings/initialize
func (h *SettingHandler) InitializeDefaults(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.settingSvc.InitializeDefaults(c.Request.Context(), callerID)
	if err != nil {
		h.handleSettingError(c, err)
		return
	}

	response.OK(c, result)
}

// handleSettingError 统一处理设置模块业务错误
func (h *SettingHandler) handleSettingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSettingNotFound):
		response.NotFound(c, 17001, "设置项不存在")
	case errors.Is(err, service.ErrSettingValueRequired):
		response.BadRequest(c, 17002, "设置值仅支持布尔、数字或字符串")
	case errors.Is(err, service.ErrSettingNameInvalid):
		response.BadRequest(c, 17003, "设置名称不合法")
	default:
		respondByKind(c, err)
	}
}
