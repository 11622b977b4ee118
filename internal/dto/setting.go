package dto

import "face-attendance/internal/model"

// ── 系统设置 DTO ──

// UpsertSettingRequest 新建或覆盖设置值
type UpsertSettingRequest struct {
	Value model.SettingValue `json:"value"`
}

// SettingListRequest 设置列表查询参数
type SettingListRequest struct {
	Category string `form:"category" binding:"omitempty,max=50"`
}

// SettingResponse 单个设置响应
type SettingResponse struct {
	Name        string      `json:"name"`
	Category    string      `json:"category"`
	Value       interface{} `json:"value"`
	Description string      `json:"description"`
	UpdatedAt   string      `json:"updated_at"`
	UpdatedBy   string      `json:"updated_by,omitempty"`
}

// SettingsByCategory 按分类、名称分组的设置值
type SettingsByCategory map[string]map[string]interface{}

// InitializeSettingsResponse 默认设置初始化结果
type InitializeSettingsResponse struct {
	Inserted int64 `json:"inserted"`
	Total    int   `json:"total"`
}
