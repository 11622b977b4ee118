package dto

import "time"

// ── 考勤账本 DTO ──

// CheckRequest 打卡请求
// Type 为空时由账本按当前状态推断；显式指定时原样写入（管理员纠正通道）
type CheckRequest struct {
	EmployeeID         string     `json:"employee_id"         binding:"required,max=32"`
	Type               string     `json:"type"                binding:"omitempty,oneof=CHECK_IN CHECK_OUT"`
	Location           string     `json:"location"            binding:"omitempty,max=200"`
	VerificationMethod string     `json:"verification_method" binding:"omitempty,oneof=FACE MANUAL ADMIN_OVERRIDE"`
	Notes              string     `json:"notes"               binding:"omitempty,max=1000"`
	Timestamp          *time.Time `json:"timestamp"` // 补录时指定事件时间，默认当前时间

	Confidence *float64 `json:"-"` // 人脸识别流程写入
}

// AmendAttendanceRequest 修改考勤记录请求，仅覆盖提供的字段
type AmendAttendanceRequest struct {
	Type               *string    `json:"type"                binding:"omitempty,oneof=CHECK_IN CHECK_OUT"`
	Timestamp          *time.Time `json:"timestamp"`
	Location           *string    `json:"location"            binding:"omitempty,max=200"`
	Verified           *bool      `json:"verified"`
	VerificationMethod *string    `json:"verification_method" binding:"omitempty,oneof=FACE MANUAL ADMIN_OVERRIDE"`
	Notes              *string    `json:"notes"               binding:"omitempty,max=1000"`
}

// AttendanceListRequest 账本查询参数，均可选，按 AND 组合
// start / end 支持 RFC3339 或 YYYY-MM-DD（end 为日期时取当日 23:59:59.999）
type AttendanceListRequest struct {
	EmployeeID string `form:"employee_id" binding:"omitempty,max=32"`
	Type       string `form:"type"`
	Start      string `form:"start"`
	End        string `form:"end"`
}

// DateRangeRequest 时间范围查询参数
type DateRangeRequest struct {
	Start string `form:"start"`
	End   string `form:"end"`
}

// AttendanceRecordResponse 考勤记录响应
type AttendanceRecordResponse struct {
	ID                 string           `json:"id"`
	Employee           *EmployeeSummary `json:"employee,omitempty"`
	Type               string           `json:"type"`
	Timestamp          string           `json:"timestamp"`
	Location           string           `json:"location"`
	Verified           bool             `json:"verified"`
	VerificationMethod string           `json:"verification_method"`
	Confidence         *float64         `json:"confidence,omitempty"`
	Notes              string           `json:"notes"`
}

// AttendanceStatusResponse 员工当前在岗状态
type AttendanceStatusResponse struct {
	EmployeeID string                    `json:"employee_id"`
	State      string                    `json:"state"` // AWAY | PRESENT
	NextType   string                    `json:"next_type"`
	LastRecord *AttendanceRecordResponse `json:"last_record,omitempty"`
}

// LedgerAnomaly 账本交替规则异常
type LedgerAnomaly struct {
	RecordID  string `json:"record_id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Kind      string `json:"kind"` // consecutive_check_in | consecutive_check_out | leading_check_out
}

// AmendAttendanceResponse 修改结果，附带修改点之后的交替异常
type AmendAttendanceResponse struct {
	Record    AttendanceRecordResponse `json:"record"`
	Anomalies []LedgerAnomaly          `json:"anomalies"`
}
