package dto

// ── 报表模块 DTO ──

// DailyReportRequest 日报查询参数，date 为空表示今天
type DailyReportRequest struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

// RangeReportRequest 区间报表查询参数
type RangeReportRequest struct {
	Start      string `form:"start"       binding:"required"`
	End        string `form:"end"         binding:"required"`
	EmployeeID string `form:"employee_id" binding:"omitempty,max=32"`
}

// ReportEntry 报表明细行：记录 + 员工摘要
type ReportEntry struct {
	Record   AttendanceRecordResponse `json:"record"`
	Employee EmployeeSummary          `json:"employee"`
}

// DaySummaryResponse 员工单日汇总
type DaySummaryResponse struct {
	Employee                 EmployeeSummary `json:"employee"`
	Date                     string          `json:"date"`
	FirstCheckIn             string          `json:"first_check_in,omitempty"`
	LastCheckOut             string          `json:"last_check_out,omitempty"`
	CompletedSessions        int             `json:"completed_sessions"`
	CompletedDurationSeconds int64           `json:"completed_duration_seconds"`
	CompletedDuration        string          `json:"completed_duration"`
	OpenSession              bool            `json:"open_session"`
	OpenSince                string          `json:"open_since,omitempty"`
	RecordCount              int             `json:"record_count"`
	OddRecordCount           bool            `json:"odd_record_count"`
	DuplicateInstant         bool            `json:"duplicate_instant"`
	RepeatedCheckIns         int             `json:"repeated_check_ins"`
	OrphanCheckOuts          int             `json:"orphan_check_outs"`
	Late                     bool            `json:"late"`
	EarlyLeave               bool            `json:"early_leave"`
}

// ReportResponse 日报 / 区间报表响应
type ReportResponse struct {
	Start     string               `json:"start"`
	End       string               `json:"end"`
	Entries   []ReportEntry        `json:"entries"`
	Summaries []DaySummaryResponse `json:"summaries"`
}

// SendReportResponse 日报邮件发送结果
type SendReportResponse struct {
	Sent       bool     `json:"sent"`
	Reason     string   `json:"reason,omitempty"` // 未发送时的原因
	Recipients []string `json:"recipients,omitempty"`
	Records    int      `json:"records"`
}
