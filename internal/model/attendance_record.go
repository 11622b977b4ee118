package model

import "time"

// AttendanceType 考勤记录类型
type AttendanceType string

const (
	CheckIn  AttendanceType = "CHECK_IN"
	CheckOut AttendanceType = "CHECK_OUT"
)

// Valid 是否为合法类型
func (t AttendanceType) Valid() bool {
	return t == CheckIn || t == CheckOut
}

// VerificationMethod 核验方式
type VerificationMethod string

const (
	VerifyFace          VerificationMethod = "FACE"
	VerifyManual        VerificationMethod = "MANUAL"
	VerifyAdminOverride VerificationMethod = "ADMIN_OVERRIDE"
)

// Valid 是否为合法核验方式
func (m VerificationMethod) Valid() bool {
	switch m {
	case VerifyFace, VerifyManual, VerifyAdminOverride:
		return true
	}
	return false
}

// AttendanceRecord 考勤账本表 — 对应 attendance_records
type AttendanceRecord struct {
	ID                 string             `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	EmployeeRef        string             `gorm:"type:uuid;not null;index:idx_attendance_employee_ts,priority:1" json:"employee_ref"`
	Seq                int64              `gorm:"not null"                                       json:"seq"` // 员工维度写入序号，时间戳相同时以此定序
	Type               AttendanceType     `gorm:"type:varchar(16);not null"                      json:"type"`
	Timestamp          time.Time          `gorm:"not null;index:idx_attendance_employee_ts,priority:2;index:idx_attendance_ts" json:"timestamp"`
	Location           string             `gorm:"type:varchar(200);not null"                     json:"location"`
	Verified           bool               `gorm:"not null"                                       json:"verified"`
	VerificationMethod VerificationMethod `gorm:"type:varchar(20);not null"                      json:"verification_method"`
	Confidence         *float64           `json:"confidence,omitempty"`
	Notes              string             `gorm:"type:text;not null"                             json:"notes"`
	BaseModel

	// 关联
	Employee *Employee `gorm:"foreignKey:EmployeeRef;references:ID" json:"employee,omitempty"`
}

// TableName 指定表名
func (AttendanceRecord) TableName() string { return "attendance_records" }

// Before 账本定序：先比时间戳，相同时比写入序号
func (r *AttendanceRecord) Before(o *AttendanceRecord) bool {
	if !r.Timestamp.Equal(o.Timestamp) {
		return r.Timestamp.Before(o.Timestamp)
	}
	return r.Seq < o.Seq
}
