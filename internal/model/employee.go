package model

import "github.com/pgvector/pgvector-go"

// Employee 员工表 — 对应 employees
// 员工只做软停用（Active=false），保证历史考勤可追溯
type Employee struct {
	ID            string           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	EmployeeID    string           `gorm:"type:varchar(32);not null;uniqueIndex"          json:"employee_id"`
	Name          string           `gorm:"type:varchar(100);not null"                     json:"name"`
	Email         string           `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	Department    string           `gorm:"type:varchar(100);not null"                     json:"department"`
	Position      string           `gorm:"type:varchar(100);not null"                     json:"position"`
	Active        bool             `gorm:"not null"                                       json:"active"`
	FaceTemplate  *pgvector.Vector `gorm:"type:vector"                                    json:"-"`
	LedgerVersion int64            `gorm:"not null;default:0"                             json:"-"` // 每次写入账本 +1，用于条件追加
	Timestamps
}

// TableName 指定表名
func (Employee) TableName() string { return "employees" }

// HasTemplate 是否已录入人脸模板
func (e *Employee) HasTemplate() bool {
	return e.FaceTemplate != nil && len(e.FaceTemplate.Slice()) > 0
}

// SetTemplate 整体替换人脸模板
func (e *Employee) SetTemplate(template []float32) {
	vec := pgvector.NewVector(template)
	e.FaceTemplate = &vec
}

// Template 返回人脸模板向量，未录入时为 nil
func (e *Employee) Template() []float32 {
	if e.FaceTemplate == nil {
		return nil
	}
	return e.FaceTemplate.Slice()
}
