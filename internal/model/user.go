package model

// 账号角色
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

// User 操作账号表 — 对应 users
type User struct {
	ID           string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Username     string  `gorm:"type:varchar(64);not null;uniqueIndex"          json:"username"`
	PasswordHash string  `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string  `gorm:"type:varchar(20);not null"                      json:"role"`
	EmployeeID   *string `gorm:"type:varchar(32)"                               json:"employee_id,omitempty"`
	Active       bool    `gorm:"not null"                                       json:"active"`
	Timestamps
}

// TableName 指定表名
func (User) TableName() string { return "users" }
