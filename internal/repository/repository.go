package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Employee   EmployeeRepository
	Attendance AttendanceRepository
	Setting    SettingRepository
	User       UserRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Employee:   NewEmployeeRepo(db),
		Attendance: NewAttendanceRepo(db),
		Setting:    NewSettingRepo(db),
		User:       NewUserRepo(db),
	}
}
