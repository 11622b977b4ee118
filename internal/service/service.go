package service

import (
	"go.uber.org/zap"

	"face-attendance/config"
	"face-attendance/internal/repository"
	"face-attendance/pkg/jwt"
	"face-attendance/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	Employee     EmployeeService
	Face         FaceService
	Attendance   AttendanceService
	Report       ReportService
	Export       ExportService
	Notification NotificationService
	Setting      SettingService
}

// NewService 创建 Service 聚合
// rdb 可为 nil：此时不启用员工级分布式锁与 Token 黑名单
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	mailer Mailer,
	logger *zap.Logger,
) *Service {
	setting := NewSettingService(repo, logger)
	attendance := NewAttendanceService(&cfg.Attendance, repo, setting, NewLedgerLocker(rdb, cfg.Attendance.LockTTL), logger)
	report := NewReportService(&cfg.Attendance, repo, setting, logger)
	export := NewExportService(report, logger)

	var blacklist TokenBlacklist
	if rdb != nil {
		blacklist = rdb
	}

	return &Service{
		Auth:         NewAuthService(repo, jwtMgr, blacklist, logger),
		Employee:     NewEmployeeService(repo, logger),
		Face:         NewFaceService(repo, setting, attendance, logger),
		Attendance:   attendance,
		Report:       report,
		Export:       export,
		Notification: NewNotificationService(&cfg.Mail, setting, report, export, mailer, logger),
		Setting:      setting,
	}
}
