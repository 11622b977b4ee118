package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"face-attendance/internal/model"
	pkgerrors "face-attendance/pkg/errors"
)

// AttendanceFilter 账本查询条件，所有字段可选并以 AND 组合；Start/End 为闭区间
type AttendanceFilter struct {
	EmployeeRef string
	Type        model.AttendanceType
	Start       *time.Time
	End         *time.Time
	Ascending   bool // 默认按时间倒序
}

// AttendanceRepository 考勤账本数据访问接口
type AttendanceRepository interface {
	// Latest 返回员工最近一条记录（时间戳倒序，同一时刻以写入序号倒序）
	Latest(ctx context.Context, employeeRef string) (*model.AttendanceRecord, error)
	// Append 条件追加：仅当员工账本版本仍为 expectedVersion 时写入，否则返回 ErrOptimisticLock
	Append(ctx context.Context, record *model.AttendanceRecord, expectedVersion int64) error
	GetByID(ctx context.Context, id string) (*model.AttendanceRecord, error)
	// Amend 条件更新已有记录，同样推进员工账本版本
	Amend(ctx context.Context, record *model.AttendanceRecord, expectedVersion int64) error
	List(ctx context.Context, filter AttendanceFilter) ([]model.AttendanceRecord, error)
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) Latest(ctx context.Context, employeeRef string) (*model.AttendanceRecord, error) {
	var record model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("employee_ref = ?", employeeRef).
		Order("timestamp DESC, seq DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRepo) Append(ctx context.Context, record *model.AttendanceRecord, expectedVersion int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bumpLedgerVersion(tx, record.EmployeeRef, expectedVersion); err != nil {
			return err
		}
		record.Seq = expectedVersion + 1
		return tx.Omit(clause.Associations).Create(record).Error
	})
}

func (r *attendanceRepo) GetByID(ctx context.Context, id string) (*model.AttendanceRecord, error) {
	var record model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Where("id = ?", id).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRepo) Amend(ctx context.Context, record *model.AttendanceRecord, expectedVersion int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bumpLedgerVersion(tx, record.EmployeeRef, expectedVersion); err != nil {
			return err
		}
		return tx.Model(record).
			Omit(clause.Associations).
			Select("type", "timestamp", "location", "verified", "verification_method", "notes", "updated_at", "updated_by").
			Updates(record).Error
	})
}

func (r *attendanceRepo) List(ctx context.Context, filter AttendanceFilter) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord

	db := r.db.WithContext(ctx).Preload("Employee")
	if filter.EmployeeRef != "" {
		db = db.Where("employee_ref = ?", filter.EmployeeRef)
	}
	if filter.Type != "" {
		db = db.Where("type = ?", filter.Type)
	}
	if filter.Start != nil {
		db = db.Where("timestamp >= ?", *filter.Start)
	}
	if filter.End != nil {
		db = db.Where("timestamp <= ?", *filter.End)
	}

	if filter.Ascending {
		db = db.Order("timestamp ASC, seq ASC")
	} else {
		db = db.Order("timestamp DESC, seq DESC")
	}

	err := db.Find(&records).Error
	return records, err
}

// bumpLedgerVersion 以 version 比较推进员工账本版本，未命中说明已有并发写入
func bumpLedgerVersion(tx *gorm.DB, employeeRef string, expectedVersion int64) error {
	result := tx.Model(&model.Employee{}).
		Where("id = ? AND ledger_version = ?", employeeRef, expectedVersion).
		Update("ledger_version", expectedVersion+1)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}
