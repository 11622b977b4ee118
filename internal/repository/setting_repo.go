package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"face-attendance/internal/model"
)

// SettingRepository 系统设置数据访问接口
type SettingRepository interface {
	Get(ctx context.Context, name string) (*model.Setting, error)
	List(ctx context.Context, category string) ([]model.Setting, error)
	// Upsert 按 name 原子地新建或覆盖 value / updated_at / updated_by
	Upsert(ctx context.Context, setting *model.Setting) error
	// InsertIfAbsent 仅插入 name 不存在的设置，返回实际插入条数
	InsertIfAbsent(ctx context.Context, settings []model.Setting) (int64, error)
}

type settingRepo struct {
	db *gorm.DB
}

// NewSettingRepo 创建 SettingRepository 实例
func NewSettingRepo(db *gorm.DB) SettingRepository {
	return &settingRepo{db: db}
}

func (r *settingRepo) Get(ctx context.Context, name string) (*model.Setting, error) {
	var setting model.Setting
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *settingRepo) List(ctx context.Context, category string) ([]model.Setting, error) {
	var settings []model.Setting
	db := r.db.WithContext(ctx)
	if category != "" {
		db = db.Where("category = ?", category)
	}
	err := db.Order("category ASC, name ASC").Find(&settings).Error
	return settings, err
}

func (r *settingRepo) Upsert(ctx context.Context, setting *model.Setting) error {
	return r.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at", "updated_by"}),
			},
			clause.Returning{},
		).
		Create(setting).Error
}

func (r *settingRepo) InsertIfAbsent(ctx context.Context, settings []model.Setting) (int64, error) {
	if len(settings) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(&settings)
	return result.RowsAffected, result.Error
}
