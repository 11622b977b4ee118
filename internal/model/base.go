package model

import "time"

// Timestamps 通用时间戳字段
type Timestamps struct {
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// BaseModel 通用审计字段（带操作人）
type BaseModel struct {
	Timestamps
	CreatedBy *string `gorm:"type:varchar(64)" json:"created_by,omitempty"`
	UpdatedBy *string `gorm:"type:varchar(64)" json:"updated_by,omitempty"`
}
