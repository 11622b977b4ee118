package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ── 多态配置值 ──

// SettingValue 配置值：布尔、数字或字符串，以 JSON 文本落库。
// 存储层不做按键的类型校验，由使用方读取时校验。
type SettingValue struct {
	v interface{}
}

// NewSettingValue 构造配置值，仅接受 bool / 数字 / string
func NewSettingValue(v interface{}) (SettingValue, error) {
	switch x := v.(type) {
	case bool, string, float64:
		return SettingValue{v: x}, nil
	case int:
		return SettingValue{v: float64(x)}, nil
	case int64:
		return SettingValue{v: float64(x)}, nil
	case float32:
		return SettingValue{v: float64(x)}, nil
	default:
		return SettingValue{}, fmt.Errorf("SettingValue: unsupported type %T", v)
	}
}

// MustSettingValue 同 NewSettingValue，类型不支持时 panic（仅用于常量默认值）
func MustSettingValue(v interface{}) SettingValue {
	sv, err := NewSettingValue(v)
	if err != nil {
		panic(err)
	}
	return sv
}

// Raw 返回原始值
func (s SettingValue) Raw() interface{} { return s.v }

// IsZero 是否未赋值
func (s SettingValue) IsZero() bool { return s.v == nil }

// Bool 按布尔读取
func (s SettingValue) Bool() (bool, bool) {
	b, ok := s.v.(bool)
	return b, ok
}

// Number 按数字读取
func (s SettingValue) Number() (float64, bool) {
	n, ok := s.v.(float64)
	return n, ok
}

// Text 按字符串读取
func (s SettingValue) Text() (string, bool) {
	str, ok := s.v.(string)
	return str, ok
}

// MarshalJSON 实现 json.Marshaler
func (s SettingValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.v)
}

// UnmarshalJSON 实现 json.Unmarshaler，拒绝 null / 对象 / 数组
func (s *SettingValue) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	sv, err := NewSettingValue(v)
	if err != nil {
		return err
	}
	*s = sv
	return nil
}

// Scan 实现 sql.Scanner
func (s *SettingValue) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return s.UnmarshalJSON(v)
	case string:
		return s.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("SettingValue.Scan: unsupported type %T", src)
	}
}

// Value 实现 driver.Valuer
func (s SettingValue) Value() (driver.Value, error) {
	b, err := json.Marshal(s.v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Setting 系统设置表 — 对应 settings（按 name 唯一，按 category 分组展示）
type Setting struct {
	ID          string       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name        string       `gorm:"type:varchar(100);not null;uniqueIndex"         json:"name"`
	Category    string       `gorm:"type:varchar(50);not null"                      json:"category"`
	Value       SettingValue `gorm:"type:text;not null"                             json:"value"`
	Description string       `gorm:"type:varchar(255);not null"                     json:"description"`
	UpdatedAt   time.Time    `gorm:"not null"                                       json:"updated_at"`
	UpdatedBy   *string      `gorm:"type:varchar(64)"                               json:"updated_by,omitempty"`
}

// TableName 指定表名
func (Setting) TableName() string { return "settings" }
