package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"face-attendance/internal/dto"
	"face-attendance/internal/model"
	"face-attendance/internal/repository"
	pkgerrors "face-attendance/pkg/errors"
)

// ── 系统设置模块业务错误 ──

var (
	ErrSettingNotFound      = pkgerrors.New(pkgerrors.KindNotFound, "设置项不存在")
	ErrSettingNameInvalid   = pkgerrors.New(pkgerrors.KindValidation, "设置名称不合法")
	ErrSettingValueRequired = pkgerrors.New(pkgerrors.KindValidation, "设置值不能为空，仅支持布尔、数字或字符串")
)

// 已知设置项名称
const (
	SettingFaceDetectionEnabled      = "faceDetectionEnabled"
	SettingRequireConfirmation       = "requireConfirmation"
	SettingConfidenceThreshold       = "confidenceThreshold"
	SettingEmailNotificationsEnabled = "emailNotificationsEnabled"
	SettingDailyReportsEnabled       = "dailyReportsEnabled"
	SettingWorkHoursStart            = "workHoursStart"
	SettingWorkHoursEnd              = "workHoursEnd"
)

// settingDefault 默认设置项
type settingDefault struct {
	Name        string
	Category    string
	Value       model.SettingValue
	Description string
}

var defaultSettings = []settingDefault{
	{SettingFaceDetectionEnabled, "faceRecognition", model.MustSettingValue(true), "是否启用人脸识别"},
	{SettingRequireConfirmation, "faceRecognition", model.MustSettingValue(true), "手工打卡是否需要人工确认"},
	{SettingConfidenceThreshold, "faceRecognition", model.MustSettingValue(75), "人脸匹配最低置信度（0-100）"},
	{SettingEmailNotificationsEnabled, "notifications", model.MustSettingValue(true), "是否发送邮件通知"},
	{SettingDailyReportsEnabled, "notifications", model.MustSettingValue(true), "是否发送考勤日报"},
	{SettingWorkHoursStart, "workHours", model.MustSettingValue("09:00"), "上班时间（HH:MM）"},
	{SettingWorkHoursEnd, "workHours", model.MustSettingValue("17:00"), "下班时间（HH:MM）"},
}

func lookupDefault(name string) (settingDefault, bool) {
	for _, d := range defaultSettings {
		if d.Name == name {
			return d, true
		}
	}
	return settingDefault{}, false
}

// Clock 一天中的时刻（HH:MM）
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock 解析 "HH:MM"
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return Clock{}, fmt.Errorf("时刻格式应为 HH:MM: %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return Clock{}, fmt.Errorf("小时不合法: %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return Clock{}, fmt.Errorf("分钟不合法: %q", s)
	}
	return Clock{Hour: h, Minute: m}, nil
}

// On 返回 day 所在自然日（day 的时区）中该时刻
func (c Clock) On(day time.Time) time.Time {
	y, mo, d := day.Date()
	return time.Date(y, mo, d, c.Hour, c.Minute, 0, 0, day.Location())
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// SettingReader 按类型读取设置。
// 值缺失、类型不符或越界时记录告警并退回默认值，读取方无需处理错误。
type SettingReader interface {
	Bool(ctx context.Context, name string) bool
	Int(ctx context.Context, name string, min, max int) int
	Clock(ctx context.Context, name string) (Clock, bool)
}

// SettingService 系统设置业务接口
type SettingService interface {
	Get(ctx context.Context, name string) (*dto.SettingResponse, error)
	List(ctx context.Context, category string) (dto.SettingsByCategory, error)
	// Upsert 按名称新建或覆盖设置值，同名并发写入以最后一次为准
	Upsert(ctx context.Context, name string, req *dto.UpsertSettingRequest, callerID string) (*dto.SettingResponse, error)
	// InitializeDefaults 补齐缺失的默认设置，已存在的值不会被覆盖
	InitializeDefaults(ctx context.Context, callerID string) (*dto.InitializeSettingsResponse, error)
	SettingReader
}

type settingService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSettingService 创建 SettingService 实例
func NewSettingService(repo *repository.Repository, logger *zap.Logger) SettingService {
	return &settingService{repo: repo, logger: logger}
}

// ────────────────────── Get ──────────────────────

func (s *settingService) Get(ctx context.Context, name string) (*dto.SettingResponse, error) {
	setting, err := s.repo.Setting.Get(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}
		s.logger.Error("查询设置失败", zap.String("name", name), zap.Error(err))
		return nil, err
	}
	return toSettingResponse(setting), nil
}

// ────────────────────── List ──────────────────────

func (s *settingService) List(ctx context.Context, category string) (dto.SettingsByCategory, error) {
	settings, err := s.repo.Setting.List(ctx, category)
	if err != nil {
		s.logger.Error("列出设置失败", zap.String("category", category), zap.Error(err))
		return nil, err
	}

	result := make(dto.SettingsByCategory)
	for _, st := range settings {
		group, ok := result[st.Category]
		if !ok {
			group = make(map[string]interface{})
			result[st.Category] = group
		}
		group[st.Name] = st.Value.Raw()
	}
	return result, nil
}

// ────────────────────── Upsert ──────────────────────

func (s *settingService) Upsert(ctx context.Context, name string, req *dto.UpsertSettingRequest, callerID string) (*dto.SettingResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return nil, ErrSettingNameInvalid
	}
	if req.Value.IsZero() {
		return nil, ErrSettingValueRequired
	}

	// 新建时沿用默认项的分类与描述，未知名称归入 general
	category, description := "general", ""
	if d, ok := lookupDefault(name); ok {
		category, description = d.Category, d.Description
	}

	setting := &model.Setting{
		Name:        name,
		Category:    category,
		Value:       req.Value,
		Description: description,
		UpdatedAt:   time.Now(),
		UpdatedBy:   &callerID,
	}
	if err := s.repo.Setting.Upsert(ctx, setting); err != nil {
		s.logger.Error("写入设置失败", zap.String("name", name), zap.Error(err))
		return nil, err
	}

	s.logger.Info("设置已更新",
		zap.String("name", name),
		zap.Any("value", req.Value.Raw()),
		zap.String("updated_by", callerID),
	)
	return toSettingResponse(setting), nil
}

// ────────────────────── InitializeDefaults ──────────────────────

func (s *settingService) InitializeDefaults(ctx context.Context, callerID string) (*dto.InitializeSettingsResponse, error) {
	now := time.Now()
	settings := make([]model.Setting, 0, len(defaultSettings))
	for _, d := range defaultSettings {
		st := model.Setting{
			Name:        d.Name,
			Category:    d.Category,
			Value:       d.Value,
			Description: d.Description,
			UpdatedAt:   now,
		}
		if callerID != "" {
			st.UpdatedBy = &callerID
		}
		settings = append(settings, st)
	}

	inserted, err := s.repo.Setting.InsertIfAbsent(ctx, settings)
	if err != nil {
		s.logger.Error("初始化默认设置失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("默认设置初始化完成", zap.Int64("inserted", inserted), zap.Int("total", len(settings)))
	return &dto.InitializeSettingsResponse{Inserted: inserted, Total: len(settings)}, nil
}

// ────────────────────── 类型化读取 ──────────────────────

// load 读取设置值，缺失或出错时返回默认值
func (s *settingService) load(ctx context.Context, name string) model.SettingValue {
	d, _ := lookupDefault(name)

	setting, err := s.repo.Setting.Get(ctx, name)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("读取设置失败，使用默认值", zap.String("name", name), zap.Error(err))
		}
		return d.Value
	}
	return setting.Value
}

func (s *settingService) Bool(ctx context.Context, name string) bool {
	if b, ok := s.load(ctx, name).Bool(); ok {
		return b
	}
	d, _ := lookupDefault(name)
	b, _ := d.Value.Bool()
	s.logger.Warn("设置值不是布尔类型，使用默认值", zap.String("name", name), zap.Bool("default", b))
	return b
}

func (s *settingService) Int(ctx context.Context, name string, min, max int) int {
	d, _ := lookupDefault(name)
	def, _ := d.Value.Number()

	n, ok := s.load(ctx, name).Number()
	if !ok || math.IsNaN(n) || n < float64(min) || n > float64(max) {
		s.logger.Warn("设置值不是合法整数，使用默认值",
			zap.String("name", name), zap.Int("min", min), zap.Int("max", max), zap.Float64("default", def))
		return int(def)
	}
	return int(n)
}

func (s *settingService) Clock(ctx context.Context, name string) (Clock, bool) {
	if text, ok := s.load(ctx, name).Text(); ok {
		if c, err := ParseClock(text); err == nil {
			return c, true
		}
	}

	d, ok := lookupDefault(name)
	if !ok {
		return Clock{}, false
	}
	s.logger.Warn("设置值不是合法时刻，使用默认值", zap.String("name", name))
	text, _ := d.Value.Text()
	c, err := ParseClock(text)
	return c, err == nil
}

func toSettingResponse(st *model.Setting) *dto.SettingResponse {
	resp := &dto.SettingResponse{
		Name:        st.Name,
		Category:    st.Category,
		Value:       st.Value.Raw(),
		Description: st.Description,
		UpdatedAt:   st.UpdatedAt.Format(time.RFC3339),
	}
	if st.UpdatedBy != nil {
		resp.UpdatedBy = *st.UpdatedBy
	}
	return resp
}
