package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"face-attendance/config"
	"face-attendance/internal/dto"
	"face-attendance/internal/model"
	"face-attendance/internal/repository"
	pkgerrors "face-attendance/pkg/errors"
)

// ── 考勤账本模块业务错误 ──

var (
	ErrRecordNotFound        = pkgerrors.New(pkgerrors.KindNotFound, "考勤记录不存在")
	ErrInvalidAttendanceType = pkgerrors.New(pkgerrors.KindValidation, "考勤类型只能是 CHECK_IN 或 CHECK_OUT")
	ErrInvalidVerification   = pkgerrors.New(pkgerrors.KindValidation, "核验方式只能是 FACE、MANUAL 或 ADMIN_OVERRIDE")
	ErrLedgerContention      = pkgerrors.New(pkgerrors.KindInternal, "打卡请求冲突过多，请稍后重试")
	ErrTimestampInFuture     = pkgerrors.New(pkgerrors.KindValidation, "考勤时间不能晚于当前时间")
	ErrBackfillRequiresType  = pkgerrors.New(pkgerrors.KindValidation, "补录时间早于最近一条记录，需显式指定考勤类型")
)

// AttendanceService 考勤账本业务接口
type AttendanceService interface {
	// Check 打卡：未指定类型时按当前状态推断（AWAY→CHECK_IN，PRESENT→CHECK_OUT）
	Check(ctx context.Context, req *dto.CheckRequest, callerID string) (*dto.AttendanceRecordResponse, error)
	// Amend 覆盖已有记录的部分字段，返回修改点之后的交替异常
	Amend(ctx context.Context, recordID string, req *dto.AmendAttendanceRequest, callerID string) (*dto.AmendAttendanceResponse, error)
	List(ctx context.Context, req *dto.AttendanceListRequest) ([]dto.AttendanceRecordResponse, error)
	ListByEmployee(ctx context.Context, employeeID string, req *dto.DateRangeRequest) ([]dto.AttendanceRecordResponse, error)
	Status(ctx context.Context, employeeID string) (*dto.AttendanceStatusResponse, error)
}

type attendanceService struct {
	cfg      *config.AttendanceConfig
	loc      *time.Location
	repo     *repository.Repository
	settings SettingReader
	locker   LedgerLocker
	logger   *zap.Logger
	now      func() time.Time
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(
	cfg *config.AttendanceConfig,
	repo *repository.Repository,
	settings SettingReader,
	locker LedgerLocker,
	logger *zap.Logger,
) AttendanceService {
	if locker == nil {
		locker = noopLocker{}
	}
	return &attendanceService{
		cfg:      cfg,
		loc:      cfg.Location(),
		repo:     repo,
		settings: settings,
		locker:   locker,
		logger:   logger,
		now:      time.Now,
	}
}

// ═══════════════════════════════════════════════════════════
// Check 追加一条考勤记录
// ═══════════════════════════════════════════════════════════
//
// 同一员工的并发请求通过账本版本号做条件追加：
// 读取版本 → 读取最近记录并推断类型 → 以读到的版本为条件写入。
// 版本已变化说明期间有其他写入，重新读取后再试，超过次数上限返回 ErrLedgerContention。

func (s *attendanceService) Check(ctx context.Context, req *dto.CheckRequest, callerID string) (*dto.AttendanceRecordResponse, error) {
	employee, err := s.findEmployee(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if !employee.Active {
		return nil, ErrEmployeeInactive
	}

	var explicit model.AttendanceType
	if req.Type != "" {
		explicit = model.AttendanceType(strings.ToUpper(req.Type))
		if !explicit.Valid() {
			return nil, ErrInvalidAttendanceType
		}
	}

	method := model.VerifyFace
	if req.VerificationMethod != "" {
		method = model.VerificationMethod(strings.ToUpper(req.VerificationMethod))
		if !method.Valid() {
			return nil, ErrInvalidVerification
		}
	}

	location := strings.TrimSpace(req.Location)
	if location == "" {
		location = s.cfg.DefaultLocation
	}

	// 未指定时间时在追加前取服务器时间，见 tryAppend
	var backfill *time.Time
	if req.Timestamp != nil {
		ts := eventTime(*req.Timestamp)
		if ts.After(s.now()) {
			return nil, ErrTimestampInFuture
		}
		backfill = &ts
	}

	draft := model.AttendanceRecord{
		EmployeeRef:        employee.ID,
		Location:           location,
		Verified:           s.verifiedFor(ctx, method),
		VerificationMethod: method,
		Confidence:         req.Confidence,
		Notes:              req.Notes,
	}
	if callerID != "" {
		draft.CreatedBy = &callerID
		draft.UpdatedBy = &callerID
	}

	attempts := s.cfg.MaxAppendAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		record := draft
		err := s.tryAppend(ctx, &record, explicit, backfill)
		if err == nil {
			record.Employee = employee
			s.logger.Info("打卡成功",
				zap.String("employee_id", employee.EmployeeID),
				zap.String("record_id", record.ID),
				zap.String("type", string(record.Type)),
				zap.String("verification_method", string(record.VerificationMethod)),
				zap.Int("attempt", attempt),
			)
			return s.toRecordResponse(&record), nil
		}

		if errors.Is(err, ErrBackfillRequiresType) {
			return nil, err
		}
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) && !errors.Is(err, errLedgerBusy) {
			s.logger.Error("追加考勤记录失败", zap.String("employee_id", employee.EmployeeID), zap.Error(err))
			return nil, pkgerrors.Wrap(pkgerrors.KindInternal, "写入考勤记录失败", err)
		}

		s.logger.Warn("账本并发冲突，重试追加",
			zap.String("employee_id", employee.EmployeeID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt < attempts {
			if err := sleepCtx(ctx, time.Duration(attempt)*20*time.Millisecond); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.KindInternal, "请求已取消", err)
			}
		}
	}

	s.logger.Error("账本并发冲突超过重试上限",
		zap.String("employee_id", employee.EmployeeID),
		zap.Int("attempts", attempts),
	)
	return nil, ErrLedgerContention
}

// tryAppend 单次条件追加
// 推断类型只看最近一条记录，因此自动打卡只能追加在账本末尾：
// 补录时间早于最近一条记录时必须显式指定类型。
func (s *attendanceService) tryAppend(ctx context.Context, record *model.AttendanceRecord, explicit model.AttendanceType, backfill *time.Time) error {
	release, err := s.locker.Lock(ctx, record.EmployeeRef)
	if err != nil {
		if errors.Is(err, errLedgerBusy) {
			return err
		}
		// Redis 不可用时仍可依赖数据库条件追加保证正确性
		s.logger.Warn("获取员工锁失败，降级为仅条件追加", zap.Error(err))
		release = func() {}
	}
	defer release()

	// 先读版本再读最近记录：两次读取之间若有写入，版本必然已变化，追加会被拒绝
	current, err := s.repo.Employee.GetByID(ctx, record.EmployeeRef)
	if err != nil {
		return err
	}

	latest, err := s.repo.Attendance.Latest(ctx, record.EmployeeRef)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := s.now()
	if backfill != nil {
		record.Timestamp = *backfill
	} else {
		// 多实例时钟偏差时不早于最近一条记录，保证仍追加在末尾
		record.Timestamp = eventTime(now)
		if latest != nil && latest.Timestamp.After(record.Timestamp) {
			record.Timestamp = latest.Timestamp
		}
	}

	typ := explicit
	if typ == "" {
		if latest != nil && latest.Timestamp.After(record.Timestamp) {
			return ErrBackfillRequiresType
		}
		typ = NextType(latest)
	}
	record.Type = typ

	record.CreatedAt = now
	record.UpdatedAt = now

	return s.repo.Attendance.Append(ctx, record, current.LedgerVersion)
}

// verifiedFor FACE 与 ADMIN_OVERRIDE 视为已核验；MANUAL 仅在无需人工确认时视为已核验
func (s *attendanceService) verifiedFor(ctx context.Context, method model.VerificationMethod) bool {
	if method == model.VerifyManual {
		return !s.settings.Bool(ctx, SettingRequireConfirmation)
	}
	return true
}

// ═══════════════════════════════════════════════════════════
// Amend 管理员修改记录
// ═══════════════════════════════════════════════════════════
//
// 修改不会改写下游记录，只在返回值中给出修改点之后出现的交替异常。

func (s *attendanceService) Amend(ctx context.Context, recordID string, req *dto.AmendAttendanceRequest, callerID string) (*dto.AmendAttendanceResponse, error) {
	attempts := s.cfg.MaxAppendAttempts
	if attempts < 1 {
		attempts = 1
	}

	var record *model.AttendanceRecord
	var pivot time.Time

	for attempt := 1; ; attempt++ {
		var err error
		record, pivot, err = s.tryAmend(ctx, recordID, req, callerID)
		if err == nil {
			break
		}
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, err
		}
		if attempt >= attempts {
			s.logger.Error("修改考勤记录冲突超过重试上限", zap.String("record_id", recordID))
			return nil, ErrLedgerContention
		}
		s.logger.Warn("修改考勤记录冲突，重试", zap.String("record_id", recordID), zap.Int("attempt", attempt))
		if err := sleepCtx(ctx, time.Duration(attempt)*20*time.Millisecond); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.KindInternal, "请求已取消", err)
		}
	}

	records, err := s.repo.Attendance.List(ctx, repository.AttendanceFilter{
		EmployeeRef: record.EmployeeRef,
		Ascending:   true,
	})
	if err != nil {
		s.logger.Error("校验账本交替规则失败", zap.String("record_id", recordID), zap.Error(err))
		return nil, err
	}
	SortRecords(records)

	anomalies := make([]dto.LedgerAnomaly, 0)
	for _, a := range FindAnomalies(records) {
		if a.Record.Timestamp.Before(pivot) {
			continue
		}
		anomalies = append(anomalies, dto.LedgerAnomaly{
			RecordID:  a.Record.ID,
			Timestamp: s.formatTime(a.Record.Timestamp),
			Type:      string(a.Record.Type),
			Kind:      a.Kind,
		})
	}

	employeeID := ""
	if record.Employee != nil {
		employeeID = record.Employee.EmployeeID
	}
	if len(anomalies) > 0 {
		s.logger.Warn("修改后账本存在交替异常",
			zap.String("employee_id", employeeID),
			zap.String("record_id", recordID),
			zap.Int("anomalies", len(anomalies)),
		)
	}
	s.logger.Info("考勤记录已修改",
		zap.String("employee_id", employeeID),
		zap.String("record_id", recordID),
		zap.String("updated_by", callerID),
	)

	return &dto.AmendAttendanceResponse{
		Record:    *s.toRecordResponse(record),
		Anomalies: anomalies,
	}, nil
}

// tryAmend 单次条件修改，返回修改后的记录与受影响的最早时间点
func (s *attendanceService) tryAmend(ctx context.Context, recordID string, req *dto.AmendAttendanceRequest, callerID string) (*model.AttendanceRecord, time.Time, error) {
	record, err := s.repo.Attendance.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, time.Time{}, ErrRecordNotFound
		}
		s.logger.Error("查询考勤记录失败", zap.String("record_id", recordID), zap.Error(err))
		return nil, time.Time{}, err
	}

	employee, err := s.repo.Employee.GetByID(ctx, record.EmployeeRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, time.Time{}, ErrEmployeeNotFound
		}
		return nil, time.Time{}, err
	}
	record.Employee = employee

	pivot := record.Timestamp

	if req.Type != nil {
		typ := model.AttendanceType(strings.ToUpper(*req.Type))
		if !typ.Valid() {
			return nil, time.Time{}, ErrInvalidAttendanceType
		}
		record.Type = typ
	}
	if req.VerificationMethod != nil {
		method := model.VerificationMethod(strings.ToUpper(*req.VerificationMethod))
		if !method.Valid() {
			return nil, time.Time{}, ErrInvalidVerification
		}
		record.VerificationMethod = method
	}
	if req.Timestamp != nil {
		record.Timestamp = eventTime(*req.Timestamp)
		if record.Timestamp.After(s.now()) {
			return nil, time.Time{}, ErrTimestampInFuture
		}
		if record.Timestamp.Before(pivot) {
			pivot = record.Timestamp
		}
	}
	if req.Location != nil {
		record.Location = strings.TrimSpace(*req.Location)
		if record.Location == "" {
			record.Location = s.cfg.DefaultLocation
		}
	}
	if req.Verified != nil {
		record.Verified = *req.Verified
	}
	if req.Notes != nil {
		record.Notes = *req.Notes
	}
	record.UpdatedAt = s.now()
	if callerID != "" {
		record.UpdatedBy = &callerID
	}

	if err := s.repo.Attendance.Amend(ctx, record, employee.LedgerVersion); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, time.Time{}, err
		}
		s.logger.Error("修改考勤记录失败", zap.String("record_id", recordID), zap.Error(err))
		return nil, time.Time{}, pkgerrors.Wrap(pkgerrors.KindInternal, "修改考勤记录失败", err)
	}
	return record, pivot, nil
}

// ────────────────────── List ──────────────────────

func (s *attendanceService) List(ctx context.Context, req *dto.AttendanceListRequest) ([]dto.AttendanceRecordResponse, error) {
	filter := repository.AttendanceFilter{}

	if req.EmployeeID != "" {
		employee, err := s.findEmployee(ctx, req.EmployeeID)
		if err != nil {
			return nil, err
		}
		filter.EmployeeRef = employee.ID
	}
	if req.Type != "" {
		filter.Type = model.AttendanceType(strings.ToUpper(req.Type))
		if !filter.Type.Valid() {
			return nil, ErrInvalidAttendanceType
		}
	}

	start, end, err := parseRange(req.Start, req.End, s.loc)
	if err != nil {
		return nil, err
	}
	filter.Start, filter.End = start, end

	return s.list(ctx, filter)
}

func (s *attendanceService) ListByEmployee(ctx context.Context, employeeID string, req *dto.DateRangeRequest) ([]dto.AttendanceRecordResponse, error) {
	employee, err := s.findEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	start, end, err := parseRange(req.Start, req.End, s.loc)
	if err != nil {
		return nil, err
	}

	return s.list(ctx, repository.AttendanceFilter{
		EmployeeRef: employee.ID,
		Start:       start,
		End:         end,
	})
}

func (s *attendanceService) list(ctx context.Context, filter repository.AttendanceFilter) ([]dto.AttendanceRecordResponse, error) {
	records, err := s.repo.Attendance.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询考勤记录失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.AttendanceRecordResponse, 0, len(records))
	for i := range records {
		result = append(result, *s.toRecordResponse(&records[i]))
	}
	return result, nil
}

// ────────────────────── Status ──────────────────────

func (s *attendanceService) Status(ctx context.Context, employeeID string) (*dto.AttendanceStatusResponse, error) {
	employee, err := s.findEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	latest, err := s.repo.Attendance.Latest(ctx, employee.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询最近考勤记录失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}

	resp := &dto.AttendanceStatusResponse{
		EmployeeID: employee.EmployeeID,
		State:      string(StateOf(latest)),
		NextType:   string(NextType(latest)),
	}
	if latest != nil {
		latest.Employee = employee
		resp.LastRecord = s.toRecordResponse(latest)
	}
	return resp, nil
}

// ────────────────────── 内部方法 ──────────────────────

func (s *attendanceService) findEmployee(ctx context.Context, employeeID string) (*model.Employee, error) {
	employee, err := s.repo.Employee.GetByEmployeeID(ctx, strings.TrimSpace(employeeID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		s.logger.Error("查询员工失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}
	return employee, nil
}

func (s *attendanceService) formatTime(t time.Time) string {
	return t.In(s.loc).Format(timestampLayout)
}

func (s *attendanceService) toRecordResponse(r *model.AttendanceRecord) *dto.AttendanceRecordResponse {
	return &dto.AttendanceRecordResponse{
		ID:                 r.ID,
		Employee:           toEmployeeSummary(r.Employee),
		Type:               string(r.Type),
		Timestamp:          s.formatTime(r.Timestamp),
		Location:           r.Location,
		Verified:           r.Verified,
		VerificationMethod: string(r.VerificationMethod),
		Confidence:         r.Confidence,
		Notes:              r.Notes,
	}
}

// eventTime 事件时间统一为 UTC 毫秒精度，与日报 [00:00:00.000, 23:59:59.999] 边界一致
func eventTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
