package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"face-attendance/config"
	"face-attendance/internal/dto"
	"face-attendance/internal/model"
	"face-attendance/internal/repository"
	pkgerrors "face-attendance/pkg/errors"
)

// ErrInvalidReportDate 日报日期格式错误
var ErrInvalidReportDate = pkgerrors.New(pkgerrors.KindValidation, "日期格式应为 YYYY-MM-DD")

// Report 一个时间窗口内的明细与每日汇总
type Report struct {
	Start     time.Time
	End       time.Time
	Location  *time.Location
	Records   []model.AttendanceRecord // 按账本顺序升序
	Summaries []DaySummary
}

// ReportService 考勤报表业务接口
type ReportService interface {
	// Daily 指定自然日（报表时区）的日报，date 为空时取今天
	Daily(ctx context.Context, req *dto.DailyReportRequest) (*dto.ReportResponse, error)
	Range(ctx context.Context, req *dto.RangeReportRequest) (*dto.ReportResponse, error)
	// BuildDaily / BuildRange 返回未转换的报表，供导出与邮件使用
	BuildDaily(ctx context.Context, date string) (*Report, error)
	BuildRange(ctx context.Context, req *dto.RangeReportRequest) (*Report, error)
}

type reportService struct {
	loc      *time.Location
	repo     *repository.Repository
	settings SettingReader
	logger   *zap.Logger
	now      func() time.Time
}

// NewReportService 创建 ReportService 实例
func NewReportService(
	cfg *config.AttendanceConfig,
	repo *repository.Repository,
	settings SettingReader,
	logger *zap.Logger,
) ReportService {
	return &reportService{
		loc:      cfg.Location(),
		repo:     repo,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// ────────────────────── Daily ──────────────────────

func (s *reportService) Daily(ctx context.Context, req *dto.DailyReportRequest) (*dto.ReportResponse, error) {
	report, err := s.BuildDaily(ctx, req.Date)
	if err != nil {
		return nil, err
	}
	return s.toReportResponse(report), nil
}

func (s *reportService) BuildDaily(ctx context.Context, date string) (*Report, error) {
	day := s.now().In(s.loc)
	if date = strings.TrimSpace(date); date != "" {
		parsed, err := time.ParseInLocation(dateLayout, date, s.loc)
		if err != nil {
			return nil, ErrInvalidReportDate
		}
		day = parsed
	}

	start, end := dayBounds(day, s.loc)
	return s.build(ctx, start, end, "")
}

// ────────────────────── Range ──────────────────────

func (s *reportService) Range(ctx context.Context, req *dto.RangeReportRequest) (*dto.ReportResponse, error) {
	report, err := s.BuildRange(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.toReportResponse(report), nil
}

func (s *reportService) BuildRange(ctx context.Context, req *dto.RangeReportRequest) (*Report, error) {
	start, end, err := parseRange(req.Start, req.End, s.loc)
	if err != nil {
		return nil, err
	}
	if start == nil || end == nil {
		return nil, ErrInvalidTimeBound
	}

	employeeRef := ""
	if id := strings.TrimSpace(req.EmployeeID); id != "" {
		employee, err := s.repo.Employee.GetByEmployeeID(ctx, id)
		if err != nil {
			return nil, notFoundOr(err, ErrEmployeeNotFound)
		}
		employeeRef = employee.ID
	}

	return s.build(ctx, *start, *end, employeeRef)
}

// ────────────────────── 内部方法 ──────────────────────

func (s *reportService) build(ctx context.Context, start, end time.Time, employeeRef string) (*Report, error) {
	records, err := s.repo.Attendance.List(ctx, repository.AttendanceFilter{
		EmployeeRef: employeeRef,
		Start:       &start,
		End:         &end,
		Ascending:   true,
	})
	if err != nil {
		s.logger.Error("查询报表记录失败",
			zap.Time("start", start), zap.Time("end", end), zap.Error(err))
		return nil, err
	}
	SortRecords(records)

	var hours *WorkHours
	startClock, okStart := s.settings.Clock(ctx, SettingWorkHoursStart)
	endClock, okEnd := s.settings.Clock(ctx, SettingWorkHoursEnd)
	if okStart && okEnd {
		hours = &WorkHours{Start: startClock, End: endClock}
	}

	return &Report{
		Start:     start,
		End:       end,
		Location:  s.loc,
		Records:   records,
		Summaries: Summarize(records, s.loc, hours),
	}, nil
}

func (s *reportService) toReportResponse(report *Report) *dto.ReportResponse {
	format := func(t time.Time) string { return t.In(s.loc).Format(timestampLayout) }

	entries := make([]dto.ReportEntry, 0, len(report.Records))
	for i := range report.Records {
		r := &report.Records[i]
		entry := dto.ReportEntry{
			Record: dto.AttendanceRecordResponse{
				ID:                 r.ID,
				Type:               string(r.Type),
				Timestamp:          format(r.Timestamp),
				Location:           r.Location,
				Verified:           r.Verified,
				VerificationMethod: string(r.VerificationMethod),
				Confidence:         r.Confidence,
				Notes:              r.Notes,
			},
		}
		if summary := toEmployeeSummary(r.Employee); summary != nil {
			entry.Employee = *summary
		}
		entries = append(entries, entry)
	}

	summaries := make([]dto.DaySummaryResponse, 0, len(report.Summaries))
	for i := range report.Summaries {
		d := &report.Summaries[i]
		resp := dto.DaySummaryResponse{
			Date:                     d.Date.Format(dateLayout),
			CompletedSessions:        d.CompletedSessions,
			CompletedDurationSeconds: int64(d.CompletedDuration / time.Second),
			CompletedDuration:        formatDuration(d.CompletedDuration),
			OpenSession:              d.OpenSession(),
			RecordCount:              d.RecordCount,
			OddRecordCount:           d.OddRecordCount(),
			DuplicateInstant:         d.DuplicateInstant,
			RepeatedCheckIns:         d.RepeatedCheckIns,
			OrphanCheckOuts:          d.OrphanCheckOuts,
			Late:                     d.Late,
			EarlyLeave:               d.EarlyLeave,
		}
		if summary := toEmployeeSummary(d.Employee); summary != nil {
			resp.Employee = *summary
		}
		if d.FirstCheckIn != nil {
			resp.FirstCheckIn = format(*d.FirstCheckIn)
		}
		if d.LastCheckOut != nil {
			resp.LastCheckOut = format(*d.LastCheckOut)
		}
		if d.OpenSince != nil {
			resp.OpenSince = format(*d.OpenSince)
		}
		summaries = append(summaries, resp)
	}

	return &dto.ReportResponse{
		Start:     format(report.Start),
		End:       format(report.End),
		Entries:   entries,
		Summaries: summaries,
	}
}

// formatDuration 格式化为 "8h05m"
func formatDuration(d time.Duration) string {
	d = d.Truncate(time.Minute)
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}
