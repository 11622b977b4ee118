package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"go.uber.org/zap"

	"face-attendance/config"
	"face-attendance/internal/dto"
	pkgerrors "face-attendance/pkg/errors"
	"face-attendance/pkg/mail"
)

// 日报未发送原因
const (
	ReasonNotificationsDisabled = "notifications_disabled"
	ReasonDailyReportsDisabled  = "daily_reports_disabled"
	ReasonMailNotConfigured     = "mail_not_configured"
)

// Mailer 邮件发送抽象，生产环境为 SMTP 实现
type Mailer interface {
	Send(ctx context.Context, msg *mail.Message) error
}

// NotificationService 通知业务接口
type NotificationService interface {
	// SendDailyReport 生成指定日期的日报并以附件形式发给配置的收件人
	SendDailyReport(ctx context.Context, req *dto.DailyReportRequest) (*dto.SendReportResponse, error)
}

type notificationService struct {
	cfg      *config.MailConfig
	settings SettingReader
	reports  ReportService
	export   ExportService
	mailer   Mailer
	logger   *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例；mailer 为 nil 时视为未配置邮件
func NewNotificationService(
	cfg *config.MailConfig,
	settings SettingReader,
	reports ReportService,
	export ExportService,
	mailer Mailer,
	logger *zap.Logger,
) NotificationService {
	return &notificationService{
		cfg:      cfg,
		settings: settings,
		reports:  reports,
		export:   export,
		mailer:   mailer,
		logger:   logger,
	}
}

var dailyReportTmpl = template.Must(template.New("daily").Parse(`
<h3>考勤日报 {{.Date}}</h3>
<p>共 {{.Records}} 条记录，{{.Employees}} 人次出勤。</p>
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>工号</th><th>姓名</th><th>首次签到</th><th>最后签退</th><th>工作时长</th><th>备注</th></tr>
{{range .Rows}}<tr><td>{{.EmployeeID}}</td><td>{{.Name}}</td><td>{{.FirstCheckIn}}</td><td>{{.LastCheckOut}}</td><td>{{.Duration}}</td><td>{{.Flags}}</td></tr>
{{end}}</table>
<p>明细见附件。</p>
`))

type dailyReportRow struct {
	EmployeeID   string
	Name         string
	FirstCheckIn string
	LastCheckOut string
	Duration     string
	Flags        string
}

// ────────────────────── SendDailyReport ──────────────────────

func (s *notificationService) SendDailyReport(ctx context.Context, req *dto.DailyReportRequest) (*dto.SendReportResponse, error) {
	switch {
	case !s.settings.Bool(ctx, SettingEmailNotificationsEnabled):
		return &dto.SendReportResponse{Reason: ReasonNotificationsDisabled}, nil
	case !s.settings.Bool(ctx, SettingDailyReportsEnabled):
		return &dto.SendReportResponse{Reason: ReasonDailyReportsDisabled}, nil
	case s.mailer == nil || !s.cfg.Enabled():
		return &dto.SendReportResponse{Reason: ReasonMailNotConfigured}, nil
	}

	report, err := s.reports.BuildDaily(ctx, req.Date)
	if err != nil {
		return nil, err
	}
	date := report.Start.In(report.Location).Format(dateLayout)

	attachment, err := s.export.Workbook(report)
	if err != nil {
		return nil, err
	}

	body, err := renderDailyReport(report, date)
	if err != nil {
		s.logger.Error("渲染日报邮件失败", zap.Error(err))
		return nil, pkgerrors.Wrap(pkgerrors.KindInternal, "生成日报邮件失败", err)
	}

	msg := &mail.Message{
		To:       s.cfg.ReportRecipients,
		Subject:  fmt.Sprintf("考勤日报 %s", date),
		HTMLBody: body,
		Attachments: []mail.Attachment{
			{Filename: fmt.Sprintf("考勤日报_%s.xlsx", date), Content: attachment.Bytes()},
		},
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("发送日报邮件失败", zap.String("date", date), zap.Error(err))
		return nil, pkgerrors.Wrap(pkgerrors.KindInternal, "发送日报邮件失败", err)
	}

	s.logger.Info("日报邮件已发送",
		zap.String("date", date),
		zap.Strings("recipients", s.cfg.ReportRecipients),
		zap.Int("records", len(report.Records)),
	)
	return &dto.SendReportResponse{
		Sent:       true,
		Recipients: s.cfg.ReportRecipients,
		Records:    len(report.Records),
	}, nil
}

func renderDailyReport(report *Report, date string) (string, error) {
	format := func(d *DaySummary, first bool) string {
		t := d.LastCheckOut
		if first {
			t = d.FirstCheckIn
		}
		if t == nil {
			return "-"
		}
		return t.In(report.Location).Format("15:04")
	}

	rows := make([]dailyReportRow, 0, len(report.Summaries))
	for i := range report.Summaries {
		d := &report.Summaries[i]
		row := dailyReportRow{
			FirstCheckIn: format(d, true),
			LastCheckOut: format(d, false),
			Duration:     formatDuration(d.CompletedDuration),
		}
		if d.Employee != nil {
			row.EmployeeID, row.Name = d.Employee.EmployeeID, d.Employee.Name
		}
		switch {
		case d.OpenSession():
			row.Flags = "未签退"
		case d.Late && d.EarlyLeave:
			row.Flags = "迟到、早退"
		case d.Late:
			row.Flags = "迟到"
		case d.EarlyLeave:
			row.Flags = "早退"
		}
		rows = append(rows, row)
	}

	var buf bytes.Buffer
	err := dailyReportTmpl.Execute(&buf, map[string]interface{}{
		"Date":      date,
		"Records":   len(report.Records),
		"Employees": len(report.Summaries),
		"Rows":      rows,
	})
	return buf.String(), err
}
