package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"face-attendance/internal/dto"
	pkgerrors "face-attendance/pkg/errors"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = pkgerrors.New(pkgerrors.KindInternal, "生成 Excel 文件失败")

const (
	detailSheet  = "考勤明细"
	summarySheet = "每日汇总"
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response；
// 日报邮件复用同一份工作簿作为附件。
type ExportService interface {
	// ExportRange 导出时间窗口内的考勤明细与每日汇总
	ExportRange(ctx context.Context, req *dto.RangeReportRequest) (*bytes.Buffer, string, error)
	// Workbook 将报表写为 Excel
	Workbook(report *Report) (*bytes.Buffer, error)
}

type exportService struct {
	reports ReportService
	logger  *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(reports ReportService, logger *zap.Logger) ExportService {
	return &exportService{reports: reports, logger: logger}
}

// ────────────────────── ExportRange ──────────────────────

func (s *exportService) ExportRange(ctx context.Context, req *dto.RangeReportRequest) (*bytes.Buffer, string, error) {
	report, err := s.reports.BuildRange(ctx, req)
	if err != nil {
		return nil, "", err
	}

	buf, err := s.Workbook(report)
	if err != nil {
		return nil, "", err
	}

	start := report.Start.In(report.Location).Format(dateLayout)
	end := report.End.In(report.Location).Format(dateLayout)
	filename := fmt.Sprintf("考勤报表_%s_%s.xlsx", start, end)
	if req.EmployeeID != "" {
		filename = fmt.Sprintf("考勤报表_%s_%s_%s.xlsx", req.EmployeeID, start, end)
	}
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// Workbook 生成工作簿
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "考勤明细"：每条记录一行，按时间升序
//   - Sheet "每日汇总"：每位员工每天一行

func (s *exportService) Workbook(report *Report) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, _ := f.NewSheet(detailSheet)
	f.SetActiveSheet(idx)
	f.NewSheet(summarySheet)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	loc := report.Location
	format := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.In(loc).Format("2006-01-02 15:04:05")
	}

	// ── 明细 ──
	detailHeader := []string{"工号", "姓名", "部门", "类型", "时间", "地点", "核验方式", "已核验", "置信度", "备注"}
	writeHeader(f, detailSheet, detailHeader, headerStyle)
	for i := range report.Records {
		r := &report.Records[i]
		row := i + 2
		employeeID, name, dept := "", "", ""
		if r.Employee != nil {
			employeeID, name, dept = r.Employee.EmployeeID, r.Employee.Name, r.Employee.Department
		}
		confidence := ""
		if r.Confidence != nil {
			confidence = fmt.Sprintf("%.1f", *r.Confidence)
		}
		ts := r.Timestamp
		values := []interface{}{
			employeeID, name, dept, typeLabel(string(r.Type)), format(&ts),
			r.Location, string(r.VerificationMethod), yesNo(r.Verified), confidence, r.Notes,
		}
		for col, v := range values {
			f.SetCellValue(detailSheet, cell(colName(col), row), v)
		}
	}
	setColWidths(f, detailSheet, []float64{10, 12, 14, 8, 20, 16, 14, 8, 8, 30})

	// ── 汇总 ──
	summaryHeader := []string{"日期", "工号", "姓名", "部门", "首次签到", "最后签退", "完成时段", "工作时长", "未结束时段", "记录数", "重复签到", "孤立签退", "迟到", "早退"}
	writeHeader(f, summarySheet, summaryHeader, headerStyle)
	for i := range report.Summaries {
		d := &report.Summaries[i]
		row := i + 2
		employeeID, name, dept := "", "", ""
		if d.Employee != nil {
			employeeID, name, dept = d.Employee.EmployeeID, d.Employee.Name, d.Employee.Department
		}
		values := []interface{}{
			d.Date.Format(dateLayout), employeeID, name, dept,
			format(d.FirstCheckIn), format(d.LastCheckOut),
			d.CompletedSessions, formatDuration(d.CompletedDuration), format(d.OpenSince), d.RecordCount,
			d.RepeatedCheckIns, d.OrphanCheckOuts, yesNo(d.Late), yesNo(d.EarlyLeave),
		}
		for col, v := range values {
			f.SetCellValue(summarySheet, cell(colName(col), row), v)
		}
	}
	setColWidths(f, summarySheet, []float64{12, 10, 12, 14, 20, 20, 10, 10, 20, 8, 10, 10, 6, 6})

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return buf, nil
}

// ── 辅助函数 ──

func writeHeader(f *excelize.File, sheet string, header []string, style int) {
	for i, h := range header {
		f.SetCellValue(sheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheet, "A1", cell(colName(len(header)-1), 1), style)
}

func setColWidths(f *excelize.File, sheet string, widths []float64) {
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(sheet, col, col, w)
	}
}

func typeLabel(t string) string {
	switch t {
	case "CHECK_IN":
		return "签到"
	case "CHECK_OUT":
		return "签退"
	}
	return t
}

func yesNo(b bool) string {
	if b {
		return "是"
	}
	return "否"
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
