package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"face-attendance/config"
	"face-attendance/internal/dto"
	"face-attendance/internal/model"
)

func setupTestExportService() (ExportService, *memStore) {
	store := newMemStore()
	repo := store.repository()
	settings := NewSettingService(repo, zap.NewNop())
	reports := NewReportService(&config.AttendanceConfig{Timezone: "UTC"}, repo, settings, zap.NewNop())
	return NewExportService(reports, zap.NewNop()), store
}

func TestExportService_ExportRange(t *testing.T) {
	svc, store := setupTestExportService()
	e := seedEmployee(store, "EMP001", true, nil)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	seedRecord(store, e, model.CheckIn, at(day, 9, 0))
	seedRecord(store, e, model.CheckOut, at(day, 17, 5))
	seedRecord(store, e, model.CheckIn, at(day.AddDate(0, 0, 1), 8, 55))

	buf, filename, err := svc.ExportRange(context.Background(), &dto.RangeReportRequest{Start: "2024-03-01", End: "2024-03-02"})
	if err != nil {
		t.Fatalf("ExportRange 应成功: %v", err)
	}
	if filename != "考勤报表_2024-03-01_2024-03-02.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("应能打开生成的 Excel: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != detailSheet || sheets[1] != summarySheet {
		t.Errorf("工作表不符: %v", sheets)
	}

	rows, _ := f.GetRows(detailSheet)
	if len(rows) != 4 {
		t.Fatalf("明细期望表头 + 3 行，实际 %d", len(rows))
	}
	if rows[1][0] != "EMP001" || rows[1][3] != "签到" || rows[2][3] != "签退" {
		t.Errorf("明细行不符: %v / %v", rows[1], rows[2])
	}

	summary, _ := f.GetRows(summarySheet)
	if len(summary) != 3 {
		t.Fatalf("汇总期望表头 + 2 行，实际 %d", len(summary))
	}
	if summary[1][0] != "2024-03-01" || summary[1][7] != "8h05m" {
		t.Errorf("汇总行不符: %v", summary[1])
	}
	if summary[2][8] != "2024-03-02 08:55:00" {
		t.Errorf("次日应有未结束时段，实际 %v", summary[2])
	}
}

func TestExportService_FilenameWithEmployee(t *testing.T) {
	svc, store := setupTestExportService()
	seedEmployee(store, "EMP001", true, nil)

	_, filename, err := svc.ExportRange(context.Background(), &dto.RangeReportRequest{Start: "2024-03-01", End: "2024-03-31", EmployeeID: "EMP001"})
	if err != nil {
		t.Fatalf("ExportRange 应成功: %v", err)
	}
	if filename != "考勤报表_EMP001_2024-03-01_2024-03-31.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}
}
