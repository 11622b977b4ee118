package service

import (
	"sort"
	"time"

	"face-attendance/internal/model"
)

// WorkHours 上下班时刻，用于标记迟到与早退
type WorkHours struct {
	Start Clock
	End   Clock
}

// DaySummary 员工在某个自然日的考勤汇总。
// 不假定记录严格交替：重复的 CHECK_IN 以最后一次为准开启时段，
// 没有对应 CHECK_IN 的 CHECK_OUT 不计入时长。
type DaySummary struct {
	Employee          *model.Employee
	Date              time.Time // 当日零点（报表时区）
	FirstCheckIn      *time.Time
	LastCheckOut      *time.Time
	CompletedSessions int
	CompletedDuration time.Duration
	OpenSince         *time.Time // 未结束时段的开始时间，不计入时长
	RecordCount       int
	DuplicateInstant  bool // 存在时间戳完全相同的记录
	RepeatedCheckIns  int
	OrphanCheckOuts   int
	Late              bool
	EarlyLeave        bool
}

// OpenSession 是否存在未结束的时段
func (d *DaySummary) OpenSession() bool { return d.OpenSince != nil }

// OddRecordCount 记录数为奇数
func (d *DaySummary) OddRecordCount() bool { return d.RecordCount%2 == 1 }

type summaryKey struct {
	employeeRef string
	day         string
}

// Summarize 按员工与自然日（loc 时区）汇总记录，结果按日期、工号排序。
// hours 为 nil 时不计算迟到早退。
func Summarize(records []model.AttendanceRecord, loc *time.Location, hours *WorkHours) []DaySummary {
	sorted := make([]model.AttendanceRecord, len(records))
	copy(sorted, records)
	SortRecords(sorted)

	groups := make(map[summaryKey][]*model.AttendanceRecord)
	var keys []summaryKey
	for i := range sorted {
		r := &sorted[i]
		key := summaryKey{employeeRef: r.EmployeeRef, day: r.Timestamp.In(loc).Format(dateLayout)}
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], r)
	}

	summaries := make([]DaySummary, 0, len(keys))
	for _, key := range keys {
		summaries = append(summaries, summarizeDay(groups[key], loc, hours))
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if !summaries[i].Date.Equal(summaries[j].Date) {
			return summaries[i].Date.Before(summaries[j].Date)
		}
		return employeeIDOf(summaries[i].Employee) < employeeIDOf(summaries[j].Employee)
	})
	return summaries
}

func summarizeDay(records []*model.AttendanceRecord, loc *time.Location, hours *WorkHours) DaySummary {
	first := records[0]
	y, m, d := first.Timestamp.In(loc).Date()

	summary := DaySummary{
		Employee:    first.Employee,
		Date:        time.Date(y, m, d, 0, 0, 0, 0, loc),
		RecordCount: len(records),
	}

	var open *time.Time
	for i, r := range records {
		ts := r.Timestamp
		if i > 0 && ts.Equal(records[i-1].Timestamp) {
			summary.DuplicateInstant = true
		}

		switch r.Type {
		case model.CheckIn:
			if summary.FirstCheckIn == nil {
				summary.FirstCheckIn = &ts
			}
			if open != nil {
				summary.RepeatedCheckIns++
			}
			open = &ts
		case model.CheckOut:
			summary.LastCheckOut = &ts
			if open == nil {
				summary.OrphanCheckOuts++
				continue
			}
			summary.CompletedDuration += ts.Sub(*open)
			summary.CompletedSessions++
			open = nil
		}
	}
	summary.OpenSince = open

	if hours != nil {
		if summary.FirstCheckIn != nil {
			summary.Late = summary.FirstCheckIn.In(loc).After(hours.Start.On(summary.Date))
		}
		if summary.LastCheckOut != nil && !summary.OpenSession() {
			summary.EarlyLeave = summary.LastCheckOut.In(loc).Before(hours.End.On(summary.Date))
		}
	}
	return summary
}

func employeeIDOf(e *model.Employee) string {
	if e == nil {
		return ""
	}
	return e.EmployeeID
}
