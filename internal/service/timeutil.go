package service

import (
	"strings"
	"time"

	pkgerrors "face-attendance/pkg/errors"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// ErrInvalidTimeBound 时间参数无法解析
var ErrInvalidTimeBound = pkgerrors.New(pkgerrors.KindValidation, "时间格式应为 RFC3339 或 YYYY-MM-DD")

// ErrInvalidTimeRange 开始时间晚于结束时间
var ErrInvalidTimeRange = pkgerrors.New(pkgerrors.KindValidation, "开始时间不能晚于结束时间")

// dayBounds 返回 day 所在自然日（loc 时区）的 [00:00:00.000, 23:59:59.999]
func dayBounds(day time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := day.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end
}

// parseBound 解析查询边界，空串返回 nil。
// 纯日期按 loc 解释：作为开始取当日零点，作为结束取当日 23:59:59.999。
func parseBound(s string, loc *time.Location, isEnd bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return &t, nil
	}

	day, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return nil, ErrInvalidTimeBound
	}
	start, end := dayBounds(day, loc)
	if isEnd {
		return &end, nil
	}
	return &start, nil
}

// parseRange 解析一对边界并校验先后顺序
func parseRange(start, end string, loc *time.Location) (*time.Time, *time.Time, error) {
	from, err := parseBound(start, loc, false)
	if err != nil {
		return nil, nil, err
	}
	to, err := parseBound(end, loc, true)
	if err != nil {
		return nil, nil, err
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, nil, ErrInvalidTimeRange
	}
	return from, to, nil
}
