package service

import (
	"sort"

	"face-attendance/internal/model"
)

// LedgerState 员工当前在岗状态，由最近一条记录推导
type LedgerState string

const (
	StateAway    LedgerState = "AWAY"
	StatePresent LedgerState = "PRESENT"
)

// 交替规则异常类型
const (
	AnomalyConsecutiveCheckIn  = "consecutive_check_in"
	AnomalyConsecutiveCheckOut = "consecutive_check_out"
	AnomalyLeadingCheckOut     = "leading_check_out"
)

// Anomaly 违反 CHECK_IN / CHECK_OUT 交替规则的记录
type Anomaly struct {
	Record *model.AttendanceRecord
	Kind   string
}

// StateOf 无记录或最近一条为 CHECK_OUT 时为 AWAY，否则 PRESENT
func StateOf(latest *model.AttendanceRecord) LedgerState {
	if latest == nil || latest.Type == model.CheckOut {
		return StateAway
	}
	return StatePresent
}

// NextType AWAY 时下一次为 CHECK_IN，PRESENT 时为 CHECK_OUT
func NextType(latest *model.AttendanceRecord) model.AttendanceType {
	if StateOf(latest) == StateAway {
		return model.CheckIn
	}
	return model.CheckOut
}

// SortRecords 按账本顺序（时间戳、写入序号）升序排列
func SortRecords(records []model.AttendanceRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Before(&records[j])
	})
}

// FindAnomalies 检查单个员工的账本（需已按账本顺序升序），返回所有违反交替规则的记录
func FindAnomalies(records []model.AttendanceRecord) []Anomaly {
	var anomalies []Anomaly
	for i := range records {
		r := &records[i]
		if i == 0 {
			if r.Type == model.CheckOut {
				anomalies = append(anomalies, Anomaly{Record: r, Kind: AnomalyLeadingCheckOut})
			}
			continue
		}
		if records[i-1].Type != r.Type {
			continue
		}
		kind := AnomalyConsecutiveCheckIn
		if r.Type == model.CheckOut {
			kind = AnomalyConsecutiveCheckOut
		}
		anomalies = append(anomalies, Anomaly{Record: r, Kind: kind})
	}
	return anomalies
}
