package model

import "time"

// 限制类型
const (
	BlackoutFullBlock     = "full_block"     // 区间内禁止申请
	BlackoutLimitRequests = "limit_requests" // 同部门并发申请数量受限
	BlackoutWarning       = "warning"        // 仅提示
)

// ValidRestrictionType 判断限制类型是否合法
func ValidRestrictionType(t string) bool {
	return t == BlackoutFullBlock || t == BlackoutLimitRequests || t == BlackoutWarning
}

// PtoBlackout 休假禁休期表 — 对应 pto_blackouts
// DepartmentID / PositionID / PtoTypeID 为空表示不限
type PtoBlackout struct {
	PtoBlackoutID         string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"pto_blackout_id"`
	Name                  string     `gorm:"type:varchar(100);not null"                     json:"name"`
	Description           string     `gorm:"type:text"                                      json:"description,omitempty"`
	StartDate             time.Time  `gorm:"type:date;not null"                             json:"start_date"`
	EndDate               time.Time  `gorm:"type:date;not null"                             json:"end_date"`
	DepartmentID          *string    `gorm:"type:uuid"                                      json:"department_id,omitempty"`
	PositionID            *string    `gorm:"type:uuid"                                      json:"position_id,omitempty"`
	PtoTypeID             *string    `gorm:"type:uuid"                                      json:"pto_type_id,omitempty"`
	RestrictionType       string     `gorm:"type:varchar(20);not null;default:'full_block'" json:"restriction_type"`
	MaxConcurrentRequests int        `gorm:"not null;default:0"                             json:"max_concurrent_requests"`
	IsRecurring           bool       `gorm:"not null;default:false"                         json:"is_recurring"`
	IsActive              bool       `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel
}

// TableName 指定表名
func (PtoBlackout) TableName() string { return "pto_blackouts" }

// OverlapsWithDateRange 禁休期与 [start, end] 是否有交集
// 周期性禁休期按月日投影到区间涉及的每一年（含跨年的前一年）
func (b *PtoBlackout) OverlapsWithDateRange(start, end time.Time) bool {
	start, end = DateOnly(start), DateOnly(end)
	if !b.IsRecurring {
		return overlaps(DateOnly(b.StartDate), DateOnly(b.EndDate), start, end)
	}

	for _, s := range b.occurrences(start.Year()-1, end.Year()) {
		if overlaps(s[0], s[1], start, end) {
			return true
		}
	}
	return false
}

// OccurrenceIn 返回禁休期在 [start, end] 内生效的具体区间（周期性禁休期取首个命中年份）
func (b *PtoBlackout) OccurrenceIn(start, end time.Time) (time.Time, time.Time, bool) {
	occ := b.OccurrencesIn(start, end)
	if len(occ) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return occ[0][0], occ[0][1], true
}

// OccurrencesIn 返回禁休期在 [start, end] 内生效的全部区间，按时间先后排列
func (b *PtoBlackout) OccurrencesIn(start, end time.Time) [][2]time.Time {
	start, end = DateOnly(start), DateOnly(end)
	if !b.IsRecurring {
		bs, be := DateOnly(b.StartDate), DateOnly(b.EndDate)
		if !overlaps(bs, be, start, end) {
			return nil
		}
		return [][2]time.Time{{bs, be}}
	}

	var out [][2]time.Time
	for _, s := range b.occurrences(start.Year()-1, end.Year()) {
		if overlaps(s[0], s[1], start, end) {
			out = append(out, s)
		}
	}
	return out
}

func (b *PtoBlackout) occurrences(fromYear, toYear int) [][2]time.Time {
	bs, be := DateOnly(b.StartDate), DateOnly(b.EndDate)
	spanYears := be.Year() - bs.Year()

	var out [][2]time.Time
	for y := fromYear; y <= toYear; y++ {
		s := yearDay(y, bs.Month(), bs.Day())
		e := yearDay(y+spanYears, be.Month(), be.Day())
		out = append(out, [2]time.Time{s, e})
	}
	return out
}

// yearDay 取 y 年 m 月 d 日；平年没有 2 月 29 日，取当月最后一天
func yearDay(y int, m time.Month, d int) time.Time {
	if last := time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day(); d > last {
		d = last
	}
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

// AppliesTo 禁休期是否作用于指定员工与休假类型
func (b *PtoBlackout) AppliesTo(user *User, ptoTypeID string) bool {
	if !b.IsActive {
		return false
	}
	if b.PtoTypeID != nil && *b.PtoTypeID != ptoTypeID {
		return false
	}
	if b.DepartmentID != nil && (user == nil || user.DepartmentID == nil || *user.DepartmentID != *b.DepartmentID) {
		return false
	}
	if b.PositionID != nil && (user == nil || user.PositionID == nil || *user.PositionID != *b.PositionID) {
		return false
	}
	return true
}
