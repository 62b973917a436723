package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultWorkWeekdays 默认工作日：周一至周五（ISO 星期）
var DefaultWorkWeekdays = IntArray{1, 2, 3, 4, 5}

// PtoPolicy 休假策略表 — 对应 pto_policies
// 每条策略绑定一个员工与一种休假类型，描述额度来源与结转规则
type PtoPolicy struct {
	PtoPolicyID         string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"pto_policy_id"`
	Name                string          `gorm:"type:varchar(100);not null"                     json:"name"`
	UserID              string          `gorm:"type:uuid;not null"                             json:"user_id"`
	PtoTypeID           string          `gorm:"type:uuid;not null"                             json:"pto_type_id"`
	InitialDays         decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"           json:"initial_days"`
	AnnualAccrualAmount decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"           json:"annual_accrual_amount"`
	BonusDays           decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"           json:"bonus_days"`
	RolloverEnabled     bool            `gorm:"not null;default:false"                         json:"rollover_enabled"`
	MaxRolloverDays     decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"           json:"max_rollover_days"`
	MaxNegativeBalance  decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"           json:"max_negative_balance"`
	EffectiveDate       time.Time       `gorm:"type:date;not null"                             json:"effective_date"`
	EndDate             *time.Time      `gorm:"type:date"                                      json:"end_date,omitempty"`
	WorkWeekdays        IntArray        `gorm:"type:int[]"                                     json:"work_weekdays"`
	IsActive            bool            `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel

	// 关联
	User    *User    `gorm:"foreignKey:UserID;references:UserID"       json:"user,omitempty"`
	PtoType *PtoType `gorm:"foreignKey:PtoTypeID;references:PtoTypeID" json:"pto_type,omitempty"`
}

// TableName 指定表名
func (PtoPolicy) TableName() string { return "pto_policies" }

// CoversRange 申请区间是否完全落在策略有效期内
func (p *PtoPolicy) CoversRange(start, end time.Time) bool {
	if DateOnly(start).Before(DateOnly(p.EffectiveDate)) {
		return false
	}
	if p.EndDate != nil && DateOnly(end).After(DateOnly(*p.EndDate)) {
		return false
	}
	return true
}

// ActiveInYear 策略有效期是否与指定年份有交集
func (p *PtoPolicy) ActiveInYear(year int) bool {
	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	if DateOnly(p.EffectiveDate).After(yearEnd) {
		return false
	}
	if p.EndDate != nil && DateOnly(*p.EndDate).Before(yearStart) {
		return false
	}
	return true
}

// Weekdays 返回策略的工作日集合，未配置时使用 fallback
func (p *PtoPolicy) Weekdays(fallback IntArray) IntArray {
	if len(p.WorkWeekdays) > 0 {
		return p.WorkWeekdays
	}
	if len(fallback) > 0 {
		return fallback
	}
	return DefaultWorkWeekdays
}

// ProratedAccrual 计算指定年份应发放的年度额度
// 策略在该年年中生效时按剩余整月数折算（生效当月计入），结果保留两位小数
func (p *PtoPolicy) ProratedAccrual(year int, prorate bool) decimal.Decimal {
	amount := p.AnnualAccrualAmount
	if !prorate || p.EffectiveDate.Year() != year {
		return amount
	}
	months := 12 - int(p.EffectiveDate.Month()) + 1
	return amount.Mul(decimal.NewFromInt(int64(months))).Div(decimal.NewFromInt(12)).Round(2)
}

// ── 日期工具 ──

// DateOnly 去掉时间部分，统一为 UTC 零点
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ISOWeekday 返回 ISO 星期（1=周一 … 7=周日）
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

var halfDay = decimal.NewFromFloat(0.5)

// CountWorkingDays 计算 [start, end] 内的请假天数
// 仅统计 weekdays 中的日期；首日/末日半天各扣减 0.5（该日不是工作日时不扣减）
func CountWorkingDays(start, end time.Time, weekdays IntArray, startHalf, endHalf bool) decimal.Decimal {
	start, end = DateOnly(start), DateOnly(end)
	if end.Before(start) {
		return decimal.Zero
	}

	days := decimal.Zero
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if weekdays.Contains(ISOWeekday(d)) {
			days = days.Add(decimal.NewFromInt(1))
		}
	}

	// 单日申请勾选任一半天标记即按半天计
	if start.Equal(end) {
		if (startHalf || endHalf) && days.IsPositive() {
			return halfDay
		}
		return days
	}

	if startHalf && weekdays.Contains(ISOWeekday(start)) {
		days = days.Sub(halfDay)
	}
	if endHalf && weekdays.Contains(ISOWeekday(end)) {
		days = days.Sub(halfDay)
	}
	if days.IsNegative() {
		return decimal.Zero
	}
	return days
}
