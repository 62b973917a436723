package model

import "time"

// 工时记录状态
const (
	TimesheetOpen      = "open"      // 已打卡上班未下班
	TimesheetCompleted = "completed" // 已下班，可编辑
	TimesheetSubmitted = "submitted"
	TimesheetApproved  = "approved"
	TimesheetRejected  = "rejected"
)

// TimesheetEntry 工时记录表 — 对应 timesheet_entries
type TimesheetEntry struct {
	TimesheetEntryID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"timesheet_entry_id"`
	UserID           string     `gorm:"type:uuid;not null"                             json:"user_id"`
	WorkDate         time.Time  `gorm:"type:date;not null"                             json:"work_date"`
	ClockIn          time.Time  `gorm:"not null"                                       json:"clock_in"`
	ClockOut         *time.Time `json:"clock_out,omitempty"`
	BreakMinutes     int        `gorm:"not null;default:0"                             json:"break_minutes"`
	Notes            string     `gorm:"type:varchar(1000)"                             json:"notes,omitempty"`
	Status           string     `gorm:"type:varchar(20);not null;default:'open'"       json:"status"`
	ReviewedBy       *string    `gorm:"type:uuid"                                      json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time `json:"reviewed_at,omitempty"`
	ReviewComment    string     `gorm:"type:varchar(500)"                              json:"review_comment,omitempty"`
	VersionedModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (TimesheetEntry) TableName() string { return "timesheet_entries" }

// WorkedMinutes 实际工作分钟数（扣除休息），未下班返回 0
func (e *TimesheetEntry) WorkedMinutes() int {
	if e.ClockOut == nil {
		return 0
	}
	minutes := int(e.ClockOut.Sub(e.ClockIn).Minutes()) - e.BreakMinutes
	if minutes < 0 {
		return 0
	}
	return minutes
}

// Editable 提交审核前可修改
func (e *TimesheetEntry) Editable() bool {
	return e.Status == TimesheetOpen || e.Status == TimesheetCompleted || e.Status == TimesheetRejected
}
