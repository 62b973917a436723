package dto

// ── 工时模块 DTO ──

// ClockInRequest 上班打卡
type ClockInRequest struct {
	Notes string `json:"notes" binding:"omitempty,max=1000"`
}

// ClockOutRequest 下班打卡
type ClockOutRequest struct {
	BreakMinutes int    `json:"break_minutes" binding:"omitempty,min=0,max=720"`
	Notes        string `json:"notes"         binding:"omitempty,max=1000"`
}

// CreateTimesheetRequest 手工补录工时，时间为 RFC3339
type CreateTimesheetRequest struct {
	WorkDate     string `json:"work_date"     binding:"required,datetime=2006-01-02"`
	ClockIn      string `json:"clock_in"      binding:"required"`
	ClockOut     string `json:"clock_out"     binding:"required"`
	BreakMinutes int    `json:"break_minutes" binding:"omitempty,min=0,max=720"`
	Notes        string `json:"notes"         binding:"omitempty,max=1000"`
}

// UpdateTimesheetRequest 修改工时
type UpdateTimesheetRequest struct {
	ClockIn      *string `json:"clock_in"`
	ClockOut     *string `json:"clock_out"`
	BreakMinutes *int    `json:"break_minutes" binding:"omitempty,min=0,max=720"`
	Notes        *string `json:"notes"         binding:"omitempty,max=1000"`
}

// TimesheetListRequest 工时列表查询
type TimesheetListRequest struct {
	PaginationRequest
	UserID string `form:"user_id" binding:"omitempty,uuid"`
	Status string `form:"status"  binding:"omitempty,oneof=open completed submitted approved rejected"`
	From   string `form:"from"    binding:"omitempty,datetime=2006-01-02"`
	To     string `form:"to"      binding:"omitempty,datetime=2006-01-02"`
}

// WeekRequest 周汇总 / 提交参数；WeekStart 为周一，缺省为本周
type WeekRequest struct {
	UserID    string `form:"user_id"    json:"user_id"    binding:"omitempty,uuid"`
	WeekStart string `form:"week_start" json:"week_start" binding:"omitempty,datetime=2006-01-02"`
}

// ReviewTimesheetRequest 审核工时
type ReviewTimesheetRequest struct {
	EntryIDs []string `json:"entry_ids" binding:"required,min=1,dive,uuid"`
	Comment  string   `json:"comment"   binding:"omitempty,max=500"`
}

// DaySummary 单日汇总
type DaySummary struct {
	Date    string `json:"date"`
	Minutes int    `json:"minutes"`
	Entries int    `json:"entries"`
}

// WeeklySummary 周汇总
type WeeklySummary struct {
	UserID          string       `json:"user_id"`
	WeekStart       string       `json:"week_start"`
	WeekEnd         string       `json:"week_end"`
	Days            []DaySummary `json:"days"`
	TotalMinutes    int          `json:"total_minutes"`
	RegularMinutes  int          `json:"regular_minutes"`
	OvertimeMinutes int          `json:"overtime_minutes"`
	Status          string       `json:"status"` // 全部同状态时为该状态，否则 mixed
}

// ExportTimesheetRequest 导出参数
type ExportTimesheetRequest struct {
	UserID string `form:"user_id" binding:"omitempty,uuid"`
	From   string `form:"from"    binding:"required,datetime=2006-01-02"`
	To     string `form:"to"      binding:"required,datetime=2006-01-02"`
}
