package dto

import (
	"github.com/shopspring/decimal"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
)

// ── 休假类型 ──

// CreatePtoTypeRequest 创建休假类型请求；Code 为空时按名称自动生成
type CreatePtoTypeRequest struct {
	Name             string `json:"name"              binding:"required,min=2,max=100"`
	Code             string `json:"code"              binding:"omitempty,alphanum,max=20"`
	Description      string `json:"description"       binding:"omitempty,max=500"`
	Color            string `json:"color"             binding:"omitempty,hexcolor"`
	RequiresApproval *bool  `json:"requires_approval"`
	UsesBalance      *bool  `json:"uses_balance"`
	AllowNegative    bool   `json:"allow_negative"`
	SortOrder        int    `json:"sort_order"`
}

// UpdatePtoTypeRequest 更新休假类型请求
type UpdatePtoTypeRequest struct {
	Name             *string `json:"name"              binding:"omitempty,min=2,max=100"`
	Code             *string `json:"code"              binding:"omitempty,alphanum,max=20"`
	Description      *string `json:"description"       binding:"omitempty,max=500"`
	Color            *string `json:"color"             binding:"omitempty,hexcolor"`
	RequiresApproval *bool   `json:"requires_approval"`
	UsesBalance      *bool   `json:"uses_balance"`
	AllowNegative    *bool   `json:"allow_negative"`
	IsActive         *bool   `json:"is_active"`
	SortOrder        *int    `json:"sort_order"`
}

// ── 休假策略 ──

// CreatePtoPolicyRequest 创建休假策略请求
type CreatePtoPolicyRequest struct {
	Name                string          `json:"name"                  binding:"required,max=100"`
	UserID              string          `json:"user_id"               binding:"required,uuid"`
	PtoTypeID           string          `json:"pto_type_id"           binding:"required,uuid"`
	InitialDays         decimal.Decimal `json:"initial_days"`
	AnnualAccrualAmount decimal.Decimal `json:"annual_accrual_amount"`
	BonusDays           decimal.Decimal `json:"bonus_days"`
	RolloverEnabled     bool            `json:"rollover_enabled"`
	MaxRolloverDays     decimal.Decimal `json:"max_rollover_days"`
	MaxNegativeBalance  decimal.Decimal `json:"max_negative_balance"`
	EffectiveDate       string          `json:"effective_date"        binding:"required,datetime=2006-01-02"`
	EndDate             string          `json:"end_date"              binding:"omitempty,datetime=2006-01-02"`
	WorkWeekdays        []int           `json:"work_weekdays"         binding:"omitempty,dive,min=1,max=7"`
}

// UpdatePtoPolicyRequest 更新休假策略请求
type UpdatePtoPolicyRequest struct {
	Name                *string          `json:"name"                  binding:"omitempty,max=100"`
	InitialDays         *decimal.Decimal `json:"initial_days"`
	AnnualAccrualAmount *decimal.Decimal `json:"annual_accrual_amount"`
	BonusDays           *decimal.Decimal `json:"bonus_days"`
	RolloverEnabled     *bool            `json:"rollover_enabled"`
	MaxRolloverDays     *decimal.Decimal `json:"max_rollover_days"`
	MaxNegativeBalance  *decimal.Decimal `json:"max_negative_balance"`
	EffectiveDate       *string          `json:"effective_date"        binding:"omitempty,datetime=2006-01-02"`
	EndDate             *string          `json:"end_date"` // 空串表示清除
	WorkWeekdays        []int            `json:"work_weekdays"         binding:"omitempty,dive,min=1,max=7"`
	IsActive            *bool            `json:"is_active"`
}

// PtoPolicyListRequest 策略列表查询参数
type PtoPolicyListRequest struct {
	UserID    string `form:"user_id"     binding:"omitempty,uuid"`
	PtoTypeID string `form:"pto_type_id" binding:"omitempty,uuid"`
}

// ── 余额与流水 ──

// BalanceResponse 余额响应
type BalanceResponse struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	PtoTypeID      string          `json:"pto_type_id"`
	PtoTypeName    string          `json:"pto_type_name,omitempty"`
	PtoTypeCode    string          `json:"pto_type_code,omitempty"`
	Year           int             `json:"year"`
	Balance        decimal.Decimal `json:"balance"`
	UsedBalance    decimal.Decimal `json:"used_balance"`
	PendingBalance decimal.Decimal `json:"pending_balance"`
	Available      decimal.Decimal `json:"available"`
}

// BalanceListRequest 余额查询参数
type BalanceListRequest struct {
	UserID string `form:"user_id" binding:"omitempty,uuid"`
	Year   int    `form:"year"    binding:"omitempty,min=2000,max=2100"`
}

// AdjustBalanceRequest 手工调整余额请求：Amount 为正增加额度，为负扣减额度
type AdjustBalanceRequest struct {
	UserID      string          `json:"user_id"     binding:"required,uuid"`
	PtoTypeID   string          `json:"pto_type_id" binding:"required,uuid"`
	Year        int             `json:"year"        binding:"required,min=2000,max=2100"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" binding:"required,max=500"`
}

// TransactionListRequest 流水查询参数
type TransactionListRequest struct {
	PaginationRequest
	UserID    string `form:"user_id"     binding:"omitempty,uuid"`
	PtoTypeID string `form:"pto_type_id" binding:"omitempty,uuid"`
	Year      int    `form:"year"        binding:"omitempty,min=2000,max=2100"`
	Type      string `form:"type"        binding:"omitempty,oneof=accrual rollover adjustment usage usage_reversal pending pending_release"`
}

// AccrualResult 年度发放结果
type AccrualResult struct {
	Year     int             `json:"year"`
	Policies int             `json:"policies"`
	Accrued  int             `json:"accrued"`
	Skipped  int             `json:"skipped"`
	Rollover int             `json:"rollover"`
	Total    decimal.Decimal `json:"total"`
}

// AccrueRequest 触发年度发放
type AccrueRequest struct {
	Year int `json:"year" binding:"required,min=2000,max=2100"`
}

// ReconcileRequest 触发余额对账
type ReconcileRequest struct {
	Year int  `json:"year" binding:"required,min=2000,max=2100"`
	Fix  bool `json:"fix"`
}

// ReconcileRow 对账差异行
type ReconcileRow struct {
	BalanceID string             `json:"balance_id"`
	UserID    string             `json:"user_id"`
	PtoTypeID string             `json:"pto_type_id"`
	Year      int                `json:"year"`
	Drift     model.BalanceDrift `json:"drift"`
	Fixed     bool               `json:"fixed"`
}

// ── 禁休期 ──

// CreatePtoBlackoutRequest 创建禁休期请求
type CreatePtoBlackoutRequest struct {
	Name                  string  `json:"name"                    binding:"required,max=100"`
	Description           string  `json:"description"             binding:"omitempty,max=1000"`
	StartDate             string  `json:"start_date"              binding:"required,datetime=2006-01-02"`
	EndDate               string  `json:"end_date"                binding:"required,datetime=2006-01-02"`
	DepartmentID          *string `json:"department_id"           binding:"omitempty,uuid"`
	PositionID            *string `json:"position_id"             binding:"omitempty,uuid"`
	PtoTypeID             *string `json:"pto_type_id"             binding:"omitempty,uuid"`
	RestrictionType       string  `json:"restriction_type"        binding:"required,oneof=full_block limit_requests warning"`
	MaxConcurrentRequests int     `json:"max_concurrent_requests" binding:"omitempty,min=0"`
	IsRecurring           bool    `json:"is_recurring"`
}

// UpdatePtoBlackoutRequest 更新禁休期请求
type UpdatePtoBlackoutRequest struct {
	Name                  *string `json:"name"                    binding:"omitempty,max=100"`
	Description           *string `json:"description"             binding:"omitempty,max=1000"`
	StartDate             *string `json:"start_date"              binding:"omitempty,datetime=2006-01-02"`
	EndDate               *string `json:"end_date"                binding:"omitempty,datetime=2006-01-02"`
	DepartmentID          *string `json:"department_id"           binding:"omitempty,uuid"`
	PositionID            *string `json:"position_id"             binding:"omitempty,uuid"`
	PtoTypeID             *string `json:"pto_type_id"             binding:"omitempty,uuid"`
	RestrictionType       *string `json:"restriction_type"        binding:"omitempty,oneof=full_block limit_requests warning"`
	MaxConcurrentRequests *int    `json:"max_concurrent_requests" binding:"omitempty,min=0"`
	IsRecurring           *bool   `json:"is_recurring"`
	IsActive              *bool   `json:"is_active"`
}

// BlackoutCheckRequest 禁休期预检参数
type BlackoutCheckRequest struct {
	UserID    string `form:"user_id"     binding:"omitempty,uuid"`
	PtoTypeID string `form:"pto_type_id" binding:"required,uuid"`
	StartDate string `form:"start_date"  binding:"required,datetime=2006-01-02"`
	EndDate   string `form:"end_date"    binding:"required,datetime=2006-01-02"`
}

// BlackoutConflict 命中的禁休期
type BlackoutConflict struct {
	BlackoutID      string `json:"blackout_id"`
	Name            string `json:"name"`
	RestrictionType string `json:"restriction_type"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	Message         string `json:"message"`
}

// BlackoutCheckResponse 预检结果
type BlackoutCheckResponse struct {
	Blocked   bool               `json:"blocked"`
	Conflicts []BlackoutConflict `json:"conflicts"`
	Warnings  []BlackoutConflict `json:"warnings"`
}

// ── 申请与审批 ──

// CreatePtoRequestRequest 提交休假申请
// UserID 仅 admin / hr 代员工提交时填写
type CreatePtoRequestRequest struct {
	UserID           string `json:"user_id"           binding:"omitempty,uuid"`
	PtoTypeID        string `json:"pto_type_id"       binding:"required,uuid"`
	StartDate        string `json:"start_date"        binding:"required,datetime=2006-01-02"`
	EndDate          string `json:"end_date"          binding:"required,datetime=2006-01-02"`
	StartHalfDay     bool   `json:"start_half_day"`
	EndHalfDay       bool   `json:"end_half_day"`
	Reason           string `json:"reason"            binding:"omitempty,max=1000"`
	OverrideBlackout bool   `json:"override_blackout"`
}

// PtoRequestListRequest 申请列表查询参数
type PtoRequestListRequest struct {
	PaginationRequest
	UserID    string `form:"user_id"     binding:"omitempty,uuid"`
	Status    string `form:"status"      binding:"omitempty,oneof=pending approved denied cancelled"`
	PtoTypeID string `form:"pto_type_id" binding:"omitempty,uuid"`
	From      string `form:"from"        binding:"omitempty,datetime=2006-01-02"`
	To        string `form:"to"          binding:"omitempty,datetime=2006-01-02"`
}

// ApproveRequest 审批通过
type ApproveRequest struct {
	Comments string `json:"comments" binding:"omitempty,max=1000"`
}

// DenyRequest 驳回
type DenyRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// CancelRequest 撤销
type CancelRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// PtoRequestResponse 申请详情
type PtoRequestResponse struct {
	*model.PtoRequest
	Warnings []BlackoutConflict `json:"warnings,omitempty"`
}

// CalendarRequest 日历导出参数
type CalendarRequest struct {
	From         string `form:"from"          binding:"required,datetime=2006-01-02"`
	To           string `form:"to"            binding:"required,datetime=2006-01-02"`
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
	Mine         bool   `form:"mine"`
}
