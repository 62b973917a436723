package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 休假申请状态
const (
	PtoStatusPending   = "pending"
	PtoStatusApproved  = "approved"
	PtoStatusDenied    = "denied"
	PtoStatusCancelled = "cancelled"
)

// PtoRequest 休假申请表 — 对应 pto_requests
type PtoRequest struct {
	PtoRequestID       string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"pto_request_id"`
	RequestNumber      string          `gorm:"type:varchar(30);not null"                      json:"request_number"`
	UserID             string          `gorm:"type:uuid;not null"                             json:"user_id"`
	PtoTypeID          string          `gorm:"type:uuid;not null"                             json:"pto_type_id"`
	StartDate          time.Time       `gorm:"type:date;not null"                             json:"start_date"`
	EndDate            time.Time       `gorm:"type:date;not null"                             json:"end_date"`
	StartHalfDay       bool            `gorm:"not null;default:false"                         json:"start_half_day"`
	EndHalfDay         bool            `gorm:"not null;default:false"                         json:"end_half_day"`
	TotalDays          decimal.Decimal `gorm:"type:numeric(8,2);not null"                     json:"total_days"`
	Reason             string          `gorm:"type:varchar(1000)"                             json:"reason,omitempty"`
	Status             string          `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | approved | denied | cancelled
	BlackoutOverride   bool            `gorm:"not null;default:false"                         json:"blackout_override"`
	BlackoutWarnings   string          `gorm:"type:text"                                      json:"blackout_warnings,omitempty"`
	ApprovedBy         *string         `gorm:"type:uuid"                                      json:"approved_by,omitempty"`
	ApprovedAt         *time.Time      `json:"approved_at,omitempty"`
	DeniedBy           *string         `gorm:"type:uuid"                                      json:"denied_by,omitempty"`
	DeniedAt           *time.Time      `json:"denied_at,omitempty"`
	DenialReason       string          `gorm:"type:varchar(500)"                              json:"denial_reason,omitempty"`
	CancelledBy        *string         `gorm:"type:uuid"                                      json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
	CancellationReason string          `gorm:"type:varchar(500)"                              json:"cancellation_reason,omitempty"`
	VersionedModel

	// 关联
	User      *User         `gorm:"foreignKey:UserID;references:UserID"             json:"user,omitempty"`
	PtoType   *PtoType      `gorm:"foreignKey:PtoTypeID;references:PtoTypeID"       json:"pto_type,omitempty"`
	Approvals []PtoApproval `gorm:"foreignKey:PtoRequestID;references:PtoRequestID" json:"approvals,omitempty"`
}

// TableName 指定表名
func (PtoRequest) TableName() string { return "pto_requests" }

// CanTransition 状态机：pending → approved | denied | cancelled；approved → cancelled
func (r *PtoRequest) CanTransition(to string) bool {
	switch r.Status {
	case PtoStatusPending:
		return to == PtoStatusApproved || to == PtoStatusDenied || to == PtoStatusCancelled
	case PtoStatusApproved:
		return to == PtoStatusCancelled
	}
	return false
}

// Year 申请所属额度年份（以开始日期为准）
func (r *PtoRequest) Year() int {
	return r.StartDate.Year()
}

// HasStarted 申请是否已开始（按日期比较）
func (r *PtoRequest) HasStarted(now time.Time) bool {
	return !DateOnly(now).Before(DateOnly(r.StartDate))
}

// OverlapsWithDateRange 申请区间与 [start, end] 是否有交集
func (r *PtoRequest) OverlapsWithDateRange(start, end time.Time) bool {
	return !DateOnly(r.StartDate).After(DateOnly(end)) && !DateOnly(r.EndDate).Before(DateOnly(start))
}
