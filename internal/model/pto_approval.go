package model

import "time"

// 审批状态
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalDenied   = "denied"
	ApprovalSkipped  = "skipped" // 申请被撤销时未处理的审批
)

// PtoApproval 休假审批表 — 对应 pto_approvals
// ApproverID 为空表示任意 admin / hr 均可审批
type PtoApproval struct {
	PtoApprovalID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"pto_approval_id"`
	PtoRequestID  string     `gorm:"type:uuid;not null"                             json:"pto_request_id"`
	ApproverID    *string    `gorm:"type:uuid"                                      json:"approver_id,omitempty"`
	Level         int        `gorm:"not null;default:1"                             json:"level"`
	Status        string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	Comments      string     `gorm:"type:varchar(1000)"                             json:"comments,omitempty"`
	RespondedBy   *string    `gorm:"type:uuid"                                      json:"responded_by,omitempty"`
	RespondedAt   *time.Time `json:"responded_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (PtoApproval) TableName() string { return "pto_approvals" }

// CanBeHandledBy 判断用户是否可以处理此审批
func (a *PtoApproval) CanBeHandledBy(userID, role string) bool {
	if IsPrivilegedRole(role) {
		return true
	}
	return a.ApproverID != nil && *a.ApproverID == userID
}
