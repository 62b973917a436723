package model

import "time"

// ActivityLog 操作日志表 — 对应 activity_logs（只增不改）
type ActivityLog struct {
	ActivityLogID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"activity_log_id"`
	LogName       string    `gorm:"type:varchar(50);not null"                      json:"log_name"` // pto | user | permission | wiki | part | timesheet
	Description   string    `gorm:"type:varchar(500);not null"                     json:"description"`
	SubjectType   string    `gorm:"type:varchar(50)"                               json:"subject_type,omitempty"`
	SubjectID     string    `gorm:"type:varchar(64)"                               json:"subject_id,omitempty"`
	CauserID      *string   `gorm:"type:uuid"                                      json:"causer_id,omitempty"`
	Properties    string    `gorm:"type:jsonb;not null;default:'{}'"               json:"properties"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (ActivityLog) TableName() string { return "activity_logs" }
