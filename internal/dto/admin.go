package dto

import (
	"encoding/json"
	"time"
)

// ── 路由权限 ──

// UpdateRoutePermissionRequest 更新路由权限
type UpdateRoutePermissionRequest struct {
	Roles       []string `json:"roles"       binding:"omitempty,dive,oneof=admin hr manager employee"`
	Description *string  `json:"description" binding:"omitempty,max=500"`
	IsActive    *bool    `json:"is_active"`
}

// SyncRoutesRequest 触发路由同步
type SyncRoutesRequest struct {
	Prune  bool `json:"prune"`
	DryRun bool `json:"dry_run"`
}

// RouteInfo 发现的路由
type RouteInfo struct {
	Method  string `json:"method"`
	Path    string `json:"path"`
	Handler string `json:"handler"`
}

// SyncRoutesResponse 路由同步结果
type SyncRoutesResponse struct {
	DryRun    bool        `json:"dry_run"`
	Added     []RouteInfo `json:"added"`
	Updated   []RouteInfo `json:"updated"`
	Stale     []RouteInfo `json:"stale"`
	Unchanged int         `json:"unchanged"`
	Pruned    bool        `json:"pruned"`
}

// ── 管理面板 ──

// DashboardStats 管理面板统计
type DashboardStats struct {
	ActiveUsers        int64     `json:"active_users"`
	Departments        int64     `json:"departments"`
	PendingPtoRequests int64     `json:"pending_pto_requests"`
	UsersOutToday      int64     `json:"users_out_today"`
	OpenTimesheets     int64     `json:"open_timesheets"`
	SubmittedTimesheet int64     `json:"submitted_timesheets"`
	LowStockParts      int64     `json:"low_stock_parts"`
	GeneratedAt        time.Time `json:"generated_at"`
}

// ── 操作日志 ──

// ActivityListRequest 操作日志查询参数
type ActivityListRequest struct {
	PaginationRequest
	LogName     string `form:"log_name"     binding:"omitempty,max=50"`
	SubjectType string `form:"subject_type" binding:"omitempty,max=50"`
	SubjectID   string `form:"subject_id"   binding:"omitempty,max=64"`
	CauserID    string `form:"causer_id"    binding:"omitempty,uuid"`
}

// ActivityResponse 操作日志
type ActivityResponse struct {
	ID          string          `json:"id"`
	LogName     string          `json:"log_name"`
	Description string          `json:"description"`
	SubjectType string          `json:"subject_type,omitempty"`
	SubjectID   string          `json:"subject_id,omitempty"`
	CauserID    *string         `json:"causer_id,omitempty"`
	Properties  json.RawMessage `json:"properties"`
	CreatedAt   time.Time       `json:"created_at"`
}
