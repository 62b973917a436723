package model

import "time"

// RoutePermission 路由权限表 — 对应 route_permissions
// 由路由同步命令根据 gin 路由表维护；Roles 为空表示不额外限制
type RoutePermission struct {
	RoutePermissionID string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"route_permission_id"`
	Method            string      `gorm:"type:varchar(10);not null"                      json:"method"`
	Path              string      `gorm:"type:varchar(255);not null"                     json:"path"`
	Name              string      `gorm:"type:varchar(300);not null"                     json:"name"`
	Handler           string      `gorm:"type:varchar(300)"                              json:"handler,omitempty"`
	Roles             StringArray `gorm:"type:text[]"                                    json:"roles"`
	Description       string      `gorm:"type:varchar(500)"                              json:"description,omitempty"`
	IsActive          bool        `gorm:"not null;default:true"                          json:"is_active"`
	LastSyncedAt      *time.Time  `json:"last_synced_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (RoutePermission) TableName() string { return "route_permissions" }

// RouteKey 路由唯一键："METHOD /path"
func RouteKey(method, path string) string {
	return method + " " + path
}

// Key 当前记录的路由唯一键
func (p *RoutePermission) Key() string {
	return RouteKey(p.Method, p.Path)
}

// Allows 判断角色是否可访问；admin 始终放行
func (p *RoutePermission) Allows(role string) bool {
	if !p.IsActive || len(p.Roles) == 0 || role == RoleAdmin {
		return true
	}
	return p.Roles.Contains(role)
}
