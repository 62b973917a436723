package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/service"
	"github.com/Digitalhour/ACSCoreOS-sub013/pkg/response"
)

// RouteSource 返回当前引擎注册的路由（由 router.Setup 注入）
type RouteSource func() []dto.RouteInfo

// AdminHandler 管理后台 HTTP 处理器：路由权限、管理面板、操作日志
type AdminHandler struct {
	permSvc      service.RoutePermissionService
	dashboardSvc service.DashboardService
	activitySvc  service.ActivityService
	routes       RouteSource
}

// NewAdminHandler 创建 AdminHandler
func NewAdminHandler(
	permSvc service.RoutePermissionService,
	dashboardSvc service.DashboardService,
	activitySvc service.ActivityService,
) *AdminHandler {
	return &AdminHandler{
		permSvc:      permSvc,
		dashboardSvc: dashboardSvc,
		activitySvc:  activitySvc,
	}
}

// SetRouteSource 注入路由发现函数
func (h *AdminHandler) SetRouteSource(src RouteSource) {
	h.routes = src
}

// ── 路由权限 ──

// ListRoutePermissions 路由权限列表
// GET /api/admin/route-permissions
func (h *AdminHandler) ListRoutePermissions(c *gin.Context) {
	perms, err := h.permSvc.List(c.Request.Context())
	if err != nil {
		h.handleAdminError(c, err)
		return
	}
	response.OK(c, gin.H{"list": perms})
}

// UpdateRoutePermission 修改路由可访问角色
// PUT /api/admin/route-permissions/:id
func (h *AdminHandler) UpdateRoutePermission(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := mustParam(c, "id", "路由权限ID不能为空")
	if !ok {
		return
	}

	var req dto.UpdateRoutePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	perm, err := h.permSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}
	response.OK(c, perm)
}

// SyncRoutePermissions 将当前路由表同步到权限表
// POST /api/admin/route-permissions/sync
func (h *AdminHandler) SyncRoutePermissions(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SyncRoutesRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, err)
			return
		}
	}
	if h.routes == nil {
		response.InternalError(c)
		return
	}

	result, err := h.permSvc.Sync(c.Request.Context(), h.routes(), &req, callerID)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}
	response.OK(c, result)
}

// ── 管理面板 ──

// Dashboard 管理面板统计
// GET /api/admin/dashboard
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.dashboardSvc.Stats(c.Request.Context())
	if err != nil {
		h.handleAdminError(c, err)
		return
	}
	response.OK(c, stats)
}

// RefreshDashboard 清除统计缓存
// DELETE /api/admin/dashboard/cache
func (h *AdminHandler) RefreshDashboard(c *gin.Context) {
	h.dashboardSvc.Invalidate(c.Request.Context())
	response.OK(c, nil)
}

// ── 操作日志 ──

// ListActivity 操作日志
// GET /api/admin/activity
func (h *AdminHandler) ListActivity(c *gin.Context) {
	var req dto.ActivityListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	logs, total, err := h.activitySvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}
	response.OKPage(c, logs, total, req.GetPage(), req.GetPageSize())
}

func (h *AdminHandler) handleAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRoutePermissionNotFound):
		response.NotFound(c, 43001, "路由权限不存在")
	default:
		handleCommonError(c, err)
	}
}
