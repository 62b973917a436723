package router

import (
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Digitalhour/ACSCoreOS-sub013/config"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/api/handler"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/api/middleware"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
	"github.com/Digitalhour/ACSCoreOS-sub013/pkg/jwt"
)

const (
	admin   = model.RoleAdmin
	hr      = model.RoleHR
	manager = model.RoleManager
)

// Deps 路由所需的中间件依赖；Limiter 为 nil 时不限流
type Deps struct {
	JWT         *jwt.Manager
	Revoker     middleware.TokenRevoker
	Permissions middleware.PermissionChecker
	Limiter     middleware.Limiter
	Logger      *zap.Logger
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, deps Deps) *gin.Engine {
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		// 认证模块（无需认证）
		auth := api.Group("/auth")
		auth.Use(middleware.RateLimit(deps.Limiter, cfg.RateLimit.LoginLimit, cfg.RateLimit.LoginWindow))
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		// 需要认证的路由
		authorized := api.Group("")
		authorized.Use(middleware.JWTAuth(deps.JWT, deps.Revoker))
		if deps.Permissions != nil {
			authorized.Use(middleware.RoutePermission(deps.Permissions, deps.Logger))
		}
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			registerOrganisation(authorized, h)
			registerPto(authorized, h)
			registerTimesheet(authorized, h)
			registerParts(authorized, h)
			registerWiki(authorized, h)
			registerAdmin(authorized, h)
		}
	}

	h.Admin.SetRouteSource(func() []dto.RouteInfo { return DiscoverRoutes(r) })

	return r
}

// ── 组织架构 ──

func registerOrganisation(g *gin.RouterGroup, h *handler.Handler) {
	users := g.Group("/users")
	{
		users.GET("", middleware.RoleAuth(admin, hr, manager), h.User.ListUsers)
		users.POST("", middleware.RoleAuth(admin, hr), h.User.CreateUser)
		users.POST("/import", middleware.RoleAuth(admin, hr), h.User.ImportUsers)
		users.GET("/:id", middleware.RoleAuth(admin, hr, manager), h.User.GetUser)
		users.PUT("/:id", h.User.UpdateUser) // admin / hr 或本人（Service 层鉴权）
		users.DELETE("/:id", middleware.RoleAuth(admin), h.User.DeleteUser)
		users.POST("/:id/deactivate", middleware.RoleAuth(admin, hr), h.User.DeactivateUser)
		users.PUT("/:id/role", middleware.RoleAuth(admin), h.User.AssignRole)
		users.POST("/:id/reset-password", middleware.RoleAuth(admin, hr), h.User.ResetPassword)
	}

	departments := g.Group("/departments")
	{
		departments.GET("", h.Department.ListDepartments)
		departments.GET("/:id", h.Department.GetDepartment)
		departments.POST("", middleware.RoleAuth(admin, hr), h.Department.CreateDepartment)
		departments.PUT("/:id", middleware.RoleAuth(admin, hr), h.Department.UpdateDepartment)
		departments.DELETE("/:id", middleware.RoleAuth(admin, hr), h.Department.DeleteDepartment)
		departments.GET("/:id/members", middleware.RoleAuth(admin, hr, manager), h.Department.GetMembers)
	}

	positions := g.Group("/positions")
	{
		positions.GET("", h.Department.ListPositions)
		positions.GET("/:id", h.Department.GetPosition)
		positions.POST("", middleware.RoleAuth(admin, hr), h.Department.CreatePosition)
		positions.PUT("/:id", middleware.RoleAuth(admin, hr), h.Department.UpdatePosition)
		positions.DELETE("/:id", middleware.RoleAuth(admin, hr), h.Department.DeletePosition)
	}
}

// ── 休假 ──

func registerPto(g *gin.RouterGroup, h *handler.Handler) {
	pto := g.Group("/pto")

	types := pto.Group("/types")
	{
		types.GET("", h.Pto.ListTypes)
		types.GET("/generate-code", middleware.RoleAuth(admin, hr), h.Pto.GenerateTypeCode)
		types.GET("/:id", h.Pto.GetType)
		types.POST("", middleware.RoleAuth(admin, hr), h.Pto.CreateType)
		types.PUT("/:id", middleware.RoleAuth(admin, hr), h.Pto.UpdateType)
		types.DELETE("/:id", middleware.RoleAuth(admin, hr), h.Pto.DeleteType)
	}

	policies := pto.Group("/policies", middleware.RoleAuth(admin, hr))
	{
		policies.GET("", h.Pto.ListPolicies)
		policies.GET("/:id", h.Pto.GetPolicy)
		policies.POST("", h.Pto.CreatePolicy)
		policies.PUT("/:id", h.Pto.UpdatePolicy)
		policies.DELETE("/:id", h.Pto.DeletePolicy)
	}

	pto.GET("/balances", h.Pto.ListBalances)
	pto.POST("/balances/adjust", middleware.RoleAuth(admin, hr), h.Pto.AdjustBalance)
	pto.GET("/transactions", h.Pto.ListTransactions)
	pto.POST("/accruals", middleware.RoleAuth(admin, hr), h.Pto.Accrue)
	pto.POST("/reconcile", middleware.RoleAuth(admin, hr), h.Pto.Reconcile)

	blackouts := pto.Group("/blackouts")
	{
		blackouts.GET("", h.Pto.ListBlackouts)
		blackouts.GET("/check", h.Pto.CheckBlackout)
		blackouts.GET("/:id", h.Pto.GetBlackout)
		blackouts.POST("", middleware.RoleAuth(admin, hr), h.Pto.CreateBlackout)
		blackouts.PUT("/:id", middleware.RoleAuth(admin, hr), h.Pto.UpdateBlackout)
		blackouts.DELETE("/:id", middleware.RoleAuth(admin, hr), h.Pto.DeleteBlackout)
	}

	requests := pto.Group("/requests")
	{
		requests.POST("", h.PtoRequest.Submit)
		requests.GET("", middleware.RoleAuth(admin, hr, manager), h.PtoRequest.List)
		requests.GET("/mine", h.PtoRequest.ListMine)
		requests.GET("/approvals", middleware.RoleAuth(admin, hr, manager), h.PtoRequest.ListForApproval)
		requests.GET("/:id", h.PtoRequest.Get)
		requests.POST("/:id/approve", middleware.RoleAuth(admin, hr, manager), h.PtoRequest.Approve)
		requests.POST("/:id/deny", middleware.RoleAuth(admin, hr, manager), h.PtoRequest.Deny)
		requests.POST("/:id/cancel", h.PtoRequest.Cancel)
	}

	pto.GET("/calendar", h.Export.ExportCalendar)
}

// ── 工时 ──

func registerTimesheet(g *gin.RouterGroup, h *handler.Handler) {
	ts := g.Group("/timesheet")
	{
		ts.POST("/clock-in", h.Timesheet.ClockIn)
		ts.POST("/clock-out", h.Timesheet.ClockOut)
		ts.GET("/entries", h.Timesheet.ListEntries)
		ts.POST("/entries", h.Timesheet.CreateEntry)
		ts.GET("/entries/:id", h.Timesheet.GetEntry)
		ts.PUT("/entries/:id", h.Timesheet.UpdateEntry)
		ts.DELETE("/entries/:id", h.Timesheet.DeleteEntry)
		ts.GET("/week", h.Timesheet.WeeklySummary)
		ts.POST("/week/submit", h.Timesheet.SubmitWeek)
		ts.POST("/approve", middleware.RoleAuth(admin, hr, manager), h.Timesheet.Approve)
		ts.POST("/reject", middleware.RoleAuth(admin, hr, manager), h.Timesheet.Reject)
		ts.GET("/export", h.Export.ExportTimesheets)
	}
}

// ── 配件 ──

func registerParts(g *gin.RouterGroup, h *handler.Handler) {
	parts := g.Group("/parts")
	{
		parts.GET("", h.Part.ListParts)
		parts.GET("/:id", h.Part.GetPart)
		parts.POST("", middleware.RoleAuth(admin, hr, manager), h.Part.CreatePart)
		parts.POST("/import", middleware.RoleAuth(admin, hr, manager), h.Part.ImportParts)
		parts.PUT("/:id", middleware.RoleAuth(admin, hr, manager), h.Part.UpdatePart)
		parts.DELETE("/:id", middleware.RoleAuth(admin, hr), h.Part.DeletePart)
	}
}

// ── 知识库 ──

func registerWiki(g *gin.RouterGroup, h *handler.Handler) {
	wiki := g.Group("/wiki")
	{
		wiki.GET("/pages", h.Wiki.ListPages)
		wiki.POST("/pages", h.Wiki.CreatePage)
		wiki.GET("/pages/:slug", h.Wiki.GetPage)
		wiki.PUT("/pages/:id", h.Wiki.UpdatePage)
		wiki.DELETE("/pages/:id", h.Wiki.DeletePage)
		wiki.GET("/revisions/:id", h.Wiki.ListRevisions)
	}
}

// ── 管理后台 ──

func registerAdmin(g *gin.RouterGroup, h *handler.Handler) {
	adm := g.Group("/admin")
	{
		perms := adm.Group("/route-permissions", middleware.RoleAuth(admin))
		perms.GET("", h.Admin.ListRoutePermissions)
		perms.PUT("/:id", h.Admin.UpdateRoutePermission)
		perms.POST("/sync", h.Admin.SyncRoutePermissions)

		adm.GET("/dashboard", middleware.RoleAuth(admin, hr), h.Admin.Dashboard)
		adm.DELETE("/dashboard/cache", middleware.RoleAuth(admin, hr), h.Admin.RefreshDashboard)
		adm.GET("/activity", middleware.RoleAuth(admin, hr), h.Admin.ListActivity)
	}
}

// DiscoverRoutes 读取引擎注册的路由表，按 path、method 排序
func DiscoverRoutes(r *gin.Engine) []dto.RouteInfo {
	infos := r.Routes()
	routes := make([]dto.RouteInfo, 0, len(infos))
	for _, ri := range infos {
		routes = append(routes, dto.RouteInfo{
			Method:  ri.Method,
			Path:    ri.Path,
			Handler: shortHandlerName(ri.Handler),
		})
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})
	return routes
}

// shortHandlerName 将 ".../handler.(*PartHandler).ListParts-fm" 缩短为 "PartHandler.ListParts"
func shortHandlerName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, "-fm")
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	name = strings.NewReplacer("(*", "", ")", "").Replace(name)
	return name
}
