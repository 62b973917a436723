package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Digitalhour/ACSCoreOS-sub013/config"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/api/handler"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/api/middleware"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/api/router"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/repository"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/service"
	"github.com/Digitalhour/ACSCoreOS-sub013/pkg/database"
	"github.com/Digitalhour/ACSCoreOS-sub013/pkg/jwt"
	applogger "github.com/Digitalhour/ACSCoreOS-sub013/pkg/logger"
	"github.com/Digitalhour/ACSCoreOS-sub013/pkg/redis"
)

// Options 启动选项
type Options struct {
	ConfigPath string
	// Migrate 启动时执行数据库迁移（HTTP 服务为 true，命令行按子命令决定）
	Migrate bool
}

// App 进程级依赖：HTTP 服务与 coreosctl 共用
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *gorm.DB
	Redis   *redis.Client // 连接失败时为 nil
	JWT     *jwt.Manager
	Service *service.Service
	Handler *handler.Handler
	Engine  *gin.Engine
}

// New 加载配置并按 Repository → Service → Handler → Router 顺序装配
func New(opts Options) (*App, error) {
	// 1. 加载配置
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}
	logger.Info("数据库连接成功")

	if opts.Migrate {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
		}
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单、登录限流与面板缓存将不可用", zap.Error(err))
		rdb = nil
	}

	// nil *redis.Client 不能直接赋给接口，否则接口值非 nil
	var (
		store   service.Store
		limiter middleware.Limiter
	)
	if rdb != nil {
		store = rdb
		limiter = rdb
	}

	// 5. 依赖注入
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, store, logger)
	h := handler.NewHandler(svc)

	engine := router.Setup(cfg, h, router.Deps{
		JWT:         jwtMgr,
		Revoker:     svc.Auth,
		Permissions: svc.RoutePermission,
		Limiter:     limiter,
		Logger:      logger,
	})

	return &App{
		Config:  cfg,
		Logger:  logger,
		DB:      db,
		Redis:   rdb,
		JWT:     jwtMgr,
		Service: svc,
		Handler: h,
		Engine:  engine,
	}, nil
}

// Close 关闭数据库与 Redis 连接
func (a *App) Close() {
	if sqlDB, _ := a.DB.DB(); sqlDB != nil {
		_ = sqlDB.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	_ = a.Logger.Sync()
}
