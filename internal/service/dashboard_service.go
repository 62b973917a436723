package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Digitalhour/ACSCoreOS-sub013/config"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/repository"
	pkgredis "github.com/Digitalhour/ACSCoreOS-sub013/pkg/redis"
)

const dashboardCacheKey = "dashboard:stats"

// DashboardService 管理面板统计
type DashboardService interface {
	Stats(ctx context.Context) (*dto.DashboardStats, error)
	Invalidate(ctx context.Context)
}

type dashboardService struct {
	cfg    *config.DashboardConfig
	repo   *repository.Repository
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardService 创建 DashboardService 实例；store 为 nil 时不缓存
func NewDashboardService(cfg *config.DashboardConfig, repo *repository.Repository, store Store, logger *zap.Logger) DashboardService {
	return &dashboardService{cfg: cfg, repo: repo, store: store, logger: logger, now: time.Now}
}

func (s *dashboardService) Stats(ctx context.Context) (*dto.DashboardStats, error) {
	if s.store != nil && s.cfg.CacheTTL > 0 {
		var cached dto.DashboardStats
		err := s.store.GetJSON(ctx, dashboardCacheKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, pkgredis.ErrCacheMiss) {
			s.logger.Warn("读取面板缓存失败", zap.Error(err))
		}
	}

	stats, err := s.collect(ctx)
	if err != nil {
		s.logger.Error("统计面板数据失败", zap.Error(err))
		return nil, err
	}

	if s.store != nil && s.cfg.CacheTTL > 0 {
		if err := s.store.SetJSON(ctx, dashboardCacheKey, stats, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("写入面板缓存失败", zap.Error(err))
		}
	}
	return stats, nil
}

func (s *dashboardService) Invalidate(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.Delete(ctx, dashboardCacheKey); err != nil {
		s.logger.Warn("清除面板缓存失败", zap.Error(err))
	}
}

func (s *dashboardService) collect(ctx context.Context) (*dto.DashboardStats, error) {
	now := s.now()
	stats := &dto.DashboardStats{GeneratedAt: now}

	var err error
	if stats.ActiveUsers, err = s.repo.User.CountActive(ctx); err != nil {
		return nil, err
	}
	if stats.Departments, err = s.repo.Department.Count(ctx); err != nil {
		return nil, err
	}
	if stats.PendingPtoRequests, err = s.repo.PtoRequest.CountByStatus(ctx, model.PtoStatusPending); err != nil {
		return nil, err
	}
	if stats.UsersOutToday, err = s.repo.PtoRequest.CountOnLeave(ctx, model.DateOnly(now)); err != nil {
		return nil, err
	}
	if stats.OpenTimesheets, err = s.repo.Timesheet.CountByStatus(ctx, model.TimesheetOpen); err != nil {
		return nil, err
	}
	if stats.SubmittedTimesheet, err = s.repo.Timesheet.CountByStatus(ctx, model.TimesheetSubmitted); err != nil {
		return nil, err
	}
	if stats.LowStockParts, err = s.repo.Part.CountLowStock(ctx); err != nil {
		return nil, err
	}
	return stats, nil
}
