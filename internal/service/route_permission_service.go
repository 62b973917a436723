package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Digitalhour/ACSCoreOS-sub013/config"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/repository"
)

// ErrRoutePermissionNotFound 路由权限不存在
var ErrRoutePermissionNotFound = errors.New("路由权限不存在")

// routePrefix 参与权限同步的路由前缀
const routePrefix = "/api/"

const defaultRefreshInterval = time.Minute

// RouteDiff 路由表与已存权限的差异
type RouteDiff struct {
	Added     []dto.RouteInfo
	Updated   []dto.RouteInfo
	Stale     []model.RoutePermission
	Unchanged int

	updated map[string]dto.RouteInfo
}

// RoutePermissionService 路由权限业务接口
type RoutePermissionService interface {
	List(ctx context.Context) ([]model.RoutePermission, error)
	Update(ctx context.Context, id string, req *dto.UpdateRoutePermissionRequest, callerID string) (*model.RoutePermission, error)
	// Sync 以 gin 路由表为准同步权限记录
	Sync(ctx context.Context, routes []dto.RouteInfo, req *dto.SyncRoutesRequest, callerID string) (*dto.SyncRoutesResponse, error)
	// Check 判断角色能否访问 method + path（path 为 gin 的路由模板）
	Check(ctx context.Context, method, path, role string) (bool, error)
	// Invalidate 丢弃进程内缓存
	Invalidate()
}

type routePermissionService struct {
	cfg      *config.PermissionsConfig
	repo     *repository.Repository
	activity ActivityService
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.RWMutex
	cache    map[string]model.RoutePermission
	loadedAt time.Time
}

// NewRoutePermissionService 创建 RoutePermissionService 实例
func NewRoutePermissionService(cfg *config.PermissionsConfig, repo *repository.Repository, activity ActivityService, logger *zap.Logger) RoutePermissionService {
	return &routePermissionService{
		cfg:      cfg,
		repo:     repo,
		activity: activity,
		logger:   logger,
		now:      time.Now,
	}
}

// ────────────────────── List / Update ──────────────────────

func (s *routePermissionService) List(ctx context.Context) ([]model.RoutePermission, error) {
	list, err := s.repo.RoutePermission.List(ctx)
	if err != nil {
		s.logger.Error("列出路由权限失败", zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *routePermissionService) Update(ctx context.Context, id string, req *dto.UpdateRoutePermissionRequest, callerID string) (*model.RoutePermission, error) {
	p, err := s.repo.RoutePermission.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoutePermissionNotFound
		}
		s.logger.Error("查询路由权限失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	before := append([]string(nil), p.Roles...)
	if req.Roles != nil {
		p.Roles = model.StringArray(dedupeRoles(req.Roles))
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	p.UpdatedBy = &callerID

	if err := s.repo.RoutePermission.Update(ctx, p); err != nil {
		s.logger.Error("更新路由权限失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	s.Invalidate()

	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNamePermission, Description: "更新路由权限",
		SubjectType: "route_permission", SubjectID: id, CauserID: callerID,
		Properties: map[string]interface{}{
			"route": p.Key(), "roles_before": before, "roles_after": p.Roles, "is_active": p.IsActive,
		},
	})
	return p, nil
}

// ────────────────────── Sync ──────────────────────

func (s *routePermissionService) Sync(ctx context.Context, routes []dto.RouteInfo, req *dto.SyncRoutesRequest, callerID string) (*dto.SyncRoutesResponse, error) {
	existing, err := s.repo.RoutePermission.List(ctx)
	if err != nil {
		s.logger.Error("查询路由权限失败", zap.Error(err))
		return nil, err
	}

	diff := DiffRoutes(routes, existing, req.Prune)
	resp := &dto.SyncRoutesResponse{
		DryRun:    req.DryRun,
		Added:     diff.Added,
		Updated:   diff.Updated,
		Stale:     make([]dto.RouteInfo, 0, len(diff.Stale)),
		Unchanged: diff.Unchanged,
		Pruned:    req.Prune && !req.DryRun,
	}
	for _, p := range diff.Stale {
		resp.Stale = append(resp.Stale, dto.RouteInfo{Method: p.Method, Path: p.Path, Handler: p.Handler})
	}
	if req.DryRun {
		return resp, nil
	}

	now := s.now()
	var actor *string
	if callerID != "" {
		actor = &callerID
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		for _, r := range diff.Added {
			p := &model.RoutePermission{
				Method:       r.Method,
				Path:         r.Path,
				Name:         model.RouteKey(r.Method, r.Path),
				Handler:      r.Handler,
				Roles:        model.StringArray(dedupeRoles(s.cfg.DefaultRoles)),
				IsActive:     true,
				LastSyncedAt: &now,
			}
			p.CreatedBy, p.UpdatedBy = actor, actor
			if err := tx.RoutePermission.Create(ctx, p); err != nil {
				return err
			}
		}

		for i := range existing {
			p := &existing[i]
			r, ok := diff.updated[p.Key()]
			if !ok {
				continue
			}
			p.Handler = r.Handler
			p.IsActive = true
			p.LastSyncedAt = &now
			p.UpdatedBy = actor
			if err := tx.RoutePermission.Update(ctx, p); err != nil {
				return err
			}
		}

		for i := range diff.Stale {
			p := &diff.Stale[i]
			if req.Prune {
				if err := tx.RoutePermission.Delete(ctx, p.RoutePermissionID); err != nil {
					return err
				}
				continue
			}
			p.IsActive = false
			p.UpdatedBy = actor
			if err := tx.RoutePermission.Update(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("同步路由权限失败", zap.Error(err))
		return nil, err
	}
	s.Invalidate()

	s.logger.Info("路由权限同步完成",
		zap.Int("added", len(diff.Added)),
		zap.Int("updated", len(diff.Updated)),
		zap.Int("stale", len(diff.Stale)),
		zap.Bool("prune", req.Prune),
	)
	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNamePermission, Description: "同步路由权限",
		SubjectType: "route_permission", CauserID: callerID,
		Properties: map[string]interface{}{
			"added": len(diff.Added), "updated": len(diff.Updated),
			"stale": len(diff.Stale), "prune": req.Prune,
		},
	})
	return resp, nil
}

// DiffRoutes 比较发现的路由与已存记录，只处理 /api/ 下的路由
//   - Added：路由表中有、记录中没有
//   - Updated：handler 变化或记录已停用
//   - Stale：记录中有、路由表中没有；已停用的记录只在 prune 时计入，以便删除
func DiffRoutes(discovered []dto.RouteInfo, existing []model.RoutePermission, prune bool) *RouteDiff {
	diff := &RouteDiff{
		Added:   []dto.RouteInfo{},
		Updated: []dto.RouteInfo{},
		Stale:   []model.RoutePermission{},
		updated: map[string]dto.RouteInfo{},
	}

	byKey := make(map[string]*model.RoutePermission, len(existing))
	for i := range existing {
		byKey[existing[i].Key()] = &existing[i]
	}

	seen := make(map[string]bool, len(discovered))
	for _, r := range discovered {
		if !strings.HasPrefix(r.Path, routePrefix) {
			continue
		}
		key := model.RouteKey(r.Method, r.Path)
		if seen[key] {
			continue
		}
		seen[key] = true

		p, ok := byKey[key]
		switch {
		case !ok:
			diff.Added = append(diff.Added, r)
		case p.Handler != r.Handler || !p.IsActive:
			diff.Updated = append(diff.Updated, r)
			diff.updated[key] = r
		default:
			diff.Unchanged++
		}
	}

	for i := range existing {
		p := existing[i]
		if seen[p.Key()] || !strings.HasPrefix(p.Path, routePrefix) {
			continue
		}
		if p.IsActive || prune {
			diff.Stale = append(diff.Stale, p)
		}
	}

	sortRoutes(diff.Added)
	sortRoutes(diff.Updated)
	sort.Slice(diff.Stale, func(i, j int) bool { return diff.Stale[i].Key() < diff.Stale[j].Key() })
	return diff
}

// ────────────────────── Check ──────────────────────

func (s *routePermissionService) Check(ctx context.Context, method, path, role string) (bool, error) {
	if role == model.RoleAdmin {
		return true, nil
	}
	cache, err := s.snapshot(ctx)
	if err != nil {
		return false, err
	}
	p, ok := cache[model.RouteKey(method, path)]
	if !ok {
		return true, nil
	}
	return p.Allows(role), nil
}

func (s *routePermissionService) Invalidate() {
	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()
}

// snapshot 返回缓存的权限表，过期后重新加载
func (s *routePermissionService) snapshot(ctx context.Context) (map[string]model.RoutePermission, error) {
	interval := s.cfg.RefreshInterval
	if interval <= 0 {
		interval = defaultRefreshInterval
	}

	s.mu.RLock()
	cache, loadedAt := s.cache, s.loadedAt
	s.mu.RUnlock()
	if cache != nil && s.now().Sub(loadedAt) < interval {
		return cache, nil
	}

	list, err := s.repo.RoutePermission.List(ctx)
	if err != nil {
		s.logger.Error("加载路由权限失败", zap.Error(err))
		return nil, err
	}
	cache = make(map[string]model.RoutePermission, len(list))
	for _, p := range list {
		cache[p.Key()] = p
	}

	s.mu.Lock()
	s.cache = cache
	s.loadedAt = s.now()
	s.mu.Unlock()
	return cache, nil
}

func dedupeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	seen := make(map[string]bool, len(roles))
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r == "" || seen[r] || !model.ValidRole(r) {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

func sortRoutes(routes []dto.RouteInfo) {
	sort.Slice(routes, func(i, j int) bool {
		return model.RouteKey(routes[i].Method, routes[i].Path) < model.RouteKey(routes[j].Method, routes[j].Path)
	})
}
