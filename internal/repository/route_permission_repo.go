package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
)

// RoutePermissionRepository 路由权限数据访问接口
type RoutePermissionRepository interface {
	List(ctx context.Context) ([]model.RoutePermission, error)
	GetByID(ctx context.Context, id string) (*model.RoutePermission, error)
	Create(ctx context.Context, p *model.RoutePermission) error
	Update(ctx context.Context, p *model.RoutePermission) error
	Delete(ctx context.Context, id string) error
}

type routePermissionRepo struct {
	db *gorm.DB
}

// NewRoutePermissionRepo 创建 RoutePermissionRepository 实例
func NewRoutePermissionRepo(db *gorm.DB) RoutePermissionRepository {
	return &routePermissionRepo{db: db}
}

func (r *routePermissionRepo) List(ctx context.Context) ([]model.RoutePermission, error) {
	var list []model.RoutePermission
	err := r.db.WithContext(ctx).
		Order("path ASC, method ASC").
		Find(&list).Error
	return list, err
}

func (r *routePermissionRepo) GetByID(ctx context.Context, id string) (*model.RoutePermission, error) {
	var p model.RoutePermission
	if err := r.db.WithContext(ctx).Where("route_permission_id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *routePermissionRepo) Create(ctx context.Context, p *model.RoutePermission) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *routePermissionRepo) Update(ctx context.Context, p *model.RoutePermission) error {
	return r.db.WithContext(ctx).
		Model(&model.RoutePermission{}).
		Where("route_permission_id = ?", p.RoutePermissionID).
		Updates(map[string]interface{}{
			"name":           p.Name,
			"handler":        p.Handler,
			"roles":          p.Roles,
			"description":    p.Description,
			"is_active":      p.IsActive,
			"last_synced_at": p.LastSyncedAt,
			"updated_by":     p.UpdatedBy,
		}).Error
}

func (r *routePermissionRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("route_permission_id = ?", id).
		Delete(&model.RoutePermission{}).Error
}
