package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
)

// PtoTypeRepository 休假类型数据访问接口
type PtoTypeRepository interface {
	Create(ctx context.Context, t *model.PtoType) error
	GetByID(ctx context.Context, id string) (*model.PtoType, error)
	List(ctx context.Context, includeInactive bool) ([]model.PtoType, error)
	Update(ctx context.Context, t *model.PtoType) error
	Delete(ctx context.Context, id, deletedBy string) error
	CodeExists(ctx context.Context, code, excludeID string) (bool, error)
	CountUsage(ctx context.Context, id string) (int64, error)
}

type ptoTypeRepo struct {
	db *gorm.DB
}

// NewPtoTypeRepo 创建 PtoTypeRepository 实例
func NewPtoTypeRepo(db *gorm.DB) PtoTypeRepository {
	return &ptoTypeRepo{db: db}
}

func (r *ptoTypeRepo) Create(ctx context.Context, t *model.PtoType) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *ptoTypeRepo) GetByID(ctx context.Context, id string) (*model.PtoType, error) {
	var t model.PtoType
	if err := r.db.WithContext(ctx).Where("pto_type_id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ptoTypeRepo) List(ctx context.Context, includeInactive bool) ([]model.PtoType, error) {
	var list []model.PtoType
	db := r.db.WithContext(ctx)
	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("sort_order ASC, name ASC").Find(&list).Error
	return list, err
}

func (r *ptoTypeRepo) Update(ctx context.Context, t *model.PtoType) error {
	oldVersion := t.Version
	err := updateVersioned(ctx, r.db, t, "pto_type_id", t.PtoTypeID, oldVersion, map[string]interface{}{
		"name":              t.Name,
		"code":              t.Code,
		"description":       t.Description,
		"color":             t.Color,
		"requires_approval": t.RequiresApproval,
		"uses_balance":      t.UsesBalance,
		"allow_negative":    t.AllowNegative,
		"is_active":         t.IsActive,
		"sort_order":        t.SortOrder,
		"updated_by":        t.UpdatedBy,
	})
	if err != nil {
		return err
	}
	t.Version = oldVersion + 1
	return nil
}

func (r *ptoTypeRepo) Delete(ctx context.Context, id, deletedBy string) error {
	return softDelete(ctx, r.db, &model.PtoType{}, "pto_type_id", id, deletedBy)
}

// CodeExists 编码是否已被其他类型占用（忽略大小写）
func (r *ptoTypeRepo) CodeExists(ctx context.Context, code, excludeID string) (bool, error) {
	var count int64
	db := r.db.WithContext(ctx).Model(&model.PtoType{}).Where("UPPER(code) = UPPER(?)", code)
	if excludeID != "" {
		db = db.Where("pto_type_id <> ?", excludeID)
	}
	if err := db.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountUsage 引用该类型的策略与申请数量
func (r *ptoTypeRepo) CountUsage(ctx context.Context, id string) (int64, error) {
	var policies, requests int64
	if err := r.db.WithContext(ctx).Model(&model.PtoPolicy{}).Where("pto_type_id = ?", id).Count(&policies).Error; err != nil {
		return 0, err
	}
	if err := r.db.WithContext(ctx).Model(&model.PtoRequest{}).Where("pto_type_id = ?", id).Count(&requests).Error; err != nil {
		return 0, err
	}
	return policies + requests, nil
}
