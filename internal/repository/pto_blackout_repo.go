package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
)

// PtoBlackoutRepository 禁休期数据访问接口
type PtoBlackoutRepository interface {
	Create(ctx context.Context, b *model.PtoBlackout) error
	GetByID(ctx context.Context, id string) (*model.PtoBlackout, error)
	List(ctx context.Context, includeInactive bool) ([]model.PtoBlackout, error)
	Update(ctx context.Context, b *model.PtoBlackout) error
	Delete(ctx context.Context, id, deletedBy string) error
}

type ptoBlackoutRepo struct {
	db *gorm.DB
}

// NewPtoBlackoutRepo 创建 PtoBlackoutRepository 实例
func NewPtoBlackoutRepo(db *gorm.DB) PtoBlackoutRepository {
	return &ptoBlackoutRepo{db: db}
}

func (r *ptoBlackoutRepo) Create(ctx context.Context, b *model.PtoBlackout) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *ptoBlackoutRepo) GetByID(ctx context.Context, id string) (*model.PtoBlackout, error) {
	var b model.PtoBlackout
	if err := r.db.WithContext(ctx).Where("pto_blackout_id = ?", id).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// List 周期性禁休期无法用日期条件过滤，由调用方在内存中按区间判断
func (r *ptoBlackoutRepo) List(ctx context.Context, includeInactive bool) ([]model.PtoBlackout, error) {
	var list []model.PtoBlackout
	db := r.db.WithContext(ctx)
	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("start_date ASC").Find(&list).Error
	return list, err
}

func (r *ptoBlackoutRepo) Update(ctx context.Context, b *model.PtoBlackout) error {
	oldVersion := b.Version
	err := updateVersioned(ctx, r.db, b, "pto_blackout_id", b.PtoBlackoutID, oldVersion, map[string]interface{}{
		"name":                    b.Name,
		"description":             b.Description,
		"start_date":              b.StartDate,
		"end_date":                b.EndDate,
		"department_id":           b.DepartmentID,
		"position_id":             b.PositionID,
		"pto_type_id":             b.PtoTypeID,
		"restriction_type":        b.RestrictionType,
		"max_concurrent_requests": b.MaxConcurrentRequests,
		"is_recurring":            b.IsRecurring,
		"is_active":               b.IsActive,
		"updated_by":              b.UpdatedBy,
	})
	if err != nil {
		return err
	}
	b.Version = oldVersion + 1
	return nil
}

func (r *ptoBlackoutRepo) Delete(ctx context.Context, id, deletedBy string) error {
	return softDelete(ctx, r.db, &model.PtoBlackout{}, "pto_blackout_id", id, deletedBy)
}
