package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
)

// PtoPolicyFilter 策略列表过滤条件
type PtoPolicyFilter struct {
	UserID     string
	PtoTypeID  string
	ActiveOnly bool
}

// PtoPolicyRepository 休假策略数据访问接口
type PtoPolicyRepository interface {
	Create(ctx context.Context, p *model.PtoPolicy) error
	GetByID(ctx context.Context, id string) (*model.PtoPolicy, error)
	List(ctx context.Context, filter PtoPolicyFilter) ([]model.PtoPolicy, error)
	ListActiveInYear(ctx context.Context, year int) ([]model.PtoPolicy, error)
	Update(ctx context.Context, p *model.PtoPolicy) error
	Delete(ctx context.Context, id, deletedBy string) error
}

type ptoPolicyRepo struct {
	db *gorm.DB
}

// NewPtoPolicyRepo 创建 PtoPolicyRepository 实例
func NewPtoPolicyRepo(db *gorm.DB) PtoPolicyRepository {
	return &ptoPolicyRepo{db: db}
}

func (r *ptoPolicyRepo) Create(ctx context.Context, p *model.PtoPolicy) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ptoPolicyRepo) GetByID(ctx context.Context, id string) (*model.PtoPolicy, error) {
	var p model.PtoPolicy
	err := r.db.WithContext(ctx).
		Preload("PtoType").
		Where("pto_policy_id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ptoPolicyRepo) List(ctx context.Context, filter PtoPolicyFilter) ([]model.PtoPolicy, error) {
	var list []model.PtoPolicy
	db := r.db.WithContext(ctx).Preload("PtoType").Preload("User")
	if filter.UserID != "" {
		db = db.Where("user_id = ?", filter.UserID)
	}
	if filter.PtoTypeID != "" {
		db = db.Where("pto_type_id = ?", filter.PtoTypeID)
	}
	if filter.ActiveOnly {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("effective_date DESC").Find(&list).Error
	return list, err
}

// ListActiveInYear 有效期与 year 有交集的启用策略
func (r *ptoPolicyRepo) ListActiveInYear(ctx context.Context, year int) ([]model.PtoPolicy, error) {
	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)

	var list []model.PtoPolicy
	err := r.db.WithContext(ctx).
		Preload("PtoType").
		Where("is_active = ?", true).
		Where("effective_date <= ?", yearEnd).
		Where("(end_date IS NULL OR end_date >= ?)", yearStart).
		Order("user_id ASC, pto_type_id ASC, effective_date ASC").
		Find(&list).Error
	return list, err
}

func (r *ptoPolicyRepo) Update(ctx context.Context, p *model.PtoPolicy) error {
	oldVersion := p.Version
	err := updateVersioned(ctx, r.db, p, "pto_policy_id", p.PtoPolicyID, oldVersion, map[string]interface{}{
		"name":                  p.Name,
		"initial_days":          p.InitialDays,
		"annual_accrual_amount": p.AnnualAccrualAmount,
		"bonus_days":            p.BonusDays,
		"rollover_enabled":      p.RolloverEnabled,
		"max_rollover_days":     p.MaxRolloverDays,
		"max_negative_balance":  p.MaxNegativeBalance,
		"effective_date":        p.EffectiveDate,
		"end_date":              p.EndDate,
		"work_weekdays":         p.WorkWeekdays,
		"is_active":             p.IsActive,
		"updated_by":            p.UpdatedBy,
	})
	if err != nil {
		return err
	}
	p.Version = oldVersion + 1
	return nil
}

func (r *ptoPolicyRepo) Delete(ctx context.Context, id, deletedBy string) error {
	return softDelete(ctx, r.db, &model.PtoPolicy{}, "pto_policy_id", id, deletedBy)
}
