package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
)

// PartFilter 配件搜索条件
type PartFilter struct {
	Keyword  string
	Category string
	LowStock bool
	IsActive *bool
}

// PartRepository 配件数据访问接口
type PartRepository interface {
	Create(ctx context.Context, p *model.Part) error
	GetByID(ctx context.Context, id string) (*model.Part, error)
	GetByNumber(ctx context.Context, partNumber string) (*model.Part, error)
	Update(ctx context.Context, p *model.Part) error
	Delete(ctx context.Context, id, deletedBy string) error
	List(ctx context.Context, filter PartFilter, page Page) ([]model.Part, int64, error)
	CountLowStock(ctx context.Context) (int64, error)
}

type partRepo struct {
	db *gorm.DB
}

// NewPartRepo 创建 PartRepository 实例
func NewPartRepo(db *gorm.DB) PartRepository {
	return &partRepo{db: db}
}

const lowStockCondition = "reorder_level > 0 AND quantity <= reorder_level"

func (r *partRepo) Create(ctx context.Context, p *model.Part) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *partRepo) GetByID(ctx context.Context, id string) (*model.Part, error) {
	var p model.Part
	if err := r.db.WithContext(ctx).Where("part_id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *partRepo) GetByNumber(ctx context.Context, partNumber string) (*model.Part, error) {
	var p model.Part
	err := r.db.WithContext(ctx).
		Where("UPPER(part_number) = UPPER(?)", partNumber).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *partRepo) Update(ctx context.Context, p *model.Part) error {
	oldVersion := p.Version
	err := updateVersioned(ctx, r.db, p, "part_id", p.PartID, oldVersion, map[string]interface{}{
		"part_number":   p.PartNumber,
		"name":          p.Name,
		"description":   p.Description,
		"manufacturer":  p.Manufacturer,
		"category":      p.Category,
		"unit_price":    p.UnitPrice,
		"quantity":      p.Quantity,
		"reorder_level": p.ReorderLevel,
		"location":      p.Location,
		"is_active":     p.IsActive,
		"updated_by":    p.UpdatedBy,
	})
	if err != nil {
		return err
	}
	p.Version = oldVersion + 1
	return nil
}

func (r *partRepo) Delete(ctx context.Context, id, deletedBy string) error {
	return softDelete(ctx, r.db, &model.Part{}, "part_id", id, deletedBy)
}

func (r *partRepo) List(ctx context.Context, filter PartFilter, page Page) ([]model.Part, int64, error) {
	var list []model.Part
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Part{})
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		like := "%" + strings.ToLower(kw) + "%"
		db = db.Where("(LOWER(part_number) LIKE ? OR LOWER(name) LIKE ? OR LOWER(manufacturer) LIKE ?)", like, like, like)
	}
	if filter.Category != "" {
		db = db.Where("category = ?", filter.Category)
	}
	if filter.LowStock {
		db = db.Where(lowStockCondition)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := page.apply(db).Order("part_number ASC").Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *partRepo) CountLowStock(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Part{}).
		Where("is_active = ?", true).
		Where(lowStockCondition).
		Count(&count).Error
	return count, err
}
