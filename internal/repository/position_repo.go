package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
)

// PositionRepository 岗位数据访问接口
type PositionRepository interface {
	Create(ctx context.Context, pos *model.Position) error
	GetByID(ctx context.Context, id string) (*model.Position, error)
	GetByTitle(ctx context.Context, title string, departmentID *string) (*model.Position, error)
	List(ctx context.Context, departmentID string, includeInactive bool) ([]model.Position, error)
	Update(ctx context.Context, pos *model.Position) error
	Delete(ctx context.Context, id, deletedBy string) error
	CountHolders(ctx context.Context, positionID string) (int64, error)
}

type positionRepo struct {
	db *gorm.DB
}

// NewPositionRepo 创建 PositionRepository 实例
func NewPositionRepo(db *gorm.DB) PositionRepository {
	return &positionRepo{db: db}
}

func (r *positionRepo) Create(ctx context.Context, pos *model.Position) error {
	return r.db.WithContext(ctx).Create(pos).Error
}

func (r *positionRepo) GetByID(ctx context.Context, id string) (*model.Position, error) {
	var pos model.Position
	err := r.db.WithContext(ctx).
		Preload("Department").
		Where("position_id = ?", id).
		First(&pos).Error
	if err != nil {
		return nil, err
	}
	return &pos, nil
}

// GetByTitle 按部门内岗位名称查找；departmentID 为空时匹配未归属部门的岗位
func (r *positionRepo) GetByTitle(ctx context.Context, title string, departmentID *string) (*model.Position, error) {
	var pos model.Position
	db := r.db.WithContext(ctx).Where("LOWER(title) = LOWER(?)", title)
	if departmentID == nil {
		db = db.Where("department_id IS NULL")
	} else {
		db = db.Where("department_id = ?", *departmentID)
	}
	if err := db.First(&pos).Error; err != nil {
		return nil, err
	}
	return &pos, nil
}

func (r *positionRepo) List(ctx context.Context, departmentID string, includeInactive bool) ([]model.Position, error) {
	var list []model.Position
	db := r.db.WithContext(ctx).Preload("Department")
	if departmentID != "" {
		db = db.Where("department_id = ?", departmentID)
	}
	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("title ASC").Find(&list).Error
	return list, err
}

func (r *positionRepo) Update(ctx context.Context, pos *model.Position) error {
	oldVersion := pos.Version
	err := updateVersioned(ctx, r.db, pos, "position_id", pos.PositionID, oldVersion, map[string]interface{}{
		"title":         pos.Title,
		"department_id": pos.DepartmentID,
		"description":   pos.Description,
		"is_active":     pos.IsActive,
		"updated_by":    pos.UpdatedBy,
	})
	if err != nil {
		return err
	}
	pos.Version = oldVersion + 1
	return nil
}

func (r *positionRepo) Delete(ctx context.Context, id, deletedBy string) error {
	return softDelete(ctx, r.db, &model.Position{}, "position_id", id, deletedBy)
}

func (r *positionRepo) CountHolders(ctx context.Context, positionID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("position_id = ?", positionID).
		Count(&count).Error
	return count, err
}
