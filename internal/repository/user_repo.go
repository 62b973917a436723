package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
)

// UserFilter 用户列表过滤条件
type UserFilter struct {
	DepartmentID string
	Role         string
	Keyword      string // 匹配姓名、邮箱、工号
	IsActive     *bool
}

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByEmployeeNumber(ctx context.Context, number string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, id, hash string, mustChange bool) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	UpdateDisplayName(ctx context.Context, id, displayName string) error
	Delete(ctx context.Context, id, deletedBy string) error
	List(ctx context.Context, filter UserFilter, page Page) ([]model.User, int64, error)
	ListAll(ctx context.Context) ([]model.User, error)
	ListByManager(ctx context.Context, managerID string) ([]model.User, error)
	CountActive(ctx context.Context) (int64, error)
	// LockForUpdate 在当前事务内锁定用户行
	LockForUpdate(ctx context.Context, id string) error
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Department").
		Preload("Position").
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmployeeNumber(ctx context.Context, number string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("employee_number = ?", number).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	oldVersion := user.Version
	err := updateVersioned(ctx, r.db, user, "user_id", user.UserID, oldVersion, map[string]interface{}{
		"employee_number":      user.EmployeeNumber,
		"first_name":           user.FirstName,
		"last_name":            user.LastName,
		"preferred_name":       user.PreferredName,
		"display_name":         user.DisplayName,
		"email":                user.Email,
		"role":                 user.Role,
		"department_id":        user.DepartmentID,
		"position_id":          user.PositionID,
		"manager_id":           user.ManagerID,
		"hire_date":            user.HireDate,
		"is_active":            user.IsActive,
		"must_change_password": user.MustChangePassword,
		"updated_by":           user.UpdatedBy,
	})
	if err != nil {
		return err
	}
	user.Version = oldVersion + 1
	return nil
}

func (r *userRepo) UpdatePassword(ctx context.Context, id, hash string, mustChange bool) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", id).
		Updates(map[string]interface{}{
			"password_hash":        hash,
			"must_change_password": mustChange,
			"updated_at":           gorm.Expr("NOW()"),
		}).Error
}

func (r *userRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

func (r *userRepo) UpdateDisplayName(ctx context.Context, id, displayName string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", id).
		UpdateColumn("display_name", displayName).Error
}

func (r *userRepo) Delete(ctx context.Context, id, deletedBy string) error {
	return softDelete(ctx, r.db, &model.User{}, "user_id", id, deletedBy)
}

func (r *userRepo) List(ctx context.Context, filter UserFilter, page Page) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := r.db.WithContext(ctx).Model(&model.User{})
	if filter.DepartmentID != "" {
		db = db.Where("department_id = ?", filter.DepartmentID)
	}
	if filter.Role != "" {
		db = db.Where("role = ?", filter.Role)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		like := "%" + strings.ToLower(kw) + "%"
		db = db.Where("(LOWER(display_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(employee_number) LIKE ?)", like, like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := page.apply(db.Preload("Department").Preload("Position")).
		Order("display_name ASC").
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepo) ListAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Order("employee_number ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepo) ListByManager(ctx context.Context, managerID string) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("manager_id = ? AND is_active = ?", managerID, true).
		Order("display_name ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepo) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("is_active = ?", true).
		Count(&count).Error
	return count, err
}

func (r *userRepo) LockForUpdate(ctx context.Context, id string) error {
	var ids []string
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", id).
		Pluck("user_id", &ids).Error
}
