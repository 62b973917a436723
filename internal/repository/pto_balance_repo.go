package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
)

// PtoBalanceRepository 休假余额数据访问接口
type PtoBalanceRepository interface {
	GetByID(ctx context.Context, id string) (*model.PtoBalance, error)
	Get(ctx context.Context, userID, ptoTypeID string, year int) (*model.PtoBalance, error)
	// GetOrCreateForUpdate 不存在时插入零值行，然后以 SELECT ... FOR UPDATE 锁定返回
	// 必须在事务中调用
	GetOrCreateForUpdate(ctx context.Context, userID, ptoTypeID string, year int) (*model.PtoBalance, error)
	Update(ctx context.Context, b *model.PtoBalance) error
	ListByUser(ctx context.Context, userID string, year int) ([]model.PtoBalance, error)
	ListByYear(ctx context.Context, year int) ([]model.PtoBalance, error)
}

type ptoBalanceRepo struct {
	db *gorm.DB
}

// NewPtoBalanceRepo 创建 PtoBalanceRepository 实例
func NewPtoBalanceRepo(db *gorm.DB) PtoBalanceRepository {
	return &ptoBalanceRepo{db: db}
}

func (r *ptoBalanceRepo) GetByID(ctx context.Context, id string) (*model.PtoBalance, error) {
	var b model.PtoBalance
	if err := r.db.WithContext(ctx).Where("pto_balance_id = ?", id).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *ptoBalanceRepo) Get(ctx context.Context, userID, ptoTypeID string, year int) (*model.PtoBalance, error) {
	var b model.PtoBalance
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND pto_type_id = ? AND year = ?", userID, ptoTypeID, year).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *ptoBalanceRepo) GetOrCreateForUpdate(ctx context.Context, userID, ptoTypeID string, year int) (*model.PtoBalance, error) {
	seed := &model.PtoBalance{UserID: userID, PtoTypeID: ptoTypeID, Year: year}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "pto_type_id"}, {Name: "year"}},
			DoNothing: true,
		}).
		Create(seed).Error
	if err != nil {
		return nil, err
	}

	var b model.PtoBalance
	err = r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND pto_type_id = ? AND year = ?", userID, ptoTypeID, year).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *ptoBalanceRepo) Update(ctx context.Context, b *model.PtoBalance) error {
	oldVersion := b.Version
	err := updateVersioned(ctx, r.db, b, "pto_balance_id", b.PtoBalanceID, oldVersion, map[string]interface{}{
		"balance":         b.Balance,
		"used_balance":    b.UsedBalance,
		"pending_balance": b.PendingBalance,
	})
	if err != nil {
		return err
	}
	b.Version = oldVersion + 1
	return nil
}

func (r *ptoBalanceRepo) ListByUser(ctx context.Context, userID string, year int) ([]model.PtoBalance, error) {
	var list []model.PtoBalance
	err := r.db.WithContext(ctx).
		Preload("PtoType").
		Where("user_id = ? AND year = ?", userID, year).
		Find(&list).Error
	return list, err
}

func (r *ptoBalanceRepo) ListByYear(ctx context.Context, year int) ([]model.PtoBalance, error) {
	var list []model.PtoBalance
	err := r.db.WithContext(ctx).
		Where("year = ?", year).
		Order("user_id ASC, pto_type_id ASC").
		Find(&list).Error
	return list, err
}
