package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
)

// PtoTransactionFilter 流水列表过滤条件
type PtoTransactionFilter struct {
	UserID    string
	PtoTypeID string
	Year      int
	Type      string
}

// PtoTransactionRepository 休假流水数据访问接口（只增不改）
type PtoTransactionRepository interface {
	Create(ctx context.Context, tx *model.PtoTransaction) error
	ListByBalance(ctx context.Context, balanceID string) ([]model.PtoTransaction, error)
	List(ctx context.Context, filter PtoTransactionFilter, page Page) ([]model.PtoTransaction, int64, error)
	ExistsForBalance(ctx context.Context, balanceID, txType string) (bool, error)
}

type ptoTransactionRepo struct {
	db *gorm.DB
}

// NewPtoTransactionRepo 创建 PtoTransactionRepository 实例
func NewPtoTransactionRepo(db *gorm.DB) PtoTransactionRepository {
	return &ptoTransactionRepo{db: db}
}

func (r *ptoTransactionRepo) Create(ctx context.Context, tx *model.PtoTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *ptoTransactionRepo) ListByBalance(ctx context.Context, balanceID string) ([]model.PtoTransaction, error) {
	var list []model.PtoTransaction
	err := r.db.WithContext(ctx).
		Where("pto_balance_id = ?", balanceID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *ptoTransactionRepo) List(ctx context.Context, filter PtoTransactionFilter, page Page) ([]model.PtoTransaction, int64, error) {
	var list []model.PtoTransaction
	var total int64

	db := r.db.WithContext(ctx).Model(&model.PtoTransaction{})
	if filter.UserID != "" {
		db = db.Where("user_id = ?", filter.UserID)
	}
	if filter.PtoTypeID != "" {
		db = db.Where("pto_type_id = ?", filter.PtoTypeID)
	}
	if filter.Type != "" {
		db = db.Where("type = ?", filter.Type)
	}
	if filter.Year > 0 {
		db = db.Where("pto_balance_id IN (SELECT pto_balance_id FROM pto_balances WHERE year = ?)", filter.Year)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := page.apply(db).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ExistsForBalance 余额行下是否已有指定类型流水（年度发放幂等判断）
func (r *ptoTransactionRepo) ExistsForBalance(ctx context.Context, balanceID, txType string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.PtoTransaction{}).
		Where("pto_balance_id = ? AND type = ?", balanceID, txType).
		Count(&count).Error
	return count > 0, err
}
