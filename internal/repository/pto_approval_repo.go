package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
	pkgerrors "github.com/Digitalhour/ACSCoreOS-sub013/pkg/errors"
)

// PtoApprovalRepository 休假审批数据访问接口
type PtoApprovalRepository interface {
	Create(ctx context.Context, a *model.PtoApproval) error
	ListByRequest(ctx context.Context, requestID string) ([]model.PtoApproval, error)
	GetPendingByRequest(ctx context.Context, requestID string) (*model.PtoApproval, error)
	Respond(ctx context.Context, a *model.PtoApproval) error
	SkipPending(ctx context.Context, requestID, by string) error
}

type ptoApprovalRepo struct {
	db *gorm.DB
}

// NewPtoApprovalRepo 创建 PtoApprovalRepository 实例
func NewPtoApprovalRepo(db *gorm.DB) PtoApprovalRepository {
	return &ptoApprovalRepo{db: db}
}

func (r *ptoApprovalRepo) Create(ctx context.Context, a *model.PtoApproval) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *ptoApprovalRepo) ListByRequest(ctx context.Context, requestID string) ([]model.PtoApproval, error) {
	var list []model.PtoApproval
	err := r.db.WithContext(ctx).
		Where("pto_request_id = ?", requestID).
		Order("level ASC").
		Find(&list).Error
	return list, err
}

func (r *ptoApprovalRepo) GetPendingByRequest(ctx context.Context, requestID string) (*model.PtoApproval, error) {
	var a model.PtoApproval
	err := r.db.WithContext(ctx).
		Where("pto_request_id = ? AND status = ?", requestID, model.ApprovalPending).
		Order("level ASC").
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Respond 仅更新仍处于 pending 的审批行，被并发处理时返回 ErrOptimisticLock
func (r *ptoApprovalRepo) Respond(ctx context.Context, a *model.PtoApproval) error {
	result := r.db.WithContext(ctx).
		Model(&model.PtoApproval{}).
		Where("pto_approval_id = ? AND status = ?", a.PtoApprovalID, model.ApprovalPending).
		Updates(map[string]interface{}{
			"status":       a.Status,
			"comments":     a.Comments,
			"responded_by": a.RespondedBy,
			"responded_at": a.RespondedAt,
			"updated_by":   a.RespondedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.Stale("pto_approvals", a.PtoApprovalID)
	}
	return nil
}

// SkipPending 申请撤销后将未处理的审批标记为 skipped
func (r *ptoApprovalRepo) SkipPending(ctx context.Context, requestID, by string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&model.PtoApproval{}).
		Where("pto_request_id = ? AND status = ?", requestID, model.ApprovalPending).
		Updates(map[string]interface{}{
			"status":       model.ApprovalSkipped,
			"responded_by": by,
			"responded_at": now,
		}).Error
}
