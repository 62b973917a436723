package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
)

// ActivityLogFilter 操作日志过滤条件
type ActivityLogFilter struct {
	LogName     string
	SubjectType string
	SubjectID   string
	CauserID    string
}

// ActivityLogRepository 操作日志数据访问接口
type ActivityLogRepository interface {
	Create(ctx context.Context, log *model.ActivityLog) error
	List(ctx context.Context, filter ActivityLogFilter, page Page) ([]model.ActivityLog, int64, error)
}

type activityLogRepo struct {
	db *gorm.DB
}

// NewActivityLogRepo 创建 ActivityLogRepository 实例
func NewActivityLogRepo(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepo{db: db}
}

func (r *activityLogRepo) Create(ctx context.Context, log *model.ActivityLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *activityLogRepo) List(ctx context.Context, filter ActivityLogFilter, page Page) ([]model.ActivityLog, int64, error) {
	var list []model.ActivityLog
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ActivityLog{})
	if filter.LogName != "" {
		db = db.Where("log_name = ?", filter.LogName)
	}
	if filter.SubjectType != "" {
		db = db.Where("subject_type = ?", filter.SubjectType)
	}
	if filter.SubjectID != "" {
		db = db.Where("subject_id = ?", filter.SubjectID)
	}
	if filter.CauserID != "" {
		db = db.Where("causer_id = ?", filter.CauserID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := page.apply(db).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
