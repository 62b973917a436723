package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
)

// TimesheetFilter 工时列表过滤条件
type TimesheetFilter struct {
	UserID  string
	UserIDs []string
	Status  string
	From    *time.Time
	To      *time.Time
}

// TimesheetRepository 工时数据访问接口
type TimesheetRepository interface {
	Create(ctx context.Context, e *model.TimesheetEntry) error
	GetByID(ctx context.Context, id string) (*model.TimesheetEntry, error)
	GetOpen(ctx context.Context, userID string) (*model.TimesheetEntry, error)
	Update(ctx context.Context, e *model.TimesheetEntry) error
	Delete(ctx context.Context, id, deletedBy string) error
	List(ctx context.Context, filter TimesheetFilter, page Page) ([]model.TimesheetEntry, int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type timesheetRepo struct {
	db *gorm.DB
}

// NewTimesheetRepo 创建 TimesheetRepository 实例
func NewTimesheetRepo(db *gorm.DB) TimesheetRepository {
	return &timesheetRepo{db: db}
}

func (r *timesheetRepo) Create(ctx context.Context, e *model.TimesheetEntry) error {
	return r.db.WithContext(ctx).Omit("User").Create(e).Error
}

func (r *timesheetRepo) GetByID(ctx context.Context, id string) (*model.TimesheetEntry, error) {
	var e model.TimesheetEntry
	if err := r.db.WithContext(ctx).Where("timesheet_entry_id = ?", id).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *timesheetRepo) GetOpen(ctx context.Context, userID string) (*model.TimesheetEntry, error) {
	var e model.TimesheetEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.TimesheetOpen).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *timesheetRepo) Update(ctx context.Context, e *model.TimesheetEntry) error {
	oldVersion := e.Version
	err := updateVersioned(ctx, r.db, &model.TimesheetEntry{}, "timesheet_entry_id", e.TimesheetEntryID, oldVersion, map[string]interface{}{
		"work_date":      e.WorkDate,
		"clock_in":       e.ClockIn,
		"clock_out":      e.ClockOut,
		"break_minutes":  e.BreakMinutes,
		"notes":          e.Notes,
		"status":         e.Status,
		"reviewed_by":    e.ReviewedBy,
		"reviewed_at":    e.ReviewedAt,
		"review_comment": e.ReviewComment,
		"updated_by":     e.UpdatedBy,
	})
	if err != nil {
		return err
	}
	e.Version = oldVersion + 1
	return nil
}

func (r *timesheetRepo) Delete(ctx context.Context, id, deletedBy string) error {
	return softDelete(ctx, r.db, &model.TimesheetEntry{}, "timesheet_entry_id", id, deletedBy)
}

func (r *timesheetRepo) List(ctx context.Context, filter TimesheetFilter, page Page) ([]model.TimesheetEntry, int64, error) {
	var list []model.TimesheetEntry
	var total int64

	db := r.db.WithContext(ctx).Model(&model.TimesheetEntry{})
	if filter.UserID != "" {
		db = db.Where("user_id = ?", filter.UserID)
	}
	if len(filter.UserIDs) > 0 {
		db = db.Where("user_id IN ?", filter.UserIDs)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		db = db.Where("work_date >= ?", model.DateOnly(*filter.From))
	}
	if filter.To != nil {
		db = db.Where("work_date <= ?", model.DateOnly(*filter.To))
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := page.apply(db.Preload("User")).
		Order("work_date ASC, clock_in ASC").
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *timesheetRepo) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.TimesheetEntry{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}
