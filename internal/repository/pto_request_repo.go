package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
)

// PtoRequestFilter 申请列表过滤条件
type PtoRequestFilter struct {
	UserID       string
	UserIDs      []string
	DepartmentID string
	ApproverID   string // 指派给该审批人且未处理
	Status       string
	Statuses     []string
	PtoTypeID    string
	From         *time.Time // 与 [From, To] 有交集
	To           *time.Time
}

// PtoRequestRepository 休假申请数据访问接口
type PtoRequestRepository interface {
	Create(ctx context.Context, req *model.PtoRequest) error
	GetByID(ctx context.Context, id string) (*model.PtoRequest, error)
	Update(ctx context.Context, req *model.PtoRequest) error
	List(ctx context.Context, filter PtoRequestFilter, page Page) ([]model.PtoRequest, int64, error)
	ListOverlapping(ctx context.Context, userID string, start, end time.Time) ([]model.PtoRequest, error)
	CountConcurrentInDepartment(ctx context.Context, departmentID string, start, end time.Time) (int64, error)
	NextNumber(ctx context.Context, year int) (string, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	CountOnLeave(ctx context.Context, day time.Time) (int64, error)
}

type ptoRequestRepo struct {
	db *gorm.DB
}

// NewPtoRequestRepo 创建 PtoRequestRepository 实例
func NewPtoRequestRepo(db *gorm.DB) PtoRequestRepository {
	return &ptoRequestRepo{db: db}
}

var activeRequestStatuses = []string{model.PtoStatusPending, model.PtoStatusApproved}

func (r *ptoRequestRepo) Create(ctx context.Context, req *model.PtoRequest) error {
	return r.db.WithContext(ctx).Omit("User", "PtoType", "Approvals").Create(req).Error
}

func (r *ptoRequestRepo) GetByID(ctx context.Context, id string) (*model.PtoRequest, error) {
	var req model.PtoRequest
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("PtoType").
		Preload("Approvals", func(db *gorm.DB) *gorm.DB { return db.Order("level ASC") }).
		Where("pto_request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *ptoRequestRepo) Update(ctx context.Context, req *model.PtoRequest) error {
	oldVersion := req.Version
	err := updateVersioned(ctx, r.db, &model.PtoRequest{}, "pto_request_id", req.PtoRequestID, oldVersion, map[string]interface{}{
		"status":              req.Status,
		"approved_by":         req.ApprovedBy,
		"approved_at":         req.ApprovedAt,
		"denied_by":           req.DeniedBy,
		"denied_at":           req.DeniedAt,
		"denial_reason":       req.DenialReason,
		"cancelled_by":        req.CancelledBy,
		"cancelled_at":        req.CancelledAt,
		"cancellation_reason": req.CancellationReason,
		"updated_by":          req.UpdatedBy,
	})
	if err != nil {
		return err
	}
	req.Version = oldVersion + 1
	return nil
}

func (r *ptoRequestRepo) List(ctx context.Context, filter PtoRequestFilter, page Page) ([]model.PtoRequest, int64, error) {
	var list []model.PtoRequest
	var total int64

	db := r.db.WithContext(ctx).Model(&model.PtoRequest{})
	if filter.UserID != "" {
		db = db.Where("user_id = ?", filter.UserID)
	}
	if len(filter.UserIDs) > 0 {
		db = db.Where("user_id IN ?", filter.UserIDs)
	}
	if filter.DepartmentID != "" {
		db = db.Where("user_id IN (SELECT user_id FROM users WHERE department_id = ?)", filter.DepartmentID)
	}
	if filter.ApproverID != "" {
		db = db.Where("pto_request_id IN (SELECT pto_request_id FROM pto_approvals WHERE approver_id = ? AND status = ?)",
			filter.ApproverID, model.ApprovalPending)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if len(filter.Statuses) > 0 {
		db = db.Where("status IN ?", filter.Statuses)
	}
	if filter.PtoTypeID != "" {
		db = db.Where("pto_type_id = ?", filter.PtoTypeID)
	}
	if filter.From != nil {
		db = db.Where("end_date >= ?", model.DateOnly(*filter.From))
	}
	if filter.To != nil {
		db = db.Where("start_date <= ?", model.DateOnly(*filter.To))
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := page.apply(db.Preload("User").Preload("PtoType")).
		Order("start_date DESC, created_at DESC").
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListOverlapping 员工与 [start, end] 有交集的待审批 / 已批准申请
func (r *ptoRequestRepo) ListOverlapping(ctx context.Context, userID string, start, end time.Time) ([]model.PtoRequest, error) {
	var list []model.PtoRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, activeRequestStatuses).
		Where("start_date <= ? AND end_date >= ?", model.DateOnly(end), model.DateOnly(start)).
		Find(&list).Error
	return list, err
}

// CountConcurrentInDepartment 部门内与 [start, end] 有交集的待审批 / 已批准申请数
func (r *ptoRequestRepo) CountConcurrentInDepartment(ctx context.Context, departmentID string, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.PtoRequest{}).
		Joins("JOIN users ON users.user_id = pto_requests.user_id").
		Where("users.department_id = ?", departmentID).
		Where("pto_requests.status IN ?", activeRequestStatuses).
		Where("pto_requests.start_date <= ? AND pto_requests.end_date >= ?", model.DateOnly(end), model.DateOnly(start)).
		Count(&count).Error
	return count, err
}

// NextNumber 生成下一个申请编号 PTO-YYYY-NNNNNN
// 须在事务内调用：按年份加事务级咨询锁，提交前同年份的编号生成串行
func (r *ptoRequestRepo) NextNumber(ctx context.Context, year int) (string, error) {
	prefix := fmt.Sprintf("PTO-%04d-", year)
	db := r.db.WithContext(ctx)

	if err := db.Exec("SELECT pg_advisory_xact_lock(hashtext(CAST(? AS TEXT)))", "pto_request_number:"+prefix).Error; err != nil {
		return "", err
	}

	var max int
	err := db.Raw("SELECT COALESCE(MAX(CAST(SUBSTRING(request_number FROM CAST(? AS INTEGER)) AS INTEGER)), 0) FROM pto_requests WHERE request_number LIKE ?",
		len(prefix)+1, prefix+"%").
		Scan(&max).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%06d", prefix, max+1), nil
}

func (r *ptoRequestRepo) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.PtoRequest{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

// CountOnLeave day 当天处于已批准休假中的员工数
func (r *ptoRequestRepo) CountOnLeave(ctx context.Context, day time.Time) (int64, error) {
	var count int64
	d := model.DateOnly(day)
	err := r.db.WithContext(ctx).
		Model(&model.PtoRequest{}).
		Where("status = ? AND start_date <= ? AND end_date >= ?", model.PtoStatusApproved, d, d).
		Distinct("user_id").
		Count(&count).Error
	return count, err
}
