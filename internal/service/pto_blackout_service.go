package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/repository"
)

// ── 禁休期业务错误 ──

var (
	ErrBlackoutNotFound  = errors.New("禁休期不存在")
	ErrBlackoutDateRange = errors.New("禁休期结束日期不能早于开始日期")
	ErrBlackoutLimit     = errors.New("限制并发申请的禁休期必须设置大于 0 的并发上限")
)

// PtoBlackoutService 禁休期业务接口
type PtoBlackoutService interface {
	Create(ctx context.Context, req *dto.CreatePtoBlackoutRequest, callerID string) (*model.PtoBlackout, error)
	GetByID(ctx context.Context, id string) (*model.PtoBlackout, error)
	List(ctx context.Context, includeInactive bool) ([]model.PtoBlackout, error)
	Update(ctx context.Context, id string, req *dto.UpdatePtoBlackoutRequest, callerID string) (*model.PtoBlackout, error)
	Delete(ctx context.Context, id string, callerID string) error
	// Preview 申请提交前预检
	Preview(ctx context.Context, req *dto.BlackoutCheckRequest, caller Caller) (*dto.BlackoutCheckResponse, error)
	// Check 检查员工在 [start, end] 申请 ptoTypeID 时命中的禁休期
	Check(ctx context.Context, user *model.User, ptoTypeID string, start, end time.Time) (*dto.BlackoutCheckResponse, error)
	// CheckWith 同 Check，读取走 repo 绑定的连接（提交申请时为事务）
	CheckWith(ctx context.Context, repo *repository.Repository, user *model.User, ptoTypeID string, start, end time.Time) (*dto.BlackoutCheckResponse, error)
}

type ptoBlackoutService struct {
	repo     *repository.Repository
	activity ActivityService
	logger   *zap.Logger
}

// NewPtoBlackoutService 创建 PtoBlackoutService 实例
func NewPtoBlackoutService(repo *repository.Repository, activity ActivityService, logger *zap.Logger) PtoBlackoutService {
	return &ptoBlackoutService{repo: repo, activity: activity, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *ptoBlackoutService) Create(ctx context.Context, req *dto.CreatePtoBlackoutRequest, callerID string) (*model.PtoBlackout, error) {
	start, err := dto.ParseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := dto.ParseDate(req.EndDate)
	if err != nil {
		return nil, err
	}

	b := &model.PtoBlackout{
		Name:                  req.Name,
		Description:           req.Description,
		StartDate:             start,
		EndDate:               end,
		DepartmentID:          emptyToNil(req.DepartmentID),
		PositionID:            emptyToNil(req.PositionID),
		PtoTypeID:             emptyToNil(req.PtoTypeID),
		RestrictionType:       req.RestrictionType,
		MaxConcurrentRequests: req.MaxConcurrentRequests,
		IsRecurring:           req.IsRecurring,
		IsActive:              true,
	}
	if err := validateBlackout(b); err != nil {
		return nil, err
	}
	b.CreatedBy = &callerID
	b.UpdatedBy = &callerID

	if err := s.repo.PtoBlackout.Create(ctx, b); err != nil {
		s.logger.Error("创建禁休期失败", zap.Error(err))
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNamePTO, Description: "创建禁休期",
		SubjectType: "pto_blackout", SubjectID: b.PtoBlackoutID, CauserID: callerID,
		Properties: map[string]interface{}{
			"name": b.Name, "restriction_type": b.RestrictionType,
			"start_date": req.StartDate, "end_date": req.EndDate,
		},
	})
	return b, nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *ptoBlackoutService) GetByID(ctx context.Context, id string) (*model.PtoBlackout, error) {
	b, err := s.repo.PtoBlackout.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBlackoutNotFound
		}
		s.logger.Error("查询禁休期失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return b, nil
}

func (s *ptoBlackoutService) List(ctx context.Context, includeInactive bool) ([]model.PtoBlackout, error) {
	list, err := s.repo.PtoBlackout.List(ctx, includeInactive)
	if err != nil {
		s.logger.Error("列出禁休期失败", zap.Error(err))
		return nil, err
	}
	return list, nil
}

// ────────────────────── Update ──────────────────────

func (s *ptoBlackoutService) Update(ctx context.Context, id string, req *dto.UpdatePtoBlackoutRequest, callerID string) (*model.PtoBlackout, error) {
	b, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		b.Name = *req.Name
	}
	if req.Description != nil {
		b.Description = *req.Description
	}
	if req.StartDate != nil {
		d, err := dto.ParseDate(*req.StartDate)
		if err != nil {
			return nil, err
		}
		b.StartDate = d
	}
	if req.EndDate != nil {
		d, err := dto.ParseDate(*req.EndDate)
		if err != nil {
			return nil, err
		}
		b.EndDate = d
	}
	if req.DepartmentID != nil {
		b.DepartmentID = emptyToNil(req.DepartmentID)
	}
	if req.PositionID != nil {
		b.PositionID = emptyToNil(req.PositionID)
	}
	if req.PtoTypeID != nil {
		b.PtoTypeID = emptyToNil(req.PtoTypeID)
	}
	if req.RestrictionType != nil {
		b.RestrictionType = *req.RestrictionType
	}
	if req.MaxConcurrentRequests != nil {
		b.MaxConcurrentRequests = *req.MaxConcurrentRequests
	}
	if req.IsRecurring != nil {
		b.IsRecurring = *req.IsRecurring
	}
	if req.IsActive != nil {
		b.IsActive = *req.IsActive
	}
	if err := validateBlackout(b); err != nil {
		return nil, err
	}
	b.UpdatedBy = &callerID

	if err := s.repo.PtoBlackout.Update(ctx, b); err != nil {
		s.logger.Error("更新禁休期失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNamePTO, Description: "更新禁休期",
		SubjectType: "pto_blackout", SubjectID: id, CauserID: callerID,
	})
	return b, nil
}

// ────────────────────── Delete ──────────────────────

func (s *ptoBlackoutService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.PtoBlackout.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除禁休期失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNamePTO, Description: "删除禁休期",
		SubjectType: "pto_blackout", SubjectID: id, CauserID: callerID,
	})
	return nil
}

// ────────────────────── Preview / Check ──────────────────────

func (s *ptoBlackoutService) Preview(ctx context.Context, req *dto.BlackoutCheckRequest, caller Caller) (*dto.BlackoutCheckResponse, error) {
	start, err := dto.ParseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := dto.ParseDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, ErrRequestDateRange
	}

	userID := req.UserID
	if userID == "" {
		userID = caller.UserID
	}
	user, ok, err := canActFor(ctx, s.repo, caller, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoPermission
	}
	return s.Check(ctx, user, req.PtoTypeID, start, end)
}

func (s *ptoBlackoutService) Check(ctx context.Context, user *model.User, ptoTypeID string, start, end time.Time) (*dto.BlackoutCheckResponse, error) {
	return s.CheckWith(ctx, s.repo, user, ptoTypeID, start, end)
}

func (s *ptoBlackoutService) CheckWith(ctx context.Context, repo *repository.Repository, user *model.User, ptoTypeID string, start, end time.Time) (*dto.BlackoutCheckResponse, error) {
	blackouts, err := repo.PtoBlackout.List(ctx, false)
	if err != nil {
		s.logger.Error("查询禁休期失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.BlackoutCheckResponse{
		Conflicts: []dto.BlackoutConflict{},
		Warnings:  []dto.BlackoutConflict{},
	}
	for i := range blackouts {
		b := &blackouts[i]
		if !b.AppliesTo(user, ptoTypeID) {
			continue
		}
		occStart, occEnd, ok := b.OccurrenceIn(start, end)
		if !ok {
			continue
		}

		conflict := dto.BlackoutConflict{
			BlackoutID:      b.PtoBlackoutID,
			Name:            b.Name,
			RestrictionType: b.RestrictionType,
			StartDate:       dto.FormatDate(occStart),
			EndDate:         dto.FormatDate(occEnd),
		}

		switch b.RestrictionType {
		case model.BlackoutFullBlock:
			conflict.Message = fmt.Sprintf("%s 至 %s 为禁休期「%s」，不可申请休假", conflict.StartDate, conflict.EndDate, b.Name)
			resp.Conflicts = append(resp.Conflicts, conflict)
		case model.BlackoutLimitRequests:
			// 无部门的员工不参与部门并发限制
			if user == nil || user.DepartmentID == nil {
				continue
			}
			from, to := maxTime(start, occStart), minTime(end, occEnd)
			count, err := repo.PtoRequest.CountConcurrentInDepartment(ctx, *user.DepartmentID, from, to)
			if err != nil {
				s.logger.Error("统计部门并发申请失败", zap.Error(err))
				return nil, err
			}
			if count >= int64(b.MaxConcurrentRequests) {
				conflict.Message = fmt.Sprintf("禁休期「%s」内本部门同时休假人数已达上限 %d", b.Name, b.MaxConcurrentRequests)
				resp.Conflicts = append(resp.Conflicts, conflict)
			}
		default:
			conflict.Message = fmt.Sprintf("%s 至 %s 处于「%s」，请与主管确认", conflict.StartDate, conflict.EndDate, b.Name)
			resp.Warnings = append(resp.Warnings, conflict)
		}
	}
	resp.Blocked = len(resp.Conflicts) > 0
	return resp, nil
}

func validateBlackout(b *model.PtoBlackout) error {
	if model.DateOnly(b.EndDate).Before(model.DateOnly(b.StartDate)) {
		return ErrBlackoutDateRange
	}
	if b.RestrictionType == model.BlackoutLimitRequests && b.MaxConcurrentRequests <= 0 {
		return ErrBlackoutLimit
	}
	return nil
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
