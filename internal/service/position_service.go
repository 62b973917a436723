package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/repository"
)

// ── 岗位模块业务错误 ──

var (
	ErrPositionNotFound    = errors.New("岗位不存在")
	ErrPositionTitleExists = errors.New("同一部门下岗位名称已存在")
	ErrPositionInUse       = errors.New("岗位仍有员工任职，无法删除")
)

// PositionService 岗位业务接口
type PositionService interface {
	Create(ctx context.Context, req *dto.CreatePositionRequest, callerID string) (*model.Position, error)
	GetByID(ctx context.Context, id string) (*model.Position, error)
	List(ctx context.Context, req *dto.PositionListRequest) ([]model.Position, error)
	Update(ctx context.Context, id string, req *dto.UpdatePositionRequest, callerID string) (*model.Position, error)
	Delete(ctx context.Context, id string, callerID string) error
}

type positionService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewPositionService 创建 PositionService 实例
func NewPositionService(repo *repository.Repository, logger *zap.Logger) PositionService {
	return &positionService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *positionService) Create(ctx context.Context, req *dto.CreatePositionRequest, callerID string) (*model.Position, error) {
	deptID := emptyToNil(req.DepartmentID)
	if err := s.ensureDepartment(ctx, deptID); err != nil {
		return nil, err
	}
	if err := s.ensureTitleFree(ctx, req.Title, deptID, ""); err != nil {
		return nil, err
	}

	pos := &model.Position{
		Title:        req.Title,
		DepartmentID: deptID,
		Description:  req.Description,
		IsActive:     true,
	}
	pos.CreatedBy = &callerID
	pos.UpdatedBy = &callerID

	if err := s.repo.Position.Create(ctx, pos); err != nil {
		s.logger.Error("创建岗位失败", zap.Error(err))
		return nil, err
	}
	return pos, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *positionService) GetByID(ctx context.Context, id string) (*model.Position, error) {
	pos, err := s.repo.Position.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPositionNotFound
		}
		s.logger.Error("查询岗位失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return pos, nil
}

// ────────────────────── List ──────────────────────

func (s *positionService) List(ctx context.Context, req *dto.PositionListRequest) ([]model.Position, error) {
	positions, err := s.repo.Position.List(ctx, req.DepartmentID, req.IncludeInactive)
	if err != nil {
		s.logger.Error("列出岗位失败", zap.Error(err))
		return nil, err
	}
	return positions, nil
}

// ────────────────────── Update ──────────────────────

func (s *positionService) Update(ctx context.Context, id string, req *dto.UpdatePositionRequest, callerID string) (*model.Position, error) {
	pos, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	title, deptID := pos.Title, pos.DepartmentID
	if req.Title != nil {
		title = *req.Title
	}
	if req.DepartmentID != nil {
		deptID = emptyToNil(req.DepartmentID)
		if err := s.ensureDepartment(ctx, deptID); err != nil {
			return nil, err
		}
	}
	if title != pos.Title || !sameStringPtr(deptID, pos.DepartmentID) {
		if err := s.ensureTitleFree(ctx, title, deptID, id); err != nil {
			return nil, err
		}
	}

	pos.Title = title
	pos.DepartmentID = deptID
	if req.Description != nil {
		pos.Description = *req.Description
	}
	if req.IsActive != nil {
		pos.IsActive = *req.IsActive
	}
	pos.UpdatedBy = &callerID
	pos.Department = nil

	if err := s.repo.Position.Update(ctx, pos); err != nil {
		s.logger.Error("更新岗位失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return pos, nil
}

// ────────────────────── Delete ──────────────────────

func (s *positionService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	holders, err := s.repo.Position.CountHolders(ctx, id)
	if err != nil {
		s.logger.Error("查询岗位任职人数失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if holders > 0 {
		return ErrPositionInUse
	}

	if err := s.repo.Position.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除岗位失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *positionService) ensureDepartment(ctx context.Context, deptID *string) error {
	if deptID == nil {
		return nil
	}
	if _, err := s.repo.Department.GetByID(ctx, *deptID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDepartmentNotFound
		}
		return err
	}
	return nil
}

func (s *positionService) ensureTitleFree(ctx context.Context, title string, deptID *string, excludeID string) error {
	existing, err := s.repo.Position.GetByTitle(ctx, title, deptID)
	if err == nil && existing.PositionID != excludeID {
		return ErrPositionTitleExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询岗位失败", zap.Error(err))
		return err
	}
	return nil
}

func sameStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
