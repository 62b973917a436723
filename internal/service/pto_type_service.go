package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/repository"
)

// ── 休假类型业务错误 ──

var (
	ErrPtoTypeNotFound   = errors.New("休假类型不存在")
	ErrPtoTypeCodeExists = errors.New("休假类型编码已存在")
	ErrPtoTypeInUse      = errors.New("休假类型已被策略或申请引用，请改为停用")
	ErrPtoTypeInactive   = errors.New("休假类型已停用")
	ErrPtoTypeCodeFull   = errors.New("无法生成唯一的休假类型编码")
)

const maxCodeSuffix = 999

// PtoTypeService 休假类型业务接口
type PtoTypeService interface {
	Create(ctx context.Context, req *dto.CreatePtoTypeRequest, callerID string) (*model.PtoType, error)
	GetByID(ctx context.Context, id string) (*model.PtoType, error)
	List(ctx context.Context, includeInactive bool) ([]model.PtoType, error)
	Update(ctx context.Context, id string, req *dto.UpdatePtoTypeRequest, callerID string) (*model.PtoType, error)
	Delete(ctx context.Context, id string, callerID string) error
	// GenerateCode 按名称生成未被占用的编码：VAC、VAC2、VAC3…
	GenerateCode(ctx context.Context, name string) (string, error)
}

type ptoTypeService struct {
	repo     *repository.Repository
	activity ActivityService
	logger   *zap.Logger
}

// NewPtoTypeService 创建 PtoTypeService 实例
func NewPtoTypeService(repo *repository.Repository, activity ActivityService, logger *zap.Logger) PtoTypeService {
	return &ptoTypeService{repo: repo, activity: activity, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *ptoTypeService) Create(ctx context.Context, req *dto.CreatePtoTypeRequest, callerID string) (*model.PtoType, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		generated, err := s.GenerateCode(ctx, req.Name)
		if err != nil {
			return nil, err
		}
		code = generated
	} else if err := s.ensureCodeFree(ctx, code, ""); err != nil {
		return nil, err
	}

	t := &model.PtoType{
		Name:             strings.TrimSpace(req.Name),
		Code:             code,
		Description:      req.Description,
		Color:            req.Color,
		RequiresApproval: boolOr(req.RequiresApproval, true),
		UsesBalance:      boolOr(req.UsesBalance, true),
		AllowNegative:    req.AllowNegative,
		IsActive:         true,
		SortOrder:        req.SortOrder,
	}
	if t.Color == "" {
		t.Color = "#3B82F6"
	}
	t.CreatedBy = &callerID
	t.UpdatedBy = &callerID

	if err := s.repo.PtoType.Create(ctx, t); err != nil {
		s.logger.Error("创建休假类型失败", zap.Error(err))
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNamePTO, Description: "创建休假类型",
		SubjectType: "pto_type", SubjectID: t.PtoTypeID, CauserID: callerID,
		Properties: map[string]interface{}{"code": t.Code, "name": t.Name},
	})
	return t, nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *ptoTypeService) GetByID(ctx context.Context, id string) (*model.PtoType, error) {
	t, err := s.repo.PtoType.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPtoTypeNotFound
		}
		s.logger.Error("查询休假类型失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return t, nil
}

func (s *ptoTypeService) List(ctx context.Context, includeInactive bool) ([]model.PtoType, error) {
	types, err := s.repo.PtoType.List(ctx, includeInactive)
	if err != nil {
		s.logger.Error("列出休假类型失败", zap.Error(err))
		return nil, err
	}
	return types, nil
}

// ────────────────────── Update ──────────────────────

func (s *ptoTypeService) Update(ctx context.Context, id string, req *dto.UpdatePtoTypeRequest, callerID string) (*model.PtoType, error) {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Code != nil {
		code := strings.ToUpper(strings.TrimSpace(*req.Code))
		if code != "" && code != t.Code {
			if err := s.ensureCodeFree(ctx, code, id); err != nil {
				return nil, err
			}
			t.Code = code
		}
	}
	if req.Name != nil {
		t.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Color != nil {
		t.Color = *req.Color
	}
	if req.RequiresApproval != nil {
		t.RequiresApproval = *req.RequiresApproval
	}
	if req.UsesBalance != nil {
		t.UsesBalance = *req.UsesBalance
	}
	if req.AllowNegative != nil {
		t.AllowNegative = *req.AllowNegative
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	if req.SortOrder != nil {
		t.SortOrder = *req.SortOrder
	}
	t.UpdatedBy = &callerID

	if err := s.repo.PtoType.Update(ctx, t); err != nil {
		s.logger.Error("更新休假类型失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNamePTO, Description: "更新休假类型",
		SubjectType: "pto_type", SubjectID: id, CauserID: callerID,
	})
	return t, nil
}

// ────────────────────── Delete ──────────────────────

func (s *ptoTypeService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	usage, err := s.repo.PtoType.CountUsage(ctx, id)
	if err != nil {
		s.logger.Error("查询休假类型引用失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if usage > 0 {
		return ErrPtoTypeInUse
	}

	if err := s.repo.PtoType.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除休假类型失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNamePTO, Description: "删除休假类型",
		SubjectType: "pto_type", SubjectID: id, CauserID: callerID,
	})
	return nil
}

// ────────────────────── GenerateCode ──────────────────────

func (s *ptoTypeService) GenerateCode(ctx context.Context, name string) (string, error) {
	base := model.PtoTypeCodeBase(name)
	for n := 1; n <= maxCodeSuffix; n++ {
		code := base
		if n > 1 {
			code = base + strconv.Itoa(n)
		}
		exists, err := s.repo.PtoType.CodeExists(ctx, code, "")
		if err != nil {
			s.logger.Error("检查休假类型编码失败", zap.String("code", code), zap.Error(err))
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrPtoTypeCodeFull
}

func (s *ptoTypeService) ensureCodeFree(ctx context.Context, code, excludeID string) error {
	exists, err := s.repo.PtoType.CodeExists(ctx, code, excludeID)
	if err != nil {
		s.logger.Error("检查休假类型编码失败", zap.String("code", code), zap.Error(err))
		return err
	}
	if exists {
		return ErrPtoTypeCodeExists
	}
	return nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
