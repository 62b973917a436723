package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/repository"
)

// ── 休假策略业务错误 ──

var (
	ErrPolicyNotFound      = errors.New("休假策略不存在")
	ErrPolicyDateRange     = errors.New("策略结束日期不能早于生效日期")
	ErrPolicyNegativeValue = errors.New("策略额度不能为负数")
)

// PtoPolicyService 休假策略业务接口
type PtoPolicyService interface {
	Create(ctx context.Context, req *dto.CreatePtoPolicyRequest, callerID string) (*model.PtoPolicy, error)
	GetByID(ctx context.Context, id string) (*model.PtoPolicy, error)
	List(ctx context.Context, req *dto.PtoPolicyListRequest) ([]model.PtoPolicy, error)
	Update(ctx context.Context, id string, req *dto.UpdatePtoPolicyRequest, callerID string) (*model.PtoPolicy, error)
	Delete(ctx context.Context, id string, callerID string) error
}

type ptoPolicyService struct {
	repo     *repository.Repository
	activity ActivityService
	logger   *zap.Logger
}

// NewPtoPolicyService 创建 PtoPolicyService 实例
func NewPtoPolicyService(repo *repository.Repository, activity ActivityService, logger *zap.Logger) PtoPolicyService {
	return &ptoPolicyService{repo: repo, activity: activity, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *ptoPolicyService) Create(ctx context.Context, req *dto.CreatePtoPolicyRequest, callerID string) (*model.PtoPolicy, error) {
	if _, err := s.repo.User.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if _, err := s.repo.PtoType.GetByID(ctx, req.PtoTypeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPtoTypeNotFound
		}
		return nil, err
	}

	effective, err := dto.ParseDate(req.EffectiveDate)
	if err != nil {
		return nil, err
	}
	end, err := dto.ParseOptionalDate(req.EndDate)
	if err != nil {
		return nil, err
	}

	p := &model.PtoPolicy{
		Name:                req.Name,
		UserID:              req.UserID,
		PtoTypeID:           req.PtoTypeID,
		InitialDays:         req.InitialDays,
		AnnualAccrualAmount: req.AnnualAccrualAmount,
		BonusDays:           req.BonusDays,
		RolloverEnabled:     req.RolloverEnabled,
		MaxRolloverDays:     req.MaxRolloverDays,
		MaxNegativeBalance:  req.MaxNegativeBalance,
		EffectiveDate:       effective,
		EndDate:             end,
		WorkWeekdays:        model.IntArray(req.WorkWeekdays),
		IsActive:            true,
	}
	if err := validatePolicy(p); err != nil {
		return nil, err
	}
	p.CreatedBy = &callerID
	p.UpdatedBy = &callerID

	if err := s.repo.PtoPolicy.Create(ctx, p); err != nil {
		s.logger.Error("创建休假策略失败", zap.Error(err))
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNamePTO, Description: "创建休假策略",
		SubjectType: "pto_policy", SubjectID: p.PtoPolicyID, CauserID: callerID,
		Properties: map[string]interface{}{"user_id": p.UserID, "pto_type_id": p.PtoTypeID},
	})
	return p, nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *ptoPolicyService) GetByID(ctx context.Context, id string) (*model.PtoPolicy, error) {
	p, err := s.repo.PtoPolicy.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPolicyNotFound
		}
		s.logger.Error("查询休假策略失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (s *ptoPolicyService) List(ctx context.Context, req *dto.PtoPolicyListRequest) ([]model.PtoPolicy, error) {
	policies, err := s.repo.PtoPolicy.List(ctx, repository.PtoPolicyFilter{
		UserID:    req.UserID,
		PtoTypeID: req.PtoTypeID,
	})
	if err != nil {
		s.logger.Error("列出休假策略失败", zap.Error(err))
		return nil, err
	}
	return policies, nil
}

// ────────────────────── Update ──────────────────────

func (s *ptoPolicyService) Update(ctx context.Context, id string, req *dto.UpdatePtoPolicyRequest, callerID string) (*model.PtoPolicy, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.InitialDays != nil {
		p.InitialDays = *req.InitialDays
	}
	if req.AnnualAccrualAmount != nil {
		p.AnnualAccrualAmount = *req.AnnualAccrualAmount
	}
	if req.BonusDays != nil {
		p.BonusDays = *req.BonusDays
	}
	if req.RolloverEnabled != nil {
		p.RolloverEnabled = *req.RolloverEnabled
	}
	if req.MaxRolloverDays != nil {
		p.MaxRolloverDays = *req.MaxRolloverDays
	}
	if req.MaxNegativeBalance != nil {
		p.MaxNegativeBalance = *req.MaxNegativeBalance
	}
	if req.EffectiveDate != nil {
		d, err := dto.ParseDate(*req.EffectiveDate)
		if err != nil {
			return nil, err
		}
		p.EffectiveDate = d
	}
	if req.EndDate != nil {
		d, err := dto.ParseOptionalDate(*req.EndDate)
		if err != nil {
			return nil, err
		}
		p.EndDate = d
	}
	if req.WorkWeekdays != nil {
		p.WorkWeekdays = model.IntArray(req.WorkWeekdays)
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if err := validatePolicy(p); err != nil {
		return nil, err
	}
	p.UpdatedBy = &callerID
	p.User, p.PtoType = nil, nil

	if err := s.repo.PtoPolicy.Update(ctx, p); err != nil {
		s.logger.Error("更新休假策略失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNamePTO, Description: "更新休假策略",
		SubjectType: "pto_policy", SubjectID: id, CauserID: callerID,
	})
	return p, nil
}

// ────────────────────── Delete ──────────────────────

func (s *ptoPolicyService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.PtoPolicy.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除休假策略失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNamePTO, Description: "删除休假策略",
		SubjectType: "pto_policy", SubjectID: id, CauserID: callerID,
	})
	return nil
}

func validatePolicy(p *model.PtoPolicy) error {
	if p.EndDate != nil && model.DateOnly(*p.EndDate).Before(model.DateOnly(p.EffectiveDate)) {
		return ErrPolicyDateRange
	}
	for _, v := range []decimal.Decimal{p.InitialDays, p.AnnualAccrualAmount, p.BonusDays, p.MaxRolloverDays, p.MaxNegativeBalance} {
		if v.IsNegative() {
			return ErrPolicyNegativeValue
		}
	}
	return nil
}
