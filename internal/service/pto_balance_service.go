package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Digitalhour/ACSCoreOS-sub013/config"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/repository"
)

// ── 余额与流水业务错误 ──

var (
	ErrLedgerAmount        = errors.New("记账额度必须大于 0")
	ErrInsufficientBalance = errors.New("可用额度不足")
)

// LedgerEntry 一次记账
// Amount 为正数，方向由记账操作决定
type LedgerEntry struct {
	UserID      string
	PtoTypeID   string
	Year        int
	Amount      decimal.Decimal
	Description string
	RequestID   *string
	ActorID     string
}

// PtoBalanceService 休假余额与流水业务接口
// 所有记账操作在数据库事务内完成：锁定余额行 → 变更对应桶 → 乐观锁写回 → 写入流水
type PtoBalanceService interface {
	// AddBalance 增加总额度（手工调整）
	AddBalance(ctx context.Context, e LedgerEntry) (*model.PtoBalance, error)
	// SubtractBalance 扣减总额度（手工调整）
	SubtractBalance(ctx context.Context, e LedgerEntry) (*model.PtoBalance, error)
	// AddPendingBalance 冻结额度（申请提交）
	AddPendingBalance(ctx context.Context, e LedgerEntry) (*model.PtoBalance, error)
	// ReleasePendingBalance 释放冻结（驳回 / 撤销待审批申请）
	ReleasePendingBalance(ctx context.Context, e LedgerEntry) (*model.PtoBalance, error)
	// ConfirmPending 冻结转已用（审批通过）
	ConfirmPending(ctx context.Context, e LedgerEntry) (*model.PtoBalance, error)
	// ReverseUsage 冲销已用（撤销已通过的申请）
	ReverseUsage(ctx context.Context, e LedgerEntry) (*model.PtoBalance, error)

	Adjust(ctx context.Context, req *dto.AdjustBalanceRequest, callerID string) (*dto.BalanceResponse, error)
	GetBalances(ctx context.Context, req *dto.BalanceListRequest, caller Caller) ([]dto.BalanceResponse, error)
	ListTransactions(ctx context.Context, req *dto.TransactionListRequest, caller Caller) ([]model.PtoTransaction, int64, error)

	// AccrueYear 为指定年份的所有有效策略发放额度，可重复执行
	AccrueYear(ctx context.Context, year int, actorID string) (*dto.AccrualResult, error)
	// Reconcile 以流水汇总校验余额，fix 为 true 时以流水为准修正
	Reconcile(ctx context.Context, year int, fix bool) ([]dto.ReconcileRow, error)
}

type ptoBalanceService struct {
	cfg      *config.PTOConfig
	repo     *repository.Repository
	activity ActivityService
	logger   *zap.Logger
	now      func() time.Time
}

// NewPtoBalanceService 创建 PtoBalanceService 实例
func NewPtoBalanceService(cfg *config.PTOConfig, repo *repository.Repository, activity ActivityService, logger *zap.Logger) PtoBalanceService {
	return &ptoBalanceService{cfg: cfg, repo: repo, activity: activity, logger: logger, now: time.Now}
}

// ────────────────────── 记账操作 ──────────────────────

func (s *ptoBalanceService) AddBalance(ctx context.Context, e LedgerEntry) (*model.PtoBalance, error) {
	return s.inTx(ctx, e, addBalance)
}

func (s *ptoBalanceService) SubtractBalance(ctx context.Context, e LedgerEntry) (*model.PtoBalance, error) {
	return s.inTx(ctx, e, subtractBalance)
}

func (s *ptoBalanceService) AddPendingBalance(ctx context.Context, e LedgerEntry) (*model.PtoBalance, error) {
	return s.inTx(ctx, e, addPendingBalance)
}

func (s *ptoBalanceService) ReleasePendingBalance(ctx context.Context, e LedgerEntry) (*model.PtoBalance, error) {
	return s.inTx(ctx, e, releasePendingBalance)
}

func (s *ptoBalanceService) ConfirmPending(ctx context.Context, e LedgerEntry) (*model.PtoBalance, error) {
	return s.inTx(ctx, e, confirmPending)
}

func (s *ptoBalanceService) ReverseUsage(ctx context.Context, e LedgerEntry) (*model.PtoBalance, error) {
	return s.inTx(ctx, e, reverseUsage)
}

type ledgerOp func(ctx context.Context, tx *repository.Repository, e LedgerEntry) (*model.PtoBalance, error)

func (s *ptoBalanceService) inTx(ctx context.Context, e LedgerEntry, op ledgerOp) (*model.PtoBalance, error) {
	var balance *model.PtoBalance
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		b, err := op(ctx, tx, e)
		balance = b
		return err
	})
	if err != nil {
		if !isBusinessLedgerError(err) {
			s.logger.Error("记账失败",
				zap.String("user_id", e.UserID),
				zap.String("pto_type_id", e.PtoTypeID),
				zap.Int("year", e.Year),
				zap.Error(err))
		}
		return nil, err
	}
	return balance, nil
}

// ────────────────────── Adjust ──────────────────────

func (s *ptoBalanceService) Adjust(ctx context.Context, req *dto.AdjustBalanceRequest, callerID string) (*dto.BalanceResponse, error) {
	if req.Amount.IsZero() {
		return nil, ErrLedgerAmount
	}
	if _, err := s.repo.User.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	ptoType, err := s.repo.PtoType.GetByID(ctx, req.PtoTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPtoTypeNotFound
		}
		return nil, err
	}

	entry := LedgerEntry{
		UserID:      req.UserID,
		PtoTypeID:   req.PtoTypeID,
		Year:        req.Year,
		Amount:      req.Amount.Abs(),
		Description: req.Description,
		ActorID:     callerID,
	}
	var b *model.PtoBalance
	if req.Amount.IsPositive() {
		b, err = s.AddBalance(ctx, entry)
	} else {
		b, err = s.SubtractBalance(ctx, entry)
	}
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNamePTO, Description: "手工调整休假额度",
		SubjectType: "pto_balance", SubjectID: b.PtoBalanceID, CauserID: callerID,
		Properties: map[string]interface{}{
			"amount": req.Amount.String(), "year": req.Year, "description": req.Description,
		},
	})

	b.PtoType = ptoType
	return toBalanceResponse(b), nil
}

// ────────────────────── GetBalances ──────────────────────

func (s *ptoBalanceService) GetBalances(ctx context.Context, req *dto.BalanceListRequest, caller Caller) ([]dto.BalanceResponse, error) {
	userID := req.UserID
	if userID == "" {
		userID = caller.UserID
	}
	if _, ok, err := canActFor(ctx, s.repo, caller, userID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrNoPermission
	}

	year := req.Year
	if year == 0 {
		year = s.now().Year()
	}

	balances, err := s.repo.PtoBalance.ListByUser(ctx, userID, year)
	if err != nil {
		s.logger.Error("查询休假余额失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.BalanceResponse, 0, len(balances))
	for i := range balances {
		result = append(result, *toBalanceResponse(&balances[i]))
	}
	return result, nil
}

// ────────────────────── ListTransactions ──────────────────────

func (s *ptoBalanceService) ListTransactions(ctx context.Context, req *dto.TransactionListRequest, caller Caller) ([]model.PtoTransaction, int64, error) {
	userID := req.UserID
	if !caller.IsPrivileged() {
		if userID == "" {
			userID = caller.UserID
		}
		if _, ok, err := canActFor(ctx, s.repo, caller, userID); err != nil {
			return nil, 0, err
		} else if !ok {
			return nil, 0, ErrNoPermission
		}
	}

	filter := repository.PtoTransactionFilter{
		UserID:    userID,
		PtoTypeID: req.PtoTypeID,
		Year:      req.Year,
		Type:      req.Type,
	}
	txs, total, err := s.repo.PtoTransaction.List(ctx, filter, repository.Page{Offset: req.GetOffset(), Limit: req.GetPageSize()})
	if err != nil {
		s.logger.Error("查询休假流水失败", zap.Error(err))
		return nil, 0, err
	}
	return txs, total, nil
}

// ────────────────────── AccrueYear ──────────────────────

func (s *ptoBalanceService) AccrueYear(ctx context.Context, year int, actorID string) (*dto.AccrualResult, error) {
	policies, err := s.repo.PtoPolicy.ListActiveInYear(ctx, year)
	if err != nil {
		s.logger.Error("查询有效休假策略失败", zap.Int("year", year), zap.Error(err))
		return nil, err
	}

	result := &dto.AccrualResult{Year: year, Policies: len(policies), Total: decimal.Zero}

	for i := range policies {
		p := &policies[i]
		if !p.IsActive || !p.ActiveInYear(year) {
			result.Skipped++
			continue
		}

		var accrued, rolled decimal.Decimal
		skipped := false

		err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
			b, err := tx.PtoBalance.GetOrCreateForUpdate(ctx, p.UserID, p.PtoTypeID, year)
			if err != nil {
				return err
			}
			done, err := tx.PtoTransaction.ExistsForBalance(ctx, b.PtoBalanceID, model.PtoTxAccrual)
			if err != nil {
				return err
			}
			if done {
				skipped = true
				return nil
			}

			// 首年发放初始额度
			amount := p.ProratedAccrual(year, s.cfg.AccrualProration).Add(p.BonusDays)
			if p.EffectiveDate.Year() == year {
				amount = amount.Add(p.InitialDays)
			}
			entry := LedgerEntry{
				UserID:      p.UserID,
				PtoTypeID:   p.PtoTypeID,
				Year:        year,
				Amount:      amount,
				Description: fmt.Sprintf("%d 年度额度发放（%s）", year, p.Name),
				ActorID:     actorID,
			}
			if _, _, err := postLedger(ctx, tx, model.PtoTxAccrual, amount, entry); err != nil {
				return err
			}
			accrued = amount

			if !p.RolloverEnabled {
				return nil
			}
			prev, err := tx.PtoBalance.Get(ctx, p.UserID, p.PtoTypeID, year-1)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil
				}
				return err
			}
			carry := decimal.Min(prev.Available(), p.MaxRolloverDays)
			if !carry.IsPositive() {
				return nil
			}
			entry.Amount = carry
			entry.Description = fmt.Sprintf("%d 年结转", year-1)
			if _, _, err := postLedger(ctx, tx, model.PtoTxRollover, carry, entry); err != nil {
				return err
			}
			rolled = carry
			return nil
		})
		if err != nil {
			s.logger.Error("发放休假额度失败",
				zap.String("policy_id", p.PtoPolicyID), zap.Int("year", year), zap.Error(err))
			return result, err
		}

		if skipped {
			result.Skipped++
			continue
		}
		result.Accrued++
		result.Total = result.Total.Add(accrued).Add(rolled)
		if rolled.IsPositive() {
			result.Rollover++
		}
	}

	s.logger.Info("年度额度发放完成",
		zap.Int("year", year),
		zap.Int("accrued", result.Accrued),
		zap.Int("skipped", result.Skipped))

	if result.Accrued > 0 {
		s.activity.Record(ctx, ActivityEntry{
			LogName: LogNamePTO, Description: "年度额度发放", CauserID: actorID,
			Properties: map[string]interface{}{
				"year": year, "accrued": result.Accrued, "rollover": result.Rollover, "total": result.Total.String(),
			},
		})
	}
	return result, nil
}

// ────────────────────── Reconcile ──────────────────────

func (s *ptoBalanceService) Reconcile(ctx context.Context, year int, fix bool) ([]dto.ReconcileRow, error) {
	if year == 0 {
		year = s.now().Year()
	}
	balances, err := s.repo.PtoBalance.ListByYear(ctx, year)
	if err != nil {
		s.logger.Error("查询休假余额失败", zap.Int("year", year), zap.Error(err))
		return nil, err
	}

	rows := make([]dto.ReconcileRow, 0)
	for i := range balances {
		b := &balances[i]
		txs, err := s.repo.PtoTransaction.ListByBalance(ctx, b.PtoBalanceID)
		if err != nil {
			return rows, err
		}
		_, drift := b.Reconcile(txs)
		if drift.IsZero() {
			continue
		}

		row := dto.ReconcileRow{
			BalanceID: b.PtoBalanceID,
			UserID:    b.UserID,
			PtoTypeID: b.PtoTypeID,
			Year:      b.Year,
			Drift:     drift,
		}
		if fix {
			if err := s.fixBalance(ctx, b); err != nil {
				s.logger.Error("修正休假余额失败", zap.String("balance_id", b.PtoBalanceID), zap.Error(err))
				return rows, err
			}
			row.Fixed = true
		}
		rows = append(rows, row)
	}

	if fix && len(rows) > 0 {
		s.logger.Warn("已按流水修正休假余额", zap.Int("year", year), zap.Int("count", len(rows)))
		s.activity.Record(ctx, ActivityEntry{
			LogName: LogNamePTO, Description: "休假余额对账修正",
			Properties: map[string]interface{}{"year": year, "fixed": len(rows)},
		})
	}
	return rows, nil
}

// fixBalance 在锁内重新汇总流水并写回
func (s *ptoBalanceService) fixBalance(ctx context.Context, b *model.PtoBalance) error {
	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		locked, err := tx.PtoBalance.GetOrCreateForUpdate(ctx, b.UserID, b.PtoTypeID, b.Year)
		if err != nil {
			return err
		}
		txs, err := tx.PtoTransaction.ListByBalance(ctx, locked.PtoBalanceID)
		if err != nil {
			return err
		}
		expected, _ := locked.Reconcile(txs)
		locked.Balance = expected.Balance
		locked.UsedBalance = expected.UsedBalance
		locked.PendingBalance = expected.PendingBalance
		return tx.PtoBalance.Update(ctx, locked)
	})
}

// ── 记账原语（调用方负责事务） ──

func addBalance(ctx context.Context, tx *repository.Repository, e LedgerEntry) (*model.PtoBalance, error) {
	if !e.Amount.IsPositive() {
		return nil, ErrLedgerAmount
	}
	b, _, err := postLedger(ctx, tx, model.PtoTxAdjustment, e.Amount, e)
	return b, err
}

func subtractBalance(ctx context.Context, tx *repository.Repository, e LedgerEntry) (*model.PtoBalance, error) {
	if !e.Amount.IsPositive() {
		return nil, ErrLedgerAmount
	}
	b, _, err := postLedger(ctx, tx, model.PtoTxAdjustment, e.Amount.Neg(), e)
	return b, err
}

func addPendingBalance(ctx context.Context, tx *repository.Repository, e LedgerEntry) (*model.PtoBalance, error) {
	if !e.Amount.IsPositive() {
		return nil, ErrLedgerAmount
	}
	b, _, err := postLedger(ctx, tx, model.PtoTxPending, e.Amount, e)
	return b, err
}

func releasePendingBalance(ctx context.Context, tx *repository.Repository, e LedgerEntry) (*model.PtoBalance, error) {
	if !e.Amount.IsPositive() {
		return nil, ErrLedgerAmount
	}
	b, _, err := postLedger(ctx, tx, model.PtoTxPendingRelease, e.Amount.Neg(), e)
	return b, err
}

func confirmPending(ctx context.Context, tx *repository.Repository, e LedgerEntry) (*model.PtoBalance, error) {
	if !e.Amount.IsPositive() {
		return nil, ErrLedgerAmount
	}
	if _, _, err := postLedger(ctx, tx, model.PtoTxPendingRelease, e.Amount.Neg(), e); err != nil {
		return nil, err
	}
	b, _, err := postLedger(ctx, tx, model.PtoTxUsage, e.Amount, e)
	return b, err
}

func recordUsage(ctx context.Context, tx *repository.Repository, e LedgerEntry) (*model.PtoBalance, error) {
	if !e.Amount.IsPositive() {
		return nil, ErrLedgerAmount
	}
	b, _, err := postLedger(ctx, tx, model.PtoTxUsage, e.Amount, e)
	return b, err
}

func reverseUsage(ctx context.Context, tx *repository.Repository, e LedgerEntry) (*model.PtoBalance, error) {
	if !e.Amount.IsPositive() {
		return nil, ErrLedgerAmount
	}
	b, _, err := postLedger(ctx, tx, model.PtoTxUsageReversal, e.Amount.Neg(), e)
	return b, err
}

// postLedger 锁定余额行，把带符号的 amount 记入 txType 对应的桶，写回并追加流水
func postLedger(ctx context.Context, tx *repository.Repository, txType string, amount decimal.Decimal, e LedgerEntry) (*model.PtoBalance, *model.PtoTransaction, error) {
	b, err := tx.PtoBalance.GetOrCreateForUpdate(ctx, e.UserID, e.PtoTypeID, e.Year)
	if err != nil {
		return nil, nil, err
	}
	if err := b.Apply(txType, amount); err != nil {
		return nil, nil, err
	}
	if err := tx.PtoBalance.Update(ctx, b); err != nil {
		return nil, nil, err
	}

	row := &model.PtoTransaction{
		PtoBalanceID:   b.PtoBalanceID,
		UserID:         e.UserID,
		PtoTypeID:      e.PtoTypeID,
		PtoRequestID:   e.RequestID,
		Type:           txType,
		Amount:         amount,
		AvailableAfter: b.Available(),
		Description:    e.Description,
	}
	if e.ActorID != "" {
		actor := e.ActorID
		row.CreatedBy = &actor
	}
	if err := tx.PtoTransaction.Create(ctx, row); err != nil {
		return nil, nil, err
	}
	return b, row, nil
}

func isBusinessLedgerError(err error) bool {
	return errors.Is(err, ErrLedgerAmount) || errors.Is(err, model.ErrNegativeBucket)
}

func toBalanceResponse(b *model.PtoBalance) *dto.BalanceResponse {
	resp := &dto.BalanceResponse{
		ID:             b.PtoBalanceID,
		UserID:         b.UserID,
		PtoTypeID:      b.PtoTypeID,
		Year:           b.Year,
		Balance:        b.Balance,
		UsedBalance:    b.UsedBalance,
		PendingBalance: b.PendingBalance,
		Available:      b.Available(),
	}
	if b.PtoType != nil {
		resp.PtoTypeName = b.PtoType.Name
		resp.PtoTypeCode = b.PtoType.Code
	}
	return resp
}
