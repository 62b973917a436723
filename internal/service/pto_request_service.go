package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Digitalhour/ACSCoreOS-sub013/config"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/repository"
)

// ── 休假申请业务错误 ──

var (
	ErrRequestNotFound   = errors.New("休假申请不存在")
	ErrRequestDateRange  = errors.New("结束日期不能早于开始日期")
	ErrRequestTooLong    = errors.New("单次申请跨度超过上限")
	ErrRequestCrossYear  = errors.New("申请不能跨自然年，请拆分为两次申请")
	ErrRequestZeroDays   = errors.New("申请区间内没有工作日")
	ErrRequestOverlap    = errors.New("与已有的待审批或已通过申请日期重叠")
	ErrRequestNoPolicy   = errors.New("申请日期不在有效的休假策略期内")
	ErrRequestStatus     = errors.New("当前状态不允许此操作")
	ErrRequestStarted    = errors.New("休假已开始，只有 HR 可以撤销")
	ErrSelfApproval      = errors.New("不能审批自己的申请")
	ErrBlackoutConflict  = errors.New("申请日期与禁休期冲突")
	ErrOverrideForbidden = errors.New("只有 admin / hr 可以忽略禁休期限制")
)

// BlackoutConflictError 禁休期冲突详情
type BlackoutConflictError struct {
	Conflicts []dto.BlackoutConflict
}

func (e *BlackoutConflictError) Error() string { return ErrBlackoutConflict.Error() }

func (e *BlackoutConflictError) Unwrap() error { return ErrBlackoutConflict }

// PtoRequestService 休假申请业务接口
type PtoRequestService interface {
	Submit(ctx context.Context, req *dto.CreatePtoRequestRequest, caller Caller) (*dto.PtoRequestResponse, error)
	Approve(ctx context.Context, id string, req *dto.ApproveRequest, caller Caller) (*model.PtoRequest, error)
	Deny(ctx context.Context, id string, req *dto.DenyRequest, caller Caller) (*model.PtoRequest, error)
	Cancel(ctx context.Context, id string, req *dto.CancelRequest, caller Caller) (*model.PtoRequest, error)
	Get(ctx context.Context, id string, caller Caller) (*model.PtoRequest, error)
	// ListMine 本人的申请
	ListMine(ctx context.Context, req *dto.PtoRequestListRequest, caller Caller) ([]model.PtoRequest, int64, error)
	// List admin / hr 查看全部，manager 查看本人与直属下属
	List(ctx context.Context, req *dto.PtoRequestListRequest, caller Caller) ([]model.PtoRequest, int64, error)
	// ListForApproval 待当前用户审批的申请
	ListForApproval(ctx context.Context, req *dto.PtoRequestListRequest, caller Caller) ([]model.PtoRequest, int64, error)
	// Calendar 导出已通过的申请与禁休期为 iCalendar
	Calendar(ctx context.Context, req *dto.CalendarRequest, caller Caller) ([]byte, error)
}

type ptoRequestService struct {
	cfg       *config.PTOConfig
	repo      *repository.Repository
	blackouts PtoBlackoutService
	activity  ActivityService
	logger    *zap.Logger
	now       func() time.Time
}

// NewPtoRequestService 创建 PtoRequestService 实例
func NewPtoRequestService(
	cfg *config.PTOConfig,
	repo *repository.Repository,
	blackouts PtoBlackoutService,
	activity ActivityService,
	logger *zap.Logger,
) PtoRequestService {
	return &ptoRequestService{
		cfg:       cfg,
		repo:      repo,
		blackouts: blackouts,
		activity:  activity,
		logger:    logger,
		now:       time.Now,
	}
}

// ═══════════════════════════════════════════════════════════
// Submit — 提交休假申请
// ═══════════════════════════════════════════════════════════
//
// 校验顺序：日期 → 策略 → 天数 → 重叠 → 禁休期 → 额度
// 重叠、禁休期与额度在事务内加锁后判定，并发提交不会越过重叠或部门并发上限
// 写入（单事务）：申请单 → 冻结额度（无需审批的类型直接记为已用）→ 审批记录

func (s *ptoRequestService) Submit(ctx context.Context, req *dto.CreatePtoRequestRequest, caller Caller) (*dto.PtoRequestResponse, error) {
	// 1. 申请人：默认本人，admin / hr 可代提交
	userID := req.UserID
	if userID == "" {
		userID = caller.UserID
	}
	if userID != caller.UserID && !caller.IsPrivileged() {
		return nil, ErrNoPermission
	}
	if req.OverrideBlackout && !caller.IsPrivileged() {
		return nil, ErrOverrideForbidden
	}

	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	ptoType, err := s.repo.PtoType.GetByID(ctx, req.PtoTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPtoTypeNotFound
		}
		return nil, err
	}
	if !ptoType.IsActive {
		return nil, ErrPtoTypeInactive
	}

	// 2. 日期
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
	if start.Year() != end.Year() {
		return nil, ErrRequestCrossYear
	}
	if s.cfg.MaxRequestDays > 0 && int(end.Sub(start).Hours()/24)+1 > s.cfg.MaxRequestDays {
		return nil, ErrRequestTooLong
	}

	// 3. 策略：申请区间必须完全落在某条有效策略内
	policy, err := s.findPolicy(ctx, userID, ptoType.PtoTypeID, start, end)
	if err != nil {
		return nil, err
	}
	if policy == nil && ptoType.UsesBalance {
		return nil, ErrRequestNoPolicy
	}

	// 4. 天数
	weekdays := model.IntArray(s.cfg.DefaultWorkWeekdays)
	if policy != nil {
		weekdays = policy.Weekdays(weekdays)
	} else if len(weekdays) == 0 {
		weekdays = model.DefaultWorkWeekdays
	}
	days := model.CountWorkingDays(start, end, weekdays, req.StartHalfDay, req.EndHalfDay)
	if !days.IsPositive() {
		return nil, ErrRequestZeroDays
	}

	request := &model.PtoRequest{
		UserID:       userID,
		PtoTypeID:    ptoType.PtoTypeID,
		StartDate:    start,
		EndDate:      end,
		StartHalfDay: req.StartHalfDay,
		EndHalfDay:   req.EndHalfDay,
		TotalDays:    days,
		Reason:       req.Reason,
		Status:       model.PtoStatusPending,
	}
	request.CreatedBy = &caller.UserID
	request.UpdatedBy = &caller.UserID

	now := s.now()
	if !ptoType.RequiresApproval {
		request.Status = model.PtoStatusApproved
		request.ApprovedBy = &caller.UserID
		request.ApprovedAt = &now
	}

	// 5. 写入（单事务）：先锁申请人与所在部门，重叠与部门并发数在锁内判定
	// 加锁顺序固定为 用户 → 部门 → 余额 → 编号
	var check *dto.BlackoutCheckResponse
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.User.LockForUpdate(ctx, userID); err != nil {
			return err
		}
		if user.DepartmentID != nil {
			if err := tx.Department.LockForUpdate(ctx, *user.DepartmentID); err != nil {
				return err
			}
		}

		// 6. 重叠
		overlapping, err := tx.PtoRequest.ListOverlapping(ctx, userID, start, end)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return ErrRequestOverlap
		}

		// 7. 禁休期
		check, err = s.blackouts.CheckWith(ctx, tx, user, ptoType.PtoTypeID, start, end)
		if err != nil {
			return err
		}
		if check.Blocked && !req.OverrideBlackout {
			return &BlackoutConflictError{Conflicts: check.Conflicts}
		}
		request.BlackoutOverride = check.Blocked && req.OverrideBlackout
		request.BlackoutWarnings = joinConflictNames(check.Warnings)

		// 8. 额度
		if ptoType.UsesBalance {
			if err := ensureAvailable(ctx, tx, ptoType, policy, userID, start.Year(), days); err != nil {
				return err
			}
		}

		number, err := tx.PtoRequest.NextNumber(ctx, start.Year())
		if err != nil {
			return err
		}
		request.RequestNumber = number
		if err := tx.PtoRequest.Create(ctx, request); err != nil {
			return err
		}

		entry := LedgerEntry{
			UserID:      userID,
			PtoTypeID:   ptoType.PtoTypeID,
			Year:        start.Year(),
			Amount:      days,
			Description: "休假申请 " + number,
			RequestID:   &request.PtoRequestID,
			ActorID:     caller.UserID,
		}
		if !ptoType.RequiresApproval {
			if ptoType.UsesBalance {
				_, err := recordUsage(ctx, tx, entry)
				return err
			}
			return nil
		}

		if ptoType.UsesBalance {
			if _, err := addPendingBalance(ctx, tx, entry); err != nil {
				return err
			}
		}
		// 审批人：直属上级；无上级时任意 admin / hr
		return tx.PtoApproval.Create(ctx, &model.PtoApproval{
			PtoRequestID: request.PtoRequestID,
			ApproverID:   user.ManagerID,
			Level:        1,
			Status:       model.ApprovalPending,
		})
	})
	if err != nil {
		if !isSubmitRejection(err) {
			s.logger.Error("提交休假申请失败", zap.String("user_id", userID), zap.Error(err))
		}
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNamePTO, Description: "提交休假申请",
		SubjectType: "pto_request", SubjectID: request.PtoRequestID, CauserID: caller.UserID,
		Properties: map[string]interface{}{
			"request_number": request.RequestNumber,
			"days":           days.String(),
			"status":         request.Status,
			"override":       request.BlackoutOverride,
		},
	})

	request.PtoType = ptoType
	return &dto.PtoRequestResponse{PtoRequest: request, Warnings: check.Warnings}, nil
}

// isSubmitRejection 事务内的业务校验失败，不记错误日志
func isSubmitRejection(err error) bool {
	return isBusinessLedgerError(err) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrRequestOverlap) ||
		errors.Is(err, ErrBlackoutConflict)
}

// ensureAvailable 在余额行锁内校验可用额度
// 允许透支的类型以策略的 max_negative_balance 为下限
func ensureAvailable(ctx context.Context, tx *repository.Repository, ptoType *model.PtoType, policy *model.PtoPolicy, userID string, year int, days decimal.Decimal) error {
	b, err := tx.PtoBalance.GetOrCreateForUpdate(ctx, userID, ptoType.PtoTypeID, year)
	if err != nil {
		return err
	}
	remaining := b.Available().Sub(days)
	if !remaining.IsNegative() {
		return nil
	}
	if !ptoType.AllowNegative {
		return ErrInsufficientBalance
	}
	floor := decimal.Zero
	if policy != nil {
		floor = policy.MaxNegativeBalance.Neg()
	}
	if remaining.LessThan(floor) {
		return ErrInsufficientBalance
	}
	return nil
}

// ────────────────────── Approve / Deny ──────────────────────

func (s *ptoRequestService) Approve(ctx context.Context, id string, req *dto.ApproveRequest, caller Caller) (*model.PtoRequest, error) {
	return s.respond(ctx, id, caller, model.PtoStatusApproved, req.Comments)
}

func (s *ptoRequestService) Deny(ctx context.Context, id string, req *dto.DenyRequest, caller Caller) (*model.PtoRequest, error) {
	return s.respond(ctx, id, caller, model.PtoStatusDenied, req.Reason)
}

func (s *ptoRequestService) respond(ctx context.Context, id string, caller Caller, to, comments string) (*model.PtoRequest, error) {
	request, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !request.CanTransition(to) || request.Status != model.PtoStatusPending {
		return nil, ErrRequestStatus
	}
	if request.UserID == caller.UserID && caller.Role != model.RoleAdmin {
		return nil, ErrSelfApproval
	}

	approval, err := s.repo.PtoApproval.GetPendingByRequest(ctx, id)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		approval = nil
	}
	switch {
	case approval != nil && !approval.CanBeHandledBy(caller.UserID, caller.Role):
		return nil, ErrNoPermission
	case approval == nil && !caller.IsPrivileged():
		return nil, ErrNoPermission
	}

	ptoType, err := s.requestType(ctx, request)
	if err != nil {
		return nil, err
	}

	now := s.now()
	request.Status = to
	if to == model.PtoStatusApproved {
		request.ApprovedBy = &caller.UserID
		request.ApprovedAt = &now
	} else {
		request.DeniedBy = &caller.UserID
		request.DeniedAt = &now
		request.DenialReason = comments
	}
	request.UpdatedBy = &caller.UserID

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if approval != nil {
			approval.Status = to
			approval.Comments = comments
			approval.RespondedBy = &caller.UserID
			approval.RespondedAt = &now
			if err := tx.PtoApproval.Respond(ctx, approval); err != nil {
				return err
			}
		}
		if err := tx.PtoRequest.Update(ctx, request); err != nil {
			return err
		}
		if !ptoType.UsesBalance {
			return nil
		}

		entry := s.ledgerEntry(request, caller.UserID)
		if to == model.PtoStatusApproved {
			entry.Description = "审批通过 " + request.RequestNumber
			_, err := confirmPending(ctx, tx, entry)
			return err
		}
		entry.Description = "审批驳回 " + request.RequestNumber
		_, err := releasePendingBalance(ctx, tx, entry)
		return err
	})
	if err != nil {
		s.logger.Error("处理休假审批失败", zap.String("id", id), zap.String("to", to), zap.Error(err))
		return nil, err
	}

	desc := "审批通过休假申请"
	if to == model.PtoStatusDenied {
		desc = "驳回休假申请"
	}
	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNamePTO, Description: desc,
		SubjectType: "pto_request", SubjectID: id, CauserID: caller.UserID,
		Properties: map[string]interface{}{"request_number": request.RequestNumber, "comments": comments},
	})
	return request, nil
}

// ────────────────────── Cancel ──────────────────────

func (s *ptoRequestService) Cancel(ctx context.Context, id string, req *dto.CancelRequest, caller Caller) (*model.PtoRequest, error) {
	request, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.UserID != caller.UserID && !caller.IsPrivileged() {
		return nil, ErrNoPermission
	}
	if !request.CanTransition(model.PtoStatusCancelled) {
		return nil, ErrRequestStatus
	}
	wasApproved := request.Status == model.PtoStatusApproved
	if wasApproved && request.HasStarted(s.now()) && !caller.IsPrivileged() {
		return nil, ErrRequestStarted
	}

	ptoType, err := s.requestType(ctx, request)
	if err != nil {
		return nil, err
	}

	now := s.now()
	request.Status = model.PtoStatusCancelled
	request.CancelledBy = &caller.UserID
	request.CancelledAt = &now
	request.CancellationReason = req.Reason
	request.UpdatedBy = &caller.UserID

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.PtoRequest.Update(ctx, request); err != nil {
			return err
		}
		if !wasApproved {
			if err := tx.PtoApproval.SkipPending(ctx, request.PtoRequestID, caller.UserID); err != nil {
				return err
			}
		}
		if !ptoType.UsesBalance {
			return nil
		}

		entry := s.ledgerEntry(request, caller.UserID)
		entry.Description = "撤销申请 " + request.RequestNumber
		if wasApproved {
			_, err := reverseUsage(ctx, tx, entry)
			return err
		}
		_, err := releasePendingBalance(ctx, tx, entry)
		return err
	})
	if err != nil {
		s.logger.Error("撤销休假申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNamePTO, Description: "撤销休假申请",
		SubjectType: "pto_request", SubjectID: id, CauserID: caller.UserID,
		Properties: map[string]interface{}{
			"request_number": request.RequestNumber, "was_approved": wasApproved, "reason": req.Reason,
		},
	})
	return request, nil
}

// ────────────────────── Get / List ──────────────────────

func (s *ptoRequestService) Get(ctx context.Context, id string, caller Caller) (*model.PtoRequest, error) {
	request, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, ok, err := canActFor(ctx, s.repo, caller, request.UserID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrNoPermission
	}
	return request, nil
}

func (s *ptoRequestService) ListMine(ctx context.Context, req *dto.PtoRequestListRequest, caller Caller) ([]model.PtoRequest, int64, error) {
	filter, err := requestFilter(req)
	if err != nil {
		return nil, 0, err
	}
	filter.UserID = caller.UserID
	return s.list(ctx, filter, req)
}

func (s *ptoRequestService) List(ctx context.Context, req *dto.PtoRequestListRequest, caller Caller) ([]model.PtoRequest, int64, error) {
	filter, err := requestFilter(req)
	if err != nil {
		return nil, 0, err
	}

	if !caller.IsPrivileged() {
		if caller.Role != model.RoleManager {
			filter.UserID = caller.UserID
			return s.list(ctx, filter, req)
		}
		ids, err := reportIDs(ctx, s.repo, caller.UserID)
		if err != nil {
			return nil, 0, err
		}
		ids = append(ids, caller.UserID)
		if filter.UserID != "" && !containsString(ids, filter.UserID) {
			return nil, 0, ErrNoPermission
		}
		filter.UserIDs = ids
	}
	return s.list(ctx, filter, req)
}

func (s *ptoRequestService) ListForApproval(ctx context.Context, req *dto.PtoRequestListRequest, caller Caller) ([]model.PtoRequest, int64, error) {
	filter, err := requestFilter(req)
	if err != nil {
		return nil, 0, err
	}
	filter.Status = model.PtoStatusPending
	if !caller.IsPrivileged() {
		filter.ApproverID = caller.UserID
	}
	return s.list(ctx, filter, req)
}

func (s *ptoRequestService) list(ctx context.Context, filter repository.PtoRequestFilter, req *dto.PtoRequestListRequest) ([]model.PtoRequest, int64, error) {
	list, total, err := s.repo.PtoRequest.List(ctx, filter, repository.Page{Offset: req.GetOffset(), Limit: req.GetPageSize()})
	if err != nil {
		s.logger.Error("列出休假申请失败", zap.Error(err))
		return nil, 0, err
	}
	return list, total, nil
}

// ────────────────────── Calendar ──────────────────────

func (s *ptoRequestService) Calendar(ctx context.Context, req *dto.CalendarRequest, caller Caller) ([]byte, error) {
	from, err := dto.ParseDate(req.From)
	if err != nil {
		return nil, err
	}
	to, err := dto.ParseDate(req.To)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, ErrRequestDateRange
	}

	filter := repository.PtoRequestFilter{Status: model.PtoStatusApproved, From: &from, To: &to}
	switch {
	case req.Mine:
		filter.UserID = caller.UserID
	case req.DepartmentID != "":
		if !caller.IsPrivileged() && req.DepartmentID != caller.DepartmentID {
			return nil, ErrNoPermission
		}
		filter.DepartmentID = req.DepartmentID
	case caller.IsPrivileged():
	case caller.DepartmentID != "":
		filter.DepartmentID = caller.DepartmentID
	default:
		filter.UserID = caller.UserID
	}

	requests, _, err := s.repo.PtoRequest.List(ctx, filter, repository.Page{})
	if err != nil {
		s.logger.Error("查询日历休假申请失败", zap.Error(err))
		return nil, err
	}
	blackouts, err := s.repo.PtoBlackout.List(ctx, false)
	if err != nil {
		s.logger.Error("查询禁休期失败", zap.Error(err))
		return nil, err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//ACS CoreOS//PTO Calendar//ZH")
	cal.SetXWRCalName("休假日历")

	stamp := s.now().UTC()
	for _, r := range requests {
		name := r.UserID
		if r.User != nil {
			name = r.User.DisplayName
		}
		typeName := ""
		if r.PtoType != nil {
			typeName = r.PtoType.Name
		}

		evt := cal.AddEvent(r.PtoRequestID + "@pto.coreos")
		evt.SetDtStampTime(stamp)
		evt.SetAllDayStartAt(r.StartDate)
		evt.SetAllDayEndAt(r.EndDate.AddDate(0, 0, 1)) // DTEND 不含当日
		evt.SetSummary(strings.TrimSpace(fmt.Sprintf("%s %s", name, typeName)))
		evt.SetDescription(fmt.Sprintf("%s，共 %s 天", r.RequestNumber, r.TotalDays.String()))
		evt.SetStatus(ics.ObjectStatusConfirmed)
	}

	for i := range blackouts {
		b := &blackouts[i]
		// 周期性禁休期跨多年时每年一个事件
		for _, occ := range b.OccurrencesIn(from, to) {
			evt := cal.AddEvent(fmt.Sprintf("%s-%d@blackout.coreos", b.PtoBlackoutID, occ[0].Year()))
			evt.SetDtStampTime(stamp)
			evt.SetAllDayStartAt(occ[0])
			evt.SetAllDayEndAt(occ[1].AddDate(0, 0, 1))
			evt.SetSummary("禁休期：" + b.Name)
			if b.Description != "" {
				evt.SetDescription(b.Description)
			}
		}
	}

	return []byte(cal.Serialize()), nil
}

// ── 内部辅助方法 ──

func (s *ptoRequestService) getRequest(ctx context.Context, id string) (*model.PtoRequest, error) {
	request, err := s.repo.PtoRequest.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		s.logger.Error("查询休假申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return request, nil
}

func (s *ptoRequestService) requestType(ctx context.Context, request *model.PtoRequest) (*model.PtoType, error) {
	if request.PtoType != nil {
		return request.PtoType, nil
	}
	t, err := s.repo.PtoType.GetByID(ctx, request.PtoTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPtoTypeNotFound
		}
		return nil, err
	}
	return t, nil
}

// findPolicy 返回完整覆盖 [start, end] 的有效策略，没有时返回 nil
func (s *ptoRequestService) findPolicy(ctx context.Context, userID, ptoTypeID string, start, end time.Time) (*model.PtoPolicy, error) {
	policies, err := s.repo.PtoPolicy.List(ctx, repository.PtoPolicyFilter{
		UserID:     userID,
		PtoTypeID:  ptoTypeID,
		ActiveOnly: true,
	})
	if err != nil {
		s.logger.Error("查询休假策略失败", zap.Error(err))
		return nil, err
	}
	for i := range policies {
		if policies[i].IsActive && policies[i].CoversRange(start, end) {
			return &policies[i], nil
		}
	}
	return nil, nil
}

func (s *ptoRequestService) ledgerEntry(request *model.PtoRequest, actorID string) LedgerEntry {
	return LedgerEntry{
		UserID:    request.UserID,
		PtoTypeID: request.PtoTypeID,
		Year:      request.Year(),
		Amount:    request.TotalDays,
		RequestID: &request.PtoRequestID,
		ActorID:   actorID,
	}
}

func requestFilter(req *dto.PtoRequestListRequest) (repository.PtoRequestFilter, error) {
	filter := repository.PtoRequestFilter{
		UserID:    req.UserID,
		Status:    req.Status,
		PtoTypeID: req.PtoTypeID,
	}
	from, err := dto.ParseOptionalDate(req.From)
	if err != nil {
		return filter, err
	}
	to, err := dto.ParseOptionalDate(req.To)
	if err != nil {
		return filter, err
	}
	filter.From, filter.To = from, to
	return filter, nil
}

func joinConflictNames(conflicts []dto.BlackoutConflict) string {
	names := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		names = append(names, c.Name)
	}
	return strings.Join(names, "; ")
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
