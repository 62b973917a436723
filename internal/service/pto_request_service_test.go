package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Digitalhour/ACSCoreOS-sub013/config"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
)

// ── 测试辅助 ──

var (
	employeeCaller = Caller{UserID: "u1", Role: model.RoleEmployee, DepartmentID: "d1"}
	managerCaller  = Caller{UserID: "mgr", Role: model.RoleManager, DepartmentID: "d1"}
)

func setupTestRequestService() (PtoRequestService, *mockRepos) {
	repo, mocks := newMockRepos()
	cfg := &config.PTOConfig{DefaultWorkWeekdays: []int{1, 2, 3, 4, 5}, MaxRequestDays: 60}
	activity := NewActivityService(repo, zap.NewNop())
	blackouts := NewPtoBlackoutService(repo, activity, zap.NewNop())
	svc := NewPtoRequestService(cfg, repo, blackouts, activity, zap.NewNop())
	svc.(*ptoRequestService).now = func() time.Time { return date("2025-02-15") }

	mocks.addUser("mgr", model.RoleManager, strPtr("d1"), nil)
	mocks.addUser("u1", model.RoleEmployee, strPtr("d1"), strPtr("mgr"))
	mocks.addUser("hr", model.RoleHR, nil, nil)

	mocks.ptoType.types["t1"] = &model.PtoType{PtoTypeID: "t1", Name: "Vacation", Code: "VAC", UsesBalance: true, RequiresApproval: true, IsActive: true}
	mocks.policy.policies["p1"] = &model.PtoPolicy{
		PtoPolicyID: "p1", Name: "Standard", UserID: "u1", PtoTypeID: "t1",
		AnnualAccrualAmount: dec("15"), EffectiveDate: date("2025-01-01"), IsActive: true,
	}
	mocks.balance.seed(model.PtoBalance{UserID: "u1", PtoTypeID: "t1", Year: 2025, Balance: dec("10")})
	return svc, mocks
}

// 2025-03-03 为周一，整周 5 个工作日
func weekRequest() *dto.CreatePtoRequestRequest {
	return &dto.CreatePtoRequestRequest{PtoTypeID: "t1", StartDate: "2025-03-03", EndDate: "2025-03-07", Reason: "family trip"}
}

func balanceOf(t *testing.T, mocks *mockRepos) *model.PtoBalance {
	t.Helper()
	b, err := mocks.balance.Get(context.Background(), "u1", "t1", 2025)
	if err != nil {
		t.Fatalf("查询余额失败: %v", err)
	}
	return b
}

// ── Submit ──

func TestPtoRequestService_Submit_Success(t *testing.T) {
	svc, mocks := setupTestRequestService()

	resp, err := svc.Submit(context.Background(), weekRequest(), employeeCaller)
	if err != nil {
		t.Fatalf("Submit 应成功，但返回错误: %v", err)
	}
	if resp.Status != model.PtoStatusPending || !resp.TotalDays.Equal(dec("5")) {
		t.Errorf("申请内容不符合预期: status=%s days=%s", resp.Status, resp.TotalDays)
	}
	if resp.RequestNumber != "PTO-2025-000001" {
		t.Errorf("期望编号 PTO-2025-000001，实际: %s", resp.RequestNumber)
	}

	b := balanceOf(t, mocks)
	if !b.PendingBalance.Equal(dec("5")) || !b.Available().Equal(dec("5")) {
		t.Errorf("提交后应冻结 5 天，实际: pending=%s available=%s", b.PendingBalance, b.Available())
	}
	if len(mocks.approval.approvals) != 1 || *mocks.approval.approvals[0].ApproverID != "mgr" {
		t.Errorf("应生成一条由直属上级处理的审批记录: %+v", mocks.approval.approvals)
	}
}

func TestPtoRequestService_Submit_Validation(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		want  error
	}{
		{"结束早于开始", "2025-03-07", "2025-03-03", ErrRequestDateRange},
		{"跨年", "2025-12-29", "2026-01-02", ErrRequestCrossYear},
		{"超过跨度上限", "2025-03-01", "2025-05-31", ErrRequestTooLong},
		{"仅周末", "2025-03-08", "2025-03-09", ErrRequestZeroDays},
		{"早于策略生效", "2024-12-30", "2024-12-31", ErrRequestNoPolicy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := setupTestRequestService()
			_, err := svc.Submit(context.Background(), &dto.CreatePtoRequestRequest{
				PtoTypeID: "t1", StartDate: tt.start, EndDate: tt.end,
			}, employeeCaller)
			if !errors.Is(err, tt.want) {
				t.Errorf("期望 %v，实际: %v", tt.want, err)
			}
		})
	}
}

func TestPtoRequestService_Submit_HalfDays(t *testing.T) {
	svc, _ := setupTestRequestService()

	req := weekRequest()
	req.StartHalfDay, req.EndHalfDay = true, true
	resp, err := svc.Submit(context.Background(), req, employeeCaller)
	if err != nil {
		t.Fatalf("Submit 应成功，但返回错误: %v", err)
	}
	if !resp.TotalDays.Equal(dec("4")) {
		t.Errorf("首尾半天期望 4 天，实际: %s", resp.TotalDays)
	}
}

func TestPtoRequestService_Submit_Overlap(t *testing.T) {
	svc, _ := setupTestRequestService()

	if _, err := svc.Submit(context.Background(), weekRequest(), employeeCaller); err != nil {
		t.Fatalf("首次提交应成功: %v", err)
	}
	_, err := svc.Submit(context.Background(), &dto.CreatePtoRequestRequest{
		PtoTypeID: "t1", StartDate: "2025-03-07", EndDate: "2025-03-07",
	}, employeeCaller)
	if !errors.Is(err, ErrRequestOverlap) {
		t.Errorf("期望 ErrRequestOverlap，实际: %v", err)
	}
}

func TestPtoRequestService_Submit_InsufficientBalance(t *testing.T) {
	svc, mocks := setupTestRequestService()

	_, err := svc.Submit(context.Background(), &dto.CreatePtoRequestRequest{
		PtoTypeID: "t1", StartDate: "2025-03-03", EndDate: "2025-03-18",
	}, employeeCaller)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("期望 ErrInsufficientBalance，实际: %v", err)
	}
	if len(mocks.request.requests) != 0 || len(mocks.tx.txs) != 0 {
		t.Error("额度不足时不应写入申请或流水")
	}
}

func TestPtoRequestService_Submit_AllowNegative(t *testing.T) {
	svc, mocks := setupTestRequestService()
	mocks.ptoType.types["t1"].AllowNegative = true
	mocks.policy.policies["p1"].MaxNegativeBalance = dec("3")

	// 12 天：可用 10 天，透支 2 天在下限内
	if _, err := svc.Submit(context.Background(), &dto.CreatePtoRequestRequest{
		PtoTypeID: "t1", StartDate: "2025-03-03", EndDate: "2025-03-18",
	}, employeeCaller); err != nil {
		t.Fatalf("透支在下限内应成功，实际: %v", err)
	}
	if got := balanceOf(t, mocks).Available(); !got.Equal(dec("-2")) {
		t.Errorf("期望可用 -2，实际: %s", got)
	}
}

func TestPtoRequestService_Submit_Blackout(t *testing.T) {
	svc, mocks := setupTestRequestService()
	mocks.blackout.blackouts["b1"] = &model.PtoBlackout{
		PtoBlackoutID: "b1", Name: "Inventory", StartDate: date("2025-03-05"), EndDate: date("2025-03-05"),
		RestrictionType: model.BlackoutFullBlock, IsActive: true,
	}

	_, err := svc.Submit(context.Background(), weekRequest(), employeeCaller)
	var conflict *BlackoutConflictError
	if !errors.As(err, &conflict) || !errors.Is(err, ErrBlackoutConflict) {
		t.Fatalf("期望 BlackoutConflictError，实际: %v", err)
	}
	if len(conflict.Conflicts) != 1 || conflict.Conflicts[0].Name != "Inventory" {
		t.Errorf("冲突详情不符合预期: %+v", conflict.Conflicts)
	}

	// 普通员工不能忽略
	req := weekRequest()
	req.OverrideBlackout = true
	if _, err := svc.Submit(context.Background(), req, employeeCaller); !errors.Is(err, ErrOverrideForbidden) {
		t.Errorf("期望 ErrOverrideForbidden，实际: %v", err)
	}

	// HR 代提交并忽略
	req.UserID = "u1"
	resp, err := svc.Submit(context.Background(), req, Caller{UserID: "hr", Role: model.RoleHR})
	if err != nil {
		t.Fatalf("HR 忽略禁休期应成功，实际: %v", err)
	}
	if !resp.BlackoutOverride {
		t.Error("应记录已忽略禁休期")
	}
}

func TestPtoRequestService_Submit_NoApprovalRequired(t *testing.T) {
	svc, mocks := setupTestRequestService()
	mocks.ptoType.types["t1"].RequiresApproval = false

	resp, err := svc.Submit(context.Background(), weekRequest(), employeeCaller)
	if err != nil {
		t.Fatalf("Submit 应成功，但返回错误: %v", err)
	}
	if resp.Status != model.PtoStatusApproved {
		t.Errorf("无需审批的类型应直接通过，实际: %s", resp.Status)
	}
	b := balanceOf(t, mocks)
	if !b.UsedBalance.Equal(dec("5")) || !b.PendingBalance.IsZero() {
		t.Errorf("应直接记为已用，实际: used=%s pending=%s", b.UsedBalance, b.PendingBalance)
	}
	if len(mocks.approval.approvals) != 0 {
		t.Error("无需审批时不应生成审批记录")
	}
}

func TestPtoRequestService_Submit_OnBehalfForbidden(t *testing.T) {
	svc, _ := setupTestRequestService()

	req := weekRequest()
	req.UserID = "u1"
	if _, err := svc.Submit(context.Background(), req, managerCaller); !errors.Is(err, ErrNoPermission) {
		t.Errorf("manager 不能代提交，期望 ErrNoPermission，实际: %v", err)
	}
}

func TestPtoRequestService_Submit_LocksUserThenDepartment(t *testing.T) {
	svc, mocks := setupTestRequestService()

	if _, err := svc.Submit(context.Background(), weekRequest(), employeeCaller); err != nil {
		t.Fatalf("Submit 应成功，但返回错误: %v", err)
	}
	if len(mocks.user.locked) != 1 || mocks.user.locked[0] != "u1" {
		t.Errorf("应锁定申请人，实际: %v", mocks.user.locked)
	}
	if len(mocks.dept.locked) != 1 || mocks.dept.locked[0] != "d1" {
		t.Errorf("应锁定申请人所在部门，实际: %v", mocks.dept.locked)
	}
}

func TestPtoRequestService_Submit_OverlapCommittedWhileWaitingForLock(t *testing.T) {
	svc, mocks := setupTestRequestService()
	// 等待用户行锁期间，同一员工的另一份申请已提交
	mocks.user.onLock = func(string) {
		mocks.request.requests["req-other"] = &model.PtoRequest{
			PtoRequestID: "req-other", UserID: "u1", PtoTypeID: "t1",
			StartDate: date("2025-03-05"), EndDate: date("2025-03-05"), Status: model.PtoStatusPending,
		}
	}

	_, err := svc.Submit(context.Background(), weekRequest(), employeeCaller)
	if !errors.Is(err, ErrRequestOverlap) {
		t.Fatalf("期望 ErrRequestOverlap，实际: %v", err)
	}
	if b := balanceOf(t, mocks); !b.PendingBalance.IsZero() {
		t.Errorf("被拒绝的申请不应冻结额度，实际: %s", b.PendingBalance)
	}
}

func TestPtoRequestService_Submit_DepartmentLimitReachedWhileWaitingForLock(t *testing.T) {
	svc, mocks := setupTestRequestService()
	mocks.blackout.blackouts["b1"] = &model.PtoBlackout{
		PtoBlackoutID: "b1", Name: "Peak", StartDate: date("2025-03-01"), EndDate: date("2025-03-31"),
		RestrictionType: model.BlackoutLimitRequests, MaxConcurrentRequests: 2, IsActive: true,
	}
	mocks.request.concurrent = 1
	// 等待部门行锁期间，同部门另一名员工的申请已提交
	mocks.dept.onLock = func(string) { mocks.request.concurrent = 2 }

	_, err := svc.Submit(context.Background(), weekRequest(), employeeCaller)
	var conflict *BlackoutConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("期望部门并发上限冲突，实际: %v", err)
	}
	if len(conflict.Conflicts) != 1 || conflict.Conflicts[0].BlackoutID != "b1" {
		t.Errorf("冲突详情不符合预期: %+v", conflict.Conflicts)
	}
	if len(mocks.request.requests) != 0 {
		t.Error("被拒绝的申请不应写入")
	}
}

// ── Approve / Deny ──

func TestPtoRequestService_Approve(t *testing.T) {
	svc, mocks := setupTestRequestService()
	resp, err := svc.Submit(context.Background(), weekRequest(), employeeCaller)
	if err != nil {
		t.Fatalf("Submit 应成功: %v", err)
	}

	// 本人不能审批
	if _, err := svc.Approve(context.Background(), resp.PtoRequestID, &dto.ApproveRequest{}, employeeCaller); !errors.Is(err, ErrSelfApproval) {
		t.Errorf("期望 ErrSelfApproval，实际: %v", err)
	}
	// 非指定审批人
	other := mocks.addUser("other", model.RoleManager, nil, nil)
	if _, err := svc.Approve(context.Background(), resp.PtoRequestID, &dto.ApproveRequest{}, Caller{UserID: other.UserID, Role: model.RoleManager}); !errors.Is(err, ErrNoPermission) {
		t.Errorf("期望 ErrNoPermission，实际: %v", err)
	}

	approved, err := svc.Approve(context.Background(), resp.PtoRequestID, &dto.ApproveRequest{Comments: "ok"}, managerCaller)
	if err != nil {
		t.Fatalf("Approve 应成功，但返回错误: %v", err)
	}
	if approved.Status != model.PtoStatusApproved || approved.ApprovedBy == nil || *approved.ApprovedBy != "mgr" {
		t.Errorf("审批结果不符合预期: %+v", approved)
	}
	b := balanceOf(t, mocks)
	if !b.UsedBalance.Equal(dec("5")) || !b.PendingBalance.IsZero() {
		t.Errorf("审批后冻结应转为已用，实际: used=%s pending=%s", b.UsedBalance, b.PendingBalance)
	}
	if mocks.approval.approvals[0].Status != model.ApprovalApproved {
		t.Errorf("审批记录状态应为 approved，实际: %s", mocks.approval.approvals[0].Status)
	}

	// 重复审批
	if _, err := svc.Approve(context.Background(), resp.PtoRequestID, &dto.ApproveRequest{}, managerCaller); !errors.Is(err, ErrRequestStatus) {
		t.Errorf("期望 ErrRequestStatus，实际: %v", err)
	}
}

func TestPtoRequestService_Deny(t *testing.T) {
	svc, mocks := setupTestRequestService()
	resp, err := svc.Submit(context.Background(), weekRequest(), employeeCaller)
	if err != nil {
		t.Fatalf("Submit 应成功: %v", err)
	}

	denied, err := svc.Deny(context.Background(), resp.PtoRequestID, &dto.DenyRequest{Reason: "coverage"}, Caller{UserID: "hr", Role: model.RoleHR})
	if err != nil {
		t.Fatalf("Deny 应成功，但返回错误: %v", err)
	}
	if denied.Status != model.PtoStatusDenied || denied.DenialReason != "coverage" {
		t.Errorf("驳回结果不符合预期: %+v", denied)
	}
	if b := balanceOf(t, mocks); !b.Available().Equal(dec("10")) {
		t.Errorf("驳回后额度应全部释放，实际可用: %s", b.Available())
	}
}

// ── Cancel ──

func TestPtoRequestService_Cancel(t *testing.T) {
	tests := []struct {
		name    string
		approve bool
		now     string
		caller  Caller
		want    error
	}{
		{"撤销待审批", false, "2025-02-15", employeeCaller, nil},
		{"撤销已通过未开始", true, "2025-02-15", employeeCaller, nil},
		{"已开始员工不可撤销", true, "2025-03-04", employeeCaller, ErrRequestStarted},
		{"已开始 HR 可撤销", true, "2025-03-04", Caller{UserID: "hr", Role: model.RoleHR}, nil},
		{"他人不可撤销", false, "2025-02-15", managerCaller, ErrNoPermission},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mocks := setupTestRequestService()
			resp, err := svc.Submit(context.Background(), weekRequest(), employeeCaller)
			if err != nil {
				t.Fatalf("Submit 应成功: %v", err)
			}
			if tt.approve {
				if _, err := svc.Approve(context.Background(), resp.PtoRequestID, &dto.ApproveRequest{}, managerCaller); err != nil {
					t.Fatalf("Approve 应成功: %v", err)
				}
			}
			svc.(*ptoRequestService).now = func() time.Time { return date(tt.now) }

			cancelled, err := svc.Cancel(context.Background(), resp.PtoRequestID, &dto.CancelRequest{Reason: "plans changed"}, tt.caller)
			if !errors.Is(err, tt.want) {
				t.Fatalf("期望 %v，实际: %v", tt.want, err)
			}
			if tt.want != nil {
				return
			}
			if cancelled.Status != model.PtoStatusCancelled {
				t.Errorf("期望状态 cancelled，实际: %s", cancelled.Status)
			}
			b := balanceOf(t, mocks)
			if !b.Available().Equal(dec("10")) || !b.UsedBalance.IsZero() || !b.PendingBalance.IsZero() {
				t.Errorf("撤销后额度应恢复，实际: used=%s pending=%s", b.UsedBalance, b.PendingBalance)
			}
		})
	}
}

func TestPtoRequestService_Cancel_SkipsPendingApproval(t *testing.T) {
	svc, mocks := setupTestRequestService()
	resp, _ := svc.Submit(context.Background(), weekRequest(), employeeCaller)

	if _, err := svc.Cancel(context.Background(), resp.PtoRequestID, &dto.CancelRequest{}, employeeCaller); err != nil {
		t.Fatalf("Cancel 应成功: %v", err)
	}
	if mocks.approval.approvals[0].Status != model.ApprovalSkipped {
		t.Errorf("待处理审批应标记为 skipped，实际: %s", mocks.approval.approvals[0].Status)
	}
	if _, err := svc.Cancel(context.Background(), resp.PtoRequestID, &dto.CancelRequest{}, employeeCaller); !errors.Is(err, ErrRequestStatus) {
		t.Errorf("重复撤销期望 ErrRequestStatus，实际: %v", err)
	}
}

// ── List ──

func TestPtoRequestService_ListScopes(t *testing.T) {
	svc, mocks := setupTestRequestService()
	if _, err := svc.Submit(context.Background(), weekRequest(), employeeCaller); err != nil {
		t.Fatalf("Submit 应成功: %v", err)
	}
	mocks.addUser("stranger", model.RoleEmployee, nil, nil)

	_, total, err := svc.ListForApproval(context.Background(), &dto.PtoRequestListRequest{}, managerCaller)
	if err != nil || total != 1 {
		t.Errorf("上级应看到 1 条待审批，实际: total=%d err=%v", total, err)
	}

	_, total, _ = svc.List(context.Background(), &dto.PtoRequestListRequest{}, Caller{UserID: "stranger", Role: model.RoleEmployee})
	if total != 0 {
		t.Errorf("普通员工只能看到本人申请，实际: %d", total)
	}

	_, _, err = svc.List(context.Background(), &dto.PtoRequestListRequest{UserID: "stranger"}, managerCaller)
	if !errors.Is(err, ErrNoPermission) {
		t.Errorf("manager 查看非下属期望 ErrNoPermission，实际: %v", err)
	}
}

// ── Calendar ──

func TestPtoRequestService_Calendar(t *testing.T) {
	svc, mocks := setupTestRequestService()
	mocks.ptoType.types["t1"].RequiresApproval = false
	if _, err := svc.Submit(context.Background(), weekRequest(), employeeCaller); err != nil {
		t.Fatalf("Submit 应成功: %v", err)
	}

	data, err := svc.Calendar(context.Background(), &dto.CalendarRequest{From: "2025-03-01", To: "2025-03-31", Mine: true}, employeeCaller)
	if err != nil {
		t.Fatalf("Calendar 应成功，但返回错误: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "BEGIN:VCALENDAR") || !strings.Contains(out, "PTO-2025-000001") {
		t.Errorf("日历内容缺少申请事件:\n%s", out)
	}

	_, err = svc.Calendar(context.Background(), &dto.CalendarRequest{From: "2025-03-01", To: "2025-03-31", DepartmentID: "d9"}, employeeCaller)
	if !errors.Is(err, ErrNoPermission) {
		t.Errorf("查看其他部门日历期望 ErrNoPermission，实际: %v", err)
	}
}

func TestPtoRequestService_Calendar_RecurringBlackoutPerYear(t *testing.T) {
	svc, mocks := setupTestRequestService()
	mocks.blackout.blackouts["b1"] = &model.PtoBlackout{
		PtoBlackoutID: "b1", Name: "年终结算", RestrictionType: model.BlackoutFullBlock,
		StartDate: date("2020-12-24"), EndDate: date("2021-01-02"), IsRecurring: true, IsActive: true,
	}

	data, err := svc.Calendar(context.Background(), &dto.CalendarRequest{From: "2025-06-01", To: "2027-06-30"}, employeeCaller)
	if err != nil {
		t.Fatalf("Calendar 应成功，但返回错误: %v", err)
	}
	out := string(data)
	for _, uid := range []string{"b1-2025@blackout.coreos", "b1-2026@blackout.coreos"} {
		if !strings.Contains(out, uid) {
			t.Errorf("日历缺少禁休期事件 %s:\n%s", uid, out)
		}
	}
	if n := strings.Count(out, "禁休期：年终结算"); n != 2 {
		t.Errorf("期望 2 个禁休期事件，实际: %d", n)
	}
}
