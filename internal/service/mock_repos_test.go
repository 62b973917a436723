package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/repository"
	pkgerrors "github.com/Digitalhour/ACSCoreOS-sub013/pkg/errors"
	pkgredis "github.com/Digitalhour/ACSCoreOS-sub013/pkg/redis"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users  map[string]*model.User // key: user_id
	locked []string
	onLock func(id string) // 模拟等锁期间其他事务提交
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.EmployeeNumber
	}
	if user.Version == 0 {
		user.Version = 1
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmployeeNumber(_ context.Context, number string) (*model.User, error) {
	for _, u := range m.users {
		if u.EmployeeNumber == number {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	user.Version++
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id, hash string, mustChange bool) error {
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.PasswordHash = hash
	u.MustChangePassword = mustChange
	return nil
}

func (m *mockUserRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	if u, ok := m.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (m *mockUserRepo) UpdateDisplayName(_ context.Context, id, displayName string) error {
	if u, ok := m.users[id]; ok {
		u.DisplayName = displayName
	}
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id, _ string) error {
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, filter repository.UserFilter, page repository.Page) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.users {
		if filter.DepartmentID != "" && u.DepartmentIDValue() != filter.DepartmentID {
			continue
		}
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			continue
		}
		if filter.Keyword != "" {
			kw := strings.ToLower(filter.Keyword)
			if !strings.Contains(strings.ToLower(u.DisplayName), kw) &&
				!strings.Contains(strings.ToLower(u.Email), kw) &&
				!strings.Contains(u.EmployeeNumber, kw) {
				continue
			}
		}
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].EmployeeNumber < all[j].EmployeeNumber })
	return paginate(all, page), int64(len(all)), nil
}

func (m *mockUserRepo) ListAll(_ context.Context) ([]model.User, error) {
	var all []model.User
	for _, u := range m.users {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UserID < all[j].UserID })
	return all, nil
}

func (m *mockUserRepo) ListByManager(_ context.Context, managerID string) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.ManagerID != nil && *u.ManagerID == managerID {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) CountActive(_ context.Context) (int64, error) {
	var n int64
	for _, u := range m.users {
		if u.IsActive {
			n++
		}
	}
	return n, nil
}

func (m *mockUserRepo) LockForUpdate(_ context.Context, id string) error {
	m.locked = append(m.locked, id)
	if m.onLock != nil {
		m.onLock(id)
	}
	return nil
}

// ── Mock DepartmentRepository ──

type mockDeptRepo struct {
	depts   map[string]*model.Department
	members map[string]int64
	locked  []string
	onLock  func(id string)
}

func newMockDeptRepo() *mockDeptRepo {
	return &mockDeptRepo{
		depts:   make(map[string]*model.Department),
		members: make(map[string]int64),
	}
}

func (m *mockDeptRepo) Create(_ context.Context, dept *model.Department) error {
	if dept.DepartmentID == "" {
		dept.DepartmentID = "dept-" + dept.Name
	}
	m.depts[dept.DepartmentID] = dept
	return nil
}

func (m *mockDeptRepo) GetByID(_ context.Context, id string) (*model.Department, error) {
	if d, ok := m.depts[id]; ok {
		return d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeptRepo) GetByName(_ context.Context, name string) (*model.Department, error) {
	for _, d := range m.depts {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeptRepo) List(_ context.Context, includeInactive bool) ([]model.Department, error) {
	var result []model.Department
	for _, d := range m.depts {
		if d.IsActive || includeInactive {
			result = append(result, *d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockDeptRepo) Update(_ context.Context, dept *model.Department) error {
	m.depts[dept.DepartmentID] = dept
	return nil
}

func (m *mockDeptRepo) Delete(_ context.Context, id, _ string) error {
	delete(m.depts, id)
	return nil
}

func (m *mockDeptRepo) CountMembers(_ context.Context, departmentID string) (int64, error) {
	return m.members[departmentID], nil
}

func (m *mockDeptRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.depts)), nil
}

func (m *mockDeptRepo) LockForUpdate(_ context.Context, id string) error {
	m.locked = append(m.locked, id)
	if m.onLock != nil {
		m.onLock(id)
	}
	return nil
}

// ── Mock PositionRepository ──

type mockPositionRepo struct {
	positions map[string]*model.Position
	holders   map[string]int64
}

func newMockPositionRepo() *mockPositionRepo {
	return &mockPositionRepo{
		positions: make(map[string]*model.Position),
		holders:   make(map[string]int64),
	}
}

func (m *mockPositionRepo) Create(_ context.Context, pos *model.Position) error {
	if pos.PositionID == "" {
		pos.PositionID = fmt.Sprintf("pos-%d", len(m.positions)+1)
	}
	m.positions[pos.PositionID] = pos
	return nil
}

func (m *mockPositionRepo) GetByID(_ context.Context, id string) (*model.Position, error) {
	if p, ok := m.positions[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPositionRepo) GetByTitle(_ context.Context, title string, departmentID *string) (*model.Position, error) {
	for _, p := range m.positions {
		if p.Title == title && sameStringPtr(p.DepartmentID, departmentID) {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPositionRepo) List(_ context.Context, departmentID string, includeInactive bool) ([]model.Position, error) {
	var result []model.Position
	for _, p := range m.positions {
		if departmentID != "" && (p.DepartmentID == nil || *p.DepartmentID != departmentID) {
			continue
		}
		if p.IsActive || includeInactive {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPositionRepo) Update(_ context.Context, pos *model.Position) error {
	m.positions[pos.PositionID] = pos
	return nil
}

func (m *mockPositionRepo) Delete(_ context.Context, id, _ string) error {
	delete(m.positions, id)
	return nil
}

func (m *mockPositionRepo) CountHolders(_ context.Context, positionID string) (int64, error) {
	return m.holders[positionID], nil
}

// ── Mock PtoTypeRepository ──

type mockPtoTypeRepo struct {
	types map[string]*model.PtoType
	usage map[string]int64
}

func newMockPtoTypeRepo() *mockPtoTypeRepo {
	return &mockPtoTypeRepo{types: make(map[string]*model.PtoType), usage: make(map[string]int64)}
}

func (m *mockPtoTypeRepo) Create(_ context.Context, t *model.PtoType) error {
	if t.PtoTypeID == "" {
		t.PtoTypeID = "type-" + t.Code
	}
	m.types[t.PtoTypeID] = t
	return nil
}

func (m *mockPtoTypeRepo) GetByID(_ context.Context, id string) (*model.PtoType, error) {
	if t, ok := m.types[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPtoTypeRepo) List(_ context.Context, includeInactive bool) ([]model.PtoType, error) {
	var result []model.PtoType
	for _, t := range m.types {
		if t.IsActive || includeInactive {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (m *mockPtoTypeRepo) Update(_ context.Context, t *model.PtoType) error {
	m.types[t.PtoTypeID] = t
	return nil
}

func (m *mockPtoTypeRepo) Delete(_ context.Context, id, _ string) error {
	delete(m.types, id)
	return nil
}

func (m *mockPtoTypeRepo) CodeExists(_ context.Context, code, excludeID string) (bool, error) {
	for _, t := range m.types {
		if t.Code == code && t.PtoTypeID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockPtoTypeRepo) CountUsage(_ context.Context, id string) (int64, error) {
	return m.usage[id], nil
}

// ── Mock PtoPolicyRepository ──

type mockPtoPolicyRepo struct {
	policies map[string]*model.PtoPolicy
	seq      int
}

func newMockPtoPolicyRepo() *mockPtoPolicyRepo {
	return &mockPtoPolicyRepo{policies: make(map[string]*model.PtoPolicy)}
}

func (m *mockPtoPolicyRepo) Create(_ context.Context, p *model.PtoPolicy) error {
	if p.PtoPolicyID == "" {
		m.seq++
		p.PtoPolicyID = fmt.Sprintf("policy-%d", m.seq)
	}
	m.policies[p.PtoPolicyID] = p
	return nil
}

func (m *mockPtoPolicyRepo) GetByID(_ context.Context, id string) (*model.PtoPolicy, error) {
	if p, ok := m.policies[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPtoPolicyRepo) List(_ context.Context, filter repository.PtoPolicyFilter) ([]model.PtoPolicy, error) {
	var result []model.PtoPolicy
	for _, p := range m.sorted() {
		if filter.UserID != "" && p.UserID != filter.UserID {
			continue
		}
		if filter.PtoTypeID != "" && p.PtoTypeID != filter.PtoTypeID {
			continue
		}
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		result = append(result, *p)
	}
	return result, nil
}

func (m *mockPtoPolicyRepo) ListActiveInYear(_ context.Context, year int) ([]model.PtoPolicy, error) {
	var result []model.PtoPolicy
	for _, p := range m.sorted() {
		if p.IsActive && p.ActiveInYear(year) {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPtoPolicyRepo) Update(_ context.Context, p *model.PtoPolicy) error {
	m.policies[p.PtoPolicyID] = p
	return nil
}

func (m *mockPtoPolicyRepo) Delete(_ context.Context, id, _ string) error {
	delete(m.policies, id)
	return nil
}

func (m *mockPtoPolicyRepo) sorted() []*model.PtoPolicy {
	list := make([]*model.PtoPolicy, 0, len(m.policies))
	for _, p := range m.policies {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].PtoPolicyID < list[j].PtoPolicyID })
	return list
}

// ── Mock PtoBalanceRepository ──
//
// 存取均为副本，Update 按版本号校验，行为与带乐观锁的真实实现一致

type mockPtoBalanceRepo struct {
	rows map[string]*model.PtoBalance // key: balance id
	seq  int
}

func newMockPtoBalanceRepo() *mockPtoBalanceRepo {
	return &mockPtoBalanceRepo{rows: make(map[string]*model.PtoBalance)}
}

func (m *mockPtoBalanceRepo) find(userID, ptoTypeID string, year int) *model.PtoBalance {
	for _, b := range m.rows {
		if b.UserID == userID && b.PtoTypeID == ptoTypeID && b.Year == year {
			return b
		}
	}
	return nil
}

// seed 直接写入一行余额，返回其副本
func (m *mockPtoBalanceRepo) seed(b model.PtoBalance) *model.PtoBalance {
	if b.PtoBalanceID == "" {
		m.seq++
		b.PtoBalanceID = fmt.Sprintf("bal-%d", m.seq)
	}
	if b.Version == 0 {
		b.Version = 1
	}
	stored := b
	m.rows[b.PtoBalanceID] = &stored
	return &b
}

func (m *mockPtoBalanceRepo) GetByID(_ context.Context, id string) (*model.PtoBalance, error) {
	if b, ok := m.rows[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPtoBalanceRepo) Get(_ context.Context, userID, ptoTypeID string, year int) (*model.PtoBalance, error) {
	if b := m.find(userID, ptoTypeID, year); b != nil {
		cp := *b
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPtoBalanceRepo) GetOrCreateForUpdate(_ context.Context, userID, ptoTypeID string, year int) (*model.PtoBalance, error) {
	if b := m.find(userID, ptoTypeID, year); b != nil {
		cp := *b
		return &cp, nil
	}
	return m.seed(model.PtoBalance{UserID: userID, PtoTypeID: ptoTypeID, Year: year}), nil
}

func (m *mockPtoBalanceRepo) Update(_ context.Context, b *model.PtoBalance) error {
	stored, ok := m.rows[b.PtoBalanceID]
	if !ok || stored.Version != b.Version {
		return pkgerrors.ErrOptimisticLock
	}
	b.Version++
	cp := *b
	cp.PtoType = nil
	m.rows[b.PtoBalanceID] = &cp
	return nil
}

func (m *mockPtoBalanceRepo) ListByUser(_ context.Context, userID string, year int) ([]model.PtoBalance, error) {
	var result []model.PtoBalance
	for _, b := range m.rows {
		if b.UserID == userID && (year == 0 || b.Year == year) {
			result = append(result, *b)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PtoBalanceID < result[j].PtoBalanceID })
	return result, nil
}

func (m *mockPtoBalanceRepo) ListByYear(_ context.Context, year int) ([]model.PtoBalance, error) {
	var result []model.PtoBalance
	for _, b := range m.rows {
		if b.Year == year {
			result = append(result, *b)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PtoBalanceID < result[j].PtoBalanceID })
	return result, nil
}

// ── Mock PtoTransactionRepository ──

type mockPtoTxRepo struct {
	txs []model.PtoTransaction
}

func newMockPtoTxRepo() *mockPtoTxRepo {
	return &mockPtoTxRepo{}
}

func (m *mockPtoTxRepo) Create(_ context.Context, tx *model.PtoTransaction) error {
	tx.PtoTransactionID = fmt.Sprintf("tx-%d", len(m.txs)+1)
	m.txs = append(m.txs, *tx)
	return nil
}

func (m *mockPtoTxRepo) ListByBalance(_ context.Context, balanceID string) ([]model.PtoTransaction, error) {
	var result []model.PtoTransaction
	for _, t := range m.txs {
		if t.PtoBalanceID == balanceID {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *mockPtoTxRepo) List(_ context.Context, filter repository.PtoTransactionFilter, page repository.Page) ([]model.PtoTransaction, int64, error) {
	var result []model.PtoTransaction
	for _, t := range m.txs {
		if filter.UserID != "" && t.UserID != filter.UserID {
			continue
		}
		if filter.PtoTypeID != "" && t.PtoTypeID != filter.PtoTypeID {
			continue
		}
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		result = append(result, t)
	}
	return paginate(result, page), int64(len(result)), nil
}

func (m *mockPtoTxRepo) ExistsForBalance(_ context.Context, balanceID, txType string) (bool, error) {
	for _, t := range m.txs {
		if t.PtoBalanceID == balanceID && t.Type == txType {
			return true, nil
		}
	}
	return false, nil
}

// ofType 返回指定类型的流水
func (m *mockPtoTxRepo) ofType(txType string) []model.PtoTransaction {
	var result []model.PtoTransaction
	for _, t := range m.txs {
		if t.Type == txType {
			result = append(result, t)
		}
	}
	return result
}

// ── Mock PtoRequestRepository ──

type mockPtoRequestRepo struct {
	requests   map[string]*model.PtoRequest
	users      *mockUserRepo
	types      *mockPtoTypeRepo
	approvals  *mockPtoApprovalRepo
	seq        int
	concurrent int64 // CountConcurrentInDepartment 的返回值
}

func newMockPtoRequestRepo(users *mockUserRepo, types *mockPtoTypeRepo, approvals *mockPtoApprovalRepo) *mockPtoRequestRepo {
	return &mockPtoRequestRepo{
		requests:  make(map[string]*model.PtoRequest),
		users:     users,
		types:     types,
		approvals: approvals,
	}
}

func (m *mockPtoRequestRepo) Create(_ context.Context, req *model.PtoRequest) error {
	if req.PtoRequestID == "" {
		m.seq++
		req.PtoRequestID = fmt.Sprintf("req-%d", m.seq)
	}
	req.Version = 1
	cp := *req
	m.requests[req.PtoRequestID] = &cp
	return nil
}

func (m *mockPtoRequestRepo) GetByID(ctx context.Context, id string) (*model.PtoRequest, error) {
	r, ok := m.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	cp.User, _ = m.users.GetByID(ctx, r.UserID)
	cp.PtoType, _ = m.types.GetByID(ctx, r.PtoTypeID)
	cp.Approvals, _ = m.approvals.ListByRequest(ctx, id)
	return &cp, nil
}

func (m *mockPtoRequestRepo) Update(_ context.Context, req *model.PtoRequest) error {
	stored, ok := m.requests[req.PtoRequestID]
	if !ok || stored.Version != req.Version {
		return pkgerrors.ErrOptimisticLock
	}
	req.Version++
	cp := *req
	cp.User, cp.PtoType, cp.Approvals = nil, nil, nil
	m.requests[req.PtoRequestID] = &cp
	return nil
}

func (m *mockPtoRequestRepo) List(ctx context.Context, filter repository.PtoRequestFilter, page repository.Page) ([]model.PtoRequest, int64, error) {
	var result []model.PtoRequest
	for _, r := range m.requests {
		if filter.UserID != "" && r.UserID != filter.UserID {
			continue
		}
		if len(filter.UserIDs) > 0 && !containsString(filter.UserIDs, r.UserID) {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.PtoTypeID != "" && r.PtoTypeID != filter.PtoTypeID {
			continue
		}
		if filter.ApproverID != "" {
			a, err := m.approvals.GetPendingByRequest(ctx, r.PtoRequestID)
			if err != nil || a.ApproverID == nil || *a.ApproverID != filter.ApproverID {
				continue
			}
		}
		if filter.DepartmentID != "" {
			u, err := m.users.GetByID(ctx, r.UserID)
			if err != nil || u.DepartmentIDValue() != filter.DepartmentID {
				continue
			}
		}
		if filter.From != nil && r.EndDate.Before(model.DateOnly(*filter.From)) {
			continue
		}
		if filter.To != nil && r.StartDate.After(model.DateOnly(*filter.To)) {
			continue
		}
		cp := *r
		cp.User, _ = m.users.GetByID(ctx, r.UserID)
		cp.PtoType, _ = m.types.GetByID(ctx, r.PtoTypeID)
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PtoRequestID < result[j].PtoRequestID })
	return paginate(result, page), int64(len(result)), nil
}

func (m *mockPtoRequestRepo) ListOverlapping(_ context.Context, userID string, start, end time.Time) ([]model.PtoRequest, error) {
	var result []model.PtoRequest
	for _, r := range m.requests {
		if r.UserID != userID {
			continue
		}
		if r.Status != model.PtoStatusPending && r.Status != model.PtoStatusApproved {
			continue
		}
		if r.OverlapsWithDateRange(start, end) {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockPtoRequestRepo) CountConcurrentInDepartment(_ context.Context, _ string, _, _ time.Time) (int64, error) {
	return m.concurrent, nil
}

func (m *mockPtoRequestRepo) NextNumber(_ context.Context, year int) (string, error) {
	return fmt.Sprintf("PTO-%d-%06d", year, m.seq+1), nil
}

func (m *mockPtoRequestRepo) CountByStatus(_ context.Context, status string) (int64, error) {
	var n int64
	for _, r := range m.requests {
		if r.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *mockPtoRequestRepo) CountOnLeave(_ context.Context, day time.Time) (int64, error) {
	seen := make(map[string]bool)
	for _, r := range m.requests {
		if r.Status == model.PtoStatusApproved && r.OverlapsWithDateRange(day, day) {
			seen[r.UserID] = true
		}
	}
	return int64(len(seen)), nil
}

// ── Mock PtoApprovalRepository ──

type mockPtoApprovalRepo struct {
	approvals []*model.PtoApproval
}

func newMockPtoApprovalRepo() *mockPtoApprovalRepo {
	return &mockPtoApprovalRepo{}
}

func (m *mockPtoApprovalRepo) Create(_ context.Context, a *model.PtoApproval) error {
	a.PtoApprovalID = fmt.Sprintf("appr-%d", len(m.approvals)+1)
	cp := *a
	m.approvals = append(m.approvals, &cp)
	return nil
}

func (m *mockPtoApprovalRepo) ListByRequest(_ context.Context, requestID string) ([]model.PtoApproval, error) {
	var result []model.PtoApproval
	for _, a := range m.approvals {
		if a.PtoRequestID == requestID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockPtoApprovalRepo) GetPendingByRequest(_ context.Context, requestID string) (*model.PtoApproval, error) {
	for _, a := range m.approvals {
		if a.PtoRequestID == requestID && a.Status == model.ApprovalPending {
			cp := *a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPtoApprovalRepo) Respond(_ context.Context, a *model.PtoApproval) error {
	for _, stored := range m.approvals {
		if stored.PtoApprovalID == a.PtoApprovalID {
			if stored.Status != model.ApprovalPending {
				return pkgerrors.ErrOptimisticLock
			}
			*stored = *a
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockPtoApprovalRepo) SkipPending(_ context.Context, requestID, by string) error {
	for _, a := range m.approvals {
		if a.PtoRequestID == requestID && a.Status == model.ApprovalPending {
			a.Status = model.ApprovalSkipped
			a.RespondedBy = &by
		}
	}
	return nil
}

// ── Mock PtoBlackoutRepository ──

type mockPtoBlackoutRepo struct {
	blackouts map[string]*model.PtoBlackout
	seq       int
}

func newMockPtoBlackoutRepo() *mockPtoBlackoutRepo {
	return &mockPtoBlackoutRepo{blackouts: make(map[string]*model.PtoBlackout)}
}

func (m *mockPtoBlackoutRepo) Create(_ context.Context, b *model.PtoBlackout) error {
	if b.PtoBlackoutID == "" {
		m.seq++
		b.PtoBlackoutID = fmt.Sprintf("blackout-%d", m.seq)
	}
	m.blackouts[b.PtoBlackoutID] = b
	return nil
}

func (m *mockPtoBlackoutRepo) GetByID(_ context.Context, id string) (*model.PtoBlackout, error) {
	if b, ok := m.blackouts[id]; ok {
		return b, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPtoBlackoutRepo) List(_ context.Context, includeInactive bool) ([]model.PtoBlackout, error) {
	var result []model.PtoBlackout
	for _, b := range m.blackouts {
		if b.IsActive || includeInactive {
			result = append(result, *b)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PtoBlackoutID < result[j].PtoBlackoutID })
	return result, nil
}

func (m *mockPtoBlackoutRepo) Update(_ context.Context, b *model.PtoBlackout) error {
	m.blackouts[b.PtoBlackoutID] = b
	return nil
}

func (m *mockPtoBlackoutRepo) Delete(_ context.Context, id, _ string) error {
	delete(m.blackouts, id)
	return nil
}

// ── Mock RoutePermissionRepository ──

type mockRoutePermRepo struct {
	perms     map[string]*model.RoutePermission
	seq       int
	listCalls int
}

func newMockRoutePermRepo() *mockRoutePermRepo {
	return &mockRoutePermRepo{perms: make(map[string]*model.RoutePermission)}
}

func (m *mockRoutePermRepo) List(_ context.Context) ([]model.RoutePermission, error) {
	m.listCalls++
	var result []model.RoutePermission
	for _, p := range m.perms {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key() < result[j].Key() })
	return result, nil
}

func (m *mockRoutePermRepo) GetByID(_ context.Context, id string) (*model.RoutePermission, error) {
	if p, ok := m.perms[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoutePermRepo) Create(_ context.Context, p *model.RoutePermission) error {
	if p.RoutePermissionID == "" {
		m.seq++
		p.RoutePermissionID = fmt.Sprintf("perm-%d", m.seq)
	}
	cp := *p
	m.perms[p.RoutePermissionID] = &cp
	return nil
}

func (m *mockRoutePermRepo) Update(_ context.Context, p *model.RoutePermission) error {
	if _, ok := m.perms[p.RoutePermissionID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *p
	m.perms[p.RoutePermissionID] = &cp
	return nil
}

func (m *mockRoutePermRepo) Delete(_ context.Context, id string) error {
	delete(m.perms, id)
	return nil
}

// ── Mock TimesheetRepository ──

type mockTimesheetRepo struct {
	entries map[string]*model.TimesheetEntry
	seq     int
}

func newMockTimesheetRepo() *mockTimesheetRepo {
	return &mockTimesheetRepo{entries: make(map[string]*model.TimesheetEntry)}
}

func (m *mockTimesheetRepo) Create(_ context.Context, e *model.TimesheetEntry) error {
	if e.TimesheetEntryID == "" {
		m.seq++
		e.TimesheetEntryID = fmt.Sprintf("ts-%d", m.seq)
	}
	e.Version = 1
	cp := *e
	m.entries[e.TimesheetEntryID] = &cp
	return nil
}

func (m *mockTimesheetRepo) GetByID(_ context.Context, id string) (*model.TimesheetEntry, error) {
	if e, ok := m.entries[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimesheetRepo) GetOpen(_ context.Context, userID string) (*model.TimesheetEntry, error) {
	for _, e := range m.entries {
		if e.UserID == userID && e.Status == model.TimesheetOpen {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimesheetRepo) Update(_ context.Context, e *model.TimesheetEntry) error {
	stored, ok := m.entries[e.TimesheetEntryID]
	if !ok || stored.Version != e.Version {
		return pkgerrors.ErrOptimisticLock
	}
	e.Version++
	cp := *e
	cp.User = nil
	m.entries[e.TimesheetEntryID] = &cp
	return nil
}

func (m *mockTimesheetRepo) Delete(_ context.Context, id, _ string) error {
	delete(m.entries, id)
	return nil
}

func (m *mockTimesheetRepo) List(_ context.Context, filter repository.TimesheetFilter, page repository.Page) ([]model.TimesheetEntry, int64, error) {
	var result []model.TimesheetEntry
	for _, e := range m.entries {
		if filter.UserID != "" && e.UserID != filter.UserID {
			continue
		}
		if len(filter.UserIDs) > 0 && !containsString(filter.UserIDs, e.UserID) {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.From != nil && e.WorkDate.Before(model.DateOnly(*filter.From)) {
			continue
		}
		if filter.To != nil && e.WorkDate.After(model.DateOnly(*filter.To)) {
			continue
		}
		result = append(result, *e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ClockIn.Before(result[j].ClockIn) })
	return paginate(result, page), int64(len(result)), nil
}

func (m *mockTimesheetRepo) CountByStatus(_ context.Context, status string) (int64, error) {
	var n int64
	for _, e := range m.entries {
		if e.Status == status {
			n++
		}
	}
	return n, nil
}

// ── Mock PartRepository ──

type mockPartRepo struct {
	parts map[string]*model.Part
}

func newMockPartRepo() *mockPartRepo {
	return &mockPartRepo{parts: make(map[string]*model.Part)}
}

func (m *mockPartRepo) Create(_ context.Context, p *model.Part) error {
	if p.PartID == "" {
		p.PartID = "part-" + p.PartNumber
	}
	p.Version = 1
	cp := *p
	m.parts[p.PartID] = &cp
	return nil
}

func (m *mockPartRepo) GetByID(_ context.Context, id string) (*model.Part, error) {
	if p, ok := m.parts[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPartRepo) GetByNumber(_ context.Context, partNumber string) (*model.Part, error) {
	for _, p := range m.parts {
		if p.PartNumber == partNumber {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPartRepo) Update(_ context.Context, p *model.Part) error {
	stored, ok := m.parts[p.PartID]
	if !ok || stored.Version != p.Version {
		return pkgerrors.ErrOptimisticLock
	}
	p.Version++
	cp := *p
	m.parts[p.PartID] = &cp
	return nil
}

func (m *mockPartRepo) Delete(_ context.Context, id, _ string) error {
	delete(m.parts, id)
	return nil
}

func (m *mockPartRepo) List(_ context.Context, filter repository.PartFilter, page repository.Page) ([]model.Part, int64, error) {
	var result []model.Part
	for _, p := range m.parts {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.LowStock && !p.IsLowStock() {
			continue
		}
		if filter.Keyword != "" {
			kw := strings.ToLower(filter.Keyword)
			if !strings.Contains(strings.ToLower(p.PartNumber), kw) &&
				!strings.Contains(strings.ToLower(p.Name), kw) &&
				!strings.Contains(strings.ToLower(p.Manufacturer), kw) {
				continue
			}
		}
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PartNumber < result[j].PartNumber })
	return paginate(result, page), int64(len(result)), nil
}

func (m *mockPartRepo) CountLowStock(_ context.Context) (int64, error) {
	var n int64
	for _, p := range m.parts {
		if p.IsActive && p.IsLowStock() {
			n++
		}
	}
	return n, nil
}

// ── Mock WikiRepository ──

type mockWikiRepo struct {
	pages     map[string]*model.WikiPage
	revisions []model.WikiRevision
	seq       int
}

func newMockWikiRepo() *mockWikiRepo {
	return &mockWikiRepo{pages: make(map[string]*model.WikiPage)}
}

func (m *mockWikiRepo) CreatePage(_ context.Context, p *model.WikiPage) error {
	if p.WikiPageID == "" {
		m.seq++
		p.WikiPageID = fmt.Sprintf("page-%d", m.seq)
	}
	cp := *p
	m.pages[p.WikiPageID] = &cp
	return nil
}

func (m *mockWikiRepo) GetPageByID(_ context.Context, id string) (*model.WikiPage, error) {
	if p, ok := m.pages[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWikiRepo) GetPageBySlug(_ context.Context, slug string) (*model.WikiPage, error) {
	for _, p := range m.pages {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWikiRepo) UpdatePage(_ context.Context, p *model.WikiPage) error {
	stored, ok := m.pages[p.WikiPageID]
	if !ok || stored.Version != p.Version {
		return pkgerrors.ErrOptimisticLock
	}
	p.Version++
	cp := *p
	m.pages[p.WikiPageID] = &cp
	return nil
}

func (m *mockWikiRepo) DeletePage(_ context.Context, id, _ string) error {
	delete(m.pages, id)
	return nil
}

func (m *mockWikiRepo) ListPages(_ context.Context, keyword string, publishedOnly bool, page repository.Page) ([]model.WikiPage, int64, error) {
	var result []model.WikiPage
	for _, p := range m.pages {
		if publishedOnly && !p.IsPublished {
			continue
		}
		if keyword != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(keyword)) {
			continue
		}
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Title < result[j].Title })
	return paginate(result, page), int64(len(result)), nil
}

func (m *mockWikiRepo) SlugExists(_ context.Context, slug, excludeID string) (bool, error) {
	for _, p := range m.pages {
		if p.Slug == slug && p.WikiPageID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockWikiRepo) CreateRevision(_ context.Context, rev *model.WikiRevision) error {
	rev.WikiRevisionID = fmt.Sprintf("rev-%d", len(m.revisions)+1)
	m.revisions = append(m.revisions, *rev)
	return nil
}

func (m *mockWikiRepo) ListRevisions(_ context.Context, pageID string) ([]model.WikiRevision, error) {
	var result []model.WikiRevision
	for i := len(m.revisions) - 1; i >= 0; i-- {
		if m.revisions[i].WikiPageID == pageID {
			result = append(result, m.revisions[i])
		}
	}
	return result, nil
}

// ── Mock ActivityLogRepository ──

type mockActivityRepo struct {
	logs []model.ActivityLog
}

func newMockActivityRepo() *mockActivityRepo {
	return &mockActivityRepo{}
}

func (m *mockActivityRepo) Create(_ context.Context, log *model.ActivityLog) error {
	log.ActivityLogID = fmt.Sprintf("log-%d", len(m.logs)+1)
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockActivityRepo) List(_ context.Context, filter repository.ActivityLogFilter, page repository.Page) ([]model.ActivityLog, int64, error) {
	var result []model.ActivityLog
	for i := len(m.logs) - 1; i >= 0; i-- {
		l := m.logs[i]
		if filter.LogName != "" && l.LogName != filter.LogName {
			continue
		}
		if filter.SubjectType != "" && l.SubjectType != filter.SubjectType {
			continue
		}
		if filter.SubjectID != "" && l.SubjectID != filter.SubjectID {
			continue
		}
		if filter.CauserID != "" && (l.CauserID == nil || *l.CauserID != filter.CauserID) {
			continue
		}
		result = append(result, l)
	}
	return paginate(result, page), int64(len(result)), nil
}

// descriptions 返回已记录日志的描述，按记录顺序
func (m *mockActivityRepo) descriptions() []string {
	out := make([]string, 0, len(m.logs))
	for _, l := range m.logs {
		out = append(out, l.Description)
	}
	return out
}

// ── Mock Store ──

type mockStore struct {
	blacklist map[string]bool
	cache     map[string][]byte
	allow     bool
	limitHits int
}

func newMockStore() *mockStore {
	return &mockStore{blacklist: make(map[string]bool), cache: make(map[string][]byte), allow: true}
}

func (m *mockStore) BlacklistToken(_ context.Context, jti string, _ time.Duration) error {
	m.blacklist[jti] = true
	return nil
}

func (m *mockStore) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	return m.blacklist[jti], nil
}

func (m *mockStore) CheckRateLimit(_ context.Context, _ string, _ int, _ time.Duration) (bool, error) {
	m.limitHits++
	return m.allow, nil
}

func (m *mockStore) GetJSON(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.cache[key]
	if !ok {
		return pkgredis.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockStore) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.cache[key] = raw
	return nil
}

func (m *mockStore) Delete(_ context.Context, key string) error {
	delete(m.cache, key)
	return nil
}

// ── 测试辅助 ──

// mockRepos 持有所有 mock，便于测试直接断言内部状态
type mockRepos struct {
	user      *mockUserRepo
	dept      *mockDeptRepo
	position  *mockPositionRepo
	ptoType   *mockPtoTypeRepo
	policy    *mockPtoPolicyRepo
	balance   *mockPtoBalanceRepo
	tx        *mockPtoTxRepo
	request   *mockPtoRequestRepo
	approval  *mockPtoApprovalRepo
	blackout  *mockPtoBlackoutRepo
	perm      *mockRoutePermRepo
	timesheet *mockTimesheetRepo
	part      *mockPartRepo
	wiki      *mockWikiRepo
	activity  *mockActivityRepo
}

func newMockRepos() (*repository.Repository, *mockRepos) {
	m := &mockRepos{
		user:      newMockUserRepo(),
		dept:      newMockDeptRepo(),
		position:  newMockPositionRepo(),
		ptoType:   newMockPtoTypeRepo(),
		policy:    newMockPtoPolicyRepo(),
		balance:   newMockPtoBalanceRepo(),
		tx:        newMockPtoTxRepo(),
		approval:  newMockPtoApprovalRepo(),
		blackout:  newMockPtoBlackoutRepo(),
		perm:      newMockRoutePermRepo(),
		timesheet: newMockTimesheetRepo(),
		part:      newMockPartRepo(),
		wiki:      newMockWikiRepo(),
		activity:  newMockActivityRepo(),
	}
	m.request = newMockPtoRequestRepo(m.user, m.ptoType, m.approval)

	repo := &repository.Repository{
		User:            m.user,
		Department:      m.dept,
		Position:        m.position,
		PtoType:         m.ptoType,
		PtoPolicy:       m.policy,
		PtoBalance:      m.balance,
		PtoTransaction:  m.tx,
		PtoRequest:      m.request,
		PtoApproval:     m.approval,
		PtoBlackout:     m.blackout,
		RoutePermission: m.perm,
		Timesheet:       m.timesheet,
		Part:            m.part,
		Wiki:            m.wiki,
		Activity:        m.activity,
	}
	return repo, m
}

func paginate[T any](list []T, page repository.Page) []T {
	if page.Offset >= len(list) {
		if page.Offset == 0 {
			return list
		}
		return nil
	}
	list = list[page.Offset:]
	if page.Limit > 0 && page.Limit < len(list) {
		list = list[:page.Limit]
	}
	return list
}

func strPtr(s string) *string { return &s }

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// addUser 写入一个在职员工
func (m *mockRepos) addUser(id, role string, deptID, managerID *string) *model.User {
	u := &model.User{
		UserID:         id,
		EmployeeNumber: "E" + id,
		FirstName:      "Test",
		LastName:       strings.ToUpper(id[:1]) + id[1:],
		Email:          id + "@acs.test",
		Role:           role,
		DepartmentID:   deptID,
		ManagerID:      managerID,
		IsActive:       true,
	}
	u.RefreshDisplayName()
	u.Version = 1
	m.user.users[id] = u
	return u
}
