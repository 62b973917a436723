package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNoDB 聚合未绑定数据库连接时开启事务
var ErrNoDB = errors.New("repository 未绑定数据库连接")

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User            UserRepository
	Department      DepartmentRepository
	Position        PositionRepository
	PtoType         PtoTypeRepository
	PtoPolicy       PtoPolicyRepository
	PtoBalance      PtoBalanceRepository
	PtoTransaction  PtoTransactionRepository
	PtoRequest      PtoRequestRepository
	PtoApproval     PtoApprovalRepository
	PtoBlackout     PtoBlackoutRepository
	RoutePermission RoutePermissionRepository
	Timesheet       TimesheetRepository
	Part            PartRepository
	Wiki            WikiRepository
	Activity        ActivityLogRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:              db,
		User:            NewUserRepo(db),
		Department:      NewDepartmentRepo(db),
		Position:        NewPositionRepo(db),
		PtoType:         NewPtoTypeRepo(db),
		PtoPolicy:       NewPtoPolicyRepo(db),
		PtoBalance:      NewPtoBalanceRepo(db),
		PtoTransaction:  NewPtoTransactionRepo(db),
		PtoRequest:      NewPtoRequestRepo(db),
		PtoApproval:     NewPtoApprovalRepo(db),
		PtoBlackout:     NewPtoBlackoutRepo(db),
		RoutePermission: NewRoutePermissionRepo(db),
		Timesheet:       NewTimesheetRepo(db),
		Part:            NewPartRepo(db),
		Wiki:            NewWikiRepo(db),
		Activity:        NewActivityLogRepo(db),
	}
}

// DB 返回底层连接（迁移、健康检查使用）
func (r *Repository) DB() *gorm.DB { return r.db }

// BeginTx 开启事务，调用方负责 Commit / Rollback
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, ErrNoDB
	}
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx 返回绑定到事务连接的 Repository 聚合
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction 在事务中执行 fn，fn 返回错误或 panic 时回滚
// 未绑定数据库连接（单元测试注入 mock）时直接以当前聚合执行
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// ── 分页 ──

// Page 偏移分页参数
type Page struct {
	Offset int
	Limit  int
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	if p.Limit > 0 {
		db = db.Limit(p.Limit)
	}
	if p.Offset > 0 {
		db = db.Offset(p.Offset)
	}
	return db
}

// IsNotFound 判断是否为记录不存在
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
