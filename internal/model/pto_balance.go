package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNegativeBucket 已用或冻结额度不能为负
var ErrNegativeBucket = errors.New("额度变动后已用或冻结额度为负")

// PtoBalance 休假余额表 — 对应 pto_balances
// 每个员工每种休假类型每年一行；Available = Balance - UsedBalance - PendingBalance
type PtoBalance struct {
	PtoBalanceID   string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"pto_balance_id"`
	UserID         string          `gorm:"type:uuid;not null"                             json:"user_id"`
	PtoTypeID      string          `gorm:"type:uuid;not null"                             json:"pto_type_id"`
	Year           int             `gorm:"not null"                                       json:"year"`
	Balance        decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"           json:"balance"`
	UsedBalance    decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"           json:"used_balance"`
	PendingBalance decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"           json:"pending_balance"`
	Version        int             `gorm:"not null;default:1"                             json:"version"`
	CreatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`

	// 关联
	PtoType *PtoType `gorm:"foreignKey:PtoTypeID;references:PtoTypeID" json:"pto_type,omitempty"`
}

// TableName 指定表名
func (PtoBalance) TableName() string { return "pto_balances" }

// Available 可用额度
func (b *PtoBalance) Available() decimal.Decimal {
	return b.Balance.Sub(b.UsedBalance).Sub(b.PendingBalance)
}

// Apply 按流水类型把 amount 记入对应桶
// 已用与冻结额度任何时候不得为负；总额度允许调整为负（由调用方校验）
func (b *PtoBalance) Apply(txType string, amount decimal.Decimal) error {
	switch BucketOf(txType) {
	case BucketBalance:
		b.Balance = b.Balance.Add(amount)
	case BucketUsed:
		next := b.UsedBalance.Add(amount)
		if next.IsNegative() {
			return ErrNegativeBucket
		}
		b.UsedBalance = next
	case BucketPending:
		next := b.PendingBalance.Add(amount)
		if next.IsNegative() {
			return ErrNegativeBucket
		}
		b.PendingBalance = next
	default:
		return fmt.Errorf("未知的流水类型 %q", txType)
	}
	return nil
}

// BalanceDrift 对账结果：存储值与流水汇总值的差异
type BalanceDrift struct {
	Balance decimal.Decimal `json:"balance"`
	Used    decimal.Decimal `json:"used"`
	Pending decimal.Decimal `json:"pending"`
}

// IsZero 三个桶均无差异
func (d BalanceDrift) IsZero() bool {
	return d.Balance.IsZero() && d.Used.IsZero() && d.Pending.IsZero()
}

// Reconcile 用流水重新汇总三个桶，返回存储值减去汇总值的差异
func (b *PtoBalance) Reconcile(txs []PtoTransaction) (expected PtoBalance, drift BalanceDrift) {
	expected = PtoBalance{
		PtoBalanceID: b.PtoBalanceID,
		UserID:       b.UserID,
		PtoTypeID:    b.PtoTypeID,
		Year:         b.Year,
	}
	for _, tx := range txs {
		switch BucketOf(tx.Type) {
		case BucketBalance:
			expected.Balance = expected.Balance.Add(tx.Amount)
		case BucketUsed:
			expected.UsedBalance = expected.UsedBalance.Add(tx.Amount)
		case BucketPending:
			expected.PendingBalance = expected.PendingBalance.Add(tx.Amount)
		}
	}
	drift = BalanceDrift{
		Balance: b.Balance.Sub(expected.Balance),
		Used:    b.UsedBalance.Sub(expected.UsedBalance),
		Pending: b.PendingBalance.Sub(expected.PendingBalance),
	}
	return expected, drift
}
