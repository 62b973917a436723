package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 流水类型
const (
	PtoTxAccrual        = "accrual"
	PtoTxRollover       = "rollover"
	PtoTxAdjustment     = "adjustment"
	PtoTxUsage          = "usage"
	PtoTxUsageReversal  = "usage_reversal"
	PtoTxPending        = "pending"
	PtoTxPendingRelease = "pending_release"
)

// Bucket 流水影响的余额桶
type Bucket int

const (
	BucketUnknown Bucket = iota
	BucketBalance
	BucketUsed
	BucketPending
)

// BucketOf 返回流水类型对应的余额桶
func BucketOf(txType string) Bucket {
	switch txType {
	case PtoTxAccrual, PtoTxRollover, PtoTxAdjustment:
		return BucketBalance
	case PtoTxUsage, PtoTxUsageReversal:
		return BucketUsed
	case PtoTxPending, PtoTxPendingRelease:
		return BucketPending
	}
	return BucketUnknown
}

// PtoTransaction 休假流水表 — 对应 pto_transactions（只增不改）
// Amount 为对所属桶的带符号增量，AvailableAfter 为记账后的可用额度
type PtoTransaction struct {
	PtoTransactionID string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"pto_transaction_id"`
	PtoBalanceID     string          `gorm:"type:uuid;not null"                             json:"pto_balance_id"`
	UserID           string          `gorm:"type:uuid;not null"                             json:"user_id"`
	PtoTypeID        string          `gorm:"type:uuid;not null"                             json:"pto_type_id"`
	PtoRequestID     *string         `gorm:"type:uuid"                                      json:"pto_request_id,omitempty"`
	Type             string          `gorm:"type:varchar(30);not null"                      json:"type"`
	Amount           decimal.Decimal `gorm:"type:numeric(8,2);not null"                     json:"amount"`
	AvailableAfter   decimal.Decimal `gorm:"type:numeric(8,2);not null"                     json:"available_after"`
	Description      string          `gorm:"type:varchar(500)"                              json:"description,omitempty"`
	CreatedBy        *string         `gorm:"type:uuid"                                      json:"created_by,omitempty"`
	CreatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (PtoTransaction) TableName() string { return "pto_transactions" }
