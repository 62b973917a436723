package dto

import "github.com/shopspring/decimal"

// ── 配件模块 DTO ──

// CreatePartRequest 创建配件
type CreatePartRequest struct {
	PartNumber   string          `json:"part_number"   binding:"required,max=60"`
	Name         string          `json:"name"          binding:"required,max=200"`
	Description  string          `json:"description"   binding:"omitempty,max=2000"`
	Manufacturer string          `json:"manufacturer"  binding:"omitempty,max=120"`
	Category     string          `json:"category"      binding:"omitempty,max=80"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"      binding:"omitempty,min=0"`
	ReorderLevel int             `json:"reorder_level" binding:"omitempty,min=0"`
	Location     string          `json:"location"      binding:"omitempty,max=120"`
}

// UpdatePartRequest 更新配件
type UpdatePartRequest struct {
	PartNumber   *string          `json:"part_number"   binding:"omitempty,max=60"`
	Name         *string          `json:"name"          binding:"omitempty,max=200"`
	Description  *string          `json:"description"   binding:"omitempty,max=2000"`
	Manufacturer *string          `json:"manufacturer"  binding:"omitempty,max=120"`
	Category     *string          `json:"category"      binding:"omitempty,max=80"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	Quantity     *int             `json:"quantity"      binding:"omitempty,min=0"`
	ReorderLevel *int             `json:"reorder_level" binding:"omitempty,min=0"`
	Location     *string          `json:"location"      binding:"omitempty,max=120"`
	IsActive     *bool            `json:"is_active"`
}

// PartListRequest 配件搜索
type PartListRequest struct {
	PaginationRequest
	Keyword  string `form:"keyword"   binding:"omitempty,max=100"`
	Category string `form:"category"  binding:"omitempty,max=80"`
	LowStock bool   `form:"low_stock"`
}

// ImportPartResponse 配件导入结果
type ImportPartResponse struct {
	Total   int               `json:"total"`
	Created int               `json:"created"`
	Updated int               `json:"updated"`
	Failed  int               `json:"failed"`
	Errors  []ImportUserError `json:"errors,omitempty"`
}
