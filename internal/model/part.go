package model

import "github.com/shopspring/decimal"

// Part 配件目录表 — 对应 parts
type Part struct {
	PartID       string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"part_id"`
	PartNumber   string          `gorm:"type:varchar(60);not null"                      json:"part_number"`
	Name         string          `gorm:"type:varchar(200);not null"                     json:"name"`
	Description  string          `gorm:"type:text"                                      json:"description,omitempty"`
	Manufacturer string          `gorm:"type:varchar(120)"                              json:"manufacturer,omitempty"`
	Category     string          `gorm:"type:varchar(80)"                               json:"category,omitempty"`
	UnitPrice    decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"unit_price"`
	Quantity     int             `gorm:"not null;default:0"                             json:"quantity"`
	ReorderLevel int             `gorm:"not null;default:0"                             json:"reorder_level"`
	Location     string          `gorm:"type:varchar(120)"                              json:"location,omitempty"`
	IsActive     bool            `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel
}

// TableName 指定表名
func (Part) TableName() string { return "parts" }

// IsLowStock 库存不高于补货线
func (p *Part) IsLowStock() bool {
	return p.ReorderLevel > 0 && p.Quantity <= p.ReorderLevel
}
