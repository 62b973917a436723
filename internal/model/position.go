package model

// Position 岗位表 — 对应 positions
type Position struct {
	PositionID   string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"position_id"`
	Title        string  `gorm:"type:varchar(100);not null"                     json:"title"`
	DepartmentID *string `gorm:"type:uuid"                                      json:"department_id,omitempty"`
	Description  string  `gorm:"type:text"                                      json:"description,omitempty"`
	IsActive     bool    `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel

	// 关联
	Department *Department `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
}

// TableName 指定表名
func (Position) TableName() string { return "positions" }
