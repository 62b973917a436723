package model

import (
	"strings"
	"unicode"
)

// PtoType 休假类型表 — 对应 pto_types
type PtoType struct {
	PtoTypeID        string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"pto_type_id"`
	Name             string `gorm:"type:varchar(100);not null"                     json:"name"`
	Code             string `gorm:"type:varchar(20);not null"                      json:"code"`
	Description      string `gorm:"type:text"                                      json:"description,omitempty"`
	Color            string `gorm:"type:varchar(20);not null;default:'#3B82F6'"    json:"color"`
	RequiresApproval bool   `gorm:"not null;default:true"                          json:"requires_approval"`
	UsesBalance      bool   `gorm:"not null;default:true"                          json:"uses_balance"`
	AllowNegative    bool   `gorm:"not null;default:false"                         json:"allow_negative"`
	IsActive         bool   `gorm:"not null;default:true"                          json:"is_active"`
	SortOrder        int    `gorm:"not null;default:0"                             json:"sort_order"`
	VersionedModel
}

// TableName 指定表名
func (PtoType) TableName() string { return "pto_types" }

// PtoTypeCodeBase 由类型名称推导编码前缀
//   - 多个单词：取每个单词首字母（Sick Leave → SL）
//   - 单个单词：取前三个字符（Vacation → VAC）
//   - 仅保留 ASCII 字母数字并转为大写；无可用字符时返回 "PTO"
func PtoTypeCodeBase(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !(r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)))
	})

	var code string
	switch len(words) {
	case 0:
		return "PTO"
	case 1:
		code = words[0]
		if len(code) > 3 {
			code = code[:3]
		}
	default:
		var b strings.Builder
		for _, w := range words {
			b.WriteByte(w[0])
		}
		code = b.String()
	}

	code = strings.ToUpper(code)
	if len(code) > 10 {
		code = code[:10]
	}
	return code
}
