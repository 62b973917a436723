package model

import (
	"strings"
	"time"
	"unicode"
)

// WikiPage 知识库页面表 — 对应 wiki_pages
type WikiPage struct {
	WikiPageID  string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"wiki_page_id"`
	Slug        string  `gorm:"type:varchar(200);not null"                     json:"slug"`
	Title       string  `gorm:"type:varchar(200);not null"                     json:"title"`
	Content     string  `gorm:"type:text;not null"                             json:"content"`
	ParentID    *string `gorm:"type:uuid"                                      json:"parent_id,omitempty"`
	AuthorID    string  `gorm:"type:uuid;not null"                             json:"author_id"`
	IsPublished bool    `gorm:"not null;default:true"                          json:"is_published"`
	VersionedModel

	// 关联
	Author *User `gorm:"foreignKey:AuthorID;references:UserID" json:"author,omitempty"`
}

// TableName 指定表名
func (WikiPage) TableName() string { return "wiki_pages" }

// WikiRevision 页面历史版本 — 对应 wiki_revisions
type WikiRevision struct {
	WikiRevisionID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"wiki_revision_id"`
	WikiPageID     string    `gorm:"type:uuid;not null"                             json:"wiki_page_id"`
	Version        int       `gorm:"not null"                                       json:"version"`
	Title          string    `gorm:"type:varchar(200);not null"                     json:"title"`
	Content        string    `gorm:"type:text;not null"                             json:"content"`
	EditedBy       string    `gorm:"type:uuid;not null"                             json:"edited_by"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (WikiRevision) TableName() string { return "wiki_revisions" }

// Slugify 由标题生成 URL slug：小写字母数字，其他字符折叠为单个连字符
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if len(slug) > 180 {
		slug = strings.TrimSuffix(slug[:180], "-")
	}
	if slug == "" {
		return "page"
	}
	return slug
}
