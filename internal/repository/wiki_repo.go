package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
)

// WikiRepository 知识库数据访问接口
type WikiRepository interface {
	CreatePage(ctx context.Context, p *model.WikiPage) error
	GetPageByID(ctx context.Context, id string) (*model.WikiPage, error)
	GetPageBySlug(ctx context.Context, slug string) (*model.WikiPage, error)
	UpdatePage(ctx context.Context, p *model.WikiPage) error
	DeletePage(ctx context.Context, id, deletedBy string) error
	ListPages(ctx context.Context, keyword string, publishedOnly bool, page Page) ([]model.WikiPage, int64, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	CreateRevision(ctx context.Context, rev *model.WikiRevision) error
	ListRevisions(ctx context.Context, pageID string) ([]model.WikiRevision, error)
}

type wikiRepo struct {
	db *gorm.DB
}

// NewWikiRepo 创建 WikiRepository 实例
func NewWikiRepo(db *gorm.DB) WikiRepository {
	return &wikiRepo{db: db}
}

func (r *wikiRepo) CreatePage(ctx context.Context, p *model.WikiPage) error {
	return r.db.WithContext(ctx).Omit("Author").Create(p).Error
}

func (r *wikiRepo) GetPageByID(ctx context.Context, id string) (*model.WikiPage, error) {
	var p model.WikiPage
	if err := r.db.WithContext(ctx).Preload("Author").Where("wiki_page_id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *wikiRepo) GetPageBySlug(ctx context.Context, slug string) (*model.WikiPage, error) {
	var p model.WikiPage
	if err := r.db.WithContext(ctx).Preload("Author").Where("slug = ?", slug).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *wikiRepo) UpdatePage(ctx context.Context, p *model.WikiPage) error {
	oldVersion := p.Version
	err := updateVersioned(ctx, r.db, &model.WikiPage{}, "wiki_page_id", p.WikiPageID, oldVersion, map[string]interface{}{
		"slug":         p.Slug,
		"title":        p.Title,
		"content":      p.Content,
		"parent_id":    p.ParentID,
		"is_published": p.IsPublished,
		"updated_by":   p.UpdatedBy,
	})
	if err != nil {
		return err
	}
	p.Version = oldVersion + 1
	return nil
}

func (r *wikiRepo) DeletePage(ctx context.Context, id, deletedBy string) error {
	return softDelete(ctx, r.db, &model.WikiPage{}, "wiki_page_id", id, deletedBy)
}

func (r *wikiRepo) ListPages(ctx context.Context, keyword string, publishedOnly bool, page Page) ([]model.WikiPage, int64, error) {
	var list []model.WikiPage
	var total int64

	db := r.db.WithContext(ctx).Model(&model.WikiPage{})
	if kw := strings.TrimSpace(keyword); kw != "" {
		like := "%" + strings.ToLower(kw) + "%"
		db = db.Where("(LOWER(title) LIKE ? OR LOWER(content) LIKE ?)", like, like)
	}
	if publishedOnly {
		db = db.Where("is_published = ?", true)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := page.apply(db.Preload("Author")).Order("title ASC").Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *wikiRepo) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var count int64
	db := r.db.WithContext(ctx).Model(&model.WikiPage{}).Where("slug = ?", slug)
	if excludeID != "" {
		db = db.Where("wiki_page_id <> ?", excludeID)
	}
	if err := db.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *wikiRepo) CreateRevision(ctx context.Context, rev *model.WikiRevision) error {
	return r.db.WithContext(ctx).Create(rev).Error
}

func (r *wikiRepo) ListRevisions(ctx context.Context, pageID string) ([]model.WikiRevision, error) {
	var list []model.WikiRevision
	err := r.db.WithContext(ctx).
		Where("wiki_page_id = ?", pageID).
		Order("version DESC").
		Find(&list).Error
	return list, err
}
