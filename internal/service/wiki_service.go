package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/repository"
	pkgerrors "github.com/Digitalhour/ACSCoreOS-sub013/pkg/errors"
)

// ── 知识库业务错误 ──

var (
	ErrWikiPageNotFound    = errors.New("页面不存在")
	ErrWikiSlugExists      = errors.New("页面地址已被占用")
	ErrWikiVersionConflict = errors.New("页面已被他人修改，请刷新后重试")
	ErrWikiParentSelf      = errors.New("页面不能以自身为上级")
	ErrWikiRenderFailed    = errors.New("页面渲染失败")
)

// WikiService 知识库业务接口
type WikiService interface {
	Create(ctx context.Context, req *dto.CreateWikiPageRequest, caller Caller) (*dto.WikiPageResponse, error)
	GetBySlug(ctx context.Context, slug string, caller Caller) (*dto.WikiPageResponse, error)
	List(ctx context.Context, req *dto.WikiListRequest, caller Caller) ([]model.WikiPage, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateWikiPageRequest, caller Caller) (*dto.WikiPageResponse, error)
	Delete(ctx context.Context, id string, caller Caller) error
	Revisions(ctx context.Context, id string, caller Caller) ([]model.WikiRevision, error)
	// Render 将 markdown 渲染为 HTML（GFM）
	Render(source string) (string, error)
}

type wikiService struct {
	repo     *repository.Repository
	activity ActivityService
	logger   *zap.Logger
	md       goldmark.Markdown
}

// NewWikiService 创建 WikiService 实例
func NewWikiService(repo *repository.Repository, activity ActivityService, logger *zap.Logger) WikiService {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	return &wikiService{repo: repo, activity: activity, logger: logger, md: md}
}

// ────────────────────── Create ──────────────────────

func (s *wikiService) Create(ctx context.Context, req *dto.CreateWikiPageRequest, caller Caller) (*dto.WikiPageResponse, error) {
	if err := s.ensureParent(ctx, req.ParentID, ""); err != nil {
		return nil, err
	}

	var slug string
	if req.Slug != "" {
		slug = model.Slugify(req.Slug)
		exists, err := s.repo.Wiki.SlugExists(ctx, slug, "")
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrWikiSlugExists
		}
	} else {
		var err error
		if slug, err = s.uniqueSlug(ctx, model.Slugify(req.Title)); err != nil {
			return nil, err
		}
	}

	html, err := s.Render(req.Content)
	if err != nil {
		return nil, err
	}

	page := &model.WikiPage{
		Slug:        slug,
		Title:       req.Title,
		Content:     req.Content,
		ParentID:    emptyToNil(req.ParentID),
		AuthorID:    caller.UserID,
		IsPublished: boolOr(req.IsPublished, true),
	}
	page.Version = 1
	page.CreatedBy = &caller.UserID
	page.UpdatedBy = &caller.UserID

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Wiki.CreatePage(ctx, page); err != nil {
			return err
		}
		return tx.Wiki.CreateRevision(ctx, revisionOf(page, caller.UserID))
	})
	if err != nil {
		s.logger.Error("创建页面失败", zap.String("slug", slug), zap.Error(err))
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNameWiki, Description: "创建页面",
		SubjectType: "wiki_page", SubjectID: page.WikiPageID, CauserID: caller.UserID,
		Properties: map[string]interface{}{"slug": slug, "title": page.Title},
	})
	return &dto.WikiPageResponse{WikiPage: page, HTML: html}, nil
}

// ────────────────────── GetBySlug / List ──────────────────────

func (s *wikiService) GetBySlug(ctx context.Context, slug string, caller Caller) (*dto.WikiPageResponse, error) {
	page, err := s.repo.Wiki.GetPageBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWikiPageNotFound
		}
		s.logger.Error("查询页面失败", zap.String("slug", slug), zap.Error(err))
		return nil, err
	}
	// 未发布页面仅作者与 admin / hr 可见
	if !page.IsPublished && page.AuthorID != caller.UserID && !caller.IsPrivileged() {
		return nil, ErrWikiPageNotFound
	}

	html, err := s.Render(page.Content)
	if err != nil {
		return nil, err
	}
	return &dto.WikiPageResponse{WikiPage: page, HTML: html}, nil
}

func (s *wikiService) List(ctx context.Context, req *dto.WikiListRequest, caller Caller) ([]model.WikiPage, int64, error) {
	list, total, err := s.repo.Wiki.ListPages(ctx, req.Keyword, !caller.IsPrivileged(),
		repository.Page{Offset: req.GetOffset(), Limit: req.GetPageSize()})
	if err != nil {
		s.logger.Error("列出页面失败", zap.Error(err))
		return nil, 0, err
	}
	return list, total, nil
}

// ═══════════════════════════════════════════════════════════
// Update — 乐观锁更新页面
// ═══════════════════════════════════════════════════════════
//
// 客户端提交读取时的 version，不一致时拒绝；每次成功更新追加一条修订记录

func (s *wikiService) Update(ctx context.Context, id string, req *dto.UpdateWikiPageRequest, caller Caller) (*dto.WikiPageResponse, error) {
	page, err := s.getPage(ctx, id)
	if err != nil {
		return nil, err
	}
	if page.AuthorID != caller.UserID && !caller.IsPrivileged() {
		return nil, ErrNoPermission
	}
	if page.Version != req.Version {
		return nil, ErrWikiVersionConflict
	}

	if req.Title != nil {
		page.Title = *req.Title
	}
	if req.Content != nil {
		page.Content = *req.Content
	}
	if req.ParentID != nil {
		if err := s.ensureParent(ctx, req.ParentID, page.WikiPageID); err != nil {
			return nil, err
		}
		page.ParentID = emptyToNil(req.ParentID)
	}
	if req.IsPublished != nil {
		page.IsPublished = *req.IsPublished
	}

	html, err := s.Render(page.Content)
	if err != nil {
		return nil, err
	}
	page.UpdatedBy = &caller.UserID
	page.Author = nil

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Wiki.UpdatePage(ctx, page); err != nil {
			return err
		}
		return tx.Wiki.CreateRevision(ctx, revisionOf(page, caller.UserID))
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrWikiVersionConflict
		}
		s.logger.Error("更新页面失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNameWiki, Description: "更新页面",
		SubjectType: "wiki_page", SubjectID: id, CauserID: caller.UserID,
		Properties: map[string]interface{}{"version": page.Version},
	})
	return &dto.WikiPageResponse{WikiPage: page, HTML: html}, nil
}

// ────────────────────── Delete / Revisions ──────────────────────

func (s *wikiService) Delete(ctx context.Context, id string, caller Caller) error {
	page, err := s.getPage(ctx, id)
	if err != nil {
		return err
	}
	if page.AuthorID != caller.UserID && !caller.IsPrivileged() {
		return ErrNoPermission
	}
	if err := s.repo.Wiki.DeletePage(ctx, id, caller.UserID); err != nil {
		s.logger.Error("删除页面失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNameWiki, Description: "删除页面",
		SubjectType: "wiki_page", SubjectID: id, CauserID: caller.UserID,
		Properties: map[string]interface{}{"slug": page.Slug},
	})
	return nil
}

func (s *wikiService) Revisions(ctx context.Context, id string, caller Caller) ([]model.WikiRevision, error) {
	page, err := s.getPage(ctx, id)
	if err != nil {
		return nil, err
	}
	if !page.IsPublished && page.AuthorID != caller.UserID && !caller.IsPrivileged() {
		return nil, ErrWikiPageNotFound
	}
	revs, err := s.repo.Wiki.ListRevisions(ctx, id)
	if err != nil {
		s.logger.Error("查询页面修订失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return revs, nil
}

func (s *wikiService) Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(source), &buf); err != nil {
		s.logger.Warn("markdown 渲染失败", zap.Error(err))
		return "", ErrWikiRenderFailed
	}
	return buf.String(), nil
}

// ── 内部辅助方法 ──

func (s *wikiService) getPage(ctx context.Context, id string) (*model.WikiPage, error) {
	page, err := s.repo.Wiki.GetPageByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWikiPageNotFound
		}
		s.logger.Error("查询页面失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return page, nil
}

// uniqueSlug 在 base 已被占用时依次追加 -2、-3 …
func (s *wikiService) uniqueSlug(ctx context.Context, base string) (string, error) {
	slug := base
	for i := 2; ; i++ {
		exists, err := s.repo.Wiki.SlugExists(ctx, slug, "")
		if err != nil {
			s.logger.Error("检查页面地址失败", zap.Error(err))
			return "", err
		}
		if !exists {
			return slug, nil
		}
		if i > 999 {
			return "", ErrWikiSlugExists
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *wikiService) ensureParent(ctx context.Context, parentID *string, selfID string) error {
	if parentID == nil || *parentID == "" {
		return nil
	}
	if *parentID == selfID {
		return ErrWikiParentSelf
	}
	if _, err := s.getPage(ctx, *parentID); err != nil {
		return err
	}
	return nil
}

func revisionOf(page *model.WikiPage, editorID string) *model.WikiRevision {
	return &model.WikiRevision{
		WikiPageID: page.WikiPageID,
		Version:    page.Version,
		Title:      page.Title,
		Content:    page.Content,
		EditedBy:   editorID,
	}
}
