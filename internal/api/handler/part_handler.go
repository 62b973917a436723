package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/service"
	"github.com/Digitalhour/ACSCoreOS-sub013/pkg/response"
)

// PartHandler 配件目录 HTTP 处理器
type PartHandler struct {
	svc service.PartService
}

// NewPartHandler 创建 PartHandler
func NewPartHandler(svc service.PartService) *PartHandler {
	return &PartHandler{svc: svc}
}

// ListParts 配件搜索
// GET /api/parts
func (h *PartHandler) ListParts(c *gin.Context) {
	var req dto.PartListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	parts, total, err := h.svc.List(c.Request.Context(), &req)
	if err != nil {
		h.handlePartError(c, err)
		return
	}

	response.OKPage(c, parts, total, req.GetPage(), req.GetPageSize())
}

// GetPart 配件详情
// GET /api/parts/:id
func (h *PartHandler) GetPart(c *gin.Context) {
	id, ok := mustParam(c, "id", "配件ID不能为空")
	if !ok {
		return
	}

	part, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handlePartError(c, err)
		return
	}

	response.OK(c, part)
}

// CreatePart 创建配件
// POST /api/parts
func (h *PartHandler) CreatePart(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreatePartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	part, err := h.svc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handlePartError(c, err)
		return
	}

	response.Created(c, part)
}

// UpdatePart 更新配件
// PUT /api/parts/:id
func (h *PartHandler) UpdatePart(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := mustParam(c, "id", "配件ID不能为空")
	if !ok {
		return
	}

	var req dto.UpdatePartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	part, err := h.svc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handlePartError(c, err)
		return
	}

	response.OK(c, part)
}

// DeletePart 删除配件
// DELETE /api/parts/:id
func (h *PartHandler) DeletePart(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := mustParam(c, "id", "配件ID不能为空")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handlePartError(c, err)
		return
	}

	response.OK(c, nil)
}

// ImportParts Excel 导入，按配件编号新增或更新
// POST /api/parts/import  multipart/form-data, field="file"
func (h *PartHandler) ImportParts(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, 41004, "请上传 Excel 文件")
		return
	}
	defer file.Close()

	result, err := h.svc.Import(c.Request.Context(), file, callerID)
	if err != nil {
		h.handlePartError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *PartHandler) handlePartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPartNotFound):
		response.NotFound(c, 41001, "配件不存在")
	case errors.Is(err, service.ErrPartNumberExists):
		response.Conflict(c, 41002, "配件编号已存在")
	case errors.Is(err, service.ErrPartNegativePrice):
		response.BadRequest(c, 41003, "单价不能为负数")
	case errors.Is(err, service.ErrImportNoData),
		errors.Is(err, service.ErrImportBadHeader),
		errors.Is(err, service.ErrImportTooManyRows):
		response.BadRequest(c, 41004, err.Error())
	default:
		handleCommonError(c, err)
	}
}
