package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/service"
	"github.com/Digitalhour/ACSCoreOS-sub013/pkg/response"
)

// DepartmentHandler 部门与岗位 HTTP 处理器
type DepartmentHandler struct {
	deptSvc     service.DepartmentService
	positionSvc service.PositionService
}

// NewDepartmentHandler 创建 DepartmentHandler
func NewDepartmentHandler(deptSvc service.DepartmentService, positionSvc service.PositionService) *DepartmentHandler {
	return &DepartmentHandler{deptSvc: deptSvc, positionSvc: positionSvc}
}

// ── 部门 ──

// ListDepartments 获取部门列表
// GET /api/departments
func (h *DepartmentHandler) ListDepartments(c *gin.Context) {
	var req dto.DepartmentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	depts, err := h.deptSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": depts})
}

// GetDepartment 获取部门详情
// GET /api/departments/:id
func (h *DepartmentHandler) GetDepartment(c *gin.Context) {
	id, ok := mustParam(c, "id", "部门ID不能为空")
	if !ok {
		return
	}

	dept, err := h.deptSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleDepartmentError(c, err)
		return
	}

	response.OK(c, dept)
}

// CreateDepartment 创建部门
// POST /api/departments
func (h *DepartmentHandler) CreateDepartment(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	dept, err := h.deptSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleDepartmentError(c, err)
		return
	}

	response.Created(c, dept)
}

// UpdateDepartment 更新部门
// PUT /api/departments/:id
func (h *DepartmentHandler) UpdateDepartment(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := mustParam(c, "id", "部门ID不能为空")
	if !ok {
		return
	}

	var req dto.UpdateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	dept, err := h.deptSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleDepartmentError(c, err)
		return
	}

	response.OK(c, dept)
}

// DeleteDepartment 删除部门
// DELETE /api/departments/:id
func (h *DepartmentHandler) DeleteDepartment(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := mustParam(c, "id", "部门ID不能为空")
	if !ok {
		return
	}

	if err := h.deptSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleDepartmentError(c, err)
		return
	}

	response.OK(c, nil)
}

// GetMembers 获取部门成员列表
// GET /api/departments/:id/members
func (h *DepartmentHandler) GetMembers(c *gin.Context) {
	id, ok := mustParam(c, "id", "部门ID不能为空")
	if !ok {
		return
	}

	members, err := h.deptSvc.GetMembers(c.Request.Context(), id)
	if err != nil {
		h.handleDepartmentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": members})
}

// ── 岗位 ──

// ListPositions 岗位列表
// GET /api/positions
func (h *DepartmentHandler) ListPositions(c *gin.Context) {
	var req dto.PositionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	positions, err := h.positionSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleDepartmentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": positions})
}

// GetPosition 岗位详情
// GET /api/positions/:id
func (h *DepartmentHandler) GetPosition(c *gin.Context) {
	id, ok := mustParam(c, "id", "岗位ID不能为空")
	if !ok {
		return
	}

	p, err := h.positionSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleDepartmentError(c, err)
		return
	}

	response.OK(c, p)
}

// CreatePosition 创建岗位
// POST /api/positions
func (h *DepartmentHandler) CreatePosition(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreatePositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	p, err := h.positionSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleDepartmentError(c, err)
		return
	}

	response.Created(c, p)
}

// UpdatePosition 更新岗位
// PUT /api/positions/:id
func (h *DepartmentHandler) UpdatePosition(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := mustParam(c, "id", "岗位ID不能为空")
	if !ok {
		return
	}

	var req dto.UpdatePositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	p, err := h.positionSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleDepartmentError(c, err)
		return
	}

	response.OK(c, p)
}

// DeletePosition 删除岗位
// DELETE /api/positions/:id
func (h *DepartmentHandler) DeletePosition(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := mustParam(c, "id", "岗位ID不能为空")
	if !ok {
		return
	}

	if err := h.positionSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleDepartmentError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *DepartmentHandler) handleDepartmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDepartmentNotFound):
		response.NotFound(c, 21001, "部门不存在")
	case errors.Is(err, service.ErrDepartmentNameExists):
		response.Conflict(c, 21002, "部门名称已存在")
	case errors.Is(err, service.ErrDepartmentHasMembers):
		response.Conflict(c, 21003, "部门下存在成员，无法删除")
	case errors.Is(err, service.ErrManagerNotFound):
		response.BadRequest(c, 21004, "部门负责人不存在")
	case errors.Is(err, service.ErrPositionNotFound):
		response.NotFound(c, 21101, "岗位不存在")
	case errors.Is(err, service.ErrPositionTitleExists):
		response.Conflict(c, 21102, "同一部门下岗位名称已存在")
	case errors.Is(err, service.ErrPositionInUse):
		response.Conflict(c, 21103, "岗位仍有员工任职，无法删除")
	default:
		handleCommonError(c, err)
	}
}
