package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/service"
	"github.com/Digitalhour/ACSCoreOS-sub013/pkg/response"
)

// PtoHandler 休假类型、策略、余额与禁休期 HTTP 处理器
type PtoHandler struct {
	typeSvc     service.PtoTypeService
	policySvc   service.PtoPolicyService
	balanceSvc  service.PtoBalanceService
	blackoutSvc service.PtoBlackoutService
}

// NewPtoHandler 创建 PtoHandler
func NewPtoHandler(
	typeSvc service.PtoTypeService,
	policySvc service.PtoPolicyService,
	balanceSvc service.PtoBalanceService,
	blackoutSvc service.PtoBlackoutService,
) *PtoHandler {
	return &PtoHandler{
		typeSvc:     typeSvc,
		policySvc:   policySvc,
		balanceSvc:  balanceSvc,
		blackoutSvc: blackoutSvc,
	}
}

func queryBool(c *gin.Context, key string) bool {
	v, _ := strconv.ParseBool(c.Query(key))
	return v
}

// ════════════════════════════════════════════════
// 休假类型
// ════════════════════════════════════════════════

// ListTypes 休假类型列表
// GET /api/pto/types
func (h *PtoHandler) ListTypes(c *gin.Context) {
	types, err := h.typeSvc.List(c.Request.Context(), queryBool(c, "include_inactive"))
	if err != nil {
		h.handlePtoError(c, err)
		return
	}
	response.OK(c, gin.H{"list": types})
}

// GetType 休假类型详情
// GET /api/pto/types/:id
func (h *PtoHandler) GetType(c *gin.Context) {
	id, ok := mustParam(c, "id", "休假类型ID不能为空")
	if !ok {
		return
	}
	t, err := h.typeSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handlePtoError(c, err)
		return
	}
	response.OK(c, t)
}

// GenerateTypeCode 按名称预生成编码
// GET /api/pto/types/generate-code?name=
func (h *PtoHandler) GenerateTypeCode(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		response.BadRequest(c, 10001, "名称不能为空")
		return
	}
	code, err := h.typeSvc.GenerateCode(c.Request.Context(), name)
	if err != nil {
		h.handlePtoError(c, err)
		return
	}
	response.OK(c, gin.H{"code": code})
}

// CreateType 创建休假类型
// POST /api/pto/types
func (h *PtoHandler) CreateType(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.CreatePtoTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	t, err := h.typeSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handlePtoError(c, err)
		return
	}
	response.Created(c, t)
}

// UpdateType 更新休假类型
// PUT /api/pto/types/:id
func (h *PtoHandler) UpdateType(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := mustParam(c, "id", "休假类型ID不能为空")
	if !ok {
		return
	}
	var req dto.UpdatePtoTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	t, err := h.typeSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handlePtoError(c, err)
		return
	}
	response.OK(c, t)
}

// DeleteType 删除休假类型
// DELETE /api/pto/types/:id
func (h *PtoHandler) DeleteType(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := mustParam(c, "id", "休假类型ID不能为空")
	if !ok {
		return
	}
	if err := h.typeSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handlePtoError(c, err)
		return
	}
	response.OK(c, nil)
}

// ════════════════════════════════════════════════
// 休假策略
// ════════════════════════════════════════════════

// ListPolicies 策略列表
// GET /api/pto/policies
func (h *PtoHandler) ListPolicies(c *gin.Context) {
	var req dto.PtoPolicyListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}
	policies, err := h.policySvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handlePtoError(c, err)
		return
	}
	response.OK(c, gin.H{"list": policies})
}

// GetPolicy 策略详情
// GET /api/pto/policies/:id
func (h *PtoHandler) GetPolicy(c *gin.Context) {
	id, ok := mustParam(c, "id", "策略ID不能为空")
	if !ok {
		return
	}
	p, err := h.policySvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handlePtoError(c, err)
		return
	}
	response.OK(c, p)
}

// CreatePolicy 创建策略
// POST /api/pto/policies
func (h *PtoHandler) CreatePolicy(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.CreatePtoPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	p, err := h.policySvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handlePtoError(c, err)
		return
	}
	response.Created(c, p)
}

// UpdatePolicy 更新策略
// PUT /api/pto/policies/:id
func (h *PtoHandler) UpdatePolicy(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := mustParam(c, "id", "策略ID不能为空")
	if !ok {
		return
	}
	var req dto.UpdatePtoPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	p, err := h.policySvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handlePtoError(c, err)
		return
	}
	response.OK(c, p)
}

// DeletePolicy 删除策略
// DELETE /api/pto/policies/:id
func (h *PtoHandler) DeletePolicy(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := mustParam(c, "id", "策略ID不能为空")
	if !ok {
		return
	}
	if err := h.policySvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handlePtoError(c, err)
		return
	}
	response.OK(c, nil)
}

// ════════════════════════════════════════════════
// 余额与流水
// ════════════════════════════════════════════════

// ListBalances 余额查询，缺省为本人当年
// GET /api/pto/balances
func (h *PtoHandler) ListBalances(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.BalanceListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}
	balances, err := h.balanceSvc.GetBalances(c.Request.Context(), &req, caller)
	if err != nil {
		h.handlePtoError(c, err)
		return
	}
	response.OK(c, gin.H{"list": balances})
}

// AdjustBalance 手工调整余额（admin / hr）
// POST /api/pto/balances/adjust
func (h *PtoHandler) AdjustBalance(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.AdjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	balance, err := h.balanceSvc.Adjust(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handlePtoError(c, err)
		return
	}
	response.OK(c, balance)
}

// ListTransactions 流水查询
// GET /api/pto/transactions
func (h *PtoHandler) ListTransactions(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.TransactionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}
	txs, total, err := h.balanceSvc.ListTransactions(c.Request.Context(), &req, caller)
	if err != nil {
		h.handlePtoError(c, err)
		return
	}
	response.OKPage(c, txs, total, req.GetPage(), req.GetPageSize())
}

// Accrue 触发年度发放（admin / hr），重复执行不会重复入账
// POST /api/pto/accruals
func (h *PtoHandler) Accrue(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.AccrueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	result, err := h.balanceSvc.AccrueYear(c.Request.Context(), req.Year, callerID)
	if err != nil {
		h.handlePtoError(c, err)
		return
	}
	response.OK(c, result)
}

// Reconcile 余额对账，fix=true 时按流水重写余额
// POST /api/pto/reconcile
func (h *PtoHandler) Reconcile(c *gin.Context) {
	var req dto.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	rows, err := h.balanceSvc.Reconcile(c.Request.Context(), req.Year, req.Fix)
	if err != nil {
		h.handlePtoError(c, err)
		return
	}
	response.OK(c, gin.H{"list": rows})
}

// ════════════════════════════════════════════════
// 禁休期
// ════════════════════════════════════════════════

// ListBlackouts 禁休期列表
// GET /api/pto/blackouts
func (h *PtoHandler) ListBlackouts(c *gin.Context) {
	blackouts, err := h.blackoutSvc.List(c.Request.Context(), queryBool(c, "include_inactive"))
	if err != nil {
		h.handlePtoError(c, err)
		return
	}
	response.OK(c, gin.H{"list": blackouts})
}

// GetBlackout 禁休期详情
// GET /api/pto/blackouts/:id
func (h *PtoHandler) GetBlackout(c *gin.Context) {
	id, ok := mustParam(c, "id", "禁休期ID不能为空")
	if !ok {
		return
	}
	b, err := h.blackoutSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handlePtoError(c, err)
		return
	}
	response.OK(c, b)
}

// CheckBlackout 提交前预检禁休期冲突
// GET /api/pto/blackouts/check
func (h *PtoHandler) CheckBlackout(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.BlackoutCheckRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}
	result, err := h.blackoutSvc.Preview(c.Request.Context(), &req, caller)
	if err != nil {
		h.handlePtoError(c, err)
		return
	}
	response.OK(c, result)
}

// CreateBlackout 创建禁休期
// POST /api/pto/blackouts
func (h *PtoHandler) CreateBlackout(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.CreatePtoBlackoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	b, err := h.blackoutSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handlePtoError(c, err)
		return
	}
	response.Created(c, b)
}

// UpdateBlackout 更新禁休期
// PUT /api/pto/blackouts/:id
func (h *PtoHandler) UpdateBlackout(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := mustParam(c, "id", "禁休期ID不能为空")
	if !ok {
		return
	}
	var req dto.UpdatePtoBlackoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	b, err := h.blackoutSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handlePtoError(c, err)
		return
	}
	response.OK(c, b)
}

// DeleteBlackout 删除禁休期
// DELETE /api/pto/blackouts/:id
func (h *PtoHandler) DeleteBlackout(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := mustParam(c, "id", "禁休期ID不能为空")
	if !ok {
		return
	}
	if err := h.blackoutSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handlePtoError(c, err)
		return
	}
	response.OK(c, nil)
}

// handlePtoError 休假配置与余额的错误映射（30xxx）
func (h *PtoHandler) handlePtoError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPtoTypeNotFound):
		response.NotFound(c, 30001, "休假类型不存在")
	case errors.Is(err, service.ErrPtoTypeCodeExists):
		response.Conflict(c, 30002, "休假类型编码已存在")
	case errors.Is(err, service.ErrPtoTypeInUse):
		response.Conflict(c, 30003, "休假类型已被策略或申请引用，请改为停用")
	case errors.Is(err, service.ErrPtoTypeInactive):
		response.BadRequest(c, 30004, "休假类型已停用")
	case errors.Is(err, service.ErrPtoTypeCodeFull):
		response.Conflict(c, 30005, "无法生成唯一的休假类型编码")
	case errors.Is(err, service.ErrPolicyNotFound):
		response.NotFound(c, 30101, "休假策略不存在")
	case errors.Is(err, service.ErrPolicyDateRange):
		response.BadRequest(c, 30102, "策略结束日期不能早于生效日期")
	case errors.Is(err, service.ErrPolicyNegativeValue):
		response.BadRequest(c, 30103, "策略额度不能为负数")
	case errors.Is(err, service.ErrLedgerAmount):
		response.BadRequest(c, 30201, "调整额度不能为 0")
	case errors.Is(err, service.ErrInsufficientBalance):
		response.Error(c, http.StatusUnprocessableEntity, 30202, "可用额度不足")
	case errors.Is(err, model.ErrNegativeBucket):
		response.Error(c, http.StatusUnprocessableEntity, 30203, "额度变动后已用或冻结额度为负")
	case errors.Is(err, service.ErrBlackoutNotFound):
		response.NotFound(c, 30301, "禁休期不存在")
	case errors.Is(err, service.ErrBlackoutDateRange), errors.Is(err, service.ErrRequestDateRange):
		response.BadRequest(c, 30302, "结束日期不能早于开始日期")
	case errors.Is(err, service.ErrBlackoutLimit):
		response.BadRequest(c, 30303, "限制并发申请的禁休期必须设置大于 0 的并发上限")
	default:
		handleCommonError(c, err)
	}
}

// [自证通过] internal/api/handler/pto_handler.go
