package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/service"
	"github.com/Digitalhour/ACSCoreOS-sub013/pkg/response"
)

// TimesheetHandler 工时模块 HTTP 处理器
type TimesheetHandler struct {
	svc service.TimesheetService
}

// NewTimesheetHandler 创建 TimesheetHandler
func NewTimesheetHandler(svc service.TimesheetService) *TimesheetHandler {
	return &TimesheetHandler{svc: svc}
}

// ClockIn 上班打卡
// POST /api/timesheet/clock-in
func (h *TimesheetHandler) ClockIn(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.ClockInRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, err)
			return
		}
	}

	entry, err := h.svc.ClockIn(c.Request.Context(), &req, caller)
	if err != nil {
		handleTimesheetError(c, err)
		return
	}

	response.Created(c, entry)
}

// ClockOut 下班打卡
// POST /api/timesheet/clock-out
func (h *TimesheetHandler) ClockOut(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.ClockOutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, err)
			return
		}
	}

	entry, err := h.svc.ClockOut(c.Request.Context(), &req, caller)
	if err != nil {
		handleTimesheetError(c, err)
		return
	}

	response.OK(c, entry)
}

// ListEntries 工时列表
// GET /api/timesheet/entries
func (h *TimesheetHandler) ListEntries(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.TimesheetListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	entries, total, err := h.svc.List(c.Request.Context(), &req, caller)
	if err != nil {
		handleTimesheetError(c, err)
		return
	}

	response.OKPage(c, entries, total, req.GetPage(), req.GetPageSize())
}

// GetEntry 工时详情
// GET /api/timesheet/entries/:id
func (h *TimesheetHandler) GetEntry(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := mustParam(c, "id", "工时记录ID不能为空")
	if !ok {
		return
	}

	entry, err := h.svc.Get(c.Request.Context(), id, caller)
	if err != nil {
		handleTimesheetError(c, err)
		return
	}

	response.OK(c, entry)
}

// CreateEntry 手工补录
// POST /api/timesheet/entries
func (h *TimesheetHandler) CreateEntry(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CreateTimesheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	entry, err := h.svc.Create(c.Request.Context(), &req, caller)
	if err != nil {
		handleTimesheetError(c, err)
		return
	}

	response.Created(c, entry)
}

// UpdateEntry 修改工时
// PUT /api/timesheet/entries/:id
func (h *TimesheetHandler) UpdateEntry(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := mustParam(c, "id", "工时记录ID不能为空")
	if !ok {
		return
	}

	var req dto.UpdateTimesheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	entry, err := h.svc.Update(c.Request.Context(), id, &req, caller)
	if err != nil {
		handleTimesheetError(c, err)
		return
	}

	response.OK(c, entry)
}

// DeleteEntry 删除工时
// DELETE /api/timesheet/entries/:id
func (h *TimesheetHandler) DeleteEntry(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := mustParam(c, "id", "工时记录ID不能为空")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id, caller); err != nil {
		handleTimesheetError(c, err)
		return
	}

	response.OK(c, nil)
}

// WeeklySummary 周汇总
// GET /api/timesheet/week
func (h *TimesheetHandler) WeeklySummary(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.WeekRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	summary, err := h.svc.WeeklySummary(c.Request.Context(), &req, caller)
	if err != nil {
		handleTimesheetError(c, err)
		return
	}

	response.OK(c, summary)
}

// SubmitWeek 提交整周工时
// POST /api/timesheet/week/submit
func (h *TimesheetHandler) SubmitWeek(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.WeekRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, err)
			return
		}
	}

	n, err := h.svc.SubmitWeek(c.Request.Context(), &req, caller)
	if err != nil {
		handleTimesheetError(c, err)
		return
	}

	response.OK(c, gin.H{"submitted": n})
}

// Approve 审核通过
// POST /api/timesheet/approve
func (h *TimesheetHandler) Approve(c *gin.Context) {
	h.review(c, h.svc.Approve, "approved")
}

// Reject 审核驳回
// POST /api/timesheet/reject
func (h *TimesheetHandler) Reject(c *gin.Context) {
	h.review(c, h.svc.Reject, "rejected")
}

type reviewFunc func(ctx context.Context, req *dto.ReviewTimesheetRequest, caller service.Caller) (int, error)

func (h *TimesheetHandler) review(c *gin.Context, fn reviewFunc, status string) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.ReviewTimesheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	n, err := fn(c.Request.Context(), &req, caller)
	if err != nil {
		handleTimesheetError(c, err)
		return
	}

	response.OK(c, gin.H{status: n})
}

func handleTimesheetError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTimesheetNotFound):
		response.NotFound(c, 40001, "工时记录不存在")
	case errors.Is(err, service.ErrTimesheetAlreadyOpen):
		response.Conflict(c, 40002, "已有未下班的打卡记录")
	case errors.Is(err, service.ErrTimesheetNotOpen):
		response.BadRequest(c, 40003, "当前没有未下班的打卡记录")
	case errors.Is(err, service.ErrTimesheetTimeRange):
		response.BadRequest(c, 40004, "下班时间不能早于上班时间")
	case errors.Is(err, service.ErrTimesheetBreak):
		response.BadRequest(c, 40005, "休息时长超过工作时长")
	case errors.Is(err, service.ErrTimesheetTimeFormat):
		response.BadRequest(c, 40006, "时间格式无效，应为 RFC3339")
	case errors.Is(err, service.ErrTimesheetLocked):
		response.Conflict(c, 40007, "已提交或已审核的工时不可修改")
	case errors.Is(err, service.ErrTimesheetOpenEntry):
		response.BadRequest(c, 40008, "本周存在未下班的打卡记录，无法提交")
	case errors.Is(err, service.ErrTimesheetNothingToDo):
		response.BadRequest(c, 40009, "没有可提交的工时记录")
	case errors.Is(err, service.ErrTimesheetStatus):
		response.Conflict(c, 40010, "只有已提交的工时可以审核")
	case errors.Is(err, service.ErrSelfApproval):
		response.Forbidden(c, 40011, "不能审核自己的工时")
	case errors.Is(err, service.ErrRequestDateRange):
		response.BadRequest(c, 40012, "结束日期不能早于开始日期")
	default:
		handleCommonError(c, err)
	}
}
