package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/service"
	"github.com/Digitalhour/ACSCoreOS-sub013/pkg/response"
)

const (
	mimeXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeCalendar = "text/calendar; charset=utf-8"
)

// ExportHandler 文件导出 HTTP 处理器（工时 Excel、休假日历）
type ExportHandler struct {
	timesheetSvc service.TimesheetService
	requestSvc   service.PtoRequestService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(timesheetSvc service.TimesheetService, requestSvc service.PtoRequestService) *ExportHandler {
	return &ExportHandler{timesheetSvc: timesheetSvc, requestSvc: requestSvc}
}

// ExportTimesheets 导出工时 Excel
// GET /api/timesheet/export?from=&to=&user_id=
func (h *ExportHandler) ExportTimesheets(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.ExportTimesheetRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	buf, filename, err := h.timesheetSvc.Export(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	attachment(c, filename, mimeXLSX, buf.Bytes())
}

// ExportCalendar 导出 iCalendar 日历（已通过的休假与禁休期）
// GET /api/pto/calendar?from=&to=&department_id=&mine=
func (h *ExportHandler) ExportCalendar(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CalendarRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	data, err := h.requestSvc.Calendar(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	attachment(c, fmt.Sprintf("pto_%s_%s.ics", req.From, req.To), mimeCalendar, data)
}

// attachment 写出下载响应
func attachment(c *gin.Context, filename, contentType string, data []byte) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, contentType, data)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRequestDateRange):
		response.BadRequest(c, 16101, "结束日期不能早于开始日期")
	case errors.Is(err, service.ErrTimesheetExportFailed):
		response.InternalError(c)
	default:
		handleCommonError(c, err)
	}
}
