package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/repository"
)

// ── 工时模块业务错误 ──

var (
	ErrTimesheetNotFound     = errors.New("工时记录不存在")
	ErrTimesheetAlreadyOpen  = errors.New("已有未下班的打卡记录")
	ErrTimesheetNotOpen      = errors.New("当前没有未下班的打卡记录")
	ErrTimesheetTimeRange    = errors.New("下班时间不能早于上班时间")
	ErrTimesheetBreak        = errors.New("休息时长超过工作时长")
	ErrTimesheetTimeFormat   = errors.New("时间格式无效，应为 RFC3339")
	ErrTimesheetLocked       = errors.New("已提交或已审核的工时不可修改")
	ErrTimesheetOpenEntry    = errors.New("本周存在未下班的打卡记录，无法提交")
	ErrTimesheetNothingToDo  = errors.New("没有可提交的工时记录")
	ErrTimesheetStatus       = errors.New("只有已提交的工时可以审核")
	ErrTimesheetExportFailed = errors.New("生成 Excel 文件失败")
)

// 每周标准工时（分钟），超出部分计为加班
const weeklyRegularMinutes = 40 * 60

// TimesheetService 工时业务接口
type TimesheetService interface {
	ClockIn(ctx context.Context, req *dto.ClockInRequest, caller Caller) (*model.TimesheetEntry, error)
	ClockOut(ctx context.Context, req *dto.ClockOutRequest, caller Caller) (*model.TimesheetEntry, error)
	Create(ctx context.Context, req *dto.CreateTimesheetRequest, caller Caller) (*model.TimesheetEntry, error)
	Update(ctx context.Context, id string, req *dto.UpdateTimesheetRequest, caller Caller) (*model.TimesheetEntry, error)
	Delete(ctx context.Context, id string, caller Caller) error
	Get(ctx context.Context, id string, caller Caller) (*model.TimesheetEntry, error)
	List(ctx context.Context, req *dto.TimesheetListRequest, caller Caller) ([]model.TimesheetEntry, int64, error)
	WeeklySummary(ctx context.Context, req *dto.WeekRequest, caller Caller) (*dto.WeeklySummary, error)
	SubmitWeek(ctx context.Context, req *dto.WeekRequest, caller Caller) (int, error)
	Approve(ctx context.Context, req *dto.ReviewTimesheetRequest, caller Caller) (int, error)
	Reject(ctx context.Context, req *dto.ReviewTimesheetRequest, caller Caller) (int, error)
	// Export 导出日期范围内的工时为 Excel
	Export(ctx context.Context, req *dto.ExportTimesheetRequest, caller Caller) (*bytes.Buffer, string, error)
}

type timesheetService struct {
	repo     *repository.Repository
	activity ActivityService
	logger   *zap.Logger
	now      func() time.Time
}

// NewTimesheetService 创建 TimesheetService 实例
func NewTimesheetService(repo *repository.Repository, activity ActivityService, logger *zap.Logger) TimesheetService {
	return &timesheetService{repo: repo, activity: activity, logger: logger, now: time.Now}
}

// ────────────────────── 打卡 ──────────────────────

func (s *timesheetService) ClockIn(ctx context.Context, req *dto.ClockInRequest, caller Caller) (*model.TimesheetEntry, error) {
	if _, err := s.repo.Timesheet.GetOpen(ctx, caller.UserID); err == nil {
		return nil, ErrTimesheetAlreadyOpen
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询未下班记录失败", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, err
	}

	now := s.now()
	e := &model.TimesheetEntry{
		UserID:   caller.UserID,
		WorkDate: model.DateOnly(now),
		ClockIn:  now,
		Notes:    req.Notes,
		Status:   model.TimesheetOpen,
	}
	e.CreatedBy = &caller.UserID
	e.UpdatedBy = &caller.UserID

	if err := s.repo.Timesheet.Create(ctx, e); err != nil {
		s.logger.Error("上班打卡失败", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, err
	}
	return e, nil
}

func (s *timesheetService) ClockOut(ctx context.Context, req *dto.ClockOutRequest, caller Caller) (*model.TimesheetEntry, error) {
	e, err := s.repo.Timesheet.GetOpen(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimesheetNotOpen
		}
		s.logger.Error("查询未下班记录失败", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, err
	}

	now := s.now()
	e.ClockOut = &now
	e.BreakMinutes = req.BreakMinutes
	if req.Notes != "" {
		e.Notes = req.Notes
	}
	if err := validateEntryTimes(e); err != nil {
		return nil, err
	}
	e.Status = model.TimesheetCompleted
	e.UpdatedBy = &caller.UserID

	if err := s.repo.Timesheet.Update(ctx, e); err != nil {
		s.logger.Error("下班打卡失败", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, err
	}
	return e, nil
}

// ────────────────────── Create / Update / Delete ──────────────────────

func (s *timesheetService) Create(ctx context.Context, req *dto.CreateTimesheetRequest, caller Caller) (*model.TimesheetEntry, error) {
	workDate, err := dto.ParseDate(req.WorkDate)
	if err != nil {
		return nil, err
	}
	clockIn, err := parseClock(req.ClockIn)
	if err != nil {
		return nil, err
	}
	clockOut, err := parseClock(req.ClockOut)
	if err != nil {
		return nil, err
	}

	e := &model.TimesheetEntry{
		UserID:       caller.UserID,
		WorkDate:     workDate,
		ClockIn:      clockIn,
		ClockOut:     &clockOut,
		BreakMinutes: req.BreakMinutes,
		Notes:        req.Notes,
		Status:       model.TimesheetCompleted,
	}
	if err := validateEntryTimes(e); err != nil {
		return nil, err
	}
	e.CreatedBy = &caller.UserID
	e.UpdatedBy = &caller.UserID

	if err := s.repo.Timesheet.Create(ctx, e); err != nil {
		s.logger.Error("补录工时失败", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNameTimesheet, Description: "补录工时",
		SubjectType: "timesheet_entry", SubjectID: e.TimesheetEntryID, CauserID: caller.UserID,
		Properties: map[string]interface{}{"work_date": req.WorkDate, "minutes": e.WorkedMinutes()},
	})
	return e, nil
}

func (s *timesheetService) Update(ctx context.Context, id string, req *dto.UpdateTimesheetRequest, caller Caller) (*model.TimesheetEntry, error) {
	e, err := s.getEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.UserID != caller.UserID && !caller.IsPrivileged() {
		return nil, ErrNoPermission
	}
	if !e.Editable() {
		return nil, ErrTimesheetLocked
	}

	if req.ClockIn != nil {
		t, err := parseClock(*req.ClockIn)
		if err != nil {
			return nil, err
		}
		e.ClockIn = t
	}
	if req.ClockOut != nil {
		t, err := parseClock(*req.ClockOut)
		if err != nil {
			return nil, err
		}
		e.ClockOut = &t
	}
	if req.BreakMinutes != nil {
		e.BreakMinutes = *req.BreakMinutes
	}
	if req.Notes != nil {
		e.Notes = *req.Notes
	}
	if err := validateEntryTimes(e); err != nil {
		return nil, err
	}
	// 驳回的记录修改后回到可提交状态
	if e.ClockOut != nil {
		e.Status = model.TimesheetCompleted
	}
	e.UpdatedBy = &caller.UserID
	e.User = nil

	if err := s.repo.Timesheet.Update(ctx, e); err != nil {
		s.logger.Error("更新工时失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return e, nil
}

func (s *timesheetService) Delete(ctx context.Context, id string, caller Caller) error {
	e, err := s.getEntry(ctx, id)
	if err != nil {
		return err
	}
	if e.UserID != caller.UserID && !caller.IsPrivileged() {
		return ErrNoPermission
	}
	if !e.Editable() {
		return ErrTimesheetLocked
	}
	if err := s.repo.Timesheet.Delete(ctx, id, caller.UserID); err != nil {
		s.logger.Error("删除工时失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNameTimesheet, Description: "删除工时",
		SubjectType: "timesheet_entry", SubjectID: id, CauserID: caller.UserID,
	})
	return nil
}

// ────────────────────── Get / List ──────────────────────

func (s *timesheetService) Get(ctx context.Context, id string, caller Caller) (*model.TimesheetEntry, error) {
	e, err := s.getEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, ok, err := canActFor(ctx, s.repo, caller, e.UserID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrNoPermission
	}
	return e, nil
}

func (s *timesheetService) List(ctx context.Context, req *dto.TimesheetListRequest, caller Caller) ([]model.TimesheetEntry, int64, error) {
	from, err := dto.ParseOptionalDate(req.From)
	if err != nil {
		return nil, 0, err
	}
	to, err := dto.ParseOptionalDate(req.To)
	if err != nil {
		return nil, 0, err
	}
	filter := repository.TimesheetFilter{UserID: req.UserID, Status: req.Status, From: from, To: to}
	if err := s.scope(ctx, &filter, caller); err != nil {
		return nil, 0, err
	}

	list, total, err := s.repo.Timesheet.List(ctx, filter, repository.Page{Offset: req.GetOffset(), Limit: req.GetPageSize()})
	if err != nil {
		s.logger.Error("列出工时失败", zap.Error(err))
		return nil, 0, err
	}
	return list, total, nil
}

// ═══════════════════════════════════════════════════════════
// WeeklySummary — 周汇总
// ═══════════════════════════════════════════════════════════
//
// 周一至周日七天逐日累计；超过 40 小时的部分计为加班

func (s *timesheetService) WeeklySummary(ctx context.Context, req *dto.WeekRequest, caller Caller) (*dto.WeeklySummary, error) {
	userID, start, err := s.weekTarget(ctx, req, caller)
	if err != nil {
		return nil, err
	}
	end := start.AddDate(0, 0, 6)

	entries, err := s.weekEntries(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	return summarizeWeek(userID, start, entries), nil
}

func summarizeWeek(userID string, start time.Time, entries []model.TimesheetEntry) *dto.WeeklySummary {
	sum := &dto.WeeklySummary{
		UserID:    userID,
		WeekStart: dto.FormatDate(start),
		WeekEnd:   dto.FormatDate(start.AddDate(0, 0, 6)),
		Days:      make([]dto.DaySummary, 7),
	}
	for i := range sum.Days {
		sum.Days[i].Date = dto.FormatDate(start.AddDate(0, 0, i))
	}

	for i := range entries {
		e := &entries[i]
		idx := int(model.DateOnly(e.WorkDate).Sub(start).Hours() / 24)
		if idx < 0 || idx > 6 {
			continue
		}
		minutes := e.WorkedMinutes()
		sum.Days[idx].Minutes += minutes
		sum.Days[idx].Entries++
		sum.TotalMinutes += minutes

		switch {
		case sum.Status == "":
			sum.Status = e.Status
		case sum.Status != e.Status:
			sum.Status = "mixed"
		}
	}

	sum.RegularMinutes = sum.TotalMinutes
	if sum.TotalMinutes > weeklyRegularMinutes {
		sum.RegularMinutes = weeklyRegularMinutes
		sum.OvertimeMinutes = sum.TotalMinutes - weeklyRegularMinutes
	}
	return sum
}

// ────────────────────── SubmitWeek ──────────────────────

func (s *timesheetService) SubmitWeek(ctx context.Context, req *dto.WeekRequest, caller Caller) (int, error) {
	userID, start, err := s.weekTarget(ctx, req, caller)
	if err != nil {
		return 0, err
	}
	if userID != caller.UserID && !caller.IsPrivileged() {
		return 0, ErrNoPermission
	}

	entries, err := s.weekEntries(ctx, userID, start, start.AddDate(0, 0, 6))
	if err != nil {
		return 0, err
	}

	var toSubmit []*model.TimesheetEntry
	for i := range entries {
		e := &entries[i]
		switch e.Status {
		case model.TimesheetOpen:
			return 0, ErrTimesheetOpenEntry
		case model.TimesheetCompleted, model.TimesheetRejected:
			toSubmit = append(toSubmit, e)
		}
	}
	if len(toSubmit) == 0 {
		return 0, ErrTimesheetNothingToDo
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		for _, e := range toSubmit {
			e.Status = model.TimesheetSubmitted
			e.ReviewComment = ""
			e.UpdatedBy = &caller.UserID
			e.User = nil
			if err := tx.Timesheet.Update(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("提交周工时失败", zap.String("user_id", userID), zap.Error(err))
		return 0, err
	}

	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNameTimesheet, Description: "提交周工时",
		SubjectType: "user", SubjectID: userID, CauserID: caller.UserID,
		Properties: map[string]interface{}{"week_start": dto.FormatDate(start), "entries": len(toSubmit)},
	})
	return len(toSubmit), nil
}

// ────────────────────── Approve / Reject ──────────────────────

func (s *timesheetService) Approve(ctx context.Context, req *dto.ReviewTimesheetRequest, caller Caller) (int, error) {
	return s.review(ctx, req, caller, model.TimesheetApproved)
}

func (s *timesheetService) Reject(ctx context.Context, req *dto.ReviewTimesheetRequest, caller Caller) (int, error) {
	return s.review(ctx, req, caller, model.TimesheetRejected)
}

func (s *timesheetService) review(ctx context.Context, req *dto.ReviewTimesheetRequest, caller Caller, to string) (int, error) {
	entries := make([]*model.TimesheetEntry, 0, len(req.EntryIDs))
	for _, id := range req.EntryIDs {
		e, err := s.getEntry(ctx, id)
		if err != nil {
			return 0, err
		}
		if e.Status != model.TimesheetSubmitted {
			return 0, ErrTimesheetStatus
		}
		if e.UserID == caller.UserID && caller.Role != model.RoleAdmin {
			return 0, ErrSelfApproval
		}
		if !caller.IsPrivileged() {
			owner, ok, err := canActFor(ctx, s.repo, caller, e.UserID)
			if err != nil {
				return 0, err
			}
			if !ok || !isManagerOf(caller, owner) {
				return 0, ErrNoPermission
			}
		}
		entries = append(entries, e)
	}

	now := s.now()
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		for _, e := range entries {
			e.Status = to
			e.ReviewedBy = &caller.UserID
			e.ReviewedAt = &now
			e.ReviewComment = req.Comment
			e.UpdatedBy = &caller.UserID
			if err := tx.Timesheet.Update(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("审核工时失败", zap.String("to", to), zap.Error(err))
		return 0, err
	}

	desc := "审核通过工时"
	if to == model.TimesheetRejected {
		desc = "驳回工时"
	}
	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNameTimesheet, Description: desc,
		SubjectType: "timesheet_entry", CauserID: caller.UserID,
		Properties: map[string]interface{}{"entry_ids": req.EntryIDs, "comment": req.Comment},
	})
	return len(entries), nil
}

// ═══════════════════════════════════════════════════════════
// Export — 导出工时为 Excel
// ═══════════════════════════════════════════════════════════
//
// 列：员工 | 日期 | 上班 | 下班 | 休息(分) | 工时(h) | 状态 | 备注
// 末行为合计

func (s *timesheetService) Export(ctx context.Context, req *dto.ExportTimesheetRequest, caller Caller) (*bytes.Buffer, string, error) {
	from, err := dto.ParseDate(req.From)
	if err != nil {
		return nil, "", err
	}
	to, err := dto.ParseDate(req.To)
	if err != nil {
		return nil, "", err
	}
	if to.Before(from) {
		return nil, "", ErrRequestDateRange
	}

	filter := repository.TimesheetFilter{UserID: req.UserID, From: &from, To: &to}
	if err := s.scope(ctx, &filter, caller); err != nil {
		return nil, "", err
	}
	entries, _, err := s.repo.Timesheet.List(ctx, filter, repository.Page{})
	if err != nil {
		s.logger.Error("查询导出工时失败", zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "工时"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"员工", "日期", "上班", "下班", "休息(分)", "工时(h)", "状态", "备注"}
	widths := []float64{20, 12, 10, 10, 10, 10, 12, 40}
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("工时明细 %s 至 %s", req.From, req.To))
	f.MergeCell(sheetName, "A1", cell(colName(len(headers)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), row), h)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell(colName(len(headers)-1), row), headerStyle)

	// 数据行：按员工、日期升序
	sortEntries(entries)
	totalMinutes := 0
	row = 3
	for i := range entries {
		e := &entries[i]
		name := e.UserID
		if e.User != nil {
			name = e.User.DisplayName
		}
		clockOut := "-"
		if e.ClockOut != nil {
			clockOut = e.ClockOut.Format("15:04")
		}
		minutes := e.WorkedMinutes()
		totalMinutes += minutes

		f.SetCellValue(sheetName, cell("A", row), name)
		f.SetCellValue(sheetName, cell("B", row), dto.FormatDate(e.WorkDate))
		f.SetCellValue(sheetName, cell("C", row), e.ClockIn.Format("15:04"))
		f.SetCellValue(sheetName, cell("D", row), clockOut)
		f.SetCellValue(sheetName, cell("E", row), e.BreakMinutes)
		f.SetCellValue(sheetName, cell("F", row), hours(minutes))
		f.SetCellValue(sheetName, cell("G", row), e.Status)
		f.SetCellValue(sheetName, cell("H", row), e.Notes)
		row++
	}

	f.SetCellValue(sheetName, cell("A", row), "合计")
	f.SetCellValue(sheetName, cell("F", row), hours(totalMinutes))

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrTimesheetExportFailed
	}

	filename := fmt.Sprintf("工时_%s_%s.xlsx", req.From, req.To)
	return buf, filename, nil
}

// ── 内部辅助方法 ──

func (s *timesheetService) getEntry(ctx context.Context, id string) (*model.TimesheetEntry, error) {
	e, err := s.repo.Timesheet.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimesheetNotFound
		}
		s.logger.Error("查询工时失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return e, nil
}

// scope 按调用方角色收窄查询范围
//   - admin / hr：不限
//   - manager：本人与直属下属
//   - employee：仅本人
func (s *timesheetService) scope(ctx context.Context, filter *repository.TimesheetFilter, caller Caller) error {
	if caller.IsPrivileged() {
		return nil
	}
	if caller.Role != model.RoleManager {
		if filter.UserID != "" && filter.UserID != caller.UserID {
			return ErrNoPermission
		}
		filter.UserID = caller.UserID
		return nil
	}

	ids, err := reportIDs(ctx, s.repo, caller.UserID)
	if err != nil {
		return err
	}
	ids = append(ids, caller.UserID)
	if filter.UserID != "" && !containsString(ids, filter.UserID) {
		return ErrNoPermission
	}
	filter.UserIDs = ids
	return nil
}

// weekTarget 解析周汇总的目标员工与周一日期
func (s *timesheetService) weekTarget(ctx context.Context, req *dto.WeekRequest, caller Caller) (string, time.Time, error) {
	userID := req.UserID
	if userID == "" {
		userID = caller.UserID
	}
	if userID != caller.UserID {
		if _, ok, err := canActFor(ctx, s.repo, caller, userID); err != nil {
			return "", time.Time{}, err
		} else if !ok {
			return "", time.Time{}, ErrNoPermission
		}
	}

	day := model.DateOnly(s.now())
	if req.WeekStart != "" {
		d, err := dto.ParseDate(req.WeekStart)
		if err != nil {
			return "", time.Time{}, err
		}
		day = d
	}
	return userID, weekMonday(day), nil
}

func (s *timesheetService) weekEntries(ctx context.Context, userID string, start, end time.Time) ([]model.TimesheetEntry, error) {
	entries, _, err := s.repo.Timesheet.List(ctx, repository.TimesheetFilter{
		UserID: userID,
		From:   &start,
		To:     &end,
	}, repository.Page{})
	if err != nil {
		s.logger.Error("查询周工时失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return entries, nil
}

func validateEntryTimes(e *model.TimesheetEntry) error {
	if e.ClockOut == nil {
		return nil
	}
	if e.ClockOut.Before(e.ClockIn) {
		return ErrTimesheetTimeRange
	}
	if int(e.ClockOut.Sub(e.ClockIn).Minutes()) < e.BreakMinutes {
		return ErrTimesheetBreak
	}
	return nil
}

func parseClock(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, ErrTimesheetTimeFormat
	}
	return t, nil
}

// weekMonday 返回 day 所在 ISO 周的周一
func weekMonday(day time.Time) time.Time {
	day = model.DateOnly(day)
	return day.AddDate(0, 0, 1-model.ISOWeekday(day))
}

func hours(minutes int) float64 {
	return float64(minutes*100/60) / 100
}

func sortEntries(entries []model.TimesheetEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := &entries[i], &entries[j]
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		if !a.WorkDate.Equal(b.WorkDate) {
			return a.WorkDate.Before(b.WorkDate)
		}
		return a.ClockIn.Before(b.ClockIn)
	})
}

// ── Excel 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
