package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/repository"
)

// 日志分类
const (
	LogNamePTO        = "pto"
	LogNameUser       = "user"
	LogNamePermission = "permission"
	LogNameWiki       = "wiki"
	LogNamePart       = "part"
	LogNameTimesheet  = "timesheet"
)

// ActivityEntry 一条待记录的操作
type ActivityEntry struct {
	LogName     string
	Description string
	SubjectType string
	SubjectID   string
	CauserID    string
	Properties  map[string]interface{}
}

// ActivityService 操作日志
type ActivityService interface {
	// Record 记录操作日志；失败只记录告警，不影响业务
	Record(ctx context.Context, entry ActivityEntry)
	List(ctx context.Context, req *dto.ActivityListRequest) ([]dto.ActivityResponse, int64, error)
}

type activityService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewActivityService 创建 ActivityService 实例
func NewActivityService(repo *repository.Repository, logger *zap.Logger) ActivityService {
	return &activityService{repo: repo, logger: logger}
}

func (s *activityService) Record(ctx context.Context, entry ActivityEntry) {
	props := "{}"
	if len(entry.Properties) > 0 {
		raw, err := json.Marshal(entry.Properties)
		if err != nil {
			s.logger.Warn("序列化操作日志属性失败", zap.String("log_name", entry.LogName), zap.Error(err))
		} else {
			props = string(raw)
		}
	}

	log := &model.ActivityLog{
		LogName:     entry.LogName,
		Description: entry.Description,
		SubjectType: entry.SubjectType,
		SubjectID:   entry.SubjectID,
		Properties:  props,
	}
	if entry.CauserID != "" {
		causer := entry.CauserID
		log.CauserID = &causer
	}

	if err := s.repo.Activity.Create(ctx, log); err != nil {
		s.logger.Warn("记录操作日志失败",
			zap.String("log_name", entry.LogName),
			zap.String("subject_id", entry.SubjectID),
			zap.Error(err))
	}
}

func (s *activityService) List(ctx context.Context, req *dto.ActivityListRequest) ([]dto.ActivityResponse, int64, error) {
	filter := repository.ActivityLogFilter{
		LogName:     req.LogName,
		SubjectType: req.SubjectType,
		SubjectID:   req.SubjectID,
		CauserID:    req.CauserID,
	}
	logs, total, err := s.repo.Activity.List(ctx, filter, repository.Page{Offset: req.GetOffset(), Limit: req.GetPageSize()})
	if err != nil {
		s.logger.Error("查询操作日志失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ActivityResponse, 0, len(logs))
	for _, l := range logs {
		props := json.RawMessage(l.Properties)
		if !json.Valid(props) {
			props = json.RawMessage("{}")
		}
		result = append(result, dto.ActivityResponse{
			ID:          l.ActivityLogID,
			LogName:     l.LogName,
			Description: l.Description,
			SubjectType: l.SubjectType,
			SubjectID:   l.SubjectID,
			CauserID:    l.CauserID,
			Properties:  props,
			CreatedAt:   l.CreatedAt,
		})
	}
	return result, total, nil
}
