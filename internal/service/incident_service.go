package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/moimene/time-control-hub-sub002/internal/dto"
	"github.com/moimene/time-control-hub-sub002/internal/model"
	"github.com/moimene/time-control-hub-sub002/internal/repository"
)

// ── 事件模块业务错误 ──

var (
	ErrIncidentNotFound    = errors.New("合规事件不存在")
	ErrIncidentStatusFinal = errors.New("合规事件已是终态，不允许再流转")
)

// IncidentService 合规事件查询与人工关闭业务接口
type IncidentService interface {
	List(ctx context.Context, companyID, status string, page, pageSize int) ([]dto.IncidentResponse, int64, error)
	UpdateStatus(ctx context.Context, companyID, incidentID, status string) (*dto.IncidentResponse, error)
}

type incidentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewIncidentService 创建 IncidentService 实例
func NewIncidentService(repo *repository.Repository, logger *zap.Logger) IncidentService {
	return &incidentService{repo: repo, logger: logger}
}

func (s *incidentService) List(ctx context.Context, companyID, status string, page, pageSize int) ([]dto.IncidentResponse, int64, error) {
	offset := (page - 1) * pageSize
	incidents, total, err := s.repo.Incident.List(ctx, companyID, status, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}

	out := make([]dto.IncidentResponse, 0, len(incidents))
	for i := range incidents {
		out = append(out, toIncidentResponse(&incidents[i]))
	}
	return out, total, nil
}

func (s *incidentService) UpdateStatus(ctx context.Context, companyID, incidentID, status string) (*dto.IncidentResponse, error) {
	incident, err := s.repo.Incident.GetByID(ctx, incidentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIncidentNotFound
		}
		return nil, err
	}
	if incident.CompanyID != companyID {
		return nil, ErrIncidentNotFound
	}
	if incident.Status == model.IncidentStatusResolved || incident.Status == model.IncidentStatusClosed {
		return nil, ErrIncidentStatusFinal
	}

	incident.Status = status
	if err := s.repo.Incident.Update(ctx, incident); err != nil {
		return nil, err
	}

	s.logger.Info("合规事件状态已流转",
		zap.String("incident_id", incident.IncidentID),
		zap.String("status", status))

	resp := toIncidentResponse(incident)
	return &resp, nil
}

func toIncidentResponse(incident *model.Incident) dto.IncidentResponse {
	resp := dto.IncidentResponse{
		ID:          incident.IncidentID,
		ViolationID: incident.ViolationID,
		Title:       incident.Title,
		Description: incident.Description,
		Severity:    incident.Severity,
		Status:      incident.Status,
		CreatedAt:   incident.CreatedAt.Format(time.RFC3339),
	}
	if incident.SLADueAt != nil {
		resp.SLADueAt = incident.SLADueAt.Format(time.RFC3339)
	}
	if incident.AcknowledgedAt != nil {
		resp.AcknowledgedAt = incident.AcknowledgedAt.Format(time.RFC3339)
	}
	return resp
}
