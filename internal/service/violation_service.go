package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/moimene/time-control-hub-sub002/internal/dto"
	"github.com/moimene/time-control-hub-sub002/internal/model"
	"github.com/moimene/time-control-hub-sub002/internal/repository"
)

// ── 违规模块业务错误 ──

var (
	ErrViolationNotFound    = errors.New("违规记录不存在")
	ErrViolationStatusFinal = errors.New("违规已是终态，不允许再流转")
)

// ViolationService 违规查询与状态流转业务接口
type ViolationService interface {
	List(ctx context.Context, companyID string, query *dto.ListViolationsQuery) ([]dto.ViolationResponse, int64, error)
	UpdateStatus(ctx context.Context, companyID, violationID, status string) (*dto.ViolationResponse, error)
}

type violationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewViolationService 创建 ViolationService 实例
func NewViolationService(repo *repository.Repository, logger *zap.Logger) ViolationService {
	return &violationService{repo: repo, logger: logger}
}

func (s *violationService) List(ctx context.Context, companyID string, query *dto.ListViolationsQuery) ([]dto.ViolationResponse, int64, error) {
	offset := (query.Page - 1) * query.PageSize
	violations, total, err := s.repo.Violation.List(ctx, companyID, query.Status, query.EmployeeID, offset, query.PageSize)
	if err != nil {
		return nil, 0, err
	}

	out := make([]dto.ViolationResponse, 0, len(violations))
	for i := range violations {
		out = append(out, toViolationResponse(&violations[i]))
	}
	return out, total, nil
}

// UpdateStatus 人工流转违规状态
// open/acknowledged 可继续流转；resolved/dismissed 为终态
func (s *violationService) UpdateStatus(ctx context.Context, companyID, violationID, status string) (*dto.ViolationResponse, error) {
	v, err := s.repo.Violation.GetByID(ctx, violationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrViolationNotFound
		}
		return nil, err
	}
	if v.CompanyID != companyID {
		return nil, ErrViolationNotFound
	}
	if v.Status == model.ViolationStatusResolved || v.Status == model.ViolationStatusDismissed {
		return nil, ErrViolationStatusFinal
	}

	v.Status = status
	if err := s.repo.Violation.Update(ctx, v); err != nil {
		return nil, err
	}

	s.logger.Info("违规状态已流转",
		zap.String("violation_id", v.ViolationID),
		zap.String("status", status))

	resp := toViolationResponse(v)
	return &resp, nil
}
