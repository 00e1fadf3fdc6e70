package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/moimene/time-control-hub-sub002/internal/model"
)

// IncidentRepository 合规事件数据访问接口
type IncidentRepository interface {
	Create(ctx context.Context, incident *model.Incident) error
	GetByID(ctx context.Context, id string) (*model.Incident, error)
	// ExistsForViolation 该违规是否已开过事件（每条 critical 违规至多一个）
	ExistsForViolation(ctx context.Context, violationID string) (bool, error)
	// ListActive 取 open / acknowledged 状态的事件，最早创建的在前
	ListActive(ctx context.Context) ([]model.Incident, error)
	List(ctx context.Context, companyID, status string, offset, limit int) ([]model.Incident, int64, error)
	Update(ctx context.Context, incident *model.Incident) error
}

// incidentRepo IncidentRepository 的 GORM 实现
type incidentRepo struct {
	db *gorm.DB
}

// NewIncidentRepo 创建 IncidentRepository 实例
func NewIncidentRepo(db *gorm.DB) IncidentRepository {
	return &incidentRepo{db: db}
}

func (r *incidentRepo) Create(ctx context.Context, incident *model.Incident) error {
	return r.db.WithContext(ctx).Create(incident).Error
}

func (r *incidentRepo) GetByID(ctx context.Context, id string) (*model.Incident, error) {
	var incident model.Incident
	err := r.db.WithContext(ctx).
		Preload("Violation").
		Where("incident_id = ?", id).
		First(&incident).Error
	if err != nil {
		return nil, err
	}
	return &incident, nil
}

func (r *incidentRepo) ExistsForViolation(ctx context.Context, violationID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Incident{}).
		Where("violation_id = ?", violationID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *incidentRepo) ListActive(ctx context.Context) ([]model.Incident, error) {
	var incidents []model.Incident
	err := r.db.WithContext(ctx).
		Preload("Violation").
		Where("status IN ?", []string{model.IncidentStatusOpen, model.IncidentStatusAcknowledged}).
		Order("created_at").
		Find(&incidents).Error
	if err != nil {
		return nil, err
	}
	return incidents, nil
}

func (r *incidentRepo) List(ctx context.Context, companyID, status string, offset, limit int) ([]model.Incident, int64, error) {
	var incidents []model.Incident
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Incident{}).Where("company_id = ?", companyID)
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&incidents).Error; err != nil {
		return nil, 0, err
	}

	return incidents, total, nil
}

func (r *incidentRepo) Update(ctx context.Context, incident *model.Incident) error {
	return r.db.WithContext(ctx).Save(incident).Error
}
