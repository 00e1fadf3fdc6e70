package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/moimene/time-control-hub-sub002/internal/model"
)

const dateLayout = "2006-01-02"

// ViolationRepository 合规违规数据访问接口
type ViolationRepository interface {
	Create(ctx context.Context, violation *model.Violation) error
	GetByID(ctx context.Context, id string) (*model.Violation, error)
	// GetByKey 按幂等键 (员工, 规则, 日期) 查找；无则返回 nil
	GetByKey(ctx context.Context, employeeID, ruleCode string, date time.Time) (*model.Violation, error)
	// ListOpenCreatedSince 取 since 之后创建且仍 open 的违规（通知调度的输入）
	ListOpenCreatedSince(ctx context.Context, since time.Time) ([]model.Violation, error)
	List(ctx context.Context, companyID, status, employeeID string, offset, limit int) ([]model.Violation, int64, error)
	ListAll(ctx context.Context, companyID, status string) ([]model.Violation, error)
	Update(ctx context.Context, violation *model.Violation) error
}

// violationRepo ViolationRepository 的 GORM 实现
type violationRepo struct {
	db *gorm.DB
}

// NewViolationRepo 创建 ViolationRepository 实例
func NewViolationRepo(db *gorm.DB) ViolationRepository {
	return &violationRepo{db: db}
}

func (r *violationRepo) Create(ctx context.Context, violation *model.Violation) error {
	return r.db.WithContext(ctx).Create(violation).Error
}

func (r *violationRepo) GetByID(ctx context.Context, id string) (*model.Violation, error) {
	var v model.Violation
	err := r.db.WithContext(ctx).
		Where("violation_id = ?", id).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *violationRepo) GetByKey(ctx context.Context, employeeID, ruleCode string, date time.Time) (*model.Violation, error) {
	var v model.Violation
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND rule_code = ? AND violation_date = ?",
			employeeID, ruleCode, date.Format(dateLayout)).
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func (r *violationRepo) ListOpenCreatedSince(ctx context.Context, since time.Time) ([]model.Violation, error) {
	var violations []model.Violation
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at >= ?", model.ViolationStatusOpen, since).
		Order("created_at").
		Find(&violations).Error
	if err != nil {
		return nil, err
	}
	return violations, nil
}

func (r *violationRepo) List(ctx context.Context, companyID, status, employeeID string, offset, limit int) ([]model.Violation, int64, error) {
	var violations []model.Violation
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Violation{}).Where("company_id = ?", companyID)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	if employeeID != "" {
		db = db.Where("employee_id = ?", employeeID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&violations).Error; err != nil {
		return nil, 0, err
	}

	return violations, total, nil
}

func (r *violationRepo) ListAll(ctx context.Context, companyID, status string) ([]model.Violation, error) {
	var violations []model.Violation
	db := r.db.WithContext(ctx).Where("company_id = ?", companyID)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	if err := db.Order("violation_date DESC, created_at DESC").Find(&violations).Error; err != nil {
		return nil, err
	}
	return violations, nil
}

func (r *violationRepo) Update(ctx context.Context, violation *model.Violation) error {
	return r.db.WithContext(ctx).Save(violation).Error
}
