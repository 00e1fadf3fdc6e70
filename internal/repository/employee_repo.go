package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/moimene/time-control-hub-sub002/internal/model"
)

// EmployeeRepository 员工数据访问接口（花名册对本服务只读）
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (*model.Employee, error)
	GetByCode(ctx context.Context, companyID, employeeCode string) (*model.Employee, error)
	GetByUserID(ctx context.Context, userID string) (*model.Employee, error)
	ListActiveByCompany(ctx context.Context, companyID string) ([]model.Employee, error)
	ListCompanyIDs(ctx context.Context) ([]string, error)
}

// employeeRepo EmployeeRepository 的 GORM 实现
type employeeRepo struct {
	db *gorm.DB
}

// NewEmployeeRepo 创建 EmployeeRepository 实例
func NewEmployeeRepo(db *gorm.DB) EmployeeRepository {
	return &employeeRepo{db: db}
}

func (r *employeeRepo) GetByID(ctx context.Context, id string) (*model.Employee, error) {
	var emp model.Employee
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", id).
		First(&emp).Error
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *employeeRepo) GetByCode(ctx context.Context, companyID, employeeCode string) (*model.Employee, error) {
	var emp model.Employee
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND employee_code = ?", companyID, employeeCode).
		First(&emp).Error
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *employeeRepo) GetByUserID(ctx context.Context, userID string) (*model.Employee, error) {
	var emp model.Employee
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&emp).Error
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *employeeRepo) ListActiveByCompany(ctx context.Context, companyID string) ([]model.Employee, error) {
	var employees []model.Employee
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND status = ?", companyID, model.EmployeeStatusActive).
		Order("employee_code").
		Find(&employees).Error
	if err != nil {
		return nil, err
	}
	return employees, nil
}

func (r *employeeRepo) ListCompanyIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Employee{}).
		Where("status = ?", model.EmployeeStatusActive).
		Distinct("company_id").
		Pluck("company_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
