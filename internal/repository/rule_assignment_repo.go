package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/moimene/time-control-hub-sub002/internal/model"
)

// RuleAssignmentRepository 规则指派数据访问接口（对本服务只读）
type RuleAssignmentRepository interface {
	// ListActiveForEmployee 取作用于该员工的全部生效指派：
	// 员工专属的与公司全员的，按 priority 升序（合并时高优先级后覆盖）
	ListActiveForEmployee(ctx context.Context, companyID, employeeID string) ([]model.RuleAssignment, error)
}

// ruleAssignmentRepo RuleAssignmentRepository 的 GORM 实现
type ruleAssignmentRepo struct {
	db *gorm.DB
}

// NewRuleAssignmentRepo 创建 RuleAssignmentRepository 实例
func NewRuleAssignmentRepo(db *gorm.DB) RuleAssignmentRepository {
	return &ruleAssignmentRepo{db: db}
}

func (r *ruleAssignmentRepo) ListActiveForEmployee(ctx context.Context, companyID, employeeID string) ([]model.RuleAssignment, error) {
	var assignments []model.RuleAssignment
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND active = TRUE AND (employee_id IS NULL OR employee_id = ?)", companyID, employeeID).
		Order("priority").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}
