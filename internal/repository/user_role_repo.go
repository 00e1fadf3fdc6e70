package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/moimene/time-control-hub-sub002/internal/model"
)

// UserRoleRepository 用户角色数据访问接口（对本服务只读）
type UserRoleRepository interface {
	// ListUserIDsByRoles 取公司内持有任一指定角色的用户 ID（去重）
	ListUserIDsByRoles(ctx context.Context, companyID string, roles []string) ([]string, error)
}

// userRoleRepo UserRoleRepository 的 GORM 实现
type userRoleRepo struct {
	db *gorm.DB
}

// NewUserRoleRepo 创建 UserRoleRepository 实例
func NewUserRoleRepo(db *gorm.DB) UserRoleRepository {
	return &userRoleRepo{db: db}
}

func (r *userRoleRepo) ListUserIDsByRoles(ctx context.Context, companyID string, roles []string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.UserRole{}).
		Where("company_id = ? AND role IN ?", companyID, roles).
		Distinct("user_id").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
