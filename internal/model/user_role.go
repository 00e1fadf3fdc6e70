package model

import "time"

// 角色：admin / super_admin 为升级层级，scheduler 为定时调度器专用
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
	RoleScheduler  = "scheduler"
)

// UserRole 用户角色表 — 对应 user_roles
// 角色成员关系由外部权限模块维护，本服务只在事件升级时读取
type UserRole struct {
	UserRoleID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_role_id"`
	UserID     string    `gorm:"type:uuid;not null"                             json:"user_id"`
	CompanyID  string    `gorm:"type:uuid;not null"                             json:"company_id"`
	Role       string    `gorm:"type:varchar(50);not null"                      json:"role"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (UserRole) TableName() string { return "user_roles" }
