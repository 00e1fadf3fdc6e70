package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Employee       EmployeeRepository
	TimeEvent      TimeEventRepository
	RuleAssignment RuleAssignmentRepository
	Violation      ViolationRepository
	Notification   NotificationRepository
	Incident       IncidentRepository
	UserRole       UserRoleRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Employee:       NewEmployeeRepo(db),
		TimeEvent:      NewTimeEventRepo(db),
		RuleAssignment: NewRuleAssignmentRepo(db),
		Violation:      NewViolationRepo(db),
		Notification:   NewNotificationRepo(db),
		Incident:       NewIncidentRepo(db),
		UserRole:       NewUserRoleRepo(db),
	}
}
