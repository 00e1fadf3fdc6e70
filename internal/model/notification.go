package model

import "time"

// 通知渠道
const (
	ChannelInApp = "in_app"
	ChannelEmail = "email"
	ChannelBoth  = "both"
)

// 通知类型
const (
	NotificationTypeCriticalViolation = "critical_violation"
	NotificationTypeWarnViolation     = "warn_violation"
	NotificationTypeInfoViolation     = "info_violation"
	NotificationTypeEscalation        = "escalation"
)

// Notification 合规通知表 — 对应 compliance_notifications
// 生命周期：创建（待发送）→ 静默时段改期（至多一次）→ 发送成功 / 重试 / 最终失败。
// SentAt 与 FailedAt 互斥；FailedAt 仅在重试次数耗尽后落终态
type Notification struct {
	NotificationID      string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	CompanyID           string     `gorm:"type:uuid;not null"                             json:"company_id"`
	NotificationType    string     `gorm:"type:varchar(50);not null"                      json:"notification_type"`
	Channel             string     `gorm:"type:varchar(10);not null;default:'email'"      json:"channel"`
	RecipientEmail      *string    `gorm:"type:varchar(255)"                              json:"recipient_email,omitempty"`
	RecipientUserID     *string    `gorm:"type:uuid"                                      json:"recipient_user_id,omitempty"`
	RecipientEmployeeID *string    `gorm:"type:uuid"                                      json:"recipient_employee_id,omitempty"`
	Subject             *string    `gorm:"type:varchar(500)"                              json:"subject,omitempty"`
	BodyJSON            JSONMap    `gorm:"column:body_json;type:jsonb;not null"           json:"body_json"`
	ViolationID         *string    `gorm:"type:uuid"                                      json:"violation_id,omitempty"`
	IncidentID          *string    `gorm:"type:uuid"                                      json:"incident_id,omitempty"`
	ScheduledFor        time.Time  `gorm:"not null"                                       json:"scheduled_for"`
	SentAt              *time.Time `gorm:""                                               json:"sent_at,omitempty"`
	FailedAt            *time.Time `gorm:""                                               json:"failed_at,omitempty"`
	ErrorMessage        *string    `gorm:"type:text"                                      json:"error_message,omitempty"`
	AttemptCount        int        `gorm:"not null;default:0"                             json:"attempt_count"`
	NextRetryAt         *time.Time `gorm:""                                               json:"next_retry_at,omitempty"`
	QuietHoursDelayed   bool       `gorm:"not null;default:false"                         json:"quiet_hours_delayed"`
	BaseModel
}

// TableName 指定表名
func (Notification) TableName() string { return "compliance_notifications" }
