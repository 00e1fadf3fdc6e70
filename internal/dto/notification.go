package dto

import "github.com/moimene/time-control-hub-sub002/internal/model"

// ── 通知派发模块 ──

// DispatchResults 单次派发各环节计数
type DispatchResults struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
	Delayed   int `json:"delayed"`
	Failed    int `json:"failed"`
	Escalated int `json:"escalated"`
}

// DispatchResponse 通知派发结果
type DispatchResponse struct {
	Success                 bool            `json:"success"`
	Timestamp               string          `json:"timestamp"`
	QuietHours              bool            `json:"quiet_hours"`
	Results                 DispatchResults `json:"results"`
	NewNotificationsCreated int             `json:"new_notifications_created"`
}

// NotificationResponse 通知信息响应
type NotificationResponse struct {
	ID                string        `json:"id"`
	NotificationType  string        `json:"notification_type"`
	Channel           string        `json:"channel"`
	RecipientEmail    string        `json:"recipient_email,omitempty"`
	Subject           string        `json:"subject,omitempty"`
	Body              model.JSONMap `json:"body"`
	ViolationID       string        `json:"violation_id,omitempty"`
	IncidentID        string        `json:"incident_id,omitempty"`
	ScheduledFor      string        `json:"scheduled_for"`
	SentAt            string        `json:"sent_at,omitempty"`
	FailedAt          string        `json:"failed_at,omitempty"`
	ErrorMessage      string        `json:"error_message,omitempty"`
	AttemptCount      int           `json:"attempt_count"`
	QuietHoursDelayed bool          `json:"quiet_hours_delayed"`
}

// ── 事件模块 ──

// IncidentResponse 合规事件响应
type IncidentResponse struct {
	ID             string `json:"id"`
	ViolationID    string `json:"violation_id"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	Severity       string `json:"severity"`
	Status         string `json:"status"`
	SLADueAt       string `json:"sla_due_at,omitempty"`
	AcknowledgedAt string `json:"acknowledged_at,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// UpdateIncidentStatusRequest 事件状态流转请求（人工 resolved/closed）
type UpdateIncidentStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=resolved closed"`
}
