package model

import "time"

// 事件状态机：open --(超过升级延迟)--> acknowledged --(人工)--> resolved | closed
const (
	IncidentStatusOpen         = "open"
	IncidentStatusAcknowledged = "acknowledged"
	IncidentStatusResolved     = "resolved"
	IncidentStatusClosed       = "closed"
)

// Incident 合规事件表 — 对应 compliance_incidents
// 每条 critical 违规至多开一个事件；升级引擎将其置为 acknowledged
// 仅用于抑制重复升级，不代表有人实际响应
type Incident struct {
	IncidentID     string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"incident_id"`
	CompanyID      string     `gorm:"type:uuid;not null"                             json:"company_id"`
	ViolationID    string     `gorm:"type:uuid;not null"                             json:"violation_id"`
	Title          string     `gorm:"type:varchar(500);not null"                     json:"title"`
	Description    string     `gorm:"type:text"                                      json:"description"`
	Severity       string     `gorm:"type:varchar(10);not null"                      json:"severity"`
	Status         string     `gorm:"type:varchar(20);not null;default:'open'"       json:"status"`
	SLADueAt       *time.Time `gorm:"column:sla_due_at"                              json:"sla_due_at,omitempty"`
	AcknowledgedAt *time.Time `gorm:""                                               json:"acknowledged_at,omitempty"`
	BaseModel

	// 关联
	Violation *Violation `gorm:"foreignKey:ViolationID;references:ViolationID" json:"violation,omitempty"`
}

// TableName 指定表名
func (Incident) TableName() string { return "compliance_incidents" }
