package model

import "time"

// 严重级别
const (
	SeverityInfo     = "info"
	SeverityWarn     = "warn"
	SeverityCritical = "critical"
)

// 违规状态（open 为初始态，其余为人工处理结果；重新打开不在本服务范围内）
const (
	ViolationStatusOpen         = "open"
	ViolationStatusAcknowledged = "acknowledged"
	ViolationStatusResolved     = "resolved"
	ViolationStatusDismissed    = "dismissed"
)

// 规则代码
const (
	RuleMaxDailyHours  = "MAX_DAILY_HOURS"
	RuleMinDailyRest   = "MIN_DAILY_REST"
	RuleMinWeeklyRest  = "MIN_WEEKLY_REST"
	RuleBreakRequired  = "BREAK_REQUIRED"
	RuleOvertimeYTD75  = "OVERTIME_YTD_75"
	RuleOvertimeYTD90  = "OVERTIME_YTD_90"
	RuleOvertimeYTDCap = "OVERTIME_YTD_CAP"
)

// Violation 合规违规表 — 对应 compliance_violations
// 唯一索引 (employee_id, rule_code, violation_date) 保证同键至多一条，
// 服务层的查重是快路径，索引是并发批次下的兜底
type Violation struct {
	ViolationID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"violation_id"`
	CompanyID     string    `gorm:"type:uuid;not null"                             json:"company_id"`
	EmployeeID    string    `gorm:"type:uuid;not null"                             json:"employee_id"`
	RuleCode      string    `gorm:"type:varchar(50);not null"                      json:"rule_code"`
	Severity      string    `gorm:"type:varchar(10);not null"                      json:"severity"`
	ViolationDate time.Time `gorm:"type:date;not null"                             json:"violation_date"`
	Status        string    `gorm:"type:varchar(20);not null;default:'open'"       json:"status"`
	EvidenceJSON  JSONMap   `gorm:"column:evidence_json;type:jsonb;not null"       json:"evidence_json"`
	BaseModel
}

// TableName 指定表名
func (Violation) TableName() string { return "compliance_violations" }
