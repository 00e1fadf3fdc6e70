package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// RuleOverride 单条规则的覆盖项
// 字段均为指针：仅覆盖负载中显式出现的属性
type RuleOverride struct {
	Limit    *float64 `json:"limit,omitempty"`
	Severity *string  `json:"severity,omitempty"`
	Name     *string  `json:"name,omitempty"`
}

// RulePayload 规则指派负载：规则代码 → 覆盖项
// 对应 JSONB 列，实现 GORM Scanner/Valuer 接口
type RulePayload map[string]RuleOverride

// Scan 将 JSONB 反序列化为类型化负载。
func (p *RulePayload) Scan(src interface{}) error {
	if src == nil {
		*p = nil
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("RulePayload.Scan: unsupported type %T", src)
	}
	if len(b) == 0 {
		*p = RulePayload{}
		return nil
	}
	return json.Unmarshal(b, p)
}

// Value 将负载序列化为 JSONB 文本。
func (p RulePayload) Value() (driver.Value, error) {
	if p == nil {
		return "{}", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// RuleAssignment 规则指派表 — 对应 rule_assignments
// EmployeeID 为空表示作用于公司全员；priority 越大优先级越高（合并时后覆盖前）
type RuleAssignment struct {
	AssignmentID string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	CompanyID    string      `gorm:"type:uuid;not null"                             json:"company_id"`
	EmployeeID   *string     `gorm:"type:uuid"                                      json:"employee_id,omitempty"`
	Name         string      `gorm:"type:varchar(200);not null"                     json:"name"`
	Priority     int         `gorm:"not null;default:0"                             json:"priority"`
	Active       bool        `gorm:"not null;default:true"                          json:"active"`
	Payload      RulePayload `gorm:"type:jsonb;not null"                            json:"payload"`
	BaseModel
}

// TableName 指定表名
func (RuleAssignment) TableName() string { return "rule_assignments" }
