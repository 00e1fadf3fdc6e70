package model

import "time"

// 打卡事件类型
const (
	EventTypeEntry = "entry"
	EventTypeExit  = "exit"
)

// TimeEvent 打卡事件表 — 对应 time_events
// 事件一经记录不可变更；Timestamp 为绝对时刻（UTC），LocalTimestamp 为墙钟时间，
// 时长计算使用前者，按日归属与证据展示使用后者
type TimeEvent struct {
	EventID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"event_id"`
	CompanyID      string    `gorm:"type:uuid;not null"                             json:"company_id"`
	EmployeeID     string    `gorm:"type:uuid;not null"                             json:"employee_id"`
	EventType      string    `gorm:"type:varchar(10);not null"                      json:"event_type"`
	Timestamp      time.Time `gorm:"column:event_timestamp;not null"                json:"timestamp"`
	LocalTimestamp time.Time `gorm:"type:timestamp;not null"                        json:"local_timestamp"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (TimeEvent) TableName() string { return "time_events" }
