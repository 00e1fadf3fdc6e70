package dto

// ── 打卡模块 ──

// ClockRequest 自助打卡请求（kiosk 终端）
type ClockRequest struct {
	CompanyID    string `json:"company_id" binding:"required,uuid"`
	EmployeeCode string `json:"employee_code" binding:"required"`
	Pin          string `json:"pin" binding:"required,len=4,numeric"`
}

// ClockResponse 打卡结果
type ClockResponse struct {
	EmployeeID     string `json:"employee_id"`
	EmployeeName   string `json:"employee_name"`
	EventType      string `json:"event_type"` // 本次记录的事件类型
	Timestamp      string `json:"timestamp"`
	LocalTimestamp string `json:"local_timestamp"`
}
