package model

// 员工状态
const (
	EmployeeStatusActive   = "active"
	EmployeeStatusInactive = "inactive"
)

// Employee 员工表 — 对应 employees
// 花名册主数据由外部人事模块维护，本服务只读取（打卡 PIN 校验除外）
type Employee struct {
	EmployeeID   string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"employee_id"`
	CompanyID    string  `gorm:"type:uuid;not null"                             json:"company_id"`
	UserID       *string `gorm:"type:uuid"                                      json:"user_id,omitempty"`
	FirstName    string  `gorm:"type:varchar(100);not null"                     json:"first_name"`
	LastName     string  `gorm:"type:varchar(100);not null"                     json:"last_name"`
	EmployeeCode string  `gorm:"type:varchar(50);not null"                      json:"employee_code"`
	Email        *string `gorm:"type:varchar(255)"                              json:"email,omitempty"`
	Department   *string `gorm:"type:varchar(100)"                              json:"department,omitempty"`
	PinHash      *string `gorm:"type:varchar(255)"                              json:"-"`
	Status       string  `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	BaseModel
}

// TableName 指定表名
func (Employee) TableName() string { return "employees" }

// FullName 员工姓名
func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}
