package dto

import "github.com/moimene/time-control-hub-sub002/internal/model"

// ── 合规评估模块 ──

// EvaluateComplianceRequest 合规评估请求
// Date 缺省为当天；EmployeeID 缺省为公司全部在职员工
type EvaluateComplianceRequest struct {
	CompanyID     string `json:"company_id" binding:"required,uuid"`
	Date          string `json:"date,omitempty" binding:"omitempty,datetime=2006-01-02"`
	EmployeeID    string `json:"employee_id,omitempty" binding:"omitempty,uuid"`
	IncludeWeekly bool   `json:"include_weekly,omitempty"` // 按需触发周度休息检查
}

// EvaluateComplianceResponse 合规评估结果
type EvaluateComplianceResponse struct {
	Success            bool                `json:"success"`
	Date               string              `json:"date"`
	EmployeesEvaluated int                 `json:"employees_evaluated"`
	ViolationsFound    int                 `json:"violations_found"`
	Violations         []ViolationResponse `json:"violations"`
}

// ViolationResponse 违规信息响应
type ViolationResponse struct {
	ID            string        `json:"id"`
	CompanyID     string        `json:"company_id"`
	EmployeeID    string        `json:"employee_id"`
	RuleCode      string        `json:"rule_code"`
	Severity      string        `json:"severity"`
	ViolationDate string        `json:"violation_date"`
	Status        string        `json:"status"`
	Evidence      model.JSONMap `json:"evidence"`
	CreatedAt     string        `json:"created_at"`
}

// UpdateViolationStatusRequest 违规状态流转请求（open → acknowledged/resolved/dismissed）
type UpdateViolationStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=acknowledged resolved dismissed"`
}

// ListViolationsQuery 违规列表查询参数
type ListViolationsQuery struct {
	Status     string `form:"status" binding:"omitempty,oneof=open acknowledged resolved dismissed"`
	EmployeeID string `form:"employee_id" binding:"omitempty,uuid"`
	Page       int    `form:"page,default=1" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
}
