package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/moimene/time-control-hub-sub002/internal/dto"
	"github.com/moimene/time-control-hub-sub002/internal/service"
	"github.com/moimene/time-control-hub-sub002/pkg/response"
)

// ViolationHandler 违规模块 HTTP 处理器
type ViolationHandler struct {
	violationSvc service.ViolationService
}

// NewViolationHandler 创建 ViolationHandler
func NewViolationHandler(violationSvc service.ViolationService) *ViolationHandler {
	return &ViolationHandler{violationSvc: violationSvc}
}

// List 获取违规列表
// GET /api/v1/violations?company_id=xxx&status=open&employee_id=xxx&page=1&page_size=20
func (h *ViolationHandler) List(c *gin.Context) {
	companyID, ok := ResolveCompanyID(c, c.Query("company_id"))
	if !ok {
		return
	}

	var query dto.ListViolationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.violationSvc.List(c.Request.Context(), companyID, &query)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, query.Page, query.PageSize)
}

// UpdateStatus 流转违规状态
// PATCH /api/v1/violations/:id/status
func (h *ViolationHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "违规ID不能为空")
		return
	}

	var req dto.UpdateViolationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	companyID, ok := ResolveCompanyID(c, c.Query("company_id"))
	if !ok {
		return
	}

	v, err := h.violationSvc.UpdateStatus(c.Request.Context(), companyID, id, req.Status)
	if err != nil {
		h.handleViolationError(c, err)
		return
	}

	response.OK(c, v)
}

// handleViolationError 统一处理违规模块业务错误
func (h *ViolationHandler) handleViolationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrViolationNotFound):
		response.NotFound(c, 21001, "违规记录不存在")
	case errors.Is(err, service.ErrViolationStatusFinal):
		response.BadRequest(c, 21002, "违规已是终态，不允许再流转")
	default:
		response.InternalError(c)
	}
}
