package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/moimene/time-control-hub-sub002/internal/dto"
	"github.com/moimene/time-control-hub-sub002/internal/service"
	"github.com/moimene/time-control-hub-sub002/pkg/response"
)

// IncidentHandler 合规事件模块 HTTP 处理器
type IncidentHandler struct {
	incidentSvc service.IncidentService
}

// NewIncidentHandler 创建 IncidentHandler
func NewIncidentHandler(incidentSvc service.IncidentService) *IncidentHandler {
	return &IncidentHandler{incidentSvc: incidentSvc}
}

// List 获取合规事件列表
// GET /api/v1/incidents?company_id=xxx&status=open&page=1&page_size=20
func (h *IncidentHandler) List(c *gin.Context) {
	companyID, ok := ResolveCompanyID(c, c.Query("company_id"))
	if !ok {
		return
	}

	page, pageSize := parsePagination(c)

	list, total, err := h.incidentSvc.List(c.Request.Context(), companyID, c.Query("status"), page, pageSize)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, page, pageSize)
}

// UpdateStatus 人工关闭合规事件
// PATCH /api/v1/incidents/:id/status
func (h *IncidentHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "事件ID不能为空")
		return
	}

	var req dto.UpdateIncidentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	companyID, ok := ResolveCompanyID(c, c.Query("company_id"))
	if !ok {
		return
	}

	incident, err := h.incidentSvc.UpdateStatus(c.Request.Context(), companyID, id, req.Status)
	if err != nil {
		h.handleIncidentError(c, err)
		return
	}

	response.OK(c, incident)
}

// handleIncidentError 统一处理事件模块业务错误
func (h *IncidentHandler) handleIncidentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrIncidentNotFound):
		response.NotFound(c, 23001, "合规事件不存在")
	case errors.Is(err, service.ErrIncidentStatusFinal):
		response.BadRequest(c, 23002, "合规事件已是终态，不允许再流转")
	default:
		response.InternalError(c)
	}
}
