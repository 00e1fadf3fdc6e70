package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moimene/time-control-hub-sub002/internal/dto"
	"github.com/moimene/time-control-hub-sub002/internal/service"
	pkgerrors "github.com/moimene/time-control-hub-sub002/pkg/errors"
	"github.com/moimene/time-control-hub-sub002/pkg/response"
)

// ComplianceHandler 合规评估模块 HTTP 处理器
type ComplianceHandler struct {
	complianceSvc service.ComplianceService
}

// NewComplianceHandler 创建 ComplianceHandler
func NewComplianceHandler(complianceSvc service.ComplianceService) *ComplianceHandler {
	return &ComplianceHandler{complianceSvc: complianceSvc}
}

// Evaluate 触发合规评估批次
// POST /api/v1/compliance/evaluate
func (h *ComplianceHandler) Evaluate(c *gin.Context) {
	var req dto.EvaluateComplianceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	companyID, ok := ResolveCompanyID(c, req.CompanyID)
	if !ok {
		return
	}
	req.CompanyID = companyID

	resp, err := h.complianceSvc.Evaluate(c.Request.Context(), &req)
	if err != nil {
		h.handleComplianceError(c, err)
		return
	}

	response.OK(c, resp)
}

// handleComplianceError 统一处理合规评估模块业务错误
func (h *ComplianceHandler) handleComplianceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEvalEmployeeNotFound):
		response.NotFound(c, 20001, "员工不存在或不属于该公司")
	case errors.Is(err, pkgerrors.ErrRunLockHeld):
		response.Error(c, http.StatusConflict, 20002, "该公司已有合规评估批次在执行，请稍后重试")
	default:
		response.InternalError(c)
	}
}
