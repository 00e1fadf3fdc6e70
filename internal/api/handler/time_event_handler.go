package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/moimene/time-control-hub-sub002/internal/dto"
	"github.com/moimene/time-control-hub-sub002/internal/service"
	"github.com/moimene/time-control-hub-sub002/pkg/response"
)

// TimeEventHandler 打卡模块 HTTP 处理器
type TimeEventHandler struct {
	timeEventSvc service.TimeEventService
}

// NewTimeEventHandler 创建 TimeEventHandler
func NewTimeEventHandler(timeEventSvc service.TimeEventService) *TimeEventHandler {
	return &TimeEventHandler{timeEventSvc: timeEventSvc}
}

// Clock kiosk 终端自助打卡
// POST /api/v1/clock
// 未认证入口，由速率限制中间件防护
func (h *TimeEventHandler) Clock(c *gin.Context) {
	var req dto.ClockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.timeEventSvc.Clock(c.Request.Context(), &req)
	if err != nil {
		h.handleClockError(c, err)
		return
	}

	response.Created(c, resp)
}

// handleClockError 统一处理打卡模块业务错误
// 员工不存在与 PIN 错误返回同一文案，避免枚举员工工号
func (h *TimeEventHandler) handleClockError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrClockEmployeeNotFound),
		errors.Is(err, service.ErrInvalidPin):
		response.Unauthorized(c, 25001, "工号或 PIN 码错误")
	case errors.Is(err, service.ErrClockEmployeeInactive):
		response.Forbidden(c, 25002, "员工已停用，无法打卡")
	case errors.Is(err, service.ErrClockDisabled):
		response.Forbidden(c, 25003, "该员工未启用自助打卡")
	default:
		response.InternalError(c)
	}
}
