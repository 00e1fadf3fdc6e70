package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/moimene/time-control-hub-sub002/internal/service"
	"github.com/moimene/time-control-hub-sub002/pkg/response"
)

// NotificationHandler 通知模块 HTTP 处理器
type NotificationHandler struct {
	notificationSvc service.NotificationService
}

// NewNotificationHandler 创建 NotificationHandler
func NewNotificationHandler(notificationSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc}
}

// Dispatch 触发通知派发批次
// POST /api/v1/notifications/dispatch
func (h *NotificationHandler) Dispatch(c *gin.Context) {
	resp, err := h.notificationSvc.Dispatch(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, resp)
}

// List 获取通知列表
// GET /api/v1/notifications?company_id=xxx&page=1&page_size=20
func (h *NotificationHandler) List(c *gin.Context) {
	companyID, ok := ResolveCompanyID(c, c.Query("company_id"))
	if !ok {
		return
	}

	page, pageSize := parsePagination(c)

	list, total, err := h.notificationSvc.List(c.Request.Context(), companyID, page, pageSize)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, page, pageSize)
}

// parsePagination 解析分页查询参数，越界取默认值
func parsePagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
