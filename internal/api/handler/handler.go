package handler

import "github.com/moimene/time-control-hub-sub002/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Compliance   *ComplianceHandler
	Notification *NotificationHandler
	Violation    *ViolationHandler
	Incident     *IncidentHandler
	TimeEvent    *TimeEventHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Compliance:   NewComplianceHandler(svc.Compliance),
		Notification: NewNotificationHandler(svc.Notification),
		Violation:    NewViolationHandler(svc.Violation),
		Incident:     NewIncidentHandler(svc.Incident),
		TimeEvent:    NewTimeEventHandler(svc.TimeEvent),
		Export:       NewExportHandler(svc.Export),
	}
}
