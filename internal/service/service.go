package service

import (
	"go.uber.org/zap"

	"github.com/moimene/time-control-hub-sub002/config"
	"github.com/moimene/time-control-hub-sub002/internal/repository"
	"github.com/moimene/time-control-hub-sub002/pkg/mailer"
	"github.com/moimene/time-control-hub-sub002/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Compliance   ComplianceService
	Notification NotificationService
	Violation    ViolationService
	Incident     IncidentService
	TimeEvent    TimeEventService
	Export       ExportService
}

// NewService 创建 Service 聚合
// rdb 与 sender 可为 nil，对应能力降级（无运行锁 / 仅站内信）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	rdb *redis.Client,
	sender mailer.Sender,
	logger *zap.Logger,
) *Service {
	workdays := buildWorkdayStrategy(&cfg.Compliance, logger)

	return &Service{
		Compliance:   NewComplianceService(&cfg.Compliance, repo, rdb, workdays, logger),
		Notification: NewNotificationService(&cfg.Compliance, repo, sender, logger),
		Violation:    NewViolationService(repo, logger),
		Incident:     NewIncidentService(repo, logger),
		TimeEvent:    NewTimeEventService(&cfg.Compliance, repo, logger),
		Export:       NewExportService(repo, logger),
	}
}

// buildWorkdayStrategy 按配置选择工作日算法
// 配置了节假日日历则加载失败时回退近似算法，不阻塞启动
func buildWorkdayStrategy(cfg *config.ComplianceConfig, logger *zap.Logger) WorkdayStrategy {
	if cfg.HolidayCalendarURL == "" {
		return ApproximateWorkdays{}
	}
	strategy, err := NewCalendarWorkdaysFromICS(cfg.HolidayCalendarURL)
	if err != nil {
		logger.Warn("加载节假日日历失败，回退近似工作日算法",
			zap.String("url", cfg.HolidayCalendarURL), zap.Error(err))
		return ApproximateWorkdays{}
	}
	logger.Info("已加载节假日日历", zap.String("strategy", strategy.Name()))
	return strategy
}
