package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/moimene/time-control-hub-sub002/config"
	"github.com/moimene/time-control-hub-sub002/internal/dto"
	"github.com/moimene/time-control-hub-sub002/internal/repository"
	"github.com/moimene/time-control-hub-sub002/internal/service"
)

const jobTimeout = 10 * time.Minute

// Scheduler 进程内定时任务：每日合规评估 + 周期性通知派发
// 多实例部署时依赖评估侧的公司运行锁与存储层唯一索引保证幂等
type Scheduler struct {
	cron   *cron.Cron
	cfg    *config.ComplianceConfig
	repo   *repository.Repository
	svc    *service.Service
	logger *zap.Logger
}

// NewScheduler 创建 Scheduler 实例
func NewScheduler(cfg *config.ComplianceConfig, repo *repository.Repository, svc *service.Service, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		cfg:    cfg,
		repo:   repo,
		svc:    svc,
		logger: logger,
	}
}

// Start 注册并启动定时任务
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.EvaluateCron, s.runEvaluation); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.DispatchCron, s.runDispatch); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("定时任务已启动",
		zap.String("evaluate_cron", s.cfg.EvaluateCron),
		zap.String("dispatch_cron", s.cfg.DispatchCron))
	return nil
}

// Stop 停止调度并等待在途任务结束
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("定时任务已停止")
}

// runEvaluation 逐公司执行每日合规评估
func (s *Scheduler) runEvaluation() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	companyIDs, err := s.repo.Employee.ListCompanyIDs(ctx)
	if err != nil {
		s.logger.Error("读取公司列表失败，跳过本轮评估", zap.Error(err))
		return
	}

	for _, companyID := range companyIDs {
		resp, err := s.svc.Compliance.Evaluate(ctx, &dto.EvaluateComplianceRequest{CompanyID: companyID})
		if err != nil {
			s.logger.Error("定时合规评估失败",
				zap.String("company_id", companyID), zap.Error(err))
			continue
		}
		s.logger.Info("定时合规评估完成",
			zap.String("company_id", companyID),
			zap.Int("violations_found", resp.ViolationsFound))
	}
}

// runDispatch 执行通知派发批次
func (s *Scheduler) runDispatch() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := s.svc.Notification.Dispatch(ctx); err != nil {
		s.logger.Error("定时通知派发失败", zap.Error(err))
	}
}
