package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/moimene/time-control-hub-sub002/config"
	"github.com/moimene/time-control-hub-sub002/internal/dto"
	"github.com/moimene/time-control-hub-sub002/internal/model"
	"github.com/moimene/time-control-hub-sub002/internal/repository"
)

// ── 打卡模块业务错误 ──

var (
	ErrClockEmployeeNotFound = errors.New("员工不存在")
	ErrClockEmployeeInactive = errors.New("员工已停用，无法打卡")
	ErrClockDisabled         = errors.New("该员工未启用自助打卡")
	ErrInvalidPin            = errors.New("PIN 码错误")
)

// TimeEventService 自助打卡业务接口
type TimeEventService interface {
	// Clock kiosk 终端自助打卡：自动在 entry 与 exit 之间切换
	Clock(ctx context.Context, req *dto.ClockRequest) (*dto.ClockResponse, error)
}

type timeEventService struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger

	now func() time.Time // 测试时可替换
}

// NewTimeEventService 创建 TimeEventService 实例
// 时区配置无效时回退 UTC，仅影响墙钟展示，不影响时长计算
func NewTimeEventService(cfg *config.ComplianceConfig, repo *repository.Repository, logger *zap.Logger) TimeEventService {
	loc, err := time.LoadLocation(cfg.KioskTimezone)
	if err != nil {
		logger.Warn("打卡时区配置无效，回退 UTC",
			zap.String("timezone", cfg.KioskTimezone), zap.Error(err))
		loc = time.UTC
	}
	return &timeEventService{repo: repo, loc: loc, logger: logger, now: time.Now}
}

func (s *timeEventService) Clock(ctx context.Context, req *dto.ClockRequest) (*dto.ClockResponse, error) {
	emp, err := s.repo.Employee.GetByCode(ctx, req.CompanyID, req.EmployeeCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClockEmployeeNotFound
		}
		return nil, err
	}
	if emp.Status != model.EmployeeStatusActive {
		return nil, ErrClockEmployeeInactive
	}
	if emp.PinHash == nil || *emp.PinHash == "" {
		return nil, ErrClockDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*emp.PinHash), []byte(req.Pin)); err != nil {
		return nil, ErrInvalidPin
	}

	// 上次事件决定本次类型：无记录或上次为 exit 则打 entry，否则打 exit
	eventType := model.EventTypeEntry
	last, err := s.repo.TimeEvent.LastEvent(ctx, emp.EmployeeID)
	if err != nil {
		return nil, err
	}
	if last != nil && last.EventType == model.EventTypeEntry {
		eventType = model.EventTypeExit
	}

	now := s.now().UTC()
	local := now.In(s.loc)
	event := &model.TimeEvent{
		CompanyID:  emp.CompanyID,
		EmployeeID: emp.EmployeeID,
		EventType:  eventType,
		Timestamp:  now,
		// 墙钟时间按朴素本地时刻存储
		LocalTimestamp: time.Date(local.Year(), local.Month(), local.Day(),
			local.Hour(), local.Minute(), local.Second(), 0, time.UTC),
	}
	if err := s.repo.TimeEvent.Create(ctx, event); err != nil {
		return nil, err
	}

	s.logger.Info("打卡成功",
		zap.String("employee_id", emp.EmployeeID),
		zap.String("event_type", eventType))

	return &dto.ClockResponse{
		EmployeeID:     emp.EmployeeID,
		EmployeeName:   emp.FullName(),
		EventType:      eventType,
		Timestamp:      now.Format(time.RFC3339),
		LocalTimestamp: event.LocalTimestamp.Format(evalLocalLayout),
	}, nil
}
