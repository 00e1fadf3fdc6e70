package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/moimene/time-control-hub-sub002/internal/model"
)

// TimeEventRepository 打卡事件数据访问接口
// 事件日志对合规评估只读；Create 仅供自助打卡入口使用
type TimeEventRepository interface {
	Create(ctx context.Context, event *model.TimeEvent) error
	// ListByLocalRange 按墙钟时间区间 [from, to) 取某员工的事件，时间升序
	ListByLocalRange(ctx context.Context, employeeID string, from, to time.Time) ([]model.TimeEvent, error)
	// LastExitInLocalRange 区间内最后一次 exit 事件；无则返回 nil
	LastExitInLocalRange(ctx context.Context, employeeID string, from, to time.Time) (*model.TimeEvent, error)
	// LastEvent 某员工最近一条事件；无则返回 nil
	LastEvent(ctx context.Context, employeeID string) (*model.TimeEvent, error)
}

// timeEventRepo TimeEventRepository 的 GORM 实现
type timeEventRepo struct {
	db *gorm.DB
}

// NewTimeEventRepo 创建 TimeEventRepository 实例
func NewTimeEventRepo(db *gorm.DB) TimeEventRepository {
	return &timeEventRepo{db: db}
}

func (r *timeEventRepo) Create(ctx context.Context, event *model.TimeEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *timeEventRepo) ListByLocalRange(ctx context.Context, employeeID string, from, to time.Time) ([]model.TimeEvent, error) {
	var events []model.TimeEvent
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND local_timestamp >= ? AND local_timestamp < ?", employeeID, from, to).
		Order("local_timestamp").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *timeEventRepo) LastExitInLocalRange(ctx context.Context, employeeID string, from, to time.Time) (*model.TimeEvent, error) {
	var event model.TimeEvent
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND event_type = ? AND local_timestamp >= ? AND local_timestamp < ?",
			employeeID, model.EventTypeExit, from, to).
		Order("local_timestamp DESC").
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (r *timeEventRepo) LastEvent(ctx context.Context, employeeID string) (*model.TimeEvent, error) {
	var event model.TimeEvent
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("event_timestamp DESC").
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}
