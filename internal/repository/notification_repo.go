package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/moimene/time-control-hub-sub002/internal/model"
)

// NotificationRepository 合规通知数据访问接口
type NotificationRepository interface {
	Create(ctx context.Context, notification *model.Notification) error
	// ExistsForViolation 该违规是否已有通知（调度去重）
	ExistsForViolation(ctx context.Context, violationID string) (bool, error)
	// ListDue 取到期待发送的通知：未发送、未终态失败、scheduled_for 已到，
	// 且不在重试退避期内；按 scheduled_for 升序，limit 封顶
	ListDue(ctx context.Context, now time.Time, limit int) ([]model.Notification, error)
	List(ctx context.Context, companyID string, offset, limit int) ([]model.Notification, int64, error)
	Update(ctx context.Context, notification *model.Notification) error
}

// notificationRepo NotificationRepository 的 GORM 实现
type notificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo 创建 NotificationRepository 实例
func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, notification *model.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepo) ExistsForViolation(ctx context.Context, violationID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("violation_id = ?", violationID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *notificationRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]model.Notification, error) {
	var notifications []model.Notification
	err := r.db.WithContext(ctx).
		Where("sent_at IS NULL AND failed_at IS NULL AND scheduled_for <= ?", now).
		Where("next_retry_at IS NULL OR next_retry_at <= ?", now).
		Order("scheduled_for").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepo) List(ctx context.Context, companyID string, offset, limit int) ([]model.Notification, int64, error) {
	var notifications []model.Notification
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Notification{}).Where("company_id = ?", companyID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

func (r *notificationRepo) Update(ctx context.Context, notification *model.Notification) error {
	return r.db.WithContext(ctx).Save(notification).Error
}
