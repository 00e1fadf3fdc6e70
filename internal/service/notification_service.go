package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/moimene/time-control-hub-sub002/config"
	"github.com/moimene/time-control-hub-sub002/internal/dto"
	"github.com/moimene/time-control-hub-sub002/internal/model"
	"github.com/moimene/time-control-hub-sub002/internal/repository"
	"github.com/moimene/time-control-hub-sub002/pkg/mailer"
)

// escalationRule 按严重级别的通知节奏与升级路径
type escalationRule struct {
	InitialDelayHours  int
	EscalateAfterHours int // 0 表示该级别不升级
	EscalationRoles    []string
}

var escalationRules = map[string]escalationRule{
	model.SeverityCritical: {
		InitialDelayHours:  0,
		EscalateAfterHours: 4,
		EscalationRoles:    []string{model.RoleAdmin, model.RoleSuperAdmin},
	},
	model.SeverityWarn: {
		InitialDelayHours:  1,
		EscalateAfterHours: 24,
		EscalationRoles:    []string{model.RoleAdmin},
	},
	model.SeverityInfo: {
		InitialDelayHours:  24,
		EscalateAfterHours: 0,
	},
}

// NotificationService 通知派发与升级业务接口
type NotificationService interface {
	// Dispatch 执行一轮派发：发送到期通知 → 升级超时事件 → 为新违规排期通知
	Dispatch(ctx context.Context) (*dto.DispatchResponse, error)
	// List 分页查询通知
	List(ctx context.Context, companyID string, page, pageSize int) ([]dto.NotificationResponse, int64, error)
}

type notificationService struct {
	cfg    *config.ComplianceConfig
	repo   *repository.Repository
	sender mailer.Sender // 可为 nil：仅站内信，email 渠道按发送失败处理
	logger *zap.Logger

	now func() time.Time // 测试时可替换
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(cfg *config.ComplianceConfig, repo *repository.Repository, sender mailer.Sender, logger *zap.Logger) NotificationService {
	return &notificationService{cfg: cfg, repo: repo, sender: sender, logger: logger, now: time.Now}
}

// ════════════════════════════════════════════════════════════
// Dispatch — 通知派发批次
// ════════════════════════════════════════════════════════════

func (s *notificationService) Dispatch(ctx context.Context) (*dto.DispatchResponse, error) {
	now := s.now().UTC()
	quiet := s.inQuietHours(now)

	results := dto.DispatchResults{}

	due, err := s.repo.Notification.ListDue(ctx, now, s.cfg.DispatchBatchSize)
	if err != nil {
		return nil, fmt.Errorf("读取到期通知失败: %w", err)
	}

	for i := range due {
		n := &due[i]
		results.Processed++

		// 静默时段：非 critical 推迟到静默结束，critical 穿透
		if quiet && n.NotificationType != model.NotificationTypeCriticalViolation {
			n.ScheduledFor = s.quietHoursEnd(now)
			n.QuietHoursDelayed = true
			if err := s.repo.Notification.Update(ctx, n); err != nil {
				s.logger.Error("通知改期失败", zap.String("notification_id", n.NotificationID), zap.Error(err))
				continue
			}
			results.Delayed++
			continue
		}

		if err := s.deliver(n); err != nil {
			s.markSendFailure(ctx, n, now, err)
			results.Failed++
			continue
		}

		n.SentAt = &now
		n.NextRetryAt = nil
		n.ErrorMessage = nil
		if err := s.repo.Notification.Update(ctx, n); err != nil {
			s.logger.Error("通知状态更新失败", zap.String("notification_id", n.NotificationID), zap.Error(err))
			continue
		}
		results.Sent++
	}

	results.Escalated = s.processEscalations(ctx, now)
	created := s.scheduleViolationNotifications(ctx, now)

	s.logger.Info("通知派发批次完成",
		zap.Bool("quiet_hours", quiet),
		zap.Int("processed", results.Processed),
		zap.Int("sent", results.Sent),
		zap.Int("delayed", results.Delayed),
		zap.Int("failed", results.Failed),
		zap.Int("escalated", results.Escalated),
		zap.Int("created", created),
	)

	return &dto.DispatchResponse{
		Success:                 true,
		Timestamp:               now.Format(time.RFC3339),
		QuietHours:              quiet,
		Results:                 results,
		NewNotificationsCreated: created,
	}, nil
}

// deliver 按渠道执行实际投递
// 站内信即记录本身，落库就算送达；email/both 渠道走 SMTP
func (s *notificationService) deliver(n *model.Notification) error {
	if n.Channel == model.ChannelInApp {
		return nil
	}
	if n.RecipientEmail == nil || *n.RecipientEmail == "" {
		return fmt.Errorf("收件人邮箱缺失")
	}
	if s.sender == nil {
		return fmt.Errorf("邮件发送器未配置")
	}

	subject := ""
	if n.Subject != nil {
		subject = *n.Subject
	}
	html, _ := n.BodyJSON["html"].(string)
	if html == "" {
		html = fmt.Sprintf("<p>%s</p>", template.HTMLEscapeString(subject))
	}
	return s.sender.Send(*n.RecipientEmail, subject, html)
}

// markSendFailure 发送失败的重试记账
// 退避为线性：第 k 次失败后等待 k × retry_backoff_minutes；
// 尝试次数耗尽落 failed_at 终态，不再入队
func (s *notificationService) markSendFailure(ctx context.Context, n *model.Notification, now time.Time, sendErr error) {
	n.AttemptCount++
	msg := sendErr.Error()
	n.ErrorMessage = &msg

	if n.AttemptCount >= s.cfg.MaxSendAttempts {
		n.FailedAt = &now
		n.NextRetryAt = nil
		s.logger.Error("通知发送失败，重试耗尽",
			zap.String("notification_id", n.NotificationID),
			zap.Int("attempts", n.AttemptCount), zap.Error(sendErr))
	} else {
		retryAt := now.Add(time.Duration(n.AttemptCount*s.cfg.RetryBackoffMinutes) * time.Minute)
		n.NextRetryAt = &retryAt
		s.logger.Warn("通知发送失败，稍后重试",
			zap.String("notification_id", n.NotificationID),
			zap.Int("attempts", n.AttemptCount),
			zap.Time("next_retry_at", retryAt), zap.Error(sendErr))
	}

	if err := s.repo.Notification.Update(ctx, n); err != nil {
		s.logger.Error("通知失败状态落库失败", zap.String("notification_id", n.NotificationID), zap.Error(err))
	}
}

// ────────────────────── 升级引擎 ──────────────────────

// processEscalations 扫描超过升级时限仍未响应的事件，返回创建的升级通知条数
// 升级后事件置 acknowledged，仅为抑制重复升级，不代表有人实际处理
func (s *notificationService) processEscalations(ctx context.Context, now time.Time) int {
	incidents, err := s.repo.Incident.ListActive(ctx)
	if err != nil {
		s.logger.Error("读取待升级事件失败", zap.Error(err))
		return 0
	}

	escalated := 0
	for i := range incidents {
		incident := &incidents[i]

		// acknowledged 表示已升级过，不重复升级
		if incident.Status != model.IncidentStatusOpen {
			continue
		}

		rule, ok := escalationRules[incident.Severity]
		if !ok || rule.EscalateAfterHours == 0 || len(rule.EscalationRoles) == 0 {
			continue
		}
		if now.Sub(incident.CreatedAt).Hours() < float64(rule.EscalateAfterHours) {
			continue
		}

		userIDs, err := s.repo.UserRole.ListUserIDsByRoles(ctx, incident.CompanyID, rule.EscalationRoles)
		if err != nil {
			s.logger.Error("读取升级接收人失败",
				zap.String("incident_id", incident.IncidentID), zap.Error(err))
			continue
		}

		subject := fmt.Sprintf("Escalated: %s", incident.Title)
		for _, userID := range userIDs {
			uid := userID
			n := &model.Notification{
				CompanyID:        incident.CompanyID,
				NotificationType: model.NotificationTypeEscalation,
				Channel:          model.ChannelInApp,
				RecipientUserID:  &uid,
				Subject:          &subject,
				BodyJSON: model.JSONMap{
					"incident_id":  incident.IncidentID,
					"violation_id": incident.ViolationID,
					"severity":     incident.Severity,
					"title":        incident.Title,
					"opened_at":    incident.CreatedAt.Format(time.RFC3339),
				},
				ViolationID:  &incident.ViolationID,
				IncidentID:   &incident.IncidentID,
				ScheduledFor: now,
			}
			// 接收人关联员工且留有邮箱时同时走邮件通道，查不到则仅站内
			if emp, err := s.repo.Employee.GetByUserID(ctx, uid); err == nil && emp.Email != nil && *emp.Email != "" {
				n.Channel = model.ChannelBoth
				n.RecipientEmail = emp.Email
			}
			if err := s.repo.Notification.Create(ctx, n); err != nil {
				s.logger.Error("升级通知创建失败",
					zap.String("incident_id", incident.IncidentID), zap.Error(err))
				continue
			}
			escalated++
		}

		incident.Status = model.IncidentStatusAcknowledged
		incident.AcknowledgedAt = &now
		if err := s.repo.Incident.Update(ctx, incident); err != nil {
			s.logger.Error("事件升级状态落库失败",
				zap.String("incident_id", incident.IncidentID), zap.Error(err))
			continue
		}

		s.logger.Warn("事件已升级",
			zap.String("incident_id", incident.IncidentID),
			zap.String("severity", incident.Severity),
			zap.Strings("roles", rule.EscalationRoles),
			zap.Int("recipients", len(userIDs)))
	}
	return escalated
}

// ────────────────────── 违规通知排期 ──────────────────────

// scheduleViolationNotifications 为近 24h 新产生且未排期的违规创建通知
// 每条违规至多一条违规通知；critical 同时确保事件存在（每违规至多一个）
func (s *notificationService) scheduleViolationNotifications(ctx context.Context, now time.Time) int {
	violations, err := s.repo.Violation.ListOpenCreatedSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		s.logger.Error("读取待通知违规失败", zap.Error(err))
		return 0
	}

	created := 0
	for i := range violations {
		v := &violations[i]

		exists, err := s.repo.Notification.ExistsForViolation(ctx, v.ViolationID)
		if err != nil {
			s.logger.Error("违规通知查重失败", zap.String("violation_id", v.ViolationID), zap.Error(err))
			continue
		}
		if exists {
			continue
		}

		emp, err := s.repo.Employee.GetByID(ctx, v.EmployeeID)
		if err != nil {
			s.logger.Error("读取违规员工失败", zap.String("violation_id", v.ViolationID), zap.Error(err))
			continue
		}

		rule := escalationRules[v.Severity]
		ruleName := v.RuleCode
		if name, ok := v.EvidenceJSON["rule_name"].(string); ok && name != "" {
			ruleName = name
		}

		channel := model.ChannelEmail
		if v.Severity == model.SeverityCritical {
			channel = model.ChannelBoth
		}

		subject := fmt.Sprintf("[%s] Labor compliance violation: %s", strings.ToUpper(v.Severity), ruleName)
		html := s.buildEmailHTML(v, emp, ruleName)

		n := &model.Notification{
			CompanyID:           v.CompanyID,
			NotificationType:    v.Severity + "_violation",
			Channel:             channel,
			RecipientEmail:      emp.Email,
			RecipientEmployeeID: &v.EmployeeID,
			Subject:             &subject,
			BodyJSON: model.JSONMap{
				"rule_code":      v.RuleCode,
				"rule_name":      ruleName,
				"severity":       v.Severity,
				"violation_date": v.ViolationDate.Format(evalDateLayout),
				"employee_name":  emp.FullName(),
				"evidence":       map[string]interface{}(v.EvidenceJSON),
				"html":           html,
			},
			ViolationID:  &v.ViolationID,
			ScheduledFor: now.Add(time.Duration(rule.InitialDelayHours) * time.Hour),
		}
		if err := s.repo.Notification.Create(ctx, n); err != nil {
			s.logger.Error("违规通知创建失败", zap.String("violation_id", v.ViolationID), zap.Error(err))
			continue
		}
		created++

		if v.Severity == model.SeverityCritical {
			s.ensureIncident(ctx, v, emp, now)
		}
	}
	return created
}

// ensureIncident critical 违规开事件并挂 SLA 截止时间
func (s *notificationService) ensureIncident(ctx context.Context, v *model.Violation, emp *model.Employee, now time.Time) {
	exists, err := s.repo.Incident.ExistsForViolation(ctx, v.ViolationID)
	if err != nil {
		s.logger.Error("事件查重失败", zap.String("violation_id", v.ViolationID), zap.Error(err))
		return
	}
	if exists {
		return
	}

	slaDue := now.Add(time.Duration(s.cfg.CriticalSLAHours) * time.Hour)
	incident := &model.Incident{
		CompanyID:   v.CompanyID,
		ViolationID: v.ViolationID,
		Title:       fmt.Sprintf("Critical violation %s - %s", v.RuleCode, emp.FullName()),
		Description: fmt.Sprintf("Compliance rule %s violated on %s by %s.", v.RuleCode, v.ViolationDate.Format(evalDateLayout), emp.FullName()),
		Severity:    v.Severity,
		Status:      model.IncidentStatusOpen,
		SLADueAt:    &slaDue,
	}
	if err := s.repo.Incident.Create(ctx, incident); err != nil {
		s.logger.Error("事件创建失败", zap.String("violation_id", v.ViolationID), zap.Error(err))
	}
}

// ────────────────────── 静默时段 ──────────────────────

// inQuietHours 判断 UTC 时刻是否落在静默窗口内，窗口可跨午夜
func (s *notificationService) inQuietHours(t time.Time) bool {
	h := t.UTC().Hour()
	start, end := s.cfg.QuietStartHour, s.cfg.QuietEndHour
	if start == end {
		return false
	}
	if start < end {
		return h >= start && h < end
	}
	return h >= start || h < end
}

// quietHoursEnd 下一个静默窗口结束时刻
func (s *notificationService) quietHoursEnd(t time.Time) time.Time {
	u := t.UTC()
	end := time.Date(u.Year(), u.Month(), u.Day(), s.cfg.QuietEndHour, 0, 0, 0, time.UTC)
	if !end.After(u) {
		end = end.AddDate(0, 0, 1)
	}
	return end
}

// ────────────────────── 邮件模板 ──────────────────────

var emailTmpl = template.Must(template.New("violation_email").Parse(`
<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto">
  <div style="background-color:{{.Color}};color:#fff;padding:16px 24px;border-radius:8px 8px 0 0">
    <h2 style="margin:0">{{.SeverityLabel}} Compliance Alert</h2>
  </div>
  <div style="border:1px solid #e0e0e0;border-top:none;padding:24px;border-radius:0 0 8px 8px">
    <p><strong>Employee:</strong> {{.EmployeeName}}</p>
    <p><strong>Rule:</strong> {{.RuleName}} ({{.RuleCode}})</p>
    <p><strong>Date:</strong> {{.Date}}</p>
    {{if .Details}}<table style="width:100%;border-collapse:collapse;margin-top:12px">
    {{range .Details}}<tr>
      <td style="padding:6px 8px;border-bottom:1px solid #eee;color:#666">{{.Key}}</td>
      <td style="padding:6px 8px;border-bottom:1px solid #eee">{{.Value}}</td>
    </tr>{{end}}
    </table>{{end}}
    <p style="color:#999;font-size:12px;margin-top:24px">This is an automated labor compliance notification. Please review the violation in the dashboard.</p>
  </div>
</div>`))

var severityColors = map[string]string{
	model.SeverityCritical: "#dc2626",
	model.SeverityWarn:     "#f59e0b",
	model.SeverityInfo:     "#3b82f6",
}

type emailDetail struct {
	Key   string
	Value string
}

func (s *notificationService) buildEmailHTML(v *model.Violation, emp *model.Employee, ruleName string) string {
	details := make([]emailDetail, 0, len(v.EvidenceJSON))
	for _, key := range []string{"limit", "actual", "required_hours", "actual_hours", "max_rest_found", "overtime_ytd", "percentage", "excess_hours", "session_hours", "threshold_hours"} {
		if val, ok := v.EvidenceJSON[key]; ok {
			details = append(details, emailDetail{Key: key, Value: fmt.Sprintf("%v", val)})
		}
	}

	var buf bytes.Buffer
	err := emailTmpl.Execute(&buf, map[string]interface{}{
		"Color":         severityColors[v.Severity],
		"SeverityLabel": strings.ToUpper(v.Severity),
		"EmployeeName":  emp.FullName(),
		"RuleName":      ruleName,
		"RuleCode":      v.RuleCode,
		"Date":          v.ViolationDate.Format(evalDateLayout),
		"Details":       details,
	})
	if err != nil {
		s.logger.Error("邮件模板渲染失败", zap.Error(err))
		return fmt.Sprintf("<p>Compliance violation %s detected for %s on %s.</p>",
			v.RuleCode, template.HTMLEscapeString(emp.FullName()), v.ViolationDate.Format(evalDateLayout))
	}
	return buf.String()
}

// ────────────────────── 查询 ──────────────────────

func (s *notificationService) List(ctx context.Context, companyID string, page, pageSize int) ([]dto.NotificationResponse, int64, error) {
	offset := (page - 1) * pageSize
	notifications, total, err := s.repo.Notification.List(ctx, companyID, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}

	out := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		out = append(out, toNotificationResponse(&notifications[i]))
	}
	return out, total, nil
}

func toNotificationResponse(n *model.Notification) dto.NotificationResponse {
	resp := dto.NotificationResponse{
		ID:                n.NotificationID,
		NotificationType:  n.NotificationType,
		Channel:           n.Channel,
		Body:              n.BodyJSON,
		ScheduledFor:      n.ScheduledFor.Format(time.RFC3339),
		AttemptCount:      n.AttemptCount,
		QuietHoursDelayed: n.QuietHoursDelayed,
	}
	if n.RecipientEmail != nil {
		resp.RecipientEmail = *n.RecipientEmail
	}
	if n.Subject != nil {
		resp.Subject = *n.Subject
	}
	if n.ViolationID != nil {
		resp.ViolationID = *n.ViolationID
	}
	if n.IncidentID != nil {
		resp.IncidentID = *n.IncidentID
	}
	if n.SentAt != nil {
		resp.SentAt = n.SentAt.Format(time.RFC3339)
	}
	if n.FailedAt != nil {
		resp.FailedAt = n.FailedAt.Format(time.RFC3339)
	}
	if n.ErrorMessage != nil {
		resp.ErrorMessage = *n.ErrorMessage
	}
	return resp
}
