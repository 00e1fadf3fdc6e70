package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/moimene/time-control-hub-sub002/internal/model"
)

// ── Mock EmployeeRepository ──

type mockEmployeeRepo struct {
	employees map[string]*model.Employee
	getErr    error
	listErr   error
}

func newMockEmployeeRepo() *mockEmployeeRepo {
	return &mockEmployeeRepo{employees: make(map[string]*model.Employee)}
}

func (m *mockEmployeeRepo) GetByID(_ context.Context, id string) (*model.Employee, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if e, ok := m.employees[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEmployeeRepo) GetByCode(_ context.Context, companyID, employeeCode string) (*model.Employee, error) {
	for _, e := range m.employees {
		if e.CompanyID == companyID && e.EmployeeCode == employeeCode {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEmployeeRepo) GetByUserID(_ context.Context, userID string) (*model.Employee, error) {
	for _, e := range m.employees {
		if e.UserID != nil && *e.UserID == userID {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEmployeeRepo) ListActiveByCompany(_ context.Context, companyID string) ([]model.Employee, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []model.Employee
	for _, e := range m.employees {
		if e.CompanyID == companyID && e.Status == model.EmployeeStatusActive {
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EmployeeID < result[j].EmployeeID })
	return result, nil
}

func (m *mockEmployeeRepo) ListCompanyIDs(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var result []string
	for _, e := range m.employees {
		if !seen[e.CompanyID] {
			seen[e.CompanyID] = true
			result = append(result, e.CompanyID)
		}
	}
	sort.Strings(result)
	return result, nil
}

// ── Mock TimeEventRepository ──

type mockTimeEventRepo struct {
	events  []model.TimeEvent
	nextID  int
	listErr error
}

func newMockTimeEventRepo() *mockTimeEventRepo {
	return &mockTimeEventRepo{}
}

func (m *mockTimeEventRepo) Create(_ context.Context, event *model.TimeEvent) error {
	if event.EventID == "" {
		m.nextID++
		event.EventID = fmt.Sprintf("evt-%03d", m.nextID)
	}
	m.events = append(m.events, *event)
	return nil
}

func (m *mockTimeEventRepo) ListByLocalRange(_ context.Context, employeeID string, from, to time.Time) ([]model.TimeEvent, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []model.TimeEvent
	for _, e := range m.events {
		if e.EmployeeID == employeeID && !e.LocalTimestamp.Before(from) && e.LocalTimestamp.Before(to) {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LocalTimestamp.Before(result[j].LocalTimestamp) })
	return result, nil
}

func (m *mockTimeEventRepo) LastExitInLocalRange(_ context.Context, employeeID string, from, to time.Time) (*model.TimeEvent, error) {
	var last *model.TimeEvent
	for i := range m.events {
		e := m.events[i]
		if e.EmployeeID != employeeID || e.EventType != model.EventTypeExit {
			continue
		}
		if e.LocalTimestamp.Before(from) || !e.LocalTimestamp.Before(to) {
			continue
		}
		if last == nil || e.LocalTimestamp.After(last.LocalTimestamp) {
			last = &m.events[i]
		}
	}
	return last, nil
}

func (m *mockTimeEventRepo) LastEvent(_ context.Context, employeeID string) (*model.TimeEvent, error) {
	var last *model.TimeEvent
	for i := range m.events {
		e := m.events[i]
		if e.EmployeeID != employeeID {
			continue
		}
		if last == nil || e.Timestamp.After(last.Timestamp) {
			last = &m.events[i]
		}
	}
	return last, nil
}

// ── Mock RuleAssignmentRepository ──

type mockRuleAssignmentRepo struct {
	assignments []model.RuleAssignment
	listErr     error
}

func newMockRuleAssignmentRepo() *mockRuleAssignmentRepo {
	return &mockRuleAssignmentRepo{}
}

func (m *mockRuleAssignmentRepo) ListActiveForEmployee(_ context.Context, companyID, employeeID string) ([]model.RuleAssignment, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []model.RuleAssignment
	for _, a := range m.assignments {
		if a.CompanyID != companyID || !a.Active {
			continue
		}
		if a.EmployeeID != nil && *a.EmployeeID != employeeID {
			continue
		}
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Priority < result[j].Priority })
	return result, nil
}

// ── Mock ViolationRepository ──

type mockViolationRepo struct {
	violations map[string]*model.Violation
	nextID     int
	createErr  error
}

func newMockViolationRepo() *mockViolationRepo {
	return &mockViolationRepo{violations: make(map[string]*model.Violation)}
}

func (m *mockViolationRepo) Create(_ context.Context, violation *model.Violation) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, v := range m.violations {
		if v.EmployeeID == violation.EmployeeID && v.RuleCode == violation.RuleCode &&
			v.ViolationDate.Format("2006-01-02") == violation.ViolationDate.Format("2006-01-02") {
			return gorm.ErrDuplicatedKey
		}
	}
	if violation.ViolationID == "" {
		m.nextID++
		violation.ViolationID = fmt.Sprintf("vio-%03d", m.nextID)
	}
	if violation.CreatedAt.IsZero() {
		violation.CreatedAt = time.Now().UTC()
	}
	stored := *violation
	m.violations[violation.ViolationID] = &stored
	return nil
}

func (m *mockViolationRepo) GetByID(_ context.Context, id string) (*model.Violation, error) {
	if v, ok := m.violations[id]; ok {
		return v, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockViolationRepo) GetByKey(_ context.Context, employeeID, ruleCode string, date time.Time) (*model.Violation, error) {
	for _, v := range m.violations {
		if v.EmployeeID == employeeID && v.RuleCode == ruleCode &&
			v.ViolationDate.Format("2006-01-02") == date.Format("2006-01-02") {
			return v, nil
		}
	}
	return nil, nil
}

func (m *mockViolationRepo) ListOpenCreatedSince(_ context.Context, since time.Time) ([]model.Violation, error) {
	var result []model.Violation
	for _, v := range m.violations {
		if v.Status == model.ViolationStatusOpen && !v.CreatedAt.Before(since) {
			result = append(result, *v)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ViolationID < result[j].ViolationID })
	return result, nil
}

func (m *mockViolationRepo) List(_ context.Context, companyID, status, employeeID string, offset, limit int) ([]model.Violation, int64, error) {
	all, _ := m.ListAll(context.Background(), companyID, status)
	var filtered []model.Violation
	for _, v := range all {
		if employeeID != "" && v.EmployeeID != employeeID {
			continue
		}
		filtered = append(filtered, v)
	}
	total := int64(len(filtered))
	if offset >= len(filtered) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[offset:end], total, nil
}

func (m *mockViolationRepo) ListAll(_ context.Context, companyID, status string) ([]model.Violation, error) {
	var result []model.Violation
	for _, v := range m.violations {
		if v.CompanyID != companyID {
			continue
		}
		if status != "" && v.Status != status {
			continue
		}
		result = append(result, *v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ViolationID < result[j].ViolationID })
	return result, nil
}

func (m *mockViolationRepo) Update(_ context.Context, violation *model.Violation) error {
	stored := *violation
	m.violations[violation.ViolationID] = &stored
	return nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	notifications map[string]*model.Notification
	nextID        int
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{notifications: make(map[string]*model.Notification)}
}

func (m *mockNotificationRepo) Create(_ context.Context, notification *model.Notification) error {
	if notification.NotificationID == "" {
		m.nextID++
		notification.NotificationID = fmt.Sprintf("ntf-%03d", m.nextID)
	}
	stored := *notification
	m.notifications[notification.NotificationID] = &stored
	return nil
}

func (m *mockNotificationRepo) ExistsForViolation(_ context.Context, violationID string) (bool, error) {
	for _, n := range m.notifications {
		if n.ViolationID != nil && *n.ViolationID == violationID && n.NotificationType != model.NotificationTypeEscalation {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockNotificationRepo) ListDue(_ context.Context, now time.Time, limit int) ([]model.Notification, error) {
	var result []model.Notification
	for _, n := range m.notifications {
		if n.SentAt != nil || n.FailedAt != nil {
			continue
		}
		if n.ScheduledFor.After(now) {
			continue
		}
		if n.NextRetryAt != nil && n.NextRetryAt.After(now) {
			continue
		}
		result = append(result, *n)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScheduledFor.Before(result[j].ScheduledFor) })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockNotificationRepo) List(_ context.Context, companyID string, offset, limit int) ([]model.Notification, int64, error) {
	var filtered []model.Notification
	for _, n := range m.notifications {
		if n.CompanyID == companyID {
			filtered = append(filtered, *n)
		}
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].NotificationID < filtered[j].NotificationID })
	total := int64(len(filtered))
	if offset >= len(filtered) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[offset:end], total, nil
}

func (m *mockNotificationRepo) Update(_ context.Context, notification *model.Notification) error {
	stored := *notification
	m.notifications[notification.NotificationID] = &stored
	return nil
}

// ── Mock IncidentRepository ──

type mockIncidentRepo struct {
	incidents map[string]*model.Incident
	nextID    int
}

func newMockIncidentRepo() *mockIncidentRepo {
	return &mockIncidentRepo{incidents: make(map[string]*model.Incident)}
}

func (m *mockIncidentRepo) Create(_ context.Context, incident *model.Incident) error {
	if incident.IncidentID == "" {
		m.nextID++
		incident.IncidentID = fmt.Sprintf("inc-%03d", m.nextID)
	}
	if incident.CreatedAt.IsZero() {
		incident.CreatedAt = time.Now().UTC()
	}
	stored := *incident
	m.incidents[incident.IncidentID] = &stored
	return nil
}

func (m *mockIncidentRepo) GetByID(_ context.Context, id string) (*model.Incident, error) {
	if i, ok := m.incidents[id]; ok {
		return i, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockIncidentRepo) ExistsForViolation(_ context.Context, violationID string) (bool, error) {
	for _, i := range m.incidents {
		if i.ViolationID == violationID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockIncidentRepo) ListActive(_ context.Context) ([]model.Incident, error) {
	var result []model.Incident
	for _, i := range m.incidents {
		if i.Status == model.IncidentStatusOpen || i.Status == model.IncidentStatusAcknowledged {
			result = append(result, *i)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *mockIncidentRepo) List(_ context.Context, companyID, status string, offset, limit int) ([]model.Incident, int64, error) {
	var filtered []model.Incident
	for _, i := range m.incidents {
		if i.CompanyID != companyID {
			continue
		}
		if status != "" && i.Status != status {
			continue
		}
		filtered = append(filtered, *i)
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].IncidentID < filtered[j].IncidentID })
	total := int64(len(filtered))
	if offset >= len(filtered) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[offset:end], total, nil
}

func (m *mockIncidentRepo) Update(_ context.Context, incident *model.Incident) error {
	stored := *incident
	m.incidents[incident.IncidentID] = &stored
	return nil
}

// ── Mock UserRoleRepository ──

type mockUserRoleRepo struct {
	roles []model.UserRole
}

func newMockUserRoleRepo() *mockUserRoleRepo {
	return &mockUserRoleRepo{}
}

func (m *mockUserRoleRepo) ListUserIDsByRoles(_ context.Context, companyID string, roles []string) ([]string, error) {
	wanted := make(map[string]bool, len(roles))
	for _, r := range roles {
		wanted[r] = true
	}
	seen := make(map[string]bool)
	var result []string
	for _, ur := range m.roles {
		if ur.CompanyID != companyID || !wanted[ur.Role] {
			continue
		}
		if !seen[ur.UserID] {
			seen[ur.UserID] = true
			result = append(result, ur.UserID)
		}
	}
	sort.Strings(result)
	return result, nil
}

// ── Mock 邮件发送器 ──

type mockSender struct {
	sent    []sentMail
	sendErr error
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *mockSender) Send(to, subject, htmlBody string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: htmlBody})
	return nil
}
