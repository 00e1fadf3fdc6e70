package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/moimene/time-control-hub-sub002/config"
	"github.com/moimene/time-control-hub-sub002/internal/dto"
	"github.com/moimene/time-control-hub-sub002/internal/model"
	"github.com/moimene/time-control-hub-sub002/internal/repository"
	pkgerrors "github.com/moimene/time-control-hub-sub002/pkg/errors"
	"github.com/moimene/time-control-hub-sub002/pkg/redis"
)

// ── 合规评估模块业务错误 ──

var (
	ErrEvalEmployeeNotFound = errors.New("员工不存在或不属于该公司")
)

const (
	evalDateLayout   = "2006-01-02"
	evalLocalLayout  = "2006-01-02T15:04:05"
	runLockTTL       = 10 * time.Minute
	weeklyWindowDays = 7
)

// ComplianceService 合规评估业务接口
type ComplianceService interface {
	// Evaluate 对一家公司执行单日合规评估批次
	Evaluate(ctx context.Context, req *dto.EvaluateComplianceRequest) (*dto.EvaluateComplianceResponse, error)
}

type complianceService struct {
	cfg      *config.ComplianceConfig
	repo     *repository.Repository
	rdb      *redis.Client // 可为 nil：无 Redis 时跳过运行锁，依赖存储层唯一索引兜底
	workdays WorkdayStrategy
	logger   *zap.Logger
}

// NewComplianceService 创建 ComplianceService 实例
func NewComplianceService(
	cfg *config.ComplianceConfig,
	repo *repository.Repository,
	rdb *redis.Client,
	workdays WorkdayStrategy,
	logger *zap.Logger,
) ComplianceService {
	return &complianceService{cfg: cfg, repo: repo, rdb: rdb, workdays: workdays, logger: logger}
}

// ════════════════════════════════════════════════════════════
// Evaluate — 合规评估批次
// ════════════════════════════════════════════════════════════
//
// 流程：解析目标日期 → 获取公司运行锁 → 取员工名单 → 逐员工执行
// 规则解析 + 日检 (+ 周检) → 违规去重入库。单个员工的取数失败只跳过
// 该员工；名单级失败中止整个批次。

func (s *complianceService) Evaluate(ctx context.Context, req *dto.EvaluateComplianceRequest) (*dto.EvaluateComplianceResponse, error) {
	targetDate, err := s.parseTargetDate(req.Date)
	if err != nil {
		return nil, err
	}

	// 同公司批次串行化：去重与升级守卫存在读后写窗口
	if s.rdb != nil {
		ok, err := s.rdb.AcquireRunLock(ctx, req.CompanyID, runLockTTL)
		if err != nil {
			s.logger.Warn("获取评估运行锁失败，降级继续", zap.Error(err))
		} else if !ok {
			return nil, pkgerrors.ErrRunLockHeld
		} else {
			defer func() {
				if err := s.rdb.ReleaseRunLock(context.WithoutCancel(ctx), req.CompanyID); err != nil {
					s.logger.Warn("释放评估运行锁失败", zap.Error(err))
				}
			}()
		}
	}

	employees, err := s.resolveEmployees(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("开始合规评估",
		zap.String("company_id", req.CompanyID),
		zap.String("date", targetDate.Format(evalDateLayout)),
		zap.Int("employees", len(employees)),
	)

	runWeekly := req.IncludeWeekly || int(targetDate.Weekday()) == s.cfg.WeeklyRestWeekday

	var detected []model.Violation

	for i := range employees {
		emp := &employees[i]

		rules, source := s.resolveRules(ctx, req.CompanyID, emp.EmployeeID)

		dayViolations, err := s.evaluateDay(ctx, emp, targetDate, rules, source)
		if err != nil {
			// 单员工取数失败不拖垮批次
			s.logger.Error("员工日检失败，跳过",
				zap.String("employee_id", emp.EmployeeID), zap.Error(err))
			continue
		}
		detected = append(detected, dayViolations...)

		if runWeekly {
			weekViolation, err := s.evaluateWeek(ctx, emp, targetDate, rules, source)
			if err != nil {
				s.logger.Error("员工周检失败，跳过",
					zap.String("employee_id", emp.EmployeeID), zap.Error(err))
			} else if weekViolation != nil {
				detected = append(detected, *weekViolation)
			}
		}
	}

	s.persistViolations(ctx, detected)

	s.logger.Info("合规评估完成",
		zap.String("company_id", req.CompanyID),
		zap.Int("violations_found", len(detected)),
	)

	resp := &dto.EvaluateComplianceResponse{
		Success:            true,
		Date:               targetDate.Format(evalDateLayout),
		EmployeesEvaluated: len(employees),
		ViolationsFound:    len(detected),
		Violations:         make([]dto.ViolationResponse, 0, len(detected)),
	}
	for i := range detected {
		resp.Violations = append(resp.Violations, toViolationResponse(&detected[i]))
	}
	return resp, nil
}

// parseTargetDate 解析目标日期，缺省为当天（UTC）
func (s *complianceService) parseTargetDate(raw string) (time.Time, error) {
	if raw == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	d, err := time.Parse(evalDateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("无效的日期格式 %q: %w", raw, err)
	}
	return d, nil
}

// resolveEmployees 取本批次参与评估的员工名单
func (s *complianceService) resolveEmployees(ctx context.Context, req *dto.EvaluateComplianceRequest) ([]model.Employee, error) {
	if req.EmployeeID != "" {
		emp, err := s.repo.Employee.GetByID(ctx, req.EmployeeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrEvalEmployeeNotFound
			}
			return nil, err
		}
		if emp.CompanyID != req.CompanyID {
			return nil, ErrEvalEmployeeNotFound
		}
		return []model.Employee{*emp}, nil
	}
	return s.repo.Employee.ListActiveByCompany(ctx, req.CompanyID)
}

// resolveRules 解析员工的生效规则集
// 配置缺失不是错误：取数失败或无指派时回退基线，规则评估绝不因此中止
func (s *complianceService) resolveRules(ctx context.Context, companyID, employeeID string) (EffectiveRuleSet, string) {
	assignments, err := s.repo.RuleAssignment.ListActiveForEmployee(ctx, companyID, employeeID)
	if err != nil {
		s.logger.Warn("读取规则指派失败，回退基线规则",
			zap.String("employee_id", employeeID), zap.Error(err))
		return BaselineRules(), ruleSourceBaseline
	}
	return MergeRuleAssignments(assignments)
}

// ────────────────────── 日检 ──────────────────────

func (s *complianceService) evaluateDay(ctx context.Context, emp *model.Employee, date time.Time, rules EffectiveRuleSet, source string) ([]model.Violation, error) {
	dayStart, dayEnd := localDayBounds(date)
	dayEvents, err := s.repo.TimeEvent.ListByLocalRange(ctx, emp.EmployeeID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("读取当日打卡事件失败: %w", err)
	}

	sessions := BuildSessions(dayEvents)
	totalHours := TotalHours(sessions)

	var violations []model.Violation

	// 1. MAX_DAILY_HOURS：当日会话时长合计超限
	if maxDaily := rules[model.RuleMaxDailyHours]; totalHours > maxDaily.Limit {
		evidence := model.JSONMap{
			"rule_source": source,
			"rule_name":   maxDaily.Name,
			"limit":       maxDaily.Limit,
			"actual":      round2(totalHours),
			"sessions":    sessionEvidence(sessions),
		}
		violations = append(violations, s.newViolation(emp, maxDaily, date, evidence))
	}

	// 2. BREAK_REQUIRED：单个会话超过阈值仍无休息
	breakRule := rules[model.RuleBreakRequired]
	for _, session := range sessions {
		if sessionNeedsBreak(session, breakRule.Limit) {
			evidence := model.JSONMap{
				"rule_source":     source,
				"rule_name":       breakRule.Name,
				"session_hours":   round2(session.Hours),
				"threshold_hours": breakRule.Limit,
				"entry":           session.Entry.LocalTimestamp.Format(evalLocalLayout),
				"exit":            localOrEmpty(session.Exit),
			}
			violations = append(violations, s.newViolation(emp, breakRule, date, evidence))
		}
	}

	// 3. MIN_DAILY_REST：前一日最后下班到当日首次上班的间隔不足
	if v, err := s.checkDailyRest(ctx, emp, date, dayEvents, rules, source); err != nil {
		return nil, err
	} else if v != nil {
		violations = append(violations, *v)
	}

	// 4. 年度加班三档
	if v, err := s.checkOvertimeYTD(ctx, emp, date, rules, source); err != nil {
		return nil, err
	} else if v != nil {
		violations = append(violations, *v)
	}

	return violations, nil
}

func (s *complianceService) checkDailyRest(ctx context.Context, emp *model.Employee, date time.Time, dayEvents []model.TimeEvent, rules EffectiveRuleSet, source string) (*model.Violation, error) {
	var firstEntry *model.TimeEvent
	for i := range dayEvents {
		if dayEvents[i].EventType == model.EventTypeEntry {
			firstEntry = &dayEvents[i]
			break
		}
	}
	if firstEntry == nil {
		return nil, nil
	}

	prevStart, prevEnd := localDayBounds(date.AddDate(0, 0, -1))
	lastExit, err := s.repo.TimeEvent.LastExitInLocalRange(ctx, emp.EmployeeID, prevStart, prevEnd)
	if err != nil {
		return nil, fmt.Errorf("读取前日下班事件失败: %w", err)
	}
	if lastExit == nil {
		return nil, nil
	}

	minRest := rules[model.RuleMinDailyRest]
	restHours := firstEntry.Timestamp.Sub(lastExit.Timestamp).Hours()
	if restHours >= minRest.Limit {
		return nil, nil
	}

	evidence := model.JSONMap{
		"rule_source":    source,
		"rule_name":      minRest.Name,
		"required_hours": minRest.Limit,
		"actual_hours":   round2(restHours),
		"previous_exit":  lastExit.LocalTimestamp.Format(evalLocalLayout),
		"current_entry":  firstEntry.LocalTimestamp.Format(evalLocalLayout),
	}
	v := s.newViolation(emp, minRest, date, evidence)
	return &v, nil
}

// checkOvertimeYTD 年度加班分档检查
//
// 加班时数 = max(0, 年初至今实际工时 − 工作日基线 × 8h)；
// 三档互斥：(75%, 90%] → _75，(90%, 100%] → _90，超过 100% → _CAP，
// 每档上界即下一档阈值，单日至多命中一档
func (s *complianceService) checkOvertimeYTD(ctx context.Context, emp *model.Employee, date time.Time, rules EffectiveRuleSet, source string) (*model.Violation, error) {
	yearStart := time.Date(date.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	_, dayEnd := localDayBounds(date)

	ytdEvents, err := s.repo.TimeEvent.ListByLocalRange(ctx, emp.EmployeeID, yearStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("读取年度打卡事件失败: %w", err)
	}

	worked := TotalHours(BuildSessions(ytdEvents))
	standard := float64(s.workdays.CountWorkdays(yearStart, date)) * standardHoursPerDay
	overtime := math.Max(0, worked-standard)

	cap75, cap90, capRule := rules[model.RuleOvertimeYTD75], rules[model.RuleOvertimeYTD90], rules[model.RuleOvertimeYTDCap]
	capHours := capRule.Limit
	t75 := capHours * cap75.Limit / 100
	t90 := capHours * cap90.Limit / 100

	var rule Rule
	var evidence model.JSONMap

	switch {
	case overtime > t75 && overtime <= t90:
		rule = cap75
		evidence = model.JSONMap{
			"threshold_hours": round2(t75),
			"max_hours":       capHours,
			"overtime_ytd":    round2(overtime),
			"percentage":      math.Round(overtime / capHours * 100),
		}
	case overtime > t90 && overtime <= capHours:
		rule = cap90
		evidence = model.JSONMap{
			"threshold_hours": round2(t90),
			"max_hours":       capHours,
			"overtime_ytd":    round2(overtime),
			"percentage":      math.Round(overtime / capHours * 100),
		}
	case overtime > capHours:
		rule = capRule
		evidence = model.JSONMap{
			"limit_hours":  capHours,
			"overtime_ytd": round2(overtime),
			"excess_hours": round2(overtime - capHours),
		}
	default:
		return nil, nil
	}

	evidence["rule_source"] = source
	evidence["rule_name"] = rule.Name
	evidence["baseline_strategy"] = s.workdays.Name()

	v := s.newViolation(emp, rule, date, evidence)
	return &v, nil
}

// ────────────────────── 周检 ──────────────────────

// evaluateWeek 周度休息检查：检查的是"一周内任何位置都不存在 36h+ 连续
// 休息"，而非固定某天休息；证据记录窗口边界与找到的最长休息间隔
func (s *complianceService) evaluateWeek(ctx context.Context, emp *model.Employee, date time.Time, rules EffectiveRuleSet, source string) (*model.Violation, error) {
	weekStart, _ := localDayBounds(date.AddDate(0, 0, -(weeklyWindowDays - 1)))
	_, windowEnd := localDayBounds(date)

	weekEvents, err := s.repo.TimeEvent.ListByLocalRange(ctx, emp.EmployeeID, weekStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("读取周窗口打卡事件失败: %w", err)
	}
	if len(weekEvents) == 0 {
		return nil, nil
	}

	sessions := BuildSessions(weekEvents)
	maxRest, ok := MaxRestGap(sessions)
	if !ok {
		// 不足两个会话，无法定义会话间休息
		return nil, nil
	}

	minWeekly := rules[model.RuleMinWeeklyRest]
	if maxRest >= minWeekly.Limit {
		return nil, nil
	}

	evidence := model.JSONMap{
		"rule_source":    source,
		"rule_name":      minWeekly.Name,
		"required_hours": minWeekly.Limit,
		"max_rest_found": round2(maxRest),
		"week_start":     weekStart.Format(evalDateLayout),
		"week_end":       date.Format(evalDateLayout),
	}
	v := s.newViolation(emp, minWeekly, date, evidence)
	return &v, nil
}

// ────────────────────── 入库 ──────────────────────

// persistViolations 违规去重入库
// 先查后插为快路径；唯一索引 (employee, rule_code, violation_date) 兜底并发，
// 撞索引按已存在处理。单条插入失败只丢弃该条，下个批次会重新检出
func (s *complianceService) persistViolations(ctx context.Context, violations []model.Violation) {
	for i := range violations {
		v := &violations[i]

		existing, err := s.repo.Violation.GetByKey(ctx, v.EmployeeID, v.RuleCode, v.ViolationDate)
		if err != nil {
			s.logger.Error("违规查重失败，丢弃本条",
				zap.String("employee_id", v.EmployeeID),
				zap.String("rule_code", v.RuleCode), zap.Error(err))
			continue
		}
		if existing != nil {
			continue
		}

		if err := s.repo.Violation.Create(ctx, v); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue // 并发批次先写入了同键违规
			}
			s.logger.Error("违规入库失败，丢弃本条",
				zap.String("employee_id", v.EmployeeID),
				zap.String("rule_code", v.RuleCode), zap.Error(err))
		}
	}
}

// ── 内部辅助方法 ──

func (s *complianceService) newViolation(emp *model.Employee, rule Rule, date time.Time, evidence model.JSONMap) model.Violation {
	return model.Violation{
		CompanyID:     emp.CompanyID,
		EmployeeID:    emp.EmployeeID,
		RuleCode:      rule.Code,
		Severity:      rule.Severity,
		ViolationDate: date,
		Status:        model.ViolationStatusOpen,
		EvidenceJSON:  evidence,
	}
}

func sessionEvidence(sessions []WorkSession) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, map[string]interface{}{
			"entry": s.Entry.LocalTimestamp.Format(evalLocalLayout),
			"exit":  localOrEmpty(s.Exit),
			"hours": round2(s.Hours),
		})
	}
	return out
}

func localOrEmpty(ev *model.TimeEvent) string {
	if ev == nil {
		return ""
	}
	return ev.LocalTimestamp.Format(evalLocalLayout)
}

func toViolationResponse(v *model.Violation) dto.ViolationResponse {
	return dto.ViolationResponse{
		ID:            v.ViolationID,
		CompanyID:     v.CompanyID,
		EmployeeID:    v.EmployeeID,
		RuleCode:      v.RuleCode,
		Severity:      v.Severity,
		ViolationDate: v.ViolationDate.Format(evalDateLayout),
		Status:        v.Status,
		Evidence:      v.EvidenceJSON,
		CreatedAt:     v.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
