package service

import "github.com/moimene/time-control-hub-sub002/internal/model"

// Rule 一条已解析的合规规则
type Rule struct {
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Limit    float64 `json:"limit"`
	Severity string  `json:"severity"`
}

// EffectiveRuleSet 生效规则集：规则代码 → 规则
// 由基线规则与按优先级排序的指派负载合并而来
type EffectiveRuleSet map[string]Rule

// ruleSourceBaseline 未命中任何指派时的规则来源标识
const ruleSourceBaseline = "baseline"

// BaselineRules 固定基线规则集
//
// OVERTIME_YTD_75 / _90 的 Limit 为 OVERTIME_YTD_CAP.Limit 的百分比分界，
// 三档按 (75%, 90%] / (90%, 100%] / (100%, ∞) 互斥划分
func BaselineRules() EffectiveRuleSet {
	return EffectiveRuleSet{
		model.RuleMaxDailyHours:  {Code: model.RuleMaxDailyHours, Name: "Maximum daily hours", Limit: 9, Severity: model.SeverityCritical},
		model.RuleMinDailyRest:   {Code: model.RuleMinDailyRest, Name: "Minimum daily rest", Limit: 12, Severity: model.SeverityCritical},
		model.RuleMinWeeklyRest:  {Code: model.RuleMinWeeklyRest, Name: "Minimum weekly rest", Limit: 36, Severity: model.SeverityCritical},
		model.RuleBreakRequired:  {Code: model.RuleBreakRequired, Name: "Break required", Limit: 6, Severity: model.SeverityWarn},
		model.RuleOvertimeYTD75:  {Code: model.RuleOvertimeYTD75, Name: "Overtime 75% of yearly cap", Limit: 75, Severity: model.SeverityWarn},
		model.RuleOvertimeYTD90:  {Code: model.RuleOvertimeYTD90, Name: "Overtime 90% of yearly cap", Limit: 90, Severity: model.SeverityCritical},
		model.RuleOvertimeYTDCap: {Code: model.RuleOvertimeYTDCap, Name: "Overtime yearly cap exceeded", Limit: 80, Severity: model.SeverityCritical},
	}
}

// MergeRuleAssignments 将规则指派合并到基线之上
//
// assignments 须按 priority 升序：逐条将负载中显式出现的属性覆盖到运行集，
// 高优先级指派后处理、按代码覆盖获胜。负载中出现的未知规则代码被忽略
// （规则集是固定的七条命名检查，不支持动态新增）。
// 返回合并后的规则集与来源描述（最后一条产生覆盖的指派名，或 baseline）。
func MergeRuleAssignments(assignments []model.RuleAssignment) (EffectiveRuleSet, string) {
	rules := BaselineRules()
	source := ruleSourceBaseline

	for _, a := range assignments {
		applied := false
		for code, override := range a.Payload {
			rule, ok := rules[code]
			if !ok {
				continue
			}
			if override.Limit != nil {
				rule.Limit = *override.Limit
			}
			if override.Severity != nil {
				rule.Severity = *override.Severity
			}
			if override.Name != nil {
				rule.Name = *override.Name
			}
			rules[code] = rule
			applied = true
		}
		if applied {
			source = a.Name
		}
	}

	return rules, source
}
