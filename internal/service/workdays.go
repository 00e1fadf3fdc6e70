package service

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

// 标准工时：每个工作日 8 小时
const standardHoursPerDay = 8.0

// WorkdayStrategy 估算 [from, to] 区间内工作日数量的策略
//
// 年度加班基线 = 工作日数 × 8h。策略可替换：近似算法忽略节假日，
// 日历算法按周一至周五扣除节假日；两者都不影响阈值分档逻辑
type WorkdayStrategy interface {
	CountWorkdays(from, to time.Time) int
	Name() string
}

// ── 近似策略 ──

// ApproximateWorkdays 近似工作日策略：日历天数 × 5/7
type ApproximateWorkdays struct{}

// CountWorkdays 估算工作日数
func (ApproximateWorkdays) CountWorkdays(from, to time.Time) int {
	days := int(math.Ceil(to.Sub(from).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days * 5 / 7
}

// Name 策略标识
func (ApproximateWorkdays) Name() string { return "approximate_5_7" }

// ── 日历策略 ──

const (
	icsMaxFileSize  = 5 * 1024 * 1024 // 5MB
	icsFetchTimeout = 30 * time.Second
	icsDateLayout   = "20060102"
)

// CalendarWorkdays 日历工作日策略：周一至周五，扣除节假日
type CalendarWorkdays struct {
	holidays map[string]bool // "2006-01-02" → true
}

// NewCalendarWorkdays 从节假日日期集合构建日历策略
func NewCalendarWorkdays(holidays []time.Time) *CalendarWorkdays {
	m := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		m[h.Format("2006-01-02")] = true
	}
	return &CalendarWorkdays{holidays: m}
}

// NewCalendarWorkdaysFromICS 拉取 ICS 日历并以其全天事件为节假日构建日历策略
func NewCalendarWorkdaysFromICS(rawURL string) (*CalendarWorkdays, error) {
	// webcal:// → https://
	u := rawURL
	if strings.HasPrefix(u, "webcal://") {
		u = "https://" + strings.TrimPrefix(u, "webcal://")
	}

	client := &http.Client{Timeout: icsFetchTimeout}
	resp, err := client.Get(u)
	if err != nil {
		return nil, fmt.Errorf("获取节假日日历失败: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("获取节假日日历失败: HTTP %d", resp.StatusCode)
	}

	cal, err := ics.ParseCalendar(io.LimitReader(resp.Body, icsMaxFileSize))
	if err != nil {
		return nil, fmt.Errorf("解析节假日日历失败: %w", err)
	}

	holidays := make([]time.Time, 0, len(cal.Events()))
	for _, ev := range cal.Events() {
		prop := ev.GetProperty(ics.ComponentPropertyDtStart)
		if prop == nil {
			continue
		}
		// 节假日按全天事件记录，DTSTART 为 VALUE=DATE 形式
		day, err := time.Parse(icsDateLayout, prop.Value)
		if err != nil {
			continue
		}
		holidays = append(holidays, day)
	}

	return NewCalendarWorkdays(holidays), nil
}

// CountWorkdays 数出区间内的实际工作日
func (c *CalendarWorkdays) CountWorkdays(from, to time.Time) int {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)

	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		wd := d.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if c.holidays[d.Format("2006-01-02")] {
			continue
		}
		count++
	}
	return count
}

// Name 策略标识
func (c *CalendarWorkdays) Name() string { return "calendar_holidays" }
