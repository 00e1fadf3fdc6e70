package service

import (
	"time"

	"github.com/moimene/time-control-hub-sub002/internal/model"
)

// WorkSession 一段连续的 entry→exit 工作区间
// Exit 为 nil 表示窗口结束时仍未打下班卡（时长记 0，向下游标记缺卡状态）
type WorkSession struct {
	Entry *model.TimeEvent
	Exit  *model.TimeEvent
	Hours float64
}

// sessionState 扫描状态：显式区分"无进行中会话"与"已开卡待下班"
// 单员工单会话模型：开卡期间再次收到 entry 视为重复开卡、直接忽略
// （保留最早的 entry，绝不缩短会话）
type sessionState struct {
	open  bool
	entry *model.TimeEvent
}

// BuildSessions 将按时间升序的打卡事件折叠为工作会话列表
//
// 规则：
//   - entry 开启会话；其后第一条 exit 关闭会话，时长 = exit − entry（负值按 0 处理，防时钟偏移）
//   - 会话进行中的重复 entry 被忽略；无进行中会话时的 exit 同样被忽略
//   - 窗口结束仍未关闭的会话以 Hours=0 输出
func BuildSessions(events []model.TimeEvent) []WorkSession {
	sessions := make([]WorkSession, 0, len(events)/2)
	state := sessionState{}

	for i := range events {
		ev := &events[i]
		switch ev.EventType {
		case model.EventTypeEntry:
			if state.open {
				continue // 重复开卡
			}
			state = sessionState{open: true, entry: ev}
		case model.EventTypeExit:
			if !state.open {
				continue // 无对应 entry 的 exit
			}
			hours := ev.Timestamp.Sub(state.entry.Timestamp).Hours()
			if hours < 0 {
				hours = 0
			}
			sessions = append(sessions, WorkSession{Entry: state.entry, Exit: ev, Hours: hours})
			state = sessionState{}
		}
	}

	if state.open {
		sessions = append(sessions, WorkSession{Entry: state.entry, Exit: nil, Hours: 0})
	}

	return sessions
}

// TotalHours 会话时长合计
func TotalHours(sessions []WorkSession) float64 {
	var total float64
	for _, s := range sessions {
		total += s.Hours
	}
	return total
}

// MaxRestGap 相邻会话之间的最大休息间隔（小时）
// 少于两个会话时无法定义间隔，返回 (0, false)
func MaxRestGap(sessions []WorkSession) (float64, bool) {
	var maxRest float64
	found := false
	for i := 1; i < len(sessions); i++ {
		prev, cur := sessions[i-1], sessions[i]
		if prev.Exit == nil || cur.Entry == nil {
			continue
		}
		rest := cur.Entry.Timestamp.Sub(prev.Exit.Timestamp).Hours()
		if !found || rest > maxRest {
			maxRest = rest
			found = true
		}
	}
	return maxRest, found
}

// sessionNeedsBreak 判断单个会话是否违反强制休息规则
//
// 显式断言：任何超过阈值的连续 entry→exit 区间都视为未休息。
// 会话构建器把任意 exit/entry 对当作会话边界，因此任意时长的已记录休息
// 都能满足本规则；若需要"休息须达到最短时长"的变体，替换此断言即可。
func sessionNeedsBreak(s WorkSession, limitHours float64) bool {
	return s.Hours > limitHours
}

// localDayBounds 某日在墙钟时间下的 [当日 0 点, 次日 0 点) 区间
func localDayBounds(date time.Time) (time.Time, time.Time) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return day, day.AddDate(0, 0, 1)
}
