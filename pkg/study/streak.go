package study

import (
	"sort"
	"time"

	"github.com/skillsync/skillsync/models"
)

// 统计周期
const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// Day 截断到 UTC 日历日
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)).Hours() / 24)
}

// Advance 在 at 这一天记录一次学习，返回连续记录是否发生变化
func Advance(s *models.Streak, at time.Time) bool {
	day := Day(at)

	if s.LastActiveDate == nil || s.TotalStudyDays == 0 {
		s.StreakCount = 1
	} else {
		switch diff := daysBetween(*s.LastActiveDate, day); {
		case diff <= 0:
			// 同一天或补记更早的日期
			return false
		case diff == 1:
			s.StreakCount++
		default:
			s.StreakCount = 1
		}
	}

	s.TotalStudyDays++
	if s.StreakCount > s.LongestStreak {
		s.LongestStreak = s.StreakCount
	}
	s.LastActiveDate = &day
	return true
}

// Current 截至 now 仍然有效的连续天数，超过一天未学习则为0
func Current(s *models.Streak, now time.Time) int {
	if s.LastActiveDate == nil {
		return 0
	}
	if daysBetween(*s.LastActiveDate, now) > 1 {
		return 0
	}
	return s.StreakCount
}

// PeriodStart 返回统计周期的起始时间，未知周期按周处理
func PeriodStart(period string, now time.Time) time.Time {
	switch period {
	case PeriodMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case PeriodYear:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	default:
		return now.Add(-7 * 24 * time.Hour)
	}
}

// Summarize 汇总学习时长、次数和科目
func Summarize(logs []models.StudyLog) models.StudySummary {
	summary := models.StudySummary{Subjects: []string{}}
	seen := make(map[string]struct{})
	for _, l := range logs {
		summary.TotalHours += l.Hours
		summary.TotalSessions++
		if _, ok := seen[l.Subject]; !ok {
			seen[l.Subject] = struct{}{}
			summary.Subjects = append(summary.Subjects, l.Subject)
		}
	}
	sort.Strings(summary.Subjects)
	return summary
}
