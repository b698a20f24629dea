package models

import (
	"time"

	"gorm.io/gorm"
)

// 学习难度
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Valid 是否为合法难度
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// StudyLog 学习记录
type StudyLog struct {
	gorm.Model
	UserID     uint       `gorm:"not null;index:idx_study_user_date" json:"userId"`
	Subject    string     `gorm:"size:200;not null" json:"subject"`
	Hours      float64    `gorm:"not null" json:"hours"`
	Date       time.Time  `gorm:"not null;index:idx_study_user_date" json:"date"`
	Notes      string     `gorm:"size:500" json:"notes,omitempty"`
	Difficulty Difficulty `gorm:"size:10;default:'Medium'" json:"difficulty"`
}

// StudyLogRequest 添加学习记录请求
type StudyLogRequest struct {
	Subject    string     `json:"subject"`
	Hours      float64    `json:"hours"`
	Date       *time.Time `json:"date"`
	Notes      string     `json:"notes"`
	Difficulty Difficulty `json:"difficulty"`
}

// StudyLogResponse 学习记录响应
type StudyLogResponse struct {
	ID         uint       `json:"_id"`
	UserID     uint       `json:"userId"`
	Subject    string     `json:"subject"`
	Hours      float64    `json:"hours"`
	Date       time.Time  `json:"date"`
	Notes      string     `json:"notes,omitempty"`
	Difficulty Difficulty `json:"difficulty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ToResponse 转换为响应
func (l *StudyLog) ToResponse() StudyLogResponse {
	return StudyLogResponse{
		ID:         l.ID,
		UserID:     l.UserID,
		Subject:    l.Subject,
		Hours:      l.Hours,
		Date:       l.Date,
		Notes:      l.Notes,
		Difficulty: l.Difficulty,
		CreatedAt:  l.CreatedAt,
	}
}

// StudySummary 学习统计
type StudySummary struct {
	TotalHours    float64  `json:"totalHours"`
	TotalSessions int      `json:"totalSessions"`
	Subjects      []string `json:"subjects"`
}

// Streak 连续学习记录
type Streak struct {
	gorm.Model     `json:"-"`
	UserID         uint       `gorm:"not null;uniqueIndex" json:"userId"`
	StreakCount    int        `gorm:"not null;default:0" json:"streakCount"`
	LastActiveDate *time.Time `json:"lastActiveDate"`
	LongestStreak  int        `gorm:"not null;default:0" json:"longestStreak"`
	TotalStudyDays int        `gorm:"not null;default:0" json:"totalStudyDays"`
}
