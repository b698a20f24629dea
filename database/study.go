package database

import (
	"context"
	"errors"
	"time"

	"github.com/skillsync/skillsync/models"
	"github.com/skillsync/skillsync/pkg/study"

	"gorm.io/gorm"
)

// StudyStore 学习记录存储
type StudyStore struct {
	db *gorm.DB
}

// NewStudyStore 创建学习记录存储
func NewStudyStore(db *gorm.DB) *StudyStore {
	return &StudyStore{db: db}
}

// Record 在一个事务中保存学习记录并更新连续天数
func (s *StudyStore) Record(ctx context.Context, log *models.StudyLog) (*models.Streak, error) {
	var streak models.Streak
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(log).Error; err != nil {
			return err
		}

		err := tx.Where("user_id = ?", log.UserID).First(&streak).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			streak = models.Streak{UserID: log.UserID}
		} else if err != nil {
			return err
		}

		if !study.Advance(&streak, log.Date) {
			return nil
		}
		return tx.Save(&streak).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &streak, nil
}

// Logs 时间范围内的学习记录，最新在前
func (s *StudyStore) Logs(ctx context.Context, userID uint, from, to time.Time, offset, limit int) ([]models.StudyLog, error) {
	var logs []models.StudyLog
	q := s.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date DESC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	err := q.Find(&logs).Error
	return logs, translate(err)
}

// Streak 用户的连续学习记录，不存在时返回 ErrNotFound
func (s *StudyStore) Streak(ctx context.Context, userID uint) (*models.Streak, error) {
	var streak models.Streak
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&streak).Error; err != nil {
		return nil, translate(err)
	}
	return &streak, nil
}
