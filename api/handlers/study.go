package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/skillsync/skillsync/api/middleware"
	"github.com/skillsync/skillsync/database"
	"github.com/skillsync/skillsync/models"
	"github.com/skillsync/skillsync/pkg/study"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	minStudyHours  = 0.1
	maxStudyHours  = 24
	maxNotesLength = 500
)

// StudyRepository 学习记录存储
type StudyRepository interface {
	Record(ctx context.Context, log *models.StudyLog) (*models.Streak, error)
	Logs(ctx context.Context, userID uint, from, to time.Time, offset, limit int) ([]models.StudyLog, error)
	Streak(ctx context.Context, userID uint) (*models.Streak, error)
}

// StudyHandler 学习记录和连续学习天数
type StudyHandler struct {
	study  StudyRepository
	users  UserFinder
	now    func() time.Time
	logger *zap.Logger
}

// NewStudyHandler 创建学习记录处理器
func NewStudyHandler(repo StudyRepository, users UserFinder, logger *zap.Logger) *StudyHandler {
	return &StudyHandler{study: repo, users: users, now: time.Now, logger: logger}
}

// RegisterRoutes 注册路由
func (h *StudyHandler) RegisterRoutes(authorized *gin.RouterGroup) {
	authorized.POST("/study/log", h.Log)
	authorized.GET("/study/logs/:userId", h.Logs)
	authorized.GET("/study/streak/:userId", h.Streak)
}

// Log 记录一次学习
func (h *StudyHandler) Log(c *gin.Context) {
	var req models.StudyLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" || req.Hours == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Subject and hours are required"})
		return
	}
	if req.Hours < minStudyHours || req.Hours > maxStudyHours {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Hours must be between 0.1 and 24"})
		return
	}
	notes := strings.TrimSpace(req.Notes)
	if utf8.RuneCountInString(notes) > maxNotesLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Notes must be at most 500 characters"})
		return
	}
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	}
	if !difficulty.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Difficulty must be one of Easy, Medium, Hard"})
		return
	}
	date := h.now()
	if req.Date != nil && !req.Date.IsZero() {
		date = *req.Date
	}

	log := models.StudyLog{
		UserID:     middleware.CurrentUserID(c),
		Subject:    subject,
		Hours:      req.Hours,
		Date:       date,
		Notes:      notes,
		Difficulty: difficulty,
	}
	streak, err := h.study.Record(c.Request.Context(), &log)
	if err != nil {
		internalError(c, h.logger, "Failed to log study session", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Study session logged successfully",
		"studyLog": log.ToResponse(),
		"streak":   streak,
	})
}

// Logs 统计周期内的学习记录和汇总
func (h *StudyHandler) Logs(c *gin.Context) {
	userID, ok := h.existingUser(c)
	if !ok {
		return
	}

	period := c.DefaultQuery("period", study.PeriodWeek)
	now := h.now()
	from := study.PeriodStart(period, now)

	logs, err := h.study.Logs(c.Request.Context(), userID, from, now, 0, 0)
	if err != nil {
		internalError(c, h.logger, "Failed to fetch study logs", err)
		return
	}

	page, limit := pagination(c, 10, 100)
	start := (page - 1) * limit
	if start > len(logs) {
		start = len(logs)
	}
	end := start + limit
	if end > len(logs) {
		end = len(logs)
	}

	resp := make([]models.StudyLogResponse, 0, end-start)
	for i := start; i < end; i++ {
		resp = append(resp, logs[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"studyLogs": resp,
		"summary":   study.Summarize(logs),
		"pagination": gin.H{
			"currentPage": page,
			"totalPages":  (len(logs) + limit - 1) / limit,
		},
	})
}

// Streak 用户当前的连续学习天数
func (h *StudyHandler) Streak(c *gin.Context) {
	userID, ok := h.existingUser(c)
	if !ok {
		return
	}

	streak, err := h.study.Streak(c.Request.Context(), userID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		streak = &models.Streak{UserID: userID}
	case err != nil:
		internalError(c, h.logger, "Failed to fetch streak", err)
		return
	}

	resp := *streak
	resp.StreakCount = study.Current(streak, h.now())
	c.JSON(http.StatusOK, resp)
}

func (h *StudyHandler) existingUser(c *gin.Context) (uint, bool) {
	userID, ok := parseID(c, "userId")
	if !ok {
		return 0, false
	}
	if _, err := h.users.FindByID(c.Request.Context(), userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return 0, false
		}
		internalError(c, h.logger, "Failed to load user", err)
		return 0, false
	}
	return userID, true
}
