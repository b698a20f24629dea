package api

import (
	"errors"
	"net/http"

	"github.com/skillsync/skillsync/api/handlers"
	"github.com/skillsync/skillsync/api/middleware"
	"github.com/skillsync/skillsync/database"
	"github.com/skillsync/skillsync/models"
	"github.com/skillsync/skillsync/pkg/matching"

	"github.com/gin-gonic/gin"
)

// MatchingHandler 两个用户之间的匹配明细
type MatchingHandler struct {
	matcher *matching.Matcher
	users   handlers.UserFinder
}

// NewMatchingHandler 创建匹配明细处理器
func NewMatchingHandler(matcher *matching.Matcher, users handlers.UserFinder) *MatchingHandler {
	return &MatchingHandler{
		matcher: matcher,
		users:   users,
	}
}

// RegisterRoutes 注册路由
func (h *MatchingHandler) RegisterRoutes(authorized *gin.RouterGroup) {
	authorized.GET("/match/score/:userId", h.GetScore)
}

// scoreResponse 匹配明细
type scoreResponse struct {
	User              models.UserSummary `json:"user"`
	Strategy          matching.Strategy  `json:"strategy"`
	MatchScore        int                `json:"matchScore"`
	OverlappingSkills []string           `json:"overlappingSkills"`
	OverlappingGoals  []string           `json:"overlappingGoals"`
	SharedSkills      []string           `json:"sharedSkills"`
	SharedGoals       []string           `json:"sharedGoals"`
}

// GetScore 当前用户与指定用户的匹配分数及其构成
func (h *MatchingHandler) GetScore(c *gin.Context) {
	userID, err := models.ParseUserKey(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	me := middleware.CurrentUser(c)
	if me == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	other, err := h.users.FindByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	result := h.matcher.Score(me.MatchProfile(), other.MatchProfile())
	c.JSON(http.StatusOK, scoreResponse{
		User:              other.Summary(),
		Strategy:          h.matcher.Strategy(),
		MatchScore:        result.MatchScore,
		OverlappingSkills: orEmpty(result.OverlappingSkills),
		OverlappingGoals:  orEmpty(result.OverlappingGoals),
		SharedSkills:      orEmpty(result.SharedSkills),
		SharedGoals:       orEmpty(result.SharedGoals),
	})
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
