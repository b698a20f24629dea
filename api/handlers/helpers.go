package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/skillsync/skillsync/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserFinder 按ID加载用户
type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// parseID 解析路径参数中的ID，失败时写入400
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := models.ParseUserKey(c.Param(name))
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// pagination 解析 page 和 limit 查询参数
func pagination(c *gin.Context, defaultLimit, maxLimit int) (page, limit int) {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// internalError 记录错误并返回500
func internalError(c *gin.Context, log *zap.Logger, msg string, err error) {
	log.Error(msg,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", c.GetString("requestID")))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
