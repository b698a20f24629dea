package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/skillsync/skillsync/database"
	"github.com/skillsync/skillsync/models"
	"github.com/skillsync/skillsync/pkg/utils"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey = "userID"
	userKey   = "user"
)

// TokenParser 解析JWT令牌
type TokenParser interface {
	ParseToken(token string) (*utils.Claims, error)
}

// UserFinder 按ID加载用户
type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// Auth 验证JWT令牌中间件，令牌来自 Authorization 头或 token 查询参数
func Auth(tokens TokenParser, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		claims, err := tokens.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		user, err := users.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}

		// 将用户ID和用户信息存储在上下文中
		c.Set(userIDKey, user.ID)
		c.Set(userKey, user)

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		// websocket 客户端无法设置请求头
		if token := c.Query("token"); token != "" {
			return token, nil
		}
		return "", errors.New("Authorization header is required")
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("Authorization header format must be Bearer {token}")
	}
	return parts[1], nil
}

// CurrentUserID 当前登录用户ID
func CurrentUserID(c *gin.Context) uint {
	return c.GetUint(userIDKey)
}

// CurrentUser 当前登录用户
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// SetCurrentUser 写入当前用户（测试和内部调用使用）
func SetCurrentUser(c *gin.Context, user *models.User) {
	c.Set(userIDKey, user.ID)
	c.Set(userKey, user)
}
