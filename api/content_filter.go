package api

import (
	"context"
	"net/http"

	"github.com/skillsync/skillsync/pkg/chat"
	"github.com/skillsync/skillsync/pkg/filter"

	"github.com/gin-gonic/gin"
)

// ContentChecker 内容审核
type ContentChecker interface {
	Filter(ctx context.Context, content string) (*filter.FilterResult, error)
}

// ContentFilterHandler 内容过滤处理器，客户端发送私信前可预先检查
type ContentFilterHandler struct {
	filterService ContentChecker
}

// NewContentFilterHandler 创建新的内容过滤处理器
func NewContentFilterHandler(service ContentChecker) *ContentFilterHandler {
	return &ContentFilterHandler{filterService: service}
}

// RegisterRoutes 注册路由
func (h *ContentFilterHandler) RegisterRoutes(authorized *gin.RouterGroup) {
	authorized.POST("/filter/check", h.CheckContent)
}

// CheckRequest 检查请求
type CheckRequest struct {
	Content string `json:"content" binding:"required"`
}

// CheckContent 检查内容
func (h *ContentFilterHandler) CheckContent(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	text, err := chat.NormalizeText(req.Content)
	if err != nil {
		c.JSON(http.StatusOK, filter.FilterResult{IsClean: false, Reason: err.Error()})
		return
	}

	result, err := h.filterService.Filter(c.Request.Context(), text)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
