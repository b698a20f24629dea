package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/skillsync/skillsync/api/middleware"
	"github.com/skillsync/skillsync/database"
	"github.com/skillsync/skillsync/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ConnectionRepository 连接请求存储
type ConnectionRepository interface {
	FindBetween(ctx context.Context, a, b uint) (*models.Connection, error)
	Create(ctx context.Context, conn *models.Connection) error
	Delete(ctx context.Context, id uint) error
	Received(ctx context.Context, userID uint) ([]models.Connection, error)
	Sent(ctx context.Context, userID uint) ([]models.Connection, error)
	Accepted(ctx context.Context, userID uint) ([]models.Connection, error)
	FindPending(ctx context.Context, id, toUserID uint) (*models.Connection, error)
	UpdateStatus(ctx context.Context, conn *models.Connection, status models.ConnectionStatus) error
}

// ConnectionHandler 学习伙伴连接请求
type ConnectionHandler struct {
	connections ConnectionRepository
	users       UserFinder
	logger      *zap.Logger
}

// NewConnectionHandler 创建连接请求处理器
func NewConnectionHandler(connections ConnectionRepository, users UserFinder, logger *zap.Logger) *ConnectionHandler {
	return &ConnectionHandler{connections: connections, users: users, logger: logger}
}

// RegisterRoutes 注册路由
func (h *ConnectionHandler) RegisterRoutes(authorized *gin.RouterGroup) {
	authorized.POST("/connect-request", h.SendRequest)
	authorized.GET("/requests/received", h.Received)
	authorized.GET("/requests/sent", h.Sent)
	authorized.PUT("/requests/:connectionId/respond", h.Respond)
	authorized.GET("/connections", h.Connections)
}

// SendRequest 发送连接请求
func (h *ConnectionHandler) SendRequest(c *gin.Context) {
	fromID := middleware.CurrentUserID(c)

	var req models.ConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "toUserId is required"})
		return
	}
	if req.ToUserID == fromID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot send connection request to yourself"})
		return
	}

	ctx := c.Request.Context()
	toUser, err := h.users.FindByID(ctx, req.ToUserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		internalError(c, h.logger, "Failed to load user", err)
		return
	}

	existing, err := h.connections.FindBetween(ctx, fromID, req.ToUserID)
	switch {
	case err == nil:
		switch existing.Status {
		case models.ConnectionPending:
			c.JSON(http.StatusConflict, gin.H{"error": "Connection request already pending"})
			return
		case models.ConnectionAccepted:
			c.JSON(http.StatusConflict, gin.H{"error": "Already connected with this user"})
			return
		}
		// 被拒绝的请求可以重新发送
		if err := h.connections.Delete(ctx, existing.ID); err != nil {
			internalError(c, h.logger, "Failed to send connection request", err)
			return
		}
	case !errors.Is(err, database.ErrNotFound):
		internalError(c, h.logger, "Failed to send connection request", err)
		return
	}

	conn := models.Connection{
		FromUserID: fromID,
		ToUserID:   req.ToUserID,
		Status:     models.ConnectionPending,
	}
	if err := h.connections.Create(ctx, &conn); err != nil {
		if errors.Is(err, database.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "Connection request already pending"})
			return
		}
		internalError(c, h.logger, "Failed to send connection request", err)
		return
	}
	conn.ToUser = *toUser

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Connection request sent",
		"connectionId": conn.ID,
		"connection":   conn.ToResponse(fromID),
	})
}

// Received 收到的连接请求
func (h *ConnectionHandler) Received(c *gin.Context) {
	h.listRequests(c, h.connections.Received)
}

// Sent 发出的连接请求
func (h *ConnectionHandler) Sent(c *gin.Context) {
	h.listRequests(c, h.connections.Sent)
}

func (h *ConnectionHandler) listRequests(c *gin.Context, load func(context.Context, uint) ([]models.Connection, error)) {
	userID := middleware.CurrentUserID(c)
	conns, err := load(c.Request.Context(), userID)
	if err != nil {
		internalError(c, h.logger, "Failed to fetch connection requests", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  fmt.Sprintf("Found %d requests", len(conns)),
		"requests": toConnectionResponses(conns, userID),
	})
}

// Respond 接受或拒绝连接请求
func (h *ConnectionHandler) Respond(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	id, ok := parseID(c, "connectionId")
	if !ok {
		return
	}

	var req models.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be accept or reject"})
		return
	}

	ctx := c.Request.Context()
	conn, err := h.connections.FindPending(ctx, id, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Connection request not found"})
			return
		}
		internalError(c, h.logger, "Failed to respond to connection request", err)
		return
	}

	status := models.ConnectionRejected
	if req.Action == "accept" {
		status = models.ConnectionAccepted
	}
	if err := h.connections.UpdateStatus(ctx, conn, status); err != nil {
		internalError(c, h.logger, "Failed to respond to connection request", err)
		return
	}
	conn.Status = status

	c.JSON(http.StatusOK, gin.H{
		"message":    fmt.Sprintf("Connection request %s", status),
		"connection": conn.ToResponse(userID),
	})
}

// Connections 已建立的连接
func (h *ConnectionHandler) Connections(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	conns, err := h.connections.Accepted(c.Request.Context(), userID)
	if err != nil {
		internalError(c, h.logger, "Failed to fetch connections", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"connections": toConnectionResponses(conns, userID)})
}

func toConnectionResponses(conns []models.Connection, viewerID uint) []models.ConnectionResponse {
	resp := make([]models.ConnectionResponse, 0, len(conns))
	for i := range conns {
		resp = append(resp, conns[i].ToResponse(viewerID))
	}
	return resp
}
