package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/skillsync/skillsync/api/middleware"
	"github.com/skillsync/skillsync/database"
	"github.com/skillsync/skillsync/models"
	"github.com/skillsync/skillsync/pkg/chat"
	"github.com/skillsync/skillsync/pkg/filter"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// MessageRepository 私信查询
type MessageRepository interface {
	Conversation(ctx context.Context, a, b uint, offset, limit int) ([]models.Message, error)
	Conversations(ctx context.Context, userID uint) ([]models.Conversation, error)
	MarkRead(ctx context.Context, senderID, receiverID uint) (int64, error)
}

// MessageHandler 私信和实时聊天
type MessageHandler struct {
	messages MessageRepository
	users    UserFinder
	chat     *chat.Service
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewMessageHandler 创建私信处理器，allowOrigins 为空或包含 "*" 时接受任意来源的 websocket
func NewMessageHandler(messages MessageRepository, users UserFinder, svc *chat.Service, allowOrigins []string, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{
		messages: messages,
		users:    users,
		chat:     svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// RegisterRoutes 注册路由
func (h *MessageHandler) RegisterRoutes(authorized *gin.RouterGroup) {
	authorized.GET("/messages/conversation/:userId1/:userId2", h.Conversation)
	authorized.GET("/messages/conversations/:userId", h.Conversations)
	authorized.PUT("/messages/read/:senderId", h.MarkRead)
	authorized.POST("/messages", h.Send)
	authorized.GET("/messages/online", h.OnlineUsers)
	authorized.GET("/ws", h.ServeWS)
}

// Conversation 两个用户之间的消息，按时间正序分页
func (h *MessageHandler) Conversation(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	a, ok := parseID(c, "userId1")
	if !ok {
		return
	}
	b, ok := parseID(c, "userId2")
	if !ok {
		return
	}
	if userID != a && userID != b {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	other := a
	if other == userID {
		other = b
	}
	ctx := c.Request.Context()
	if _, err := h.users.FindByID(ctx, other); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "One or both users not found"})
			return
		}
		internalError(c, h.logger, "Failed to load user", err)
		return
	}

	page, limit := pagination(c, 50, 100)
	// 多取一条用于判断是否还有更早的消息
	msgs, err := h.messages.Conversation(ctx, a, b, (page-1)*limit, limit+1)
	if err != nil {
		internalError(c, h.logger, "Failed to fetch messages", err)
		return
	}
	hasMore := len(msgs) > limit
	if hasMore {
		msgs = msgs[:limit]
	}

	resp := make([]models.MessageResponse, len(msgs))
	for i := range msgs {
		resp[len(msgs)-1-i] = msgs[i].ToResponse()
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": resp,
		"pagination": gin.H{
			"currentPage": page,
			"hasMore":     hasMore,
		},
	})
}

// Conversations 用户的会话列表
func (h *MessageHandler) Conversations(c *gin.Context) {
	id, ok := parseID(c, "userId")
	if !ok {
		return
	}
	if id != middleware.CurrentUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	convs, err := h.messages.Conversations(c.Request.Context(), id)
	if err != nil {
		internalError(c, h.logger, "Failed to fetch conversations", err)
		return
	}
	if convs == nil {
		convs = []models.Conversation{}
	}
	c.JSON(http.StatusOK, convs)
}

// MarkRead 把来自 senderId 的消息标记为已读
func (h *MessageHandler) MarkRead(c *gin.Context) {
	senderID, ok := parseID(c, "senderId")
	if !ok {
		return
	}

	n, err := h.messages.MarkRead(c.Request.Context(), senderID, middleware.CurrentUserID(c))
	if err != nil {
		internalError(c, h.logger, "Failed to mark messages as read", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Messages marked as read",
		"modifiedCount": n,
	})
}

// Send 通过 REST 发送私信
func (h *MessageHandler) Send(c *gin.Context) {
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "receiverId and text are required"})
		return
	}

	msg, err := h.chat.Send(c.Request.Context(), middleware.CurrentUserID(c), req.ReceiverID, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrMessageTooLong), errors.Is(err, chat.ErrSelfMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": chat.ErrorMessage(err)})
		case errors.Is(err, filter.ErrRejected):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": chat.ErrorMessage(err)})
		case errors.Is(err, database.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": chat.ErrorMessage(err)})
		default:
			internalError(c, h.logger, "Failed to send message", err)
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg.ToResponse()})
}

// OnlineUsers 当前在线的用户
func (h *MessageHandler) OnlineUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"users": h.chat.Hub().OnlineUsers()})
}

// ServeWS 升级为 websocket 并在连接期间转发消息
func (h *MessageHandler) ServeWS(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Uint("user_id", userID), zap.Error(err))
		return
	}

	hub := h.chat.Hub()
	client := hub.NewClient(userID, conn)
	if !hub.Register(client) {
		conn.Close()
		return
	}
	h.logger.Info("websocket connected", zap.Uint("user_id", userID), zap.String("client_id", client.ID))

	go client.WritePump()
	client.ReadPump(c.Request.Context(), h.chat.HandleFrame)

	h.logger.Info("websocket disconnected", zap.Uint("user_id", userID), zap.String("client_id", client.ID))
}
