package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/skillsync/skillsync/database"
	"github.com/skillsync/skillsync/models"
	"github.com/skillsync/skillsync/pkg/filter"
)

var (
	// ErrEmptyMessage 消息为空
	ErrEmptyMessage = errors.New("message text is required")
	// ErrMessageTooLong 消息超长
	ErrMessageTooLong = fmt.Errorf("message text exceeds %d characters", models.MaxMessageLength)
	// ErrSelfMessage 不能给自己发消息
	ErrSelfMessage = errors.New("cannot message yourself")
)

// MessageStore 消息持久化
type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) error
}

// UserFinder 用户查询
type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// Moderator 内容审核
type Moderator interface {
	Check(ctx context.Context, content string) error
}

// Service 私信发送：校验、审核、保存，然后推送给双方的在线连接
type Service struct {
	messages  MessageStore
	users     UserFinder
	moderator Moderator
	hub       *Hub
	logger    *zap.Logger
}

// NewService 创建私信服务，moderator 可以为 nil
func NewService(messages MessageStore, users UserFinder, moderator Moderator, hub *Hub, logger *zap.Logger) *Service {
	return &Service{
		messages:  messages,
		users:     users,
		moderator: moderator,
		hub:       hub,
		logger:    logger,
	}
}

// Hub 返回连接注册表
func (s *Service) Hub() *Hub {
	return s.hub
}

// NormalizeText 去除首尾空白并校验长度
func NormalizeText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > models.MaxMessageLength {
		return "", ErrMessageTooLong
	}
	return text, nil
}

// Send 发送私信
func (s *Service) Send(ctx context.Context, senderID, receiverID uint, text string) (*models.Message, error) {
	if senderID == receiverID {
		return nil, ErrSelfMessage
	}

	text, err := NormalizeText(text)
	if err != nil {
		return nil, err
	}

	if s.moderator != nil {
		if err := s.moderator.Check(ctx, text); err != nil {
			return nil, err
		}
	}

	if _, err := s.users.FindByID(ctx, receiverID); err != nil {
		return nil, err
	}

	msg := &models.Message{SenderID: senderID, ReceiverID: receiverID, Text: text}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}

	resp := msg.ToResponse()
	frame := Frame{Type: FrameReceiveMessage, Message: &resp}
	delivered := s.hub.SendTo(receiverID, frame)
	delivered += s.hub.SendTo(senderID, frame)

	s.logger.Debug("message sent",
		zap.Uint("message_id", msg.ID),
		zap.Uint("sender_id", senderID),
		zap.Uint("receiver_id", receiverID),
		zap.Int("delivered", delivered))
	return msg, nil
}

// HandleFrame 处理 websocket 帧，可直接作为 ReadPump 的回调
func (s *Service) HandleFrame(ctx context.Context, c *Client, frame Frame) {
	if frame.Type != FrameSendMessage {
		c.SendError(fmt.Sprintf("unsupported frame type: %q", frame.Type))
		return
	}
	if frame.ReceiverID == 0 {
		c.SendError("receiverId is required")
		return
	}

	if _, err := s.Send(ctx, c.UserID, frame.ReceiverID, frame.Text); err != nil {
		s.logger.Info("websocket send failed", zap.Uint("user_id", c.UserID), zap.Error(err))
		c.SendError(ErrorMessage(err))
	}
}

// ErrorMessage 返回可以展示给客户端的错误描述
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrMessageTooLong), errors.Is(err, ErrSelfMessage):
		return err.Error()
	case errors.Is(err, filter.ErrRejected):
		return "Message rejected by content filter"
	case errors.Is(err, database.ErrNotFound):
		return "Receiver not found"
	}
	return "Failed to send message"
}
