package models

import (
	"time"

	"gorm.io/gorm"
)

// MaxMessageLength 单条消息最大长度
const MaxMessageLength = 2000

// Message 私信
type Message struct {
	gorm.Model
	SenderID   uint   `gorm:"not null;index:idx_message_pair"`
	ReceiverID uint   `gorm:"not null;index:idx_message_pair;index:idx_message_unread"`
	Text       string `gorm:"type:text;not null"`
	IsRead     bool   `gorm:"default:false;index:idx_message_unread"`
}

// SendMessageRequest 发送消息请求
type SendMessageRequest struct {
	ReceiverID uint   `json:"receiverId" binding:"required"`
	Text       string `json:"text" binding:"required"`
}

// MessageResponse 消息响应
type MessageResponse struct {
	ID         uint      `json:"_id"`
	SenderID   uint      `json:"senderId"`
	ReceiverID uint      `json:"receiverId"`
	Text       string    `json:"text"`
	IsRead     bool      `json:"isRead"`
	Timestamp  time.Time `json:"timestamp"`
}

// ToResponse 转换为响应
func (m *Message) ToResponse() MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Text:       m.Text,
		IsRead:     m.IsRead,
		Timestamp:  m.CreatedAt,
	}
}

// Conversation 会话摘要：与某个用户的最近一条消息和未读数
type Conversation struct {
	OtherUser   UserSummary     `json:"otherUser"`
	LastMessage MessageResponse `json:"lastMessage"`
	UnreadCount int             `json:"unreadCount"`
}
