package models

import (
	"time"

	"gorm.io/gorm"
)

// 连接状态
type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
	ConnectionRejected ConnectionStatus = "rejected"
)

// Connection 学习伙伴连接请求
type Connection struct {
	gorm.Model
	FromUserID uint             `gorm:"not null;uniqueIndex:idx_connection_pair;index:idx_connection_from_status"`
	ToUserID   uint             `gorm:"not null;uniqueIndex:idx_connection_pair;index:idx_connection_to_status"`
	Status     ConnectionStatus `gorm:"size:20;not null;default:'pending';index:idx_connection_from_status;index:idx_connection_to_status"`
	FromUser   User             `gorm:"foreignKey:FromUserID"`
	ToUser     User             `gorm:"foreignKey:ToUserID"`
}

// ConnectionRequest 发送连接请求
type ConnectionRequest struct {
	ToUserID uint `json:"toUserId" binding:"required"`
}

// RespondRequest 处理连接请求
type RespondRequest struct {
	Action string `json:"action" binding:"required,oneof=accept reject"`
}

// ConnectionResponse 连接响应，User 为对方用户
type ConnectionResponse struct {
	ID        uint             `json:"_id"`
	Status    ConnectionStatus `json:"status"`
	User      *UserResponse    `json:"user,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// ToResponse 以 viewerID 的视角转换为响应
func (c *Connection) ToResponse(viewerID uint) ConnectionResponse {
	resp := ConnectionResponse{
		ID:        c.ID,
		Status:    c.Status,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	other := &c.ToUser
	if viewerID == c.ToUserID {
		other = &c.FromUser
	}
	if other.ID != 0 {
		u := other.ToResponse()
		resp.User = &u
	}
	return resp
}
